// Package services composes the API client, the query cache and the local
// journal into the operations the admin pages call.
// This file centralizes service-level error values so that they can be
// consistently returned by service methods and checked by callers.
//
// Failures that come from the planner backend are never wrapped in these
// sentinels; they travel as *apierr.Error inside query.Result.
package services

import "errors"

var (
	// ErrFailureNotFound indicates that no journal entry exists for the
	// requested correlation id.
	ErrFailureNotFound = errors.New("failure not found")

	// ErrDuplicateSubmit is returned when a form's submit token is unknown,
	// expired, or was already used.
	ErrDuplicateSubmit = errors.New("form already submitted")

	// ErrNoCreditsUser is returned when the credits page is opened without a
	// user and no default user is configured.
	ErrNoCreditsUser = errors.New("no credits user configured")
)
