package query

import "github.com/tbourn/planner-admin/internal/apierr"

// Result is the tagged outcome of a query or mutation: exactly one of Value
// (Err == nil) or Err is meaningful. Callers match on OK.
type Result[T any] struct {
	Value T
	Err   *apierr.Error

	// Cached is true when Value was served from a fresh cache entry without
	// a request.
	Cached bool
	// Fallback is the last known good value for the key when the fetch
	// failed, if one exists.
	Fallback *T
}

// OK reports whether the result carries a value.
func (r Result[T]) OK() bool { return r.Err == nil }

// Get unpacks the result.
func (r Result[T]) Get() (T, *apierr.Error) { return r.Value, r.Err }

// Ok wraps a value.
func Ok[T any](v T) Result[T] { return Result[T]{Value: v} }

// Fail wraps a normalized error.
func Fail[T any](err *apierr.Error) Result[T] { return Result[T]{Err: err} }
