// Package apierr defines the normalized failure shape that every layer above
// the HTTP transport consumes.
//
// A failure is normalized exactly once, at the transport boundary, into an
// *Error carrying the upstream status (0 when no response arrived), a display
// message, the raw response body as details, and the correlation id that was
// sent with the originating request. Nothing downstream ever sees a raw
// net/http error.
//
// Classification:
//
//	status 0          KindNetwork     global toast
//	400..422 (≠404)   KindValidation  inline
//	404               KindNotFound    inline
//	other 4xx         KindClient      inline
//	>= 500            KindServer      global toast
package apierr

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog"
)

// Kind is the error class derived from the status code.
type Kind string

const (
	KindNetwork    Kind = "network"
	KindValidation Kind = "validation"
	KindNotFound   Kind = "not_found"
	KindClient     Kind = "client"
	KindServer     Kind = "server"
)

// UnknownMessage is used when neither the server nor the transport produced a
// usable description.
const UnknownMessage = "Unknown error"

// maxDetailBytes caps non-JSON bodies kept as details.
const maxDetailBytes = 4 << 10

// ErrInvalidInput marks failures raised before any request was sent because
// the caller's input was rejected locally.
var ErrInvalidInput = errors.New("invalid input")

// Request identifies the outbound request a failure belongs to.
type Request struct {
	Method        string
	URL           string
	CorrelationID string
}

// Error is the normalized failure. Values are never mutated after creation.
type Error struct {
	Status        int
	Message       string
	Details       any
	CorrelationID string
	Method        string
	URL           string

	cause error
}

// Error implements error as "<status>: <message>", or "network error: <message>"
// when no response was received.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Status == 0 {
		return "network error: " + e.Message
	}
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

// Unwrap returns the transport or validation cause, if any.
func (e *Error) Unwrap() error { return e.cause }

// Kind classifies the error by status.
func (e *Error) Kind() Kind {
	switch {
	case e == nil || e.Status <= 0:
		return KindNetwork
	case e.Status == http.StatusNotFound:
		return KindNotFound
	case e.Status >= 400 && e.Status <= http.StatusUnprocessableEntity:
		return KindValidation
	case e.Status >= 500:
		return KindServer
	default:
		return KindClient
	}
}

// IsInline reports whether the failure is user-correctable and belongs next to
// the control that caused it (0 < status < 500).
func (e *Error) IsInline() bool { return e != nil && e.Status > 0 && e.Status < 500 }

// IsGlobal reports whether the failure is surfaced as a page-level toast
// (status >= 500, or 0 for network failures).
func (e *Error) IsGlobal() bool { return e != nil && (e.Status >= 500 || e.Status == 0) }

// MarshalZerologObject lets callers embed the error in structured logs.
func (e *Error) MarshalZerologObject(ev *zerolog.Event) {
	ev.Int("status", e.Status).
		Str("kind", string(e.Kind())).
		Str("message", e.Message).
		Str("correlation_id", e.CorrelationID).
		Str("method", e.Method).
		Str("url", e.URL)
	if e.cause != nil {
		ev.Str("cause", e.cause.Error())
	}
}

// FromResponse normalizes a received non-2xx response. The server's "message"
// field wins over the generic transport message.
func FromResponse(req Request, status int, body []byte) *Error {
	msg := serverMessage(body)
	if msg == "" {
		msg = fmt.Sprintf("request failed with status code %d", status)
	}
	return &Error{
		Status:        status,
		Message:       msg,
		Details:       details(body),
		CorrelationID: req.CorrelationID,
		Method:        req.Method,
		URL:           req.URL,
	}
}

// FromTransport normalizes a failure where no response was received.
func FromTransport(req Request, err error) *Error {
	return &Error{
		Status:        0,
		Message:       transportMessage(err),
		CorrelationID: req.CorrelationID,
		Method:        req.Method,
		URL:           req.URL,
		cause:         err,
	}
}

// Malformed reports a 2xx response whose body could not be decoded. It is a
// server-class failure (502) since the user cannot correct it.
func Malformed(req Request, body []byte, cause error) *Error {
	return &Error{
		Status:        http.StatusBadGateway,
		Message:       "malformed response body",
		Details:       details(body),
		CorrelationID: req.CorrelationID,
		Method:        req.Method,
		URL:           req.URL,
		cause:         cause,
	}
}

// NotFound reports a successful read that carried no resource.
func NotFound(req Request, msg string) *Error {
	return &Error{
		Status:        http.StatusNotFound,
		Message:       msg,
		CorrelationID: req.CorrelationID,
		Method:        req.Method,
		URL:           req.URL,
	}
}

// Invalid reports input rejected before sending. No correlation id exists
// because no request left the process.
func Invalid(msg string, cause error) *Error {
	if cause == nil {
		cause = ErrInvalidInput
	} else {
		cause = fmt.Errorf("%w: %w", ErrInvalidInput, cause)
	}
	return &Error{Status: http.StatusBadRequest, Message: msg, cause: cause}
}

// From lifts any error into an *Error. *Error values (also when wrapped) are
// returned as-is; anything else becomes a status-0 failure. It returns nil
// only for a nil input.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) && e != nil {
		return e
	}
	return &Error{Status: 0, Message: transportMessage(err), cause: err}
}

func serverMessage(body []byte) string {
	body = bytes.TrimSpace(body)
	if len(body) == 0 || body[0] != '{' {
		return ""
	}
	var probe struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &probe); err != nil {
		return ""
	}
	return strings.TrimSpace(probe.Message)
}

func details(body []byte) any {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil
	}
	if json.Valid(trimmed) {
		return json.RawMessage(append([]byte(nil), trimmed...))
	}
	if len(trimmed) > maxDetailBytes {
		return string(trimmed[:maxDetailBytes]) + "…"
	}
	return string(trimmed)
}

func transportMessage(err error) string {
	if err == nil {
		return UnknownMessage
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "request timed out"
	case errors.Is(err, context.Canceled):
		return "request canceled"
	}
	var ue *url.Error
	if errors.As(err, &ue) {
		if ue.Timeout() {
			return "request timed out"
		}
		if ue.Err != nil {
			err = ue.Err
		}
	}
	if msg := strings.TrimSpace(err.Error()); msg != "" {
		return msg
	}
	return UnknownMessage
}
