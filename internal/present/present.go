// Package present decides how a normalized failure reaches the operator:
// inline next to the control that caused it, or as a page-level toast raised
// by the global query hook.
package present

import (
	"strconv"

	"github.com/tbourn/planner-admin/internal/apierr"
)

// Mode is the local rendering decision for an error slot.
type Mode int

const (
	// ModeNone renders the subtree unchanged.
	ModeNone Mode = iota
	// ModeInline renders "<status>: <message>" in the slot.
	ModeInline
	// ModeSuppressed renders nothing locally; the global hook owns it.
	ModeSuppressed
)

func (m Mode) String() string {
	switch m {
	case ModeInline:
		return "inline"
	case ModeSuppressed:
		return "suppressed"
	default:
		return "none"
	}
}

// View is what a page template needs to render an error slot.
type View struct {
	Mode    Mode
	Status  int
	Message string
}

// Decide routes err. A nil error renders nothing special.
func Decide(err *apierr.Error) View {
	switch {
	case err == nil:
		return View{Mode: ModeNone}
	case err.IsInline():
		return View{Mode: ModeInline, Status: err.Status, Message: err.Message}
	default:
		return View{Mode: ModeSuppressed, Status: err.Status, Message: err.Message}
	}
}

// Inline reports whether the slot shows the error.
func (v View) Inline() bool { return v.Mode == ModeInline }

// Text is the inline rendering, e.g. "404: not found". Empty unless inline.
func (v View) Text() string {
	if v.Mode != ModeInline {
		return ""
	}
	return strconv.Itoa(v.Status) + ": " + v.Message
}
