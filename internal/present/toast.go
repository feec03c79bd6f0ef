package present

import (
	"context"
	"sync"
)

// Toast is a transient page-level notification.
type Toast struct {
	Severity      string
	Summary       string
	Detail        string
	CorrelationID string
}

// Tray collects toasts raised while one page request is served. It is safe
// for concurrent use.
type Tray struct {
	mu     sync.Mutex
	toasts []Toast
}

// Push appends t.
func (t *Tray) Push(toast Toast) {
	if t == nil {
		return
	}
	t.mu.Lock()
	t.toasts = append(t.toasts, toast)
	t.mu.Unlock()
}

// Drain returns and clears the queued toasts.
func (t *Tray) Drain() []Toast {
	if t == nil {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	out := t.toasts
	t.toasts = nil
	return out
}

// Len returns the number of queued toasts.
func (t *Tray) Len() int {
	if t == nil {
		return 0
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.toasts)
}

type trayKey struct{}

// WithTray attaches tray to ctx.
func WithTray(ctx context.Context, tray *Tray) context.Context {
	return context.WithValue(ctx, trayKey{}, tray)
}

// TrayFrom returns the tray attached to ctx, or nil.
func TrayFrom(ctx context.Context) *Tray {
	t, _ := ctx.Value(trayKey{}).(*Tray)
	return t
}
