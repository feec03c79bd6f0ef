package present

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/planner-admin/internal/apierr"
	"github.com/tbourn/planner-admin/internal/domain"
	"github.com/tbourn/planner-admin/internal/query"
)

// DefaultToastDetail is shown when a global failure carries no message.
const DefaultToastDetail = "A server error occurred"

var toastsRaised = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "planner_toasts_total",
		Help: "Global error toasts raised, by error kind.",
	},
	[]string{"kind"},
)

func init() {
	prometheus.MustRegister(toastsRaised)
}

// Journal persists failures for the diagnostics page.
type Journal interface {
	Record(ctx context.Context, rec domain.FailureRecord) error
}

// GlobalHook returns the cache's single failure hook. Server and network
// failures become a toast in the request's Tray; every failure is journaled
// when j is non-nil. Inline failures are left to the page's error slot.
// A shared failure only toasts the joining request: the journal entry and
// the counter belong to the request that fetched.
func GlobalHook(j Journal) query.ErrorHook {
	return func(ctx context.Context, f query.Failure) {
		if f.Err == nil {
			return
		}
		if f.Shared {
			if f.Err.IsGlobal() {
				TrayFrom(ctx).Push(ToastFor(f.Err))
			}
			return
		}
		presentation := domain.PresentedInline
		if f.Err.IsGlobal() {
			presentation = domain.PresentedToast
			TrayFrom(ctx).Push(ToastFor(f.Err))
			toastsRaised.WithLabelValues(string(f.Err.Kind())).Inc()
		}
		if j == nil {
			return
		}
		rec := domain.FailureRecord{
			ID:            uuid.NewString(),
			CorrelationID: f.Err.CorrelationID,
			Operation:     string(f.Op),
			CacheKey:      f.Key.String(),
			Method:        f.Err.Method,
			URL:           f.Err.URL,
			Status:        f.Err.Status,
			Kind:          string(f.Err.Kind()),
			Message:       f.Err.Message,
			Presentation:  presentation,
			CreatedAt:     time.Now().UTC(),
		}
		// The page request may already be gone; the journal write must not be.
		if err := j.Record(context.WithoutCancel(ctx), rec); err != nil {
			log.Warn().Err(err).Str("correlation_id", rec.CorrelationID).Msg("journal failure record")
		}
	}
}

// ToastFor builds the toast for a global failure.
func ToastFor(err *apierr.Error) Toast {
	summary := "Server Error"
	if err.Status == 0 {
		summary = "Network Error"
	}
	detail := strings.TrimSpace(err.Message)
	if detail == "" {
		detail = DefaultToastDetail
	}
	return Toast{
		Severity:      "error",
		Summary:       summary,
		Detail:        detail,
		CorrelationID: err.CorrelationID,
	}
}
