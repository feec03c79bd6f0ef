package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/tbourn/planner-admin/internal/apierr"
	"github.com/tbourn/planner-admin/internal/domain"
)

// LogShipper uploads normalized failures to POST {base}/client-logs.
//
// Uploads are fire-and-forget: Report returns immediately, each upload runs
// in its own goroutine detached from the caller's cancellation, and upload
// failures are only logged at debug level. The shipper uses its own plain
// http.Client so a failing upload never re-enters the reporting path.
type LogShipper struct {
	endpoint string
	hc       *http.Client
	timeout  time.Duration

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// NewLogShipper builds a shipper posting to baseURL + "/client-logs".
// A zero timeout defaults to 5s.
func NewLogShipper(baseURL string, hc *http.Client, timeout time.Duration) *LogShipper {
	if hc == nil {
		hc = &http.Client{}
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &LogShipper{
		endpoint: strings.TrimRight(baseURL, "/") + "/client-logs",
		hc:       hc,
		timeout:  timeout,
	}
}

// Report implements Reporter.
func (s *LogShipper) Report(ctx context.Context, e *apierr.Error) {
	if e == nil {
		return
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.wg.Add(1)
	s.mu.Unlock()

	entry := domain.ClientLog{
		Level:         "error",
		URL:           e.URL,
		Status:        e.Status,
		Message:       e.Message,
		CorrelationID: e.CorrelationID,
		Details:       e.Details,
	}
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
		defer cancel()
		s.send(ctx, entry)
	}()
}

func (s *LogShipper) send(ctx context.Context, entry domain.ClientLog) {
	b, err := json.Marshal(entry)
	if err != nil {
		return
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(b))
	if err != nil {
		return
	}
	req.Header.Set("Content-Type", "application/json")
	if entry.CorrelationID != "" {
		req.Header.Set(HeaderCorrelationID, entry.CorrelationID)
	}
	resp, err := s.hc.Do(req)
	if err != nil {
		log.Debug().Err(err).Str("correlation_id", entry.CorrelationID).Msg("client log upload failed")
		return
	}
	_ = resp.Body.Close()
}

// Close stops accepting reports and waits for in-flight uploads until ctx is
// done.
func (s *LogShipper) Close(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
