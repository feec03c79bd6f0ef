// Package apiclient is the typed HTTP client for the planner backend.
//
// Every request passes through a single choke point (Client.do) that:
//   - tags the request with a fresh X-Correlation-ID (UUIDv4),
//   - bounds it with the configured timeout on top of the caller's context,
//   - opens a client span and injects W3C trace headers,
//   - unwraps the backend's {data, message, status, ...} envelope,
//   - normalizes any failure into *apierr.Error exactly once, logs it, and
//     hands it to the Reporter (fire-and-forget upload to /client-logs).
//
// Callers only ever see unwrapped resource values or *apierr.Error.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/planner-admin/internal/apierr"
	"github.com/tbourn/planner-admin/internal/observability"
)

// HeaderCorrelationID carries the per-request correlation token.
const HeaderCorrelationID = "X-Correlation-ID"

// maxBodyBytes caps how much of a response body is read.
const maxBodyBytes = 4 << 20

var errEmptyBody = errors.New("empty response body")

// Reporter receives every normalized failure. Implementations must not block.
type Reporter interface {
	Report(ctx context.Context, e *apierr.Error)
}

// Options configures a Client.
type Options struct {
	// BaseURL is the backend root, e.g. "http://localhost:9000".
	BaseURL string
	// Timeout bounds each request; 0 disables the client-side deadline.
	Timeout time.Duration
	// HTTPClient overrides the underlying client. Its Transport is wrapped
	// with the logging and metrics middleware.
	HTTPClient *http.Client
	// Reporter is notified of failures; nil disables reporting.
	Reporter Reporter
	// NewCorrelationID overrides the token generator (tests).
	NewCorrelationID func() string
}

// Client issues requests against the planner backend.
type Client struct {
	base     *url.URL
	timeout  time.Duration
	hc       *http.Client
	reporter Reporter
	newID    func() string
}

// New validates opts and builds a Client.
func New(opts Options) (*Client, error) {
	raw := strings.TrimSpace(opts.BaseURL)
	if raw == "" {
		return nil, errors.New("apiclient: base URL is required")
	}
	base, err := url.Parse(strings.TrimRight(raw, "/"))
	if err != nil {
		return nil, err
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, errors.New("apiclient: base URL must be http or https")
	}

	hc := opts.HTTPClient
	if hc == nil {
		hc = newHTTPClient()
	} else {
		cp := *hc
		hc = &cp
	}
	next := hc.Transport
	if next == nil {
		next = http.DefaultTransport
	}
	hc.Transport = Chain(next, Logging(), Metrics())

	newID := opts.NewCorrelationID
	if newID == nil {
		newID = uuid.NewString
	}

	return &Client{
		base:     base,
		timeout:  opts.Timeout,
		hc:       hc,
		reporter: opts.Reporter,
		newID:    newID,
	}, nil
}

// BaseURL returns the configured backend root.
func (c *Client) BaseURL() string { return c.base.String() }

// call describes one request issued through do.
type call struct {
	method string
	route  string // bounded-cardinality template, e.g. "/item-types/:id"
	path   string // concrete path, e.g. "/item-types/7"
	in     any
	out    any
	// single marks reads of one resource; a null data payload becomes a 404
	// with notFound as message.
	single   bool
	notFound string
}

func (c *Client) do(ctx context.Context, cl call) *apierr.Error {
	info := apierr.Request{
		Method:        cl.method,
		URL:           c.base.String() + cl.path,
		CorrelationID: c.newID(),
	}

	var body io.Reader
	if cl.in != nil {
		b, err := json.Marshal(cl.in)
		if err != nil {
			return apierr.Invalid("request payload could not be encoded", err)
		}
		body = bytes.NewReader(b)
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	ctx = withRoute(ctx, cl.route)

	ctx, span := observability.StartBackendSpan(ctx, cl.method, cl.route, info.URL, info.CorrelationID)
	defer span.End()

	req, err := http.NewRequestWithContext(ctx, cl.method, info.URL, body)
	if err != nil {
		return c.fail(ctx, span, apierr.FromTransport(info, err))
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set(HeaderCorrelationID, info.CorrelationID)
	observability.InjectHeaders(ctx, req.Header)

	resp, err := c.hc.Do(req)
	if err != nil {
		return c.fail(ctx, span, apierr.FromTransport(info, err))
	}
	defer resp.Body.Close()
	observability.RecordResponse(span, resp.StatusCode)

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return c.fail(ctx, span, apierr.Malformed(info, raw, err))
		}
		return c.fail(ctx, span, apierr.FromResponse(info, resp.StatusCode, raw))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.fail(ctx, span, apierr.FromResponse(info, resp.StatusCode, raw))
	}
	if cl.out == nil {
		return nil
	}

	found, derr := decodeEnvelope(raw, cl.out)
	switch {
	case derr != nil:
		return c.fail(ctx, span, apierr.Malformed(info, raw, derr))
	case !found && cl.single:
		return c.fail(ctx, span, apierr.NotFound(info, cl.notFound))
	}
	return nil
}

// fail is the single exit for failures: diagnostic log line, span status,
// and the fire-and-forget report.
func (c *Client) fail(ctx context.Context, span trace.Span, e *apierr.Error) *apierr.Error {
	observability.MarkFailed(span, e, string(e.Kind()), e.Status)

	ev := log.Warn()
	if e.IsGlobal() {
		ev = log.Error()
	}
	ev.EmbedObject(e).Msg("api error")

	if c.reporter != nil {
		c.reporter.Report(ctx, e)
	}
	return e
}

// decodeEnvelope unwraps {data: ...} when present and decodes the payload into
// out. found is false when the payload is JSON null.
func decodeEnvelope(raw []byte, out any) (found bool, err error) {
	payload := bytes.TrimSpace(raw)
	if len(payload) == 0 {
		return false, errEmptyBody
	}
	if payload[0] == '{' {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(payload, &fields); err != nil {
			return false, err
		}
		if data, ok := fields["data"]; ok {
			payload = bytes.TrimSpace(data)
		}
	}
	if bytes.Equal(payload, []byte("null")) {
		return false, nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return false, err
	}
	return true, nil
}
