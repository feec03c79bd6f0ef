package present

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tbourn/planner-admin/internal/apierr"
	"github.com/tbourn/planner-admin/internal/domain"
	"github.com/tbourn/planner-admin/internal/query"
)

type memJournal struct {
	mu   sync.Mutex
	recs []domain.FailureRecord
	err  error
}

func (m *memJournal) Record(_ context.Context, rec domain.FailureRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recs = append(m.recs, rec)
	return m.err
}

func TestDecide(t *testing.T) {
	cases := []struct {
		status int
		mode   Mode
		text   string
	}{
		{0, ModeSuppressed, ""},
		{400, ModeInline, "400: bad"},
		{404, ModeInline, "404: bad"},
		{422, ModeInline, "422: bad"},
		{499, ModeInline, "499: bad"},
		{500, ModeSuppressed, ""},
		{503, ModeSuppressed, ""},
	}
	for _, tc := range cases {
		v := Decide(&apierr.Error{Status: tc.status, Message: "bad"})
		assert.Equal(t, tc.mode, v.Mode, "status %d", tc.status)
		assert.Equal(t, tc.text, v.Text(), "status %d", tc.status)
	}

	none := Decide(nil)
	assert.Equal(t, ModeNone, none.Mode)
	assert.False(t, none.Inline())
	assert.Equal(t, "none", none.Mode.String())
}

func TestTray_ContextRoundTrip(t *testing.T) {
	tray := &Tray{}
	ctx := WithTray(context.Background(), tray)
	require.Same(t, tray, TrayFrom(ctx))

	TrayFrom(ctx).Push(Toast{Summary: "a"})
	TrayFrom(ctx).Push(Toast{Summary: "b"})
	assert.Equal(t, 2, tray.Len())
	assert.Len(t, tray.Drain(), 2)
	assert.Zero(t, tray.Len())

	// No tray attached: pushes are dropped.
	assert.Nil(t, TrayFrom(context.Background()))
	TrayFrom(context.Background()).Push(Toast{})
}

func TestGlobalHook_ToastsOnlyGlobalFailures(t *testing.T) {
	j := &memJournal{}
	hook := GlobalHook(j)
	tray := &Tray{}
	ctx := WithTray(context.Background(), tray)

	hook(ctx, query.Failure{
		Op:  query.OpQuery,
		Key: query.Member("/item-types", 99),
		Err: &apierr.Error{Status: 404, Message: "not found", CorrelationID: "c-404"},
	})
	assert.Zero(t, tray.Len(), "inline failures never toast")

	hook(ctx, query.Failure{
		Op:  query.OpQuery,
		Key: query.Collection("/item-types"),
		Err: &apierr.Error{Status: 0, Message: "request timed out", CorrelationID: "c-0", Method: "GET", URL: "http://api/item-types"},
	})
	hook(ctx, query.Failure{
		Op:  query.OpMutation,
		Key: query.Collection("/item-types"),
		Err: &apierr.Error{Status: 500, CorrelationID: "c-500"},
	})

	toasts := tray.Drain()
	require.Len(t, toasts, 2)
	assert.Equal(t, Toast{Severity: "error", Summary: "Network Error", Detail: "request timed out", CorrelationID: "c-0"}, toasts[0])
	assert.Equal(t, "Server Error", toasts[1].Summary)
	assert.Equal(t, DefaultToastDetail, toasts[1].Detail)

	require.Len(t, j.recs, 3)
	assert.Equal(t, domain.PresentedInline, j.recs[0].Presentation)
	assert.Equal(t, "not_found", j.recs[0].Kind)
	assert.Equal(t, "/item-types/99", j.recs[0].CacheKey)
	assert.Equal(t, domain.PresentedToast, j.recs[1].Presentation)
	assert.Equal(t, "GET", j.recs[1].Method)
	assert.Equal(t, "mutation", j.recs[2].Operation)
	assert.NotEmpty(t, j.recs[2].ID)
}

func TestGlobalHook_JournalErrorsAreSwallowed(t *testing.T) {
	j := &memJournal{err: errors.New("disk full")}
	tray := &Tray{}
	GlobalHook(j)(WithTray(context.Background(), tray), query.Failure{
		Op:  query.OpQuery,
		Key: query.Collection("/x"),
		Err: &apierr.Error{Status: 502, Message: "bad gateway"},
	})
	assert.Equal(t, 1, tray.Len())

	// A nil journal still toasts.
	GlobalHook(nil)(WithTray(context.Background(), tray), query.Failure{Err: &apierr.Error{Status: 500}})
	assert.Equal(t, 2, tray.Len())
}

func TestGlobalHook_WiredIntoCache(t *testing.T) {
	c := query.New(query.Options{OnError: GlobalHook(nil)})
	tray := &Tray{}
	ctx := WithTray(context.Background(), tray)

	r := query.Query(ctx, c, query.Collection("/item-types"), func(context.Context) ([]domain.ItemType, error) {
		return nil, &apierr.Error{Status: 0, Message: apierr.UnknownMessage}
	})
	require.False(t, r.OK())
	assert.Equal(t, ModeSuppressed, Decide(r.Err).Mode)

	toasts := tray.Drain()
	require.Len(t, toasts, 1)
	assert.Equal(t, apierr.UnknownMessage, toasts[0].Detail)
}

func TestGlobalHook_SharedFailureOnlyToasts(t *testing.T) {
	j := &memJournal{}
	hook := GlobalHook(j)
	tray := &Tray{}
	ctx := WithTray(context.Background(), tray)

	hook(ctx, query.Failure{Op: query.OpQuery, Key: query.Collection("/x"), Err: &apierr.Error{Status: 503, Message: "down"}, Shared: true})
	hook(ctx, query.Failure{Op: query.OpQuery, Key: query.Member("/x", 1), Err: &apierr.Error{Status: 404, Message: "nope"}, Shared: true})

	toasts := tray.Drain()
	require.Len(t, toasts, 1)
	assert.Equal(t, "down", toasts[0].Detail)
	assert.Empty(t, j.recs, "shared failures are journaled by the fetching request only")
}

func TestGlobalHook_SharedFetchToastsEveryPage(t *testing.T) {
	j := &memJournal{}
	c := query.New(query.Options{OnError: GlobalHook(j)})
	key := query.Collection("/item-types")

	started := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	fetch := func(context.Context) ([]domain.ItemType, error) {
		once.Do(func() { close(started) })
		<-release
		return nil, &apierr.Error{Status: 500, Message: "boom", CorrelationID: "c-shared"}
	}

	trayA, trayB := &Tray{}, &Tray{}
	var wg sync.WaitGroup
	var ra, rb query.Result[[]domain.ItemType]
	wg.Add(2)
	go func() {
		defer wg.Done()
		ra = query.Query(WithTray(context.Background(), trayA), c, key, fetch)
	}()
	<-started
	go func() {
		defer wg.Done()
		rb = query.Query(WithTray(context.Background(), trayB), c, key, fetch)
	}()
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	for _, r := range []query.Result[[]domain.ItemType]{ra, rb} {
		require.False(t, r.OK())
		assert.Equal(t, ModeSuppressed, Decide(r.Err).Mode)
	}
	require.Len(t, trayA.Drain(), 1)
	toastsB := trayB.Drain()
	require.Len(t, toastsB, 1)
	assert.Equal(t, "c-shared", toastsB[0].CorrelationID)
	assert.Len(t, j.recs, 1, "one journal entry per upstream request")
}
