// Package query is the cached query layer between page handlers and the API
// client.
//
// Each key moves through idle → loading → (success | error). Successful values
// are served from the cache while fresh; errors are never cached as fresh and
// are never retried automatically. Concurrent fetches of the same key are
// collapsed into one upstream request. A successful mutation invalidates every
// entry of the resource it touched, and one ErrorHook observes every failed
// query and mutation.
package query

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/tbourn/planner-admin/internal/apierr"
)

// Status is the lifecycle state of a cache entry.
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusSuccess
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	default:
		return "idle"
	}
}

// MarshalText renders the status by name in JSON.
func (s Status) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// Op distinguishes reads from writes in failure reports.
type Op string

const (
	OpQuery    Op = "query"
	OpMutation Op = "mutation"
)

// Failure is what the ErrorHook receives. Shared marks a caller that joined
// another caller's failed fetch: the upstream failure was already reported
// with Shared unset, so only the joining request's presentation is owed.
type Failure struct {
	Op     Op
	Key    Key
	Err    *apierr.Error
	Shared bool
}

// ErrorHook observes failures. It is called once per failed upstream request
// with the issuing caller's context, and once more with Shared set for each
// caller that shared that request, with the sharing caller's context.
type ErrorHook func(ctx context.Context, f Failure)

// Options configures a Cache.
type Options struct {
	// StaleTime is how long a successful value is served without refetching.
	// Zero refetches on every read.
	StaleTime time.Duration
	// GCAfter evicts entries unused for this long. Zero keeps entries forever.
	GCAfter time.Duration
	// OnError is the global failure hook.
	OnError ErrorHook
	// Now overrides the clock (tests).
	Now func() time.Time
}

// sweep idle entries every gcEvery lookups
const gcEvery = 1000

type entry struct {
	status   Status
	value    any
	hasValue bool
	err      *apierr.Error
	stale    bool
	gen      uint64
	inflight int

	updatedAt time.Time
	lastUsed  time.Time
}

// Cache holds query entries. It is safe for concurrent use.
type Cache struct {
	mu      sync.Mutex
	entries map[Key]*entry
	group   singleflight.Group
	lookups uint64

	staleTime time.Duration
	gcAfter   time.Duration
	onError   ErrorHook
	now       func() time.Time
}

// New builds an empty cache.
func New(opts Options) *Cache {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Cache{
		entries:   make(map[Key]*entry),
		staleTime: opts.StaleTime,
		gcAfter:   opts.GCAfter,
		onError:   opts.OnError,
		now:       now,
	}
}

type outcome struct {
	value any
	err   *apierr.Error
}

// Query returns the value for key, serving a fresh cached value or calling
// fetch. Callers that arrive while a fetch for the same key is in flight share
// its outcome.
func Query[T any](ctx context.Context, c *Cache, key Key, fetch func(context.Context) (T, error)) Result[T] {
	return run(ctx, c, key, fetch, false)
}

// Refetch forces a new fetch for key. Any older in-flight fetch for the key
// becomes stale and its response is discarded.
func Refetch[T any](ctx context.Context, c *Cache, key Key, fetch func(context.Context) (T, error)) Result[T] {
	return run(ctx, c, key, fetch, true)
}

func run[T any](ctx context.Context, c *Cache, key Key, fetch func(context.Context) (T, error), force bool) Result[T] {
	c.mu.Lock()
	now := c.now()
	c.lookups++
	if c.lookups%gcEvery == 0 {
		c.sweepLocked(now)
	}
	e := c.entries[key]
	if e == nil {
		e = &entry{}
		c.entries[key] = e
	}
	e.lastUsed = now

	if !force && c.freshLocked(e, now) {
		if v, ok := e.value.(T); ok {
			c.mu.Unlock()
			cacheLookups.WithLabelValues(key.Resource, "hit").Inc()
			return Result[T]{Value: v, Cached: true}
		}
	}
	if force {
		e.gen++
	}
	gen := e.gen
	e.status = StatusLoading
	e.inflight++
	c.mu.Unlock()
	cacheLookups.WithLabelValues(key.Resource, "miss").Inc()

	// The fetch outlives any single caller: joiners must not inherit the
	// leader's cancellation. The client's own timeout still bounds it.
	flight := key.String() + "#" + strconv.FormatUint(gen, 10)
	led := false
	raw, _, _ := c.group.Do(flight, func() (any, error) {
		led = true
		v, err := fetch(context.WithoutCancel(ctx))
		out := outcome{value: v}
		if err != nil {
			out = outcome{err: apierr.From(err)}
		}
		c.settle(key, gen, out)
		if out.err != nil {
			c.fail(ctx, OpQuery, key, out.err)
		}
		return out, nil
	})
	out := raw.(outcome)
	if out.err != nil && !led && c.onError != nil {
		c.onError(ctx, Failure{Op: OpQuery, Key: key, Err: out.err, Shared: true})
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	e.inflight--

	if out.err != nil {
		res := Result[T]{Err: out.err}
		if e.hasValue {
			if v, ok := e.value.(T); ok {
				res.Fallback = &v
			}
		}
		return res
	}
	v, _ := out.value.(T)
	return Result[T]{Value: v}
}

// Mutate runs a write. On success every entry of resource is invalidated; on
// failure the hook is notified and the cache is left untouched.
func Mutate[T any](ctx context.Context, c *Cache, resource string, fn func(context.Context) (T, error)) Result[T] {
	v, err := fn(ctx)
	if err != nil {
		ae := apierr.From(err)
		c.fail(ctx, OpMutation, Collection(resource), ae)
		return Result[T]{Err: ae}
	}
	c.Invalidate(resource)
	return Result[T]{Value: v}
}

// Invalidate marks every entry of resource stale and bumps its generation so
// in-flight responses for it are discarded. It returns the number of entries
// touched. Entries of other resources are left alone.
func (c *Cache) Invalidate(resource string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for k, e := range c.entries {
		if k.Resource != resource {
			continue
		}
		e.gen++
		e.stale = true
		if e.status == StatusLoading {
			e.status = StatusIdle
		}
		n++
	}
	if n > 0 {
		cacheInvalidations.WithLabelValues(resource).Add(float64(n))
	}
	return n
}

// Sweep evicts entries unused for GCAfter and returns how many were dropped.
func (c *Cache) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sweepLocked(c.now())
}

// Len returns the number of entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Cache) sweepLocked(now time.Time) int {
	if c.gcAfter <= 0 {
		return 0
	}
	n := 0
	for k, e := range c.entries {
		if e.inflight > 0 {
			continue
		}
		if now.Sub(e.lastUsed) >= c.gcAfter {
			delete(c.entries, k)
			n++
		}
	}
	return n
}

func (c *Cache) freshLocked(e *entry, now time.Time) bool {
	return e.status == StatusSuccess && !e.stale && now.Sub(e.updatedAt) < c.staleTime
}

// settle writes a fetch outcome unless the entry moved to a newer generation
// (or was evicted) while the fetch was in flight.
func (c *Cache) settle(key Key, gen uint64, out outcome) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := c.entries[key]
	if e == nil || e.gen != gen {
		cacheStaleDiscards.WithLabelValues(key.Resource).Inc()
		return
	}
	if out.err != nil {
		e.status = StatusError
		e.err = out.err
		return
	}
	e.status = StatusSuccess
	e.value = out.value
	e.hasValue = true
	e.err = nil
	e.stale = false
	e.updatedAt = c.now()
}

func (c *Cache) fail(ctx context.Context, op Op, key Key, err *apierr.Error) {
	cacheFailures.WithLabelValues(string(op), string(err.Kind())).Inc()
	if c.onError != nil {
		c.onError(ctx, Failure{Op: op, Key: key, Err: err})
	}
}

// Snapshot is a read-only view of one entry.
type Snapshot struct {
	Key           string     `json:"key"`
	Resource      string     `json:"resource"`
	Status        Status     `json:"status"`
	Stale         bool       `json:"stale"`
	Generation    uint64     `json:"generation"`
	HasValue      bool       `json:"has_value"`
	UpdatedAt     *time.Time `json:"updated_at,omitempty"`
	Error         string     `json:"error,omitempty"`
	CorrelationID string     `json:"correlation_id,omitempty"`
}

// Snapshot returns the state of key.
func (c *Cache) Snapshot(key Key) (Snapshot, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return Snapshot{Key: key.String(), Resource: key.Resource}, false
	}
	return snapshotOf(key, e), true
}

// Snapshots returns all entries ordered by key.
func (c *Cache) Snapshots() []Snapshot {
	c.mu.Lock()
	out := make([]Snapshot, 0, len(c.entries))
	for k, e := range c.entries {
		out = append(out, snapshotOf(k, e))
	}
	c.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

func snapshotOf(k Key, e *entry) Snapshot {
	s := Snapshot{
		Key:        k.String(),
		Resource:   k.Resource,
		Status:     e.status,
		Stale:      e.stale,
		Generation: e.gen,
		HasValue:   e.hasValue,
	}
	if !e.updatedAt.IsZero() {
		t := e.updatedAt
		s.UpdatedAt = &t
	}
	if e.err != nil {
		s.Error = e.err.Error()
		s.CorrelationID = e.err.CorrelationID
	}
	return s
}
