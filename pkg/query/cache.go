package query

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/matzehuels/stackquery/pkg/observability"
)

// Cache tracks the state of every query key. It is safe for concurrent use.
// Create one per application with New and dispose of it with Close.
type Cache struct {
	cfg config

	mu      sync.Mutex
	entries map[Key]*entry
	closed  bool

	// inflight holds the running fetch of each key, including fetches
	// whose entry was removed, so a new entry can adopt them.
	inflight map[Key]*inflight

	// loads collapses concurrent hydration reads of the same key.
	loads singleflight.Group
}

type entry struct {
	key    Key
	status Status

	data    any
	hasData bool
	err     error

	updatedAt      time.Time
	errorUpdatedAt time.Time

	fetching    *inflight
	invalidated bool
	hydrated    bool

	fetchCount   int
	failureCount int
	version      uint64

	listeners []subscription
	queue     []Snapshot
	draining  bool
}

type inflight struct {
	done    chan struct{}
	started time.Time
}

type subscription struct {
	id string
	fn Listener
}

// New creates an empty Cache.
func New(opts ...Option) *Cache {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Cache{
		cfg:      cfg,
		entries:  make(map[Key]*entry),
		inflight: make(map[Key]*inflight),
	}
}

// Query returns the current snapshot for key and issues fetch when the
// entry is missing, stale or invalidated and nothing is in flight.
//
// The returned error is non-nil only for an invalid key, a nil fetch
// function or a closed cache. Fetch failures are reported on the snapshot.
func (c *Cache) Query(ctx context.Context, key Key, fetch FetchFunc, opts Options) (Snapshot, error) {
	return c.query(ctx, key, fetch, opts, false)
}

// Refetch issues fetch for key regardless of staleness, unless a fetch is
// already in flight.
func (c *Cache) Refetch(ctx context.Context, key Key, fetch FetchFunc, opts Options) (Snapshot, error) {
	return c.query(ctx, key, fetch, opts, true)
}

func (c *Cache) query(ctx context.Context, key Key, fetch FetchFunc, opts Options, force bool) (Snapshot, error) {
	if err := key.Validate(); err != nil {
		return Snapshot{}, err
	}
	if fetch == nil {
		return Snapshot{}, errNoFetch(key)
	}
	if err := c.hydrate(ctx, key, opts); err != nil {
		return Snapshot{}, err
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return Snapshot{}, errClosed()
	}
	e := c.entryLocked(key)

	if e.fetching == nil {
		if inf := c.inflight[key]; inf != nil {
			return c.adoptLocked(ctx, e, inf), nil
		}
	}
	if e.fetching != nil {
		snap := e.snapshot()
		c.mu.Unlock()
		c.cfg.logger.Debug("query attached to in-flight fetch", "key", key)
		observability.Query().OnDeduplicated(ctx, key.String())
		return snap, nil
	}

	now := c.cfg.clock.Now()
	if !force && !e.staleAt(now, c.staleTime(opts)) {
		snap := e.snapshot()
		c.mu.Unlock()
		c.cfg.logger.Debug("query served fresh", "key", key, "age", now.Sub(e.updatedAt))
		observability.Query().OnFresh(ctx, key.String())
		return snap, nil
	}

	return c.startLocked(ctx, e, fetch, opts), nil
}

// startLocked marks e as fetching, publishes the transition and launches
// the fetch. It must be called with c.mu held and releases it.
func (c *Cache) startLocked(ctx context.Context, e *entry, fetch FetchFunc, opts Options) Snapshot {
	inf := &inflight{done: make(chan struct{}), started: c.cfg.clock.Now()}
	e.fetching = inf
	c.inflight[e.key] = inf
	e.fetchCount++
	e.version++
	background := e.hasData
	if !background {
		e.status = StatusLoading
	}
	snap := e.snapshot()
	drain := e.enqueue(snap)
	c.mu.Unlock()

	c.cfg.logger.Debug("query fetch started", "key", e.key, "background", background)
	observability.Query().OnFetchStart(ctx, e.key.String(), background)

	// Deliver the start transition before the fetch can resolve.
	if drain {
		c.drain(e)
	}
	go c.run(context.WithoutCancel(ctx), e, inf, fetch, opts)
	return snap
}

// adoptLocked attaches e to a fetch started for a removed entry of the
// same key, so the key keeps a single fetch in flight. It must be called
// with c.mu held and releases it.
func (c *Cache) adoptLocked(ctx context.Context, e *entry, inf *inflight) Snapshot {
	e.fetching = inf
	e.fetchCount++
	e.version++
	if !e.hasData {
		e.status = StatusLoading
	}
	snap := e.snapshot()
	drain := e.enqueue(snap)
	c.mu.Unlock()

	c.cfg.logger.Debug("query adopted orphaned fetch", "key", e.key)
	observability.Query().OnDeduplicated(ctx, e.key.String())
	if drain {
		c.drain(e)
	}
	return snap
}

func (c *Cache) run(ctx context.Context, e *entry, inf *inflight, fetch FetchFunc, opts Options) {
	if c.cfg.fetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.fetchTimeout)
		defer cancel()
	}

	val, err := c.call(ctx, e.key, fetch)
	now := c.cfg.clock.Now()

	// Persist while the fetch is still in flight so that store writes for
	// a key land in the order their fetches ran.
	if err == nil {
		c.mu.Lock()
		owner := c.ownerLocked(e, inf)
		c.mu.Unlock()
		if owner != nil {
			c.persist(ctx, e.key, val, now, opts)
		}
	}

	c.mu.Lock()
	if c.inflight[e.key] == inf {
		delete(c.inflight, e.key)
	}
	if e.fetching == inf {
		e.fetching = nil
	}
	owner := c.ownerLocked(e, inf)
	drain := false
	if owner != nil {
		if owner.fetching == inf {
			owner.fetching = nil
		}
		owner.version++
		if err != nil {
			owner.status = StatusError
			owner.err = &FetchError{Key: owner.key, Err: err}
			owner.errorUpdatedAt = now
			owner.failureCount++
		} else {
			owner.status = StatusSuccess
			owner.data = val
			owner.hasData = true
			owner.err = nil
			owner.updatedAt = now
			owner.invalidated = false
			owner.failureCount = 0
		}
		drain = owner.enqueue(owner.snapshot())
	}
	c.mu.Unlock()

	observability.Query().OnFetchComplete(ctx, e.key.String(), now.Sub(inf.started), err)
	if drain {
		c.drain(owner)
	}
	close(inf.done)
}

// ownerLocked returns the live entry that receives the result of inf: e
// itself, or the entry that adopted inf after e was removed. It returns
// nil when the result must be discarded.
func (c *Cache) ownerLocked(e *entry, inf *inflight) *entry {
	if c.closed {
		return nil
	}
	cur := c.entries[e.key]
	if cur == e || (cur != nil && cur.fetching == inf) {
		return cur
	}
	return nil
}

// call runs fetch, turning a panic into an error.
func (c *Cache) call(ctx context.Context, key Key, fetch FetchFunc) (val any, err error) {
	defer func() {
		if v := recover(); v != nil {
			val, err = nil, panicError(key, v)
		}
	}()
	return fetch(ctx)
}

// Await blocks until the fetch in flight for key resolves and returns the
// resulting snapshot. Without a fetch in flight it returns immediately.
// Cancelling ctx abandons the wait without affecting the fetch.
// Listeners must not call Await for their own key.
func (c *Cache) Await(ctx context.Context, key Key) (Snapshot, error) {
	c.mu.Lock()
	e, ok := c.entries[key]
	if !ok {
		c.mu.Unlock()
		return Snapshot{Key: key}, nil
	}
	inf := e.fetching
	if inf == nil {
		snap := e.snapshot()
		c.mu.Unlock()
		return snap, nil
	}
	c.mu.Unlock()

	select {
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	case <-inf.done:
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return e.snapshot(), nil
}

// Get returns the snapshot for key without triggering a fetch.
func (c *Cache) Get(key Key) (Snapshot, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return Snapshot{Key: key}, false
	}
	return e.snapshot(), true
}

// Subscribe registers l for transitions of key and returns the
// subscription id. The entry is created in Idle state if needed.
func (c *Cache) Subscribe(key Key, l Listener) (string, error) {
	if err := key.Validate(); err != nil {
		return "", err
	}
	if l == nil {
		return "", errNoListener(key)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return "", errClosed()
	}
	e := c.entryLocked(key)
	id := uuid.NewString()
	e.listeners = append(e.listeners, subscription{id: id, fn: l})
	return id, nil
}

// Unsubscribe removes the listener registered under id. It reports whether
// the subscription existed.
func (c *Cache) Unsubscribe(key Key, id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return false
	}
	for i, s := range e.listeners {
		if s.id == id {
			e.listeners = append(e.listeners[:i:i], e.listeners[i+1:]...)
			return true
		}
	}
	return false
}

// Invalidate marks key stale so that the next Query refetches regardless
// of its stale time. It reports whether the entry existed.
func (c *Cache) Invalidate(key Key) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if ok {
		e.invalidated = true
		e.version++
	}
	return ok
}

// SetData writes v as a successful result for key, as if a fetch had just
// returned it, and notifies listeners.
func (c *Cache) SetData(key Key, v any) error {
	if err := key.Validate(); err != nil {
		return err
	}
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return errClosed()
	}
	e := c.entryLocked(key)
	e.status = StatusSuccess
	e.data = v
	e.hasData = true
	e.err = nil
	e.updatedAt = c.cfg.clock.Now()
	e.invalidated = false
	e.failureCount = 0
	e.version++
	drain := e.enqueue(e.snapshot())
	c.mu.Unlock()

	if drain {
		c.drain(e)
	}
	return nil
}

// Remove drops the entry for key and its listeners. A fetch still in
// flight keeps running: its result is discarded, unless the key is queried
// again before it settles, in which case the new entry adopts that fetch
// instead of starting a second one.
func (c *Cache) Remove(key Key) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[key]
	delete(c.entries, key)
	return ok
}

// Keys returns the keys currently cached, sorted by their string form.
func (c *Cache) Keys() []Key {
	c.mu.Lock()
	keys := make([]Key, 0, len(c.entries))
	for k := range c.entries {
		keys = append(keys, k)
	}
	c.mu.Unlock()
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
	return keys
}

// Close drops every entry and listener. Later calls to Query, Subscribe
// and SetData fail with CACHE_CLOSED. Close does not close the persister.
func (c *Cache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.entries = make(map[Key]*entry)
	return nil
}

func (c *Cache) entryLocked(key Key) *entry {
	e, ok := c.entries[key]
	if !ok {
		e = &entry{key: key}
		c.entries[key] = e
	}
	return e
}

// StaleTime returns the stale time in effect for a query with opts: its
// own StaleTime when set, otherwise the cache default.
func (c *Cache) StaleTime(opts Options) time.Duration {
	return c.staleTime(opts)
}

func (c *Cache) staleTime(opts Options) time.Duration {
	if opts.StaleTime > 0 {
		return opts.StaleTime
	}
	return c.cfg.staleTime
}

// drain delivers queued snapshots of e to its current listeners, in order.
// Only one goroutine drains an entry at a time; transitions raised by a
// listener are queued and delivered by the same loop.
func (c *Cache) drain(e *entry) {
	for {
		c.mu.Lock()
		if len(e.queue) == 0 {
			e.draining = false
			c.mu.Unlock()
			return
		}
		snap := e.queue[0]
		e.queue = e.queue[1:]
		listeners := append([]subscription(nil), e.listeners...)
		c.mu.Unlock()

		for _, s := range listeners {
			s.fn(snap)
		}
	}
}

// enqueue appends snap to the notification queue and reports whether the
// caller must drain it.
func (e *entry) enqueue(snap Snapshot) bool {
	if len(e.listeners) == 0 && !e.draining {
		return false
	}
	e.queue = append(e.queue, snap)
	if e.draining {
		return false
	}
	e.draining = true
	return true
}

// staleAt reports whether e needs a fetch at now.
func (e *entry) staleAt(now time.Time, staleTime time.Duration) bool {
	if e.status != StatusSuccess || e.invalidated {
		return true
	}
	return now.Sub(e.updatedAt) >= staleTime
}

func (e *entry) snapshot() Snapshot {
	fetching := e.fetching != nil
	return Snapshot{
		Key:            e.key,
		Status:         e.status,
		Data:           e.data,
		HasData:        e.hasData,
		Err:            e.err,
		IsLoading:      fetching && !e.hasData,
		IsFetching:     fetching,
		IsInvalidated:  e.invalidated,
		UpdatedAt:      e.updatedAt,
		ErrorUpdatedAt: e.errorUpdatedAt,
		FetchCount:     e.fetchCount,
		FailureCount:   e.failureCount,
		version:        e.version,
	}
}
