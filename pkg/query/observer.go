package query

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Observer binds one key, fetch function and options to one consumer. It
// is the equivalent of a component using a query hook: Start mounts it,
// Query re-runs the query on re-render, Stop unmounts it.
type Observer struct {
	cache *Cache
	key   Key
	fetch FetchFunc
	opts  Options

	stopped atomic.Bool

	mu       sync.Mutex
	id       string
	listener Listener
	last     Snapshot
}

// NewObserver creates an Observer. Nothing happens until Start.
func NewObserver(c *Cache, key Key, fetch FetchFunc, opts Options) *Observer {
	return &Observer{cache: c, key: key, fetch: fetch, opts: opts, last: Snapshot{Key: key}}
}

// Key returns the observed key.
func (o *Observer) Key() Key { return o.key }

// Options returns the query options.
func (o *Observer) Options() Options { return o.opts }

// StaleTime returns the stale time in effect for the observed query.
func (o *Observer) StaleTime() time.Duration { return o.cache.StaleTime(o.opts) }

// Start subscribes l and runs the query. l receives every later
// transition of the key until Stop. An observer can be started once; if
// the query fails, the subscription is removed again.
func (o *Observer) Start(ctx context.Context, l Listener) (Snapshot, error) {
	o.mu.Lock()
	if o.id != "" || o.stopped.Load() {
		o.mu.Unlock()
		return Snapshot{}, errObserverActive(o.key)
	}
	id, err := o.cache.Subscribe(o.key, o.deliver)
	if err != nil {
		o.mu.Unlock()
		return Snapshot{}, err
	}
	o.id = id
	o.listener = l
	o.mu.Unlock()

	snap, err := o.Query(ctx)
	if err != nil {
		o.mu.Lock()
		o.id = ""
		o.listener = nil
		o.mu.Unlock()
		o.cache.Unsubscribe(o.key, id)
		return Snapshot{}, err
	}
	return snap, nil
}

// Query runs the query again, subject to the stale time.
func (o *Observer) Query(ctx context.Context) (Snapshot, error) {
	snap, err := o.cache.Query(ctx, o.key, o.fetch, o.opts)
	if err == nil {
		o.record(snap)
	}
	return snap, err
}

// Refetch forces a fetch unless one is already in flight.
func (o *Observer) Refetch(ctx context.Context) (Snapshot, error) {
	snap, err := o.cache.Refetch(ctx, o.key, o.fetch, o.opts)
	if err == nil {
		o.record(snap)
	}
	return snap, err
}

// Result returns the latest snapshot seen by the observer.
func (o *Observer) Result() Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.last
}

// Stop unsubscribes the observer. Its listener is not called again; the
// cache entry keeps receiving results of fetches still in flight.
func (o *Observer) Stop() {
	if o.stopped.Swap(true) {
		return
	}
	o.mu.Lock()
	id := o.id
	o.mu.Unlock()
	if id != "" {
		o.cache.Unsubscribe(o.key, id)
	}
}

func (o *Observer) deliver(s Snapshot) {
	if o.stopped.Load() {
		return
	}
	o.mu.Lock()
	o.last = s
	l := o.listener
	o.mu.Unlock()
	if l != nil {
		l(s)
	}
}

// record keeps the snapshot returned by a call unless a listener already
// delivered a newer one.
func (o *Observer) record(s Snapshot) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if s.version >= o.last.version {
		o.last = s
	}
}
