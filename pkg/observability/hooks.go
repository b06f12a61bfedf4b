// Package observability provides hooks for metrics, tracing, and logging.
//
// The query cache, the persisted stores and the HTTP clients report events
// through the hooks registered here. Nothing is reported until a consumer
// registers an implementation; the defaults are no-ops.
//
// # Usage
//
// Register hooks at startup, or for the duration of a single operation:
//
//	restore := observability.Register(observability.Hooks{
//	    Query: observability.JoinQueryHooks(observability.Query(), stats),
//	})
//	defer restore()
//
// Libraries emit events through the accessors:
//
//	observability.Query().OnFetchStart(ctx, key, false)
//	// ... fetch ...
//	observability.Query().OnFetchComplete(ctx, key, duration, err)
//
// [NewLogHooks] implements every hook interface on top of a
// charmbracelet/log logger; the CLI installs it with --verbose.
package observability

import (
	"context"
	"sync"
	"time"
)

// QueryHooks receives events from the query cache. Keys are query keys in
// their "resource:id" string form.
type QueryHooks interface {
	// OnFetchStart records a fetch being issued. Background is true when
	// stale data stays visible while the fetch runs.
	OnFetchStart(ctx context.Context, key string, background bool)

	// OnFetchComplete records a fetch resolution.
	OnFetchComplete(ctx context.Context, key string, duration time.Duration, err error)

	// OnDeduplicated records a query that attached to an in-flight fetch.
	OnDeduplicated(ctx context.Context, key string)

	// OnFresh records a query answered from data younger than its stale time.
	OnFresh(ctx context.Context, key string)
}

// CacheHooks receives events from persisted store operations. keyType names
// the backend.
type CacheHooks interface {
	OnCacheHit(ctx context.Context, keyType string)
	OnCacheMiss(ctx context.Context, keyType string)
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// HTTPHooks receives events from the API clients.
type HTTPHooks interface {
	OnRequest(ctx context.Context, method, host, path string)
	OnResponse(ctx context.Context, method, host, path string, statusCode int, duration time.Duration)

	// OnError records a transport failure; status errors arrive through
	// OnResponse.
	OnError(ctx context.Context, method, host, path string, err error)
}

// NoopQueryHooks is a no-op implementation of QueryHooks. Embed it to
// implement only some of the events.
type NoopQueryHooks struct{}

func (NoopQueryHooks) OnFetchStart(context.Context, string, bool)                     {}
func (NoopQueryHooks) OnFetchComplete(context.Context, string, time.Duration, error) {}
func (NoopQueryHooks) OnDeduplicated(context.Context, string)                         {}
func (NoopQueryHooks) OnFresh(context.Context, string)                                {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// NoopHTTPHooks is a no-op implementation of HTTPHooks.
type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string, string)                      {}
func (NoopHTTPHooks) OnResponse(context.Context, string, string, string, int, time.Duration) {}
func (NoopHTTPHooks) OnError(context.Context, string, string, string, error)                 {}

// Hooks is a set of hooks to register. Nil fields leave the current hooks
// in place.
type Hooks struct {
	Query QueryHooks
	Cache CacheHooks
	HTTP  HTTPHooks
}

var mu sync.RWMutex

var current = defaults()

func defaults() Hooks {
	return Hooks{Query: NoopQueryHooks{}, Cache: NoopCacheHooks{}, HTTP: NoopHTTPHooks{}}
}

// Register installs the non-nil hooks in h and returns a function that
// restores the hooks that were active before the call.
func Register(h Hooks) (restore func()) {
	mu.Lock()
	defer mu.Unlock()
	prev := current
	if h.Query != nil {
		current.Query = h.Query
	}
	if h.Cache != nil {
		current.Cache = h.Cache
	}
	if h.HTTP != nil {
		current.HTTP = h.HTTP
	}
	return func() {
		mu.Lock()
		current = prev
		mu.Unlock()
	}
}

// Query returns the registered query hooks.
func Query() QueryHooks {
	mu.RLock()
	defer mu.RUnlock()
	return current.Query
}

// Cache returns the registered store hooks.
func Cache() CacheHooks {
	mu.RLock()
	defer mu.RUnlock()
	return current.Cache
}

// HTTP returns the registered HTTP hooks.
func HTTP() HTTPHooks {
	mu.RLock()
	defer mu.RUnlock()
	return current.HTTP
}

// Reset restores all hooks to their no-op defaults.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	current = defaults()
}

// JoinQueryHooks returns QueryHooks that forward every event to each of
// hooks in order. Nil entries are skipped.
func JoinQueryHooks(hooks ...QueryHooks) QueryHooks {
	var joined multiQueryHooks
	for _, h := range hooks {
		if h == nil {
			continue
		}
		if _, noop := h.(NoopQueryHooks); noop {
			continue
		}
		joined = append(joined, h)
	}
	switch len(joined) {
	case 0:
		return NoopQueryHooks{}
	case 1:
		return joined[0]
	}
	return joined
}

type multiQueryHooks []QueryHooks

func (m multiQueryHooks) OnFetchStart(ctx context.Context, key string, background bool) {
	for _, h := range m {
		h.OnFetchStart(ctx, key, background)
	}
}

func (m multiQueryHooks) OnFetchComplete(ctx context.Context, key string, d time.Duration, err error) {
	for _, h := range m {
		h.OnFetchComplete(ctx, key, d, err)
	}
}

func (m multiQueryHooks) OnDeduplicated(ctx context.Context, key string) {
	for _, h := range m {
		h.OnDeduplicated(ctx, key)
	}
}

func (m multiQueryHooks) OnFresh(ctx context.Context, key string) {
	for _, h := range m {
		h.OnFresh(ctx, key)
	}
}
