package query

import (
	"context"
	"io"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/charmbracelet/log"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/matzehuels/stackquery/pkg/cache"
)

// FetchFunc performs the I/O for one query. The context is detached from
// the caller that triggered the fetch, so it is never cancelled because a
// consumer went away.
type FetchFunc func(ctx context.Context) (any, error)

// Listener receives a snapshot after each transition of a key.
type Listener func(Snapshot)

// DecodeFunc restores a persisted value. It receives the bytes produced by
// msgpack-encoding the value a fetch returned.
type DecodeFunc func(data []byte) (any, error)

// DecodeMsgpack returns a DecodeFunc that restores values of type T.
func DecodeMsgpack[T any]() DecodeFunc {
	return func(data []byte) (any, error) {
		var v T
		if err := msgpack.Unmarshal(data, &v); err != nil {
			return nil, err
		}
		return v, nil
	}
}

// Options tunes a single query.
type Options struct {
	// StaleTime is how long a successful result is served without
	// refetching. Zero falls back to the cache default, which is itself
	// zero unless set with WithStaleTime.
	StaleTime time.Duration

	// Decode enables persistence for this query when the cache has a
	// persister. Nil keeps the query memory-only.
	Decode DecodeFunc
}

// Definition bundles everything needed to run a query.
type Definition struct {
	Key     Key
	Fetch   FetchFunc
	Options Options
}

// Query runs the definition against c.
func (d Definition) Query(ctx context.Context, c *Cache) (Snapshot, error) {
	return c.Query(ctx, d.Key, d.Fetch, d.Options)
}

// Observe returns an Observer bound to the definition.
func (d Definition) Observe(c *Cache) *Observer {
	return NewObserver(c, d.Key, d.Fetch, d.Options)
}

// DefaultPersistTTL is how long persisted results are kept by default.
const DefaultPersistTTL = 24 * time.Hour

type config struct {
	clock        clock.Clock
	logger       *log.Logger
	staleTime    time.Duration
	fetchTimeout time.Duration
	persister    cache.Cache
	persistTTL   time.Duration
	keyer        cache.Keyer
}

// Option configures a Cache.
type Option func(*config)

func defaultConfig() config {
	return config{
		clock:      clock.New(),
		logger:     log.New(io.Discard),
		persistTTL: DefaultPersistTTL,
		keyer:      cache.NewDefaultKeyer(),
	}
}

// WithClock replaces the wall clock, mainly for tests.
func WithClock(c clock.Clock) Option {
	return func(cfg *config) {
		if c != nil {
			cfg.clock = c
		}
	}
}

// WithLogger sets the logger used for debug traces and persistence warnings.
func WithLogger(l *log.Logger) Option {
	return func(cfg *config) {
		if l != nil {
			cfg.logger = l
		}
	}
}

// WithStaleTime sets the stale time used by queries that leave
// Options.StaleTime at zero.
func WithStaleTime(d time.Duration) Option {
	return func(cfg *config) { cfg.staleTime = max(d, 0) }
}

// WithFetchTimeout bounds every fetch. Zero, the default, leaves timeouts
// to the fetch functions.
func WithFetchTimeout(d time.Duration) Option {
	return func(cfg *config) { cfg.fetchTimeout = max(d, 0) }
}

// WithPersister stores successful results in store for ttl. A ttl of zero
// uses DefaultPersistTTL.
func WithPersister(store cache.Cache, ttl time.Duration) Option {
	return func(cfg *config) {
		cfg.persister = store
		if ttl > 0 {
			cfg.persistTTL = ttl
		}
	}
}

// WithKeyer changes how query keys map to persisted storage keys.
func WithKeyer(k cache.Keyer) Option {
	return func(cfg *config) {
		if k != nil {
			cfg.keyer = k
		}
	}
}
