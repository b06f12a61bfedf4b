package query

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/matzehuels/stackquery/pkg/cache"
)

type repoDetails struct {
	Name  string `msgpack:"name"`
	Stars int    `msgpack:"stars"`
}

func TestPersistence_HydratesAcrossCaches(t *testing.T) {
	store, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	mock := clock.NewMock()
	opts := Options{StaleTime: 3 * time.Second, Decode: DecodeMsgpack[repoDetails]()}
	ctx := context.Background()

	first := New(WithClock(mock), WithPersister(store, time.Hour))
	first.Query(ctx, repoKey, func(context.Context) (any, error) {
		return repoDetails{Name: "react-query", Stars: 5}, nil
	}, opts)
	await(t, first, repoKey)
	first.Close()

	calls := 0
	second := New(WithClock(mock), WithPersister(store, time.Hour))
	snap, err := second.Query(ctx, repoKey, func(context.Context) (any, error) {
		calls++
		return repoDetails{}, nil
	}, opts)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}

	if calls != 0 || snap.IsFetching {
		t.Errorf("hydrated fresh entry should not fetch: calls %d fetching %v", calls, snap.IsFetching)
	}
	got, ok := Data[repoDetails](snap)
	if !ok || got.Name != "react-query" || got.Stars != 5 {
		t.Errorf("hydrated Data = %+v, %v", got, ok)
	}
	if !snap.UpdatedAt.Equal(mock.Now()) {
		t.Errorf("UpdatedAt = %v, want persisted %v", snap.UpdatedAt, mock.Now())
	}
}

func TestPersistence_StaleHydrationRevalidates(t *testing.T) {
	store, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	mock := clock.NewMock()
	opts := Options{StaleTime: 3 * time.Second, Decode: DecodeMsgpack[string]()}
	ctx := context.Background()

	first := New(WithClock(mock), WithPersister(store, 0))
	first.Query(ctx, repoKey, func(context.Context) (any, error) { return "old", nil }, opts)
	await(t, first, repoKey)

	mock.Add(10 * time.Second)
	second := New(WithClock(mock), WithPersister(store, 0))
	f := newFetcher(true, result{val: "new"})
	snap, _ := second.Query(ctx, repoKey, f.fetch, opts)

	if !snap.IsFetching || snap.IsLoading {
		t.Errorf("stale hydrated entry: fetching %v loading %v; want background fetch", snap.IsFetching, snap.IsLoading)
	}
	if snap.Data != "old" {
		t.Errorf("Data during revalidation = %v, want old", snap.Data)
	}
	f.unblock()
	if snap = await(t, second, repoKey); snap.Data != "new" {
		t.Errorf("Data after revalidation = %v, want new", snap.Data)
	}
}

func TestPersistence_WithoutDecodeIsMemoryOnly(t *testing.T) {
	store, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	c := New(WithPersister(store, 0))
	c.Query(context.Background(), repoKey, func(context.Context) (any, error) { return "x", nil }, Options{})
	await(t, c, repoKey)

	key := cache.NewDefaultKeyer().QueryKey(repoKey.Resource, repoKey.ID)
	if _, ok, _ := store.Get(context.Background(), key); ok {
		t.Error("query without a decoder should not be persisted")
	}
}

func TestPersistence_CorruptEntryIsMiss(t *testing.T) {
	store := cache.NewNullCache()
	c := New(WithPersister(corruptStore{store}, 0))
	snap, err := c.Query(context.Background(), repoKey, func(context.Context) (any, error) { return "fresh", nil }, Options{Decode: DecodeMsgpack[string]()})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if !snap.IsLoading {
		t.Error("corrupt persisted entry should be treated as a miss")
	}
	await(t, c, repoKey)
}

type corruptStore struct{ cache.Cache }

func (corruptStore) Get(context.Context, string) ([]byte, bool, error) {
	return []byte("not msgpack"), true, nil
}

func TestPersistence_WritesFollowFetchOrder(t *testing.T) {
	inner, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	store := &gatedStore{Cache: inner, entered: make(chan struct{}), gate: make(chan struct{})}
	c := New(WithClock(clock.NewMock()), WithPersister(store, time.Hour))
	opts := Options{Decode: DecodeMsgpack[repoDetails]()}
	ctx := context.Background()

	var n atomic.Int32
	fetch := func(context.Context) (any, error) {
		return repoDetails{Name: "react-query", Stars: int(n.Add(1))}, nil
	}

	c.Query(ctx, repoKey, fetch, opts)
	select {
	case <-store.entered:
	case <-time.After(2 * time.Second):
		t.Fatal("first result was never written")
	}

	// The first write is still pending, so the fetch counts as in flight.
	snap, err := c.Query(ctx, repoKey, fetch, opts)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if !snap.IsFetching || n.Load() != 1 {
		t.Errorf("query during a pending write should join it: fetching %v calls %d", snap.IsFetching, n.Load())
	}

	close(store.gate)
	await(t, c, repoKey)
	c.Query(ctx, repoKey, fetch, opts)
	snap = await(t, c, repoKey)

	mem, _ := Data[repoDetails](snap)
	raw, ok, err := inner.Get(ctx, cache.NewDefaultKeyer().QueryKey(repoKey.Resource, repoKey.ID))
	if err != nil || !ok {
		t.Fatalf("persisted entry: ok %v err %v", ok, err)
	}
	var env envelope
	if err := msgpack.Unmarshal(raw, &env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	var stored repoDetails
	if err := msgpack.Unmarshal(env.Data, &stored); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if mem.Stars != 2 || stored.Stars != mem.Stars {
		t.Errorf("memory stars %d, persisted stars %d; want both 2", mem.Stars, stored.Stars)
	}
}

// gatedStore blocks the first Set until gate is closed.
type gatedStore struct {
	cache.Cache
	sets    atomic.Int32
	entered chan struct{}
	gate    chan struct{}
}

func (s *gatedStore) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	if s.sets.Add(1) == 1 {
		close(s.entered)
		<-s.gate
	}
	return s.Cache.Set(ctx, key, data, ttl)
}
