// Package query implements a keyed fetch cache with in-flight
// de-duplication and stale-while-revalidate refreshes.
//
// # Overview
//
// A [Cache] owns one entry per [Key]. Calling [Cache.Query] with a key, a
// [FetchFunc] and [Options] returns a [Snapshot] of the entry and decides
// whether a fetch must be issued:
//
//   - no entry yet: the entry moves to Loading and the fetch starts
//   - data younger than Options.StaleTime: the snapshot is returned as is
//   - stale data and nothing in flight: a background fetch starts and the
//     old data stays visible with IsFetching set
//   - a fetch already in flight: the caller attaches to it
//
// At most one fetch per key is ever in flight. A failure records the error
// but keeps the last successful data.
//
// # Listening
//
// [Cache.Subscribe] registers a [Listener] that receives a snapshot after
// every transition of its key, in order. [Observer] bundles a key, its
// fetch function and a listener the way a UI component would:
//
//	obs := query.NewObserver(c, key, fetch, query.Options{StaleTime: 3 * time.Second})
//	snap, err := obs.Start(ctx, func(s query.Snapshot) { render(s) })
//	defer obs.Stop()
//
// # Persistence
//
// With [WithPersister], successful results of queries that set
// Options.Decode are written to a [cache.Cache] backend and restored the
// first time the key is queried in a new process.
package query
