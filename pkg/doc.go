// Package pkg provides the libraries behind stackquery, a query cache for
// remote API data.
//
// # Overview
//
// A query is a cache key plus a fetch function. The query cache runs at most
// one fetch per key at a time, serves fresh data from memory and revalidates
// stale data in the background while callers keep seeing the last good
// result. The pkg directory is organized into these areas:
//
//  1. [query] - The query cache, observers and snapshots
//  2. [cache] - Byte-oriented stores used to persist query results (file, Redis, MongoDB)
//  3. [integrations] - HTTP clients for the GitHub and fakestore APIs
//  4. [errors] - Coded errors shared by every layer
//  5. [observability] - Hooks for queries, stores and HTTP requests
//
// # Architecture
//
// The typical data flow:
//
//	Observer / CLI command
//	         ↓
//	    [query] Cache (dedupe, staleness, notifications)
//	         ↓                      ↘
//	    [integrations] client        [cache] store (persisted snapshots)
//	         ↓
//	    HTTP API
//
// # Quick Start
//
//	import (
//	    "context"
//	    "github.com/matzehuels/stackquery/pkg/integrations/github"
//	    "github.com/matzehuels/stackquery/pkg/query"
//	)
//
//	qc := query.New()
//	defer qc.Close()
//
//	gh := github.NewClient("", github.DefaultBaseURL)
//	def := gh.RepoQuery("tannerlinsley", "react-query")
//
//	// Start the fetch, then wait for it to settle.
//	def.Query(ctx, qc)
//	snap, _ := qc.Await(ctx, def.Key)
//	repo, _ := query.Data[*github.RepoDetails](snap)
//
// # Main Packages
//
// [query] - Keyed entries with at most one in-flight fetch each. Listeners
// see every transition in order, outside the cache lock.
//
// [cache] - Cache interface with FileCache for the CLI and RedisCache and
// MongoCache for shared deployments. Instrumented reports hits and misses
// through [observability].
//
// [integrations] - A shared Client with retries and error classification,
// and one subpackage per API.
//
// [httputil] - Retry with exponential backoff.
//
// [buildinfo] - Version information set at build time.
package pkg
