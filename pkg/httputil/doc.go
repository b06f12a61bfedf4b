// Package httputil holds the retry policy shared by the HTTP clients in
// package integrations.
//
// Clients wrap transient failures (connection errors, 5xx responses) in a
// [RetryableError]; [Retry] re-runs the request with a doubling delay and
// gives up immediately on anything else:
//
//	err := httputil.Retry(ctx, httputil.DefaultPolicy, func() error {
//	    return fetchOnce(ctx)
//	})
//
// Retrying belongs to the fetch function, not to the query cache: a query
// that fails after the last attempt is recorded as an error and refetched
// on the next stale query.
package httputil
