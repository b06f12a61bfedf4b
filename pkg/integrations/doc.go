// Package integrations provides the HTTP clients whose methods serve as
// query fetch functions.
//
// Each API has its own subpackage:
//
//   - [github]: repository details from the GitHub REST API
//   - [fakestore]: product listings from the demo catalog API
//
// # Shared Infrastructure
//
// [Client] performs GET requests with JSON decoding, default headers and
// retries through [httputil.Retry]. Failures carry codes from package
// errors so callers can tell them apart:
//
//   - NOT_FOUND for 404 responses
//   - RATE_LIMITED for 429, or 403 with an exhausted rate limit
//   - NETWORK_ERROR for connection failures and other non-2xx responses
//   - TIMEOUT when the request or its context times out
//   - DECODE_FAILED for bodies that are not the expected JSON
//
// Connection failures and 5xx responses are retried; everything else fails
// immediately.
//
// # Adding a New API
//
//  1. Create a subpackage: pkg/integrations/<api>/
//  2. Define response structs matching the API schema
//  3. Embed a [Client] created with [NewClient]
//  4. Expose a function returning a query.Definition for each resource
//
// [github]: github.com/matzehuels/stackquery/pkg/integrations/github
// [fakestore]: github.com/matzehuels/stackquery/pkg/integrations/fakestore
// [httputil.Retry]: github.com/matzehuels/stackquery/pkg/httputil.Retry
package integrations
