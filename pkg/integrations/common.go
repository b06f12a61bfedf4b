package integrations

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	sqerrors "github.com/matzehuels/stackquery/pkg/errors"
	"github.com/matzehuels/stackquery/pkg/httputil"
)

const httpTimeout = 10 * time.Second

// NewHTTPClient creates an HTTP client with the standard request timeout.
func NewHTTPClient() *http.Client {
	return &http.Client{Timeout: httpTimeout}
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

// WithRetry replaces the retry policy applied to every request.
func WithRetry(p httputil.Policy) Option {
	return func(c *Client) { c.retry = p }
}

// transportError classifies a failure of http.Client.Do.
func transportError(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return sqerrors.Wrap(sqerrors.ErrCodeTimeout, err, "request cancelled")
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return &httputil.RetryableError{Err: sqerrors.Wrap(sqerrors.ErrCodeTimeout, err, "timeout exceeded")}
	}
	return &httputil.RetryableError{Err: sqerrors.Wrap(sqerrors.ErrCodeNetwork, err, "Network Error")}
}

// statusError maps a non-2xx response to a coded error.
func statusError(resp *http.Response) error {
	code := resp.StatusCode
	msg := fmt.Sprintf("Request failed with status code %d", code)
	switch {
	case code == http.StatusNotFound:
		return sqerrors.New(sqerrors.ErrCodeNotFound, "%s", msg)
	case code == http.StatusTooManyRequests,
		code == http.StatusForbidden && resp.Header.Get("X-RateLimit-Remaining") == "0":
		retryAfter, _ := strconv.Atoi(resp.Header.Get("Retry-After"))
		return sqerrors.Wrap(sqerrors.ErrCodeRateLimited, &sqerrors.RateLimitedError{RetryAfter: retryAfter}, "%s", msg)
	case code >= 500:
		return &httputil.RetryableError{Err: sqerrors.New(sqerrors.ErrCodeNetwork, "%s", msg)}
	default:
		return sqerrors.New(sqerrors.ErrCodeNetwork, "%s", msg)
	}
}
