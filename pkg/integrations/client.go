package integrations

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/matzehuels/stackquery/pkg/buildinfo"
	sqerrors "github.com/matzehuels/stackquery/pkg/errors"
	"github.com/matzehuels/stackquery/pkg/httputil"
	"github.com/matzehuels/stackquery/pkg/observability"
)

// Client provides the HTTP plumbing shared by the API clients: default
// headers, retries and error classification. It keeps no response cache;
// caching is the query cache's job.
type Client struct {
	http    *http.Client
	headers map[string]string
	retry   httputil.Policy
}

// NewClient creates a Client that sends headers with every request.
// Pass nil for headers if no default headers are needed.
func NewClient(headers map[string]string, opts ...Option) *Client {
	c := &Client{
		http:    NewHTTPClient(),
		headers: headers,
		retry:   httputil.DefaultPolicy,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get performs an HTTP GET request and JSON-decodes the response into v.
// Transient failures are retried according to the client's policy.
func (c *Client) Get(ctx context.Context, url string, v any) error {
	return c.GetWithHeaders(ctx, url, nil, v)
}

// GetWithHeaders performs an HTTP GET with additional headers merged with defaults.
// Request-specific headers override client defaults for the same key.
func (c *Client) GetWithHeaders(ctx context.Context, url string, headers map[string]string, v any) error {
	return httputil.Retry(ctx, c.retry, func() error {
		body, err := c.doRequest(ctx, url, headers)
		if err != nil {
			return err
		}
		defer body.Close()
		if err := json.NewDecoder(body).Decode(v); err != nil {
			return sqerrors.Wrap(sqerrors.ErrCodeDecodeFailed, err, "decode response from %s", url)
		}
		return nil
	})
}

func (c *Client) doRequest(ctx context.Context, rawURL string, headers map[string]string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, sqerrors.Wrap(sqerrors.ErrCodeInvalidInput, err, "build request for %s", rawURL)
	}
	req.Header.Set("User-Agent", buildinfo.UserAgent())
	req.Header.Set("Accept", "application/json")
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	host, path := req.URL.Host, req.URL.Path
	hooks := observability.HTTP()
	hooks.OnRequest(ctx, req.Method, host, path)
	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		hooks.OnError(ctx, req.Method, host, path, err)
		return nil, transportError(ctx, err)
	}
	hooks.OnResponse(ctx, req.Method, host, path, resp.StatusCode, time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, statusError(resp)
	}
	return resp.Body, nil
}
