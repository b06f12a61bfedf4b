package integrations

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	sqerrors "github.com/matzehuels/stackquery/pkg/errors"
	"github.com/matzehuels/stackquery/pkg/httputil"
)

var noRetry = httputil.Policy{Attempts: 1}

func TestNewClient(t *testing.T) {
	headers := map[string]string{"Authorization": "Bearer token"}
	client := NewClient(headers)

	if client.http == nil {
		t.Error("NewClient() http client is nil")
	}
	if client.headers["Authorization"] != "Bearer token" {
		t.Error("NewClient() headers not set correctly")
	}
	if client.retry.Attempts != httputil.DefaultPolicy.Attempts {
		t.Errorf("retry attempts = %d, want default", client.retry.Attempts)
	}
}

func TestNewClientNilHeaders(t *testing.T) {
	client := NewClient(nil)
	if client.headers != nil {
		t.Error("NewClient() should allow nil headers")
	}
}

func TestClientGet(t *testing.T) {
	type response struct {
		Message string `json:"message"`
	}

	var userAgent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("expected GET, got %s", r.Method)
		}
		userAgent = r.Header.Get("User-Agent")
		json.NewEncoder(w).Encode(response{Message: "hello"})
	}))
	defer server.Close()

	client := NewClient(nil, WithHTTPClient(server.Client()))

	var resp response
	if err := client.Get(context.Background(), server.URL, &resp); err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if resp.Message != "hello" {
		t.Errorf("Get() message = %q, want %q", resp.Message, "hello")
	}
	if userAgent == "" {
		t.Error("User-Agent header not sent")
	}
}

func TestClientGetWithHeadersOverridesDefaults(t *testing.T) {
	var custom, override string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		custom = r.Header.Get("X-Custom")
		override = r.Header.Get("X-Override")
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}))
	defer server.Close()

	client := NewClient(map[string]string{"X-Override": "default"})
	client.http = server.Client()

	var resp map[string]string
	err := client.GetWithHeaders(context.Background(), server.URL,
		map[string]string{"X-Custom": "custom", "X-Override": "overridden"}, &resp)
	if err != nil {
		t.Fatalf("GetWithHeaders() error: %v", err)
	}
	if custom != "custom" {
		t.Errorf("custom header = %q, want %q", custom, "custom")
	}
	if override != "overridden" {
		t.Errorf("header = %q, want %q", override, "overridden")
	}
}

func TestClientStatusErrors(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		headers  map[string]string
		wantCode sqerrors.Code
		retry    bool
	}{
		{"not found", http.StatusNotFound, nil, sqerrors.ErrCodeNotFound, false},
		{"too many requests", http.StatusTooManyRequests, map[string]string{"Retry-After": "30"}, sqerrors.ErrCodeRateLimited, false},
		{"github rate limit", http.StatusForbidden, map[string]string{"X-RateLimit-Remaining": "0"}, sqerrors.ErrCodeRateLimited, false},
		{"forbidden", http.StatusForbidden, nil, sqerrors.ErrCodeNetwork, false},
		{"server error", http.StatusInternalServerError, nil, sqerrors.ErrCodeNetwork, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				for k, v := range tt.headers {
					w.Header().Set(k, v)
				}
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			client := NewClient(nil, WithHTTPClient(server.Client()), WithRetry(noRetry))
			var resp map[string]string
			err := client.Get(context.Background(), server.URL, &resp)

			if got := sqerrors.GetCode(err); got != tt.wantCode {
				t.Errorf("code = %q, want %q (err %v)", got, tt.wantCode, err)
			}
			if httputil.IsRetryable(err) != tt.retry {
				t.Errorf("retryable = %v, want %v", httputil.IsRetryable(err), tt.retry)
			}
		})
	}
}

func TestClientRateLimitRetryAfter(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "30")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewClient(nil, WithHTTPClient(server.Client()), WithRetry(noRetry))
	err := client.Get(context.Background(), server.URL, new(map[string]string))

	var rl *sqerrors.RateLimitedError
	if !errors.As(err, &rl) {
		t.Fatalf("error should wrap RateLimitedError, got %v", err)
	}
	if rl.RetryAfter != 30 {
		t.Errorf("RetryAfter = %d, want 30", rl.RetryAfter)
	}
	if msg := sqerrors.UserMessage(err); msg != "Request failed with status code 429" {
		t.Errorf("UserMessage = %q", msg)
	}
}

func TestClientRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}))
	defer server.Close()

	client := NewClient(nil, WithHTTPClient(server.Client()),
		WithRetry(httputil.Policy{Attempts: 3, Delay: time.Millisecond}))

	var resp map[string]string
	if err := client.Get(context.Background(), server.URL, &resp); err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if calls.Load() != 3 {
		t.Errorf("server calls = %d, want 3", calls.Load())
	}
}

func TestClientDecodeError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>not json</html>"))
	}))
	defer server.Close()

	client := NewClient(nil, WithHTTPClient(server.Client()), WithRetry(noRetry))
	var resp map[string]string
	err := client.Get(context.Background(), server.URL, &resp)
	if !sqerrors.Is(err, sqerrors.ErrCodeDecodeFailed) {
		t.Errorf("Get() error = %v, want DECODE_FAILED", err)
	}
}

func TestClientNetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := server.URL
	server.Close()

	client := NewClient(nil, WithRetry(noRetry))
	err := client.Get(context.Background(), url, new(map[string]string))
	if !sqerrors.Is(err, sqerrors.ErrCodeNetwork) {
		t.Fatalf("Get() error = %v, want NETWORK_ERROR", err)
	}
	if msg := sqerrors.UserMessage(err); msg != "Network Error" {
		t.Errorf("UserMessage = %q, want Network Error", msg)
	}
}
