package errors

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

// codedErr carries a code through the Coder interface only.
type codedErr struct{ code Code }

func (e codedErr) Error() string { return string(e.code) }
func (e codedErr) Code() Code    { return e.code }

func TestNewAndWrap(t *testing.T) {
	err := New(ErrCodeInvalidRepo, "invalid repo %q", "x")
	if got, want := err.Error(), `INVALID_REPO: invalid repo "x"`; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	cause := errors.New("connection refused")
	wrapped := Wrap(ErrCodeNetwork, cause, "Network Error")
	if got, want := wrapped.Error(), "NETWORK_ERROR: Network Error: connection refused"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(wrapped, cause) {
		t.Error("Wrap should keep the cause reachable")
	}
}

func TestGetCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Code
	}{
		{"nil", nil, ""},
		{"plain", errors.New("plain"), ""},
		{"coded", New(ErrCodeNotFound, "missing"), ErrCodeNotFound},
		{"outermost wins", Wrap(ErrCodeFetchFailed, New(ErrCodeNetwork, "inner"), "outer"), ErrCodeFetchFailed},
		{"behind fmt wrap", fmt.Errorf("query: %w", New(ErrCodeTimeout, "slow")), ErrCodeTimeout},
		{"coder", codedErr{ErrCodeCacheClosed}, ErrCodeCacheClosed},
		{"rate limited cause", &RateLimitedError{}, ErrCodeRateLimited},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetCode(tt.err); got != tt.want {
				t.Errorf("GetCode() = %q, want %q", got, tt.want)
			}
			if tt.want != "" && !Is(tt.err, tt.want) {
				t.Errorf("Is(err, %q) = false", tt.want)
			}
		})
	}

	if Is(nil, "") {
		t.Error("Is(nil, \"\") should be false")
	}
}

func TestIsTemporary(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{New(ErrCodeNetwork, "Network Error"), true},
		{New(ErrCodeTimeout, "timeout"), true},
		{Wrap(ErrCodeRateLimited, &RateLimitedError{RetryAfter: 1}, "slow down"), true},
		{New(ErrCodeNotFound, "missing"), false},
		{New(ErrCodeDecodeFailed, "bad json"), false},
		{errors.New("plain"), false},
	}

	for _, tt := range tests {
		if got := IsTemporary(tt.err); got != tt.want {
			t.Errorf("IsTemporary(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"coded", New(ErrCodeNetwork, "Network Error"), "Network Error"},
		{"wrapped cause hidden", Wrap(ErrCodeNotFound, errors.New("404"), "github repo a/b not found"), "github repo a/b not found"},
		{"plain", errors.New("plain error"), "plain error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UserMessage(tt.err); got != tt.want {
				t.Errorf("UserMessage() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRateLimitedError(t *testing.T) {
	err := &RateLimitedError{RetryAfter: 60}
	if got := err.Error(); got != "rate limited: retry after 60 seconds" {
		t.Errorf("Error() = %q", got)
	}
	if got := err.Wait(); got != time.Minute {
		t.Errorf("Wait() = %v, want 1m", got)
	}
	if got := (&RateLimitedError{}).Error(); got != "rate limited" {
		t.Errorf("Error() without hint = %q", got)
	}
}
