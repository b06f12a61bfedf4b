// Package errors provides the coded errors shared by the query cache, the
// stores and the HTTP clients.
//
// Every error that crosses a package boundary carries a [Code]. Callers
// branch on the code, never on the message:
//
//	snap, _ := qc.Await(ctx, key)
//	switch {
//	case errors.Is(snap.Err, errors.ErrCodeNotFound):
//	    // show "not found"
//	case errors.IsTemporary(snap.Err):
//	    // keep the old data, the next refetch may succeed
//	}
//
// The message of an *Error is written for people. [UserMessage] returns it
// without the code prefix, which is what the CLI prints.
package errors

import (
	"errors"
	"fmt"
	"time"
)

// Code represents a machine-readable error code.
type Code string

const (
	// Input validation
	ErrCodeInvalidInput    Code = "INVALID_INPUT"
	ErrCodeInvalidKey      Code = "INVALID_KEY"
	ErrCodeInvalidRepo     Code = "INVALID_REPO"
	ErrCodeInvalidCategory Code = "INVALID_CATEGORY"
	ErrCodeInvalidConfig   Code = "INVALID_CONFIG"

	// Fetch failures, as recorded on a query snapshot
	ErrCodeNotFound     Code = "NOT_FOUND"
	ErrCodeNetwork      Code = "NETWORK_ERROR"
	ErrCodeTimeout      Code = "TIMEOUT"
	ErrCodeRateLimited  Code = "RATE_LIMITED"
	ErrCodeDecodeFailed Code = "DECODE_FAILED"
	ErrCodeFetchFailed  Code = "FETCH_FAILED"

	// Query cache lifecycle
	ErrCodeCacheClosed Code = "CACHE_CLOSED"

	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// Temporary reports whether a failure with this code may succeed if the
// same fetch is repeated later.
func (c Code) Temporary() bool {
	switch c {
	case ErrCodeNetwork, ErrCodeTimeout, ErrCodeRateLimited:
		return true
	}
	return false
}

// Coder is implemented by error types that carry a code without being an
// *Error, such as query fetch errors.
type Coder interface {
	Code() Code
}

// Error is a coded error with an optional cause.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// New creates an Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an Error that keeps cause reachable through errors.Is/As.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// Is reports whether err carries the given code. The outermost code in the
// chain wins, so Wrap can reclassify an inner error.
func Is(err error, code Code) bool {
	return err != nil && GetCode(err) == code
}

// GetCode returns the outermost code in err's chain, or "" if there is none.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	var c Coder
	if errors.As(err, &c) {
		return c.Code()
	}
	return ""
}

// IsTemporary reports whether err has a code for a transient failure.
func IsTemporary(err error) bool {
	return GetCode(err).Temporary()
}

// UserMessage returns the message of the outermost *Error without its code,
// or err.Error() for uncoded errors.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// RateLimitedError is the cause of RATE_LIMITED errors. RetryAfter is the
// server's Retry-After hint in seconds, 0 when absent.
type RateLimitedError struct {
	RetryAfter int
}

func (e *RateLimitedError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limited: retry after %d seconds", e.RetryAfter)
	}
	return "rate limited"
}

func (e *RateLimitedError) Code() Code { return ErrCodeRateLimited }

// Wait returns RetryAfter as a duration.
func (e *RateLimitedError) Wait() time.Duration {
	return time.Duration(e.RetryAfter) * time.Second
}
