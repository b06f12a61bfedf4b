package query

import "github.com/matzehuels/stackquery/pkg/errors"

// FetchError is the only error a snapshot carries. It records which key
// failed and why; its message is the reason's message, unchanged.
type FetchError struct {
	Key Key
	Err error
}

// Error returns the underlying error's message.
func (e *FetchError) Error() string { return e.Err.Error() }

// Unwrap returns the underlying error.
func (e *FetchError) Unwrap() error { return e.Err }

// Code returns the code of the underlying error, or FETCH_FAILED when the
// fetch function returned an uncoded error.
func (e *FetchError) Code() errors.Code {
	if code := errors.GetCode(e.Err); code != "" {
		return code
	}
	return errors.ErrCodeFetchFailed
}

func panicError(key Key, v any) error {
	if err, ok := v.(error); ok {
		return errors.Wrap(errors.ErrCodeInternal, err, "panic while fetching %s", key)
	}
	return errors.New(errors.ErrCodeInternal, "panic while fetching %s: %v", key, v)
}

func errClosed() error {
	return errors.New(errors.ErrCodeCacheClosed, "query cache is closed")
}

func errNoFetch(key Key) error {
	return errors.New(errors.ErrCodeInvalidInput, "query %s has no fetch function", key)
}

func errNoListener(key Key) error {
	return errors.New(errors.ErrCodeInvalidInput, "subscription to %s has no listener", key)
}

func errObserverActive(key Key) error {
	return errors.New(errors.ErrCodeInvalidInput, "observer for %s was already started", key)
}
