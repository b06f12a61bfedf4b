package query

import "time"

// Snapshot is an immutable view of one entry. IsLoading and IsFetching
// describe in-progress activity; the remaining fields describe the last
// resolution.
type Snapshot struct {
	Key    Key
	Status Status

	// Data is the last successful value. HasData distinguishes a nil value
	// from "never fetched".
	Data    any
	HasData bool

	// Err is the last failure as a *FetchError, or nil. A later success
	// clears it; a failure never clears Data.
	Err error

	// IsLoading is true while the first fetch runs and there is no data.
	IsLoading bool
	// IsFetching is true while any fetch for the key is in flight.
	IsFetching bool
	// IsInvalidated is true after Invalidate until the next success.
	IsInvalidated bool

	UpdatedAt      time.Time
	ErrorUpdatedAt time.Time

	// FetchCount counts fetches issued for the key.
	FetchCount int
	// FailureCount counts consecutive failures; a success resets it.
	FailureCount int

	version uint64
}

// IsSuccess reports whether the last fetch succeeded.
func (s Snapshot) IsSuccess() bool { return s.Status == StatusSuccess }

// IsError reports whether the last fetch failed.
func (s Snapshot) IsError() bool { return s.Status == StatusError }

// ErrorMessage returns Err's message, or "" when there is no error.
func (s Snapshot) ErrorMessage() string {
	if s.Err == nil {
		return ""
	}
	return s.Err.Error()
}

// Age returns how long ago the data was fetched, measured against now.
// It is zero when there is no data.
func (s Snapshot) Age(now time.Time) time.Duration {
	if !s.HasData {
		return 0
	}
	return now.Sub(s.UpdatedAt)
}

// IsStale reports whether the snapshot would trigger a refetch under
// staleTime at time now.
func (s Snapshot) IsStale(now time.Time, staleTime time.Duration) bool {
	if s.Status != StatusSuccess || s.IsInvalidated {
		return true
	}
	return now.Sub(s.UpdatedAt) >= staleTime
}

// Data returns the snapshot's data as T. ok is false when there is no
// data or it has a different type.
func Data[T any](s Snapshot) (v T, ok bool) {
	if !s.HasData {
		return v, false
	}
	v, ok = s.Data.(T)
	return v, ok
}
