package query

// Status is the resolved state of a query entry.
type Status int

const (
	// StatusIdle means the entry exists but no fetch was ever issued.
	StatusIdle Status = iota
	// StatusLoading means the first fetch is in flight and there is no data.
	StatusLoading
	// StatusSuccess means the last fetch succeeded.
	StatusSuccess
	// StatusError means the last fetch failed.
	StatusError
)

var statusNames = [...]string{"idle", "loading", "success", "error"}

func (s Status) String() string {
	if s < 0 || int(s) >= len(statusNames) {
		return "unknown"
	}
	return statusNames[s]
}
