// Package cache provides byte-oriented storage backends used to persist
// successful query results between runs.
//
// The query cache in package query keeps live state in memory. When a
// persister is configured it writes each successful result through one of
// these backends and reads it back the first time a key is queried in a new
// process, so a restarted CLI can show data immediately while it revalidates.
//
// Backends:
//   - [FileCache]: one file per entry under the XDG cache directory (CLI default)
//   - [RedisCache]: shared store for several processes
//   - [MongoCache]: document store with TTL stored alongside the payload
//   - [NullCache]: disables persistence
//
// Keys are produced by a [Keyer] so that every backend sees the same
// collision-free, filesystem-safe names.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/matzehuels/stackquery/pkg/errors"
)

// Cache is the storage interface shared by all persistence backends.
type Cache interface {
	// Get returns the stored bytes for key. A missing or expired entry is
	// reported as (nil, false, nil).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of zero means the entry never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases resources owned by the backend.
	Close() error
}

// Clearer is implemented by stores that can drop every query entry they
// hold.
type Clearer interface {
	// Clear removes all entries and reports how many were removed.
	Clear(ctx context.Context) (int, error)
}

// Clear removes every entry from c, looking through wrappers that expose
// the store they wrap with an Unwrap method.
func Clear(ctx context.Context, c Cache) (int, error) {
	for c != nil {
		if cl, ok := c.(Clearer); ok {
			return cl.Clear(ctx)
		}
		u, ok := c.(interface{ Unwrap() Cache })
		if !ok {
			break
		}
		c = u.Unwrap()
	}
	return 0, errors.New(errors.ErrCodeUnsupported, "store %T cannot be cleared", c)
}

// Keyer maps query keys to storage keys.
type Keyer interface {
	// QueryKey generates the storage key for a query identified by its
	// resource and id.
	QueryKey(resource, id string) string
}

// DefaultKeyer is the standard Keyer.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the standard Keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// QueryKey returns "query:<resource>:<sha256(id)>".
func (DefaultKeyer) QueryKey(resource, id string) string {
	return "query:" + resource + ":" + Hash([]byte(id))
}

// Hash returns the hex SHA-256 of data.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
