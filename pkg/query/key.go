package query

import (
	"github.com/matzehuels/stackquery/pkg/errors"
)

// Key identifies a logical query. Resource scopes the key to one kind of
// data ("github.repo"); ID names the instance ("tannerlinsley/react-query").
// Keys with different resources never share state.
type Key struct {
	Resource string
	ID       string
}

// NewKey returns a Key for resource and id.
func NewKey(resource, id string) Key {
	return Key{Resource: resource, ID: id}
}

// String returns "resource:id", or just the resource when ID is empty.
func (k Key) String() string {
	if k.ID == "" {
		return k.Resource
	}
	return k.Resource + ":" + k.ID
}

// IsZero reports whether k has no resource.
func (k Key) IsZero() bool { return k.Resource == "" }

// Validate returns an INVALID_KEY error for keys without a usable resource.
func (k Key) Validate() error {
	return errors.ValidateResource(k.Resource)
}
