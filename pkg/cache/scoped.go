package cache

// ScopedKeyer wraps a Keyer with a prefix so that several profiles sharing
// one store keep separate query namespaces. The CLI builds one from the
// cache.namespace setting:
//
//	keyer := NewScopedKeyer(nil, "ns:work:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// QueryKey generates a prefixed key for a persisted query result.
func (k *ScopedKeyer) QueryKey(resource, id string) string {
	return k.prefix + k.inner.QueryKey(resource, id)
}
