package cache

// ScopedKeyer wraps a Keyer with a prefix so several repositories or
// tenants can share one backend without colliding.
//
// Example usage:
//
//	repoKeyer := NewScopedKeyer(NewDefaultKeyer(), "repo:logtower:")
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

// OrderKey generates a prefixed key for commit order caching.
func (k *ScopedKeyer) OrderKey(logHash string, opts OrderKeyOpts) string {
	return k.prefix + k.inner.OrderKey(logHash, opts)
}

// ArtifactKey generates a prefixed key for artifact caching.
func (k *ScopedKeyer) ArtifactKey(logHash string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(logHash, opts)
}
