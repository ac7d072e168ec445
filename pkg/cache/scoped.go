package cache

// ScopedKeyer wraps a Keyer with a prefix so several deployments can share
// one Redis database without colliding.
//
// Example usage:
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "staging:")
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

// InputKey generates a prefixed key for parsed inputs.
func (k *ScopedKeyer) InputKey(variant string, content []byte) string {
	return k.prefix + k.inner.InputKey(variant, content)
}

// LayoutKey generates a prefixed key for layout caching.
func (k *ScopedKeyer) LayoutKey(inputHash string, opts LayoutKeyOpts) string {
	return k.prefix + k.inner.LayoutKey(inputHash, opts)
}

// ArtifactKey generates a prefixed key for preview caching.
func (k *ScopedKeyer) ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(layoutHash, opts)
}
