package cache

// ScopedKeyer wraps a Keyer with a prefix for namespace isolation.
// The server uses this to keep per-session entries separate from the
// shared board cache.
//
// Example usage:
//
//	// Session-specific keys for boards being edited
//	sessionKeyer := NewScopedKeyer(NewDefaultKeyer(), "session:abc123:")
//
//	// Global keys for immutable imported boards
//	globalKeyer := NewDefaultKeyer()
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

// BoardKey generates a prefixed key for board caching.
func (k *ScopedKeyer) BoardKey(source string) string {
	return k.prefix + k.inner.BoardKey(source)
}

// GeometryKey generates a prefixed key for geometry caching.
func (k *ScopedKeyer) GeometryKey(boardHash string, opts GeometryKeyOpts) string {
	return k.prefix + k.inner.GeometryKey(boardHash, opts)
}

// ClearanceKey generates a prefixed key for clearance result caching.
func (k *ScopedKeyer) ClearanceKey(geometryHash string, opts ClearanceKeyOpts) string {
	return k.prefix + k.inner.ClearanceKey(geometryHash, opts)
}
