package cache

// ScopedKeyer wraps a Keyer with a prefix for namespace isolation. The HTTP
// server scopes its frame keys under "serve:" so a shared Redis backend never
// collides with keys written by other tools.
//
// Example usage:
//
//	serveKeyer := NewScopedKeyer(NewDefaultKeyer(), "serve:")
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

// FrameKey generates a prefixed key for one encoded frame.
func (k *ScopedKeyer) FrameKey(snapshotHash string, opts FrameKeyOpts) string {
	return k.prefix + k.inner.FrameKey(snapshotHash, opts)
}
