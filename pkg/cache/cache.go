// Package cache provides keyed byte caching for rendered frames.
//
// Re-rendering a frame is pure CPU: the same (viewport, params, scheme,
// resolution) snapshot always produces the same pixels, which makes encoded
// frames ideal cache entries for the one-shot render paths (CLI, HTTP).
// The interactive engine does not cache — continuous navigation never
// revisits a key.
//
// Backends:
//   - FileCache: XDG cache directory storage for the CLI
//   - RedisCache: shared cache for multi-instance HTTP serving
//   - NullCache: caching disabled
package cache

import (
	"context"
	"time"
)

// Cache is the interface all cache backends implement. Values are opaque
// byte slices (typically PNG-encoded frames).
type Cache interface {
	// Get retrieves a value. The second return reports whether the key was
	// present and unexpired.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value with the given TTL. A zero TTL stores forever;
	// a negative TTL stores an entry that is already expired.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// TTLFrame is how long encoded frames stay cached. Frames are fully
// reproducible, so expiry only bounds disk/memory footprint.
const TTLFrame = 30 * 24 * time.Hour

// Keyer generates cache keys for render artifacts.
type Keyer interface {
	// FrameKey generates a key for one encoded frame. snapshotHash is the
	// hash of the full render input snapshot.
	FrameKey(snapshotHash string, opts FrameKeyOpts) string
}

// FrameKeyOpts distinguishes frames rendered from the same snapshot hash.
type FrameKeyOpts struct {
	Width  int
	Height int
	Format string // encoding, e.g. "png"
}

// DefaultKeyer is the standard key generator.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard key generator.
func NewDefaultKeyer() Keyer {
	return &DefaultKeyer{}
}

// FrameKey generates a key for one encoded frame.
func (k *DefaultKeyer) FrameKey(snapshotHash string, opts FrameKeyOpts) string {
	return hashKey("frame", snapshotHash, opts)
}
