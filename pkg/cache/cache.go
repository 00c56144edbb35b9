// Package cache provides result caching for the conversion pipeline.
//
// Backends share one small Cache interface; the pipeline never knows
// whether it talks to the filesystem, redis, or nothing at all. Keys are
// produced by a Keyer so that every entry point derives identical keys
// from identical inputs.
package cache

import (
	"context"
	"time"
)

// TTLs per cached artifact class. Parsed documents are keyed by content
// hash, so they never go stale; feature sets depend on option sets that
// evolve with the software and expire faster.
const (
	// TTLDocument applies to parsed document summaries.
	TTLDocument = 30 * 24 * time.Hour

	// TTLFeatures applies to converted feature collections.
	TTLFeatures = 7 * 24 * time.Hour

	// TTLArtifact applies to exported artifacts (GeoJSON documents,
	// WKT dumps).
	TTLArtifact = 24 * time.Hour
)

// Cache stores opaque byte blobs under string keys with per-entry TTLs.
// Implementations must be safe for concurrent use.
type Cache interface {
	// Get retrieves a value. The second return reports whether the key
	// was present and unexpired.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value. A zero ttl stores without expiry; a negative
	// ttl expires the entry immediately.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}
