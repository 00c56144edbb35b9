package cache

// ScopedKeyer wraps a Keyer with a prefix for namespace isolation, e.g.
// per-tenant caches in a shared redis instance.
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer that prepends prefix to every key.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

// DocumentKey generates a prefixed key for parsed-document caching.
func (k *ScopedKeyer) DocumentKey(contentHash string, opts DocumentKeyOpts) string {
	return k.prefix + k.inner.DocumentKey(contentHash, opts)
}

// FeatureSetKey generates a prefixed key for feature-collection caching.
func (k *ScopedKeyer) FeatureSetKey(documentHash string, opts FeatureSetKeyOpts) string {
	return k.prefix + k.inner.FeatureSetKey(documentHash, opts)
}

// ArtifactKey generates a prefixed key for exported-artifact caching.
func (k *ScopedKeyer) ArtifactKey(featureHash string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(featureHash, opts)
}

// Ensure ScopedKeyer implements Keyer.
var _ Keyer = (*ScopedKeyer)(nil)
