package cache

// Keyer derives cache keys for the pipeline's artifact classes. Using
// one shared keyer everywhere guarantees that the CLI and library
// callers hit the same entries for the same inputs.
type Keyer interface {
	// DocumentKey keys a parsed document by its content hash.
	DocumentKey(contentHash string, opts DocumentKeyOpts) string

	// FeatureSetKey keys a converted feature collection by the
	// document hash plus every option that changes conversion output.
	FeatureSetKey(documentHash string, opts FeatureSetKeyOpts) string

	// ArtifactKey keys an exported artifact by the feature-set hash
	// and the export format.
	ArtifactKey(featureHash string, opts ArtifactKeyOpts) string
}

// DocumentKeyOpts are the parse options that affect the parsed form.
type DocumentKeyOpts struct {
	MemoryCeiling int64 `json:"memory_ceiling,omitempty"`
}

// FeatureSetKeyOpts are the conversion options that affect output
// geometry or properties. Anything listed here must invalidate the
// cache when it changes.
type FeatureSetKeyOpts struct {
	SourceSRID          int      `json:"source_srid,omitempty"`
	TargetSRID          int      `json:"target_srid"`
	FallbackSRID        int      `json:"fallback_srid,omitempty"`
	ProjectionText      string   `json:"projection_text,omitempty"`
	SelectedLayers      []string `json:"selected_layers,omitempty"`
	SelectedTypes       []string `json:"selected_types,omitempty"`
	CircleSegments      int      `json:"circle_segments,omitempty"`
	MaxBlockNesting     int      `json:"max_block_nesting,omitempty"`
	ValidateGeometry    bool     `json:"validate_geometry,omitempty"`
	PreserveColors      bool     `json:"preserve_colors,omitempty"`
	PreserveLineWeights bool     `json:"preserve_line_weights,omitempty"`
}

// ArtifactKeyOpts identify an export format.
type ArtifactKeyOpts struct {
	Format string `json:"format"`
}

// DefaultKeyer hashes key components with SHA-256 under a per-class
// prefix.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer {
	return &DefaultKeyer{}
}

// DocumentKey generates a key for parsed-document caching.
func (k *DefaultKeyer) DocumentKey(contentHash string, opts DocumentKeyOpts) string {
	return hashKey("doc", contentHash, opts)
}

// FeatureSetKey generates a key for feature-collection caching.
func (k *DefaultKeyer) FeatureSetKey(documentHash string, opts FeatureSetKeyOpts) string {
	return hashKey("features", documentHash, opts)
}

// ArtifactKey generates a key for exported-artifact caching.
func (k *DefaultKeyer) ArtifactKey(featureHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", featureHash, opts)
}

// Ensure DefaultKeyer implements Keyer.
var _ Keyer = (*DefaultKeyer)(nil)
