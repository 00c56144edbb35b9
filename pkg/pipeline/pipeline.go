// Package pipeline provides the core conversion pipeline for dxfgeo.
//
// This package implements the complete parse → convert → reproject
// pipeline that can be used by CLI and library callers. Centralizing the
// logic keeps behavior identical across entry points.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Parse: tokenize and assemble the DXF document (header, layers,
//     blocks, entities)
//  2. Convert: turn entities into geometry, expanding INSERT references
//     through the block resolver
//  3. Reproject: determine the source SRID and transform everything
//     into the target system
//
// Each stage can be run independently or as part of the complete
// pipeline.
//
// # Usage
//
// Create a Runner and execute the pipeline:
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	opts := pipeline.Options{
//	    Path:       "site-plan.dxf",
//	    TargetSRID: 4326,
//	}
//	result, err := runner.Execute(ctx, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	doc := result.Collection.GeoJSON(opts.Materialize())
package pipeline

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/geofold/dxfgeo/pkg/cache"
	"github.com/geofold/dxfgeo/pkg/crs"
	"github.com/geofold/dxfgeo/pkg/dxf"
	"github.com/geofold/dxfgeo/pkg/errors"
	"github.com/geofold/dxfgeo/pkg/feature"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and Library Callers
// =============================================================================

const (
	// DefaultTargetSRID is the output system when none is requested.
	DefaultTargetSRID = crs.SRIDWGS84

	// DefaultMaxBlockNesting bounds INSERT recursion depth.
	DefaultMaxBlockNesting = 5

	// DefaultBlockCacheSize bounds the resolver's definition cache.
	DefaultBlockCacheSize = 128

	// DefaultCircleSegments is the tessellation density for circles and
	// full ellipses.
	DefaultCircleSegments = 64
)

// Format constants for export formats.
const (
	FormatGeoJSON = "geojson"
	FormatPostGIS = "postgis"
)

// ValidFormats is the set of supported export formats.
var ValidFormats = map[string]bool{
	FormatGeoJSON: true,
	FormatPostGIS: true,
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for the conversion pipeline.
// This struct supports JSON and TOML serialization for option files.
type Options struct {
	// Input options
	Path string `json:"path,omitempty" toml:"path"`
	Data []byte `json:"-" toml:"-"` // in-memory input, overrides Path

	// Coordinate system options
	SourceSRID     int    `json:"source_srid,omitempty" toml:"source_srid"`
	TargetSRID     int    `json:"target_srid,omitempty" toml:"target_srid"`
	FallbackSRID   int    `json:"fallback_srid,omitempty" toml:"fallback_srid"`
	ProjectionText string `json:"projection_text,omitempty" toml:"projection_text"`

	// Selection options. Empty means everything; names are
	// case-insensitive.
	SelectedLayers []string `json:"selected_layers,omitempty" toml:"selected_layers"`
	SelectedTypes  []string `json:"selected_types,omitempty" toml:"selected_types"`

	// Conversion options
	CircleSegments      int  `json:"circle_segments,omitempty" toml:"circle_segments"`
	ValidateGeometry    bool `json:"validate_geometry,omitempty" toml:"validate_geometry"`
	MaxBlockNesting     int  `json:"max_block_nesting,omitempty" toml:"max_block_nesting"`
	BlockCacheSize      int  `json:"block_cache_size,omitempty" toml:"block_cache_size"`
	PreserveColors      bool `json:"preserve_colors,omitempty" toml:"preserve_colors"`
	PreserveLineWeights bool `json:"preserve_line_weights,omitempty" toml:"preserve_line_weights"`

	// Parse options
	MemoryCeiling int64 `json:"memory_ceiling,omitempty" toml:"memory_ceiling"`

	// Refresh bypasses the cache and recomputes.
	Refresh bool `json:"refresh,omitempty" toml:"refresh"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-" toml:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Collection is the converted feature set in the target SRID.
	Collection feature.Collection

	// SRIDSource names the signal that decided the source SRID.
	SRIDSource string

	// SourceSRID is the determined source system.
	SourceSRID int

	// ContentHash is the SHA-256 of the raw input.
	ContentHash string

	// Stats contains counts and timings.
	Stats Stats

	// FeatureStats is the per-type/per-layer accumulator.
	FeatureStats *feature.Stats

	// CacheInfo tracks whether the run came from cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	EntityCount   int
	FeatureCount  int
	FailedCount   int
	Placeholders  int
	ParseTime     time.Duration
	ConvertTime   time.Duration
	ReprojectTime time.Duration
}

// CacheInfo tracks cache hits for the pipeline.
type CacheInfo struct {
	FeatureHit bool // Whether the feature set came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that an export format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return fmt.Errorf("invalid format: %q (must be one of: geojson, postgis)", format)
	}
	return nil
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks required fields and applies defaults for
// the full pipeline. This method is idempotent - calling it multiple
// times has the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForParse(); err != nil {
		return err
	}
	if err := o.ValidateForConvert(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// ValidateForParse checks required fields for parsing.
func (o *Options) ValidateForParse() error {
	if o.Path == "" && len(o.Data) == 0 {
		return errors.New(errors.ErrCodeInvalidOptions, "path or data is required")
	}
	if o.Path != "" && len(o.Data) == 0 {
		if err := errors.ValidateInputPath(o.Path); err != nil {
			return err
		}
	}

	if o.MemoryCeiling == 0 {
		o.MemoryCeiling = dxf.DefaultMemoryCeiling
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return nil
}

// ValidateForConvert checks and defaults the conversion options.
func (o *Options) ValidateForConvert() error {
	if o.TargetSRID == 0 {
		o.TargetSRID = DefaultTargetSRID
	}
	if err := errors.ValidateSRID(o.TargetSRID); err != nil {
		return err
	}
	if !crs.Supported(o.TargetSRID) {
		return errors.New(errors.ErrCodeInvalidSRID, "unsupported target SRID %d", o.TargetSRID)
	}
	if o.SourceSRID != 0 {
		if err := errors.ValidateSRID(o.SourceSRID); err != nil {
			return err
		}
		if !crs.Supported(o.SourceSRID) {
			return errors.New(errors.ErrCodeInvalidSRID, "unsupported source SRID %d", o.SourceSRID)
		}
	}
	for _, layer := range o.SelectedLayers {
		if err := errors.ValidateLayerName(layer); err != nil {
			return err
		}
	}

	if o.CircleSegments == 0 {
		o.CircleSegments = DefaultCircleSegments
	}
	if o.MaxBlockNesting == 0 {
		o.MaxBlockNesting = DefaultMaxBlockNesting
	}
	if o.BlockCacheSize == 0 {
		o.BlockCacheSize = DefaultBlockCacheSize
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return nil
}

// Materialize derives the output materialization options.
func (o Options) Materialize() feature.MaterializeOptions {
	return feature.MaterializeOptions{
		PreserveColors:      o.PreserveColors,
		PreserveLineWeights: o.PreserveLineWeights,
	}
}

// FeatureKeyOpts derives the cache-key options: every field that changes
// conversion output appears here.
func (o Options) FeatureKeyOpts() cache.FeatureSetKeyOpts {
	return cache.FeatureSetKeyOpts{
		SourceSRID:          o.SourceSRID,
		TargetSRID:          o.TargetSRID,
		FallbackSRID:        o.FallbackSRID,
		ProjectionText:      o.ProjectionText,
		SelectedLayers:      normalizeNames(o.SelectedLayers),
		SelectedTypes:       normalizeNames(o.SelectedTypes),
		CircleSegments:      o.CircleSegments,
		MaxBlockNesting:     o.MaxBlockNesting,
		ValidateGeometry:    o.ValidateGeometry,
		PreserveColors:      o.PreserveColors,
		PreserveLineWeights: o.PreserveLineWeights,
	}
}

// layerFilter returns the selected-layer set, or nil for "all".
func (o Options) layerFilter() map[string]bool {
	return nameSet(o.SelectedLayers)
}

// typeFilter returns the selected-type set, or nil for "all".
func (o Options) typeFilter() map[string]bool {
	return nameSet(o.SelectedTypes)
}

func nameSet(names []string) map[string]bool {
	if len(names) == 0 {
		return nil
	}
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[strings.ToUpper(strings.TrimSpace(n))] = true
	}
	return set
}

func normalizeNames(names []string) []string {
	if len(names) == 0 {
		return nil
	}
	out := make([]string, 0, len(names))
	for _, n := range names {
		out = append(out, strings.ToUpper(strings.TrimSpace(n)))
	}
	return out
}
