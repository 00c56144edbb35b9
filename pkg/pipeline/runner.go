package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/geofold/dxfgeo/pkg/blocks"
	"github.com/geofold/dxfgeo/pkg/cache"
	"github.com/geofold/dxfgeo/pkg/convert"
	"github.com/geofold/dxfgeo/pkg/crs"
	"github.com/geofold/dxfgeo/pkg/dxf"
	"github.com/geofold/dxfgeo/pkg/errors"
	"github.com/geofold/dxfgeo/pkg/feature"
	"github.com/geofold/dxfgeo/pkg/observability"
)

// Runner encapsulates pipeline execution with caching.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs the complete parse → convert → reproject pipeline with
// caching.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidOptions, err, "invalid options")
	}
	r.applyLogger(&opts)

	raw, err := r.load(opts)
	if err != nil {
		return nil, err
	}
	contentHash := cache.Hash(raw)
	cacheKey := r.Keyer.FeatureSetKey(contentHash, opts.FeatureKeyOpts())

	// Try cache first (unless refresh requested)
	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			observability.Cache().OnCacheHit(ctx, "features")
			if result, err := resultFromCache(data, contentHash); err == nil {
				return result, nil
			}
			// Corrupt entry: fall through and recompute.
		} else {
			observability.Cache().OnCacheMiss(ctx, "features")
		}
	}

	result := &Result{ContentHash: contentHash, FeatureStats: feature.NewStats()}

	// Stage 1: Parse
	parseStart := time.Now()
	observability.Pipeline().OnParseStart(ctx, opts.Path)
	doc, err := dxf.ParseBytes(raw, dxf.ParseOptions{
		MemoryCeiling: opts.MemoryCeiling,
		Logger:        opts.Logger,
	})
	result.Stats.ParseTime = time.Since(parseStart)
	observability.Pipeline().OnParseComplete(ctx, opts.Path, entityCount(doc), result.Stats.ParseTime, err)
	if err != nil {
		return nil, errors.Wrap(errors.GetCode(err), err, "parse %s", opts.Path)
	}
	result.Stats.EntityCount = len(doc.Entities)

	r.Logger.Info("parsed document",
		"entities", len(doc.Entities),
		"layers", doc.Layers.Len(),
		"blocks", len(doc.Blocks),
		"skipped", doc.SkippedEntities,
		"duration", result.Stats.ParseTime)

	// Stage 2: Convert
	convertStart := time.Now()
	observability.Pipeline().OnConvertStart(ctx, len(doc.Entities))
	staged, err := r.convertEntities(doc, opts, result.FeatureStats)
	result.Stats.ConvertTime = time.Since(convertStart)
	observability.Pipeline().OnConvertComplete(ctx, len(staged), result.FeatureStats.FailedCount(), result.Stats.ConvertTime, err)
	if err != nil {
		return nil, err
	}

	r.Logger.Info("converted entities",
		"features", len(staged),
		"failed", result.FeatureStats.FailedCount(),
		"duration", result.Stats.ConvertTime)

	// Stage 3: Reproject
	reprojectStart := time.Now()
	det := r.determineSRID(doc, staged, opts)
	observability.Pipeline().OnReprojectStart(ctx, det.SRID, opts.TargetSRID)
	collection, err := r.reproject(staged, det.SRID, opts, result.FeatureStats)
	result.Stats.ReprojectTime = time.Since(reprojectStart)
	observability.Pipeline().OnReprojectComplete(ctx, det.SRID, opts.TargetSRID,
		result.FeatureStats.Placeholders, result.Stats.ReprojectTime, err)
	if err != nil {
		return nil, err
	}

	result.Collection = collection
	result.SourceSRID = det.SRID
	result.SRIDSource = det.Source
	result.Stats.FeatureCount = len(collection.Features)
	result.Stats.FailedCount = result.FeatureStats.FailedCount()
	result.Stats.Placeholders = result.FeatureStats.Placeholders

	r.Logger.Info("reprojected features",
		"source_srid", det.SRID, "srid_source", det.Source,
		"target_srid", opts.TargetSRID,
		"placeholders", result.FeatureStats.Placeholders,
		"duration", result.Stats.ReprojectTime)

	// Cache the result
	if data, err := json.Marshal(collection); err == nil {
		if err := r.Cache.Set(ctx, cacheKey, data, cache.TTLFeatures); err == nil {
			observability.Cache().OnCacheSet(ctx, "features", len(data))
		}
	}

	return result, nil
}

// Parse runs only the structural parse stage.
func (r *Runner) Parse(ctx context.Context, opts Options) (*dxf.Document, error) {
	if err := opts.ValidateForParse(); err != nil {
		return nil, err
	}
	r.applyLogger(&opts)

	raw, err := r.load(opts)
	if err != nil {
		return nil, err
	}
	doc, err := dxf.ParseBytes(raw, dxf.ParseOptions{
		MemoryCeiling: opts.MemoryCeiling,
		Logger:        opts.Logger,
	})
	if err != nil {
		return nil, errors.Wrap(errors.GetCode(err), err, "parse %s", opts.Path)
	}
	return doc, nil
}

// load reads the input bytes from memory or disk. The memory ceiling is
// checked against the file size before anything is read, so an oversized
// input never gets allocated in the first place.
func (r *Runner) load(opts Options) ([]byte, error) {
	if len(opts.Data) > 0 {
		return opts.Data, nil
	}
	info, err := os.Stat(opts.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "open %s", opts.Path)
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "stat %s", opts.Path)
	}
	if opts.MemoryCeiling > 0 && info.Size() > opts.MemoryCeiling {
		return nil, errors.New(errors.ErrCodeResourceLimit,
			"input %s is %d bytes, exceeds the %d byte memory ceiling",
			opts.Path, info.Size(), opts.MemoryCeiling)
	}
	raw, err := os.ReadFile(opts.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "open %s", opts.Path)
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "read %s", opts.Path)
	}
	return raw, nil
}

// convertEntities turns visible, selected entities into features in
// source coordinates. Per-entity failures are counted and skipped; the
// only fatal condition at this stage is a resource-limit violation.
func (r *Runner) convertEntities(doc *dxf.Document, opts Options, stats *feature.Stats) ([]feature.Feature, error) {
	registry := convert.NewRegistry(convert.Options{
		CircleSegments:   opts.CircleSegments,
		ValidateGeometry: opts.ValidateGeometry,
		Logger:           opts.Logger,
	})
	resolver, err := blocks.NewResolver(doc.Blocks, registry, blocks.Options{
		MaxDepth:  opts.MaxBlockNesting,
		CacheSize: opts.BlockCacheSize,
		Logger:    opts.Logger,
	})
	if err != nil {
		return nil, err
	}

	layerSel := opts.layerFilter()
	typeSel := opts.typeFilter()

	var staged []feature.Feature
	for _, ent := range doc.Entities {
		common := ent.Attrs()
		if !doc.Layers.IsVisible(common.Layer) {
			continue
		}
		if layerSel != nil && !layerSel[strings.ToUpper(common.Layer)] {
			continue
		}
		if typeSel != nil && !typeSel[string(ent.Kind())] {
			continue
		}

		if ins, ok := ent.(*dxf.Insert); ok {
			resolved, err := resolver.Resolve(ins)
			if err != nil {
				if errors.IsFatal(err) {
					return nil, err
				}
				stats.RecordFailure(err)
				opts.Logger.Debug("insert failed", "block", ins.BlockName, "err", err)
				continue
			}
			for _, child := range resolved {
				layer := child.Attributes.Layer
				// Block children on the default layer inherit the
				// insert's layer.
				if layer == "" || layer == dxf.DefaultLayerName {
					layer = common.Layer
				}
				staged = append(staged, feature.New(
					child.EntityType, layer, 0, child.Geometry, child.Properties, child.Attributes))
			}
			continue
		}

		out, err := registry.Convert(ent)
		if err != nil {
			if errors.IsFatal(err) {
				return nil, err
			}
			stats.RecordFailure(err)
			opts.Logger.Debug("entity failed", "type", ent.Kind(), "err", err)
			continue
		}
		staged = append(staged, feature.New(
			ent.Kind(), common.Layer, 0, out.Geometry, out.Properties, *common))
	}
	return staged, nil
}

// determineSRID resolves the source system from the available hints.
// The drawing extent comes from the header when declared, otherwise
// from the converted geometry itself.
func (r *Runner) determineSRID(doc *dxf.Document, staged []feature.Feature, opts Options) crs.Determination {
	hints := crs.Hints{
		Explicit:       opts.SourceSRID,
		ProjectionText: opts.ProjectionText,
		Fallback:       opts.FallbackSRID,
	}
	if doc.Header.HasExtents {
		hints.Bounds.Extend(doc.Header.ExtMin)
		hints.Bounds.Extend(doc.Header.ExtMax)
	} else {
		for _, f := range staged {
			hints.Bounds.ExtendBox(f.Geometry.Bounds())
		}
	}

	det := crs.Determine(hints)
	if !crs.Supported(det.SRID) {
		fallback := opts.FallbackSRID
		if fallback == 0 {
			fallback = crs.DefaultFallbackSRID
		}
		r.Logger.Warn("determined SRID is unsupported, using fallback",
			"determined", det.SRID, "source", det.Source, "fallback", fallback)
		det = crs.Determination{SRID: fallback, Source: "fallback"}
	}
	return det
}

// reproject transforms staged features into the target system. Failed
// features receive placeholder geometry and stay in the output.
func (r *Runner) reproject(staged []feature.Feature, sourceSRID int, opts Options, stats *feature.Stats) (feature.Collection, error) {
	rp, err := crs.NewReprojector(sourceSRID, opts.TargetSRID, opts.Logger)
	if err != nil {
		return feature.Collection{}, err
	}

	collection := feature.Collection{
		SRID:     opts.TargetSRID,
		Features: make([]feature.Feature, 0, len(staged)),
	}
	for _, f := range staged {
		g, err := rp.Apply(f.Geometry)
		if err != nil {
			stats.RecordFailure(err)
			f.Placeholder = true
		}
		f.Geometry = g
		f.SRID = opts.TargetSRID
		stats.Record(f)
		collection.Features = append(collection.Features, f)
	}
	return collection, nil
}

// resultFromCache rebuilds a Result from a cached collection blob.
func resultFromCache(data []byte, contentHash string) (*Result, error) {
	var collection feature.Collection
	if err := json.Unmarshal(bytes.TrimSpace(data), &collection); err != nil {
		return nil, err
	}
	stats := feature.NewStats()
	for _, f := range collection.Features {
		stats.Record(f)
	}
	return &Result{
		Collection:   collection,
		ContentHash:  contentHash,
		FeatureStats: stats,
		Stats: Stats{
			FeatureCount: len(collection.Features),
			Placeholders: stats.Placeholders,
		},
		CacheInfo: CacheInfo{FeatureHit: true},
	}, nil
}

func entityCount(doc *dxf.Document) int {
	if doc == nil {
		return 0
	}
	return len(doc.Entities)
}

// applyLogger propagates the runner logger into options that don't
// carry their own.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
