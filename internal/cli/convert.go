package cli

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/geofold/dxfgeo/pkg/cache"
	"github.com/geofold/dxfgeo/pkg/errors"
	"github.com/geofold/dxfgeo/pkg/feature"
	pkgio "github.com/geofold/dxfgeo/pkg/io"
	"github.com/geofold/dxfgeo/pkg/pipeline"
)

// convertOpts holds the command-line flags for the convert command.
type convertOpts struct {
	output      string // output file path (stdout if empty)
	format      string // geojson or postgis
	optionsFile string // TOML options file, merged under flags

	srid         int    // target SRID
	sourceSRID   int    // explicit source SRID
	fallbackSRID int    // SRID when determination fails
	prjFile      string // companion projection metadata file

	layers     []string
	types      []string
	segments   int
	maxNesting int
	validate   bool
	colors     bool
	weights    bool

	refresh   bool
	noCache   bool
	redisAddr string
}

// newConvertCmd creates the convert command.
func newConvertCmd() *cobra.Command {
	var opts convertOpts

	cmd := &cobra.Command{
		Use:   "convert <drawing.dxf>",
		Short: "Convert a DXF drawing into geo-feature output",
		Long: `Convert a DXF drawing into a GeoJSON FeatureCollection or
newline-delimited PostGIS records.

The source coordinate system is taken from --source-srid when given,
otherwise sniffed from a companion projection file (--prj) or guessed
from coordinate magnitudes, falling back to --fallback-srid.

Examples:
  dxfgeo convert site.dxf                          # GeoJSON to stdout, WGS84
  dxfgeo convert site.dxf -o site.geojson          # GeoJSON to file
  dxfgeo convert site.dxf --format postgis --srid 2056
  dxfgeo convert site.dxf --layers WALLS,DOORS --types LINE,LWPOLYLINE`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConvert(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().StringVar(&opts.format, "format", pipeline.FormatGeoJSON, "output format: geojson or postgis")
	cmd.Flags().StringVar(&opts.optionsFile, "options", "", "TOML options file (flags take precedence)")
	cmd.Flags().IntVar(&opts.srid, "srid", pipeline.DefaultTargetSRID, "target SRID for output coordinates")
	cmd.Flags().IntVar(&opts.sourceSRID, "source-srid", 0, "explicit source SRID (skips determination)")
	cmd.Flags().IntVar(&opts.fallbackSRID, "fallback-srid", 0, "SRID used when determination fails")
	cmd.Flags().StringVar(&opts.prjFile, "prj", "", "companion projection metadata file (.prj WKT or proj4)")
	cmd.Flags().StringSliceVar(&opts.layers, "layers", nil, "only convert these layers")
	cmd.Flags().StringSliceVar(&opts.types, "types", nil, "only convert these entity types")
	cmd.Flags().IntVar(&opts.segments, "segments", pipeline.DefaultCircleSegments, "tessellation segments for circles")
	cmd.Flags().IntVar(&opts.maxNesting, "max-nesting", pipeline.DefaultMaxBlockNesting, "maximum block nesting depth")
	cmd.Flags().BoolVar(&opts.validate, "validate", false, "reject degenerate geometry")
	cmd.Flags().BoolVar(&opts.colors, "preserve-colors", false, "carry entity colors into output properties")
	cmd.Flags().BoolVar(&opts.weights, "preserve-lineweights", false, "carry line weights into output properties")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "bypass the result cache")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the result cache entirely")
	cmd.Flags().StringVar(&opts.redisAddr, "redis", "", "redis address for a shared result cache (host:port)")

	return cmd
}

func runConvert(cmd *cobra.Command, path string, opts convertOpts) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)

	if err := pipeline.ValidateFormat(opts.format); err != nil {
		return err
	}

	pipeOpts, err := opts.pipelineOptions(path)
	if err != nil {
		return err
	}
	pipeOpts.Logger = logger
	if err := pipeOpts.ValidateAndSetDefaults(); err != nil {
		return err
	}

	store := cache.NewNullCache()
	var keyer cache.Keyer
	switch {
	case opts.noCache:
	case opts.redisAddr != "":
		rc, err := cache.NewRedisCache(ctx, opts.redisAddr, "", 0)
		if err != nil {
			logger.Warn("redis cache unavailable, continuing without", "addr", opts.redisAddr, "err", err)
		} else {
			store = rc
			// A shared redis instance gets namespaced keys so other
			// tools on the same server cannot collide with ours.
			keyer = cache.NewScopedKeyer(nil, "dxfgeo:")
		}
	default:
		dir, err := cacheDir()
		if err == nil {
			if fc, err := cache.NewFileCache(dir); err == nil {
				store = fc
			}
		}
		if _, ok := store.(*cache.NullCache); ok {
			logger.Warn("result cache unavailable, continuing without")
		}
	}
	defer store.Close()

	runner := pipeline.NewRunner(store, keyer, logger)

	p := newProgress(logger)
	result, err := runner.Execute(ctx, pipeOpts)
	if err != nil {
		return err
	}
	p.done(fmt.Sprintf("Converted %d entities into %d features", result.Stats.EntityCount, result.Stats.FeatureCount))

	if err := writeOutput(ctx, runner, result, pipeOpts, opts); err != nil {
		return err
	}

	printSuccess("Wrote %d features (%s)", len(result.Collection.Features), opts.format)
	if opts.output != "" {
		printDetail("Output: %s", opts.output)
	}
	if !result.CacheInfo.FeatureHit {
		printDetail("Source SRID: %d (%s)", result.SourceSRID, result.SRIDSource)
	}
	printDetail("Target SRID: %d", result.Collection.SRID)
	if result.Stats.FailedCount > 0 {
		printDetail("Failed entities: %d", result.Stats.FailedCount)
		codes := result.FeatureStats.FailedByCode
		keys := make([]string, 0, len(codes))
		for code := range codes {
			keys = append(keys, string(code))
		}
		sort.Strings(keys)
		for _, code := range keys {
			printDetail("  %s: %d", code, codes[errors.Code(code)])
		}
	}
	if result.Stats.Placeholders > 0 {
		printDetail("Placeholder geometries: %d", result.Stats.Placeholders)
	}
	return nil
}

// pipelineOptions merges the options file (if any) under the flags.
func (o convertOpts) pipelineOptions(path string) (pipeline.Options, error) {
	var opts pipeline.Options
	if o.optionsFile != "" {
		if _, err := toml.DecodeFile(o.optionsFile, &opts); err != nil {
			return pipeline.Options{}, fmt.Errorf("options file %s: %w", o.optionsFile, err)
		}
	}

	opts.Path = path
	opts.TargetSRID = o.srid
	if o.sourceSRID != 0 {
		opts.SourceSRID = o.sourceSRID
	}
	if o.fallbackSRID != 0 {
		opts.FallbackSRID = o.fallbackSRID
	}
	if len(o.layers) > 0 {
		opts.SelectedLayers = o.layers
	}
	if len(o.types) > 0 {
		opts.SelectedTypes = o.types
	}
	opts.CircleSegments = o.segments
	opts.MaxBlockNesting = o.maxNesting
	opts.ValidateGeometry = opts.ValidateGeometry || o.validate
	opts.PreserveColors = opts.PreserveColors || o.colors
	opts.PreserveLineWeights = opts.PreserveLineWeights || o.weights
	opts.Refresh = o.refresh

	if o.prjFile != "" {
		text, err := os.ReadFile(o.prjFile)
		if err != nil {
			return pipeline.Options{}, fmt.Errorf("projection file %s: %w", o.prjFile, err)
		}
		opts.ProjectionText = strings.TrimSpace(string(text))
	} else if opts.ProjectionText == "" {
		// A sibling .prj next to the drawing is picked up automatically.
		sibling := strings.TrimSuffix(path, filepath.Ext(path)) + ".prj"
		if text, err := os.ReadFile(sibling); err == nil {
			opts.ProjectionText = strings.TrimSpace(string(text))
		}
	}

	return opts, nil
}

// writeOutput renders the collection in the requested format and writes
// it to the output target. Rendered artifacts are cached under the
// feature-set key plus the format, so re-exporting an unchanged run
// skips the encoding work.
func writeOutput(ctx context.Context, runner *pipeline.Runner, result *pipeline.Result, pipeOpts pipeline.Options, opts convertOpts) error {
	featureKey := runner.Keyer.FeatureSetKey(result.ContentHash, pipeOpts.FeatureKeyOpts())
	artifactKey := runner.Keyer.ArtifactKey(featureKey, cache.ArtifactKeyOpts{Format: opts.format})

	var data []byte
	if !opts.refresh {
		if cached, hit, err := runner.Cache.Get(ctx, artifactKey); err == nil && hit {
			data = cached
		}
	}
	if data == nil {
		rendered, err := renderOutput(result.Collection, pipeOpts.Materialize(), opts.format)
		if err != nil {
			return err
		}
		data = rendered
		_ = runner.Cache.Set(ctx, artifactKey, data, cache.TTLArtifact)
	}

	if opts.output == "" {
		_, err := os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(opts.output, data, 0644)
}

// renderOutput encodes the collection as bytes in the given format.
func renderOutput(c feature.Collection, m feature.MaterializeOptions, format string) ([]byte, error) {
	var buf bytes.Buffer
	var err error
	switch format {
	case pipeline.FormatPostGIS:
		err = pkgio.WritePostGIS(c, m, &buf)
	default:
		err = pkgio.WriteGeoJSON(c, m, &buf)
	}
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
