package cli

import (
	"sort"

	"github.com/spf13/cobra"

	"github.com/geofold/dxfgeo/pkg/cache"
	"github.com/geofold/dxfgeo/pkg/crs"
	"github.com/geofold/dxfgeo/pkg/pipeline"
)

// newInspectCmd creates the inspect command, which parses a drawing and
// reports its structure without converting anything.
func newInspectCmd() *cobra.Command {
	var refresh, noCache bool

	cmd := &cobra.Command{
		Use:   "inspect <drawing.dxf>",
		Short: "Parse a DXF drawing and report its structure",
		Long: `Parse a DXF drawing and print its header variables, layer table,
block inventory, and entity counts. Nothing is converted; this is the
fast way to see what a conversion run would work with.

Summaries are cached by content hash, so inspecting an unchanged
drawing again is instant.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)

			store := cache.NewNullCache()
			if !noCache {
				if dir, err := cacheDir(); err == nil {
					if fc, err := cache.NewFileCache(dir); err == nil {
						store = fc
					}
				}
			}
			defer store.Close()

			runner := pipeline.NewRunner(store, nil, logger)
			p := newProgress(logger)
			summary, err := runner.Inspect(ctx, pipeline.Options{Path: args[0], Refresh: refresh})
			if err != nil {
				return err
			}
			p.done("Inspected drawing")

			printHeader(summary)
			printSRID(summary)
			printLayers(summary)
			printEntities(summary)
			return nil
		},
	}

	cmd.Flags().BoolVar(&refresh, "refresh", false, "re-parse even if a cached summary exists")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the summary cache")

	return cmd
}

func printHeader(s *pipeline.DocumentSummary) {
	printInfo("Header")
	if s.CodePage != "" {
		printDetail("Codepage: %s", s.CodePage)
	}
	if s.Units != 0 {
		printDetail("Units: %d", s.Units)
	}
	if s.HasExtents {
		printDetail("Extents: (%g, %g) .. (%g, %g)",
			s.ExtMin.X, s.ExtMin.Y, s.ExtMax.X, s.ExtMax.Y)
	}
}

// printSRID reports what the SRID determination would decide from the
// header alone. Without declared extents the bbox heuristic has nothing
// to work with until conversion, so the answer is the fallback.
func printSRID(s *pipeline.DocumentSummary) {
	var hints crs.Hints
	if s.HasExtents {
		hints.Bounds.Extend(s.ExtMin)
		hints.Bounds.Extend(s.ExtMax)
	}
	det := crs.Determine(hints)
	printInfo("Detected SRID")
	printDetail("EPSG:%d (%s)", det.SRID, det.Source)
}

func printLayers(s *pipeline.DocumentSummary) {
	printInfo("Layers (%d)", len(s.Layers))
	for _, layer := range s.Layers {
		state := ""
		switch {
		case layer.Frozen:
			state = " [frozen]"
		case layer.Off:
			state = " [off]"
		case layer.Locked:
			state = " [locked]"
		}
		printDetail("%s%s", layer.Name, state)
	}
}

func printEntities(s *pipeline.DocumentSummary) {
	kinds := make([]string, 0, len(s.EntityCounts))
	for k := range s.EntityCounts {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)

	printInfo("Entities (%d)", s.EntityCount)
	for _, k := range kinds {
		printDetail("%s: %d", k, s.EntityCounts[k])
	}
	printInfo("Blocks (%d)", s.BlockCount)
	if s.SkippedEntities > 0 {
		printInfo("Skipped malformed entities: %d", s.SkippedEntities)
	}
	if len(s.UnknownKinds) > 0 {
		names := make([]string, 0, len(s.UnknownKinds))
		for name := range s.UnknownKinds {
			names = append(names, name)
		}
		sort.Strings(names)
		printInfo("Unsupported entity types")
		for _, name := range names {
			printDetail("%s: %d", name, s.UnknownKinds[name])
		}
	}
}
