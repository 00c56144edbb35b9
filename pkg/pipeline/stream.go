package pipeline

import (
	"context"
	"iter"

	"github.com/geofold/dxfgeo/pkg/crs"
	"github.com/geofold/dxfgeo/pkg/errors"
	"github.com/geofold/dxfgeo/pkg/feature"
)

// Features returns a lazy feature stream. Entities are converted and
// reprojected one at a time as the consumer pulls, so abandoning the
// stream early skips the remaining work. The sequence is restartable:
// each range re-runs the pipeline from the parsed document.
//
// A non-nil error alongside a feature reports a placeholder
// substitution and the stream continues. A nil feature with an error is
// fatal (resource limit, unusable options) and ends the stream.
func (r *Runner) Features(ctx context.Context, opts Options) iter.Seq2[*feature.Feature, error] {
	return func(yield func(*feature.Feature, error) bool) {
		if err := opts.ValidateAndSetDefaults(); err != nil {
			yield(nil, errors.Wrap(errors.ErrCodeInvalidOptions, err, "invalid options"))
			return
		}
		r.applyLogger(&opts)

		doc, err := r.Parse(ctx, opts)
		if err != nil {
			yield(nil, err)
			return
		}

		// Conversion feeds the SRID heuristic, so the source system is
		// pinned before anything streams out.
		stats := feature.NewStats()
		staged, err := r.convertEntities(doc, opts, stats)
		if err != nil {
			yield(nil, err)
			return
		}
		det := r.determineSRID(doc, staged, opts)
		rp, err := crs.NewReprojector(det.SRID, opts.TargetSRID, opts.Logger)
		if err != nil {
			yield(nil, err)
			return
		}

		for i := range staged {
			if ctx.Err() != nil {
				yield(nil, errors.Wrap(errors.ErrCodeInternal, ctx.Err(), "stream canceled"))
				return
			}
			f := staged[i]
			g, err := rp.Apply(f.Geometry)
			if err != nil {
				f.Placeholder = true
			}
			f.Geometry = g
			f.SRID = opts.TargetSRID
			if !yield(&f, err) {
				return
			}
		}
	}
}
