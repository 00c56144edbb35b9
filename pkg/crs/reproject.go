package crs

import (
	"io"

	"github.com/charmbracelet/log"

	"github.com/geofold/dxfgeo/pkg/errors"
	"github.com/geofold/dxfgeo/pkg/geom"
)

// Bern reference point in LV95, used as the anchor for placeholder
// geometry when a feature cannot be reprojected.
const (
	bernEast  = 2600000.0
	bernNorth = 1200000.0

	// placeholderSize is the edge length of the placeholder square in
	// source-grid meters.
	placeholderSize = 1.0
)

// Reprojector transforms geometry between two spatial reference
// systems, routing through WGS84 as the hub. A Reprojector is immutable
// and safe for concurrent use.
type Reprojector struct {
	from, to Projection
	logger   *log.Logger
}

// NewReprojector builds a transform from one SRID to another. Both ends
// must be supported systems.
func NewReprojector(fromSRID, toSRID int, logger *log.Logger) (*Reprojector, error) {
	from := ForEPSG(fromSRID)
	if from == nil {
		return nil, errors.New(errors.ErrCodeInvalidSRID, "unsupported source SRID %d", fromSRID)
	}
	to := ForEPSG(toSRID)
	if to == nil {
		return nil, errors.New(errors.ErrCodeInvalidSRID, "unsupported target SRID %d", toSRID)
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Reprojector{from: from, to: to, logger: logger}, nil
}

// Identity reports whether source and target are the same system.
func (r *Reprojector) Identity() bool {
	return r.from.EPSG() == r.to.EPSG()
}

// SourceSRID returns the source EPSG code.
func (r *Reprojector) SourceSRID() int { return r.from.EPSG() }

// TargetSRID returns the target EPSG code.
func (r *Reprojector) TargetSRID() int { return r.to.EPSG() }

// Point transforms a single coordinate. Z passes through unchanged.
// Non-finite results are reported as coordinate-transform errors rather
// than leaking NaN into downstream geometry.
func (r *Reprojector) Point(v geom.Vec3) (geom.Vec3, error) {
	if r.Identity() {
		return v, nil
	}
	lon, lat := r.from.ToWGS84(v.X, v.Y)
	x, y := r.to.FromWGS84(lon, lat)
	if !finite(x) || !finite(y) {
		return geom.Vec3{}, errors.New(errors.ErrCodeCoordinateTransform,
			"coordinate (%g, %g) does not transform from EPSG:%d to EPSG:%d",
			v.X, v.Y, r.from.EPSG(), r.to.EPSG())
	}
	return geom.Vec3{X: x, Y: y, Z: v.Z}, nil
}

// Geometry transforms every vertex in place. On the first failing
// vertex the geometry is left partially transformed and the error is
// returned; callers that need all-or-nothing semantics should pass a
// clone (Apply does).
func (r *Reprojector) Geometry(g *geom.Geometry) error {
	if r.Identity() {
		return nil
	}
	var firstErr error
	g.EachVertex(func(v *geom.Vec3) {
		if firstErr != nil {
			return
		}
		out, err := r.Point(*v)
		if err != nil {
			firstErr = err
			return
		}
		*v = out
	})
	return firstErr
}

// Apply reprojects a copy of the geometry. When any vertex fails, the
// result is the deterministic placeholder square instead, and the error
// is returned alongside so the caller can record a warning. The
// placeholder is never an error by itself: a failed feature stays in
// the output, visibly parked near the Bern reference point.
func (r *Reprojector) Apply(g geom.Geometry) (geom.Geometry, error) {
	out := g.Clone()
	if err := r.Geometry(&out); err != nil {
		r.logger.Warn("reprojection failed, substituting placeholder",
			"from", r.from.EPSG(), "to", r.to.EPSG(), "err", err)
		return r.Placeholder(), err
	}
	return out, nil
}

// Placeholder returns a 1 m square anchored at the Bern reference
// point, expressed in the target system. Every failed feature collapses
// to the same square, which makes the failure mode easy to spot on a
// map and trivially deterministic in tests.
func (r *Reprojector) Placeholder() geom.Geometry {
	lv95 := ForEPSG(SRIDLV95)
	ring := make([]geom.Vec3, 0, 5)
	for _, d := range [][2]float64{{0, 0}, {placeholderSize, 0}, {placeholderSize, placeholderSize}, {0, placeholderSize}, {0, 0}} {
		lon, lat := lv95.ToWGS84(bernEast+d[0], bernNorth+d[1])
		x, y := r.to.FromWGS84(lon, lat)
		ring = append(ring, geom.V2(x, y))
	}
	return geom.NewPolygon([][]geom.Vec3{ring})
}

func finite(f float64) bool {
	// NaN fails both comparisons; infinities fail one.
	return f == f && f-f == 0
}
