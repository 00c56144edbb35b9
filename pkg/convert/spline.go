package convert

import (
	"github.com/geofold/dxfgeo/pkg/dxf"
	"github.com/geofold/dxfgeo/pkg/geom"
)

// convertSpline emits a LineString for a SPLINE entity.
//
// When the record carries a knot vector it is evaluated as a NURBS curve
// via Cox–de Boor basis recursion, with weights defaulting to 1. Records
// without knots fall back to linear interpolation through fit points, or
// through raw control points as a last resort.
func convertSpline(e dxf.Entity, opts Options) (Output, error) {
	s := e.(*dxf.Spline)

	segments := opts.segments()

	if len(s.ControlPoints) > s.Degree && len(s.Knots) == len(s.ControlPoints)+s.Degree+1 {
		pts := evaluateNURBS(s.ControlPoints, s.Knots, s.Weights, s.Degree, segments)
		if len(pts) >= 2 {
			return Output{Geometry: geom.NewLineString(pts)}, nil
		}
	}

	if len(s.FitPoints) >= 2 {
		return Output{Geometry: geom.NewLineString(append([]geom.Vec3(nil), s.FitPoints...))}, nil
	}
	if len(s.ControlPoints) >= 2 {
		return Output{Geometry: geom.NewLineString(append([]geom.Vec3(nil), s.ControlPoints...))}, nil
	}

	return Output{}, invalid(s, "no usable control or fit points")
}

// evaluateNURBS samples a rational B-spline curve at evenly spaced
// parameters across its valid knot span [knots[degree], knots[n+1]).
func evaluateNURBS(control []geom.Vec3, knots, weights []float64, degree, segments int) []geom.Vec3 {
	n := len(control)
	if n == 0 || degree < 1 || len(knots) != n+degree+1 {
		return nil
	}
	if len(weights) != n {
		weights = make([]float64, n)
		for i := range weights {
			weights[i] = 1
		}
	}

	uMin := knots[degree]
	uMax := knots[n]
	if uMax <= uMin {
		return nil
	}

	steps := segments
	if steps < n {
		steps = n
	}

	pts := make([]geom.Vec3, 0, steps+1)
	for i := 0; i <= steps; i++ {
		u := uMin + (uMax-uMin)*float64(i)/float64(steps)
		if i == steps {
			// The basis is right-open; clamp the final sample just inside.
			u = uMax - (uMax-uMin)*1e-10
		}

		var x, y, z, w float64
		for j := 0; j < n; j++ {
			basis := coxDeBoor(u, j, degree, knots)
			if basis == 0 {
				continue
			}
			wb := basis * weights[j]
			x += wb * control[j].X
			y += wb * control[j].Y
			z += wb * control[j].Z
			w += wb
		}
		if w == 0 {
			continue
		}
		pts = append(pts, geom.V3(x/w, y/w, z/w))
	}
	return pts
}

// coxDeBoor computes the B-spline basis function N_{i,p}(u) recursively.
func coxDeBoor(u float64, i, p int, knots []float64) float64 {
	if p == 0 {
		if knots[i] <= u && u < knots[i+1] {
			return 1
		}
		return 0
	}

	var left, right float64
	if d := knots[i+p] - knots[i]; d > 0 {
		left = (u - knots[i]) / d * coxDeBoor(u, i, p-1, knots)
	}
	if d := knots[i+p+1] - knots[i+1]; d > 0 {
		right = (knots[i+p+1] - u) / d * coxDeBoor(u, i+1, p-1, knots)
	}
	return left + right
}
