package convert

import (
	"math"

	"github.com/geofold/dxfgeo/pkg/dxf"
	"github.com/geofold/dxfgeo/pkg/geom"
)

// minRingArea rejects rings whose projected area collapses to nothing.
const minRingArea = 1e-9

func convertSolid(e dxf.Entity, opts Options) (Output, error) {
	s := e.(*dxf.Solid)
	return cornerPolygon(s, s.Corners, s.HasFourth)
}

func convertFace3D(e dxf.Entity, opts Options) (Output, error) {
	f := e.(*dxf.Face3D)
	return cornerPolygon(f, f.Corners, f.HasFourth)
}

// cornerPolygon builds a 4-point ring from SOLID/3DFACE corners.
// Triangular input duplicates the last vertex. The third and fourth DXF
// corners arrive in zigzag order, so they are swapped to avoid a bowtie
// ring. Near-zero projected area is rejected.
func cornerPolygon(e dxf.Entity, corners [4]geom.Vec3, hasFourth bool) (Output, error) {
	var ring []geom.Vec3
	if hasFourth && !corners[3].Eq(corners[2], geom.RingEps) {
		ring = []geom.Vec3{corners[0], corners[1], corners[3], corners[2]}
	} else {
		ring = []geom.Vec3{corners[0], corners[1], corners[2], corners[2]}
	}

	if math.Abs(geom.RingArea(ring)) < minRingArea {
		return Output{}, invalid(e, "projected area is degenerate")
	}
	return Output{Geometry: geom.NewPolygon([][]geom.Vec3{ring})}, nil
}

// convertHatch tessellates each boundary path into a ring and emits the
// set as a MultiPolygon. Boundaries reuse the same interpolation rules as
// the standalone entities.
func convertHatch(e dxf.Entity, opts Options) (Output, error) {
	h := e.(*dxf.Hatch)
	if len(h.Boundaries) == 0 {
		return Output{}, invalid(h, "no boundary paths")
	}

	segments := opts.segments()
	var polys [][][]geom.Vec3
	for _, b := range h.Boundaries {
		ring := boundaryRing(b, segments)
		if len(ring) < 3 {
			continue
		}
		polys = append(polys, [][]geom.Vec3{ring})
	}
	if len(polys) == 0 {
		return Output{}, invalid(h, "no boundary produced a usable ring")
	}

	props := map[string]any{"pattern": h.PatternName, "solid": h.Solid}
	return Output{Geometry: geom.NewMultiPolygon(polys), Properties: props}, nil
}

func boundaryRing(b dxf.HatchBoundary, segments int) []geom.Vec3 {
	if len(b.Vertices) > 0 {
		return tessellateVertices(b.Vertices, true, segments)
	}

	var ring []geom.Vec3
	for _, edge := range b.Edges {
		pts := edgePoints(edge, segments)
		// Drop the junction point shared with the previous edge.
		if len(ring) > 0 && len(pts) > 0 && ring[len(ring)-1].Eq(pts[0], 1e-6) {
			pts = pts[1:]
		}
		ring = append(ring, pts...)
	}
	return ring
}

func edgePoints(edge dxf.HatchEdge, segments int) []geom.Vec3 {
	switch edge.Type {
	case 1:
		return []geom.Vec3{edge.Start, edge.End}
	case 2:
		pts := arcPoints(edge.Center, edge.Radius, edge.StartAngle, edge.EndAngle, segments)
		if !edge.CCW {
			reversePoints(pts)
		}
		return pts
	case 3:
		start := edge.StartAngle * math.Pi / 180
		end := edge.EndAngle * math.Pi / 180
		pts := ellipsePoints(edge.Center, edge.MajorAxis, edge.Ratio, start, end, segments)
		if !edge.CCW {
			reversePoints(pts)
		}
		return pts
	case 4:
		if len(edge.ControlPoints) > edge.Degree && len(edge.Knots) == len(edge.ControlPoints)+edge.Degree+1 {
			return evaluateNURBS(edge.ControlPoints, edge.Knots, edge.Weights, edge.Degree, segments)
		}
		return append([]geom.Vec3(nil), edge.ControlPoints...)
	default:
		return nil
	}
}

func reversePoints(pts []geom.Vec3) {
	for i, j := 0, len(pts)-1; i < j; i, j = i+1, j-1 {
		pts[i], pts[j] = pts[j], pts[i]
	}
}
