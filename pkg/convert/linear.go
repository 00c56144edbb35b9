package convert

import (
	"math"

	"github.com/geofold/dxfgeo/pkg/dxf"
	"github.com/geofold/dxfgeo/pkg/geom"
)

func convertPoint(e dxf.Entity, opts Options) (Output, error) {
	p := e.(*dxf.Point)
	g := geom.NewPoint(p.Position)
	g.HasZ = p.HasZ
	return Output{Geometry: g}, nil
}

func convertLine(e dxf.Entity, opts Options) (Output, error) {
	l := e.(*dxf.Line)
	if l.Start.Eq(l.End, geom.RingEps) {
		return Output{}, invalid(l, "start and end coincide")
	}
	g := geom.NewLineString([]geom.Vec3{l.Start, l.End})
	g.HasZ = l.HasZ
	return Output{Geometry: g}, nil
}

// convertPolyline emits a LineString, or a Polygon when the closed flag
// is set. Vertices with bulge values expand their following segment into
// a circular arc.
func convertPolyline(e dxf.Entity, opts Options) (Output, error) {
	p := e.(*dxf.Polyline)
	if len(p.Vertices) < 2 {
		return Output{}, invalid(p, "needs at least 2 vertices, got %d", len(p.Vertices))
	}

	pts := tessellateVertices(p.Vertices, p.Closed, opts.segments())

	hasZ := false
	for _, v := range p.Vertices {
		if v.HasZ {
			hasZ = true
			break
		}
	}

	if p.Closed {
		if len(pts) < 3 {
			return Output{}, invalid(p, "closed polyline needs at least 3 distinct vertices")
		}
		g := geom.NewPolygon([][]geom.Vec3{pts})
		g.HasZ = hasZ
		return Output{Geometry: g}, nil
	}

	g := geom.NewLineString(pts)
	g.HasZ = hasZ
	return Output{Geometry: g}, nil
}

// tessellateVertices expands a vertex run into plain coordinates,
// replacing bulged segments with sampled arcs. For closed polylines the
// final vertex's bulge curves the closing edge.
func tessellateVertices(verts []dxf.Vertex, closed bool, segments int) []geom.Vec3 {
	out := make([]geom.Vec3, 0, len(verts))
	n := len(verts)
	for i := 0; i < n; i++ {
		v := verts[i]
		out = append(out, v.Vec3)

		if v.Bulge == 0 {
			continue
		}
		var next geom.Vec3
		if i+1 < n {
			next = verts[i+1].Vec3
		} else if closed {
			next = verts[0].Vec3
		} else {
			continue // trailing bulge on an open polyline has no segment
		}
		arc := bulgeArc(v.Vec3, next, v.Bulge, segments)
		out = append(out, arc...)
	}
	return out
}

// bulgeArc samples the interior points of the arc a bulge value defines
// between p1 and p2. Bulge is tan(θ/4) of the included angle; negative
// values bow clockwise.
func bulgeArc(p1, p2 geom.Vec3, bulge float64, segments int) []geom.Vec3 {
	theta := 4 * math.Atan(bulge)
	chord := p1.Dist2D(p2)
	if chord < geom.RingEps || theta == 0 {
		return nil
	}

	radius := chord / (2 * math.Abs(math.Sin(theta/2)))

	// A positive bulge sweeps counterclockwise, so its apex falls on the
	// right of the travel direction (bowing outward on CCW rings). The
	// apex sits bulge*chord/2 off the chord midpoint and the center one
	// radius beyond it on the same normal.
	nx := -(p2.Y - p1.Y) / chord
	ny := (p2.X - p1.X) / chord
	h := math.Copysign(radius, bulge) - bulge*chord/2
	mid := geom.V2((p1.X+p2.X)/2, (p1.Y+p2.Y)/2)
	center := geom.V2(mid.X+nx*h, mid.Y+ny*h)

	startAngle := math.Atan2(p1.Y-center.Y, p1.X-center.X)

	steps := int(math.Ceil(math.Abs(theta) / (2 * math.Pi) * float64(segments)))
	if steps < 2 {
		steps = 2
	}

	pts := make([]geom.Vec3, 0, steps-1)
	for i := 1; i < steps; i++ {
		a := startAngle + theta*float64(i)/float64(steps)
		pts = append(pts, geom.Vec3{
			X: center.X + radius*math.Cos(a),
			Y: center.Y + radius*math.Sin(a),
			Z: p1.Z,
		})
	}
	return pts
}
