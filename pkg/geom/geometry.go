package geom

import "math"

// Type tags the shape held by a Geometry.
type Type string

// Geometry types, matching the GeoJSON vocabulary.
const (
	TypePoint              Type = "Point"
	TypeLineString         Type = "LineString"
	TypePolygon            Type = "Polygon"
	TypeMultiPoint         Type = "MultiPoint"
	TypeMultiLineString    Type = "MultiLineString"
	TypeMultiPolygon       Type = "MultiPolygon"
	TypeGeometryCollection Type = "GeometryCollection"
)

// RingEps is the tolerance used for ring-closure coordinate equality.
const RingEps = 1e-9

// Geometry is the single internal shape from which both output
// representations are derived. Exactly one payload field is populated,
// selected by Type.
type Geometry struct {
	Type Type

	Point    Vec3       // TypePoint
	Line     []Vec3     // TypeLineString
	Rings    [][]Vec3   // TypePolygon: ring 0 is the outer boundary
	Points   []Vec3     // TypeMultiPoint
	Lines    [][]Vec3   // TypeMultiLineString
	Polygons [][][]Vec3 // TypeMultiPolygon

	Geometries []Geometry // TypeGeometryCollection

	// HasZ marks the geometry as three-dimensional for encoders that
	// distinguish 2D from 3D output.
	HasZ bool
}

// NewPoint returns a Point geometry.
func NewPoint(v Vec3) Geometry {
	return Geometry{Type: TypePoint, Point: v}
}

// NewLineString returns a LineString geometry.
func NewLineString(vs []Vec3) Geometry {
	return Geometry{Type: TypeLineString, Line: vs}
}

// NewPolygon returns a Polygon geometry from rings. Rings are closed if
// they are not already.
func NewPolygon(rings [][]Vec3) Geometry {
	closed := make([][]Vec3, len(rings))
	for i, r := range rings {
		closed[i] = CloseRing(r)
	}
	return Geometry{Type: TypePolygon, Rings: closed}
}

// NewMultiPolygon returns a MultiPolygon geometry, closing every ring.
func NewMultiPolygon(polys [][][]Vec3) Geometry {
	out := make([][][]Vec3, len(polys))
	for i, rings := range polys {
		out[i] = make([][]Vec3, len(rings))
		for j, r := range rings {
			out[i][j] = CloseRing(r)
		}
	}
	return Geometry{Type: TypeMultiPolygon, Polygons: out}
}

// NewCollection returns a GeometryCollection.
func NewCollection(gs []Geometry) Geometry {
	return Geometry{Type: TypeGeometryCollection, Geometries: gs}
}

// CloseRing appends the first vertex to the end unless the ring is already
// closed. Rings shorter than 3 vertices are returned unchanged.
func CloseRing(ring []Vec3) []Vec3 {
	if len(ring) < 3 {
		return ring
	}
	if ring[0].Eq(ring[len(ring)-1], RingEps) {
		return ring
	}
	out := make([]Vec3, len(ring), len(ring)+1)
	copy(out, ring)
	return append(out, ring[0])
}

// EachVertex calls fn with a pointer to every coordinate in g, recursing
// into collections. Mutation through the pointer is the transform hook
// used by block expansion and reprojection.
func (g *Geometry) EachVertex(fn func(*Vec3)) {
	switch g.Type {
	case TypePoint:
		fn(&g.Point)
	case TypeLineString:
		for i := range g.Line {
			fn(&g.Line[i])
		}
	case TypePolygon:
		for i := range g.Rings {
			for j := range g.Rings[i] {
				fn(&g.Rings[i][j])
			}
		}
	case TypeMultiPoint:
		for i := range g.Points {
			fn(&g.Points[i])
		}
	case TypeMultiLineString:
		for i := range g.Lines {
			for j := range g.Lines[i] {
				fn(&g.Lines[i][j])
			}
		}
	case TypeMultiPolygon:
		for i := range g.Polygons {
			for j := range g.Polygons[i] {
				for k := range g.Polygons[i][j] {
					fn(&g.Polygons[i][j][k])
				}
			}
		}
	case TypeGeometryCollection:
		for i := range g.Geometries {
			g.Geometries[i].EachVertex(fn)
		}
	}
}

// Transform applies m to every coordinate of g in place.
func (g *Geometry) Transform(m Mat4) {
	g.EachVertex(func(v *Vec3) {
		*v = m.Apply(*v)
	})
}

// Clone returns a deep copy of g.
func (g Geometry) Clone() Geometry {
	out := g
	switch g.Type {
	case TypeLineString:
		out.Line = append([]Vec3(nil), g.Line...)
	case TypePolygon:
		out.Rings = cloneRings(g.Rings)
	case TypeMultiPoint:
		out.Points = append([]Vec3(nil), g.Points...)
	case TypeMultiLineString:
		out.Lines = cloneRings(g.Lines)
	case TypeMultiPolygon:
		out.Polygons = make([][][]Vec3, len(g.Polygons))
		for i, rings := range g.Polygons {
			out.Polygons[i] = cloneRings(rings)
		}
	case TypeGeometryCollection:
		out.Geometries = make([]Geometry, len(g.Geometries))
		for i, sub := range g.Geometries {
			out.Geometries[i] = sub.Clone()
		}
	}
	return out
}

func cloneRings(rings [][]Vec3) [][]Vec3 {
	out := make([][]Vec3, len(rings))
	for i, r := range rings {
		out[i] = append([]Vec3(nil), r...)
	}
	return out
}

// BBox is a 2D bounding box. The zero value is empty; Extend grows it.
type BBox struct {
	MinX float64 `json:"min_x"`
	MinY float64 `json:"min_y"`
	MaxX float64 `json:"max_x"`
	MaxY float64 `json:"max_y"`

	set bool
}

// Extend grows the box to include v.
func (b *BBox) Extend(v Vec3) {
	if !b.set {
		b.MinX, b.MinY, b.MaxX, b.MaxY = v.X, v.Y, v.X, v.Y
		b.set = true
		return
	}
	b.MinX = math.Min(b.MinX, v.X)
	b.MinY = math.Min(b.MinY, v.Y)
	b.MaxX = math.Max(b.MaxX, v.X)
	b.MaxY = math.Max(b.MaxY, v.Y)
}

// ExtendBox grows the box to include another box.
func (b *BBox) ExtendBox(o BBox) {
	if !o.set {
		return
	}
	b.Extend(V2(o.MinX, o.MinY))
	b.Extend(V2(o.MaxX, o.MaxY))
}

// IsEmpty reports whether the box has never been extended.
func (b BBox) IsEmpty() bool {
	return !b.set
}

// Bounds computes the 2D bounding box of g.
func (g *Geometry) Bounds() BBox {
	var b BBox
	g.EachVertex(func(v *Vec3) {
		b.Extend(*v)
	})
	return b
}

// RingArea returns the signed area of a ring via the shoelace formula.
// Positive means counterclockwise orientation. The ring may be open or
// closed; the closing edge is implied.
func RingArea(ring []Vec3) float64 {
	n := len(ring)
	if n < 3 {
		return 0
	}
	var sum float64
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		sum += ring[i].X*ring[j].Y - ring[j].X*ring[i].Y
	}
	return sum / 2
}

// IsClockwise reports whether a ring winds clockwise in the XY plane.
func IsClockwise(ring []Vec3) bool {
	return RingArea(ring) < 0
}
