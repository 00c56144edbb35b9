package dxf

import "github.com/geofold/dxfgeo/pkg/geom"

// Kind names a DXF entity type as it appears after a 0 group code.
type Kind string

// Entity kinds recognized by the structural parser.
const (
	KindPoint      Kind = "POINT"
	KindLine       Kind = "LINE"
	KindPolyline   Kind = "POLYLINE"
	KindLWPolyline Kind = "LWPOLYLINE"
	KindCircle     Kind = "CIRCLE"
	KindArc        Kind = "ARC"
	KindEllipse    Kind = "ELLIPSE"
	KindSpline     Kind = "SPLINE"
	KindInsert     Kind = "INSERT"
	KindText       Kind = "TEXT"
	KindMText      Kind = "MTEXT"
	KindDimension  Kind = "DIMENSION"
	KindHatch      Kind = "HATCH"
	KindSolid      Kind = "SOLID"
	KindFace3D     Kind = "3DFACE"
)

// Entity is the tagged union over all parsed entity kinds. Concrete types
// embed Common and are immutable once assembled; converters dispatch on
// the concrete type.
type Entity interface {
	Kind() Kind
	Attrs() *Common
}

// Common holds the attributes shared by every entity kind.
type Common struct {
	Layer      string // group code 8
	Color      int    // group code 62 (0 = ByBlock, 256 = ByLayer)
	LineType   string // group code 6
	LineWeight int    // group code 370, hundredths of a millimetre
	Handle     string // group code 5
}

// Attrs returns the shared attribute block. Embedding promotes the
// method to every entity type.
func (c *Common) Attrs() *Common { return c }

func (c *Common) applyTag(t Tag) bool {
	switch t.Code {
	case 5:
		c.Handle = t.Text()
	case 6:
		c.LineType = t.Text()
	case 8:
		c.Layer = t.Text()
	case 62:
		c.Color = t.Int()
	case 370:
		c.LineWeight = t.Int()
	default:
		return false
	}
	return true
}

// Point is a single coordinate marker.
type Point struct {
	Common
	Position geom.Vec3
	HasZ     bool
}

func (*Point) Kind() Kind { return KindPoint }

// Line is a straight segment between two coordinates.
type Line struct {
	Common
	Start geom.Vec3
	End   geom.Vec3
	HasZ  bool
}

func (*Line) Kind() Kind { return KindLine }

// Vertex is one polyline vertex. Bulge curves the following segment into
// an arc; zero means straight.
type Vertex struct {
	geom.Vec3
	Bulge float64
	HasZ  bool
}

// Polyline covers both POLYLINE and LWPOLYLINE records.
type Polyline struct {
	Common
	Vertices []Vertex
	Closed   bool // group code 70 bit 1

	// DeclaredCount is the advertised vertex count from group code 90.
	// It is a hint only and never enforced.
	DeclaredCount int

	// Lightweight distinguishes LWPOLYLINE from heavy POLYLINE records
	// for statistics; both convert identically.
	Lightweight bool
}

func (p *Polyline) Kind() Kind {
	if p.Lightweight {
		return KindLWPolyline
	}
	return KindPolyline
}

// Circle is a full circle.
type Circle struct {
	Common
	Center geom.Vec3
	Radius float64
}

func (*Circle) Kind() Kind { return KindCircle }

// Arc is a circular arc. Angles are in degrees, counterclockwise from the
// positive X axis.
type Arc struct {
	Common
	Center     geom.Vec3
	Radius     float64
	StartAngle float64
	EndAngle   float64
}

func (*Arc) Kind() Kind { return KindArc }

// Ellipse is a full or partial ellipse. MajorAxis is the endpoint of the
// major axis relative to the center; Ratio scales the minor axis.
type Ellipse struct {
	Common
	Center     geom.Vec3
	MajorAxis  geom.Vec3
	Ratio      float64
	StartParam float64 // radians, 0 for a full ellipse
	EndParam   float64 // radians, 2π for a full ellipse
}

func (*Ellipse) Kind() Kind { return KindEllipse }

// Spline is a NURBS curve definition.
type Spline struct {
	Common
	Degree        int
	Closed        bool // group code 70 bit 1
	ControlPoints []geom.Vec3
	FitPoints     []geom.Vec3
	Knots         []float64
	Weights       []float64
}

func (*Spline) Kind() Kind { return KindSpline }

// Insert references a named block at a position with optional rotation,
// non-uniform scale and grid replication.
type Insert struct {
	Common
	BlockName     string
	Insertion     geom.Vec3
	Scale         geom.Vec3 // zero component = unset, treated as 1
	Rotation      float64   // degrees about Z
	ColumnCount   int
	RowCount      int
	ColumnSpacing float64
	RowSpacing    float64
}

func (*Insert) Kind() Kind { return KindInsert }

// Text is a single-line TEXT record.
type Text struct {
	Common
	Position geom.Vec3
	Height   float64
	Rotation float64
	Style    string
	Value    string
}

func (*Text) Kind() Kind { return KindText }

// MText is a multi-line MTEXT record. Value keeps the raw inline
// formatting codes; conversion strips them.
type MText struct {
	Common
	Position geom.Vec3
	Height   float64
	Width    float64
	Style    string
	Value    string
}

func (*MText) Kind() Kind { return KindMText }

// Dimension is a dimension annotation with its defining points.
type Dimension struct {
	Common
	DimType      int     // group code 70, low 3 bits
	StyleName    string  // group code 3
	Measurement  float64 // group code 42, actual measured value
	TextOverride string  // group code 1
	Angle        float64 // group code 50, dimension line angle in degrees
	DefPoint     geom.Vec3
	TextMid      geom.Vec3
	MeasureStart geom.Vec3 // group codes 13/23/33
	MeasureEnd   geom.Vec3 // group codes 14/24/34
}

func (*Dimension) Kind() Kind { return KindDimension }

// HatchEdge is a single non-polyline boundary edge of a hatch path.
type HatchEdge struct {
	Type int // 1 line, 2 circular arc, 3 elliptic arc, 4 spline

	// Line
	Start geom.Vec3
	End   geom.Vec3

	// Circular and elliptic arcs
	Center     geom.Vec3
	Radius     float64
	StartAngle float64 // degrees
	EndAngle   float64 // degrees
	CCW        bool

	// Elliptic arc
	MajorAxis geom.Vec3 // endpoint relative to center
	Ratio     float64

	// Spline
	Degree        int
	ControlPoints []geom.Vec3
	Knots         []float64
	Weights       []float64
}

// HatchBoundary is one closed boundary path of a hatch. Either Vertices
// (polyline path) or Edges is populated.
type HatchBoundary struct {
	Vertices []Vertex
	Closed   bool
	Edges    []HatchEdge
}

// Hatch is a filled area bounded by one or more paths.
type Hatch struct {
	Common
	PatternName string
	Solid       bool
	Boundaries  []HatchBoundary
}

func (*Hatch) Kind() Kind { return KindHatch }

// Solid is a filled triangle or quadrilateral. The third and fourth
// corners repeat when only three are present.
type Solid struct {
	Common
	Corners   [4]geom.Vec3
	HasFourth bool
}

func (*Solid) Kind() Kind { return KindSolid }

// Face3D is a 3D face with three or four corners.
type Face3D struct {
	Common
	Corners   [4]geom.Vec3
	HasFourth bool
}

func (*Face3D) Kind() Kind { return KindFace3D }

// Block is a named group of entities instanced via INSERT.
type Block struct {
	Name     string
	Base     geom.Vec3
	Entities []Entity
}

// Every concrete entity type satisfies Entity.
var (
	_ Entity = (*Point)(nil)
	_ Entity = (*Line)(nil)
	_ Entity = (*Polyline)(nil)
	_ Entity = (*Circle)(nil)
	_ Entity = (*Arc)(nil)
	_ Entity = (*Ellipse)(nil)
	_ Entity = (*Spline)(nil)
	_ Entity = (*Insert)(nil)
	_ Entity = (*Text)(nil)
	_ Entity = (*MText)(nil)
	_ Entity = (*Dimension)(nil)
	_ Entity = (*Hatch)(nil)
	_ Entity = (*Solid)(nil)
	_ Entity = (*Face3D)(nil)
)
