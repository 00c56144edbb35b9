package geom

import (
	"math"
	"testing"
)

func almostEqual(a, b, eps float64) bool {
	return math.Abs(a-b) <= eps
}

func TestInsertTransformOrder(t *testing.T) {
	// Scale is applied first, then rotation, then translation: the
	// point (1, 0) scaled by 2, rotated 90° and moved to (10, 0) must
	// land at (10, 2).
	m := InsertTransform(V2(10, 0), 90, Vec3{X: 2, Y: 2, Z: 1})
	got := m.Apply(V2(1, 0))

	if !almostEqual(got.X, 10, 1e-9) || !almostEqual(got.Y, 2, 1e-9) {
		t.Errorf("transform produced (%g, %g), want (10, 2)", got.X, got.Y)
	}
}

func TestInsertTransformZeroScaleDefaultsToOne(t *testing.T) {
	m := InsertTransform(Vec3{}, 0, Vec3{})
	got := m.Apply(V2(3, 4))
	if !almostEqual(got.X, 3, 1e-12) || !almostEqual(got.Y, 4, 1e-12) {
		t.Errorf("zero scale should behave as identity, got (%g, %g)", got.X, got.Y)
	}
}

func TestMat4Mul(t *testing.T) {
	// Translation composed after rotation differs from the reverse.
	rot := RotateZ(90)
	trans := Translate(1, 0, 0)

	p := V2(1, 0)
	a := trans.Mul(rot).Apply(p) // rotate then translate
	b := rot.Mul(trans).Apply(p) // translate then rotate

	if !almostEqual(a.X, 1, 1e-9) || !almostEqual(a.Y, 1, 1e-9) {
		t.Errorf("rotate-then-translate got (%g, %g), want (1, 1)", a.X, a.Y)
	}
	if !almostEqual(b.X, 0, 1e-9) || !almostEqual(b.Y, 2, 1e-9) {
		t.Errorf("translate-then-rotate got (%g, %g), want (0, 2)", b.X, b.Y)
	}
}

func TestCloseRing(t *testing.T) {
	open := []Vec3{V2(0, 0), V2(1, 0), V2(1, 1)}
	closed := CloseRing(open)
	if len(closed) != 4 {
		t.Fatalf("expected 4 vertices after closing, got %d", len(closed))
	}
	if !closed[0].Eq(closed[3], RingEps) {
		t.Error("ring not closed")
	}

	// Already closed rings are untouched.
	again := CloseRing(closed)
	if len(again) != len(closed) {
		t.Errorf("closing twice changed length: %d -> %d", len(closed), len(again))
	}

	// Degenerate input passes through.
	short := []Vec3{V2(0, 0), V2(1, 0)}
	if got := CloseRing(short); len(got) != 2 {
		t.Errorf("short ring should pass through, got %d vertices", len(got))
	}
}

func TestRingAreaAndOrientation(t *testing.T) {
	ccw := []Vec3{V2(0, 0), V2(2, 0), V2(2, 2), V2(0, 2), V2(0, 0)}
	if area := RingArea(ccw); !almostEqual(area, 4, 1e-12) {
		t.Errorf("CCW square area = %g, want 4", area)
	}
	if IsClockwise(ccw) {
		t.Error("CCW ring reported clockwise")
	}

	cw := []Vec3{V2(0, 0), V2(0, 2), V2(2, 2), V2(2, 0), V2(0, 0)}
	if area := RingArea(cw); !almostEqual(area, -4, 1e-12) {
		t.Errorf("CW square area = %g, want -4", area)
	}
	if !IsClockwise(cw) {
		t.Error("CW ring not reported clockwise")
	}
}

func TestBBox(t *testing.T) {
	var b BBox
	if !b.IsEmpty() {
		t.Error("zero box should be empty")
	}
	b.Extend(V2(1, 2))
	b.Extend(V2(-3, 5))
	if b.MinX != -3 || b.MaxX != 1 || b.MinY != 2 || b.MaxY != 5 {
		t.Errorf("unexpected bounds: %+v", b)
	}

	var other BBox
	other.Extend(V2(10, 10))
	b.ExtendBox(other)
	if b.MaxX != 10 || b.MaxY != 10 {
		t.Errorf("ExtendBox failed: %+v", b)
	}
}

func TestGeometryTransformAndClone(t *testing.T) {
	line := NewLineString([]Vec3{V2(0, 0), V2(1, 0)})
	clone := line.Clone()

	line.Transform(Translate(5, 5, 0))
	if !line.Line[0].Eq(V2(5, 5), 1e-12) {
		t.Errorf("transform missed: %+v", line.Line[0])
	}
	if !clone.Line[0].Eq(V2(0, 0), 1e-12) {
		t.Error("clone shares storage with original")
	}
}

func TestGeometryBounds(t *testing.T) {
	g := NewCollection([]Geometry{
		NewPoint(V2(1, 1)),
		NewLineString([]Vec3{V2(-2, 0), V2(4, 3)}),
	})
	b := g.Bounds()
	if b.MinX != -2 || b.MaxX != 4 || b.MinY != 0 || b.MaxY != 3 {
		t.Errorf("unexpected bounds: %+v", b)
	}
}

func TestWKT(t *testing.T) {
	tests := []struct {
		name string
		g    Geometry
		want string
	}{
		{"point", NewPoint(V2(1, 2)), "POINT (1 2)"},
		{"line", NewLineString([]Vec3{V2(0, 0), V2(1, 1)}), "LINESTRING (0 0, 1 1)"},
		{
			"polygon",
			NewPolygon([][]Vec3{{V2(0, 0), V2(1, 0), V2(1, 1)}}),
			"POLYGON ((0 0, 1 0, 1 1, 0 0))",
		},
		{
			"point z",
			Geometry{Type: TypePoint, Point: Vec3{X: 1, Y: 2, Z: 3}, HasZ: true},
			"POINT Z (1 2 3)",
		},
	}
	for _, tt := range tests {
		if got := tt.g.WKT(); got != tt.want {
			t.Errorf("%s: WKT = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestGeoJSON(t *testing.T) {
	p := NewPoint(V2(1, 2)).GeoJSON()
	if p.Type != "Point" {
		t.Errorf("type = %q", p.Type)
	}
	coords, ok := p.Coordinates.([]float64)
	if !ok || len(coords) != 2 || coords[0] != 1 || coords[1] != 2 {
		t.Errorf("coordinates = %#v", p.Coordinates)
	}

	// A collection carries nested geometries, no coordinates.
	c := NewCollection([]Geometry{NewPoint(V2(0, 0))}).GeoJSON()
	if c.Type != "GeometryCollection" || len(c.Geometries) != 1 {
		t.Errorf("collection encoding wrong: %+v", c)
	}
}
