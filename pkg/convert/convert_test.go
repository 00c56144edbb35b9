package convert

import (
	"math"
	"testing"

	"github.com/geofold/dxfgeo/pkg/dxf"
	"github.com/geofold/dxfgeo/pkg/errors"
	"github.com/geofold/dxfgeo/pkg/geom"
)

func newTestRegistry() *Registry {
	return NewRegistry(Options{})
}

func TestConvertCircleRadiusProperty(t *testing.T) {
	r := newTestRegistry()
	out, err := r.Convert(&dxf.Circle{Center: geom.V2(10, 20), Radius: 5})
	if err != nil {
		t.Fatalf("Convert error: %v", err)
	}
	if out.Geometry.Type != geom.TypePolygon {
		t.Fatalf("type = %s", out.Geometry.Type)
	}

	ring := out.Geometry.Rings[0]
	if len(ring) != DefaultCircleSegments+1 {
		t.Errorf("ring length = %d, want %d", len(ring), DefaultCircleSegments+1)
	}
	for i, v := range ring {
		d := math.Hypot(v.X-10, v.Y-20)
		if math.Abs(d-5) > 1e-9 {
			t.Fatalf("vertex %d at distance %g from center, want 5", i, d)
		}
	}
}

func TestConvertCircleRejectsNonPositiveRadius(t *testing.T) {
	r := newTestRegistry()
	_, err := r.Convert(&dxf.Circle{Radius: 0})
	if !errors.Is(err, errors.ErrCodeValidation) {
		t.Errorf("error = %v, want VALIDATION", err)
	}
}

func TestConvertArcQuarterTurn(t *testing.T) {
	r := newTestRegistry()
	out, err := r.Convert(&dxf.Arc{Center: geom.V2(0, 0), Radius: 1, StartAngle: 0, EndAngle: 90})
	if err != nil {
		t.Fatalf("Convert error: %v", err)
	}
	pts := out.Geometry.Line

	first, last := pts[0], pts[len(pts)-1]
	if math.Abs(first.X-1) > 1e-9 || math.Abs(first.Y) > 1e-9 {
		t.Errorf("start = (%g, %g), want (1, 0)", first.X, first.Y)
	}
	if math.Abs(last.X) > 1e-9 || math.Abs(last.Y-1) > 1e-9 {
		t.Errorf("end = (%g, %g), want (0, 1)", last.X, last.Y)
	}

	// Angles increase monotonically along the sampled arc.
	prev := math.Atan2(pts[0].Y, pts[0].X)
	for _, p := range pts[1:] {
		a := math.Atan2(p.Y, p.X)
		if a <= prev {
			t.Fatalf("angle not monotone: %g after %g", a, prev)
		}
		prev = a
	}
}

func TestConvertArcCrossingZero(t *testing.T) {
	// 350° to 10° sweeps 20° through zero, not 340° backwards.
	r := newTestRegistry()
	out, err := r.Convert(&dxf.Arc{Radius: 1, StartAngle: 350, EndAngle: 10})
	if err != nil {
		t.Fatalf("Convert error: %v", err)
	}
	pts := out.Geometry.Line
	last := pts[len(pts)-1]
	want := geom.V2(math.Cos(10*math.Pi/180), math.Sin(10*math.Pi/180))
	if !last.Eq(want, 1e-9) {
		t.Errorf("end = (%g, %g), want (%g, %g)", last.X, last.Y, want.X, want.Y)
	}
	// A 20° sweep needs only a handful of samples.
	if len(pts) > 8 {
		t.Errorf("short arc oversampled: %d points", len(pts))
	}
}

func TestConvertPolylineClosedBecomesPolygon(t *testing.T) {
	r := newTestRegistry()
	p := &dxf.Polyline{
		Closed: true,
		Vertices: []dxf.Vertex{
			{Vec3: geom.V2(0, 0)},
			{Vec3: geom.V2(4, 0)},
			{Vec3: geom.V2(4, 4)},
		},
	}
	out, err := r.Convert(p)
	if err != nil {
		t.Fatalf("Convert error: %v", err)
	}
	if out.Geometry.Type != geom.TypePolygon {
		t.Fatalf("type = %s, want Polygon", out.Geometry.Type)
	}
	ring := out.Geometry.Rings[0]
	if !ring[0].Eq(ring[len(ring)-1], geom.RingEps) {
		t.Error("polygon ring not closed")
	}
}

func TestConvertPolylineBulgeSemicircle(t *testing.T) {
	// Bulge 1 is a counterclockwise semicircle: on the segment
	// (0,0)-(2,0) the arc apex dips to (1,-1), and every sampled point
	// stays on the circle around (1,0).
	r := newTestRegistry()
	p := &dxf.Polyline{
		Vertices: []dxf.Vertex{
			{Vec3: geom.V2(0, 0), Bulge: 1},
			{Vec3: geom.V2(2, 0)},
		},
	}
	out, err := r.Convert(p)
	if err != nil {
		t.Fatalf("Convert error: %v", err)
	}

	bottom := 0.0
	for _, v := range out.Geometry.Line {
		if d := math.Hypot(v.X-1, v.Y); math.Abs(d-1) > 1e-9 {
			t.Fatalf("point (%g, %g) off the arc circle: distance %g", v.X, v.Y, d)
		}
		if v.Y < bottom {
			bottom = v.Y
		}
	}
	if math.Abs(bottom+1) > 1e-6 {
		t.Errorf("arc apex = %g, want -1", bottom)
	}
}

func TestConvertLineRejectsCoincidentEndpoints(t *testing.T) {
	r := newTestRegistry()
	_, err := r.Convert(&dxf.Line{Start: geom.V2(1, 1), End: geom.V2(1, 1)})
	if !errors.Is(err, errors.ErrCodeValidation) {
		t.Errorf("error = %v, want VALIDATION", err)
	}
}

func TestConvertEllipse(t *testing.T) {
	r := newTestRegistry()
	e := &dxf.Ellipse{
		Center:    geom.V2(0, 0),
		MajorAxis: geom.V2(2, 0),
		Ratio:     0.5,
		EndParam:  2 * math.Pi,
	}
	out, err := r.Convert(e)
	if err != nil {
		t.Fatalf("Convert error: %v", err)
	}
	if out.Geometry.Type != geom.TypePolygon {
		t.Fatalf("type = %s", out.Geometry.Type)
	}
	// Every vertex satisfies the ellipse equation x²/4 + y² = 1.
	for _, v := range out.Geometry.Rings[0] {
		val := v.X*v.X/4 + v.Y*v.Y
		if math.Abs(val-1) > 1e-9 {
			t.Fatalf("vertex (%g, %g) off the ellipse: %g", v.X, v.Y, val)
		}
	}
}

func TestConvertSplineBezierEndpoints(t *testing.T) {
	// Degree-2 Bézier via clamped uniform knots: the curve starts at
	// the first control point and ends at the last.
	r := newTestRegistry()
	s := &dxf.Spline{
		Degree:        2,
		ControlPoints: []geom.Vec3{geom.V2(0, 0), geom.V2(1, 2), geom.V2(2, 0)},
		Knots:         []float64{0, 0, 0, 1, 1, 1},
	}
	out, err := r.Convert(s)
	if err != nil {
		t.Fatalf("Convert error: %v", err)
	}
	pts := out.Geometry.Line
	if !pts[0].Eq(geom.V2(0, 0), 1e-9) {
		t.Errorf("start = %+v", pts[0])
	}
	if !pts[len(pts)-1].Eq(geom.V2(2, 0), 1e-6) {
		t.Errorf("end = %+v", pts[len(pts)-1])
	}
	// Interior stays inside the control hull.
	for _, p := range pts {
		if p.Y < -1e-9 || p.Y > 1+1e-9 {
			t.Fatalf("point outside hull: %+v", p)
		}
	}
}

func TestConvertSplineFallsBackToFitPoints(t *testing.T) {
	r := newTestRegistry()
	s := &dxf.Spline{
		FitPoints: []geom.Vec3{geom.V2(0, 0), geom.V2(1, 1)},
	}
	out, err := r.Convert(s)
	if err != nil {
		t.Fatalf("Convert error: %v", err)
	}
	if len(out.Geometry.Line) != 2 {
		t.Errorf("fallback points = %d", len(out.Geometry.Line))
	}
}

func TestConvertSolidTriangle(t *testing.T) {
	r := newTestRegistry()
	s := &dxf.Solid{
		Corners: [4]geom.Vec3{geom.V2(0, 0), geom.V2(2, 0), geom.V2(1, 2), geom.V2(1, 2)},
	}
	out, err := r.Convert(s)
	if err != nil {
		t.Fatalf("Convert error: %v", err)
	}
	if out.Geometry.Type != geom.TypePolygon {
		t.Fatalf("type = %s", out.Geometry.Type)
	}
	if a := geom.RingArea(out.Geometry.Rings[0]); math.Abs(math.Abs(a)-2) > 1e-9 {
		t.Errorf("triangle area = %g, want 2", a)
	}
}

func TestConvertSolidZigzagCorners(t *testing.T) {
	// DXF corner order for a unit square is zigzag: (0,0),(1,0),(0,1),(1,1).
	// The converter must unscramble it to a non-self-intersecting ring of
	// area 1, not a bowtie of area 0.
	r := newTestRegistry()
	s := &dxf.Solid{
		Corners:   [4]geom.Vec3{geom.V2(0, 0), geom.V2(1, 0), geom.V2(0, 1), geom.V2(1, 1)},
		HasFourth: true,
	}
	out, err := r.Convert(s)
	if err != nil {
		t.Fatalf("Convert error: %v", err)
	}
	if a := math.Abs(geom.RingArea(out.Geometry.Rings[0])); math.Abs(a-1) > 1e-9 {
		t.Errorf("square area = %g, want 1", a)
	}
}

func TestConvertTextAndMText(t *testing.T) {
	r := newTestRegistry()

	out, err := r.Convert(&dxf.Text{Position: geom.V2(1, 2), Value: "label", Height: 2.5})
	if err != nil {
		t.Fatalf("TEXT error: %v", err)
	}
	if out.Geometry.Type != geom.TypePoint || out.Properties["text"] != "label" {
		t.Errorf("TEXT output wrong: %+v", out)
	}

	out, err = r.Convert(&dxf.MText{Position: geom.V2(0, 0), Value: `{\fArial;hello}\Pworld`})
	if err != nil {
		t.Fatalf("MTEXT error: %v", err)
	}
	if out.Properties["text"] != "hello\nworld" {
		t.Errorf("MTEXT text = %q", out.Properties["text"])
	}
}

func TestStripMTextFormatting(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{`plain`, "plain"},
		{`a\Pb`, "a\nb"},
		{`a\~b`, "a b"},
		{`\fArial|b0;text`, "text"},
		{`\H2.5x;tall`, "tall"},
		{`{\C1;red}`, "red"},
		{`\S1^2;`, "1/2"},
		{`\Lunder\l`, "under"},
		{`back\\slash`, `back\slash`},
		{`\Qunterminated`, ""},
	}
	for _, tt := range tests {
		if got := StripMTextFormatting(tt.in); got != tt.want {
			t.Errorf("Strip(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestConvertDimension(t *testing.T) {
	r := newTestRegistry()
	d := &dxf.Dimension{
		DefPoint:     geom.V2(0, 5),
		MeasureStart: geom.V2(0, 0),
		MeasureEnd:   geom.V2(10, 0),
		TextMid:      geom.V2(5, 5),
		Measurement:  10,
		TextOverride: "ca. <> m",
	}
	out, err := r.Convert(d)
	if err != nil {
		t.Fatalf("Convert error: %v", err)
	}
	if out.Geometry.Type != geom.TypeGeometryCollection {
		t.Fatalf("type = %s", out.Geometry.Type)
	}
	if out.Properties["measurement"] != 10.0 {
		t.Errorf("measurement = %v", out.Properties["measurement"])
	}
	if out.Properties["prefix"] != "ca." || out.Properties["suffix"] != "m" {
		t.Errorf("prefix/suffix = %v / %v", out.Properties["prefix"], out.Properties["suffix"])
	}
}

func TestConvertDimensionDegenerate(t *testing.T) {
	r := newTestRegistry()
	d := &dxf.Dimension{
		MeasureStart: geom.V2(1, 1),
		MeasureEnd:   geom.V2(1, 1),
	}
	if _, err := r.Convert(d); !errors.Is(err, errors.ErrCodeValidation) {
		t.Errorf("error = %v, want VALIDATION", err)
	}
}

func TestConvertHatchPolylineBoundary(t *testing.T) {
	r := newTestRegistry()
	h := &dxf.Hatch{
		PatternName: "SOLID",
		Solid:       true,
		Boundaries: []dxf.HatchBoundary{{
			Vertices: []dxf.Vertex{
				{Vec3: geom.V2(0, 0)},
				{Vec3: geom.V2(1, 0)},
				{Vec3: geom.V2(1, 1)},
			},
		}},
	}
	out, err := r.Convert(h)
	if err != nil {
		t.Fatalf("Convert error: %v", err)
	}
	if out.Geometry.Type != geom.TypeMultiPolygon {
		t.Fatalf("type = %s", out.Geometry.Type)
	}
	if out.Properties["pattern"] != "SOLID" || out.Properties["solid"] != true {
		t.Errorf("properties = %v", out.Properties)
	}
}

func TestRegistryRejectsInsert(t *testing.T) {
	r := newTestRegistry()
	_, err := r.Convert(&dxf.Insert{BlockName: "X"})
	if !errors.Is(err, errors.ErrCodeInternal) {
		t.Errorf("error = %v, want INTERNAL_ERROR", err)
	}
	if r.Supports(dxf.KindInsert) {
		t.Error("registry should not claim INSERT support")
	}
}

func TestValidateGateDisabledByDefault(t *testing.T) {
	r := newTestRegistry()
	if err := r.Validate(&dxf.Circle{Radius: 0}); err != nil {
		t.Errorf("validation gate should be off by default, got %v", err)
	}

	strict := NewRegistry(Options{ValidateGeometry: true})
	if err := strict.Validate(&dxf.Circle{Radius: 0}); !errors.Is(err, errors.ErrCodeValidation) {
		t.Errorf("error = %v, want VALIDATION", err)
	}
}
