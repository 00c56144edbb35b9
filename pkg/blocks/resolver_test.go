package blocks

import (
	"math"
	"testing"

	"github.com/geofold/dxfgeo/pkg/convert"
	"github.com/geofold/dxfgeo/pkg/dxf"
	"github.com/geofold/dxfgeo/pkg/errors"
	"github.com/geofold/dxfgeo/pkg/geom"
)

func lineBlock(name string) *dxf.Block {
	return &dxf.Block{
		Name: name,
		Entities: []dxf.Entity{
			&dxf.Line{Start: geom.V2(0, 0), End: geom.V2(1, 0)},
		},
	}
}

func newResolver(t *testing.T, defs map[string]*dxf.Block, opts Options) *Resolver {
	t.Helper()
	r, err := NewResolver(defs, convert.NewRegistry(convert.Options{}), opts)
	if err != nil {
		t.Fatalf("NewResolver error: %v", err)
	}
	return r
}

func TestResolveAppliesInsertTransform(t *testing.T) {
	r := newResolver(t, map[string]*dxf.Block{"PART": lineBlock("PART")}, Options{})

	out, err := r.Resolve(&dxf.Insert{
		BlockName: "part", // case-insensitive lookup
		Insertion: geom.V2(10, 20),
		Scale:     geom.Vec3{X: 2, Y: 2, Z: 1},
		Rotation:  90,
	})
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("feature count = %d, want 1", len(out))
	}

	// (1,0) scaled to (2,0), rotated to (0,2), translated to (10,22).
	end := out[0].Geometry.Line[1]
	if math.Abs(end.X-10) > 1e-9 || math.Abs(end.Y-22) > 1e-9 {
		t.Errorf("transformed end = (%g, %g), want (10, 22)", end.X, end.Y)
	}
}

func TestResolveArrayReplication(t *testing.T) {
	r := newResolver(t, map[string]*dxf.Block{"PART": lineBlock("PART")}, Options{})

	out, err := r.Resolve(&dxf.Insert{
		BlockName:     "PART",
		ColumnCount:   2,
		RowCount:      1,
		ColumnSpacing: 10,
	})
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("feature count = %d, want 2", len(out))
	}

	// The second cell is the first shifted by exactly one column spacing.
	a := out[0].Geometry.Line[0]
	b := out[1].Geometry.Line[0]
	if math.Abs(b.X-a.X-10) > 1e-9 || math.Abs(b.Y-a.Y) > 1e-9 {
		t.Errorf("cell offset = (%g, %g), want (10, 0)", b.X-a.X, b.Y-a.Y)
	}
}

func TestResolveBasePointShift(t *testing.T) {
	block := lineBlock("PART")
	block.Base = geom.V2(1, 0)
	r := newResolver(t, map[string]*dxf.Block{"PART": block}, Options{})

	out, err := r.Resolve(&dxf.Insert{BlockName: "PART"})
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	// The line end (1,0) sits on the base point, so it lands on the
	// insertion point (origin).
	end := out[0].Geometry.Line[1]
	if math.Abs(end.X) > 1e-9 || math.Abs(end.Y) > 1e-9 {
		t.Errorf("end = (%g, %g), want origin", end.X, end.Y)
	}
}

func TestResolveNestedBlocks(t *testing.T) {
	inner := lineBlock("INNER")
	outer := &dxf.Block{
		Name: "OUTER",
		Entities: []dxf.Entity{
			&dxf.Insert{BlockName: "INNER", Insertion: geom.V2(5, 0), Scale: geom.Vec3{X: 1, Y: 1, Z: 1}},
		},
	}
	r := newResolver(t, map[string]*dxf.Block{"INNER": inner, "OUTER": outer}, Options{})

	out, err := r.Resolve(&dxf.Insert{BlockName: "OUTER"})
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("feature count = %d, want 1", len(out))
	}
	// INNER's line (0,0)-(1,0) shifts by the nested insertion (5,0).
	start := out[0].Geometry.Line[0]
	end := out[0].Geometry.Line[1]
	if math.Abs(start.X-5) > 1e-9 || math.Abs(end.X-6) > 1e-9 {
		t.Errorf("nested line = (%g)-(%g), want 5-6", start.X, end.X)
	}
}

func TestResolveMissingBlock(t *testing.T) {
	r := newResolver(t, nil, Options{})
	_, err := r.Resolve(&dxf.Insert{BlockName: "GHOST"})
	if !errors.Is(err, errors.ErrCodeBlockResolution) {
		t.Errorf("error = %v, want BLOCK_RESOLUTION", err)
	}
}

func TestResolveDepthLimit(t *testing.T) {
	// A references B references C, with max depth 2: resolving A fails,
	// resolving B directly still works.
	c := lineBlock("C")
	b := &dxf.Block{Name: "B", Entities: []dxf.Entity{
		&dxf.Insert{BlockName: "C", Scale: geom.Vec3{X: 1, Y: 1, Z: 1}},
	}}
	a := &dxf.Block{Name: "A", Entities: []dxf.Entity{
		&dxf.Insert{BlockName: "B", Scale: geom.Vec3{X: 1, Y: 1, Z: 1}},
	}}
	r := newResolver(t, map[string]*dxf.Block{"A": a, "B": b, "C": c}, Options{MaxDepth: 2})

	if _, err := r.Resolve(&dxf.Insert{BlockName: "A"}); !errors.Is(err, errors.ErrCodeBlockResolution) {
		t.Errorf("deep insert error = %v, want BLOCK_RESOLUTION", err)
	}
	if _, err := r.Resolve(&dxf.Insert{BlockName: "B"}); err != nil {
		t.Errorf("shallow insert should still resolve: %v", err)
	}
}

func TestResolveCycle(t *testing.T) {
	// SELF inserts itself; the cycle fails without exhausting the depth
	// budget or hanging.
	self := &dxf.Block{Name: "SELF", Entities: []dxf.Entity{
		&dxf.Insert{BlockName: "SELF", Scale: geom.Vec3{X: 1, Y: 1, Z: 1}},
	}}
	r := newResolver(t, map[string]*dxf.Block{"SELF": self}, Options{MaxDepth: 50})

	_, err := r.Resolve(&dxf.Insert{BlockName: "SELF"})
	if !errors.Is(err, errors.ErrCodeBlockResolution) {
		t.Errorf("error = %v, want BLOCK_RESOLUTION", err)
	}
}

func TestResolveCachesDefinitions(t *testing.T) {
	r := newResolver(t, map[string]*dxf.Block{"PART": lineBlock("PART")}, Options{})

	if _, err := r.Resolve(&dxf.Insert{BlockName: "PART"}); err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if r.CacheLen() != 1 {
		t.Errorf("cache length = %d, want 1", r.CacheLen())
	}

	// Cached geometry must not leak mutations between inserts.
	first, _ := r.Resolve(&dxf.Insert{BlockName: "PART", Insertion: geom.V2(100, 0)})
	second, _ := r.Resolve(&dxf.Insert{BlockName: "PART"})
	if second[0].Geometry.Line[0].X == first[0].Geometry.Line[0].X {
		t.Error("cached geometry shared between inserts")
	}

	r.ClearCache()
	if r.CacheLen() != 0 {
		t.Errorf("cache length after clear = %d", r.CacheLen())
	}
}

func TestResolveSkipsBadChildren(t *testing.T) {
	block := &dxf.Block{Name: "MIXED", Entities: []dxf.Entity{
		&dxf.Circle{Radius: 0}, // invalid
		&dxf.Line{Start: geom.V2(0, 0), End: geom.V2(1, 1)},
	}}
	r := newResolver(t, map[string]*dxf.Block{"MIXED": block}, Options{})

	out, err := r.Resolve(&dxf.Insert{BlockName: "MIXED"})
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if len(out) != 1 {
		t.Errorf("feature count = %d, want 1 (bad child skipped)", len(out))
	}
}
