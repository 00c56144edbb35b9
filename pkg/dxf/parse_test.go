package dxf

import (
	"strings"
	"testing"
)

// doc builds DXF tag text from alternating code/value lines.
func docFromLines(lines ...string) string {
	return strings.Join(lines, "\n") + "\n"
}

const sampleDrawing = `0
SECTION
2
HEADER
9
$DWGCODEPAGE
3
ANSI_1252
9
$INSUNITS
70
6
9
$EXTMIN
10
0.0
20
0.0
9
$EXTMAX
10
100.0
20
50.0
0
ENDSEC
0
SECTION
2
TABLES
0
TABLE
2
LAYER
0
LAYER
2
WALLS
62
3
0
LAYER
2
HIDDEN
62
-1
0
LAYER
2
ICE
70
1
0
ENDTAB
0
ENDSEC
0
SECTION
2
BLOCKS
0
BLOCK
2
Door
10
1.0
20
2.0
0
LINE
8
DOORS
10
0
20
0
11
1
21
0
0
ENDBLK
0
ENDSEC
0
SECTION
2
ENTITIES
0
LINE
8
WALLS
10
0
20
0
11
10
21
0
0
LWPOLYLINE
8
WALLS
70
1
90
3
10
0
20
0
10
5
20
0
42
1.0
10
5
20
5
0
INSERT
2
door
10
3
20
4
0
WIDGET
10
1
0
TEXT
8
NOTES
1
hello
10
2
20
2
0
ENDSEC
0
EOF
`

func TestParseSampleDrawing(t *testing.T) {
	doc, err := Parse(strings.NewReader(sampleDrawing))
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}

	// Header variables
	if doc.Header.CodePage != "ANSI_1252" {
		t.Errorf("CodePage = %q", doc.Header.CodePage)
	}
	if doc.Header.InsUnits != 6 {
		t.Errorf("InsUnits = %d", doc.Header.InsUnits)
	}
	if !doc.Header.HasExtents || doc.Header.ExtMax.X != 100 || doc.Header.ExtMax.Y != 50 {
		t.Errorf("extents wrong: %+v", doc.Header)
	}

	// Layer table
	if got := doc.Layers.Get("WALLS").Color; got != 3 {
		t.Errorf("WALLS color = %d", got)
	}
	if !doc.Layers.IsVisible("WALLS") {
		t.Error("WALLS should be visible")
	}
	if doc.Layers.IsVisible("HIDDEN") {
		t.Error("negative color 62 should turn HIDDEN off")
	}
	if doc.Layers.IsVisible("ICE") {
		t.Error("frozen flag should hide ICE")
	}
	// NOTES only appears on an entity; the table still knows it.
	if doc.Layers.Get("NOTES").Name != "NOTES" {
		t.Error("entity layer NOTES not ensured")
	}

	// Blocks keyed by normalized name
	block, ok := doc.Blocks["DOOR"]
	if !ok {
		t.Fatal("block DOOR missing")
	}
	if block.Base.X != 1 || block.Base.Y != 2 {
		t.Errorf("block base = %+v", block.Base)
	}
	if len(block.Entities) != 1 || block.Entities[0].Kind() != KindLine {
		t.Errorf("block children wrong: %d", len(block.Entities))
	}

	// Entities: LINE, LWPOLYLINE, INSERT, TEXT; WIDGET is unknown.
	if len(doc.Entities) != 4 {
		t.Fatalf("entity count = %d, want 4", len(doc.Entities))
	}
	if doc.UnknownKinds["WIDGET"] != 1 {
		t.Errorf("UnknownKinds = %v", doc.UnknownKinds)
	}

	poly, ok := doc.Entities[1].(*Polyline)
	if !ok {
		t.Fatalf("entity 1 is %T", doc.Entities[1])
	}
	if !poly.Closed {
		t.Error("bit 1 of code 70 should close the polyline")
	}
	if len(poly.Vertices) != 3 {
		t.Fatalf("vertex count = %d, want 3", len(poly.Vertices))
	}
	if poly.Vertices[1].Bulge != 1.0 {
		t.Errorf("bulge attached to wrong vertex: %+v", poly.Vertices)
	}
	if poly.DeclaredCount != 3 {
		t.Errorf("DeclaredCount = %d", poly.DeclaredCount)
	}

	ins, ok := doc.Entities[2].(*Insert)
	if !ok {
		t.Fatalf("entity 2 is %T", doc.Entities[2])
	}
	if ins.BlockName != "door" || ins.Insertion.X != 3 || ins.Insertion.Y != 4 {
		t.Errorf("insert wrong: %+v", ins)
	}
	if ins.Scale.X != 1 || ins.ColumnCount != 1 || ins.RowCount != 1 {
		t.Errorf("insert defaults wrong: %+v", ins)
	}

	text, ok := doc.Entities[3].(*Text)
	if !ok {
		t.Fatalf("entity 3 is %T", doc.Entities[3])
	}
	if text.Value != "hello" || text.Attrs().Layer != "NOTES" {
		t.Errorf("text wrong: %+v", text)
	}
}

func TestParseLWPolylineDiscardsIncompleteVertex(t *testing.T) {
	input := docFromLines(
		"0", "SECTION", "2", "ENTITIES",
		"0", "LWPOLYLINE",
		"10", "0", "20", "0",
		"10", "1", // X with no Y: discarded
		"10", "2", "20", "2",
		"0", "ENDSEC",
		"0", "EOF",
	)
	doc, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	poly := doc.Entities[0].(*Polyline)
	if len(poly.Vertices) != 2 {
		t.Fatalf("vertex count = %d, want 2", len(poly.Vertices))
	}
	if poly.Vertices[1].X != 2 || poly.Vertices[1].Y != 2 {
		t.Errorf("surviving vertices wrong: %+v", poly.Vertices)
	}
}

func TestParseHeavyPolylineVertices(t *testing.T) {
	input := docFromLines(
		"0", "SECTION", "2", "ENTITIES",
		"0", "POLYLINE", "8", "L", "70", "0",
		"0", "VERTEX", "10", "0", "20", "0",
		"0", "VERTEX", "10", "1", "20", "1",
		"0", "SEQEND",
		"0", "LINE", "10", "0", "20", "0", "11", "1", "21", "1",
		"0", "ENDSEC",
		"0", "EOF",
	)
	doc, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if len(doc.Entities) != 2 {
		t.Fatalf("entity count = %d, want 2", len(doc.Entities))
	}
	poly := doc.Entities[0].(*Polyline)
	if poly.Lightweight {
		t.Error("heavy polyline flagged lightweight")
	}
	if len(poly.Vertices) != 2 {
		t.Errorf("vertex count = %d, want 2", len(poly.Vertices))
	}
}

func TestParseWithoutEntitiesSection(t *testing.T) {
	input := docFromLines(
		"0", "SECTION", "2", "HEADER",
		"9", "$INSUNITS", "70", "4",
		"0", "ENDSEC",
		"0", "EOF",
	)
	doc, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if len(doc.Entities) != 0 {
		t.Errorf("expected empty entity list, got %d", len(doc.Entities))
	}
	if doc.Header.InsUnits != 4 {
		t.Errorf("InsUnits = %d", doc.Header.InsUnits)
	}
}

func TestSniffCodepage(t *testing.T) {
	raw := []byte("9\n$DWGCODEPAGE\n3\nANSI_1250\n")
	if got := sniffCodepage(raw); got != "ANSI_1250" {
		t.Errorf("sniffCodepage = %q", got)
	}
	if got := sniffCodepage([]byte("0\nSECTION\n")); got != "" {
		t.Errorf("expected empty, got %q", got)
	}
}
