package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/geofold/dxfgeo/pkg/dxf"
	"github.com/geofold/dxfgeo/pkg/feature"
	"github.com/geofold/dxfgeo/pkg/geom"
	"github.com/geofold/dxfgeo/pkg/pipeline"
)

func defaultConvertOpts() convertOpts {
	return convertOpts{
		format:     pipeline.FormatGeoJSON,
		srid:       pipeline.DefaultTargetSRID,
		segments:   pipeline.DefaultCircleSegments,
		maxNesting: pipeline.DefaultMaxBlockNesting,
	}
}

func TestPipelineOptionsFromFlags(t *testing.T) {
	opts := defaultConvertOpts()
	opts.sourceSRID = 2056
	opts.layers = []string{"WALLS"}
	opts.validate = true

	got, err := opts.pipelineOptions("plan.dxf")
	if err != nil {
		t.Fatalf("pipelineOptions error: %v", err)
	}
	if got.Path != "plan.dxf" {
		t.Errorf("Path = %q", got.Path)
	}
	if got.SourceSRID != 2056 || got.TargetSRID != pipeline.DefaultTargetSRID {
		t.Errorf("SRIDs = %d -> %d", got.SourceSRID, got.TargetSRID)
	}
	if len(got.SelectedLayers) != 1 || got.SelectedLayers[0] != "WALLS" {
		t.Errorf("SelectedLayers = %v", got.SelectedLayers)
	}
	if !got.ValidateGeometry {
		t.Error("ValidateGeometry should be set")
	}
}

func TestPipelineOptionsFileMergedUnderFlags(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "import.toml")
	content := `source_srid = 21781
fallback_srid = 2056
selected_layers = ["TREES"]
preserve_colors = true
`
	if err := os.WriteFile(file, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	opts := defaultConvertOpts()
	opts.optionsFile = file
	opts.sourceSRID = 2056 // flag overrides the file

	got, err := opts.pipelineOptions("plan.dxf")
	if err != nil {
		t.Fatalf("pipelineOptions error: %v", err)
	}
	if got.SourceSRID != 2056 {
		t.Errorf("flag should override file, SourceSRID = %d", got.SourceSRID)
	}
	if got.FallbackSRID != 2056 {
		t.Errorf("file value lost, FallbackSRID = %d", got.FallbackSRID)
	}
	if len(got.SelectedLayers) != 1 || got.SelectedLayers[0] != "TREES" {
		t.Errorf("SelectedLayers = %v", got.SelectedLayers)
	}
	if !got.PreserveColors {
		t.Error("PreserveColors from file should survive")
	}
}

func TestPipelineOptionsBadOptionsFile(t *testing.T) {
	opts := defaultConvertOpts()
	opts.optionsFile = filepath.Join(t.TempDir(), "missing.toml")
	if _, err := opts.pipelineOptions("plan.dxf"); err == nil {
		t.Error("expected error for missing options file")
	}
}

func TestPipelineOptionsSiblingPrjPickup(t *testing.T) {
	dir := t.TempDir()
	drawing := filepath.Join(dir, "site.dxf")
	if err := os.WriteFile(drawing, []byte("0\nEOF\n"), 0644); err != nil {
		t.Fatal(err)
	}
	prj := filepath.Join(dir, "site.prj")
	if err := os.WriteFile(prj, []byte(`PROJCS["CH1903+ / LV95"]`+"\n"), 0644); err != nil {
		t.Fatal(err)
	}

	got, err := defaultConvertOpts().pipelineOptions(drawing)
	if err != nil {
		t.Fatalf("pipelineOptions error: %v", err)
	}
	if got.ProjectionText != `PROJCS["CH1903+ / LV95"]` {
		t.Errorf("ProjectionText = %q", got.ProjectionText)
	}
}

func TestPipelineOptionsExplicitPrjWins(t *testing.T) {
	dir := t.TempDir()
	prj := filepath.Join(dir, "other.prj")
	if err := os.WriteFile(prj, []byte("EPSG:3857"), 0644); err != nil {
		t.Fatal(err)
	}

	opts := defaultConvertOpts()
	opts.prjFile = prj
	got, err := opts.pipelineOptions("plan.dxf")
	if err != nil {
		t.Fatalf("pipelineOptions error: %v", err)
	}
	if got.ProjectionText != "EPSG:3857" {
		t.Errorf("ProjectionText = %q", got.ProjectionText)
	}
}

func TestRenderOutputFormats(t *testing.T) {
	c := feature.Collection{
		SRID: 4326,
		Features: []feature.Feature{
			feature.New(dxf.KindPoint, "SURVEY", 4326,
				geom.NewPoint(geom.V2(7.44, 46.95)), nil, dxf.Common{Layer: "SURVEY"}),
		},
	}

	gj, err := renderOutput(c, feature.MaterializeOptions{}, pipeline.FormatGeoJSON)
	if err != nil {
		t.Fatalf("renderOutput geojson error: %v", err)
	}
	if !json.Valid(gj) {
		t.Error("geojson output is not valid JSON")
	}

	pg, err := renderOutput(c, feature.MaterializeOptions{}, pipeline.FormatPostGIS)
	if err != nil {
		t.Fatalf("renderOutput postgis error: %v", err)
	}
	if got := bytes.Count(pg, []byte("\n")); got != 1 {
		t.Errorf("postgis line count = %d, want 1", got)
	}
}

func TestConvertCmdFlagDefaults(t *testing.T) {
	cmd := newConvertCmd()

	tests := []struct {
		flag string
		want string
	}{
		{"format", pipeline.FormatGeoJSON},
		{"srid", "4326"},
		{"segments", "64"},
		{"max-nesting", "5"},
	}
	for _, tt := range tests {
		f := cmd.Flags().Lookup(tt.flag)
		if f == nil {
			t.Fatalf("flag %q not registered", tt.flag)
		}
		if f.DefValue != tt.want {
			t.Errorf("flag %q default = %q, want %q", tt.flag, f.DefValue, tt.want)
		}
	}
}
