package feature

import (
	"sort"

	"github.com/geofold/dxfgeo/pkg/dxf"
	"github.com/geofold/dxfgeo/pkg/errors"
	"github.com/geofold/dxfgeo/pkg/geom"
)

// Stats summarizes one conversion run. It is accumulated while features
// stream out, so producing it costs nothing extra.
type Stats struct {
	// FeatureCount is the number of features emitted.
	FeatureCount int `json:"feature_count"`

	// ByType counts emitted features per source entity kind.
	ByType map[dxf.Kind]int `json:"by_type,omitempty"`

	// FailedByCode counts per-entity failures by error code.
	FailedByCode map[errors.Code]int `json:"failed_by_code,omitempty"`

	// Placeholders counts features that received placeholder geometry.
	Placeholders int `json:"placeholders,omitempty"`

	// Bounds is the extent of all emitted geometry in the target SRID.
	Bounds geom.BBox `json:"bounds"`

	layers map[string]bool
}

// NewStats returns an empty accumulator.
func NewStats() *Stats {
	return &Stats{
		ByType:       map[dxf.Kind]int{},
		FailedByCode: map[errors.Code]int{},
		layers:       map[string]bool{},
	}
}

// Record accumulates one emitted feature.
func (s *Stats) Record(f Feature) {
	s.FeatureCount++
	s.ByType[f.EntityType]++
	s.layers[f.Layer] = true
	if f.Placeholder {
		s.Placeholders++
	}
	s.Bounds.ExtendBox(f.Geometry.Bounds())
}

// RecordFailure accumulates one per-entity failure.
func (s *Stats) RecordFailure(err error) {
	s.FailedByCode[errors.GetCode(err)]++
}

// Layers returns the sorted set of layers that produced features.
func (s *Stats) Layers() []string {
	out := make([]string, 0, len(s.layers))
	for name := range s.layers {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// FailedCount sums failures across all error codes.
func (s *Stats) FailedCount() int {
	total := 0
	for _, n := range s.FailedByCode {
		total += n
	}
	return total
}
