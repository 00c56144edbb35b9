package io

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/geofold/dxfgeo/pkg/feature"
)

// WriteGeoJSON encodes a collection as a GeoJSON FeatureCollection and
// writes it to w.
func WriteGeoJSON(c feature.Collection, opts feature.MaterializeOptions, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(c.GeoJSON(opts)); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// WritePostGIS writes one JSON record per feature, newline-delimited,
// each carrying typed WKT with an explicit SRID. The shape matches what
// a COPY-based loader consumes row by row.
func WritePostGIS(c feature.Collection, opts feature.MaterializeOptions, w io.Writer) error {
	enc := json.NewEncoder(w)
	for _, shape := range c.PostGIS(opts) {
		if err := enc.Encode(shape); err != nil {
			return fmt.Errorf("encode %s: %w", shape.ID, err)
		}
	}
	return nil
}
