// Package io provides export of converted feature collections.
//
// # Overview
//
// Two output forms mirror the two downstream consumers:
//
//   - GeoJSON: a standard FeatureCollection document, for web maps and
//     GIS tooling.
//   - PostGIS: newline-delimited JSON records carrying typed WKT with
//     an explicit SRID plus the property side channel, shaped for a
//     database loader.
//
// Both forms materialize from the same [feature.Collection], so the
// coordinates in a GeoJSON feature and its PostGIS record are always
// identical.
//
// # Export
//
// Use [WriteGeoJSON] or [WritePostGIS] to write to any io.Writer:
//
//	err := io.WriteGeoJSON(collection, opts, f)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// # Concurrency
//
// All functions are safe to call concurrently with other readers of the
// same collection, but not with concurrent modification.
package io
