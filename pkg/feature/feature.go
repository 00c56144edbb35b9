// Package feature defines the output data model: one Feature per source
// entity, materialized into a GeoJSON-style document and a PostGIS-style
// shape in parallel.
package feature

import (
	"github.com/google/uuid"

	"github.com/geofold/dxfgeo/pkg/dxf"
	"github.com/geofold/dxfgeo/pkg/geom"
)

// Feature is one converted entity with its geometry in the target
// spatial reference system.
type Feature struct {
	// ID is a stable unique identifier assigned at materialization.
	ID string

	// EntityType names the source entity kind (LINE, CIRCLE, ...).
	EntityType dxf.Kind

	// Layer is the resolved source layer name.
	Layer string

	// SRID is the EPSG code the geometry is expressed in.
	SRID int

	// Geometry is the reprojected internal geometry.
	Geometry geom.Geometry

	// Properties carries entity-specific attributes (text content,
	// measurements, hatch pattern names).
	Properties map[string]any

	// Attributes are the common visual attributes from the source.
	Attributes dxf.Common

	// Placeholder marks geometry substituted after a failed
	// coordinate transform.
	Placeholder bool
}

// New assigns an ID and wraps the converted pieces into a Feature.
func New(kind dxf.Kind, layer string, srid int, g geom.Geometry, props map[string]any, attrs dxf.Common) Feature {
	return Feature{
		ID:         uuid.NewString(),
		EntityType: kind,
		Layer:      layer,
		SRID:       srid,
		Geometry:   g,
		Properties: props,
		Attributes: attrs,
	}
}

// MaterializeOptions selects which visual attributes survive into the
// output property maps.
type MaterializeOptions struct {
	PreserveColors      bool
	PreserveLineWeights bool
}

// GeoJSONFeature is the wire form of one feature as a GeoJSON Feature
// object.
type GeoJSONFeature struct {
	Type       string         `json:"type"`
	ID         string         `json:"id"`
	Geometry   geom.GeoJSON   `json:"geometry"`
	Properties map[string]any `json:"properties"`
}

// PostGISShape is the wire form aimed at a PostGIS loader: typed WKT
// with an explicit SRID plus the same property side channel.
type PostGISShape struct {
	ID           string         `json:"id"`
	GeometryType string         `json:"geometry_type"`
	SRID         int            `json:"srid"`
	WKT          string         `json:"wkt"`
	Properties   map[string]any `json:"properties"`
}

// GeoJSON materializes the feature as a GeoJSON Feature object.
func (f Feature) GeoJSON(opts MaterializeOptions) GeoJSONFeature {
	return GeoJSONFeature{
		Type:       "Feature",
		ID:         f.ID,
		Geometry:   f.Geometry.GeoJSON(),
		Properties: f.outputProperties(opts),
	}
}

// PostGIS materializes the feature as a PostGIS-style shape. The WKT and
// the GeoJSON rendition of the same feature always describe identical
// coordinates.
func (f Feature) PostGIS(opts MaterializeOptions) PostGISShape {
	return PostGISShape{
		ID:           f.ID,
		GeometryType: string(f.Geometry.Type),
		SRID:         f.SRID,
		WKT:          f.Geometry.WKT(),
		Properties:   f.outputProperties(opts),
	}
}

// outputProperties merges entity properties with the shared metadata
// keys. Entity properties never shadow the reserved keys.
func (f Feature) outputProperties(opts MaterializeOptions) map[string]any {
	props := make(map[string]any, len(f.Properties)+6)
	for k, v := range f.Properties {
		props[k] = v
	}
	props["entity_type"] = string(f.EntityType)
	props["layer"] = f.Layer
	if opts.PreserveColors {
		props["color"] = f.Attributes.Color
	}
	if opts.PreserveLineWeights {
		props["line_weight"] = f.Attributes.LineWeight
	}
	if f.Attributes.LineType != "" {
		props["line_type"] = f.Attributes.LineType
	}
	if f.Placeholder {
		props["placeholder"] = true
	}
	return props
}

// Collection is an ordered set of features sharing one SRID.
type Collection struct {
	SRID     int
	Features []Feature
}

// GeoJSONDocument is a GeoJSON FeatureCollection.
type GeoJSONDocument struct {
	Type     string           `json:"type"`
	Features []GeoJSONFeature `json:"features"`
}

// GeoJSON materializes the whole collection.
func (c Collection) GeoJSON(opts MaterializeOptions) GeoJSONDocument {
	out := GeoJSONDocument{
		Type:     "FeatureCollection",
		Features: make([]GeoJSONFeature, 0, len(c.Features)),
	}
	for _, f := range c.Features {
		out.Features = append(out.Features, f.GeoJSON(opts))
	}
	return out
}

// PostGIS materializes every feature as a PostGIS-style shape.
func (c Collection) PostGIS(opts MaterializeOptions) []PostGISShape {
	out := make([]PostGISShape, 0, len(c.Features))
	for _, f := range c.Features {
		out = append(out, f.PostGIS(opts))
	}
	return out
}
