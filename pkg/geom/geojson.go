package geom

// GeoJSON is the wire form of a geometry, ready for json.Marshal. For
// GeometryCollection the Geometries field is populated instead of
// Coordinates.
type GeoJSON struct {
	Type        string    `json:"type"`
	Coordinates any       `json:"coordinates,omitempty"`
	Geometries  []GeoJSON `json:"geometries,omitempty"`
}

// GeoJSON converts g into its GeoJSON wire form. 2D geometries emit
// two-element positions; HasZ geometries emit three.
func (g Geometry) GeoJSON() GeoJSON {
	out := GeoJSON{Type: string(g.Type)}
	switch g.Type {
	case TypePoint:
		out.Coordinates = position(g.Point, g.HasZ)
	case TypeLineString:
		out.Coordinates = positions(g.Line, g.HasZ)
	case TypePolygon:
		out.Coordinates = positionRings(g.Rings, g.HasZ)
	case TypeMultiPoint:
		out.Coordinates = positions(g.Points, g.HasZ)
	case TypeMultiLineString:
		out.Coordinates = positionRings(g.Lines, g.HasZ)
	case TypeMultiPolygon:
		polys := make([][][][]float64, len(g.Polygons))
		for i, rings := range g.Polygons {
			polys[i] = positionRings(rings, g.HasZ)
		}
		out.Coordinates = polys
	case TypeGeometryCollection:
		out.Geometries = make([]GeoJSON, len(g.Geometries))
		for i, sub := range g.Geometries {
			out.Geometries[i] = sub.GeoJSON()
		}
	}
	return out
}

func position(v Vec3, hasZ bool) []float64 {
	if hasZ {
		return []float64{v.X, v.Y, v.Z}
	}
	return []float64{v.X, v.Y}
}

func positions(vs []Vec3, hasZ bool) [][]float64 {
	out := make([][]float64, len(vs))
	for i, v := range vs {
		out[i] = position(v, hasZ)
	}
	return out
}

func positionRings(rings [][]Vec3, hasZ bool) [][][]float64 {
	out := make([][][]float64, len(rings))
	for i, r := range rings {
		out[i] = positions(r, hasZ)
	}
	return out
}
