package geom

import (
	"strconv"
	"strings"
)

// WKT renders g as Well-Known Text. Geometries flagged HasZ emit the
// three-coordinate form ("POINT Z (...)").
func (g Geometry) WKT() string {
	var sb strings.Builder
	g.writeWKT(&sb)
	return sb.String()
}

func (g Geometry) writeWKT(sb *strings.Builder) {
	z := ""
	if g.HasZ {
		z = " Z"
	}
	switch g.Type {
	case TypePoint:
		sb.WriteString("POINT" + z + " (")
		writeCoord(sb, g.Point, g.HasZ)
		sb.WriteByte(')')
	case TypeLineString:
		sb.WriteString("LINESTRING" + z + " ")
		writeCoordSeq(sb, g.Line, g.HasZ)
	case TypePolygon:
		sb.WriteString("POLYGON" + z + " (")
		for i, ring := range g.Rings {
			if i > 0 {
				sb.WriteString(", ")
			}
			writeCoordSeq(sb, ring, g.HasZ)
		}
		sb.WriteByte(')')
	case TypeMultiPoint:
		sb.WriteString("MULTIPOINT" + z + " (")
		for i, p := range g.Points {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteByte('(')
			writeCoord(sb, p, g.HasZ)
			sb.WriteByte(')')
		}
		sb.WriteByte(')')
	case TypeMultiLineString:
		sb.WriteString("MULTILINESTRING" + z + " (")
		for i, line := range g.Lines {
			if i > 0 {
				sb.WriteString(", ")
			}
			writeCoordSeq(sb, line, g.HasZ)
		}
		sb.WriteByte(')')
	case TypeMultiPolygon:
		sb.WriteString("MULTIPOLYGON" + z + " (")
		for i, rings := range g.Polygons {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteByte('(')
			for j, ring := range rings {
				if j > 0 {
					sb.WriteString(", ")
				}
				writeCoordSeq(sb, ring, g.HasZ)
			}
			sb.WriteByte(')')
		}
		sb.WriteByte(')')
	case TypeGeometryCollection:
		sb.WriteString("GEOMETRYCOLLECTION" + z + " (")
		for i, sub := range g.Geometries {
			if i > 0 {
				sb.WriteString(", ")
			}
			sub.writeWKT(sb)
		}
		sb.WriteByte(')')
	}
}

func writeCoordSeq(sb *strings.Builder, vs []Vec3, hasZ bool) {
	sb.WriteByte('(')
	for i, v := range vs {
		if i > 0 {
			sb.WriteString(", ")
		}
		writeCoord(sb, v, hasZ)
	}
	sb.WriteByte(')')
}

func writeCoord(sb *strings.Builder, v Vec3, hasZ bool) {
	sb.WriteString(formatFloat(v.X))
	sb.WriteByte(' ')
	sb.WriteString(formatFloat(v.Y))
	if hasZ {
		sb.WriteByte(' ')
		sb.WriteString(formatFloat(v.Z))
	}
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
