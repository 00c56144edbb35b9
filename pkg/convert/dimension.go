package convert

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/geofold/dxfgeo/pkg/dxf"
	"github.com/geofold/dxfgeo/pkg/geom"
)

// defaultArrowSize matches the DIMASZ default from the reference table.
const defaultArrowSize = 2.5

var (
	dimFormatRe = regexp.MustCompile(`\\[A-Za-z].*?;`)
	dimNumberRe = regexp.MustCompile(`[0-9]+(?:\.[0-9]+)?`)
)

// convertDimension builds the composite geometry of a dimension: two
// extension lines, the dimension line between their projections, an
// arrowhead at each end, and a text anchor carrying the measurement
// metadata. The pieces come back as one geometry collection.
func convertDimension(e dxf.Entity, opts Options) (Output, error) {
	d := e.(*dxf.Dimension)

	c13, c14 := extensionCorners(d)
	length := c13.Dist2D(c14)
	if length < geom.RingEps {
		return Output{}, invalid(d, "dimension line is degenerate")
	}

	parts := make([]geom.Geometry, 0, 8)

	// Extension lines from the measured points up to the dimension line.
	if d.MeasureStart.Dist2D(c13) > geom.RingEps {
		parts = append(parts, geom.NewLineString([]geom.Vec3{d.MeasureStart, c13}))
	}
	if d.MeasureEnd.Dist2D(c14) > geom.RingEps {
		parts = append(parts, geom.NewLineString([]geom.Vec3{d.MeasureEnd, c14}))
	}

	// The dimension line itself.
	parts = append(parts, geom.NewLineString([]geom.Vec3{c13, c14}))

	// Arrowheads: two short lines from each tip to its back points.
	size := defaultArrowSize
	if length < 4*size {
		size = length / 4
	}
	dir := geom.V2((c14.X-c13.X)/length, (c14.Y-c13.Y)/length)
	parts = append(parts, arrowhead(c13, dir, size)...)
	parts = append(parts, arrowhead(c14, geom.V2(-dir.X, -dir.Y), size)...)

	// Text anchor.
	parts = append(parts, geom.NewPoint(d.TextMid))

	value := measuredValue(d)
	prefix, suffix := splitOverride(d.TextOverride)
	props := map[string]any{
		"measurement": value,
		"dim_type":    d.DimType,
	}
	if d.TextOverride != "" {
		props["text_override"] = d.TextOverride
	}
	if prefix != "" {
		props["prefix"] = prefix
	}
	if suffix != "" {
		props["suffix"] = suffix
	}
	if d.StyleName != "" {
		props["style"] = d.StyleName
	}

	return Output{Geometry: geom.NewCollection(parts), Properties: props}, nil
}

// extensionCorners projects the measured points onto the dimension line
// through DefPoint at the dimension angle.
func extensionCorners(d *dxf.Dimension) (geom.Vec3, geom.Vec3) {
	rad := d.Angle * math.Pi / 180
	sin, cos := math.Sincos(rad)
	v := geom.V2(cos, sin)

	project := func(p geom.Vec3) geom.Vec3 {
		dot := (p.X-d.DefPoint.X)*v.X + (p.Y-d.DefPoint.Y)*v.Y
		return geom.V2(d.DefPoint.X+v.X*dot, d.DefPoint.Y+v.Y*dot)
	}
	return project(d.MeasureStart), project(d.MeasureEnd)
}

// arrowhead returns the two stroke lines of an arrowhead whose tip sits
// at tip and which opens along dir.
func arrowhead(tip, dir geom.Vec3, size float64) []geom.Geometry {
	const halfAngle = math.Pi / 12 // 15°
	sin, cos := math.Sin(halfAngle), math.Cos(halfAngle)

	// dir rotated by ±halfAngle, scaled to the arrow size.
	left := geom.V2(
		tip.X+size*(dir.X*cos-dir.Y*sin),
		tip.Y+size*(dir.X*sin+dir.Y*cos),
	)
	right := geom.V2(
		tip.X+size*(dir.X*cos+dir.Y*sin),
		tip.Y+size*(-dir.X*sin+dir.Y*cos),
	)
	return []geom.Geometry{
		geom.NewLineString([]geom.Vec3{tip, left}),
		geom.NewLineString([]geom.Vec3{tip, right}),
	}
}

// measuredValue prefers the recorded measurement and falls back to a
// number extracted from the override text with its formatting codes
// removed.
func measuredValue(d *dxf.Dimension) float64 {
	if d.Measurement > 0 {
		return d.Measurement
	}
	if d.TextOverride == "" {
		return d.Measurement
	}
	clean := dimFormatRe.ReplaceAllString(d.TextOverride, "")
	if m := dimNumberRe.FindString(clean); m != "" {
		if v, err := strconv.ParseFloat(m, 64); err == nil {
			return v
		}
	}
	return d.Measurement
}

// splitOverride separates the text around the "<>" measurement
// placeholder into prefix and suffix.
func splitOverride(override string) (prefix, suffix string) {
	if override == "" {
		return "", ""
	}
	before, after, found := strings.Cut(override, "<>")
	if !found {
		return "", ""
	}
	return strings.TrimSpace(before), strings.TrimSpace(after)
}
