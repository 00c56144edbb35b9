package convert

import (
	"math"

	"github.com/geofold/dxfgeo/pkg/dxf"
	"github.com/geofold/dxfgeo/pkg/geom"
)

func convertCircle(e dxf.Entity, opts Options) (Output, error) {
	c := e.(*dxf.Circle)
	if c.Radius <= 0 {
		return Output{}, invalid(c, "radius must be positive, got %g", c.Radius)
	}

	n := opts.segments()
	ring := make([]geom.Vec3, 0, n+1)
	for i := 0; i < n; i++ {
		a := 2 * math.Pi * float64(i) / float64(n)
		ring = append(ring, geom.Vec3{
			X: c.Center.X + c.Radius*math.Cos(a),
			Y: c.Center.Y + c.Radius*math.Sin(a),
			Z: c.Center.Z,
		})
	}
	return Output{Geometry: geom.NewPolygon([][]geom.Vec3{ring})}, nil
}

func convertArc(e dxf.Entity, opts Options) (Output, error) {
	a := e.(*dxf.Arc)
	if a.Radius <= 0 {
		return Output{}, invalid(a, "radius must be positive, got %g", a.Radius)
	}
	pts := arcPoints(a.Center, a.Radius, a.StartAngle, a.EndAngle, opts.segments())
	if len(pts) < 2 {
		return Output{}, invalid(a, "degenerate angular range")
	}
	return Output{Geometry: geom.NewLineString(pts)}, nil
}

// arcPoints samples a circular arc from startDeg to endDeg
// counterclockwise. An end angle at or below the start is normalized by
// adding a full turn, so an arc from 350° to 10° sweeps 20° through zero.
func arcPoints(center geom.Vec3, radius, startDeg, endDeg float64, segments int) []geom.Vec3 {
	start := startDeg * math.Pi / 180
	end := endDeg * math.Pi / 180
	for end <= start {
		end += 2 * math.Pi
	}
	sweep := end - start

	steps := int(math.Ceil(sweep / (2 * math.Pi) * float64(segments)))
	if steps < 2 {
		steps = 2
	}

	pts := make([]geom.Vec3, 0, steps+1)
	for i := 0; i <= steps; i++ {
		angle := start + sweep*float64(i)/float64(steps)
		pts = append(pts, geom.Vec3{
			X: center.X + radius*math.Cos(angle),
			Y: center.Y + radius*math.Sin(angle),
			Z: center.Z,
		})
	}
	return pts
}

func convertEllipse(e dxf.Entity, opts Options) (Output, error) {
	el := e.(*dxf.Ellipse)
	major := el.MajorAxis.Length()
	if major <= 0 {
		return Output{}, invalid(el, "major axis has zero length")
	}
	if el.Ratio <= 0 || el.Ratio > 1 {
		return Output{}, invalid(el, "axis ratio must be in (0, 1], got %g", el.Ratio)
	}

	ring := ellipsePoints(el.Center, el.MajorAxis, el.Ratio, el.StartParam, el.EndParam, opts.segments())
	if len(ring) < 3 {
		return Output{}, invalid(el, "degenerate parameter range")
	}
	return Output{Geometry: geom.NewPolygon([][]geom.Vec3{ring})}, nil
}

// ellipsePoints samples an ellipse parametrically. The major-axis vector
// supplies both the semi-major length and the rotation; ratio scales the
// minor axis. Parameters are radians; a full ellipse runs 0..2π.
func ellipsePoints(center, majorAxis geom.Vec3, ratio, startParam, endParam float64, segments int) []geom.Vec3 {
	a := majorAxis.Length()
	b := a * ratio
	rot := majorAxis.Angle()
	sinR, cosR := math.Sincos(rot)

	for endParam <= startParam {
		endParam += 2 * math.Pi
	}
	sweep := endParam - startParam

	steps := int(math.Ceil(sweep / (2 * math.Pi) * float64(segments)))
	if steps < 2 {
		steps = 2
	}

	pts := make([]geom.Vec3, 0, steps+1)
	for i := 0; i <= steps; i++ {
		t := startParam + sweep*float64(i)/float64(steps)
		// Point in the ellipse frame, then rotated by the major-axis angle.
		ex := a * math.Cos(t)
		ey := b * math.Sin(t)
		pts = append(pts, geom.Vec3{
			X: center.X + ex*cosR - ey*sinR,
			Y: center.Y + ex*sinR + ey*cosR,
			Z: center.Z,
		})
	}
	return pts
}
