// Package geom provides the fixed-size vector and matrix value types, the
// geometry union, and the WKT/GeoJSON encoders used by the conversion
// pipeline.
//
// The types here are deliberately small and dependency-free: the only
// linear algebra the pipeline needs is 3-component vectors and 4×4
// homogeneous transforms, so generic matrix libraries would be overkill.
package geom

import "math"

// Vec3 is a point or direction in drawing space. Z defaults to 0 for
// two-dimensional entities.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z,omitempty"`
}

// V2 constructs a 2D vector with Z = 0.
func V2(x, y float64) Vec3 {
	return Vec3{X: x, Y: y}
}

// V3 constructs a 3D vector.
func V3(x, y, z float64) Vec3 {
	return Vec3{X: x, Y: y, Z: z}
}

// Add returns v + o.
func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{X: v.X + o.X, Y: v.Y + o.Y, Z: v.Z + o.Z}
}

// Sub returns v - o.
func (v Vec3) Sub(o Vec3) Vec3 {
	return Vec3{X: v.X - o.X, Y: v.Y - o.Y, Z: v.Z - o.Z}
}

// Scale returns v scaled by s in every component.
func (v Vec3) Scale(s float64) Vec3 {
	return Vec3{X: v.X * s, Y: v.Y * s, Z: v.Z * s}
}

// Length returns the Euclidean norm of v.
func (v Vec3) Length() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// Angle returns the XY-plane angle of v in radians, measured
// counterclockwise from the positive X axis.
func (v Vec3) Angle() float64 {
	return math.Atan2(v.Y, v.X)
}

// Dist2D returns the XY-plane distance between v and o.
func (v Vec3) Dist2D(o Vec3) float64 {
	dx, dy := v.X-o.X, v.Y-o.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// Eq reports coordinate equality within eps on every component.
func (v Vec3) Eq(o Vec3, eps float64) bool {
	return math.Abs(v.X-o.X) <= eps && math.Abs(v.Y-o.Y) <= eps && math.Abs(v.Z-o.Z) <= eps
}
