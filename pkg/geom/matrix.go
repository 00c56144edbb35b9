package geom

import "math"

// Mat4 is a 4×4 homogeneous transform in row-major order. It is composed
// transiently during block expansion and never persisted.
type Mat4 [4][4]float64

// Identity returns the identity transform.
func Identity() Mat4 {
	return Mat4{
		{1, 0, 0, 0},
		{0, 1, 0, 0},
		{0, 0, 1, 0},
		{0, 0, 0, 1},
	}
}

// Translate returns a translation by (x, y, z).
func Translate(x, y, z float64) Mat4 {
	m := Identity()
	m[0][3] = x
	m[1][3] = y
	m[2][3] = z
	return m
}

// ScaleXYZ returns a non-uniform scale about the origin. Zero components
// are treated as 1 so that a missing DXF scale group code leaves the axis
// untouched.
func ScaleXYZ(x, y, z float64) Mat4 {
	if x == 0 {
		x = 1
	}
	if y == 0 {
		y = 1
	}
	if z == 0 {
		z = 1
	}
	m := Identity()
	m[0][0] = x
	m[1][1] = y
	m[2][2] = z
	return m
}

// RotateZ returns a rotation about the Z axis by the given angle in
// degrees, counterclockwise as seen from +Z (the DXF convention for
// INSERT group code 50).
func RotateZ(degrees float64) Mat4 {
	rad := degrees * math.Pi / 180
	sin, cos := math.Sincos(rad)
	m := Identity()
	m[0][0] = cos
	m[0][1] = -sin
	m[1][0] = sin
	m[1][1] = cos
	return m
}

// Mul returns m·o, so that (m.Mul(o)).Apply(v) == m.Apply(o.Apply(v)).
func (m Mat4) Mul(o Mat4) Mat4 {
	var out Mat4
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			var sum float64
			for k := 0; k < 4; k++ {
				sum += m[i][k] * o[k][j]
			}
			out[i][j] = sum
		}
	}
	return out
}

// Apply transforms v as a position (w = 1).
func (m Mat4) Apply(v Vec3) Vec3 {
	return Vec3{
		X: m[0][0]*v.X + m[0][1]*v.Y + m[0][2]*v.Z + m[0][3],
		Y: m[1][0]*v.X + m[1][1]*v.Y + m[1][2]*v.Z + m[1][3],
		Z: m[2][0]*v.X + m[2][1]*v.Y + m[2][2]*v.Z + m[2][3],
	}
}

// InsertTransform composes the standard block-insertion transform:
// scale about the block origin, rotate about Z, then translate to the
// insertion point.
func InsertTransform(insertion Vec3, rotationDeg float64, scale Vec3) Mat4 {
	return Translate(insertion.X, insertion.Y, insertion.Z).
		Mul(RotateZ(rotationDeg)).
		Mul(ScaleXYZ(scale.X, scale.Y, scale.Z))
}
