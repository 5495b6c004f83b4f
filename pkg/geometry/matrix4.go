package geometry

import "math"

// Matrix4 is a 4x4 affine transform stored in column-major order,
// the same layout glTF uses for node matrices.
type Matrix4 [16]float64

// Identity4 returns the identity matrix
func Identity4() Matrix4 {
	return Matrix4{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// Translation4 returns a translation matrix
func Translation4(v Vector3) Matrix4 {
	m := Identity4()
	m[12] = v.X
	m[13] = v.Y
	m[14] = v.Z
	return m
}

// Scale4 returns a scaling matrix
func Scale4(v Vector3) Matrix4 {
	m := Identity4()
	m[0] = v.X
	m[5] = v.Y
	m[10] = v.Z
	return m
}

// Rotation4 returns the rotation matrix of the unit quaternion (x, y, z, w)
func Rotation4(x, y, z, w float64) Matrix4 {
	x2, y2, z2 := x+x, y+y, z+z
	xx, xy, xz := x*x2, x*y2, x*z2
	yy, yz, zz := y*y2, y*z2, z*z2
	wx, wy, wz := w*x2, w*y2, w*z2

	return Matrix4{
		1 - (yy + zz), xy + wz, xz - wy, 0,
		xy - wz, 1 - (xx + zz), yz + wx, 0,
		xz + wy, yz - wx, 1 - (xx + yy), 0,
		0, 0, 0, 1,
	}
}

// Compose builds translation * rotation * scale
func Compose(translation Vector3, rotation [4]float64, scale Vector3) Matrix4 {
	r := Rotation4(rotation[0], rotation[1], rotation[2], rotation[3])
	return Translation4(translation).Mul(r).Mul(Scale4(scale))
}

// Mul returns m * other
func (m Matrix4) Mul(other Matrix4) Matrix4 {
	var out Matrix4
	for col := 0; col < 4; col++ {
		for row := 0; row < 4; row++ {
			sum := 0.0
			for k := 0; k < 4; k++ {
				sum += m[k*4+row] * other[col*4+k]
			}
			out[col*4+row] = sum
		}
	}
	return out
}

// TransformPoint applies the full affine transform to a point
func (m Matrix4) TransformPoint(p Vector3) Vector3 {
	x := m[0]*p.X + m[4]*p.Y + m[8]*p.Z + m[12]
	y := m[1]*p.X + m[5]*p.Y + m[9]*p.Z + m[13]
	z := m[2]*p.X + m[6]*p.Y + m[10]*p.Z + m[14]
	w := m[3]*p.X + m[7]*p.Y + m[11]*p.Z + m[15]
	if w != 0 && w != 1 {
		return Vector3{X: x / w, Y: y / w, Z: z / w}
	}
	return Vector3{X: x, Y: y, Z: z}
}

// IsIdentity reports whether m is (numerically) the identity matrix
func (m Matrix4) IsIdentity() bool {
	id := Identity4()
	for i := range m {
		if math.Abs(m[i]-id[i]) > 1e-12 {
			return false
		}
	}
	return true
}
