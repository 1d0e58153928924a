// SPDX-License-Identifier: GPL-2.0-or-later

package vec

// Matrix3x4 is a row major affine transform, column 3 is the translation.
type Matrix3x4 [3][4]float32

var IdentityMatrix3x4 = Matrix3x4{
	{1, 0, 0, 0},
	{0, 1, 0, 0},
	{0, 0, 1, 0},
}

func (m Matrix3x4) Translation() Vec3 {
	return Vec3{m[0][3], m[1][3], m[2][3]}
}

// Transform applies m to the point p.
func (m Matrix3x4) Transform(p Vec3) Vec3 {
	return Vec3{
		m[0][0]*p.X + m[0][1]*p.Y + m[0][2]*p.Z + m[0][3],
		m[1][0]*p.X + m[1][1]*p.Y + m[1][2]*p.Z + m[1][3],
		m[2][0]*p.X + m[2][1]*p.Y + m[2][2]*p.Z + m[2][3],
	}
}

// ColumnMajor4x4 returns m extended to 4x4 with each inner array being one
// column, the layout glTF expects.
func (m Matrix3x4) ColumnMajor4x4() [4][4]float32 {
	var r [4][4]float32
	for c := 0; c < 4; c++ {
		r[c] = [4]float32{m[0][c], m[1][c], m[2][c], 0}
	}
	r[3][3] = 1
	return r
}
