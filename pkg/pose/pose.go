// Package pose provides rigid camera-space transforms, camera intrinsics and
// planar marker pose estimation.
package pose

import (
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"
)

// Pose is a 3x4 [R|t] transform from marker space to camera space.
// Camera convention: X right, Y down, Z forward (OpenCV).
type Pose [3][4]float64

// Identity returns the identity transform.
func Identity() Pose {
	return Pose{
		{1, 0, 0, 0},
		{0, 1, 0, 0},
		{0, 0, 1, 0},
	}
}

// FromRT builds a pose from a 3x3 rotation and a translation.
func FromRT(r mat.Matrix, t r3.Vector) Pose {
	var p Pose
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			p[i][j] = r.At(i, j)
		}
	}
	p[0][3], p[1][3], p[2][3] = t.X, t.Y, t.Z
	return p
}

// Rotation returns the 3x3 rotation block.
func (p Pose) Rotation() *mat.Dense {
	r := mat.NewDense(3, 3, nil)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			r.Set(i, j, p[i][j])
		}
	}
	return r
}

// Translation returns the translation column.
func (p Pose) Translation() r3.Vector {
	return r3.Vector{X: p[0][3], Y: p[1][3], Z: p[2][3]}
}

// Apply transforms a marker-space point into camera space.
func (p Pose) Apply(v r3.Vector) r3.Vector {
	return r3.Vector{
		X: p[0][0]*v.X + p[0][1]*v.Y + p[0][2]*v.Z + p[0][3],
		Y: p[1][0]*v.X + p[1][1]*v.Y + p[1][2]*v.Z + p[1][3],
		Z: p[2][0]*v.X + p[2][1]*v.Y + p[2][2]*v.Z + p[2][3],
	}
}

// Mat4 returns the pose as a homogeneous 4x4 matrix.
func (p Pose) Mat4() Mat4 {
	return Mat4{
		p[0][0], p[0][1], p[0][2], p[0][3],
		p[1][0], p[1][1], p[1][2], p[1][3],
		p[2][0], p[2][1], p[2][2], p[2][3],
		0, 0, 0, 1,
	}
}

// IsRotation reports whether the rotation block is orthonormal with det +1.
func (p Pose) IsRotation(tol float64) bool {
	r := p.Rotation()
	if math.Abs(mat.Det(r)-1) > tol {
		return false
	}
	var rrt mat.Dense
	rrt.Mul(r, r.T())
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			want := 0.0
			if i == j {
				want = 1
			}
			if math.Abs(rrt.At(i, j)-want) > tol {
				return false
			}
		}
	}
	return true
}

// Mat4 is a row-major homogeneous 4x4 matrix.
type Mat4 [16]float64

// Identity4 returns the 4x4 identity.
func Identity4() Mat4 {
	return Mat4{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

func (m Mat4) dense() *mat.Dense {
	data := make([]float64, 16)
	copy(data, m[:])
	return mat.NewDense(4, 4, data)
}

// Mul returns m * o.
func (m Mat4) Mul(o Mat4) Mat4 {
	var d mat.Dense
	d.Mul(m.dense(), o.dense())
	var out Mat4
	copy(out[:], d.RawMatrix().Data)
	return out
}

// Apply transforms a point with an implicit w = 1 and divides by the resulting w.
func (m Mat4) Apply(v r3.Vector) r3.Vector {
	x := m[0]*v.X + m[1]*v.Y + m[2]*v.Z + m[3]
	y := m[4]*v.X + m[5]*v.Y + m[6]*v.Z + m[7]
	z := m[8]*v.X + m[9]*v.Y + m[10]*v.Z + m[11]
	w := m[12]*v.X + m[13]*v.Y + m[14]*v.Z + m[15]
	if w != 0 && w != 1 {
		return r3.Vector{X: x / w, Y: y / w, Z: z / w}
	}
	return r3.Vector{X: x, Y: y, Z: z}
}

// ColumnMajor returns the matrix in OpenGL memory order.
func (m Mat4) ColumnMajor() [16]float64 {
	var out [16]float64
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			out[c*4+r] = m[r*4+c]
		}
	}
	return out
}

// Scale4 returns a uniform scale matrix.
func Scale4(s float64) Mat4 {
	return Mat4{
		s, 0, 0, 0,
		0, s, 0, 0,
		0, 0, s, 0,
		0, 0, 0, 1,
	}
}

// Translate4 returns a translation matrix.
func Translate4(x, y, z float64) Mat4 {
	return Mat4{
		1, 0, 0, x,
		0, 1, 0, y,
		0, 0, 1, z,
		0, 0, 0, 1,
	}
}

// RotateX4 returns a rotation about X by deg degrees.
func RotateX4(deg float64) Mat4 {
	s, c := math.Sincos(deg * math.Pi / 180)
	return Mat4{
		1, 0, 0, 0,
		0, c, -s, 0,
		0, s, c, 0,
		0, 0, 0, 1,
	}
}

// RotateY4 returns a rotation about Y by deg degrees.
func RotateY4(deg float64) Mat4 {
	s, c := math.Sincos(deg * math.Pi / 180)
	return Mat4{
		c, 0, s, 0,
		0, 1, 0, 0,
		-s, 0, c, 0,
		0, 0, 0, 1,
	}
}

// RotateZ4 returns a rotation about Z by deg degrees.
func RotateZ4(deg float64) Mat4 {
	s, c := math.Sincos(deg * math.Pi / 180)
	return Mat4{
		c, -s, 0, 0,
		s, c, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// orthonormalize returns the rotation nearest to m in the Frobenius sense.
func orthonormalize(m mat.Matrix) *mat.Dense {
	var svd mat.SVD
	if !svd.Factorize(m, mat.SVDFull) {
		return Identity().Rotation()
	}
	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)

	var r mat.Dense
	r.Mul(&u, v.T())
	if mat.Det(&r) < 0 {
		for i := 0; i < 3; i++ {
			u.Set(i, 2, -u.At(i, 2))
		}
		r.Mul(&u, v.T())
	}
	return &r
}

// FromMat4 takes the top three rows of a homogeneous matrix.
func FromMat4(m Mat4) Pose {
	return Pose{
		{m[0], m[1], m[2], m[3]},
		{m[4], m[5], m[6], m[7]},
		{m[8], m[9], m[10], m[11]},
	}
}
