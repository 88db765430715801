package adcs

import (
	"fmt"
	"math"

	"github.com/gonum/floats"
	"github.com/gonum/matrix/mat64"
)

const (
	// SingularityThreshold is the smallest determinant magnitude Inverse accepts.
	SingularityThreshold = 1e-25
	// MaxDim is the largest row or column count of a Matrix.
	MaxDim = 6
)

/* Fixed 3x3 matrices */

// Matrix3 is a 3x3 matrix accessed as m[row][col].
type Matrix3 [3][3]float64

// Identity3 returns the 3x3 identity.
func Identity3() Matrix3 {
	return Diag3(1, 1, 1)
}

// Diag3 returns diag(a, b, c).
func Diag3(a, b, c float64) Matrix3 {
	return Matrix3{{a, 0, 0}, {0, b, 0}, {0, 0, c}}
}

// Skew returns the skew symmetric matrix of v, such that Skew(v).MulVec(x) = v x x.
func Skew(v Vector3) Matrix3 {
	return Matrix3{{0, -v[2], v[1]},
		{v[2], 0, -v[0]},
		{-v[1], v[0], 0}}
}

// Mul returns m*o.
func (m Matrix3) Mul(o Matrix3) (r Matrix3) {
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			r[i][j] = m[i][0]*o[0][j] + m[i][1]*o[1][j] + m[i][2]*o[2][j]
		}
	}
	return
}

// MulVec returns m*v.
func (m Matrix3) MulVec(v Vector3) Vector3 {
	return Vector3{m[0][0]*v[0] + m[0][1]*v[1] + m[0][2]*v[2],
		m[1][0]*v[0] + m[1][1]*v[1] + m[1][2]*v[2],
		m[2][0]*v[0] + m[2][1]*v[1] + m[2][2]*v[2]}
}

// T returns the transpose of m.
func (m Matrix3) T() (r Matrix3) {
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			r[j][i] = m[i][j]
		}
	}
	return
}

// Add returns m+o.
func (m Matrix3) Add(o Matrix3) (r Matrix3) {
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			r[i][j] = m[i][j] + o[i][j]
		}
	}
	return
}

// Scale returns a*m.
func (m Matrix3) Scale(a float64) (r Matrix3) {
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			r[i][j] = a * m[i][j]
		}
	}
	return
}

// Trace returns the sum of the diagonal.
func (m Matrix3) Trace() float64 {
	return m[0][0] + m[1][1] + m[2][2]
}

// Det returns the determinant of m, expanded along the first row.
func (m Matrix3) Det() float64 {
	A, B, C := m.firstRowCofactors()
	return m[0][0]*A + m[0][1]*B + m[0][2]*C
}

func (m Matrix3) firstRowCofactors() (A, B, C float64) {
	A = m[1][1]*m[2][2] - m[1][2]*m[2][1]
	B = -(m[1][0]*m[2][2] - m[1][2]*m[2][0])
	C = m[1][0]*m[2][1] - m[1][1]*m[2][0]
	return
}

// Inverse returns the inverse of m computed from its adjugate. ErrSingularMatrix is returned
// (with a zero matrix) if |det(m)| < SingularityThreshold.
func (m Matrix3) Inverse() (Matrix3, error) {
	a, b, c := m[0][0], m[0][1], m[0][2]
	d, e, f := m[1][0], m[1][1], m[1][2]
	g, h, i := m[2][0], m[2][1], m[2][2]

	A, B, C := m.firstRowCofactors()
	D := -(b*i - c*h)
	E := a*i - c*g
	F := -(a*h - b*g)
	G := b*f - c*e
	H := -(a*f - c*d)
	I := a*e - b*d

	det := a*A + b*B + c*C
	if math.Abs(det) < SingularityThreshold || math.IsNaN(det) {
		return Matrix3{}, ErrSingularMatrix
	}
	// Adjugate is the transposed cofactor matrix.
	return Matrix3{{A / det, D / det, G / det},
		{B / det, E / det, H / det},
		{C / det, F / det, I / det}}, nil
}

// Dense returns m as a mat64.Dense.
func (m Matrix3) Dense() *mat64.Dense {
	return mat64.NewDense(3, 3, []float64{m[0][0], m[0][1], m[0][2],
		m[1][0], m[1][1], m[1][2],
		m[2][0], m[2][1], m[2][2]})
}

/* Generic block matrices */

// Matrix is a small row-major matrix whose dimensions are set at construction time. Storage is a
// fixed array so that values can live on the stack; at most MaxDim rows and columns.
type Matrix struct {
	r, c int
	data [MaxDim * MaxDim]float64
}

// NewMatrix returns a zero r x c matrix. It panics if either dimension is outside [1, MaxDim].
func NewMatrix(r, c int) Matrix {
	if r < 1 || c < 1 || r > MaxDim || c > MaxDim {
		panic(fmt.Errorf("matrix dimensions %dx%d outside of [1, %d]", r, c, MaxDim))
	}
	return Matrix{r: r, c: c}
}

// Identity returns the n x n identity matrix.
func Identity(n int) Matrix {
	return ScaledIdentity(n, 1)
}

// ScaledIdentity returns s*I(n).
func ScaledIdentity(n int, s float64) Matrix {
	m := NewMatrix(n, n)
	for i := 0; i < n; i++ {
		m.data[i*n+i] = s
	}
	return m
}

// ColVector returns v as a 3x1 matrix.
func ColVector(v Vector3) Matrix {
	m := NewMatrix(3, 1)
	copy(m.data[:3], v[:])
	return m
}

// Dims returns the number of rows and columns.
func (m Matrix) Dims() (r, c int) {
	return m.r, m.c
}

// At returns the element at row i and column j.
func (m Matrix) At(i, j int) float64 {
	m.checkIndex(i, j)
	return m.data[i*m.c+j]
}

// Set sets the element at row i and column j.
func (m *Matrix) Set(i, j int, v float64) {
	m.checkIndex(i, j)
	m.data[i*m.c+j] = v
}

func (m Matrix) checkIndex(i, j int) {
	if i < 0 || j < 0 || i >= m.r || j >= m.c {
		panic(fmt.Errorf("index (%d, %d) out of %dx%d matrix", i, j, m.r, m.c))
	}
}

// Mul returns m*o. It panics if the inner dimensions differ.
func (m Matrix) Mul(o Matrix) Matrix {
	if m.c != o.r {
		panic(fmt.Errorf("cannot multiply %dx%d by %dx%d", m.r, m.c, o.r, o.c))
	}
	res := NewMatrix(m.r, o.c)
	for i := 0; i < m.r; i++ {
		for k := 0; k < o.c; k++ {
			var sum float64
			for j := 0; j < m.c; j++ {
				sum += m.data[i*m.c+j] * o.data[j*o.c+k]
			}
			res.data[i*o.c+k] = sum
		}
	}
	return res
}

// T returns the transpose of m.
func (m Matrix) T() Matrix {
	res := NewMatrix(m.c, m.r)
	for i := 0; i < m.r; i++ {
		for j := 0; j < m.c; j++ {
			res.data[j*m.r+i] = m.data[i*m.c+j]
		}
	}
	return res
}

// Scale returns a*m.
func (m Matrix) Scale(a float64) Matrix {
	res := m
	for i := 0; i < m.r*m.c; i++ {
		res.data[i] *= a
	}
	return res
}

// Add returns m+o.
func (m Matrix) Add(o Matrix) Matrix {
	m.checkSameDims(o)
	res := m
	for i := 0; i < m.r*m.c; i++ {
		res.data[i] += o.data[i]
	}
	return res
}

// Sub returns m-o.
func (m Matrix) Sub(o Matrix) Matrix {
	return m.Add(o.Scale(-1))
}

func (m Matrix) checkSameDims(o Matrix) {
	if m.r != o.r || m.c != o.c {
		panic(fmt.Errorf("dimension mismatch %dx%d vs %dx%d", m.r, m.c, o.r, o.c))
	}
}

// CopyBlock writes src into m with its top left corner at (i, j). The rest of m is untouched.
func (m *Matrix) CopyBlock(src Matrix, i, j int) {
	if i < 0 || j < 0 || i+src.r > m.r || j+src.c > m.c {
		panic(fmt.Errorf("%dx%d block at (%d, %d) does not fit in %dx%d", src.r, src.c, i, j, m.r, m.c))
	}
	for si := 0; si < src.r; si++ {
		for sj := 0; sj < src.c; sj++ {
			m.data[(si+i)*m.c+sj+j] = src.data[si*src.c+sj]
		}
	}
}

// SetBlock3 writes the 3x3 block b at (i, j).
func (m *Matrix) SetBlock3(i, j int, b Matrix3) {
	m.CopyBlock(FromMatrix3(b), i, j)
}

// Block3 returns the 3x3 block of m whose top left corner is (i, j).
func (m Matrix) Block3(i, j int) (b Matrix3) {
	for bi := 0; bi < 3; bi++ {
		for bj := 0; bj < 3; bj++ {
			b[bi][bj] = m.At(i+bi, j+bj)
		}
	}
	return
}

// Col3 returns three elements of column j starting at row i.
func (m Matrix) Col3(i, j int) Vector3 {
	return Vector3{m.At(i, j), m.At(i+1, j), m.At(i+2, j)}
}

// FromMatrix3 returns b as a 3x3 Matrix.
func FromMatrix3(b Matrix3) Matrix {
	m := NewMatrix(3, 3)
	for i := 0; i < 3; i++ {
		copy(m.data[i*3:i*3+3], b[i][:])
	}
	return m
}

// Trace returns the sum of the diagonal.
func (m Matrix) Trace() (t float64) {
	n := m.r
	if m.c < n {
		n = m.c
	}
	for i := 0; i < n; i++ {
		t += m.data[i*m.c+i]
	}
	return
}

// IsSymmetric returns whether m is square and symmetric within tol.
func (m Matrix) IsSymmetric(tol float64) bool {
	if m.r != m.c {
		return false
	}
	for i := 0; i < m.r; i++ {
		for j := i + 1; j < m.c; j++ {
			if !floats.EqualWithinAbs(m.data[i*m.c+j], m.data[j*m.c+i], tol) {
				return false
			}
		}
	}
	return true
}

// EqualApprox returns whether m and o have the same dimensions and all elements within tol.
func (m Matrix) EqualApprox(o Matrix, tol float64) bool {
	if m.r != o.r || m.c != o.c {
		return false
	}
	return floats.EqualApprox(m.data[:m.r*m.c], o.data[:o.r*o.c], tol)
}

// Dense returns a copy of m as a mat64.Dense.
func (m Matrix) Dense() *mat64.Dense {
	data := make([]float64, m.r*m.c)
	copy(data, m.data[:m.r*m.c])
	return mat64.NewDense(m.r, m.c, data)
}

// SymDense returns the symmetric part of a square m, (m+mT)/2, as a mat64.SymDense.
func (m Matrix) SymDense() *mat64.SymDense {
	if m.r != m.c {
		panic(fmt.Errorf("%dx%d matrix is not square", m.r, m.c))
	}
	s := mat64.NewSymDense(m.r, nil)
	for i := 0; i < m.r; i++ {
		for j := i; j < m.c; j++ {
			s.SetSym(i, j, 0.5*(m.data[i*m.c+j]+m.data[j*m.c+i]))
		}
	}
	return s
}

func (m Matrix) String() string {
	return fmt.Sprintf("%v", mat64.Formatted(m.Dense(), mat64.Prefix("  ")))
}
