package adcs

import (
	"fmt"
	"math"
)

const (
	deg2rad = math.Pi / 180
)

// Vector3 is a 3x1 column vector.
type Vector3 [3]float64

// Norm returns the Euclidean norm of v.
func (v Vector3) Norm() float64 {
	return math.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
}

// Unit returns the unit vector of v. The second return value is false, and v is returned
// unchanged, when v has a zero norm.
func (v Vector3) Unit() (Vector3, bool) {
	n := v.Norm()
	if n == 0 {
		return v, false
	}
	return v.Scale(1 / n), true
}

// Normalize scales v to unit length in place and returns false if v has a zero norm (in which
// case v is left untouched).
func (v *Vector3) Normalize() bool {
	u, ok := v.Unit()
	if ok {
		*v = u
	}
	return ok
}

// Dot performs the inner product over all three components.
func (v Vector3) Dot(o Vector3) float64 {
	return v[0]*o[0] + v[1]*o[1] + v[2]*o[2]
}

// Cross performs the right handed cross product v x o.
func (v Vector3) Cross(o Vector3) Vector3 {
	return Vector3{v[1]*o[2] - v[2]*o[1],
		v[2]*o[0] - v[0]*o[2],
		v[0]*o[1] - v[1]*o[0]}
}

// Angle returns the angle in radians between v and o.
// It is NaN if either vector is zero.
func (v Vector3) Angle(o Vector3) float64 {
	c := v.Dot(o) / (v.Norm() * o.Norm())
	// Rounding may push the cosine slightly outside of [-1, 1].
	return math.Acos(math.Max(-1, math.Min(1, c)))
}

// Add returns v + o.
func (v Vector3) Add(o Vector3) Vector3 {
	return Vector3{v[0] + o[0], v[1] + o[1], v[2] + o[2]}
}

// Sub returns v - o.
func (v Vector3) Sub(o Vector3) Vector3 {
	return Vector3{v[0] - o[0], v[1] - o[1], v[2] - o[2]}
}

// Scale returns a*v.
func (v Vector3) Scale(a float64) Vector3 {
	return Vector3{a * v[0], a * v[1], a * v[2]}
}

func (v Vector3) String() string {
	return fmt.Sprintf("[%.6f %.6f %.6f]", v[0], v[1], v[2])
}

// Deg2rad converts degrees to radians, and enforced only positive numbers.
func Deg2rad(a float64) float64 {
	if a < 0 {
		a += 360
	}
	return math.Mod(a*deg2rad, 2*math.Pi)
}

// Rad2deg converts radians to degrees, and enforced only positive numbers.
func Rad2deg(a float64) float64 {
	if a < 0 {
		a += 2 * math.Pi
	}
	return math.Mod(a/deg2rad, 360)
}

// Rad2deg180 converts radians to degrees in the ]-180;180] range.
func Rad2deg180(a float64) float64 {
	d := Rad2deg(a)
	if d > 180 {
		d -= 360
	}
	return d
}
