package adcs

import (
	"fmt"
	"math"
)

// Quaternion stores the vector part first and the scalar part last: [q1 q2 q3 q4], q4 = cos(θ/2).
// An attitude quaternion rotates the inertial frame into the body frame and must be of unit norm;
// normalization is never implicit, see Unit and Normalize.
type Quaternion [4]float64

// IdentityQuaternion returns [0 0 0 1].
func IdentityQuaternion() Quaternion {
	return Quaternion{0, 0, 0, 1}
}

// NewQuaternion returns the quaternion with vector part v and scalar part s.
func NewQuaternion(v Vector3, s float64) Quaternion {
	return Quaternion{v[0], v[1], v[2], s}
}

// ExpMap returns the quaternion of the rotation vector θ*axis, i.e. [sin(θ/2)*axis, cos(θ/2)].
// It integrates a constant angular velocity ω over dt when given ω*dt. A zero rotation vector
// returns the identity.
func ExpMap(rot Vector3) Quaternion {
	θ := rot.Norm()
	if θ == 0 {
		return IdentityQuaternion()
	}
	axis := rot.Scale(1 / θ)
	s, c := math.Sincos(θ / 2)
	return NewQuaternion(axis.Scale(s), c)
}

// Vec returns the vector part.
func (q Quaternion) Vec() Vector3 {
	return Vector3{q[0], q[1], q[2]}
}

// Scalar returns the scalar part.
func (q Quaternion) Scalar() float64 {
	return q[3]
}

// Mul returns the Hamilton product q*r. With q rotating inertial to body, q.Mul(dq) applies the
// body frame increment dq after q.
func (q Quaternion) Mul(r Quaternion) Quaternion {
	return Quaternion{
		q[3]*r[0] - q[2]*r[1] + q[1]*r[2] + q[0]*r[3],
		q[2]*r[0] + q[3]*r[1] - q[0]*r[2] + q[1]*r[3],
		-q[1]*r[0] + q[0]*r[1] + q[3]*r[2] + q[2]*r[3],
		-q[0]*r[0] - q[1]*r[1] - q[2]*r[2] + q[3]*r[3],
	}
}

// Norm returns the quaternion norm.
func (q Quaternion) Norm() float64 {
	return math.Sqrt(q[0]*q[0] + q[1]*q[1] + q[2]*q[2] + q[3]*q[3])
}

// Unit returns q scaled to unit norm, or q itself if it is the zero quaternion.
func (q Quaternion) Unit() Quaternion {
	n := q.Norm()
	if n == 0 {
		return q
	}
	n = 1 / n
	return Quaternion{q[0] * n, q[1] * n, q[2] * n, q[3] * n}
}

// Normalize scales q to unit norm in place (no-op on the zero quaternion).
func (q *Quaternion) Normalize() {
	*q = q.Unit()
}

// Conj returns the conjugate of q.
func (q Quaternion) Conj() Quaternion {
	return Quaternion{-q[0], -q[1], -q[2], q[3]}
}

// Inverse returns the conjugate of the normalized q. This is the inverse rotation; for non unit
// quaternions it is *not* the algebraic inverse.
func (q Quaternion) Inverse() Quaternion {
	return q.Unit().Conj()
}

// DCM returns the direction cosine matrix of q, which converts inertial frame components into body
// frame components. It is orthonormal only if q has a unit norm.
func (q Quaternion) DCM() Matrix3 {
	q1, q2, q3, q4 := q[0], q[1], q[2], q[3]
	return Matrix3{
		{q1*q1 - q2*q2 - q3*q3 + q4*q4, 2 * (q1*q2 + q3*q4), 2 * (q1*q3 - q2*q4)},
		{2 * (q1*q2 - q3*q4), -q1*q1 + q2*q2 - q3*q3 + q4*q4, 2 * (q2*q3 + q1*q4)},
		{2 * (q1*q3 + q2*q4), 2 * (q2*q3 - q1*q4), -q1*q1 - q2*q2 + q3*q3 + q4*q4},
	}
}

// Rotate converts v from the frame q rotates from into the frame q rotates to.
func (q Quaternion) Rotate(v Vector3) Vector3 {
	return q.DCM().MulVec(v)
}

// Angle returns the angle in radians of the rotation between q and r (both unit).
func (q Quaternion) Angle(r Quaternion) float64 {
	d := math.Abs(q[0]*r[0] + q[1]*r[1] + q[2]*r[2] + q[3]*r[3])
	return 2 * math.Acos(math.Min(1, d))
}

// ErrorVector returns the small rotation vector δθ such that q.Mul(ExpMap(δθ)) ≈ r.
func (q Quaternion) ErrorVector(r Quaternion) Vector3 {
	dq := q.Conj().Mul(r)
	if dq[3] < 0 {
		// Same rotation, shortest path.
		dq = Quaternion{-dq[0], -dq[1], -dq[2], -dq[3]}
	}
	return dq.Vec().Scale(2)
}

// FromEuler321 returns the attitude quaternion of the yaw (3), pitch (2), roll (1) sequence.
// All angles in radians.
func FromEuler321(yaw, pitch, roll float64) Quaternion {
	return ExpMap(Vector3{0, 0, yaw}).Mul(ExpMap(Vector3{0, pitch, 0})).Mul(ExpMap(Vector3{roll, 0, 0}))
}

// Euler321 returns the yaw, pitch and roll angles (in radians) of q.
func (q Quaternion) Euler321() (yaw, pitch, roll float64) {
	m := q.DCM()
	yaw = math.Atan2(m[0][1], m[0][0])
	pitch = -math.Asin(math.Max(-1, math.Min(1, m[0][2])))
	roll = math.Atan2(m[1][2], m[2][2])
	return
}

func (q Quaternion) String() string {
	return fmt.Sprintf("[%.6f %.6f %.6f | %.6f]", q[0], q[1], q[2], q[3])
}
