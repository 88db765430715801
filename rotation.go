package adcs

import "math"

// R1 rotation about the 1st axis.
func R1(x float64) Matrix3 {
	s, c := math.Sincos(x)
	return Matrix3{{1, 0, 0}, {0, c, s}, {0, -s, c}}
}

// R2 rotation about the 2nd axis.
func R2(x float64) Matrix3 {
	s, c := math.Sincos(x)
	return Matrix3{{c, 0, -s}, {0, 1, 0}, {s, 0, c}}
}

// R3 rotation about the 3rd axis.
func R3(x float64) Matrix3 {
	s, c := math.Sincos(x)
	return Matrix3{{c, s, 0}, {-s, c, 0}, {0, 0, 1}}
}

// R3R2R1 performs a 3-2-1 (yaw, pitch, roll) Euler rotation from the inertial to the body frame.
func R3R2R1(yaw, pitch, roll float64) Matrix3 {
	return R1(roll).Mul(R2(pitch)).Mul(R3(yaw))
}

// IsOrthonormal returns whether mT*m is the identity within tol.
func IsOrthonormal(m Matrix3, tol float64) bool {
	p := m.T().Mul(m)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			exp := 0.0
			if i == j {
				exp = 1
			}
			if math.Abs(p[i][j]-exp) > tol {
				return false
			}
		}
	}
	return true
}
