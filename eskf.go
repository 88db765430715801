package adcs

import (
	"errors"
	"fmt"
	"math"
)

// ErrUninitialized is returned by a Filter which was not created with NewFilter.
var ErrUninitialized = errors.New("filter not initialized")

// State is the nominal state and error covariance of the attitude filter.
type State struct {
	Q  Quaternion // attitude, inertial to body
	Wb Vector3    // gyro bias estimate, rad/s
	P  Matrix     // 6x6 covariance of the error state [δθ δwb]
}

// Filter is an error state Kalman filter of the attitude and gyro bias, driven by gyro rates and
// corrected by magnetometer directions. A Filter must only be used from one goroutine at a time.
type Filter struct {
	State
	noise NoiseParams
}

// Innovation summarizes a magnetometer correction.
type Innovation struct {
	Predicted Vector3 // predicted body frame field direction
	Residual  Vector3 // measured minus predicted
	S         Matrix3 // innovation covariance
	R         Matrix3 // measurement noise used
	Dx        Matrix  // 6x1 error state [δθ δwb] injected
}

// DefaultCovariance returns the block diagonal initial covariance of the error state.
func DefaultCovariance(attitudeσ, biasσ float64) Matrix {
	P := NewMatrix(6, 6)
	a := attitudeσ * attitudeσ
	b := biasσ * biasσ
	P.SetBlock3(0, 0, Diag3(a, a, a))
	P.SetBlock3(3, 3, Diag3(b, b, b))
	return P
}

// NewFilter returns a filter at the identity attitude with a zero bias and the provided 6x6 initial
// covariance.
func NewFilter(noise NoiseParams, P0 Matrix) *Filter {
	if r, c := P0.Dims(); r != 6 || c != 6 {
		panic(fmt.Errorf("initial covariance must be 6x6, got %dx%d", r, c))
	}
	return &Filter{State{IdentityQuaternion(), Vector3{}, P0}, noise}
}

// Noise returns the noise parameters of the filter.
func (f *Filter) Noise() NoiseParams {
	return f.noise
}

func (f *Filter) ready() bool {
	r, c := f.P.Dims()
	return r == 6 && c == 6
}

// Propagate integrates the body rate ω (rad/s) over dt seconds: q <- q*exp(ω*dt) and
// P <- F*P*FT + Q. The rate is used as is, bias compensation is the caller's job.
func (f *Filter) Propagate(ω Vector3, dt float64) error {
	if !f.ready() {
		return ErrUninitialized
	}
	dq := ExpMap(ω.Scale(dt))
	F := Transition(dq, dt)
	P := F.Mul(f.P).Mul(F.T()).Add(f.noise.ProcessNoise(dt))

	f.Q = f.Q.Mul(dq)
	f.P = symmetrize(P)
	return nil
}

// Transition returns the 6x6 error state Jacobian of a propagation step with increment dq:
// [DCM(dq)T -dt*I3; 0 I3].
func Transition(dq Quaternion, dt float64) Matrix {
	F := NewMatrix(6, 6)
	F.SetBlock3(0, 0, dq.DCM().T())
	F.SetBlock3(0, 3, Diag3(-dt, -dt, -dt))
	F.SetBlock3(3, 3, Identity3())
	return F
}

// MeasurementJacobian returns the 3x6 Jacobian [Skew(magBody) 0] of the body field direction.
func MeasurementJacobian(magBody Vector3) Matrix {
	H := NewMatrix(3, 6)
	H.SetBlock3(0, 0, Skew(magBody))
	return H
}

// Correct updates the state from a magnetometer direction measured in the body frame (unit norm)
// and the reference field in the inertial frame, using R = std_rn_mag²*I3.
func (f *Filter) Correct(magSensor, magInertial Vector3) (Innovation, error) {
	return f.CorrectWithNoise(magSensor, magInertial, f.noise.MeasurementNoise())
}

// CorrectWithNoise is Correct with a caller provided measurement noise R.
// ErrDegenerateReference is returned if magInertial is zero and ErrSingularMatrix if the innovation
// covariance cannot be inverted; in both cases the state is left untouched.
func (f *Filter) CorrectWithNoise(magSensor, magInertial Vector3, R Matrix3) (Innovation, error) {
	var inno Innovation
	if !f.ready() {
		return inno, ErrUninitialized
	}
	ref, ok := magInertial.Unit()
	if !ok {
		return inno, ErrDegenerateReference
	}
	magBody := f.Q.DCM().MulVec(ref)
	H := MeasurementJacobian(magBody)
	y := magSensor.Sub(magBody)

	PHt := f.P.Mul(H.T())
	S := H.Mul(PHt).Block3(0, 0).Add(R)
	SI, err := S.Inverse()
	if err != nil {
		return inno, err
	}
	K := PHt.Mul(FromMatrix3(SI))
	dx := K.Mul(ColVector(y))
	for i := 0; i < 6; i++ {
		if v := dx.At(i, 0); math.IsNaN(v) || math.IsInf(v, 0) {
			return inno, ErrSingularMatrix
		}
	}

	// Injection of the observed error into the nominal state.
	dθ := dx.Col3(0, 0)
	dwb := dx.Col3(3, 0)
	f.Q = f.Q.Mul(ExpMap(dθ)).Unit()
	f.Wb = f.Wb.Add(dwb)
	f.P = symmetrize(Identity(6).Sub(K.Mul(H)).Mul(f.P))

	inno = Innovation{Predicted: magBody, Residual: y, S: S, R: R, Dx: dx}
	return inno, nil
}

// symmetrize returns (P+PT)/2.
func symmetrize(P Matrix) Matrix {
	return P.Add(P.T()).Scale(0.5)
}
