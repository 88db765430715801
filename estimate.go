package adcs

import (
	"fmt"
	"math"
	"time"

	"github.com/gonum/matrix/mat64"
)

// Estimate is a snapshot of the attitude filter at a given time.
type Estimate struct {
	DT          time.Time
	Attitude    Quaternion
	Bias        Vector3
	P           Matrix
	Residual    Vector3 // last magnetometer innovation, valid if Corrected
	Corrected   bool    // whether a correction happened at DT
	Propagated  uint64
	Corrections uint64
	Skipped     uint64
}

// Covariance returns P as a mat64.SymDense.
func (e Estimate) Covariance() *mat64.SymDense {
	return e.P.SymDense()
}

// State returns [q1 q2 q3 q4 wb1 wb2 wb3] as a mat64.Vector.
func (e Estimate) State() *mat64.Vector {
	return mat64.NewVector(7, []float64{e.Attitude[0], e.Attitude[1], e.Attitude[2], e.Attitude[3], e.Bias[0], e.Bias[1], e.Bias[2]})
}

// AttitudeSigma returns the 1σ attitude error per axis, in radians.
func (e Estimate) AttitudeSigma() Vector3 {
	return e.sigmas(0)
}

// BiasSigma returns the 1σ gyro bias error per axis, in rad/s.
func (e Estimate) BiasSigma() Vector3 {
	return e.sigmas(3)
}

func (e Estimate) sigmas(offset int) (σ Vector3) {
	for i := 0; i < 3; i++ {
		σ[i] = math.Sqrt(math.Abs(e.P.At(offset+i, offset+i)))
	}
	return
}

// IsWithinNσ returns whether the attitude error with respect to the truth is within N sigmas on
// every axis.
func (e Estimate) IsWithinNσ(truth Quaternion, N float64) bool {
	δθ := e.Attitude.ErrorVector(truth)
	σ := e.AttitudeSigma()
	for i := 0; i < 3; i++ {
		if math.Abs(δθ[i]) > N*σ[i] {
			return false
		}
	}
	return true
}

// CSVHeader returns the header matching CSV.
func (e Estimate) CSVHeader() string {
	return "time,jd,q1,q2,q3,q4,yaw,pitch,roll,wb1,wb2,wb3,sig_att1,sig_att2,sig_att3,sig_wb1,sig_wb2,sig_wb3,y1,y2,y3"
}

// CSV returns the estimate as CSV, starting with the provided Julian date (does *not* include the
// new line). Angles are in degrees.
func (e Estimate) CSV(jd float64) string {
	yaw, pitch, roll := e.Attitude.Euler321()
	σθ := e.AttitudeSigma()
	σb := e.BiasSigma()
	return fmt.Sprintf("%s,%f,%.9f,%.9f,%.9f,%.9f,%.4f,%.4f,%.4f,%e,%e,%e,%e,%e,%e,%e,%e,%e,%e,%e,%e",
		e.DT.UTC().Format("2006-01-02 15:04:05.000"), jd,
		e.Attitude[0], e.Attitude[1], e.Attitude[2], e.Attitude[3],
		Rad2deg180(yaw), Rad2deg180(pitch), Rad2deg180(roll),
		e.Bias[0], e.Bias[1], e.Bias[2], σθ[0], σθ[1], σθ[2], σb[0], σb[1], σb[2],
		e.Residual[0], e.Residual[1], e.Residual[2])
}

func (e Estimate) String() string {
	return fmt.Sprintf("%s q=%s wb=%s σθ=%s", e.DT.UTC().Format(time.RFC3339), e.Attitude, e.Bias, e.AttitudeSigma())
}
