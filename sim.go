package adcs

import (
	"math/rand"
	"time"

	"github.com/ChristopherRabotin/ode"
	kitlog "github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/gonum/matrix/mat64"
	"github.com/gonum/stat/distmv"
)

// TruthAttitude is an ode.Integrable of the true attitude kinematics qdot = q*[ω 0]/2, used to
// generate the sensor data of a simulation.
type TruthAttitude struct {
	Q      Quaternion // true attitude, inertial to body
	Rate   Vector3    // true body rate, rad/s
	StopDT time.Time  // end time of the integration
	dt     time.Time  // current time of the integration
	step   time.Duration
}

// NewTruthAttitude returns the truth starting at q at epoch, integrated with the provided step.
func NewTruthAttitude(q Quaternion, rate Vector3, epoch time.Time, step time.Duration) *TruthAttitude {
	return &TruthAttitude{Q: q.Unit(), Rate: rate, dt: epoch, step: step}
}

// DT returns the current time of the truth.
func (a *TruthAttitude) DT() time.Time {
	return a.dt
}

// PropagateUntil integrates the kinematics until dt. Blocking.
func (a *TruthAttitude) PropagateUntil(dt time.Time) {
	a.StopDT = dt
	ode.NewRK4(0, a.step.Seconds(), a).Solve()
}

// GetState gets the state.
func (a *TruthAttitude) GetState() []float64 {
	return []float64{a.Q[0], a.Q[1], a.Q[2], a.Q[3]}
}

// SetState sets the next state at time t.
func (a *TruthAttitude) SetState(t float64, s []float64) {
	a.Q = Quaternion{s[0], s[1], s[2], s[3]}.Unit()
	a.dt = a.dt.Add(a.step)
}

// Stop returns whether we should stop the integration.
func (a *TruthAttitude) Stop(t float64) bool {
	return !a.dt.Before(a.StopDT)
}

// Func does the math. Returns a new state.
func (a *TruthAttitude) Func(t float64, f []float64) []float64 {
	q := Quaternion{f[0], f[1], f[2], f[3]}
	qDot := q.Mul(NewQuaternion(a.Rate, 0))
	return []float64{0.5 * qDot[0], 0.5 * qDot[1], 0.5 * qDot[2], 0.5 * qDot[3]}
}

// SensorModel generates the gyro and magnetometer samples from the truth.
type SensorModel struct {
	Bias      Vector3 // constant gyro bias, rad/s
	gyroNoise *distmv.Normal
	magNoise  *distmv.Normal
	noiseless bool
}

// NewSensorModel returns a sensor model with white noises of the provided standard deviations.
// Zero standard deviations disable the noise altogether.
func NewSensorModel(bias Vector3, σGyro, σMag float64, seed int64) *SensorModel {
	m := &SensorModel{Bias: bias}
	if σGyro == 0 && σMag == 0 {
		m.noiseless = true
		return m
	}
	src := rand.New(rand.NewSource(seed))
	var ok bool
	if m.gyroNoise, ok = distmv.NewNormal(make([]float64, 3), isotropic(σGyro), src); !ok {
		panic("gyro noise covariance is not positive definite")
	}
	if m.magNoise, ok = distmv.NewNormal(make([]float64, 3), isotropic(σMag), src); !ok {
		panic("magnetometer noise covariance is not positive definite")
	}
	return m
}

// isotropic returns σ²*I3, with a floor so that the covariance stays positive definite.
func isotropic(σ float64) *mat64.SymDense {
	v := σ * σ
	if v < 1e-30 {
		v = 1e-30
	}
	return mat64.NewSymDense(3, []float64{v, 0, 0, 0, v, 0, 0, 0, v})
}

func (m *SensorModel) noise(n *distmv.Normal) (v Vector3) {
	if m.noiseless {
		return
	}
	copy(v[:], n.Rand(nil))
	return
}

// Gyro returns the measured body rate.
func (m *SensorModel) Gyro(rate Vector3) Vector3 {
	return rate.Add(m.Bias).Add(m.noise(m.gyroNoise))
}

// Mag returns the measured body field direction (unit norm) of the inertial field.
func (m *SensorModel) Mag(truth Quaternion, inertial Vector3) Vector3 {
	ref, _ := inertial.Unit()
	meas, _ := truth.Rotate(ref).Add(m.noise(m.magNoise)).Unit()
	return meas
}

// Simulation runs the attitude task against a simulated truth.
type Simulation struct {
	Conf    SimConfig
	Truth   *TruthAttitude
	Sensors *SensorModel
	Task    *AttitudeTask
	logger  kitlog.Logger
}

// NewSimulation returns the simulation of conf, feeding task.
func NewSimulation(conf SimConfig, noise NoiseParams, task *AttitudeTask) *Simulation {
	ypr := conf.InitialAttitude
	q0 := FromEuler321(Deg2rad(ypr[0]), Deg2rad(ypr[1]), Deg2rad(ypr[2]))
	off := conf.AttitudeOffset
	task.SetAttitude(q0.Mul(FromEuler321(Deg2rad(off[0]), Deg2rad(off[1]), Deg2rad(off[2]))))
	return &Simulation{
		Conf:    conf,
		Truth:   NewTruthAttitude(q0, conf.Rate, conf.Epoch, conf.GyroStep),
		Sensors: NewSensorModel(conf.Bias, noise.GyroRateNoise, noise.MagNoise, conf.Seed),
		Task:    task,
		logger:  Logger("sim"),
	}
}

// Step advances the truth by one gyro step and feeds the task: one gyro sample, and a
// magnetometer sample every MagEvery steps. The error of a skipped correction is returned.
func (s *Simulation) Step(n int) (Estimate, error) {
	s.Truth.PropagateUntil(s.Truth.DT().Add(s.Conf.GyroStep))
	if err := s.Task.OnGyro(s.Sensors.Gyro(s.Truth.Rate), s.Conf.GyroStep); err != nil {
		return s.Task.Snapshot(), err
	}
	var err error
	if (n+1)%s.Conf.MagEvery == 0 {
		err = s.Task.OnMag(s.Sensors.Mag(s.Truth.Q, s.Conf.MagField), s.Conf.MagField)
	}
	return s.Task.Snapshot(), err
}

// Run steps the simulation for its whole duration, sending every estimate to estChan (if not nil)
// and closing it when done. It returns the last estimate.
func (s *Simulation) Run(estChan chan<- Estimate) Estimate {
	if estChan != nil {
		defer close(estChan)
	}
	steps := int(s.Conf.Duration / s.Conf.GyroStep)
	level.Info(s.logger).Log("message", "starting", "steps", steps, "epoch", s.Conf.Epoch)
	est := s.Task.Snapshot()
	for n := 0; n < steps; n++ {
		var err error
		est, err = s.Step(n)
		if err != nil {
			level.Debug(s.logger).Log("message", "step error", "n", n, "err", err)
		}
		if estChan != nil {
			estChan <- est
		}
	}
	level.Info(s.logger).Log("message", "done", "error", Rad2deg(est.Attitude.Angle(s.Truth.Q)), "estimate", est)
	return est
}
