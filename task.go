package adcs

import (
	"sync"
	"time"

	kitlog "github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
)

// AttitudeTask owns a Filter and serializes the gyro and magnetometer updates, which may be fed
// from different goroutines. Failed corrections are skipped: the state is kept, a diagnostic is
// logged and the sample is counted.
type AttitudeTask struct {
	mu                             sync.Mutex
	flt                            *Filter
	dt                             time.Time // time of the latest sample
	residual                       Vector3
	corrected                      bool
	propagated, corrections, skips uint64
	logger                         kitlog.Logger
}

// NewAttitudeTask returns a task driving flt, starting at epoch.
func NewAttitudeTask(flt *Filter, epoch time.Time) *AttitudeTask {
	return &AttitudeTask{flt: flt, dt: epoch, logger: Logger("eskf")}
}

// SetAttitude resets the nominal attitude, e.g. from a coarse initial determination.
func (t *AttitudeTask) SetAttitude(q Quaternion) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.flt.Q = q.Unit()
}

// OnGyro propagates the filter with the raw gyro rate minus the current bias estimate.
func (t *AttitudeTask) OnGyro(raw Vector3, step time.Duration) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.flt.Propagate(raw.Sub(t.flt.Wb), step.Seconds()); err != nil {
		level.Error(t.logger).Log("message", "propagation failed", "err", err)
		return err
	}
	t.dt = t.dt.Add(step)
	t.propagated++
	t.corrected = false
	return nil
}

// OnMag corrects the filter with a raw magnetometer sample (normalized here) and the inertial field.
func (t *AttitudeTask) OnMag(raw, inertial Vector3) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	meas, ok := raw.Unit()
	if !ok {
		return t.skip(ErrDegenerateReference, raw)
	}
	inno, err := t.flt.Correct(meas, inertial)
	if err != nil {
		return t.skip(err, raw)
	}
	t.residual = inno.Residual
	t.corrected = true
	t.corrections++
	level.Debug(t.logger).Log("message", "corrected", "residual", inno.Residual, "dθ", inno.Dx.Col3(0, 0))
	return nil
}

// skip must be called with the lock held.
func (t *AttitudeTask) skip(err error, raw Vector3) error {
	t.skips++
	level.Warn(t.logger).Log("message", "magnetometer update skipped", "err", err, "mag", raw, "skipped", t.skips)
	return err
}

// Snapshot returns the current estimate.
func (t *AttitudeTask) Snapshot() Estimate {
	t.mu.Lock()
	defer t.mu.Unlock()
	return Estimate{DT: t.dt, Attitude: t.flt.Q, Bias: t.flt.Wb, P: t.flt.P,
		Residual: t.residual, Corrected: t.corrected,
		Propagated: t.propagated, Corrections: t.corrections, Skipped: t.skips}
}
