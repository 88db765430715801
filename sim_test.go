package adcs

import (
	"testing"
	"time"

	"github.com/gonum/floats"
)

func TestTruthAttitude(t *testing.T) {
	q0 := FromEuler321(0.5, 0.2, -0.1)
	ω := Vector3{0.01, -0.02, 0.015}
	truth := NewTruthAttitude(q0, ω, testEpoch, 100*time.Millisecond)
	end := testEpoch.Add(time.Minute)
	truth.PropagateUntil(end)
	if !truth.DT().Equal(end) {
		t.Fatalf("truth stopped at %s instead of %s", truth.DT(), end)
	}
	exp := q0.Mul(ExpMap(ω.Scale(60)))
	if a := truth.Q.Angle(exp); a > 1e-8 {
		t.Fatalf("RK4 differs from the closed form by %e rad", a)
	}
	if !floats.EqualWithinAbs(truth.Q.Norm(), 1, 1e-15) {
		t.Fatal("truth is not unit")
	}
	// Propagating to the current time is a no-op.
	q := truth.Q
	truth.PropagateUntil(end)
	if truth.Q != q || !truth.DT().Equal(end) {
		t.Fatal("propagation to the current time changed the truth")
	}
}

func TestSensorModel(t *testing.T) {
	bias := Vector3{1e-3, -2e-3, 3e-3}
	rate := Vector3{0.1, 0.2, 0.3}
	field := Vector3{2e4, 5e3, -4e4}
	q := FromEuler321(0.3, 0.2, 0.1)
	perfect := NewSensorModel(bias, 0, 0, 1)
	if perfect.Gyro(rate) != rate.Add(bias) {
		t.Fatal("noiseless gyro is not rate plus bias")
	}
	dir, _ := field.Unit()
	if !vectorsEqual(perfect.Mag(q, field), q.Rotate(dir), 1e-15) {
		t.Fatal("noiseless magnetometer is not the rotated field direction")
	}

	a := NewSensorModel(bias, 0.01, 0.01, 42)
	b := NewSensorModel(bias, 0.01, 0.01, 42)
	var mean Vector3
	const n = 2000
	for i := 0; i < n; i++ {
		ga := a.Gyro(rate)
		if ga != b.Gyro(rate) {
			t.Fatal("same seed gave different samples")
		}
		if ga == rate.Add(bias) {
			t.Fatal("noise was not added")
		}
		mean = mean.Add(ga.Scale(1.0 / n))
		m := a.Mag(q, field)
		if !floats.EqualWithinAbs(m.Norm(), 1, 1e-14) {
			t.Fatal("magnetometer sample is not unit")
		}
		if m.Angle(q.Rotate(dir)) > 0.1 {
			t.Fatal("magnetometer noise is too large")
		}
		b.Mag(q, field)
	}
	// 5σ of the sample mean.
	if !vectorsEqual(mean, rate.Add(bias), 5*0.01/44.7) {
		t.Fatalf("gyro mean = %s, expected %s", mean, rate.Add(bias))
	}
}

func TestSimulation(t *testing.T) {
	conf := DefaultConfig()
	conf.Sim.Duration = 10 * time.Minute
	conf.Sim.Bias = Vector3{2e-3, -1e-3, 1.5e-3}
	conf.Sim.InitialAttitude = Vector3{30, 10, -5}
	conf.Sim.AttitudeOffset = Vector3{3, -2, 2}
	conf.Sim.Seed = 7
	task := NewAttitudeTask(NewFilter(conf.Noise, DefaultCovariance(conf.AttitudeSigma, conf.BiasSigma)), conf.Sim.Epoch)
	sim := NewSimulation(conf.Sim, conf.Noise, task)

	dir, _ := conf.Sim.MagField.Unit()
	initial := task.Snapshot()
	before := sim.Truth.Q.Rotate(dir).Angle(initial.Attitude.Rotate(dir))

	estChan := make(chan Estimate, 10)
	done := make(chan int)
	go func() {
		n := 0
		for range estChan {
			n++
		}
		done <- n
	}()
	final := sim.Run(estChan)
	if n := <-done; n != 6000 {
		t.Fatalf("received %d estimates, expected 6000", n)
	}
	if !final.DT.Equal(conf.Sim.Epoch.Add(conf.Sim.Duration)) || !sim.Truth.DT().Equal(final.DT) {
		t.Fatalf("estimate at %s, truth at %s", final.DT, sim.Truth.DT())
	}
	if final.Propagated != 6000 || final.Corrections != 600 || final.Skipped != 0 {
		t.Fatalf("unexpected counters: %+v", final)
	}
	// Only the body field direction is observable with a single reference vector.
	after := sim.Truth.Q.Rotate(dir).Angle(final.Attitude.Rotate(dir))
	if after >= before || Rad2deg(after) > 0.5 {
		t.Fatalf("field direction error went from %f to %f deg", Rad2deg(before), Rad2deg(after))
	}
	if !final.P.IsSymmetric(0) {
		t.Fatal("P is not symmetric")
	}
}
