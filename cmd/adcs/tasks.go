package main

import (
	"fmt"
	"sync"
	"time"

	adcs "github.com/RSecxxx/SUCHAI-Flight-Software"
	"github.com/go-kit/kit/log/level"
	"github.com/pkg/errors"
)

// startTask creates one OBC task. A failure is logged and reported but does not prevent the other
// tasks from being created.
func startTask(name string, create func() error) error {
	if err := create(); err != nil {
		err = errors.Wrapf(adcs.ErrTaskCreation, "%s: %s", name, err)
		level.Error(adcs.Logger("obc")).Log("message", "task not created", "task", name, "err", err)
		return err
	}
	level.Info(adcs.Logger("obc")).Log("message", "task created", "task", name)
	return nil
}

// housekeeping periodically reports the health of the attitude filter until stop is closed.
func housekeeping(task *adcs.AttitudeTask, period time.Duration, stop <-chan struct{}, wg *sync.WaitGroup) error {
	if period <= 0 {
		return fmt.Errorf("invalid period %s", period)
	}
	logger := adcs.Logger("housekeeping")
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(period)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				est := task.Snapshot()
				level.Info(logger).Log("dt", est.DT.UTC().Format(time.RFC3339), "trace", est.P.Trace(),
					"symmetric", est.P.IsSymmetric(1e-12), "propagated", est.Propagated,
					"corrections", est.Corrections, "skipped", est.Skipped, "σθ", est.AttitudeSigma())
			case <-stop:
				return
			}
		}
	}()
	return nil
}
