package main

import (
	"flag"
	"log"
	"os"
	"sync"

	adcs "github.com/RSecxxx/SUCHAI-Flight-Software"
	"github.com/go-kit/kit/log/level"
)

// Runs the attitude filter of the ADCS against a simulated truth, as configured by a scenario file.

const defaultScenario = "~~unset~~"

var (
	scenario string
	verbose  bool
)

func init() {
	flag.StringVar(&scenario, "scenario", defaultScenario, "scenario TOML file")
	flag.BoolVar(&verbose, "verbose", false, "debug logging (overrides the scenario level)")
}

func main() {
	flag.Parse()
	conf := adcs.DefaultConfig()
	if scenario != defaultScenario {
		var err error
		if conf, err = adcs.LoadConfig(scenario); err != nil {
			log.Fatalf("%s: %s", scenario, err)
		}
	}
	if verbose {
		conf.Log.Level = "debug"
	}
	if err := adcs.InitLog(conf.Log); err != nil {
		log.Fatalf("could not initialize logging: %s", err)
	}
	logger := adcs.Logger("obc")
	level.Info(logger).Log("scenario", scenario, "noise", conf.Noise, "attitudeσ", conf.AttitudeSigma, "biasσ", conf.BiasSigma)

	flt := adcs.NewFilter(conf.Noise, adcs.DefaultCovariance(conf.AttitudeSigma, conf.BiasSigma))
	task := adcs.NewAttitudeTask(flt, conf.Sim.Epoch)
	sim := adcs.NewSimulation(conf.Sim, conf.Noise, task)

	var wg sync.WaitGroup
	stop := make(chan struct{})
	failed := 0

	if conf.Tasks.Housekeeping {
		if startTask("housekeeping", func() error {
			return housekeeping(task, conf.Tasks.HousekeepingPeriod, stop, &wg)
		}) != nil {
			failed++
		}
	}

	var telemetry *room
	if conf.Tasks.Telemetry {
		if startTask("telemetry", func() (err error) {
			telemetry, err = startTelemetry(conf.Tasks.TelemetryAddr)
			return
		}) != nil {
			failed++
		}
	}

	var exportChan chan adcs.Estimate
	if !conf.Export.IsUseless() {
		exportChan = make(chan adcs.Estimate, 100)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := adcs.StreamEstimates(conf.Export, exportChan); err != nil {
				level.Error(adcs.Logger("export")).Log("err", err)
			}
		}()
	}

	// Relay the estimates to the consumers.
	estChan := make(chan adcs.Estimate)
	relayed := make(chan struct{})
	go func() {
		defer close(relayed)
		for est := range estChan {
			if exportChan != nil {
				exportChan <- est
			}
			if telemetry != nil {
				telemetry.broadcast(est)
			}
		}
		if exportChan != nil {
			close(exportChan)
		}
	}()

	final := sim.Run(estChan)
	<-relayed
	if telemetry != nil {
		telemetry.close()
	}
	close(stop)
	wg.Wait()

	level.Info(logger).Log("message", "final estimate", "estimate", final,
		"error (deg)", adcs.Rad2deg(final.Attitude.Angle(sim.Truth.Q)),
		"bias error", final.Bias.Sub(conf.Sim.Bias), "within3σ", final.IsWithinNσ(sim.Truth.Q, 3))
	if failed > 0 {
		os.Exit(1)
	}
}
