package adcs

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-kit/kit/log/level"
	"github.com/pkg/errors"
	"github.com/soniakeys/meeus/v3/julian"
)

// ExportConfig configures the exporting of the estimates.
type ExportConfig struct {
	Filename  string
	Dir       string
	AsCSV     bool
	Summary   bool // write a JSON summary of the last estimate
	Timestamp bool
}

// IsUseless returns whether this config doesn't actually do anything.
func (c ExportConfig) IsUseless() bool {
	return !c.AsCSV && !c.Summary
}

func (c ExportConfig) path(prefix, ext string) string {
	dir := c.Dir
	if dir == "" {
		dir = "."
	}
	name := c.Filename
	if c.Timestamp {
		t := time.Now()
		name = fmt.Sprintf("%s-%d-%02d-%02dT%02d.%02d.%02d", name, t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second())
	}
	return filepath.Join(dir, fmt.Sprintf("%s-%s.%s", prefix, name, ext))
}

// Summary is the JSON summary of a run.
type Summary struct {
	Start        string     `json:"start"`
	End          string     `json:"end"`
	EndJD        float64    `json:"endJD"`
	Attitude     [4]float64 `json:"attitude"`
	YawPitchRoll [3]float64 `json:"yawPitchRollDeg"`
	Bias         [3]float64 `json:"bias"`
	SigmaAtt     [3]float64 `json:"sigmaAttitude"`
	SigmaBias    [3]float64 `json:"sigmaBias"`
	Propagated   uint64     `json:"propagated"`
	Corrections  uint64     `json:"corrections"`
	Skipped      uint64     `json:"skipped"`
}

// NewSummary returns the summary of a run from its first and last estimates.
func NewSummary(first, last Estimate) Summary {
	yaw, pitch, roll := last.Attitude.Euler321()
	return Summary{
		Start:        first.DT.UTC().Format(time.RFC3339Nano),
		End:          last.DT.UTC().Format(time.RFC3339Nano),
		EndJD:        julian.TimeToJD(last.DT),
		Attitude:     last.Attitude,
		YawPitchRoll: [3]float64{Rad2deg180(yaw), Rad2deg180(pitch), Rad2deg180(roll)},
		Bias:         last.Bias,
		SigmaAtt:     last.AttitudeSigma(),
		SigmaBias:    last.BiasSigma(),
		Propagated:   last.Propagated,
		Corrections:  last.Corrections,
		Skipped:      last.Skipped,
	}
}

// createCSVFile returns a file which requires a defer close statement!
func createCSVFile(conf ExportConfig, first Estimate) (*os.File, error) {
	f, err := os.Create(conf.path("attitude", "csv"))
	if err != nil {
		return nil, errors.Wrap(err, "creating estimate file")
	}
	// Header
	f.WriteString(fmt.Sprintf(`# Creation date (UTC): %s
# Records are the attitude quaternion (vector first), the 3-2-1 Euler angles in degrees,
# the gyro bias in rad/s, the 1-sigma errors and the latest magnetometer innovation.
#   Simulation time start (UTC): %s
%s`, time.Now().UTC(), first.DT.UTC(), first.CSVHeader()))
	return f, nil
}

// StreamEstimates writes the estimates from the channel until it is closed.
func StreamEstimates(conf ExportConfig, estChan <-chan Estimate) error {
	logger := Logger("export")
	var f *os.File
	var first, prev Estimate
	n := 0
	for est := range estChan {
		if n == 0 {
			first = est
			if conf.AsCSV {
				var err error
				if f, err = createCSVFile(conf, est); err != nil {
					// Drain the channel so that the producer is not blocked.
					for range estChan {
					}
					return err
				}
				defer f.Close()
			}
		}
		n++
		prev = est
		if f != nil {
			if _, err := f.WriteString("\n" + est.CSV(julian.TimeToJD(est.DT))); err != nil {
				level.Error(logger).Log("message", "could not write estimate", "err", err)
			}
		}
	}
	if n == 0 {
		level.Warn(logger).Log("message", "no estimate to export")
		return nil
	}
	if f != nil {
		f.WriteString(fmt.Sprintf("\n# Simulation time end (UTC): %s\n", prev.DT.UTC()))
		level.Info(logger).Log("message", "estimates saved", "file", f.Name(), "records", n)
	}
	if conf.Summary {
		name := conf.path("summary", "json")
		marsh, err := json.MarshalIndent(NewSummary(first, prev), "", "  ")
		if err != nil {
			return errors.Wrap(err, "encoding summary")
		}
		if err := os.WriteFile(name, marsh, 0644); err != nil {
			return errors.Wrap(err, "writing summary")
		}
		level.Info(logger).Log("message", "summary saved", "file", name)
	}
	return nil
}
