package adcs

import (
	"fmt"
	"math"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// DefaultNoise holds the mission noise constants. It is read only after initialization.
var DefaultNoise = NoiseParams{GyroRandomWalk: 0.001, GyroRateNoise: 0.001, MagNoise: 0.001}

// NoiseParams are the standard deviations used by the filter.
type NoiseParams struct {
	GyroRandomWalk float64 // std_rw_w: gyro bias random walk
	GyroRateNoise  float64 // std_rn_w: gyro rate noise
	MagNoise       float64 // std_rn_mag: magnetometer measurement noise
}

// ProcessNoise returns the 6x6 Q for a propagation of dt seconds: (std_rn_w*dt)²*I3 on the
// attitude block and std_rw_w²*dt*I3 on the bias block.
func (n NoiseParams) ProcessNoise(dt float64) Matrix {
	Q := NewMatrix(6, 6)
	qθ := math.Pow(n.GyroRateNoise*dt, 2)
	qb := math.Pow(n.GyroRandomWalk, 2) * dt
	Q.SetBlock3(0, 0, Diag3(qθ, qθ, qθ))
	Q.SetBlock3(3, 3, Diag3(qb, qb, qb))
	return Q
}

// MeasurementNoise returns R = std_rn_mag²*I3.
func (n NoiseParams) MeasurementNoise() Matrix3 {
	r := n.MagNoise * n.MagNoise
	return Diag3(r, r, r)
}

func (n NoiseParams) String() string {
	return fmt.Sprintf("rw=%g rn=%g mag=%g", n.GyroRandomWalk, n.GyroRateNoise, n.MagNoise)
}

// Config is the full configuration of the attitude subsystem.
type Config struct {
	Noise         NoiseParams
	AttitudeSigma float64 // initial 1σ attitude uncertainty, rad
	BiasSigma     float64 // initial 1σ gyro bias uncertainty, rad/s
	Log           LogConfig
	Sim           SimConfig
	Tasks         TaskConfig
	Export        ExportConfig
}

// SimConfig configures the truth and sensor simulation.
type SimConfig struct {
	Epoch           time.Time
	Duration        time.Duration
	GyroStep        time.Duration
	MagEvery        int     // one magnetometer sample every MagEvery gyro samples
	Rate            Vector3 // true body rate, rad/s
	Bias            Vector3 // true gyro bias, rad/s
	MagField        Vector3 // inertial magnetic field, any unit
	InitialAttitude Vector3 // yaw, pitch, roll in degrees
	AttitudeOffset  Vector3 // initial estimate error as yaw, pitch, roll in degrees
	Seed            int64
}

// TaskConfig selects which OBC tasks are created besides the attitude task.
type TaskConfig struct {
	Housekeeping       bool
	HousekeepingPeriod time.Duration
	Telemetry          bool
	TelemetryAddr      string
}

// DefaultConfig returns the configuration used when no file overrides it.
func DefaultConfig() Config {
	return Config{
		Noise:         DefaultNoise,
		AttitudeSigma: 0.1,
		BiasSigma:     0.01,
		Log:           LogConfig{Level: "info"},
		Sim: SimConfig{
			Epoch:    time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
			Duration: 10 * time.Minute,
			GyroStep: 100 * time.Millisecond,
			MagEvery: 10,
			Rate:     Vector3{0.01, -0.02, 0.015},
			MagField: Vector3{2e4, 5e3, -4e4},
			Seed:     1,
		},
		Tasks: TaskConfig{HousekeepingPeriod: 10 * time.Second, TelemetryAddr: "localhost:8080"},
	}
}

// LoadConfig reads the TOML (or any viper supported format) file at path. Missing keys keep their
// DefaultConfig value.
func LoadConfig(path string) (Config, error) {
	conf := DefaultConfig()
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return conf, errors.Wrapf(err, "reading %s", filepath.Base(path))
	}
	setDefaults(v, conf)

	conf.Noise = NoiseParams{
		GyroRandomWalk: v.GetFloat64("noise.gyro_random_walk"),
		GyroRateNoise:  v.GetFloat64("noise.gyro_rate_noise"),
		MagNoise:       v.GetFloat64("noise.mag_noise"),
	}
	conf.AttitudeSigma = v.GetFloat64("filter.attitude_sigma")
	conf.BiasSigma = v.GetFloat64("filter.bias_sigma")
	conf.Log = LogConfig{Level: v.GetString("log.level"), Node: v.GetInt("log.node"), Address: v.GetString("log.address")}

	if epoch := v.GetString("sim.epoch"); epoch != "" {
		dt, err := time.Parse(time.RFC3339, epoch)
		if err != nil {
			return conf, errors.Wrap(err, "sim.epoch")
		}
		conf.Sim.Epoch = dt.UTC()
	}
	conf.Sim.Duration = v.GetDuration("sim.duration")
	conf.Sim.GyroStep = v.GetDuration("sim.gyro_step")
	conf.Sim.MagEvery = v.GetInt("sim.mag_every")
	conf.Sim.Seed = v.GetInt64("sim.seed")
	conf.Sim.Rate = readVector(v, "sim.rate")
	conf.Sim.Bias = readVector(v, "sim.bias")
	conf.Sim.MagField = readVector(v, "sim.mag")
	conf.Sim.InitialAttitude = readVector(v, "sim.attitude")
	conf.Sim.AttitudeOffset = readVector(v, "sim.offset")

	conf.Tasks = TaskConfig{
		Housekeeping:       v.GetBool("tasks.housekeeping"),
		HousekeepingPeriod: v.GetDuration("tasks.housekeeping_period"),
		Telemetry:          v.GetBool("tasks.telemetry"),
		TelemetryAddr:      v.GetString("tasks.telemetry_addr"),
	}
	conf.Export = ExportConfig{
		Filename:  v.GetString("export.filename"),
		Dir:       v.GetString("export.dir"),
		AsCSV:     v.GetBool("export.csv"),
		Summary:   v.GetBool("export.summary"),
		Timestamp: v.GetBool("export.timestamp"),
	}
	return conf, conf.Validate()
}

// Validate checks the values which would make the filter meaningless.
func (c Config) Validate() error {
	if c.Noise.GyroRandomWalk < 0 || c.Noise.GyroRateNoise < 0 || c.Noise.MagNoise < 0 {
		return fmt.Errorf("negative noise parameter: %s", c.Noise)
	}
	if c.AttitudeSigma <= 0 || c.BiasSigma <= 0 {
		return fmt.Errorf("initial sigmas must be positive (attitude=%g, bias=%g)", c.AttitudeSigma, c.BiasSigma)
	}
	if c.Sim.GyroStep <= 0 {
		return fmt.Errorf("gyro step must be positive, got %s", c.Sim.GyroStep)
	}
	if c.Sim.MagEvery < 1 {
		return fmt.Errorf("mag_every must be at least 1, got %d", c.Sim.MagEvery)
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}
	return nil
}

func setDefaults(v *viper.Viper, c Config) {
	v.SetDefault("noise.gyro_random_walk", c.Noise.GyroRandomWalk)
	v.SetDefault("noise.gyro_rate_noise", c.Noise.GyroRateNoise)
	v.SetDefault("noise.mag_noise", c.Noise.MagNoise)
	v.SetDefault("filter.attitude_sigma", c.AttitudeSigma)
	v.SetDefault("filter.bias_sigma", c.BiasSigma)
	v.SetDefault("log.level", c.Log.Level)
	v.SetDefault("sim.duration", c.Sim.Duration)
	v.SetDefault("sim.gyro_step", c.Sim.GyroStep)
	v.SetDefault("sim.mag_every", c.Sim.MagEvery)
	v.SetDefault("sim.seed", c.Sim.Seed)
	for key, vec := range map[string]Vector3{"sim.rate": c.Sim.Rate, "sim.bias": c.Sim.Bias, "sim.mag": c.Sim.MagField} {
		for i := 0; i < 3; i++ {
			v.SetDefault(fmt.Sprintf("%s%d", key, i+1), vec[i])
		}
	}
	v.SetDefault("tasks.housekeeping_period", c.Tasks.HousekeepingPeriod)
	v.SetDefault("tasks.telemetry_addr", c.Tasks.TelemetryAddr)
	v.SetDefault("export.dir", ".")
}

// readVector reads key1, key2 and key3.
func readVector(v *viper.Viper, key string) (vec Vector3) {
	for i := 0; i < 3; i++ {
		vec[i] = v.GetFloat64(fmt.Sprintf("%s%d", key, i+1))
	}
	return
}

// ParseLevel returns the canonical name of a log level.
func ParseLevel(lvl string) (string, error) {
	switch l := strings.ToLower(strings.TrimSpace(lvl)); l {
	case "", "info":
		return "info", nil
	case "debug", "error", "none":
		return l, nil
	case "warn", "warning":
		return "warning", nil
	default:
		return "", fmt.Errorf("unknown log level `%s`", lvl)
	}
}
