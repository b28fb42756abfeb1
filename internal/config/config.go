// Package config loads the server configuration from defaults, an optional
// YAML file and the environment, in that order.
package config

import (
	"io"
	"io/fs"
	"math"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/zeusync/drain/internal/core/loop"
	"github.com/zeusync/drain/internal/core/observability/log"
	"github.com/zeusync/drain/internal/core/simulation"
	"github.com/zeusync/drain/internal/server"
)

const (
	EnvConfig       = "DRAIN_CONFIG"
	EnvListenAddr   = "DRAIN_LISTEN_ADDR"
	EnvLogLevel     = "DRAIN_LOG_LEVEL"
	EnvLogEncoding  = "DRAIN_LOG_ENCODING"
	EnvTickInterval = "DRAIN_TICK_INTERVAL"
)

var ErrInvalidConfig = errors.New("invalid configuration")

type Config struct {
	Log        LogConfig        `yaml:"log"`
	Simulation SimulationConfig `yaml:"simulation"`
	// Arena is used until a viewer reports its own bounds.
	Arena  simulation.Arena `yaml:"arena"`
	Server server.Config    `yaml:"server"`
}

type LogConfig struct {
	Level    string   `yaml:"level"`
	Encoding string   `yaml:"encoding"`
	Output   []string `yaml:"output"`
}

type SimulationConfig struct {
	TickInterval time.Duration `yaml:"tick_interval"`
	MaxStep      time.Duration `yaml:"max_step"`
	Alpha        float64       `yaml:"alpha"`
	Beta         float64       `yaml:"beta"`
	Gamma        float64       `yaml:"gamma"`
	// AccelLimit caps the magnitude of accepted samples. Zero disables.
	AccelLimit float64 `yaml:"accel_limit"`
}

func Default() *Config {
	t := simulation.DefaultTuning()
	return &Config{
		Log: LogConfig{
			Level:    "info",
			Encoding: "json",
		},
		Simulation: SimulationConfig{
			TickInterval: loop.DefaultTickInterval,
			MaxStep:      t.MaxStep,
			Alpha:        t.Alpha,
			Beta:         t.Beta,
			Gamma:        t.Gamma,
		},
		Arena:  simulation.Arena{Right: 1080, Bottom: 1920},
		Server: server.DefaultServerConfig(),
	}
}

// Load builds the configuration. A .env file in the working directory is
// applied to the environment first if it exists. path may be empty, in
// which case DRAIN_CONFIG is consulted; no file at all means defaults.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, errors.Wrap(err, "load .env")
	}

	cfg := Default()
	if path == "" {
		path = os.Getenv(EnvConfig)
	}
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, errors.Wrap(err, "open config")
		}
		defer f.Close()
		if err := cfg.Decode(f); err != nil {
			return nil, errors.Wrapf(err, "config %s", path)
		}
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Decode overlays YAML from r onto c. Unknown keys are an error.
func (c *Config) Decode(r io.Reader) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return errors.Wrap(err, "decode yaml")
	}
	return nil
}

// ApplyEnv overlays the DRAIN_* variables found through lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvListenAddr); ok {
		c.Server.ListenAddr = v
	}
	if v, ok := lookup(EnvLogLevel); ok {
		c.Log.Level = v
	}
	if v, ok := lookup(EnvLogEncoding); ok {
		c.Log.Encoding = v
	}
	if v, ok := lookup(EnvTickInterval); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return errors.Wrapf(ErrInvalidConfig, "%s: %v", EnvTickInterval, err)
		}
		c.Simulation.TickInterval = d
	}
	return nil
}

func (c *Config) Validate() error {
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return errors.Wrapf(ErrInvalidConfig, "log.level: %v", err)
	}
	switch c.Log.Encoding {
	case "json", "console":
	default:
		return errors.Wrapf(ErrInvalidConfig, "log.encoding %q", c.Log.Encoding)
	}

	s := c.Simulation
	if s.TickInterval <= 0 {
		return errors.Wrap(ErrInvalidConfig, "simulation.tick_interval must be positive")
	}
	if s.MaxStep <= 0 {
		return errors.Wrap(ErrInvalidConfig, "simulation.max_step must be positive")
	}
	if !unit(s.Alpha) {
		return errors.Wrapf(ErrInvalidConfig, "simulation.alpha %v outside [0,1]", s.Alpha)
	}
	if !unit(s.Gamma) {
		return errors.Wrapf(ErrInvalidConfig, "simulation.gamma %v outside [0,1]", s.Gamma)
	}
	if math.IsNaN(s.Beta) || math.IsInf(s.Beta, 0) {
		return errors.Wrap(ErrInvalidConfig, "simulation.beta must be finite")
	}
	if !(s.AccelLimit >= 0) || math.IsInf(s.AccelLimit, 0) {
		return errors.Wrapf(ErrInvalidConfig, "simulation.accel_limit %v must be finite and not negative", s.AccelLimit)
	}

	if err := c.Arena.Validate(); err != nil {
		return errors.Wrapf(ErrInvalidConfig, "arena: %v", err)
	}

	v := c.Server
	if v.ListenAddr == "" {
		return errors.Wrap(ErrInvalidConfig, "server.listen_addr is empty")
	}
	if v.BroadcastEvery < 1 {
		return errors.Wrap(ErrInvalidConfig, "server.broadcast_every must be at least 1")
	}
	if v.ReadTimeout <= 0 || v.WriteTimeout <= 0 || v.PingInterval <= 0 || v.ShutdownTimeout <= 0 {
		return errors.Wrap(ErrInvalidConfig, "server timeouts must be positive")
	}
	if v.PingInterval >= v.ReadTimeout {
		return errors.Wrap(ErrInvalidConfig, "server.ping_interval must be shorter than read_timeout")
	}
	if v.MaxMessageSize <= 0 || v.SendBuffer <= 0 {
		return errors.Wrap(ErrInvalidConfig, "server.max_message_size and send_buffer must be positive")
	}
	return nil
}

func (c *Config) Tuning() simulation.Tuning {
	return simulation.Tuning{
		Alpha:   c.Simulation.Alpha,
		Beta:    c.Simulation.Beta,
		Gamma:   c.Simulation.Gamma,
		MaxStep: c.Simulation.MaxStep,
	}
}

// Logger converts the log section. Call after Validate.
func (c *Config) Logger() log.Config {
	level, _ := log.ParseLevel(c.Log.Level)
	return log.Config{
		Level:    level,
		Encoding: c.Log.Encoding,
		Output:   c.Log.Output,
	}
}

func unit(v float64) bool {
	return v >= 0 && v <= 1
}
