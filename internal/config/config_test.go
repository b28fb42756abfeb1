package config

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/drain/internal/core/observability/log"
	"github.com/zeusync/drain/internal/core/simulation"
)

func lookupFrom(env map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}
}

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, simulation.DefaultTuning(), cfg.Tuning())
	assert.Equal(t, 20*time.Millisecond, cfg.Simulation.TickInterval)
	assert.Equal(t, log.LevelInfo, cfg.Logger().Level)
}

func TestDecode_OverlaysDefaults(t *testing.T) {
	cfg := Default()
	err := cfg.Decode(strings.NewReader(`
log:
  level: debug
  encoding: console
simulation:
  tick_interval: 10ms
  gamma: 0.9
  accel_limit: 2.5
arena:
  right: 400
  bottom: 800
server:
  listen_addr: ":9000"
  broadcast_every: 3
`))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, log.LevelDebug, cfg.Logger().Level)
	assert.Equal(t, "console", cfg.Logger().Encoding)
	assert.Equal(t, 10*time.Millisecond, cfg.Simulation.TickInterval)
	assert.Equal(t, 0.9, cfg.Tuning().Gamma)
	assert.Equal(t, 0.5, cfg.Tuning().Alpha, "unset keys keep their defaults")
	assert.Equal(t, 2.5, cfg.Simulation.AccelLimit)
	assert.Equal(t, simulation.Arena{Right: 400, Bottom: 800}, cfg.Arena)
	assert.Equal(t, ":9000", cfg.Server.ListenAddr)
	assert.Equal(t, 3, cfg.Server.BroadcastEvery)
	assert.Equal(t, 25*time.Second, cfg.Server.PingInterval)
}

func TestDecode_Empty(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Decode(strings.NewReader("")))
	assert.Equal(t, Default(), cfg)
}

func TestDecode_UnknownKey(t *testing.T) {
	cfg := Default()
	assert.Error(t, cfg.Decode(strings.NewReader("simulation:\n  delta: 1\n")))
}

func TestApplyEnv(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.ApplyEnv(lookupFrom(map[string]string{
		EnvListenAddr:   "0.0.0.0:7000",
		EnvLogLevel:     "warn",
		EnvLogEncoding:  "console",
		EnvTickInterval: "5ms",
	})))

	assert.Equal(t, "0.0.0.0:7000", cfg.Server.ListenAddr)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Encoding)
	assert.Equal(t, 5*time.Millisecond, cfg.Simulation.TickInterval)

	err := cfg.ApplyEnv(lookupFrom(map[string]string{EnvTickInterval: "soon"}))
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"log level", func(c *Config) { c.Log.Level = "loud" }},
		{"log encoding", func(c *Config) { c.Log.Encoding = "xml" }},
		{"tick interval", func(c *Config) { c.Simulation.TickInterval = 0 }},
		{"max step", func(c *Config) { c.Simulation.MaxStep = -time.Millisecond }},
		{"alpha", func(c *Config) { c.Simulation.Alpha = 1.5 }},
		{"gamma", func(c *Config) { c.Simulation.Gamma = -0.1 }},
		{"negative accel limit", func(c *Config) { c.Simulation.AccelLimit = -1 }},
		{"infinite accel limit", func(c *Config) { c.Simulation.AccelLimit = math.Inf(1) }},
		{"nan accel limit", func(c *Config) { c.Simulation.AccelLimit = math.NaN() }},
		{"arena", func(c *Config) { c.Arena = simulation.Arena{Right: 10, Bottom: 0} }},
		{"listen addr", func(c *Config) { c.Server.ListenAddr = "" }},
		{"broadcast", func(c *Config) { c.Server.BroadcastEvery = 0 }},
		{"ping", func(c *Config) { c.Server.PingInterval = c.Server.ReadTimeout }},
		{"send buffer", func(c *Config) { c.Server.SendBuffer = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "drain.yaml")
	require.NoError(t, os.WriteFile(path, []byte("simulation:\n  beta: 50\n"), 0o600))

	t.Chdir(dir)
	t.Setenv(EnvConfig, path)
	t.Setenv(EnvLogLevel, "error")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 50.0, cfg.Simulation.Beta)
	assert.Equal(t, log.LevelError, cfg.Logger().Level)
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte(EnvListenAddr+"=:8181\n"), 0o600))

	t.Chdir(dir)
	t.Setenv(EnvConfig, "")
	t.Setenv(EnvListenAddr, "")
	require.NoError(t, os.Unsetenv(EnvListenAddr))

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":8181", cfg.Server.ListenAddr)
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv(EnvConfig, "")

	_, err := Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("simulation:\n  gamma: 2\n"), 0o600))
	_, err = Load(bad)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}
