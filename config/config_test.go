package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wippyai/wasm-replay/errors"
	"github.com/wippyai/wasm-replay/runtime"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(New(), "")
	require.NoError(t, err)

	assert.Equal(t, DefaultModulesDir, cfg.Modules.Dir)
	assert.True(t, cfg.Host.InheritStdio)
	assert.True(t, cfg.Host.InheritArgs)
	assert.False(t, cfg.Host.InheritEnv)
	assert.Equal(t, time.Duration(0), cfg.Timeout)
	assert.Equal(t, "info", cfg.Log.Level)

	assert.Equal(t, runtime.Paths{
		HostIO: filepath.Join(DefaultModulesDir, "host_io.wasm"),
		GoStub: filepath.Join(DefaultModulesDir, "go_stub.wasm"),
		Replay: filepath.Join(DefaultModulesDir, "replay.wasm"),
	}, cfg.Paths())
	assert.False(t, cfg.EngineConfig().CloseOnContextDone)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "replay.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
modules:
  dir: /srv/machines
  replay: /tmp/custom-replay.wasm
host:
  inherit_env: true
engine:
  interpreter: true
  memory_limit_pages: 512
timeout: 30s
log:
  level: debug
  format: json
`), 0o644))

	cfg, err := Load(New(), path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/custom-replay.wasm", cfg.Paths().Replay)
	assert.Equal(t, "/srv/machines/host_io.wasm", cfg.Paths().HostIO)
	assert.True(t, cfg.HostOptions().InheritEnv)
	assert.True(t, cfg.HostOptions().InheritStdio, "unset keys keep defaults")
	assert.Equal(t, 30*time.Second, cfg.Timeout)

	ec := cfg.EngineConfig()
	assert.True(t, ec.Interpreter)
	assert.Equal(t, uint32(512), ec.MemoryLimitPages)
	assert.True(t, ec.CloseOnContextDone)
}

func TestLoadEnv(t *testing.T) {
	t.Setenv("REPLAY_MODULES_DIR", "/opt/replay")
	t.Setenv("REPLAY_HOST_INHERIT_ARGS", "false")
	t.Setenv("REPLAY_TIMEOUT", "2m")

	cfg, err := Load(New(), "")
	require.NoError(t, err)
	assert.Equal(t, "/opt/replay", cfg.Modules.Dir)
	assert.False(t, cfg.Host.InheritArgs)
	assert.Equal(t, 2*time.Minute, cfg.Timeout)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(New(), filepath.Join(t.TempDir(), "absent.yaml"))

	var cfgErr *errors.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "config", cfgErr.Key)
	assert.ErrorIs(t, err, errors.ErrConfig)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		key    string
	}{
		{"no module dir", func(c *Config) { c.Modules.Dir = "" }, KeyModulesHostIO},
		{"no dir, only host_io", func(c *Config) { c.Modules.Dir = ""; c.Modules.HostIO = "h.wasm" }, KeyModulesGoStub},
		{"memory limit", func(c *Config) { c.Engine.MemoryLimitPages = maxMemoryPages + 1 }, KeyMemoryLimitPages},
		{"negative timeout", func(c *Config) { c.Timeout = -time.Second }, KeyTimeout},
		{"log level", func(c *Config) { c.Log.Level = "loud" }, KeyLogLevel},
		{"log format", func(c *Config) { c.Log.Format = "xml" }, KeyLogFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)

			var cfgErr *errors.ConfigError
			require.ErrorAs(t, cfg.Validate(), &cfgErr)
			assert.Equal(t, tt.key, cfgErr.Key)
		})
	}

	explicit := DefaultConfig()
	explicit.Modules = ModulesConfig{HostIO: "a.wasm", GoStub: "b.wasm", Replay: "c.wasm"}
	assert.NoError(t, explicit.Validate())
}
