package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"

	"github.com/wippyai/wasm-replay/engine"
	"github.com/wippyai/wasm-replay/errors"
	"github.com/wippyai/wasm-replay/runtime"
	"github.com/wippyai/wasm-replay/wasi"
)

const (
	// AppName is the application name.
	AppName = "replay"
	// EnvPrefix prefixes environment overrides: modules.dir is REPLAY_MODULES_DIR.
	EnvPrefix = "REPLAY"
	// DefaultModulesDir is where the three binaries are looked up by default.
	DefaultModulesDir = "target/machines/latest"

	// maxMemoryPages is the 32-bit address space limit in 64KiB pages.
	maxMemoryPages = 65536
)

// Configuration keys.
const (
	KeyModulesDir       = "modules.dir"
	KeyModulesReplay    = "modules.replay"
	KeyModulesGoStub    = "modules.go_stub"
	KeyModulesHostIO    = "modules.host_io"
	KeyInheritStdio     = "host.inherit_stdio"
	KeyInheritArgs      = "host.inherit_args"
	KeyInheritEnv       = "host.inherit_env"
	KeyMemoryLimitPages = "engine.memory_limit_pages"
	KeyInterpreter      = "engine.interpreter"
	KeyCacheDir         = "engine.cache_dir"
	KeyTimeout          = "timeout"
	KeyLogLevel         = "log.level"
	KeyLogFormat        = "log.format"
)

// Config is the complete replay configuration.
type Config struct {
	Modules ModulesConfig `mapstructure:"modules"`
	Log     LogConfig     `mapstructure:"log"`
	Engine  EngineConfig  `mapstructure:"engine"`
	Timeout time.Duration `mapstructure:"timeout"`
	Host    HostConfig    `mapstructure:"host"`
}

// ModulesConfig locates the module binaries. An empty role path defaults to
// <dir>/<role>.wasm.
type ModulesConfig struct {
	Dir    string `mapstructure:"dir"`
	Replay string `mapstructure:"replay"`
	GoStub string `mapstructure:"go_stub"`
	HostIO string `mapstructure:"host_io"`
}

// HostConfig selects the capabilities inherited from the host process.
type HostConfig struct {
	InheritStdio bool `mapstructure:"inherit_stdio"`
	InheritArgs  bool `mapstructure:"inherit_args"`
	InheritEnv   bool `mapstructure:"inherit_env"`
}

// EngineConfig tunes the VM.
type EngineConfig struct {
	CacheDir         string `mapstructure:"cache_dir"`
	MemoryLimitPages uint32 `mapstructure:"memory_limit_pages"`
	Interpreter      bool   `mapstructure:"interpreter"`
}

// LogConfig configures the logger. Format is console or json.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// DefaultConfig returns the configuration used when nothing is overridden.
func DefaultConfig() *Config {
	return &Config{
		Modules: ModulesConfig{Dir: DefaultModulesDir},
		Host: HostConfig{
			InheritStdio: true,
			InheritArgs:  true,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// New returns a viper instance with defaults and environment overrides set.
func New() *viper.Viper {
	v := viper.New()

	defaults := DefaultConfig()
	v.SetDefault(KeyModulesDir, defaults.Modules.Dir)
	v.SetDefault(KeyModulesReplay, defaults.Modules.Replay)
	v.SetDefault(KeyModulesGoStub, defaults.Modules.GoStub)
	v.SetDefault(KeyModulesHostIO, defaults.Modules.HostIO)
	v.SetDefault(KeyInheritStdio, defaults.Host.InheritStdio)
	v.SetDefault(KeyInheritArgs, defaults.Host.InheritArgs)
	v.SetDefault(KeyInheritEnv, defaults.Host.InheritEnv)
	v.SetDefault(KeyMemoryLimitPages, defaults.Engine.MemoryLimitPages)
	v.SetDefault(KeyInterpreter, defaults.Engine.Interpreter)
	v.SetDefault(KeyCacheDir, defaults.Engine.CacheDir)
	v.SetDefault(KeyTimeout, defaults.Timeout)
	v.SetDefault(KeyLogLevel, defaults.Log.Level)
	v.SetDefault(KeyLogFormat, defaults.Log.Format)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the optional config file into v and decodes the result. With an
// empty path, replay.{yaml,toml,json} in the working directory is used when
// present. The returned configuration is validated.
func Load(v *viper.Viper, path string) (*Config, error) {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, &errors.ConfigError{Key: "config", Detail: path, Cause: err}
		}
	} else {
		v.SetConfigName(AppName)
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, &errors.ConfigError{Key: "config", Detail: v.ConfigFileUsed(), Cause: err}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, &errors.ConfigError{Detail: "decode configuration", Cause: err}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks every key and reports the first invalid one as
// *errors.ConfigError.
func (c *Config) Validate() error {
	if c.Modules.Dir == "" {
		roles := []struct{ key, path string }{
			{KeyModulesHostIO, c.Modules.HostIO},
			{KeyModulesGoStub, c.Modules.GoStub},
			{KeyModulesReplay, c.Modules.Replay},
		}
		for _, r := range roles {
			if r.path == "" {
				return &errors.ConfigError{Key: r.key, Detail: "no path and no " + KeyModulesDir}
			}
		}
	}
	if c.Engine.MemoryLimitPages > maxMemoryPages {
		return &errors.ConfigError{
			Key:    KeyMemoryLimitPages,
			Detail: fmt.Sprintf("%d exceeds %d", c.Engine.MemoryLimitPages, maxMemoryPages),
		}
	}
	if c.Timeout < 0 {
		return &errors.ConfigError{Key: KeyTimeout, Detail: "must not be negative"}
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		return &errors.ConfigError{Key: KeyLogLevel, Cause: err}
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		return &errors.ConfigError{Key: KeyLogFormat, Detail: fmt.Sprintf("unknown format %q", c.Log.Format)}
	}
	return nil
}

// Paths resolves the three module paths.
func (c *Config) Paths() runtime.Paths {
	resolve := func(p, role string) string {
		if p != "" {
			return p
		}
		return filepath.Join(c.Modules.Dir, role+".wasm")
	}
	return runtime.Paths{
		HostIO: resolve(c.Modules.HostIO, runtime.RoleHostIO),
		GoStub: resolve(c.Modules.GoStub, runtime.RoleGoStub),
		Replay: resolve(c.Modules.Replay, runtime.RoleReplay),
	}
}

// EngineConfig returns the VM configuration. A timeout requires the VM to
// observe context cancellation.
func (c *Config) EngineConfig() engine.Config {
	return engine.Config{
		CacheDir:           c.Engine.CacheDir,
		MemoryLimitPages:   c.Engine.MemoryLimitPages,
		Interpreter:        c.Engine.Interpreter,
		CloseOnContextDone: c.Timeout > 0,
	}
}

// HostOptions returns the capability options.
func (c *Config) HostOptions() wasi.Options {
	return wasi.Options{
		InheritStdio: c.Host.InheritStdio,
		InheritArgs:  c.Host.InheritArgs,
		InheritEnv:   c.Host.InheritEnv,
	}
}
