package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/wippyai/wasm-replay/config"
	"github.com/wippyai/wasm-replay/wasi"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
)

// app holds state shared by the commands of one invocation.
type app struct {
	v       *viper.Viper
	cfg     *config.Config
	logger  *zap.Logger
	process func() wasi.Process
	cfgFile string
	verbose bool
}

func newApp() *app {
	return &app{
		v:       config.New(),
		process: wasi.OSProcess,
		logger:  zap.NewNop(),
	}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   config.AppName,
		Short: "Link and run a deterministic WebAssembly replay",
		Long: titleStyle.Render("replay") + mutedStyle.Render(" - deterministic WebAssembly replay harness") + `

Loads three modules, links them in a fixed order and calls run() once:

  host_io  -> namespace "env"
  go_stub  -> namespace "go"
  replay   -> terminal, exports run: () -> ()

Guest stdout is passed through unchanged; logs go to stderr.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "config file (default is ./replay.{yaml,toml,json})")
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")
	pf.String("modules-dir", config.DefaultModulesDir, "directory holding host_io.wasm, go_stub.wasm and replay.wasm")
	pf.String("replay", "", "path to the replay module")
	pf.String("go-stub", "", "path to the go_stub module")
	pf.String("host-io", "", "path to the host_io module")
	pf.Bool("interpreter", false, "use the interpreter instead of the compiler")
	pf.String("log-level", "info", "log level (debug, info, warn, error)")
	pf.String("log-format", "console", "log format (console, json)")

	a.bind(root, map[string]string{
		"modules-dir": config.KeyModulesDir,
		"replay":      config.KeyModulesReplay,
		"go-stub":     config.KeyModulesGoStub,
		"host-io":     config.KeyModulesHostIO,
		"interpreter": config.KeyInterpreter,
		"log-level":   config.KeyLogLevel,
		"log-format":  config.KeyLogFormat,
	}, true)

	root.AddCommand(newRunCmd(a))
	root.AddCommand(newInspectCmd(a))
	root.AddCommand(newVersionCmd())
	return root
}

// bind ties flags to configuration keys so that an explicit flag overrides
// the file and environment.
func (a *app) bind(cmd *cobra.Command, flags map[string]string, persistent bool) {
	fs := cmd.Flags()
	if persistent {
		fs = cmd.PersistentFlags()
	}
	for flag, key := range flags {
		if err := a.v.BindPFlag(key, fs.Lookup(flag)); err != nil {
			panic(fmt.Sprintf("bind flag %s: %v", flag, err))
		}
	}
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	if cmd.Name() == "version" {
		return nil
	}

	cfg, err := config.Load(a.v, a.cfgFile)
	if err != nil {
		return &ExitError{Code: ExitConfig, Err: err}
	}
	a.cfg = cfg

	logger, err := newLogger(cfg.Log, a.verbose)
	if err != nil {
		return &ExitError{Code: ExitConfig, Err: err}
	}
	a.logger = logger
	installLogger(logger)

	if used := a.v.ConfigFileUsed(); used != "" {
		logger.Debug("configuration loaded", zap.String("file", used))
	}
	return nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), versionString())
		},
	}
}

func versionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s)", Version, Commit)
}
