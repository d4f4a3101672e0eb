package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/wippyai/wasm-replay/config"
	"github.com/wippyai/wasm-replay/runtime"
)

func newRunCmd(a *app) *cobra.Command {
	var printDigest bool

	cmd := &cobra.Command{
		Use:   "run [-- guest-args...]",
		Short: "Link the modules and call run() once",
		Long: `Link the three modules and invoke the replay entry point once.

Arguments after -- are passed to the guest; argv[0] is the replay module path.
Exit status is 0 on completion, 2 for configuration, load or link errors and
3 when the guest traps.`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd.Context(), args, printDigest, cmd)
		},
	}

	cmd.Flags().BoolVar(&printDigest, "digest", false, "print the sha256 of guest stdout to stderr")
	cmd.Flags().Duration("timeout", 0, "abort the run after this long (0 means no limit)")
	cmd.Flags().Bool("inherit-env", false, "pass the host environment to guests")
	cmd.Flags().Bool("inherit-args", true, "pass guest arguments to guests")
	a.bind(cmd, map[string]string{
		"timeout":      config.KeyTimeout,
		"inherit-env":  config.KeyInheritEnv,
		"inherit-args": config.KeyInheritArgs,
	}, false)

	return cmd
}

func (a *app) run(ctx context.Context, args []string, printDigest bool, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg := a.cfg
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	paths := cfg.Paths()
	proc := a.process()
	proc.Args = append([]string{paths.Replay}, args...)

	res, err := runtime.Execute(ctx, runtime.Options{
		Paths:   paths,
		Engine:  cfg.EngineConfig(),
		Host:    cfg.HostOptions(),
		Process: proc,
	})

	for _, m := range res.Modules {
		a.logger.Debug("module", zap.String("role", m.Role), zap.String("path", m.Path), zap.String("digest", m.Digest))
	}
	if printDigest && res.OutputDigest != "" {
		fmt.Fprintln(cmd.ErrOrStderr(), res.OutputDigest)
	}
	if err != nil {
		return &ExitError{Code: exitCode(err), Err: err}
	}

	a.logger.Info("replay completed",
		zap.Stringer("state", res.State),
		zap.String("output_digest", res.OutputDigest),
	)
	return nil
}
