package main

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/term"

	"github.com/wippyai/wasm-replay/config"
	"github.com/wippyai/wasm-replay/engine"
	"github.com/wippyai/wasm-replay/linker"
	"github.com/wippyai/wasm-replay/runtime"
)

// newLogger builds the process logger. It always writes to stderr so that
// guest stdout stays byte-exact.
func newLogger(cfg config.LogConfig, verbose bool) (*zap.Logger, error) {
	return buildLogger(cfg, verbose, os.Stderr, term.IsTerminal(int(os.Stderr.Fd())))
}

func buildLogger(cfg config.LogConfig, verbose bool, out zapcore.WriteSyncer, color bool) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	if verbose {
		level = zapcore.DebugLevel
	}

	var enc zapcore.Encoder
	if cfg.Format == "json" {
		enc = zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	} else {
		ec := zap.NewDevelopmentEncoderConfig()
		ec.EncodeLevel = zapcore.CapitalLevelEncoder
		if color {
			ec.EncodeLevel = zapcore.CapitalColorLevelEncoder
		}
		enc = zapcore.NewConsoleEncoder(ec)
	}

	core := zapcore.NewCore(enc, zapcore.Lock(out), level)
	return zap.New(core).Named(config.AppName), nil
}

func installLogger(l *zap.Logger) {
	engine.SetLogger(l)
	linker.SetLogger(l)
	runtime.SetLogger(l)
}
