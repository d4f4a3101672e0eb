package engine

import (
	"context"
	"fmt"

	"github.com/tetratelabs/wazero"
	"go.uber.org/zap"
)

// Config holds configuration for engine creation
type Config struct {
	// CacheDir enables wazero's on-disk compilation cache when non-empty.
	CacheDir string

	// MemoryLimitPages sets the maximum memory per instance in pages (64KB each).
	// 0 means default (65536 pages = 4GB).
	MemoryLimitPages uint32

	// Interpreter forces wazero's interpreter instead of the optimizing
	// compiler, trading speed for identical behavior on every platform.
	Interpreter bool

	// CloseOnContextDone makes guest calls observe context cancellation.
	// Only needed when a supervisor imposes a deadline.
	CloseOnContextDone bool
}

// Engine owns the wazero runtime every module of a run is compiled and
// instantiated in.
type Engine struct {
	runtime wazero.Runtime
	cache   wazero.CompilationCache
}

// New creates a new wazero-based engine. A nil cfg uses defaults.
func New(ctx context.Context, cfg *Config) (*Engine, error) {
	if cfg == nil {
		cfg = &Config{}
	}

	var runtimeCfg wazero.RuntimeConfig
	if cfg.Interpreter {
		runtimeCfg = wazero.NewRuntimeConfigInterpreter()
	} else {
		runtimeCfg = wazero.NewRuntimeConfig()
	}

	if cfg.MemoryLimitPages > 0 {
		runtimeCfg = runtimeCfg.WithMemoryLimitPages(cfg.MemoryLimitPages)
	}
	if cfg.CloseOnContextDone {
		runtimeCfg = runtimeCfg.WithCloseOnContextDone(true)
	}

	e := &Engine{}
	if cfg.CacheDir != "" {
		cache, err := wazero.NewCompilationCacheWithDir(cfg.CacheDir)
		if err != nil {
			return nil, fmt.Errorf("compilation cache %s: %w", cfg.CacheDir, err)
		}
		runtimeCfg = runtimeCfg.WithCompilationCache(cache)
		e.cache = cache
	}

	e.runtime = wazero.NewRuntimeWithConfig(ctx, runtimeCfg)

	Logger().Debug("engine created",
		zap.Bool("interpreter", cfg.Interpreter),
		zap.Uint32("memory_limit_pages", cfg.MemoryLimitPages),
		zap.String("cache_dir", cfg.CacheDir),
	)
	return e, nil
}

// Runtime returns the wazero runtime.
func (e *Engine) Runtime() wazero.Runtime {
	return e.runtime
}

// Close releases the runtime, every module instantiated in it, and the
// compilation cache.
func (e *Engine) Close(ctx context.Context) error {
	err := e.runtime.Close(ctx)
	if e.cache != nil {
		if cerr := e.cache.Close(ctx); err == nil {
			err = cerr
		}
	}
	return err
}
