package runtime

import (
	"context"

	"go.uber.org/zap"

	"github.com/wippyai/wasm-replay/engine"
	"github.com/wippyai/wasm-replay/wasi"
)

// Options configures a complete run.
type Options struct {
	Paths   Paths
	Process wasi.Process
	Engine  engine.Config
	Host    wasi.Options
}

// ModuleInfo identifies one module that took part in a run.
type ModuleInfo struct {
	Role   string `json:"role"`
	Path   string `json:"path"`
	Digest string `json:"digest"`
}

// Result is the outcome of Execute. It is returned even when the run fails.
type Result struct {
	OutputDigest string       `json:"output_digest,omitempty"`
	Modules      []ModuleInfo `json:"modules,omitempty"`
	State        State        `json:"state"`
}

// Execute loads, links and runs the three modules once, then closes the
// store. The returned error is the first failure, unchanged.
func Execute(ctx context.Context, opts Options) (*Result, error) {
	res := &Result{State: StateUnloaded}

	host, err := wasi.Build(opts.Host, opts.Process)
	if err != nil {
		res.State = StateOf(err)
		return res, err
	}

	rt, err := New(ctx, &opts.Engine, host)
	if err != nil {
		res.State = StateConfigError
		return res, err
	}
	defer func() {
		if cerr := rt.Close(ctx); cerr != nil {
			Logger().Warn("close runtime", zap.Error(cerr))
		}
	}()

	err = execute(ctx, rt, opts.Paths, res)
	res.State = rt.State()
	res.OutputDigest = host.OutputDigest()

	if err != nil {
		Logger().Error("run failed", zap.Stringer("state", res.State), zap.Error(err))
		return res, err
	}
	Logger().Info("run completed", zap.String("output_digest", res.OutputDigest))
	return res, nil
}

func execute(ctx context.Context, rt *Runtime, paths Paths, res *Result) error {
	mods, err := rt.Load(ctx, paths)
	if err != nil {
		return err
	}
	for _, m := range mods.All() {
		res.Modules = append(res.Modules, ModuleInfo{Role: m.Name(), Path: m.Path(), Digest: m.Digest()})
	}

	inst, err := rt.Link(ctx, mods)
	if err != nil {
		return err
	}
	return rt.Run(ctx, inst)
}
