package runtime

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/wippyai/wasm-replay/engine"
	"github.com/wippyai/wasm-replay/errors"
	"github.com/wippyai/wasm-replay/linker"
	"github.com/wippyai/wasm-replay/wasi"
)

// Module roles, the namespaces they are published under, and the entry point.
const (
	RoleHostIO = "host_io"
	RoleGoStub = "go_stub"
	RoleReplay = "replay"

	NamespaceEnv = "env"
	NamespaceGo  = "go"

	EntryPoint = "run"
)

// Paths locates the three module binaries.
type Paths struct {
	HostIO string
	GoStub string
	Replay string
}

// Modules are the three loaded modules of a run.
type Modules struct {
	HostIO *engine.Module
	GoStub *engine.Module
	Replay *engine.Module
}

// All returns the modules in instantiation order.
func (m Modules) All() []*engine.Module {
	return []*engine.Module{m.HostIO, m.GoStub, m.Replay}
}

// Runtime is the execution context of one run: a single store, a single
// host capability context and the namespace registry. It is used once and
// then closed.
type Runtime struct {
	engine *engine.Engine
	host   *wasi.Context
	linker *linker.Linker
	state  State
}

// New creates a runtime whose guests share host.
func New(ctx context.Context, cfg *engine.Config, host *wasi.Context) (*Runtime, error) {
	eng, err := engine.New(ctx, cfg)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseConfig, errors.KindInvalidConfig, err, "create engine")
	}
	return &Runtime{
		engine: eng,
		host:   host,
		linker: linker.New(eng.Runtime(), host),
	}, nil
}

// Close releases the store and every instance in it.
func (r *Runtime) Close(ctx context.Context) error {
	return r.engine.Close(ctx)
}

// State returns the current lifecycle stage.
func (r *Runtime) State() State {
	return r.state
}

// Engine returns the underlying engine.
func (r *Runtime) Engine() *engine.Engine {
	return r.engine
}

// Linker returns the namespace registry.
func (r *Runtime) Linker() *linker.Linker {
	return r.linker
}

// Host returns the shared capability context.
func (r *Runtime) Host() *wasi.Context {
	return r.host
}

// Load reads and compiles the three module binaries.
func (r *Runtime) Load(ctx context.Context, paths Paths) (Modules, error) {
	var mods Modules
	err := r.load(func(role string) (*engine.Module, error) {
		switch role {
		case RoleHostIO:
			return r.engine.LoadFile(ctx, role, paths.HostIO)
		case RoleGoStub:
			return r.engine.LoadFile(ctx, role, paths.GoStub)
		default:
			return r.engine.LoadFile(ctx, role, paths.Replay)
		}
	}, &mods)
	return mods, err
}

// LoadModules compiles the three module binaries from memory.
func (r *Runtime) LoadModules(ctx context.Context, hostIO, goStub, replay []byte) (Modules, error) {
	var mods Modules
	err := r.load(func(role string) (*engine.Module, error) {
		switch role {
		case RoleHostIO:
			return r.engine.LoadModule(ctx, role, hostIO)
		case RoleGoStub:
			return r.engine.LoadModule(ctx, role, goStub)
		default:
			return r.engine.LoadModule(ctx, role, replay)
		}
	}, &mods)
	return mods, err
}

func (r *Runtime) load(loadRole func(role string) (*engine.Module, error), mods *Modules) error {
	if r.state != StateUnloaded {
		return r.fail(r.stateError("load"))
	}

	var err error
	if mods.HostIO, err = loadRole(RoleHostIO); err != nil {
		return r.fail(err)
	}
	if mods.GoStub, err = loadRole(RoleGoStub); err != nil {
		return r.fail(err)
	}
	if mods.Replay, err = loadRole(RoleReplay); err != nil {
		return r.fail(err)
	}

	r.advance(StateLoaded)
	return nil
}

// advance moves the state machine forward; backward moves are ignored.
func (r *Runtime) advance(to State) {
	if to <= r.state || r.state.Terminal() {
		return
	}
	Logger().Debug("state", zap.Stringer("from", r.state), zap.Stringer("to", to))
	r.state = to
}

// fail moves to the terminal state matching err and returns err unchanged.
func (r *Runtime) fail(err error) error {
	r.advance(StateOf(err))
	return err
}

func (r *Runtime) stateError(op string) error {
	return &errors.Error{
		Phase:  errors.PhaseRuntime,
		Kind:   errors.KindInstantiation,
		Detail: fmt.Sprintf("%s: runtime is %s", op, r.state),
	}
}
