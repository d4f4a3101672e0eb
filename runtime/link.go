package runtime

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/wippyai/wasm-replay/engine"
	"github.com/wippyai/wasm-replay/errors"
	"github.com/wippyai/wasm-replay/linker"
)

// step is one stage of the fixed instantiation topology. An empty namespace
// marks the terminal module.
type step struct {
	module    func(Modules) *engine.Module
	role      string
	namespace string
	reached   State
}

var topology = []step{
	{role: RoleHostIO, namespace: NamespaceEnv, reached: StateLinkedEnv, module: func(m Modules) *engine.Module { return m.HostIO }},
	{role: RoleGoStub, namespace: NamespaceGo, reached: StateLinkedGo, module: func(m Modules) *engine.Module { return m.GoStub }},
	{role: RoleReplay, reached: StateInstantiated, module: func(m Modules) *engine.Module { return m.Replay }},
}

// Link registers the host capabilities, then instantiates host_io and
// publishes it as "env", go_stub as "go", and finally replay. The order is
// fixed and each module is instantiated exactly once. It returns the
// terminal replay instance.
func (r *Runtime) Link(ctx context.Context, mods Modules) (*linker.Instance, error) {
	if r.state > StateLoaded {
		return nil, r.fail(r.stateError("link"))
	}
	for _, s := range topology {
		if s.module(mods) == nil {
			return nil, r.fail(&errors.ConfigError{Key: "modules." + s.role, Detail: "module not loaded"})
		}
	}
	r.advance(StateLoaded)

	if err := r.linker.RegisterCapabilities(ctx); err != nil {
		return nil, r.fail(err)
	}

	var inst *linker.Instance
	for _, s := range topology {
		var err error
		inst, err = r.linker.Instantiate(ctx, s.module(mods))
		if err != nil {
			Logger().Error("instantiation failed", zap.String("module", s.role), zap.Error(err))
			return nil, r.fail(err)
		}

		if s.namespace != "" {
			if err := r.linker.RegisterNamespace(s.namespace, inst); err != nil {
				return nil, r.fail(err)
			}
		}

		r.advance(s.reached)
		Logger().Info("module linked",
			zap.String("module", s.role),
			zap.String("namespace", namespaceLabel(s.namespace)),
			zap.String("digest", inst.Module().Digest()),
		)
	}

	return inst, nil
}

func namespaceLabel(ns string) string {
	if ns == "" {
		return "(terminal)"
	}
	return fmt.Sprintf("%q", ns)
}
