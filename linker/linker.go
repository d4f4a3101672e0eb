package linker

import (
	"context"
	"fmt"
	"slices"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/experimental"
	"go.uber.org/zap"

	"github.com/wippyai/wasm-replay/engine"
	"github.com/wippyai/wasm-replay/errors"
	"github.com/wippyai/wasm-replay/wasi"
)

// CapabilityNamespace is the reserved namespace of the host capability module.
const CapabilityNamespace = wasi.ModuleName

// Linker is the write-once namespace registry of a single store. Every
// import of an instantiated module must name a registered namespace; imports
// are checked against the registry before the VM sees the module. Not safe
// for concurrent use; linking is sequential.
type Linker struct {
	runtime    wazero.Runtime
	host       *wasi.Context
	namespaces map[string]*Namespace
	instances  map[*engine.Module]*Instance
}

// New creates a linker over rt. host supplies the capability context every
// guest is instantiated with.
func New(rt wazero.Runtime, host *wasi.Context) *Linker {
	return &Linker{
		runtime:    rt,
		host:       host,
		namespaces: make(map[string]*Namespace),
		instances:  make(map[*engine.Module]*Instance),
	}
}

// Runtime returns the wazero runtime.
func (l *Linker) Runtime() wazero.Runtime {
	return l.runtime
}

// RegisterCapabilities installs the host capability module and registers it
// under CapabilityNamespace.
func (l *Linker) RegisterCapabilities(ctx context.Context) error {
	if _, exists := l.namespaces[CapabilityNamespace]; exists {
		return &errors.DuplicateNamespaceError{Name: CapabilityNamespace}
	}

	mod, err := l.host.Instantiate(ctx, l.runtime)
	if err != nil {
		return err
	}

	ns := newNamespace(CapabilityNamespace, mod, HostBindings(mod))
	l.namespaces[CapabilityNamespace] = ns

	Logger().Debug("capabilities registered",
		zap.String("namespace", CapabilityNamespace),
		zap.Int("bindings", ns.Len()),
	)
	return nil
}

// Instantiate resolves every import of mod in declared order against the
// registry and instantiates it. The first import without a binding fails
// with *errors.UnresolvedImportError before the VM is involved.
func (l *Linker) Instantiate(ctx context.Context, mod *engine.Module) (*Instance, error) {
	if _, done := l.instances[mod]; done {
		return nil, &errors.Error{
			Phase:  errors.PhaseLinking,
			Kind:   errors.KindInstantiation,
			Module: mod.Name(),
			Detail: "module already instantiated",
		}
	}

	if err := ResolveAll(l.namespaces, mod.Name(), mod.Interface()); err != nil {
		Logger().Debug("import unresolved", zap.String("module", mod.Name()), zap.Error(err))
		return nil, err
	}

	rctx := experimental.WithImportResolver(ctx, l.resolveModule)
	apiMod, err := l.runtime.InstantiateModule(rctx, mod.Compiled(), l.host.ModuleConfig(mod.Name()))
	if err != nil {
		return nil, errors.Instantiation(mod.Name(), err)
	}

	inst := &Instance{module: mod, api: apiMod}
	l.instances[mod] = inst

	Logger().Debug("module instantiated",
		zap.String("module", mod.Name()),
		zap.Int("imports", len(mod.Imports())),
	)
	return inst, nil
}

// RegisterNamespace publishes every export of inst under name. A name can be
// registered once; later attempts fail with *errors.DuplicateNamespaceError
// and leave the first bindings in place.
func (l *Linker) RegisterNamespace(name string, inst *Instance) error {
	if inst == nil {
		return errors.Wrap(errors.PhaseLinking, errors.KindInstantiation,
			fmt.Errorf("nil instance"), "register namespace "+name)
	}
	if _, exists := l.namespaces[name]; exists || name == CapabilityNamespace {
		return &errors.DuplicateNamespaceError{Name: name}
	}

	ns := newNamespace(name, inst.API(), ModuleBindings(inst.Module().Interface()))
	l.namespaces[name] = ns

	Logger().Debug("namespace registered",
		zap.String("namespace", name),
		zap.String("module", inst.Name()),
		zap.Int("bindings", ns.Len()),
	)
	return nil
}

// Namespace returns a registered namespace, or nil.
func (l *Linker) Namespace(name string) *Namespace {
	return l.namespaces[name]
}

// Namespaces returns the registered namespace names in sorted order.
func (l *Linker) Namespaces() []string {
	names := make([]string, 0, len(l.namespaces))
	for name := range l.namespaces {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// resolveModule maps registered namespaces to their instances for wazero.
// The capability module is a host module wazero already holds under its own
// name, so it is left to the store lookup.
func (l *Linker) resolveModule(name string) api.Module {
	if name == CapabilityNamespace {
		return nil
	}
	if ns, ok := l.namespaces[name]; ok {
		return ns.module
	}
	return nil
}
