package linker

import (
	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/wasm-replay/wasm"
)

// Binding is one export published under a namespace.
type Binding struct {
	// Func is the signature of a function binding, nil for other kinds.
	Func *wasm.FuncType
	Name string
	Kind byte
}

// String renders the binding as "func write_hello: () -> ()".
func (b Binding) String() string {
	s := wasm.KindName(b.Kind) + " " + b.Name
	if b.Func != nil {
		s += ": " + b.Func.String()
	}
	return s
}

// Namespace is a named set of bindings contributed by exactly one module.
// Once registered it is never modified.
type Namespace struct {
	module   api.Module
	bindings map[string]Binding
	name     string
	order    []string
}

func newNamespace(name string, module api.Module, bindings []Binding) *Namespace {
	ns := &Namespace{
		name:     name,
		module:   module,
		bindings: make(map[string]Binding, len(bindings)),
		order:    make([]string, 0, len(bindings)),
	}
	for _, b := range bindings {
		if _, dup := ns.bindings[b.Name]; dup {
			continue
		}
		ns.bindings[b.Name] = b
		ns.order = append(ns.order, b.Name)
	}
	return ns
}

// NewNamespace builds an unregistered namespace from bindings. Used for
// static link reports where no module is instantiated.
func NewNamespace(name string, bindings []Binding) *Namespace {
	return newNamespace(name, nil, bindings)
}

// Name returns the namespace name.
func (n *Namespace) Name() string {
	return n.name
}

// Module returns the instance whose exports back this namespace, nil for
// static namespaces.
func (n *Namespace) Module() api.Module {
	return n.module
}

// Lookup returns the binding published under name.
func (n *Namespace) Lookup(name string) (Binding, bool) {
	b, ok := n.bindings[name]
	return b, ok
}

// Bindings returns all bindings in export order.
func (n *Namespace) Bindings() []Binding {
	out := make([]Binding, len(n.order))
	for i, name := range n.order {
		out[i] = n.bindings[name]
	}
	return out
}

// Len returns the number of bindings.
func (n *Namespace) Len() int {
	return len(n.order)
}

// ModuleBindings derives the bindings a module would publish from its
// declared exports.
func ModuleBindings(iface *wasm.Module) []Binding {
	out := make([]Binding, 0, len(iface.Exports))
	for _, exp := range iface.Exports {
		out = append(out, Binding{
			Name: exp.Name,
			Kind: exp.Kind,
			Func: iface.ExportFuncType(exp),
		})
	}
	return out
}

// HostBindings derives bindings from the exported functions of a host module.
func HostBindings(mod api.Module) []Binding {
	defs := mod.ExportedFunctionDefinitions()
	out := make([]Binding, 0, len(defs))
	for _, def := range defs {
		names := def.ExportNames()
		if len(names) == 0 {
			continue
		}
		sig := &wasm.FuncType{
			Params:  valTypes(def.ParamTypes()),
			Results: valTypes(def.ResultTypes()),
		}
		for _, name := range names {
			out = append(out, Binding{Name: name, Kind: wasm.KindFunc, Func: sig})
		}
	}
	sortBindings(out)
	return out
}

// wazero value types share the binary encoding.
func valTypes(types []api.ValueType) []wasm.ValType {
	out := make([]wasm.ValType, len(types))
	for i, t := range types {
		out[i] = wasm.ValType(t)
	}
	return out
}
