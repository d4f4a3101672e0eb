package linker

import (
	"fmt"
	"slices"
	"strings"

	"github.com/wippyai/wasm-replay/errors"
	"github.com/wippyai/wasm-replay/wasm"
)

// Unresolved import reasons.
const (
	ReasonUnknownNamespace  = "namespace not registered"
	ReasonMissingExport     = "no such export"
	ReasonKindMismatch      = "kind mismatch"
	ReasonSignatureMismatch = "signature mismatch"
)

// Resolve returns the binding that satisfies imp, declared by the module
// named module with interface iface. An import without a binding fails with
// *errors.UnresolvedImportError; nothing is ever substituted.
func Resolve(namespaces map[string]*Namespace, module string, iface *wasm.Module, imp wasm.Import) (Binding, error) {
	ns, ok := namespaces[imp.Module]
	if !ok {
		return Binding{}, unresolved(module, imp, ReasonUnknownNamespace)
	}

	b, ok := ns.Lookup(imp.Name)
	if !ok {
		return Binding{}, unresolved(module, imp, ReasonMissingExport)
	}

	if b.Kind != imp.Desc.Kind {
		return Binding{}, unresolved(module, imp, fmt.Sprintf("%s: import %s, export %s",
			ReasonKindMismatch, wasm.KindName(imp.Desc.Kind), wasm.KindName(b.Kind)))
	}

	if imp.Desc.Kind == wasm.KindFunc {
		want := iface.ImportFuncType(imp)
		if want == nil || b.Func == nil || !want.Equal(*b.Func) {
			return Binding{}, unresolved(module, imp, fmt.Sprintf("%s: import %s, export %s",
				ReasonSignatureMismatch, sigString(want), sigString(b.Func)))
		}
	}

	return b, nil
}

// ResolveAll checks every import of iface in declared order and stops at the
// first one without a binding.
func ResolveAll(namespaces map[string]*Namespace, module string, iface *wasm.Module) error {
	for _, imp := range iface.Imports {
		if _, err := Resolve(namespaces, module, iface, imp); err != nil {
			return err
		}
	}
	return nil
}

func unresolved(module string, imp wasm.Import, reason string) *errors.UnresolvedImportError {
	return &errors.UnresolvedImportError{
		Module:    module,
		Namespace: imp.Module,
		Name:      imp.Name,
		Reason:    reason,
	}
}

func sigString(f *wasm.FuncType) string {
	if f == nil {
		return "<none>"
	}
	return f.String()
}

func sortBindings(b []Binding) {
	slices.SortFunc(b, func(x, y Binding) int {
		return strings.Compare(x.Name, y.Name)
	})
}
