package runtime

import (
	"context"

	"github.com/wippyai/wasm-replay/engine"
	"github.com/wippyai/wasm-replay/errors"
	"github.com/wippyai/wasm-replay/linker"
	"github.com/wippyai/wasm-replay/wasi"
	"github.com/wippyai/wasm-replay/wasm"
)

// ImportReport is the resolution status of one declared import.
type ImportReport struct {
	Namespace string
	Name      string
	Signature string
	Reason    string
	Kind      byte
	Resolved  bool
}

// StepReport describes one module of the topology.
type StepReport struct {
	Role      string
	Namespace string // empty for the terminal module
	Path      string
	Digest    string
	Imports   []ImportReport
	Exports   []linker.Binding
}

// EntryReport is the status of the entry point export.
type EntryReport struct {
	Name   string
	Reason string
	Found  bool
}

// LinkReport is a static view of how the modules would link, computed
// without instantiating any guest.
type LinkReport struct {
	Capabilities []linker.Binding
	Steps        []StepReport
	Entry        EntryReport
	err          error
}

// Err returns the first failure Link or Run would report, in the same order.
func (r *LinkReport) Err() error {
	return r.err
}

// OK reports whether every import resolves and the entry point is valid.
func (r *LinkReport) OK() bool {
	return r.err == nil
}

// Inspect loads the modules at paths and reports import resolution for the
// fixed topology. Unlike Link it does not stop at the first unresolved
// import. Load failures are returned as errors.
func Inspect(ctx context.Context, cfg *engine.Config, paths Paths) (*LinkReport, error) {
	host, err := wasi.Build(wasi.Options{}, wasi.Process{})
	if err != nil {
		return nil, err
	}
	rt, err := New(ctx, cfg, host)
	if err != nil {
		return nil, err
	}
	defer rt.Close(ctx)

	mods, err := rt.Load(ctx, paths)
	if err != nil {
		return nil, err
	}

	capMod, err := host.Instantiate(ctx, rt.Engine().Runtime())
	if err != nil {
		return nil, err
	}
	return Report(mods, linker.HostBindings(capMod)), nil
}

// Report computes the link report for mods given the capability bindings.
func Report(mods Modules, capabilities []linker.Binding) *LinkReport {
	report := &LinkReport{Capabilities: capabilities}
	namespaces := map[string]*linker.Namespace{
		linker.CapabilityNamespace: linker.NewNamespace(linker.CapabilityNamespace, capabilities),
	}

	for _, s := range topology {
		mod := s.module(mods)
		iface := mod.Interface()
		sr := StepReport{
			Role:      s.role,
			Namespace: s.namespace,
			Path:      mod.Path(),
			Digest:    mod.Digest(),
			Exports:   linker.ModuleBindings(iface),
		}

		for _, imp := range iface.Imports {
			ir := ImportReport{
				Namespace: imp.Module,
				Name:      imp.Name,
				Kind:      imp.Desc.Kind,
				Resolved:  true,
			}
			if sig := iface.ImportFuncType(imp); sig != nil {
				ir.Signature = sig.String()
			}
			if _, err := linker.Resolve(namespaces, mod.Name(), iface, imp); err != nil {
				ir.Resolved = false
				var unresolved *errors.UnresolvedImportError
				if errors.As(err, &unresolved) {
					ir.Reason = unresolved.Reason
				}
				if report.err == nil {
					report.err = err
				}
			}
			sr.Imports = append(sr.Imports, ir)
		}

		if s.namespace != "" {
			namespaces[s.namespace] = linker.NewNamespace(s.namespace, sr.Exports)
		} else {
			report.Entry = entryReport(mod.Name(), iface)
			if err := CheckEntryPoint(mod.Name(), iface); err != nil && report.err == nil {
				report.err = err
			}
		}
		report.Steps = append(report.Steps, sr)
	}

	return report
}

func entryReport(module string, iface *wasm.Module) EntryReport {
	er := EntryReport{Name: EntryPoint, Found: true}
	if err := CheckEntryPoint(module, iface); err != nil {
		er.Found = false
		var missing *errors.MissingEntryPointError
		if errors.As(err, &missing) {
			er.Reason = missing.Reason
		}
	}
	return er
}
