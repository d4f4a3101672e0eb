// Package linker resolves imports between the modules of a replay run.
//
// # Main Types
//
//   - Linker: write-once registry of namespaces for one store
//   - Namespace: the bindings one instance publishes under a name
//   - Instance: a module instantiated in the store
//
// # Import Resolution
//
// An import (namespace, name) resolves only against a namespace registered
// before the importing module is instantiated. Imports are checked in the
// order the module declares them and the first miss is reported as
// *errors.UnresolvedImportError naming that pair. There are no defaults, no
// stubs, and no retries.
//
// The capability namespace wasi_snapshot_preview1 is reserved and registered
// by RegisterCapabilities. Registering any name twice fails with
// *errors.DuplicateNamespaceError.
//
// # Example
//
//	l := linker.New(eng.Runtime(), hostCtx)
//	if err := l.RegisterCapabilities(ctx); err != nil {
//	    return err
//	}
//	hostIO, err := l.Instantiate(ctx, hostIOModule)
//	if err != nil {
//	    return err
//	}
//	if err := l.RegisterNamespace("env", hostIO); err != nil {
//	    return err
//	}
package linker
