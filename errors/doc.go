// Package errors provides the error taxonomy of the replay harness.
//
// Every error carries a Phase (where it happened) and a Kind (what went
// wrong). Dedicated types hold the context each failure needs:
//
//	LoadError               module binary missing, unreadable or malformed
//	CapabilityError         host environment could not be introspected
//	UnresolvedImportError   first import with no binding in the registry
//	DuplicateNamespaceError namespace registered twice
//	MissingEntryPointError  terminal module lacks run: () -> ()
//	TrapError               VM fault during the entry point call
//	ConfigError             invalid configuration value
//
// Match a category with errors.Is against the package sentinels, or extract
// the details with errors.As:
//
//	if errors.Is(err, errors.ErrTrap) { ... }
//
//	var unresolved *errors.UnresolvedImportError
//	if errors.As(err, &unresolved) {
//		log.Printf("missing %s#%s", unresolved.Namespace, unresolved.Name)
//	}
//
// None of these errors are retried: a deterministic replay with the same
// inputs reproduces the same failure.
package errors
