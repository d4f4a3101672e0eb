package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseConfig  Phase = "config"  // configuration validation
	PhaseLoad    Phase = "load"    // module loading
	PhaseHost    Phase = "host"    // host capability construction
	PhaseLinking Phase = "linking" // import resolution and namespace registration
	PhaseRuntime Phase = "runtime" // entry point execution
)

// Kind categorizes the error
type Kind string

const (
	KindInvalidConfig      Kind = "invalid_config"
	KindInvalidModule      Kind = "invalid_module"
	KindCapability         Kind = "capability_unavailable"
	KindMissingImport      Kind = "missing_import"
	KindDuplicateNamespace Kind = "duplicate_namespace"
	KindMissingEntryPoint  Kind = "missing_entry_point"
	KindTrap               Kind = "trap"
	KindInstantiation      Kind = "instantiation"
)

// Sentinels for errors.Is matching by phase and kind.
var (
	ErrConfig             = &Error{Phase: PhaseConfig, Kind: KindInvalidConfig}
	ErrLoad               = &Error{Phase: PhaseLoad, Kind: KindInvalidModule}
	ErrCapability         = &Error{Phase: PhaseHost, Kind: KindCapability}
	ErrUnresolvedImport   = &Error{Phase: PhaseLinking, Kind: KindMissingImport}
	ErrDuplicateNamespace = &Error{Phase: PhaseLinking, Kind: KindDuplicateNamespace}
	ErrInstantiation      = &Error{Phase: PhaseLinking, Kind: KindInstantiation}
	ErrMissingEntryPoint  = &Error{Phase: PhaseRuntime, Kind: KindMissingEntryPoint}
	ErrTrap               = &Error{Phase: PhaseRuntime, Kind: KindTrap}
)

// Classified is implemented by every error in this package.
type Classified interface {
	error
	Classify() (Phase, Kind)
}

// Error is the generic structured error used where no dedicated type exists.
type Error struct {
	Cause  error
	Phase  Phase
	Kind   Kind
	Module string
	Detail string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder
	writeHeader(&b, e.Phase, e.Kind)

	if e.Module != "" {
		b.WriteString(" in module ")
		b.WriteString(e.Module)
	}

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	writeCause(&b, e.Cause)
	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Classify returns the phase and kind.
func (e *Error) Classify() (Phase, Kind) {
	return e.Phase, e.Kind
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	return matches(e.Phase, e.Kind, target)
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}

// Instantiation creates an error for a VM-side instantiation failure that
// passed import resolution (start section trap, memory limits).
func Instantiation(module string, cause error) *Error {
	return &Error{
		Phase:  PhaseLinking,
		Kind:   KindInstantiation,
		Module: module,
		Detail: "instantiate module",
		Cause:  cause,
	}
}

// LoadError reports a module binary that is missing, unreadable or malformed.
type LoadError struct {
	Cause  error
	Module string
	Path   string
}

func (e *LoadError) Error() string {
	var b strings.Builder
	writeHeader(&b, PhaseLoad, KindInvalidModule)
	fmt.Fprintf(&b, ": module %q", e.Module)
	if e.Path != "" {
		fmt.Fprintf(&b, " from %s", e.Path)
	}
	writeCause(&b, e.Cause)
	return b.String()
}

func (e *LoadError) Unwrap() error           { return e.Cause }
func (e *LoadError) Classify() (Phase, Kind) { return PhaseLoad, KindInvalidModule }
func (e *LoadError) Is(target error) bool    { return matches(PhaseLoad, KindInvalidModule, target) }

// CapabilityError reports that the host environment could not be introspected.
type CapabilityError struct {
	Cause      error
	Capability string
}

func (e *CapabilityError) Error() string {
	var b strings.Builder
	writeHeader(&b, PhaseHost, KindCapability)
	b.WriteString(": ")
	b.WriteString(e.Capability)
	writeCause(&b, e.Cause)
	return b.String()
}

func (e *CapabilityError) Unwrap() error           { return e.Cause }
func (e *CapabilityError) Classify() (Phase, Kind) { return PhaseHost, KindCapability }
func (e *CapabilityError) Is(target error) bool    { return matches(PhaseHost, KindCapability, target) }

// UnresolvedImportError names the first import of Module that has no binding.
type UnresolvedImportError struct {
	Module    string
	Namespace string
	Name      string
	Reason    string
}

func (e *UnresolvedImportError) Error() string {
	var b strings.Builder
	writeHeader(&b, PhaseLinking, KindMissingImport)
	fmt.Fprintf(&b, ": module %q imports %s#%s", e.Module, e.Namespace, e.Name)
	if e.Reason != "" {
		b.WriteString(": ")
		b.WriteString(e.Reason)
	}
	return b.String()
}

func (e *UnresolvedImportError) Classify() (Phase, Kind) { return PhaseLinking, KindMissingImport }
func (e *UnresolvedImportError) Is(target error) bool {
	return matches(PhaseLinking, KindMissingImport, target)
}

// DuplicateNamespaceError reports a second registration of a namespace.
type DuplicateNamespaceError struct {
	Name string
}

func (e *DuplicateNamespaceError) Error() string {
	var b strings.Builder
	writeHeader(&b, PhaseLinking, KindDuplicateNamespace)
	fmt.Fprintf(&b, ": namespace %q already registered", e.Name)
	return b.String()
}

func (e *DuplicateNamespaceError) Classify() (Phase, Kind) {
	return PhaseLinking, KindDuplicateNamespace
}

func (e *DuplicateNamespaceError) Is(target error) bool {
	return matches(PhaseLinking, KindDuplicateNamespace, target)
}

// MissingEntryPointError reports an absent or mistyped entry function.
type MissingEntryPointError struct {
	Module string
	Name   string
	Reason string
}

func (e *MissingEntryPointError) Error() string {
	var b strings.Builder
	writeHeader(&b, PhaseRuntime, KindMissingEntryPoint)
	fmt.Fprintf(&b, ": module %q export %q", e.Module, e.Name)
	if e.Reason != "" {
		b.WriteString(": ")
		b.WriteString(e.Reason)
	}
	return b.String()
}

func (e *MissingEntryPointError) Classify() (Phase, Kind) {
	return PhaseRuntime, KindMissingEntryPoint
}

func (e *MissingEntryPointError) Is(target error) bool {
	return matches(PhaseRuntime, KindMissingEntryPoint, target)
}

// TrapError reports a runtime fault raised by the VM during guest execution.
// Reason is the VM's fault description without the stack trace.
type TrapError struct {
	Cause  error
	Module string
	Func   string
	Reason string
}

func (e *TrapError) Error() string {
	var b strings.Builder
	writeHeader(&b, PhaseRuntime, KindTrap)
	fmt.Fprintf(&b, " in %s.%s", e.Module, e.Func)
	if e.Reason != "" {
		b.WriteString(": ")
		b.WriteString(e.Reason)
	}
	return b.String()
}

func (e *TrapError) Unwrap() error           { return e.Cause }
func (e *TrapError) Classify() (Phase, Kind) { return PhaseRuntime, KindTrap }
func (e *TrapError) Is(target error) bool    { return matches(PhaseRuntime, KindTrap, target) }

// ConfigError reports invalid configuration for a single key.
type ConfigError struct {
	Cause  error
	Key    string
	Detail string
}

func (e *ConfigError) Error() string {
	var b strings.Builder
	writeHeader(&b, PhaseConfig, KindInvalidConfig)
	if e.Key != "" {
		b.WriteString(" at ")
		b.WriteString(e.Key)
	}
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	writeCause(&b, e.Cause)
	return b.String()
}

func (e *ConfigError) Unwrap() error           { return e.Cause }
func (e *ConfigError) Classify() (Phase, Kind) { return PhaseConfig, KindInvalidConfig }
func (e *ConfigError) Is(target error) bool    { return matches(PhaseConfig, KindInvalidConfig, target) }

// KindOf returns the phase and kind of the first classified error in err's chain.
func KindOf(err error) (Phase, Kind, bool) {
	var c Classified
	if !stderrors.As(err, &c) {
		return "", "", false
	}
	p, k := c.Classify()
	return p, k, true
}

// Is forwards to the standard library.
func Is(err, target error) bool { return stderrors.Is(err, target) }

// As forwards to the standard library.
func As(err error, target any) bool { return stderrors.As(err, target) }

func matches(phase Phase, kind Kind, target error) bool {
	if t, ok := target.(*Error); ok {
		return phase == t.Phase && kind == t.Kind
	}
	return false
}

func writeHeader(b *strings.Builder, phase Phase, kind Kind) {
	b.WriteByte('[')
	b.WriteString(string(phase))
	b.WriteString("] ")
	b.WriteString(string(kind))
}

func writeCause(b *strings.Builder, cause error) {
	if cause == nil {
		return
	}
	b.WriteString(" (caused by: ")
	b.WriteString(cause.Error())
	b.WriteByte(')')
}
