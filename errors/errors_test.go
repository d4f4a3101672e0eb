package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		contains []string
	}{
		{
			name:     "generic with module and cause",
			err:      &Error{Phase: PhaseLinking, Kind: KindInstantiation, Module: "go_stub", Detail: "instantiate module", Cause: stderrors.New("boom")},
			contains: []string{"[linking]", "instantiation", "go_stub", "caused by", "boom"},
		},
		{
			name:     "load",
			err:      &LoadError{Module: "replay", Path: "/tmp/replay.wasm", Cause: stderrors.New("no such file")},
			contains: []string{"[load]", "invalid_module", `"replay"`, "/tmp/replay.wasm", "no such file"},
		},
		{
			name:     "capability",
			err:      &CapabilityError{Capability: "argv"},
			contains: []string{"[host]", "capability_unavailable", "argv"},
		},
		{
			name:     "unresolved import",
			err:      &UnresolvedImportError{Module: "replay", Namespace: "go", Name: "debug", Reason: "namespace not registered"},
			contains: []string{"[linking]", "missing_import", "go#debug", "namespace not registered"},
		},
		{
			name:     "duplicate namespace",
			err:      &DuplicateNamespaceError{Name: "env"},
			contains: []string{"duplicate_namespace", `"env"`},
		},
		{
			name:     "missing entry point",
			err:      &MissingEntryPointError{Module: "replay", Name: "run", Reason: "not exported"},
			contains: []string{"[runtime]", "missing_entry_point", `"run"`, "not exported"},
		},
		{
			name:     "trap",
			err:      &TrapError{Module: "replay", Func: "run", Reason: "out of bounds memory access"},
			contains: []string{"[runtime]", "trap", "replay.run", "out of bounds memory access"},
		},
		{
			name:     "config",
			err:      &ConfigError{Key: "modules.replay", Detail: "path is empty"},
			contains: []string{"[config]", "modules.replay", "path is empty"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, s := range tt.contains {
				if !strings.Contains(msg, s) {
					t.Errorf("error message %q does not contain %q", msg, s)
				}
			}
		})
	}
}

func TestSentinels(t *testing.T) {
	tests := []struct {
		err      error
		sentinel error
	}{
		{&LoadError{Module: "m"}, ErrLoad},
		{&CapabilityError{Capability: "stdin"}, ErrCapability},
		{&UnresolvedImportError{Module: "m", Namespace: "env", Name: "f"}, ErrUnresolvedImport},
		{&DuplicateNamespaceError{Name: "env"}, ErrDuplicateNamespace},
		{&MissingEntryPointError{Module: "m", Name: "run"}, ErrMissingEntryPoint},
		{&TrapError{Module: "m", Func: "run"}, ErrTrap},
		{&ConfigError{Key: "k"}, ErrConfig},
		{Instantiation("m", nil), ErrInstantiation},
	}

	all := []error{ErrLoad, ErrCapability, ErrUnresolvedImport, ErrDuplicateNamespace, ErrMissingEntryPoint, ErrTrap, ErrConfig, ErrInstantiation}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%T", tt.err), func(t *testing.T) {
			wrapped := fmt.Errorf("outer: %w", tt.err)
			if !stderrors.Is(wrapped, tt.sentinel) {
				t.Errorf("errors.Is(%v, %v) = false", wrapped, tt.sentinel)
			}
			for _, other := range all {
				if other == tt.sentinel {
					continue
				}
				if stderrors.Is(tt.err, other) {
					t.Errorf("%T unexpectedly matches %v", tt.err, other)
				}
			}
		})
	}
}

func TestUnwrap(t *testing.T) {
	cause := stderrors.New("root cause")

	for _, err := range []error{
		&LoadError{Cause: cause},
		&CapabilityError{Cause: cause},
		&TrapError{Cause: cause},
		&ConfigError{Cause: cause},
		Wrap(PhaseLoad, KindInvalidModule, cause, "read"),
	} {
		if !stderrors.Is(err, cause) {
			t.Errorf("%T does not unwrap to its cause", err)
		}
	}
}

func TestAs(t *testing.T) {
	err := fmt.Errorf("link: %w", &UnresolvedImportError{Module: "replay", Namespace: "go", Name: "syscall/js.valueGet"})

	var unresolved *UnresolvedImportError
	if !As(err, &unresolved) {
		t.Fatal("As did not find UnresolvedImportError")
	}
	if unresolved.Namespace != "go" || unresolved.Name != "syscall/js.valueGet" {
		t.Errorf("got %s#%s", unresolved.Namespace, unresolved.Name)
	}
}

func TestKindOf(t *testing.T) {
	phase, kind, ok := KindOf(fmt.Errorf("run: %w", &TrapError{Module: "replay", Func: "run"}))
	if !ok {
		t.Fatal("KindOf returned !ok for TrapError")
	}
	if phase != PhaseRuntime || kind != KindTrap {
		t.Errorf("KindOf = %s/%s, want runtime/trap", phase, kind)
	}

	if _, _, ok := KindOf(stderrors.New("plain")); ok {
		t.Error("KindOf should not classify a plain error")
	}
}
