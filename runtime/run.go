package runtime

import (
	"context"
	"fmt"
	"strings"

	"github.com/tetratelabs/wazero/sys"
	"go.uber.org/zap"

	"github.com/wippyai/wasm-replay/errors"
	"github.com/wippyai/wasm-replay/linker"
	"github.com/wippyai/wasm-replay/wasm"
)

// Run invokes the entry point of the terminal instance exactly once. A
// missing or mistyped entry point fails with *errors.MissingEntryPointError
// before the VM is entered; faults raised during the call are returned as
// *errors.TrapError.
func (r *Runtime) Run(ctx context.Context, inst *linker.Instance) error {
	if r.state != StateInstantiated || inst == nil {
		return r.fail(r.stateError("run"))
	}

	if err := CheckEntryPoint(inst.Name(), inst.Module().Interface()); err != nil {
		return r.fail(err)
	}
	fn := inst.ExportedFunction(EntryPoint)
	if fn == nil {
		return r.fail(&errors.MissingEntryPointError{Module: inst.Name(), Name: EntryPoint, Reason: "not exported"})
	}

	r.advance(StateRunning)
	Logger().Debug("entry point invoked", zap.String("module", inst.Name()), zap.String("func", EntryPoint))

	_, err := fn.Call(ctx)
	if err = classify(inst.Name(), EntryPoint, err); err != nil {
		Logger().Error("guest trapped", zap.String("module", inst.Name()), zap.Error(err))
		return r.fail(err)
	}

	r.advance(StateCompleted)
	return nil
}

var entrySignature = wasm.FuncType{}

// CheckEntryPoint verifies that iface exports EntryPoint as a function
// taking and returning nothing.
func CheckEntryPoint(module string, iface *wasm.Module) error {
	exp, ok := iface.FindExport(EntryPoint)
	if !ok {
		return &errors.MissingEntryPointError{Module: module, Name: EntryPoint, Reason: "not exported"}
	}
	if exp.Kind != wasm.KindFunc {
		return &errors.MissingEntryPointError{
			Module: module,
			Name:   EntryPoint,
			Reason: fmt.Sprintf("exported as %s, not func", wasm.KindName(exp.Kind)),
		}
	}
	sig := iface.ExportFuncType(exp)
	if sig == nil || !sig.Equal(entrySignature) {
		return &errors.MissingEntryPointError{
			Module: module,
			Name:   EntryPoint,
			Reason: fmt.Sprintf("signature %s, want %s", sigString(sig), entrySignature),
		}
	}
	return nil
}

// classify turns a call error into a TrapError. A guest exit with code 0
// counts as normal completion.
func classify(module, fn string, err error) error {
	if err == nil {
		return nil
	}

	var exitErr *sys.ExitError
	if errors.As(err, &exitErr) {
		switch code := exitErr.ExitCode(); code {
		case 0:
			return nil
		case sys.ExitCodeContextCanceled:
			return &errors.TrapError{Module: module, Func: fn, Reason: "context canceled", Cause: err}
		case sys.ExitCodeDeadlineExceeded:
			return &errors.TrapError{Module: module, Func: fn, Reason: "deadline exceeded", Cause: err}
		default:
			return &errors.TrapError{Module: module, Func: fn, Reason: fmt.Sprintf("exit code %d", code), Cause: err}
		}
	}

	return &errors.TrapError{Module: module, Func: fn, Reason: TrapReason(err), Cause: err}
}

// TrapReason extracts the fault description from a wazero call error,
// dropping the stack trace.
func TrapReason(err error) string {
	msg := err.Error()
	if i := strings.IndexByte(msg, '\n'); i >= 0 {
		msg = msg[:i]
	}
	msg = strings.TrimPrefix(msg, "wasm error: ")
	msg = strings.TrimSuffix(msg, " (recovered by wazero)")
	return msg
}

func sigString(f *wasm.FuncType) string {
	if f == nil {
		return "<none>"
	}
	return f.String()
}
