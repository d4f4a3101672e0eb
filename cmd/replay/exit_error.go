package main

import (
	"fmt"

	"github.com/wippyai/wasm-replay/errors"
	"github.com/wippyai/wasm-replay/runtime"
)

// Process exit codes.
const (
	ExitOK     = 0
	ExitFailed = 1
	ExitConfig = 2
	ExitTrap   = 3
)

// ExitError signals a non-zero exit code without forcing os.Exit in RunE handlers.
type ExitError struct {
	Err  error
	Code int
}

// Error returns the error message for ExitError.
func (e *ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("exit status %d", e.Code)
}

// Unwrap returns the underlying error, if any.
func (e *ExitError) Unwrap() error {
	return e.Err
}

// exitCode maps an error to the process exit code: configuration, loading
// and linking failures exit 2, guest traps exit 3, anything else 1.
func exitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	if _, _, ok := errors.KindOf(err); !ok {
		return ExitFailed
	}
	switch runtime.StateOf(err) {
	case runtime.StateTrapped:
		return ExitTrap
	default:
		return ExitConfig
	}
}
