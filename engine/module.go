package engine

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"

	"github.com/tetratelabs/wazero"
	"go.uber.org/zap"

	"github.com/wippyai/wasm-replay/errors"
	"github.com/wippyai/wasm-replay/wasm"
)

// Module is a compiled, validated module binary. Immutable once loaded.
type Module struct {
	compiled wazero.CompiledModule
	iface    *wasm.Module
	name     string
	path     string
	digest   [sha256.Size]byte
}

// LoadFile reads and loads the module binary at path under name.
func (e *Engine) LoadFile(ctx context.Context, name, path string) (*Module, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &errors.LoadError{Module: name, Path: path, Cause: err}
	}

	mod, err := e.LoadModule(ctx, name, data)
	if err != nil {
		var loadErr *errors.LoadError
		if errors.As(err, &loadErr) {
			loadErr.Path = path
		}
		return nil, err
	}
	mod.path = path
	return mod, nil
}

// LoadModule decodes, validates and compiles a module binary under name.
// Loads are independent of each other; nothing is instantiated.
func (e *Engine) LoadModule(ctx context.Context, name string, data []byte) (*Module, error) {
	if !wasm.IsModule(data) {
		return nil, &errors.LoadError{Module: name, Cause: fmt.Errorf("not a WebAssembly core module")}
	}

	iface, err := wasm.ParseModule(data)
	if err != nil {
		return nil, &errors.LoadError{Module: name, Cause: err}
	}

	compiled, err := e.runtime.CompileModule(ctx, data)
	if err != nil {
		return nil, &errors.LoadError{Module: name, Cause: err}
	}

	mod := &Module{
		compiled: compiled,
		iface:    iface,
		name:     name,
		digest:   sha256.Sum256(data),
	}

	Logger().Debug("module loaded",
		zap.String("module", name),
		zap.String("digest", mod.Digest()),
		zap.Int("imports", len(iface.Imports)),
		zap.Int("exports", len(iface.Exports)),
	)
	return mod, nil
}

// Name returns the module's role name.
func (m *Module) Name() string {
	return m.name
}

// Path returns the file the module was loaded from, empty for in-memory loads.
func (m *Module) Path() string {
	return m.path
}

// Digest returns the hex sha256 of the module binary.
func (m *Module) Digest() string {
	return hex.EncodeToString(m.digest[:])
}

// Imports returns the declared imports in binary order.
func (m *Module) Imports() []wasm.Import {
	return m.iface.Imports
}

// Exports returns the declared exports in binary order.
func (m *Module) Exports() []wasm.Export {
	return m.iface.Exports
}

// Interface returns the decoded module interface.
func (m *Module) Interface() *wasm.Module {
	return m.iface
}

// Compiled returns the wazero compiled module.
func (m *Module) Compiled() wazero.CompiledModule {
	return m.compiled
}

// Close releases the compiled code.
func (m *Module) Close(ctx context.Context) error {
	return m.compiled.Close(ctx)
}
