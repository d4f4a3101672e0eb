// Package engine wraps the wazero runtime that compiles and executes the
// replay modules.
//
// An Engine owns one wazero.Runtime. Every module of a replay is loaded into
// the same engine so that instances can import each other's exports:
//
//	eng, err := engine.New(ctx, &engine.Config{Interpreter: true})
//	if err != nil {
//	    return err
//	}
//	defer eng.Close(ctx)
//
//	mod, err := eng.LoadFile(ctx, "host_io", "target/machines/latest/host_io.wasm")
//
// LoadFile and LoadModule fail with *errors.LoadError when the binary is
// missing, unreadable, not a core module, or rejected by wazero's validator.
// A loaded Module exposes its declared imports and exports in binary order
// together with the sha256 digest of the binary.
//
// # Determinism
//
// Config.Interpreter selects wazero's interpreter, which behaves identically
// on every platform. The default compiler is also deterministic for
// well-formed modules but is only available on amd64 and arm64.
package engine
