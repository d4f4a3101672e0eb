// Package fixture builds the small module binaries used by tests and the
// linking example. Each builder mirrors one role of a replay run.
package fixture

import (
	"os"
	"path/filepath"

	"github.com/wippyai/wasm-replay/wasm"
)

// Hello is what the host_io fixture writes to stdout.
const Hello = "hello\n"

var (
	voidType = wasm.FuncType{}
	fdWrite  = wasm.FuncType{
		Params:  []wasm.ValType{wasm.ValI32, wasm.ValI32, wasm.ValI32, wasm.ValI32},
		Results: []wasm.ValType{wasm.ValI32},
	}
	procExit = wasm.FuncType{Params: []wasm.ValType{wasm.ValI32}}
)

func funcImport(module, name string, typeIdx uint32) wasm.Import {
	return wasm.Import{Module: module, Name: name, Desc: wasm.ImportDesc{Kind: wasm.KindFunc, TypeIdx: typeIdx}}
}

func funcExport(name string, idx uint32) wasm.Export {
	return wasm.Export{Name: name, Kind: wasm.KindFunc, Idx: idx}
}

func onePage() []wasm.MemoryType {
	return []wasm.MemoryType{{Limits: wasm.Limits{Min: 1}}}
}

// HostIO imports fd_write from the capability namespace and exports
// write_hello, which writes Hello to stdout, plus its memory.
func HostIO() []byte {
	m := &wasm.Module{
		Types:    []wasm.FuncType{fdWrite, voidType},
		Imports:  []wasm.Import{funcImport("wasi_snapshot_preview1", "fd_write", 0)},
		Funcs:    []uint32{1},
		Memories: onePage(),
		Exports: []wasm.Export{
			{Name: "memory", Kind: wasm.KindMemory, Idx: 0},
			funcExport("write_hello", 1),
		},
		Code: []wasm.FuncBody{{Code: []byte{
			wasm.OpI32Const, 1, // stdout
			wasm.OpI32Const, 0, // iovs
			wasm.OpI32Const, 1, // iovs_len
			wasm.OpI32Const, 8, // nwritten
			wasm.OpCall, 0,
			wasm.OpDrop,
		}}},
		Data: []wasm.DataSegment{
			{Offset: 0, Init: []byte{16, 0, 0, 0, byte(len(Hello)), 0, 0, 0}},
			{Offset: 16, Init: []byte(Hello)},
		},
	}
	return m.Encode()
}

// HostIOExit is a host_io whose write_hello calls proc_exit(code) instead.
// code must be in [0, 63].
func HostIOExit(code byte) []byte {
	m := &wasm.Module{
		Types:   []wasm.FuncType{procExit, voidType},
		Imports: []wasm.Import{funcImport("wasi_snapshot_preview1", "proc_exit", 0)},
		Funcs:   []uint32{1},
		Exports: []wasm.Export{funcExport("write_hello", 1)},
		Code: []wasm.FuncBody{{Code: []byte{
			wasm.OpI32Const, code & 0x3F,
			wasm.OpCall, 0,
		}}},
	}
	return m.Encode()
}

// GoStub imports env.write_hello and re-exports it as go_write.
func GoStub() []byte {
	m := &wasm.Module{
		Types:   []wasm.FuncType{voidType},
		Imports: []wasm.Import{funcImport("env", "write_hello", 0)},
		Funcs:   []uint32{0},
		Exports: []wasm.Export{funcExport("go_write", 1)},
		Code:    []wasm.FuncBody{{Code: []byte{wasm.OpCall, 0}}},
	}
	return m.Encode()
}

// Replay imports go.go_write and exports run, which calls it once.
func Replay() []byte {
	return replay("run", voidType, []byte{wasm.OpCall, 0}, nil)
}

// ReplayWithoutRun exports its entry function as "main" instead of "run".
func ReplayWithoutRun() []byte {
	return replay("main", voidType, []byte{wasm.OpCall, 0}, nil)
}

// ReplayWithParams exports run with signature (i32) -> ().
func ReplayWithParams() []byte {
	return replay("run", wasm.FuncType{Params: []wasm.ValType{wasm.ValI32}}, []byte{wasm.OpCall, 0}, nil)
}

// ReplayWithResults exports run with signature () -> (i32).
func ReplayWithResults() []byte {
	return replay("run", wasm.FuncType{Results: []wasm.ValType{wasm.ValI32}}, []byte{wasm.OpI32Const, 0}, nil)
}

// ReplayOutOfBounds exports a run that loads past the end of its one-page memory.
func ReplayOutOfBounds() []byte {
	return replay("run", voidType, []byte{
		wasm.OpI32Const, 0x80, 0x80, 0x04, // 65536
		wasm.OpI32Load, 0x02, 0x00,
		wasm.OpDrop,
	}, onePage())
}

// ReplayUnreachable exports a run that executes unreachable.
func ReplayUnreachable() []byte {
	return replay("run", voidType, []byte{wasm.OpUnreachable}, nil)
}

func replay(entry string, sig wasm.FuncType, body []byte, mems []wasm.MemoryType) []byte {
	types := []wasm.FuncType{voidType}
	entryType := uint32(0)
	if !sig.Equal(voidType) {
		types = append(types, sig)
		entryType = 1
	}
	m := &wasm.Module{
		Types:    types,
		Imports:  []wasm.Import{funcImport("go", "go_write", 0)},
		Funcs:    []uint32{entryType},
		Memories: mems,
		Exports:  []wasm.Export{funcExport(entry, 1)},
		Code:     []wasm.FuncBody{{Code: body}},
	}
	return m.Encode()
}

// FuncImporter declares a single function import and nothing else.
func FuncImporter(namespace, name string, sig wasm.FuncType) []byte {
	m := &wasm.Module{
		Types:   []wasm.FuncType{sig},
		Imports: []wasm.Import{funcImport(namespace, name, 0)},
	}
	return m.Encode()
}

// MemoryImporter declares a single one-page memory import and nothing else.
func MemoryImporter(namespace, name string) []byte {
	m := &wasm.Module{
		Imports: []wasm.Import{{
			Module: namespace,
			Name:   name,
			Desc:   wasm.ImportDesc{Kind: wasm.KindMemory, Memory: &wasm.MemoryType{Limits: wasm.Limits{Min: 1}}},
		}},
	}
	return m.Encode()
}

// WriteFiles writes the three role binaries into dir as <role>.wasm.
func WriteFiles(dir string, hostIO, goStub, replay []byte) error {
	files := map[string][]byte{
		"host_io.wasm": hostIO,
		"go_stub.wasm": goStub,
		"replay.wasm":  replay,
	}
	for name, data := range files {
		if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
			return err
		}
	}
	return nil
}
