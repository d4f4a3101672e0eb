package wasm

import "strings"

// Module represents a parsed WebAssembly module.
//
// ParseModule fills the interface sections (types, imports, functions,
// tables, memories, globals, exports, start). Code and Data are only
// populated by callers building a module for Encode.
type Module struct {
	Types    []FuncType
	Imports  []Import
	Funcs    []uint32 // Type indices for declared functions
	Tables   []TableType
	Memories []MemoryType
	Globals  []Global
	Exports  []Export
	Start    *uint32
	Code     []FuncBody
	Data     []DataSegment
}

// FuncType represents a WebAssembly function signature.
type FuncType struct {
	Params  []ValType
	Results []ValType
}

// Equal reports whether two signatures are identical.
func (f FuncType) Equal(o FuncType) bool {
	return equalValTypes(f.Params, o.Params) && equalValTypes(f.Results, o.Results)
}

// String renders the signature as "(i32, i64) -> (i32)".
func (f FuncType) String() string {
	var b strings.Builder
	writeValTypes(&b, f.Params)
	b.WriteString(" -> ")
	writeValTypes(&b, f.Results)
	return b.String()
}

func writeValTypes(b *strings.Builder, types []ValType) {
	b.WriteByte('(')
	for i, t := range types {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(t.String())
	}
	b.WriteByte(')')
}

func equalValTypes(a, b []ValType) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// ValType represents a WebAssembly value type.
type ValType byte

func (v ValType) String() string {
	switch v {
	case ValI32:
		return "i32"
	case ValI64:
		return "i64"
	case ValF32:
		return "f32"
	case ValF64:
		return "f64"
	case ValV128:
		return "v128"
	case ValFuncRef:
		return "funcref"
	case ValExtern:
		return "externref"
	default:
		return "unknown"
	}
}

// Import represents an imported function, table, memory, global, or tag.
type Import struct {
	Desc   ImportDesc
	Module string
	Name   string
}

// ImportDesc describes an imported item.
// Kind uses KindFunc, KindTable, KindMemory, KindGlobal, or KindTag constants.
type ImportDesc struct {
	Table   *TableType
	Memory  *MemoryType
	Global  *GlobalType
	TypeIdx uint32
	Kind    byte
}

// Export represents an exported definition.
type Export struct {
	Name string
	Kind byte
	Idx  uint32
}

// Limits describes the size bounds of a table or memory.
type Limits struct {
	Max    *uint64
	Min    uint64
	Shared bool
}

// TableType describes a table definition.
type TableType struct {
	Limits   Limits
	ElemType byte
}

// MemoryType describes a memory definition.
type MemoryType struct {
	Limits Limits
}

// GlobalType describes a global's value type and mutability.
type GlobalType struct {
	ValType ValType
	Mutable bool
}

// Global is a global definition with its constant initializer (including end).
type Global struct {
	Init []byte
	Type GlobalType
}

// LocalEntry declares Count locals of the same type.
type LocalEntry struct {
	Count   uint32
	ValType ValType
}

// FuncBody is a function body. Code excludes the trailing end opcode.
type FuncBody struct {
	Locals []LocalEntry
	Code   []byte
}

// DataSegment is an active data segment for memory 0. Offset is the constant
// byte offset the segment is copied to.
type DataSegment struct {
	Init   []byte
	Offset uint32
}

// NumImportedFuncs returns the number of function imports.
func (m *Module) NumImportedFuncs() int {
	n := 0
	for _, imp := range m.Imports {
		if imp.Desc.Kind == KindFunc {
			n++
		}
	}
	return n
}

// FuncTypeAt returns the signature of the function at idx in the function
// index space (imports first), or nil when out of range.
func (m *Module) FuncTypeAt(idx uint32) *FuncType {
	var typeIdx uint32
	found := false
	n := uint32(0)
	for _, imp := range m.Imports {
		if imp.Desc.Kind != KindFunc {
			continue
		}
		if n == idx {
			typeIdx, found = imp.Desc.TypeIdx, true
			break
		}
		n++
	}
	if !found {
		local := idx - n
		if idx < n || int(local) >= len(m.Funcs) {
			return nil
		}
		typeIdx = m.Funcs[local]
	}
	if int(typeIdx) >= len(m.Types) {
		return nil
	}
	return &m.Types[typeIdx]
}

// ImportFuncType returns the signature of a function import, or nil.
func (m *Module) ImportFuncType(imp Import) *FuncType {
	if imp.Desc.Kind != KindFunc || int(imp.Desc.TypeIdx) >= len(m.Types) {
		return nil
	}
	return &m.Types[imp.Desc.TypeIdx]
}

// ExportFuncType returns the signature of a function export, or nil.
func (m *Module) ExportFuncType(exp Export) *FuncType {
	if exp.Kind != KindFunc {
		return nil
	}
	return m.FuncTypeAt(exp.Idx)
}

// FindExport returns the export with the given name.
func (m *Module) FindExport(name string) (Export, bool) {
	for _, exp := range m.Exports {
		if exp.Name == name {
			return exp, true
		}
	}
	return Export{}, false
}
