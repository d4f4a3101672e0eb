// Package wasm provides WebAssembly binary format parsing and encoding for
// module interfaces.
//
// ParseModule decodes what a linker needs to know about a module before
// instantiating it: function types, the import section in declaration order,
// the export section, and the declared functions, tables, memories and
// globals. Function bodies are not decoded; the VM validates them.
//
//	data, _ := os.ReadFile("replay.wasm")
//	m, err := wasm.ParseModule(data)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, imp := range m.Imports {
//	    fmt.Printf("%s#%s (%s)\n", imp.Module, imp.Name, wasm.KindName(imp.Desc.Kind))
//	}
//
// Module.Encode writes a module back out, including Code and Data, which is
// how small modules are assembled in-process:
//
//	m := &wasm.Module{
//	    Types:   []wasm.FuncType{{}},
//	    Funcs:   []uint32{0},
//	    Exports: []wasm.Export{{Name: "run", Kind: wasm.KindFunc, Idx: 0}},
//	    Code:    []wasm.FuncBody{{}},
//	}
//	bin := m.Encode()
package wasm
