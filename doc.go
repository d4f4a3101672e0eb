// Package wasmreplay links and runs the three WebAssembly modules of a
// deterministic replay step.
//
// A replay is made of three independently compiled core modules:
//
//	host_io   host I/O shim, imports wasi_snapshot_preview1
//	go_stub   language runtime stub, imports from host_io
//	replay    replay logic, imports from both, exports run: () -> ()
//
// They are instantiated into a single store in that order, each published
// under a fixed namespace for the next, and run() is called exactly once.
// Identical binaries and host configuration produce identical output bytes.
//
// # Architecture Overview
//
//	wasmreplay/
//	├── runtime/         Instantiation order, entry point call, Execute/Inspect
//	├── linker/          Write-once namespace registry and import resolution
//	├── engine/          wazero runtime, module loading and validation
//	├── wasi/            Host capability context (stdio, argv)
//	├── wasm/            Module interface decoder and encoder
//	├── config/          viper configuration
//	├── errors/          Structured error types
//	└── cmd/replay/      Command line interface
//
// # Quick Start
//
//	res, err := runtime.Execute(ctx, runtime.Options{
//	    Paths:   cfg.Paths(),
//	    Engine:  cfg.EngineConfig(),
//	    Host:    cfg.HostOptions(),
//	    Process: wasi.OSProcess(),
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(res.OutputDigest)
//
// # Error Handling
//
// Every failure is fatal and is returned unchanged to the caller:
//
//	var unresolved *errors.UnresolvedImportError
//	if errors.As(err, &unresolved) {
//	    fmt.Printf("%s imports %s#%s: %s\n",
//	        unresolved.Module, unresolved.Namespace, unresolved.Name, unresolved.Reason)
//	}
//
// errors.Is matches by kind, for example errors.Is(err, errors.ErrTrap).
package wasmreplay
