// Package runtime links and runs a replay: three modules instantiated in a
// fixed order into one store, followed by a single call of the entry point.
//
// # Quick Start
//
//	res, err := runtime.Execute(ctx, runtime.Options{
//	    Paths: runtime.Paths{
//	        HostIO: "target/machines/latest/host_io.wasm",
//	        GoStub: "target/machines/latest/go_stub.wasm",
//	        Replay: "target/machines/latest/replay.wasm",
//	    },
//	    Host:    wasi.DefaultOptions(),
//	    Process: wasi.OSProcess(),
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(res.State, res.OutputDigest)
//
// # Topology
//
// The instantiation order never changes:
//
//	host_io  -> namespace "env"   (imports wasi_snapshot_preview1 only)
//	go_stub  -> namespace "go"    (may import env)
//	replay   -> terminal          (may import env and go)
//
// Each module is instantiated once. A module whose imports are not all
// registered fails with *errors.UnresolvedImportError and nothing further is
// instantiated.
//
// # Entry Point
//
// The terminal module must export run with no parameters and no results. It
// is invoked exactly once. Any VM fault becomes *errors.TrapError carrying the
// fault reason; a guest exit with code 0 completes normally.
//
// # States
//
//	unloaded -> loaded -> linked_env -> linked_go -> instantiated -> running
//	         -> completed | trapped | config_error
//
// Any load, capability or linking failure ends in config_error. Transitions
// never go backwards.
package runtime
