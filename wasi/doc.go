// Package wasi provides the host capability context shared by every guest of
// a replay run.
//
// Guests reach the host only through the wasi_snapshot_preview1 import
// namespace. Build inspects the host process once; the resulting Context
// supplies stdio passthrough and the inherited argument vector to every
// instantiated module and records a digest of everything written to stdout:
//
//	hc, err := wasi.Build(wasi.DefaultOptions(), wasi.OSProcess())
//	if err != nil {
//	    return err // *errors.CapabilityError
//	}
//	cfg := hc.ModuleConfig("replay")
//
// No filesystem, network, or real clock is granted. wazero's default clocks
// and random source are deterministic, so identical inputs produce identical
// output bytes.
package wasi
