package wasi

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"os"
	"strings"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"

	"github.com/wippyai/wasm-replay/errors"
)

// ModuleName is the import namespace guests use to reach host capabilities.
const ModuleName = wasi_snapshot_preview1.ModuleName

// Options selects which host capabilities are passed through to guests.
type Options struct {
	InheritStdio bool
	InheritArgs  bool
	InheritEnv   bool
}

// DefaultOptions returns the replay configuration: stdio and argv inherited,
// environment withheld.
func DefaultOptions() Options {
	return Options{
		InheritStdio: true,
		InheritArgs:  true,
	}
}

// Process describes the host process whose capabilities are inherited.
type Process struct {
	Stdin   io.Reader
	Stdout  io.Writer
	Stderr  io.Writer
	Args    []string
	Environ []string
}

// OSProcess captures the real process stdio, argv and environment.
func OSProcess() Process {
	return Process{
		Stdin:   os.Stdin,
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
		Args:    os.Args,
		Environ: os.Environ(),
	}
}

type envVar struct {
	key, value string
}

// Context is the single host capability context of a run. Every guest
// instantiated in the store shares it.
type Context struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	digest hash.Hash
	args   []string
	env    []envVar
}

// Build introspects proc according to opts. It fails with
// *errors.CapabilityError when a requested capability is unavailable.
func Build(opts Options, proc Process) (*Context, error) {
	c := &Context{digest: sha256.New()}

	if opts.InheritStdio {
		switch {
		case proc.Stdin == nil:
			return nil, &errors.CapabilityError{Capability: "stdin", Cause: fmt.Errorf("stream unavailable")}
		case proc.Stdout == nil:
			return nil, &errors.CapabilityError{Capability: "stdout", Cause: fmt.Errorf("stream unavailable")}
		case proc.Stderr == nil:
			return nil, &errors.CapabilityError{Capability: "stderr", Cause: fmt.Errorf("stream unavailable")}
		}
		c.stdin = proc.Stdin
		c.stdout = io.MultiWriter(proc.Stdout, c.digest)
		c.stderr = proc.Stderr
	} else {
		c.stdout = c.digest
	}

	if opts.InheritArgs {
		if len(proc.Args) == 0 {
			return nil, &errors.CapabilityError{Capability: "args", Cause: fmt.Errorf("argument vector unavailable")}
		}
		for i, a := range proc.Args {
			if strings.IndexByte(a, 0) >= 0 {
				return nil, &errors.CapabilityError{Capability: "args", Cause: fmt.Errorf("argument %d contains NUL", i)}
			}
		}
		c.args = append([]string(nil), proc.Args...)
	}

	if opts.InheritEnv {
		for _, kv := range proc.Environ {
			key, value, ok := strings.Cut(kv, "=")
			if !ok || key == "" || strings.IndexByte(kv, 0) >= 0 {
				return nil, &errors.CapabilityError{Capability: "environ", Cause: fmt.Errorf("malformed entry %q", kv)}
			}
			c.env = append(c.env, envVar{key: key, value: value})
		}
	}

	return c, nil
}

// Args returns the argv guests observe.
func (c *Context) Args() []string {
	return c.args
}

// ModuleConfig returns the wazero module configuration for a guest
// instantiated under name. Start functions are disabled; the entry point is
// invoked explicitly. Clocks and random source stay at wazero's
// deterministic defaults.
func (c *Context) ModuleConfig(name string) wazero.ModuleConfig {
	cfg := wazero.NewModuleConfig().
		WithName(name).
		WithStartFunctions().
		WithStdout(c.stdout)

	if c.stdin != nil {
		cfg = cfg.WithStdin(c.stdin)
	}
	if c.stderr != nil {
		cfg = cfg.WithStderr(c.stderr)
	}
	if len(c.args) > 0 {
		cfg = cfg.WithArgs(c.args...)
	}
	for _, e := range c.env {
		cfg = cfg.WithEnv(e.key, e.value)
	}
	return cfg
}

// Instantiate installs the capability host module into rt and returns it.
func (c *Context) Instantiate(ctx context.Context, rt wazero.Runtime) (api.Module, error) {
	if mod := rt.Module(ModuleName); mod != nil {
		return mod, nil
	}
	if _, err := wasi_snapshot_preview1.Instantiate(ctx, rt); err != nil {
		return nil, &errors.CapabilityError{Capability: ModuleName, Cause: err}
	}
	return rt.Module(ModuleName), nil
}

// OutputDigest returns the hex sha256 of every byte guests wrote to stdout
// so far.
func (c *Context) OutputDigest() string {
	return hex.EncodeToString(c.digest.Sum(nil))
}
