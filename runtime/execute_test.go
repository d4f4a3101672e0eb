package runtime

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wippyai/wasm-replay/engine"
	"github.com/wippyai/wasm-replay/errors"
	"github.com/wippyai/wasm-replay/internal/fixture"
	"github.com/wippyai/wasm-replay/wasi"
)

func writeModules(t *testing.T, hostIO, goStub, replay []byte) Paths {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, fixture.WriteFiles(dir, hostIO, goStub, replay))
	return Paths{
		HostIO: filepath.Join(dir, "host_io.wasm"),
		GoStub: filepath.Join(dir, "go_stub.wasm"),
		Replay: filepath.Join(dir, "replay.wasm"),
	}
}

func TestExecute(t *testing.T) {
	paths := writeModules(t, fixture.HostIO(), fixture.GoStub(), fixture.Replay())

	var stdout bytes.Buffer
	res, err := Execute(context.Background(), Options{
		Paths:   paths,
		Engine:  engine.Config{Interpreter: true},
		Host:    wasi.DefaultOptions(),
		Process: testProcess(&stdout),
	})
	require.NoError(t, err)

	assert.Equal(t, StateCompleted, res.State)
	assert.Equal(t, fixture.Hello, stdout.String())
	require.Len(t, res.Modules, 3)
	assert.Equal(t, RoleHostIO, res.Modules[0].Role)
	assert.Equal(t, paths.HostIO, res.Modules[0].Path)
	assert.Equal(t, RoleReplay, res.Modules[2].Role)
	assert.Len(t, res.OutputDigest, 64)

	out, err := json.Marshal(res)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"state":"completed"`)
}

func TestExecute_Deterministic(t *testing.T) {
	paths := writeModules(t, fixture.HostIO(), fixture.GoStub(), fixture.Replay())

	run := func() (*Result, string) {
		var stdout bytes.Buffer
		res, err := Execute(context.Background(), Options{
			Paths:   paths,
			Host:    wasi.DefaultOptions(),
			Process: testProcess(&stdout),
		})
		require.NoError(t, err)
		return res, stdout.String()
	}

	first, firstOut := run()
	second, secondOut := run()
	assert.Equal(t, firstOut, secondOut)
	assert.Equal(t, first.OutputDigest, second.OutputDigest)
	assert.Equal(t, first.Modules, second.Modules)
}

func TestExecute_Failures(t *testing.T) {
	tests := []struct {
		name     string
		paths    func(t *testing.T) Paths
		process  func(*bytes.Buffer) wasi.Process
		sentinel error
		state    State
	}{
		{
			name: "missing file",
			paths: func(t *testing.T) Paths {
				p := writeModules(t, fixture.HostIO(), fixture.GoStub(), fixture.Replay())
				p.Replay = filepath.Join(filepath.Dir(p.Replay), "absent.wasm")
				return p
			},
			process:  testProcess,
			sentinel: errors.ErrLoad,
			state:    StateConfigError,
		},
		{
			name: "no argv",
			paths: func(t *testing.T) Paths {
				return writeModules(t, fixture.HostIO(), fixture.GoStub(), fixture.Replay())
			},
			process: func(b *bytes.Buffer) wasi.Process {
				p := testProcess(b)
				p.Args = nil
				return p
			},
			sentinel: errors.ErrCapability,
			state:    StateConfigError,
		},
		{
			name: "missing entry point",
			paths: func(t *testing.T) Paths {
				return writeModules(t, fixture.HostIO(), fixture.GoStub(), fixture.ReplayWithoutRun())
			},
			process:  testProcess,
			sentinel: errors.ErrMissingEntryPoint,
			state:    StateConfigError,
		},
		{
			name: "trap",
			paths: func(t *testing.T) Paths {
				return writeModules(t, fixture.HostIO(), fixture.GoStub(), fixture.ReplayOutOfBounds())
			},
			process:  testProcess,
			sentinel: errors.ErrTrap,
			state:    StateTrapped,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout bytes.Buffer
			res, err := Execute(context.Background(), Options{
				Paths:   tt.paths(t),
				Host:    wasi.DefaultOptions(),
				Process: tt.process(&stdout),
			})
			assert.ErrorIs(t, err, tt.sentinel)
			require.NotNil(t, res)
			assert.Equal(t, tt.state, res.State)
			assert.NotEqual(t, StateCompleted, res.State)
		})
	}
}
