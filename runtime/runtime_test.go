package runtime

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wippyai/wasm-replay/engine"
	"github.com/wippyai/wasm-replay/errors"
	"github.com/wippyai/wasm-replay/internal/fixture"
	"github.com/wippyai/wasm-replay/wasi"
	"github.com/wippyai/wasm-replay/wasm"
)

func testProcess(stdout *bytes.Buffer) wasi.Process {
	return wasi.Process{
		Stdin:  strings.NewReader(""),
		Stdout: stdout,
		Stderr: &bytes.Buffer{},
		Args:   []string{"replay"},
	}
}

func newTestRuntime(t *testing.T) (*Runtime, *bytes.Buffer) {
	t.Helper()
	ctx := context.Background()

	var stdout bytes.Buffer
	host, err := wasi.Build(wasi.DefaultOptions(), testProcess(&stdout))
	require.NoError(t, err)

	rt, err := New(ctx, &engine.Config{Interpreter: true}, host)
	require.NoError(t, err)
	t.Cleanup(func() { rt.Close(ctx) })
	return rt, &stdout
}

func TestLink(t *testing.T) {
	ctx := context.Background()
	rt, _ := newTestRuntime(t)
	assert.Equal(t, StateUnloaded, rt.State())

	mods, err := rt.LoadModules(ctx, fixture.HostIO(), fixture.GoStub(), fixture.Replay())
	require.NoError(t, err)
	assert.Equal(t, StateLoaded, rt.State())

	inst, err := rt.Link(ctx, mods)
	require.NoError(t, err)
	assert.Equal(t, StateInstantiated, rt.State())
	assert.Equal(t, RoleReplay, inst.Name())

	l := rt.Linker()
	assert.Equal(t, []string{NamespaceEnv, NamespaceGo, "wasi_snapshot_preview1"}, l.Namespaces())
	_, ok := l.Namespace(NamespaceEnv).Lookup("write_hello")
	assert.True(t, ok)
	_, ok = l.Namespace(NamespaceGo).Lookup("go_write")
	assert.True(t, ok)

	// The terminal module is never published.
	assert.Nil(t, l.Namespace(RoleReplay))

	_, err = rt.Link(ctx, mods)
	assert.Error(t, err, "a runtime links once")
}

func TestLink_UnresolvedImport(t *testing.T) {
	void := wasm.FuncType{}

	tests := []struct {
		name      string
		goStub    []byte
		replay    []byte
		namespace string
		field     string
		module    string
	}{
		{
			name:      "go_stub imports from go",
			goStub:    fixture.FuncImporter("go", "go_write", void),
			replay:    fixture.Replay(),
			namespace: "go", field: "go_write", module: RoleGoStub,
		},
		{
			name:      "replay imports from itself",
			goStub:    fixture.GoStub(),
			replay:    fixture.FuncImporter("replay", "run", void),
			namespace: "replay", field: "run", module: RoleReplay,
		},
		{
			name:      "store name is not a namespace",
			goStub:    fixture.GoStub(),
			replay:    fixture.FuncImporter(RoleHostIO, "write_hello", void),
			namespace: RoleHostIO, field: "write_hello", module: RoleReplay,
		},
		{
			name:      "missing export in env",
			goStub:    fixture.FuncImporter("env", "write_goodbye", void),
			replay:    fixture.Replay(),
			namespace: "env", field: "write_goodbye", module: RoleGoStub,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			rt, _ := newTestRuntime(t)

			mods, err := rt.LoadModules(ctx, fixture.HostIO(), tt.goStub, tt.replay)
			require.NoError(t, err)

			inst, err := rt.Link(ctx, mods)
			assert.Nil(t, inst)
			assert.Equal(t, StateConfigError, rt.State())

			var unresolved *errors.UnresolvedImportError
			require.ErrorAs(t, err, &unresolved)
			assert.Equal(t, tt.module, unresolved.Module)
			assert.Equal(t, tt.namespace, unresolved.Namespace)
			assert.Equal(t, tt.field, unresolved.Name)

			// Modules after the failing step were never instantiated.
			assert.Nil(t, rt.Engine().Runtime().Module(RoleReplay))
		})
	}
}

func TestLink_ReversedOrder(t *testing.T) {
	ctx := context.Background()
	rt, _ := newTestRuntime(t)

	// go_stub in the host_io slot: its env import cannot be registered yet.
	mods, err := rt.LoadModules(ctx, fixture.GoStub(), fixture.HostIO(), fixture.Replay())
	require.NoError(t, err)

	_, err = rt.Link(ctx, mods)
	var unresolved *errors.UnresolvedImportError
	require.ErrorAs(t, err, &unresolved)
	assert.Equal(t, RoleHostIO, unresolved.Module)
	assert.Equal(t, "env", unresolved.Namespace)
	assert.Equal(t, "write_hello", unresolved.Name)
	assert.Equal(t, StateConfigError, rt.State())
}

func TestLink_MissingModule(t *testing.T) {
	ctx := context.Background()
	rt, _ := newTestRuntime(t)

	_, err := rt.Link(ctx, Modules{})
	assert.ErrorIs(t, err, errors.ErrConfig)
	assert.Equal(t, StateConfigError, rt.State())
}

func TestLoad_Errors(t *testing.T) {
	ctx := context.Background()
	rt, _ := newTestRuntime(t)

	_, err := rt.LoadModules(ctx, fixture.HostIO(), []byte("garbage"), fixture.Replay())
	var loadErr *errors.LoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Equal(t, RoleGoStub, loadErr.Module)
	assert.Equal(t, StateConfigError, rt.State())

	_, err = rt.LoadModules(ctx, fixture.HostIO(), fixture.GoStub(), fixture.Replay())
	assert.Error(t, err, "terminal state is final")
}
