package linker

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/wippyai/wasm-replay/engine"
	"github.com/wippyai/wasm-replay/errors"
	"github.com/wippyai/wasm-replay/internal/fixture"
	"github.com/wippyai/wasm-replay/wasi"
	"github.com/wippyai/wasm-replay/wasm"
)

type testEnv struct {
	eng    *engine.Engine
	linker *Linker
	stdout *bytes.Buffer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	eng, err := engine.New(ctx, &engine.Config{Interpreter: true})
	require.NoError(t, err)
	t.Cleanup(func() { eng.Close(ctx) })

	var stdout bytes.Buffer
	host, err := wasi.Build(wasi.DefaultOptions(), wasi.Process{
		Stdin:  strings.NewReader(""),
		Stdout: &stdout,
		Stderr: &bytes.Buffer{},
		Args:   []string{"replay"},
	})
	require.NoError(t, err)

	return &testEnv{eng: eng, linker: New(eng.Runtime(), host), stdout: &stdout}
}

func (e *testEnv) load(t *testing.T, name string, data []byte) *engine.Module {
	t.Helper()
	mod, err := e.eng.LoadModule(context.Background(), name, data)
	require.NoError(t, err)
	return mod
}

func TestRegisterCapabilities(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	require.NoError(t, env.linker.RegisterCapabilities(ctx))

	ns := env.linker.Namespace(CapabilityNamespace)
	require.NotNil(t, ns)
	b, ok := ns.Lookup("fd_write")
	require.True(t, ok)
	assert.Equal(t, "(i32, i32, i32, i32) -> (i32)", b.Func.String())

	err := env.linker.RegisterCapabilities(ctx)
	var dup *errors.DuplicateNamespaceError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, CapabilityNamespace, dup.Name)
}

func TestInstantiate_FixedOrder(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	l := env.linker

	require.NoError(t, l.RegisterCapabilities(ctx))

	hostIO, err := l.Instantiate(ctx, env.load(t, "host_io", fixture.HostIO()))
	require.NoError(t, err)
	require.NoError(t, l.RegisterNamespace("env", hostIO))

	goStub, err := l.Instantiate(ctx, env.load(t, "go_stub", fixture.GoStub()))
	require.NoError(t, err)
	require.NoError(t, l.RegisterNamespace("go", goStub))

	replay, err := l.Instantiate(ctx, env.load(t, "replay", fixture.Replay()))
	require.NoError(t, err)

	assert.Equal(t, []string{"env", "go", CapabilityNamespace}, l.Namespaces())
	assert.Equal(t, "replay", replay.Name())
	assert.NotNil(t, hostIO.Memory())

	run := replay.ExportedFunction("run")
	require.NotNil(t, run)
	_, err = run.Call(ctx)
	require.NoError(t, err)
	assert.Equal(t, fixture.Hello, env.stdout.String())
}

func TestInstantiate_CapabilityImports(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	l := env.linker

	require.NoError(t, l.RegisterCapabilities(ctx))

	var inst *Instance
	require.NotPanics(t, func() {
		var err error
		inst, err = l.Instantiate(ctx, env.load(t, "host_io", fixture.HostIO()))
		require.NoError(t, err)
	})

	write := inst.ExportedFunction("write_hello")
	require.NotNil(t, write)
	_, err := write.Call(ctx)
	require.NoError(t, err)
	assert.Equal(t, fixture.Hello, env.stdout.String())
}

func TestInstantiate_OutOfOrder(t *testing.T) {
	tests := []struct {
		name      string
		module    string
		data      []byte
		caps      bool
		namespace string
		field     string
	}{
		{"go_stub before env", "go_stub", fixture.GoStub(), true, "env", "write_hello"},
		{"replay before go", "replay", fixture.Replay(), true, "go", "go_write"},
		{"host_io without capabilities", "host_io", fixture.HostIO(), false, CapabilityNamespace, "fd_write"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			env := newTestEnv(t)
			if tt.caps {
				require.NoError(t, env.linker.RegisterCapabilities(ctx))
			}

			inst, err := env.linker.Instantiate(ctx, env.load(t, tt.module, tt.data))
			assert.Nil(t, inst)
			assert.ErrorIs(t, err, errors.ErrUnresolvedImport)

			var unresolved *errors.UnresolvedImportError
			require.ErrorAs(t, err, &unresolved)
			assert.Equal(t, tt.module, unresolved.Module)
			assert.Equal(t, tt.namespace, unresolved.Namespace)
			assert.Equal(t, tt.field, unresolved.Name)
			assert.Equal(t, ReasonUnknownNamespace, unresolved.Reason)

			// Nothing reached the store.
			assert.Nil(t, env.eng.Runtime().Module(tt.module))
		})
	}
}

func TestInstantiate_Twice(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	require.NoError(t, env.linker.RegisterCapabilities(ctx))

	mod := env.load(t, "host_io", fixture.HostIO())
	_, err := env.linker.Instantiate(ctx, mod)
	require.NoError(t, err)

	_, err = env.linker.Instantiate(ctx, mod)
	assert.ErrorIs(t, err, errors.ErrInstantiation)
}

func TestRegisterNamespace_Duplicate(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	l := env.linker
	require.NoError(t, l.RegisterCapabilities(ctx))

	hostIO, err := l.Instantiate(ctx, env.load(t, "host_io", fixture.HostIO()))
	require.NoError(t, err)
	require.NoError(t, l.RegisterNamespace("env", hostIO))

	goStub, err := l.Instantiate(ctx, env.load(t, "go_stub", fixture.GoStub()))
	require.NoError(t, err)

	err = l.RegisterNamespace("env", goStub)
	var dup *errors.DuplicateNamespaceError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "env", dup.Name)

	// First registration's bindings are kept.
	ns := l.Namespace("env")
	assert.Same(t, hostIO.API(), ns.Module())
	_, ok := ns.Lookup("write_hello")
	assert.True(t, ok)
	_, ok = ns.Lookup("go_write")
	assert.False(t, ok)

	err = l.RegisterNamespace(CapabilityNamespace, goStub)
	assert.ErrorIs(t, err, errors.ErrDuplicateNamespace)

	assert.Error(t, l.RegisterNamespace("go", nil))
}

func TestResolve(t *testing.T) {
	void := wasm.FuncType{}
	i32 := wasm.FuncType{Params: []wasm.ValType{wasm.ValI32}}

	hostIface, err := wasm.ParseModule(fixture.HostIO())
	require.NoError(t, err)
	namespaces := map[string]*Namespace{
		"env": NewNamespace("env", ModuleBindings(hostIface)),
	}

	tests := []struct {
		name   string
		data   []byte
		reason string
	}{
		{"resolved", fixture.FuncImporter("env", "write_hello", void), ""},
		{"unknown namespace", fixture.FuncImporter("go", "write_hello", void), ReasonUnknownNamespace},
		{"missing export", fixture.FuncImporter("env", "write_goodbye", void), ReasonMissingExport},
		{"kind mismatch", fixture.MemoryImporter("env", "write_hello"), ReasonKindMismatch},
		{"signature mismatch", fixture.FuncImporter("env", "write_hello", i32), ReasonSignatureMismatch},
		{"memory resolved", fixture.MemoryImporter("env", "memory"), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			iface, err := wasm.ParseModule(tt.data)
			require.NoError(t, err)
			require.Len(t, iface.Imports, 1)

			b, err := Resolve(namespaces, "importer", iface, iface.Imports[0])
			if tt.reason == "" {
				require.NoError(t, err)
				assert.Equal(t, iface.Imports[0].Name, b.Name)
				return
			}

			var unresolved *errors.UnresolvedImportError
			require.ErrorAs(t, err, &unresolved)
			assert.Equal(t, "importer", unresolved.Module)
			assert.True(t, strings.HasPrefix(unresolved.Reason, tt.reason), unresolved.Reason)
		})
	}
}

func TestResolveAll_FirstUnresolved(t *testing.T) {
	void := wasm.FuncType{}
	iface := &wasm.Module{
		Types: []wasm.FuncType{void},
		Imports: []wasm.Import{
			{Module: "env", Name: "write_hello", Desc: wasm.ImportDesc{Kind: wasm.KindFunc}},
			{Module: "go", Name: "go_write", Desc: wasm.ImportDesc{Kind: wasm.KindFunc}},
			{Module: "env", Name: "missing", Desc: wasm.ImportDesc{Kind: wasm.KindFunc}},
		},
	}
	namespaces := map[string]*Namespace{
		"env": NewNamespace("env", []Binding{{Name: "write_hello", Kind: wasm.KindFunc, Func: &void}}),
	}

	err := ResolveAll(namespaces, "replay", iface)
	var unresolved *errors.UnresolvedImportError
	require.ErrorAs(t, err, &unresolved)
	assert.Equal(t, "go", unresolved.Namespace)
	assert.Equal(t, "go_write", unresolved.Name)
}

func TestNamespaceBindings(t *testing.T) {
	void := wasm.FuncType{}
	ns := NewNamespace("go", []Binding{
		{Name: "b", Kind: wasm.KindFunc, Func: &void},
		{Name: "a", Kind: wasm.KindMemory},
		{Name: "b", Kind: wasm.KindGlobal},
	})

	assert.Equal(t, 2, ns.Len())
	bindings := ns.Bindings()
	require.Len(t, bindings, 2)
	assert.Equal(t, "func b: () -> ()", bindings[0].String())
	assert.Equal(t, "memory a", bindings[1].String())
	assert.Nil(t, ns.Module())
}

func TestSetLogger(t *testing.T) {
	ctx := context.Background()
	core, logs := observer.New(zap.DebugLevel)
	SetLogger(zap.New(core))
	t.Cleanup(func() { SetLogger(nil) })

	env := newTestEnv(t)
	require.NoError(t, env.linker.RegisterCapabilities(ctx))
	_, err := env.linker.Instantiate(ctx, env.load(t, "go_stub", fixture.GoStub()))
	require.Error(t, err)

	entries := logs.FilterMessage("import unresolved").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "linker", entries[0].LoggerName)
	assert.Equal(t, "go_stub", entries[0].ContextMap()["module"])

	SetLogger(nil)
	before := logs.Len()
	Logger().Debug("discarded")
	assert.Equal(t, before, logs.Len())
}
