package linker

import (
	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/wasm-replay/engine"
)

// Instance is a module instantiated in the store. It is created exactly once
// per Module and owned by the runtime that closes it.
type Instance struct {
	module *engine.Module
	api    api.Module
}

// Name returns the instance name, which is the module's role name.
func (i *Instance) Name() string {
	return i.module.Name()
}

// Module returns the module this instance was created from.
func (i *Instance) Module() *engine.Module {
	return i.module
}

// API returns the live wazero module.
func (i *Instance) API() api.Module {
	return i.api
}

// ExportedFunction returns the exported function name, or nil.
func (i *Instance) ExportedFunction(name string) api.Function {
	return i.api.ExportedFunction(name)
}

// Memory returns the instance's memory, or nil when it has none.
func (i *Instance) Memory() api.Memory {
	return i.api.Memory()
}
