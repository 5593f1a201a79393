package loader

import (
	"fmt"

	glua "github.com/yuin/gopher-lua"

	"github.com/periscope-dbg/periscope/internal/plugin"
	"github.com/periscope-dbg/periscope/internal/plugin/lua"
)

// module is a loaded Lua plugin module. One Lua state backs all instances
// minted from the module; each instance carries its own API table so plugin
// hooks can tell activations apart.
type module struct {
	details *plugin.Details
	state   *lua.State
	bridge  *lua.Bridge
}

// loadModule creates the Lua state and executes the module's entry file.
func loadModule(details *plugin.Details) (*module, error) {
	state := lua.NewState()
	if err := state.DoFile(details.Entry); err != nil {
		state.Close()
		return nil, err
	}
	return &module{
		details: details,
		state:   state,
		bridge:  lua.NewBridge(state.LuaState()),
	}, nil
}

// Details returns the installed metadata this module was loaded from.
func (m *module) Details() *plugin.Details {
	return m.details
}

// NewInstance calls the module's setup hook and wires the remaining hooks
// into a fresh plugin.Instance. Every call yields a distinct instance with
// its own API table.
func (m *module) NewInstance() (*plugin.Instance, error) {
	var apiLV glua.LValue = glua.LNil
	if m.state.HasFunction("setup") {
		results, err := m.state.Call("setup")
		if err != nil {
			return nil, fmt.Errorf("plugin %q setup: %w", m.details.ID, err)
		}
		if len(results) > 0 {
			apiLV = results[0]
		}
	}

	hooks := plugin.Hooks{
		Connect:    m.hook("connect", apiLV),
		Disconnect: m.hook("disconnect", apiLV),
		Activate:   m.hook("activate", apiLV),
		Deactivate: m.hook("deactivate", apiLV),
		Destroy:    m.hook("destroy", apiLV),
	}
	if m.state.HasFunction("deeplink") {
		hooks.DeepLink = func(payload string) error {
			_, err := m.state.Call("deeplink", apiLV, glua.LString(payload))
			return err
		}
	}
	if m.state.HasFunction("message") {
		hooks.Message = func(method, params string) error {
			_, err := m.state.Call("message", apiLV, glua.LString(method), glua.LString(params))
			return err
		}
	}

	return plugin.NewInstance(m.details, m.bridge.ToGoValue(apiLV), hooks), nil
}

// hook returns a closure calling the named Lua global with the instance API
// table, or nil when the module does not define it.
func (m *module) hook(name string, apiLV glua.LValue) func() error {
	if !m.state.HasFunction(name) {
		return nil
	}
	return func() error {
		_, err := m.state.Call(name, apiLV)
		return err
	}
}

// Close releases the module's Lua state.
func (m *module) Close() error {
	return m.state.Close()
}
