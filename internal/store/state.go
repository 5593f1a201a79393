package store

import "github.com/periscope-dbg/periscope/internal/plugin"

// Message is a client message queued for a plugin that is not currently
// consuming messages directly.
type Message struct {
	// Method is the plugin method the message targets.
	Method string

	// Params is the raw JSON params payload.
	Params string
}

// Selection identifies what the user is currently looking at.
type Selection struct {
	// AppName is the selected application, used for enable/disable
	// bookkeeping of client plugins.
	AppName string

	// ClientID is the selected client connection.
	ClientID string

	// PluginID is the selected plugin, empty when nothing is selected.
	PluginID string

	// DeepLink is the pending deep-link payload, empty when none.
	DeepLink string
}

// State is the store's state. Snapshots handed to readers are deep copies;
// mutating a snapshot never affects the store.
type State struct {
	// Commands is the plugin command queue, oldest first.
	Commands []Command

	// Definitions maps plugin id to the current (registered) definition.
	Definitions map[string]*plugin.Definition

	// EnabledPlugins maps app name to the set of enabled client plugin ids.
	EnabledPlugins map[string]map[string]bool

	// EnabledDevicePlugins is the global set of enabled device plugin ids.
	EnabledDevicePlugins map[string]bool

	// Uninstalled is the set of plugin ids uninstalled this session.
	Uninstalled map[string]bool

	// Selection is the current user selection.
	Selection Selection

	// MessageQueues maps QueueKey(clientID, pluginID) to pending messages.
	MessageQueues map[string][]Message
}

// QueueKey builds the message-queue key for a (client, plugin) pair.
func QueueKey(clientID, pluginID string) string {
	return clientID + "#" + pluginID
}

// PluginEnabled reports whether a client plugin is enabled for an app.
func (s State) PluginEnabled(appName, pluginID string) bool {
	return s.EnabledPlugins[appName][pluginID]
}

// DevicePluginEnabled reports whether a device plugin is enabled.
func (s State) DevicePluginEnabled(pluginID string) bool {
	return s.EnabledDevicePlugins[pluginID]
}

func newState() State {
	return State{
		Definitions:          make(map[string]*plugin.Definition),
		EnabledPlugins:       make(map[string]map[string]bool),
		EnabledDevicePlugins: make(map[string]bool),
		Uninstalled:          make(map[string]bool),
		MessageQueues:        make(map[string][]Message),
	}
}

// clone deep-copies the state. Definitions values are shared (immutable
// after construction); containers are copied.
func (s State) clone() State {
	out := State{
		Commands:             append([]Command(nil), s.Commands...),
		Definitions:          make(map[string]*plugin.Definition, len(s.Definitions)),
		EnabledPlugins:       make(map[string]map[string]bool, len(s.EnabledPlugins)),
		EnabledDevicePlugins: make(map[string]bool, len(s.EnabledDevicePlugins)),
		Uninstalled:          make(map[string]bool, len(s.Uninstalled)),
		Selection:            s.Selection,
		MessageQueues:        make(map[string][]Message, len(s.MessageQueues)),
	}
	for k, v := range s.Definitions {
		out.Definitions[k] = v
	}
	for app, set := range s.EnabledPlugins {
		cp := make(map[string]bool, len(set))
		for id, on := range set {
			cp[id] = on
		}
		out.EnabledPlugins[app] = cp
	}
	for id, on := range s.EnabledDevicePlugins {
		out.EnabledDevicePlugins[id] = on
	}
	for id, on := range s.Uninstalled {
		out.Uninstalled[id] = on
	}
	for k, msgs := range s.MessageQueues {
		out.MessageQueues[k] = append([]Message(nil), msgs...)
	}
	return out
}
