package store

import "github.com/periscope-dbg/periscope/internal/plugin"

// Action is a tagged state mutation consumed by the reducer. All registry
// writes go through Dispatch with one of these; nothing mutates state
// directly.
type Action interface {
	isAction()
}

// EnqueueCommands appends commands to the tail of the command queue.
type EnqueueCommands struct {
	Commands []Command
}

// CommandsProcessed removes exactly Count commands from the head of the
// queue. Dispatched by the lifecycle controller after a drain; commands
// enqueued during the drain stay queued.
type CommandsProcessed struct {
	Count int
}

// PluginLoaded registers a definition as the current version of its plugin.
type PluginLoaded struct {
	Definition *plugin.Definition
}

// PluginUninstalled removes a plugin's current definition and records the
// uninstall.
type PluginUninstalled struct {
	Details *plugin.Details
}

// SetPluginEnabled enables a client plugin for an app.
type SetPluginEnabled struct {
	AppName  string
	PluginID string
}

// SetPluginDisabled disables a client plugin for an app.
type SetPluginDisabled struct {
	AppName  string
	PluginID string
}

// SetDevicePluginEnabled enables a device plugin globally.
type SetDevicePluginEnabled struct {
	PluginID string
}

// SetDevicePluginDisabled disables a device plugin globally.
type SetDevicePluginDisabled struct {
	PluginID string
}

// SetSelection replaces the current selection.
type SetSelection struct {
	Selection Selection
}

// PushMessage appends a message to a (client, plugin) message queue.
type PushMessage struct {
	ClientID string
	PluginID string
	Message  Message
}

// ClearMessageQueue drops all pending messages for a (client, plugin) pair.
type ClearMessageQueue struct {
	ClientID string
	PluginID string
}

func (EnqueueCommands) isAction()         {}
func (CommandsProcessed) isAction()       {}
func (PluginLoaded) isAction()            {}
func (PluginUninstalled) isAction()       {}
func (SetPluginEnabled) isAction()        {}
func (SetPluginDisabled) isAction()       {}
func (SetDevicePluginEnabled) isAction()  {}
func (SetDevicePluginDisabled) isAction() {}
func (SetSelection) isAction()            {}
func (PushMessage) isAction()             {}
func (ClearMessageQueue) isAction()       {}
