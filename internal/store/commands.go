package store

import "github.com/periscope-dbg/periscope/internal/plugin"

// Command is a pending plugin lifecycle operation. Commands are immutable
// once enqueued and are processed strictly in arrival order by the
// lifecycle controller.
type Command interface {
	isCommand()
}

// LoadPluginCommand asks the controller to resolve a plugin's module and
// register it, optionally enabling it for the selected app.
type LoadPluginCommand struct {
	// Details identifies the installed plugin version to resolve.
	Details *plugin.Details

	// Enable marks the plugin enabled for the currently selected app
	// after a successful load.
	Enable bool

	// NotifyIfFailed surfaces a user-visible error on resolution failure.
	NotifyIfFailed bool
}

// UninstallPluginCommand stops the plugin everywhere, unloads its module
// when not bundled, and records the uninstall.
type UninstallPluginCommand struct {
	Details *plugin.Details
}

// UpdatePluginCommand swaps the current version of a plugin for the given
// resolved definition across all affected clients or devices.
type UpdatePluginCommand struct {
	Definition *plugin.Definition

	// Enable marks the plugin enabled for the currently selected app
	// (client kind) or globally (device kind).
	Enable bool
}

// SwitchPluginCommand toggles a plugin's enabled state. The direction is
// derived from the registry's current value at dispatch time, not carried
// in the command.
type SwitchPluginCommand struct {
	Definition *plugin.Definition

	// SelectedApp overrides the currently selected app for client-kind
	// toggles. Empty means use the current selection.
	SelectedApp string
}

func (LoadPluginCommand) isCommand()      {}
func (UninstallPluginCommand) isCommand() {}
func (UpdatePluginCommand) isCommand()    {}
func (SwitchPluginCommand) isCommand()    {}
