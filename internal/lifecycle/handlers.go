package lifecycle

import (
	"errors"
	"fmt"

	"github.com/periscope-dbg/periscope/internal/plugin"
	"github.com/periscope-dbg/periscope/internal/store"
)

// handleLoad resolves a plugin descriptor to a module and delegates to the
// update handler. Resolution failure never escapes: it is logged and,
// when asked, surfaced to the user.
func (c *Controller) handleLoad(cmd store.LoadPluginCommand) error {
	mod, err := c.resolver.Resolve(cmd.Details)
	if err != nil {
		c.logger.Error("failed to load plugin %s@%s: %v", cmd.Details.ID, cmd.Details.Version, err)
		if cmd.NotifyIfFailed && c.notifier != nil {
			c.notifier.ShowError(fmt.Sprintf("Failed to load plugin %q v%s", cmd.Details.Title, cmd.Details.Version))
		}
		return nil
	}

	def, err := plugin.NewDefinition(cmd.Details, mod)
	if err != nil {
		return err
	}
	return c.handleUpdate(store.UpdatePluginCommand{Definition: def, Enable: cmd.Enable})
}

// handleUpdate swaps the current version of a plugin across all affected
// owners, dispatching on kind.
func (c *Controller) handleUpdate(cmd store.UpdatePluginCommand) error {
	state := c.store.GetState()
	prev := state.Definitions[cmd.Definition.ID()]

	switch cmd.Definition.Kind() {
	case plugin.KindDevice:
		return c.updateDevicePlugin(cmd.Definition, prev, cmd.Enable)
	default:
		return c.updateClientPlugin(cmd.Definition, prev, cmd.Enable, state)
	}
}

// updateClientPlugin stops the old instance on every client that supports
// the plugin and has it enabled, registers the new definition, then starts
// new instances. Two full passes: all stops complete before any start, so
// a swap never leaves old and new instances alive together.
func (c *Controller) updateClientPlugin(def *plugin.Definition, prev *plugin.Definition, enable bool, state store.State) error {
	var errs []error

	for _, cl := range c.conns.Clients() {
		if cl.SupportsPlugin(def.ID()) && state.PluginEnabled(cl.AppName(), def.ID()) {
			if err := c.stopPlugin(cl, def.ID(), false); err != nil {
				errs = append(errs, err)
			}
		}
	}

	if enable {
		if app := state.Selection.AppName; app != "" {
			c.store.Dispatch(store.SetPluginEnabled{AppName: app, PluginID: def.ID()})
		}
	}
	c.store.Dispatch(store.PluginLoaded{Definition: def})
	c.unloadPrevious(def, prev)

	// Start pass re-reads enabled state so a just-enabled app is included.
	state = c.store.GetState()
	for _, cl := range c.conns.Clients() {
		if cl.SupportsPlugin(def.ID()) && state.PluginEnabled(cl.AppName(), def.ID()) {
			if err := c.startPlugin(cl, def, false); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// updateDevicePlugin swaps a device plugin. Order is unload-all, register
// the new version, load-all, so no device ever holds two versions at once.
func (c *Controller) updateDevicePlugin(def *plugin.Definition, prev *plugin.Definition, enable bool) error {
	if enable {
		c.store.Dispatch(store.SetDevicePluginEnabled{PluginID: def.ID()})
	}

	var errs []error
	supporting := c.supportingDevices(def.ID())

	for _, d := range supporting {
		if err := d.UnloadDevicePlugin(def.ID()); err != nil {
			errs = append(errs, err)
		}
	}

	c.store.Dispatch(store.PluginLoaded{Definition: def})
	c.unloadPrevious(def, prev)

	for _, d := range supporting {
		if err := d.LoadDevicePlugin(def); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// handleUninstall stops the plugin on every owner, unloads its module when
// not bundled, and records the uninstall. Failures are logged and surfaced
// but the command still counts as processed.
func (c *Controller) handleUninstall(cmd store.UninstallPluginCommand) error {
	details := cmd.Details

	var errs []error
	for _, cl := range c.conns.Clients() {
		if err := cl.StopPluginIfNeeded(details.ID); err != nil {
			errs = append(errs, err)
		}
	}
	if details.Kind == plugin.KindDevice {
		for _, d := range c.supportingDevices(details.ID) {
			if err := d.UnloadDevicePlugin(details.ID); err != nil {
				errs = append(errs, err)
			}
		}
	}

	if !details.Bundled {
		c.resolver.Unload(details.Entry)
	}
	c.store.Dispatch(store.PluginUninstalled{Details: details})

	if len(errs) > 0 {
		if c.notifier != nil {
			c.notifier.ShowError(fmt.Sprintf("Failed to uninstall plugin %q", details.Title))
		}
		return fmt.Errorf("uninstall %s: %w", details.ID, errors.Join(errs...))
	}
	return nil
}

// handleSwitch toggles a plugin's enabled state. The direction comes from
// the registry's value at handler entry, never from a cached flag, so
// re-entrant toggles within one drain observe each other's effect.
func (c *Controller) handleSwitch(cmd store.SwitchPluginCommand) error {
	def := cmd.Definition
	state := c.store.GetState()

	if def.Kind() == plugin.KindDevice {
		return c.switchDevicePlugin(def, state)
	}

	app := cmd.SelectedApp
	if app == "" {
		app = state.Selection.AppName
	}
	if app == "" {
		return nil
	}

	clients := c.conns.ClientsForApp(app)
	var errs []error

	if state.PluginEnabled(app, def.ID()) {
		for _, cl := range clients {
			if err := c.stopPlugin(cl, def.ID(), false); err != nil {
				errs = append(errs, err)
			}
			c.store.Dispatch(store.ClearMessageQueue{ClientID: cl.ID(), PluginID: def.ID()})
		}
		c.store.Dispatch(store.SetPluginDisabled{AppName: app, PluginID: def.ID()})
		return errors.Join(errs...)
	}

	for _, cl := range clients {
		if !cl.SupportsPlugin(def.ID()) {
			continue
		}
		if err := c.startPlugin(cl, def, false); err != nil {
			errs = append(errs, err)
		}
	}
	c.store.Dispatch(store.SetPluginEnabled{AppName: app, PluginID: def.ID()})
	return errors.Join(errs...)
}

func (c *Controller) switchDevicePlugin(def *plugin.Definition, state store.State) error {
	var errs []error
	supporting := c.supportingDevices(def.ID())

	if state.DevicePluginEnabled(def.ID()) {
		for _, d := range supporting {
			if err := d.UnloadDevicePlugin(def.ID()); err != nil {
				errs = append(errs, err)
			}
		}
		c.store.Dispatch(store.SetDevicePluginDisabled{PluginID: def.ID()})
		return errors.Join(errs...)
	}

	for _, d := range supporting {
		if err := d.LoadDevicePlugin(def); err != nil {
			errs = append(errs, err)
		}
	}
	c.store.Dispatch(store.SetDevicePluginEnabled{PluginID: def.ID()})
	return errors.Join(errs...)
}

// startPlugin starts a plugin on one client. Background plugins outside the
// default-enabled set also get an explicit init signal; default-enabled
// ones init lazily on selection.
func (c *Controller) startPlugin(cl ClientConn, def *plugin.Definition, forceBackground bool) error {
	if err := cl.StartPluginIfNeeded(def); err != nil {
		return err
	}
	if cl.IsBackgroundPlugin(def.ID()) && (forceBackground || !c.defaultBackground[def.ID()]) {
		return cl.InitPlugin(def.ID())
	}
	return nil
}

// stopPlugin is the mirror of startPlugin. Deinit fires before the generic
// stop so background teardown sees a still-connected instance.
func (c *Controller) stopPlugin(cl ClientConn, pluginID string, forceBackground bool) error {
	var errs []error
	if cl.IsBackgroundPlugin(pluginID) && (forceBackground || !c.defaultBackground[pluginID]) {
		if err := cl.DeinitPlugin(pluginID); err != nil {
			errs = append(errs, err)
		}
	}
	if err := cl.StopPluginIfNeeded(pluginID); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// unloadPrevious evicts the previous version's module after a swap. Bundled
// versions never reach the unloader.
func (c *Controller) unloadPrevious(def *plugin.Definition, prev *plugin.Definition) {
	if prev == nil {
		return
	}
	pd := prev.Details()
	if pd.Version == def.Details().Version || pd.Bundled {
		return
	}
	c.resolver.Unload(pd.Entry)
}

func (c *Controller) supportingDevices(pluginID string) []DeviceConn {
	var out []DeviceConn
	for _, d := range c.conns.Devices() {
		if d.SupportsPlugin(pluginID) {
			out = append(out, d)
		}
	}
	return out
}
