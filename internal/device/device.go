// Package device models connected devices and the registry that tracks
// them. Device plugins are loaded per device and enabled globally rather
// than per app.
package device

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/periscope-dbg/periscope/internal/plugin"
)

// ErrUnsupportedPlugin is returned when a plugin is loaded on a device that
// does not support it.
var ErrUnsupportedPlugin = errors.New("plugin not supported by device")

// Device is one connected device.
type Device struct {
	id    string
	title string

	supported map[string]bool

	mu        sync.Mutex
	instances map[string]*plugin.Instance
}

// New creates a device with the set of plugin ids it supports.
func New(title string, supported []string) *Device {
	d := &Device{
		id:        uuid.NewString(),
		title:     title,
		supported: make(map[string]bool, len(supported)),
		instances: make(map[string]*plugin.Instance),
	}
	for _, id := range supported {
		d.supported[id] = true
	}
	return d
}

// ID returns the device id.
func (d *Device) ID() string {
	return d.id
}

// Title returns the human-readable device name.
func (d *Device) Title() string {
	return d.title
}

// SupportsPlugin reports whether the device supports the plugin.
func (d *Device) SupportsPlugin(pluginID string) bool {
	return d.supported[pluginID]
}

// ActivePlugin returns the live instance for a plugin, or nil.
func (d *Device) ActivePlugin(pluginID string) *plugin.Instance {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.instances[pluginID]
}

// LoadDevicePlugin instantiates and connects the plugin on this device.
// A second call while the instance is live is a no-op.
func (d *Device) LoadDevicePlugin(def *plugin.Definition) error {
	if !d.SupportsPlugin(def.ID()) {
		return fmt.Errorf("device %q plugin %q: %w", d.title, def.ID(), ErrUnsupportedPlugin)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.instances[def.ID()]; ok {
		return nil
	}

	inst, err := def.Module().NewInstance()
	if err != nil {
		return fmt.Errorf("device %q: %w", d.title, err)
	}
	if err := inst.Connect(); err != nil {
		inst.Destroy()
		return fmt.Errorf("device %q: %w", d.title, err)
	}
	d.instances[def.ID()] = inst
	return nil
}

// UnloadDevicePlugin disconnects and destroys the plugin's live instance.
// A call without a live instance is a no-op.
func (d *Device) UnloadDevicePlugin(pluginID string) error {
	d.mu.Lock()
	inst, ok := d.instances[pluginID]
	delete(d.instances, pluginID)
	d.mu.Unlock()

	if !ok {
		return nil
	}
	if err := inst.Destroy(); err != nil {
		return fmt.Errorf("device %q: %w", d.title, err)
	}
	return nil
}

// Close unloads every live instance. Errors are joined.
func (d *Device) Close() error {
	d.mu.Lock()
	instances := d.instances
	d.instances = make(map[string]*plugin.Instance)
	d.mu.Unlock()

	var errs []error
	for _, inst := range instances {
		if err := inst.Destroy(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("device %q close: %w", d.title, errors.Join(errs...))
	}
	return nil
}
