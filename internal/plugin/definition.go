package plugin

import "fmt"

// Kind distinguishes plugins that target a client connection from plugins
// that target a device. The two are mutually exclusive.
type Kind int

const (
	// KindClient - Plugin runs against a client connection (an app under debug).
	KindClient Kind = iota

	// KindDevice - Plugin runs against a device.
	KindDevice
)

// String returns a string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindClient:
		return "client"
	case KindDevice:
		return "device"
	default:
		return "unknown"
	}
}

// Details describes one installed version of a plugin. It is what the
// installed-plugin store hands out and what load/uninstall commands carry.
type Details struct {
	// ID is the unique plugin identifier (e.g., "network-inspector").
	ID string

	// Title is the human-readable plugin name.
	Title string

	// Version is the plugin semver.
	Version string

	// Dir is the directory the plugin version is installed in.
	Dir string

	// Entry is the absolute path to the plugin's main Lua file.
	Entry string

	// Kind selects the client or device variant.
	Kind Kind

	// Bundled plugins ship inside the application and are never unloaded
	// from the module cache.
	Bundled bool

	// Background marks a client plugin that receives messages while not
	// visibly selected. Meaningless for device plugins.
	Background bool
}

// Module is a loaded plugin module able to mint fresh instances.
// Modules are produced by the loader and cached there by id and version.
type Module interface {
	// Details returns the installed metadata this module was loaded from.
	Details() *Details

	// NewInstance returns a new, distinct Instance. Every call yields a
	// fresh instance object; modules never hand out a previous one.
	NewInstance() (*Instance, error)

	// Close releases the module's runtime resources. Called only by the
	// loader when the module is evicted from the cache.
	Close() error
}

// Definition pairs installed metadata with its resolved module. A Definition
// is the "current" version of a plugin as registered in the store.
type Definition struct {
	details *Details
	module  Module
}

// NewDefinition creates a Definition from details and a resolved module.
func NewDefinition(details *Details, module Module) (*Definition, error) {
	if details == nil {
		return nil, ErrNilDetails
	}
	if module == nil {
		return nil, fmt.Errorf("plugin %q: %w", details.ID, ErrNilModule)
	}
	return &Definition{details: details, module: module}, nil
}

// ID returns the plugin id.
func (d *Definition) ID() string {
	return d.details.ID
}

// Kind returns the plugin kind.
func (d *Definition) Kind() Kind {
	return d.details.Kind
}

// Details returns the installed metadata.
func (d *Definition) Details() *Details {
	return d.details
}

// Module returns the resolved module.
func (d *Definition) Module() Module {
	return d.module
}
