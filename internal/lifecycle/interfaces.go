package lifecycle

import "github.com/periscope-dbg/periscope/internal/plugin"

// ClientConn is the lifecycle-facing surface of a live client connection.
// *client.Client satisfies it.
type ClientConn interface {
	ID() string
	AppName() string
	SupportsPlugin(pluginID string) bool
	IsBackgroundPlugin(pluginID string) bool
	ActivePlugin(pluginID string) *plugin.Instance
	StartPluginIfNeeded(def *plugin.Definition) error
	StopPluginIfNeeded(pluginID string) error
	InitPlugin(pluginID string) error
	DeinitPlugin(pluginID string) error
}

// DeviceConn is the lifecycle-facing surface of a connected device.
// *device.Device satisfies it.
type DeviceConn interface {
	ID() string
	SupportsPlugin(pluginID string) bool
	ActivePlugin(pluginID string) *plugin.Instance
	LoadDevicePlugin(def *plugin.Definition) error
	UnloadDevicePlugin(pluginID string) error
}

// Connections provides the currently live clients and devices. Iteration
// order is stable within one handler invocation.
type Connections interface {
	Clients() []ClientConn
	ClientsForApp(appName string) []ClientConn
	Devices() []DeviceConn
}

// Resolver is the module-loader collaborator.
type Resolver interface {
	Resolve(details *plugin.Details) (plugin.Module, error)
	Unload(entry string)
}

// Notifier surfaces user-visible errors.
type Notifier interface {
	ShowError(message string)
}

// Logger is the logging surface the controller needs.
type Logger interface {
	Debug(msg string, args ...any)
	Error(msg string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Error(string, ...any) {}
