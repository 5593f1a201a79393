package plugin

import "errors"

// Plugin system errors.
var (
	// ErrPluginNotFound is returned when a plugin cannot be located.
	ErrPluginNotFound = errors.New("plugin not found")

	// ErrNoEntryPoint is returned when a plugin has no valid entry point.
	ErrNoEntryPoint = errors.New("plugin has no entry point")

	// ErrNilManifest is returned when a nil manifest is provided.
	ErrNilManifest = errors.New("manifest is nil")

	// ErrNilDetails is returned when nil details are provided.
	ErrNilDetails = errors.New("plugin details are nil")

	// ErrNilModule is returned when a nil module is provided.
	ErrNilModule = errors.New("plugin module is nil")

	// ErrResolution is returned when a plugin module cannot be loaded.
	ErrResolution = errors.New("plugin module resolution failed")

	// ErrAlreadyConnected is returned when Connect is called on a
	// connected instance.
	ErrAlreadyConnected = errors.New("plugin instance is already connected")

	// ErrNotConnected is returned when Disconnect is called on an
	// instance that is not connected.
	ErrNotConnected = errors.New("plugin instance is not connected")

	// ErrInstanceDestroyed is returned when a destroyed instance is used.
	ErrInstanceDestroyed = errors.New("plugin instance is destroyed")
)
