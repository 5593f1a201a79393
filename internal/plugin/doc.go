// Package plugin defines the core plugin model for Periscope: plugin
// descriptors, loaded module handles, and per-owner plugin instances.
//
// A plugin targets either a client connection (an app under debug) or a
// device. Installed metadata is described by Details, a resolved module by
// Definition, and a live activation by Instance. Instances are created fresh
// for every activation and are never reused: once destroyed, an Instance
// stays destroyed and callers must obtain a new one.
//
// Lifecycle hooks on an Instance follow a strict protocol:
//
//	Connect -> Disconnect -> Connect -> ... -> Destroy
//
// Connect and Disconnect alternate, starting with Connect. Activate and
// Deactivate are the background init/deinit signals and may fire while the
// instance is connected. Destroy is terminal.
//
// Subpackages:
//
//   - lua: the sandboxed gopher-lua runtime that hosts plugin modules
//   - loader: module resolution and caching (the module loader)
//   - installed: the on-disk installed-plugin store
package plugin
