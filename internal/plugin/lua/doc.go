// Package lua hosts Periscope plugin modules in sandboxed gopher-lua states.
//
// A plugin module is a Lua file whose globals provide optional lifecycle
// hooks: setup, connect, disconnect, activate, deactivate, deeplink,
// message, and destroy. Missing hooks are treated as no-ops by callers.
//
// States open only the safe Lua standard libraries. File system and process
// access is intentionally unavailable to plugin code; plugins interact with
// the application exclusively through registered Go functions.
//
// gopher-lua's LState is not goroutine-safe. State serializes access with a
// mutex so the single-threaded lifecycle machinery and tests can share one
// state safely.
package lua
