package plugin

import (
	"errors"
	"fmt"
	"sync"
)

// Hooks are the lifecycle callbacks a module provides for an instance.
// Nil hooks are treated as no-ops.
type Hooks struct {
	// Connect is called when the instance becomes active for its owner.
	Connect func() error

	// Disconnect is called when the instance is deselected or torn down.
	Disconnect func() error

	// Activate is the background init signal.
	Activate func() error

	// Deactivate is the background deinit signal.
	Deactivate func() error

	// DeepLink receives a deep-link payload on selection.
	DeepLink func(payload string) error

	// Message receives a client message routed to this plugin.
	Message func(method, params string) error

	// Destroy is called exactly once when the instance is discarded.
	Destroy func() error
}

// Instance is one live activation of a plugin for one owner (a client or a
// device). At most one live Instance exists per (owner, plugin) pair, and a
// fresh activation always yields a fresh Instance: previously captured
// references are stale the moment a deactivation occurs.
//
// Connect and Disconnect fire in strict alternation starting with Connect.
type Instance struct {
	mu sync.Mutex

	details *Details
	hooks   Hooks

	// api is the user-defined instance object returned by the plugin's
	// setup function. Opaque to the lifecycle machinery.
	api any

	state InstanceState
}

// NewInstance creates a new instance in the created state.
func NewInstance(details *Details, api any, hooks Hooks) *Instance {
	return &Instance{
		details: details,
		hooks:   hooks,
		api:     api,
		state:   StateCreated,
	}
}

// Details returns the plugin metadata this instance was created from.
func (i *Instance) Details() *Details {
	return i.details
}

// API returns the user-defined instance object.
func (i *Instance) API() any {
	return i.api
}

// State returns the current instance state.
func (i *Instance) State() InstanceState {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.state
}

// Connected returns true if the instance is currently connected.
func (i *Instance) Connected() bool {
	return i.State() == StateConnected
}

// Connect fires the connect hook. Calling Connect on a connected instance
// returns ErrAlreadyConnected; the hook is not invoked twice.
func (i *Instance) Connect() error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.state == StateDestroyed {
		return i.errf(ErrInstanceDestroyed)
	}
	if i.state == StateConnected {
		return i.errf(ErrAlreadyConnected)
	}

	if err := i.call(i.hooks.Connect); err != nil {
		return fmt.Errorf("plugin %q connect: %w", i.details.ID, err)
	}
	i.state = StateConnected
	return nil
}

// Disconnect fires the disconnect hook. Calling Disconnect on an instance
// that is not connected returns ErrNotConnected without invoking the hook.
func (i *Instance) Disconnect() error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.state == StateDestroyed {
		return i.errf(ErrInstanceDestroyed)
	}
	if i.state != StateConnected {
		return i.errf(ErrNotConnected)
	}

	if err := i.call(i.hooks.Disconnect); err != nil {
		i.state = StateDisconnected
		return fmt.Errorf("plugin %q disconnect: %w", i.details.ID, err)
	}
	i.state = StateDisconnected
	return nil
}

// Activate fires the background init signal.
func (i *Instance) Activate() error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.state == StateDestroyed {
		return i.errf(ErrInstanceDestroyed)
	}
	if err := i.call(i.hooks.Activate); err != nil {
		return fmt.Errorf("plugin %q activate: %w", i.details.ID, err)
	}
	return nil
}

// Deactivate fires the background deinit signal.
func (i *Instance) Deactivate() error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.state == StateDestroyed {
		return i.errf(ErrInstanceDestroyed)
	}
	if err := i.call(i.hooks.Deactivate); err != nil {
		return fmt.Errorf("plugin %q deactivate: %w", i.details.ID, err)
	}
	return nil
}

// DeepLink delivers a deep-link payload to the instance.
func (i *Instance) DeepLink(payload string) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.state == StateDestroyed {
		return i.errf(ErrInstanceDestroyed)
	}
	if i.hooks.DeepLink == nil {
		return nil
	}
	if err := i.hooks.DeepLink(payload); err != nil {
		return fmt.Errorf("plugin %q deeplink: %w", i.details.ID, err)
	}
	return nil
}

// Message delivers a client message to the instance.
func (i *Instance) Message(method, params string) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.state == StateDestroyed {
		return i.errf(ErrInstanceDestroyed)
	}
	if i.hooks.Message == nil {
		return nil
	}
	if err := i.hooks.Message(method, params); err != nil {
		return fmt.Errorf("plugin %q message: %w", i.details.ID, err)
	}
	return nil
}

// Destroy disconnects the instance if needed, fires the destroy hook, and
// marks the instance destroyed. Destroy is idempotent: a second call is a
// no-op and the hooks fire at most once.
func (i *Instance) Destroy() error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.state == StateDestroyed {
		return nil
	}

	var errs []error
	if i.state == StateConnected {
		if err := i.call(i.hooks.Disconnect); err != nil {
			errs = append(errs, fmt.Errorf("disconnect: %w", err))
		}
	}
	if err := i.call(i.hooks.Destroy); err != nil {
		errs = append(errs, fmt.Errorf("destroy: %w", err))
	}
	i.state = StateDestroyed

	if len(errs) > 0 {
		return fmt.Errorf("plugin %q: %w", i.details.ID, errors.Join(errs...))
	}
	return nil
}

// call invokes a hook, treating nil as a no-op. Must be called with mu held.
func (i *Instance) call(hook func() error) error {
	if hook == nil {
		return nil
	}
	return hook()
}

func (i *Instance) errf(sentinel error) error {
	return fmt.Errorf("plugin %q: %w", i.details.ID, sentinel)
}
