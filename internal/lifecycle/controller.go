// Package lifecycle drives plugin activation. The controller drains the
// store's command queue, applies load/update/uninstall/switch handlers,
// and delivers deep links on selection changes.
package lifecycle

import (
	"fmt"
	"sync"
	"time"

	"github.com/periscope-dbg/periscope/internal/store"
)

// Controller processes plugin commands and reacts to selection changes. It
// subscribes to the store with a throttled subscription; each delivery
// drains the queued commands sequentially and never yields mid-drain.
type Controller struct {
	store    *store.Store
	resolver Resolver
	conns    Connections
	notifier Notifier
	logger   Logger

	throttle time.Duration
	subOpts  []store.SubscriptionOption

	// defaultBackground is the set of background plugin ids enabled by
	// default; those receive init lazily on selection rather than at start.
	defaultBackground map[string]bool

	mu          sync.Mutex
	started     bool
	draining    bool
	unsubscribe func()

	deeplink deeplinkState
}

// Option configures a Controller.
type Option func(*Controller)

// WithNotifier sets the sink for user-visible errors.
func WithNotifier(n Notifier) Option {
	return func(c *Controller) {
		c.notifier = n
	}
}

// WithLogger sets the controller's logger.
func WithLogger(l Logger) Option {
	return func(c *Controller) {
		c.logger = l
	}
}

// WithThrottle sets the minimum interval between drain checks.
func WithThrottle(d time.Duration) Option {
	return func(c *Controller) {
		c.throttle = d
	}
}

// WithDefaultBackgroundPlugins marks background plugins whose init is
// deferred until selection.
func WithDefaultBackgroundPlugins(ids []string) Option {
	return func(c *Controller) {
		for _, id := range ids {
			c.defaultBackground[id] = true
		}
	}
}

// WithSubscriptionOptions appends extra store subscription options. Tests
// use this with store.WithRunSynchronously.
func WithSubscriptionOptions(opts ...store.SubscriptionOption) Option {
	return func(c *Controller) {
		c.subOpts = append(c.subOpts, opts...)
	}
}

// NewController creates a controller. Start must be called to begin
// processing.
func NewController(st *store.Store, resolver Resolver, conns Connections, opts ...Option) *Controller {
	c := &Controller{
		store:             st,
		resolver:          resolver,
		conns:             conns,
		logger:            nopLogger{},
		throttle:          store.DefaultThrottle,
		defaultBackground: make(map[string]bool),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start subscribes the controller to the store. The subscription fires
// immediately, and that first delivery runs inline through onStoreChange
// which takes c.mu itself, so the subscription must be created outside the
// lock.
func (c *Controller) Start() {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return
	}
	c.started = true
	c.mu.Unlock()

	opts := append([]store.SubscriptionOption{
		store.WithThrottle(c.throttle),
		store.WithFireImmediately(),
	}, c.subOpts...)
	unsub := c.store.Subscribe(c.onStoreChange, opts...)

	c.mu.Lock()
	if !c.started {
		// Stop won the race against the initial fire.
		c.mu.Unlock()
		unsub()
		return
	}
	c.unsubscribe = unsub
	c.mu.Unlock()
}

// Stop unsubscribes the controller. In-flight drains complete.
func (c *Controller) Stop() {
	c.mu.Lock()
	unsub := c.unsubscribe
	c.unsubscribe = nil
	c.started = false
	c.mu.Unlock()

	if unsub != nil {
		unsub()
	}
}

// onStoreChange is the subscription handler. Dispatches issued by handlers
// re-enter it synchronously in test mode; the draining flag makes those
// re-entries no-ops so a drain never nests.
func (c *Controller) onStoreChange(snap store.State) {
	c.mu.Lock()
	if c.draining {
		c.mu.Unlock()
		return
	}
	c.draining = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.draining = false
		c.mu.Unlock()
	}()

	if len(snap.Commands) > 0 {
		c.drain(snap.Commands)
	}
	c.deliverDeepLink(snap)
}

// drain processes a queue snapshot strictly in order. A failing handler is
// logged and the loop continues; afterward the whole snapshot length is
// marked processed so the store drops exactly those commands, failed ones
// included. Commands enqueued during the drain stay for the next one.
func (c *Controller) drain(commands []store.Command) {
	for _, cmd := range commands {
		c.process(cmd)
	}
	c.store.Dispatch(store.CommandsProcessed{Count: len(commands)})
}

// process runs one command handler, containing both errors and panics.
func (c *Controller) process(cmd store.Command) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("plugin command %T panicked: %v", cmd, r)
		}
	}()

	var err error
	switch cm := cmd.(type) {
	case store.LoadPluginCommand:
		err = c.handleLoad(cm)
	case store.UninstallPluginCommand:
		err = c.handleUninstall(cm)
	case store.UpdatePluginCommand:
		err = c.handleUpdate(cm)
	case store.SwitchPluginCommand:
		err = c.handleSwitch(cm)
	default:
		err = fmt.Errorf("unknown plugin command %T", cmd)
	}
	if err != nil {
		c.logger.Error("plugin command %T failed: %v", cmd, err)
	}
}
