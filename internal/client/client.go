// Package client models live connections from applications under debug and
// the registry that tracks them. Each client owns the plugin instances
// started against it.
package client

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"

	"github.com/periscope-dbg/periscope/internal/plugin"
)

var (
	// ErrUnsupportedPlugin is returned when a plugin is started on a client
	// that does not advertise it.
	ErrUnsupportedPlugin = errors.New("plugin not supported by client")

	// ErrMalformedMessage is returned for messages missing the fields
	// needed for routing.
	ErrMalformedMessage = errors.New("malformed client message")
)

// MessageSink receives messages for background plugins that have no live
// instance on the client. The store's message queues satisfy this.
type MessageSink interface {
	PushMessage(clientID, pluginID, method, params string)
}

// Client is one live connection from an app under debug.
type Client struct {
	id      string
	appName string

	supported  map[string]bool
	background map[string]bool

	sink MessageSink

	mu        sync.Mutex
	instances map[string]*plugin.Instance
}

// Option configures a Client.
type Option func(*Client)

// WithMessageSink sets the sink for background-plugin messages that arrive
// while the plugin has no live instance.
func WithMessageSink(sink MessageSink) Option {
	return func(c *Client) {
		c.sink = sink
	}
}

// New creates a client connection for an app. The supported and background
// sets come from the app's handshake.
func New(appName string, supported, background []string, opts ...Option) *Client {
	c := &Client{
		id:         uuid.NewString(),
		appName:    appName,
		supported:  make(map[string]bool, len(supported)),
		background: make(map[string]bool, len(background)),
		instances:  make(map[string]*plugin.Instance),
	}
	for _, id := range supported {
		c.supported[id] = true
	}
	for _, id := range background {
		c.background[id] = true
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ID returns the connection id.
func (c *Client) ID() string {
	return c.id
}

// AppName returns the name of the connected app.
func (c *Client) AppName() string {
	return c.appName
}

// SupportsPlugin reports whether the app advertises the plugin.
func (c *Client) SupportsPlugin(pluginID string) bool {
	return c.supported[pluginID]
}

// IsBackgroundPlugin reports whether the app runs the plugin in the
// background, i.e. it receives messages while not visibly selected.
func (c *Client) IsBackgroundPlugin(pluginID string) bool {
	return c.background[pluginID]
}

// ActivePlugin returns the live instance for a plugin, or nil.
func (c *Client) ActivePlugin(pluginID string) *plugin.Instance {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.instances[pluginID]
}

// ActivePluginIDs returns the ids of all live instances.
func (c *Client) ActivePluginIDs() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	ids := make([]string, 0, len(c.instances))
	for id := range c.instances {
		ids = append(ids, id)
	}
	return ids
}

// StartPluginIfNeeded instantiates and connects the plugin on this client.
// A second call while the instance is live is a no-op; a client never holds
// two live instances of the same plugin.
func (c *Client) StartPluginIfNeeded(def *plugin.Definition) error {
	if !c.SupportsPlugin(def.ID()) {
		return fmt.Errorf("client %q plugin %q: %w", c.appName, def.ID(), ErrUnsupportedPlugin)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.instances[def.ID()]; ok {
		return nil
	}

	inst, err := def.Module().NewInstance()
	if err != nil {
		return fmt.Errorf("client %q: %w", c.appName, err)
	}
	if err := inst.Connect(); err != nil {
		inst.Destroy()
		return fmt.Errorf("client %q: %w", c.appName, err)
	}
	c.instances[def.ID()] = inst
	return nil
}

// StopPluginIfNeeded disconnects and destroys the plugin's live instance.
// A call without a live instance is a no-op.
func (c *Client) StopPluginIfNeeded(pluginID string) error {
	c.mu.Lock()
	inst, ok := c.instances[pluginID]
	delete(c.instances, pluginID)
	c.mu.Unlock()

	if !ok {
		return nil
	}
	if err := inst.Destroy(); err != nil {
		return fmt.Errorf("client %q: %w", c.appName, err)
	}
	return nil
}

// InitPlugin fires the background init signal on the plugin's live instance.
// A no-op when the instance is absent.
func (c *Client) InitPlugin(pluginID string) error {
	inst := c.ActivePlugin(pluginID)
	if inst == nil {
		return nil
	}
	return inst.Activate()
}

// DeinitPlugin fires the background deinit signal on the plugin's live
// instance. A no-op when the instance is absent.
func (c *Client) DeinitPlugin(pluginID string) error {
	inst := c.ActivePlugin(pluginID)
	if inst == nil {
		return nil
	}
	return inst.Deactivate()
}

// Close stops every live instance. Errors are joined.
func (c *Client) Close() error {
	c.mu.Lock()
	instances := c.instances
	c.instances = make(map[string]*plugin.Instance)
	c.mu.Unlock()

	var errs []error
	for _, inst := range instances {
		if err := inst.Destroy(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("client %q close: %w", c.appName, errors.Join(errs...))
	}
	return nil
}

// OnMessage routes a raw execute message from the app. Messages target a
// plugin via params.api; the payload goes to the live instance when there is
// one, or to the sink when the plugin runs in the background. Messages for
// plugins that are neither live nor background are dropped.
func (c *Client) OnMessage(raw string) error {
	if gjson.Get(raw, "method").String() != "execute" {
		return nil
	}

	params := gjson.Get(raw, "params")
	pluginID := params.Get("api").String()
	method := params.Get("method").String()
	if pluginID == "" || method == "" {
		return fmt.Errorf("client %q: %w", c.appName, ErrMalformedMessage)
	}
	payload := params.Get("params").Raw

	if inst := c.ActivePlugin(pluginID); inst != nil {
		return inst.Message(method, payload)
	}
	if c.IsBackgroundPlugin(pluginID) && c.sink != nil {
		c.sink.PushMessage(c.id, pluginID, method, payload)
	}
	return nil
}
