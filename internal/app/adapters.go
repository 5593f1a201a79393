package app

import (
	"github.com/periscope-dbg/periscope/internal/client"
	"github.com/periscope-dbg/periscope/internal/device"
	"github.com/periscope-dbg/periscope/internal/lifecycle"
	"github.com/periscope-dbg/periscope/internal/store"
)

// connections adapts the client and device registries to the lifecycle
// controller's view of live connections.
type connections struct {
	clients *client.Registry
	devices *device.Registry
}

func (c *connections) Clients() []lifecycle.ClientConn {
	all := c.clients.All()
	out := make([]lifecycle.ClientConn, len(all))
	for i, cl := range all {
		out[i] = cl
	}
	return out
}

func (c *connections) ClientsForApp(appName string) []lifecycle.ClientConn {
	matched := c.clients.ForApp(appName)
	out := make([]lifecycle.ClientConn, len(matched))
	for i, cl := range matched {
		out[i] = cl
	}
	return out
}

func (c *connections) Devices() []lifecycle.DeviceConn {
	all := c.devices.All()
	out := make([]lifecycle.DeviceConn, len(all))
	for i, d := range all {
		out[i] = d
	}
	return out
}

// storeSink queues background-plugin messages in the store.
type storeSink struct {
	store *store.Store
}

func (s *storeSink) PushMessage(clientID, pluginID, method, params string) {
	s.store.Dispatch(store.PushMessage{
		ClientID: clientID,
		PluginID: pluginID,
		Message:  store.Message{Method: method, Params: params},
	})
}
