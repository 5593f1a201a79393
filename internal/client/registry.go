package client

import (
	"sync"

	cmap "github.com/orcaman/concurrent-map/v2"
)

// Registry tracks live client connections. Lookup goes through a concurrent
// map; iteration follows registration order so multi-client passes are
// deterministic.
type Registry struct {
	clients cmap.ConcurrentMap[string, *Client]

	mu    sync.Mutex
	order []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{clients: cmap.New[*Client]()}
}

// Add registers a client connection.
func (r *Registry) Add(c *Client) {
	if r.clients.SetIfAbsent(c.ID(), c) {
		r.mu.Lock()
		r.order = append(r.order, c.ID())
		r.mu.Unlock()
	}
}

// Remove deregisters a client connection. The caller is responsible for
// closing it.
func (r *Registry) Remove(id string) {
	r.clients.Remove(id)
	r.mu.Lock()
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	r.mu.Unlock()
}

// Get returns the client with the given connection id.
func (r *Registry) Get(id string) (*Client, bool) {
	return r.clients.Get(id)
}

// All returns the registered clients in registration order.
func (r *Registry) All() []*Client {
	r.mu.Lock()
	order := append([]string(nil), r.order...)
	r.mu.Unlock()

	out := make([]*Client, 0, len(order))
	for _, id := range order {
		if c, ok := r.clients.Get(id); ok {
			out = append(out, c)
		}
	}
	return out
}

// ForApp returns the registered clients for an app, in registration order.
func (r *Registry) ForApp(appName string) []*Client {
	var out []*Client
	for _, c := range r.All() {
		if c.AppName() == appName {
			out = append(out, c)
		}
	}
	return out
}

// Len returns the number of registered clients.
func (r *Registry) Len() int {
	return r.clients.Count()
}
