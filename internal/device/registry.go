package device

import (
	"sync"

	cmap "github.com/orcaman/concurrent-map/v2"
)

// Registry tracks connected devices. Iteration follows registration order.
type Registry struct {
	devices cmap.ConcurrentMap[string, *Device]

	mu    sync.Mutex
	order []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{devices: cmap.New[*Device]()}
}

// Add registers a device.
func (r *Registry) Add(d *Device) {
	if r.devices.SetIfAbsent(d.ID(), d) {
		r.mu.Lock()
		r.order = append(r.order, d.ID())
		r.mu.Unlock()
	}
}

// Remove deregisters a device. The caller is responsible for closing it.
func (r *Registry) Remove(id string) {
	r.devices.Remove(id)
	r.mu.Lock()
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	r.mu.Unlock()
}

// Get returns the device with the given id.
func (r *Registry) Get(id string) (*Device, bool) {
	return r.devices.Get(id)
}

// All returns the registered devices in registration order.
func (r *Registry) All() []*Device {
	r.mu.Lock()
	order := append([]string(nil), r.order...)
	r.mu.Unlock()

	out := make([]*Device, 0, len(order))
	for _, id := range order {
		if d, ok := r.devices.Get(id); ok {
			out = append(out, d)
		}
	}
	return out
}

// Len returns the number of registered devices.
func (r *Registry) Len() int {
	return r.devices.Count()
}
