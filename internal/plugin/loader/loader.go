// Package loader resolves plugin descriptors to loaded modules and owns the
// module cache. It is the module-loader collaborator of the lifecycle
// machinery: Resolve loads and caches, Unload evicts.
package loader

import (
	"fmt"
	"sync"

	"github.com/periscope-dbg/periscope/internal/plugin"
)

// Resolver loads plugin modules from disk and caches them by id and version.
type Resolver struct {
	mu sync.Mutex

	// cache maps id@version to the loaded module.
	cache map[string]*module

	// byEntry maps a module's entry path to its cache key, for Unload.
	byEntry map[string]string
}

// NewResolver creates an empty resolver.
func NewResolver() *Resolver {
	return &Resolver{
		cache:   make(map[string]*module),
		byEntry: make(map[string]string),
	}
}

// Resolve returns the module for the given details, loading it on first use.
// Resolution failure wraps plugin.ErrResolution.
func (r *Resolver) Resolve(details *plugin.Details) (plugin.Module, error) {
	if details == nil {
		return nil, plugin.ErrNilDetails
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	key := cacheKey(details)
	if mod, ok := r.cache[key]; ok {
		return mod, nil
	}

	mod, err := loadModule(details)
	if err != nil {
		return nil, fmt.Errorf("%w: %s@%s: %v", plugin.ErrResolution, details.ID, details.Version, err)
	}

	r.cache[key] = mod
	r.byEntry[details.Entry] = key
	return mod, nil
}

// Unload evicts the module loaded from the given entry path and closes its
// runtime. Bundled modules are never evicted; unloading an unknown entry is
// a no-op.
func (r *Resolver) Unload(entry string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key, ok := r.byEntry[entry]
	if !ok {
		return
	}
	mod := r.cache[key]
	if mod.details.Bundled {
		return
	}

	delete(r.cache, key)
	delete(r.byEntry, entry)
	_ = mod.Close()
}

// Cached returns true if a module for the given details is in the cache.
func (r *Resolver) Cached(details *plugin.Details) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.cache[cacheKey(details)]
	return ok
}

// Len returns the number of cached modules.
func (r *Resolver) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.cache)
}

// Close evicts and closes every cached module, including bundled ones.
// Used at application shutdown.
func (r *Resolver) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for key, mod := range r.cache {
		_ = mod.Close()
		delete(r.cache, key)
	}
	r.byEntry = make(map[string]string)
	return nil
}

func cacheKey(details *plugin.Details) string {
	return details.ID + "@" + details.Version
}
