// Package installed manages the on-disk store of installed plugin versions.
//
// Layout: <root>/<id>/<version>/plugin.json plus the plugin's Lua sources.
// Multiple versions of a plugin may coexist on disk; ListInstalled reports
// the newest per id and PruneOldVersions trims the rest.
package installed

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/Masterminds/semver/v3"

	"github.com/periscope-dbg/periscope/internal/plugin"
)

// Store reads and mutates the installed-plugin directory tree.
type Store struct {
	root string
}

// NewStore creates a store rooted at the given directory. The directory is
// created if missing.
func NewStore(root string) (*Store, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create plugin root: %w", err)
	}
	return &Store{root: root}, nil
}

// Root returns the store's root directory.
func (s *Store) Root() string {
	return s.root
}

// ListInstalled returns the newest installed version of every plugin,
// sorted by id. Directories without a valid manifest are skipped.
func (s *Store) ListInstalled() ([]*plugin.Details, error) {
	ids, err := s.pluginIDs()
	if err != nil {
		return nil, err
	}

	details := make([]*plugin.Details, 0, len(ids))
	for _, id := range ids {
		versions, err := s.ListVersions(id)
		if err != nil || len(versions) == 0 {
			continue
		}
		details = append(details, versions[0])
	}
	return details, nil
}

// ListVersions returns all installed versions of a plugin, newest first.
func (s *Store) ListVersions(id string) ([]*plugin.Details, error) {
	dir := filepath.Join(s.root, id)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("plugin %q: %w", id, plugin.ErrPluginNotFound)
		}
		return nil, err
	}

	type versioned struct {
		details *plugin.Details
		version *semver.Version
	}

	var found []versioned
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		manifestPath := filepath.Join(dir, entry.Name(), "plugin.json")
		m, err := plugin.LoadManifest(manifestPath)
		if err != nil {
			continue // not a plugin version dir
		}
		d, err := m.Details()
		if err != nil {
			continue
		}
		v, err := semver.NewVersion(d.Version)
		if err != nil {
			continue
		}
		found = append(found, versioned{details: d, version: v})
	}

	sort.Slice(found, func(i, j int) bool {
		return found[i].version.GreaterThan(found[j].version)
	})

	details := make([]*plugin.Details, len(found))
	for i, f := range found {
		details[i] = f.details
	}
	return details, nil
}

// RemoveUninstalled deletes the named plugins from disk entirely.
func (s *Store) RemoveUninstalled(ids []string) error {
	var errs []error
	for _, id := range ids {
		dir := filepath.Join(s.root, id)
		if err := os.RemoveAll(dir); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", id, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("failed to remove %d plugins: %w", len(errs), errors.Join(errs...))
	}
	return nil
}

// PruneOldVersions keeps the newest `keep` versions of every installed
// plugin and deletes the rest from disk.
func (s *Store) PruneOldVersions(keep int) error {
	if keep < 1 {
		keep = 1
	}

	ids, err := s.pluginIDs()
	if err != nil {
		return err
	}

	var errs []error
	for _, id := range ids {
		versions, err := s.ListVersions(id)
		if err != nil {
			continue
		}
		for _, old := range versions[min(keep, len(versions)):] {
			if err := os.RemoveAll(old.Dir); err != nil {
				errs = append(errs, fmt.Errorf("%s@%s: %w", id, old.Version, err))
			}
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("failed to prune old versions: %w", errors.Join(errs...))
	}
	return nil
}

// pluginIDs lists the plugin directories under the root, sorted.
func (s *Store) pluginIDs() ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("failed to read plugin root: %w", err)
	}

	ids := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			ids = append(ids, entry.Name())
		}
	}
	sort.Strings(ids)
	return ids, nil
}
