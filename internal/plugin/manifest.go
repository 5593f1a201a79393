package plugin

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/Masterminds/semver/v3"
)

// Manifest describes a plugin version's metadata, read from plugin.json in
// the plugin's install directory.
type Manifest struct {
	// Identity
	ID      string `json:"id"`      // Unique identifier (e.g., "network-inspector")
	Version string `json:"version"` // Semver (e.g., "1.2.0")
	Title   string `json:"title"`   // Human-readable name

	// Kind is "client" or "device".
	Kind string `json:"kind"`

	// Background marks a client plugin that receives messages while not
	// visibly selected.
	Background bool `json:"background"`

	// Bundled plugins ship inside the application and cannot be unloaded
	// from the module cache.
	Bundled bool `json:"bundled"`

	// Main is the relative path to the main Lua file (default: "init.lua").
	Main string `json:"main"`

	// Internal: path to the plugin directory
	path string
}

// Manifest kinds.
const (
	ManifestKindClient = "client"
	ManifestKindDevice = "device"
)

// Validation errors.
var (
	ErrMissingID        = errors.New("manifest: id is required")
	ErrInvalidID        = errors.New("manifest: id must be alphanumeric with hyphens")
	ErrMissingVersion   = errors.New("manifest: version is required")
	ErrInvalidVersion   = errors.New("manifest: version must be valid semver")
	ErrInvalidKind      = errors.New("manifest: kind must be \"client\" or \"device\"")
	ErrInvalidMain      = errors.New("manifest: main must be a .lua file")
	ErrDeviceBackground = errors.New("manifest: device plugins cannot be background plugins")
)

// idPattern validates plugin ids.
var idPattern = regexp.MustCompile(`^[a-z][a-z0-9-]*[a-z0-9]$|^[a-z]$`)

// LoadManifest reads and validates a manifest from a plugin.json file.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}

	m.path = filepath.Dir(path)
	m.applyDefaults()

	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// applyDefaults fills in optional fields.
func (m *Manifest) applyDefaults() {
	if m.Main == "" {
		m.Main = "init.lua"
	}
	if m.Kind == "" {
		m.Kind = ManifestKindClient
	}
	if m.Title == "" {
		m.Title = m.ID
	}
}

// Validate checks the manifest for correctness.
func (m *Manifest) Validate() error {
	if m.ID == "" {
		return ErrMissingID
	}
	if !idPattern.MatchString(m.ID) {
		return fmt.Errorf("%w: %q", ErrInvalidID, m.ID)
	}
	if m.Version == "" {
		return ErrMissingVersion
	}
	if _, err := semver.NewVersion(m.Version); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidVersion, m.Version)
	}
	if m.Kind != ManifestKindClient && m.Kind != ManifestKindDevice {
		return fmt.Errorf("%w: %q", ErrInvalidKind, m.Kind)
	}
	if m.Kind == ManifestKindDevice && m.Background {
		return ErrDeviceBackground
	}
	if filepath.Ext(m.Main) != ".lua" {
		return fmt.Errorf("%w: %q", ErrInvalidMain, m.Main)
	}
	return nil
}

// Path returns the plugin's install directory.
func (m *Manifest) Path() string {
	return m.path
}

// SetPath sets the plugin's install directory. Used when a manifest is
// constructed in memory rather than loaded from disk.
func (m *Manifest) SetPath(path string) {
	m.path = path
}

// MainPath returns the absolute path to the plugin's main Lua file.
func (m *Manifest) MainPath() string {
	return filepath.Join(m.path, m.Main)
}

// Details converts the manifest into installed-plugin details.
func (m *Manifest) Details() (*Details, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}

	kind := KindClient
	if m.Kind == ManifestKindDevice {
		kind = KindDevice
	}

	return &Details{
		ID:         m.ID,
		Title:      m.Title,
		Version:    m.Version,
		Dir:        m.path,
		Entry:      m.MainPath(),
		Kind:       kind,
		Bundled:    m.Bundled,
		Background: m.Background,
	}, nil
}
