package plugin

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeManifest(t *testing.T, dir, content string) string {
	t.Helper()
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, "plugin.json")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadManifest(t *testing.T) {
	dir := t.TempDir()
	path := writeManifest(t, dir, `{
		"id": "network-inspector",
		"version": "1.2.0",
		"title": "Network Inspector",
		"kind": "client",
		"background": true,
		"main": "init.lua"
	}`)

	m, err := LoadManifest(path)
	if err != nil {
		t.Fatalf("LoadManifest() error = %v", err)
	}

	if m.ID != "network-inspector" {
		t.Errorf("ID = %q, want %q", m.ID, "network-inspector")
	}
	if m.Version != "1.2.0" {
		t.Errorf("Version = %q, want %q", m.Version, "1.2.0")
	}
	if !m.Background {
		t.Error("Background = false, want true")
	}
	if m.Path() != dir {
		t.Errorf("Path() = %q, want %q", m.Path(), dir)
	}
	if m.MainPath() != filepath.Join(dir, "init.lua") {
		t.Errorf("MainPath() = %q", m.MainPath())
	}
}

func TestLoadManifestDefaults(t *testing.T) {
	dir := t.TempDir()
	path := writeManifest(t, dir, `{"id": "minimal", "version": "0.1.0"}`)

	m, err := LoadManifest(path)
	if err != nil {
		t.Fatalf("LoadManifest() error = %v", err)
	}

	if m.Main != "init.lua" {
		t.Errorf("Main = %q, want %q", m.Main, "init.lua")
	}
	if m.Kind != ManifestKindClient {
		t.Errorf("Kind = %q, want %q", m.Kind, ManifestKindClient)
	}
	if m.Title != "minimal" {
		t.Errorf("Title = %q, want %q", m.Title, "minimal")
	}
}

func TestManifestValidate(t *testing.T) {
	valid := func() *Manifest {
		return &Manifest{
			ID:      "test-plugin",
			Version: "1.0.0",
			Kind:    ManifestKindClient,
			Main:    "init.lua",
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Manifest)
		wantErr error
	}{
		{"valid", func(m *Manifest) {}, nil},
		{"missing id", func(m *Manifest) { m.ID = "" }, ErrMissingID},
		{"invalid id", func(m *Manifest) { m.ID = "Bad_Name" }, ErrInvalidID},
		{"missing version", func(m *Manifest) { m.Version = "" }, ErrMissingVersion},
		{"invalid version", func(m *Manifest) { m.Version = "not-semver" }, ErrInvalidVersion},
		{"invalid kind", func(m *Manifest) { m.Kind = "widget" }, ErrInvalidKind},
		{"invalid main", func(m *Manifest) { m.Main = "init.js" }, ErrInvalidMain},
		{"device background", func(m *Manifest) { m.Kind = ManifestKindDevice; m.Background = true }, ErrDeviceBackground},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := valid()
			tt.mutate(m)
			err := m.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestManifestDetails(t *testing.T) {
	dir := t.TempDir()
	path := writeManifest(t, dir, `{
		"id": "crash-reporter",
		"version": "2.0.1",
		"kind": "device",
		"bundled": true
	}`)

	m, err := LoadManifest(path)
	if err != nil {
		t.Fatalf("LoadManifest() error = %v", err)
	}

	details, err := m.Details()
	if err != nil {
		t.Fatalf("Details() error = %v", err)
	}

	if details.Kind != KindDevice {
		t.Errorf("Kind = %v, want %v", details.Kind, KindDevice)
	}
	if !details.Bundled {
		t.Error("Bundled = false, want true")
	}
	if details.Entry != filepath.Join(dir, "init.lua") {
		t.Errorf("Entry = %q", details.Entry)
	}
}

func TestKindString(t *testing.T) {
	tests := []struct {
		kind     Kind
		expected string
	}{
		{KindClient, "client"},
		{KindDevice, "device"},
		{Kind(99), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.expected {
			t.Errorf("Kind(%d).String() = %q, want %q", tt.kind, got, tt.expected)
		}
	}
}
