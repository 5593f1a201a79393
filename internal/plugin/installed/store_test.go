package installed

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/periscope-dbg/periscope/internal/plugin"
)

func installVersion(t *testing.T, root, id, version string) string {
	t.Helper()
	dir := filepath.Join(root, id, version)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}

	manifest := `{"id": "` + id + `", "version": "` + version + `", "kind": "client"}`
	if err := os.WriteFile(filepath.Join(dir, "plugin.json"), []byte(manifest), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "init.lua"), []byte("-- "+id), 0644); err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestStoreListInstalled(t *testing.T) {
	root := t.TempDir()
	installVersion(t, root, "net-probe", "1.0.0")
	installVersion(t, root, "net-probe", "1.2.0")
	installVersion(t, root, "crash-log", "0.3.1")

	s, err := NewStore(root)
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}

	details, err := s.ListInstalled()
	if err != nil {
		t.Fatalf("ListInstalled() error = %v", err)
	}

	if len(details) != 2 {
		t.Fatalf("ListInstalled() returned %d plugins, want 2", len(details))
	}

	// Sorted by id; newest version per id.
	if details[0].ID != "crash-log" || details[0].Version != "0.3.1" {
		t.Errorf("details[0] = %s@%s, want crash-log@0.3.1", details[0].ID, details[0].Version)
	}
	if details[1].ID != "net-probe" || details[1].Version != "1.2.0" {
		t.Errorf("details[1] = %s@%s, want net-probe@1.2.0", details[1].ID, details[1].Version)
	}
}

func TestStoreListVersions(t *testing.T) {
	root := t.TempDir()
	installVersion(t, root, "net-probe", "1.0.0")
	installVersion(t, root, "net-probe", "1.10.0")
	installVersion(t, root, "net-probe", "1.2.0")

	s, _ := NewStore(root)
	versions, err := s.ListVersions("net-probe")
	if err != nil {
		t.Fatalf("ListVersions() error = %v", err)
	}

	// Semver ordering, not lexical: 1.10.0 > 1.2.0 > 1.0.0.
	want := []string{"1.10.0", "1.2.0", "1.0.0"}
	if len(versions) != len(want) {
		t.Fatalf("ListVersions() returned %d versions, want %d", len(versions), len(want))
	}
	for i, v := range versions {
		if v.Version != want[i] {
			t.Errorf("versions[%d] = %s, want %s", i, v.Version, want[i])
		}
	}
}

func TestStoreListVersionsNotFound(t *testing.T) {
	s, _ := NewStore(t.TempDir())
	if _, err := s.ListVersions("nonexistent"); err == nil {
		t.Error("ListVersions() with unknown plugin should return error")
	}
}

func TestStoreRemoveUninstalled(t *testing.T) {
	root := t.TempDir()
	installVersion(t, root, "net-probe", "1.0.0")
	installVersion(t, root, "crash-log", "0.3.1")

	s, _ := NewStore(root)
	if err := s.RemoveUninstalled([]string{"net-probe"}); err != nil {
		t.Fatalf("RemoveUninstalled() error = %v", err)
	}

	details, _ := s.ListInstalled()
	if len(details) != 1 || details[0].ID != "crash-log" {
		t.Errorf("ListInstalled() after remove = %v, want only crash-log", details)
	}
}

func TestStorePruneOldVersions(t *testing.T) {
	root := t.TempDir()
	installVersion(t, root, "net-probe", "1.0.0")
	installVersion(t, root, "net-probe", "1.1.0")
	installVersion(t, root, "net-probe", "1.2.0")

	s, _ := NewStore(root)
	if err := s.PruneOldVersions(2); err != nil {
		t.Fatalf("PruneOldVersions() error = %v", err)
	}

	versions, _ := s.ListVersions("net-probe")
	if len(versions) != 2 {
		t.Fatalf("ListVersions() after prune returned %d, want 2", len(versions))
	}
	if versions[0].Version != "1.2.0" || versions[1].Version != "1.1.0" {
		t.Errorf("kept versions = %s, %s, want 1.2.0, 1.1.0", versions[0].Version, versions[1].Version)
	}
}

func TestStoreSkipsInvalidDirs(t *testing.T) {
	root := t.TempDir()
	installVersion(t, root, "net-probe", "1.0.0")

	// A directory without a manifest must not break listing.
	if err := os.MkdirAll(filepath.Join(root, "junk", "stuff"), 0755); err != nil {
		t.Fatal(err)
	}

	s, _ := NewStore(root)
	details, err := s.ListInstalled()
	if err != nil {
		t.Fatalf("ListInstalled() error = %v", err)
	}
	if len(details) != 1 {
		t.Errorf("ListInstalled() returned %d plugins, want 1", len(details))
	}
}

func TestWatcherSignalsChange(t *testing.T) {
	root := t.TempDir()
	w, err := NewWatcher(root, 50*time.Millisecond)
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	defer w.Close()

	installVersion(t, root, "net-probe", "1.0.0")

	select {
	case <-w.Changes():
	case <-time.After(5 * time.Second):
		t.Fatal("no change signal after install")
	}
}

func TestRefresher(t *testing.T) {
	root := t.TempDir()
	installVersion(t, root, "net-probe", "1.0.0")

	s, _ := NewStore(root)

	var mu sync.Mutex
	var got []*plugin.Details
	done := make(chan struct{})

	r, err := NewRefresher(s, 1, func(details []*plugin.Details) {
		mu.Lock()
		got = details
		mu.Unlock()
		close(done)
	})
	if err != nil {
		t.Fatalf("NewRefresher() error = %v", err)
	}
	defer r.Close()

	if err := r.Refresh(); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("refresh callback never fired")
	}

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 1 || got[0].ID != "net-probe" {
		t.Errorf("refresh listing = %v, want net-probe", got)
	}
}
