package device

import (
	"errors"
	"testing"

	"github.com/periscope-dbg/periscope/internal/plugin"
)

type fakeModule struct {
	details *plugin.Details

	connects    int
	disconnects int
}

func (m *fakeModule) Details() *plugin.Details { return m.details }
func (m *fakeModule) Close() error             { return nil }

func (m *fakeModule) NewInstance() (*plugin.Instance, error) {
	return plugin.NewInstance(m.details, nil, plugin.Hooks{
		Connect: func() error {
			m.connects++
			return nil
		},
		Disconnect: func() error {
			m.disconnects++
			return nil
		},
	}), nil
}

func testDefinition(t *testing.T, id string) (*plugin.Definition, *fakeModule) {
	t.Helper()
	mod := &fakeModule{details: &plugin.Details{ID: id, Version: "1.0.0", Kind: plugin.KindDevice}}
	def, err := plugin.NewDefinition(mod.details, mod)
	if err != nil {
		t.Fatal(err)
	}
	return def, mod
}

func TestDeviceLoadDevicePlugin(t *testing.T) {
	d := New("Pixel 9", []string{"battery-stats"})
	def, mod := testDefinition(t, "battery-stats")

	if err := d.LoadDevicePlugin(def); err != nil {
		t.Fatalf("LoadDevicePlugin() error = %v", err)
	}
	if d.ActivePlugin("battery-stats") == nil {
		t.Fatal("no live instance after load")
	}

	// Idempotent.
	if err := d.LoadDevicePlugin(def); err != nil {
		t.Fatalf("LoadDevicePlugin() second call error = %v", err)
	}
	if mod.connects != 1 {
		t.Errorf("connects = %d, want 1", mod.connects)
	}
}

func TestDeviceLoadUnsupportedPlugin(t *testing.T) {
	d := New("Pixel 9", nil)
	def, _ := testDefinition(t, "battery-stats")

	err := d.LoadDevicePlugin(def)
	if !errors.Is(err, ErrUnsupportedPlugin) {
		t.Errorf("LoadDevicePlugin() error = %v, want ErrUnsupportedPlugin", err)
	}
}

func TestDeviceUnloadDevicePlugin(t *testing.T) {
	d := New("Pixel 9", []string{"battery-stats"})
	def, mod := testDefinition(t, "battery-stats")

	if err := d.LoadDevicePlugin(def); err != nil {
		t.Fatal(err)
	}
	if err := d.UnloadDevicePlugin("battery-stats"); err != nil {
		t.Fatalf("UnloadDevicePlugin() error = %v", err)
	}
	if d.ActivePlugin("battery-stats") != nil {
		t.Error("instance still live after unload")
	}
	if mod.disconnects != 1 {
		t.Errorf("disconnects = %d, want 1", mod.disconnects)
	}

	// Idempotent.
	if err := d.UnloadDevicePlugin("battery-stats"); err != nil {
		t.Fatalf("UnloadDevicePlugin() second call error = %v", err)
	}
}

func TestRegistryOrder(t *testing.T) {
	r := NewRegistry()
	a := New("Pixel 9", nil)
	b := New("iPhone 16", nil)
	r.Add(a)
	r.Add(b)

	all := r.All()
	if len(all) != 2 || all[0] != a || all[1] != b {
		t.Fatal("All() does not follow registration order")
	}

	r.Remove(a.ID())
	if r.Len() != 1 {
		t.Errorf("Len() = %d, want 1", r.Len())
	}
}
