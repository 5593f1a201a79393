package client

import (
	"errors"
	"testing"

	"github.com/periscope-dbg/periscope/internal/plugin"
)

type fakeModule struct {
	details *plugin.Details

	connects    int
	disconnects int
	activates   int
	deactivates int
	messages    []string

	connectErr error
}

func (m *fakeModule) Details() *plugin.Details { return m.details }
func (m *fakeModule) Close() error             { return nil }

func (m *fakeModule) NewInstance() (*plugin.Instance, error) {
	return plugin.NewInstance(m.details, nil, plugin.Hooks{
		Connect: func() error {
			m.connects++
			return m.connectErr
		},
		Disconnect: func() error {
			m.disconnects++
			return nil
		},
		Activate: func() error {
			m.activates++
			return nil
		},
		Deactivate: func() error {
			m.deactivates++
			return nil
		},
		Message: func(method, params string) error {
			m.messages = append(m.messages, method+":"+params)
			return nil
		},
	}), nil
}

func testDefinition(t *testing.T, id string) (*plugin.Definition, *fakeModule) {
	t.Helper()
	mod := &fakeModule{details: &plugin.Details{ID: id, Version: "1.0.0", Kind: plugin.KindClient}}
	def, err := plugin.NewDefinition(mod.details, mod)
	if err != nil {
		t.Fatal(err)
	}
	return def, mod
}

func TestClientStartPluginIfNeeded(t *testing.T) {
	c := New("ShopApp", []string{"net-probe"}, nil)
	def, mod := testDefinition(t, "net-probe")

	if err := c.StartPluginIfNeeded(def); err != nil {
		t.Fatalf("StartPluginIfNeeded() error = %v", err)
	}
	if c.ActivePlugin("net-probe") == nil {
		t.Fatal("no live instance after start")
	}

	// Idempotent: a second start does not reconnect.
	if err := c.StartPluginIfNeeded(def); err != nil {
		t.Fatalf("StartPluginIfNeeded() second call error = %v", err)
	}
	if mod.connects != 1 {
		t.Errorf("connects = %d, want 1", mod.connects)
	}
}

func TestClientStartUnsupportedPlugin(t *testing.T) {
	c := New("ShopApp", nil, nil)
	def, _ := testDefinition(t, "net-probe")

	err := c.StartPluginIfNeeded(def)
	if !errors.Is(err, ErrUnsupportedPlugin) {
		t.Errorf("StartPluginIfNeeded() error = %v, want ErrUnsupportedPlugin", err)
	}
}

func TestClientStopPluginIfNeeded(t *testing.T) {
	c := New("ShopApp", []string{"net-probe"}, nil)
	def, mod := testDefinition(t, "net-probe")

	if err := c.StartPluginIfNeeded(def); err != nil {
		t.Fatalf("StartPluginIfNeeded() error = %v", err)
	}
	if err := c.StopPluginIfNeeded("net-probe"); err != nil {
		t.Fatalf("StopPluginIfNeeded() error = %v", err)
	}
	if c.ActivePlugin("net-probe") != nil {
		t.Error("instance still live after stop")
	}
	if mod.disconnects != 1 {
		t.Errorf("disconnects = %d, want 1", mod.disconnects)
	}

	// Idempotent: stopping again is a no-op.
	if err := c.StopPluginIfNeeded("net-probe"); err != nil {
		t.Fatalf("StopPluginIfNeeded() second call error = %v", err)
	}
	if mod.disconnects != 1 {
		t.Errorf("disconnects after second stop = %d, want 1", mod.disconnects)
	}
}

func TestClientStartAfterStopYieldsFreshInstance(t *testing.T) {
	c := New("ShopApp", []string{"net-probe"}, nil)
	def, _ := testDefinition(t, "net-probe")

	if err := c.StartPluginIfNeeded(def); err != nil {
		t.Fatal(err)
	}
	first := c.ActivePlugin("net-probe")
	if err := c.StopPluginIfNeeded("net-probe"); err != nil {
		t.Fatal(err)
	}
	if err := c.StartPluginIfNeeded(def); err != nil {
		t.Fatal(err)
	}
	second := c.ActivePlugin("net-probe")

	if first == second {
		t.Error("restart reused the destroyed instance")
	}
	if first.State() != plugin.StateDestroyed {
		t.Errorf("old instance state = %v, want destroyed", first.State())
	}
}

func TestClientInitDeinitPlugin(t *testing.T) {
	c := New("ShopApp", []string{"net-probe"}, []string{"net-probe"})
	def, mod := testDefinition(t, "net-probe")

	// No live instance: both are no-ops.
	if err := c.InitPlugin("net-probe"); err != nil {
		t.Fatalf("InitPlugin() error = %v", err)
	}
	if err := c.DeinitPlugin("net-probe"); err != nil {
		t.Fatalf("DeinitPlugin() error = %v", err)
	}
	if mod.activates != 0 || mod.deactivates != 0 {
		t.Fatal("signals fired without a live instance")
	}

	if err := c.StartPluginIfNeeded(def); err != nil {
		t.Fatal(err)
	}
	if err := c.InitPlugin("net-probe"); err != nil {
		t.Fatalf("InitPlugin() error = %v", err)
	}
	if err := c.DeinitPlugin("net-probe"); err != nil {
		t.Fatalf("DeinitPlugin() error = %v", err)
	}
	if mod.activates != 1 || mod.deactivates != 1 {
		t.Errorf("activates = %d, deactivates = %d, want 1 and 1", mod.activates, mod.deactivates)
	}
}

type captureSink struct {
	pushed []string
}

func (s *captureSink) PushMessage(clientID, pluginID, method, params string) {
	s.pushed = append(s.pushed, pluginID+"/"+method)
}

func TestClientOnMessageLiveInstance(t *testing.T) {
	c := New("ShopApp", []string{"net-probe"}, nil)
	def, mod := testDefinition(t, "net-probe")
	if err := c.StartPluginIfNeeded(def); err != nil {
		t.Fatal(err)
	}

	msg := `{"method":"execute","params":{"api":"net-probe","method":"newRequest","params":{"url":"/a"}}}`
	if err := c.OnMessage(msg); err != nil {
		t.Fatalf("OnMessage() error = %v", err)
	}
	if len(mod.messages) != 1 || mod.messages[0] != `newRequest:{"url":"/a"}` {
		t.Errorf("messages = %q", mod.messages)
	}
}

func TestClientOnMessageBackgroundQueued(t *testing.T) {
	sink := &captureSink{}
	c := New("ShopApp", []string{"net-probe"}, []string{"net-probe"}, WithMessageSink(sink))

	msg := `{"method":"execute","params":{"api":"net-probe","method":"newRequest","params":{}}}`
	if err := c.OnMessage(msg); err != nil {
		t.Fatalf("OnMessage() error = %v", err)
	}
	if len(sink.pushed) != 1 || sink.pushed[0] != "net-probe/newRequest" {
		t.Errorf("pushed = %q", sink.pushed)
	}
}

func TestClientOnMessageDropped(t *testing.T) {
	sink := &captureSink{}
	c := New("ShopApp", []string{"net-probe"}, nil, WithMessageSink(sink))

	// Not a background plugin and no live instance: dropped.
	msg := `{"method":"execute","params":{"api":"net-probe","method":"newRequest","params":{}}}`
	if err := c.OnMessage(msg); err != nil {
		t.Fatalf("OnMessage() error = %v", err)
	}
	if len(sink.pushed) != 0 {
		t.Errorf("pushed = %q, want none", sink.pushed)
	}
}

func TestClientOnMessageMalformed(t *testing.T) {
	c := New("ShopApp", nil, nil)

	err := c.OnMessage(`{"method":"execute","params":{}}`)
	if !errors.Is(err, ErrMalformedMessage) {
		t.Errorf("OnMessage() error = %v, want ErrMalformedMessage", err)
	}

	// Non-execute messages are ignored.
	if err := c.OnMessage(`{"method":"ping"}`); err != nil {
		t.Errorf("OnMessage() non-execute error = %v", err)
	}
}

func TestRegistryOrderAndForApp(t *testing.T) {
	r := NewRegistry()
	a := New("ShopApp", nil, nil)
	b := New("MailApp", nil, nil)
	c := New("ShopApp", nil, nil)
	r.Add(a)
	r.Add(b)
	r.Add(c)

	all := r.All()
	if len(all) != 3 || all[0] != a || all[1] != b || all[2] != c {
		t.Fatal("All() does not follow registration order")
	}

	shop := r.ForApp("ShopApp")
	if len(shop) != 2 || shop[0] != a || shop[1] != c {
		t.Fatal("ForApp() wrong clients or order")
	}

	r.Remove(b.ID())
	if r.Len() != 2 {
		t.Errorf("Len() = %d, want 2", r.Len())
	}
	if _, ok := r.Get(b.ID()); ok {
		t.Error("removed client still present")
	}
}
