package lifecycle

import "github.com/periscope-dbg/periscope/internal/store"

// deeplinkState tracks deep-link delivery for the current selection. The
// dedup scope is "continuously selected": the state resets whenever the
// selected (client, plugin) pair changes or the selection clears, so
// returning to a plugin redelivers even an identical payload.
type deeplinkState struct {
	clientID  string
	pluginID  string
	payload   string
	delivered bool
}

// deliverDeepLink hands the selection's deep-link payload to the selected
// plugin instance. Within one continuous selection an identical payload is
// delivered at most once; a changed payload is delivered again. Unrelated
// store updates do not redeliver.
func (c *Controller) deliverDeepLink(snap store.State) {
	sel := snap.Selection

	if sel.PluginID == "" || sel.ClientID == "" {
		c.deeplink = deeplinkState{}
		return
	}
	if sel.ClientID != c.deeplink.clientID || sel.PluginID != c.deeplink.pluginID {
		c.deeplink = deeplinkState{clientID: sel.ClientID, pluginID: sel.PluginID}
	}

	if sel.DeepLink == "" {
		return
	}
	if c.deeplink.delivered && c.deeplink.payload == sel.DeepLink {
		return
	}

	var target ClientConn
	for _, cl := range c.conns.Clients() {
		if cl.ID() == sel.ClientID {
			target = cl
			break
		}
	}
	if target == nil {
		return
	}
	inst := target.ActivePlugin(sel.PluginID)
	if inst == nil {
		return
	}

	if err := inst.DeepLink(sel.DeepLink); err != nil {
		c.logger.Error("deep link delivery to plugin %s failed: %v", sel.PluginID, err)
	}
	c.deeplink.payload = sel.DeepLink
	c.deeplink.delivered = true
}
