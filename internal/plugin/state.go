package plugin

// InstanceState represents the lifecycle state of a plugin instance.
type InstanceState int

// Instance states.
const (
	// StateCreated - Instance exists but has never connected.
	StateCreated InstanceState = iota

	// StateConnected - Instance is connected and receiving events.
	StateConnected

	// StateDisconnected - Instance was connected and has disconnected.
	StateDisconnected

	// StateDestroyed - Instance is destroyed and must not be reused.
	StateDestroyed
)

// String returns a string representation of the state.
func (s InstanceState) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateConnected:
		return "connected"
	case StateDisconnected:
		return "disconnected"
	case StateDestroyed:
		return "destroyed"
	default:
		return "unknown"
	}
}

// Live returns true if the instance can still be connected.
func (s InstanceState) Live() bool {
	return s != StateDestroyed
}
