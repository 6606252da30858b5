// Package state provides the finite state machine for a warming account's
// connection lifecycle.
package state

// State represents a connection state in the account lifecycle.
type State string

const (
	StateDisconnected State = "disconnected"
	StateConnecting   State = "connecting"
	StateAwaitingScan State = "awaiting_scan"
	StateConnected    State = "connected"
	StateBlocked      State = "blocked"
)

// String returns the string representation of the state.
func (s State) String() string {
	return string(s)
}

// IsLive returns true if a protocol session exists (or is being negotiated)
// for an account in this state.
func (s State) IsLive() bool {
	switch s {
	case StateConnecting, StateAwaitingScan, StateConnected:
		return true
	default:
		return false
	}
}

// IsTerminal returns true if the state requires explicit operator action
// before the account can connect again.
func (s State) IsTerminal() bool {
	return s == StateBlocked
}
