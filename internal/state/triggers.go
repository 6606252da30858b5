package state

// Trigger represents an event that causes a state transition.
type Trigger string

const (
	TriggerOpen        Trigger = "open"
	TriggerScanCode    Trigger = "scan_code"
	TriggerSessionOpen Trigger = "session_open"
	TriggerDropped     Trigger = "dropped"
	TriggerLogout      Trigger = "logout"
	TriggerClose       Trigger = "close"
	TriggerBlocked     Trigger = "blocked"
)

// String returns the string representation of the trigger.
func (t Trigger) String() string {
	return string(t)
}
