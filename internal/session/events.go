package session

import "warmpool/internal/protocol"

// NotificationType identifies what happened to an account.
type NotificationType string

const (
	// NotifyQR means a scan code is available for pairing.
	NotifyQR NotificationType = "qr"
	// NotifyReady means the account's session is open.
	NotifyReady NotificationType = "ready"
	// NotifyDisconnected means the account's session ended.
	NotifyDisconnected NotificationType = "disconnected"
	// NotifyInbound carries a message received by the account.
	NotifyInbound NotificationType = "inbound"
)

// Notification is the manager's fan-out event: lifecycle changes and inbound
// messages across every managed account.
type Notification struct {
	Type      NotificationType
	AccountID string
	Code      string            // NotifyQR
	Phone     string            // NotifyReady
	Reason    string            // NotifyDisconnected
	Message   *protocol.Inbound // NotifyInbound
}
