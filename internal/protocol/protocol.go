// Package protocol defines the boundary to the messaging wire protocol. The
// orchestrator treats the protocol client as a black box exposing connect,
// send, and event primitives; the whatsmeow implementation lives alongside.
package protocol

import (
	"context"
	"net/url"
	"time"
)

// EventKind identifies the session events the orchestrator reacts to.
type EventKind int

const (
	// EventScanCode carries a pairing code the operator must scan.
	EventScanCode EventKind = iota
	// EventSessionOpen fires once the session is authenticated and live.
	EventSessionOpen
	// EventSessionClosed fires when the session ends, for any reason.
	EventSessionClosed
	// EventInbound carries a message received by the account.
	EventInbound
)

// String returns the string representation of the event kind.
func (k EventKind) String() string {
	switch k {
	case EventScanCode:
		return "scan_code"
	case EventSessionOpen:
		return "session_open"
	case EventSessionClosed:
		return "session_closed"
	case EventInbound:
		return "inbound"
	default:
		return "unknown"
	}
}

// Event is a session event pushed by the protocol client.
type Event struct {
	Kind EventKind

	// EventScanCode
	Code string

	// EventSessionOpen
	Phone string

	// EventSessionClosed
	Reason string
	Logout bool
	Banned bool

	// EventInbound
	Message *Inbound
}

// Inbound is a normalized received message.
type Inbound struct {
	From      string
	Body      string
	IsGroup   bool
	HasMedia  bool
	Timestamp time.Time
}

// PresenceState is a chat presence indicator.
type PresenceState string

const (
	PresenceComposing PresenceState = "composing"
	PresencePaused    PresenceState = "paused"
)

// Session is one live, authenticated protocol connection.
type Session interface {
	SendText(ctx context.Context, contact, text string) error
	SendMedia(ctx context.Context, contact string, data []byte, caption string, asSticker bool) error
	SendPresence(ctx context.Context, contact string, state PresenceState) error
	// SelfContact returns the account's own resolved contact identifier,
	// or empty until the session is open.
	SelfContact() string
	// End terminates the session. It does not delete the credential.
	End()
}

// Factory produces sessions bound to a credential and an egress path.
// A nil egress means direct connection. Events flow to handler from the
// moment Open returns until End is called.
type Factory interface {
	Open(ctx context.Context, credentialPath string, egress *url.URL, handler func(Event)) (Session, error)
}
