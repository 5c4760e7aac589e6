package core

import "github.com/vantagechat/vantage-server/internal/store"

// EventKind is a notification the core emits to connections.
type EventKind int

const (
	// EventChat carries one durably appended chat message.
	EventChat EventKind = iota
	// EventPresenceSnapshot carries the full presence record set. Sent to
	// privileged connections only.
	EventPresenceSnapshot
	// EventError reports a failure scoped to the receiving connection.
	EventError
)

// Event is sent to connections to describe what happened in the system.
type Event struct {
	Kind    EventKind
	Message store.Message           // EventChat
	Records []*store.PresenceRecord // EventPresenceSnapshot
	Error   *CoreError              // EventError
}
