package proto

// Frame kinds on the streaming channel.
const (
	// Inbound
	KindClassifyParticipant = "classify-participant"
	KindClassifyPrivileged  = "classify-privileged"
	KindChat                = "chat"

	// Outbound
	KindPresenceSnapshot = "presence-snapshot"
	KindError            = "error"
)

// Inbound is a frame received from the client. Fields are populated
// depending on Kind; classify frames must carry a previously-issued session
// token.
type Inbound struct {
	Kind     string `json:"kind"`
	Identity string `json:"identity,omitempty"`
	Token    string `json:"token,omitempty"`
	Text     string `json:"text,omitempty"`
}

// ChatFrame is broadcast to all connections for each chat event.
type ChatFrame struct {
	Kind     string `json:"kind"`
	Identity string `json:"identity"`
	Text     string `json:"text"`
	TS       int64  `json:"ts"`
}

// PresenceEntry is one record inside a presence snapshot.
type PresenceEntry struct {
	Identity   string `json:"identity"`
	Status     string `json:"status"`
	LastActive int64  `json:"lastActive"`
	IP         string `json:"ip,omitempty"`
	City       string `json:"city,omitempty"`
	Region     string `json:"region,omitempty"`
	Country    string `json:"country,omitempty"`
	Org        string `json:"org,omitempty"`
}

// SnapshotFrame is sent to privileged connections after every classification
// and disconnect.
type SnapshotFrame struct {
	Kind    string          `json:"kind"`
	Records []PresenceEntry `json:"records"`
}

// ErrorFrame reports a connection-scoped failure.
type ErrorFrame struct {
	Kind string `json:"kind"`
	Code string `json:"code"`
	Msg  string `json:"msg"`
}
