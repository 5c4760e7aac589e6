package core

import "github.com/vantagechat/vantage-server/internal/geo"

// CommandKind describes what the connection wants to do. Token verification
// happens at the transport layer; commands reaching the hub are trusted.
type CommandKind int

const (
	// CommandClassifyParticipant tags the connection with an identity and
	// the participant role.
	CommandClassifyParticipant CommandKind = iota
	// CommandClassifyPrivileged tags the connection as a privileged
	// observer. No identity required.
	CommandClassifyPrivileged
	// CommandChat appends a chat event and broadcasts it.
	CommandChat
)

// Command represents an action requested by a connection.
type Command struct {
	Kind     CommandKind
	Identity string       // classify-participant
	Location geo.Location // classify-participant
	Text     string       // chat
}
