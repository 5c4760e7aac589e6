package core

import (
	"sync"

	"github.com/google/uuid"
)

// Role classifies a connection within the broadcast domain. Role is a
// property of the connection, never of the identity behind it.
type Role int

const (
	// RoleUnclassified is the state of every connection at accept time.
	RoleUnclassified Role = iota
	// RoleParticipant receives chat broadcasts only.
	RoleParticipant
	// RolePrivileged additionally receives presence snapshots.
	RolePrivileged
)

func (r Role) String() string {
	switch r {
	case RoleParticipant:
		return "participant"
	case RolePrivileged:
		return "privileged"
	default:
		return "unclassified"
	}
}

// Client is one live connection as seen by the core. Identity and Role are
// owned by the hub goroutine after registration.
type Client struct {
	ID       string
	Identity string // empty until classified
	Role     Role
	Commands chan *Command
	Events   chan *Event

	done      chan struct{}
	closeOnce sync.Once
}

// NewClient constructs an unclassified client with a fresh connection id.
func NewClient() *Client {
	return &Client{
		ID:       uuid.NewString(),
		Role:     RoleUnclassified,
		Commands: make(chan *Command, 16),
		Events:   make(chan *Event, 16),
		done:     make(chan struct{}),
	}
}

// Done is closed when the hub has unregistered the client.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

func (c *Client) close() {
	c.closeOnce.Do(func() {
		close(c.done)
	})
}
