package store

import (
	"context"
	"time"
)

// User represents a registered account.
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	Admin        bool
	CreatedAt    time.Time
}

// PresenceStatus is the durable online/offline state of an identity.
type PresenceStatus string

const (
	StatusOnline  PresenceStatus = "online"
	StatusOffline PresenceStatus = "offline"
)

// PresenceRecord holds the last-known network and geographic attributes of an
// identity. One logical record per identity; repeated logins overwrite.
type PresenceRecord struct {
	Identity   string
	IP         string
	City       string
	Region     string
	Country    string
	Org        string
	Status     PresenceStatus
	LastActive time.Time
}

// Message is a persisted chat event. ID is the insertion-order sequence.
type Message struct {
	ID        int64
	Identity  string
	Text      string
	CreatedAt time.Time
}

// UserStore handles account persistence.
type UserStore interface {
	// CreateUser creates a new user with hashed password.
	CreateUser(ctx context.Context, username, passwordHash string) (*User, error)

	// GetUserByUsername retrieves a user by username.
	GetUserByUsername(ctx context.Context, username string) (*User, error)
}

// PresenceStore handles presence persistence.
type PresenceStore interface {
	// UpsertPresence inserts or overwrites the record for record.Identity.
	UpsertPresence(ctx context.Context, record *PresenceRecord) error

	// SetPresenceOffline marks the identity offline and refreshes lastActive.
	SetPresenceOffline(ctx context.Context, identity string, lastActive time.Time) error

	// ListPresence returns all records ordered by identity.
	ListPresence(ctx context.Context) ([]*PresenceRecord, error)

	// PurgePresence deletes all presence records.
	PurgePresence(ctx context.Context) error
}

// MessageStore handles the append-only transcript.
type MessageStore interface {
	// AppendMessage persists a message and sets msg.ID to its sequence.
	AppendMessage(ctx context.Context, msg *Message) error

	// ListMessages returns the full transcript in arrival order.
	ListMessages(ctx context.Context) ([]*Message, error)

	// PurgeMessages deletes the entire transcript.
	PurgeMessages(ctx context.Context) error
}

// Store aggregates all storage interfaces.
type Store interface {
	UserStore
	PresenceStore
	MessageStore

	// Close closes the underlying database connection.
	Close() error
}
