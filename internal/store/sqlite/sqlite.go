package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/vantagechat/vantage-server/internal/store"
)

// SQLiteStore implements store.Store for SQLite.
type SQLiteStore struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	username      TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	admin         BOOLEAN NOT NULL DEFAULT 0,
	created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS presence (
	identity    TEXT PRIMARY KEY,
	ip          TEXT NOT NULL DEFAULT '',
	city        TEXT NOT NULL DEFAULT '',
	region      TEXT NOT NULL DEFAULT '',
	country     TEXT NOT NULL DEFAULT '',
	org         TEXT NOT NULL DEFAULT '',
	status      TEXT NOT NULL,
	last_active DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS messages (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	identity   TEXT NOT NULL,
	body       TEXT NOT NULL,
	created_at DATETIME NOT NULL
);
`

// New creates a new SQLite store and applies the schema.
// dbPath is the path to the SQLite database file.
func New(dbPath string) (*SQLiteStore, error) {
	return NewWithSetup(dbPath, func(db *sql.DB) error {
		_, err := db.Exec(schema)
		return err
	})
}

// NewWithSetup creates a new SQLite store and runs a setup function.
// Useful for tests to apply a custom schema.
func NewWithSetup(dbPath string, setup func(*sql.DB) error) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// SQLite works best with a single connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if setup != nil {
		if err := setup(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("setup: %w", err)
		}
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// SeedAdmin creates the default admin account if no user with that name
// exists. Returns true if the account was created.
func (s *SQLiteStore) SeedAdmin(ctx context.Context, username, passwordHash string) (bool, error) {
	result, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO users (username, password_hash, admin)
		VALUES (?, ?, 1)
	`, username, passwordHash)
	if err != nil {
		return false, fmt.Errorf("seed admin: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("get rows affected: %w", err)
	}
	return rows > 0, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ==== UserStore implementation ====

// CreateUser creates a new user with hashed password.
func (s *SQLiteStore) CreateUser(ctx context.Context, username, passwordHash string) (*store.User, error) {
	query := `
		INSERT INTO users (username, password_hash, admin)
		VALUES (?, ?, 0)
	`
	if _, err := s.db.ExecContext(ctx, query, username, passwordHash); err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}

	return s.GetUserByUsername(ctx, username)
}

// GetUserByUsername retrieves a user by username.
func (s *SQLiteStore) GetUserByUsername(ctx context.Context, username string) (*store.User, error) {
	query := `
		SELECT id, username, password_hash, admin, created_at
		FROM users
		WHERE username = ?
	`
	var user store.User
	err := s.db.QueryRowContext(ctx, query, username).Scan(
		&user.ID,
		&user.Username,
		&user.PasswordHash,
		&user.Admin,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user not found: %w", err)
		}
		return nil, fmt.Errorf("query user: %w", err)
	}

	return &user, nil
}

// ==== PresenceStore implementation ====

// UpsertPresence inserts or overwrites the record for record.Identity.
func (s *SQLiteStore) UpsertPresence(ctx context.Context, record *store.PresenceRecord) error {
	query := `
		INSERT INTO presence (identity, ip, city, region, country, org, status, last_active)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(identity) DO UPDATE SET
			ip = excluded.ip,
			city = excluded.city,
			region = excluded.region,
			country = excluded.country,
			org = excluded.org,
			status = excluded.status,
			last_active = excluded.last_active
	`
	_, err := s.db.ExecContext(ctx, query,
		record.Identity,
		record.IP,
		record.City,
		record.Region,
		record.Country,
		record.Org,
		string(record.Status),
		record.LastActive,
	)
	if err != nil {
		return fmt.Errorf("upsert presence: %w", err)
	}
	return nil
}

// SetPresenceOffline marks the identity offline and refreshes lastActive.
func (s *SQLiteStore) SetPresenceOffline(ctx context.Context, identity string, lastActive time.Time) error {
	query := `
		UPDATE presence
		SET status = ?, last_active = ?
		WHERE identity = ?
	`
	_, err := s.db.ExecContext(ctx, query, string(store.StatusOffline), lastActive, identity)
	if err != nil {
		return fmt.Errorf("set presence offline: %w", err)
	}
	return nil
}

// ListPresence returns all records ordered by identity.
func (s *SQLiteStore) ListPresence(ctx context.Context) ([]*store.PresenceRecord, error) {
	query := `
		SELECT identity, ip, city, region, country, org, status, last_active
		FROM presence
		ORDER BY identity ASC
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query presence: %w", err)
	}
	defer rows.Close()

	var records []*store.PresenceRecord
	for rows.Next() {
		var rec store.PresenceRecord
		var status string
		if err := rows.Scan(
			&rec.Identity,
			&rec.IP,
			&rec.City,
			&rec.Region,
			&rec.Country,
			&rec.Org,
			&status,
			&rec.LastActive,
		); err != nil {
			return nil, fmt.Errorf("scan presence: %w", err)
		}
		rec.Status = store.PresenceStatus(status)
		records = append(records, &rec)
	}

	return records, rows.Err()
}

// PurgePresence deletes all presence records.
func (s *SQLiteStore) PurgePresence(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM presence`); err != nil {
		return fmt.Errorf("purge presence: %w", err)
	}
	return nil
}

// ==== MessageStore implementation ====

// AppendMessage persists a message and sets msg.ID to its sequence.
func (s *SQLiteStore) AppendMessage(ctx context.Context, msg *store.Message) error {
	query := `
		INSERT INTO messages (identity, body, created_at)
		VALUES (?, ?, ?)
	`
	result, err := s.db.ExecContext(ctx, query, msg.Identity, msg.Text, msg.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get last insert id: %w", err)
	}

	msg.ID = id
	return nil
}

// ListMessages returns the full transcript in arrival order.
func (s *SQLiteStore) ListMessages(ctx context.Context) ([]*store.Message, error) {
	query := `
		SELECT id, identity, body, created_at
		FROM messages
		ORDER BY id ASC
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	var messages []*store.Message
	for rows.Next() {
		var msg store.Message
		if err := rows.Scan(&msg.ID, &msg.Identity, &msg.Text, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		messages = append(messages, &msg)
	}

	return messages, rows.Err()
}

// PurgeMessages deletes the entire transcript.
func (s *SQLiteStore) PurgeMessages(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM messages`); err != nil {
		return fmt.Errorf("purge messages: %w", err)
	}
	return nil
}

// Ensure SQLiteStore implements store.Store
var _ store.Store = (*SQLiteStore)(nil)
