package sessions

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Store manages conversation sessions in sqlite
type Store struct {
	db *sql.DB
}

// Session represents a conversation session
type Session struct {
	Key          string    `json:"key"`
	UserID       string    `json:"user_id"`
	ChannelID    string    `json:"channel_id"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	MessageCount int       `json:"message_count"`
}

// Message represents a single message in a session
type Message struct {
	ID         string    `json:"id"`
	SessionKey string    `json:"session_key"`
	Role       string    `json:"role"` // "user", "assistant", "system"
	Content    string    `json:"content"`
	Timestamp  time.Time `json:"timestamp"`
}

// NewStore opens (or creates) the session database
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createTables(); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return s, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createTables() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			key TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			channel_id TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			message_count INTEGER DEFAULT 0
		);`,
		`CREATE TABLE IF NOT EXISTS messages (
			id TEXT PRIMARY KEY,
			session_key TEXT NOT NULL,
			role TEXT NOT NULL,
			content TEXT NOT NULL,
			timestamp DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (session_key) REFERENCES sessions (key)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_user_channel ON sessions (user_id, channel_id);`,
		`CREATE INDEX IF NOT EXISTS idx_messages_session_key ON messages (session_key);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// GetOrCreateSession retrieves the latest session for a user/channel pair
// or creates a new one
func (s *Store) GetOrCreateSession(userID, channelID string) (*Session, error) {
	session, err := s.GetLatestSession(userID, channelID)
	if err == nil {
		return session, nil
	}

	sessionKey := fmt.Sprintf("%s_%s_%s", channelID, userID, uuid.New().String()[:8])
	now := time.Now().UTC()
	session = &Session{
		Key:       sessionKey,
		UserID:    userID,
		ChannelID: channelID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err = s.db.Exec(`
		INSERT INTO sessions (key, user_id, channel_id, created_at, updated_at, message_count)
		VALUES (?, ?, ?, ?, ?, 0)
	`, session.Key, session.UserID, session.ChannelID, session.CreatedAt, session.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return session, nil
}

// GetLatestSession returns the most recently updated session for a user/channel pair
func (s *Store) GetLatestSession(userID, channelID string) (*Session, error) {
	var session Session
	row := s.db.QueryRow(`
		SELECT key, user_id, channel_id, created_at, updated_at, message_count
		FROM sessions WHERE user_id = ? AND channel_id = ?
		ORDER BY updated_at DESC LIMIT 1
	`, userID, channelID)

	err := row.Scan(&session.Key, &session.UserID, &session.ChannelID,
		&session.CreatedAt, &session.UpdatedAt, &session.MessageCount)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}
	return &session, nil
}

// GetSession retrieves a session by key
func (s *Store) GetSession(key string) (*Session, error) {
	var session Session
	row := s.db.QueryRow(`
		SELECT key, user_id, channel_id, created_at, updated_at, message_count
		FROM sessions WHERE key = ?
	`, key)

	err := row.Scan(&session.Key, &session.UserID, &session.ChannelID,
		&session.CreatedAt, &session.UpdatedAt, &session.MessageCount)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}
	return &session, nil
}

// AddMessage appends a message to a session's history
func (s *Store) AddMessage(sessionKey, role, content string) error {
	id := uuid.New().String()
	now := time.Now().UTC()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`
		INSERT INTO messages (id, session_key, role, content, timestamp)
		VALUES (?, ?, ?, ?, ?)
	`, id, sessionKey, role, content, now); err != nil {
		return fmt.Errorf("failed to insert message: %w", err)
	}

	if _, err := tx.Exec(`
		UPDATE sessions SET message_count = message_count + 1, updated_at = ?
		WHERE key = ?
	`, now, sessionKey); err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}

	return tx.Commit()
}

// GetRecentMessages returns up to limit messages for a session, oldest first
func (s *Store) GetRecentMessages(sessionKey string, limit int) ([]Message, error) {
	rows, err := s.db.Query(`
		SELECT id, session_key, role, content, timestamp
		FROM (
			SELECT id, session_key, role, content, timestamp
			FROM messages WHERE session_key = ?
			ORDER BY timestamp DESC LIMIT ?
		) ORDER BY timestamp ASC
	`, sessionKey, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	var messages []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.SessionKey, &m.Role, &m.Content, &m.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

// ClearSession removes all messages from a session and resets its count
func (s *Store) ClearSession(sessionKey string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM messages WHERE session_key = ?`, sessionKey); err != nil {
		return fmt.Errorf("failed to delete messages: %w", err)
	}
	if _, err := tx.Exec(`
		UPDATE sessions SET message_count = 0, updated_at = ? WHERE key = ?
	`, time.Now().UTC(), sessionKey); err != nil {
		return fmt.Errorf("failed to reset session: %w", err)
	}

	return tx.Commit()
}
