package session

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"calassist/internal/logging"
)

// Store persists conversations and scheduled-meeting records in SQLite,
// keyed by an opaque session ID supplied by the web layer.
type Store struct {
	db *sql.DB
}

// Meeting is a tracked record of a meeting scheduled through the assistant.
type Meeting struct {
	ID               string    `json:"id"`
	ParticipantEmail string    `json:"participant_email"`
	EventName        string    `json:"event_name"`
	EventDate        string    `json:"event_date"`
	EventTime        string    `json:"event_time"`
	MeetingLink      string    `json:"meeting_link,omitempty"`
	CalendarEventID  string    `json:"calendar_event_id,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

// OpenStore opens (or creates) the session database under statePath.
func OpenStore(statePath string) (*Store, error) {
	dbPath := filepath.Join(statePath, "sessions.db")

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}

	logging.Info("session", "Store opened at %s", dbPath)
	return s, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS conversations (
		session_id TEXT PRIMARY KEY,
		state      TEXT NOT NULL,
		updated_at TIMESTAMP NOT NULL
	);
	CREATE TABLE IF NOT EXISTS meetings (
		id                TEXT PRIMARY KEY,
		participant_email TEXT NOT NULL,
		event_name        TEXT NOT NULL,
		event_date        TEXT NOT NULL,
		event_time        TEXT NOT NULL,
		meeting_link      TEXT,
		calendar_event_id TEXT,
		created_at        TIMESTAMP NOT NULL
	);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Get loads the conversation for a session ID, returning a fresh empty
// conversation if none is stored.
func (s *Store) Get(sessionID string) (*Conversation, error) {
	var state string
	err := s.db.QueryRow(
		`SELECT state FROM conversations WHERE session_id = ?`, sessionID,
	).Scan(&state)
	if err == sql.ErrNoRows {
		return NewConversation(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load conversation: %w", err)
	}

	var conv Conversation
	if err := json.Unmarshal([]byte(state), &conv); err != nil {
		// Corrupt state: start over rather than wedging the session
		logging.Warn("session", "discarding unreadable state for %s: %v", sessionID, err)
		return NewConversation(), nil
	}
	if conv.Fields == nil {
		conv.Fields = FieldRecord{}
	}
	return &conv, nil
}

// Put writes the conversation for a session ID.
func (s *Store) Put(sessionID string, conv *Conversation) error {
	state, err := json.Marshal(conv)
	if err != nil {
		return fmt.Errorf("failed to marshal conversation: %w", err)
	}

	_, err = s.db.Exec(
		`INSERT INTO conversations (session_id, state, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(session_id) DO UPDATE SET state = excluded.state, updated_at = excluded.updated_at`,
		sessionID, string(state), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to save conversation: %w", err)
	}
	return nil
}

// Delete removes the conversation for a session ID.
func (s *Store) Delete(sessionID string) error {
	if _, err := s.db.Exec(`DELETE FROM conversations WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("failed to delete conversation: %w", err)
	}
	return nil
}

// TrackMeeting records a successfully scheduled meeting.
func (s *Store) TrackMeeting(m Meeting) error {
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.Exec(
		`INSERT INTO meetings (id, participant_email, event_name, event_date, event_time, meeting_link, calendar_event_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.ParticipantEmail, m.EventName, m.EventDate, m.EventTime, m.MeetingLink, m.CalendarEventID, m.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to track meeting: %w", err)
	}
	return nil
}

// Meetings returns all tracked meetings, newest first.
func (s *Store) Meetings() ([]Meeting, error) {
	rows, err := s.db.Query(
		`SELECT id, participant_email, event_name, event_date, event_time,
		        COALESCE(meeting_link, ''), COALESCE(calendar_event_id, ''), created_at
		 FROM meetings ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list meetings: %w", err)
	}
	defer rows.Close()

	var meetings []Meeting
	for rows.Next() {
		var m Meeting
		if err := rows.Scan(&m.ID, &m.ParticipantEmail, &m.EventName, &m.EventDate,
			&m.EventTime, &m.MeetingLink, &m.CalendarEventID, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan meeting: %w", err)
		}
		meetings = append(meetings, m)
	}
	return meetings, rows.Err()
}

// UntrackEvent removes tracked meetings tied to a calendar event (used after
// a delete so the dashboard stays in sync).
func (s *Store) UntrackEvent(calendarEventID string) error {
	if calendarEventID == "" {
		return nil
	}
	if _, err := s.db.Exec(`DELETE FROM meetings WHERE calendar_event_id = ?`, calendarEventID); err != nil {
		return fmt.Errorf("failed to untrack meeting: %w", err)
	}
	return nil
}
