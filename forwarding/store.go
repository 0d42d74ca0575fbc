package forwarding

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// EventStore persists delivered events to SQLite so a trace session can be
// inspected after the fact.
type EventStore struct {
	db *sql.DB
	mu sync.Mutex
}

// NewEventStore opens (or creates) the event database at path.
func NewEventStore(path string) (*EventStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening event store: %w", err)
	}

	// Set busy timeout for concurrent access
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		tag INTEGER NOT NULL,
		at TEXT NOT NULL,
		message TEXT NOT NULL
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating events table: %w", err)
	}

	return &EventStore{db: db}, nil
}

// Append records one delivered event.
func (s *EventStore) Append(tag uint64, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec("INSERT INTO events (tag, at, message) VALUES (?, ?, ?)",
		int64(tag), time.Now().UTC().Format(time.RFC3339Nano), message)
	if err != nil {
		return fmt.Errorf("appending event: %w", err)
	}
	return nil
}

// Events returns every stored message for an event tag, oldest first.
func (s *EventStore) Events(tag uint64) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query("SELECT message FROM events WHERE tag = ? ORDER BY id", int64(tag))
	if err != nil {
		return nil, fmt.Errorf("querying events: %w", err)
	}
	defer rows.Close()

	var messages []string
	for rows.Next() {
		var msg string
		if err := rows.Scan(&msg); err != nil {
			return nil, fmt.Errorf("scanning event: %w", err)
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

// Close closes the underlying database.
func (s *EventStore) Close() error {
	return s.db.Close()
}
