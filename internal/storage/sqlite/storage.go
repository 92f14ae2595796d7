// ABOUTME: Unified Storage layer that wraps all SQLite stores
// ABOUTME: Persists analysis sessions, their rows and question answering history
package sqlite

import (
	"fmt"
	"sync"

	"github.com/harper/topicmap/internal/models"
)

// Storage manages all persistent topicmap data using SQLite
type Storage struct {
	db       *DB
	sessions *SessionStore
	rows     *RowStore
	turns    *TurnStore
	mu       sync.RWMutex
}

// NewStorage initializes storage at the default XDG location
func NewStorage() (*Storage, error) {
	return NewStorageWithPath(DefaultDBPath())
}

// NewStorageWithPath initializes storage with a custom database path
func NewStorageWithPath(dbPath string) (*Storage, error) {
	db, err := Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return newStorage(db), nil
}

// NewStorageInMemory creates an in-memory storage (for testing)
func NewStorageInMemory() (*Storage, error) {
	db, err := OpenInMemory()
	if err != nil {
		return nil, fmt.Errorf("failed to open in-memory database: %w", err)
	}
	return newStorage(db), nil
}

func newStorage(db *DB) *Storage {
	return &Storage{
		db:       db,
		sessions: NewSessionStore(db),
		rows:     NewRowStore(db),
		turns:    NewTurnStore(db),
	}
}

// Close closes the database connection
func (s *Storage) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Path returns the database file path
func (s *Storage) Path() string {
	return s.db.Path()
}

// SaveSession stores a session with its topics and rows
func (s *Storage) SaveSession(session *models.Session) error {
	if session == nil || session.SessionID == "" {
		return fmt.Errorf("session id cannot be empty")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions.Save(session)
}

// GetSession loads a session with topics and rows
func (s *Storage) GetSession(sessionID string) (*models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sessions.Get(sessionID)
}

// ListSessions returns session summaries, newest first
func (s *Storage) ListSessions() ([]SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sessions.List()
}

// DeleteSession removes a session and everything it owns
func (s *Storage) DeleteSession(sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions.Delete(sessionID)
}

// Rows returns a session's rows matching filter, in input order
func (s *Storage) Rows(sessionID string, filter RowFilter) ([]models.AssignedRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, err := s.sessionExists(sessionID); err != nil {
		return nil, err
	}
	return s.rows.ListBySession(sessionID, filter)
}

// AppendTurn records a question answering turn for a session
func (s *Storage) AppendTurn(sessionID string, turn *models.Turn) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.sessionExists(sessionID); err != nil {
		return err
	}
	return s.turns.Append(sessionID, turn)
}

// RecentTurns returns up to n latest turns, oldest first
func (s *Storage) RecentTurns(sessionID string, n int) ([]models.Turn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.turns.Recent(sessionID, n)
}

// Turns returns the full question answering history of a session
func (s *Storage) Turns(sessionID string) ([]models.Turn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.turns.GetBySession(sessionID)
}

// ClearTurns deletes the question answering history of a session
func (s *Storage) ClearTurns(sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.turns.DeleteBySession(sessionID)
}

func (s *Storage) sessionExists(sessionID string) (bool, error) {
	var n int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM sessions WHERE id = ?", sessionID).Scan(&n); err != nil {
		return false, err
	}
	if n == 0 {
		return false, ErrSessionNotFound
	}
	return true, nil
}
