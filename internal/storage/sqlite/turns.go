// ABOUTME: Question answering turn storage for SQLite
// ABOUTME: Appends turns to a session and reads back the most recent history in order
package sqlite

import (
	"github.com/harper/topicmap/internal/models"
)

// TurnStore handles turn persistence
type TurnStore struct {
	db *DB
}

// NewTurnStore creates a new TurnStore
func NewTurnStore(db *DB) *TurnStore {
	return &TurnStore{db: db}
}

// Append saves a turn for a session
func (s *TurnStore) Append(sessionID string, turn *models.Turn) error {
	_, err := s.db.Exec(`
		INSERT INTO qa_turns (id, session_id, role, content, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			content = excluded.content
	`, turn.TurnID, sessionID, string(turn.Role), turn.Content, turn.Timestamp)
	return err
}

// GetBySession retrieves all turns for a session, oldest first
func (s *TurnStore) GetBySession(sessionID string) ([]models.Turn, error) {
	return s.query(`
		SELECT id, role, content, created_at
		FROM qa_turns
		WHERE session_id = ?
		ORDER BY created_at ASC, rowid ASC
	`, sessionID)
}

// Recent returns up to n of the latest turns for a session, oldest first
func (s *TurnStore) Recent(sessionID string, n int) ([]models.Turn, error) {
	if n <= 0 {
		return []models.Turn{}, nil
	}
	turns, err := s.query(`
		SELECT id, role, content, created_at
		FROM qa_turns
		WHERE session_id = ?
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?
	`, sessionID, n)
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(turns)-1; i < j; i, j = i+1, j-1 {
		turns[i], turns[j] = turns[j], turns[i]
	}
	return turns, nil
}

func (s *TurnStore) query(query string, args ...interface{}) ([]models.Turn, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	turns := []models.Turn{}
	for rows.Next() {
		var (
			turn models.Turn
			role string
		)
		if err := rows.Scan(&turn.TurnID, &role, &turn.Content, &turn.Timestamp); err != nil {
			return nil, err
		}
		turn.Role = models.Role(role)
		turns = append(turns, turn)
	}
	return turns, rows.Err()
}

// DeleteBySession removes all turns of a session
func (s *TurnStore) DeleteBySession(sessionID string) error {
	_, err := s.db.Exec("DELETE FROM qa_turns WHERE session_id = ?", sessionID)
	return err
}
