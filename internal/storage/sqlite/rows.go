// ABOUTME: Row storage operations for SQLite
// ABOUTME: Lists a session's assigned rows in input order with optional exact-match filters
package sqlite

import (
	"strings"

	"github.com/harper/topicmap/internal/models"
)

// RowFilter restricts rows by exact field values; empty fields match everything
type RowFilter struct {
	Topic    string
	SubTopic string
	Category string
	Region   string
}

// RowStore handles row queries
type RowStore struct {
	db *DB
}

// NewRowStore creates a new RowStore
func NewRowStore(db *DB) *RowStore {
	return &RowStore{db: db}
}

// ListBySession returns the rows of a session in position order
func (s *RowStore) ListBySession(sessionID string, filter RowFilter) ([]models.AssignedRecord, error) {
	clauses := []string{"session_id = ?"}
	args := []interface{}{sessionID}
	for _, c := range []struct {
		column string
		value  string
	}{
		{"topic", filter.Topic},
		{"sub_topic", filter.SubTopic},
		{"category", filter.Category},
		{"region", filter.Region},
	} {
		if c.value != "" {
			clauses = append(clauses, c.column+" = ?")
			args = append(args, c.value)
		}
	}

	rows, err := s.db.Query(`
		SELECT record_id, COALESCE(original_text, ''), topic, sub_topic, COALESCE(category, ''), COALESCE(region, '')
		FROM session_rows
		WHERE `+strings.Join(clauses, " AND ")+`
		ORDER BY position ASC
	`, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []models.AssignedRecord
	for rows.Next() {
		var r models.AssignedRecord
		if err := rows.Scan(&r.ID, &r.OriginalText, &r.Topic, &r.SubTopic, &r.Category, &r.Region); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// CountBySession returns the number of rows stored for a session
func (s *RowStore) CountBySession(sessionID string) (int, error) {
	var n int
	err := s.db.QueryRow("SELECT COUNT(*) FROM session_rows WHERE session_id = ?", sessionID).Scan(&n)
	return n, err
}
