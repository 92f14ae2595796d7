// ABOUTME: Session storage operations for SQLite
// ABOUTME: Saves a session with its topics and rows atomically and lists session summaries
package sqlite

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/harper/topicmap/internal/models"
)

// ErrSessionNotFound is returned when a session id does not exist
var ErrSessionNotFound = errors.New("session not found")

// SessionInfo summarizes a stored session without its rows
type SessionInfo struct {
	SessionID  string             `json:"session_id" yaml:"session_id"`
	Kind       models.SessionKind `json:"kind" yaml:"kind"`
	SourceFile string             `json:"source_file" yaml:"source_file"`
	Column     string             `json:"column" yaml:"column"`
	TopicCount int                `json:"topic_count" yaml:"topic_count"`
	RowCount   int                `json:"row_count" yaml:"row_count"`
	CreatedAt  time.Time          `json:"created_at" yaml:"created_at"`
}

// SessionStore handles session persistence
type SessionStore struct {
	db *DB
}

// NewSessionStore creates a new SessionStore
func NewSessionStore(db *DB) *SessionStore {
	return &SessionStore{db: db}
}

// Save writes a session, replacing any existing topics and rows for the same id
func (s *SessionStore) Save(session *models.Session) (err error) {
	keywordsJSON, err := json.Marshal(session.Keywords)
	if err != nil {
		return err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	_, err = tx.Exec(`
		INSERT INTO sessions (id, kind, source_file, column_name, keywords, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			kind = excluded.kind,
			source_file = excluded.source_file,
			column_name = excluded.column_name,
			keywords = excluded.keywords
	`, session.SessionID, string(session.Kind), session.SourceFile, session.Column,
		string(keywordsJSON), session.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	if _, err = tx.Exec("DELETE FROM session_topics WHERE session_id = ?", session.SessionID); err != nil {
		return err
	}
	if _, err = tx.Exec("DELETE FROM session_rows WHERE session_id = ?", session.SessionID); err != nil {
		return err
	}

	for i, topic := range session.Topics {
		subsJSON, mErr := json.Marshal(topic.SubTopics)
		if mErr != nil {
			err = mErr
			return err
		}
		_, err = tx.Exec(`
			INSERT INTO session_topics (session_id, position, name, description, sub_topics)
			VALUES (?, ?, ?, ?, ?)
		`, session.SessionID, i, topic.Name, topic.Description, string(subsJSON))
		if err != nil {
			return fmt.Errorf("failed to save topic %d: %w", i, err)
		}
	}

	stmt, err := tx.Prepare(`
		INSERT INTO session_rows (session_id, position, record_id, original_text, topic, sub_topic, category, region)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer func() { _ = stmt.Close() }()

	for i, row := range session.Rows {
		_, err = stmt.Exec(session.SessionID, i, row.ID, row.OriginalText, row.Topic, row.SubTopic, row.Category, row.Region)
		if err != nil {
			return fmt.Errorf("failed to save row %d: %w", i, err)
		}
	}

	return tx.Commit()
}

// Get loads a full session including topics and rows
func (s *SessionStore) Get(sessionID string) (*models.Session, error) {
	var (
		session      models.Session
		kind         string
		source       sql.NullString
		column       sql.NullString
		keywordsJSON sql.NullString
	)
	err := s.db.QueryRow(`
		SELECT id, kind, source_file, column_name, keywords, created_at
		FROM sessions WHERE id = ?
	`, sessionID).Scan(&session.SessionID, &kind, &source, &column, &keywordsJSON, &session.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	session.Kind = models.SessionKind(kind)
	session.SourceFile = source.String
	session.Column = column.String
	if keywordsJSON.Valid && keywordsJSON.String != "" && keywordsJSON.String != "null" {
		if err := json.Unmarshal([]byte(keywordsJSON.String), &session.Keywords); err != nil {
			session.Keywords = nil
		}
	}

	if session.Topics, err = s.topics(sessionID); err != nil {
		return nil, err
	}
	if session.Rows, err = NewRowStore(s.db).ListBySession(sessionID, RowFilter{}); err != nil {
		return nil, err
	}
	return &session, nil
}

func (s *SessionStore) topics(sessionID string) ([]models.Topic, error) {
	rows, err := s.db.Query(`
		SELECT name, description, sub_topics
		FROM session_topics
		WHERE session_id = ?
		ORDER BY position ASC
	`, sessionID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var topics []models.Topic
	for rows.Next() {
		var (
			topic    models.Topic
			desc     sql.NullString
			subsJSON sql.NullString
		)
		if err := rows.Scan(&topic.Name, &desc, &subsJSON); err != nil {
			return nil, err
		}
		topic.Description = desc.String
		if subsJSON.Valid && subsJSON.String != "" {
			if err := json.Unmarshal([]byte(subsJSON.String), &topic.SubTopics); err != nil {
				topic.SubTopics = []string{}
			}
		}
		topics = append(topics, topic)
	}
	return topics, rows.Err()
}

// List returns summaries of all sessions, newest first
func (s *SessionStore) List() ([]SessionInfo, error) {
	rows, err := s.db.Query(`
		SELECT s.id, s.kind, COALESCE(s.source_file, ''), COALESCE(s.column_name, ''), s.created_at,
			(SELECT COUNT(*) FROM session_topics t WHERE t.session_id = s.id),
			(SELECT COUNT(*) FROM session_rows r WHERE r.session_id = s.id)
		FROM sessions s
		ORDER BY s.created_at DESC, s.id DESC
	`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var infos []SessionInfo
	for rows.Next() {
		var (
			info SessionInfo
			kind string
		)
		if err := rows.Scan(&info.SessionID, &kind, &info.SourceFile, &info.Column, &info.CreatedAt,
			&info.TopicCount, &info.RowCount); err != nil {
			return nil, err
		}
		info.Kind = models.SessionKind(kind)
		infos = append(infos, info)
	}
	return infos, rows.Err()
}

// Delete removes a session and, by cascade, its topics, rows and turns
func (s *SessionStore) Delete(sessionID string) error {
	res, err := s.db.Exec("DELETE FROM sessions WHERE id = ?", sessionID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrSessionNotFound
	}
	return nil
}
