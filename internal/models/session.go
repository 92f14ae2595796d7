// ABOUTME: Session is one completed analysis run over a column of a dataset
// ABOUTME: Holds the taxonomy or keywords produced plus the assigned rows in input order
package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SessionKind distinguishes keyword sessions from topic sessions
type SessionKind string

const (
	KindKeywords SessionKind = "keywords"
	KindTopics   SessionKind = "topics"
)

// Session is the persisted result of one analysis
type Session struct {
	SessionID  string           `json:"session_id"`
	Kind       SessionKind      `json:"kind"`
	SourceFile string           `json:"source_file"`
	Column     string           `json:"column"`
	Keywords   []string         `json:"keywords,omitempty"`
	Topics     []Topic          `json:"topics,omitempty"`
	Rows       []AssignedRecord `json:"rows,omitempty"`
	CreatedAt  time.Time        `json:"created_at"`
}

// NewSession creates an empty session of the given kind
func NewSession(kind SessionKind, sourceFile, column string) *Session {
	return &Session{
		SessionID:  generateSessionID(),
		Kind:       kind,
		SourceFile: sourceFile,
		Column:     column,
		CreatedAt:  time.Now().UTC(),
	}
}

// Stats summarizes how many rows were classified versus marked by a sentinel
type Stats struct {
	Total      int `json:"total"`
	Assigned   int `json:"assigned"`
	Failed     int `json:"failed"`
	Unassigned int `json:"unassigned"`
}

// Stats computes row counts for the session
func (s *Session) Stats() Stats {
	st := Stats{Total: len(s.Rows)}
	for _, r := range s.Rows {
		switch {
		case r.IsFailure():
			st.Failed++
		case r.IsSentinel():
			st.Unassigned++
		default:
			st.Assigned++
		}
	}
	return st
}

func generateSessionID() string {
	return fmt.Sprintf("session_%s_%s", time.Now().Format("20060102_150405"), uuid.New().String()[:8])
}
