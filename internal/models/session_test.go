// ABOUTME: Tests for Session construction and statistics
// ABOUTME: Verifies sentinel rows are counted separately from model assignments
package models

import (
	"strings"
	"testing"
)

func TestNewSession(t *testing.T) {
	s := NewSession(KindTopics, "survey.csv", "comment")

	if !strings.HasPrefix(s.SessionID, "session_") {
		t.Errorf("SessionID = %q, want session_ prefix", s.SessionID)
	}
	if s.Kind != KindTopics {
		t.Errorf("Kind = %q, want %q", s.Kind, KindTopics)
	}
	if s.SourceFile != "survey.csv" || s.Column != "comment" {
		t.Errorf("SourceFile/Column = %q/%q", s.SourceFile, s.Column)
	}
	if s.CreatedAt.IsZero() {
		t.Error("CreatedAt should be set")
	}
}

func TestSessionStats(t *testing.T) {
	rec := TextRecord{ID: "row-9", Text: "x"}
	s := &Session{Rows: []AssignedRecord{
		{ID: "row-0", Topic: "Shipping", SubTopic: "Delays"},
		{ID: "row-1", Topic: "Billing", SubTopic: "Refunds"},
		MalformedRecord(rec),
		RequestFailedRecord(rec),
		UnassignedRecord(rec),
	}}

	st := s.Stats()
	if st.Total != 5 {
		t.Errorf("Total = %d, want 5", st.Total)
	}
	if st.Assigned != 2 {
		t.Errorf("Assigned = %d, want 2", st.Assigned)
	}
	if st.Failed != 2 {
		t.Errorf("Failed = %d, want 2", st.Failed)
	}
	if st.Unassigned != 1 {
		t.Errorf("Unassigned = %d, want 1", st.Unassigned)
	}
}
