// ABOUTME: TextRecord and AssignedRecord are the input and output rows of the classification pipeline
// ABOUTME: Defines the reserved sentinel topic pairs used for failed or omitted assignments
package models

import (
	"fmt"
	"strconv"
	"strings"
)

// Reserved topic/subtopic values that mark a row the model did not classify.
const (
	SentinelTopicError    = "assignment-error"
	SentinelMalformed     = "malformed-response"
	SentinelRequestFailed = "request-failed"
	SentinelUnassigned    = "unassigned"
	rowIDPrefix           = "row-"
)

// TextRecord is one free-text entry submitted for classification.
// ID is caller-assigned and must be unique within a batch.
type TextRecord struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// AssignedRecord is a TextRecord after topic assignment.
// Category and Region are side-channel columns attached by the caller, never by the model.
type AssignedRecord struct {
	ID           string `json:"id"`
	OriginalText string `json:"originalText"`
	Topic        string `json:"topic"`
	SubTopic     string `json:"subTopic"`
	Category     string `json:"category,omitempty"`
	Region       string `json:"region,omitempty"`
}

// MalformedRecord marks a record whose chunk came back in the wrong shape
func MalformedRecord(rec TextRecord) AssignedRecord {
	return sentinel(rec, SentinelTopicError, SentinelMalformed)
}

// RequestFailedRecord marks a record whose chunk call failed outright
func RequestFailedRecord(rec TextRecord) AssignedRecord {
	return sentinel(rec, SentinelTopicError, SentinelRequestFailed)
}

// UnassignedRecord marks a record the model silently dropped from its answer
func UnassignedRecord(rec TextRecord) AssignedRecord {
	return sentinel(rec, SentinelUnassigned, SentinelUnassigned)
}

func sentinel(rec TextRecord, topic, subTopic string) AssignedRecord {
	return AssignedRecord{
		ID:           rec.ID,
		OriginalText: rec.Text,
		Topic:        topic,
		SubTopic:     subTopic,
	}
}

// IsSentinel reports whether the record carries one of the reserved failure/omission pairs
func (r AssignedRecord) IsSentinel() bool {
	switch {
	case r.Topic == SentinelTopicError && (r.SubTopic == SentinelMalformed || r.SubTopic == SentinelRequestFailed):
		return true
	case r.Topic == SentinelUnassigned && r.SubTopic == SentinelUnassigned:
		return true
	}
	return false
}

// IsFailure reports whether the record marks a failed chunk (as opposed to an omission)
func (r AssignedRecord) IsFailure() bool {
	return r.IsSentinel() && r.Topic == SentinelTopicError
}

// RowID builds the opaque record id used to recover the source row after assignment
func RowID(index int) string {
	return fmt.Sprintf("%s%d", rowIDPrefix, index)
}

// ParseRowID recovers the row index from an id built by RowID
func ParseRowID(id string) (int, bool) {
	if !strings.HasPrefix(id, rowIDPrefix) {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimPrefix(id, rowIDPrefix))
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}
