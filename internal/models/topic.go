// ABOUTME: Topic is one node of the two-level taxonomy extracted from a corpus
// ABOUTME: Includes the fixed catch-all topic appended after every extraction
package models

import (
	"errors"
	"strings"
)

// Catch-all topic constants. The assignment prompt tells the model to fall back to
// CatchAllTopicName / CatchAllFallbackSubTopic when nothing else fits.
const (
	CatchAllTopicName        = "Other"
	CatchAllDescription      = "Entries that do not fit any other topic."
	CatchAllFallbackSubTopic = "Miscellaneous"
)

var catchAllSubTopics = []string{
	CatchAllFallbackSubTopic,
	"Off-topic",
	"Unclear",
	"Too short",
	"Multiple topics",
}

// Topic is a named theme with a short description and its subtopics
type Topic struct {
	Name        string   `json:"topic" yaml:"topic"`
	Description string   `json:"description" yaml:"description"`
	SubTopics   []string `json:"subTopics" yaml:"sub_topics"`
}

// CatchAllTopic returns a fresh copy of the reserved catch-all topic
func CatchAllTopic() Topic {
	subs := make([]string, len(catchAllSubTopics))
	copy(subs, catchAllSubTopics)
	return Topic{
		Name:        CatchAllTopicName,
		Description: CatchAllDescription,
		SubTopics:   subs,
	}
}

// Validate checks the structural invariants of a topic
func (t Topic) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return errors.New("topic name cannot be empty")
	}
	if len(t.SubTopics) == 0 {
		return errors.New("topic must have at least one subtopic")
	}
	return nil
}

// HasSubTopic reports whether name is one of the topic's subtopics
func (t Topic) HasSubTopic(name string) bool {
	for _, s := range t.SubTopics {
		if s == name {
			return true
		}
	}
	return false
}

// TopicNames returns the names of topics in order
func TopicNames(topics []Topic) []string {
	names := make([]string, len(topics))
	for i, t := range topics {
		names[i] = t.Name
	}
	return names
}
