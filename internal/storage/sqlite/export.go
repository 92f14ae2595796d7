// ABOUTME: Export functionality for stored sessions
// ABOUTME: Supports YAML and JSON export of a session with its taxonomy, rows and QA history
package sqlite

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// ExportData represents one exported session
type ExportData struct {
	Version    string        `yaml:"version" json:"version"`
	ExportedAt string        `yaml:"exported_at" json:"exported_at"`
	Tool       string        `yaml:"tool" json:"tool"`
	Session    ExportHeader  `yaml:"session" json:"session"`
	Topics     []ExportTopic `yaml:"topics,omitempty" json:"topics,omitempty"`
	Keywords   []string      `yaml:"keywords,omitempty" json:"keywords,omitempty"`
	Rows       []ExportRow   `yaml:"rows,omitempty" json:"rows,omitempty"`
	Turns      []ExportTurn  `yaml:"turns,omitempty" json:"turns,omitempty"`
}

// ExportHeader is the session header with row counts
type ExportHeader struct {
	SessionID  string `yaml:"session_id" json:"session_id"`
	Kind       string `yaml:"kind" json:"kind"`
	SourceFile string `yaml:"source_file" json:"source_file"`
	Column     string `yaml:"column" json:"column"`
	CreatedAt  string `yaml:"created_at" json:"created_at"`
	Total      int    `yaml:"total" json:"total"`
	Assigned   int    `yaml:"assigned" json:"assigned"`
	Failed     int    `yaml:"failed" json:"failed"`
	Unassigned int    `yaml:"unassigned" json:"unassigned"`
}

// ExportTopic represents a topic for export
type ExportTopic struct {
	Topic       string   `yaml:"topic" json:"topic"`
	Description string   `yaml:"description" json:"description"`
	SubTopics   []string `yaml:"sub_topics" json:"sub_topics"`
}

// ExportRow represents an assigned row for export
type ExportRow struct {
	ID           string `yaml:"id" json:"id"`
	OriginalText string `yaml:"original_text" json:"original_text"`
	Topic        string `yaml:"topic" json:"topic"`
	SubTopic     string `yaml:"sub_topic" json:"sub_topic"`
	Category     string `yaml:"category,omitempty" json:"category,omitempty"`
	Region       string `yaml:"region,omitempty" json:"region,omitempty"`
}

// ExportTurn represents a QA turn for export
type ExportTurn struct {
	Role      string `yaml:"role" json:"role"`
	Content   string `yaml:"content" json:"content"`
	Timestamp string `yaml:"timestamp" json:"timestamp"`
}

// ExportSession builds the export structure for one session
func (s *Storage) ExportSession(sessionID string) (*ExportData, error) {
	session, err := s.GetSession(sessionID)
	if err != nil {
		return nil, err
	}
	turns, err := s.Turns(sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get turns: %w", err)
	}

	st := session.Stats()
	data := &ExportData{
		Version:    "1.0",
		ExportedAt: time.Now().Format(time.RFC3339),
		Tool:       "topicmap",
		Session: ExportHeader{
			SessionID:  session.SessionID,
			Kind:       string(session.Kind),
			SourceFile: session.SourceFile,
			Column:     session.Column,
			CreatedAt:  session.CreatedAt.Format(time.RFC3339),
			Total:      st.Total,
			Assigned:   st.Assigned,
			Failed:     st.Failed,
			Unassigned: st.Unassigned,
		},
		Keywords: session.Keywords,
	}

	for _, t := range session.Topics {
		data.Topics = append(data.Topics, ExportTopic{Topic: t.Name, Description: t.Description, SubTopics: t.SubTopics})
	}
	for _, r := range session.Rows {
		data.Rows = append(data.Rows, ExportRow{
			ID:           r.ID,
			OriginalText: r.OriginalText,
			Topic:        r.Topic,
			SubTopic:     r.SubTopic,
			Category:     r.Category,
			Region:       r.Region,
		})
	}
	for _, t := range turns {
		data.Turns = append(data.Turns, ExportTurn{
			Role:      string(t.Role),
			Content:   t.Content,
			Timestamp: t.Timestamp.Format(time.RFC3339),
		})
	}

	return data, nil
}

// WriteYAML encodes export data as YAML
func (d *ExportData) WriteYAML(w io.Writer) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(d); err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}
	return encoder.Close()
}

// WriteJSON encodes export data as indented JSON
func (d *ExportData) WriteJSON(w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(d); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

// ExportToYAML exports a session to a YAML file
func (s *Storage) ExportToYAML(sessionID, outputPath string) error {
	return s.exportToFile(sessionID, outputPath, (*ExportData).WriteYAML)
}

// ExportToJSON exports a session to a JSON file
func (s *Storage) ExportToJSON(sessionID, outputPath string) error {
	return s.exportToFile(sessionID, outputPath, (*ExportData).WriteJSON)
}

func (s *Storage) exportToFile(sessionID, outputPath string, write func(*ExportData, io.Writer) error) error {
	data, err := s.ExportSession(sessionID)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	file, err := os.Create(outputPath) // #nosec G304
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	return write(data, file)
}
