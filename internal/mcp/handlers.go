// ABOUTME: MCP tool handler implementations for the topicmap server
// ABOUTME: Domain failures are returned as tool errors, never as Go errors
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/harper/topicmap/internal/core"
	"github.com/harper/topicmap/internal/dataset"
	"github.com/harper/topicmap/internal/models"
	"github.com/harper/topicmap/internal/storage/sqlite"
	"github.com/mark3labs/mcp-go/mcp"
)

// textColumn names the synthetic column built from tool input texts
const textColumn = "text"

// Handlers contains the handler functions for all MCP tools
type Handlers struct {
	storage  *sqlite.Storage
	analyzer *core.Analyzer
	qa       *core.QuestionAnswerer
	logger   *log.Logger
}

// ExtractKeywords handles the extract_keywords tool
func (h *Handlers) ExtractKeywords(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	records, errResult := requireRecords(request)
	if errResult != nil {
		return errResult, nil
	}

	keywords, err := h.analyzer.Keywords().ExtractKeywords(ctx, core.Corpus(records))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("keyword extraction failed: %v", err)), nil
	}
	return jsonResult(map[string]interface{}{"keywords": keywords})
}

// ExtractTopics handles the extract_topics tool
func (h *Handlers) ExtractTopics(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	records, errResult := requireRecords(request)
	if errResult != nil {
		return errResult, nil
	}

	topics, err := h.analyzer.Topics().ExtractTopics(ctx, core.Corpus(records))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("topic extraction failed: %v", err)), nil
	}
	return jsonResult(map[string]interface{}{"topics": topics})
}

// AssignTopics handles the assign_topics tool
func (h *Handlers) AssignTopics(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	records, errResult := requireRecords(request)
	if errResult != nil {
		return errResult, nil
	}
	topics, err := parseTopics(request.GetArguments()["topics"])
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	rows, err := h.analyzer.Assigner().Assign(ctx, records, topics, nil)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("assignment failed: %v", err)), nil
	}
	return jsonResult(map[string]interface{}{
		"rows":   rows,
		"facets": core.Facets(rows),
	})
}

// AnalyzeTexts handles the analyze_texts tool
func (h *Handlers) AnalyzeTexts(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	texts, err := request.RequireStringSlice("texts")
	if err != nil {
		return mcp.NewToolResultError("texts argument is required and must be an array of strings"), nil
	}
	source := request.GetString("source", "mcp")
	save := request.GetBool("save", true)

	session, err := h.analyzer.Run(ctx, dataset.FromTexts(textColumn, texts), core.AnalyzeRequest{
		SourceFile: source,
		Column:     textColumn,
	}, nil)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("analysis failed: %v", err)), nil
	}

	saved := false
	if save && h.storage != nil {
		if err := h.storage.SaveSession(session); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to save session: %v", err)), nil
		}
		saved = true
	}

	return jsonResult(map[string]interface{}{
		"session_id": session.SessionID,
		"saved":      saved,
		"stats":      session.Stats(),
		"topics":     session.Topics,
		"rows":       session.Rows,
	})
}

// AskQuestion handles the ask_question tool
func (h *Handlers) AskQuestion(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if h.storage == nil {
		return mcp.NewToolResultError("session storage is not available"), nil
	}
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError("session_id argument is required and must be a string"), nil
	}
	question, err := request.RequireString("question")
	if err != nil {
		return mcp.NewToolResultError("question argument is required and must be a string"), nil
	}

	rows, err := h.storage.Rows(sessionID, rowFilter(request))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to load rows: %v", err)), nil
	}

	answer, err := h.qa.AskSession(ctx, h.storage, sessionID, question, rows)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("question failed: %v", err)), nil
	}

	return jsonResult(map[string]interface{}{
		"session_id": sessionID,
		"answer":     answer,
		"rows_used":  len(rows),
	})
}

// ListSessions handles the list_sessions tool
func (h *Handlers) ListSessions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if h.storage == nil {
		return mcp.NewToolResultError("session storage is not available"), nil
	}
	sessions, err := h.storage.ListSessions()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list sessions: %v", err)), nil
	}
	if sessions == nil {
		sessions = []sqlite.SessionInfo{}
	}
	return jsonResult(map[string]interface{}{"sessions": sessions})
}

// GetSessionRows handles the get_session_rows tool
func (h *Handlers) GetSessionRows(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if h.storage == nil {
		return mcp.NewToolResultError("session storage is not available"), nil
	}
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError("session_id argument is required and must be a string"), nil
	}
	limit := request.GetInt("limit", 100)

	session, err := h.storage.GetSession(sessionID)
	if err != nil {
		if errors.Is(err, sqlite.ErrSessionNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("session not found: %s", sessionID)), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("failed to load session: %v", err)), nil
	}
	rows, err := h.storage.Rows(sessionID, rowFilter(request))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to load rows: %v", err)), nil
	}

	matched := len(rows)
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}

	return jsonResult(map[string]interface{}{
		"session_id": session.SessionID,
		"kind":       session.Kind,
		"topics":     session.Topics,
		"keywords":   session.Keywords,
		"facets":     core.Facets(session.Rows),
		"matched":    matched,
		"rows":       rows,
	})
}

// requireRecords reads the texts argument into row records
func requireRecords(request mcp.CallToolRequest) ([]models.TextRecord, *mcp.CallToolResult) {
	texts, err := request.RequireStringSlice("texts")
	if err != nil {
		return nil, mcp.NewToolResultError("texts argument is required and must be an array of strings")
	}
	records := dataset.FromTexts(textColumn, texts).Records(0)
	if len(records) == 0 {
		return nil, mcp.NewToolResultError("texts must contain at least one non-blank entry")
	}
	return records, nil
}

// parseTopics converts the loosely typed topics argument into validated topics
func parseTopics(raw interface{}) ([]models.Topic, error) {
	if raw == nil {
		return nil, errors.New("topics argument is required")
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("topics argument is not valid JSON: %w", err)
	}
	var topics []models.Topic
	if err := json.Unmarshal(data, &topics); err != nil {
		return nil, fmt.Errorf("topics must be an array of {topic, description, subTopics}: %w", err)
	}
	if len(topics) == 0 {
		return nil, errors.New("topics must contain at least one topic")
	}
	for i, t := range topics {
		if t.Name == "" {
			return nil, fmt.Errorf("topic %d has no name", i)
		}
	}
	return topics, nil
}

func rowFilter(request mcp.CallToolRequest) sqlite.RowFilter {
	return sqlite.RowFilter{
		Topic:    request.GetString("topic", ""),
		SubTopic: request.GetString("sub_topic", ""),
		Category: request.GetString("category", ""),
		Region:   request.GetString("region", ""),
	}
}

func jsonResult(v interface{}) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal response: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
