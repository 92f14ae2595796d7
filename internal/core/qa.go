// ABOUTME: QuestionAnswerer answers free-text questions about a set of assigned records
// ABOUTME: Uses the most recent conversation turns and a bounded sample of rows as context
package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/harper/topicmap/internal/llm"
	"github.com/harper/topicmap/internal/models"
)

// GuidanceMessage is returned without a model call when there is nothing to ask about
const GuidanceMessage = "Enter a question and make sure at least one analyzed row matches the current filter."

// QuestionAnswerer answers questions over analyzed rows
type QuestionAnswerer struct {
	gen          llm.Generator
	historyTurns int
	maxRows      int
	textLimit    int
	logger       *log.Logger
}

// NewQuestionAnswerer creates a QuestionAnswerer
func NewQuestionAnswerer(gen llm.Generator, opts Options, logger *log.Logger) *QuestionAnswerer {
	opts = opts.withDefaults()
	if logger == nil {
		logger = log.Default()
	}
	return &QuestionAnswerer{
		gen:          gen,
		historyTurns: opts.QAHistoryTurns,
		maxRows:      opts.QAMaxRows,
		textLimit:    opts.QATextLimit,
		logger:       logger,
	}
}

// Ask answers question using records and the tail of history.
// A blank question or no records returns GuidanceMessage without calling the model.
func (qa *QuestionAnswerer) Ask(ctx context.Context, question string, records []models.AssignedRecord, history []models.Turn) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" || len(records) == 0 {
		return GuidanceMessage, nil
	}

	if len(history) > qa.historyTurns {
		history = history[len(history)-qa.historyTurns:]
	}

	shown := records
	if len(shown) > qa.maxRows {
		shown = shown[:qa.maxRows]
	}
	rows := make([]qaRow, len(shown))
	for i, r := range shown {
		rows[i] = qaRow{
			Text:     TruncateRunes(r.OriginalText, qa.textLimit),
			Topic:    r.Topic,
			SubTopic: r.SubTopic,
			Category: r.Category,
			Region:   r.Region,
		}
	}

	prompt, err := questionPrompt(question, history, rows, len(records))
	if err != nil {
		return "", &QAError{Message: "failed to build question prompt", Err: err}
	}

	res, err := qa.gen.Generate(ctx, prompt, nil)
	if err != nil {
		return "", &QAError{Message: "failed to get an answer from the model", Err: err}
	}

	qa.logger.Debug("question answered", "rows_total", len(records), "rows_shown", len(rows), "history", len(history))
	return strings.TrimSpace(res.Text), nil
}

// ConversationStore persists question answering history per session
type ConversationStore interface {
	RecentTurns(sessionID string, n int) ([]models.Turn, error)
	AppendTurn(sessionID string, turn *models.Turn) error
}

// AskSession answers question with the session's recent history and records
// the question and answer as two new turns. Nothing is recorded when the model
// is not called or its answer is blank, so the history keeps alternating.
func (qa *QuestionAnswerer) AskSession(ctx context.Context, store ConversationStore, sessionID, question string, records []models.AssignedRecord) (string, error) {
	history, err := store.RecentTurns(sessionID, qa.historyTurns)
	if err != nil {
		return "", fmt.Errorf("failed to load history: %w", err)
	}

	answer, err := qa.Ask(ctx, question, records, history)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(question) == "" || len(records) == 0 {
		return answer, nil
	}
	if strings.TrimSpace(answer) == "" {
		qa.logger.Warn("model returned an empty answer, not recording turns", "session", sessionID)
		return answer, nil
	}

	userTurn, err := models.NewTurn(models.RoleUser, strings.TrimSpace(question))
	if err != nil {
		return "", err
	}
	assistantTurn, err := models.NewTurn(models.RoleAssistant, answer)
	if err != nil {
		return "", err
	}
	for _, turn := range []*models.Turn{userTurn, assistantTurn} {
		if err := store.AppendTurn(sessionID, turn); err != nil {
			return "", fmt.Errorf("failed to record turn: %w", err)
		}
	}
	return answer, nil
}
