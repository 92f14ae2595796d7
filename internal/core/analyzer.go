// ABOUTME: Analyzer runs the end-to-end pipeline over a dataset column
// ABOUTME: Builds records, extracts topics or keywords, assigns rows and enriches them into a Session
package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/harper/topicmap/internal/dataset"
	"github.com/harper/topicmap/internal/llm"
	"github.com/harper/topicmap/internal/models"
)

// Analysis phases reported through PhaseFunc
const (
	PhaseExtracting = "extracting"
	PhaseAssigning  = "assigning"
	PhaseDone       = "done"
)

// ErrNoTopics is returned when extraction produced nothing to assign against
var ErrNoTopics = errors.New("no topics could be extracted")

// ErrNoRecords is returned when the selected column has no non-blank text
var ErrNoRecords = errors.New("selected column contains no text")

// PhaseFunc receives pipeline progress; percent is only meaningful while assigning
type PhaseFunc func(phase string, percent int)

// AnalyzeRequest selects what to analyze in a table
type AnalyzeRequest struct {
	SourceFile string
	Column     string
	Categories []string
}

// Analyzer wires the extractors and assigner together
type Analyzer struct {
	topics   *TopicExtractor
	keywords *KeywordExtractor
	assigner *BatchAssigner
	logger   *log.Logger
}

// NewAnalyzer creates an Analyzer whose components share one generator and option set
func NewAnalyzer(gen llm.Generator, opts Options, logger *log.Logger) *Analyzer {
	if logger == nil {
		logger = log.Default()
	}
	return &Analyzer{
		topics:   NewTopicExtractor(gen, opts, logger),
		keywords: NewKeywordExtractor(gen, opts, logger),
		assigner: NewBatchAssigner(gen, opts, logger),
		logger:   logger,
	}
}

// Assigner exposes the batch assigner for callers that already have a taxonomy
func (a *Analyzer) Assigner() *BatchAssigner { return a.assigner }

// Topics exposes the topic extractor
func (a *Analyzer) Topics() *TopicExtractor { return a.topics }

// Keywords exposes the keyword extractor
func (a *Analyzer) Keywords() *KeywordExtractor { return a.keywords }

// prepare applies the category filter and builds records for the chosen column
func prepare(table *dataset.Table, req AnalyzeRequest) (*dataset.Table, []models.TextRecord, string, error) {
	filtered, err := table.FilterCategory(req.Categories)
	if err != nil {
		return nil, nil, "", err
	}
	col, err := filtered.ColumnIndex(req.Column)
	if err != nil {
		return nil, nil, "", err
	}
	records := filtered.Records(col)
	if len(records) == 0 {
		return nil, nil, "", ErrNoRecords
	}
	return filtered, records, filtered.Headers[col], nil
}

// Run extracts a taxonomy from the column and assigns every row to it
func (a *Analyzer) Run(ctx context.Context, table *dataset.Table, req AnalyzeRequest, onPhase PhaseFunc) (*models.Session, error) {
	if onPhase == nil {
		onPhase = func(string, int) {}
	}

	filtered, records, column, err := prepare(table, req)
	if err != nil {
		return nil, err
	}

	onPhase(PhaseExtracting, 0)
	topics, err := a.topics.ExtractTopics(ctx, Corpus(records))
	if err != nil {
		return nil, err
	}
	if len(topics) == 0 {
		return nil, ErrNoTopics
	}

	onPhase(PhaseAssigning, 0)
	rows, err := a.assigner.Assign(ctx, records, topics, func(p int) {
		onPhase(PhaseAssigning, p)
	})
	if err != nil {
		return nil, err
	}
	filtered.Enrich(rows)

	session := models.NewSession(models.KindTopics, req.SourceFile, column)
	session.Topics = topics
	session.Rows = rows

	st := session.Stats()
	a.logger.Info("analysis complete",
		"rows", st.Total,
		"assigned", st.Assigned,
		"failed", st.Failed,
		"unassigned", st.Unassigned,
		"topics", len(topics),
	)
	onPhase(PhaseDone, 100)
	return session, nil
}

// RunKeywords extracts keywords from the column into a keyword session
func (a *Analyzer) RunKeywords(ctx context.Context, table *dataset.Table, req AnalyzeRequest) (*models.Session, error) {
	_, records, column, err := prepare(table, req)
	if err != nil {
		return nil, err
	}

	keywords, err := a.keywords.ExtractKeywords(ctx, Corpus(records))
	if err != nil {
		return nil, err
	}

	session := models.NewSession(models.KindKeywords, req.SourceFile, column)
	session.Keywords = keywords
	return session, nil
}

// Describe renders a one-line summary of a session for logs and CLI output
func Describe(s *models.Session) string {
	if s.Kind == models.KindKeywords {
		return fmt.Sprintf("%s: %d keywords from %s[%s]", s.SessionID, len(s.Keywords), s.SourceFile, s.Column)
	}
	st := s.Stats()
	return fmt.Sprintf("%s: %d rows, %d topics, %d failed, %d unassigned", s.SessionID, st.Total, len(s.Topics), st.Failed, st.Unassigned)
}
