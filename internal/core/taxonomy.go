// ABOUTME: TopicExtractor derives a small two-level taxonomy from a text corpus with one generation call
// ABOUTME: The catch-all topic is always appended to a successful result
package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/harper/topicmap/internal/llm"
	"github.com/harper/topicmap/internal/models"
)

// TopicExtractor extracts topics and subtopics from a corpus
type TopicExtractor struct {
	gen        llm.Generator
	limit      int
	topicCount int
	logger     *log.Logger
}

// NewTopicExtractor creates a TopicExtractor
func NewTopicExtractor(gen llm.Generator, opts Options, logger *log.Logger) *TopicExtractor {
	opts = opts.withDefaults()
	if logger == nil {
		logger = log.Default()
	}
	return &TopicExtractor{
		gen:        gen,
		limit:      opts.TopicCorpusLimit,
		topicCount: opts.TopicCount,
		logger:     logger,
	}
}

// ExtractTopics returns the model's topics followed by the catch-all topic.
// A blank corpus yields an empty result without calling the model; only a
// prefix of TopicCorpusLimit runes is analyzed.
func (te *TopicExtractor) ExtractTopics(ctx context.Context, corpus string) ([]models.Topic, error) {
	if strings.TrimSpace(corpus) == "" {
		return []models.Topic{}, nil
	}

	prompt := topicPrompt(TruncateRunes(corpus, te.limit), te.topicCount)
	res, err := te.gen.Generate(ctx, prompt, topicSchema)
	if err != nil {
		return nil, &TaxonomyExtractionError{Message: "topic extraction request failed", Err: err}
	}

	var topics []models.Topic
	if err := topicSchema.Decode(res.Value, &topics); err != nil {
		return nil, &TaxonomyExtractionError{Message: "topic extraction returned an unexpected format", Err: err}
	}
	seen := make(map[string]bool, len(topics))
	for i, t := range topics {
		switch {
		case strings.TrimSpace(t.Description) == "":
			err = errors.New("topic description cannot be empty")
		case seen[t.Name]:
			err = fmt.Errorf("duplicate topic name %q", t.Name)
		default:
			err = t.Validate()
		}
		seen[t.Name] = true
		if err != nil {
			return nil, &TaxonomyExtractionError{
				Message: "topic extraction returned an unexpected format",
				Err:     fmt.Errorf("topic %d: %w", i, err),
			}
		}
	}

	te.logger.Debug("topics extracted", "count", len(topics))
	return append(topics, models.CatchAllTopic()), nil
}
