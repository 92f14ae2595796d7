// ABOUTME: KeywordExtractor pulls a fixed number of characteristic keywords out of a corpus
// ABOUTME: One structured generation call per corpus; blank input makes no call
package core

import (
	"context"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/harper/topicmap/internal/llm"
)

// KeywordExtractor extracts keywords from a corpus
type KeywordExtractor struct {
	gen    llm.Generator
	limit  int
	count  int
	logger *log.Logger
}

// NewKeywordExtractor creates a KeywordExtractor
func NewKeywordExtractor(gen llm.Generator, opts Options, logger *log.Logger) *KeywordExtractor {
	opts = opts.withDefaults()
	if logger == nil {
		logger = log.Default()
	}
	return &KeywordExtractor{
		gen:    gen,
		limit:  opts.KeywordCorpusLimit,
		count:  opts.KeywordCount,
		logger: logger,
	}
}

// ExtractKeywords returns the keywords the model found in the first KeywordCorpusLimit runes of corpus
func (ke *KeywordExtractor) ExtractKeywords(ctx context.Context, corpus string) ([]string, error) {
	if strings.TrimSpace(corpus) == "" {
		return []string{}, nil
	}

	res, err := ke.gen.Generate(ctx, keywordPrompt(TruncateRunes(corpus, ke.limit), ke.count), keywordSchema)
	if err != nil {
		return nil, &KeywordExtractionError{Message: "keyword extraction request failed", Err: err}
	}

	var keywords []string
	if err := keywordSchema.Decode(res.Value, &keywords); err != nil {
		return nil, &KeywordExtractionError{Message: "keyword extraction returned an unexpected format", Err: err}
	}

	ke.logger.Debug("keywords extracted", "count", len(keywords))
	return keywords, nil
}
