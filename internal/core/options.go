// ABOUTME: Options holds the tunable limits of the classification pipeline
// ABOUTME: Defaults are a batch size of 20 and corpus budgets of 20k and 15k runes
package core

// Default pipeline limits
const (
	DefaultBatchSize          = 20
	DefaultTopicCorpusLimit   = 20000
	DefaultKeywordCorpusLimit = 15000
	DefaultTopicCount         = 5
	DefaultKeywordCount       = 15
	DefaultQAHistoryTurns     = 5
	DefaultQAMaxRows          = 100
	DefaultQATextLimit        = 200
)

// Options configures the extractors, assigner and question answerer.
// Corpus and text limits are counted in runes.
type Options struct {
	BatchSize          int
	MaxConcurrency     int // 0 means one in-flight call per chunk
	TopicCorpusLimit   int
	KeywordCorpusLimit int
	TopicCount         int
	KeywordCount       int
	QAHistoryTurns     int
	QAMaxRows          int
	QATextLimit        int
}

// DefaultOptions returns the default pipeline limits
func DefaultOptions() Options {
	return Options{
		BatchSize:          DefaultBatchSize,
		TopicCorpusLimit:   DefaultTopicCorpusLimit,
		KeywordCorpusLimit: DefaultKeywordCorpusLimit,
		TopicCount:         DefaultTopicCount,
		KeywordCount:       DefaultKeywordCount,
		QAHistoryTurns:     DefaultQAHistoryTurns,
		QAMaxRows:          DefaultQAMaxRows,
		QATextLimit:        DefaultQATextLimit,
	}
}

// withDefaults fills zero or negative fields from DefaultOptions
func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.BatchSize <= 0 {
		o.BatchSize = d.BatchSize
	}
	if o.MaxConcurrency < 0 {
		o.MaxConcurrency = 0
	}
	if o.TopicCorpusLimit <= 0 {
		o.TopicCorpusLimit = d.TopicCorpusLimit
	}
	if o.KeywordCorpusLimit <= 0 {
		o.KeywordCorpusLimit = d.KeywordCorpusLimit
	}
	if o.TopicCount <= 0 {
		o.TopicCount = d.TopicCount
	}
	if o.KeywordCount <= 0 {
		o.KeywordCount = d.KeywordCount
	}
	if o.QAHistoryTurns <= 0 {
		o.QAHistoryTurns = d.QAHistoryTurns
	}
	if o.QAMaxRows <= 0 {
		o.QAMaxRows = d.QAMaxRows
	}
	if o.QATextLimit <= 0 {
		o.QATextLimit = d.QATextLimit
	}
	return o
}
