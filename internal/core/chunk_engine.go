// ABOUTME: ChunkEngine partitions records into fixed-size contiguous chunks for batch assignment
// ABOUTME: Also builds and truncates the newline-joined corpus sent to the extractors
package core

import (
	"strings"
	"unicode/utf8"

	"github.com/harper/topicmap/internal/models"
)

// ChunkEngine handles record partitioning and corpus preparation
type ChunkEngine struct {
	batchSize int
}

// NewChunkEngine creates a ChunkEngine with the given batch size.
// A non-positive size falls back to DefaultBatchSize.
func NewChunkEngine(batchSize int) *ChunkEngine {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &ChunkEngine{batchSize: batchSize}
}

// BatchSize returns the maximum number of records per chunk
func (ce *ChunkEngine) BatchSize() int {
	return ce.batchSize
}

// Partition splits records, in order, into chunks of at most BatchSize records.
// Chunks share the backing array of records and must not be appended to.
func (ce *ChunkEngine) Partition(records []models.TextRecord) [][]models.TextRecord {
	if len(records) == 0 {
		return nil
	}

	chunks := make([][]models.TextRecord, 0, ce.ChunkCount(len(records)))
	for start := 0; start < len(records); start += ce.batchSize {
		end := start + ce.batchSize
		if end > len(records) {
			end = len(records)
		}
		chunks = append(chunks, records[start:end:end])
	}
	return chunks
}

// ChunkCount returns ceil(n / BatchSize)
func (ce *ChunkEngine) ChunkCount(n int) int {
	if n <= 0 {
		return 0
	}
	return (n + ce.batchSize - 1) / ce.batchSize
}

// Corpus joins record texts with newlines
func Corpus(records []models.TextRecord) string {
	texts := make([]string, len(records))
	for i, r := range records {
		texts[i] = r.Text
	}
	return strings.Join(texts, "\n")
}

// TruncateRunes returns at most limit runes of s
func TruncateRunes(s string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(s) <= limit {
		return s
	}
	n := 0
	for i := range s {
		if n == limit {
			return s[:i]
		}
		n++
	}
	return s
}
