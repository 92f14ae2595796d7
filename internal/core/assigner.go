// ABOUTME: BatchAssigner assigns a topic/subtopic pair to every record using parallel chunked calls
// ABOUTME: Chunk failures become sentinel records; output always matches input length and order
package core

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/harper/topicmap/internal/llm"
	"github.com/harper/topicmap/internal/models"
	"golang.org/x/sync/errgroup"
)

// ProgressFunc receives an integer completion percentage
type ProgressFunc func(percent int)

// BatchAssigner classifies records against a taxonomy
type BatchAssigner struct {
	gen            llm.Generator
	chunker        *ChunkEngine
	maxConcurrency int
	logger         *log.Logger
}

// NewBatchAssigner creates a BatchAssigner
func NewBatchAssigner(gen llm.Generator, opts Options, logger *log.Logger) *BatchAssigner {
	opts = opts.withDefaults()
	if logger == nil {
		logger = log.Default()
	}
	return &BatchAssigner{
		gen:            gen,
		chunker:        NewChunkEngine(opts.BatchSize),
		maxConcurrency: opts.MaxConcurrency,
		logger:         logger,
	}
}

// progressCounter reports round-half-up(100*done/total) once per settled chunk
type progressCounter struct {
	mu    sync.Mutex
	done  int
	total int
	fn    ProgressFunc
}

func (p *progressCounter) settle() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.done++
	if p.fn != nil {
		p.fn((200*p.done + p.total) / (2 * p.total))
	}
}

// Assign returns exactly one AssignedRecord per input record, in input order.
// Empty records or topics return an empty slice with no calls and no progress.
// Per-chunk failures never fail the call; an error is only returned for an
// internal defect such as a panic while processing a chunk.
func (a *BatchAssigner) Assign(ctx context.Context, records []models.TextRecord, topics []models.Topic, onProgress ProgressFunc) ([]models.AssignedRecord, error) {
	if len(records) == 0 || len(topics) == 0 {
		return []models.AssignedRecord{}, nil
	}

	catalogue, err := topicCatalogue(topics)
	if err != nil {
		return nil, err
	}

	chunks := a.chunker.Partition(records)
	results := make([][]models.AssignedRecord, len(chunks))
	progress := &progressCounter{total: len(chunks), fn: onProgress}

	// Plain group, no derived context: one chunk's outcome must never cancel another.
	var g errgroup.Group
	if a.maxConcurrency > 0 {
		g.SetLimit(a.maxConcurrency)
	}
	for i, chunk := range chunks {
		g.Go(func() (err error) {
			defer progress.settle()
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("chunk %d panicked: %v", i, r)
				}
			}()
			results[i] = a.assignChunk(ctx, i, catalogue, chunk)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("batch assignment failed: %w", err)
	}

	return reassemble(records, results), nil
}

// assignmentReply is one element of the model's answer. Category and region
// are attached later from the source table, never taken from the model.
type assignmentReply struct {
	ID           string `json:"id"`
	OriginalText string `json:"originalText"`
	Topic        string `json:"topic"`
	SubTopic     string `json:"subTopic"`
}

// assignChunk runs one chunk call and reduces any failure to sentinel records
func (a *BatchAssigner) assignChunk(ctx context.Context, index int, catalogue string, chunk []models.TextRecord) []models.AssignedRecord {
	start := time.Now()

	prompt, err := assignmentPrompt(catalogue, chunk)
	if err != nil {
		a.logger.Warn("chunk failed", "chunk", index, "records", len(chunk), "err", err)
		return fillSentinel(chunk, models.RequestFailedRecord)
	}

	res, err := a.gen.Generate(ctx, prompt, assignmentSchema)
	if err != nil {
		a.logger.Warn("chunk request failed", "chunk", index, "records", len(chunk), "err", err)
		return fillSentinel(chunk, models.RequestFailedRecord)
	}

	var replies []assignmentReply
	if err := assignmentSchema.Decode(res.Value, &replies); err != nil {
		a.logger.Warn("chunk response malformed", "chunk", index, "records", len(chunk), "err", err)
		return fillSentinel(chunk, models.MalformedRecord)
	}
	assigned := make([]models.AssignedRecord, len(replies))
	for i, r := range replies {
		assigned[i] = models.AssignedRecord{ID: r.ID, OriginalText: r.OriginalText, Topic: r.Topic, SubTopic: r.SubTopic}
	}

	a.logger.Debug("chunk settled",
		"chunk", index,
		"records", len(chunk),
		"assigned", len(assigned),
		"duration", time.Since(start).Round(time.Millisecond),
	)
	return assigned
}

func fillSentinel(chunk []models.TextRecord, mark func(models.TextRecord) models.AssignedRecord) []models.AssignedRecord {
	out := make([]models.AssignedRecord, len(chunk))
	for i, rec := range chunk {
		out[i] = mark(rec)
	}
	return out
}

// reassemble maps chunk results back onto the original record order by id.
// Ids the model dropped get the unassigned sentinel; when an id appears more
// than once the last occurrence wins.
func reassemble(records []models.TextRecord, results [][]models.AssignedRecord) []models.AssignedRecord {
	byID := make(map[string]models.AssignedRecord, len(records))
	for _, chunk := range results {
		for _, r := range chunk {
			byID[r.ID] = r
		}
	}

	out := make([]models.AssignedRecord, len(records))
	for i, rec := range records {
		if r, ok := byID[rec.ID]; ok {
			out[i] = r
		} else {
			out[i] = models.UnassignedRecord(rec)
		}
	}
	return out
}
