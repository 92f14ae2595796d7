// ABOUTME: Benchmark runner that classifies each labeled scenario and scores the result
// ABOUTME: Wraps the generator to count assignment calls and failed chunks

package eval

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/harper/topicmap/internal/core"
	"github.com/harper/topicmap/internal/dataset"
	"github.com/harper/topicmap/internal/llm"
)

const textColumn = "text"

// callStats counts model calls made while classifying one scenario
type callStats struct {
	assignCalls  int
	assignErrors int
}

// countingGenerator records assignment calls and their request failures
type countingGenerator struct {
	gen   llm.Generator
	mu    sync.Mutex
	stats callStats
}

func (c *countingGenerator) Generate(ctx context.Context, prompt string, schema *llm.OutputSchema) (llm.Result, error) {
	res, err := c.gen.Generate(ctx, prompt, schema)
	if schema != nil && schema.Name == "assignments" {
		c.mu.Lock()
		c.stats.assignCalls++
		if err != nil {
			c.stats.assignErrors++
		}
		c.mu.Unlock()
	}
	return res, err
}

func (c *countingGenerator) snapshot() callStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// BenchmarkRunner executes scenarios against a generator
type BenchmarkRunner struct {
	gen     llm.Generator
	opts    core.Options
	logger  *log.Logger
	verbose bool
}

// NewBenchmarkRunner creates a runner; verbose logs each scenario's confusion table
func NewBenchmarkRunner(gen llm.Generator, opts core.Options, logger *log.Logger, verbose bool) *BenchmarkRunner {
	if logger == nil {
		logger = log.Default()
	}
	return &BenchmarkRunner{gen: gen, opts: opts, logger: logger, verbose: verbose}
}

// RunScenario classifies one scenario with a fresh analyzer and scores it
func (r *BenchmarkRunner) RunScenario(ctx context.Context, s Scenario) (Result, error) {
	counter := &countingGenerator{gen: r.gen}
	analyzer := core.NewAnalyzer(counter, r.opts, r.logger)

	start := time.Now()
	session, err := analyzer.Run(ctx, dataset.FromTexts(textColumn, s.Texts()), core.AnalyzeRequest{
		SourceFile: "benchmark:" + s.ID,
		Column:     textColumn,
	}, nil)
	if err != nil {
		return Result{}, fmt.Errorf("scenario %s: %w", s.ID, err)
	}

	res, err := Evaluate(s, session, counter.snapshot())
	if err != nil {
		return Result{}, err
	}
	res.Details["elapsed_ms"] = time.Since(start).Milliseconds()

	r.logger.Info("scenario complete",
		"scenario", s.ID,
		"coverage", fmt.Sprintf("%.2f", res.Coverage),
		"agreement", fmt.Sprintf("%.2f", res.Agreement),
		"status", res.Status)
	if r.verbose {
		for label, topics := range res.Details["confusion"].(map[string]map[string]int) {
			r.logger.Info("label spread", "label", label, "topics", topics)
		}
	}
	return res, nil
}

// RunAll executes every scenario in order, stopping at the first error
func (r *BenchmarkRunner) RunAll(ctx context.Context, scenarios []Scenario) ([]Result, error) {
	results := make([]Result, 0, len(scenarios))
	for _, s := range scenarios {
		res, err := r.RunScenario(ctx, s)
		if err != nil {
			return nil, err
		}
		results = append(results, res)
	}
	return results, nil
}

// Summary is the JSON document written by ExportResults
type Summary struct {
	Timestamp string   `json:"timestamp"`
	Model     string   `json:"model,omitempty"`
	Total     int      `json:"total"`
	Passed    int      `json:"passed"`
	Failed    int      `json:"failed"`
	Results   []Result `json:"results"`
}

// Summarize counts passing and failing results
func Summarize(results []Result, model string) Summary {
	s := Summary{
		Timestamp: time.Now().Format(time.RFC3339),
		Model:     model,
		Total:     len(results),
		Results:   results,
	}
	for _, r := range results {
		if r.Status == "PASS" {
			s.Passed++
		} else {
			s.Failed++
		}
	}
	return s
}

// ExportResults writes the summary as indented JSON
func ExportResults(summary Summary, outputPath string) error {
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	if err := os.WriteFile(outputPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write results file: %w", err)
	}
	return nil
}
