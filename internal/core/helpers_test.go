// ABOUTME: Shared fakes for core tests
// ABOUTME: Provides scripted generators and helpers for reading records back out of prompts
package core

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/harper/topicmap/internal/llm"
	"github.com/harper/topicmap/internal/models"
)

// jsonValue decodes raw JSON into the generic form a Generator returns
func jsonValue(t *testing.T, raw string) any {
	t.Helper()
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		t.Fatalf("bad test JSON %q: %v", raw, err)
	}
	return v
}

// toValue round-trips v through JSON to mimic a decoded model reply
func toValue(v any) any {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	var out any
	if err := json.Unmarshal(b, &out); err != nil {
		panic(err)
	}
	return out
}

// chunkFromPrompt extracts the {id,text} pairs embedded in an assignment prompt
func chunkFromPrompt(prompt string) []models.TextRecord {
	const marker = "Texts to analyze (ID and text pairs):\n---\n"
	i := strings.Index(prompt, marker)
	if i < 0 {
		return nil
	}
	body := prompt[i+len(marker):]
	if j := strings.Index(body, "\n---"); j >= 0 {
		body = body[:j]
	}
	var recs []models.TextRecord
	if err := json.Unmarshal([]byte(body), &recs); err != nil {
		return nil
	}
	return recs
}

// echoAssignments answers an assignment prompt by labelling every record "topic-<text>"
func echoAssignments(chunk []models.TextRecord) []models.AssignedRecord {
	out := make([]models.AssignedRecord, len(chunk))
	for i, r := range chunk {
		out[i] = models.AssignedRecord{ID: r.ID, OriginalText: r.Text, Topic: "topic-" + r.Text, SubTopic: "sub"}
	}
	return out
}

// makeRecords builds n records with ids row-0..row-(n-1)
func makeRecords(n int) []models.TextRecord {
	recs := make([]models.TextRecord, n)
	for i := range recs {
		recs[i] = models.TextRecord{ID: models.RowID(i), Text: fmt.Sprintf("text %d", i)}
	}
	return recs
}

func sampleTopics() []models.Topic {
	return []models.Topic{
		{Name: "Delivery", Description: "Shipping and arrival times", SubTopics: []string{"Speed", "Damage"}},
		models.CatchAllTopic(),
	}
}

// recordingGenerator counts calls and records prompts
type recordingGenerator struct {
	mu      sync.Mutex
	calls   int
	prompts []string
	schemas []*llm.OutputSchema
	fn      func(ctx context.Context, prompt string, schema *llm.OutputSchema) (llm.Result, error)
}

func (g *recordingGenerator) Generate(ctx context.Context, prompt string, schema *llm.OutputSchema) (llm.Result, error) {
	g.mu.Lock()
	g.calls++
	g.prompts = append(g.prompts, prompt)
	g.schemas = append(g.schemas, schema)
	g.mu.Unlock()
	return g.fn(ctx, prompt, schema)
}

func (g *recordingGenerator) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

// progressRecorder collects progress callbacks safely
type progressRecorder struct {
	mu     sync.Mutex
	values []int
}

func (p *progressRecorder) record(v int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.values = append(p.values, v)
}

func (p *progressRecorder) snapshot() []int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]int(nil), p.values...)
}

func assertProgress(t *testing.T, got []int, chunks int) {
	t.Helper()
	if len(got) != chunks {
		t.Fatalf("progress called %d times, want %d (%v)", len(got), chunks, got)
	}
	for i := 1; i < len(got); i++ {
		if got[i] < got[i-1] {
			t.Errorf("progress decreased: %v", got)
		}
	}
	if got[len(got)-1] != 100 {
		t.Errorf("final progress = %d, want 100", got[len(got)-1])
	}
}
