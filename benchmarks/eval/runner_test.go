// ABOUTME: Tests for the benchmark runner with scripted generators
// ABOUTME: Verifies scoring end to end, call counting and result export

package eval

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/harper/topicmap/internal/core"
	"github.com/harper/topicmap/internal/llm"
	"github.com/harper/topicmap/internal/models"
)

const assignMarker = "Texts to analyze (ID and text pairs):\n---\n"

func toValue(v any) any {
	b, _ := json.Marshal(v)
	var out any
	_ = json.Unmarshal(b, &out)
	return out
}

// keywordGenerator files texts containing "parcel" under Delivery and the rest under Staff.
// When failAssign is set every assignment call fails.
func keywordGenerator(failAssign bool) llm.Generator {
	return llm.GeneratorFunc(func(ctx context.Context, prompt string, schema *llm.OutputSchema) (llm.Result, error) {
		switch schema.Name {
		case "topics":
			return llm.Result{Value: toValue([]models.Topic{
				{Name: "Delivery", Description: "Shipping", SubTopics: []string{"Late"}},
				{Name: "Staff", Description: "People", SubTopics: []string{"Service"}},
			})}, nil
		case "assignments":
			if failAssign {
				return llm.Result{}, errors.New("model unavailable")
			}
			i := strings.Index(prompt, assignMarker)
			body := prompt[i+len(assignMarker):]
			body = body[:strings.Index(body, "\n---")]
			var chunk []models.TextRecord
			if err := json.Unmarshal([]byte(body), &chunk); err != nil {
				return llm.Result{}, err
			}
			out := make([]models.AssignedRecord, len(chunk))
			for k, r := range chunk {
				out[k] = models.AssignedRecord{ID: r.ID, OriginalText: r.Text, Topic: "Staff", SubTopic: "Service"}
				if strings.Contains(r.Text, "parcel") {
					out[k].Topic, out[k].SubTopic = "Delivery", "Late"
				}
			}
			return llm.Result{Value: toValue(out)}, nil
		}
		return llm.Result{}, errors.New("unexpected schema")
	})
}

func testScenario() Scenario {
	return Scenario{
		ID:   "unit",
		Name: "Unit scenario",
		Items: []LabeledText{
			{"parcel was late", "delivery"},
			{"rude staff", "staff"},
			{"parcel damaged", "delivery"},
			{"helpful staff", "staff"},
			{"parcel lost", "delivery"},
		},
	}
}

func testRunner(gen llm.Generator) *BenchmarkRunner {
	opts := core.DefaultOptions()
	opts.BatchSize = 2
	return NewBenchmarkRunner(gen, opts, log.New(io.Discard), true)
}

func TestRunScenario(t *testing.T) {
	tests := []struct {
		name          string
		failAssign    bool
		wantStatus    string
		wantCoverage  float64
		wantFailures  int
		wantFailedRow int
	}{
		{"perfect grouping", false, "PASS", 1, 0, 0},
		{"every chunk fails", true, "FAIL", 0, 3, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := testRunner(keywordGenerator(tt.failAssign)).RunScenario(context.Background(), testScenario())
			if err != nil {
				t.Fatalf("RunScenario() error = %v", err)
			}
			if res.Status != tt.wantStatus {
				t.Errorf("Status = %s, want %s", res.Status, tt.wantStatus)
			}
			if !approx(res.Coverage, tt.wantCoverage) {
				t.Errorf("Coverage = %v, want %v", res.Coverage, tt.wantCoverage)
			}
			if res.AssignCalls != 3 {
				t.Errorf("AssignCalls = %d, want 3", res.AssignCalls)
			}
			if res.ChunkFailures != tt.wantFailures || res.FailedRows != tt.wantFailedRow {
				t.Errorf("ChunkFailures = %d, FailedRows = %d", res.ChunkFailures, res.FailedRows)
			}
			if res.Rows != 5 || res.Topics != 3 {
				t.Errorf("Rows = %d, Topics = %d, want 5 and 3", res.Rows, res.Topics)
			}
		})
	}
}

func TestRunAll(t *testing.T) {
	s := testScenario()
	results, err := testRunner(keywordGenerator(false)).RunAll(context.Background(), []Scenario{s, s})
	if err != nil {
		t.Fatalf("RunAll() error = %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}

	broken := llm.GeneratorFunc(func(ctx context.Context, prompt string, schema *llm.OutputSchema) (llm.Result, error) {
		return llm.Result{}, errors.New("down")
	})
	if _, err := testRunner(broken).RunAll(context.Background(), []Scenario{s}); err == nil {
		t.Error("expected error when topic extraction fails")
	}
}

func TestExportResults(t *testing.T) {
	summary := Summarize([]Result{{ScenarioID: "a", Status: "PASS"}, {ScenarioID: "b", Status: "FAIL"}}, "gpt-test")
	if summary.Total != 2 || summary.Passed != 1 || summary.Failed != 1 {
		t.Errorf("unexpected summary: %+v", summary)
	}

	path := filepath.Join(t.TempDir(), "results.json")
	if err := ExportResults(summary, path); err != nil {
		t.Fatalf("ExportResults() error = %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading results: %v", err)
	}
	var decoded Summary
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("decoding results: %v", err)
	}
	if decoded.Model != "gpt-test" || len(decoded.Results) != 2 {
		t.Errorf("unexpected decoded summary: %+v", decoded)
	}
}
