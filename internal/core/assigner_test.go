// ABOUTME: Tests for BatchAssigner fan-out, failure isolation, progress and reassembly
// ABOUTME: Uses scripted generators that fail, omit ids or complete out of order
package core

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/harper/topicmap/internal/llm"
	"github.com/harper/topicmap/internal/models"
)

func echoGenerator() *recordingGenerator {
	return &recordingGenerator{fn: func(ctx context.Context, prompt string, schema *llm.OutputSchema) (llm.Result, error) {
		return llm.Result{Value: toValue(echoAssignments(chunkFromPrompt(prompt)))}, nil
	}}
}

func TestAssign_EmptyInputs(t *testing.T) {
	tests := []struct {
		name    string
		records []models.TextRecord
		topics  []models.Topic
	}{
		{"no records", nil, sampleTopics()},
		{"no topics", makeRecords(3), nil},
		{"neither", nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := echoGenerator()
			calls := 0
			a := NewBatchAssigner(gen, DefaultOptions(), nil)

			got, err := a.Assign(context.Background(), tt.records, tt.topics, func(int) { calls++ })
			if err != nil {
				t.Fatalf("Assign() error = %v", err)
			}
			if got == nil || len(got) != 0 {
				t.Errorf("Assign() = %v, want empty non-nil slice", got)
			}
			if gen.callCount() != 0 {
				t.Errorf("generator called %d times, want 0", gen.callCount())
			}
			if calls != 0 {
				t.Errorf("progress called %d times, want 0", calls)
			}
		})
	}
}

func TestAssign_MiddleChunkFails(t *testing.T) {
	gen := &recordingGenerator{fn: func(ctx context.Context, prompt string, schema *llm.OutputSchema) (llm.Result, error) {
		chunk := chunkFromPrompt(prompt)
		if chunk[0].ID == "row-20" {
			return llm.Result{}, &llm.RemoteCallError{Op: "chat completion", StatusCode: 503, Err: errors.New("overloaded")}
		}
		return llm.Result{Value: toValue(echoAssignments(chunk))}, nil
	}}
	progress := &progressRecorder{}
	records := makeRecords(45)

	got, err := NewBatchAssigner(gen, DefaultOptions(), nil).Assign(context.Background(), records, sampleTopics(), progress.record)
	if err != nil {
		t.Fatalf("Assign() error = %v", err)
	}
	if gen.callCount() != 3 {
		t.Errorf("generator called %d times, want 3", gen.callCount())
	}
	if len(got) != 45 {
		t.Fatalf("len(result) = %d, want 45", len(got))
	}

	for i, r := range got {
		if r.ID != records[i].ID {
			t.Fatalf("result[%d].ID = %s, want %s", i, r.ID, records[i].ID)
		}
		inFailedChunk := i >= 20 && i < 40
		if inFailedChunk {
			if r.Topic != models.SentinelTopicError || r.SubTopic != models.SentinelRequestFailed {
				t.Errorf("result[%d] = (%s,%s), want request-failed sentinel", i, r.Topic, r.SubTopic)
			}
			if r.OriginalText != records[i].Text {
				t.Errorf("sentinel result[%d] should keep original text", i)
			}
		} else if r.Topic != "topic-"+records[i].Text {
			t.Errorf("result[%d].Topic = %s, want model assignment", i, r.Topic)
		}
	}
	assertProgress(t, progress.snapshot(), 3)
}

func TestAssign_MalformedChunkIsolated(t *testing.T) {
	gen := &recordingGenerator{fn: func(ctx context.Context, prompt string, schema *llm.OutputSchema) (llm.Result, error) {
		chunk := chunkFromPrompt(prompt)
		assigned := toValue(echoAssignments(chunk)).([]any)
		if chunk[0].ID == "row-0" {
			// drop subTopic from a single item
			delete(assigned[1].(map[string]any), "subTopic")
		}
		return llm.Result{Value: assigned}, nil
	}}
	opts := DefaultOptions()
	opts.BatchSize = 3

	got, err := NewBatchAssigner(gen, opts, nil).Assign(context.Background(), makeRecords(6), sampleTopics(), nil)
	if err != nil {
		t.Fatalf("Assign() error = %v", err)
	}
	for i := 0; i < 3; i++ {
		if got[i].Topic != models.SentinelTopicError || got[i].SubTopic != models.SentinelMalformed {
			t.Errorf("result[%d] = (%s,%s), want malformed sentinel", i, got[i].Topic, got[i].SubTopic)
		}
	}
	for i := 3; i < 6; i++ {
		if got[i].IsSentinel() {
			t.Errorf("result[%d] should not be affected by the malformed chunk", i)
		}
	}
}

func TestAssign_NonArrayResponseIsMalformed(t *testing.T) {
	gen := &recordingGenerator{fn: func(ctx context.Context, prompt string, schema *llm.OutputSchema) (llm.Result, error) {
		return llm.Result{Value: jsonValue(t, `{"id":"row-0"}`)}, nil
	}}
	got, err := NewBatchAssigner(gen, DefaultOptions(), nil).Assign(context.Background(), makeRecords(2), sampleTopics(), nil)
	if err != nil {
		t.Fatalf("Assign() error = %v", err)
	}
	for i, r := range got {
		if r.SubTopic != models.SentinelMalformed {
			t.Errorf("result[%d].SubTopic = %s, want %s", i, r.SubTopic, models.SentinelMalformed)
		}
	}
}

func TestAssign_OmittedIDIsUnassigned(t *testing.T) {
	gen := &recordingGenerator{fn: func(ctx context.Context, prompt string, schema *llm.OutputSchema) (llm.Result, error) {
		return llm.Result{Value: jsonValue(t,
			`[{"id":"row-0","originalText":"text 0","topic":"Delivery","subTopic":"Speed"}]`)}, nil
	}}

	got, err := NewBatchAssigner(gen, DefaultOptions(), nil).Assign(context.Background(), makeRecords(2), sampleTopics(), nil)
	if err != nil {
		t.Fatalf("Assign() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len(result) = %d, want 2", len(got))
	}
	if got[0].ID != "row-0" || got[0].Topic != "Delivery" || got[0].SubTopic != "Speed" {
		t.Errorf("result[0] = %+v, want model assignment", got[0])
	}
	want := models.AssignedRecord{ID: "row-1", OriginalText: "text 1", Topic: models.SentinelUnassigned, SubTopic: models.SentinelUnassigned}
	if got[1] != want {
		t.Errorf("result[1] = %+v, want %+v", got[1], want)
	}
}

func TestAssign_IgnoresModelCategoryAndRegion(t *testing.T) {
	gen := &recordingGenerator{fn: func(ctx context.Context, prompt string, schema *llm.OutputSchema) (llm.Result, error) {
		return llm.Result{Value: jsonValue(t,
			`[{"id":"row-0","originalText":"text 0","topic":"Delivery","subTopic":"Speed","category":"MODEL","region":"MODEL"}]`)}, nil
	}}

	got, err := NewBatchAssigner(gen, DefaultOptions(), nil).Assign(context.Background(), makeRecords(1), sampleTopics(), nil)
	if err != nil {
		t.Fatalf("Assign() error = %v", err)
	}
	want := models.AssignedRecord{ID: "row-0", OriginalText: "text 0", Topic: "Delivery", SubTopic: "Speed"}
	if len(got) != 1 || got[0] != want {
		t.Errorf("result = %+v, want %+v", got, want)
	}
}

func TestAssign_OutOfOrderCompletion(t *testing.T) {
	// Earlier chunks finish last.
	gen := &recordingGenerator{fn: func(ctx context.Context, prompt string, schema *llm.OutputSchema) (llm.Result, error) {
		chunk := chunkFromPrompt(prompt)
		idx, _ := models.ParseRowID(chunk[0].ID)
		time.Sleep(time.Duration(50-idx) * time.Millisecond)
		return llm.Result{Value: toValue(echoAssignments(chunk))}, nil
	}}
	opts := DefaultOptions()
	opts.BatchSize = 5
	progress := &progressRecorder{}
	records := makeRecords(48)

	got, err := NewBatchAssigner(gen, opts, nil).Assign(context.Background(), records, sampleTopics(), progress.record)
	if err != nil {
		t.Fatalf("Assign() error = %v", err)
	}
	if len(got) != len(records) {
		t.Fatalf("len(result) = %d, want %d", len(got), len(records))
	}
	for i := range records {
		if got[i].ID != records[i].ID || got[i].Topic != "topic-"+records[i].Text {
			t.Errorf("result[%d] = %+v, want id %s", i, got[i], records[i].ID)
		}
	}
	assertProgress(t, progress.snapshot(), 10)
}

func TestAssign_MaxConcurrency(t *testing.T) {
	var inFlight, peak int32
	gen := &recordingGenerator{fn: func(ctx context.Context, prompt string, schema *llm.OutputSchema) (llm.Result, error) {
		n := atomic.AddInt32(&inFlight, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		atomic.AddInt32(&inFlight, -1)
		return llm.Result{Value: toValue(echoAssignments(chunkFromPrompt(prompt)))}, nil
	}}
	opts := DefaultOptions()
	opts.BatchSize = 2
	opts.MaxConcurrency = 2

	got, err := NewBatchAssigner(gen, opts, nil).Assign(context.Background(), makeRecords(20), sampleTopics(), nil)
	if err != nil {
		t.Fatalf("Assign() error = %v", err)
	}
	if len(got) != 20 {
		t.Errorf("len(result) = %d, want 20", len(got))
	}
	if peak > 2 {
		t.Errorf("peak in-flight calls = %d, want <= 2", peak)
	}
}

func TestAssign_UnboundedFanOut(t *testing.T) {
	const chunks = 4
	var wg sync.WaitGroup
	wg.Add(chunks)
	gen := &recordingGenerator{fn: func(ctx context.Context, prompt string, schema *llm.OutputSchema) (llm.Result, error) {
		// every chunk must be in flight before any can finish
		wg.Done()
		wg.Wait()
		return llm.Result{Value: toValue(echoAssignments(chunkFromPrompt(prompt)))}, nil
	}}
	opts := DefaultOptions()
	opts.BatchSize = 1

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = NewBatchAssigner(gen, opts, nil).Assign(context.Background(), makeRecords(chunks), sampleTopics(), nil)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("chunks were not dispatched concurrently")
	}
}

func TestAssign_CancelledContext(t *testing.T) {
	gen := &recordingGenerator{fn: func(ctx context.Context, prompt string, schema *llm.OutputSchema) (llm.Result, error) {
		if err := ctx.Err(); err != nil {
			return llm.Result{}, &llm.RemoteCallError{Op: "chat completion", Err: err}
		}
		return llm.Result{Value: toValue(echoAssignments(chunkFromPrompt(prompt)))}, nil
	}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	progress := &progressRecorder{}

	got, err := NewBatchAssigner(gen, DefaultOptions(), nil).Assign(ctx, makeRecords(25), sampleTopics(), progress.record)
	if err != nil {
		t.Fatalf("Assign() error = %v", err)
	}
	if len(got) != 25 {
		t.Fatalf("len(result) = %d, want 25", len(got))
	}
	for i, r := range got {
		if r.SubTopic != models.SentinelRequestFailed {
			t.Errorf("result[%d].SubTopic = %s, want request-failed", i, r.SubTopic)
		}
	}
	assertProgress(t, progress.snapshot(), 2)
}

func TestAssign_PanicIsReported(t *testing.T) {
	gen := &recordingGenerator{fn: func(ctx context.Context, prompt string, schema *llm.OutputSchema) (llm.Result, error) {
		panic("boom")
	}}
	progress := &progressRecorder{}

	_, err := NewBatchAssigner(gen, DefaultOptions(), nil).Assign(context.Background(), makeRecords(3), sampleTopics(), progress.record)
	if err == nil || !strings.Contains(err.Error(), "boom") {
		t.Errorf("err = %v, want panic to surface as an error", err)
	}
	if len(progress.snapshot()) != 1 {
		t.Errorf("progress should still settle once per chunk")
	}
}

func TestAssign_PromptUsesCatalogueWithoutDescriptions(t *testing.T) {
	gen := echoGenerator()
	_, err := NewBatchAssigner(gen, DefaultOptions(), nil).Assign(context.Background(), makeRecords(1), sampleTopics(), nil)
	if err != nil {
		t.Fatalf("Assign() error = %v", err)
	}

	prompt := gen.prompts[0]
	if strings.Contains(prompt, "Shipping and arrival times") {
		t.Error("prompt should not include topic descriptions")
	}
	for _, want := range []string{`"Delivery"`, `"Speed"`, `"Other"`, `"row-0"`, "text 0"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %s", want)
		}
	}
	if gen.schemas[0] == nil || !gen.schemas[0].IsArray() {
		t.Error("assignment should request an array schema")
	}
}

func TestProgressCounter_Rounding(t *testing.T) {
	tests := []struct {
		total int
		want  []int
	}{
		{1, []int{100}},
		{2, []int{50, 100}},
		{3, []int{33, 67, 100}},
		{8, []int{13, 25, 38, 50, 63, 75, 88, 100}},
	}
	for _, tt := range tests {
		var got []int
		p := &progressCounter{total: tt.total, fn: func(v int) { got = append(got, v) }}
		for i := 0; i < tt.total; i++ {
			p.settle()
		}
		if len(got) != len(tt.want) {
			t.Fatalf("total %d: got %v, want %v", tt.total, got, tt.want)
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("total %d: got %v, want %v", tt.total, got, tt.want)
				break
			}
		}
	}
}
