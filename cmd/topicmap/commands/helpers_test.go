// ABOUTME: Shared fakes for command tests
// ABOUTME: Provides a scripted generator, a temp database and a root command runner

package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/harper/topicmap/internal/config"
	"github.com/harper/topicmap/internal/llm"
	"github.com/harper/topicmap/internal/models"
)

const assignMarker = "Texts to analyze (ID and text pairs):\n---\n"

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

// scriptedGenerator puts texts mentioning "late" under Delivery/Speed and
// everything else under Other/Miscellaneous
func scriptedGenerator() llm.Generator {
	return llm.GeneratorFunc(func(ctx context.Context, prompt string, schema *llm.OutputSchema) (llm.Result, error) {
		if schema == nil {
			return llm.Result{Text: "Deliveries are often late."}, nil
		}
		switch schema.Name {
		case "keywords":
			return llm.Result{Value: toValue([]string{"late", "parcel", "staff"})}, nil
		case "topics":
			return llm.Result{Value: toValue([]map[string]any{
				{"topic": "Delivery", "description": "Shipping times", "subTopics": []string{"Speed", "Damage", "Tracking"}},
			})}, nil
		case "assignments":
			i := strings.Index(prompt, assignMarker)
			body := prompt[i+len(assignMarker):]
			if j := strings.Index(body, "\n---"); j >= 0 {
				body = body[:j]
			}
			var chunk []models.TextRecord
			if err := json.Unmarshal([]byte(body), &chunk); err != nil {
				return llm.Result{}, err
			}
			out := make([]models.AssignedRecord, len(chunk))
			for k, r := range chunk {
				out[k] = models.AssignedRecord{ID: r.ID, OriginalText: r.Text, Topic: "Other", SubTopic: "Miscellaneous"}
				if strings.Contains(r.Text, "late") {
					out[k].Topic, out[k].SubTopic = "Delivery", "Speed"
				}
			}
			return llm.Result{Value: toValue(out)}, nil
		}
		return llm.Result{}, errors.New("unexpected schema " + schema.Name)
	})
}

// useGenerator swaps the model client factory for the duration of the test
func useGenerator(t *testing.T, gen llm.Generator) {
	t.Helper()
	original := newGenerator
	newGenerator = func(cfg *config.Config, logger *log.Logger) (llm.Generator, error) {
		return gen, nil
	}
	t.Cleanup(func() { newGenerator = original })
}

// useTempDB points TOPICMAP_DB at a fresh database file
func useTempDB(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "topicmap.db")
	t.Setenv("TOPICMAP_DB", path)
	t.Setenv("TOPICMAP_LOG_LEVEL", "error")
	return path
}

// writeSurvey writes a small survey CSV and returns its path
func writeSurvey(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "survey.csv")
	content := "comment,kpt_type,prefecture\n" +
		"the parcel was late,Problem,Tokyo\n" +
		"nice staff,Keep,Osaka\n" +
		",Keep,Osaka\n" +
		"late again,Problem,Tokyo\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing survey: %v", err)
	}
	return path
}

// run executes the root command with args and returns stdout
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), err
}

// mustRun is run that fails the test on error
func mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := run(t, args...)
	if err != nil {
		t.Fatalf("topicmap %s: %v", strings.Join(args, " "), err)
	}
	return out
}
