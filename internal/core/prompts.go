// ABOUTME: Prompt templates and output schemas for the generation calls
// ABOUTME: Keeps the wording for keyword, taxonomy, assignment and question prompts in one place
package core

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/harper/topicmap/internal/llm"
	"github.com/harper/topicmap/internal/models"
	"github.com/sashabaranov/go-openai/jsonschema"
)

var (
	keywordSchema = llm.ArrayOf("keywords",
		"Distinctive keywords or key phrases extracted from the text.",
		llm.StringField("A single keyword or key phrase."))

	topicSchema = llm.ArrayOf("topics",
		"Main topics and their subtopics extracted from the text.",
		llm.Object(map[string]jsonschema.Definition{
			"topic":       llm.StringField("Short title of the topic."),
			"description": llm.StringField("One or two sentence description of the topic."),
			"subTopics":   llm.StringArrayField("Subtopics belonging to this topic."),
		}, "topic", "description", "subTopics"))

	assignmentSchema = llm.ArrayOf("assignments",
		"Topic and subtopic assigned to each input text.",
		llm.Object(map[string]jsonschema.Definition{
			"id":           llm.StringField("ID of the input entry."),
			"originalText": llm.StringField("The original text."),
			"topic":        llm.StringField("Assigned topic name."),
			"subTopic":     llm.StringField("Assigned subtopic name."),
		}, "id", "originalText", "topic", "subTopic"))
)

func keywordPrompt(corpus string, count int) string {
	return fmt.Sprintf(`Extract %d keywords or key phrases that characterize the following text data. Exclude stop words such as articles, particles and conjunctions. Return the result as a JSON array of keyword strings.

Text data:
---
%s
---
`, count, corpus)
}

func topicPrompt(corpus string, count int) string {
	return fmt.Sprintf(`Analyze the following list of texts and extract %d main topics. Associate 3 to 5 specific subtopics with each topic.
Give each topic a concise title and a description of one or two sentences.
Analyze only the content of the supplied texts; do not guess at or use any other information.
Return the result as a JSON array of objects with the keys 'topic' (topic name), 'description' (description) and 'subTopics' (array of subtopic strings).

Texts to analyze:
---
%s
---
`, count, corpus)
}

// catalogueEntry is the topic shape shown to the assignment model; descriptions are omitted
type catalogueEntry struct {
	Topic     string   `json:"topic"`
	SubTopics []string `json:"subTopics"`
}

// topicCatalogue serializes topic names and subtopics once per Assign call
func topicCatalogue(topics []models.Topic) (string, error) {
	entries := make([]catalogueEntry, len(topics))
	for i, t := range topics {
		entries[i] = catalogueEntry{Topic: t.Name, SubTopics: t.SubTopics}
	}
	b, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to serialize topic catalogue: %w", err)
	}
	return string(b), nil
}

func assignmentPrompt(catalogue string, chunk []models.TextRecord) (string, error) {
	b, err := json.Marshal(chunk)
	if err != nil {
		return "", fmt.Errorf("failed to serialize chunk: %w", err)
	}
	return fmt.Sprintf(`Assign the most appropriate topic and subtopic from the list below to each item in the following list of texts.

If a text does not clearly fit any topic, set topic to %q and subTopic to %q.
Return the result as a JSON array of objects with the keys 'id' (ID of the input entry), 'originalText' (the original text), 'topic' (assigned topic name) and 'subTopic' (assigned subtopic name). Produce exactly one object for every input text.

Available topics and subtopics:
---
%s
---

Texts to analyze (ID and text pairs):
---
%s
---
`, models.CatchAllTopicName, models.CatchAllFallbackSubTopic, catalogue, string(b)), nil
}

// qaRow is the compact row shape embedded in question prompts
type qaRow struct {
	Text     string `json:"text"`
	Topic    string `json:"topic"`
	SubTopic string `json:"subTopic"`
	Category string `json:"category,omitempty"`
	Region   string `json:"region,omitempty"`
}

func questionPrompt(question string, history []models.Turn, rows []qaRow, total int) (string, error) {
	b, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to serialize rows: %w", err)
	}

	var sb strings.Builder
	sb.WriteString("You are an analyst answering questions about a set of classified text entries.\n")
	sb.WriteString("Answer using only the data below. If the data does not contain the answer, say so.\n\n")
	if len(history) > 0 {
		sb.WriteString("Conversation so far:\n")
		for _, t := range history {
			fmt.Fprintf(&sb, "%s: %s\n", t.Role, t.Content)
		}
		sb.WriteString("\n")
	}
	fmt.Fprintf(&sb, "Data (%d of %d entries shown):\n---\n%s\n---\n\n", len(rows), total, string(b))
	fmt.Fprintf(&sb, "Question: %s\n", question)
	return sb.String(), nil
}
