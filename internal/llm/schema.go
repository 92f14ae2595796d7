// ABOUTME: OutputSchema describes the structured JSON a generation call must return
// ABOUTME: Decode is the single shape-validation step shared by taxonomy, keyword and assignment paths
package llm

import (
	"encoding/json"
	"fmt"

	"github.com/sashabaranov/go-openai/jsonschema"
)

// OutputSchema names a JSON schema for structured generation
type OutputSchema struct {
	Name       string
	Definition jsonschema.Definition
}

// ArrayOf builds a schema whose root is an array of the given item definition
func ArrayOf(name, description string, item jsonschema.Definition) *OutputSchema {
	return &OutputSchema{
		Name: name,
		Definition: jsonschema.Definition{
			Type:        jsonschema.Array,
			Description: description,
			Items:       &item,
		},
	}
}

// StringField is a convenience for a described string property
func StringField(description string) jsonschema.Definition {
	return jsonschema.Definition{Type: jsonschema.String, Description: description}
}

// StringArrayField is a convenience for a described array-of-strings property
func StringArrayField(description string) jsonschema.Definition {
	return jsonschema.Definition{
		Type:        jsonschema.Array,
		Description: description,
		Items:       &jsonschema.Definition{Type: jsonschema.String},
	}
}

// Object builds a closed object definition where every property is required
func Object(properties map[string]jsonschema.Definition, required ...string) jsonschema.Definition {
	return jsonschema.Definition{
		Type:                 jsonschema.Object,
		Properties:           properties,
		Required:             required,
		AdditionalProperties: false,
	}
}

// IsArray reports whether the schema root is an array
func (s *OutputSchema) IsArray() bool {
	return s != nil && s.Definition.Type == jsonschema.Array
}

// Decode validates value against the schema and, on success, converts it into dst.
// A mismatch is returned as *ShapeError so callers can recover instead of failing.
func (s *OutputSchema) Decode(value any, dst any) error {
	if s == nil {
		return &ShapeError{Schema: "<nil>", Reason: "no schema supplied"}
	}
	if value == nil {
		return &ShapeError{Schema: s.Name, Reason: "empty response"}
	}
	if !jsonschema.Validate(s.Definition, value) {
		return &ShapeError{Schema: s.Name, Reason: describeMismatch(s.Definition, value)}
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return &ShapeError{Schema: s.Name, Reason: err.Error()}
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return &ShapeError{Schema: s.Name, Reason: err.Error()}
	}
	return nil
}

// describeMismatch produces a short human-readable reason for a failed validation
func describeMismatch(def jsonschema.Definition, value any) string {
	switch def.Type {
	case jsonschema.Array:
		items, ok := value.([]any)
		if !ok {
			return fmt.Sprintf("expected array, got %T", value)
		}
		if def.Items != nil {
			for i, item := range items {
				if !jsonschema.Validate(*def.Items, item) {
					return fmt.Sprintf("item %d: %s", i, describeMismatch(*def.Items, item))
				}
			}
		}
	case jsonschema.Object:
		obj, ok := value.(map[string]any)
		if !ok {
			return fmt.Sprintf("expected object, got %T", value)
		}
		for _, key := range def.Required {
			if _, present := obj[key]; !present {
				return fmt.Sprintf("missing required field %q", key)
			}
		}
		for key, prop := range def.Properties {
			if v, present := obj[key]; present && !jsonschema.Validate(prop, v) {
				return fmt.Sprintf("field %q has wrong type %T", key, v)
			}
		}
	case jsonschema.String:
		if _, ok := value.(string); !ok {
			return fmt.Sprintf("expected string, got %T", value)
		}
	}
	return "value does not match schema"
}
