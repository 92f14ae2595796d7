// ABOUTME: Text generation client backed by the OpenAI chat completions API
// ABOUTME: One request per call, optional json_schema structured output, no retries
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	openai "github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"
)

const (
	// DefaultChatModel is the default model for chat completions
	DefaultChatModel = "gpt-4o-mini"
	// DefaultTimeout bounds a single generation call
	DefaultTimeout = 60 * time.Second

	// arrayEnvelopeKey wraps array-rooted schemas, since structured outputs require an object root
	arrayEnvelopeKey = "items"
)

// Generator produces either schema-conformant JSON or raw text for a prompt.
// Prompts are submitted as-is; truncation is the caller's job.
type Generator interface {
	Generate(ctx context.Context, prompt string, schema *OutputSchema) (Result, error)
}

// GeneratorFunc adapts a plain function to the Generator interface
type GeneratorFunc func(ctx context.Context, prompt string, schema *OutputSchema) (Result, error)

// Generate calls f(ctx, prompt, schema)
func (f GeneratorFunc) Generate(ctx context.Context, prompt string, schema *OutputSchema) (Result, error) {
	return f(ctx, prompt, schema)
}

// Result is the outcome of a generation call.
// Value holds decoded JSON when a schema was requested; Text always holds the raw reply.
type Result struct {
	Text  string
	Value any
}

// ClientConfig holds configuration for the OpenAI client
type ClientConfig struct {
	APIKey      string
	BaseURL     string
	ChatModel   string
	Temperature float32
	Timeout     time.Duration
	Logger      *log.Logger
}

// DefaultConfig returns the default client configuration
func DefaultConfig(apiKey string) *ClientConfig {
	return &ClientConfig{
		APIKey:      apiKey,
		ChatModel:   DefaultChatModel,
		Temperature: 0.2,
		Timeout:     DefaultTimeout,
	}
}

// chatCompleter is the subset of *openai.Client used here
type chatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenAIClient wraps the OpenAI API client
type OpenAIClient struct {
	client      chatCompleter
	chatModel   string
	temperature float32
	timeout     time.Duration
	logger      *log.Logger
}

// NewOpenAIClient creates a new OpenAI client with the given API key using default configuration
func NewOpenAIClient(apiKey string) (*OpenAIClient, error) {
	return NewOpenAIClientWithConfig(DefaultConfig(apiKey))
}

// NewOpenAIClientWithConfig creates a new OpenAI client with custom configuration
func NewOpenAIClientWithConfig(config *ClientConfig) (*OpenAIClient, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	oaiConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		oaiConfig.BaseURL = config.BaseURL
	}

	return newClient(openai.NewClientWithConfig(oaiConfig), config), nil
}

func newClient(cc chatCompleter, config *ClientConfig) *OpenAIClient {
	model := config.ChatModel
	if model == "" {
		model = DefaultChatModel
	}
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	logger := config.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &OpenAIClient{
		client:      cc,
		chatModel:   model,
		temperature: config.Temperature,
		timeout:     timeout,
		logger:      logger,
	}
}

// Model returns the chat model in use
func (c *OpenAIClient) Model() string {
	return c.chatModel
}

// Generate sends one chat completion request. With a schema the reply is parsed as JSON
// and returned in Result.Value; without one the raw text is returned.
func (c *OpenAIClient) Generate(ctx context.Context, prompt string, schema *OutputSchema) (Result, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req := openai.ChatCompletionRequest{
		Model: c.chatModel,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
		Temperature: c.temperature,
	}
	if schema != nil {
		def := requestSchema(schema)
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   schema.Name,
				Schema: &def,
				Strict: true,
			},
		}
	}

	start := time.Now()
	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return Result{}, &RemoteCallError{Op: "chat completion", StatusCode: statusCode(err), Err: err}
	}
	if len(resp.Choices) == 0 {
		return Result{}, &RemoteCallError{Op: "chat completion", Err: errors.New("no completion choices returned")}
	}
	content := resp.Choices[0].Message.Content
	c.logger.Debug("generation complete",
		"model", c.chatModel,
		"structured", schema != nil,
		"prompt_chars", len(prompt),
		"duration", time.Since(start).Round(time.Millisecond),
	)

	if schema == nil {
		return Result{Text: content}, nil
	}

	cleaned := StripCodeFence(content)
	var value any
	if err := json.Unmarshal([]byte(cleaned), &value); err != nil {
		return Result{}, &RemoteCallError{Op: "parse structured output", Err: fmt.Errorf("failed to parse JSON: %w", err)}
	}
	return Result{Text: cleaned, Value: unwrapEnvelope(schema, value)}, nil
}

// requestSchema returns the definition actually sent to the API, wrapping array roots in an object
func requestSchema(schema *OutputSchema) jsonschema.Definition {
	if !schema.IsArray() {
		return schema.Definition
	}
	return Object(map[string]jsonschema.Definition{arrayEnvelopeKey: schema.Definition}, arrayEnvelopeKey)
}

// unwrapEnvelope undoes requestSchema. Bare arrays from servers that ignore the envelope pass through.
func unwrapEnvelope(schema *OutputSchema, value any) any {
	if !schema.IsArray() {
		return value
	}
	if obj, ok := value.(map[string]any); ok {
		if inner, ok := obj[arrayEnvelopeKey]; ok && len(obj) == 1 {
			return inner
		}
	}
	return value
}

// StripCodeFence removes a surrounding markdown code fence (```json ... ```) if present
func StripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		// drop the language tag line, e.g. "json"
		if tag := strings.TrimSpace(s[:nl]); !strings.ContainsAny(tag, "[{\"") {
			s = s[nl+1:]
		}
	} else {
		s = strings.TrimPrefix(s, "json")
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
