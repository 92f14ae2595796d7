// ABOUTME: Centralized configuration for topicmap commands and the MCP server
// ABOUTME: Loads from environment variables with validation and defaults
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/harper/topicmap/internal/charm"
	"github.com/harper/topicmap/internal/core"
	"github.com/harper/topicmap/internal/llm"
)

// Config holds all configuration for topicmap
type Config struct {
	// Charm settings
	CharmHost      string
	CharmDBName    string
	AutoSync       bool
	SyncRetries    int
	SyncRetryDelay time.Duration

	// OpenAI settings
	OpenAIKey   string
	BaseURL     string
	ChatModel   string
	Temperature float64
	Timeout     time.Duration

	// Pipeline settings
	BatchSize          int
	MaxConcurrency     int
	TopicCorpusLimit   int
	KeywordCorpusLimit int
	TopicCount         int
	KeywordCount       int
	QAHistoryTurns     int
	QAMaxRows          int
	QATextLimit        int

	// Storage and logging
	DBPath   string
	LogLevel string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		CharmHost:          getEnv("CHARM_HOST", "cloud.charm.sh"),
		CharmDBName:        getEnv("CHARM_DB", "topicmap"),
		AutoSync:           getEnvBool("CHARM_AUTO_SYNC", true),
		SyncRetries:        getEnvInt("CHARM_SYNC_RETRIES", 3),
		SyncRetryDelay:     getEnvDuration("CHARM_SYNC_RETRY_DELAY", 2*time.Second),
		OpenAIKey:          os.Getenv("OPENAI_API_KEY"),
		BaseURL:            os.Getenv("OPENAI_BASE_URL"),
		ChatModel:          getEnv("TOPICMAP_OPENAI_MODEL", llm.DefaultChatModel),
		Temperature:        getEnvFloat("TOPICMAP_TEMPERATURE", 0.2),
		Timeout:            getEnvDuration("OPENAI_TIMEOUT", llm.DefaultTimeout),
		BatchSize:          getEnvInt("TOPICMAP_BATCH_SIZE", core.DefaultBatchSize),
		MaxConcurrency:     getEnvInt("TOPICMAP_MAX_CONCURRENCY", 0),
		TopicCorpusLimit:   getEnvInt("TOPICMAP_TOPIC_CORPUS_LIMIT", core.DefaultTopicCorpusLimit),
		KeywordCorpusLimit: getEnvInt("TOPICMAP_KEYWORD_CORPUS_LIMIT", core.DefaultKeywordCorpusLimit),
		TopicCount:         getEnvInt("TOPICMAP_TOPIC_COUNT", core.DefaultTopicCount),
		KeywordCount:       getEnvInt("TOPICMAP_KEYWORD_COUNT", core.DefaultKeywordCount),
		QAHistoryTurns:     getEnvInt("TOPICMAP_QA_HISTORY_TURNS", core.DefaultQAHistoryTurns),
		QAMaxRows:          getEnvInt("TOPICMAP_QA_MAX_ROWS", core.DefaultQAMaxRows),
		QATextLimit:        getEnvInt("TOPICMAP_QA_TEXT_LIMIT", core.DefaultQATextLimit),
		DBPath:             os.Getenv("TOPICMAP_DB"),
		LogLevel:           getEnv("TOPICMAP_LOG_LEVEL", "info"),
	}

	return cfg, cfg.Validate()
}

// Validate checks ranges; errors name the offending variable
func (c *Config) Validate() error {
	if c.BatchSize < 1 || c.BatchSize > 500 {
		return fmt.Errorf("TOPICMAP_BATCH_SIZE must be 1-500, got %d", c.BatchSize)
	}
	if c.MaxConcurrency < 0 {
		return fmt.Errorf("TOPICMAP_MAX_CONCURRENCY must be >= 0, got %d", c.MaxConcurrency)
	}
	if c.TopicCount < 4 || c.TopicCount > 8 {
		return fmt.Errorf("TOPICMAP_TOPIC_COUNT must be 4-8, got %d", c.TopicCount)
	}
	positives := []struct {
		name  string
		value int
	}{
		{"TOPICMAP_TOPIC_CORPUS_LIMIT", c.TopicCorpusLimit},
		{"TOPICMAP_KEYWORD_CORPUS_LIMIT", c.KeywordCorpusLimit},
		{"TOPICMAP_KEYWORD_COUNT", c.KeywordCount},
		{"TOPICMAP_QA_HISTORY_TURNS", c.QAHistoryTurns},
		{"TOPICMAP_QA_MAX_ROWS", c.QAMaxRows},
		{"TOPICMAP_QA_TEXT_LIMIT", c.QATextLimit},
	}
	for _, p := range positives {
		if p.value < 1 {
			return fmt.Errorf("%s must be positive, got %d", p.name, p.value)
		}
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("TOPICMAP_TEMPERATURE must be 0-2, got %f", c.Temperature)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("OPENAI_TIMEOUT must be positive, got %v", c.Timeout)
	}
	if c.SyncRetries < 0 || c.SyncRetries > 10 {
		return fmt.Errorf("CHARM_SYNC_RETRIES must be 0-10, got %d", c.SyncRetries)
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("TOPICMAP_LOG_LEVEL %q is not a valid level", c.LogLevel)
	}
	return nil
}

// RequireAPIKey returns an error when no OpenAI key is configured
func (c *Config) RequireAPIKey() error {
	if c.OpenAIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY environment variable not set")
	}
	return nil
}

// CoreOptions maps pipeline settings onto core.Options
func (c *Config) CoreOptions() core.Options {
	return core.Options{
		BatchSize:          c.BatchSize,
		MaxConcurrency:     c.MaxConcurrency,
		TopicCorpusLimit:   c.TopicCorpusLimit,
		KeywordCorpusLimit: c.KeywordCorpusLimit,
		TopicCount:         c.TopicCount,
		KeywordCount:       c.KeywordCount,
		QAHistoryTurns:     c.QAHistoryTurns,
		QAMaxRows:          c.QAMaxRows,
		QATextLimit:        c.QATextLimit,
	}
}

// ClientConfig maps OpenAI settings onto llm.ClientConfig
func (c *Config) ClientConfig(logger *log.Logger) *llm.ClientConfig {
	return &llm.ClientConfig{
		APIKey:      c.OpenAIKey,
		BaseURL:     c.BaseURL,
		ChatModel:   c.ChatModel,
		Temperature: float32(c.Temperature),
		Timeout:     c.Timeout,
		Logger:      logger,
	}
}

// CharmConfig maps sync settings onto charm.Config
func (c *Config) CharmConfig() *charm.Config {
	return &charm.Config{
		Host:       c.CharmHost,
		DBName:     c.CharmDBName,
		AutoSync:   c.AutoSync,
		Retries:    c.SyncRetries,
		RetryDelay: c.SyncRetryDelay,
	}
}

// Level returns the parsed log level, defaulting to info
func (c *Config) Level() log.Level {
	lvl, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		return log.InfoLevel
	}
	return lvl
}

// Helper functions
func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	return v == "true" || v == "1"
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}
