// ABOUTME: Shared helpers for CLI commands: config, logging, storage and output
// ABOUTME: Also holds the row filter flags used by show, ask and export
package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/harper/topicmap/internal/config"
	"github.com/harper/topicmap/internal/core"
	"github.com/harper/topicmap/internal/llm"
	"github.com/harper/topicmap/internal/storage/sqlite"
)

// newGenerator builds the model client; tests replace it with a fake
var newGenerator = func(cfg *config.Config, logger *log.Logger) (llm.Generator, error) {
	if err := cfg.RequireAPIKey(); err != nil {
		return nil, err
	}
	client, err := llm.NewOpenAIClientWithConfig(cfg.ClientConfig(logger))
	if err != nil {
		return nil, err
	}
	return client, nil
}

// loadConfig reads .env and the environment, returning config and a logger on stderr
func loadConfig(cmd *cobra.Command) (*config.Config, *log.Logger, error) {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, newLogger(cmd.ErrOrStderr(), cfg.Level()), nil
}

// newLogger applies --verbose and --quiet on top of the configured level
func newLogger(w io.Writer, level log.Level) *log.Logger {
	switch {
	case verbose:
		level = log.DebugLevel
	case quiet:
		level = log.ErrorLevel
	}
	return log.NewWithOptions(w, log.Options{
		Level:           level,
		Prefix:          "topicmap",
		ReportTimestamp: verbose,
	})
}

// openStorage opens the session database named by config
func openStorage(cfg *config.Config) (*sqlite.Storage, error) {
	var (
		store *sqlite.Storage
		err   error
	)
	if cfg.DBPath != "" {
		store, err = sqlite.NewStorageWithPath(cfg.DBPath)
	} else {
		store, err = sqlite.NewStorage()
	}
	if err != nil {
		return nil, fmt.Errorf("initializing storage: %w", err)
	}
	return store, nil
}

// jsonOutput reports whether results should be printed as JSON
func jsonOutput() bool {
	return outputFormat == "json"
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s\n", data)
	return err
}

// filterFlags binds --topic, --subtopic, --category and --region
type filterFlags struct {
	topic    string
	subTopic string
	category string
	region   string
}

func (f *filterFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.topic, "topic", "", "Only rows with this topic")
	cmd.Flags().StringVar(&f.subTopic, "subtopic", "", "Only rows with this subtopic")
	cmd.Flags().StringVar(&f.category, "category", "", "Only rows with this category (kpt_type)")
	cmd.Flags().StringVar(&f.region, "region", "", "Only rows from this region")
}

func (f *filterFlags) filter() core.Filter {
	return core.Filter{Topic: f.topic, SubTopic: f.subTopic, Category: f.category, Region: f.region}
}

func (f *filterFlags) rowFilter() sqlite.RowFilter {
	return sqlite.RowFilter{Topic: f.topic, SubTopic: f.subTopic, Category: f.category, Region: f.region}
}

// truncate shortens a string to maxLen runes, adding "..." if truncated
func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}

// formatTime formats a time for display
func formatTime(t time.Time) string {
	now := time.Now()
	diff := now.Sub(t)

	if diff < time.Minute {
		return "just now"
	} else if diff < time.Hour {
		mins := int(diff.Minutes())
		return fmt.Sprintf("%dm ago", mins)
	} else if diff < 24*time.Hour {
		hours := int(diff.Hours())
		return fmt.Sprintf("%dh ago", hours)
	} else if diff < 7*24*time.Hour {
		days := int(diff.Hours() / 24)
		return fmt.Sprintf("%dd ago", days)
	}
	return t.Format("2006-01-02")
}

// containsString checks if a slice contains a string
func containsString(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}

// validateNonNegativeInt returns error if n is negative
func validateNonNegativeInt(n int, name string) error {
	if n < 0 {
		return fmt.Errorf("%s must not be negative, got %d", name, n)
	}
	return nil
}

// writeFile creates path and streams content into it
func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}
