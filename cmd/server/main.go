// ABOUTME: Standalone topicmap MCP server with stdio transport
// ABOUTME: Opens session storage and the model client, then serves all tools
package main

import (
	"context"
	"os"

	"github.com/charmbracelet/log"
	"github.com/harper/topicmap/internal/config"
	"github.com/harper/topicmap/internal/core"
	"github.com/harper/topicmap/internal/llm"
	"github.com/harper/topicmap/internal/mcp"
	"github.com/harper/topicmap/internal/storage/sqlite"
	"github.com/joho/godotenv"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

var version = "dev"

func main() {
	logger := log.NewWithOptions(os.Stderr, log.Options{Prefix: "topicmap-server"})

	// Load .env file if it exists (for API keys)
	if err := godotenv.Load(); err != nil {
		logger.Debug("no .env file found", "err", err)
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("invalid configuration", "err", err)
	}
	logger.SetLevel(cfg.Level())

	var store *sqlite.Storage
	if cfg.DBPath != "" {
		store, err = sqlite.NewStorageWithPath(cfg.DBPath)
	} else {
		store, err = sqlite.NewStorage()
	}
	if err != nil {
		logger.Fatal("failed to initialize storage", "err", err)
	}
	defer store.Close()

	var gen llm.Generator
	if client, err := llm.NewOpenAIClientWithConfig(cfg.ClientConfig(logger)); err != nil {
		logger.Warn("OPENAI_API_KEY not set - model tools will fail", "err", err)
		gen = llm.GeneratorFunc(func(ctx context.Context, prompt string, schema *llm.OutputSchema) (llm.Result, error) {
			return llm.Result{}, &llm.RemoteCallError{Op: "generate", Err: err}
		})
	} else {
		gen = client
	}

	server, _ := mcp.NewServer(version, store,
		core.NewAnalyzer(gen, cfg.CoreOptions(), logger),
		core.NewQuestionAnswerer(gen, cfg.CoreOptions(), logger),
		logger)

	logger.Info("topicmap MCP server starting on stdio", "db", store.Path())
	if err := mcpserver.ServeStdio(server); err != nil {
		logger.Error("server error", "err", err)
		os.Exit(1)
	}
}
