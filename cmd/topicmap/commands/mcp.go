// ABOUTME: MCP command starts the Model Context Protocol server
// ABOUTME: Exposes topic extraction, assignment and session tools to LLM agents via stdio
package commands

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/harper/topicmap/internal/config"
	"github.com/harper/topicmap/internal/core"
	"github.com/harper/topicmap/internal/llm"
	"github.com/harper/topicmap/internal/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

// NewMCPCmd creates the MCP command
func NewMCPCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start MCP server for LLM agents",
		Long: `Start MCP server for LLM agents

Runs topicmap as an MCP (Model Context Protocol) server on stdio so
LLM agents can extract topics, classify texts, and query saved
sessions. Logs go to stderr; stdout carries the protocol.`,
		RunE: runMCP,
		Example: `  # Start MCP server (typically called by an MCP client)
  topicmap mcp

  # Configure in claude_desktop_config.json:
  # {
  #   "mcpServers": {
  #     "topicmap": {
  #       "command": "topicmap",
  #       "args": ["mcp"]
  #     }
  #   }
  # }`,
	}

	return cmd
}

func runMCP(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	store, err := openStorage(cfg)
	if err != nil {
		return err
	}

	gen := generatorOrUnavailable(cfg, logger)
	server, _ := mcp.NewServer(versionInfo.Version, store,
		core.NewAnalyzer(gen, cfg.CoreOptions(), logger),
		core.NewQuestionAnswerer(gen, cfg.CoreOptions(), logger),
		logger)

	logger.Info("MCP server starting on stdio", "db", store.Path())

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- mcpserver.ServeStdio(server)
	}()

	select {
	case <-cmd.Context().Done():
		logger.Info("shutdown signal received")
	case err = <-serverErr:
	}

	if cerr := store.Close(); cerr != nil {
		logger.Warn("error closing storage", "err", cerr)
	}
	if err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// generatorOrUnavailable lets the server start without an API key; model
// tools then fail with a descriptive error while session tools still work
func generatorOrUnavailable(cfg *config.Config, logger *log.Logger) llm.Generator {
	gen, err := newGenerator(cfg, logger)
	if err == nil {
		return gen
	}
	logger.Warn("model tools disabled", "err", err)
	return llm.GeneratorFunc(func(ctx context.Context, prompt string, schema *llm.OutputSchema) (llm.Result, error) {
		return llm.Result{}, &llm.RemoteCallError{Op: "generate", Err: err}
	})
}
