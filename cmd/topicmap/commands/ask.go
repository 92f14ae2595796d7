// ABOUTME: CLI command to ask a question about the rows of a saved session
// ABOUTME: Uses the session's recent question history and records the new exchange
package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/harper/topicmap/internal/core"
)

// NewAskCmd creates the ask command
func NewAskCmd() *cobra.Command {
	var (
		sessionID string
		filters   filterFlags
		reset     bool
	)

	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask a question about an analyzed session",
		Long: `Ask a free-form question about the rows of a saved session.

Up to TOPICMAP_QA_MAX_ROWS matching rows and the last
TOPICMAP_QA_HISTORY_TURNS questions and answers are sent as context.
Each question and answer is appended to the session's history.

Examples:
  topicmap ask --session session_20260101_120000_ab12cd34 "What do people complain about most?"
  topicmap ask --session <id> --topic Delivery "Which regions mention delays?"
  topicmap ask --session <id> --reset "Start over: what are the main themes?"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if sessionID == "" {
				return fmt.Errorf("--session is required")
			}
			cfg, logger, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			store, err := openStorage(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			rows, err := store.Rows(sessionID, filters.rowFilter())
			if err != nil {
				return err
			}
			if reset {
				if err := store.ClearTurns(sessionID); err != nil {
					return fmt.Errorf("clearing history: %w", err)
				}
			}

			gen, err := newGenerator(cfg, logger)
			if err != nil {
				return err
			}
			qa := core.NewQuestionAnswerer(gen, cfg.CoreOptions(), logger)
			question := strings.Join(args, " ")
			answer, err := qa.AskSession(cmd.Context(), store, sessionID, question, rows)
			if err != nil {
				return err
			}

			if jsonOutput() {
				return printJSON(cmd, map[string]interface{}{
					"session_id": sessionID,
					"question":   question,
					"answer":     answer,
					"rows_used":  len(rows),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), answer)
			return nil
		},
	}

	cmd.Flags().StringVarP(&sessionID, "session", "s", "", "Session to ask about")
	cmd.Flags().BoolVar(&reset, "reset", false, "Clear the session's question history first")
	filters.bind(cmd)

	return cmd
}
