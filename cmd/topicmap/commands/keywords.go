// ABOUTME: CLI command to extract keywords from a CSV column
// ABOUTME: Keyword sessions are saved alongside topic sessions
package commands

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/harper/topicmap/internal/core"
	"github.com/harper/topicmap/internal/dataset"
)

// NewKeywordsCmd creates the keywords command
func NewKeywordsCmd() *cobra.Command {
	var (
		column     string
		categories []string
		noSave     bool
	)

	cmd := &cobra.Command{
		Use:   "keywords <file.csv>",
		Short: "Extract keywords from a CSV column",
		Long: `Extract the most characteristic keywords from one column of a CSV file.

The column text is joined and truncated to TOPICMAP_KEYWORD_CORPUS_LIMIT
characters before a single model call.

Examples:
  topicmap keywords survey.csv
  topicmap keywords survey.csv --column comment --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			table, err := dataset.ReadFile(args[0])
			if err != nil {
				return err
			}
			gen, err := newGenerator(cfg, logger)
			if err != nil {
				return err
			}

			session, err := core.NewAnalyzer(gen, cfg.CoreOptions(), logger).RunKeywords(cmd.Context(), table, core.AnalyzeRequest{
				SourceFile: filepath.Base(args[0]),
				Column:     column,
				Categories: categories,
			})
			if err != nil {
				return err
			}

			if !noSave {
				store, err := openStorage(cfg)
				if err != nil {
					return err
				}
				defer func() { _ = store.Close() }()
				if err := store.SaveSession(session); err != nil {
					return fmt.Errorf("saving session: %w", err)
				}
			}
			return printSession(cmd, session, !noSave)
		},
	}

	cmd.Flags().StringVar(&column, "column", "", "Column to analyze (default: first column)")
	cmd.Flags().StringSliceVar(&categories, "category", nil, "Only use rows whose kpt_type is one of these values")
	cmd.Flags().BoolVar(&noSave, "no-save", false, "Do not save the session")

	return cmd
}
