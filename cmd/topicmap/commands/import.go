// ABOUTME: CLI command to import a previously exported analyzed CSV as a new session
// ABOUTME: Rebuilds the taxonomy from the rows since the CSV carries no descriptions
package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/harper/topicmap/internal/export"
	"github.com/harper/topicmap/internal/models"
)

// NewImportCmd creates the import command
func NewImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <analyzed.csv>",
		Short: "Import an analyzed CSV as a new session",
		Long: `Import a CSV written by 'topicmap export --format csv' or 'analyze --out'.

The file must contain the _id, _originalText, _topic and _subTopic
columns. Topics are rebuilt from the rows in first-seen order;
assignment-error and unassigned rows are kept but add no topics.

Examples:
  topicmap import result.csv`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("opening %s: %w", args[0], err)
			}
			defer f.Close()

			rows, err := export.ReadAnalyzedCSV(f)
			if err != nil {
				return fmt.Errorf("reading %s: %w", args[0], err)
			}

			session := models.NewSession(models.KindTopics, filepath.Base(args[0]), export.ColOriginalText)
			session.Rows = rows
			session.Topics = export.TopicsFromRows(rows)

			store, err := openStorage(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()
			if err := store.SaveSession(session); err != nil {
				return fmt.Errorf("saving session: %w", err)
			}
			logger.Debug("imported analyzed CSV", "path", args[0], "rows", len(rows), "topics", len(session.Topics))

			return printSession(cmd, session, true)
		},
	}
	return cmd
}
