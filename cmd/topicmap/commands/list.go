// ABOUTME: CLI command to list saved sessions
// ABOUTME: Shows kind, source, row and topic counts newest first
package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/harper/topicmap/internal/models"
	"github.com/harper/topicmap/internal/storage/sqlite"
)

// NewListCmd creates list command
func NewListCmd() *cobra.Command {
	var kind string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List saved analysis sessions",
		Long: `List saved analysis sessions, newest first.

Each session is either a topics session (taxonomy plus classified rows)
or a keywords session.

Examples:
  topicmap list
  topicmap list --kind topics
  topicmap list --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if kind != "" && kind != string(models.KindTopics) && kind != string(models.KindKeywords) {
				return fmt.Errorf("--kind must be %q or %q, got %q", models.KindTopics, models.KindKeywords, kind)
			}
			cfg, _, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			store, err := openStorage(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			all, err := store.ListSessions()
			if err != nil {
				return fmt.Errorf("listing sessions: %w", err)
			}
			sessions := make([]sqlite.SessionInfo, 0, len(all))
			for _, s := range all {
				if kind == "" || string(s.Kind) == kind {
					sessions = append(sessions, s)
				}
			}

			if jsonOutput() {
				return printJSON(cmd, sessions)
			}
			if len(sessions) == 0 {
				if !quiet {
					fmt.Fprintf(cmd.OutOrStdout(), "No sessions found\n")
				}
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "SESSION\tKIND\tSOURCE\tCOLUMN\tROWS\tTOPICS\tCREATED\n")
			fmt.Fprintf(w, "-------\t----\t------\t------\t----\t------\t-------\n")
			for _, s := range sessions {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\t%s\n",
					s.SessionID,
					s.Kind,
					truncate(s.SourceFile, 30),
					truncate(s.Column, 20),
					s.RowCount,
					s.TopicCount,
					formatTime(s.CreatedAt))
			}
			_ = w.Flush()

			if !quiet {
				fmt.Fprintf(cmd.OutOrStdout(), "\nTotal: %d session(s)\n", len(sessions))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&kind, "kind", "", "Only show sessions of this kind (topics or keywords)")

	return cmd
}
