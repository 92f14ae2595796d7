// ABOUTME: CLI command to show a session's topics, facet counts and filtered rows
// ABOUTME: Mirrors the result table with topic, subtopic, category and region filters
package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/harper/topicmap/internal/core"
)

// NewShowCmd creates the show command
func NewShowCmd() *cobra.Command {
	var (
		filters filterFlags
		limit   int
	)

	cmd := &cobra.Command{
		Use:   "show <session>",
		Short: "Show a session's topics and rows",
		Long: `Show the taxonomy, per-topic counts and classified rows of a session.

Rows can be narrowed with --topic, --subtopic, --category and --region;
all given filters must match.

Examples:
  topicmap show session_20260101_120000_ab12cd34
  topicmap show <id> --topic Delivery --subtopic Speed
  topicmap show <id> --region Tokyo --limit 0`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateNonNegativeInt(limit, "--limit"); err != nil {
				return err
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

			session, err := store.GetSession(args[0])
			if err != nil {
				return err
			}
			rows := filters.filter().Apply(session.Rows)
			facets := core.Facets(session.Rows)
			matched := len(rows)
			if limit > 0 && len(rows) > limit {
				rows = rows[:limit]
			}

			if jsonOutput() {
				return printJSON(cmd, map[string]interface{}{
					"session_id": session.SessionID,
					"kind":       session.Kind,
					"source":     session.SourceFile,
					"column":     session.Column,
					"keywords":   session.Keywords,
					"topics":     session.Topics,
					"facets":     facets,
					"filter":     filters.filter(),
					"matched":    matched,
					"rows":       rows,
				})
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, core.Describe(session))
			for i, kw := range session.Keywords {
				fmt.Fprintf(out, "%2d. %s\n", i+1, kw)
			}
			if len(session.Topics) > 0 {
				fmt.Fprintln(out)
				w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
				fmt.Fprintf(w, "TOPIC\tSUBTOPIC\tROWS\n")
				fmt.Fprintf(w, "-----\t--------\t----\n")
				for _, t := range facets.Topics {
					fmt.Fprintf(w, "%s\t\t%d\n", truncate(t.Value, 30), t.Count)
					for _, st := range facets.SubTopics[t.Value] {
						fmt.Fprintf(w, "\t%s\t%d\n", truncate(st.Value, 30), st.Count)
					}
				}
				_ = w.Flush()
			}
			if len(rows) == 0 {
				return nil
			}

			fmt.Fprintln(out)
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "ID\tTOPIC\tSUBTOPIC\tCATEGORY\tREGION\tTEXT\n")
			fmt.Fprintf(w, "--\t-----\t--------\t--------\t------\t----\n")
			for _, r := range rows {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
					r.ID,
					truncate(r.Topic, 25),
					truncate(r.SubTopic, 25),
					r.Category,
					r.Region,
					truncate(r.OriginalText, 60))
			}
			_ = w.Flush()

			if !quiet {
				fmt.Fprintf(out, "\nShowing %d of %d matching row(s), %d total\n", len(rows), matched, len(session.Rows))
			}
			return nil
		},
	}

	filters.bind(cmd)
	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum rows to print (0 for all)")

	return cmd
}
