// ABOUTME: CLI command to extract topics from a CSV column and classify every row
// ABOUTME: Saves the result as a session and optionally writes CSV and HTML reports
package commands

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/harper/topicmap/internal/core"
	"github.com/harper/topicmap/internal/dataset"
	"github.com/harper/topicmap/internal/export"
	"github.com/harper/topicmap/internal/models"
)

// NewAnalyzeCmd creates the analyze command
func NewAnalyzeCmd() *cobra.Command {
	var (
		column     string
		categories []string
		outCSV     string
		outHTML    string
		noSave     bool
	)

	cmd := &cobra.Command{
		Use:   "analyze <file.csv>",
		Short: "Extract topics and classify every row of a CSV column",
		Long: `Extract a topic taxonomy from one column of a CSV file and assign
every non-blank row to a topic and subtopic.

Rows are sent to the model in batches of TOPICMAP_BATCH_SIZE (default 20),
all batches in parallel. A batch that fails is marked with
assignment-error rows instead of failing the whole run.

Examples:
  topicmap analyze survey.csv --column comment
  topicmap analyze survey.csv --category Keep --category Problem
  topicmap analyze survey.csv --out result.csv --html report.html`,
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

			analyzer := core.NewAnalyzer(gen, cfg.CoreOptions(), logger)
			session, err := analyzer.Run(cmd.Context(), table, core.AnalyzeRequest{
				SourceFile: filepath.Base(args[0]),
				Column:     column,
				Categories: categories,
			}, progressPrinter(cmd.ErrOrStderr()))
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

			if outCSV != "" {
				if err := writeFile(outCSV, func(w io.Writer) error {
					return export.WriteCSV(w, session.Rows)
				}); err != nil {
					return err
				}
				logger.Info("wrote CSV", "path", outCSV)
			}
			if outHTML != "" {
				if err := writeFile(outHTML, func(w io.Writer) error {
					return export.WriteHTML(w, reportOptions(session, session.Rows, core.Filter{}))
				}); err != nil {
					return err
				}
				logger.Info("wrote HTML report", "path", outHTML)
			}

			return printSession(cmd, session, !noSave)
		},
	}

	cmd.Flags().StringVar(&column, "column", "", "Column to analyze (default: first column)")
	cmd.Flags().StringSliceVar(&categories, "category", nil, "Only analyze rows whose kpt_type is one of these values")
	cmd.Flags().StringVar(&outCSV, "out", "", "Write analyzed rows to this CSV file")
	cmd.Flags().StringVar(&outHTML, "html", "", "Write an HTML report to this file")
	cmd.Flags().BoolVar(&noSave, "no-save", false, "Do not save the session")

	return cmd
}

// progressPrinter renders phase events on w unless --quiet is set
func progressPrinter(w io.Writer) core.PhaseFunc {
	return func(phase string, percent int) {
		if quiet {
			return
		}
		switch phase {
		case core.PhaseExtracting:
			fmt.Fprintln(w, "Extracting topics...")
		case core.PhaseAssigning:
			fmt.Fprintf(w, "\rAssigning topics... %3d%%", percent)
		case core.PhaseDone:
			fmt.Fprintln(w)
		}
	}
}

func reportOptions(session *models.Session, rows []models.AssignedRecord, filter core.Filter) export.ReportOptions {
	return export.ReportOptions{
		Title:       fmt.Sprintf("%s [%s]", session.SourceFile, session.Column),
		Topics:      session.Topics,
		Rows:        rows,
		Filter:      filter,
		TotalCount:  len(session.Rows),
		GeneratedAt: time.Now(),
	}
}

// printSession prints a session summary with its topics or keywords
func printSession(cmd *cobra.Command, session *models.Session, saved bool) error {
	if jsonOutput() {
		return printJSON(cmd, map[string]interface{}{
			"session": session,
			"stats":   session.Stats(),
			"saved":   saved,
		})
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, core.Describe(session))

	if session.Kind == models.KindKeywords {
		for i, kw := range session.Keywords {
			fmt.Fprintf(out, "%2d. %s\n", i+1, kw)
		}
	} else {
		counts := make(map[string]int)
		for _, c := range core.Facets(session.Rows).Topics {
			counts[c.Value] = c.Count
		}
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintf(w, "TOPIC\tROWS\tSUBTOPICS\n")
		fmt.Fprintf(w, "-----\t----\t---------\n")
		for _, t := range session.Topics {
			fmt.Fprintf(w, "%s\t%d\t%s\n", truncate(t.Name, 30), counts[t.Name], truncate(strings.Join(t.SubTopics, ", "), 60))
		}
		_ = w.Flush()
	}

	if !saved && !quiet {
		fmt.Fprintln(out, "(session not saved)")
	}
	return nil
}
