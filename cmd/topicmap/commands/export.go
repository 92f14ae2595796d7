// ABOUTME: CLI command to export a session as CSV, HTML, YAML or JSON
// ABOUTME: CSV and HTML honor row filters; YAML and JSON include question history
package commands

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/harper/topicmap/internal/export"
	"github.com/harper/topicmap/internal/storage/sqlite"
)

var exportTypes = []string{"csv", "html", "yaml", "json"}

// NewExportCmd creates the export command
func NewExportCmd() *cobra.Command {
	var (
		exportType string
		outputPath string
		filters    filterFlags
	)

	cmd := &cobra.Command{
		Use:   "export <session>",
		Short: "Export a session to CSV, HTML, YAML or JSON",
		Long: `Export a saved session.

  csv   analyzed rows (_id, _originalText, _topic, _subTopic, ...), re-importable
  html  self-contained report with the taxonomy, counts and rows
  yaml  full session with topics, rows and question history
  json  same content as yaml

The format is taken from --format, else from the --output extension, else yaml.
Without --output the export is written to stdout.

Examples:
  topicmap export <id> --output result.csv
  topicmap export <id> --format html --topic Delivery --output delivery.html
  topicmap export <id> --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind := resolveExportType(exportType, outputPath)
			if !containsString(exportTypes, kind) {
				return fmt.Errorf("--format must be one of %s, got %q", strings.Join(exportTypes, ", "), kind)
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

			write, err := exportWriter(store, args[0], kind, filters)
			if err != nil {
				return err
			}
			if outputPath == "" {
				return write(cmd.OutOrStdout())
			}
			if err := writeFile(outputPath, write); err != nil {
				return err
			}
			logger.Info("export complete", "session", args[0], "format", kind, "path", outputPath)
			return nil
		},
	}

	cmd.Flags().StringVarP(&exportType, "format", "f", "", "Export format: csv, html, yaml or json")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output file (default: stdout)")
	filters.bind(cmd)

	return cmd
}

// resolveExportType picks the explicit format, else the output extension, else yaml
func resolveExportType(explicit, outputPath string) string {
	if explicit != "" {
		return strings.ToLower(explicit)
	}
	switch ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(outputPath), ".")); ext {
	case "":
		return "yaml"
	case "yml":
		return "yaml"
	case "htm":
		return "html"
	default:
		return ext
	}
}

// exportWriter loads what the export needs and returns a function that writes it
func exportWriter(store *sqlite.Storage, sessionID, kind string, filters filterFlags) (func(io.Writer) error, error) {
	switch kind {
	case "yaml", "json":
		data, err := store.ExportSession(sessionID)
		if err != nil {
			return nil, err
		}
		if kind == "yaml" {
			return data.WriteYAML, nil
		}
		return data.WriteJSON, nil
	}

	session, err := store.GetSession(sessionID)
	if err != nil {
		return nil, err
	}
	rows := filters.filter().Apply(session.Rows)
	if kind == "csv" {
		return func(w io.Writer) error { return export.WriteCSV(w, rows) }, nil
	}
	opts := reportOptions(session, rows, filters.filter())
	return func(w io.Writer) error { return export.WriteHTML(w, opts) }, nil
}
