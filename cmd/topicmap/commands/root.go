// ABOUTME: Root command and global flags for the topicmap CLI
// ABOUTME: Wires every subcommand and validates the shared output flags
package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	verbose      bool
	quiet        bool
	outputFormat string
)

const banner = `
████████╗ ██████╗ ██████╗ ██╗ ██████╗███╗   ███╗ █████╗ ██████╗
╚══██╔══╝██╔═══██╗██╔══██╗██║██╔════╝████╗ ████║██╔══██╗██╔══██╗
   ██║   ██║   ██║██████╔╝██║██║     ██╔████╔██║███████║██████╔╝
   ██║   ██║   ██║██╔═══╝ ██║██║     ██║╚██╔╝██║██╔══██║██╔═══╝
   ██║   ╚██████╔╝██║     ██║╚██████╗██║ ╚═╝ ██║██║  ██║██║
   ╚═╝    ╚═════╝ ╚═╝     ╚═╝ ╚═════╝╚═╝     ╚═╝╚═╝  ╚═╝╚═╝
`

// NewRootCmd creates the root command with all subcommands attached
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "topicmap",
		Short: "Extract topics from text datasets and classify every row",
		Long: banner + `
topicmap reads a column of free text from a CSV file, asks a language
model for a small taxonomy of topics and subtopics, then classifies
every row against that taxonomy in parallel batches.

Results are saved as sessions in a local SQLite database and can be
filtered, questioned, exported to CSV/HTML/YAML/JSON, synced through
Charm, or served to LLM agents over MCP.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			switch outputFormat {
			case "auto", "json", "table":
				return nil
			default:
				return fmt.Errorf("--format must be auto, json or table, got %q", outputFormat)
			}
		},
	}

	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	cmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Only print results and errors")
	cmd.PersistentFlags().StringVar(&outputFormat, "format", "auto", "Output format: auto, json or table")
	cmd.MarkFlagsMutuallyExclusive("verbose", "quiet")

	cmd.AddCommand(NewAnalyzeCmd())
	cmd.AddCommand(NewKeywordsCmd())
	cmd.AddCommand(NewAskCmd())
	cmd.AddCommand(NewListCmd())
	cmd.AddCommand(NewShowCmd())
	cmd.AddCommand(NewExportCmd())
	cmd.AddCommand(NewImportCmd())
	cmd.AddCommand(NewDeleteCmd())
	cmd.AddCommand(NewMCPCmd())
	cmd.AddCommand(NewSyncCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command; an interrupt cancels in-flight model calls
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return NewRootCmd().ExecuteContext(ctx)
}
