// ABOUTME: Command-line benchmark runner for topic assignment quality
// ABOUTME: Classifies labeled scenarios with the configured model and writes JSON results

package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/harper/topicmap/benchmarks/eval"
	"github.com/harper/topicmap/internal/config"
	"github.com/harper/topicmap/internal/llm"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		scenarioID string
		outputPath string
		verbose    bool
	)

	cmd := &cobra.Command{
		Use:          "benchmark",
		Short:        "Measure topic assignment quality against labeled scenarios",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := godotenv.Load(); err != nil {
				log.Debug("no .env file found", "err", err)
			}
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := cfg.RequireAPIKey(); err != nil {
				return fmt.Errorf("benchmarks need a model: %w", err)
			}

			level := cfg.Level()
			if verbose {
				level = log.DebugLevel
			}
			logger := log.NewWithOptions(os.Stderr, log.Options{Level: level, Prefix: "benchmark", ReportTimestamp: true})

			client, err := llm.NewOpenAIClientWithConfig(cfg.ClientConfig(logger))
			if err != nil {
				return err
			}

			scenarios := eval.GetAllScenarios()
			if scenarioID != "" {
				s, ok := eval.GetScenario(scenarioID)
				if !ok {
					ids := make([]string, 0, len(scenarios))
					for _, s := range scenarios {
						ids = append(ids, s.ID)
					}
					return fmt.Errorf("unknown scenario %q (valid: %s)", scenarioID, strings.Join(ids, ", "))
				}
				scenarios = []eval.Scenario{s}
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			runner := eval.NewBenchmarkRunner(client, cfg.CoreOptions(), logger, verbose)
			results, err := runner.RunAll(ctx, scenarios)
			if err != nil {
				return fmt.Errorf("benchmark failed: %w", err)
			}

			summary := eval.Summarize(results, client.Model())
			printSummary(cmd, summary)

			if err := eval.ExportResults(summary, outputPath); err != nil {
				return err
			}
			logger.Info("results exported", "path", outputPath)

			if summary.Failed > 0 {
				return fmt.Errorf("%d of %d scenarios failed", summary.Failed, summary.Total)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&scenarioID, "scenario", "", "Run a single scenario (retail, kpt, short); all when empty")
	cmd.Flags().StringVar(&outputPath, "output", "benchmark_results.json", "Output path for JSON results")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Log per-label topic spread")

	return cmd
}

func printSummary(cmd *cobra.Command, summary eval.Summary) {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "========================================")
	fmt.Fprintln(out, "BENCHMARK SUMMARY")
	fmt.Fprintln(out, "========================================")
	for _, r := range summary.Results {
		fmt.Fprintf(out, "\n%s: %s\n", r.ScenarioID, r.ScenarioName)
		fmt.Fprintf(out, "  Coverage:       %.2f\n", r.Coverage)
		fmt.Fprintf(out, "  Agreement:      %.2f\n", r.Agreement)
		fmt.Fprintf(out, "  Catch-all:      %.2f\n", r.CatchAllShare)
		fmt.Fprintf(out, "  Chunk failures: %d of %d\n", r.ChunkFailures, r.AssignCalls)
		fmt.Fprintf(out, "  Status:         %s\n", r.Status)
	}
	fmt.Fprintln(out, "\n========================================")
	fmt.Fprintf(out, "Total: %d  Passed: %d  Failed: %d\n", summary.Total, summary.Passed, summary.Failed)
	fmt.Fprintln(out, "========================================")
}
