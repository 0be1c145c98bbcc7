package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/jonathan/resume-auditor/internal/batch"
	"github.com/jonathan/resume-auditor/internal/config"
	"github.com/jonathan/resume-auditor/internal/observability"
	"github.com/spf13/cobra"
)

var batchCommand = &cobra.Command{
	Use:   "batch",
	Short: "Audit every candidate in a roster concurrently",
	Long: `Reads a CSV roster (columns name, role and optional resume), audits each
candidate concurrently and writes one row per candidate to --out. The output
format follows the file extension: .csv, .json or .docx. A failed candidate
never stops the batch; it is recorded with a fixed failure summary.`,
	RunE: runBatch,
}

var (
	batchRoster         string
	batchOutput         string
	batchMaxConcurrency int
	batchDeadline       string
)

func init() {
	batchCommand.Flags().StringVar(&batchRoster, "roster", "", "Path to roster CSV file (required)")
	batchCommand.Flags().StringVarP(&batchOutput, "out", "o", "", "Path to output file: .csv, .json or .docx (required)")
	batchCommand.Flags().IntVar(&batchMaxConcurrency, "max-concurrency", 0, "Maximum audits in flight (default: one per candidate)")
	batchCommand.Flags().StringVar(&batchDeadline, "deadline", "", "Overall time limit for the batch, e.g. 15m (optional)")

	if err := batchCommand.MarkFlagRequired("roster"); err != nil {
		panic(fmt.Sprintf("failed to mark roster flag as required: %v", err))
	}
	if err := batchCommand.MarkFlagRequired("out"); err != nil {
		panic(fmt.Sprintf("failed to mark out flag as required: %v", err))
	}

	rootCmd.AddCommand(batchCommand)
}

func runBatch(cmd *cobra.Command, _ []string) error {
	cfg, err := loadSettings(cmd, func(cfg *config.Config) {
		if cmd.Flags().Changed("max-concurrency") {
			cfg.MaxConcurrency = batchMaxConcurrency
		}
		if cmd.Flags().Changed("deadline") {
			cfg.Deadline = batchDeadline
		}
	})
	if err != nil {
		return err
	}

	reqs, err := batch.LoadRosterFile(batchRoster)
	if err != nil {
		return fmt.Errorf("failed to load roster: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx, cancel := withDeadline(ctx, cfg.DeadlineDuration())
	defer cancel()

	svc, err := buildServices(ctx, cfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	printer := observability.NewPrinter(cmd.ErrOrStderr())
	runner := batch.NewRunner(svc.job)
	runner.MaxConcurrency = cfg.MaxConcurrency
	runner.OnProgress = printer.PrintProgress
	runner.Verbose = cfg.Verbose

	outcomes := runner.Run(ctx, reqs)

	if err := batch.WriteOutcomes(batchOutput, outcomes); err != nil {
		return fmt.Errorf("failed to write results: %w", err)
	}

	observability.NewPrinter(cmd.OutOrStdout()).PrintBatchSummary(outcomes)
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Results written to: %s\n", batchOutput)
	return nil
}
