package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/jonathan/resume-auditor/internal/observability"
	"github.com/spf13/cobra"
)

var previewCommand = &cobra.Command{
	Use:   "preview URL",
	Short: "Fetch one page the way the agent would and preview the extracted text",
	Long:  "Runs the evidence gatherer's page fetch for a single URL and prints whether it succeeded, how many characters were extracted and the first 500 of them. No model calls are made.",
	Args:  cobra.ExactArgs(1),
	RunE:  runPreview,
}

func init() {
	rootCmd.AddCommand(previewCommand)
}

func runPreview(cmd *cobra.Command, args []string) error {
	cfg, err := loadSettings(cmd, nil)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	gatherer, err := buildGatherer(ctx, cfg)
	if err != nil {
		return err
	}

	result := gatherer.Fetch(ctx, args[0])
	observability.NewPrinter(cmd.OutOrStdout()).PrintPreview(result)
	return nil
}
