package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/jonathan/resume-auditor/internal/config"
	"github.com/jonathan/resume-auditor/internal/document"
	"github.com/jonathan/resume-auditor/internal/observability"
	"github.com/jonathan/resume-auditor/internal/types"
	"github.com/spf13/cobra"
)

var auditCommand = &cobra.Command{
	Use:   "audit",
	Short: "Audit a single candidate and print the report",
	Long: `Researches one candidate, optionally cross-checks a résumé (PDF, text or image)
and prints the structured report. Use --resume - to read the résumé from stdin.`,
	RunE: runAudit,
}

var (
	auditName     string
	auditRole     string
	auditResume   string
	auditOutput   string
	auditDeadline string
)

func init() {
	auditCommand.Flags().StringVarP(&auditName, "name", "n", "", "Candidate name (required)")
	auditCommand.Flags().StringVarP(&auditRole, "role", "r", "", "Target role (required)")
	auditCommand.Flags().StringVar(&auditResume, "resume", "", "Path to résumé file, or - for stdin (optional)")
	auditCommand.Flags().StringVarP(&auditOutput, "out", "o", "", "Also write the outcome as JSON to this path (optional)")
	auditCommand.Flags().StringVar(&auditDeadline, "deadline", "", "Overall time limit, e.g. 5m (optional)")

	if err := auditCommand.MarkFlagRequired("name"); err != nil {
		panic(fmt.Sprintf("failed to mark name flag as required: %v", err))
	}
	if err := auditCommand.MarkFlagRequired("role"); err != nil {
		panic(fmt.Sprintf("failed to mark role flag as required: %v", err))
	}

	rootCmd.AddCommand(auditCommand)
}

func runAudit(cmd *cobra.Command, _ []string) error {
	cfg, err := loadSettings(cmd, func(cfg *config.Config) {
		if cmd.Flags().Changed("deadline") {
			cfg.Deadline = auditDeadline
		}
	})
	if err != nil {
		return err
	}

	req := types.CandidateRequest{Name: auditName, TargetRole: auditRole, ResumePath: auditResume}
	if err := req.Validate(); err != nil {
		return err
	}

	// Stdin uploads are staged so the agent reads them like any other file.
	if auditResume == "-" {
		staged, err := stageUpload("resume", cmd.InOrStdin(), cfg.MaxDocumentBytes)
		if err != nil {
			return err
		}
		defer staged.Cleanup()
		req.ResumePath = staged.Path
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

	outcome := svc.job.Run(ctx, req)

	printer := observability.NewPrinter(cmd.OutOrStdout())
	printer.PrintOutcome(outcome)

	if auditOutput != "" {
		if err := writeOutcomeJSON(auditOutput, outcome); err != nil {
			return err
		}
	}

	if !outcome.Completed() {
		return fmt.Errorf("audit of %s failed after %d attempt(s): %s", req.Name, outcome.Attempts, outcome.Reason)
	}
	return nil
}

func stageUpload(name string, r io.Reader, maxBytes int64) (*document.Staged, error) {
	staged, err := document.Stage(name, r, maxBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to read résumé from stdin: %w", err)
	}
	return staged, nil
}

func writeOutcomeJSON(path string, outcome types.AuditOutcome) error {
	data, err := json.MarshalIndent(outcome, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal outcome: %w", err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	return nil
}
