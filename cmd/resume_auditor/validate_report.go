package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/jonathan/resume-auditor/internal/schemas"
	"github.com/spf13/cobra"
)

var validateReportCommand = &cobra.Command{
	Use:   "validate-report",
	Short: "Validate a candidate report JSON file against the report schema",
	Long:  "Checks a CandidateReport JSON file against the embedded JSON schema: score in 1-10, at most three key findings and every field present.",
	RunE:  runValidateReport,
}

var (
	validateReportInput  string
	validateReportSchema string
)

func init() {
	validateReportCommand.Flags().StringVarP(&validateReportInput, "in", "i", "", "Path to report JSON file (required)")
	validateReportCommand.Flags().StringVar(&validateReportSchema, "schema", "", "Path to an alternative JSON schema file (optional, defaults to the embedded report schema)")

	if err := validateReportCommand.MarkFlagRequired("in"); err != nil {
		panic(fmt.Sprintf("failed to mark in flag as required: %v", err))
	}

	rootCmd.AddCommand(validateReportCommand)
}

func runValidateReport(cmd *cobra.Command, _ []string) error {
	if _, err := os.Stat(validateReportInput); os.IsNotExist(err) {
		return fmt.Errorf("report file not found: %s", validateReportInput)
	}

	validate := func() error { return schemas.ValidateReportFile(validateReportInput) }
	if validateReportSchema != "" {
		validate = func() error { return schemas.ValidateJSON(validateReportSchema, validateReportInput) }
	}

	if err := validate(); err != nil {
		var validationErr *schemas.ValidationError
		if errors.As(err, &validationErr) {
			for _, msg := range validationErr.Messages() {
				_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "  - %s\n", msg)
			}
			return fmt.Errorf("report is invalid: %d violation(s)", len(validationErr.Errors))
		}
		return fmt.Errorf("failed to validate report: %w", err)
	}

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Report is valid: %s\n", validateReportInput)
	return nil
}
