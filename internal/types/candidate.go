// Package types provides type definitions for structured data used throughout the resume-auditor system.
//
//nolint:revive // types is a standard Go package name pattern
package types

import (
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

const (
	// MinRelevanceScore is the lowest score a completed report may carry
	MinRelevanceScore = 1
	// MaxRelevanceScore is the highest score a completed report may carry
	MaxRelevanceScore = 10
	// MaxKeyFindings bounds the number of key findings in a report
	MaxKeyFindings = 3
)

// FailureSummary is the fixed summary written for every candidate whose audit could not complete.
const FailureSummary = "Audit failed: the candidate could not be verified against public information."

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func requestValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
	})
	return validate
}

// CandidateRequest identifies one candidate to audit.
type CandidateRequest struct {
	Name       string `json:"name" validate:"required"`
	TargetRole string `json:"target_role" validate:"required"`
	ResumePath string `json:"resume_path,omitempty"` // Optional path to a résumé document
}

// Validate checks that the request names a candidate and a role.
// Whitespace-only values are rejected the same as empty ones.
func (r CandidateRequest) Validate() error {
	trimmed := CandidateRequest{
		Name:       strings.TrimSpace(r.Name),
		TargetRole: strings.TrimSpace(r.TargetRole),
		ResumePath: r.ResumePath,
	}
	if err := requestValidator().Struct(trimmed); err != nil {
		return fmt.Errorf("invalid candidate request: %w", err)
	}
	return nil
}

// HasResume reports whether the request references a résumé document.
func (r CandidateRequest) HasResume() bool {
	return strings.TrimSpace(r.ResumePath) != ""
}

// CandidateReport is the structured verdict for one successfully audited candidate.
type CandidateReport struct {
	CandidateName       string   `json:"candidate_name"`
	RelevanceScore      int      `json:"relevance_score"`
	KeyFindings         []string `json:"key_findings"`
	ResumeDiscrepancies []string `json:"resume_discrepancies"`
	Summary             string   `json:"summary"`
}

// Validate enforces the report invariants: score in [1,10], at most three findings, non-empty summary.
func (r *CandidateReport) Validate() error {
	if r == nil {
		return fmt.Errorf("report is nil")
	}
	if strings.TrimSpace(r.CandidateName) == "" {
		return fmt.Errorf("candidate_name is required")
	}
	if r.RelevanceScore < MinRelevanceScore || r.RelevanceScore > MaxRelevanceScore {
		return fmt.Errorf("relevance_score %d out of range [%d,%d]", r.RelevanceScore, MinRelevanceScore, MaxRelevanceScore)
	}
	if len(r.KeyFindings) > MaxKeyFindings {
		return fmt.Errorf("key_findings has %d entries, at most %d allowed", len(r.KeyFindings), MaxKeyFindings)
	}
	if strings.TrimSpace(r.Summary) == "" {
		return fmt.Errorf("summary is required")
	}
	return nil
}

// FailureReport is recorded in place of a CandidateReport when an audit cannot complete.
type FailureReport struct {
	CandidateName  string `json:"candidate_name"`
	Summary        string `json:"summary"`
	RelevanceScore int    `json:"relevance_score"`
}

// NewFailureReport builds the failure record for a candidate.
func NewFailureReport(name string) *FailureReport {
	return &FailureReport{
		CandidateName:  name,
		Summary:        FailureSummary,
		RelevanceScore: 0,
	}
}
