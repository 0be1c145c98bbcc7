package types

// OutcomeStatus labels how an audit ended
type OutcomeStatus string

const (
	// StatusCompleted means a CandidateReport was produced
	StatusCompleted OutcomeStatus = "completed"
	// StatusFailed means a FailureReport was recorded
	StatusFailed OutcomeStatus = "failed"
)

// AuditOutcome is the result of one audit job. Exactly one of Report or Failure is set.
type AuditOutcome struct {
	Index      int              `json:"index"`
	TargetRole string           `json:"target_role"`
	Status     OutcomeStatus    `json:"status"`
	Report     *CandidateReport `json:"report,omitempty"`
	Failure    *FailureReport   `json:"failure,omitempty"`
	Attempts   int              `json:"attempts"`
	Reason     string           `json:"reason,omitempty"` // Diagnostic for failed audits
	Notes      []string         `json:"notes,omitempty"`  // Document conditions (unreadable, too large)
}

// CompletedOutcome wraps a finished report.
func CompletedOutcome(req CandidateRequest, report *CandidateReport, attempts int) AuditOutcome {
	return AuditOutcome{
		TargetRole: req.TargetRole,
		Status:     StatusCompleted,
		Report:     report,
		Attempts:   attempts,
	}
}

// FailedOutcome records a failure for the request with a diagnostic reason.
func FailedOutcome(req CandidateRequest, attempts int, reason string) AuditOutcome {
	return AuditOutcome{
		TargetRole: req.TargetRole,
		Status:     StatusFailed,
		Failure:    NewFailureReport(req.Name),
		Attempts:   attempts,
		Reason:     reason,
	}
}

// Completed reports whether the outcome carries a CandidateReport.
func (o AuditOutcome) Completed() bool {
	return o.Status == StatusCompleted && o.Report != nil
}

// CandidateName returns the audited candidate's name.
func (o AuditOutcome) CandidateName() string {
	if o.Report != nil {
		return o.Report.CandidateName
	}
	if o.Failure != nil {
		return o.Failure.CandidateName
	}
	return ""
}

// RelevanceScore returns the report score, or 0 for failures.
func (o AuditOutcome) RelevanceScore() int {
	if o.Completed() {
		return o.Report.RelevanceScore
	}
	return 0
}

// Summary returns the report summary or the failure sentinel.
func (o AuditOutcome) Summary() string {
	if o.Completed() {
		return o.Report.Summary
	}
	if o.Failure != nil {
		return o.Failure.Summary
	}
	return FailureSummary
}

// KeyFindings returns the report findings; failures have none.
func (o AuditOutcome) KeyFindings() []string {
	if o.Completed() {
		return o.Report.KeyFindings
	}
	return nil
}

// Discrepancies returns the résumé discrepancies; failures have none.
func (o AuditOutcome) Discrepancies() []string {
	if o.Completed() {
		return o.Report.ResumeDiscrepancies
	}
	return nil
}
