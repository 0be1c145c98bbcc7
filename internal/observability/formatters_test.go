package observability

import (
	"bytes"
	"strings"
	"testing"

	"github.com/jonathan/resume-auditor/internal/batch"
	"github.com/jonathan/resume-auditor/internal/types"
	"github.com/stretchr/testify/assert"
)

func completedOutcome() types.AuditOutcome {
	return types.CompletedOutcome(types.CandidateRequest{Name: "Ada Lovelace", TargetRole: "Staff Engineer"}, &types.CandidateReport{
		CandidateName:       "Ada Lovelace",
		RelevanceScore:      8,
		KeyFindings:         []string{"Published the first algorithm", "Worked with Charles Babbage"},
		ResumeDiscrepancies: []string{"Resume claims a 1850 start; sources say 1842"},
		Summary:             "Strong, verified analytical background with one date discrepancy.",
	}, 1)
}

func TestPrintOutcome_Completed(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintOutcome(completedOutcome())
	output := buf.String()

	assert.Contains(t, output, "AUDIT REPORT")
	assert.Contains(t, output, "Ada Lovelace")
	assert.Contains(t, output, "COMPLETED")
	assert.Contains(t, output, "Staff Engineer")
	assert.Contains(t, output, "8/10")
	assert.Contains(t, output, "Published the first algorithm")
	assert.Contains(t, output, "Resume Discrepancies")
	assert.Contains(t, output, "Strong, verified")
}

func TestPrintOutcome_Failed(t *testing.T) {
	var buf bytes.Buffer
	outcome := types.FailedOutcome(types.CandidateRequest{Name: "Grace Hopper", TargetRole: "Lead"}, 3, "retries exhausted after 3 attempts")
	NewPrinter(&buf).PrintOutcome(outcome)
	output := buf.String()

	assert.Contains(t, output, "FAILED")
	assert.Contains(t, output, "0/10")
	assert.NotContains(t, output, "Key Findings")
	assert.Contains(t, output, "reason: retries exhausted")
}

func TestPrintOutcome_TruncatesLists(t *testing.T) {
	outcome := completedOutcome()
	outcome.Report.ResumeDiscrepancies = []string{"a", "b", "c", "d", "e", "f", "g"}

	var buf bytes.Buffer
	NewPrinter(&buf).PrintOutcome(outcome)
	assert.Contains(t, buf.String(), "... and 2 more")
}

func TestPrintBox_LinesFitWidth(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).printBox("TITLE", strings.Repeat("é", 200)+"\nshort")

	for _, line := range strings.Split(strings.TrimRight(buf.String(), "\n"), "\n") {
		assert.Equal(t, boxWidth, len([]rune(line)), line)
	}
}

func TestPrintBatchSummary(t *testing.T) {
	failed := types.FailedOutcome(types.CandidateRequest{Name: "Grace Hopper", TargetRole: "Lead"}, 1, "boom")

	var buf bytes.Buffer
	NewPrinter(&buf).PrintBatchSummary([]types.AuditOutcome{completedOutcome(), failed})
	output := buf.String()

	assert.Contains(t, output, "BATCH SUMMARY")
	assert.Contains(t, output, "Candidates: 2   Completed: 1   Failed: 1")
	assert.Contains(t, output, "Average score (completed): 8.0")
	assert.Contains(t, output, "FAILED")
}

func TestPrintProgress(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)
	p.PrintProgress(batch.ProgressEvent{Kind: batch.EventStarted, Index: 0, Total: 2, Name: "Ada"})
	p.PrintProgress(batch.ProgressEvent{Kind: batch.EventCompleted, Index: 0, Total: 2, Completed: 1, Name: "Ada", Status: types.StatusCompleted})

	output := buf.String()
	assert.Contains(t, output, "[1/2] auditing Ada")
	assert.Contains(t, output, "[1/2 done] Ada")
}

func TestPrintPreview(t *testing.T) {
	var buf bytes.Buffer
	content := strings.Repeat("x", 600)
	NewPrinter(&buf).PrintPreview(types.EvidenceSuccess(types.EvidencePageFetch, "https://a.example", content))
	output := buf.String()

	assert.Contains(t, output, "Success: true")
	assert.Contains(t, output, "Characters: 600")
	assert.Contains(t, output, strings.Repeat("x", 500))
	assert.NotContains(t, output, strings.Repeat("x", 501))

	buf.Reset()
	NewPrinter(&buf).PrintPreview(types.EvidenceFailure(types.EvidencePageFetch, "https://a.example", "fetch failed: timed out"))
	assert.Contains(t, buf.String(), "Success: false")
	assert.Contains(t, buf.String(), "fetch failed: timed out")
}
