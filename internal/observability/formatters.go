// Package observability provides formatted terminal output for audit results.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jonathan/resume-auditor/internal/batch"
	"github.com/jonathan/resume-auditor/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
	// previewChars is how much fetched text the preview shows
	previewChars = 500
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF"))
	okStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#3FB950"))
	failStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF6B6B"))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	wrapStyle   = lipgloss.NewStyle().Width(boxWidth - 4)
)

// Printer handles formatted output for the CLI
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content. Content is plain text;
// styled strings belong outside the box so padding stays aligned.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, clip(title))
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(strings.TrimRight(content, "\n"), "\n") {
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, clip(line))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// clip truncates a line to the box's inner width, counting runes.
func clip(line string) string {
	runes := []rune(line)
	if len(runes) > boxWidth-4 {
		return string(runes[:boxWidth-7]) + "..."
	}
	return line
}

// wrap soft-wraps text to the box's inner width.
func wrap(text string) string {
	return wrapStyle.Render(strings.TrimSpace(text))
}

func writeList(sb *strings.Builder, heading string, items []string) {
	if len(items) == 0 {
		return
	}
	sb.WriteString(heading + ":\n")
	count := min(len(items), maxItemsToShow)
	for i := 0; i < count; i++ {
		for j, line := range strings.Split(wrapStyle.Width(boxWidth-8).Render(items[i]), "\n") {
			if j == 0 {
				sb.WriteString(fmt.Sprintf("  • %s\n", line))
			} else {
				sb.WriteString(fmt.Sprintf("    %s\n", line))
			}
		}
	}
	if len(items) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(items)-maxItemsToShow))
	}
	sb.WriteString("\n")
}

// scoreBar renders a 10-cell bar for a 0-10 score.
func scoreBar(score int) string {
	score = max(0, min(score, types.MaxRelevanceScore))
	return strings.Repeat("█", score) + strings.Repeat("░", types.MaxRelevanceScore-score)
}

func statusLabel(o types.AuditOutcome) string {
	if o.Completed() {
		return okStyle.Render("✓ COMPLETED")
	}
	return failStyle.Render("✗ FAILED")
}

// PrintOutcome outputs one candidate's audit result.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintOutcome(o types.AuditOutcome) {
	fmt.Fprintf(p.out, "%s %s\n", headerStyle.Render(o.CandidateName()), statusLabel(o))

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Role:      %s\n", o.TargetRole))
	sb.WriteString(fmt.Sprintf("Score:     %s %d/%d\n", scoreBar(o.RelevanceScore()), o.RelevanceScore(), types.MaxRelevanceScore))
	sb.WriteString(fmt.Sprintf("Attempts:  %d\n", o.Attempts))
	sb.WriteString("\n")

	writeList(&sb, "Key Findings", o.KeyFindings())
	writeList(&sb, "Resume Discrepancies", o.Discrepancies())

	sb.WriteString("Summary:\n")
	sb.WriteString(wrap(o.Summary()))
	sb.WriteString("\n")

	if len(o.Notes) > 0 {
		sb.WriteString("\n")
		writeList(&sb, "Notes", o.Notes)
	}

	p.printBox("AUDIT REPORT", sb.String())

	if !o.Completed() && o.Reason != "" {
		fmt.Fprintln(p.out, mutedStyle.Render("reason: "+o.Reason))
	}
}

// PrintBatchSummary outputs per-candidate scores and totals for a batch.
func (p *Printer) PrintBatchSummary(outcomes []types.AuditOutcome) {
	var sb strings.Builder
	completed, total := 0, 0
	for i, o := range outcomes {
		status := "ok"
		if o.Completed() {
			completed++
			total += o.RelevanceScore()
		} else {
			status = "FAILED"
		}
		sb.WriteString(fmt.Sprintf("%2d. %-30s %2d/10  %s\n", i+1, clipTo(o.CandidateName(), 30), o.RelevanceScore(), status))
	}
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("Candidates: %d   Completed: %d   Failed: %d\n", len(outcomes), completed, len(outcomes)-completed))
	if completed > 0 {
		sb.WriteString(fmt.Sprintf("Average score (completed): %.1f\n", float64(total)/float64(completed)))
	}

	p.printBox("BATCH SUMMARY", sb.String())
}

func clipTo(s string, n int) string {
	runes := []rune(s)
	if len(runes) > n {
		return string(runes[:n-1]) + "…"
	}
	return s
}

// PrintProgress outputs a one-line progress update for a batch event.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintProgress(e batch.ProgressEvent) {
	switch e.Kind {
	case batch.EventStarted:
		fmt.Fprintln(p.out, mutedStyle.Render(fmt.Sprintf("  → [%d/%d] auditing %s", e.Index+1, e.Total, e.Name)))
	case batch.EventCompleted:
		label := okStyle.Render("✓")
		if e.Status != types.StatusCompleted {
			label = failStyle.Render("✗")
		}
		fmt.Fprintf(p.out, "  %s [%d/%d done] %s\n", label, e.Completed, e.Total, e.Name)
	}
}

// PrintPreview outputs the result of fetching a single page.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintPreview(res types.EvidenceResult) {
	if !res.OK {
		fmt.Fprintf(p.out, "%s %s\n", failStyle.Render("Success: false"), res.Target)
		fmt.Fprintln(p.out, res.Diagnostic)
		return
	}
	fmt.Fprintf(p.out, "%s %s\n", okStyle.Render("Success: true"), res.Target)
	fmt.Fprintf(p.out, "Characters: %d\n", len([]rune(res.Content)))
	fmt.Fprintln(p.out, headerStyle.Render(fmt.Sprintf("First %d characters:", previewChars)))
	runes := []rune(res.Content)
	fmt.Fprintln(p.out, string(runes[:min(len(runes), previewChars)]))
}
