package batch

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gingfrederik/docx"

	"github.com/jonathan/resume-auditor/internal/types"
)

// Columns is the output row layout shared by every sink.
var Columns = []string{"name", "role", "status", "relevance_score", "key_findings", "resume_discrepancies", "summary"}

// listSeparator joins list fields in flat (CSV, DOCX) output.
const listSeparator = "; "

// Record is one output row.
type Record struct {
	Name                string   `json:"name"`
	Role                string   `json:"role"`
	Status              string   `json:"status"`
	RelevanceScore      int      `json:"relevance_score"`
	KeyFindings         []string `json:"key_findings"`
	ResumeDiscrepancies []string `json:"resume_discrepancies"`
	Summary             string   `json:"summary"`
	Notes               []string `json:"notes,omitempty"`
	Reason              string   `json:"reason,omitempty"`
}

// NewRecord flattens an outcome. Failed outcomes have score 0, no findings and the sentinel summary.
func NewRecord(o types.AuditOutcome) Record {
	findings := o.KeyFindings()
	if findings == nil {
		findings = []string{}
	}
	discrepancies := o.Discrepancies()
	if discrepancies == nil {
		discrepancies = []string{}
	}
	return Record{
		Name:                o.CandidateName(),
		Role:                o.TargetRole,
		Status:              string(o.Status),
		RelevanceScore:      o.RelevanceScore(),
		KeyFindings:         findings,
		ResumeDiscrepancies: discrepancies,
		Summary:             o.Summary(),
		Notes:               o.Notes,
		Reason:              o.Reason,
	}
}

// Row renders the record in Columns order.
func (r Record) Row() []string {
	return []string{
		r.Name,
		r.Role,
		r.Status,
		strconv.Itoa(r.RelevanceScore),
		strings.Join(r.KeyFindings, listSeparator),
		strings.Join(r.ResumeDiscrepancies, listSeparator),
		r.Summary,
	}
}

// WriteOutcomes writes outcomes to path, picking the format from its extension (.csv, .json, .docx).
func WriteOutcomes(path string, outcomes []types.AuditOutcome) error {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".csv", ".json":
	case ".docx":
		return WriteDOCX(path, outcomes)
	default:
		return fmt.Errorf("unsupported output format %q (want .csv, .json or .docx)", ext)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if ext == ".csv" {
		err = WriteCSV(f, outcomes)
	} else {
		err = WriteJSON(f, outcomes)
	}
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	return err
}

// WriteCSV writes a header row and one row per outcome.
func WriteCSV(w io.Writer, outcomes []types.AuditOutcome) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, o := range outcomes {
		if err := cw.Write(NewRecord(o).Row()); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteJSON writes an indented JSON array of records.
func WriteJSON(w io.Writer, outcomes []types.AuditOutcome) error {
	records := make([]Record, 0, len(outcomes))
	for _, o := range outcomes {
		records = append(records, NewRecord(o))
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("failed to write JSON: %w", err)
	}
	return nil
}

// WriteDOCX writes a Word document with one section per outcome.
func WriteDOCX(path string, outcomes []types.AuditOutcome) error {
	f := docx.NewFile()

	f.AddParagraph().AddText("Candidate Audit Report").Size(20)
	f.AddParagraph().AddText(fmt.Sprintf("Candidates: %d", len(outcomes)))
	f.AddParagraph()

	for i, o := range outcomes {
		rec := NewRecord(o)
		f.AddParagraph().AddText(fmt.Sprintf("%d. %s (%s)", i+1, rec.Name, rec.Role)).Size(14)
		f.AddParagraph().AddText(fmt.Sprintf("Status: %s    Relevance score: %d/10", rec.Status, rec.RelevanceScore))

		if len(rec.KeyFindings) > 0 {
			f.AddParagraph().AddText("Key findings:")
			for _, finding := range rec.KeyFindings {
				f.AddParagraph().AddText("- " + finding)
			}
		}
		if len(rec.ResumeDiscrepancies) > 0 {
			f.AddParagraph().AddText("Resume discrepancies:")
			for _, d := range rec.ResumeDiscrepancies {
				f.AddParagraph().AddText("- " + d)
			}
		}
		f.AddParagraph().AddText("Summary: " + rec.Summary)
		for _, note := range rec.Notes {
			f.AddParagraph().AddText("Note: " + note)
		}
		f.AddParagraph().AddText("--------------------------------------------------")
	}

	if err := f.Save(path); err != nil {
		return fmt.Errorf("failed to write DOCX: %w", err)
	}
	return nil
}
