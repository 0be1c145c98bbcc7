// Package tool exposes the auditor as Model Context Protocol tools.
package tool

import (
	"context"
	"encoding/base64"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/jonathan/resume-auditor/internal/document"
	"github.com/jonathan/resume-auditor/internal/types"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// MetadataAuditCandidate describes the audit_candidate tool.
var MetadataAuditCandidate = &mcp.Tool{
	Name: "audit_candidate",
	Description: "Audit one job candidate against public information. " +
		"The auditor searches the web, reads relevant pages and, when a résumé is supplied, " +
		"cross-checks employment dates, skills and company roles against what it finds. " +
		"Returns a relevance score from 1 to 10, at most three key findings, any résumé " +
		"discrepancies and a short summary. Failed audits return status \"failed\" with a " +
		"fixed summary and a relevance score of 0.",
}

// InputAuditCandidate is the input for the AuditCandidate tool.
type InputAuditCandidate struct {
	Name           string `json:"name" jsonschema:"full name of the candidate"`
	Role           string `json:"role" jsonschema:"role the candidate is being considered for"`
	ResumePath     string `json:"resume_path,omitempty" jsonschema:"path of a résumé file inside the server's résumé directory; rejected when the server has none"`
	ResumeBase64   string `json:"resume_base64,omitempty" jsonschema:"base64-encoded résumé (PDF, text or image); takes precedence over resume_path"`
	ResumeFilename string `json:"resume_filename,omitempty" jsonschema:"original file name of the base64 résumé"`
}

// OutputAuditCandidate is the output for the AuditCandidate tool.
type OutputAuditCandidate struct {
	Status              string   `json:"status"`
	CandidateName       string   `json:"candidate_name"`
	RelevanceScore      int      `json:"relevance_score"`
	KeyFindings         []string `json:"key_findings"`
	ResumeDiscrepancies []string `json:"resume_discrepancies"`
	Summary             string   `json:"summary"`
	Attempts            int      `json:"attempts"`
	Notes               []string `json:"notes,omitempty"`
	Reason              string   `json:"reason,omitempty"`
}

// Auditor runs one audit to completion. *audit.Job satisfies it.
type Auditor interface {
	Run(ctx context.Context, req types.CandidateRequest) types.AuditOutcome
}

// Audit serves audit_candidate calls through an Auditor.
type Audit struct {
	auditor          Auditor
	MaxDocumentBytes int64
	// ResumeDir is the only directory resume_path may name. Empty disables resume_path.
	ResumeDir string
}

// NewAudit creates the tool handler.
func NewAudit(auditor Auditor) *Audit {
	return &Audit{auditor: auditor, MaxDocumentBytes: document.DefaultMaxBytes}
}

// Register adds audit_candidate to server.
func (a *Audit) Register(server *mcp.Server) {
	mcp.AddTool(server, MetadataAuditCandidate, a.AuditCandidate)
}

// AuditCandidate runs a single audit. Uploaded résumés are staged in a private
// temp directory that is removed before the call returns.
func (a *Audit) AuditCandidate(ctx context.Context, _ *mcp.CallToolRequest, input InputAuditCandidate) (*mcp.CallToolResult, OutputAuditCandidate, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, OutputAuditCandidate{}, fmt.Errorf("name is required")
	}
	if strings.TrimSpace(input.Role) == "" {
		return nil, OutputAuditCandidate{}, fmt.Errorf("role is required")
	}

	req := types.CandidateRequest{
		Name:       strings.TrimSpace(input.Name),
		TargetRole: strings.TrimSpace(input.Role),
	}

	if input.ResumeBase64 != "" {
		decoder := base64.NewDecoder(base64.StdEncoding, strings.NewReader(strings.TrimSpace(input.ResumeBase64)))
		staged, err := document.Stage(input.ResumeFilename, decoder, a.MaxDocumentBytes)
		if err != nil {
			return nil, OutputAuditCandidate{}, fmt.Errorf("failed to stage résumé upload: %w", err)
		}
		defer staged.Cleanup()
		req.ResumePath = staged.Path
	} else if p := strings.TrimSpace(input.ResumePath); p != "" {
		resolved, err := a.resolveResumePath(p)
		if err != nil {
			return nil, OutputAuditCandidate{}, err
		}
		req.ResumePath = resolved
	}

	return nil, NewOutput(a.auditor.Run(ctx, req)), nil
}

// resolveResumePath maps a client-supplied path onto a file under ResumeDir.
// Relative paths are taken from ResumeDir; anything escaping it is refused.
func (a *Audit) resolveResumePath(p string) (string, error) {
	if a.ResumeDir == "" {
		return "", fmt.Errorf("resume_path is disabled on this server; send resume_base64 instead")
	}
	base, err := filepath.Abs(a.ResumeDir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve résumé directory: %w", err)
	}
	if !filepath.IsAbs(p) {
		p = filepath.Join(base, p)
	}
	resolved := filepath.Clean(p)

	// Follow symlinks on both sides so a link inside the directory cannot point out of it.
	if real, err := filepath.EvalSymlinks(base); err == nil {
		base = real
	}
	if real, err := filepath.EvalSymlinks(resolved); err == nil {
		resolved = real
	}
	rel, err := filepath.Rel(base, resolved)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("resume_path %q is outside the résumé directory", p)
	}
	return resolved, nil
}

// NewOutput flattens an outcome into the tool's structured result.
func NewOutput(o types.AuditOutcome) OutputAuditCandidate {
	out := OutputAuditCandidate{
		Status:              string(o.Status),
		CandidateName:       o.CandidateName(),
		RelevanceScore:      o.RelevanceScore(),
		KeyFindings:         o.KeyFindings(),
		ResumeDiscrepancies: o.Discrepancies(),
		Summary:             o.Summary(),
		Attempts:            o.Attempts,
		Notes:               o.Notes,
		Reason:              o.Reason,
	}
	if out.KeyFindings == nil {
		out.KeyFindings = []string{}
	}
	if out.ResumeDiscrepancies == nil {
		out.ResumeDiscrepancies = []string{}
	}
	return out
}
