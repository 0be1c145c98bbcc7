// Package agent runs one candidate's audit as a bounded tool-calling session with the model.
package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/jonathan/resume-auditor/internal/document"
	"github.com/jonathan/resume-auditor/internal/llm"
	"github.com/jonathan/resume-auditor/internal/prompts"
	"github.com/jonathan/resume-auditor/internal/schemas"
	"github.com/jonathan/resume-auditor/internal/types"
)

const (
	// DefaultMaxSteps caps evidence tool calls per session.
	DefaultMaxSteps = 8
	// DefaultMaxFailedEvidence caps failed tool calls before the session is forced to finalize.
	DefaultMaxFailedEvidence = 5
	// DefaultFinalizeAttempts is how many times the model may try to emit a valid report.
	DefaultFinalizeAttempts = 2
)

// Tool names declared to the model.
const (
	ToolWebSearch = "web_search"
	ToolFetchPage = "fetch_page"
)

// Notes appended to the summary when the résumé could not be reviewed.
const (
	NoResumeNote         = "No resume was provided; this assessment is based on public information only."
	UnreadableResumeNote = "The resume could not be read; this assessment is based on public information only."
	TooLargeResumeNote   = "The resume exceeded the size limit and was not reviewed; this assessment is based on public information only."
)

// Conditions reported in RunInfo.Notes.
const (
	ConditionDocumentUnreadable = "DocumentUnreadable"
	ConditionDocumentTooLarge   = "DocumentTooLarge"
)

const (
	budgetExhaustedMessage = "step budget exhausted"
	failedEvidenceMessage  = "too many failed evidence calls; no further tool calls will run"
)

// Gatherer is the evidence capability the agent exposes to the model as tools.
type Gatherer interface {
	Run(ctx context.Context, q types.EvidenceQuery) types.EvidenceResult
}

// Agent audits one candidate per Run. It holds no per-run state and is safe for concurrent use.
type Agent struct {
	client   llm.Client
	gatherer Gatherer

	MaxSteps          int
	MaxFailedEvidence int
	FinalizeAttempts  int
	MaxDocumentBytes  int64
	Tier              llm.ModelTier
	Verbose           bool
}

// New creates an Agent with default limits.
func New(client llm.Client, gatherer Gatherer) *Agent {
	return &Agent{
		client:            client,
		gatherer:          gatherer,
		MaxSteps:          DefaultMaxSteps,
		MaxFailedEvidence: DefaultMaxFailedEvidence,
		FinalizeAttempts:  DefaultFinalizeAttempts,
		MaxDocumentBytes:  document.DefaultMaxBytes,
		Tier:              llm.TierStandard,
	}
}

// RunInfo describes how a session went, whether or not it produced a report.
type RunInfo struct {
	Trace          []State
	Steps          int
	FailedEvidence int
	Evidence       []types.EvidenceResult
	Notes          []string
}

// State returns the last state reached.
func (i *RunInfo) State() State {
	if len(i.Trace) == 0 {
		return ""
	}
	return i.Trace[len(i.Trace)-1]
}

// Run audits req. On success the report satisfies the CandidateReport schema.
// Model errors are returned classified as *llm.ProviderError; an unusable final
// answer is returned as *SchemaViolationError.
func (a *Agent) Run(ctx context.Context, req types.CandidateRequest) (*types.CandidateReport, *RunInfo, error) {
	s := &session{
		agent: a,
		req:   req,
		info:  &RunInfo{},
	}
	report, err := s.run(ctx)
	return report, s.info, err
}

// ToolDeclarations returns the tools offered to the model.
func ToolDeclarations() []llm.ToolDeclaration {
	return []llm.ToolDeclaration{
		{
			Name:        ToolWebSearch,
			Description: "Search the public web. Returns numbered results with title, URL and snippet.",
			Params: []llm.ToolParam{
				{Name: "query", Description: "Free-text search query, e.g. the candidate's name plus an employer or skill.", Required: true},
			},
		},
		{
			Name:        ToolFetchPage,
			Description: "Fetch one web page and return its main readable text, truncated.",
			Params: []llm.ToolParam{
				{Name: "url", Description: "Absolute http(s) URL to read.", Required: true},
			},
		},
	}
}

func (a *Agent) maxSteps() int {
	if a.MaxSteps > 0 {
		return a.MaxSteps
	}
	return DefaultMaxSteps
}

func (a *Agent) maxFailedEvidence() int {
	if a.MaxFailedEvidence > 0 {
		return a.MaxFailedEvidence
	}
	return DefaultMaxFailedEvidence
}

func (a *Agent) finalizeAttempts() int {
	if a.FinalizeAttempts > 0 {
		return a.FinalizeAttempts
	}
	return DefaultFinalizeAttempts
}

// resumeStatus records what happened to the candidate's document.
type resumeStatus int

const (
	resumeMissing resumeStatus = iota
	resumeAttached
	resumeUnreadable
	resumeTooLarge
)

// session is the mutable state of one Run.
type session struct {
	agent  *Agent
	req    types.CandidateRequest
	info   *RunInfo
	state  State
	conv   llm.Conversation
	resume resumeStatus
}

func (s *session) logf(format string, args ...any) {
	if s.agent.Verbose {
		log.Printf("[AGENT] %s: "+format, append([]any{s.req.Name}, args...)...)
	}
}

func (s *session) transition(next State) error {
	if s.state != "" && !s.state.CanTransition(next) {
		return &InvalidTransitionError{From: s.state, To: next}
	}
	s.state = next
	s.info.Trace = append(s.info.Trace, next)
	s.logf("-> %s", next)
	return nil
}

func (s *session) fail(err error) (*types.CandidateReport, error) {
	if !s.state.Terminal() {
		s.state = StateFailed
		s.info.Trace = append(s.info.Trace, StateFailed)
	}
	s.logf("failed: %v", err)
	return nil, err
}

func (s *session) run(ctx context.Context) (*types.CandidateReport, error) {
	if err := s.transition(StateStart); err != nil {
		return s.fail(err)
	}
	if err := s.req.Validate(); err != nil {
		return s.fail(err)
	}

	resumeNote, docs := s.loadResume()

	system, err := prompts.Render("system-policy", map[string]string{
		"MaxSteps": strconv.Itoa(s.agent.maxSteps()),
	})
	if err != nil {
		return s.fail(err)
	}
	task, err := prompts.Render("audit-task", map[string]string{
		"Name":       s.req.Name,
		"Role":       s.req.TargetRole,
		"ResumeNote": resumeNote,
	})
	if err != nil {
		return s.fail(err)
	}

	s.conv, err = s.agent.client.StartConversation(ctx, llm.ConversationOptions{
		Tier:              s.agent.Tier,
		SystemInstruction: system,
		Tools:             ToolDeclarations(),
		Output:            llm.CandidateReportSchema(),
	})
	if err != nil {
		return s.fail(llm.Classify(err))
	}

	if err := s.transition(StatePlanning); err != nil {
		return s.fail(err)
	}
	pending, err := s.research(ctx, llm.Message{Text: task, Documents: docs})
	if err != nil {
		return s.fail(err)
	}
	return s.finalize(ctx, pending)
}

// loadResume returns the prompt note describing the résumé and the documents to attach.
func (s *session) loadResume() (string, []llm.Document) {
	if !s.req.HasResume() {
		s.resume = resumeMissing
		return prompts.MustGet(prompts.AuditFile, "resume-missing"), nil
	}

	doc, err := document.Load(s.req.ResumePath, s.agent.MaxDocumentBytes)
	switch {
	case err == nil:
		s.resume = resumeAttached
		s.logf("attached %s (%s, %d bytes)", doc.Name, doc.MIMEType, len(doc.Data))
		note := prompts.Format(prompts.MustGet(prompts.AuditFile, "resume-attached"), map[string]string{
			"DocumentName": doc.Name,
		})
		return note, []llm.Document{*doc}
	case document.IsTooLarge(err):
		s.resume = resumeTooLarge
		s.info.Notes = append(s.info.Notes, ConditionDocumentTooLarge+": "+err.Error())
		s.logf("resume too large: %v", err)
		return prompts.MustGet(prompts.AuditFile, "resume-too-large"), nil
	default:
		if !document.IsUnreadable(err) {
			err = &document.UnreadableError{Path: s.req.ResumePath, Message: "failed to load", Cause: err}
		}
		s.resume = resumeUnreadable
		s.info.Notes = append(s.info.Notes, ConditionDocumentUnreadable+": "+err.Error())
		s.logf("resume unreadable: %v", err)
		return prompts.MustGet(prompts.AuditFile, "resume-unreadable"), nil
	}
}

// research runs the tool loop until the model stops calling tools or a budget is hit.
// It returns tool responses the model has not yet seen.
func (s *session) research(ctx context.Context, msg llm.Message) ([]llm.FunctionResponse, error) {
	for {
		reply, err := s.conv.Send(ctx, msg)
		if err != nil {
			return nil, llm.Classify(err)
		}
		if !reply.HasCalls() {
			s.logf("model finished research after %d step(s)", s.info.Steps)
			return nil, nil
		}

		if err := s.transition(StateToolDispatch); err != nil {
			return nil, err
		}
		responses := make([]llm.FunctionResponse, 0, len(reply.Calls))
		for _, call := range reply.Calls {
			if reason := s.budgetReason(); reason != "" {
				responses = append(responses, refusal(call, reason))
				continue
			}
			responses = append(responses, s.dispatch(ctx, call))
		}
		if err := s.transition(StateToolResult); err != nil {
			return nil, err
		}

		if err := ctx.Err(); err != nil {
			return nil, llm.Classify(err)
		}
		if reason := s.budgetReason(); reason != "" {
			s.logf("forcing finalize: %s (steps=%d failed=%d)", reason, s.info.Steps, s.info.FailedEvidence)
			return responses, nil
		}
		msg = llm.Message{Responses: responses}
	}
}

// budgetReason returns why no further tool call may run, or "".
func (s *session) budgetReason() string {
	switch {
	case s.info.Steps >= s.agent.maxSteps():
		return budgetExhaustedMessage
	case s.info.FailedEvidence >= s.agent.maxFailedEvidence():
		return failedEvidenceMessage
	default:
		return ""
	}
}

func refusal(call llm.FunctionCall, reason string) llm.FunctionResponse {
	return llm.FunctionResponse{
		Name:     call.Name,
		Response: map[string]any{"ok": false, "error": reason},
	}
}

// dispatch executes one tool call and counts it against the budgets.
func (s *session) dispatch(ctx context.Context, call llm.FunctionCall) llm.FunctionResponse {
	var result types.EvidenceResult
	if q, ok := evidenceQuery(call); ok {
		result = s.agent.gatherer.Run(ctx, q)
	} else {
		result = types.EvidenceFailure("", call.Name, fmt.Sprintf("unknown tool %q", call.Name))
	}

	s.info.Steps++
	if !result.OK {
		s.info.FailedEvidence++
	}
	s.info.Evidence = append(s.info.Evidence, result)
	s.logf("step %d %s(%q) ok=%v", s.info.Steps, call.Name, result.Target, result.OK)

	return llm.FunctionResponse{Name: call.Name, Response: result.AsToolResponse()}
}

// evidenceQuery maps a tool call onto the gatherer's query type.
func evidenceQuery(call llm.FunctionCall) (types.EvidenceQuery, bool) {
	switch call.Name {
	case ToolWebSearch:
		return types.WebSearch(call.StringArg("query")), true
	case ToolFetchPage:
		return types.PageFetch(call.StringArg("url")), true
	default:
		return types.EvidenceQuery{}, false
	}
}

func (s *session) finalize(ctx context.Context, pending []llm.FunctionResponse) (*types.CandidateReport, error) {
	if err := s.transition(StateFinalizing); err != nil {
		return s.fail(err)
	}

	text, err := prompts.Render("finalize", map[string]string{
		"Name":         s.req.Name,
		"Role":         s.req.TargetRole,
		"SchemaPrompt": llm.BuildSchemaPrompt(llm.CandidateReportSchema()),
	})
	if err != nil {
		return s.fail(err)
	}

	msg := llm.Message{Text: text, Responses: pending}
	violation := &SchemaViolationError{}
	for attempt := 1; attempt <= s.agent.finalizeAttempts(); attempt++ {
		raw, err := s.conv.Finalize(ctx, msg)
		if err != nil {
			return s.fail(llm.Classify(err))
		}

		report, problems := parseReport(raw)
		if len(problems) == 0 {
			s.normalize(report)
			if err := s.transition(StateCompleted); err != nil {
				return s.fail(err)
			}
			return report, nil
		}

		violation.Attempts = attempt
		violation.Errors = problems
		violation.Raw = raw
		s.logf("finalize attempt %d rejected: %s", attempt, strings.Join(problems, "; "))

		msg = llm.Message{Text: prompts.Format(prompts.MustGet(prompts.AuditFile, "repair"), map[string]string{
			"Errors": "- " + strings.Join(problems, "\n- "),
		})}
	}
	return s.fail(violation)
}

// parseReport checks raw against the report schema and the type's own invariants.
// Fences and chatter around the object are stripped first.
func parseReport(raw string) (*types.CandidateReport, []string) {
	raw = llm.CleanJSONBlock(raw)
	if err := schemas.ValidateReport(raw); err != nil {
		var validationErr *schemas.ValidationError
		if errors.As(err, &validationErr) {
			return nil, validationErr.Messages()
		}
		return nil, []string{"output is not a JSON object: " + err.Error()}
	}

	var report types.CandidateReport
	if err := json.Unmarshal([]byte(raw), &report); err != nil {
		return nil, []string{"output does not decode as a report: " + err.Error()}
	}
	if err := report.Validate(); err != nil {
		return nil, []string{err.Error()}
	}
	return &report, nil
}

// normalize pins the report to the request and enforces the résumé rules.
func (s *session) normalize(report *types.CandidateReport) {
	report.CandidateName = strings.TrimSpace(s.req.Name)
	if report.KeyFindings == nil {
		report.KeyFindings = []string{}
	}
	if report.ResumeDiscrepancies == nil {
		report.ResumeDiscrepancies = []string{}
	}

	var note string
	switch s.resume {
	case resumeAttached:
		return
	case resumeMissing:
		note = NoResumeNote
	case resumeUnreadable:
		note = UnreadableResumeNote
	case resumeTooLarge:
		note = TooLargeResumeNote
	}

	// Without a reviewed résumé there is nothing to contradict.
	report.ResumeDiscrepancies = []string{}
	if !strings.Contains(report.Summary, note) {
		report.Summary = strings.TrimSpace(report.Summary + " " + note)
	}
}
