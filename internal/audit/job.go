package audit

import (
	"context"
	"fmt"
	"log"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/resume-auditor/internal/agent"
	"github.com/jonathan/resume-auditor/internal/llm"
	"github.com/jonathan/resume-auditor/internal/types"
)

// Runner performs one audit attempt. *agent.Agent implements it.
type Runner interface {
	Run(ctx context.Context, req types.CandidateRequest) (*types.CandidateReport, *agent.RunInfo, error)
}

// PanicError is an attempt that panicked. It is never retried.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("audit attempt panicked: %v", e.Value)
}

// Job runs a Runner under a RetryPolicy. It is safe for concurrent use.
type Job struct {
	runner  Runner
	Policy  RetryPolicy
	Verbose bool
}

// NewJob creates a Job with the given policy.
func NewJob(runner Runner, policy RetryPolicy) *Job {
	return &Job{runner: runner, Policy: policy}
}

// Run audits req and never panics or returns an error: every failure, including
// cancellation and exhausted retries, becomes a failed outcome with the sentinel summary.
func (j *Job) Run(ctx context.Context, req types.CandidateRequest) (outcome types.AuditOutcome) {
	jobID := uuid.NewString()
	start := time.Now()
	attempts := 0
	var notes []string

	defer func() {
		if r := recover(); r != nil {
			j.logf(jobID, "recovered panic: %v\n%s", r, debug.Stack())
			outcome = types.FailedOutcome(req, attempts, (&PanicError{Value: r}).Error())
			outcome.Notes = notes
		}
		j.logf(jobID, "%s finished %s after %d attempt(s) in %v", req.Name, outcome.Status, outcome.Attempts, time.Since(start).Round(time.Millisecond))
	}()

	if err := req.Validate(); err != nil {
		return types.FailedOutcome(req, 0, err.Error())
	}
	if err := ctx.Err(); err != nil {
		return types.FailedOutcome(req, 0, "audit not started: "+err.Error())
	}
	j.logf(jobID, "auditing %s for %s", req.Name, req.TargetRole)

	var report *types.CandidateReport
	attempts, err := j.Policy.Do(ctx, func(ctx context.Context, attempt int) error {
		attempts = attempt
		r, info, err := j.attempt(ctx, req)
		if info != nil {
			notes = info.Notes
		}
		if err != nil {
			j.logf(jobID, "attempt %d failed (kind=%s transient=%v): %v", attempt, llm.KindOf(err), IsTransient(err), err)
			return err
		}
		report = r
		return nil
	})

	if err != nil {
		outcome = types.FailedOutcome(req, attempts, err.Error())
	} else {
		outcome = types.CompletedOutcome(req, report, attempts)
	}
	outcome.Notes = notes
	return outcome
}

type attemptResult struct {
	report *types.CandidateReport
	info   *agent.RunInfo
	err    error
}

// attempt runs the Runner in its own goroutine so a collaborator that ignores
// ctx cannot keep the job past its deadline.
func (j *Job) attempt(ctx context.Context, req types.CandidateRequest) (*types.CandidateReport, *agent.RunInfo, error) {
	done := make(chan attemptResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- attemptResult{err: &PanicError{Value: r, Stack: debug.Stack()}}
			}
		}()
		report, info, err := j.runner.Run(ctx, req)
		if err == nil && report == nil {
			err = fmt.Errorf("audit runner returned no report")
		}
		done <- attemptResult{report: report, info: info, err: err}
	}()

	select {
	case res := <-done:
		return res.report, res.info, res.err
	case <-ctx.Done():
		return nil, nil, fmt.Errorf("audit abandoned: %w", ctx.Err())
	}
}

func (j *Job) logf(jobID, format string, args ...any) {
	if j.Verbose {
		log.Printf("[AUDIT] job=%s "+format, append([]any{jobID[:8]}, args...)...)
	}
}
