package audit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jonathan/resume-auditor/internal/agent"
	"github.com/jonathan/resume-auditor/internal/llm"
	"github.com/jonathan/resume-auditor/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedRunner returns errs[i] on call i, then a report once errs run out.
type scriptedRunner struct {
	mu    sync.Mutex
	errs  []error
	calls int
	notes []string
	panic any
	block chan struct{}
}

func (r *scriptedRunner) Run(ctx context.Context, req types.CandidateRequest) (*types.CandidateReport, *agent.RunInfo, error) {
	r.mu.Lock()
	i := r.calls
	r.calls++
	r.mu.Unlock()

	if r.panic != nil {
		panic(r.panic)
	}
	if r.block != nil {
		<-r.block
	}
	info := &agent.RunInfo{Notes: r.notes}
	if i < len(r.errs) {
		return nil, info, r.errs[i]
	}
	return &types.CandidateReport{
		CandidateName:       req.Name,
		RelevanceScore:      7,
		KeyFindings:         []string{"verified"},
		ResumeDiscrepancies: []string{},
		Summary:             "ok",
	}, info, nil
}

func (r *scriptedRunner) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

// recordingSleeper captures backoff waits without sleeping.
type recordingSleeper struct {
	mu    sync.Mutex
	waits []time.Duration
}

func (s *recordingSleeper) Sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	s.waits = append(s.waits, d)
	s.mu.Unlock()
	return ctx.Err()
}

func (s *recordingSleeper) total() time.Duration {
	var sum time.Duration
	for _, w := range s.waits {
		sum += w
	}
	return sum
}

func rateLimited() error {
	return &llm.ProviderError{Kind: llm.KindRateLimited, StatusCode: 429, Message: "too many requests"}
}

func unavailable() error {
	return &llm.ProviderError{Kind: llm.KindUnavailable, StatusCode: 503, Message: "service unavailable"}
}

func invalidRequest() error {
	return &llm.ProviderError{Kind: llm.KindInvalidRequest, StatusCode: 400, Message: "malformed"}
}

func request() types.CandidateRequest {
	return types.CandidateRequest{Name: "Ada Lovelace", TargetRole: "Staff Engineer"}
}

func newTestJob(runner Runner) (*Job, *recordingSleeper) {
	sleeper := &recordingSleeper{}
	policy := DefaultRetryPolicy()
	policy.Sleep = sleeper.Sleep
	return NewJob(runner, policy), sleeper
}

func assertFailure(t *testing.T, outcome types.AuditOutcome) {
	t.Helper()
	assert.False(t, outcome.Completed())
	assert.Equal(t, types.StatusFailed, outcome.Status)
	require.NotNil(t, outcome.Failure)
	assert.Nil(t, outcome.Report)
	assert.Equal(t, 0, outcome.RelevanceScore())
	assert.Equal(t, types.FailureSummary, outcome.Summary())
	assert.Equal(t, "Ada Lovelace", outcome.CandidateName())
}

func TestLinearBackoff(t *testing.T) {
	assert.Equal(t, 10*time.Second, LinearBackoff(1, DefaultBaseDelay))
	assert.Equal(t, 20*time.Second, LinearBackoff(2, DefaultBaseDelay))
	assert.Equal(t, 30*time.Millisecond, LinearBackoff(3, 10*time.Millisecond))
}

func TestJob_RetryBoundAlwaysRateLimited(t *testing.T) {
	runner := &scriptedRunner{errs: []error{rateLimited(), rateLimited(), rateLimited(), rateLimited()}}
	job, sleeper := newTestJob(runner)

	outcome := job.Run(context.Background(), request())

	assertFailure(t, outcome)
	assert.Equal(t, 3, runner.callCount())
	assert.Equal(t, 3, outcome.Attempts)
	assert.Equal(t, []time.Duration{10 * time.Second, 20 * time.Second}, sleeper.waits)
	assert.Equal(t, 30*time.Second, sleeper.total())
	assert.Contains(t, outcome.Reason, "retries exhausted")
}

func TestJob_NonTransientShortCircuit(t *testing.T) {
	runner := &scriptedRunner{errs: []error{invalidRequest()}}
	job, sleeper := newTestJob(runner)

	outcome := job.Run(context.Background(), request())

	assertFailure(t, outcome)
	assert.Equal(t, 1, runner.callCount())
	assert.Equal(t, 1, outcome.Attempts)
	assert.Empty(t, sleeper.waits)
}

func TestJob_SchemaViolationIsNotRetried(t *testing.T) {
	runner := &scriptedRunner{errs: []error{&agent.SchemaViolationError{Attempts: 2, Errors: []string{"summary is required"}}}}
	job, sleeper := newTestJob(runner)

	outcome := job.Run(context.Background(), request())

	assertFailure(t, outcome)
	assert.Equal(t, 1, runner.callCount())
	assert.Empty(t, sleeper.waits)
	assert.Contains(t, outcome.Reason, "schema violation")
}

func TestJob_TransientThenSuccess(t *testing.T) {
	runner := &scriptedRunner{errs: []error{unavailable(), rateLimited()}}
	job, sleeper := newTestJob(runner)

	outcome := job.Run(context.Background(), request())

	require.True(t, outcome.Completed())
	assert.Equal(t, 3, outcome.Attempts)
	assert.Equal(t, 7, outcome.RelevanceScore())
	assert.Equal(t, "Staff Engineer", outcome.TargetRole)
	assert.Equal(t, []time.Duration{10 * time.Second, 20 * time.Second}, sleeper.waits)
}

func TestJob_InvalidRequestNeverRuns(t *testing.T) {
	runner := &scriptedRunner{}
	job, _ := newTestJob(runner)

	outcome := job.Run(context.Background(), types.CandidateRequest{Name: "Ada Lovelace", TargetRole: "  "})

	assertFailure(t, outcome)
	assert.Equal(t, 0, runner.callCount())
	assert.Equal(t, 0, outcome.Attempts)
	assert.Contains(t, outcome.Reason, "invalid candidate request")
}

func TestJob_PanicBecomesFailure(t *testing.T) {
	runner := &scriptedRunner{panic: "nil map write"}
	job, _ := newTestJob(runner)

	var outcome types.AuditOutcome
	require.NotPanics(t, func() {
		outcome = job.Run(context.Background(), request())
	})
	assertFailure(t, outcome)
	assert.Equal(t, 1, runner.callCount())
	assert.Contains(t, outcome.Reason, "panicked")
}

func TestJob_DeadlineAbandonsStuckAttempt(t *testing.T) {
	runner := &scriptedRunner{block: make(chan struct{})}
	defer close(runner.block)
	job, _ := newTestJob(runner)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	outcome := job.Run(ctx, request())

	assertFailure(t, outcome)
	assert.Contains(t, outcome.Reason, "abandoned")
}

func TestJob_CancelledDuringBackoff(t *testing.T) {
	runner := &scriptedRunner{errs: []error{rateLimited(), rateLimited(), rateLimited()}}
	job := NewJob(runner, RetryPolicy{MaxAttempts: 3, BaseDelay: time.Hour})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	start := time.Now()
	outcome := job.Run(ctx, request())

	assertFailure(t, outcome)
	assert.Less(t, time.Since(start), 5*time.Second)
	assert.Equal(t, 1, runner.callCount())
	assert.Contains(t, outcome.Reason, "abandoned")
}

func TestJob_AlreadyCancelled(t *testing.T) {
	runner := &scriptedRunner{}
	job, _ := newTestJob(runner)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	outcome := job.Run(ctx, request())
	assertFailure(t, outcome)
	assert.Equal(t, 0, runner.callCount())
}

func TestJob_NotesPropagate(t *testing.T) {
	runner := &scriptedRunner{notes: []string{agent.ConditionDocumentTooLarge + ": 11MB"}}
	job, _ := newTestJob(runner)

	outcome := job.Run(context.Background(), request())
	require.True(t, outcome.Completed())
	assert.Equal(t, runner.notes, outcome.Notes)
}

func TestJob_Idempotent(t *testing.T) {
	for _, errs := range [][]error{nil, {invalidRequest()}, {rateLimited(), rateLimited(), rateLimited()}} {
		first, _ := newTestJob(&scriptedRunner{errs: errs})
		second, _ := newTestJob(&scriptedRunner{errs: errs})

		a := first.Run(context.Background(), request())
		b := second.Run(context.Background(), request())
		assert.Equal(t, a.Status, b.Status)
		assert.Equal(t, a.Attempts, b.Attempts)
		assert.Equal(t, a.RelevanceScore(), b.RelevanceScore())
	}
}

// Every outcome satisfies the score and findings bounds, whatever the collaborators do.
func TestJob_OutcomeInvariants(t *testing.T) {
	scenarios := []Runner{
		&scriptedRunner{},
		&scriptedRunner{errs: []error{rateLimited()}},
		&scriptedRunner{errs: []error{errors.New("boom")}},
		&scriptedRunner{panic: errors.New("boom")},
	}
	for _, runner := range scenarios {
		job, _ := newTestJob(runner)
		outcome := job.Run(context.Background(), request())
		assert.GreaterOrEqual(t, outcome.RelevanceScore(), 0)
		assert.LessOrEqual(t, outcome.RelevanceScore(), 10)
		assert.LessOrEqual(t, len(outcome.KeyFindings()), 3)
		assert.True(t, (outcome.Report == nil) != (outcome.Failure == nil))
	}
}

func TestRetryPolicy_Do(t *testing.T) {
	sleeper := &recordingSleeper{}
	policy := RetryPolicy{MaxAttempts: 2, BaseDelay: time.Millisecond, Sleep: sleeper.Sleep}

	attempts, err := policy.Do(context.Background(), func(context.Context, int) error { return rateLimited() })
	assert.Equal(t, 2, attempts)
	var exhausted *ExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.True(t, IsTransient(exhausted.Last))
	assert.Equal(t, []time.Duration{time.Millisecond}, sleeper.waits)

	attempts, err = policy.Do(context.Background(), func(context.Context, int) error { return nil })
	assert.Equal(t, 1, attempts)
	assert.NoError(t, err)
}

func TestSleepContext(t *testing.T) {
	assert.NoError(t, SleepContext(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, SleepContext(ctx, time.Hour), context.Canceled)
}
