// Package audit runs one candidate audit with bounded retries and always resolves it to an AuditOutcome.
package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/jonathan/resume-auditor/internal/llm"
)

const (
	// DefaultMaxAttempts is the total number of agent runs per candidate.
	DefaultMaxAttempts = 3
	// DefaultBaseDelay is the linear backoff unit: the wait before retry n is n*DefaultBaseDelay.
	DefaultBaseDelay = 10 * time.Second
)

// BackoffFunc returns the wait after the given failed attempt (1-based).
type BackoffFunc func(attempt int, base time.Duration) time.Duration

// LinearBackoff waits attempt*base: 10s then 20s with the defaults.
func LinearBackoff(attempt int, base time.Duration) time.Duration {
	return time.Duration(attempt) * base
}

// Sleeper waits for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// SleepContext is the production Sleeper.
func SleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// IsTransient reports whether err is a rate-limit or temporary-unavailability failure.
func IsTransient(err error) bool {
	return llm.IsTransient(err)
}

// RetryPolicy decides how often and how long to retry a failed attempt.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Backoff     BackoffFunc
	Retryable   func(error) bool
	Sleep       Sleeper
}

// DefaultRetryPolicy retries transient failures up to 3 attempts with linear backoff.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: DefaultMaxAttempts,
		BaseDelay:   DefaultBaseDelay,
		Backoff:     LinearBackoff,
		Retryable:   IsTransient,
		Sleep:       SleepContext,
	}
}

// withDefaults fills zero fields so a partially configured policy still behaves.
func (p RetryPolicy) withDefaults() RetryPolicy {
	d := DefaultRetryPolicy()
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = d.MaxAttempts
	}
	if p.BaseDelay < 0 {
		p.BaseDelay = 0
	}
	if p.Backoff == nil {
		p.Backoff = d.Backoff
	}
	if p.Retryable == nil {
		p.Retryable = d.Retryable
	}
	if p.Sleep == nil {
		p.Sleep = d.Sleep
	}
	return p
}

// ExhaustedError is returned when every attempt failed transiently.
type ExhaustedError struct {
	Attempts int
	Last     error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("retries exhausted after %d attempts: %v", e.Attempts, e.Last)
}

func (e *ExhaustedError) Unwrap() error {
	return e.Last
}

// AbandonedError is returned when ctx ends during a backoff wait.
type AbandonedError struct {
	Attempts int
	Last     error
	Cause    error
}

func (e *AbandonedError) Error() string {
	return fmt.Sprintf("abandoned after %d attempts (%v): last error: %v", e.Attempts, e.Cause, e.Last)
}

func (e *AbandonedError) Unwrap() []error {
	return []error{e.Cause, e.Last}
}

// Do calls fn until it succeeds, fails non-transiently, or runs out of attempts.
// It returns the number of attempts made and the final error.
func (p RetryPolicy) Do(ctx context.Context, fn func(ctx context.Context, attempt int) error) (int, error) {
	p = p.withDefaults()

	var last error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		last = fn(ctx, attempt)
		if last == nil {
			return attempt, nil
		}
		if !p.Retryable(last) {
			return attempt, last
		}
		if attempt == p.MaxAttempts {
			break
		}
		if err := p.Sleep(ctx, p.Backoff(attempt, p.BaseDelay)); err != nil {
			return attempt, &AbandonedError{Attempts: attempt, Last: last, Cause: err}
		}
	}
	return p.MaxAttempts, &ExhaustedError{Attempts: p.MaxAttempts, Last: last}
}
