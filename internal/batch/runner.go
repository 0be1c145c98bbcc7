// Package batch audits a roster of candidates concurrently and writes the outcomes in roster order.
package batch

import (
	"context"
	"log"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jonathan/resume-auditor/internal/types"
)

// Auditor runs one candidate audit. *audit.Job implements it.
type Auditor interface {
	Run(ctx context.Context, req types.CandidateRequest) types.AuditOutcome
}

// EventKind labels a progress event.
type EventKind string

const (
	EventStarted   EventKind = "started"
	EventCompleted EventKind = "completed"
)

// ProgressEvent reports one job starting or finishing.
type ProgressEvent struct {
	Kind      EventKind           `json:"kind"`
	Index     int                 `json:"index"`
	Total     int                 `json:"total"`
	Name      string              `json:"name"`
	Status    types.OutcomeStatus `json:"status,omitempty"`
	Completed int                 `json:"completed"` // Jobs finished so far, including this one
}

// ProgressCallback receives progress events. Calls are serialized.
type ProgressCallback func(event ProgressEvent)

// Runner fans a roster out over an Auditor.
type Runner struct {
	auditor        Auditor
	MaxConcurrency int // <= 0 means one goroutine per request
	OnProgress     ProgressCallback
	Verbose        bool
}

// NewRunner creates a Runner with unbounded concurrency.
func NewRunner(auditor Auditor) *Runner {
	return &Runner{auditor: auditor}
}

// Run audits every request and returns one outcome per request, in input order.
// A failing candidate never cancels its siblings; when ctx ends, jobs not yet
// finished are recorded as failures by the Auditor.
func (r *Runner) Run(ctx context.Context, reqs []types.CandidateRequest) []types.AuditOutcome {
	outcomes := make([]types.AuditOutcome, len(reqs))
	if len(reqs) == 0 {
		return outcomes
	}

	limit := r.MaxConcurrency
	if limit <= 0 || limit > len(reqs) {
		limit = len(reqs)
	}

	start := time.Now()
	if r.Verbose {
		log.Printf("[BATCH] Auditing %d candidate(s) with max concurrency %d", len(reqs), limit)
	}

	var (
		progressMu sync.Mutex
		completed  int
	)
	emit := func(event ProgressEvent) {
		progressMu.Lock()
		defer progressMu.Unlock()
		if event.Kind == EventCompleted {
			completed++
		}
		event.Completed = completed
		event.Total = len(reqs)
		if r.OnProgress != nil {
			r.OnProgress(event)
		}
	}

	// A plain Group: no shared context, so one job's failure cannot cancel the rest.
	var g errgroup.Group
	g.SetLimit(limit)
	for i, req := range reqs {
		g.Go(func() error {
			emit(ProgressEvent{Kind: EventStarted, Index: i, Name: req.Name})
			outcome := r.auditor.Run(ctx, req)
			outcome.Index = i
			outcomes[i] = outcome
			emit(ProgressEvent{Kind: EventCompleted, Index: i, Name: req.Name, Status: outcome.Status})
			return nil
		})
	}
	_ = g.Wait()

	if r.Verbose {
		failed := 0
		for _, o := range outcomes {
			if !o.Completed() {
				failed++
			}
		}
		log.Printf("[BATCH] Finished %d candidate(s) in %v (%d failed)", len(reqs), time.Since(start).Round(time.Millisecond), failed)
	}
	return outcomes
}
