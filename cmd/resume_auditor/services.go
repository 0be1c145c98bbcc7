package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jonathan/resume-auditor/internal/agent"
	"github.com/jonathan/resume-auditor/internal/audit"
	"github.com/jonathan/resume-auditor/internal/config"
	"github.com/jonathan/resume-auditor/internal/evidence"
	"github.com/jonathan/resume-auditor/internal/fetch"
	"github.com/jonathan/resume-auditor/internal/llm"
	"github.com/jonathan/resume-auditor/internal/ratelimit"
	"github.com/jonathan/resume-auditor/internal/search"
)

// services holds the long-lived collaborators shared by every audit in a process.
type services struct {
	client   llm.Client
	gatherer *evidence.Gatherer
	agent    *agent.Agent
	job      *audit.Job
}

// Close releases the model client.
func (s *services) Close() {
	if s.client != nil {
		_ = s.client.Close()
	}
}

// buildSearcher assembles the configured search backends, in order.
func buildSearcher(ctx context.Context, cfg config.Config) (search.Searcher, error) {
	var backends []search.Searcher
	for _, name := range cfg.SearchBackends {
		switch name {
		case config.BackendCustomSearch:
			if !cfg.HasCustomSearch() {
				if cfg.Verbose {
					log.Printf("[SEARCH] custom search skipped: %s and %s not set", config.EnvSearchAPIKey, config.EnvSearchCX)
				}
				continue
			}
			cs, err := search.NewCustomSearch(ctx, cfg.SearchAPIKey, cfg.SearchCX)
			if err != nil {
				return nil, err
			}
			backends = append(backends, cs)
		case config.BackendNews:
			backends = append(backends, search.NewNewsSearch())
		}
	}
	if len(backends) == 0 {
		if cfg.UsesBackend(config.BackendCustomSearch) {
			return nil, fmt.Errorf("no search backend available: %s needs %s and %s, or enable %q in search_backends",
				config.BackendCustomSearch, config.EnvSearchAPIKey, config.EnvSearchCX, config.BackendNews)
		}
		return nil, fmt.Errorf("no search backend available: enable %q or %q in search_backends",
			config.BackendCustomSearch, config.BackendNews)
	}

	multi := search.NewMulti(backends...)
	multi.Verbose = cfg.Verbose
	return multi, nil
}

// buildGatherer wires search, throttling and the optional browser renderer.
func buildGatherer(ctx context.Context, cfg config.Config) (*evidence.Gatherer, error) {
	searcher, err := buildSearcher(ctx, cfg)
	if err != nil {
		return nil, err
	}

	g := evidence.New(searcher)
	g.Verbose = cfg.Verbose
	g.MaxContentLength = cfg.MaxContentLength
	if d := cfg.FetchTimeoutDuration(); d > 0 {
		g.FetchTimeout = d
	}

	limits := ratelimit.DefaultConfig()
	limits.Limit = cfg.SearchRateLimit
	g.Limiter = ratelimit.NewLimiter(limits)

	if cfg.UseBrowser {
		g.Renderer = fetch.NewBrowser(g.FetchTimeout, cfg.Verbose)
	}
	return g, nil
}

// buildServices constructs the model client, gatherer, agent and job once.
func buildServices(ctx context.Context, cfg config.Config) (*services, error) {
	if err := requireAPIKey(cfg); err != nil {
		return nil, err
	}

	gatherer, err := buildGatherer(ctx, cfg)
	if err != nil {
		return nil, err
	}

	tier := llm.ParseTier(cfg.Tier)
	llmConfig := llm.DefaultConfig()
	if cfg.Model != "" {
		llmConfig = llmConfig.WithModel(tier, cfg.Model)
	}
	client, err := llm.NewClient(ctx, llmConfig, cfg.APIKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}

	a := agent.New(client, gatherer)
	a.Tier = tier
	a.MaxSteps = cfg.MaxSteps
	a.MaxFailedEvidence = cfg.MaxFailedEvidence
	a.FinalizeAttempts = cfg.FinalizeAttempts
	a.MaxDocumentBytes = cfg.MaxDocumentBytes
	a.Verbose = cfg.Verbose

	job := audit.NewJob(a, retryPolicy(cfg))
	job.Verbose = cfg.Verbose

	return &services{client: client, gatherer: gatherer, agent: a, job: job}, nil
}

func retryPolicy(cfg config.Config) audit.RetryPolicy {
	policy := audit.DefaultRetryPolicy()
	if cfg.MaxAttempts > 0 {
		policy.MaxAttempts = cfg.MaxAttempts
	}
	// An explicit "0s" disables the backoff wait.
	if cfg.RetryBaseDelay != "" {
		policy.BaseDelay = cfg.RetryBaseDelayDuration()
	}
	return policy
}

// withDeadline bounds ctx when d is positive.
func withDeadline(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
