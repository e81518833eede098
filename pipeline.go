package newsgrab

import (
	"context"

	"github.com/pevans/newsgrab/discovery"
	"github.com/pevans/newsgrab/logger"
)

// ErrNoURLs is the run-level error reported when discovery finds nothing.
const ErrNoURLs = "no URLs found"

// Result is the outcome of one full pipeline run. Error is set instead of
// Stats when the run could not start.
type Result struct {
	Candidates    int       `json:"candidates"`
	LowConfidence int       `json:"lowConfidence,omitempty"`
	Stats         *RunStats `json:"stats,omitempty"`
	Error         string    `json:"error,omitempty"`
}

// URLDiscoverer produces the candidate set for a run.
type URLDiscoverer interface {
	Discover(ctx context.Context) (*discovery.CandidateSet, error)
}

// Pipeline chains discovery and the batch runner.
type Pipeline struct {
	discoverer URLDiscoverer
	runner     *Runner
	log        *logger.Logger
}

// NewPipeline creates a pipeline.
func NewPipeline(d URLDiscoverer, r *Runner, log *logger.Logger) *Pipeline {
	if log == nil {
		log = logger.Nop()
	}
	return &Pipeline{discoverer: d, runner: r, log: log}
}

// Run discovers candidates and processes them. It never returns an error;
// run-level failures are reported in Result.Error so the caller decides
// whether to exit or retry later.
func (p *Pipeline) Run(ctx context.Context) Result {
	set, err := p.discoverer.Discover(ctx)
	if err != nil {
		p.log.Error("discovery failed", "error", err)
	}
	if set == nil || set.Len() == 0 {
		return Result{Error: ErrNoURLs}
	}

	result := Result{Candidates: set.Len()}
	for _, c := range set.Candidates() {
		if c.Confidence == discovery.ConfidenceLow {
			result.LowConfidence++
		}
	}
	if result.LowConfidence > 0 {
		p.log.Warn("some candidates came from the permissive fallback", "count", result.LowConfidence)
	}

	stats := p.runner.Run(ctx, set.URLs())
	result.Stats = &stats

	return result
}
