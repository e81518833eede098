package fetch

import (
	"context"
	"math/rand/v2"
	"time"
)

// Pacer enforces a randomized politeness delay between consecutive
// requests. It is shared by every worker of a run, so parallelism cannot
// bypass it: grants are handed out one at a time with a full delay between
// them. The first grant is immediate.
type Pacer struct {
	min, max time.Duration
	gate     chan struct{}
	started  bool
	sleep    func(ctx context.Context, d time.Duration) error
}

// NewPacer creates a pacer drawing delays uniformly from [min, max].
func NewPacer(min, max time.Duration) *Pacer {
	if max < min {
		max = min
	}
	return &Pacer{
		min:   min,
		max:   max,
		gate:  make(chan struct{}, 1),
		sleep: sleepContext,
	}
}

// Wait blocks until the caller may issue its next request.
func (p *Pacer) Wait(ctx context.Context) error {
	select {
	case p.gate <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-p.gate }()

	if !p.started {
		p.started = true
		return ctx.Err()
	}

	return p.sleep(ctx, p.Delay())
}

// Delay draws one delay from the configured range.
func (p *Pacer) Delay() time.Duration {
	if p.max <= p.min {
		return p.min
	}
	return p.min + rand.N(p.max-p.min+1)
}
