package newsgrab

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/pevans/newsgrab/articles"
	"github.com/pevans/newsgrab/discovery"
	"github.com/pevans/newsgrab/extract"
	"github.com/pevans/newsgrab/fetch"
	"github.com/pevans/newsgrab/logger"
	"golang.org/x/sync/errgroup"
)

// RunStats summarizes one batch run. On cancellation the counters cover the
// URLs processed so far and Canceled is set.
type RunStats struct {
	Total         int       `json:"total"`
	Success       int       `json:"success"`
	Failed        int       `json:"failed"`
	AlreadyExists int       `json:"alreadyExists"`
	Canceled      bool      `json:"canceled,omitempty"`
	StartedAt     time.Time `json:"startedAt"`
	EndedAt       time.Time `json:"endedAt"`
}

// Duration is the wall time of the run.
func (s RunStats) Duration() time.Duration {
	if s.EndedAt.IsZero() {
		return 0
	}
	return s.EndedAt.Sub(s.StartedAt)
}

// Processed is the number of URLs that reached a final outcome.
func (s RunStats) Processed() int {
	return s.Success + s.Failed + s.AlreadyExists
}

// ArticleSource produces one article per URL. *Assembler implements it.
type ArticleSource interface {
	Assemble(ctx context.Context, rawURL string) (*articles.Article, error)
}

// ArticleStore is the persistence the runner needs.
type ArticleStore interface {
	Exists(ctx context.Context, url string) (bool, error)
	InsertIfAbsent(ctx context.Context, article *articles.Article) (bool, error)
}

// RunnerOptions configures a Runner.
type RunnerOptions struct {
	// Workers is the number of URLs processed concurrently. Values below
	// two run sequentially.
	Workers int

	// Pacer gates every article fetch across all workers. Nil disables
	// pacing.
	Pacer *fetch.Pacer

	Logger *logger.Logger
}

// Runner processes batches of candidate URLs.
type Runner struct {
	source  ArticleSource
	store   ArticleStore
	workers int
	pacer   *fetch.Pacer
	log     *logger.Logger
	now     func() time.Time
}

type outcome int

const (
	outcomeSuccess outcome = iota
	outcomeFailed
	outcomeExists
	outcomeCanceled
)

// NewRunner creates a runner.
func NewRunner(source ArticleSource, store ArticleStore, opts RunnerOptions) *Runner {
	if opts.Logger == nil {
		opts.Logger = logger.Nop()
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}

	return &Runner{
		source:  source,
		store:   store,
		workers: opts.Workers,
		pacer:   opts.Pacer,
		log:     opts.Logger,
		now:     time.Now,
	}
}

// Run processes urls after deduplicating them by canonical form. URLs
// already stored are skipped without a fetch. Per-URL failures are counted
// and never abort the run; cancelling ctx stops new work and returns the
// partial stats.
func (r *Runner) Run(ctx context.Context, urls []string) RunStats {
	stats := RunStats{StartedAt: r.now()}

	unique, invalid := dedupe(urls)
	stats.Total = len(unique) + invalid
	stats.Failed = invalid

	var (
		mu   sync.Mutex
		done int
	)
	record := func(u string, o outcome) {
		mu.Lock()
		defer mu.Unlock()

		switch o {
		case outcomeSuccess:
			stats.Success++
		case outcomeFailed:
			stats.Failed++
		case outcomeExists:
			stats.AlreadyExists++
		case outcomeCanceled:
			return
		}
		done++
		r.log.Debug("url processed", "url", u, "progress", done, "of", len(unique))
	}

	g := new(errgroup.Group)
	g.SetLimit(r.workers)

	for _, u := range unique {
		if ctx.Err() != nil {
			break
		}

		g.Go(func() error {
			record(u, r.process(ctx, u))
			return nil
		})
	}
	_ = g.Wait()

	stats.Canceled = ctx.Err() != nil
	stats.EndedAt = r.now()

	r.log.Info("run finished",
		"total", stats.Total,
		"success", stats.Success,
		"failed", stats.Failed,
		"already_exists", stats.AlreadyExists,
		"canceled", stats.Canceled,
		"duration", stats.Duration().Round(time.Millisecond),
	)

	return stats
}

func (r *Runner) process(ctx context.Context, u string) outcome {
	if ctx.Err() != nil {
		return outcomeCanceled
	}

	exists, err := r.store.Exists(ctx, u)
	if err != nil {
		if ctx.Err() != nil {
			return outcomeCanceled
		}
		r.log.Error("failed to check article", "url", u, "error", err)
		return outcomeFailed
	}
	if exists {
		r.log.Debug("article already stored", "url", u)
		return outcomeExists
	}

	if r.pacer != nil {
		if err := r.pacer.Wait(ctx); err != nil {
			return outcomeCanceled
		}
	}

	article, err := r.source.Assemble(ctx, u)
	if err != nil {
		if ctx.Err() != nil {
			return outcomeCanceled
		}

		switch {
		case errors.Is(err, ErrAssemblyRejected):
			r.log.Warn("page rejected, no title or content", "url", u)
		case fetch.IsPermanent(err):
			r.log.Warn("article fetch failed permanently", "url", u, "status", fetch.StatusCode(err), "error", err)
		default:
			r.log.Error("failed to scrape article", "url", u, "error", err)
		}
		return outcomeFailed
	}

	inserted, err := r.store.InsertIfAbsent(ctx, article)
	if err != nil {
		r.log.Error("failed to save article", "url", u, "error", err)
		return outcomeFailed
	}
	if !inserted {
		r.log.Debug("article stored concurrently", "url", u)
		return outcomeExists
	}

	r.log.Info("article saved", "url", u, "title", extract.Truncate(article.Title, 60), "words", article.WordCount)
	return outcomeSuccess
}

// dedupe canonicalizes urls keeping first-seen order. It returns the number
// of inputs that could not be canonicalized.
func dedupe(urls []string) ([]string, int) {
	seen := make(map[string]struct{}, len(urls))
	unique := make([]string, 0, len(urls))
	invalid := 0

	for _, raw := range urls {
		canonical, err := discovery.Canonicalize(raw, nil)
		if err != nil {
			invalid++
			continue
		}
		if _, ok := seen[canonical]; ok {
			continue
		}
		seen[canonical] = struct{}{}
		unique = append(unique, canonical)
	}

	return unique, invalid
}
