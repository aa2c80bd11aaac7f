package source

import (
	"context"
	"sync"

	"github.com/ppiankov/chandigest/internal/store"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Job is one source to fetch.
type Job struct {
	SourceID string
	Kind     string
	Target   string
}

// Result carries the records fetched for a job. Records is empty when the
// fetch failed, the kind has no fetcher, or the context ended first.
type Result struct {
	Job
	Records []store.Record
}

// Pool fetches jobs on a bounded set of workers sharing one rate limiter.
type Pool struct {
	fetchers map[string]Fetcher
	workers  int
	limiter  *rate.Limiter
	logger   *zap.Logger
}

// NewPool creates a pool. fetchers maps a source kind to its fetcher.
// perSecond <= 0 disables pacing.
func NewPool(fetchers map[string]Fetcher, workers int, perSecond float64, logger *zap.Logger) *Pool {
	if workers < 1 {
		workers = 1
	}
	limit := rate.Inf
	if perSecond > 0 {
		limit = rate.Limit(perSecond)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pool{
		fetchers: fetchers,
		workers:  workers,
		limiter:  rate.NewLimiter(limit, 1),
		logger:   logger,
	}
}

// Run fetches every job and returns one result per job, in job order.
func (p *Pool) Run(ctx context.Context, jobs []Job) []Result {
	results := make([]Result, len(jobs))
	indexes := make(chan int)

	workers := min(p.workers, len(jobs))

	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indexes {
				results[i] = p.fetch(ctx, jobs[i])
			}
		}()
	}

	for i := range jobs {
		indexes <- i
	}
	close(indexes)
	wg.Wait()

	return results
}

func (p *Pool) fetch(ctx context.Context, job Job) Result {
	res := Result{Job: job}

	f, ok := p.fetchers[job.Kind]
	if !ok {
		p.logger.Warn("no fetcher for source kind",
			zap.String("source", job.SourceID),
			zap.String("kind", job.Kind),
		)
		return res
	}

	if err := p.limiter.Wait(ctx); err != nil {
		p.logger.Warn("fetch skipped", zap.String("source", job.SourceID), zap.Error(err))
		return res
	}

	res.Records = f.Fetch(ctx, job.Target)
	return res
}
