// Package worker runs the provider pipeline over batches of URLs.
package worker

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/cwygoda/modscope/internal/adapter/provider"
	"github.com/cwygoda/modscope/internal/domain"
	"github.com/cwygoda/modscope/internal/logx"
)

// DefaultWorkers is the batch concurrency when none is configured.
const DefaultWorkers = 8

// Pool processes URLs on a bounded set of goroutines.
type Pool struct {
	registry *provider.Registry
	workers  int
	history  *domain.LookupService
	log      *logx.Logger
}

// New creates a pool. history may be nil to skip recording.
func New(registry *provider.Registry, workers int, history *domain.LookupService, log *logx.Logger) *Pool {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	return &Pool{
		registry: registry,
		workers:  workers,
		history:  history,
		log:      log,
	}
}

// Process runs a single URL through the pipeline.
func (p *Pool) Process(ctx context.Context, rawURL string) (domain.ModInfo, error) {
	r := p.RunBatch(ctx, []string{rawURL})[0]
	if !r.OK() {
		return domain.ModInfo{}, r.Err
	}
	return *r.Info, nil
}

// RunBatch processes urls concurrently and returns exactly one Result per
// input URL, in completion order. A failing URL never affects the others.
func (p *Pool) RunBatch(ctx context.Context, urls []string) []domain.Result {
	results := make([]domain.Result, 0, len(urls))
	var mu sync.Mutex
	done := func(r domain.Result) {
		p.record(ctx, r)
		mu.Lock()
		results = append(results, r)
		mu.Unlock()
	}

	var g errgroup.Group
	g.SetLimit(p.workers)
	for _, u := range urls {
		prov, err := p.registry.Detect(u)
		if err != nil {
			p.log.Debugf("%s: rejected: %v", u, err)
			done(domain.Result{URL: u, Err: err})
			continue
		}
		g.Go(func() error {
			p.log.Debugf("%s: processing with %s", u, prov.Name())
			info, err := p.run(ctx, prov, u)
			if err != nil {
				p.log.Debugf("%s: failed: %v", u, err)
				done(domain.Result{URL: u, Err: err})
				return nil
			}
			p.log.Debugf("%s: completed with %d version pairs", u, info.Pairs.Len())
			done(domain.Result{URL: u, Info: &info})
			return nil
		})
	}
	g.Wait()
	return results
}

func (p *Pool) run(ctx context.Context, prov domain.Provider, rawURL string) (info domain.ModInfo, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s: panic: %v", prov.Name(), r)
		}
	}()
	return provider.Process(ctx, prov, rawURL)
}

func (p *Pool) record(ctx context.Context, r domain.Result) {
	if p.history == nil {
		return
	}
	if _, err := p.history.Record(ctx, r); err != nil {
		p.log.Printf("%s: record history: %v", r.URL, err)
	}
}
