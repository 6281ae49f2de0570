// Package batch runs the crawler across a list of sites with pacing,
// bounded parallelism, and per-site retries. One bad site never aborts the
// run.
package batch

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/voyantlabs/voyant/api/schemas"
	"github.com/voyantlabs/voyant/internal/config"
	"github.com/voyantlabs/voyant/internal/retry"
)

// Crawler is the single-site operation the runner fans out over. The
// orchestrator satisfies it; tests substitute fakes.
type Crawler interface {
	CrawlSite(ctx context.Context, url string) (*schemas.CrawlResult, error)
}

// SiteResult pairs one input URL with its outcome. Exactly one of Result
// and Err is set.
type SiteResult struct {
	URL    string
	Result *schemas.CrawlResult
	Err    error
}

// Runner paces crawls across sites. Site starts are rate limited by the
// configured delay; parallelism bounds how many crawls run at once.
type Runner struct {
	cfg     config.BatchConfig
	logger  *zap.Logger
	crawler Crawler
	limiter *rate.Limiter
}

// NewRunner builds a batch runner over the given crawler.
func NewRunner(cfg config.BatchConfig, logger *zap.Logger, crawler Crawler) *Runner {
	if cfg.Parallelism < 1 {
		cfg.Parallelism = 1
	}
	if cfg.MaxRetries < 1 {
		cfg.MaxRetries = 1
	}
	return &Runner{
		cfg:     cfg,
		logger:  logger.Named("batch"),
		crawler: crawler,
		limiter: rate.NewLimiter(rate.Every(cfg.SiteDelay), 1),
	}
}

// Run crawls every URL and returns one SiteResult per input, in input
// order. Failures are recorded, not propagated; Run itself only errors via
// context cancellation recorded per site.
func (r *Runner) Run(ctx context.Context, urls []string) []SiteResult {
	results := make([]SiteResult, len(urls))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.Parallelism)
	for i, u := range urls {
		g.Go(func() error {
			if err := r.limiter.Wait(gctx); err != nil {
				results[i] = SiteResult{URL: u, Err: err}
				return nil
			}
			results[i] = r.crawlOne(gctx, u)
			return nil
		})
	}
	_ = g.Wait()

	ok := 0
	for _, res := range results {
		if res.Err == nil {
			ok++
		}
	}
	r.logger.Info("batch complete",
		zap.Int("sites", len(urls)),
		zap.Int("succeeded", ok),
		zap.Int("failed", len(urls)-ok),
	)
	return results
}

// crawlOne retries a single site with exponential backoff before recording
// it as failed.
func (r *Runner) crawlOne(ctx context.Context, url string) SiteResult {
	logger := r.logger.With(zap.String("url", url))
	logger.Info("site starting")

	result, err := retry.Do(ctx, func(ctx context.Context) (*schemas.CrawlResult, error) {
		return r.crawler.CrawlSite(ctx, url)
	}, retry.Options{
		MaxRetries: r.cfg.MaxRetries,
		BaseDelay:  r.cfg.RetryDelay,
	})
	if err != nil {
		logger.Error("site failed", zap.Error(err))
		return SiteResult{URL: url, Err: err}
	}

	logger.Info("site done",
		zap.Int("screenshots", len(result.Screenshots)),
		zap.Duration("elapsed", result.Elapsed),
	)
	return SiteResult{URL: url, Result: result}
}
