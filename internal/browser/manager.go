// Package browser owns the headless Chrome lifecycle and every operation
// that touches the live page: request filtering, observation snapshots,
// clicks, scrolling, screenshots, and SEO extraction.
package browser

import (
	"context"
	"fmt"
	"math/rand"
	"sync/atomic"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/voyantlabs/voyant/internal/config"
)

// LaunchError wraps any failure to bring up a usable browser. It is fatal
// for the crawl invocation; there is no retry at this layer.
type LaunchError struct {
	Err error
}

func (e *LaunchError) Error() string { return fmt.Sprintf("browser launch failed: %v", e.Err) }
func (e *LaunchError) Unwrap() error { return e.Err }

// Manager launches and tears down browser instances. Each Acquire returns an
// isolated browser + single tab pair owned exclusively by one crawl.
type Manager struct {
	cfg       config.BrowserConfig
	filterCfg config.FilterConfig
	logger    *zap.Logger
}

// NewManager creates a manager. Launching is deferred to Acquire.
func NewManager(cfg config.BrowserConfig, filterCfg config.FilterConfig, logger *zap.Logger) *Manager {
	return &Manager{
		cfg:       cfg,
		filterCfg: filterCfg,
		logger:    logger.Named("browser"),
	}
}

// Page is the handle for one browser + tab pair. All page operations hang
// off it. It is not safe for concurrent use; a crawl is a single sequential
// control flow.
type Page struct {
	id          string
	ctx         context.Context
	cancel      context.CancelFunc
	allocCancel context.CancelFunc
	filter      *NetFilter
	cfg         config.BrowserConfig
	logger      *zap.Logger
	rng         *rand.Rand

	loadTime time.Duration
	closed   atomic.Bool
}

// ID identifies the page handle in logs.
func (p *Page) ID() string { return p.id }

// LoadTime reports the duration of the most recent successful navigation.
func (p *Page) LoadTime() time.Duration { return p.loadTime }

// Acquire launches a sandboxed browser with a single tab, attaches the
// network filter, and returns the handle. Any failure is a *LaunchError.
func (m *Manager) Acquire(ctx context.Context) (*Page, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", m.cfg.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("mute-audio", true),
		chromedp.WindowSize(m.cfg.WindowWidth, m.cfg.WindowHeight),
	)
	if m.cfg.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(m.cfg.UserAgent))
	}
	if m.cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(m.cfg.ExecPath))
	}

	// The allocator hangs off the background context so a caller's deadline
	// cannot kill the browser out from under a later operation; teardown is
	// explicit via Release.
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	tabCtx, tabCancel := chromedp.NewContext(allocCtx)

	page := &Page{
		id:          uuid.NewString(),
		ctx:         tabCtx,
		cancel:      tabCancel,
		allocCancel: allocCancel,
		filter:      NewNetFilter(m.filterCfg, m.logger),
		cfg:         m.cfg,
		logger:      m.logger,
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
	}

	// Warmup run forces the browser process to start now, so launch failures
	// surface here instead of on first navigation.
	warmupCtx, warmupCancel := context.WithTimeout(tabCtx, 30*time.Second)
	defer warmupCancel()
	if err := chromedp.Run(warmupCtx); err != nil {
		tabCancel()
		allocCancel()
		return nil, &LaunchError{Err: err}
	}

	if err := page.filter.Attach(tabCtx); err != nil {
		tabCancel()
		allocCancel()
		return nil, &LaunchError{Err: fmt.Errorf("attach network filter: %w", err)}
	}

	m.logger.Info("browser acquired", zap.String("page_id", page.id))
	return page, nil
}

// Release tears down the browser process. Idempotent and safe on every
// error path; it never fails.
func (m *Manager) Release(p *Page) {
	if p == nil || !p.closed.CompareAndSwap(false, true) {
		return
	}
	p.cancel()
	p.allocCancel()
	m.logger.Info("browser released", zap.String("page_id", p.id))
}

// Navigate loads the target URL, bounded by the configured navigation
// timeout and the caller's context. The filter's per-page counters are
// re-armed before the load starts.
func (p *Page) Navigate(ctx context.Context, url string) error {
	p.filter.Reset()

	navCtx, cancel := context.WithTimeout(p.ctx, p.cfg.NavigationTimeout)
	defer cancel()
	stop := forwardCancel(ctx, cancel)
	defer stop()

	start := time.Now()
	err := chromedp.Run(navCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(p.cfg.SettleWait),
	)
	if err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	p.loadTime = time.Since(start)

	p.logger.Debug("navigation complete",
		zap.String("page_id", p.id),
		zap.String("url", url),
		zap.Duration("load_time", p.loadTime),
	)
	return nil
}

// WaitSettle gives the page time to react after an interaction.
func (p *Page) WaitSettle(ctx context.Context, d time.Duration) {
	waitCtx, cancel := context.WithTimeout(p.ctx, d+time.Second)
	defer cancel()
	stop := forwardCancel(ctx, cancel)
	defer stop()
	_ = chromedp.Run(waitCtx, chromedp.Sleep(d))
}

// forwardCancel propagates cancellation from the caller's context into a
// chromedp context chain that does not descend from it.
func forwardCancel(parent context.Context, cancel context.CancelFunc) func() {
	if parent == nil {
		return func() {}
	}
	done := make(chan struct{})
	go func() {
		select {
		case <-parent.Done():
			cancel()
		case <-done:
		}
	}()
	return func() { close(done) }
}
