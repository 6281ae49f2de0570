package agent

import (
	"context"
	"net/url"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/voyantlabs/voyant/api/schemas"
	"github.com/voyantlabs/voyant/internal/config"
	"github.com/voyantlabs/voyant/internal/retry"
)

// Session is the set of page operations the orchestrator drives. It is the
// narrow contract over the browser layer, so tests can substitute fakes.
type Session interface {
	Navigate(ctx context.Context, url string) error
	Observe(ctx context.Context) (schemas.PageState, error)
	ClickByText(ctx context.Context, text string) bool
	DismissBlocker(ctx context.Context, blocker schemas.BlockerInfo) bool
	Scroll(ctx context.Context, steps int, onStep func(context.Context))
	CaptureScreenshot(ctx context.Context) []byte
	ExtractSEO(ctx context.Context) (schemas.SEOData, int64)
	FaviconURL(ctx context.Context) string
	WaitSettle(ctx context.Context, d time.Duration)
	LoadTime() time.Duration
}

// Launcher acquires and releases the browser resource backing a Session.
// Release must be idempotent and safe on every error path.
type Launcher interface {
	Acquire(ctx context.Context) (Session, error)
	Release(s Session)
}

// crawlState names a phase of the crawl state machine.
type crawlState string

const (
	stateLaunching        crawlState = "launching"
	stateNavigating       crawlState = "navigating"
	stateBlockerClearance crawlState = "blocker_clearance"
	stateContentDiscovery crawlState = "content_discovery"
	stateExploration      crawlState = "exploration"
	stateExtraction       crawlState = "extraction"
	stateDone             crawlState = "done"
	stateFailed           crawlState = "failed"
)

// genericDismissLabels are tried when every blocker-specific candidate
// failed to click.
var genericDismissLabels = []string{"Enter", "Accept"}

// scrollStepsFor maps the advisor's depth to a fixed scroll count.
func scrollStepsFor(depth schemas.ScrollDepth) int {
	switch depth {
	case schemas.ScrollShallow:
		return 2
	case schemas.ScrollDeep:
		return 6
	default:
		return 4
	}
}

// Orchestrator drives the observe/decide/act loop for one site at a time.
// Collaborators are injected at construction; it holds no hidden state
// between crawls.
type Orchestrator struct {
	cfg      config.AgentConfig
	logger   *zap.Logger
	launcher Launcher
	advisor  Advisor
	pipeline *Pipeline
}

// NewOrchestrator wires the orchestrator with its collaborators. The
// decision pipeline is heuristics first, advisor fallback second.
func NewOrchestrator(cfg config.AgentConfig, logger *zap.Logger, launcher Launcher, advisor Advisor) *Orchestrator {
	if cfg.MaxScreenshots <= 0 {
		cfg.MaxScreenshots = 5
	}
	if cfg.MaxBlockerAttempts <= 0 {
		cfg.MaxBlockerAttempts = 3
	}
	if cfg.NavigationRetries <= 0 {
		cfg.NavigationRetries = 3
	}
	if cfg.NavigationBackoff <= 0 {
		cfg.NavigationBackoff = time.Second
	}
	if cfg.PostClickWait <= 0 {
		cfg.PostClickWait = 2 * time.Second
	}
	log := logger.Named("agent")
	return &Orchestrator{
		cfg:      cfg,
		logger:   log,
		launcher: launcher,
		advisor:  advisor,
		pipeline: NewPipeline(log, HeuristicStrategy{}, AdvisorStrategy{Advisor: advisor}),
	}
}

// crawlRun is the per-invocation mutable state. The screenshot budget is
// enforced here, at the single append site, so the cap is an invariant
// rather than a post-hoc truncation.
type crawlRun struct {
	result   *schemas.CrawlResult
	maxShots int
	baseline []byte
	started  time.Time
}

func (r *crawlRun) addScreenshot(buf []byte) bool {
	if buf == nil || len(r.result.Screenshots) >= r.maxShots {
		return false
	}
	r.result.Screenshots = append(r.result.Screenshots, buf)
	return true
}

func (r *crawlRun) budgetLeft() bool {
	return len(r.result.Screenshots) < r.maxShots
}

// CrawlSite runs the full state machine against one URL. It returns either
// a fully assembled CrawlResult or a typed fatal error (invalid URL, launch
// failure, navigation failure after retries); everything recoverable is
// absorbed into the shape of the result.
func (o *Orchestrator) CrawlSite(ctx context.Context, rawURL string) (*schemas.CrawlResult, error) {
	if err := validateURL(rawURL); err != nil {
		return nil, err
	}

	run := &crawlRun{
		result: &schemas.CrawlResult{
			ID:  uuid.NewString(),
			URL: rawURL,
		},
		maxShots: o.cfg.MaxScreenshots,
		started:  time.Now(),
	}
	logger := o.logger.With(zap.String("crawl_id", run.result.ID), zap.String("url", rawURL))
	logger.Info("crawl starting")

	var session Session
	defer func() {
		if session != nil {
			o.launcher.Release(session)
		}
	}()

	var fatal error
	state := stateLaunching
	for state != stateDone && state != stateFailed {
		logger.Debug("state transition", zap.String("state", string(state)))
		switch state {
		case stateLaunching:
			s, err := o.launcher.Acquire(ctx)
			if err != nil {
				fatal = err
				state = stateFailed
				continue
			}
			session = s
			state = stateNavigating

		case stateNavigating:
			if err := o.navigate(ctx, session, run); err != nil {
				fatal = &NavigationError{URL: rawURL, Err: err}
				state = stateFailed
				continue
			}
			state = stateBlockerClearance

		case stateBlockerClearance:
			o.clearBlockers(ctx, session, logger)
			state = stateContentDiscovery

		case stateContentDiscovery:
			o.discoverContent(ctx, session, run, logger)
			state = stateExploration

		case stateExploration:
			o.explore(ctx, session, run, logger)
			state = stateExtraction

		case stateExtraction:
			seo, pageSize := session.ExtractSEO(ctx)
			run.result.SEO = seo
			run.result.Performance.PageSize = pageSize
			run.result.FaviconURL = session.FaviconURL(ctx)
			state = stateDone
		}
	}

	if fatal != nil {
		logger.Error("crawl failed", zap.Error(fatal))
		return nil, fatal
	}

	run.result.Elapsed = time.Since(run.started)
	logger.Info("crawl complete",
		zap.Int("screenshots", len(run.result.Screenshots)),
		zap.Duration("elapsed", run.result.Elapsed),
	)
	return run.result, nil
}

// navigate wraps the flaky initial load in exponential backoff. Navigation
// is the only DOM-adjacent operation that retries; everything downstream
// uses the boolean no-throw convention instead. Load timing comes from the
// session, which measures the navigation itself.
func (o *Orchestrator) navigate(ctx context.Context, session Session, run *crawlRun) error {
	_, err := retry.Do(ctx, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, session.Navigate(ctx, run.result.URL)
	}, retry.Options{
		MaxRetries: o.cfg.NavigationRetries,
		BaseDelay:  o.cfg.NavigationBackoff,
	})
	if err != nil {
		return err
	}
	run.result.Performance.LoadTime = session.LoadTime()
	return nil
}

// clearBlockers makes a bounded number of dismiss attempts and then gives
// up and proceeds anyway. A persistent, undismissable overlay degrades the
// crawl; it does not fail it.
func (o *Orchestrator) clearBlockers(ctx context.Context, session Session, logger *zap.Logger) {
	for attempt := 1; attempt <= o.cfg.MaxBlockerAttempts; attempt++ {
		state, err := session.Observe(ctx)
		if err != nil {
			logger.Warn("observation failed during blocker clearance", zap.Error(err))
			return
		}

		blocker := DetectBlocker(state)
		if blocker == nil {
			return
		}
		logger.Info("blocker detected",
			zap.String("type", string(blocker.Type)),
			zap.Int("attempt", attempt),
		)

		if !session.DismissBlocker(ctx, *blocker) {
			for _, label := range genericDismissLabels {
				if session.ClickByText(ctx, label) {
					break
				}
			}
		}
		session.WaitSettle(ctx, o.cfg.PostClickWait)
	}
	logger.Warn("blocker attempts exhausted, proceeding best-effort")
}

// discoverContent captures the baseline screenshot, asks the pipeline for
// the best action, executes it, and keeps the post-click screenshot when
// the landing page classifies as content (heuristic OR vision).
func (o *Orchestrator) discoverContent(ctx context.Context, session Session, run *crawlRun, logger *zap.Logger) {
	run.baseline = session.CaptureScreenshot(ctx)
	run.addScreenshot(run.baseline)

	state, err := session.Observe(ctx)
	if err != nil {
		logger.Warn("observation failed during discovery", zap.Error(err))
		return
	}

	decision := o.pipeline.Decide(ctx, state, run.baseline)
	if decision == nil {
		logger.Info("no content action found")
		return
	}

	if !session.ClickByText(ctx, decision.TargetText) {
		logger.Info("content action click missed", zap.String("target", decision.TargetText))
		return
	}
	session.WaitSettle(ctx, o.cfg.PostClickWait)

	shot := session.CaptureScreenshot(ctx)
	if shot == nil {
		return
	}

	isContent := false
	if after, obsErr := session.Observe(ctx); obsErr == nil {
		isContent = IsContentPage(after)
	}
	if !isContent {
		// Vision second opinion; the overlap with the DOM heuristic is
		// deliberate redundancy.
		isContent = o.advisor.IsContentPage(ctx, shot)
	}
	if isContent {
		run.addScreenshot(shot)
		logger.Info("content page captured", zap.String("target", decision.TargetText))
	}
}

// explore asks the advisor for a scroll plan and captures screenshots on
// the way down, within whatever budget remains.
func (o *Orchestrator) explore(ctx context.Context, session Session, run *crawlRun, logger *zap.Logger) {
	if !run.budgetLeft() || run.baseline == nil {
		return
	}

	plan := o.advisor.ScrollPlan(ctx, run.baseline)
	if !plan.ShouldScroll {
		return
	}

	steps := scrollStepsFor(plan.Depth)
	logger.Info("exploring page", zap.String("depth", string(plan.Depth)), zap.Int("steps", steps))
	session.Scroll(ctx, steps, func(stepCtx context.Context) {
		if !run.budgetLeft() {
			return
		}
		run.addScreenshot(session.CaptureScreenshot(stepCtx))
	})
}

func validateURL(rawURL string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return &InvalidURLError{URL: rawURL, Reason: err.Error()}
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return &InvalidURLError{URL: rawURL, Reason: "scheme must be http or https"}
	}
	if parsed.Host == "" {
		return &InvalidURLError{URL: rawURL, Reason: "missing host"}
	}
	return nil
}
