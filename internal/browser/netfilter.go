package browser

import (
	"context"
	"strings"
	"sync"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/fetch"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/voyantlabs/voyant/internal/config"
)

// Verdict is the filter's decision for a single request.
type Verdict int

const (
	VerdictAllow Verdict = iota
	VerdictAbort
)

// NetFilter intercepts every outgoing request before navigation begins and
// aborts ads, trackers, heavy media, and all stylesheets beyond a small
// budget. Decisions are synchronous; there are no retry semantics.
type NetFilter struct {
	blockedHosts []string
	blockedTypes map[network.ResourceType]struct{}
	styleBudget  int
	logger       *zap.Logger

	mu          sync.Mutex
	stylesheets int
}

// NewNetFilter builds a filter from configuration.
func NewNetFilter(cfg config.FilterConfig, logger *zap.Logger) *NetFilter {
	types := make(map[network.ResourceType]struct{}, len(cfg.BlockedTypes))
	for _, t := range cfg.BlockedTypes {
		switch strings.ToLower(t) {
		case "media":
			types[network.ResourceTypeMedia] = struct{}{}
		case "font":
			types[network.ResourceTypeFont] = struct{}{}
		case "image":
			types[network.ResourceTypeImage] = struct{}{}
		}
	}
	return &NetFilter{
		blockedHosts: cfg.BlockedHosts,
		blockedTypes: types,
		styleBudget:  cfg.StylesheetBudget,
		logger:       logger.Named("netfilter"),
	}
}

// Attach puts the tab into request-interception mode. Must be called before
// the first navigation; interception stays active for the tab's lifetime.
func (f *NetFilter) Attach(tabCtx context.Context) error {
	chromedp.ListenTarget(tabCtx, func(ev interface{}) {
		paused, ok := ev.(*fetch.EventRequestPaused)
		if !ok {
			return
		}
		// Resolution must not block the event loop.
		go f.resolve(tabCtx, paused)
	})
	return chromedp.Run(tabCtx, fetch.Enable())
}

// Reset re-arms the per-page counters. Call once per navigation.
func (f *NetFilter) Reset() {
	f.mu.Lock()
	f.stylesheets = 0
	f.mu.Unlock()
}

// Decide classifies one request. It counts stylesheets, so call it exactly
// once per request.
func (f *NetFilter) Decide(url string, resourceType network.ResourceType) Verdict {
	lowered := strings.ToLower(url)
	for _, host := range f.blockedHosts {
		if strings.Contains(lowered, host) {
			return VerdictAbort
		}
	}

	if _, blocked := f.blockedTypes[resourceType]; blocked {
		return VerdictAbort
	}

	if resourceType == network.ResourceTypeStylesheet {
		f.mu.Lock()
		defer f.mu.Unlock()
		if f.stylesheets >= f.styleBudget {
			return VerdictAbort
		}
		f.stylesheets++
	}

	return VerdictAllow
}

func (f *NetFilter) resolve(tabCtx context.Context, paused *fetch.EventRequestPaused) {
	c := chromedp.FromContext(tabCtx)
	if c == nil {
		return
	}
	execCtx := cdp.WithExecutor(tabCtx, c.Target)

	if f.Decide(paused.Request.URL, paused.ResourceType) == VerdictAbort {
		f.logger.Debug("request aborted",
			zap.String("url", paused.Request.URL),
			zap.String("type", string(paused.ResourceType)),
		)
		if err := fetch.FailRequest(paused.RequestID, network.ErrorReasonBlockedByClient).Do(execCtx); err != nil {
			f.logger.Debug("abort failed", zap.Error(err))
		}
		return
	}

	if err := fetch.ContinueRequest(paused.RequestID).Do(execCtx); err != nil {
		f.logger.Debug("continue failed", zap.Error(err))
	}
}
