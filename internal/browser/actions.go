package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/voyantlabs/voyant/api/schemas"
)

// clickByTextJS clicks the first interactive element whose trimmed text
// contains the needle (case-insensitive) and has a non-zero rendered size.
const clickByTextJS = `((needle) => {
	needle = needle.toLowerCase();
	const els = document.querySelectorAll('button, a, [role="button"], input[type="submit"], input[type="button"]');
	for (const el of els) {
		const text = (el.innerText || el.textContent || el.value || '').trim().toLowerCase();
		if (!text || !text.includes(needle)) continue;
		const rect = el.getBoundingClientRect();
		if (rect.width === 0 || rect.height === 0) continue;
		el.click();
		return true;
	}
	return false;
})(%s)`

const (
	maxScrollSteps = 6
	scrollStepJS   = `window.scrollBy({ top: Math.floor(window.innerHeight * 0.8), behavior: 'auto' }); true`
	scrollTopJS    = `window.scrollTo(0, 0); true`

	scrollDelayMin = 400 * time.Millisecond
	scrollDelayMax = 1500 * time.Millisecond
)

// ClickByText finds and clicks the first interactive element matching text.
// It reports whether a click happened and never fails: any internal error is
// logged and absorbed as false, so the loop continues with reduced
// information instead of aborting.
func (p *Page) ClickByText(ctx context.Context, text string) bool {
	quoted, err := json.Marshal(text)
	if err != nil {
		return false
	}

	evalCtx, cancel := context.WithTimeout(p.ctx, p.cfg.SelectorTimeout)
	defer cancel()
	stop := forwardCancel(ctx, cancel)
	defer stop()

	var clicked bool
	if err := chromedp.Run(evalCtx, chromedp.Evaluate(fmt.Sprintf(clickByTextJS, quoted), &clicked)); err != nil {
		p.logger.Debug("click attempt failed",
			zap.String("page_id", p.id),
			zap.String("text", text),
			zap.Error(err),
		)
		return false
	}

	if clicked {
		p.logger.Info("clicked element", zap.String("page_id", p.id), zap.String("text", text))
	}
	return clicked
}

// DismissBlocker tries each candidate label in priority order and
// short-circuits on the first successful click. Returns false when every
// candidate fails; the caller may then fall back to generic labels.
func (p *Page) DismissBlocker(ctx context.Context, blocker schemas.BlockerInfo) bool {
	for _, text := range blocker.ActionTexts {
		if p.ClickByText(ctx, text) {
			p.logger.Info("blocker dismissed",
				zap.String("page_id", p.id),
				zap.String("type", string(blocker.Type)),
				zap.String("via", text),
			)
			return true
		}
	}
	return false
}

// Scroll performs up to steps incremental scrolls with randomized, human-ish
// pacing, invoking onStep after each one, and returns the viewport to the
// top when done. Scroll failures are absorbed; exploration is best-effort.
func (p *Page) Scroll(ctx context.Context, steps int, onStep func(context.Context)) {
	if steps <= 0 {
		return
	}
	if steps > maxScrollSteps {
		steps = maxScrollSteps
	}

	// The viewport is restored on every exit path, early ones included.
	defer p.evalBool(ctx, scrollTopJS)

	for i := 0; i < steps; i++ {
		if ctx.Err() != nil {
			return
		}
		if !p.evalBool(ctx, scrollStepJS) {
			return
		}

		pause := scrollDelay(p.rng)
		select {
		case <-time.After(pause):
		case <-ctx.Done():
			return
		}

		if onStep != nil {
			onStep(ctx)
		}
	}
}

// CaptureScreenshot returns the current viewport as PNG bytes, or nil on
// any failure so callers can skip the capture without aborting the run.
func (p *Page) CaptureScreenshot(ctx context.Context) []byte {
	capCtx, cancel := context.WithTimeout(p.ctx, 10*time.Second)
	defer cancel()
	stop := forwardCancel(ctx, cancel)
	defer stop()

	var buf []byte
	if err := chromedp.Run(capCtx, chromedp.CaptureScreenshot(&buf)); err != nil {
		p.logger.Warn("screenshot failed", zap.String("page_id", p.id), zap.Error(err))
		return nil
	}
	return buf
}

func (p *Page) evalBool(ctx context.Context, js string) bool {
	evalCtx, cancel := context.WithTimeout(p.ctx, p.cfg.SelectorTimeout)
	defer cancel()
	stop := forwardCancel(ctx, cancel)
	defer stop()

	var ok bool
	if err := chromedp.Run(evalCtx, chromedp.Evaluate(js, &ok)); err != nil {
		p.logger.Debug("script failed", zap.String("page_id", p.id), zap.Error(err))
		return false
	}
	return ok
}

// scrollDelay returns a pause within [scrollDelayMin, scrollDelayMax].
// The rng is injected at Page construction, so tests can seed it.
func scrollDelay(rng *rand.Rand) time.Duration {
	spread := scrollDelayMax - scrollDelayMin
	return scrollDelayMin + time.Duration(rng.Int63n(int64(spread)+1))
}
