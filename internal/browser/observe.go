package browser

import (
	"context"
	"fmt"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/voyantlabs/voyant/api/schemas"
)

// observeJS snapshots the page into a semantic description in one in-page
// pass. Buttons come from <button>, button-like anchors, and role=button;
// links are capped and tagged same-origin; the overlay flag is purely
// structural (position + visibility + area), never lexical.
const observeJS = `(() => {
	const MAX_BUTTONS = 30;
	const MAX_LINKS = 50;
	const MAX_TEXT = 2500;
	const MIN_BTN_W = 80;
	const MIN_BTN_H = 30;
	const MIN_OVERLAY_AREA = 50000;

	const buttons = [];
	const seen = new Set();
	const candidates = document.querySelectorAll(
		'button, a.btn, a.button, a[class*="btn"], [role="button"], input[type="submit"], input[type="button"]'
	);
	for (const el of candidates) {
		if (buttons.length >= MAX_BUTTONS) break;
		const text = (el.innerText || el.textContent || el.value || '').trim();
		if (!text) continue;
		if (seen.has(text)) continue;
		seen.add(text);
		const style = window.getComputedStyle(el);
		const rect = el.getBoundingClientRect();
		const prominent = style.display !== 'none'
			&& rect.width >= MIN_BTN_W
			&& rect.height >= MIN_BTN_H;
		buttons.push({ text: text.slice(0, 80), prominent });
	}

	const links = [];
	for (const a of document.querySelectorAll('a[href]')) {
		if (links.length >= MAX_LINKS) break;
		const href = a.getAttribute('href') || '';
		if (!href || href.startsWith('javascript:')) continue;
		let internal = false;
		try {
			internal = new URL(href, window.location.href).hostname === window.location.hostname;
		} catch (e) {
			// Malformed href: treat as external rather than crash.
			internal = false;
		}
		links.push({
			text: (a.innerText || '').trim().slice(0, 80),
			href,
			internal,
		});
	}

	let overlay = false;
	const overlaySelectors =
		'[class*="modal"], [class*="overlay"], [class*="popup"], [class*="banner"], ' +
		'[class*="dialog"], [class*="consent"], [id*="modal"], [id*="overlay"], ' +
		'[id*="popup"], [role="dialog"], [role="alertdialog"]';
	for (const el of document.querySelectorAll(overlaySelectors)) {
		const style = window.getComputedStyle(el);
		if (style.position !== 'fixed' && style.position !== 'sticky' && style.position !== 'absolute') continue;
		if (style.display === 'none' || style.visibility === 'hidden') continue;
		const rect = el.getBoundingClientRect();
		if (rect.width * rect.height >= MIN_OVERLAY_AREA) {
			overlay = true;
			break;
		}
	}

	const text = (document.body ? document.body.innerText : '')
		.toLowerCase()
		.replace(/\s+/g, ' ')
		.slice(0, MAX_TEXT);

	return {
		url: window.location.href,
		title: document.title || '',
		text,
		buttons,
		links,
		overlay,
		hasVideo: !!document.querySelector('video'),
		hasCanvas: !!document.querySelector('canvas'),
	};
})()`

type observation struct {
	URL     string `json:"url"`
	Title   string `json:"title"`
	Text    string `json:"text"`
	Buttons []struct {
		Text      string `json:"text"`
		Prominent bool   `json:"prominent"`
	} `json:"buttons"`
	Links []struct {
		Text     string `json:"text"`
		Href     string `json:"href"`
		Internal bool   `json:"internal"`
	} `json:"links"`
	Overlay   bool `json:"overlay"`
	HasVideo  bool `json:"hasVideo"`
	HasCanvas bool `json:"hasCanvas"`
}

// Observe snapshots the current page into a PageState. The structural
// overlay flag from the page is combined with lexical classification on the
// Go side, so pages that merely mention "cookies" in body copy stay clear.
func (p *Page) Observe(ctx context.Context) (schemas.PageState, error) {
	evalCtx, cancel := context.WithTimeout(p.ctx, p.cfg.SelectorTimeout)
	defer cancel()
	stop := forwardCancel(ctx, cancel)
	defer stop()

	var obs observation
	if err := chromedp.Run(evalCtx, chromedp.Evaluate(observeJS, &obs)); err != nil {
		return schemas.PageState{}, fmt.Errorf("observe page: %w", err)
	}

	state := schemas.PageState{
		URL:         obs.URL,
		Title:       obs.Title,
		TextExcerpt: obs.Text,
		Buttons:     make([]schemas.Button, 0, len(obs.Buttons)),
		Links:       make([]schemas.Link, 0, len(obs.Links)),
		Blocking:    ClassifyBlocking(obs.Overlay, obs.Text),
		HasVideo:    obs.HasVideo,
		HasCanvas:   obs.HasCanvas,
	}
	for _, b := range obs.Buttons {
		state.Buttons = append(state.Buttons, schemas.Button{Text: b.Text, Prominent: b.Prominent})
	}
	for _, l := range obs.Links {
		state.Links = append(state.Links, schemas.Link{Text: l.Text, Href: l.Href, Internal: l.Internal})
	}

	p.logger.Debug("page observed",
		zap.String("page_id", p.id),
		zap.String("url", state.URL),
		zap.Int("buttons", len(state.Buttons)),
		zap.Int("links", len(state.Links)),
		zap.String("blocking", string(state.Blocking)),
	)
	return state, nil
}
