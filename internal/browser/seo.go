package browser

import (
	"context"
	"net/url"
	"strings"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/voyantlabs/voyant/api/schemas"
)

// seoJS is a pure DOM read with no side effects; it runs regardless of how
// the rest of the crawl went.
const seoJS = `(() => {
	const meta = (name) => {
		const el = document.querySelector('meta[name="' + name + '"]');
		return el ? (el.getAttribute('content') || '') : '';
	};
	const linkHref = (rel) => {
		const el = document.querySelector('link[rel="' + rel + '"]');
		return el ? (el.getAttribute('href') || '') : '';
	};
	const h1 = document.querySelector('h1');
	return {
		title: document.title || '',
		description: meta('description'),
		keywords: meta('keywords'),
		h1: h1 ? (h1.innerText || '').trim().slice(0, 200) : '',
		canonical: linkHref('canonical'),
		favicon: linkHref('icon') || linkHref('shortcut icon'),
		pageSize: document.documentElement ? document.documentElement.outerHTML.length : 0,
		url: window.location.href,
	};
})()`

type seoSnapshot struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Keywords    string `json:"keywords"`
	H1          string `json:"h1"`
	Canonical   string `json:"canonical"`
	Favicon     string `json:"favicon"`
	PageSize    int64  `json:"pageSize"`
	URL         string `json:"url"`
}

// ExtractSEO reads the page's head metadata. On failure it returns zero
// values; missing SEO fields never fail a crawl.
func (p *Page) ExtractSEO(ctx context.Context) (schemas.SEOData, int64) {
	snap, ok := p.seoSnapshot(ctx)
	if !ok {
		return schemas.SEOData{}, 0
	}
	return schemas.SEOData{
		Title:       snap.Title,
		Description: snap.Description,
		Keywords:    snap.Keywords,
		H1:          snap.H1,
		Canonical:   snap.Canonical,
	}, snap.PageSize
}

// FaviconURL resolves the page's favicon to an absolute URL, defaulting to
// /favicon.ico at the page's origin. Empty on failure.
func (p *Page) FaviconURL(ctx context.Context) string {
	snap, ok := p.seoSnapshot(ctx)
	if !ok {
		return ""
	}
	return ResolveFavicon(snap.URL, snap.Favicon)
}

func (p *Page) seoSnapshot(ctx context.Context) (seoSnapshot, bool) {
	evalCtx, cancel := context.WithTimeout(p.ctx, p.cfg.SelectorTimeout)
	defer cancel()
	stop := forwardCancel(ctx, cancel)
	defer stop()

	var snap seoSnapshot
	if err := chromedp.Run(evalCtx, chromedp.Evaluate(seoJS, &snap)); err != nil {
		p.logger.Warn("seo extraction failed", zap.String("page_id", p.id), zap.Error(err))
		return seoSnapshot{}, false
	}
	return snap, true
}

// ResolveFavicon turns a possibly-relative favicon href into an absolute
// URL against the page URL. A missing or malformed href falls back to
// /favicon.ico at the page's origin; a malformed page URL yields "".
func ResolveFavicon(pageURL, href string) string {
	base, err := url.Parse(pageURL)
	if err != nil || base.Host == "" {
		return ""
	}
	if strings.TrimSpace(href) == "" {
		href = "/favicon.ico"
	}
	ref, err := url.Parse(href)
	if err != nil {
		ref = &url.URL{Path: "/favicon.ico"}
	}
	return base.ResolveReference(ref).String()
}
