// Package schemas holds the data contracts shared between the crawl agent's
// components. Everything here is plain data: the observation snapshot the
// extractor produces, the decisions that flow from the decision engine and
// the AI advisor to the executor, and the final crawl artifact.
package schemas

import "time"

// BlockingState classifies the overlay (if any) gating a page.
// The states are mutually exclusive; the extractor resolves overlaps by
// priority (age gate > cookie banner > login wall).
type BlockingState string

const (
	BlockingAgeGate      BlockingState = "age_gate"
	BlockingLoginWall    BlockingState = "login_wall"
	BlockingCookieBanner BlockingState = "cookie_banner"
	BlockingClear        BlockingState = "clear"
)

// Button is an interactive element observed on the page. Prominent means the
// rendered bounding box exceeds the minimum size and the element is
// displayed, a proxy for a primary call-to-action.
type Button struct {
	Text      string `json:"text"`
	Prominent bool   `json:"prominent"`
}

// Link is an anchor observed on the page. Internal is true when the href
// resolves to the same hostname as the page itself; hrefs that fail to parse
// are treated as external.
type Link struct {
	Text     string `json:"text"`
	Href     string `json:"href"`
	Internal bool   `json:"internal"`
}

// PageState is the structured snapshot of a page taken once per
// observe/decide/act iteration. It is ephemeral: recomputed every cycle and
// never carried across iterations.
type PageState struct {
	URL         string        `json:"url"`
	Title       string        `json:"title"`
	TextExcerpt string        `json:"text_excerpt"` // lower-cased, length-bounded visible text
	Buttons     []Button      `json:"buttons"`
	Links       []Link        `json:"links"`
	Blocking    BlockingState `json:"blocking"`
	HasVideo    bool          `json:"has_video"`
	HasCanvas   bool          `json:"has_canvas"`
}

// BlockerInfo pairs a blocking classification with the dismiss labels worth
// trying, ordered most-specific first. Derived from a PageState, consumed in
// the same iteration, never persisted.
type BlockerInfo struct {
	Type        BlockingState `json:"type"`
	ActionTexts []string      `json:"action_texts"`
}

// Priority ranks an ActionDecision.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// ActionDecision is the unit of communication from the decision engine (or
// the AI advisor, after translation) to the executor. Immutable once
// produced and consumed exactly once.
type ActionDecision struct {
	TargetText string   `json:"target_text"`
	Reason     string   `json:"reason"`
	Priority   Priority `json:"priority"`
}

// Confidence grades an AI advisor response.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// AIDecision is the advisor's typed answer to "what should I click next".
// A nil Target signals that no further action is needed.
type AIDecision struct {
	Target     *string    `json:"target"`
	Reason     string     `json:"reason"`
	Confidence Confidence `json:"confidence"`
}

// ScrollDepth is the advisor's suggestion for how far to explore a page.
type ScrollDepth string

const (
	ScrollShallow ScrollDepth = "shallow"
	ScrollMedium  ScrollDepth = "medium"
	ScrollDeep    ScrollDepth = "deep"
)

// ScrollPlan is the advisor's exploration strategy for the current page.
type ScrollPlan struct {
	ShouldScroll bool        `json:"should_scroll"`
	Depth        ScrollDepth `json:"depth"`
}

// SEOData holds the page's head metadata, extracted once per crawl.
type SEOData struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Keywords    string `json:"keywords"`
	H1          string `json:"h1"`
	Canonical   string `json:"canonical"`
}

// Performance captures coarse timing and size figures for the crawl.
type Performance struct {
	LoadTime time.Duration `json:"load_time"`
	PageSize int64         `json:"page_size"`
}

// CrawlResult is the final artifact of one crawl invocation. Screenshots are
// append-only during the run, ordered by capture time, and bounded by the
// orchestrator's budget. A caller receives either a fully assembled result
// or a typed error, never a partial object.
type CrawlResult struct {
	ID          string        `json:"id"`
	URL         string        `json:"url"`
	Screenshots [][]byte      `json:"-"`
	SEO         SEOData       `json:"seo"`
	Performance Performance   `json:"performance"`
	FaviconURL  string        `json:"favicon_url"`
	Elapsed     time.Duration `json:"elapsed"`

	// ScreenshotURLs is filled in by callers that hand the raw buffers to an
	// upload collaborator. The core leaves it empty.
	ScreenshotURLs []string `json:"screenshot_urls,omitempty"`
}
