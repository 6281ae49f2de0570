// Package agent implements the autonomous crawl loop: pure decision
// heuristics over page snapshots, a strategy pipeline with an AI fallback,
// and the orchestrator that drives observe, decide, act end to end.
package agent

import (
	"strings"

	"github.com/voyantlabs/voyant/api/schemas"
)

// Static dismiss-label tables per blocking state, most specific label first.
// Generic labels ("Continue", "Accept") come last so an age gate's explicit
// confirmation button always wins over a generic one.
var blockerActionTexts = map[schemas.BlockingState][]string{
	schemas.BlockingAgeGate: {
		"I am 18 or older",
		"I am over 18",
		"Yes, I am 18",
		"Enter site",
		"Continue",
		"Accept",
	},
	schemas.BlockingCookieBanner: {
		"Accept all",
		"Allow all",
		"Accept cookies",
		"Accept",
		"Agree",
		"Got it",
		"OK",
	},
	schemas.BlockingLoginWall: {
		"Continue as guest",
		"Continue without",
		"Skip",
		"Not now",
		"Maybe later",
		"Close",
	},
}

// contentKeywords mark a button as a likely entry to the page's payload.
var contentKeywords = []string{
	"start", "watch", "play", "enter", "view", "session", "live", "join", "stream",
}

// contentPathPatterns mark a same-origin link as a likely content page.
var contentPathPatterns = []string{"/video", "/watch", "/session", "/live"}

const (
	// optimisticFallbackCount caps the static labels tried when no observed
	// button matched any of them. The executor's own text search may still
	// hit a DOM variant the snapshot missed, so a few blind attempts are
	// worth their cost.
	optimisticFallbackCount = 3

	// canvasTextThreshold is the visible-text length above which a canvas
	// page counts as content.
	canvasTextThreshold = 200
)

// DetectBlocker maps the page's blocking state to the dismiss labels worth
// clicking, filtered to labels that match an observed button. When nothing
// matches, the first few static candidates are returned anyway.
func DetectBlocker(state schemas.PageState) *schemas.BlockerInfo {
	if state.Blocking == schemas.BlockingClear || state.Blocking == "" {
		return nil
	}

	static := blockerActionTexts[state.Blocking]
	if len(static) == 0 {
		return nil
	}

	matched := make([]string, 0, len(static))
	for _, label := range static {
		if hasButtonContaining(state.Buttons, label) {
			matched = append(matched, label)
		}
	}

	if len(matched) == 0 {
		n := optimisticFallbackCount
		if n > len(static) {
			n = len(static)
		}
		matched = append(matched, static[:n]...)
	}

	return &schemas.BlockerInfo{Type: state.Blocking, ActionTexts: matched}
}

// FindBestAction runs the three-tier heuristic search: prominent buttons
// with a content keyword win at high priority, any keyword button wins at
// medium, then same-origin links with a content-path href at medium. A nil
// result signals the caller to consult the AI advisor.
func FindBestAction(state schemas.PageState) *schemas.ActionDecision {
	for _, b := range state.Buttons {
		if b.Prominent && matchContentKeyword(b.Text) != "" {
			return &schemas.ActionDecision{
				TargetText: b.Text,
				Reason:     "prominent button matches content keyword " + matchContentKeyword(b.Text),
				Priority:   schemas.PriorityHigh,
			}
		}
	}

	for _, b := range state.Buttons {
		if kw := matchContentKeyword(b.Text); kw != "" {
			return &schemas.ActionDecision{
				TargetText: b.Text,
				Reason:     "button matches content keyword " + kw,
				Priority:   schemas.PriorityMedium,
			}
		}
	}

	for _, l := range state.Links {
		if !l.Internal {
			continue
		}
		href := strings.ToLower(l.Href)
		for _, pattern := range contentPathPatterns {
			if strings.Contains(href, pattern) {
				return &schemas.ActionDecision{
					TargetText: l.Text,
					Reason:     "internal link href matches " + pattern,
					Priority:   schemas.PriorityMedium,
				}
			}
		}
	}

	return nil
}

// IsContentPage reports whether the snapshot looks like the payload being
// sought. Any single signal is sufficient; there is no scoring.
func IsContentPage(state schemas.PageState) bool {
	if state.HasVideo {
		return true
	}
	if state.HasCanvas && len(state.TextExcerpt) > canvasTextThreshold {
		return true
	}
	lowered := strings.ToLower(state.URL)
	for _, pattern := range contentPathPatterns {
		if strings.Contains(lowered, pattern) {
			return true
		}
	}
	return false
}

func hasButtonContaining(buttons []schemas.Button, label string) bool {
	needle := strings.ToLower(label)
	for _, b := range buttons {
		if strings.Contains(strings.ToLower(b.Text), needle) {
			return true
		}
	}
	return false
}

func matchContentKeyword(text string) string {
	lowered := strings.ToLower(text)
	for _, kw := range contentKeywords {
		if strings.Contains(lowered, kw) {
			return kw
		}
	}
	return ""
}
