package advisor

import (
	"context"

	"github.com/voyantlabs/voyant/api/schemas"
)

// Noop stands in when no vision model is configured. It answers every
// question with the same conservative defaults the real advisor degrades
// to, so the agent runs heuristics-only.
type Noop struct{}

func (Noop) Decide(context.Context, schemas.PageState, []byte) schemas.AIDecision {
	return unavailableDecision()
}

func (Noop) ScrollPlan(context.Context, []byte) schemas.ScrollPlan {
	return defaultScrollPlan()
}

func (Noop) IsContentPage(context.Context, []byte) bool {
	return false
}
