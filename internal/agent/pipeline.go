package agent

import (
	"context"

	"go.uber.org/zap"

	"github.com/voyantlabs/voyant/api/schemas"
)

// Advisor is the vision-model fallback consulted when heuristics come up
// empty. Implementations must degrade on every failure path: a broken or
// unreachable model yields conservative defaults, never an error.
type Advisor interface {
	Decide(ctx context.Context, state schemas.PageState, screenshot []byte) schemas.AIDecision
	ScrollPlan(ctx context.Context, screenshot []byte) schemas.ScrollPlan
	IsContentPage(ctx context.Context, screenshot []byte) bool
}

// Strategy proposes the next action for a page, or reports itself
// inconclusive so the next strategy in the chain gets a turn.
type Strategy interface {
	Name() string
	Decide(ctx context.Context, state schemas.PageState, screenshot []byte) (*schemas.ActionDecision, bool)
}

// Pipeline tries strategies in order; the first conclusive result wins.
type Pipeline struct {
	strategies []Strategy
	logger     *zap.Logger
}

// NewPipeline builds a decision pipeline over the given strategies.
func NewPipeline(logger *zap.Logger, strategies ...Strategy) *Pipeline {
	return &Pipeline{strategies: strategies, logger: logger.Named("pipeline")}
}

// Decide returns the first conclusive decision, or nil when every strategy
// is inconclusive.
func (p *Pipeline) Decide(ctx context.Context, state schemas.PageState, screenshot []byte) *schemas.ActionDecision {
	for _, s := range p.strategies {
		decision, ok := s.Decide(ctx, state, screenshot)
		if !ok {
			continue
		}
		if decision != nil {
			p.logger.Debug("strategy decided",
				zap.String("strategy", s.Name()),
				zap.String("target", decision.TargetText),
				zap.String("priority", string(decision.Priority)),
			)
		}
		return decision
	}
	return nil
}

// HeuristicStrategy wraps the pure three-tier search.
type HeuristicStrategy struct{}

func (HeuristicStrategy) Name() string { return "heuristic" }

func (HeuristicStrategy) Decide(_ context.Context, state schemas.PageState, _ []byte) (*schemas.ActionDecision, bool) {
	if d := FindBestAction(state); d != nil {
		return d, true
	}
	return nil, false
}

// AdvisorStrategy consults the AI advisor. It requires a screenshot and
// only treats answers with a usable target and non-low confidence as
// conclusive.
type AdvisorStrategy struct {
	Advisor Advisor
}

func (AdvisorStrategy) Name() string { return "advisor" }

func (s AdvisorStrategy) Decide(ctx context.Context, state schemas.PageState, screenshot []byte) (*schemas.ActionDecision, bool) {
	if screenshot == nil {
		return nil, false
	}
	ai := s.Advisor.Decide(ctx, state, screenshot)
	if ai.Target == nil || *ai.Target == "" || ai.Confidence == schemas.ConfidenceLow {
		return nil, false
	}
	return &schemas.ActionDecision{
		TargetText: *ai.Target,
		Reason:     ai.Reason,
		Priority:   schemas.PriorityMedium,
	}, true
}
