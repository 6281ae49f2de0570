// Package advisor is the vision-model fallback consulted when the heuristic
// decision engine is inconclusive. It is strictly best-effort: transport
// errors, malformed JSON, empty completions, and safety rejections all
// degrade to conservative defaults. Nothing in this package can fail a
// crawl.
package advisor

import (
	"context"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/voyantlabs/voyant/api/schemas"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// generator is the narrow transport contract: one completion request with
// an optional inline image and an optional JSON response schema. Test
// doubles replace it.
type generator interface {
	generate(ctx context.Context, prompt string, image []byte, schema *genai.Schema) (string, error)
}

// Gemini advises via Google's Gemini vision models.
type Gemini struct {
	gen    generator
	logger *zap.Logger
}

// decisionSchema constrains the "what to click" completion.
var decisionSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"target":     {Type: genai.TypeString, Nullable: genai.Ptr(true)},
		"reason":     {Type: genai.TypeString},
		"confidence": {Type: genai.TypeString, Enum: []string{"high", "medium", "low"}},
	},
	Required: []string{"reason", "confidence"},
}

// scrollSchema constrains the exploration-strategy completion.
var scrollSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"should_scroll": {Type: genai.TypeBoolean},
		"depth":         {Type: genai.TypeString, Enum: []string{"shallow", "medium", "deep"}},
	},
	Required: []string{"should_scroll", "depth"},
}

type decisionPayload struct {
	Target     *string `json:"target"`
	Reason     string  `json:"reason"`
	Confidence string  `json:"confidence"`
}

type scrollPayload struct {
	ShouldScroll bool   `json:"should_scroll"`
	Depth        string `json:"depth"`
}

// unavailableDecision is the uniform answer for every failure mode.
func unavailableDecision() schemas.AIDecision {
	return schemas.AIDecision{
		Target:     nil,
		Reason:     "AI unavailable",
		Confidence: schemas.ConfidenceLow,
	}
}

// defaultScrollPlan is the safe exploration default when the model cannot
// be consulted.
func defaultScrollPlan() schemas.ScrollPlan {
	return schemas.ScrollPlan{ShouldScroll: true, Depth: schemas.ScrollMedium}
}

// Decide asks the model what to click next given the page summary and a
// screenshot. Any failure resolves to "no action, low confidence"; it never
// returns an error.
func (g *Gemini) Decide(ctx context.Context, state schemas.PageState, screenshot []byte) schemas.AIDecision {
	raw, err := g.gen.generate(ctx, buildDecisionPrompt(state), screenshot, decisionSchema)
	if err != nil {
		g.logger.Warn("advisor decision unavailable", zap.Error(err))
		return unavailableDecision()
	}

	var payload decisionPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		g.logger.Warn("advisor returned unparseable decision", zap.Error(err))
		return unavailableDecision()
	}

	decision := schemas.AIDecision{
		Target:     payload.Target,
		Reason:     payload.Reason,
		Confidence: parseConfidence(payload.Confidence),
	}
	if decision.Reason == "" {
		decision.Reason = "no reason given"
	}
	g.logger.Debug("advisor decision",
		zap.Stringp("target", decision.Target),
		zap.String("confidence", string(decision.Confidence)),
	)
	return decision
}

// ScrollPlan asks the model how far the page is worth exploring. Failures
// resolve to a medium-depth plan.
func (g *Gemini) ScrollPlan(ctx context.Context, screenshot []byte) schemas.ScrollPlan {
	raw, err := g.gen.generate(ctx, scrollPrompt, screenshot, scrollSchema)
	if err != nil {
		g.logger.Warn("advisor scroll plan unavailable", zap.Error(err))
		return defaultScrollPlan()
	}

	var payload scrollPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		g.logger.Warn("advisor returned unparseable scroll plan", zap.Error(err))
		return defaultScrollPlan()
	}

	plan := schemas.ScrollPlan{ShouldScroll: payload.ShouldScroll}
	switch schemas.ScrollDepth(payload.Depth) {
	case schemas.ScrollShallow, schemas.ScrollMedium, schemas.ScrollDeep:
		plan.Depth = schemas.ScrollDepth(payload.Depth)
	default:
		plan.Depth = schemas.ScrollMedium
	}
	return plan
}

// IsContentPage asks a plain yes/no question about the screenshot. Anything
// other than a response containing "yes" counts as no, including every
// failure mode.
func (g *Gemini) IsContentPage(ctx context.Context, screenshot []byte) bool {
	raw, err := g.gen.generate(ctx, contentPrompt, screenshot, nil)
	if err != nil {
		g.logger.Warn("advisor content check unavailable", zap.Error(err))
		return false
	}
	return strings.Contains(strings.ToLower(raw), "yes")
}

func parseConfidence(s string) schemas.Confidence {
	switch schemas.Confidence(strings.ToLower(s)) {
	case schemas.ConfidenceHigh:
		return schemas.ConfidenceHigh
	case schemas.ConfidenceMedium:
		return schemas.ConfidenceMedium
	default:
		return schemas.ConfidenceLow
	}
}
