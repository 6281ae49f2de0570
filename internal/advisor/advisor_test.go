package advisor

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"google.golang.org/genai"

	"github.com/voyantlabs/voyant/api/schemas"
)

// stubGenerator scripts the transport and records what it was asked.
type stubGenerator struct {
	out string
	err error

	prompt string
	image  []byte
	schema *genai.Schema
	calls  int
}

func (s *stubGenerator) generate(_ context.Context, prompt string, image []byte, schema *genai.Schema) (string, error) {
	s.calls++
	s.prompt = prompt
	s.image = image
	s.schema = schema
	return s.out, s.err
}

func newTestGemini(t *testing.T, gen *stubGenerator) *Gemini {
	t.Helper()
	return &Gemini{gen: gen, logger: zaptest.NewLogger(t)}
}

// -- Decide --

func TestDecide_ParsesWellFormedAnswer(t *testing.T) {
	gen := &stubGenerator{out: `{"target":"Watch Now","reason":"large play button","confidence":"high"}`}
	g := newTestGemini(t, gen)

	decision := g.Decide(context.Background(), schemas.PageState{URL: "https://site.example"}, []byte("png"))

	require.NotNil(t, decision.Target)
	assert.Equal(t, "Watch Now", *decision.Target)
	assert.Equal(t, "large play button", decision.Reason)
	assert.Equal(t, schemas.ConfidenceHigh, decision.Confidence)
	assert.NotNil(t, gen.schema, "decisions are schema-constrained")
	assert.Equal(t, []byte("png"), gen.image)
}

func TestDecide_NullTargetMeansNoAction(t *testing.T) {
	gen := &stubGenerator{out: `{"target":null,"reason":"already on content","confidence":"high"}`}
	g := newTestGemini(t, gen)

	decision := g.Decide(context.Background(), schemas.PageState{}, []byte("png"))
	assert.Nil(t, decision.Target)
	assert.Equal(t, schemas.ConfidenceHigh, decision.Confidence)
}

func TestDecide_TransportFailureDegrades(t *testing.T) {
	gen := &stubGenerator{err: errors.New("dial tcp: connection refused")}
	g := newTestGemini(t, gen)

	decision := g.Decide(context.Background(), schemas.PageState{}, []byte("png"))
	assert.Nil(t, decision.Target)
	assert.Equal(t, "AI unavailable", decision.Reason)
	assert.Equal(t, schemas.ConfidenceLow, decision.Confidence)
}

func TestDecide_MalformedJSONDegrades(t *testing.T) {
	gen := &stubGenerator{out: `I think you should click the big button`}
	g := newTestGemini(t, gen)

	decision := g.Decide(context.Background(), schemas.PageState{}, []byte("png"))
	assert.Nil(t, decision.Target)
	assert.Equal(t, "AI unavailable", decision.Reason)
	assert.Equal(t, schemas.ConfidenceLow, decision.Confidence)
}

func TestDecide_UnknownConfidenceClampsToLow(t *testing.T) {
	gen := &stubGenerator{out: `{"target":"X","reason":"r","confidence":"certain"}`}
	g := newTestGemini(t, gen)

	decision := g.Decide(context.Background(), schemas.PageState{}, []byte("png"))
	assert.Equal(t, schemas.ConfidenceLow, decision.Confidence)
}

func TestDecide_ConfidenceIsCaseInsensitive(t *testing.T) {
	gen := &stubGenerator{out: `{"target":"X","reason":"r","confidence":"MEDIUM"}`}
	g := newTestGemini(t, gen)

	decision := g.Decide(context.Background(), schemas.PageState{}, []byte("png"))
	assert.Equal(t, schemas.ConfidenceMedium, decision.Confidence)
}

// -- ScrollPlan --

func TestScrollPlan_ParsesAnswer(t *testing.T) {
	gen := &stubGenerator{out: `{"should_scroll":true,"depth":"deep"}`}
	g := newTestGemini(t, gen)

	plan := g.ScrollPlan(context.Background(), []byte("png"))
	assert.True(t, plan.ShouldScroll)
	assert.Equal(t, schemas.ScrollDeep, plan.Depth)
}

func TestScrollPlan_FailureYieldsSafeDefault(t *testing.T) {
	gen := &stubGenerator{err: errors.New("rate limited")}
	g := newTestGemini(t, gen)

	plan := g.ScrollPlan(context.Background(), []byte("png"))
	assert.True(t, plan.ShouldScroll)
	assert.Equal(t, schemas.ScrollMedium, plan.Depth)
}

func TestScrollPlan_UnknownDepthClampsToMedium(t *testing.T) {
	gen := &stubGenerator{out: `{"should_scroll":false,"depth":"bottomless"}`}
	g := newTestGemini(t, gen)

	plan := g.ScrollPlan(context.Background(), []byte("png"))
	assert.False(t, plan.ShouldScroll)
	assert.Equal(t, schemas.ScrollMedium, plan.Depth)
}

// -- IsContentPage --

func TestIsContentPage(t *testing.T) {
	tests := []struct {
		name string
		out  string
		err  error
		want bool
	}{
		{"plain yes", "yes", nil, true},
		{"verbose yes", "Yes, this shows a video player.", nil, true},
		{"plain no", "no", nil, false},
		{"hedging without yes", "it is unclear", nil, false},
		{"transport failure", "", errors.New("boom"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newTestGemini(t, &stubGenerator{out: tt.out, err: tt.err})
			assert.Equal(t, tt.want, g.IsContentPage(context.Background(), []byte("png")))
		})
	}
}

// -- Prompt bounding --

func TestBuildDecisionPrompt_BoundsButtonsAndLinks(t *testing.T) {
	state := schemas.PageState{URL: "https://site.example", Title: "Big page"}
	for i := 0; i < 40; i++ {
		state.Buttons = append(state.Buttons, schemas.Button{Text: "Button"})
		state.Links = append(state.Links, schemas.Link{Text: "Link", Href: "https://site.example/x"})
	}

	prompt := buildDecisionPrompt(state)
	assert.Equal(t, maxPromptButtons, strings.Count(prompt, "(prominent:"))
	assert.Equal(t, maxPromptLinks, strings.Count(prompt, "->"))
}

func TestBuildDecisionPrompt_SkipsTextlessLinks(t *testing.T) {
	state := schemas.PageState{
		Links: []schemas.Link{
			{Text: "", Href: "https://site.example/icon-only"},
			{Text: "Real link", Href: "https://site.example/real"},
		},
	}

	prompt := buildDecisionPrompt(state)
	assert.Equal(t, 1, strings.Count(prompt, "->"))
	assert.Contains(t, prompt, "Real link")
}

// -- Noop --

func TestNoop_MatchesDegradedDefaults(t *testing.T) {
	n := Noop{}
	ctx := context.Background()

	decision := n.Decide(ctx, schemas.PageState{}, nil)
	assert.Nil(t, decision.Target)
	assert.Equal(t, schemas.ConfidenceLow, decision.Confidence)

	plan := n.ScrollPlan(ctx, nil)
	assert.True(t, plan.ShouldScroll)
	assert.Equal(t, schemas.ScrollMedium, plan.Depth)

	assert.False(t, n.IsContentPage(ctx, nil))
}

// -- Transient classification --

func TestIsTransient(t *testing.T) {
	assert.True(t, isTransient(genai.APIError{Code: 429}))
	assert.True(t, isTransient(genai.APIError{Code: 503}))
	assert.False(t, isTransient(genai.APIError{Code: 400}))
	assert.False(t, isTransient(genai.APIError{Code: 401}))
	assert.True(t, isTransient(errors.New("connection reset by peer")))
	assert.False(t, isTransient(context.Canceled))
}
