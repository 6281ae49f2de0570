package advisor

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/voyantlabs/voyant/internal/config"
)

const (
	defaultCallTimeout = 30 * time.Second
	maxRetryInterval   = 10 * time.Second
	maxRetryElapsed    = 90 * time.Second
)

// geminiGenerator is the real transport behind the advisor. Transient API
// failures (rate limits, server errors) are retried with exponential
// backoff; everything else is surfaced immediately.
type geminiGenerator struct {
	client      *genai.Client
	model       string
	temperature float32
	timeout     time.Duration
	logger      *zap.Logger
}

func newGeminiGenerator(ctx context.Context, cfg config.AdvisorConfig, logger *zap.Logger) (*geminiGenerator, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("advisor: gemini api key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("advisor: create gemini client: %w", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultCallTimeout
	}
	return &geminiGenerator{
		client:      client,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		timeout:     timeout,
		logger:      logger,
	}, nil
}

func (g *geminiGenerator) generate(ctx context.Context, prompt string, image []byte, schema *genai.Schema) (string, error) {
	parts := []*genai.Part{{Text: prompt}}
	if len(image) > 0 {
		parts = append(parts, &genai.Part{
			InlineData: &genai.Blob{MIMEType: "image/png", Data: image},
		})
	}
	contents := []*genai.Content{{Role: "user", Parts: parts}}

	genCfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(g.temperature),
	}
	if schema != nil {
		genCfg.ResponseMIMEType = "application/json"
		genCfg.ResponseSchema = schema
	}

	policy := backoff.NewExponentialBackOff()
	policy.MaxInterval = maxRetryInterval
	policy.MaxElapsedTime = maxRetryElapsed

	var text string
	op := func() error {
		callCtx, cancel := context.WithTimeout(ctx, g.timeout)
		defer cancel()

		resp, err := g.client.Models.GenerateContent(callCtx, g.model, contents, genCfg)
		if err != nil {
			if isTransient(err) {
				g.logger.Debug("transient gemini error, retrying", zap.Error(err))
				return err
			}
			return backoff.Permanent(err)
		}

		text = resp.Text()
		if text == "" {
			// Safety blocks and empty candidates land here; retrying the
			// same prompt will not help.
			return backoff.Permanent(errors.New("empty completion"))
		}
		return nil
	}

	if err := backoff.Retry(op, backoff.WithContext(policy, ctx)); err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	return text, nil
}

// isTransient reports whether the API error is worth retrying.
func isTransient(err error) bool {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusTooManyRequests,
			http.StatusInternalServerError,
			http.StatusBadGateway,
			http.StatusServiceUnavailable:
			return true
		}
		return false
	}
	// Plain transport failures (resets, timeouts below our deadline) retry.
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}
