package advisor

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/voyantlabs/voyant/internal/config"
)

// New constructs the advisor for the configured provider. Only Gemini is
// implemented today; the switch is where future providers plug in.
func New(ctx context.Context, cfg config.AdvisorConfig, logger *zap.Logger) (*Gemini, error) {
	log := logger.Named("advisor")
	switch strings.ToLower(cfg.Provider) {
	case "", "gemini":
		gen, err := newGeminiGenerator(ctx, cfg, log)
		if err != nil {
			return nil, err
		}
		log.Info("advisor ready", zap.String("provider", "gemini"), zap.String("model", cfg.Model))
		return &Gemini{gen: gen, logger: log}, nil
	default:
		return nil, fmt.Errorf("advisor: unknown provider %q", cfg.Provider)
	}
}
