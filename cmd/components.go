package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/voyantlabs/voyant/api/schemas"
	"github.com/voyantlabs/voyant/internal/advisor"
	"github.com/voyantlabs/voyant/internal/agent"
	"github.com/voyantlabs/voyant/internal/browser"
	"github.com/voyantlabs/voyant/internal/config"
	"github.com/voyantlabs/voyant/internal/storage"
)

// components holds the wired services a crawl command needs.
type components struct {
	Config       *config.Config
	Orchestrator *agent.Orchestrator
	Store        storage.Uploader
}

// initializeComponents builds the dependency graph from the resolved
// configuration. An unconfigured advisor downgrades to heuristics-only
// instead of failing startup.
func initializeComponents(ctx context.Context, logger *zap.Logger) (*components, error) {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return nil, err
	}

	var adv agent.Advisor
	gemini, err := advisor.New(ctx, cfg.Advisor, logger)
	if err != nil {
		logger.Warn("advisor unavailable, continuing heuristics-only", zap.Error(err))
		adv = advisor.Noop{}
	} else {
		adv = gemini
	}

	store, err := storage.NewLocalStore(cfg.Storage)
	if err != nil {
		return nil, err
	}

	mgr := browser.NewManager(cfg.Browser, cfg.Filter, logger)
	orch := agent.NewOrchestrator(cfg.Agent, logger, agent.NewChromeLauncher(mgr), adv)

	return &components{
		Config:       cfg,
		Orchestrator: orch,
		Store:        store,
	}, nil
}

// persistScreenshots uploads the raw screenshot buffers and records their
// URLs on the result. Upload failures are logged and skipped; the crawl
// already succeeded.
func persistScreenshots(ctx context.Context, store storage.Uploader, result *schemas.CrawlResult, logger *zap.Logger) {
	for i, shot := range result.Screenshots {
		name := fmt.Sprintf("%s/shot_%02d.png", result.ID, i+1)
		url, err := store.Upload(ctx, name, shot)
		if err != nil {
			logger.Warn("screenshot upload failed", zap.String("name", name), zap.Error(err))
			continue
		}
		result.ScreenshotURLs = append(result.ScreenshotURLs, url)
	}
}
