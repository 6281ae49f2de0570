package agent

import (
	"context"

	"github.com/voyantlabs/voyant/internal/browser"
)

// chromeLauncher adapts the browser manager to the Launcher contract.
type chromeLauncher struct {
	mgr *browser.Manager
}

// NewChromeLauncher wraps a browser manager as a Launcher.
func NewChromeLauncher(mgr *browser.Manager) Launcher {
	return chromeLauncher{mgr: mgr}
}

func (l chromeLauncher) Acquire(ctx context.Context) (Session, error) {
	page, err := l.mgr.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	return page, nil
}

func (l chromeLauncher) Release(s Session) {
	if page, ok := s.(*browser.Page); ok {
		l.mgr.Release(page)
	}
}
