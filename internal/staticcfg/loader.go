package staticcfg

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// DefaultRecentWindow bounds the number of recent articles fetched per job.
const DefaultRecentWindow = 20

// Source fetches the individual pieces of a StaticConfig.
type Source interface {
	BrandGuide(ctx context.Context, userID string) (BrandGuide, error)
	Workflow(ctx context.Context, userID string) (Workflow, error)
	Models(ctx context.Context, userID string) (Models, error)
	RecentArticles(ctx context.Context, userID string, limit int) ([]ArticleSummary, error)
}

// Loader fetches all StaticConfig pieces concurrently. If any fetch fails the
// whole load fails; there is no partial config.
type Loader struct {
	source Source
	window int
}

// NewLoader builds a Loader over src. A non-positive window uses DefaultRecentWindow.
func NewLoader(src Source, window int) *Loader {
	if window <= 0 {
		window = DefaultRecentWindow
	}
	return &Loader{source: src, window: window}
}

// Load fetches the config of userID.
func (l *Loader) Load(ctx context.Context, userID string) (*StaticConfig, error) {
	if l == nil || l.source == nil {
		return nil, fmt.Errorf("staticcfg: no source configured")
	}
	var (
		cfg StaticConfig
		g   errgroup.Group
	)
	g.Go(func() error {
		brand, err := l.source.BrandGuide(ctx, userID)
		if err != nil {
			return fmt.Errorf("brand guide: %w", err)
		}
		cfg.Brand = brand
		return nil
	})
	g.Go(func() error {
		wf, err := l.source.Workflow(ctx, userID)
		if err != nil {
			return fmt.Errorf("workflow settings: %w", err)
		}
		cfg.Workflow = wf.WithDefaults()
		return nil
	})
	g.Go(func() error {
		models, err := l.source.Models(ctx, userID)
		if err != nil {
			return fmt.Errorf("model settings: %w", err)
		}
		cfg.Models = models
		return nil
	})
	g.Go(func() error {
		recent, err := l.source.RecentArticles(ctx, userID, l.window)
		if err != nil {
			return fmt.Errorf("recent articles: %w", err)
		}
		if len(recent) > l.window {
			recent = recent[:l.window]
		}
		cfg.Recent = recent
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("staticcfg: %w", err)
	}
	if cfg.Models == nil {
		cfg.Models = Models{}
	}
	return &cfg, nil
}
