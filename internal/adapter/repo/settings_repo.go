package repo

import (
	"context"
	"encoding/json"
	"fmt"

	"articlegen/internal/infra"
	"articlegen/internal/sqlinline"
	"articlegen/internal/staticcfg"
)

const (
	settingBrandGuide = "brand_guide"
	settingWorkflow   = "workflow"
	settingModels     = "models"
)

// SettingsRepositoryPG serves per-user static configuration from the
// user_settings and articles tables.
type SettingsRepositoryPG struct {
	sql infra.SQLExecutor
}

func NewSettingsRepository(sql infra.SQLExecutor) *SettingsRepositoryPG {
	return &SettingsRepositoryPG{sql: sql}
}

func (r *SettingsRepositoryPG) BrandGuide(ctx context.Context, userID string) (staticcfg.BrandGuide, error) {
	var brand staticcfg.BrandGuide
	_, err := r.setting(ctx, userID, settingBrandGuide, &brand)
	return brand, err
}

// Workflow returns the stored thresholds, or the defaults when the user has
// none.
func (r *SettingsRepositoryPG) Workflow(ctx context.Context, userID string) (staticcfg.Workflow, error) {
	var wf staticcfg.Workflow
	found, err := r.setting(ctx, userID, settingWorkflow, &wf)
	if err != nil {
		return staticcfg.Workflow{}, err
	}
	if !found {
		return staticcfg.DefaultWorkflow(), nil
	}
	return wf, nil
}

func (r *SettingsRepositoryPG) Models(ctx context.Context, userID string) (staticcfg.Models, error) {
	models := staticcfg.Models{}
	if _, err := r.setting(ctx, userID, settingModels, &models); err != nil {
		return nil, err
	}
	return models, nil
}

func (r *SettingsRepositoryPG) RecentArticles(ctx context.Context, userID string, limit int) ([]staticcfg.ArticleSummary, error) {
	rows, err := r.sql.Query(ctx, sqlinline.QSelectRecentArticles, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("recent articles: %w", err)
	}
	defer rows.Close()

	var out []staticcfg.ArticleSummary
	for rows.Next() {
		var a staticcfg.ArticleSummary
		if err := rows.Scan(&a.Title, &a.Slug, &a.URL, &a.PrimaryKeyword, &a.PublishedAt); err != nil {
			return nil, fmt.Errorf("scan recent article: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("recent articles: %w", err)
	}
	return out, nil
}

func (r *SettingsRepositoryPG) setting(ctx context.Context, userID, kind string, dest any) (bool, error) {
	var raw []byte
	if err := r.sql.QueryRow(ctx, sqlinline.QSelectUserSetting, userID, kind).Scan(&raw); err != nil {
		if infra.IsNoRows(err) {
			return false, nil
		}
		return false, fmt.Errorf("%s settings: %w", kind, err)
	}
	if len(raw) == 0 {
		return false, nil
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, fmt.Errorf("decode %s settings: %w", kind, err)
	}
	return true, nil
}

var _ staticcfg.Source = (*SettingsRepositoryPG)(nil)
