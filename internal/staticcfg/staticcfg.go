// Package staticcfg holds the per-job configuration that is fetched once
// before the first stage runs: brand guide, workflow thresholds, per-stage
// model settings and a window of recently published articles.
package staticcfg

import (
	"strings"
	"time"
)

// DefaultModelKey is the Models entry used when a stage has no own entry.
const DefaultModelKey = "default"

// BrandGuide describes the voice the generated article must follow.
type BrandGuide struct {
	Name           string   `json:"name" yaml:"name"`
	Voice          string   `json:"voice" yaml:"voice"`
	Audience       string   `json:"audience" yaml:"audience"`
	SiteURL        string   `json:"site_url" yaml:"site_url"`
	Guidelines     []string `json:"guidelines" yaml:"guidelines"`
	ForbiddenTerms []string `json:"forbidden_terms" yaml:"forbidden_terms"`
	ImageStyle     string   `json:"image_style" yaml:"image_style"`
}

// Workflow carries length targets and quality thresholds.
type Workflow struct {
	TargetWordCount   int     `json:"target_word_count" yaml:"target_word_count"`
	MinWordCount      int     `json:"min_word_count" yaml:"min_word_count"`
	MaxWordCount      int     `json:"max_word_count" yaml:"max_word_count"`
	KeywordDensityMin float64 `json:"keyword_density_min" yaml:"keyword_density_min"`
	KeywordDensityMax float64 `json:"keyword_density_max" yaml:"keyword_density_max"`
	MinHeadings       int     `json:"min_headings" yaml:"min_headings"`
	MinInternalLinks  int     `json:"min_internal_links" yaml:"min_internal_links"`
	ReadabilityMin    float64 `json:"readability_min" yaml:"readability_min"`
	ReadabilityMax    float64 `json:"readability_max" yaml:"readability_max"`
	QualityThreshold  float64 `json:"quality_threshold" yaml:"quality_threshold"`
	SectionImages     *bool   `json:"section_images,omitempty" yaml:"section_images,omitempty"`
}

// WantsSectionImages reports whether optional per-section images are requested.
func (w Workflow) WantsSectionImages() bool {
	return w.SectionImages == nil || *w.SectionImages
}

// ModelConfig selects the provider and sampling settings for one stage.
type ModelConfig struct {
	Provider    string  `json:"provider" yaml:"provider"`
	Model       string  `json:"model" yaml:"model"`
	Temperature float64 `json:"temperature" yaml:"temperature"`
	MaxTokens   int     `json:"max_tokens" yaml:"max_tokens"`
}

// Models maps stage names to their model settings.
type Models map[string]ModelConfig

// For returns the settings of stage, falling back to the default entry and
// then to the built-in default.
func (m Models) For(stage string) ModelConfig {
	if cfg, ok := m[strings.ToLower(stage)]; ok {
		return mergeModel(cfg, m.fallback())
	}
	return m.fallback()
}

func (m Models) fallback() ModelConfig {
	if cfg, ok := m[DefaultModelKey]; ok {
		return mergeModel(cfg, defaultModel)
	}
	return defaultModel
}

func mergeModel(cfg, base ModelConfig) ModelConfig {
	if strings.TrimSpace(cfg.Provider) == "" {
		cfg.Provider = base.Provider
	}
	if strings.TrimSpace(cfg.Model) == "" && strings.EqualFold(cfg.Provider, base.Provider) {
		cfg.Model = base.Model
	}
	if cfg.Temperature <= 0 {
		cfg.Temperature = base.Temperature
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = base.MaxTokens
	}
	return cfg
}

// ArticleSummary is a previously published article, used to avoid repeating
// angles and as internal link candidates.
type ArticleSummary struct {
	Title          string    `json:"title" yaml:"title"`
	Slug           string    `json:"slug" yaml:"slug"`
	URL            string    `json:"url" yaml:"url"`
	PrimaryKeyword string    `json:"primary_keyword" yaml:"primary_keyword"`
	PublishedAt    time.Time `json:"published_at" yaml:"published_at"`
}

// StaticConfig is immutable for the duration of one job.
type StaticConfig struct {
	Brand    BrandGuide       `json:"brand"`
	Workflow Workflow         `json:"workflow"`
	Models   Models           `json:"models"`
	Recent   []ArticleSummary `json:"recent_articles"`
}

var defaultModel = ModelConfig{
	Provider:    "openai",
	Model:       "gpt-4o-mini",
	Temperature: 0.7,
	MaxTokens:   4096,
}

// DefaultWorkflow returns the thresholds used when a user has not configured any.
func DefaultWorkflow() Workflow {
	return Workflow{
		TargetWordCount:   1500,
		MinWordCount:      1200,
		MaxWordCount:      2500,
		KeywordDensityMin: 0.5,
		KeywordDensityMax: 2.5,
		MinHeadings:       3,
		MinInternalLinks:  2,
		ReadabilityMin:    50,
		ReadabilityMax:    80,
		QualityThreshold:  75,
	}
}

// WithDefaults fills zero values from DefaultWorkflow.
func (w Workflow) WithDefaults() Workflow {
	d := DefaultWorkflow()
	if w.TargetWordCount <= 0 {
		w.TargetWordCount = d.TargetWordCount
	}
	if w.MinWordCount <= 0 {
		w.MinWordCount = d.MinWordCount
	}
	if w.MaxWordCount <= 0 || w.MaxWordCount < w.MinWordCount {
		w.MaxWordCount = max(d.MaxWordCount, w.MinWordCount)
	}
	if w.KeywordDensityMin <= 0 {
		w.KeywordDensityMin = d.KeywordDensityMin
	}
	if w.KeywordDensityMax <= 0 || w.KeywordDensityMax < w.KeywordDensityMin {
		w.KeywordDensityMax = max(d.KeywordDensityMax, w.KeywordDensityMin)
	}
	if w.MinHeadings <= 0 {
		w.MinHeadings = d.MinHeadings
	}
	if w.MinInternalLinks < 0 {
		w.MinInternalLinks = 0
	}
	if w.ReadabilityMin <= 0 {
		w.ReadabilityMin = d.ReadabilityMin
	}
	if w.ReadabilityMax <= 0 || w.ReadabilityMax < w.ReadabilityMin {
		w.ReadabilityMax = max(d.ReadabilityMax, w.ReadabilityMin)
	}
	if w.QualityThreshold <= 0 {
		w.QualityThreshold = d.QualityThreshold
	}
	return w
}
