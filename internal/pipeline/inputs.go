package pipeline

import (
	"articlegen/internal/domain"
	"articlegen/internal/staticcfg"
)

// JobInput is what the worker hands to Execute for a claimed job.
type JobInput struct {
	JobID      string
	UserID     string
	Request    domain.ArticleRequest
	RetryCount int
}

type ResearchInput struct {
	Request domain.ArticleRequest
	Brand   staticcfg.BrandGuide
	Recent  []staticcfg.ArticleSummary
}

type StrategyInput struct {
	Request  domain.ArticleRequest
	Research domain.Research
	Brand    staticcfg.BrandGuide
	Workflow staticcfg.Workflow
	Recent   []staticcfg.ArticleSummary
}

type WritingInput struct {
	Request  domain.ArticleRequest
	Strategy domain.Strategy
	Brand    staticcfg.BrandGuide
	Workflow staticcfg.Workflow
	Recent   []staticcfg.ArticleSummary
}

// ImageInput carries the strategy; one optional image is attempted per
// outline section when the workflow asks for section images.
type ImageInput struct {
	Request       domain.ArticleRequest
	Strategy      domain.Strategy
	Brand         staticcfg.BrandGuide
	SectionImages bool
}

type MetaInput struct {
	Request          domain.ArticleRequest
	Strategy         domain.Strategy
	Article          domain.Article
	FeaturedImageURL string
}
