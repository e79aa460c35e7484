package stages

import (
	"context"
	"fmt"
	"strings"

	"articlegen/internal/domain"
	"articlegen/internal/outline"
	"articlegen/internal/pipeline"
	"articlegen/internal/providers/llm"
	"articlegen/internal/staticcfg"
)

// maxSecondaryKeywords bounds the keyword list handed to writing and meta.
const maxSecondaryKeywords = 8

// minSectionWords is the smallest spread share; below it sections get
// outline.DefaultSectionWords.
const minSectionWords = 100

// Strategy plans the article outline. The reply goes through the outline
// fallback chain, so a reply that cannot be parsed still yields an outline.
type Strategy struct {
	client llm.Client
	chain  *outline.Chain
}

func NewStrategy(client llm.Client, chain *outline.Chain) *Strategy {
	return &Strategy{client: client, chain: chain}
}

func (s *Strategy) Name() pipeline.StageName { return pipeline.StageStrategy }

func (s *Strategy) Run(ctx context.Context, in pipeline.StrategyInput, cfg staticcfg.ModelConfig) (domain.Strategy, error) {
	wf := in.Workflow.WithDefaults()
	req := llm.NewRequest(cfg, strategySystemPrompt, buildStrategyPrompt(in, wf.TargetWordCount))
	req.JSON = true
	res, err := s.client.Complete(ctx, req)
	if err != nil {
		return domain.Strategy{}, fmt.Errorf("strategy: %w", err)
	}

	subject := subjectOf(in.Request)
	parsed := s.chain.Parse(res.Text, subject)
	o := parsed.Outline
	fillTargetWords(&o, wf.TargetWordCount)

	keyword := firstNonEmpty(in.Request.PrimaryKeyword, in.Request.Topic)
	secondary := dedupeFold(in.Request.SecondaryKeywords, in.Research.RelatedKeywords)
	secondary = removeFold(secondary, keyword)
	if len(secondary) > maxSecondaryKeywords {
		secondary = secondary[:maxSecondaryKeywords]
	}

	return domain.Strategy{
		Title:             firstNonEmpty(o.Title, subject),
		PrimaryKeyword:    keyword,
		SecondaryKeywords: secondary,
		SearchIntent:      normalizeIntent(in.Research.SearchIntent),
		TargetWordCount:   wf.TargetWordCount,
		Outline:           o,
		OutlineStrategy:   parsed.Strategy,
	}, nil
}

// fillTargetWords spreads what remains of the target across sections that
// have no explicit length.
func fillTargetWords(o *domain.Outline, target int) {
	explicit, missing := 0, 0
	for _, sec := range o.Sections {
		if sec.TargetWords > 0 {
			explicit += sec.TargetWords
		} else {
			missing++
		}
	}
	if missing == 0 {
		return
	}
	share := outline.DefaultSectionWords
	if target > 0 {
		if rest := (target - explicit) / missing; rest >= minSectionWords {
			share = rest
		}
	}
	for i := range o.Sections {
		if o.Sections[i].TargetWords <= 0 {
			o.Sections[i].TargetWords = share
		}
	}
}

func removeFold(items []string, drop string) []string {
	drop = strings.TrimSpace(drop)
	if drop == "" {
		return items
	}
	out := items[:0:0]
	for _, it := range items {
		if !strings.EqualFold(it, drop) {
			out = append(out, it)
		}
	}
	return out
}
