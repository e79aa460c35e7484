// Package stages implements the five generation stages. Each stage is a pure
// transformation of its input and model settings; persistence and timing
// belong to the pipeline coordinator.
package stages

import (
	"context"
	"fmt"
	"strings"

	"articlegen/internal/domain"
	"articlegen/internal/pipeline"
	"articlegen/internal/providers/llm"
	"articlegen/internal/staticcfg"
)

// Research asks the model for background material on the topic.
type Research struct {
	client llm.Client
}

func NewResearch(client llm.Client) *Research {
	return &Research{client: client}
}

func (r *Research) Name() pipeline.StageName { return pipeline.StageResearch }

type researchPayload struct {
	Summary         string   `json:"summary"`
	KeyPoints       []string `json:"key_points"`
	Questions       []string `json:"questions"`
	RelatedKeywords []string `json:"related_keywords"`
	SearchIntent    string   `json:"search_intent"`
	Sources         []string `json:"sources"`
}

func (r *Research) Run(ctx context.Context, in pipeline.ResearchInput, cfg staticcfg.ModelConfig) (domain.Research, error) {
	if err := validateRequest(in.Request); err != nil {
		return domain.Research{}, err
	}
	req := llm.NewRequest(cfg, researchSystemPrompt, buildResearchPrompt(in))
	req.JSON = true
	res, err := r.client.Complete(ctx, req)
	if err != nil {
		return domain.Research{}, fmt.Errorf("research: %w", err)
	}

	payload, err := llm.ParseJSON[researchPayload](res.Text)
	if err != nil {
		// keep prose replies usable
		return domain.Research{
			Summary:   strings.TrimSpace(llm.TrimCodeFence(res.Text)),
			KeyPoints: bulletLines(res.Text),
		}, nil
	}
	out := domain.Research{
		Summary:         strings.TrimSpace(payload.Summary),
		KeyPoints:       cleanList(payload.KeyPoints),
		Questions:       cleanList(payload.Questions),
		RelatedKeywords: dedupeFold(payload.RelatedKeywords),
		SearchIntent:    normalizeIntent(payload.SearchIntent),
		Sources:         cleanList(payload.Sources),
	}
	if out.Summary == "" && len(out.KeyPoints) == 0 {
		return domain.Research{}, fmt.Errorf("research: %w: no summary or key points", domain.ErrEmptyCompletion)
	}
	return out, nil
}

func validateRequest(req domain.ArticleRequest) error {
	if strings.TrimSpace(req.Topic) == "" && strings.TrimSpace(req.PrimaryKeyword) == "" {
		return fmt.Errorf("%w: topic or primary keyword is required", domain.ErrInvalidArticleRequest)
	}
	return nil
}

func normalizeIntent(intent string) string {
	switch v := strings.ToLower(strings.TrimSpace(intent)); v {
	case "informational", "commercial", "transactional", "navigational":
		return v
	case "":
		return "informational"
	default:
		for _, known := range []string{"informational", "commercial", "transactional", "navigational"} {
			if strings.Contains(v, known) {
				return known
			}
		}
		return "informational"
	}
}
