package stages

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"articlegen/internal/domain"
	"articlegen/internal/pipeline"
	imagegen "articlegen/internal/providers/image"
	"articlegen/internal/retry"
	"articlegen/internal/staticcfg"
)

const (
	featuredAspect = "16:9"
	sectionAspect  = "4:3"
)

// Image produces one mandatory featured image and, when requested, one
// optional image per outline section. Every image is retried on its own; a
// featured image that exhausts its attempts fails the stage while dropped
// section images only degrade it.
type Image struct {
	gen         imagegen.Generator
	runner      *retry.Runner
	concurrency int
	logger      zerolog.Logger
}

// NewImage builds the stage. concurrency bounds the parallel section images
// (<= 0 means unbounded).
func NewImage(gen imagegen.Generator, runner *retry.Runner, concurrency int, logger zerolog.Logger) *Image {
	if runner == nil {
		runner = retry.NewRunner(retry.DefaultPolicy())
	}
	return &Image{gen: gen, runner: runner, concurrency: concurrency, logger: logger}
}

func (s *Image) Name() pipeline.StageName { return pipeline.StageImage }

func (s *Image) Run(ctx context.Context, in pipeline.ImageInput, _ staticcfg.ModelConfig) (domain.ImageSet, error) {
	strategy := in.Strategy
	subject := firstNonEmpty(strategy.PrimaryKeyword, subjectOf(in.Request))
	prefix := "articles/" + articleSlug(strategy.Title, subject)

	featured := func(ctx context.Context) (domain.Image, error) {
		return s.gen.Generate(ctx, imagegen.GenerateRequest{
			Prompt: imagegen.BuildArticlePrompt(imagegen.PromptInput{
				Title:      strategy.Title,
				Subject:    subject,
				ImageStyle: in.Brand.ImageStyle,
				Audience:   firstNonEmpty(in.Request.Audience, in.Brand.Audience),
			}),
			AltText:     imagegen.AltText(strategy.Title, ""),
			AspectRatio: featuredAspect,
			KeyPrefix:   prefix,
			Slot:        "featured",
		})
	}

	var optional []retry.Task[domain.Image]
	if in.SectionImages {
		for i, sec := range strategy.Outline.Sections {
			optional = append(optional, func(ctx context.Context) (domain.Image, error) {
				return s.gen.Generate(ctx, imagegen.GenerateRequest{
					Prompt: imagegen.BuildArticlePrompt(imagegen.PromptInput{
						Title:      strategy.Title,
						Subject:    subject,
						Section:    sec.Heading,
						SubPoints:  sec.SubPoints,
						ImageStyle: in.Brand.ImageStyle,
					}),
					AltText:     imagegen.AltText(strategy.Title, sec.Heading),
					AspectRatio: sectionAspect,
					KeyPrefix:   prefix,
					Slot:        fmt.Sprintf("section-%02d", i+1),
				})
			})
		}
	}

	set, err := retry.RunSet(ctx, s.runner, featured, optional, s.concurrency)
	if err != nil {
		return domain.ImageSet{}, fmt.Errorf("image: featured image: %w: %w", pipeline.ErrMandatoryAsset, err)
	}

	out := domain.ImageSet{
		Featured:       set.Mandatory,
		Attempted:      len(optional),
		FailedSections: set.FailedIndices(),
	}
	for _, opt := range set.Optional {
		out.Sections = append(out.Sections, domain.SectionImage{SectionIndex: opt.Index, Image: opt.Value})
	}
	for _, f := range set.Failures {
		s.logger.Warn().Err(f.Err).Int("index", f.Index).Msg("image: section image dropped")
	}
	return out, nil
}
