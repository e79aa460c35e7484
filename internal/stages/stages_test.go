package stages

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"articlegen/internal/domain"
	"articlegen/internal/outline"
	"articlegen/internal/pipeline"
	imagegen "articlegen/internal/providers/image"
	"articlegen/internal/providers/llm"
	"articlegen/internal/retry"
	"articlegen/internal/staticcfg"
)

func replyWith(text string) (llm.Client, *[]llm.Request) {
	var mu sync.Mutex
	var seen []llm.Request
	return llm.ClientFunc(func(_ context.Context, req llm.Request) (*llm.Response, error) {
		mu.Lock()
		seen = append(seen, req)
		mu.Unlock()
		return &llm.Response{Text: text, Provider: "fake"}, nil
	}), &seen
}

func failingClient(err error) llm.Client {
	return llm.ClientFunc(func(context.Context, llm.Request) (*llm.Response, error) { return nil, err })
}

var request = domain.ArticleRequest{
	Topic:             "email marketing for bakeries",
	PrimaryKeyword:    "email marketing",
	SecondaryKeywords: []string{"newsletter", "Email Marketing"},
}

var model = staticcfg.ModelConfig{Provider: "openai", Model: "gpt-4o-mini", Temperature: 0.5, MaxTokens: 1000}

func TestResearchParsesJSON(t *testing.T) {
	client, seen := replyWith("```json\n" + `{"summary":"Bakeries can grow repeat sales.","key_points":["segment lists"," "],"related_keywords":["newsletter ideas","Newsletter Ideas"],"search_intent":"Mostly Commercial"}` + "\n```")
	out, err := NewResearch(client).Run(context.Background(), pipeline.ResearchInput{
		Request: request,
		Recent:  []staticcfg.ArticleSummary{{Title: "Old post", URL: "https://x.test/old"}},
	}, model)
	require.NoError(t, err)

	assert.Equal(t, "Bakeries can grow repeat sales.", out.Summary)
	assert.Equal(t, []string{"segment lists"}, out.KeyPoints)
	assert.Equal(t, []string{"newsletter ideas"}, out.RelatedKeywords)
	assert.Equal(t, "commercial", out.SearchIntent)

	require.Len(t, *seen, 1)
	req := (*seen)[0]
	assert.True(t, req.JSON)
	assert.Equal(t, "openai", req.Provider)
	assert.Contains(t, req.Prompt, "Old post")
}

func TestResearchFallsBackToProse(t *testing.T) {
	client, _ := replyWith("Here is what I found:\n- point one\n- point two")
	out, err := NewResearch(client).Run(context.Background(), pipeline.ResearchInput{Request: request}, model)
	require.NoError(t, err)
	assert.Equal(t, []string{"point one", "point two"}, out.KeyPoints)
	assert.NotEmpty(t, out.Summary)
}

func TestResearchErrors(t *testing.T) {
	_, err := NewResearch(failingClient(domain.ErrProviderFailure)).Run(context.Background(), pipeline.ResearchInput{Request: request}, model)
	assert.ErrorIs(t, err, domain.ErrProviderFailure)

	client, _ := replyWith(`{"summary":""}`)
	_, err = NewResearch(client).Run(context.Background(), pipeline.ResearchInput{Request: request}, model)
	assert.ErrorIs(t, err, domain.ErrEmptyCompletion)

	_, err = NewResearch(client).Run(context.Background(), pipeline.ResearchInput{}, model)
	assert.ErrorIs(t, err, domain.ErrInvalidArticleRequest)
}

func strategyInput() pipeline.StrategyInput {
	return pipeline.StrategyInput{
		Request:  request,
		Research: domain.Research{Summary: "s", RelatedKeywords: []string{"drip campaigns", "newsletter"}, SearchIntent: "informational"},
		Workflow: staticcfg.Workflow{TargetWordCount: 1200},
	}
}

func TestStrategyUsesParsedOutline(t *testing.T) {
	client, _ := replyWith(`{"title":"Email Marketing for Bakeries","introduction":"intro","sections":[{"heading":"Build a list","target_words":400},{"heading":"Send weekly"},{"heading":"Measure"}],"conclusion":"end"}`)
	chain := outline.NewChain(zerolog.Nop())
	out, err := NewStrategy(client, chain).Run(context.Background(), strategyInput(), model)
	require.NoError(t, err)

	assert.Equal(t, "strict_json", out.OutlineStrategy)
	assert.Equal(t, "Email Marketing for Bakeries", out.Title)
	assert.Equal(t, "email marketing", out.PrimaryKeyword)
	assert.Equal(t, []string{"newsletter", "drip campaigns"}, out.SecondaryKeywords)
	assert.Equal(t, 1200, out.TargetWordCount)
	require.Len(t, out.Outline.Sections, 3)
	assert.Equal(t, 400, out.Outline.Sections[0].TargetWords)
	assert.Equal(t, 400, out.Outline.Sections[1].TargetWords)
	assert.Equal(t, 400, out.Outline.Sections[2].TargetWords)
}

func TestStrategySpreadsTargetOverUnsizedSections(t *testing.T) {
	client, _ := replyWith(`{"title":"Cold Brew at Home","sections":[{"heading":"Beans"},{"heading":"Ratio"},{"heading":"Steeping"}]}`)
	out, err := NewStrategy(client, outline.NewChain(zerolog.Nop())).Run(context.Background(), strategyInput(), model)
	require.NoError(t, err)

	planned := 0
	for _, sec := range out.Outline.Sections {
		assert.Equal(t, 400, sec.TargetWords, sec.Heading)
		planned += sec.TargetWords
	}
	assert.Equal(t, out.TargetWordCount, planned)
}

func TestStrategyTemplateOutlineMeetsTarget(t *testing.T) {
	client, _ := replyWith("")
	out, err := NewStrategy(client, outline.NewChain(zerolog.Nop())).Run(context.Background(), strategyInput(), model)
	require.NoError(t, err)
	for _, sec := range out.Outline.Sections {
		assert.Equal(t, 240, sec.TargetWords, sec.Heading)
	}
}

func TestFillTargetWords(t *testing.T) {
	o := domain.Outline{Sections: []domain.OutlineSection{{Heading: "a", TargetWords: 600}, {Heading: "b"}, {Heading: "c"}}}
	fillTargetWords(&o, 1500)
	assert.Equal(t, []int{600, 450, 450}, []int{o.Sections[0].TargetWords, o.Sections[1].TargetWords, o.Sections[2].TargetWords})

	o = domain.Outline{Sections: []domain.OutlineSection{{Heading: "a", TargetWords: 1400}, {Heading: "b"}}}
	fillTargetWords(&o, 1500)
	assert.Equal(t, 100, o.Sections[1].TargetWords, "a share of exactly the minimum is kept")

	o = domain.Outline{Sections: []domain.OutlineSection{{Heading: "a", TargetWords: 1450}, {Heading: "b"}}}
	fillTargetWords(&o, 1500)
	assert.Equal(t, outline.DefaultSectionWords, o.Sections[1].TargetWords)

	o = domain.Outline{Sections: []domain.OutlineSection{{Heading: "a"}, {Heading: "b", TargetWords: 300}}}
	fillTargetWords(&o, 0)
	assert.Equal(t, []int{outline.DefaultSectionWords, 300}, []int{o.Sections[0].TargetWords, o.Sections[1].TargetWords})
}

func TestStrategyFallsBackToTemplate(t *testing.T) {
	client, _ := replyWith("")
	out, err := NewStrategy(client, outline.NewChain(zerolog.Nop())).Run(context.Background(), strategyInput(), model)
	require.NoError(t, err)
	assert.Equal(t, "template", out.OutlineStrategy)
	assert.Len(t, out.Outline.Sections, 5)
	assert.True(t, out.Outline.Valid())
}

func TestStrategyProviderFailure(t *testing.T) {
	_, err := NewStrategy(failingClient(errors.New("timeout")), outline.NewChain(zerolog.Nop())).Run(context.Background(), strategyInput(), model)
	assert.ErrorContains(t, err, "strategy: timeout")
}

func writingInput() pipeline.WritingInput {
	return pipeline.WritingInput{
		Request: request,
		Strategy: domain.Strategy{
			Title:           "Email Marketing for Bakeries",
			PrimaryKeyword:  "email marketing",
			TargetWordCount: 1200,
			Outline:         domain.Outline{Sections: []domain.OutlineSection{{Heading: "Build a list", TargetWords: 300}}},
		},
		Brand:    staticcfg.BrandGuide{SiteURL: "https://bakery.test"},
		Workflow: staticcfg.Workflow{MinInternalLinks: 2},
		Recent: []staticcfg.ArticleSummary{
			{Title: "Instagram for bakeries", URL: "https://bakery.test/instagram"},
			{Title: "Email marketing basics", URL: "https://bakery.test/email-basics", PrimaryKeyword: "email marketing"},
			{Title: "No url"},
		},
	}
}

func TestWritingNormalizesDraft(t *testing.T) {
	client, seen := replyWith("```markdown\n# A Better Title\n\nIntro paragraph about email marketing.\n\n## Build a list\n\nBody text.\n```")
	out, err := NewWriting(client).Run(context.Background(), writingInput(), model)
	require.NoError(t, err)

	assert.Equal(t, "A Better Title", out.Title)
	assert.True(t, strings.HasPrefix(out.Body, "# A Better Title\n\nIntro paragraph"))
	assert.Equal(t, 1, strings.Count(out.Body, "# A Better Title"))
	assert.Contains(t, out.Body, "## Related Reading")
	assert.Contains(t, out.Body, "[Email marketing basics](https://bakery.test/email-basics)")
	assert.Contains(t, out.Body, "[Instagram for bakeries](https://bakery.test/instagram)")
	assert.NotContains(t, out.Body, "```")
	assert.Greater(t, out.WordCount, 10)

	prompt := (*seen)[0].Prompt
	assert.Less(t, strings.Index(prompt, "email-basics"), strings.Index(prompt, "instagram"))
	assert.Equal(t, 5000, (*seen)[0].MaxTokens)
}

func TestWritingKeepsExistingLinksAndAddsTitle(t *testing.T) {
	client, _ := replyWith("See [basics](https://bakery.test/email-basics) and [ig](/instagram).")
	out, err := NewWriting(client).Run(context.Background(), writingInput(), model)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out.Body, "# Email Marketing for Bakeries\n\n"))
	assert.NotContains(t, out.Body, "Related Reading")
}

func TestWritingEmptyDraftFails(t *testing.T) {
	client, _ := replyWith("```\n```")
	_, err := NewWriting(client).Run(context.Background(), writingInput(), model)
	assert.ErrorIs(t, err, domain.ErrEmptyCompletion)
}

type generatorFunc func(ctx context.Context, req imagegen.GenerateRequest) (domain.Image, error)

func (f generatorFunc) Generate(ctx context.Context, req imagegen.GenerateRequest) (domain.Image, error) {
	return f(ctx, req)
}

func noSleepRunner(delays *[]time.Duration) *retry.Runner {
	var mu sync.Mutex
	return retry.NewRunner(retry.DefaultPolicy(), retry.WithSleeper(func(_ context.Context, d time.Duration) error {
		mu.Lock()
		defer mu.Unlock()
		if delays != nil {
			*delays = append(*delays, d)
		}
		return nil
	}))
}

func imageInput(sections int, enabled bool) pipeline.ImageInput {
	var secs []domain.OutlineSection
	for i := 0; i < sections; i++ {
		secs = append(secs, domain.OutlineSection{Heading: "Section " + string(rune('A'+i))})
	}
	return pipeline.ImageInput{
		Request:       request,
		Strategy:      domain.Strategy{Title: "Email Marketing for Bakeries", PrimaryKeyword: "email marketing", Outline: domain.Outline{Sections: secs}},
		SectionImages: enabled,
	}
}

func TestImageMandatoryFailureFailsStage(t *testing.T) {
	var calls sync.Map
	gen := generatorFunc(func(_ context.Context, req imagegen.GenerateRequest) (domain.Image, error) {
		n, _ := calls.LoadOrStore(req.Slot, new(int))
		*(n.(*int))++
		if req.Slot == "featured" {
			return domain.Image{}, errors.New("quota exceeded")
		}
		return domain.Image{URL: req.Slot}, nil
	})
	var delays []time.Duration
	stage := NewImage(gen, noSleepRunner(&delays), 2, zerolog.Nop())

	_, err := stage.Run(context.Background(), imageInput(3, true), model)
	require.Error(t, err)
	assert.ErrorIs(t, err, pipeline.ErrMandatoryAsset)
	assert.True(t, retry.IsExhausted(err))
	assert.ErrorContains(t, err, "quota exceeded")
	assert.Equal(t, []time.Duration{5 * time.Second, 10 * time.Second}, delays)

	_, sectionsTried := calls.Load("section-01")
	assert.False(t, sectionsTried)
}

func TestImageDegradesOnOptionalFailures(t *testing.T) {
	gen := generatorFunc(func(_ context.Context, req imagegen.GenerateRequest) (domain.Image, error) {
		if req.Slot == "section-01" || req.Slot == "section-03" {
			return domain.Image{}, errors.New("safety filter")
		}
		assert.True(t, strings.HasPrefix(req.KeyPrefix, "articles/email-marketing-for-bakeries"))
		return domain.Image{URL: "https://cdn.test/" + req.Slot + ".png", AltText: req.AltText}, nil
	})
	stage := NewImage(gen, noSleepRunner(nil), 0, zerolog.Nop())

	out, err := stage.Run(context.Background(), imageInput(3, true), model)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.test/featured.png", out.Featured.URL)
	assert.Equal(t, 3, out.Attempted)
	require.Len(t, out.Sections, 1)
	assert.Equal(t, 1, out.Sections[0].SectionIndex)
	assert.Equal(t, "https://cdn.test/section-02.png", out.Sections[0].Image.URL)
	assert.Equal(t, []int{0, 2}, out.FailedSections)
	assert.True(t, out.Degraded())
}

func TestImageSectionCountFollowsOutline(t *testing.T) {
	var mu sync.Mutex
	var slots []string
	gen := generatorFunc(func(_ context.Context, req imagegen.GenerateRequest) (domain.Image, error) {
		mu.Lock()
		slots = append(slots, req.Slot)
		mu.Unlock()
		return domain.Image{URL: req.Slot}, nil
	})

	out, err := NewImage(gen, noSleepRunner(nil), 2, zerolog.Nop()).Run(context.Background(), imageInput(4, true), model)
	require.NoError(t, err)
	assert.Equal(t, 4, out.Attempted)
	assert.Len(t, out.Sections, 4)
	assert.Len(t, slots, 5)

	slots = nil
	out, err = NewImage(gen, noSleepRunner(nil), 2, zerolog.Nop()).Run(context.Background(), imageInput(4, false), model)
	require.NoError(t, err)
	assert.Zero(t, out.Attempted)
	assert.Equal(t, []string{"featured"}, slots)
}

func metaInput() pipeline.MetaInput {
	return pipeline.MetaInput{
		Request:  request,
		Strategy: domain.Strategy{Title: "Email Marketing for Bakeries", PrimaryKeyword: "email marketing", SecondaryKeywords: []string{"newsletter"}},
		Article: domain.Article{
			Title: "Email Marketing for Bakeries",
			Body:  "# Email Marketing for Bakeries\n\n![cover](x.png)\n\nEmail marketing helps **bakeries** turn one-time visitors into regulars. This guide covers [list building](/lists), weekly newsletters, seasonal offers and simple metrics you can track.\n\n## Next",
		},
		FeaturedImageURL: "https://cdn.test/featured.png",
	}
}

func TestMetaUsesModelPayload(t *testing.T) {
	client, _ := replyWith(`{"title":"Email Marketing for Bakeries: A Practical Guide","description":"Learn how email marketing helps bakeries win repeat customers with list building, weekly newsletters, seasonal offers and simple metrics.","slug":"Email Marketing for Bakeries!","keywords":["bakery newsletter","Email Marketing"]}`)
	out, err := NewMeta(client, zerolog.Nop()).Run(context.Background(), metaInput(), model)
	require.NoError(t, err)

	assert.Equal(t, "Email Marketing for Bakeries: A Practical Guide", out.Title)
	assert.Equal(t, "email-marketing-for-bakeries", out.Slug)
	assert.Equal(t, []string{"email marketing", "bakery newsletter", "newsletter"}, out.Keywords)
	assert.Equal(t, "https://cdn.test/featured.png", out.OpenGraph.Image)
	assert.Equal(t, "article", out.OpenGraph.Type)
	assert.Equal(t, out.Title, out.OpenGraph.Title)
}

func TestMetaFallsBackToArticle(t *testing.T) {
	client, _ := replyWith("I cannot produce JSON today.")
	out, err := NewMeta(client, zerolog.Nop()).Run(context.Background(), metaInput(), model)
	require.NoError(t, err)

	assert.Equal(t, "Email Marketing for Bakeries", out.Title)
	assert.True(t, strings.HasPrefix(out.Description, "Email marketing helps bakeries turn one-time visitors into regulars."))
	assert.NotContains(t, out.Description, "(/lists)")
	assert.LessOrEqual(t, len([]rune(out.Description)), 160)
	assert.Equal(t, "email-marketing-for-bakeries", out.Slug)
}

func TestMetaProviderFailure(t *testing.T) {
	_, err := NewMeta(failingClient(domain.ErrProviderFailure), zerolog.Nop()).Run(context.Background(), metaInput(), model)
	assert.ErrorIs(t, err, domain.ErrProviderFailure)
}

func TestArticleSlugFallsBackForNonLatinTitles(t *testing.T) {
	assert.Equal(t, "cold-brew", articleSlug("", "日本語", "cold brew"))

	slug := articleSlug("日本語のタイトル", "  ")
	assert.Regexp(t, `^article-[0-9a-f]{10}$`, slug)
	assert.Equal(t, slug, articleSlug("日本語のタイトル"), "stable for the same title")
	assert.NotEqual(t, slug, articleSlug("別のタイトル"))

	assert.Equal(t, "article", articleSlug("", " "))
}

func TestMetaSlugForNonLatinTitle(t *testing.T) {
	client, _ := replyWith(`{"title":"コールドブリューの作り方ガイド","slug":"コールドブリュー"}`)
	in := metaInput()
	in.Article.Title = "コールドブリューの作り方"
	in.Strategy.Title = in.Article.Title
	in.Strategy.PrimaryKeyword = "コールドブリュー"
	in.Request.PrimaryKeyword = ""
	out, err := NewMeta(client, zerolog.Nop()).Run(context.Background(), in, model)
	require.NoError(t, err)
	assert.Regexp(t, `^article-[0-9a-f]{10}$`, out.Slug)
}

func TestMetaLogsRejectedPayload(t *testing.T) {
	var buf bytes.Buffer
	client, _ := replyWith("I cannot produce JSON today.")
	_, err := NewMeta(client, zerolog.New(&buf)).Run(context.Background(), metaInput(), model)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "meta: model payload rejected")
	assert.Contains(t, buf.String(), `"level":"warn"`)
}

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Crème Brûlée Recipes":  "creme-brulee-recipes",
		"  --SEO 101: Basics--": "seo-101-basics",
		"日本語":                   "",
		"a/b\\c":                "a-b-c",
	}
	for in, want := range cases {
		assert.Equal(t, want, slugify(in), in)
	}
	long := slugify(strings.Repeat("keyword ", 20))
	assert.LessOrEqual(t, len(long), 75)
	assert.False(t, strings.HasSuffix(long, "-"))
}

func TestTruncateWords(t *testing.T) {
	assert.Equal(t, "short", truncateWords("  short ", 10))
	assert.Equal(t, "alpha beta", truncateWords("alpha beta gamma", 12))
}
