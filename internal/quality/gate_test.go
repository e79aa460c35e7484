package quality

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"articlegen/internal/domain"
	"articlegen/internal/staticcfg"
)

func fixed(name string, weight, score float64) Checker {
	return Checker{Name: name, Weight: weight, Eval: func(Input) Outcome {
		return Outcome{Score: score, Passed: score >= 50}
	}}
}

func TestGateScoreIsWeightedMean(t *testing.T) {
	t.Parallel()
	gate := NewGate(fixed("a", 2, 80), fixed("b", 1, 50), fixed("c", 1, 0))
	report := gate.Evaluate(Input{Workflow: staticcfg.Workflow{QualityThreshold: 60}})

	assert.Equal(t, (80*2.0+50*1+0*1)/4, report.Score)
	assert.Equal(t, 60.0, report.Threshold)
	assert.False(t, report.Accepted)
	require.Len(t, report.Checks, 3)
	assert.Equal(t, "a", report.Checks[0].Name)
	assert.False(t, report.Checks[2].Passed)
}

func TestGateAcceptsAtThreshold(t *testing.T) {
	t.Parallel()
	report := NewGate(fixed("a", 1, 75)).Evaluate(Input{Workflow: staticcfg.Workflow{QualityThreshold: 75}})
	assert.Equal(t, 75.0, report.Score)
	assert.True(t, report.Accepted)
}

func TestGateUsesDefaultThreshold(t *testing.T) {
	t.Parallel()
	report := NewGate(fixed("a", 1, 62)).Evaluate(Input{})
	assert.Equal(t, 75.0, report.Threshold)
	assert.False(t, report.Accepted)
}

func TestGateNeverFails(t *testing.T) {
	t.Parallel()
	gate := NewGate(
		Checker{Name: "panics", Weight: 1, Eval: func(Input) Outcome { panic("boom") }},
		Checker{Name: "missing", Weight: 1},
		fixed("too_high", 1, 250),
		fixed("negative_weight", -3, 100),
	)
	report := gate.Evaluate(Input{})

	require.Len(t, report.Checks, 4)
	assert.Zero(t, report.Checks[0].Score)
	assert.Contains(t, report.Checks[0].Detail, "boom")
	assert.Zero(t, report.Checks[1].Score)
	assert.Equal(t, 100.0, report.Checks[2].Score)
	assert.Zero(t, report.Checks[3].Weight)
	assert.InDelta(t, 100.0/3, report.Score, 1e-9)
}

func TestGateZeroWeightsScoresZero(t *testing.T) {
	t.Parallel()
	report := NewGate(fixed("a", 0, 100)).Evaluate(Input{Workflow: staticcfg.Workflow{QualityThreshold: 1}})
	assert.Zero(t, report.Score)
	assert.False(t, report.Accepted)
}

const goodBody = `# Home Composting Guide

Home composting turns kitchen scraps into rich soil. It is easy to start. You need a bin and some patience.

## Why Home Composting Works

- It cuts waste.
- It feeds your garden.

Read our [raised bed guide](/blog/raised-beds) for more ideas. **Tip:** keep the pile moist.

## How to Start Home Composting

> Start small and add scraps every day.

Mix greens and browns. Turn the pile each week. Home composting takes a few months.
`

func goodInput() Input {
	return Input{
		Article: domain.Article{Title: "Home Composting Guide", Body: goodBody},
		Images: domain.ImageSet{
			Featured: domain.Image{URL: "https://cdn.example.com/f.png", AltText: "A compost bin"},
			Sections: []domain.SectionImage{{SectionIndex: 0, Image: domain.Image{URL: "https://cdn.example.com/s.png", AltText: "Greens"}}},
		},
		Meta: domain.Meta{
			Title:       "Home Composting Guide: Turn Scraps Into Soil",
			Description: "Learn home composting step by step: pick a bin, balance greens and browns, and turn kitchen scraps into rich garden soil in a few months.",
			Slug:        "home-composting-guide",
		},
		PrimaryKeyword: "home composting",
		Workflow: staticcfg.Workflow{
			MinWordCount:      40,
			MaxWordCount:      400,
			KeywordDensityMin: 1,
			KeywordDensityMax: 20,
			MinHeadings:       2,
			MinInternalLinks:  1,
			ReadabilityMin:    1,
			ReadabilityMax:    120,
			QualityThreshold:  75,
		},
	}
}

func TestDefaultCheckersAcceptGoodArticle(t *testing.T) {
	t.Parallel()
	report := NewGate().Evaluate(goodInput())

	require.Len(t, report.Checks, 8)
	for _, c := range report.Checks {
		assert.True(t, c.Passed, "%s: %s", c.Name, c.Detail)
		assert.Equal(t, 100.0, c.Score, c.Name)
	}
	assert.Equal(t, 100.0, report.Score)
	assert.True(t, report.Accepted)
}

func TestDefaultCheckersRejectEmptyArticle(t *testing.T) {
	t.Parallel()
	report := NewGate().Evaluate(Input{PrimaryKeyword: "compost"})

	assert.False(t, report.Accepted)
	assert.GreaterOrEqual(t, report.Score, 0.0)
	assert.LessOrEqual(t, report.Score, 100.0)
	for _, c := range report.Checks {
		if c.Name == CheckContentLength || c.Name == CheckKeywordDensity || c.Name == CheckReadability {
			assert.Zero(t, c.Score, c.Name)
		}
	}
}

func TestMissingFeaturedImageFailsImagesCheck(t *testing.T) {
	t.Parallel()
	in := goodInput()
	in.Images = domain.ImageSet{}
	out := images(in)
	assert.False(t, out.Passed)
	assert.Equal(t, 20.0, out.Score)
}

func TestSEOMetadataPartialCredit(t *testing.T) {
	t.Parallel()
	in := goodInput()
	in.Meta.Description = "Too short."
	in.Meta.Slug = "Not A Slug"
	out := seoMetadata(in)
	assert.False(t, out.Passed)
	assert.Equal(t, 40.0, out.Score)
	assert.Contains(t, out.Detail, "description_length")
	assert.Contains(t, out.Detail, "slug")
}

func TestContentLengthScalesOutsideBounds(t *testing.T) {
	t.Parallel()
	in := Input{Article: domain.Article{Body: "one two three four five"}, Workflow: staticcfg.Workflow{MinWordCount: 10, MaxWordCount: 20}}
	out := contentLength(in)
	assert.Equal(t, 50.0, out.Score)
	assert.False(t, out.Passed)

	in.Workflow = staticcfg.Workflow{MinWordCount: 1, MaxWordCount: 4}
	assert.Equal(t, 80.0, contentLength(in).Score)
}
