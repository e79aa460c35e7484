package stages

import (
	"fmt"
	"strings"

	"articlegen/internal/domain"
	"articlegen/internal/pipeline"
	"articlegen/internal/staticcfg"
)

const (
	researchSystemPrompt = "You are an SEO research analyst. Respond only with valid JSON."
	strategySystemPrompt = "You are an SEO content strategist. Respond only with valid JSON."
	writingSystemPrompt  = "You are an expert blog writer. Respond only with the article in Markdown."
	metaSystemPrompt     = "You write search engine metadata. Respond only with valid JSON."
)

func subjectOf(req domain.ArticleRequest) string {
	return firstNonEmpty(req.Topic, req.PrimaryKeyword)
}

func writeBrand(sb *strings.Builder, brand staticcfg.BrandGuide) {
	if brand.Name != "" {
		fmt.Fprintf(sb, "Brand: %s.\n", brand.Name)
	}
	if brand.Voice != "" {
		fmt.Fprintf(sb, "Voice: %s.\n", brand.Voice)
	}
	if len(brand.Guidelines) > 0 {
		sb.WriteString("Guidelines:\n")
		for _, g := range brand.Guidelines {
			fmt.Fprintf(sb, "- %s\n", g)
		}
	}
	if len(brand.ForbiddenTerms) > 0 {
		fmt.Fprintf(sb, "Never use these terms: %s.\n", strings.Join(brand.ForbiddenTerms, ", "))
	}
}

func writeRecent(sb *strings.Builder, recent []staticcfg.ArticleSummary, heading string) {
	if len(recent) == 0 {
		return
	}
	sb.WriteString(heading)
	sb.WriteString("\n")
	for _, a := range recent {
		if a.URL != "" {
			fmt.Fprintf(sb, "- %s (%s)\n", a.Title, a.URL)
		} else {
			fmt.Fprintf(sb, "- %s\n", a.Title)
		}
	}
}

func buildResearchPrompt(in pipeline.ResearchInput) string {
	sb := &strings.Builder{}
	fmt.Fprintf(sb, "Research the topic %q for a blog article.\n", subjectOf(in.Request))
	fmt.Fprintf(sb, "Primary keyword: %s.\n", firstNonEmpty(in.Request.PrimaryKeyword, in.Request.Topic))
	if len(in.Request.SecondaryKeywords) > 0 {
		fmt.Fprintf(sb, "Secondary keywords: %s.\n", strings.Join(in.Request.SecondaryKeywords, ", "))
	}
	fmt.Fprintf(sb, "Audience: %s.\n", firstNonEmpty(in.Request.Audience, in.Brand.Audience, "general readers"))
	if in.Request.Locale != "" {
		fmt.Fprintf(sb, "Locale: %s.\n", in.Request.Locale)
	}
	if in.Request.Notes != "" {
		fmt.Fprintf(sb, "Notes from the editor: %s\n", in.Request.Notes)
	}
	writeRecent(sb, in.Recent, "Recently published articles; find an angle that does not repeat them:")
	sb.WriteString(`Return JSON: {"summary":string,"key_points":string[],"questions":string[],"related_keywords":string[],"search_intent":"informational|commercial|transactional|navigational","sources":string[]}`)
	return sb.String()
}

func buildStrategyPrompt(in pipeline.StrategyInput, targetWords int) string {
	sb := &strings.Builder{}
	fmt.Fprintf(sb, "Plan an SEO blog article about %q.\n", subjectOf(in.Request))
	fmt.Fprintf(sb, "Primary keyword: %s. Search intent: %s. Target length: %d words.\n",
		firstNonEmpty(in.Request.PrimaryKeyword, in.Request.Topic), firstNonEmpty(in.Research.SearchIntent, "informational"), targetWords)
	if in.Research.Summary != "" {
		fmt.Fprintf(sb, "Research summary: %s\n", in.Research.Summary)
	}
	if len(in.Research.KeyPoints) > 0 {
		sb.WriteString("Key points:\n")
		for _, p := range in.Research.KeyPoints {
			fmt.Fprintf(sb, "- %s\n", p)
		}
	}
	if len(in.Research.Questions) > 0 {
		fmt.Fprintf(sb, "Reader questions: %s\n", strings.Join(in.Research.Questions, " | "))
	}
	writeBrand(sb, in.Brand)
	writeRecent(sb, in.Recent, "Avoid duplicating these published articles:")
	fmt.Fprintf(sb, "Use at least %d main sections.\n", max(in.Workflow.MinHeadings, 3))
	sb.WriteString(`Return JSON: {"title":string,"introduction":string,"sections":[{"heading":string,"sub_points":string[],"target_words":number}],"conclusion":string,"faq":[{"question":string,"answer":string}]}`)
	return sb.String()
}

func buildWritingPrompt(in pipeline.WritingInput, links []staticcfg.ArticleSummary) string {
	s := in.Strategy
	sb := &strings.Builder{}
	fmt.Fprintf(sb, "Write a complete blog article titled %q.\n", s.Title)
	fmt.Fprintf(sb, "Primary keyword: %s. Use it naturally in the first paragraph and in some headings.\n", s.PrimaryKeyword)
	if len(s.SecondaryKeywords) > 0 {
		fmt.Fprintf(sb, "Secondary keywords: %s.\n", strings.Join(s.SecondaryKeywords, ", "))
	}
	fmt.Fprintf(sb, "Length: about %d words (between %d and %d).\n", s.TargetWordCount, in.Workflow.MinWordCount, in.Workflow.MaxWordCount)
	fmt.Fprintf(sb, "Audience: %s.\n", firstNonEmpty(in.Request.Audience, in.Brand.Audience, "general readers"))
	writeBrand(sb, in.Brand)

	o := s.Outline
	fmt.Fprintf(sb, "Introduction: %s\n", o.Introduction)
	for i, sec := range o.Sections {
		fmt.Fprintf(sb, "Section %d (## heading, about %d words): %s\n", i+1, sec.TargetWords, sec.Heading)
		for _, p := range sec.SubPoints {
			fmt.Fprintf(sb, "  - %s\n", p)
		}
	}
	fmt.Fprintf(sb, "Conclusion: %s\n", o.Conclusion)
	if len(o.FAQ) > 0 {
		sb.WriteString("End with a \"## Frequently Asked Questions\" section answering:\n")
		for _, f := range o.FAQ {
			fmt.Fprintf(sb, "- %s\n", f.Question)
		}
	}
	if len(links) > 0 {
		fmt.Fprintf(sb, "Link to at least %d of these related articles with Markdown links where relevant:\n", min(len(links), max(in.Workflow.MinInternalLinks, 1)))
		for _, a := range links {
			fmt.Fprintf(sb, "- [%s](%s)\n", a.Title, a.URL)
		}
	}
	sb.WriteString("Use short paragraphs, bullet lists and at least one bold key takeaway. Do not wrap the answer in a code block.")
	return sb.String()
}

func buildMetaPrompt(in pipeline.MetaInput) string {
	sb := &strings.Builder{}
	fmt.Fprintf(sb, "Write SEO metadata for the article titled %q.\n", firstNonEmpty(in.Article.Title, in.Strategy.Title))
	fmt.Fprintf(sb, "Primary keyword: %s. It must appear in both the title and the description.\n", firstNonEmpty(in.Strategy.PrimaryKeyword, in.Request.PrimaryKeyword))
	sb.WriteString("Title: 30 to 60 characters. Description: 120 to 160 characters. Slug: lowercase words joined by hyphens.\n")
	fmt.Fprintf(sb, "Article opening:\n%s\n", truncateWords(in.Article.Body, 1200))
	sb.WriteString(`Return JSON: {"title":string,"description":string,"slug":string,"keywords":string[],"og_title":string,"og_description":string}`)
	return sb.String()
}
