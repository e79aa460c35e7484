package stages

import (
	"context"
	"fmt"
	"strings"

	"articlegen/internal/domain"
	"articlegen/internal/pipeline"
	"articlegen/internal/providers/llm"
	"articlegen/internal/quality"
	"articlegen/internal/staticcfg"
)

// maxLinkCandidates bounds the recent articles offered as internal links.
const maxLinkCandidates = 5

// Writing drafts the Markdown body from the strategy.
type Writing struct {
	client llm.Client
}

func NewWriting(client llm.Client) *Writing {
	return &Writing{client: client}
}

func (w *Writing) Name() pipeline.StageName { return pipeline.StageWriting }

func (w *Writing) Run(ctx context.Context, in pipeline.WritingInput, cfg staticcfg.ModelConfig) (domain.Article, error) {
	in.Workflow = in.Workflow.WithDefaults()
	links := linkCandidates(in.Recent, in.Strategy)
	if cfg.MaxTokens > 0 {
		// roughly 1.5 tokens per word plus markup
		cfg.MaxTokens = max(cfg.MaxTokens, in.Workflow.MaxWordCount*2)
	}
	res, err := w.client.Complete(ctx, llm.NewRequest(cfg, writingSystemPrompt, buildWritingPrompt(in, links)))
	if err != nil {
		return domain.Article{}, fmt.Errorf("writing: %w", err)
	}

	body := strings.TrimSpace(llm.TrimCodeFence(res.Text))
	if body == "" {
		return domain.Article{}, fmt.Errorf("writing: %w", domain.ErrEmptyCompletion)
	}
	title := in.Strategy.Title
	if h1, rest, ok := splitH1(body); ok {
		title = firstNonEmpty(h1, title)
		body = rest
	}
	body = ensureInternalLinks(body, links, in.Workflow.MinInternalLinks, in.Brand.SiteURL)
	body = "# " + title + "\n\n" + strings.TrimSpace(body) + "\n"

	return domain.Article{
		Title:     title,
		Body:      body,
		WordCount: quality.CountWords(body),
	}, nil
}

// splitH1 removes a leading "# " heading.
func splitH1(body string) (string, string, bool) {
	if !strings.HasPrefix(body, "# ") {
		return "", body, false
	}
	line, rest, _ := strings.Cut(body, "\n")
	return strings.TrimSpace(strings.TrimPrefix(line, "# ")), strings.TrimSpace(rest), true
}

// linkCandidates picks recent articles with a URL, preferring those that
// share words with the primary keyword.
func linkCandidates(recent []staticcfg.ArticleSummary, s domain.Strategy) []staticcfg.ArticleSummary {
	terms := strings.Fields(strings.ToLower(s.PrimaryKeyword))
	var related, rest []staticcfg.ArticleSummary
	for _, a := range recent {
		if strings.TrimSpace(a.URL) == "" || strings.TrimSpace(a.Title) == "" {
			continue
		}
		hay := strings.ToLower(a.Title + " " + a.PrimaryKeyword)
		matched := false
		for _, t := range terms {
			if len(t) > 2 && strings.Contains(hay, t) {
				matched = true
				break
			}
		}
		if matched {
			related = append(related, a)
		} else {
			rest = append(rest, a)
		}
	}
	out := append(related, rest...)
	if len(out) > maxLinkCandidates {
		out = out[:maxLinkCandidates]
	}
	return out
}

// ensureInternalLinks appends a related reading list when the draft links to
// fewer own articles than the workflow asks for.
func ensureInternalLinks(body string, links []staticcfg.ArticleSummary, want int, siteURL string) string {
	have := quality.CountInternalLinks(body, siteURL, links)
	if have >= want || len(links) == 0 {
		return body
	}
	var sb strings.Builder
	sb.WriteString(strings.TrimRight(body, "\n"))
	sb.WriteString("\n\n## Related Reading\n\n")
	added := 0
	for _, a := range links {
		if have+added >= want {
			break
		}
		if strings.Contains(body, "("+a.URL+")") {
			continue
		}
		fmt.Fprintf(&sb, "- [%s](%s)\n", a.Title, a.URL)
		added++
	}
	if added == 0 {
		return body
	}
	return sb.String()
}
