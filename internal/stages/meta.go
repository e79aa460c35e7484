package stages

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"articlegen/internal/domain"
	"articlegen/internal/pipeline"
	"articlegen/internal/providers/llm"
	"articlegen/internal/staticcfg"
)

const (
	maxMetaTitle       = 60
	maxMetaDescription = 160
	maxSlug            = 75
)

// Meta derives search and social metadata from the finished article. Fields
// the model leaves empty or out of bounds are rebuilt from the article.
type Meta struct {
	client llm.Client
	logger zerolog.Logger
}

func NewMeta(client llm.Client, logger zerolog.Logger) *Meta {
	return &Meta{client: client, logger: logger}
}

func (m *Meta) Name() pipeline.StageName { return pipeline.StageMeta }

type metaPayload struct {
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	Slug          string   `json:"slug"`
	Keywords      []string `json:"keywords"`
	OGTitle       string   `json:"og_title"`
	OGDescription string   `json:"og_description"`
}

func (m *Meta) Run(ctx context.Context, in pipeline.MetaInput, cfg staticcfg.ModelConfig) (domain.Meta, error) {
	req := llm.NewRequest(cfg, metaSystemPrompt, buildMetaPrompt(in))
	req.JSON = true
	res, err := m.client.Complete(ctx, req)
	if err != nil {
		return domain.Meta{}, fmt.Errorf("meta: %w", err)
	}
	payload, err := llm.ParseJSON[metaPayload](res.Text)
	if err != nil {
		m.logger.Warn().Err(err).Str("title", in.Strategy.Title).Msg("meta: model payload rejected, deriving from article")
		payload = metaPayload{}
	}

	keyword := firstNonEmpty(in.Strategy.PrimaryKeyword, in.Request.PrimaryKeyword)
	articleTitle := firstNonEmpty(in.Article.Title, in.Strategy.Title, subjectOf(in.Request))

	title := truncateWords(payload.Title, maxMetaTitle)
	if utf8.RuneCountInString(title) < 10 {
		title = truncateWords(articleTitle, maxMetaTitle)
	}
	desc := truncateWords(payload.Description, maxMetaDescription)
	if utf8.RuneCountInString(desc) < 50 {
		desc = truncateWords(firstParagraph(in.Article.Body), maxMetaDescription)
	}
	slug := articleSlug(payload.Slug, articleTitle, keyword)

	return domain.Meta{
		Title:       title,
		Description: desc,
		Slug:        slug,
		Keywords:    dedupeFold([]string{keyword}, payload.Keywords, in.Strategy.SecondaryKeywords),
		OpenGraph: domain.OpenGraph{
			Title:       truncateWords(firstNonEmpty(payload.OGTitle, title), 95),
			Description: truncateWords(firstNonEmpty(payload.OGDescription, desc), 200),
			Image:       in.FeaturedImageURL,
			Type:        "article",
		},
	}, nil
}

var (
	mdHeading = regexp.MustCompile(`^#{1,6}\s`)
	mdLink    = regexp.MustCompile(`!?\[([^\]]*)\]\([^)]*\)`)
	mdInline  = strings.NewReplacer("**", "", "__", "", "`", "", "*", "", "_", " ")
)

// firstParagraph returns the first prose paragraph of a Markdown body.
func firstParagraph(body string) string {
	for _, block := range strings.Split(body, "\n\n") {
		block = strings.TrimSpace(block)
		if block == "" || mdHeading.MatchString(block) || strings.HasPrefix(block, "- ") || strings.HasPrefix(block, "![") {
			continue
		}
		text := mdLink.ReplaceAllString(block, "$1")
		return strings.Join(strings.Fields(mdInline.Replace(text)), " ")
	}
	return ""
}

// articleSlug returns the first non-empty slug of candidates. When none has a
// Latin letter or digit it derives "article-<hash>" from the first non-blank
// candidate, so the slug is stable for the same input.
func articleSlug(candidates ...string) string {
	seed := ""
	for _, c := range candidates {
		if slug := slugify(c); slug != "" {
			return slug
		}
		if seed == "" {
			seed = strings.TrimSpace(c)
		}
	}
	if seed == "" {
		return "article"
	}
	sum := sha256.Sum256([]byte(seed))
	return "article-" + hex.EncodeToString(sum[:])[:10]
}

// slugify lowercases s, strips accents and joins words with hyphens, cut to
// maxSlug on a hyphen.
func slugify(s string) string {
	fold := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(fold, s)
	if err != nil {
		folded = s
	}
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(folded) {
		switch {
		case r < utf8.RuneSelf && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			b.WriteRune(r)
			dash = false
		case b.Len() > 0 && !dash:
			b.WriteByte('-')
			dash = true
		}
	}
	slug := strings.Trim(b.String(), "-")
	if len(slug) > maxSlug {
		slug = slug[:maxSlug]
		if idx := strings.LastIndexByte(slug, '-'); idx > 0 {
			slug = slug[:idx]
		}
	}
	return slug
}
