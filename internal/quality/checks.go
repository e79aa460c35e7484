package quality

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"articlegen/internal/staticcfg"
)

// Check names.
const (
	CheckContentLength    = "content_length"
	CheckKeywordDensity   = "keyword_density"
	CheckHeadingStructure = "heading_structure"
	CheckSEOMetadata      = "seo_metadata"
	CheckInternalLinks    = "internal_links"
	CheckReadability      = "readability"
	CheckImages           = "images"
	CheckFormatting       = "formatting"
)

// DefaultCheckers returns the standard check set with its weights.
func DefaultCheckers() []Checker {
	return []Checker{
		{Name: CheckContentLength, Weight: 20, Eval: contentLength},
		{Name: CheckKeywordDensity, Weight: 15, Eval: keywordDensity},
		{Name: CheckHeadingStructure, Weight: 15, Eval: headingStructure},
		{Name: CheckSEOMetadata, Weight: 15, Eval: seoMetadata},
		{Name: CheckInternalLinks, Weight: 10, Eval: internalLinks},
		{Name: CheckReadability, Weight: 10, Eval: readability},
		{Name: CheckImages, Weight: 10, Eval: images},
		{Name: CheckFormatting, Weight: 5, Eval: formatting},
	}
}

var (
	headingLine   = regexp.MustCompile(`(?m)^(#{1,6})\s+\S`)
	linkPattern   = regexp.MustCompile(`(!?)\[[^\]]*\]\(([^)\s]+)[^)]*\)`)
	listLine      = regexp.MustCompile(`(?m)^\s*(?:[-*+]|\d+[.)])\s+\S`)
	emphasis      = regexp.MustCompile(`\*\*[^*\n]+\*\*|__[^_\n]+__`)
	tableLine     = regexp.MustCompile(`(?m)^\s*\|.*\|\s*$`)
	quoteLine     = regexp.MustCompile(`(?m)^\s*>\s*\S`)
	slugPattern   = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)
	markdownNoise = regexp.MustCompile("[#*_`>|]")
)

func contentLength(in Input) Outcome {
	words := CountWords(in.Article.Body)
	lo, hi := in.Workflow.MinWordCount, in.Workflow.MaxWordCount
	detail := fmt.Sprintf("%d words (bounds %d-%d)", words, lo, hi)
	switch {
	case words == 0:
		return Outcome{Detail: "empty article"}
	case words < lo:
		return Outcome{Score: 100 * float64(words) / float64(lo), Detail: detail}
	case words > hi:
		return Outcome{Score: 100 * float64(hi) / float64(words), Detail: detail}
	default:
		return Outcome{Score: 100, Passed: true, Detail: detail}
	}
}

// KeywordDensity returns the share of words, in percent, taken by keyword.
func KeywordDensity(body, keyword string) float64 {
	kw := Words(keyword)
	words := Words(body)
	if len(kw) == 0 || len(words) == 0 {
		return 0
	}
	hits := 0
	for i := 0; i+len(kw) <= len(words); i++ {
		match := true
		for j := range kw {
			if !strings.EqualFold(words[i+j], kw[j]) {
				match = false
				break
			}
		}
		if match {
			hits++
			i += len(kw) - 1
		}
	}
	return 100 * float64(hits*len(kw)) / float64(len(words))
}

func keywordDensity(in Input) Outcome {
	if strings.TrimSpace(in.PrimaryKeyword) == "" {
		return Outcome{Detail: "no primary keyword"}
	}
	d := KeywordDensity(in.Article.Body, in.PrimaryKeyword)
	lo, hi := in.Workflow.KeywordDensityMin, in.Workflow.KeywordDensityMax
	detail := fmt.Sprintf("density %.2f%% (bounds %.2f-%.2f)", d, lo, hi)
	switch {
	case d == 0:
		return Outcome{Detail: detail}
	case d < lo:
		return Outcome{Score: 100 * d / lo, Detail: detail}
	case d > hi:
		return Outcome{Score: 100 * hi / d, Detail: detail}
	default:
		return Outcome{Score: 100, Passed: true, Detail: detail}
	}
}

func headingStructure(in Input) Outcome {
	levels := headingLevels(in.Article.Body)
	var h1, h2 int
	skips := 0
	prev := 0
	for _, lvl := range levels {
		switch lvl {
		case 1:
			h1++
		case 2:
			h2++
		}
		if prev > 0 && lvl > prev+1 {
			skips++
		}
		prev = lvl
	}
	minH2 := in.Workflow.MinHeadings
	score := 60 * min(float64(h2)/float64(max(minH2, 1)), 1)
	if h1 <= 1 {
		score += 20
	}
	if skips == 0 && len(levels) > 0 {
		score += 20
	}
	return Outcome{
		Score:  score,
		Passed: h2 >= minH2 && h1 <= 1 && skips == 0,
		Detail: fmt.Sprintf("h1=%d h2=%d level_skips=%d", h1, h2, skips),
	}
}

func headingLevels(body string) []int {
	var levels []int
	for _, m := range headingLine.FindAllStringSubmatch(body, -1) {
		levels = append(levels, len(m[1]))
	}
	return levels
}

func seoMetadata(in Input) Outcome {
	m := in.Meta
	kw := strings.ToLower(strings.TrimSpace(in.PrimaryKeyword))
	var score float64
	var missing []string
	check := func(ok bool, name string) {
		if ok {
			score += 20
			return
		}
		missing = append(missing, name)
	}
	titleLen := len([]rune(strings.TrimSpace(m.Title)))
	descLen := len([]rune(strings.TrimSpace(m.Description)))
	check(titleLen >= 30 && titleLen <= 60, "title_length")
	check(descLen >= 120 && descLen <= 160, "description_length")
	check(kw != "" && strings.Contains(strings.ToLower(m.Title), kw), "title_keyword")
	check(kw != "" && strings.Contains(strings.ToLower(m.Description), kw), "description_keyword")
	check(slugPattern.MatchString(m.Slug) && len(m.Slug) <= 75, "slug")
	detail := "all metadata constraints met"
	if len(missing) > 0 {
		detail = "failed: " + strings.Join(missing, ", ")
	}
	return Outcome{Score: score, Passed: len(missing) == 0, Detail: detail}
}

func internalLinks(in Input) Outcome {
	want := in.Workflow.MinInternalLinks
	count := CountInternalLinks(in.Article.Body, in.SiteURL, in.Recent)
	detail := fmt.Sprintf("%d internal links (min %d)", count, want)
	if want <= 0 {
		return Outcome{Score: 100, Passed: true, Detail: detail}
	}
	return Outcome{
		Score:  100 * min(float64(count)/float64(want), 1),
		Passed: count >= want,
		Detail: detail,
	}
}

// CountInternalLinks counts links to the own site: relative links, links to
// the site host and links to known recent articles. Images are ignored.
func CountInternalLinks(body, siteURL string, recent []staticcfg.ArticleSummary) int {
	siteHost := hostOf(siteURL)
	known := make(map[string]struct{}, len(recent))
	for _, r := range recent {
		if r.URL != "" {
			known[strings.TrimRight(r.URL, "/")] = struct{}{}
		}
	}
	count := 0
	for _, m := range linkPattern.FindAllStringSubmatch(body, -1) {
		if m[1] == "!" {
			continue
		}
		target := m[2]
		switch {
		case strings.HasPrefix(target, "/") && !strings.HasPrefix(target, "//"):
			count++
		case siteHost != "" && hostOf(target) == siteHost:
			count++
		default:
			if _, ok := known[strings.TrimRight(target, "/")]; ok {
				count++
			}
		}
	}
	return count
}

func hostOf(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}

func readability(in Input) Outcome {
	score, ok := FleschReadingEase(in.Article.Body)
	if !ok {
		return Outcome{Detail: "no readable text"}
	}
	lo, hi := in.Workflow.ReadabilityMin, in.Workflow.ReadabilityMax
	detail := fmt.Sprintf("flesch %.1f (band %.0f-%.0f)", score, lo, hi)
	var distance float64
	switch {
	case score < lo:
		distance = lo - score
	case score > hi:
		distance = score - hi
	default:
		return Outcome{Score: 100, Passed: true, Detail: detail}
	}
	return Outcome{Score: 100 - 2*distance, Detail: detail}
}

func images(in Input) Outcome {
	set := in.Images
	var score float64
	featured := strings.TrimSpace(set.Featured.URL) != ""
	featuredAlt := strings.TrimSpace(set.Featured.AltText) != ""
	if featured {
		score += 50
	}
	if featured && featuredAlt {
		score += 30
	}
	missingAlt := 0
	for _, s := range set.Sections {
		if strings.TrimSpace(s.Image.AltText) == "" {
			missingAlt++
		}
	}
	if missingAlt == 0 {
		score += 20
	}
	return Outcome{
		Score:  score,
		Passed: featured && featuredAlt && missingAlt == 0,
		Detail: fmt.Sprintf("featured=%t section_images=%d missing_alt=%d", featured, len(set.Sections), missingAlt),
	}
}

func formatting(in Input) Outcome {
	body := in.Article.Body
	var score float64
	var found []string
	if listLine.MatchString(body) {
		score += 25
		found = append(found, "lists")
	}
	if emphasis.MatchString(body) {
		score += 25
		found = append(found, "emphasis")
	}
	if tableLine.MatchString(body) || quoteLine.MatchString(body) || strings.Contains(body, "```") {
		score += 25
		found = append(found, "rich_blocks")
	}
	if paragraphs := paragraphWordCounts(body); len(paragraphs) > 0 {
		total := 0
		for _, n := range paragraphs {
			total += n
		}
		if total/len(paragraphs) <= 120 {
			score += 25
			found = append(found, "short_paragraphs")
		}
	}
	return Outcome{Score: score, Passed: score >= 50, Detail: "found: " + strings.Join(found, ", ")}
}

func paragraphWordCounts(body string) []int {
	var counts []int
	for _, block := range strings.Split(body, "\n\n") {
		block = strings.TrimSpace(block)
		if block == "" || strings.HasPrefix(block, "#") {
			continue
		}
		counts = append(counts, CountWords(block))
	}
	return counts
}
