package outline

import (
	"errors"
	"regexp"
	"strings"

	"articlegen/internal/domain"
)

type region int

const (
	regionNone region = iota
	regionIntro
	regionSections
	regionConclusion
	regionFAQ
)

var (
	regionHeading = regexp.MustCompile(`(?i)^(?:#{1,6}\s*)?(?:\*\*|__)?\s*(?:\d+[.)]\s*)?(introduction|intro|main sections?|main content|body|sections|outline|conclusion|closing|faqs?|frequently asked questions)\s*(?:\*\*|__)?\s*:?\s*(?:\*\*|__)?$`)
	mdHeading     = regexp.MustCompile(`^#{2,6}\s+(.+?)\s*#*$`)
	numberedLine  = regexp.MustCompile(`^\d+[.)]\s+(.+)$`)
	bulletLine    = regexp.MustCompile(`^(?:[-*•+]|\d+[.)])\s+(.+)$`)
	labelLine     = regexp.MustCompile(`^(?:[-*•+]\s+|\d+[.)]\s+)?(?:\*\*|__)?([A-Za-z][A-Za-z0-9 _/-]{0,30}?)(?:\*\*|__)?\s*:\s*(?:\*\*|__)?\s*(.+?)$`)
)

// Prose reads semi-structured text: regions introduced by heading markers
// (introduction, main sections, conclusion, FAQ) holding bullet-style
// `label: value` lines.
type Prose struct{}

func (Prose) Name() string { return "prose" }

func (Prose) Parse(raw, subject string) (domain.Outline, error) {
	var (
		out        domain.Outline
		intro      []string
		conclusion []string
		current    = -1
		reg        = regionNone
		sawRegion  bool
	)
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimRight(line, "\r")
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "```") {
			continue
		}
		indented := line[0] == ' ' || line[0] == '\t'
		if m := regionHeading.FindStringSubmatch(trimmed); m != nil {
			reg, _ = regionFor(m[1])
			sawRegion = true
			current = -1
			continue
		}
		if m := labelLine.FindStringSubmatch(trimmed); m != nil {
			if r, ok := regionFor(m[1]); ok {
				reg = r
				sawRegion = true
				current = -1
				value := cleanInline(m[2])
				switch reg {
				case regionIntro:
					intro = append(intro, value)
				case regionConclusion:
					conclusion = append(conclusion, value)
				case regionSections:
					for _, p := range splitPoints(value) {
						current = startSection(&out, p)
					}
				case regionFAQ:
					parseFAQLine(&out, value)
				}
				continue
			}
		}
		if reg != regionFAQ && reg != regionNone {
			if m := mdHeading.FindStringSubmatch(trimmed); m != nil {
				reg = regionSections
				current = startSection(&out, m[1])
				continue
			}
		}
		switch reg {
		case regionIntro:
			intro = append(intro, textValue(trimmed))
		case regionConclusion:
			conclusion = append(conclusion, textValue(trimmed))
		case regionSections:
			current = parseSectionLine(&out, current, trimmed, indented)
		case regionFAQ:
			parseFAQLine(&out, trimmed)
		}
	}
	if !sawRegion {
		return domain.Outline{}, errors.New("no labelled regions")
	}
	if len(out.Sections) == 0 {
		return domain.Outline{}, ErrNoSections
	}
	out.Introduction = joinNonEmpty(intro)
	out.Conclusion = joinNonEmpty(conclusion)
	return complete(out, subject), nil
}

func regionFor(name string) (region, bool) {
	switch normalizeLabel(name) {
	case "introduction", "intro":
		return regionIntro, true
	case "main sections", "main section", "main content", "body", "sections", "outline":
		return regionSections, true
	case "conclusion", "closing":
		return regionConclusion, true
	case "faq", "faqs", "frequently asked questions":
		return regionFAQ, true
	}
	return regionNone, false
}

func startSection(out *domain.Outline, heading string) int {
	heading = cleanInline(heading)
	if heading == "" {
		return len(out.Sections) - 1
	}
	out.Sections = append(out.Sections, domain.OutlineSection{Heading: heading})
	return len(out.Sections) - 1
}

func parseSectionLine(out *domain.Outline, current int, line string, indented bool) int {
	if m := labelLine.FindStringSubmatch(line); m != nil {
		label := normalizeLabel(m[1])
		value := cleanInline(m[2])
		switch {
		case isHeadingLabel(label):
			return startSection(out, value)
		case isPointsLabel(label):
			if current >= 0 {
				out.Sections[current].SubPoints = append(out.Sections[current].SubPoints, splitPoints(value)...)
			}
			return current
		case isWordsLabel(label):
			if current >= 0 {
				out.Sections[current].TargetWords = parseLeadingInt(value)
			}
			return current
		case indented && current >= 0:
			out.Sections[current].SubPoints = append(out.Sections[current].SubPoints, cleanInline(m[1])+": "+value)
			return current
		default:
			idx := startSection(out, m[1])
			if idx >= 0 {
				out.Sections[idx].SubPoints = append(out.Sections[idx].SubPoints, splitPoints(value)...)
			}
			return idx
		}
	}
	if m := numberedLine.FindStringSubmatch(line); m != nil && !indented {
		return startSection(out, m[1])
	}
	if m := bulletLine.FindStringSubmatch(line); m != nil {
		if current >= 0 {
			if p := cleanInline(m[1]); p != "" {
				out.Sections[current].SubPoints = append(out.Sections[current].SubPoints, p)
			}
			return current
		}
		return startSection(out, m[1])
	}
	if current < 0 {
		return startSection(out, line)
	}
	return current
}

func parseFAQLine(out *domain.Outline, line string) {
	if m := labelLine.FindStringSubmatch(line); m != nil {
		label := normalizeLabel(m[1])
		value := cleanInline(m[2])
		switch label {
		case "q", "question":
			out.FAQ = append(out.FAQ, domain.FAQItem{Question: value})
			return
		case "a", "answer":
			if n := len(out.FAQ); n > 0 {
				out.FAQ[n-1].Answer = value
			}
			return
		}
	}
	text := textValue(line)
	if strings.HasSuffix(text, "?") {
		out.FAQ = append(out.FAQ, domain.FAQItem{Question: text})
		return
	}
	if n := len(out.FAQ); n > 0 && out.FAQ[n-1].Answer == "" {
		out.FAQ[n-1].Answer = text
	}
}

func normalizeLabel(label string) string {
	label = strings.ToLower(strings.TrimSpace(label))
	label = strings.NewReplacer("_", " ", "-", " ").Replace(label)
	return strings.Join(strings.Fields(label), " ")
}

func isHeadingLabel(label string) bool {
	switch label {
	case "heading", "title", "h2", "section", "section title", "section heading":
		return true
	}
	return strings.HasPrefix(label, "section ") || strings.HasPrefix(label, "heading ")
}

func isPointsLabel(label string) bool {
	switch label {
	case "points", "sub points", "subpoints", "key points", "covers", "topics", "subtopics", "bullets", "talking points":
		return true
	}
	return false
}

func isWordsLabel(label string) bool {
	switch label {
	case "words", "word count", "target words", "target length", "length", "target word count":
		return true
	}
	return false
}

func textValue(line string) string {
	if m := labelLine.FindStringSubmatch(line); m != nil {
		return cleanInline(m[2])
	}
	if m := bulletLine.FindStringSubmatch(line); m != nil {
		return cleanInline(m[1])
	}
	return cleanInline(line)
}

func cleanInline(s string) string {
	s = strings.NewReplacer("**", "", "__", "", "`", "").Replace(s)
	s = strings.TrimSpace(s)
	s = strings.TrimLeft(s, "-*•+ ")
	s = strings.TrimRight(s, ": ")
	return strings.TrimSpace(s)
}

func joinNonEmpty(parts []string) string {
	var kept []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, " ")
}
