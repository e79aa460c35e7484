package stages

import (
	"strings"
	"unicode/utf8"
)

func cleanList(items []string) []string {
	var out []string
	for _, it := range items {
		if it = strings.TrimSpace(it); it != "" {
			out = append(out, it)
		}
	}
	return out
}

// dedupeFold drops blanks and case-insensitive duplicates, keeping the first
// spelling.
func dedupeFold(items ...[]string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, list := range items {
		for _, it := range list {
			it = strings.TrimSpace(it)
			if it == "" {
				continue
			}
			key := strings.ToLower(it)
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, it)
		}
	}
	return out
}

// bulletLines returns the text of Markdown list items in s.
func bulletLines(s string) []string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		for _, prefix := range []string{"- ", "* ", "• "} {
			if strings.HasPrefix(line, prefix) {
				if item := strings.TrimSpace(strings.TrimPrefix(line, prefix)); item != "" {
					out = append(out, item)
				}
				break
			}
		}
	}
	return out
}

// truncateWords cuts s to at most max runes on a word boundary.
func truncateWords(s string, max int) string {
	s = strings.Join(strings.Fields(s), " ")
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	cut := string(runes[:max])
	if idx := strings.LastIndexByte(cut, ' '); idx > max/2 {
		cut = cut[:idx]
	}
	return strings.TrimRight(cut, " ,;:-")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
