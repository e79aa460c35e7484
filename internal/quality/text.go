package quality

import (
	"regexp"
	"strings"
)

var (
	wordPattern     = regexp.MustCompile(`[\p{L}\p{N}]+(?:['’-][\p{L}\p{N}]+)*`)
	imagePattern    = regexp.MustCompile(`!\[[^\]]*\]\([^)]*\)`)
	linkTextPattern = regexp.MustCompile(`\[([^\]]*)\]\([^)]*\)`)
	sentenceEnd     = regexp.MustCompile(`[.!?]+(?:\s|$)`)
)

// plainText strips Markdown syntax that should not count as words.
func plainText(body string) string {
	body = imagePattern.ReplaceAllString(body, " ")
	body = linkTextPattern.ReplaceAllString(body, "$1")
	return markdownNoise.ReplaceAllString(body, " ")
}

// Words splits Markdown into words.
func Words(body string) []string {
	return wordPattern.FindAllString(plainText(body), -1)
}

// CountWords counts the words of a Markdown body.
func CountWords(body string) int {
	return len(Words(body))
}

// FleschReadingEase computes the Flesch reading ease of body. ok is false
// when there is no text to score.
func FleschReadingEase(body string) (score float64, ok bool) {
	text := plainText(stripHeadings(body))
	words := wordPattern.FindAllString(text, -1)
	if len(words) == 0 {
		return 0, false
	}
	sentences := len(sentenceEnd.FindAllStringIndex(text, -1))
	if sentences == 0 {
		sentences = 1
	}
	syllables := 0
	for _, w := range words {
		syllables += countSyllables(w)
	}
	wps := float64(len(words)) / float64(sentences)
	spw := float64(syllables) / float64(len(words))
	return 206.835 - 1.015*wps - 84.6*spw, true
}

func stripHeadings(body string) string {
	lines := strings.Split(body, "\n")
	kept := lines[:0]
	for _, l := range lines {
		if strings.HasPrefix(strings.TrimSpace(l), "#") {
			continue
		}
		kept = append(kept, l)
	}
	return strings.Join(kept, "\n")
}

func countSyllables(word string) int {
	w := strings.ToLower(word)
	count := 0
	prevVowel := false
	for _, r := range w {
		v := isVowel(r)
		if v && !prevVowel {
			count++
		}
		prevVowel = v
	}
	if strings.HasSuffix(w, "e") && !strings.HasSuffix(w, "le") && count > 1 {
		count--
	}
	if count == 0 {
		count = 1
	}
	return count
}

func isVowel(r rune) bool {
	switch r {
	case 'a', 'e', 'i', 'o', 'u', 'y':
		return true
	}
	return false
}
