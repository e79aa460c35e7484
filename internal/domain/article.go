package domain

import "strings"

// Research is the output of the research stage.
type Research struct {
	Summary         string   `json:"summary"`
	KeyPoints       []string `json:"key_points"`
	Questions       []string `json:"questions,omitempty"`
	RelatedKeywords []string `json:"related_keywords,omitempty"`
	SearchIntent    string   `json:"search_intent,omitempty"`
	Sources         []string `json:"sources,omitempty"`
}

// Outline is the structured plan of an article.
type Outline struct {
	Title        string           `json:"title"`
	Introduction string           `json:"introduction"`
	Sections     []OutlineSection `json:"sections"`
	Conclusion   string           `json:"conclusion"`
	FAQ          []FAQItem        `json:"faq,omitempty"`
}

// OutlineSection is one main section of an outline.
type OutlineSection struct {
	Heading     string   `json:"heading"`
	SubPoints   []string `json:"sub_points,omitempty"`
	TargetWords int      `json:"target_words,omitempty"`
}

// FAQItem is a question and its short answer.
type FAQItem struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Valid reports whether the outline carries at least one usable section.
func (o Outline) Valid() bool {
	if len(o.Sections) == 0 {
		return false
	}
	for _, s := range o.Sections {
		if strings.TrimSpace(s.Heading) == "" {
			return false
		}
	}
	return true
}

// Strategy is the output of the strategy stage.
type Strategy struct {
	Title             string   `json:"title"`
	PrimaryKeyword    string   `json:"primary_keyword"`
	SecondaryKeywords []string `json:"secondary_keywords,omitempty"`
	SearchIntent      string   `json:"search_intent,omitempty"`
	TargetWordCount   int      `json:"target_word_count"`
	Outline           Outline  `json:"outline"`
	// OutlineStrategy names the parser strategy that produced Outline.
	OutlineStrategy string `json:"outline_strategy"`
}

// Article is the output of the writing stage. Body is Markdown.
type Article struct {
	Title     string `json:"title"`
	Body      string `json:"body"`
	WordCount int    `json:"word_count"`
}

// Image is a generated and stored image.
type Image struct {
	URL        string `json:"url"`
	StorageKey string `json:"storage_key"`
	AltText    string `json:"alt_text"`
	Prompt     string `json:"prompt,omitempty"`
	Format     string `json:"format,omitempty"`
	Width      int    `json:"width,omitempty"`
	Height     int    `json:"height,omitempty"`
}

// SectionImage binds an optional image to the outline section it illustrates.
type SectionImage struct {
	SectionIndex int   `json:"section_index"`
	Image        Image `json:"image"`
}

// ImageSet is the output of the image stage. Featured is always present when
// the stage succeeded; Sections may hold fewer entries than were attempted.
type ImageSet struct {
	Featured       Image          `json:"featured"`
	Sections       []SectionImage `json:"sections,omitempty"`
	Attempted      int            `json:"attempted"`
	FailedSections []int          `json:"failed_sections,omitempty"`
}

// Degraded reports whether at least one optional image was dropped.
func (s ImageSet) Degraded() bool {
	return len(s.FailedSections) > 0
}

// Meta is the output of the meta stage.
type Meta struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Slug        string    `json:"slug"`
	Keywords    []string  `json:"keywords,omitempty"`
	OpenGraph   OpenGraph `json:"open_graph"`
}

// OpenGraph holds social sharing metadata.
type OpenGraph struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Image       string `json:"image,omitempty"`
	Type        string `json:"type"`
}
