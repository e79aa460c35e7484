package outline

import (
	"encoding/json"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"articlegen/internal/domain"
)

// wireOutline accepts the field spellings models commonly produce.
type wireOutline struct {
	Title        string        `json:"title"`
	Introduction flexText      `json:"introduction"`
	Intro        flexText      `json:"intro"`
	Sections     []wireSection `json:"sections"`
	MainSections []wireSection `json:"main_sections"`
	Conclusion   flexText      `json:"conclusion"`
	FAQ          []wireFAQ     `json:"faq"`
	FAQs         []wireFAQ     `json:"faqs"`
}

type wireSection struct {
	Heading      string   `json:"heading"`
	Title        string   `json:"title"`
	H2           string   `json:"h2"`
	SubPoints    flexList `json:"sub_points"`
	Subpoints    flexList `json:"subpoints"`
	Points       flexList `json:"points"`
	KeyPoints    flexList `json:"key_points"`
	TargetWords  flexInt  `json:"target_words"`
	TargetLength flexInt  `json:"target_length"`
	WordCount    flexInt  `json:"word_count"`
}

type wireFAQ struct {
	Question string `json:"question"`
	Q        string `json:"q"`
	Answer   string `json:"answer"`
	A        string `json:"a"`
}

func (w wireOutline) toDomain() domain.Outline {
	out := domain.Outline{
		Title:        strings.TrimSpace(w.Title),
		Introduction: coalesce(string(w.Introduction), string(w.Intro)),
		Conclusion:   strings.TrimSpace(string(w.Conclusion)),
	}
	sections := w.Sections
	if len(sections) == 0 {
		sections = w.MainSections
	}
	for _, s := range sections {
		heading := coalesce(s.Heading, s.Title, s.H2)
		if heading == "" {
			continue
		}
		points := firstNonEmptyList(s.SubPoints, s.Subpoints, s.Points, s.KeyPoints)
		out.Sections = append(out.Sections, domain.OutlineSection{
			Heading:     heading,
			SubPoints:   points,
			TargetWords: int(firstPositive(s.TargetWords, s.TargetLength, s.WordCount)),
		})
	}
	faq := w.FAQ
	if len(faq) == 0 {
		faq = w.FAQs
	}
	for _, f := range faq {
		q := coalesce(f.Question, f.Q)
		if q == "" {
			continue
		}
		out.FAQ = append(out.FAQ, domain.FAQItem{Question: q, Answer: coalesce(f.Answer, f.A)})
	}
	return out
}

// flexText decodes a string, a list of strings, or an object whose string
// values are joined in key order.
type flexText string

func (t *flexText) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*t = flexText(strings.TrimSpace(joinText(v)))
	return nil
}

func joinText(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case []any:
		parts := make([]string, 0, len(val))
		for _, item := range val {
			if s := strings.TrimSpace(joinText(item)); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, " ")
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			if s := strings.TrimSpace(joinText(val[k])); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, " ")
	default:
		return ""
	}
}

// flexList decodes a list of strings or objects, or a delimited string.
type flexList []string

func (l *flexList) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch val := v.(type) {
	case string:
		*l = splitPoints(val)
	case []any:
		var out []string
		for _, item := range val {
			if s := strings.TrimSpace(joinText(item)); s != "" {
				out = append(out, s)
			}
		}
		*l = out
	}
	return nil
}

var leadingInt = regexp.MustCompile(`\d+`)

// flexInt decodes a number or a string such as "about 300 words".
type flexInt int

func (n *flexInt) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch val := v.(type) {
	case float64:
		*n = flexInt(val)
	case string:
		*n = flexInt(parseLeadingInt(val))
	}
	return nil
}

func parseLeadingInt(s string) int {
	m := leadingInt.FindString(s)
	if m == "" {
		return 0
	}
	i, err := strconv.Atoi(m)
	if err != nil {
		return 0
	}
	return i
}

func splitPoints(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ';' || r == '\n' || r == '|' })
	if len(fields) == 1 {
		fields = strings.Split(fields[0], ",")
	}
	var out []string
	for _, f := range fields {
		f = strings.Trim(strings.TrimSpace(f), "-*• ")
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}

func coalesce(values ...string) string {
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v != "" {
			return v
		}
	}
	return ""
}

func firstNonEmptyList(lists ...flexList) []string {
	for _, l := range lists {
		if len(l) > 0 {
			return []string(l)
		}
	}
	return nil
}

func firstPositive(values ...flexInt) flexInt {
	for _, v := range values {
		if v > 0 {
			return v
		}
	}
	return 0
}
