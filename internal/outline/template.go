package outline

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"articlegen/internal/domain"
)

// DefaultSectionWords is the section length used when no article target
// leaves room to spread.
const DefaultSectionWords = 250

// Template returns a fixed five-section outline derived from the subject.
// It cannot fail.
type Template struct{}

func (Template) Name() string { return "template" }

func (Template) Parse(_ string, subject string) (domain.Outline, error) {
	return buildTemplate(subject), nil
}

func buildTemplate(subject string) domain.Outline {
	t := subjectTitle(subject)
	return complete(domain.Outline{
		Title: t,
		Sections: []domain.OutlineSection{
			{Heading: fmt.Sprintf("What Is %s?", t), SubPoints: []string{"Definition", "Key terms", "Who it is for"}},
			{Heading: fmt.Sprintf("Why %s Matters", t), SubPoints: []string{"Benefits", "Common use cases"}},
			{Heading: fmt.Sprintf("How to Get Started with %s", t), SubPoints: []string{"First steps", "Tools you need", "A simple example"}},
			{Heading: fmt.Sprintf("Best Practices for %s", t), SubPoints: []string{"Proven tips", "Measuring results"}},
			{Heading: fmt.Sprintf("Common %s Mistakes to Avoid", t), SubPoints: []string{"Pitfalls", "How to fix them"}},
		},
	}, subject)
}

// complete fills every empty text field with a default derived from subject.
// Section lengths stay as parsed; zero means the reply gave none.
func complete(o domain.Outline, subject string) domain.Outline {
	t := subjectTitle(subject)
	if strings.TrimSpace(o.Title) == "" {
		o.Title = t
	}
	if strings.TrimSpace(o.Introduction) == "" {
		o.Introduction = fmt.Sprintf("An introduction to %s and what readers will learn in this guide.", t)
	}
	if strings.TrimSpace(o.Conclusion) == "" {
		o.Conclusion = fmt.Sprintf("A recap of the key takeaways about %s and the next step to take.", t)
	}
	if len(o.FAQ) == 0 {
		o.FAQ = []domain.FAQItem{
			{Question: fmt.Sprintf("What is %s?", t), Answer: fmt.Sprintf("A short definition of %s.", t)},
			{Question: fmt.Sprintf("How long does it take to see results with %s?", t), Answer: "It depends on your starting point and consistency."},
			{Question: fmt.Sprintf("Is %s worth it for beginners?", t), Answer: "Yes, starting small is the easiest way to learn."},
		}
	}
	return o
}

func subjectTitle(subject string) string {
	s := strings.Join(strings.Fields(subject), " ")
	if s == "" {
		return "This Topic"
	}
	return cases.Title(language.English, cases.NoLower).String(s)
}
