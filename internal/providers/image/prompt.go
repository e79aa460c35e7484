package image

import (
	"fmt"
	"strings"
)

// DefaultNegativePrompt captures artefacts the model should avoid.
const DefaultNegativePrompt = "text, letters, logos, watermark, low quality, blurry, distorted, extra limbs"

// PromptInput is what an article illustration is derived from.
type PromptInput struct {
	Title      string
	Subject    string
	Section    string
	SubPoints  []string
	ImageStyle string
	Audience   string
}

// BuildArticlePrompt converts article context into a text-to-image
// instruction. An empty Section means the featured cover image.
func BuildArticlePrompt(in PromptInput) string {
	var lines []string

	subject := strings.TrimSpace(in.Subject)
	if subject == "" {
		subject = strings.TrimSpace(in.Title)
	}
	if section := strings.TrimSpace(in.Section); section != "" {
		lines = append(lines, fmt.Sprintf("Create an editorial illustration for the blog section %q of an article about %s.", section, subject))
		var points []string
		for _, p := range in.SubPoints {
			if p = strings.TrimSpace(p); p != "" {
				points = append(points, p)
			}
		}
		if len(points) > 0 {
			lines = append(lines, "The section covers: "+strings.Join(points, "; ")+".")
		}
	} else {
		lines = append(lines, fmt.Sprintf("Create a wide featured cover image for a blog article titled %q about %s.", strings.TrimSpace(in.Title), subject))
	}

	if style := strings.TrimSpace(in.ImageStyle); style != "" {
		lines = append(lines, fmt.Sprintf("Visual style: %s.", style))
	} else {
		lines = append(lines, "Visual style: clean, modern, professional, soft natural lighting.")
	}
	if audience := strings.TrimSpace(in.Audience); audience != "" {
		lines = append(lines, fmt.Sprintf("It should appeal to %s.", audience))
	}
	lines = append(lines, "Avoid: "+DefaultNegativePrompt+".")
	return strings.Join(lines, " ")
}

// AltText builds a short accessible description.
func AltText(title, section string) string {
	title = strings.TrimSpace(title)
	section = strings.TrimSpace(section)
	switch {
	case section != "" && title != "":
		return fmt.Sprintf("Illustration for %s in %s", section, title)
	case section != "":
		return "Illustration for " + section
	case title != "":
		return "Featured image for " + title
	default:
		return "Article illustration"
	}
}
