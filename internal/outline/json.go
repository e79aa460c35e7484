package outline

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"articlegen/internal/domain"
)

// StrictJSON parses the whole response as an outline document that matches
// the canonical schema.
type StrictJSON struct{}

func (StrictJSON) Name() string { return "strict_json" }

func (StrictJSON) Parse(raw, subject string) (domain.Outline, error) {
	data := []byte(strings.TrimSpace(raw))
	if len(data) == 0 {
		return domain.Outline{}, errors.New("empty response")
	}
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return domain.Outline{}, fmt.Errorf("decode: %w", err)
	}
	schema, err := outlineSchema()
	if err != nil {
		return domain.Outline{}, err
	}
	if err := schema.Validate(doc); err != nil {
		return domain.Outline{}, fmt.Errorf("schema: %w", err)
	}
	var w wireOutline
	if err := json.Unmarshal(data, &w); err != nil {
		return domain.Outline{}, fmt.Errorf("decode: %w", err)
	}
	return complete(w.toDomain(), subject), nil
}

// nestedOutlineKeys are checked, in order, when the embedded document is a
// wrapper around the outline.
var nestedOutlineKeys = []string{"outline", "content_outline", "article_outline", "structure", "plan", "data", "result"}

// EmbeddedJSON parses the span between the first '{' and the last '}' and
// accepts either that object or a nested field holding the outline.
type EmbeddedJSON struct{}

func (EmbeddedJSON) Name() string { return "embedded_json" }

func (EmbeddedJSON) Parse(raw, subject string) (domain.Outline, error) {
	fragment := extractObject(raw)
	if fragment == "" {
		return domain.Outline{}, errors.New("no embedded object")
	}
	var doc map[string]any
	if err := json.Unmarshal([]byte(fragment), &doc); err != nil {
		return domain.Outline{}, fmt.Errorf("decode fragment: %w", err)
	}
	node := findOutlineNode(doc, 0)
	if node == nil {
		return domain.Outline{}, errors.New("no outline object in fragment")
	}
	data, err := json.Marshal(node)
	if err != nil {
		return domain.Outline{}, err
	}
	var w wireOutline
	if err := json.Unmarshal(data, &w); err != nil {
		return domain.Outline{}, fmt.Errorf("decode outline: %w", err)
	}
	return complete(w.toDomain(), subject), nil
}

func hasSections(m map[string]any) bool {
	for _, k := range []string{"sections", "main_sections"} {
		if list, ok := m[k].([]any); ok && len(list) > 0 {
			return true
		}
	}
	return false
}

func findOutlineNode(m map[string]any, depth int) map[string]any {
	if hasSections(m) {
		return m
	}
	if depth >= 4 {
		return nil
	}
	for _, k := range nestedOutlineKeys {
		if child, ok := m[k].(map[string]any); ok {
			if found := findOutlineNode(child, depth+1); found != nil {
				return found
			}
		}
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if child, ok := m[k].(map[string]any); ok {
			if found := findOutlineNode(child, depth+1); found != nil {
				return found
			}
		}
	}
	return nil
}

func extractObject(raw string) string {
	text := trimCodeFence(strings.TrimSpace(raw))
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return ""
	}
	return text[start : end+1]
}

func trimCodeFence(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```JSON")
	trimmed = strings.TrimPrefix(trimmed, "```")
	if idx := strings.LastIndex(trimmed, "```"); idx >= 0 {
		trimmed = trimmed[:idx]
	}
	return strings.TrimSpace(trimmed)
}
