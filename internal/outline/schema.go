package outline

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const outlineSchemaJSON = `{
  "type": "object",
  "required": ["sections"],
  "properties": {
    "title": {"type": "string"},
    "introduction": {"type": ["string", "object"]},
    "conclusion": {"type": ["string", "object"]},
    "sections": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["heading"],
        "properties": {
          "heading": {"type": "string", "minLength": 1},
          "sub_points": {"type": "array", "items": {"type": "string"}},
          "target_words": {"type": "integer", "minimum": 0}
        }
      }
    },
    "faq": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["question"],
        "properties": {
          "question": {"type": "string"},
          "answer": {"type": "string"}
        }
      }
    }
  }
}`

var outlineSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("outline.json", bytes.NewReader([]byte(outlineSchemaJSON))); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("outline.json")
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return schema, nil
})
