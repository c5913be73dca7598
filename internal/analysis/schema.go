package analysis

import (
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// Extracted model output is validated against a schema before mapping.
// The schemas are deliberately lenient — no required fields — because
// absent fields are defaulted during mapping; validation only rejects
// payloads of the wrong shape (wrong top-level type, mistyped fields).

var analysisSchema = mustCompile("mistake-analysis", map[string]any{
	"type": "object",
	"properties": map[string]any{
		"error_type":           map[string]any{"type": "string"},
		"root_cause":           map[string]any{"type": "string"},
		"knowledge_gap":        map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
		"learning_suggestions": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
		"similar_examples":     map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
		"confidence_score":     map[string]any{"type": "number"},
	},
})

var questionListSchema = mustCompile("similar-questions", map[string]any{
	"type": "array",
	"items": map[string]any{
		"type": "object",
		"properties": map[string]any{
			"question_content": map[string]any{"type": "string"},
			"options":          map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
			"correct_answer":   map[string]any{"type": "string"},
			"explanation":      map[string]any{"type": "string"},
		},
		"required": []any{"question_content"},
	},
})

var conceptSchema = mustCompile("concept-explanation", map[string]any{
	"type": "object",
	"properties": map[string]any{
		"definition": map[string]any{"type": "string"},
		"formula":    map[string]any{"type": "string"},
		"key_points": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
		"example":    map[string]any{"type": "string"},
		"note":       map[string]any{"type": "string"},
	},
})

// mustCompile compiles a schema definition at package init. The definitions
// are compiled in, so a failure here is a programming error.
func mustCompile(name string, def map[string]any) *jsonschema.Schema {
	// The jsonschema library expects a parsed JSON value, not Go maps with
	// arbitrary types. Marshal then unmarshal to normalize.
	b, err := json.Marshal(def)
	if err != nil {
		panic(fmt.Sprintf("marshal schema %s: %v", name, err))
	}
	var doc any
	if err := json.Unmarshal(b, &doc); err != nil {
		panic(fmt.Sprintf("parse schema %s: %v", name, err))
	}

	c := jsonschema.NewCompiler()
	url := fmt.Sprintf("schema://%s.json", name)
	if err := c.AddResource(url, doc); err != nil {
		panic(fmt.Sprintf("add schema %s: %v", name, err))
	}
	compiled, err := c.Compile(url)
	if err != nil {
		panic(fmt.Sprintf("compile schema %s: %v", name, err))
	}
	return compiled
}

// validatePayload parses raw and validates it against the schema.
func validatePayload(schema *jsonschema.Schema, raw json.RawMessage) error {
	var parsed any
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return fmt.Errorf("parse payload: %w", err)
	}
	if err := schema.Validate(parsed); err != nil {
		return fmt.Errorf("schema validation: %w", err)
	}
	return nil
}
