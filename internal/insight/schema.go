package insight

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// BuildInsightJSONSchema returns the response contract as a JSON-Schema
// (draft 2020-12 subset) generic map. oneOf enforces that a response is
// either the five-facet analysis or the single-field error object, never a
// mix of both shapes.
func BuildInsightJSONSchema() map[string]any {
	level := map[string]any{"type": "string", "enum": []string{SeverityLow, SeverityMedium, SeverityHigh}}

	facets := map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"anomalies_analysis": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type":                 "object",
					"additionalProperties": false,
					"properties": map[string]any{
						"anomaly":          map[string]any{"type": "string"},
						"potential_causes": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
						"severity":         level,
					},
					"required": []string{"anomaly"},
				},
			},
			"personalized_suggestions": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type":                 "object",
					"additionalProperties": false,
					"properties": map[string]any{
						"suggestion": map[string]any{"type": "string"},
					},
					"required": []string{"suggestion"},
				},
			},
			"critical_findings": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type":                 "object",
					"additionalProperties": false,
					"properties": map[string]any{
						"finding":         map[string]any{"type": "string"},
						"urgency":         level,
						"action_required": map[string]any{"type": "string"},
					},
					"required": []string{"finding"},
				},
			},
			"follow_up_recommendations": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type":                 "object",
					"additionalProperties": false,
					"properties": map[string]any{
						"test_or_procedure": map[string]any{"type": "string"},
						"reason":            map[string]any{"type": "string"},
					},
					"required": []string{"test_or_procedure"},
				},
			},
			"summary": map[string]any{
				"type":                 "object",
				"additionalProperties": false,
				"properties": map[string]any{
					"key_findings": map[string]any{"type": "string"},
				},
			},
		},
	}

	errorFacet := map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"error": map[string]any{"type": "string", "minLength": 1},
		},
		"required": []string{"error"},
	}

	return map[string]any{
		"oneOf": []any{facets, errorFacet},
	}
}

// ValidateJSONAgainstSchema validates "data" against "schemaMap".
func ValidateJSONAgainstSchema(schemaMap map[string]any, data []byte) error {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", bytes.NewReader(b)); err != nil {
		return fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("schema.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("json does not match schema: %w", err)
	}
	return nil
}
