package llm

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// BuildPairJSONSchema returns the JSON Schema (draft 2020-12 subset) for the
// capability's response. Only the shape is constrained: numeric fields stay
// untyped because malformed numbers are coerced while decoding, not rejected.
func BuildPairJSONSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"invoice_data": recordSchema("invoice_no"),
			"po_data":      recordSchema("po_no"),
		},
		"required": []string{"invoice_data", "po_data"},
	}
}

func recordSchema(numberKey string) map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			numberKey: scalarProp(),
			"date":    scalarProp(),
			"vendor":  scalarProp(),
			"items":   map[string]any{"type": "array"},
		},
	}
}

// scalarProp accepts any JSON scalar; models sometimes emit numeric ids unquoted.
func scalarProp() map[string]any {
	return map[string]any{"type": []string{"string", "number", "null"}}
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
