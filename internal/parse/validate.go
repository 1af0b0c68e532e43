package parse

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

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

// Decode sanitizes, validates and decodes a raw collaborator payload.
func Decode(raw []byte) (ParsedReceipt, error) {
	clean, _, err := NormalizeAndSanitizeJSON(raw, nil)
	if err != nil {
		return ParsedReceipt{}, err
	}
	if err := ValidateJSONAgainstSchema(BuildParsedReceiptSchema(), clean); err != nil {
		return ParsedReceipt{}, err
	}
	var pr ParsedReceipt
	if err := json.Unmarshal(clean, &pr); err != nil {
		return ParsedReceipt{}, fmt.Errorf("decode parsed receipt: %w", err)
	}
	return pr, nil
}
