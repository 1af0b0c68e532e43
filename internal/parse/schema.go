package parse

// BuildParsedReceiptSchema returns a JSON-Schema (draft 2020-12 subset) as
// a generic map. It constrains the sanitized OCR/LLM payload before we
// fingerprint it; everything is optional except the line designation.
func BuildParsedReceiptSchema() map[string]any {
	lineProps := map[string]any{
		"designation": map[string]any{"type": "string", "minLength": 1},
		"quantity":    decimalProp(),
		"unit_price":  decimalProp(),
		"total_price": decimalProp(),
	}

	props := map[string]any{
		"store_name":    map[string]any{"type": "string", "minLength": 1},
		"purchase_date": map[string]any{"type": "string", "pattern": `^\d{4}-\d{2}-\d{2}$`},
		"total_amount":  decimalProp(),
		"line_items": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type":                 "object",
				"additionalProperties": false,
				"properties":           lineProps,
				"required":             []string{"designation"},
			},
		},
	}

	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties":           props,
	}
}

func decimalProp() map[string]any {
	return map[string]any{
		"type":    "string",
		"pattern": `^-?\d+(\.\d+)?$`,
	}
}
