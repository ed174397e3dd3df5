package llm

// BuildItemsSchema returns the JSON-Schema (draft 2020-12 subset) for a
// service response: exactly one top-level "items" key holding the item
// list. Quantity may arrive as a string or a number; normalization to
// string happens in NormalizeItems. When withPrice is set the schema also
// admits the unit_price field attached by reconciliation.
func BuildItemsSchema(withPrice bool) map[string]any {
	itemProps := map[string]any{
		"name":     map[string]any{"type": "string", "minLength": 1},
		"quantity": map[string]any{"type": []string{"string", "number"}},
	}
	required := []string{"name", "quantity"}
	if withPrice {
		itemProps["unit_price"] = map[string]any{"type": []string{"string", "number"}}
	}

	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"required":             []string{"items"},
		"properties": map[string]any{
			"items": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type":                 "object",
					"additionalProperties": false,
					"required":             required,
					"properties":           itemProps,
				},
			},
		},
	}
}
