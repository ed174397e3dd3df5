package llm

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// StripCodeFences removes incidental markdown fencing (``` / ```json)
// that chat models wrap around JSON payloads.
func StripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimPrefix(s, "json")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// NormalizeItems
// - Coerces numeric quantity/unit_price values to strings
// - Trims item names
// - Removes unknown keys (strict additionalProperties = false friendliness)
func NormalizeItems(raw []byte) ([]byte, []string, error) {
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, nil, fmt.Errorf("sanitize: decode: %w", err)
	}

	items, ok := doc["items"].([]any)
	if !ok {
		// leave non-conforming documents to schema validation
		return raw, nil, nil
	}

	dropped := make([]string, 0, 4)
	allowed := map[string]struct{}{"name": {}, "quantity": {}, "unit_price": {}}
	for _, it := range items {
		m, ok := it.(map[string]any)
		if !ok {
			continue
		}
		for _, k := range []string{"quantity", "unit_price"} {
			switch t := m[k].(type) {
			case float64:
				if t == float64(int64(t)) {
					m[k] = strconv.FormatInt(int64(t), 10)
				} else {
					m[k] = strconv.FormatFloat(t, 'f', 2, 64)
				}
			case string:
				m[k] = strings.TrimSpace(t)
			}
		}
		if v, ok := m["name"].(string); ok {
			m["name"] = strings.TrimSpace(v)
		}
		for k := range m {
			if _, ok := allowed[k]; !ok {
				delete(m, k)
				dropped = append(dropped, k+"(unknown)")
			}
		}
	}
	for k := range doc {
		if k != "items" {
			delete(doc, k)
			dropped = append(dropped, k+"(unknown)")
		}
	}

	out, err := json.Marshal(doc)
	if err != nil {
		return nil, dropped, fmt.Errorf("sanitize: encode: %w", err)
	}
	return out, dropped, nil
}
