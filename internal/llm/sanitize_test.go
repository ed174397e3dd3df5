package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStripCodeFences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bare json", `{"items": []}`, `{"items": []}`},
		{"plain fence", "```\n{\"items\": []}\n```", `{"items": []}`},
		{"json fence", "```json\n{\"items\": []}\n```", `{"items": []}`},
		{"fence no newline", "```json{\"items\": []}```", `{"items": []}`},
		{"surrounding whitespace", "  \n```json\n{\"items\": []}\n```  ", `{"items": []}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StripCodeFences(tt.in))
		})
	}
}

func TestNormalizeItemsCoercesNumbers(t *testing.T) {
	out, dropped, err := NormalizeItems([]byte(`{"items": [{"name": " LAPTOP HP ", "quantity": 5, "unit_price": 800.5}]}`))
	require.NoError(t, err)

	assert.Empty(t, dropped)
	assert.JSONEq(t, `{"items": [{"name": "LAPTOP HP", "quantity": "5", "unit_price": "800.50"}]}`, string(out))
}

func TestNormalizeItemsDropsUnknownKeys(t *testing.T) {
	out, dropped, err := NormalizeItems([]byte(`{"items": [{"name": "A", "quantity": "1", "note": "x"}], "comment": "hi"}`))
	require.NoError(t, err)

	assert.Len(t, dropped, 2)
	assert.JSONEq(t, `{"items": [{"name": "A", "quantity": "1"}]}`, string(out))
}

func TestNormalizeItemsRejectsNonJSON(t *testing.T) {
	_, _, err := NormalizeItems([]byte("not json at all"))
	assert.Error(t, err)
}

func TestValidateAgainstSchema(t *testing.T) {
	schema := BuildItemsSchema(false)

	assert.NoError(t, ValidateAgainstSchema(schema, []byte(`{"items": [{"name": "A", "quantity": "1"}]}`)))
	assert.NoError(t, ValidateAgainstSchema(schema, []byte(`{"items": []}`)))
	assert.Error(t, ValidateAgainstSchema(schema, []byte(`{"items": [{"name": "", "quantity": "1"}]}`)), "empty name")
	assert.Error(t, ValidateAgainstSchema(schema, []byte(`{"items": [{"quantity": "1"}]}`)), "missing name")
	assert.Error(t, ValidateAgainstSchema(schema, []byte(`{"other": []}`)), "wrong top-level key")
	assert.Error(t, ValidateAgainstSchema(schema, []byte(`[]`)), "not an object")
}

func TestValidateWithPriceSchema(t *testing.T) {
	schema := BuildItemsSchema(true)

	assert.NoError(t, ValidateAgainstSchema(schema,
		[]byte(`{"items": [{"name": "A", "quantity": "1", "unit_price": "2.00"}]}`)))
	// unit_price stays optional; reconciliation fills gaps afterwards
	assert.NoError(t, ValidateAgainstSchema(schema,
		[]byte(`{"items": [{"name": "A", "quantity": "1"}]}`)))
	// but the extraction schema must reject it
	assert.Error(t, ValidateAgainstSchema(BuildItemsSchema(false),
		[]byte(`{"items": [{"name": "A", "quantity": "1", "unit_price": "2.00"}]}`)))
}
