package extract

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valora-app/order-invoicer/internal/common"
)

type fakeCompleter struct {
	response string
	err      error
	system   string
	user     string
}

func (f *fakeCompleter) Complete(_ context.Context, system, user string) (string, error) {
	f.system = system
	f.user = user
	return f.response, f.err
}

func TestExtractValidResponse(t *testing.T) {
	fake := &fakeCompleter{response: `{"items": [
		{"name": "LAPTOP HP", "quantity": "5"},
		{"name": "IMPRESORA EPSON", "quantity": "3"},
		{"name": "MONITOR DELL", "quantity": "2"}
	]}`}
	order, err := NewExtractor(fake, nil).Extract(context.Background(), "quiero 5 laptops hp, 3 impresoras epson y 2 monitores dell")
	require.NoError(t, err)

	require.Len(t, order.Items, 3)
	assert.Equal(t, Item{Name: "LAPTOP HP", Quantity: "5"}, order.Items[0])
	assert.Equal(t, Item{Name: "IMPRESORA EPSON", Quantity: "3"}, order.Items[1])
	assert.Equal(t, Item{Name: "MONITOR DELL", Quantity: "2"}, order.Items[2])
	assert.Contains(t, fake.user, "laptops hp")
}

func TestExtractFencedResponse(t *testing.T) {
	fake := &fakeCompleter{response: "```json\n{\"items\": [{\"name\": \"LAPTOP HP\", \"quantity\": \"5\"}]}\n```"}

	order, err := NewExtractor(fake, nil).Extract(context.Background(), "order text")
	require.NoError(t, err)
	require.Len(t, order.Items, 1)
	assert.Equal(t, "LAPTOP HP", order.Items[0].Name)
}

func TestExtractNumericQuantityCoerced(t *testing.T) {
	fake := &fakeCompleter{response: `{"items": [{"name": "LAPTOP HP", "quantity": 5}]}`}

	order, err := NewExtractor(fake, nil).Extract(context.Background(), "order text")
	require.NoError(t, err)
	require.Len(t, order.Items, 1)
	assert.Equal(t, "5", order.Items[0].Quantity)
}

func TestExtractProseRejected(t *testing.T) {
	fake := &fakeCompleter{response: "Sure! The customer wants five HP laptops and three Epson printers."}

	_, err := NewExtractor(fake, nil).Extract(context.Background(), "order text")
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrExtractionFormat)
}

func TestExtractWrongTopLevelKeyRejected(t *testing.T) {
	fake := &fakeCompleter{response: `{"products": [{"name": "LAPTOP HP", "quantity": "5"}]}`}

	_, err := NewExtractor(fake, nil).Extract(context.Background(), "order text")
	assert.ErrorIs(t, err, common.ErrExtractionFormat)
}

func TestExtractMissingFieldRejected(t *testing.T) {
	fake := &fakeCompleter{response: `{"items": [{"name": "LAPTOP HP"}]}`}

	_, err := NewExtractor(fake, nil).Extract(context.Background(), "order text")
	assert.ErrorIs(t, err, common.ErrExtractionFormat)
}

func TestExtractEmptyOrderIsValid(t *testing.T) {
	fake := &fakeCompleter{response: `{"items": []}`}

	order, err := NewExtractor(fake, nil).Extract(context.Background(), "no products here")
	require.NoError(t, err)
	assert.Empty(t, order.Items)
}

func TestExtractCompleterError(t *testing.T) {
	fake := &fakeCompleter{err: errors.New("service unavailable")}

	_, err := NewExtractor(fake, nil).Extract(context.Background(), "order text")
	require.Error(t, err)
	assert.NotErrorIs(t, err, common.ErrExtractionFormat)
}
