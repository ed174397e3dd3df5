package reconcile

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valora-app/order-invoicer/internal/catalog"
	"github.com/valora-app/order-invoicer/internal/extract"
)

type fakeCompleter struct {
	response string
	err      error
	user     string
}

func (f *fakeCompleter) Complete(_ context.Context, _ string, user string) (string, error) {
	f.user = user
	return f.response, f.err
}

func testTable() *catalog.Table {
	return catalog.NewTable([]catalog.Entry{
		{Name: "LAPTOP HP", UnitPrice: decimal.RequireFromString("800.00")},
		{Name: "IMPRESORA EPSON", UnitPrice: decimal.RequireFromString("200.00")},
		{Name: "MONITOR DELL", UnitPrice: decimal.RequireFromString("300.00")},
	})
}

func testOrder() extract.Order {
	return extract.Order{Items: []extract.Item{
		{Name: "LAPTOP HP", Quantity: "5"},
		{Name: "IMPRESORA EPSON", Quantity: "3"},
		{Name: "MONITOR DELL", Quantity: "2"},
	}}
}

func TestReconcileCompleteness(t *testing.T) {
	fake := &fakeCompleter{response: `{"items": [
		{"name": "LAPTOP HP", "quantity": "5", "unit_price": "800.00"},
		{"name": "IMPRESORA EPSON", "quantity": "3", "unit_price": "200.00"},
		{"name": "MONITOR DELL", "quantity": "2", "unit_price": "300.00"}
	]}`}

	priced, err := NewReconciler(fake, nil).Reconcile(context.Background(), testOrder(), testTable())
	require.NoError(t, err)

	require.Len(t, priced, 3)
	assert.Equal(t, PricedItem{Name: "LAPTOP HP", Quantity: "5", UnitPrice: "800.00"}, priced[0])
	assert.Equal(t, PricedItem{Name: "IMPRESORA EPSON", Quantity: "3", UnitPrice: "200.00"}, priced[1])
	assert.Equal(t, PricedItem{Name: "MONITOR DELL", Quantity: "2", UnitPrice: "300.00"}, priced[2])

	// The matcher sees the full catalog and the full order in one call.
	assert.Contains(t, fake.user, "price list")
	assert.Contains(t, fake.user, "IMPRESORA EPSON")
}

func TestReconcileMatcherDropsItem(t *testing.T) {
	// Matcher loses MONITOR DELL; the lookup fallback restores it.
	fake := &fakeCompleter{response: `{"items": [
		{"name": "LAPTOP HP", "quantity": "5", "unit_price": "800.00"},
		{"name": "IMPRESORA EPSON", "quantity": "3", "unit_price": "200.00"}
	]}`}

	priced, err := NewReconciler(fake, nil).Reconcile(context.Background(), testOrder(), testTable())
	require.NoError(t, err)

	require.Len(t, priced, 3)
	assert.Equal(t, "300.00", priced[2].UnitPrice)
}

func TestReconcileFuzzyNameMapping(t *testing.T) {
	// Matcher answers with the catalog spelling for a partial input name.
	fake := &fakeCompleter{response: `{"items": [
		{"name": "IMPRESORA EPSON", "quantity": "3", "unit_price": "200.00"}
	]}`}
	order := extract.Order{Items: []extract.Item{{Name: "IMPRESORA", Quantity: "3"}}}

	priced, err := NewReconciler(fake, nil).Reconcile(context.Background(), order, testTable())
	require.NoError(t, err)

	require.Len(t, priced, 1)
	assert.Equal(t, "IMPRESORA", priced[0].Name)
	assert.Equal(t, "200.00", priced[0].UnitPrice)
}

func TestReconcileUnmatchedGetsDefault(t *testing.T) {
	fake := &fakeCompleter{response: `{"items": []}`}
	order := extract.Order{Items: []extract.Item{{Name: "TECLADO RARO", Quantity: "1"}}}

	r := NewReconciler(fake, nil)
	priced, err := r.Reconcile(context.Background(), order, testTable())
	require.NoError(t, err)

	require.Len(t, priced, 1)
	assert.Equal(t, "1.00", priced[0].UnitPrice)
}

func TestReconcileStrictFailsOnUnmatched(t *testing.T) {
	fake := &fakeCompleter{response: `{"items": []}`}
	order := extract.Order{Items: []extract.Item{{Name: "TECLADO RARO", Quantity: "1"}}}

	r := NewReconciler(fake, nil)
	r.Strict = true
	_, err := r.Reconcile(context.Background(), order, testTable())
	assert.Error(t, err)
}

func TestReconcileDegradesToLookupOnGarbage(t *testing.T) {
	fake := &fakeCompleter{response: "I could not find any of these products, sorry."}

	priced, err := NewReconciler(fake, nil).Reconcile(context.Background(), testOrder(), testTable())
	require.NoError(t, err)

	require.Len(t, priced, 3)
	assert.Equal(t, "800.00", priced[0].UnitPrice)
	assert.Equal(t, "200.00", priced[1].UnitPrice)
	assert.Equal(t, "300.00", priced[2].UnitPrice)
}

func TestReconcileDegradesToLookupOnServiceError(t *testing.T) {
	fake := &fakeCompleter{err: errors.New("rate limited")}

	priced, err := NewReconciler(fake, nil).Reconcile(context.Background(), testOrder(), testTable())
	require.NoError(t, err)
	require.Len(t, priced, 3)
}

func TestReconcileStrictFailsOnServiceError(t *testing.T) {
	fake := &fakeCompleter{err: errors.New("rate limited")}

	r := NewReconciler(fake, nil)
	r.Strict = true
	_, err := r.Reconcile(context.Background(), testOrder(), testTable())
	assert.Error(t, err)
}

func TestReconcileEmptyOrder(t *testing.T) {
	fake := &fakeCompleter{}

	priced, err := NewReconciler(fake, nil).Reconcile(context.Background(), extract.Order{}, testTable())
	require.NoError(t, err)
	assert.Empty(t, priced)
	assert.Empty(t, fake.user, "no service call for an empty order")
}

func TestReconcileCaseInsensitiveLookup(t *testing.T) {
	fake := &fakeCompleter{response: `{"items": []}`}
	order := extract.Order{Items: []extract.Item{{Name: "laptop hp", Quantity: "1"}}}

	priced, err := NewReconciler(fake, nil).Reconcile(context.Background(), order, testTable())
	require.NoError(t, err)

	require.Len(t, priced, 1)
	assert.Equal(t, "800.00", priced[0].UnitPrice)
}
