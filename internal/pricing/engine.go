package pricing

import (
	"log/slog"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/valora-app/order-invoicer/internal/reconcile"
)

// TaxRate is the fixed IVA rate applied to every invoice.
var TaxRate = decimal.NewFromFloat(0.16)

// Fallbacks for malformed quantity/cost fields. Garbage input degrades to
// these, it never fails the batch.
const fallbackQuantity = 1

var fallbackCost = decimal.RequireFromString("1.00")

// Row is one computed invoice line. Values are exact decimals; currency
// formatting happens at the presentation boundary only.
type Row struct {
	Name      string
	Quantity  int
	UnitPrice decimal.Decimal
	LineTotal decimal.Decimal
}

// Totals holds the invoice summary amounts.
type Totals struct {
	Subtotal   decimal.Decimal
	TaxRate    decimal.Decimal
	Tax        decimal.Decimal
	GrandTotal decimal.Decimal
}

// Engine normalizes priced items to numeric form and computes totals.
// Price is a pure function of its input.
type Engine struct {
	logger *slog.Logger
}

func NewEngine(logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{logger: logger}
}

// Price computes per-line totals and the invoice summary. Each line total
// is quantity x unit cost rounded to 2 places; the subtotal is the exact
// decimal sum of the line totals; tax is subtotal x TaxRate.
func (e *Engine) Price(items []reconcile.PricedItem) ([]Row, Totals) {
	rows := make([]Row, 0, len(items))
	subtotal := decimal.Zero

	for _, it := range items {
		qty, ok := parseQuantity(it.Quantity)
		if !ok {
			e.logger.Warn("pricing.quantity_coerced",
				"name", it.Name, "raw", it.Quantity, "fallback", fallbackQuantity)
			qty = fallbackQuantity
		}
		cost, ok := parseCost(it.UnitPrice)
		if !ok {
			e.logger.Warn("pricing.cost_coerced",
				"name", it.Name, "raw", it.UnitPrice, "fallback", fallbackCost)
			cost = fallbackCost
		}

		lineTotal := cost.Mul(decimal.NewFromInt(int64(qty))).Round(2)
		rows = append(rows, Row{
			Name:      it.Name,
			Quantity:  qty,
			UnitPrice: cost,
			LineTotal: lineTotal,
		})
		subtotal = subtotal.Add(lineTotal)
	}

	tax := subtotal.Mul(TaxRate)
	return rows, Totals{
		Subtotal:   subtotal,
		TaxRate:    TaxRate,
		Tax:        tax,
		GrandTotal: subtotal.Add(tax),
	}
}

func parseQuantity(raw string) (int, bool) {
	qty, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || qty <= 0 {
		return 0, false
	}
	return qty, true
}

func parseCost(raw string) (decimal.Decimal, bool) {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Decimal{}, false
	}
	cost, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return cost, true
}
