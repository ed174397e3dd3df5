package reconcile

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/valora-app/order-invoicer/internal/catalog"
	"github.com/valora-app/order-invoicer/internal/common"
	"github.com/valora-app/order-invoicer/internal/extract"
	"github.com/valora-app/order-invoicer/internal/llm"
)

// PricedItem is an extracted item joined with a resolved unit price. All
// fields remain strings at this stage; numeric coercion belongs to the
// pricing engine.
type PricedItem struct {
	Name      string `json:"name"`
	Quantity  string `json:"quantity"`
	UnitPrice string `json:"unit_price"`
}

const systemPrompt = "You will be given a product price list and a purchase order. " +
	"Find each ordered product in the price list; names may be similar, incomplete or misspelled. " +
	"Return ONLY a JSON object, with no additional comments, in exactly this format: " +
	`{"items": [{"name": "product name", "quantity": "product quantity", "unit_price": "unit price"}]}`

// Reconciler matches extracted items against the catalog. The fuzzy join
// itself is delegated to the completer, which may use semantic judgment;
// the reconciler owns the request framing and the defensive
// post-processing that guarantees no item is ever dropped.
type Reconciler struct {
	completer llm.Completer
	logger    *slog.Logger

	// DefaultUnitPrice is attached to items no matcher could resolve.
	DefaultUnitPrice string
	// Strict fails the order on an unresolved item instead of defaulting.
	Strict bool
}

func NewReconciler(completer llm.Completer, logger *slog.Logger) *Reconciler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{
		completer:        completer,
		logger:           logger,
		DefaultUnitPrice: "1.00",
	}
}

// Reconcile attaches a unit price to every item of the order, preserving
// extraction order. The matcher sees the full catalog and the full item
// list in one call; anything it loses or leaves unpriced falls back to an
// exact catalog lookup and then to the default price. A malformed matcher
// response degrades to lookup-only reconciliation unless Strict is set.
func (r *Reconciler) Reconcile(ctx context.Context, order extract.Order, table *catalog.Table) ([]PricedItem, error) {
	rid := uuid.New().String()
	start := time.Now()
	r.logger.Info("reconcile.start",
		"req_id", rid, "items", len(order.Items), "catalog", table.Len())

	if len(order.Items) == 0 {
		return nil, nil
	}

	matched, err := r.match(ctx, rid, order, table)
	if err != nil {
		if r.Strict {
			return nil, err
		}
		r.logger.Warn("reconcile.match_degraded", "req_id", rid, "error", err)
		matched = nil
	}

	out := make([]PricedItem, 0, len(order.Items))
	for _, it := range order.Items {
		item := PricedItem{Name: it.Name, Quantity: it.Quantity}

		if m, ok := matched[normalize(it.Name)]; ok && m.UnitPrice != "" {
			item.UnitPrice = m.UnitPrice
		} else if entry, ok := table.Lookup(it.Name); ok {
			item.UnitPrice = entry.UnitPrice.StringFixed(2)
		} else if r.Strict {
			return nil, fmt.Errorf("no catalog match for item %q: %w", it.Name, common.ErrInvalidInput)
		} else {
			r.logger.Warn("reconcile.unmatched_item",
				"req_id", rid, "name", it.Name, "default_price", r.defaultPrice())
			item.UnitPrice = r.defaultPrice()
		}
		out = append(out, item)
	}

	r.logger.Info("reconcile.ok",
		"req_id", rid, "items", len(out),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out, nil
}

// match performs the single fuzzy-join call and indexes the response by
// normalized input name. Matcher output uses catalog spellings, so each
// response row is mapped back to the input item it answers: exact name
// first, then containment either way.
func (r *Reconciler) match(ctx context.Context, rid string, order extract.Order, table *catalog.Table) (map[string]PricedItem, error) {
	payload, err := buildUserPayload(order, table)
	if err != nil {
		return nil, err
	}

	resp, err := r.completer.Complete(ctx, systemPrompt, payload)
	if err != nil {
		return nil, fmt.Errorf("match items: %w", err)
	}

	raw, _, err := llm.NormalizeItems([]byte(llm.StripCodeFences(resp)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrExtractionFormat, err)
	}
	if err := llm.ValidateAgainstSchema(llm.BuildItemsSchema(true), raw); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrExtractionFormat, err)
	}

	var doc struct {
		Items []PricedItem `json:"items"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: decode items: %v", common.ErrExtractionFormat, err)
	}

	byInput := make(map[string]PricedItem, len(doc.Items))
	for _, in := range order.Items {
		key := normalize(in.Name)
		for _, m := range doc.Items {
			if normalize(m.Name) == key {
				byInput[key] = m
				break
			}
		}
		if _, ok := byInput[key]; ok {
			continue
		}
		for _, m := range doc.Items {
			mk := normalize(m.Name)
			if strings.Contains(mk, key) || strings.Contains(key, mk) {
				byInput[key] = m
				break
			}
		}
	}

	r.logger.Debug("reconcile.match_indexed",
		"req_id", rid, "returned", len(doc.Items), "mapped", len(byInput))
	return byInput, nil
}

func buildUserPayload(order extract.Order, table *catalog.Table) (string, error) {
	type row struct {
		Name      string `json:"name"`
		UnitPrice string `json:"unit_price"`
	}
	rows := make([]row, 0, table.Len())
	for _, e := range table.Entries() {
		rows = append(rows, row{Name: e.Name, UnitPrice: e.UnitPrice.StringFixed(2)})
	}
	catalogJSON, err := json.Marshal(rows)
	if err != nil {
		return "", fmt.Errorf("marshal catalog: %w", err)
	}
	orderJSON, err := json.Marshal(order)
	if err != nil {
		return "", fmt.Errorf("marshal order: %w", err)
	}
	return "This is the price list: " + string(catalogJSON) +
		" and these are the ordered products: " + string(orderJSON), nil
}

func (r *Reconciler) defaultPrice() string {
	if r.DefaultUnitPrice == "" {
		return "1.00"
	}
	return r.DefaultUnitPrice
}

func normalize(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}
