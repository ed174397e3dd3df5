package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/valora-app/order-invoicer/internal/common"
	"github.com/valora-app/order-invoicer/internal/llm"
)

// Item is one (product name, quantity) pair pulled out of the order text.
// Quantity stays a string until the pricing engine coerces it.
type Item struct {
	Name     string `json:"name"`
	Quantity string `json:"quantity"`
}

// Order is the structured result of extraction. Item order follows the
// order of appearance in the message; zero items is a valid empty order.
type Order struct {
	Items []Item `json:"items"`
}

const systemPrompt = "Extract the products from the following purchase order. " +
	"Return ONLY a JSON object, with no additional text, in exactly this format, all uppercase: " +
	`{"items": [{"name": "product name", "quantity": "product quantity"}]}`

// Extractor turns raw message text into a structured order. The language
// understanding itself is delegated to the completer; the extractor owns
// the prompt, the output contract, and strict parsing of the response.
type Extractor struct {
	completer llm.Completer
	logger    *slog.Logger
}

func NewExtractor(completer llm.Completer, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{completer: completer, logger: logger}
}

// Extract parses the order out of raw message text. Any response that
// does not conform to the items contract wraps common.ErrExtractionFormat;
// plain prose is never treated as an empty order.
func (e *Extractor) Extract(ctx context.Context, text string) (Order, error) {
	rid := uuid.New().String()
	start := time.Now()
	e.logger.Info("extract.start", "req_id", rid, "text_len", len(text))

	resp, err := e.completer.Complete(ctx, systemPrompt, text)
	if err != nil {
		e.logger.Error("extract.complete_error", "req_id", rid, "error", err)
		return Order{}, fmt.Errorf("extract order: %w", err)
	}

	order, err := ParseOrder(resp)
	if err != nil {
		e.logger.Error("extract.bad_response",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return Order{}, err
	}

	e.logger.Info("extract.ok",
		"req_id", rid,
		"items", len(order.Items),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return order, nil
}

// ParseOrder enforces the extraction output contract on a raw response:
// strip incidental code fencing, validate against the items schema,
// normalize field types, decode.
func ParseOrder(resp string) (Order, error) {
	raw, _, err := llm.NormalizeItems([]byte(llm.StripCodeFences(resp)))
	if err != nil {
		return Order{}, fmt.Errorf("%w: %v", common.ErrExtractionFormat, err)
	}
	if err := llm.ValidateAgainstSchema(llm.BuildItemsSchema(false), raw); err != nil {
		return Order{}, fmt.Errorf("%w: %v", common.ErrExtractionFormat, err)
	}

	var order Order
	if err := json.Unmarshal(raw, &order); err != nil {
		return Order{}, fmt.Errorf("%w: decode items: %v", common.ErrExtractionFormat, err)
	}
	return order, nil
}
