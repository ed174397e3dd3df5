package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/valora-app/order-invoicer/internal/catalog"
	"github.com/valora-app/order-invoicer/internal/extract"
	"github.com/valora-app/order-invoicer/internal/invoice"
	"github.com/valora-app/order-invoicer/internal/mail"
	"github.com/valora-app/order-invoicer/internal/pricing"
	"github.com/valora-app/order-invoicer/internal/reconcile"
)

// CatalogSource loads the price table for one cycle.
type CatalogSource interface {
	Load(path, nameCol, priceCol string) ([]catalog.Entry, error)
}

// Renderer produces the invoice document for one priced order.
type Renderer interface {
	Render(rows []pricing.Row, totals pricing.Totals, issuedTo, payTo invoice.Party) (invoice.Document, error)
}

// Config carries the per-cycle knobs the orchestrator needs. All values
// come from the process configuration; inner stages never read the
// environment themselves.
type Config struct {
	CatalogPath        string
	CatalogNameColumn  string
	CatalogPriceColumn string
	MaxPerCycle        int
	IssuedTo           invoice.Party
	PayTo              invoice.Party
}

// Orchestrator sequences extraction, reconciliation, pricing, rendering
// and dispatch per incoming message. Stage failures are caught here and
// recorded on the Result; they never propagate past the orchestrator and
// a failed message never blocks the next one.
type Orchestrator struct {
	cfg        Config
	inbox      mail.InboxReader
	extractor  *extract.Extractor
	reconciler *reconcile.Reconciler
	engine     *pricing.Engine
	renderer   Renderer
	sender     mail.Sender
	catalogs   CatalogSource
	logger     *slog.Logger
}

func NewOrchestrator(
	cfg Config,
	inbox mail.InboxReader,
	extractor *extract.Extractor,
	reconciler *reconcile.Reconciler,
	engine *pricing.Engine,
	renderer Renderer,
	sender mail.Sender,
	catalogs CatalogSource,
	logger *slog.Logger,
) *Orchestrator {
	if cfg.MaxPerCycle <= 0 {
		cfg.MaxPerCycle = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		cfg:        cfg,
		inbox:      inbox,
		extractor:  extractor,
		reconciler: reconciler,
		engine:     engine,
		renderer:   renderer,
		sender:     sender,
		catalogs:   catalogs,
		logger:     logger,
	}
}

// ProcessCycle runs one polling cycle: load the catalog, fetch matching
// messages, and drive at most MaxPerCycle of them (newest first) through
// the pipeline. A catalog or connection failure aborts the cycle with an
// empty result set; it never crashes the hosting process.
func (o *Orchestrator) ProcessCycle(ctx context.Context) []Result {
	start := time.Now()

	entries, err := o.catalogs.Load(o.cfg.CatalogPath, o.cfg.CatalogNameColumn, o.cfg.CatalogPriceColumn)
	if err != nil {
		o.logger.Error("pipeline.catalog_unavailable", "error", err)
		return nil
	}
	table := catalog.NewTable(entries)

	msgs, err := o.inbox.Fetch(ctx)
	if err != nil {
		o.logger.Error("pipeline.inbox_unavailable", "error", err)
		return nil
	}
	if len(msgs) == 0 {
		o.logger.Info("pipeline.no_messages")
		return nil
	}

	if len(msgs) > o.cfg.MaxPerCycle {
		msgs = msgs[:o.cfg.MaxPerCycle]
	}

	results := make([]Result, 0, len(msgs))
	for _, msg := range msgs {
		res := o.processMessage(ctx, msg, table)
		if res.Failed() {
			o.logger.Error("pipeline.message_failed",
				"run_id", res.RunID, "stage", res.Stage, "sender", res.Sender, "error", res.Err)
		}
		results = append(results, res)
	}

	o.logger.Info("pipeline.cycle_done",
		"messages", len(results),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return results
}

// processMessage drives exactly one message through all stages, terminal
// on the first failure. No retries within a run.
func (o *Orchestrator) processMessage(ctx context.Context, msg mail.Message, table *catalog.Table) Result {
	res := Result{
		RunID:  uuid.New().String(),
		Stage:  StageReceived,
		Sender: msg.SenderAddr,
	}
	o.logger.Info("pipeline.message_start", "run_id", res.RunID, "sender", msg.SenderAddr)

	order, err := o.extractor.Extract(ctx, msg.Body)
	if err != nil {
		res.Err = fmt.Errorf("extract: %w", err)
		return res
	}
	res.Stage = StageExtracted
	res.Items = len(order.Items)
	if len(order.Items) == 0 {
		// Valid-but-empty order: nothing to invoice.
		o.logger.Info("pipeline.order_empty", "run_id", res.RunID, "sender", msg.SenderAddr)
		return res
	}

	priced, err := o.reconciler.Reconcile(ctx, order, table)
	if err != nil {
		res.Err = fmt.Errorf("reconcile: %w", err)
		return res
	}
	res.Stage = StageReconciled

	rows, totals := o.engine.Price(priced)
	res.Stage = StagePriced

	doc, err := o.renderer.Render(rows, totals, o.cfg.IssuedTo, o.cfg.PayTo)
	if err != nil {
		res.Err = fmt.Errorf("render: %w", err)
		return res
	}
	res.Stage = StageRendered
	res.InvoicePath = doc.Path

	if err := o.sender.Send(ctx, msg.SenderAddr, msg.SenderName, doc.Path); err != nil {
		res.Err = fmt.Errorf("dispatch: %w", err)
		return res
	}
	res.Stage = StageDispatched

	o.logger.Info("pipeline.message_done",
		"run_id", res.RunID, "sender", msg.SenderAddr,
		"items", res.Items, "invoice", doc.Path,
	)
	return res
}
