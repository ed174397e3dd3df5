package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/valora-app/order-invoicer/internal/catalog"
	"github.com/valora-app/order-invoicer/internal/common"
	"github.com/valora-app/order-invoicer/internal/extract"
	"github.com/valora-app/order-invoicer/internal/invoice"
	"github.com/valora-app/order-invoicer/internal/llm/openai"
	"github.com/valora-app/order-invoicer/internal/mail"
	"github.com/valora-app/order-invoicer/internal/pipeline"
	"github.com/valora-app/order-invoicer/internal/pricing"
	"github.com/valora-app/order-invoicer/internal/reconcile"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		logger.Debug("no .env file loaded", "error", err)
	}

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	orch := buildOrchestrator(cfg, logger)

	logger.Info("invoicerd started",
		"interval", cfg.Poll.Interval.String(),
		"catalog", cfg.Catalog.Path,
		"inbox_filter", cfg.Mail.SearchHeader+"="+cfg.Mail.SearchValue,
	)

	ticker := time.NewTicker(cfg.Poll.Interval)
	defer ticker.Stop()

	// Run one cycle immediately, then on every tick. Cycle errors are
	// logged inside the orchestrator; the loop survives them all.
	orch.ProcessCycle(ctx)
	for {
		select {
		case <-ctx.Done():
			logger.Info("shutting down")
			return
		case <-ticker.C:
			orch.ProcessCycle(ctx)
		}
	}
}

func buildOrchestrator(cfg *common.Config, logger *slog.Logger) *pipeline.Orchestrator {
	completer := openai.NewClient(openai.Config{
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		Timeout:     cfg.LLM.Timeout,
	}, logger)

	inbox := mail.NewInbox(mail.IMAPConfig{
		Addr:         cfg.Mail.IMAPAddr,
		Username:     cfg.Mail.Username,
		Password:     cfg.Mail.Password,
		SearchHeader: cfg.Mail.SearchHeader,
		SearchValue:  cfg.Mail.SearchValue,
	}, logger)

	sender := mail.NewSMTPSender(mail.SMTPConfig{
		Host:     cfg.Mail.SMTPHost,
		Port:     cfg.Mail.SMTPPort,
		Username: cfg.Mail.Username,
		Password: cfg.Mail.Password,
	}, logger)

	reconciler := reconcile.NewReconciler(completer, logger)
	reconciler.DefaultUnitPrice = cfg.Invoice.DefaultUnitPrice
	reconciler.Strict = cfg.Invoice.StrictMatching

	renderer := invoice.NewRenderer(logger)
	renderer.OutputPath = cfg.Invoice.OutputPath
	renderer.LogoPath = cfg.Invoice.LogoPath

	return pipeline.NewOrchestrator(
		pipeline.Config{
			CatalogPath:        cfg.Catalog.Path,
			CatalogNameColumn:  cfg.Catalog.NameColumn,
			CatalogPriceColumn: cfg.Catalog.PriceColumn,
			MaxPerCycle:        cfg.Poll.MaxPerCycle,
			IssuedTo:           invoice.DefaultIssuedTo,
			PayTo:              invoice.DefaultPayTo,
		},
		inbox,
		extract.NewExtractor(completer, logger),
		reconciler,
		pricing.NewEngine(logger),
		renderer,
		sender,
		catalog.NewLoader(logger),
		logger,
	)
}
