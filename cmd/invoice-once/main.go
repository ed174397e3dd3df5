package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/valora-app/order-invoicer/internal/catalog"
	"github.com/valora-app/order-invoicer/internal/common"
	"github.com/valora-app/order-invoicer/internal/extract"
	"github.com/valora-app/order-invoicer/internal/invoice"
	"github.com/valora-app/order-invoicer/internal/llm/openai"
	"github.com/valora-app/order-invoicer/internal/pricing"
	"github.com/valora-app/order-invoicer/internal/reconcile"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

// invoice-once runs the order-to-invoice core on a local text file,
// without any mailbox I/O: extract, reconcile, price, render.
func main() {
	var (
		in      = flag.String("in", "", "order text file to process (required)")
		cat     = flag.String("catalog", "", "catalog file path (defaults to CATALOG_PATH)")
		out     = flag.String("out", "", "output PDF path (defaults to INVOICE_OUTPUT)")
		strict  = flag.Bool("strict", false, "fail on unmatched items instead of defaulting")
		verbose = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	if *in == "" {
		printError("Error: -in is required\n")
		os.Exit(1)
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	_ = godotenv.Load()
	cfg := common.LoadConfig()
	if *cat != "" {
		cfg.Catalog.Path = *cat
	}
	if *out != "" {
		cfg.Invoice.OutputPath = *out
	}
	if cfg.LLM.APIKey == "" {
		printError("Error: OPENAI_API_KEY is required\n")
		os.Exit(1)
	}

	text, err := os.ReadFile(*in)
	if err != nil {
		printError("Error reading %s: %v\n", *in, err)
		os.Exit(1)
	}

	ctx := context.Background()
	completer := openai.NewClient(openai.Config{
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		Timeout:     cfg.LLM.Timeout,
	}, logger)

	entries, err := catalog.NewLoader(logger).Load(cfg.Catalog.Path, cfg.Catalog.NameColumn, cfg.Catalog.PriceColumn)
	if err != nil {
		printError("Error loading catalog: %v\n", err)
		os.Exit(1)
	}
	table := catalog.NewTable(entries)

	order, err := extract.NewExtractor(completer, logger).Extract(ctx, string(text))
	if err != nil {
		printError("Error extracting order: %v\n", err)
		os.Exit(1)
	}
	if len(order.Items) == 0 {
		fmt.Println("No items found in order; nothing to invoice.")
		return
	}

	reconciler := reconcile.NewReconciler(completer, logger)
	reconciler.DefaultUnitPrice = cfg.Invoice.DefaultUnitPrice
	reconciler.Strict = *strict || cfg.Invoice.StrictMatching
	priced, err := reconciler.Reconcile(ctx, order, table)
	if err != nil {
		printError("Error reconciling order: %v\n", err)
		os.Exit(1)
	}

	rows, totals := pricing.NewEngine(logger).Price(priced)

	renderer := invoice.NewRenderer(logger)
	renderer.OutputPath = cfg.Invoice.OutputPath
	renderer.LogoPath = cfg.Invoice.LogoPath
	doc, err := renderer.Render(rows, totals, invoice.DefaultIssuedTo, invoice.DefaultPayTo)
	if err != nil {
		printError("Error rendering invoice: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Invoice written to %s (%d items, total %s)\n",
		doc.Path, len(rows), "$"+totals.GrandTotal.StringFixed(2))
}
