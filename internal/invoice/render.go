package invoice

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/valora-app/order-invoicer/internal/common"
	"github.com/valora-app/order-invoicer/internal/pricing"
)

// Party is one static address block on the invoice.
type Party struct {
	Name    string
	Address string
	Phone   string
}

// Document is a rendered single-page invoice.
type Document struct {
	Path  string
	Bytes []byte
}

// Fixed page geometry, in points on portrait Letter (612 x 792). Layout is
// position-computed top-down: every block sits at an offset derived from
// these constants, never from content flow.
const (
	pageWidth  = 612.0
	pageHeight = 792.0

	logoWidth  = 100.0
	logoHeight = 50.0
	logoMargin = 20.0

	titleY   = 50.0
	titleX   = 200.0
	leftX    = 50.0
	lineStep = 20.0

	issuedToY = 110.0
	payToY    = 210.0

	tableTop  = 330.0
	rowHeight = 20.0

	totalsGap    = 20.0
	totalsLabelX = 400.0
	totalsValueX = 500.0
	bottomMargin = 50.0
)

// Four fixed column widths: name, quantity, unit price, line total.
var columnWidths = [4]float64{200, 100, 100, 100}

// Templated party blocks. Real customer data is out of scope for the
// fixed layout; these fill the static header fields.
var (
	DefaultIssuedTo = Party{Name: "John Doe", Address: "123 Main Street", Phone: "+1 234 567 890"}
	DefaultPayTo    = Party{Name: "Bunker Inc.", Address: "456 Business Road", Phone: "+1 987 654 321"}
)

// Renderer lays the priced order out on a single fixed-size page.
type Renderer struct {
	logger *slog.Logger

	// OutputPath is where Render writes the PDF (default invoice.pdf).
	OutputPath string
	// LogoPath, when it names an existing file, is drawn as the brand
	// mark in the top-right corner; otherwise a text mark is used.
	LogoPath string
	// BrandName is the fallback text brand mark and the issuer line.
	BrandName string
	// Title is the document heading.
	Title string
}

func NewRenderer(logger *slog.Logger) *Renderer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Renderer{
		logger:     logger,
		OutputPath: "invoice.pdf",
		BrandName:  "Bunker Inc.",
		Title:      "Orden de Servicio",
	}
}

// Render draws the invoice and writes it to OutputPath. If the table plus
// totals block would cross the bottom margin the render fails with
// common.ErrLayoutOverflow before anything is written; there is no
// pagination and no partial document.
func (r *Renderer) Render(rows []pricing.Row, totals pricing.Totals, issuedTo, payTo Party) (Document, error) {
	start := time.Now()

	tableHeight := float64(len(rows)+1) * rowHeight
	totalsHeight := totalsGap + 3*lineStep
	if tableTop+tableHeight+totalsHeight > pageHeight-bottomMargin {
		r.logger.Error("render.overflow",
			"rows", len(rows),
			"table_height", tableHeight,
			"usable", pageHeight-bottomMargin-tableTop-totalsHeight,
		)
		return Document{}, fmt.Errorf("%d rows do not fit on one page: %w",
			len(rows), common.ErrLayoutOverflow)
	}

	pdf := gofpdf.New("P", "pt", "Letter", "")
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()

	r.drawBrandMark(pdf)
	r.drawHeader(pdf)
	drawParty(pdf, "Issued To:", issuedToY, issuedTo)
	drawParty(pdf, "Pay To:", payToY, payTo)
	drawTable(pdf, rows)
	drawTotals(pdf, tableTop+tableHeight+totalsGap, totals)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return Document{}, fmt.Errorf("produce pdf: %w", err)
	}
	if err := os.WriteFile(r.OutputPath, buf.Bytes(), 0o644); err != nil {
		return Document{}, fmt.Errorf("write %s: %w", r.OutputPath, err)
	}

	r.logger.Info("render.ok",
		"path", r.OutputPath,
		"rows", len(rows),
		"bytes", buf.Len(),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return Document{Path: r.OutputPath, Bytes: buf.Bytes()}, nil
}

func (r *Renderer) drawBrandMark(pdf *gofpdf.Fpdf) {
	x := pageWidth - logoWidth - logoMargin
	if r.LogoPath != "" {
		if _, err := os.Stat(r.LogoPath); err == nil {
			pdf.ImageOptions(r.LogoPath, x, logoMargin, logoWidth, logoHeight,
				false, gofpdf.ImageOptions{ReadDpi: true}, 0, "")
			return
		}
		r.logger.Warn("render.logo_missing", "path", r.LogoPath)
	}
	pdf.SetFont("Helvetica", "B", 14)
	pdf.Text(x, logoMargin+logoHeight/2, r.BrandName)
}

func (r *Renderer) drawHeader(pdf *gofpdf.Fpdf) {
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Text(titleX, titleY, r.Title)
	pdf.SetFont("Helvetica", "", 12)
	pdf.Text(leftX, titleY+30, r.BrandName)
}

func drawParty(pdf *gofpdf.Fpdf, label string, y float64, p Party) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Text(leftX, y, label)
	pdf.SetFont("Helvetica", "", 12)
	pdf.Text(leftX, y+lineStep, "Nombre: "+p.Name)
	pdf.Text(leftX, y+2*lineStep, "Direccion: "+p.Address)
	pdf.Text(leftX, y+3*lineStep, "Telefono: "+p.Phone)
}

func drawTable(pdf *gofpdf.Fpdf, rows []pricing.Row) {
	header := [4]string{"Producto", "Cantidad", "Precio", "Total"}

	pdf.SetXY(leftX, tableTop)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetFillColor(128, 128, 128)
	pdf.SetTextColor(245, 245, 245)
	pdf.SetDrawColor(0, 0, 0)
	for i, h := range header {
		pdf.CellFormat(columnWidths[i], rowHeight, h, "1", 0, "C", true, 0, "")
	}

	pdf.SetFont("Helvetica", "", 12)
	pdf.SetFillColor(245, 245, 220)
	pdf.SetTextColor(0, 0, 0)
	for n, row := range rows {
		pdf.SetXY(leftX, tableTop+float64(n+1)*rowHeight)
		pdf.CellFormat(columnWidths[0], rowHeight, row.Name, "1", 0, "C", true, 0, "")
		pdf.CellFormat(columnWidths[1], rowHeight, fmt.Sprintf("%d", row.Quantity), "1", 0, "C", true, 0, "")
		pdf.CellFormat(columnWidths[2], rowHeight, money(row.UnitPrice.StringFixed(2)), "1", 0, "C", true, 0, "")
		pdf.CellFormat(columnWidths[3], rowHeight, money(row.LineTotal.StringFixed(2)), "1", 0, "C", true, 0, "")
	}
}

func drawTotals(pdf *gofpdf.Fpdf, y float64, totals pricing.Totals) {
	lines := []struct {
		label string
		value string
	}{
		{"Subtotal:", money(totals.Subtotal.StringFixed(2))},
		{"IVA:", money(totals.Tax.StringFixed(2))},
		{"Total:", money(totals.GrandTotal.StringFixed(2))},
	}
	for i, ln := range lines {
		pdf.SetFont("Helvetica", "B", 12)
		pdf.Text(totalsLabelX, y+float64(i+1)*lineStep, ln.label)
		pdf.SetFont("Helvetica", "", 12)
		pdf.Text(totalsValueX, y+float64(i+1)*lineStep, ln.value)
	}
}

// money applies the presentation-boundary currency format.
func money(fixed string) string {
	return "$" + fixed
}
