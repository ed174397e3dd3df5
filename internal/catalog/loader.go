package catalog

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/valora-app/order-invoicer/internal/common"
)

// Loader reads the product/price table from a flat tabular file.
// CSV and XLSX sources are supported, selected by file extension.
type Loader struct {
	logger *slog.Logger
}

func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{logger: logger}
}

// Load reads the table at path and returns its entries. The file must
// contain the two named columns; a missing file, unreadable content, or a
// missing column wraps common.ErrCatalogRead. Rows with an unparseable
// price are skipped with a warning rather than failing the whole file.
func (l *Loader) Load(path, nameCol, priceCol string) ([]Entry, error) {
	var (
		rows [][]string
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		rows, err = readXLSXRows(path)
	default:
		rows, err = readCSVRows(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w: %v", path, common.ErrCatalogRead, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("catalog %s is empty: %w", path, common.ErrCatalogRead)
	}

	nameIdx, priceIdx := -1, -1
	for i, h := range rows[0] {
		switch {
		case strings.EqualFold(strings.TrimSpace(h), nameCol):
			nameIdx = i
		case strings.EqualFold(strings.TrimSpace(h), priceCol):
			priceIdx = i
		}
	}
	if nameIdx < 0 || priceIdx < 0 {
		return nil, fmt.Errorf("catalog %s missing required columns %q/%q: %w",
			path, nameCol, priceCol, common.ErrCatalogRead)
	}

	entries := make([]Entry, 0, len(rows)-1)
	for n, row := range rows[1:] {
		if nameIdx >= len(row) || priceIdx >= len(row) {
			l.logger.Warn("catalog.row_short", "path", path, "row", n+2)
			continue
		}
		name := strings.TrimSpace(row[nameIdx])
		if name == "" {
			continue
		}
		raw := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(row[priceIdx]), "$"))
		price, perr := decimal.NewFromString(raw)
		if perr != nil {
			l.logger.Warn("catalog.bad_price", "path", path, "row", n+2, "name", name, "price", raw)
			continue
		}
		entries = append(entries, Entry{Name: name, UnitPrice: price})
	}

	l.logger.Info("catalog.loaded", "path", path, "entries", len(entries))
	return entries, nil
}

func readCSVRows(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	return r.ReadAll()
}

func readXLSXRows(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	return f.GetRows(sheets[0])
}
