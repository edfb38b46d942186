package invoice

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// Format identifies an export file format
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
	FormatJSON Format = "json"
)

// ErrUnsupportedFormat is returned for unknown export formats, before any I/O
var ErrUnsupportedFormat = errors.New("unsupported export format")

// maxColumnWidth caps XLSX auto-sizing so a long description cannot produce a
// pathologically wide column
const maxColumnWidth = 50

// columnHeaders is the fixed column order for all export formats
var columnHeaders = []string{
	"description",
	"quantity",
	"unit_price",
	"total_price",
	"vendor_name",
	"invoice_id",
	"invoice_date",
	"source_file",
	"processed_at",
}

// ParseFormat maps a caller-supplied format string to a Format. "excel" is
// accepted as an alias for xlsx.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "csv":
		return FormatCSV, nil
	case "xlsx", "excel":
		return FormatXLSX, nil
	case "json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
	}
}

// Export serializes the table to destPath in the given format, appending the
// format's extension. The format is validated before any file is created, and
// the table is never mutated. Returns the path written.
func Export(table Table, format Format, destPath string) (string, error) {
	switch format {
	case FormatCSV, FormatXLSX, FormatJSON:
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, string(format))
	}

	path := destPath + "." + string(format)

	var err error
	switch format {
	case FormatCSV:
		err = exportCSV(table, path)
	case FormatXLSX:
		err = exportXLSX(table, path)
	case FormatJSON:
		err = exportJSON(table, path)
	}
	if err != nil {
		return "", err
	}
	return path, nil
}

// cellValues renders one row in column order. Dates are ISO 8601; a nil invoice
// date becomes an empty field.
func cellValues(row Row) []string {
	invoiceDate := ""
	if row.InvoiceDate != nil {
		invoiceDate = row.InvoiceDate.Format("2006-01-02")
	}
	return []string{
		row.Description,
		strconv.FormatFloat(row.Quantity, 'f', -1, 64),
		strconv.FormatFloat(row.UnitPrice, 'f', -1, 64),
		strconv.FormatFloat(row.TotalPrice, 'f', -1, 64),
		row.VendorName,
		row.InvoiceID,
		invoiceDate,
		row.SourceFile,
		row.ProcessedAt.Format(time.RFC3339),
	}
}

func exportCSV(table Table, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating csv file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(columnHeaders); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}
	for _, row := range table {
		if err := w.Write(cellValues(row)); err != nil {
			return fmt.Errorf("writing csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flushing csv: %w", err)
	}
	return nil
}

func exportXLSX(table Table, path string) error {
	f := excelize.NewFile()
	const sheet = "Invoice Data"
	index, err := f.NewSheet(sheet)
	if err != nil {
		return fmt.Errorf("creating sheet: %w", err)
	}
	f.SetActiveSheet(index)
	_ = f.DeleteSheet("Sheet1")

	// Styled header row
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"D7E4BC"}},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	if err != nil {
		return fmt.Errorf("creating header style: %w", err)
	}

	widths := make([]int, len(columnHeaders))
	for i, h := range columnHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
		_ = f.SetCellStyle(sheet, cell, cell, headerStyle)
		widths[i] = len(h)
	}

	for r, row := range table {
		for c, value := range cellValues(row) {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return fmt.Errorf("writing cell: %w", err)
			}
			if len(value) > widths[c] {
				widths[c] = len(value)
			}
		}
	}

	// Auto-size columns to the longest value, capped
	for i, w := range widths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		width := w + 2
		if width > maxColumnWidth {
			width = maxColumnWidth
		}
		_ = f.SetColWidth(sheet, col, col, float64(width))
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("xlsx write: %w", err)
	}
	return nil
}

func exportJSON(table Table, path string) error {
	// Row's json tags keep key names aligned with the other formats; nil dates
	// serialize as JSON null, not omitted
	data, err := json.MarshalIndent(table, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling table: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing json file: %w", err)
	}
	return nil
}
