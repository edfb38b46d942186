package invoice

import (
	"strings"
	"time"
)

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

// defaultTimeSource provides the current time
type defaultTimeSource struct{}

func (t *defaultTimeSource) Now() time.Time {
	return time.Now()
}

// Row is one line of the consolidated table: a normalized line item with the
// record-level metadata broadcast onto it plus provenance fields. Numeric fields
// are never null (0.0 on unparseable input); InvoiceDate is nil when the raw
// date did not parse.
type Row struct {
	Description string     `json:"description"`
	Quantity    float64    `json:"quantity"`
	UnitPrice   float64    `json:"unit_price"`
	TotalPrice  float64    `json:"total_price"`
	VendorName  string     `json:"vendor_name"`
	InvoiceID   string     `json:"invoice_id"`
	InvoiceDate *time.Time `json:"invoice_date"`
	SourceFile  string     `json:"source_file"`
	ProcessedAt time.Time  `json:"processed_at"`
}

// Table is the consolidated dataset. Row order is file processing order, then
// line-item order within a file. Duplicate rows across files are preserved
// as-is; consumers do their own filtering and ordering.
type Table []Row

// SourceRecord pairs an extracted record with the file it came from
type SourceRecord struct {
	Record     *Record
	SourceFile string
}

// Builder assembles extracted records into table rows
type Builder struct {
	timeSource TimeSource
}

// NewBuilder creates a new Builder using the wall clock
func NewBuilder() *Builder {
	return &Builder{timeSource: &defaultTimeSource{}}
}

// NewBuilderWithTimeSource creates a new Builder with a custom time source for testing
func NewBuilderWithTimeSource(timeSource TimeSource) *Builder {
	return &Builder{timeSource: timeSource}
}

// BuildRows normalizes one record into table rows. A record with zero line
// items yields an empty slice, not an error. The processing timestamp is
// captured once per call so every row of a document shares it.
func (b *Builder) BuildRows(rec *Record, sourceFile string) []Row {
	processedAt := b.timeSource.Now()

	vendorName := NormalizeText(rec.VendorName)
	invoiceID := strings.TrimSpace(rec.InvoiceID)
	invoiceDate := NormalizeDate(rec.InvoiceDate)

	rows := make([]Row, 0, len(rec.LineItems))
	for _, item := range rec.LineItems {
		rows = append(rows, Row{
			Description: NormalizeText(item.Description),
			Quantity:    NormalizeNumeric(item.Quantity),
			UnitPrice:   NormalizeNumeric(item.UnitPrice),
			TotalPrice:  NormalizeNumeric(item.TotalPrice),
			VendorName:  vendorName,
			InvoiceID:   invoiceID,
			InvoiceDate: invoiceDate,
			SourceFile:  sourceFile,
			ProcessedAt: processedAt,
		})
	}

	return rows
}

// MergeAll concatenates per-document rows in input order. No deduplication, no
// sorting.
func (b *Builder) MergeAll(sources []SourceRecord) Table {
	table := Table{}
	for _, src := range sources {
		table = append(table, b.BuildRows(src.Record, src.SourceFile)...)
	}
	return table
}
