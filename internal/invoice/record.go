package invoice

// LineItem holds one billed line exactly as extracted. All four fields stay raw
// strings until normalization; a missing property is an empty string, never an
// error.
type LineItem struct {
	Description string `json:"description"`
	Quantity    string `json:"quantity"`
	UnitPrice   string `json:"unit_price"`
	TotalPrice  string `json:"total_price"`
}

// Record is the intermediate form of one processed document: record-level
// metadata plus the ordered line items, all still raw strings. It is built once
// per document and consumed by the table builder.
type Record struct {
	VendorName    string     `json:"vendor_name"`
	VendorAddress string     `json:"vendor_address"`
	InvoiceID     string     `json:"invoice_id"`
	InvoiceDate   string     `json:"invoice_date"`
	Total         string     `json:"total"`
	LineItems     []LineItem `json:"line_items"`
	RawText       string     `json:"raw_text"`
}
