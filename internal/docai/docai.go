package docai

// Entity type tags recognized by the extraction pipeline. This vocabulary is the
// wire contract with the document-understanding service; any other tag is ignored.
const (
	TypeSupplierName    = "supplier_name"
	TypeSupplierAddress = "supplier_address"
	TypeInvoiceID       = "invoice_id"
	TypeInvoiceDate     = "invoice_date"
	TypeTotalAmount     = "total_amount"
	TypeLineItem        = "line_item"

	TypeLineItemDescription = "line_item/description"
	TypeLineItemQuantity    = "line_item/quantity"
	TypeLineItemUnitPrice   = "line_item/unit_price"
	TypeLineItemAmount      = "line_item/amount"
)

// Property is a typed sub-field of an entity (e.g. a line item's quantity)
type Property struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Entity is a tagged span of text extracted from a document, optionally with
// nested properties
type Entity struct {
	Type       string     `json:"type"`
	Text       string     `json:"text"`
	Properties []Property `json:"properties,omitempty"`
}

// Document is the semi-structured result of processing one document: the full
// raw text plus the list of extracted entities
type Document struct {
	Text     string   `json:"text"`
	Entities []Entity `json:"entities"`
}

// Processor defines the interface for document-understanding operations
type Processor interface {
	// ProcessDocument analyzes an invoice image/PDF and extracts its entities
	ProcessDocument(data []byte, contentType string) (*Document, error)
	// Close closes the processor and releases resources
	Close() error
}
