package invoice

import (
	"invoice-pipeline/internal/docai"
)

// ExtractRecord maps a document's entity list into a Record. It is a single pass
// in entity order: when the same type appears more than once the last occurrence
// wins, because upstream extraction order is not guaranteed stable. Unknown
// entity types are ignored so the vocabulary can grow without breaking us.
func ExtractRecord(doc *docai.Document) *Record {
	rec := &Record{
		LineItems: []LineItem{},
		RawText:   doc.Text,
	}

	for _, entity := range doc.Entities {
		switch entity.Type {
		case docai.TypeSupplierName:
			rec.VendorName = entity.Text
		case docai.TypeSupplierAddress:
			rec.VendorAddress = entity.Text
		case docai.TypeInvoiceID:
			rec.InvoiceID = entity.Text
		case docai.TypeInvoiceDate:
			rec.InvoiceDate = entity.Text
		case docai.TypeTotalAmount:
			rec.Total = entity.Text
		case docai.TypeLineItem:
			rec.LineItems = append(rec.LineItems, parseLineItem(entity))
		}
	}

	return rec
}

// parseLineItem maps one line_item entity's nested properties into a LineItem.
// Missing properties stay empty strings.
func parseLineItem(entity docai.Entity) LineItem {
	var item LineItem

	for _, prop := range entity.Properties {
		switch prop.Type {
		case docai.TypeLineItemDescription:
			item.Description = prop.Text
		case docai.TypeLineItemQuantity:
			item.Quantity = prop.Text
		case docai.TypeLineItemUnitPrice:
			item.UnitPrice = prop.Text
		case docai.TypeLineItemAmount:
			item.TotalPrice = prop.Text
		}
	}

	return item
}
