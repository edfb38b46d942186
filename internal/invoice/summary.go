package invoice

import "time"

// DateRange bounds the non-null invoice dates of a table. Both bounds are nil
// when no row carries a parseable date.
type DateRange struct {
	Start *time.Time `json:"start"`
	End   *time.Time `json:"end"`
}

// Stats are dataset-level statistics over a consolidated table
type Stats struct {
	TotalItems       int       `json:"total_items"`
	TotalAmount      float64   `json:"total_amount"`
	AverageItemPrice float64   `json:"average_item_price"`
	UniqueVendors    int       `json:"unique_vendors"`
	DateRange        DateRange `json:"date_range"`
}

// Summarize computes statistics over a table snapshot. Pure function, full
// recompute each call - no caching, no incremental update. That is fine at the
// table sizes this handles; it is the scalability boundary of this package.
// An empty table yields zeroed stats, not an error.
func Summarize(table Table) Stats {
	stats := Stats{TotalItems: len(table)}
	if len(table) == 0 {
		return stats
	}

	vendors := make(map[string]struct{})
	for _, row := range table {
		stats.TotalAmount += row.TotalPrice
		vendors[row.VendorName] = struct{}{}

		if row.InvoiceDate == nil {
			continue
		}
		if stats.DateRange.Start == nil || row.InvoiceDate.Before(*stats.DateRange.Start) {
			d := *row.InvoiceDate
			stats.DateRange.Start = &d
		}
		if stats.DateRange.End == nil || row.InvoiceDate.After(*stats.DateRange.End) {
			d := *row.InvoiceDate
			stats.DateRange.End = &d
		}
	}

	// Arithmetic mean of line totals, not weighted by quantity
	stats.AverageItemPrice = stats.TotalAmount / float64(len(table))
	stats.UniqueVendors = len(vendors)

	return stats
}
