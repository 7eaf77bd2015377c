// internal/domain/cart/totals.go
package cart

import "github.com/shopspring/decimal"

// Count returns the sum of quantities across all line items
func Count(items []LineItem) int {
	count := 0
	for _, item := range items {
		count += item.Quantity
	}
	return count
}

// Total returns the exact sum of unit price times quantity
func Total(items []LineItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Subtotal())
	}
	return total
}

// Totals is the computed summary shown next to a cart
type Totals struct {
	DistinctItems int             `json:"distinct_items"`
	Count         int             `json:"count"`
	Total         decimal.Decimal `json:"total"`
	Display       string          `json:"display_total"`
}

// Summarize computes every derived value in one pass over the items
func Summarize(items []LineItem) Totals {
	total := Total(items)
	return Totals{
		DistinctItems: len(items),
		Count:         Count(items),
		Total:         total,
		Display:       total.StringFixed(2),
	}
}
