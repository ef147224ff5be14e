// Package pricing computes checkout totals from catalog rows. All amounts
// are integer minor currency units; the discount is floored, never rounded.
package pricing

import (
	"fmt"
	"strings"

	"github.com/mathstore/storefront-api/internal/catalog"
)

const (
	// Buying this many distinct products earns the volume discount.
	DiscountThreshold = 10
	DiscountPercent   = 15

	maxTitlesInDescription = 3
)

// ReceiptItem is a tax-receipt line. Line amounts are the pre-discount
// per-item prices, so sum(items) exceeds Total when a discount applies.
type ReceiptItem struct {
	ProductID int64
	Title     string
	Price     int64
}

type Quote struct {
	Subtotal        int64
	DiscountPercent int
	Discount        int64
	Total           int64
	DiscountApplied bool
	Items           []ReceiptItem
	Description     string
}

// Compute prices an order from the catalog rows the client's ids resolved
// to. Callers must reject an empty slice before calling (no product may be
// charged for zero items); Compute on an empty slice yields a zero Quote.
func Compute(products []catalog.Product) Quote {
	var q Quote
	titles := make([]string, 0, len(products))
	for _, p := range products {
		q.Subtotal += p.Price
		q.Items = append(q.Items, ReceiptItem{ProductID: p.ID, Title: p.Title, Price: p.Price})
		titles = append(titles, p.Title)
	}

	if len(products) >= DiscountThreshold {
		q.DiscountApplied = true
		q.DiscountPercent = DiscountPercent
		q.Discount = q.Subtotal * DiscountPercent / 100
	}
	q.Total = q.Subtotal - q.Discount
	q.Description = describe(titles)
	return q
}

func describe(titles []string) string {
	if len(titles) <= maxTitlesInDescription {
		return strings.Join(titles, ", ")
	}
	head := strings.Join(titles[:maxTitlesInDescription], ", ")
	return fmt.Sprintf("%s и ещё %d товар(ов)", head, len(titles)-maxTitlesInDescription)
}
