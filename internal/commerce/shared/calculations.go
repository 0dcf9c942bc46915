package shared

import "time"

// TaxRate is the IVA rate applied to every commercial document.
const TaxRate = 0.19

// LinePolicy controls which unit prices a document type accepts.
type LinePolicy int

const (
	// PricedLines requires unit_price > 0 (quotations, invoices).
	PricedLines LinePolicy = iota
	// FreeLinesAllowed permits unit_price == 0 (work order details).
	FreeLinesAllowed
)

// LineItem is a priced row owned by exactly one document. Once the owning
// document leaves an editable state the item is never mutated again.
type LineItem struct {
	ID          int64   `json:"id" db:"id"`
	Description string  `json:"description" db:"description"`
	Quantity    float64 `json:"quantity" db:"quantity"`
	UnitPrice   float64 `json:"unit_price" db:"unit_price"`
	LineTotal   float64 `json:"line_total" db:"line_total"`
	LineOrder   int     `json:"line_order" db:"line_order"`
}

// Totals aggregates a document's monetary summary.
type Totals struct {
	Subtotal float64 `json:"subtotal"`
	Tax      float64 `json:"tax"`
	Total    float64 `json:"total"`
}

// LineTotal computes quantity * unit price after validating the item against
// the policy. Rounding is left to presentation code.
func LineTotal(item LineItem, policy LinePolicy) (float64, error) {
	if item.Description == "" {
		return 0, &ValidationError{Field: "description", Reason: "line description is required"}
	}
	if item.Quantity <= 0 {
		return 0, &ValidationError{Field: "quantity", Reason: "quantity must be greater than zero"}
	}
	if item.UnitPrice < 0 {
		return 0, &ValidationError{Field: "unit_price", Reason: "unit price cannot be negative"}
	}
	if item.UnitPrice == 0 && policy != FreeLinesAllowed {
		return 0, &ValidationError{Field: "unit_price", Reason: "unit price must be greater than zero"}
	}
	return item.Quantity * item.UnitPrice, nil
}

// DocumentTotals validates every item, fills the derived LineTotal of each and
// returns the aggregated totals alongside the normalised copy of the items.
// The input slice is never modified.
func DocumentTotals(items []LineItem, policy LinePolicy) ([]LineItem, Totals, error) {
	if len(items) == 0 {
		return nil, Totals{}, &ValidationError{Field: "items", Reason: "at least one line item is required"}
	}
	out := make([]LineItem, len(items))
	var subtotal float64
	for i, item := range items {
		total, err := LineTotal(item, policy)
		if err != nil {
			return nil, Totals{}, err
		}
		item.LineTotal = total
		if item.LineOrder == 0 {
			item.LineOrder = i + 1
		}
		out[i] = item
		subtotal += total
	}
	tax := subtotal * TaxRate
	return out, Totals{Subtotal: subtotal, Tax: tax, Total: subtotal + tax}, nil
}

// CloneItems returns an independent copy of a line item slice so derived
// documents hold snapshots rather than shared backing arrays.
func CloneItems(items []LineItem) []LineItem {
	if items == nil {
		return nil
	}
	out := make([]LineItem, len(items))
	copy(out, items)
	return out
}

// Clock supplies timestamps so lifecycle functions stay deterministic in tests.
type Clock interface {
	Now() time.Time
}

// SystemClock is the production Clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }
