package invoices

import (
	"time"

	"github.com/queenscorner/queenscorner-erp/internal/commerce/deals"
	"github.com/queenscorner/queenscorner-erp/internal/commerce/quotations"
	"github.com/queenscorner/queenscorner-erp/internal/commerce/shared"
)

// Status enumerates the invoice lifecycle. ENVIADA is a one-way gate: once an
// invoice is sent it can only be paid or voided.
type Status string

const (
	StatusInReview Status = "EN_REVISION"
	StatusSent     Status = "ENVIADA"
	StatusPaid     Status = "PAGADA"
	StatusVoided   Status = "ANULADA"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusInReview, StatusSent, StatusPaid, StatusVoided:
		return true
	default:
		return false
	}
}

func (s Status) IsTerminal() bool {
	return s == StatusPaid || s == StatusVoided
}

func (s Status) CanEdit() bool {
	return s == StatusInReview
}

var transitions = map[Status][]Status{
	StatusInReview: {StatusSent, StatusVoided},
	StatusSent:     {StatusPaid, StatusVoided},
}

func canTransition(from, to Status) bool {
	for _, t := range transitions[from] {
		if t == to {
			return true
		}
	}
	return false
}

// Line is an invoice row. SourceItemID points at the quotation item the line
// was seeded from, when any.
type Line struct {
	ID           int64   `json:"id" db:"id"`
	SourceItemID *int64  `json:"source_item_id,omitempty" db:"source_item_id"`
	Description  string  `json:"description" db:"description"`
	Quantity     float64 `json:"quantity" db:"quantity"`
	UnitPrice    float64 `json:"unit_price" db:"unit_price"`
	LineTotal    float64 `json:"line_total" db:"line_total"`
	LineOrder    int     `json:"line_order" db:"line_order"`
}

func cloneLines(lines []Line) []Line {
	if lines == nil {
		return nil
	}
	out := make([]Line, len(lines))
	copy(out, lines)
	return out
}

// Invoice is the billing document raised against a deal. The deal and client
// fields it carries are snapshots taken at derivation time.
type Invoice struct {
	ID               int64     `json:"id" db:"id"`
	Code             string    `json:"code" db:"code"`
	DealID           int64     `json:"deal_id" db:"deal_id"`
	DealCode         string    `json:"deal_code" db:"deal_code"`
	QuotationID      *int64    `json:"quotation_id,omitempty" db:"quotation_id"`
	ClientID         int64     `json:"client_id" db:"client_id"`
	ClientName       string    `json:"client_name" db:"client_name"`
	DueDate          time.Time `json:"due_date" db:"due_date"`
	PaymentMethod    string    `json:"payment_method" db:"payment_method"`
	PaymentReference *string   `json:"payment_reference,omitempty" db:"payment_reference"`
	Notes            *string   `json:"notes,omitempty" db:"notes"`
	Lines            []Line    `json:"lines" db:"-"`
	Status           Status    `json:"status" db:"status"`
	Subtotal         float64   `json:"subtotal" db:"subtotal"`
	Tax              float64   `json:"tax" db:"tax"`
	Total            float64   `json:"total" db:"total"`
	Advance          float64   `json:"advance" db:"advance"`
	Version          int64     `json:"version" db:"version"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time `json:"updated_at" db:"updated_at"`
}

// AmountDue is the remaining balance after the advance snapshot.
func (inv Invoice) AmountDue() float64 {
	due := inv.Total - inv.Advance
	if due < 0 {
		return 0
	}
	return due
}

// DeriveInput carries the caller-supplied fields for a new invoice.
type DeriveInput struct {
	DueDate          time.Time
	PaymentMethod    string
	PaymentReference *string
	Notes            *string
	Lines            []Line
}

// Patch carries optional mutations applied while the invoice is EN_REVISION.
type Patch struct {
	DueDate          *time.Time
	PaymentMethod    *string
	PaymentReference *string
	Notes            *string
	Lines            *[]Line
}

// Derive builds an invoice in EN_REVISION state from a deal. When the source
// quotation is supplied and the caller gave no explicit lines, the quotation's
// items are copied in as a seed. A cancelled deal cannot be invoiced.
func Derive(d deals.Deal, q *quotations.Quotation, in DeriveInput, now time.Time) (Invoice, error) {
	if d.Status == deals.StatusCancelled {
		return Invoice{}, &shared.PreconditionError{
			Document: d.Code,
			State:    string(d.Status),
			Required: string(deals.StatusInReview) + " or " + string(deals.StatusFinalized),
		}
	}
	if in.DueDate.IsZero() {
		return Invoice{}, &shared.ValidationError{Field: "due_date", Reason: "due date is required"}
	}
	if in.PaymentMethod == "" {
		return Invoice{}, &shared.ValidationError{Field: "payment_method", Reason: "payment method is required"}
	}

	lines := cloneLines(in.Lines)
	if len(lines) == 0 && q != nil {
		lines = seedFromQuotation(q.Items)
	}
	if len(lines) == 0 {
		return Invoice{}, &shared.ValidationError{Field: "lines", Reason: "at least one line is required"}
	}

	normalized, totals, err := totalLines(lines)
	if err != nil {
		return Invoice{}, err
	}

	inv := Invoice{
		DealID:           d.ID,
		DealCode:         d.Code,
		ClientID:         d.ClientID,
		ClientName:       d.ClientName,
		DueDate:          in.DueDate,
		PaymentMethod:    in.PaymentMethod,
		PaymentReference: in.PaymentReference,
		Notes:            in.Notes,
		Lines:            normalized,
		Status:           StatusInReview,
		Subtotal:         totals.Subtotal,
		Tax:              totals.Tax,
		Total:            totals.Total,
		Advance:          d.Advance,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if q != nil {
		id := q.ID
		inv.QuotationID = &id
	}
	return inv, nil
}

// seedFromQuotation copies quotation items by value, remembering their source.
func seedFromQuotation(items []shared.LineItem) []Line {
	lines := make([]Line, len(items))
	for i, it := range items {
		sourceID := it.ID
		lines[i] = Line{
			SourceItemID: &sourceID,
			Description:  it.Description,
			Quantity:     it.Quantity,
			UnitPrice:    it.UnitPrice,
			LineOrder:    it.LineOrder,
		}
	}
	return lines
}

// totalLines validates the lines with the priced policy and fills derived
// fields, returning the normalized copy and the aggregate.
func totalLines(lines []Line) ([]Line, shared.Totals, error) {
	items := make([]shared.LineItem, len(lines))
	for i, l := range lines {
		items[i] = shared.LineItem{
			Description: l.Description,
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice,
			LineOrder:   l.LineOrder,
		}
	}
	normalized, totals, err := shared.DocumentTotals(items, shared.PricedLines)
	if err != nil {
		return nil, shared.Totals{}, err
	}
	out := cloneLines(lines)
	for i := range out {
		out[i].LineTotal = normalized[i].LineTotal
		out[i].LineOrder = normalized[i].LineOrder
	}
	return out, totals, nil
}

// Apply returns a copy of the invoice with the patch applied and totals
// recomputed. The receiver is never modified.
func (inv Invoice) Apply(p Patch, now time.Time) (Invoice, error) {
	if !inv.Status.CanEdit() {
		return Invoice{}, &shared.InvalidStateError{Document: inv.Code, State: string(inv.Status), Operation: "update"}
	}

	next := inv
	next.Lines = cloneLines(inv.Lines)

	if p.DueDate != nil {
		if p.DueDate.IsZero() {
			return Invoice{}, &shared.ValidationError{Document: inv.Code, Field: "due_date", Reason: "due date is required"}
		}
		next.DueDate = *p.DueDate
	}
	if p.PaymentMethod != nil {
		if *p.PaymentMethod == "" {
			return Invoice{}, &shared.ValidationError{Document: inv.Code, Field: "payment_method", Reason: "payment method cannot be emptied"}
		}
		next.PaymentMethod = *p.PaymentMethod
	}
	if p.PaymentReference != nil {
		next.PaymentReference = p.PaymentReference
	}
	if p.Notes != nil {
		next.Notes = p.Notes
	}
	if p.Lines != nil {
		next.Lines = cloneLines(*p.Lines)
	}

	lines, totals, err := totalLines(next.Lines)
	if err != nil {
		if verr, ok := err.(*shared.ValidationError); ok {
			verr.Document = inv.Code
		}
		return Invoice{}, err
	}
	next.Lines = lines
	next.Subtotal = totals.Subtotal
	next.Tax = totals.Tax
	next.Total = totals.Total
	next.UpdatedAt = now
	return next, nil
}

// TransitionTo returns a copy of the invoice in the target state. PAGADA is
// reachable only through ENVIADA; ANULADA is reachable from both non-terminal
// states.
func (inv Invoice) TransitionTo(target Status, now time.Time) (Invoice, error) {
	if !target.IsValid() || !canTransition(inv.Status, target) {
		return Invoice{}, &shared.InvalidTransitionError{Document: inv.Code, From: string(inv.Status), To: string(target)}
	}
	next := inv
	next.Lines = cloneLines(inv.Lines)
	next.Status = target
	next.UpdatedAt = now
	return next, nil
}
