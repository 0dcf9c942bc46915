package quotations

import (
	"time"

	"github.com/queenscorner/queenscorner-erp/internal/commerce/shared"
)

// Status enumerates the quotation lifecycle.
type Status string

const (
	StatusDraft    Status = "BORRADOR"
	StatusSent     Status = "ENVIADA"
	StatusApproved Status = "APROBADA"
	StatusRejected Status = "RECHAZADA"
)

// IsValid checks the status is one of the known lifecycle states.
func (s Status) IsValid() bool {
	switch s {
	case StatusDraft, StatusSent, StatusApproved, StatusRejected:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether no further transition is permitted.
func (s Status) IsTerminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// CanEdit reports whether the quotation may still be mutated.
func (s Status) CanEdit() bool {
	return s == StatusDraft || s == StatusSent
}

// transitionTargets is the set of states a non-terminal quotation may be
// driven to. BORRADOR is never a target.
var transitionTargets = map[Status]bool{
	StatusSent:     true,
	StatusApproved: true,
	StatusRejected: true,
}

// Quotation is a priced proposal sent to a client. It is the source document
// for a deal.
type Quotation struct {
	ID          int64             `json:"id" db:"id"`
	Code        string            `json:"code" db:"code"`
	ClientID    int64             `json:"client_id" db:"client_id"`
	Description string            `json:"description" db:"description"`
	ValidUntil  time.Time         `json:"valid_until" db:"valid_until"`
	Notes       *string           `json:"notes,omitempty" db:"notes"`
	Items       []shared.LineItem `json:"items" db:"-"`
	Status      Status            `json:"status" db:"status"`
	Subtotal    float64           `json:"subtotal" db:"subtotal"`
	Tax         float64           `json:"tax" db:"tax"`
	Total       float64           `json:"total" db:"total"`
	Version     int64             `json:"version" db:"version"`
	CreatedAt   time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at" db:"updated_at"`
}

// CreateInput carries the fields a caller provides when building a quotation.
type CreateInput struct {
	ClientID    int64
	Description string
	ValidUntil  time.Time
	Notes       *string
	Items       []shared.LineItem
}

// Patch carries optional mutations applied while the quotation is editable.
type Patch struct {
	Description *string
	ValidUntil  *time.Time
	Notes       *string
	Items       *[]shared.LineItem
}

// New builds a quotation in BORRADOR state. Identity and code are assigned by
// the caller after persistence is arranged.
func New(in CreateInput, now time.Time) (Quotation, error) {
	if in.ClientID <= 0 {
		return Quotation{}, &shared.ValidationError{Field: "client_id", Reason: "client is required"}
	}
	if in.Description == "" {
		return Quotation{}, &shared.ValidationError{Field: "description", Reason: "description is required"}
	}
	if in.ValidUntil.IsZero() {
		return Quotation{}, &shared.ValidationError{Field: "valid_until", Reason: "validity date is required"}
	}
	items, totals, err := shared.DocumentTotals(in.Items, shared.PricedLines)
	if err != nil {
		return Quotation{}, err
	}
	return Quotation{
		ClientID:    in.ClientID,
		Description: in.Description,
		ValidUntil:  in.ValidUntil,
		Notes:       in.Notes,
		Items:       items,
		Status:      StatusDraft,
		Subtotal:    totals.Subtotal,
		Tax:         totals.Tax,
		Total:       totals.Total,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// Apply returns a copy of the quotation with the patch applied and totals
// recomputed. The receiver is never modified.
func (q Quotation) Apply(p Patch, now time.Time) (Quotation, error) {
	if !q.Status.CanEdit() {
		return Quotation{}, &shared.InvalidStateError{Document: q.Code, State: string(q.Status), Operation: "update"}
	}

	next := q
	next.Items = shared.CloneItems(q.Items)

	if p.Description != nil {
		if *p.Description == "" {
			return Quotation{}, &shared.ValidationError{Document: q.Code, Field: "description", Reason: "description cannot be emptied"}
		}
		next.Description = *p.Description
	}
	if p.ValidUntil != nil {
		if p.ValidUntil.IsZero() {
			return Quotation{}, &shared.ValidationError{Document: q.Code, Field: "valid_until", Reason: "validity date is required"}
		}
		next.ValidUntil = *p.ValidUntil
	}
	if p.Notes != nil {
		next.Notes = p.Notes
	}
	if p.Items != nil {
		next.Items = shared.CloneItems(*p.Items)
	}

	items, totals, err := shared.DocumentTotals(next.Items, shared.PricedLines)
	if err != nil {
		if verr, ok := err.(*shared.ValidationError); ok {
			verr.Document = q.Code
		}
		return Quotation{}, err
	}
	next.Items = items
	next.Subtotal = totals.Subtotal
	next.Tax = totals.Tax
	next.Total = totals.Total
	next.UpdatedAt = now
	return next, nil
}

// TransitionTo returns a copy of the quotation in the target state. Asking for
// the current state is an accepted no-op. Terminal states reject every
// transition.
func (q Quotation) TransitionTo(target Status, now time.Time) (Quotation, error) {
	if !target.IsValid() {
		return Quotation{}, &shared.InvalidTransitionError{Document: q.Code, From: string(q.Status), To: string(target)}
	}
	if target == q.Status {
		return q, nil
	}
	if q.Status.IsTerminal() {
		return Quotation{}, &shared.InvalidTransitionError{Document: q.Code, From: string(q.Status), To: string(target)}
	}
	if !transitionTargets[target] {
		return Quotation{}, &shared.InvalidTransitionError{Document: q.Code, From: string(q.Status), To: string(target)}
	}
	if q.Status == StatusDraft && len(q.Items) == 0 {
		return Quotation{}, &shared.ValidationError{Document: q.Code, Field: "items", Reason: "quotation needs at least one item to leave BORRADOR"}
	}

	next := q
	next.Items = shared.CloneItems(q.Items)
	next.Status = target
	next.UpdatedAt = now
	return next, nil
}
