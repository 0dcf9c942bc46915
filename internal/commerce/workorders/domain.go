package workorders

import (
	"time"

	"github.com/queenscorner/queenscorner-erp/internal/commerce/deals"
	"github.com/queenscorner/queenscorner-erp/internal/commerce/shared"
)

// Status enumerates the work order lifecycle.
type Status string

const (
	StatusPending    Status = "PENDIENTE"
	StatusInProgress Status = "EN_PROGRESO"
	StatusCompleted  Status = "COMPLETADA"
	StatusCancelled  Status = "CANCELADA"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted, StatusCancelled:
		return true
	default:
		return false
	}
}

func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

func (s Status) CanEdit() bool {
	return s == StatusPending || s == StatusInProgress
}

// transitions is the legal edge set of the work order machine.
var transitions = map[Status][]Status{
	StatusPending:    {StatusInProgress, StatusCancelled},
	StatusInProgress: {StatusCompleted, StatusCancelled},
}

func canTransition(from, to Status) bool {
	for _, t := range transitions[from] {
		if t == to {
			return true
		}
	}
	return false
}

// WorkOrder is the execution document derived from a finalized deal. Detail
// lines may carry a zero unit price for work billed through the deal.
type WorkOrder struct {
	ID           int64             `json:"id" db:"id"`
	Code         string            `json:"code" db:"code"`
	DealID       int64             `json:"deal_id" db:"deal_id"`
	DealCode     string            `json:"deal_code" db:"deal_code"`
	Description  string            `json:"description" db:"description"`
	StartDate    time.Time         `json:"start_date" db:"start_date"`
	EstimatedEnd *time.Time        `json:"estimated_end_date,omitempty" db:"estimated_end_date"`
	Details      []shared.LineItem `json:"details" db:"-"`
	Status       Status            `json:"status" db:"status"`
	Subtotal     float64           `json:"subtotal" db:"subtotal"`
	Tax          float64           `json:"tax" db:"tax"`
	Total        float64           `json:"total" db:"total"`
	Version      int64             `json:"version" db:"version"`
	CreatedAt    time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at" db:"updated_at"`
}

// DeriveInput carries the caller-supplied fields for a new work order.
type DeriveInput struct {
	Description  string
	StartDate    time.Time
	EstimatedEnd *time.Time
	Details      []shared.LineItem
}

// Patch carries optional mutations applied while the order is editable.
type Patch struct {
	Description  *string
	StartDate    *time.Time
	EstimatedEnd *time.Time
	Details      *[]shared.LineItem
}

// Derive builds a work order in PENDIENTE state from a finalized deal.
func Derive(d deals.Deal, in DeriveInput, now time.Time) (WorkOrder, error) {
	if d.Status != deals.StatusFinalized {
		return WorkOrder{}, &shared.PreconditionError{
			Document: d.Code,
			State:    string(d.Status),
			Required: string(deals.StatusFinalized),
		}
	}
	if in.Description == "" {
		return WorkOrder{}, &shared.ValidationError{Field: "description", Reason: "description is required"}
	}
	if in.StartDate.IsZero() {
		return WorkOrder{}, &shared.ValidationError{Field: "start_date", Reason: "start date is required"}
	}
	details, totals, err := shared.DocumentTotals(in.Details, shared.FreeLinesAllowed)
	if err != nil {
		return WorkOrder{}, err
	}

	return WorkOrder{
		DealID:       d.ID,
		DealCode:     d.Code,
		Description:  in.Description,
		StartDate:    in.StartDate,
		EstimatedEnd: in.EstimatedEnd,
		Details:      details,
		Status:       StatusPending,
		Subtotal:     totals.Subtotal,
		Tax:          totals.Tax,
		Total:        totals.Total,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// Apply returns a copy of the order with the patch applied and totals
// recomputed. The receiver is never modified.
func (o WorkOrder) Apply(p Patch, now time.Time) (WorkOrder, error) {
	if !o.Status.CanEdit() {
		return WorkOrder{}, &shared.InvalidStateError{Document: o.Code, State: string(o.Status), Operation: "update"}
	}

	next := o
	next.Details = shared.CloneItems(o.Details)

	if p.Description != nil {
		if *p.Description == "" {
			return WorkOrder{}, &shared.ValidationError{Document: o.Code, Field: "description", Reason: "description cannot be emptied"}
		}
		next.Description = *p.Description
	}
	if p.StartDate != nil {
		if p.StartDate.IsZero() {
			return WorkOrder{}, &shared.ValidationError{Document: o.Code, Field: "start_date", Reason: "start date is required"}
		}
		next.StartDate = *p.StartDate
	}
	if p.EstimatedEnd != nil {
		next.EstimatedEnd = p.EstimatedEnd
	}
	if p.Details != nil {
		next.Details = shared.CloneItems(*p.Details)
	}

	details, totals, err := shared.DocumentTotals(next.Details, shared.FreeLinesAllowed)
	if err != nil {
		if verr, ok := err.(*shared.ValidationError); ok {
			verr.Document = o.Code
		}
		return WorkOrder{}, err
	}
	next.Details = details
	next.Subtotal = totals.Subtotal
	next.Tax = totals.Tax
	next.Total = totals.Total
	next.UpdatedAt = now
	return next, nil
}

// TransitionTo returns a copy of the order in the target state per the
// PENDIENTE -> EN_PROGRESO -> COMPLETADA table, with CANCELADA reachable from
// both non-terminal states.
func (o WorkOrder) TransitionTo(target Status, now time.Time) (WorkOrder, error) {
	if !target.IsValid() || !canTransition(o.Status, target) {
		return WorkOrder{}, &shared.InvalidTransitionError{Document: o.Code, From: string(o.Status), To: string(target)}
	}
	next := o
	next.Details = shared.CloneItems(o.Details)
	next.Status = target
	next.UpdatedAt = now
	return next, nil
}
