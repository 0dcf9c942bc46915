package deals

import (
	"time"

	"github.com/queenscorner/queenscorner-erp/internal/commerce/quotations"
	"github.com/queenscorner/queenscorner-erp/internal/commerce/shared"
)

// BudgetCapRatio bounds the budget a deal may assign relative to the total of
// the quotation it was derived from.
const BudgetCapRatio = 0.75

// Status enumerates the deal lifecycle.
type Status string

const (
	StatusInReview  Status = "EN_REVISION"
	StatusFinalized Status = "FINALIZADO"
	StatusCancelled Status = "CANCELADO"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusInReview, StatusFinalized, StatusCancelled:
		return true
	default:
		return false
	}
}

func (s Status) IsTerminal() bool {
	return s == StatusFinalized || s == StatusCancelled
}

func (s Status) CanEdit() bool {
	return s == StatusInReview
}

// Deal is the engagement derived from an approved quotation. The quotation
// fields it carries are a snapshot taken at derivation time, so later edits to
// the source never alter the deal.
type Deal struct {
	ID             int64     `json:"id" db:"id"`
	Code           string    `json:"code" db:"code"`
	QuotationID    int64     `json:"quotation_id" db:"quotation_id"`
	QuotationCode  string    `json:"quotation_code" db:"quotation_code"`
	QuotationTotal float64   `json:"quotation_total" db:"quotation_total"`
	ClientID       int64     `json:"client_id" db:"client_id"`
	ClientName     string    `json:"client_name" db:"client_name"`
	Description    string    `json:"description" db:"description"`
	StartDate      time.Time `json:"start_date" db:"start_date"`
	EstimatedEnd   time.Time `json:"estimated_end_date" db:"estimated_end_date"`
	AssignedBudget *float64  `json:"assigned_budget,omitempty" db:"assigned_budget"`
	Advance        float64   `json:"advance" db:"advance"`
	Status         Status    `json:"status" db:"status"`
	Version        int64     `json:"version" db:"version"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}

// MaxBudget is the largest budget assignable against the snapshotted
// quotation total.
func (d Deal) MaxBudget() float64 {
	return BudgetCapRatio * d.QuotationTotal
}

// DeriveInput carries the caller-supplied fields for a new deal.
type DeriveInput struct {
	Description    string
	StartDate      time.Time
	EstimatedEnd   time.Time
	AssignedBudget *float64
}

// Patch carries optional mutations applied while the deal is in EN_REVISION.
type Patch struct {
	Description    *string
	StartDate      *time.Time
	EstimatedEnd   *time.Time
	AssignedBudget *float64
}

// Derive builds a deal from an approved quotation, snapshotting its code,
// total and client by value. The budget cap admits exactly 75% of the
// quotation total.
func Derive(q quotations.Quotation, clientName string, in DeriveInput, now time.Time) (Deal, error) {
	if q.Status != quotations.StatusApproved {
		return Deal{}, &shared.PreconditionError{
			Document: q.Code,
			State:    string(q.Status),
			Required: string(quotations.StatusApproved),
		}
	}
	if len(q.Items) == 0 {
		return Deal{}, &shared.ValidationError{Document: q.Code, Field: "items", Reason: "quotation has no items to derive from"}
	}
	if in.Description == "" {
		return Deal{}, &shared.ValidationError{Field: "description", Reason: "description is required"}
	}
	if in.StartDate.IsZero() {
		return Deal{}, &shared.ValidationError{Field: "start_date", Reason: "start date is required"}
	}
	if in.EstimatedEnd.IsZero() {
		return Deal{}, &shared.ValidationError{Field: "estimated_end_date", Reason: "estimated end date is required"}
	}
	if !in.StartDate.Before(in.EstimatedEnd) {
		return Deal{}, &shared.ValidationError{Field: "estimated_end_date", Reason: "estimated end date must be after start date"}
	}
	if in.AssignedBudget != nil {
		if *in.AssignedBudget < 0 {
			return Deal{}, &shared.ValidationError{Field: "assigned_budget", Reason: "assigned budget cannot be negative"}
		}
		if *in.AssignedBudget > BudgetCapRatio*q.Total {
			return Deal{}, &shared.ValidationError{Field: "assigned_budget", Reason: "assigned budget exceeds 75% of the quotation total"}
		}
	}

	return Deal{
		QuotationID:    q.ID,
		QuotationCode:  q.Code,
		QuotationTotal: q.Total,
		ClientID:       q.ClientID,
		ClientName:     clientName,
		Description:    in.Description,
		StartDate:      in.StartDate,
		EstimatedEnd:   in.EstimatedEnd,
		AssignedBudget: in.AssignedBudget,
		Status:         StatusInReview,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// Apply returns a copy of the deal with the patch applied. The receiver is
// never modified.
func (d Deal) Apply(p Patch, now time.Time) (Deal, error) {
	if !d.Status.CanEdit() {
		return Deal{}, &shared.InvalidStateError{Document: d.Code, State: string(d.Status), Operation: "update"}
	}

	next := d
	if p.Description != nil {
		if *p.Description == "" {
			return Deal{}, &shared.ValidationError{Document: d.Code, Field: "description", Reason: "description cannot be emptied"}
		}
		next.Description = *p.Description
	}
	if p.StartDate != nil {
		next.StartDate = *p.StartDate
	}
	if p.EstimatedEnd != nil {
		next.EstimatedEnd = *p.EstimatedEnd
	}
	if !next.StartDate.Before(next.EstimatedEnd) {
		return Deal{}, &shared.ValidationError{Document: d.Code, Field: "estimated_end_date", Reason: "estimated end date must be after start date"}
	}
	if p.AssignedBudget != nil {
		if *p.AssignedBudget < 0 {
			return Deal{}, &shared.ValidationError{Document: d.Code, Field: "assigned_budget", Reason: "assigned budget cannot be negative"}
		}
		if *p.AssignedBudget > d.MaxBudget() {
			return Deal{}, &shared.ValidationError{Document: d.Code, Field: "assigned_budget", Reason: "assigned budget exceeds 75% of the quotation total"}
		}
		next.AssignedBudget = p.AssignedBudget
	}

	next.UpdatedAt = now
	return next, nil
}

// TransitionTo returns a copy of the deal in the target state. EN_REVISION is
// the only non-terminal state and is never a transition target.
func (d Deal) TransitionTo(target Status, now time.Time) (Deal, error) {
	if !target.IsValid() || target == StatusInReview || d.Status.IsTerminal() {
		return Deal{}, &shared.InvalidTransitionError{Document: d.Code, From: string(d.Status), To: string(target)}
	}
	next := d
	next.Status = target
	next.UpdatedAt = now
	return next, nil
}

// WithAdvance returns a copy carrying the recomputed sum of registered
// payments. The advance never exceeds the snapshotted quotation total.
func (d Deal) WithAdvance(advance float64, now time.Time) (Deal, error) {
	if advance < 0 {
		return Deal{}, &shared.ValidationError{Document: d.Code, Field: "advance", Reason: "advance cannot be negative"}
	}
	if advance > d.QuotationTotal {
		return Deal{}, &shared.ValidationError{Document: d.Code, Field: "advance", Reason: "advance exceeds the quotation total"}
	}
	next := d
	next.Advance = advance
	next.UpdatedAt = now
	return next, nil
}
