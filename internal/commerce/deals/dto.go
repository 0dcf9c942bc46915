package deals

import "time"

type DeriveDealRequest struct {
	QuotationID    int64     `json:"quotation_id" validate:"required,gt=0"`
	Description    string    `json:"description" validate:"required"`
	StartDate      time.Time `json:"start_date" validate:"required"`
	EstimatedEnd   time.Time `json:"estimated_end_date" validate:"required"`
	AssignedBudget *float64  `json:"assigned_budget" validate:"omitempty,gte=0"`
}

type UpdateDealRequest struct {
	Version        int64      `json:"version" validate:"required,gt=0"`
	Description    *string    `json:"description"`
	StartDate      *time.Time `json:"start_date"`
	EstimatedEnd   *time.Time `json:"estimated_end_date"`
	AssignedBudget *float64   `json:"assigned_budget" validate:"omitempty,gte=0"`
}

type TransitionDealRequest struct {
	Status  string `json:"status" validate:"required"`
	Version int64  `json:"version" validate:"required,gt=0"`
}

type ListDealsRequest struct {
	Status      *Status
	ClientID    *int64
	QuotationID *int64
	Limit       int
	Offset      int
}
