package workorders

import (
	"time"

	"github.com/queenscorner/queenscorner-erp/internal/commerce/shared"
)

type DetailInput struct {
	Description string  `json:"description" validate:"required"`
	Quantity    float64 `json:"quantity" validate:"required,gt=0"`
	UnitPrice   float64 `json:"unit_price" validate:"gte=0"`
	LineOrder   int     `json:"line_order" validate:"gte=0"`
}

type DeriveWorkOrderRequest struct {
	DealID       int64         `json:"deal_id" validate:"required,gt=0"`
	Description  string        `json:"description" validate:"required"`
	StartDate    time.Time     `json:"start_date" validate:"required"`
	EstimatedEnd *time.Time    `json:"estimated_end_date"`
	Details      []DetailInput `json:"details" validate:"required,min=1,dive"`
}

type UpdateWorkOrderRequest struct {
	Version      int64          `json:"version" validate:"required,gt=0"`
	Description  *string        `json:"description"`
	StartDate    *time.Time     `json:"start_date"`
	EstimatedEnd *time.Time     `json:"estimated_end_date"`
	Details      *[]DetailInput `json:"details" validate:"omitempty,min=1,dive"`
}

type TransitionWorkOrderRequest struct {
	Status  string `json:"status" validate:"required"`
	Version int64  `json:"version" validate:"required,gt=0"`
}

type ListWorkOrdersRequest struct {
	Status *Status
	DealID *int64
	Limit  int
	Offset int
}

func toLineItems(in []DetailInput) []shared.LineItem {
	out := make([]shared.LineItem, len(in))
	for i, d := range in {
		out[i] = shared.LineItem{
			Description: d.Description,
			Quantity:    d.Quantity,
			UnitPrice:   d.UnitPrice,
			LineOrder:   d.LineOrder,
		}
	}
	return out
}
