package quotations

import (
	"time"

	"github.com/queenscorner/queenscorner-erp/internal/commerce/shared"
)

type LineItemInput struct {
	Description string  `json:"description" validate:"required"`
	Quantity    float64 `json:"quantity" validate:"required,gt=0"`
	UnitPrice   float64 `json:"unit_price" validate:"gt=0"`
	LineOrder   int     `json:"line_order" validate:"gte=0"`
}

type CreateQuotationRequest struct {
	ClientID    int64           `json:"client_id" validate:"required,gt=0"`
	Description string          `json:"description" validate:"required"`
	ValidUntil  time.Time       `json:"valid_until" validate:"required"`
	Notes       *string         `json:"notes"`
	Items       []LineItemInput `json:"items" validate:"required,min=1,dive"`
}

type UpdateQuotationRequest struct {
	Version     int64            `json:"version" validate:"required,gt=0"`
	Description *string          `json:"description"`
	ValidUntil  *time.Time       `json:"valid_until"`
	Notes       *string          `json:"notes"`
	Items       *[]LineItemInput `json:"items" validate:"omitempty,min=1,dive"`
}

type TransitionQuotationRequest struct {
	Status  string `json:"status" validate:"required"`
	Version int64  `json:"version" validate:"required,gt=0"`
}

type ListQuotationsRequest struct {
	Status   *Status
	ClientID *int64
	Limit    int
	Offset   int
}

func toLineItems(in []LineItemInput) []shared.LineItem {
	out := make([]shared.LineItem, len(in))
	for i, item := range in {
		out[i] = shared.LineItem{
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			LineOrder:   item.LineOrder,
		}
	}
	return out
}
