package invoices

import "time"

type LineInput struct {
	SourceItemID *int64  `json:"source_item_id"`
	Description  string  `json:"description" validate:"required"`
	Quantity     float64 `json:"quantity" validate:"required,gt=0"`
	UnitPrice    float64 `json:"unit_price" validate:"gt=0"`
	LineOrder    int     `json:"line_order" validate:"gte=0"`
}

type DeriveInvoiceRequest struct {
	DealID           int64       `json:"deal_id" validate:"required,gt=0"`
	QuotationID      *int64      `json:"quotation_id" validate:"omitempty,gt=0"`
	DueDate          time.Time   `json:"due_date" validate:"required"`
	PaymentMethod    string      `json:"payment_method" validate:"required"`
	PaymentReference *string     `json:"payment_reference"`
	Notes            *string     `json:"notes"`
	Lines            []LineInput `json:"lines" validate:"omitempty,dive"`
}

type UpdateInvoiceRequest struct {
	Version          int64        `json:"version" validate:"required,gt=0"`
	DueDate          *time.Time   `json:"due_date"`
	PaymentMethod    *string      `json:"payment_method"`
	PaymentReference *string      `json:"payment_reference"`
	Notes            *string      `json:"notes"`
	Lines            *[]LineInput `json:"lines" validate:"omitempty,min=1,dive"`
}

type TransitionInvoiceRequest struct {
	Status  string `json:"status" validate:"required"`
	Version int64  `json:"version" validate:"required,gt=0"`
}

type ListInvoicesRequest struct {
	Status   *Status
	DealID   *int64
	ClientID *int64
	Limit    int
	Offset   int
}

func toLines(in []LineInput) []Line {
	out := make([]Line, len(in))
	for i, l := range in {
		out[i] = Line{
			SourceItemID: l.SourceItemID,
			Description:  l.Description,
			Quantity:     l.Quantity,
			UnitPrice:    l.UnitPrice,
			LineOrder:    l.LineOrder,
		}
	}
	return out
}
