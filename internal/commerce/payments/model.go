package payments

import "time"

// Payment is money received against a deal. The sum of a deal's payments is
// mirrored onto the deal as its advance.
type Payment struct {
	ID        int64     `json:"id" db:"id"`
	DealID    int64     `json:"deal_id" db:"deal_id"`
	Amount    float64   `json:"amount" db:"amount"`
	Method    string    `json:"method" db:"method"`
	Reference *string   `json:"reference,omitempty" db:"reference"`
	Notes     *string   `json:"notes,omitempty" db:"notes"`
	PaidAt    time.Time `json:"paid_at" db:"paid_at"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type RegisterPaymentRequest struct {
	DealID    int64      `json:"deal_id" validate:"required,gt=0"`
	Amount    float64    `json:"amount" validate:"required,gt=0"`
	Method    string     `json:"method" validate:"required"`
	Reference *string    `json:"reference"`
	Notes     *string    `json:"notes"`
	PaidAt    *time.Time `json:"paid_at"`
}

type ListPaymentsRequest struct {
	DealID *int64
	Limit  int
	Offset int
}
