package clients

import "time"

// Client is a customer of the business. Commercial documents reference a
// client by id and snapshot the fields they need at derivation time.
type Client struct {
	ID         int64     `json:"id" db:"id"`
	Name       string    `json:"name" db:"name"`
	DocumentID string    `json:"document_id" db:"document_id"`
	Email      *string   `json:"email,omitempty" db:"email"`
	Phone      *string   `json:"phone,omitempty" db:"phone"`
	Address    *string   `json:"address,omitempty" db:"address"`
	City       *string   `json:"city,omitempty" db:"city"`
	IsActive   bool      `json:"is_active" db:"is_active"`
	Notes      *string   `json:"notes,omitempty" db:"notes"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}
