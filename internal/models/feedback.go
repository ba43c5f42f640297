package models

import "time"

// Feedback represents a correction stored in the 'feedback' table.
// Rows are append-only; one invoice may accumulate many of them.
type Feedback struct {
	ID            int64     `db:"id" json:"id"`
	InvoiceID     int64     `db:"invoice_id" json:"invoice_id"`
	FalsePositive bool      `db:"false_positive" json:"false_positive"`
	Comment       *string   `db:"comment" json:"comment,omitempty"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}
