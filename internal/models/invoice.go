package models

import "time"

// Invoice represents an invoice stored in the 'invoices' table.
// RiskScore is whatever the model service returned; Flagged is the fused
// decision and may be true even when the score is low.
type Invoice struct {
	ID            int64     `db:"id" json:"id"`
	Vendor        string    `db:"vendor" json:"vendor"`
	Amount        float64   `db:"amount" json:"amount"`
	InvoiceNumber *string   `db:"invoice_number" json:"invoice_number,omitempty"`
	InvoiceDate   *string   `db:"invoice_date" json:"date,omitempty"` // YYYY-MM-DD
	Metadata      Metadata  `db:"metadata" json:"metadata"`
	RiskScore     float64   `db:"risk_score" json:"risk_score"`
	Flagged       bool      `db:"flagged" json:"flagged"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}
