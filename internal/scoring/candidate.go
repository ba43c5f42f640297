package scoring

import (
	"math"
	"time"

	"backend/internal/models"
)

// Candidate is an invoice submitted for scoring, not yet persisted.
// Date is YYYY-MM-DD or empty when the caller supplied none.
type Candidate struct {
	Vendor        string
	Amount        float64
	Date          string
	InvoiceNumber string
	Metadata      models.Metadata
}

// ValidationError rejects a candidate before any model call or heuristic
// work happens. No record is created for an invalid candidate.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// ValidateCandidate enforces the input invariants: vendor present, amount a
// positive finite number, date (when given) a real calendar date. Amounts are
// parsed at the HTTP boundary; nothing unparsed reaches the evaluators.
func ValidateCandidate(c Candidate) error {
	if c.Vendor == "" {
		return &ValidationError{Reason: "vendor and amount are required"}
	}
	if c.Amount <= 0 || math.IsNaN(c.Amount) || math.IsInf(c.Amount, 0) {
		return &ValidationError{Reason: "amount must be a positive number"}
	}
	if c.Date != "" {
		if _, err := time.Parse("2006-01-02", c.Date); err != nil {
			return &ValidationError{Reason: "date must be in YYYY-MM-DD format"}
		}
	}
	return nil
}
