package scoring

// Alert is a named heuristic signal attached to a scored invoice. The
// vocabulary is closed: adding an evaluator means adding a constant here.
type Alert string

const (
	AlertDuplicateInvoice Alert = "duplicate_invoice_detected"
	AlertAmountAnomaly    Alert = "amount_anomaly_vs_history"
	AlertVendorMismatch   Alert = "vendor_mismatch_with_similar_records"
)

// AlertStrings converts alerts for embedding into invoice metadata. The
// result is never nil so the stored metadata always carries an alerts key.
func AlertStrings(alerts []Alert) []string {
	out := make([]string, 0, len(alerts))
	for _, a := range alerts {
		out = append(out, string(a))
	}
	return out
}
