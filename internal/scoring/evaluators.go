package scoring

import (
	"context"
	"math"
	"strings"

	"go.uber.org/zap"
)

// HistoryStore is the slice of invoice storage the evaluators need. It is
// satisfied by repository.InvoiceRepository.
type HistoryStore interface {
	CountExactMatch(ctx context.Context, vendor string, amount float64, date string) (int, error)
	RecentAmountsForVendor(ctx context.Context, vendor string, limit int) ([]float64, error)
	VendorsAtAmountAndDate(ctx context.Context, amount float64, date string, limit int) ([]string, error)
}

// EvaluatorResult is the outcome of one heuristic check: an alert, no alert,
// or a store failure. Failures never abort a submission; they surface here so
// the fail-soft behaviour is an explicit contract rather than a swallowed
// exception.
type EvaluatorResult struct {
	Name  string
	Alert Alert
	Err   error
}

// Engine runs the history-based checks against a candidate. Evaluators run
// in a fixed order so the emitted alert sequence is deterministic.
type Engine struct {
	store  HistoryStore
	policy Policy
	logger *zap.Logger
}

func NewEngine(store HistoryStore, policy Policy, logger *zap.Logger) *Engine {
	return &Engine{store: store, policy: policy, logger: logger}
}

// Evaluate runs every evaluator and returns one result per evaluator, in
// invocation order: exact duplicate, amount anomaly, vendor mismatch.
func (e *Engine) Evaluate(ctx context.Context, candidate Candidate) []EvaluatorResult {
	results := []EvaluatorResult{
		e.checkExactDuplicate(ctx, candidate),
		e.checkAmountAnomaly(ctx, candidate),
		e.checkVendorMismatch(ctx, candidate),
	}

	for _, res := range results {
		if res.Err != nil {
			e.logger.Warn("Heuristic check failed, continuing without its signal",
				zap.String("evaluator", res.Name),
				zap.String("vendor", candidate.Vendor),
				zap.Error(res.Err))
		}
	}

	return results
}

// CollectAlerts extracts the emitted alerts in evaluator order.
func CollectAlerts(results []EvaluatorResult) []Alert {
	var alerts []Alert
	for _, res := range results {
		if res.Err == nil && res.Alert != "" {
			alerts = append(alerts, res.Alert)
		}
	}
	return alerts
}

// checkExactDuplicate looks for stored invoices with the same vendor
// (case-sensitive), amount and date. Needs a date to be meaningful.
func (e *Engine) checkExactDuplicate(ctx context.Context, c Candidate) EvaluatorResult {
	res := EvaluatorResult{Name: "exact_duplicate"}
	if c.Date == "" {
		return res
	}

	count, err := e.store.CountExactMatch(ctx, c.Vendor, c.Amount, c.Date)
	if err != nil {
		res.Err = err
		return res
	}
	if count > 0 {
		res.Alert = AlertDuplicateInvoice
	}
	return res
}

// checkAmountAnomaly compares the candidate amount against the vendor's
// recent history. With fewer than MinSamples amounts there is no signal:
// insufficient history is a no-op, not a failure. Uses the population
// standard deviation (divide by n, not n-1).
func (e *Engine) checkAmountAnomaly(ctx context.Context, c Candidate) EvaluatorResult {
	res := EvaluatorResult{Name: "amount_anomaly"}

	amounts, err := e.store.RecentAmountsForVendor(ctx, c.Vendor, e.policy.HistoryWindow)
	if err != nil {
		res.Err = err
		return res
	}

	valid := amounts[:0]
	for _, a := range amounts {
		if !math.IsNaN(a) && !math.IsInf(a, 0) {
			valid = append(valid, a)
		}
	}
	if len(valid) < e.policy.MinSamples {
		return res
	}

	mean, stddev := populationStats(valid)
	if c.Amount > mean+e.policy.StdDevMultiplier*stddev {
		res.Alert = AlertAmountAnomaly
	}
	return res
}

// checkVendorMismatch looks for invoices with the same amount and date filed
// under a different vendor. The candidate's own vendor is excluded
// case-insensitively. The store lookup is bounded by SimilarityLimit.
func (e *Engine) checkVendorMismatch(ctx context.Context, c Candidate) EvaluatorResult {
	res := EvaluatorResult{Name: "vendor_mismatch"}
	if c.Date == "" {
		return res
	}

	vendors, err := e.store.VendorsAtAmountAndDate(ctx, c.Amount, c.Date, e.policy.SimilarityLimit)
	if err != nil {
		res.Err = err
		return res
	}

	own := strings.ToLower(c.Vendor)
	for _, v := range vendors {
		if v != "" && strings.ToLower(v) != own {
			res.Alert = AlertVendorMismatch
			break
		}
	}
	return res
}

func populationStats(values []float64) (mean, stddev float64) {
	n := float64(len(values))
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean = sum / n

	var sqDiff float64
	for _, v := range values {
		sqDiff += (v - mean) * (v - mean)
	}
	return mean, math.Sqrt(sqDiff / n)
}
