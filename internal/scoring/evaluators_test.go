package scoring

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeHistoryStore is an in-memory HistoryStore for evaluator tests.
type fakeHistoryStore struct {
	exactMatches  int
	vendorAmounts []float64
	vendors       []string

	countErr   error
	amountsErr error
	vendorsErr error

	lastAmountLimit int
	lastVendorLimit int
}

func (f *fakeHistoryStore) CountExactMatch(_ context.Context, vendor string, amount float64, date string) (int, error) {
	if f.countErr != nil {
		return 0, f.countErr
	}
	return f.exactMatches, nil
}

func (f *fakeHistoryStore) RecentAmountsForVendor(_ context.Context, vendor string, limit int) ([]float64, error) {
	f.lastAmountLimit = limit
	if f.amountsErr != nil {
		return nil, f.amountsErr
	}
	return f.vendorAmounts, nil
}

func (f *fakeHistoryStore) VendorsAtAmountAndDate(_ context.Context, amount float64, date string, limit int) ([]string, error) {
	f.lastVendorLimit = limit
	if f.vendorsErr != nil {
		return nil, f.vendorsErr
	}
	return f.vendors, nil
}

func newTestEngine(store *fakeHistoryStore) *Engine {
	return NewEngine(store, DefaultPolicy(), zap.NewNop())
}

func alertsFor(t *testing.T, store *fakeHistoryStore, c Candidate) []Alert {
	t.Helper()
	return CollectAlerts(newTestEngine(store).Evaluate(context.Background(), c))
}

func TestExactDuplicate(t *testing.T) {
	candidate := Candidate{Vendor: "Globex", Amount: 9800, Date: "2026-01-20"}

	t.Run("emits alert when an identical invoice exists", func(t *testing.T) {
		store := &fakeHistoryStore{exactMatches: 1}
		alerts := alertsFor(t, store, candidate)
		assert.Contains(t, alerts, AlertDuplicateInvoice)
	})

	t.Run("no alert without a stored match", func(t *testing.T) {
		store := &fakeHistoryStore{exactMatches: 0}
		alerts := alertsFor(t, store, candidate)
		assert.NotContains(t, alerts, AlertDuplicateInvoice)
	})

	t.Run("skipped when the candidate has no date", func(t *testing.T) {
		store := &fakeHistoryStore{exactMatches: 5}
		noDate := candidate
		noDate.Date = ""
		alerts := alertsFor(t, store, noDate)
		assert.NotContains(t, alerts, AlertDuplicateInvoice)
	})
}

func TestAmountAnomaly(t *testing.T) {
	t.Run("zero stddev flags any amount above the mean", func(t *testing.T) {
		store := &fakeHistoryStore{vendorAmounts: []float64{100, 100, 100, 100}}
		alerts := alertsFor(t, store, Candidate{Vendor: "Acme", Amount: 101})
		assert.Contains(t, alerts, AlertAmountAnomaly)
	})

	t.Run("amount equal to the mean is not anomalous", func(t *testing.T) {
		store := &fakeHistoryStore{vendorAmounts: []float64{100, 100, 100, 100}}
		alerts := alertsFor(t, store, Candidate{Vendor: "Acme", Amount: 100})
		assert.NotContains(t, alerts, AlertAmountAnomaly)
	})

	t.Run("silent with fewer than three samples", func(t *testing.T) {
		store := &fakeHistoryStore{vendorAmounts: []float64{10, 10}}
		alerts := alertsFor(t, store, Candidate{Vendor: "Acme", Amount: 1e9})
		assert.Empty(t, alerts)
	})

	t.Run("uses population stddev, not sample stddev", func(t *testing.T) {
		// amounts 90,100,110: mean 100, population σ ≈ 8.1650 → threshold ≈ 124.49.
		// With the sample (n-1) deviation the threshold would be 130.
		store := &fakeHistoryStore{vendorAmounts: []float64{90, 100, 110}}
		alerts := alertsFor(t, store, Candidate{Vendor: "Acme", Amount: 127})
		assert.Contains(t, alerts, AlertAmountAnomaly)
	})

	t.Run("amounts within threshold stay silent", func(t *testing.T) {
		store := &fakeHistoryStore{vendorAmounts: []float64{90, 100, 110}}
		alerts := alertsFor(t, store, Candidate{Vendor: "Acme", Amount: 120})
		assert.NotContains(t, alerts, AlertAmountAnomaly)
	})

	t.Run("queries at most the configured history window", func(t *testing.T) {
		store := &fakeHistoryStore{vendorAmounts: []float64{100, 100, 100}}
		alertsFor(t, store, Candidate{Vendor: "Acme", Amount: 100})
		assert.Equal(t, DefaultPolicy().HistoryWindow, store.lastAmountLimit)
	})
}

func TestVendorMismatch(t *testing.T) {
	candidate := Candidate{Vendor: "Other Co", Amount: 450.75, Date: "2026-02-01"}

	t.Run("emits alert when another vendor shares amount and date", func(t *testing.T) {
		store := &fakeHistoryStore{vendors: []string{"Stark Supplies"}}
		alerts := alertsFor(t, store, candidate)
		assert.Contains(t, alerts, AlertVendorMismatch)
	})

	t.Run("the candidate's own vendor is excluded case-insensitively", func(t *testing.T) {
		store := &fakeHistoryStore{vendors: []string{"STARK SUPPLIES", "stark supplies"}}
		self := Candidate{Vendor: "Stark Supplies", Amount: 450.75, Date: "2026-02-01"}
		alerts := alertsFor(t, store, self)
		assert.NotContains(t, alerts, AlertVendorMismatch)
	})

	t.Run("skipped when the candidate has no date", func(t *testing.T) {
		store := &fakeHistoryStore{vendors: []string{"Stark Supplies"}}
		noDate := candidate
		noDate.Date = ""
		alerts := alertsFor(t, store, noDate)
		assert.NotContains(t, alerts, AlertVendorMismatch)
	})

	t.Run("lookup is bounded by the similarity limit", func(t *testing.T) {
		store := &fakeHistoryStore{}
		alertsFor(t, store, candidate)
		assert.Equal(t, DefaultPolicy().SimilarityLimit, store.lastVendorLimit)
	})
}

func TestEvaluatorsFailSoft(t *testing.T) {
	storeErr := errors.New("connection refused")

	t.Run("a failing check contributes no alert and no abort", func(t *testing.T) {
		store := &fakeHistoryStore{
			countErr: storeErr,
			// the other checks still fire
			vendorAmounts: []float64{100, 100, 100},
			vendors:       []string{"Someone Else"},
		}
		results := newTestEngine(store).Evaluate(context.Background(), Candidate{Vendor: "Acme", Amount: 500, Date: "2026-01-01"})
		require.Len(t, results, 3)

		assert.Error(t, results[0].Err)
		assert.Empty(t, results[0].Alert)

		alerts := CollectAlerts(results)
		assert.Equal(t, []Alert{AlertAmountAnomaly, AlertVendorMismatch}, alerts)
	})

	t.Run("all checks failing yields no alerts at all", func(t *testing.T) {
		store := &fakeHistoryStore{countErr: storeErr, amountsErr: storeErr, vendorsErr: storeErr}
		results := newTestEngine(store).Evaluate(context.Background(), Candidate{Vendor: "Acme", Amount: 500, Date: "2026-01-01"})
		assert.Empty(t, CollectAlerts(results))
	})
}

func TestAlertOrderIsDeterministic(t *testing.T) {
	store := &fakeHistoryStore{
		exactMatches:  1,
		vendorAmounts: []float64{100, 100, 100},
		vendors:       []string{"Someone Else"},
	}
	candidate := Candidate{Vendor: "Acme", Amount: 200, Date: "2026-01-01"}

	alerts := alertsFor(t, store, candidate)
	assert.Equal(t, []Alert{AlertDuplicateInvoice, AlertAmountAnomaly, AlertVendorMismatch}, alerts)
}
