package handler

import (
	"context"
	"time"

	"backend/internal/models"
	"backend/internal/scoring"
)

// fakePipeline implements ScoringPipeline with scripted results.
type fakePipeline struct {
	invoice   *models.Invoice
	alerts    []scoring.Alert
	err       error
	lastInput scoring.Candidate
	calls     int
}

func (f *fakePipeline) Submit(_ context.Context, candidate scoring.Candidate) (*models.Invoice, []scoring.Alert, error) {
	f.calls++
	f.lastInput = candidate
	if f.err != nil {
		return nil, nil, f.err
	}
	return f.invoice, f.alerts, nil
}

// fakeInvoiceRepo implements repository.InvoiceRepository for handler tests.
type fakeInvoiceRepo struct {
	invoices     map[int64]*models.Invoice
	recent       []*models.Invoice
	clearedFlags []int64
	getErr       error
}

func (f *fakeInvoiceRepo) SaveInvoice(context.Context, *models.Invoice) error { return nil }

func (f *fakeInvoiceRepo) GetInvoiceByID(_ context.Context, id int64) (*models.Invoice, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.invoices[id], nil
}

func (f *fakeInvoiceRepo) GetRecentInvoices(context.Context, int) ([]*models.Invoice, error) {
	return f.recent, nil
}

func (f *fakeInvoiceRepo) CountExactMatch(context.Context, string, float64, string) (int, error) {
	return 0, nil
}

func (f *fakeInvoiceRepo) RecentAmountsForVendor(context.Context, string, int) ([]float64, error) {
	return nil, nil
}

func (f *fakeInvoiceRepo) VendorsAtAmountAndDate(context.Context, float64, string, int) ([]string, error) {
	return nil, nil
}

func (f *fakeInvoiceRepo) ClearFlag(_ context.Context, id int64) error {
	f.clearedFlags = append(f.clearedFlags, id)
	if invoice, ok := f.invoices[id]; ok {
		invoice.Flagged = false
	}
	return nil
}

func (f *fakeInvoiceRepo) CountInvoices(context.Context) (int, error) { return len(f.invoices), nil }

func (f *fakeInvoiceRepo) CountFlagged(context.Context) (int, error) {
	count := 0
	for _, invoice := range f.invoices {
		if invoice.Flagged {
			count++
		}
	}
	return count, nil
}

func (f *fakeInvoiceRepo) CountCreatedSince(context.Context, time.Time) (int, error) { return 0, nil }

// fakeFeedbackRepo implements repository.FeedbackRepository.
type fakeFeedbackRepo struct {
	saved   []*models.Feedback
	saveErr error
}

func (f *fakeFeedbackRepo) SaveFeedback(_ context.Context, feedback *models.Feedback) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	feedback.ID = int64(len(f.saved) + 1)
	feedback.CreatedAt = time.Now()
	f.saved = append(f.saved, feedback)
	return nil
}

func (f *fakeFeedbackRepo) GetFeedbackForInvoice(_ context.Context, invoiceID int64) ([]*models.Feedback, error) {
	var entries []*models.Feedback
	for _, fb := range f.saved {
		if fb.InvoiceID == invoiceID {
			entries = append(entries, fb)
		}
	}
	return entries, nil
}

func (f *fakeFeedbackRepo) CountFalsePositives(context.Context) (int, error) {
	count := 0
	for _, fb := range f.saved {
		if fb.FalsePositive {
			count++
		}
	}
	return count, nil
}
