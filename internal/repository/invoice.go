package repository

import (
	"context"
	"database/sql"
	"time"

	"backend/internal/models"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// InvoiceRepository owns the 'invoices' table. The history lookup methods
// (CountExactMatch, RecentAmountsForVendor, VendorsAtAmountAndDate) back the
// heuristic checks in the scoring pipeline.
type InvoiceRepository interface {
	SaveInvoice(ctx context.Context, invoice *models.Invoice) error
	GetInvoiceByID(ctx context.Context, id int64) (*models.Invoice, error)
	GetRecentInvoices(ctx context.Context, limit int) ([]*models.Invoice, error)
	CountExactMatch(ctx context.Context, vendor string, amount float64, date string) (int, error)
	RecentAmountsForVendor(ctx context.Context, vendor string, limit int) ([]float64, error)
	VendorsAtAmountAndDate(ctx context.Context, amount float64, date string, limit int) ([]string, error)
	ClearFlag(ctx context.Context, id int64) error
	CountInvoices(ctx context.Context) (int, error)
	CountFlagged(ctx context.Context) (int, error)
	CountCreatedSince(ctx context.Context, since time.Time) (int, error)
}

type invoiceRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

func NewInvoiceRepository(db *sqlx.DB, logger *zap.Logger) InvoiceRepository {
	return &invoiceRepository{db: db, logger: logger}
}

func (r *invoiceRepository) SaveInvoice(ctx context.Context, invoice *models.Invoice) error {
	query := `INSERT INTO invoices (vendor, amount, invoice_number, invoice_date, metadata, risk_score, flagged)
	          VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id, created_at`
	return r.db.QueryRowxContext(ctx, query, invoice.Vendor, invoice.Amount, invoice.InvoiceNumber,
		invoice.InvoiceDate, invoice.Metadata, invoice.RiskScore, invoice.Flagged).
		Scan(&invoice.ID, &invoice.CreatedAt)
}

func (r *invoiceRepository) GetInvoiceByID(ctx context.Context, id int64) (*models.Invoice, error) {
	invoice := &models.Invoice{}
	query := `SELECT id, vendor, amount, invoice_number, invoice_date, metadata, risk_score, flagged, created_at
	          FROM invoices WHERE id = $1`
	err := r.db.GetContext(ctx, invoice, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return invoice, nil
}

func (r *invoiceRepository) GetRecentInvoices(ctx context.Context, limit int) ([]*models.Invoice, error) {
	var invoices []*models.Invoice
	query := `SELECT id, vendor, amount, invoice_number, invoice_date, metadata, risk_score, flagged, created_at
	          FROM invoices ORDER BY created_at DESC LIMIT $1`
	err := r.db.SelectContext(ctx, &invoices, query, limit)
	if err != nil {
		return nil, err
	}
	return invoices, nil
}

// CountExactMatch counts stored invoices matching the vendor (case-sensitive),
// amount and date exactly.
func (r *invoiceRepository) CountExactMatch(ctx context.Context, vendor string, amount float64, date string) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM invoices WHERE vendor = $1 AND amount = $2 AND invoice_date = $3`
	err := r.db.GetContext(ctx, &count, query, vendor, amount, date)
	if err != nil {
		return 0, err
	}
	return count, nil
}

// RecentAmountsForVendor returns up to limit amounts for the vendor
// (case-insensitive match), most recent first.
func (r *invoiceRepository) RecentAmountsForVendor(ctx context.Context, vendor string, limit int) ([]float64, error) {
	var amounts []float64
	query := `SELECT amount FROM invoices WHERE LOWER(vendor) = LOWER($1) ORDER BY created_at DESC LIMIT $2`
	err := r.db.SelectContext(ctx, &amounts, query, vendor, limit)
	if err != nil {
		return nil, err
	}
	return amounts, nil
}

// VendorsAtAmountAndDate returns vendors of invoices sharing the amount and
// date. The limit is a sampling bound: it keeps the lookup cheap, it does not
// have to be exhaustive for the mismatch check to fire.
func (r *invoiceRepository) VendorsAtAmountAndDate(ctx context.Context, amount float64, date string, limit int) ([]string, error) {
	var vendors []string
	query := `SELECT vendor FROM invoices WHERE amount = $1 AND invoice_date = $2 LIMIT $3`
	err := r.db.SelectContext(ctx, &vendors, query, amount, date, limit)
	if err != nil {
		return nil, err
	}
	return vendors, nil
}

func (r *invoiceRepository) ClearFlag(ctx context.Context, id int64) error {
	query := `UPDATE invoices SET flagged = FALSE WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		r.logger.Error("Failed to clear invoice flag", zap.Int64("invoice_id", id), zap.Error(err))
		return err
	}
	return nil
}

func (r *invoiceRepository) CountInvoices(ctx context.Context) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM invoices`)
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *invoiceRepository) CountFlagged(ctx context.Context) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM invoices WHERE flagged = TRUE`)
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *invoiceRepository) CountCreatedSince(ctx context.Context, since time.Time) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM invoices WHERE created_at > $1`, since)
	if err != nil {
		return 0, err
	}
	return count, nil
}
