package repository

import (
	"context"

	"backend/internal/models"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// FeedbackRepository owns the append-only 'feedback' table.
type FeedbackRepository interface {
	SaveFeedback(ctx context.Context, feedback *models.Feedback) error
	GetFeedbackForInvoice(ctx context.Context, invoiceID int64) ([]*models.Feedback, error)
	CountFalsePositives(ctx context.Context) (int, error)
}

type feedbackRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

func NewFeedbackRepository(db *sqlx.DB, logger *zap.Logger) FeedbackRepository {
	return &feedbackRepository{db: db, logger: logger}
}

func (r *feedbackRepository) SaveFeedback(ctx context.Context, feedback *models.Feedback) error {
	query := `INSERT INTO feedback (invoice_id, false_positive, comment) VALUES ($1, $2, $3) RETURNING id, created_at`
	return r.db.QueryRowxContext(ctx, query, feedback.InvoiceID, feedback.FalsePositive, feedback.Comment).
		Scan(&feedback.ID, &feedback.CreatedAt)
}

func (r *feedbackRepository) GetFeedbackForInvoice(ctx context.Context, invoiceID int64) ([]*models.Feedback, error) {
	var entries []*models.Feedback
	query := `SELECT id, invoice_id, false_positive, comment, created_at FROM feedback WHERE invoice_id = $1 ORDER BY created_at DESC`
	err := r.db.SelectContext(ctx, &entries, query, invoiceID)
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *feedbackRepository) CountFalsePositives(ctx context.Context) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM feedback WHERE false_positive = TRUE`)
	if err != nil {
		return 0, err
	}
	return count, nil
}
