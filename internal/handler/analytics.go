package handler

import (
	"net/http"
	"time"

	"backend/internal/models"
	"backend/internal/repository"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AnalyticsHandler interface {
	GetDashboard(c *gin.Context)
}

type analyticsHandler struct {
	invoiceRepo  repository.InvoiceRepository
	feedbackRepo repository.FeedbackRepository
	logger       *zap.Logger
}

func NewAnalyticsHandler(invoiceRepo repository.InvoiceRepository, feedbackRepo repository.FeedbackRepository, logger *zap.Logger) AnalyticsHandler {
	return &analyticsHandler{
		invoiceRepo:  invoiceRepo,
		feedbackRepo: feedbackRepo,
		logger:       logger,
	}
}

// DashboardStats represents the statistics for the dashboard. AlertCounts is
// computed over the most recent invoices, not the full table.
type DashboardStats struct {
	TotalInvoices        int               `json:"total_invoices"`
	FlaggedInvoices      int               `json:"flagged_invoices"`
	FlaggedRate          float64           `json:"flagged_rate"`
	FalsePositiveReports int               `json:"false_positive_reports"`
	Invoices24h          int               `json:"invoices_24h"`
	AlertCounts          map[string]int    `json:"alert_counts"`
	RecentInvoices       []*models.Invoice `json:"recent_invoices"`
}

// GetDashboard handles GET /api/analytics/dashboard.
func (h *analyticsHandler) GetDashboard(c *gin.Context) {
	ctx := c.Request.Context()

	total, err := h.invoiceRepo.CountInvoices(ctx)
	if err != nil {
		h.logger.Error("Failed to count invoices for dashboard", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve dashboard data"})
		return
	}

	flagged, err := h.invoiceRepo.CountFlagged(ctx)
	if err != nil {
		h.logger.Error("Failed to count flagged invoices", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve dashboard data"})
		return
	}

	last24h, err := h.invoiceRepo.CountCreatedSince(ctx, time.Now().Add(-24*time.Hour))
	if err != nil {
		h.logger.Error("Failed to count recent invoices", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve dashboard data"})
		return
	}

	falsePositives, err := h.feedbackRepo.CountFalsePositives(ctx)
	if err != nil {
		h.logger.Error("Failed to count false positive feedback", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve dashboard data"})
		return
	}

	recent, err := h.invoiceRepo.GetRecentInvoices(ctx, 100)
	if err != nil {
		h.logger.Error("Failed to get recent invoices for dashboard", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve dashboard data"})
		return
	}

	alertCounts := make(map[string]int)
	for _, invoice := range recent {
		for _, alert := range invoice.Metadata.Alerts {
			alertCounts[alert]++
		}
	}

	flaggedRate := 0.0
	if total > 0 {
		flaggedRate = float64(flagged) / float64(total)
	}

	recentInvoices := recent
	if len(recentInvoices) > 10 {
		recentInvoices = recent[:10]
	}
	if recentInvoices == nil {
		recentInvoices = []*models.Invoice{}
	}

	stats := DashboardStats{
		TotalInvoices:        total,
		FlaggedInvoices:      flagged,
		FlaggedRate:          flaggedRate,
		FalsePositiveReports: falsePositives,
		Invoices24h:          last24h,
		AlertCounts:          alertCounts,
		RecentInvoices:       recentInvoices,
	}

	c.JSON(http.StatusOK, stats)
}
