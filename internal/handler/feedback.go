package handler

import (
	"net/http"
	"strconv"

	"backend/internal/models"
	"backend/internal/repository"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type FeedbackHandler interface {
	SubmitFeedback(c *gin.Context)
	ListFeedback(c *gin.Context)
}

type feedbackHandler struct {
	invoiceRepo  repository.InvoiceRepository
	feedbackRepo repository.FeedbackRepository
	logger       *zap.Logger
}

func NewFeedbackHandler(invoiceRepo repository.InvoiceRepository, feedbackRepo repository.FeedbackRepository, logger *zap.Logger) FeedbackHandler {
	return &feedbackHandler{
		invoiceRepo:  invoiceRepo,
		feedbackRepo: feedbackRepo,
		logger:       logger,
	}
}

type FeedbackRequest struct {
	FalsePositive bool   `json:"false_positive"`
	Comment       string `json:"comment"`
}

// SubmitFeedback handles POST /api/invoices/:id/feedback. Feedback is an
// append-only correction; marking a false positive also clears the flag on
// the invoice. Clearing is unconditional and idempotent: feedback can only
// un-flag, never re-flag.
func (h *feedbackHandler) SubmitFeedback(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid invoice ID"})
		return
	}

	var req FeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Failed to bind JSON for feedback", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	invoice, err := h.invoiceRepo.GetInvoiceByID(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("Failed to look up invoice for feedback", zap.Int64("invoice_id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record feedback"})
		return
	}
	if invoice == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Invoice not found"})
		return
	}

	feedback := &models.Feedback{
		InvoiceID:     id,
		FalsePositive: req.FalsePositive,
	}
	if req.Comment != "" {
		comment := req.Comment
		feedback.Comment = &comment
	}

	if err := h.feedbackRepo.SaveFeedback(c.Request.Context(), feedback); err != nil {
		h.logger.Error("Failed to save feedback", zap.Int64("invoice_id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record feedback"})
		return
	}

	if req.FalsePositive {
		if err := h.invoiceRepo.ClearFlag(c.Request.Context(), id); err != nil {
			h.logger.Error("Failed to clear invoice flag", zap.Int64("invoice_id", id), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record feedback"})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// ListFeedback handles GET /api/invoices/:id/feedback.
func (h *feedbackHandler) ListFeedback(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid invoice ID"})
		return
	}

	entries, err := h.feedbackRepo.GetFeedbackForInvoice(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("Failed to list feedback", zap.Int64("invoice_id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve feedback"})
		return
	}
	if entries == nil {
		entries = []*models.Feedback{}
	}

	c.JSON(http.StatusOK, gin.H{"feedback": entries})
}
