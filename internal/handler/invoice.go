package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"backend/internal/models"
	"backend/internal/repository"
	"backend/internal/scoring"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ScoringPipeline is the slice of the scoring pipeline the handler needs.
type ScoringPipeline interface {
	Submit(ctx context.Context, candidate scoring.Candidate) (*models.Invoice, []scoring.Alert, error)
}

type InvoiceHandler interface {
	SubmitInvoice(c *gin.Context)
	ListInvoices(c *gin.Context)
	GetInvoiceByID(c *gin.Context)
}

// UploadConfig controls where invoice files land and how they are served.
type UploadConfig struct {
	Dir     string
	BaseURL string
}

type invoiceHandler struct {
	pipeline    ScoringPipeline
	invoiceRepo repository.InvoiceRepository
	uploads     UploadConfig
	logger      *zap.Logger
}

func NewInvoiceHandler(pipeline ScoringPipeline, invoiceRepo repository.InvoiceRepository, uploads UploadConfig, logger *zap.Logger) InvoiceHandler {
	return &invoiceHandler{
		pipeline:    pipeline,
		invoiceRepo: invoiceRepo,
		uploads:     uploads,
		logger:      logger,
	}
}

// allowedUploadMIMEs whitelists invoice file formats.
var allowedUploadMIMEs = map[string]bool{
	"application/pdf": true,
	"image/png":       true,
	"image/jpeg":      true,
}

var unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9.\-_]`)

// SubmitInvoiceRequest accepts either a JSON body or multipart form fields.
// Amount is accepted as number or numeric string and parsed fail-fast before
// anything reaches the scoring pipeline.
type SubmitInvoiceRequest struct {
	Vendor        string `json:"vendor"`
	Amount        any    `json:"amount"`
	Date          string `json:"date"`
	InvoiceNumber string `json:"invoice_number"`
	Metadata      any    `json:"metadata"`
}

// SubmitInvoiceResponse is the stored record plus the alerts for immediate
// UI feedback.
type SubmitInvoiceResponse struct {
	models.Invoice
	Alerts []string `json:"alerts"`
}

// SubmitInvoice handles POST /api/invoices.
func (h *invoiceHandler) SubmitInvoice(c *gin.Context) {
	var req SubmitInvoiceRequest
	var fileURL string

	if strings.HasPrefix(c.ContentType(), "multipart/form-data") {
		req = SubmitInvoiceRequest{
			Vendor:        c.PostForm("vendor"),
			Amount:        c.PostForm("amount"),
			Date:          c.PostForm("date"),
			InvoiceNumber: c.PostForm("invoice_number"),
			Metadata:      c.PostForm("metadata"),
		}

		file, err := c.FormFile("file")
		if err == nil && file != nil {
			url, uploadErr := h.storeUpload(c, file)
			if uploadErr != nil {
				var unsupported *unsupportedFileError
				if errors.As(uploadErr, &unsupported) {
					c.JSON(http.StatusUnsupportedMediaType, gin.H{"error": "File format not supported."})
					return
				}
				h.logger.Error("Failed to store uploaded file", zap.Error(uploadErr))
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store uploaded file"})
				return
			}
			fileURL = url
		}
	} else {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.logger.Error("Failed to bind JSON for invoice submission", zap.Error(err))
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	if req.Vendor == "" || req.Amount == nil || req.Amount == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "vendor and amount are required"})
		return
	}

	amount, err := parseAmount(req.Amount)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "amount must be a positive number"})
		return
	}

	metadata := parseMetadata(req.Metadata)
	metadata.FileURL = fileURL

	candidate := scoring.Candidate{
		Vendor:        req.Vendor,
		Amount:        amount,
		Date:          req.Date,
		InvoiceNumber: req.InvoiceNumber,
		Metadata:      metadata,
	}

	invoice, alerts, err := h.pipeline.Submit(c.Request.Context(), candidate)
	if err != nil {
		var validation *scoring.ValidationError
		switch {
		case errors.As(err, &validation):
			c.JSON(http.StatusBadRequest, gin.H{"error": validation.Reason})
		case errors.Is(err, scoring.ErrModelUnavailable):
			c.JSON(http.StatusBadGateway, gin.H{"error": "model service unavailable"})
		default:
			h.logger.Error("Failed to score invoice", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process invoice"})
		}
		return
	}

	c.JSON(http.StatusCreated, SubmitInvoiceResponse{
		Invoice: *invoice,
		Alerts:  scoring.AlertStrings(alerts),
	})
}

// ListInvoices handles GET /api/invoices.
func (h *invoiceHandler) ListInvoices(c *gin.Context) {
	limit := 100
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > 1000 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit"})
			return
		}
		limit = parsed
	}

	invoices, err := h.invoiceRepo.GetRecentInvoices(c.Request.Context(), limit)
	if err != nil {
		h.logger.Error("Failed to list invoices", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve invoices"})
		return
	}
	if invoices == nil {
		invoices = []*models.Invoice{}
	}

	c.JSON(http.StatusOK, invoices)
}

// GetInvoiceByID handles GET /api/invoices/:id.
func (h *invoiceHandler) GetInvoiceByID(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid invoice ID"})
		return
	}

	invoice, err := h.invoiceRepo.GetInvoiceByID(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("Failed to get invoice", zap.Int64("id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve invoice"})
		return
	}
	if invoice == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Invoice not found"})
		return
	}

	c.JSON(http.StatusOK, invoice)
}

type unsupportedFileError struct {
	mime string
}

func (e *unsupportedFileError) Error() string {
	return "unsupported file format: " + e.mime
}

// storeUpload saves an uploaded invoice file under the uploads dir with a
// sanitized, timestamped name and returns its public URL.
func (h *invoiceHandler) storeUpload(c *gin.Context, file *multipart.FileHeader) (string, error) {
	mime := file.Header.Get("Content-Type")
	if !allowedUploadMIMEs[mime] {
		return "", &unsupportedFileError{mime: mime}
	}

	safe := unsafeFilenameChars.ReplaceAllString(filepath.Base(file.Filename), "_")
	name := fmt.Sprintf("%d-%s", time.Now().UnixMilli(), safe)
	dst := filepath.Join(h.uploads.Dir, name)

	if err := c.SaveUploadedFile(file, dst); err != nil {
		return "", err
	}

	return h.uploads.BaseURL + "/uploads/" + name, nil
}

// parseAmount coerces the loosely typed amount field into a float64.
// Accepts JSON numbers and numeric strings, nothing else.
func parseAmount(v any) (float64, error) {
	switch a := v.(type) {
	case float64:
		return a, nil
	case json.Number:
		return a.Float64()
	case string:
		return strconv.ParseFloat(strings.TrimSpace(a), 64)
	default:
		return 0, fmt.Errorf("unsupported amount type %T", v)
	}
}

// parseMetadata mirrors the submission contract: an object is taken as-is, a
// string is parsed as JSON and kept under "raw" when it is not valid JSON.
func parseMetadata(v any) models.Metadata {
	switch m := v.(type) {
	case nil:
		return models.Metadata{}
	case string:
		if m == "" {
			return models.Metadata{}
		}
		var meta models.Metadata
		if err := json.Unmarshal([]byte(m), &meta); err != nil {
			return models.Metadata{Extra: map[string]any{"raw": m}}
		}
		return meta
	case map[string]any:
		raw, err := json.Marshal(m)
		if err != nil {
			return models.Metadata{}
		}
		var meta models.Metadata
		if err := json.Unmarshal(raw, &meta); err != nil {
			return models.Metadata{}
		}
		return meta
	default:
		return models.Metadata{}
	}
}
