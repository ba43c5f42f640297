package handler

import (
	"context"
	"net/http"
	"time"

	"backend/internal/model_client"

	"github.com/gin-gonic/gin"
)

type HealthHandler interface {
	GetHealth(c *gin.Context)
}

type healthHandler struct {
	modelClient *model_client.Client
}

func NewHealthHandler(modelClient *model_client.Client) HealthHandler {
	return &healthHandler{modelClient: modelClient}
}

// GetHealth handles GET /api/health. The backend is healthy even when the
// model service is down; its reachability is reported alongside.
func (h *healthHandler) GetHealth(c *gin.Context) {
	modelStatus := "ok"

	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	if _, err := h.modelClient.HealthCheck(ctx); err != nil {
		modelStatus = "unreachable"
	}

	c.JSON(http.StatusOK, gin.H{
		"status":        "ok",
		"model_service": modelStatus,
	})
}
