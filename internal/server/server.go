package server

import (
	"time"

	"backend/internal/config"
	"backend/internal/handler"
	"backend/internal/middleware"
	"backend/internal/model_client"
	"backend/internal/repository"
	"backend/internal/scoring"
	"backend/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"go.uber.org/zap"
)

type Server struct {
	router *gin.Engine
	db     *sqlx.DB
	cfg    *config.Config
	logger *zap.Logger
	log    *logrus.Logger
}

func NewServer(db *sqlx.DB, cfg *config.Config, logger *zap.Logger, log *logrus.Logger, modelClient *model_client.Client) *Server {
	router := gin.Default()

	s := &Server{
		router: router,
		db:     db,
		cfg:    cfg,
		logger: logger,
		log:    log,
	}

	s.setupRoutes(modelClient)

	return s
}

func (s *Server) setupRoutes(modelClient *model_client.Client) {
	// Repositories
	invoiceRepo := repository.NewInvoiceRepository(s.db, s.logger)
	feedbackRepo := repository.NewFeedbackRepository(s.db, s.logger)
	authRepo := repository.NewAuthRepository(s.db, s.log)

	// Scoring pipeline
	policy := scoring.PolicyFromConfig(s.cfg.Scoring)
	engine := scoring.NewEngine(invoiceRepo, policy, s.logger)
	pipeline := scoring.NewPipeline(
		modelClient,
		engine,
		invoiceRepo,
		policy,
		time.Duration(s.cfg.ModelService.TimeoutSeconds)*time.Second,
		s.logger,
	)

	// Auth components
	authService := service.NewAuthService(
		authRepo,
		[]byte(s.cfg.Auth.JWTSecret),
		time.Duration(s.cfg.Auth.TokenTTLHours)*time.Hour,
		s.logger,
	)
	authHandler := handler.NewAuthHandler(authService, s.log)

	// Invoice handlers
	uploads := handler.UploadConfig{Dir: s.cfg.Uploads.Dir, BaseURL: s.cfg.Uploads.BaseURL}
	invoiceHandler := handler.NewInvoiceHandler(pipeline, invoiceRepo, uploads, s.logger)
	feedbackHandler := handler.NewFeedbackHandler(invoiceRepo, feedbackRepo, s.logger)
	analyticsHandler := handler.NewAnalyticsHandler(invoiceRepo, feedbackRepo, s.logger)
	healthHandler := handler.NewHealthHandler(modelClient)

	// Health check and uploaded invoice files
	s.router.GET("/api/health", healthHandler.GetHealth)
	s.router.Static("/uploads", s.cfg.Uploads.Dir)

	// Authentication routes
	authGroup := s.router.Group("/api/auth")
	authGroup.POST("/signup", authHandler.Signup)
	authGroup.POST("/login", authHandler.Login)

	// Authenticated routes
	authRequired := s.router.Group("/api")
	authRequired.Use(middleware.AuthMiddleware([]byte(s.cfg.Auth.JWTSecret), s.logger))
	{
		authRequired.POST("/invoices", invoiceHandler.SubmitInvoice)
		authRequired.GET("/invoices", invoiceHandler.ListInvoices)
		authRequired.GET("/invoices/:id", invoiceHandler.GetInvoiceByID)
		authRequired.POST("/invoices/:id/feedback", feedbackHandler.SubmitFeedback)
		authRequired.GET("/invoices/:id/feedback", feedbackHandler.ListFeedback)
		authRequired.GET("/analytics/dashboard", analyticsHandler.GetDashboard)
	}
}

func (s *Server) Run(addr string) {
	s.log.Infof("Server starting on port %s...", addr)
	if err := s.router.Run(addr); err != nil {
		s.log.Fatalf("Server failed to start: %v", err)
	}
}
