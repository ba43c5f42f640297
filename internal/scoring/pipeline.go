package scoring

import (
	"context"
	"errors"
	"fmt"
	"time"

	"backend/internal/models"
	"backend/internal/repository"

	"go.uber.org/zap"
)

// ErrModelUnavailable means the scoring model could not be reached or did not
// answer within the deadline. The submission fails and no invoice is stored;
// there is deliberately no zero-risk fallback.
var ErrModelUnavailable = errors.New("model service unavailable")

// Oracle scores a candidate remotely. Implemented by model_client.Client.
type Oracle interface {
	Score(ctx context.Context, candidate Candidate) (OracleResult, error)
}

// Pipeline scores one invoice submission: it calls the model, runs the
// heuristic checks against history, fuses the results and persists the
// record. Each submission is an independent unit of work; the pipeline keeps
// no state across calls and every evaluation re-queries fresh history.
type Pipeline struct {
	oracle       Oracle
	engine       *Engine
	invoices     repository.InvoiceRepository
	policy       Policy
	modelTimeout time.Duration
	logger       *zap.Logger
}

func NewPipeline(
	oracle Oracle,
	engine *Engine,
	invoices repository.InvoiceRepository,
	policy Policy,
	modelTimeout time.Duration,
	logger *zap.Logger,
) *Pipeline {
	return &Pipeline{
		oracle:       oracle,
		engine:       engine,
		invoices:     invoices,
		policy:       policy,
		modelTimeout: modelTimeout,
		logger:       logger,
	}
}

type oracleOutcome struct {
	result OracleResult
	err    error
}

// Submit runs the full pipeline for one candidate. The model call runs in
// its own goroutine concurrently with the heuristic checks; fusion waits for
// both. A model failure aborts the submission with ErrModelUnavailable.
// Heuristic failures only drop their signal.
//
// There is no transaction around the duplicate check and the insert: two
// identical invoices submitted at the same time can both pass the duplicate
// check. That window is an accepted property of the design.
func (p *Pipeline) Submit(ctx context.Context, candidate Candidate) (*models.Invoice, []Alert, error) {
	if err := ValidateCandidate(candidate); err != nil {
		return nil, nil, err
	}

	oracleCh := make(chan oracleOutcome, 1)
	go func() {
		modelCtx, cancel := context.WithTimeout(ctx, p.modelTimeout)
		defer cancel()
		result, err := p.oracle.Score(modelCtx, candidate)
		oracleCh <- oracleOutcome{result: result, err: err}
	}()

	results := p.engine.Evaluate(ctx, candidate)
	alerts := CollectAlerts(results)

	outcome := <-oracleCh
	if outcome.err != nil {
		p.logger.Error("Model call failed, rejecting submission",
			zap.String("vendor", candidate.Vendor),
			zap.Float64("amount", candidate.Amount),
			zap.Error(outcome.err))
		return nil, nil, ErrModelUnavailable
	}

	verdict := Fuse(outcome.result, alerts, p.policy.ExceedsFlatCeiling(candidate.Amount))

	metadata := candidate.Metadata
	metadata.Alerts = AlertStrings(verdict.Alerts)

	invoice := &models.Invoice{
		Vendor:    candidate.Vendor,
		Amount:    candidate.Amount,
		Metadata:  metadata,
		RiskScore: verdict.RiskScore,
		Flagged:   verdict.Flagged,
	}
	if candidate.Date != "" {
		date := candidate.Date
		invoice.InvoiceDate = &date
	}
	if candidate.InvoiceNumber != "" {
		number := candidate.InvoiceNumber
		invoice.InvoiceNumber = &number
	}

	if err := p.invoices.SaveInvoice(ctx, invoice); err != nil {
		return nil, nil, fmt.Errorf("failed to save invoice: %w", err)
	}

	p.logger.Info("Invoice scored",
		zap.Int64("invoice_id", invoice.ID),
		zap.String("vendor", invoice.Vendor),
		zap.Float64("risk_score", verdict.RiskScore),
		zap.Bool("flagged", verdict.Flagged),
		zap.Int("alerts", len(verdict.Alerts)))

	return invoice, verdict.Alerts, nil
}
