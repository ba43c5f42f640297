package model_client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"backend/internal/scoring"
)

// Client is a client for the scoring model service API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// invoicePayload is the candidate shape the model service expects.
type invoicePayload struct {
	Vendor string  `json:"vendor"`
	Amount float64 `json:"amount"`
	Date   string  `json:"date,omitempty"`
}

// PredictRequest wraps the candidate for POST /predict.
type PredictRequest struct {
	Invoice invoicePayload `json:"invoice"`
}

// PredictResponse is the model's verdict for a single invoice.
type PredictResponse struct {
	RiskScore float64 `json:"risk_score"`
	Flagged   bool    `json:"flagged"`
}

// HealthResponse represents the model service health check response.
type HealthResponse struct {
	Status string `json:"status"`
}

// NewClient creates a new model service client. Per-call deadlines come from
// the caller's context, so no client-wide timeout is set here.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{},
	}
}

// Score sends a candidate to the model and returns its risk score and flag.
// Every failure mode (transport error, timeout, bad status, bad body) is
// reported as scoring.ErrModelUnavailable: the model is either fully usable
// or not usable at all.
func (c *Client) Score(ctx context.Context, candidate scoring.Candidate) (scoring.OracleResult, error) {
	reqBody := PredictRequest{
		Invoice: invoicePayload{
			Vendor: candidate.Vendor,
			Amount: candidate.Amount,
			Date:   candidate.Date,
		},
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return scoring.OracleResult{}, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/predict", bytes.NewBuffer(jsonData))
	if err != nil {
		return scoring.OracleResult{}, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return scoring.OracleResult{}, fmt.Errorf("%w: %v", scoring.ErrModelUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return scoring.OracleResult{}, fmt.Errorf("%w: model service returned status %d: %s",
			scoring.ErrModelUnavailable, resp.StatusCode, string(body))
	}

	var result PredictResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return scoring.OracleResult{}, fmt.Errorf("%w: failed to decode response: %v", scoring.ErrModelUnavailable, err)
	}

	return scoring.OracleResult{RiskScore: result.RiskScore, Flagged: result.Flagged}, nil
}

// HealthCheck checks if the model service is healthy.
func (c *Client) HealthCheck(ctx context.Context) (*HealthResponse, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"/health", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("model service returned status %d: %s", resp.StatusCode, string(body))
	}

	var result HealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &result, nil
}
