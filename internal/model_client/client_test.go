package model_client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"backend/internal/scoring"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScore(t *testing.T) {
	t.Run("returns the model verdict", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "POST", r.Method)
			assert.Equal(t, "/predict", r.URL.Path)

			var req PredictRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "Acme", req.Invoice.Vendor)
			assert.Equal(t, 1200.0, req.Invoice.Amount)

			json.NewEncoder(w).Encode(PredictResponse{RiskScore: 0.37, Flagged: true})
		}))
		defer srv.Close()

		client := NewClient(srv.URL)
		result, err := client.Score(context.Background(), scoring.Candidate{Vendor: "Acme", Amount: 1200, Date: "2026-01-20"})
		require.NoError(t, err)

		assert.Equal(t, 0.37, result.RiskScore)
		assert.True(t, result.Flagged)
	})

	t.Run("transport error maps to ErrModelUnavailable", func(t *testing.T) {
		client := NewClient("http://127.0.0.1:1") // nothing listens here
		_, err := client.Score(context.Background(), scoring.Candidate{Vendor: "Acme", Amount: 100})
		assert.ErrorIs(t, err, scoring.ErrModelUnavailable)
	})

	t.Run("non-200 status maps to ErrModelUnavailable", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		}))
		defer srv.Close()

		client := NewClient(srv.URL)
		_, err := client.Score(context.Background(), scoring.Candidate{Vendor: "Acme", Amount: 100})
		assert.ErrorIs(t, err, scoring.ErrModelUnavailable)
	})

	t.Run("context deadline maps to ErrModelUnavailable", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			<-r.Context().Done()
		}))
		defer srv.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		client := NewClient(srv.URL)
		_, err := client.Score(ctx, scoring.Candidate{Vendor: "Acme", Amount: 100})
		assert.ErrorIs(t, err, scoring.ErrModelUnavailable)
	})

	t.Run("malformed body maps to ErrModelUnavailable", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("not json"))
		}))
		defer srv.Close()

		client := NewClient(srv.URL)
		_, err := client.Score(context.Background(), scoring.Candidate{Vendor: "Acme", Amount: 100})
		assert.ErrorIs(t, err, scoring.ErrModelUnavailable)
	})
}

func TestHealthCheck(t *testing.T) {
	t.Run("healthy service", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/health", r.URL.Path)
			json.NewEncoder(w).Encode(HealthResponse{Status: "ok"})
		}))
		defer srv.Close()

		client := NewClient(srv.URL)
		health, err := client.HealthCheck(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "ok", health.Status)
	})

	t.Run("unreachable service", func(t *testing.T) {
		client := NewClient("http://127.0.0.1:1")
		_, err := client.HealthCheck(context.Background())
		assert.Error(t, err)
	})
}
