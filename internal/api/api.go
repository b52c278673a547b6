package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"costledger/pkg/costledger"
)

// NewRouter builds the HTTP API router.
func NewRouter(core *costledger.Core, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(recoveryLoggingMiddleware(logger))
	r.Use(requestLoggingMiddleware(logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	h := &handler{core: core}

	r.Get("/api/health", h.health)

	// Batches
	r.Post("/api/batches", h.createBatch)
	r.Get("/api/batches", h.listBatches)
	r.Get("/api/batches/{id}", h.getBatch)
	r.Delete("/api/batches/{id}", h.deleteBatch)

	// Ledger
	r.Get("/api/batches/{id}/ledger", h.getLedger)
	r.Get("/api/batches/{id}/ledger.csv", h.getLedgerCSV)

	// Holdings
	r.Get("/api/batches/{id}/holdings", h.getHoldings)
	r.Get("/api/batches/{id}/holdings.csv", h.getHoldingsCSV)

	// Diagnostics
	r.Get("/api/batches/{id}/diagnostics", h.getDiagnostics)

	// Consolidation levels
	r.Get("/api/levels", h.getLevels)

	// AI review
	r.Get("/api/ai-settings", h.getAISettings)
	r.Put("/api/ai-settings", h.setAISettings)
	r.Post("/api/batches/{id}/review", h.reviewBatch)
	r.Get("/api/batches/{id}/reviews", h.getReviews)

	// Operation logs
	r.Get("/api/operation-logs", h.getOperationLogs)

	return r
}

type handler struct {
	core *costledger.Core
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
