package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"costledger/pkg/costledger"
)

func (h *handler) getAISettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.core.GetAISettings()
	if err != nil {
		writeErrorResponse(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (h *handler) setAISettings(w http.ResponseWriter, r *http.Request) {
	var settings costledger.AISettings
	if err := decodeJSON(r, &settings); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, err)
		return
	}
	saved, err := h.core.SetAISettings(settings)
	if err != nil {
		writeErrorResponse(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

func (h *handler) reviewBatch(w http.ResponseWriter, r *http.Request) {
	var payload reviewPayload
	if err := decodeJSON(r, &payload); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, err)
		return
	}
	result, err := h.core.ReviewHoldings(r.Context(), costledger.ReviewRequest{
		BatchID: chi.URLParam(r, "id"),
		Level:   payload.Level,
		AsOf:    payload.AsOf,
	})
	if err != nil {
		writeErrorResponse(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

func (h *handler) getReviews(w http.ResponseWriter, r *http.Request) {
	limit := parseIntDefault(r.URL.Query().Get("limit"), 20)
	reviews, err := h.core.GetReviews(chi.URLParam(r, "id"), limit)
	if err != nil {
		writeErrorResponse(w, http.StatusInternalServerError, err)
		return
	}
	if reviews == nil {
		reviews = []costledger.ReviewResult{}
	}
	writeJSON(w, http.StatusOK, reviews)
}
