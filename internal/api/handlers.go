package api

import (
	"encoding/json"
	"fmt"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"costledger/pkg/costledger"
)

func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// createBatch accepts a transaction batch either as a multipart CSV upload
// (field "file", optional field "name") or as a JSON payload.
func (h *handler) createBatch(w http.ResponseWriter, r *http.Request) {
	contentType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	var name, source string
	var transactions []costledger.Transaction
	var err error

	switch {
	case contentType == "multipart/form-data":
		file, header, ferr := r.FormFile("file")
		if ferr != nil {
			writeErrorResponse(w, http.StatusBadRequest, fmt.Errorf("missing file field: %w", ferr))
			return
		}
		defer file.Close()
		source = header.Filename
		name = r.FormValue("name")
		transactions, err = costledger.ParseTransactionsCSV(file)
	default:
		var payload createBatchPayload
		if derr := decodeJSON(r, &payload); derr != nil {
			writeErrorResponse(w, http.StatusBadRequest, derr)
			return
		}
		name = payload.Name
		transactions = payload.Transactions
	}
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, err)
		return
	}

	result, err := h.core.CreateBatch(r.Context(), name, source, transactions)
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

func (h *handler) listBatches(w http.ResponseWriter, r *http.Request) {
	batches, err := h.core.ListBatches()
	if err != nil {
		writeErrorResponse(w, http.StatusInternalServerError, err)
		return
	}
	if batches == nil {
		batches = []costledger.Batch{}
	}
	writeJSON(w, http.StatusOK, batches)
}

func (h *handler) getBatch(w http.ResponseWriter, r *http.Request) {
	batch, err := h.core.GetBatch(chi.URLParam(r, "id"))
	if err != nil {
		writeErrorResponse(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, batch)
}

func (h *handler) deleteBatch(w http.ResponseWriter, r *http.Request) {
	if err := h.core.DeleteBatch(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeErrorResponse(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// getLedger returns annotated rows. An optional level query parameter trims
// the figures to one level; limit/offset page through rows.
func (h *handler) getLedger(w http.ResponseWriter, r *http.Request) {
	annotated, err := h.core.BuildBatchLedger(chi.URLParam(r, "id"))
	if err != nil {
		writeErrorResponse(w, http.StatusInternalServerError, err)
		return
	}

	if level := strings.TrimSpace(r.URL.Query().Get("level")); level != "" {
		if !h.hasLevel(level) {
			writeErrorResponse(w, http.StatusBadRequest,
				costledger.NewError(costledger.ErrCodeInvalidInput, fmt.Sprintf("unknown consolidation level %q", level)))
			return
		}
		trimmed := make([]costledger.AnnotatedTransaction, len(annotated))
		for i, row := range annotated {
			row.Levels = map[string]costledger.LevelFigures{level: row.Levels[level]}
			trimmed[i] = row
		}
		annotated = trimmed
	}

	limit := parseIntDefault(r.URL.Query().Get("limit"), 100)
	offset := parseIntDefault(r.URL.Query().Get("offset"), 0)
	limit, offset = normalizeLimitOffset(limit, offset)

	total := len(annotated)
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}
	writeJSON(w, http.StatusOK, ledgerResponse{
		Items:  annotated[offset:end],
		Total:  total,
		Limit:  limit,
		Offset: offset,
	})
}

func (h *handler) getLedgerCSV(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	annotated, err := h.core.BuildBatchLedger(id)
	if err != nil {
		writeErrorResponse(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "ledger-"+id+".csv"))
	// Headers are already written; a mid-stream failure cannot be reported.
	_ = costledger.WriteLedgerCSV(w, annotated, h.core.Levels())
}

func (h *handler) getHoldings(w http.ResponseWriter, r *http.Request) {
	level, asOf, ok := h.holdingsParams(w, r)
	if !ok {
		return
	}
	holdings, err := h.core.SnapshotBatchHoldings(chi.URLParam(r, "id"), level, asOf)
	if err != nil {
		writeErrorResponse(w, http.StatusInternalServerError, err)
		return
	}
	if holdings == nil {
		holdings = []costledger.Holding{}
	}
	writeJSON(w, http.StatusOK, holdingsResponse{Level: level, AsOf: asOf, Holdings: holdings})
}

func (h *handler) getHoldingsCSV(w http.ResponseWriter, r *http.Request) {
	levelName, asOf, ok := h.holdingsParams(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")
	holdings, err := h.core.SnapshotBatchHoldings(id, levelName, asOf)
	if err != nil {
		writeErrorResponse(w, http.StatusInternalServerError, err)
		return
	}
	var level costledger.Level
	for _, l := range h.core.Levels() {
		if l.Name == levelName {
			level = l
		}
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "holdings-"+id+".csv"))
	_ = costledger.WriteHoldingsCSV(w, holdings, level)
}

// holdingsParams extracts and validates the level and as_of query
// parameters shared by the holdings endpoints.
func (h *handler) holdingsParams(w http.ResponseWriter, r *http.Request) (string, string, bool) {
	level := strings.TrimSpace(r.URL.Query().Get("level"))
	if level == "" {
		writeErrorResponse(w, http.StatusBadRequest,
			costledger.NewError(costledger.ErrCodeInvalidInput, "level query parameter is required"))
		return "", "", false
	}
	return level, strings.TrimSpace(r.URL.Query().Get("as_of")), true
}

func (h *handler) getDiagnostics(w http.ResponseWriter, r *http.Request) {
	diagnostics, err := h.core.GetBatchDiagnostics(chi.URLParam(r, "id"))
	if err != nil {
		writeErrorResponse(w, http.StatusInternalServerError, err)
		return
	}
	if diagnostics == nil {
		diagnostics = []costledger.Diagnostic{}
	}
	writeJSON(w, http.StatusOK, diagnostics)
}

func (h *handler) getLevels(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.core.Levels())
}

func (h *handler) getOperationLogs(w http.ResponseWriter, r *http.Request) {
	limit := parseIntDefault(r.URL.Query().Get("limit"), 50)
	offset := parseIntDefault(r.URL.Query().Get("offset"), 0)
	logs, err := h.core.GetOperationLogs(limit, offset)
	if err != nil {
		writeErrorResponse(w, http.StatusInternalServerError, err)
		return
	}
	if logs == nil {
		logs = []costledger.OperationLog{}
	}
	writeJSON(w, http.StatusOK, logs)
}

func (h *handler) hasLevel(name string) bool {
	for _, level := range h.core.Levels() {
		if level.Name == name {
			return true
		}
	}
	return false
}

func decodeJSON(r *http.Request, dst any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dst)
}

func parseIntDefault(value string, fallback int) int {
	if value == "" {
		return fallback
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return i
}

func normalizeLimitOffset(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
