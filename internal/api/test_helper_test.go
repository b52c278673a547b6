package api

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"costledger/pkg/costledger"
)

const testCSVHeader = "Portfolio,Parent company,Legal entity,Custodian,Account," +
	"Security,Currency,B/S,Trade ID,Trade date,Settle date," +
	"Quantity,Price,FX rate,Total (Original CCY),Total USD"

func setupRouter(t *testing.T) http.Handler {
	t.Helper()

	core, err := costledger.OpenWithOptions(costledger.Options{
		DBPath: filepath.Join(t.TempDir(), "test.db"),
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	if err != nil {
		t.Fatalf("open core: %v", err)
	}
	t.Cleanup(func() { _ = core.Close() })

	return NewRouter(core, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func doRequest(h http.Handler, method, path string, body io.Reader) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func jsonBody(t *testing.T, payload any) io.Reader {
	t.Helper()
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return bytes.NewReader(data)
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.Unmarshal(rr.Body.Bytes(), dst); err != nil {
		t.Fatalf("decode response %q: %v", rr.Body.String(), err)
	}
}

func testTransaction(side, tradeID, tradeDate string, qty, price float64) costledger.Transaction {
	return costledger.Transaction{
		Portfolio:     "Global",
		ParentCompany: "Alpha Holdings",
		LegalEntity:   "Alpha US",
		Custodian:     "State Street",
		Account:       "ACC-1",
		Security:      "AAPL",
		Currency:      "USD",
		Side:          side,
		TradeID:       tradeID,
		TradeDate:     tradeDate,
		SettleDate:    tradeDate,
		Quantity:      qty,
		Price:         price,
		FXRate:        1,
		TotalCCY:      qty * price,
		TotalUSD:      qty * price,
	}
}

// createTestBatch posts a small two-trade batch and returns its id.
func createTestBatch(t *testing.T, router http.Handler) string {
	t.Helper()

	payload := createBatchPayload{
		Name: "unit test batch",
		Transactions: []costledger.Transaction{
			testTransaction("B", "T-1", "2024-01-10", 100, 50),
			testTransaction("S", "T-2", "2024-02-15", 40, 60),
		},
	}
	rr := doRequest(router, http.MethodPost, "/api/batches", jsonBody(t, payload))
	if rr.Code != http.StatusCreated {
		t.Fatalf("create batch: expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	var result costledger.BatchResult
	decodeBody(t, rr, &result)
	if result.ID == "" {
		t.Fatal("expected batch id in response")
	}
	return result.ID
}

// multipartCSV builds a multipart body with the given CSV content under the
// "file" field and returns the body and content type.
func multipartCSV(t *testing.T, name, csvContent string) (io.Reader, string) {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if name != "" {
		if err := mw.WriteField("name", name); err != nil {
			t.Fatalf("write name field: %v", err)
		}
	}
	part, err := mw.CreateFormFile("file", "trades.csv")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write([]byte(csvContent)); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}
	return &buf, mw.FormDataContentType()
}
