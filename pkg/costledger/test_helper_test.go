package costledger

import (
	"os"
	"path/filepath"
	"testing"
)

// setupTestDB creates a temporary database for testing and returns a Core
// instance. The caller should defer cleanup() to remove the temp file.
func setupTestDB(t *testing.T) (*Core, func()) {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "costledger-test-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}

	dbPath := filepath.Join(tmpDir, "test.db")
	core, err := Open(dbPath)
	if err != nil {
		os.RemoveAll(tmpDir)
		t.Fatalf("failed to open test db: %v", err)
	}

	cleanup := func() {
		core.Close()
		os.RemoveAll(tmpDir)
	}

	return core, cleanup
}

// buyTx builds a buy transaction in one organizational path for engine tests.
func buyTx(tradeID, date string, qty, price float64) Transaction {
	return Transaction{
		Portfolio:     "Global",
		ParentCompany: "Alpha Holdings",
		LegalEntity:   "Alpha US",
		Custodian:     "State Street",
		Account:       "ACC-1",
		Security:      "AAPL",
		Currency:      "USD",
		Side:          "Buy",
		TradeID:       tradeID,
		TradeDate:     date,
		SettleDate:    date,
		Quantity:      qty,
		Price:         price,
		FXRate:        1,
		TotalCCY:      qty * price,
		TotalUSD:      qty * price,
	}
}

// sellTx builds a matching sell transaction.
func sellTx(tradeID, date string, qty, price float64) Transaction {
	tx := buyTx(tradeID, date, qty, price)
	tx.Side = "Sell"
	return tx
}

// floatEquals checks if two floats are approximately equal.
func floatEquals(a, b, epsilon float64) bool {
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	return diff < epsilon
}

// assertFloatEquals fails the test if the floats are not approximately equal.
func assertFloatEquals(t *testing.T, got, want float64, msg string) {
	t.Helper()
	if !floatEquals(got, want, 1e-6) {
		t.Errorf("%s: got %.6f, want %.6f", msg, got, want)
	}
}

// assertNoError fails the test if err is not nil.
func assertNoError(t *testing.T, err error, msg string) {
	t.Helper()
	if err != nil {
		t.Fatalf("%s: unexpected error: %v", msg, err)
	}
}

// assertError fails the test if err is nil.
func assertError(t *testing.T, err error, msg string) {
	t.Helper()
	if err == nil {
		t.Fatalf("%s: expected error but got nil", msg)
	}
}

// mustBuild runs BuildLedger over the default levels and fails on error.
func mustBuild(t *testing.T, transactions []Transaction) ([]AnnotatedTransaction, []Diagnostic) {
	t.Helper()
	annotated, diagnostics, err := BuildLedger(transactions, DefaultLevels())
	assertNoError(t, err, "build ledger")
	return annotated, diagnostics
}
