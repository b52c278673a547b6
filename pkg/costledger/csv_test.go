package costledger

import (
	"strings"
	"testing"
)

const csvHeader = "Portfolio,Parent company,Legal entity,Custodian,Account," +
	"Security,Currency,B/S,Trade ID,Trade date,Settle date," +
	"Quantity,Price,FX rate,Total (Original CCY),Total USD"

func TestParseTransactionsCSV_Basic(t *testing.T) {
	input := csvHeader + "\n" +
		"Global,Alpha Holdings,Alpha US,State Street,ACC-1,AAPL,USD,Buy,T1,2024-01-02,2024-01-04,100,10,1,1000,1000\n" +
		"Global,Alpha Holdings,Alpha US,State Street,ACC-1,AAPL,USD,Sell,T2,2024-01-10,2024-01-12,50,15,1,750,750\n"

	transactions, err := ParseTransactionsCSV(strings.NewReader(input))
	assertNoError(t, err, "parse")
	if len(transactions) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(transactions))
	}
	tx := transactions[0]
	if tx.Security != "AAPL" || tx.TradeID != "T1" || !tx.IsBuy() {
		t.Errorf("unexpected first row: %+v", tx)
	}
	assertFloatEquals(t, tx.Quantity, 100, "quantity")
	assertFloatEquals(t, tx.TotalUSD, 1000, "total usd")
	if tx.TradeDate != "2024-01-02" {
		t.Errorf("expected normalized trade date, got %s", tx.TradeDate)
	}
}

func TestParseTransactionsCSV_ByteOrderMark(t *testing.T) {
	input := "\uFEFF" + csvHeader + "\n" +
		"Global,Alpha Holdings,Alpha US,State Street,ACC-1,AAPL,USD,Buy,T1,2024-01-02,2024-01-04,100,10,1,1000,1000\n"

	transactions, err := ParseTransactionsCSV(strings.NewReader(input))
	assertNoError(t, err, "parse with BOM")
	if len(transactions) != 1 {
		t.Fatalf("expected 1 row, got %d", len(transactions))
	}
	if transactions[0].Portfolio != "Global" {
		t.Errorf("BOM should be stripped from the first header cell, got portfolio %q", transactions[0].Portfolio)
	}
}

func TestParseTransactionsCSV_MissingColumns(t *testing.T) {
	input := "Portfolio,Security,Quantity\nGlobal,AAPL,100\n"
	_, err := ParseTransactionsCSV(strings.NewReader(input))
	assertError(t, err, "missing columns")
	if !IsErrorCode(err, ErrCodeSchema) {
		t.Fatalf("expected SCHEMA_ERROR, got %v", err)
	}
	msg := err.Error()
	for _, col := range []string{ColTradeDate, ColSide, ColTotalUSD} {
		if !strings.Contains(msg, col) {
			t.Errorf("schema error should name missing column %q: %s", col, msg)
		}
	}
}

func TestParseTransactionsCSV_BadCellsRejectBatch(t *testing.T) {
	input := csvHeader + "\n" +
		"Global,Alpha Holdings,Alpha US,State Street,ACC-1,AAPL,USD,Buy,T1,2024-01-02,2024-01-04,100,10,1,1000,1000\n" +
		"Global,Alpha Holdings,Alpha US,State Street,ACC-1,AAPL,USD,Buy,T2,not-a-date,2024-01-04,abc,10,1,1000,1000\n"

	_, err := ParseTransactionsCSV(strings.NewReader(input))
	assertError(t, err, "bad cells")
	if !IsErrorCode(err, ErrCodeSchema) {
		t.Fatalf("expected SCHEMA_ERROR, got %v", err)
	}
	msg := err.Error()
	if !strings.Contains(msg, "row 3") || !strings.Contains(msg, ColQuantity) || !strings.Contains(msg, ColTradeDate) {
		t.Errorf("schema error should key faults by row and column: %s", msg)
	}
}

func TestParseTransactionsCSV_CoercionGlue(t *testing.T) {
	input := csvHeader + "\n" +
		`Global,Alpha Holdings,Alpha US,State Street,ACC-1,AAPL,USD,Buy,T1,2024-01-02T00:00:00,01/04/2024,"1,000",10.5,,10500,10500` + "\n"

	transactions, err := ParseTransactionsCSV(strings.NewReader(input))
	assertNoError(t, err, "parse coerced forms")
	tx := transactions[0]
	if tx.TradeDate != "2024-01-02" {
		t.Errorf("timestamp prefix not normalized: %s", tx.TradeDate)
	}
	if tx.SettleDate != "2024-01-04" {
		t.Errorf("US date not normalized: %s", tx.SettleDate)
	}
	assertFloatEquals(t, tx.Quantity, 1000, "comma thousands separator")
	assertFloatEquals(t, tx.FXRate, 0, "blank numeric cell means zero")
}

func TestParseTransactionsCSV_Empty(t *testing.T) {
	_, err := ParseTransactionsCSV(strings.NewReader(""))
	assertError(t, err, "empty file")

	_, err = ParseTransactionsCSV(strings.NewReader(csvHeader + "\n"))
	assertError(t, err, "header only")
}

func TestWriteLedgerCSV_ColumnLayout(t *testing.T) {
	annotated, _ := mustBuild(t, []Transaction{
		buyTx("T1", "2024-01-02", 100, 10),
		sellTx("T2", "2024-01-10", 50, 15),
	})

	var sb strings.Builder
	assertNoError(t, WriteLedgerCSV(&sb, annotated, DefaultLevels()), "write ledger")

	lines := strings.Split(strings.TrimSpace(sb.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header + 2 rows, got %d lines", len(lines))
	}

	header := lines[0]
	for _, col := range RequiredColumns {
		if !strings.Contains(header, col) {
			t.Errorf("header missing input column %q", col)
		}
	}
	// Spot-check derived column naming across levels.
	for _, want := range []string{
		"Transaction Cost USD (All)",
		"Cumulative Quantity (Portfolio)",
		"Realized Gain/Loss USD (Legal entity)",
		"Cost per Unit CCY (Account)",
	} {
		if !strings.Contains(header, want) {
			t.Errorf("header missing derived column %q", want)
		}
	}

	wantCols := len(RequiredColumns) + len(DefaultLevels())*len(LedgerFields)
	if got := len(strings.Split(lines[1], ",")); got != wantCols {
		t.Errorf("expected %d columns, got %d", wantCols, got)
	}

	if !strings.Contains(lines[2], "-500") {
		t.Errorf("sell row should carry released cost basis: %s", lines[2])
	}
}

func TestWriteHoldingsCSV(t *testing.T) {
	annotated, _ := mustBuild(t, []Transaction{
		buyTx("T1", "2024-01-02", 100, 10),
	})
	level := snapshotLevel(t, "Legal entity")
	holdings, err := SnapshotHoldings(annotated, level, "")
	assertNoError(t, err, "snapshot")

	var sb strings.Builder
	assertNoError(t, WriteHoldingsCSV(&sb, holdings, level), "write holdings")

	lines := strings.Split(strings.TrimSpace(sb.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected header + 1 row, got %d lines", len(lines))
	}
	if !strings.HasPrefix(lines[0], "Portfolio,Parent company,Legal entity,Security,Currency") {
		t.Errorf("unexpected holdings header: %s", lines[0])
	}
	if !strings.Contains(lines[1], "Global") || !strings.Contains(lines[1], "AAPL") {
		t.Errorf("unexpected holdings row: %s", lines[1])
	}
}
