package costledger

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// maxSchemaIssues caps how many row-level problems a schema error lists.
const maxSchemaIssues = 25

// ParseTransactionsCSV reads a transaction batch from CSV. The header must
// carry every required column (case-sensitive); any missing column, or any
// unparseable numeric or date cell, rejects the whole batch with a schema
// error before the engine ever runs. Extra columns are ignored.
func ParseTransactionsCSV(r io.Reader) ([]Transaction, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, NewError(ErrCodeSchema, "file is empty")
	}
	if err != nil {
		return nil, WrapError(ErrCodeSchema, "cannot read header row", err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\uFEFF"))
		if _, dup := index[name]; !dup {
			index[name] = i
		}
	}

	var missing []string
	for _, col := range RequiredColumns {
		if _, ok := index[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, NewError(ErrCodeSchema, "missing required columns: "+strings.Join(missing, ", "))
	}

	var transactions []Transaction
	var issues []string
	rowNum := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		rowNum++
		if err != nil {
			issues = append(issues, fmt.Sprintf("row %d: %v", rowNum, err))
			continue
		}
		tx, rowIssues := parseRecord(record, index, rowNum)
		if len(rowIssues) > 0 {
			issues = append(issues, rowIssues...)
			continue
		}
		transactions = append(transactions, tx)
	}

	if len(issues) > 0 {
		return nil, schemaIssuesError(issues)
	}
	if len(transactions) == 0 {
		return nil, NewError(ErrCodeSchema, "file has no data rows")
	}
	return transactions, nil
}

// normalizeTransactionDates coerces trade and settle dates to the canonical
// YYYY-MM-DD form, rejecting the whole batch when any row carries an
// unparseable date. Trade dates order the ledger by string comparison, so a
// stray non-ISO date must never reach the engine. Rows from the CSV importer
// arrive already normalized; this guards every other entry point with the
// same schema reporting.
func normalizeTransactionDates(transactions []Transaction) ([]Transaction, error) {
	normalized := make([]Transaction, len(transactions))
	var issues []string
	for i, tx := range transactions {
		rowNum := i + 1
		if v, err := NormalizeDate(tx.TradeDate); err != nil {
			issues = append(issues, fmt.Sprintf("row %d, %s: %v", rowNum, ColTradeDate, err))
		} else {
			tx.TradeDate = v
		}
		if v, err := NormalizeDate(tx.SettleDate); err != nil {
			issues = append(issues, fmt.Sprintf("row %d, %s: %v", rowNum, ColSettleDate, err))
		} else {
			tx.SettleDate = v
		}
		normalized[i] = tx
	}
	if len(issues) > 0 {
		return nil, schemaIssuesError(issues)
	}
	return normalized, nil
}

// schemaIssuesError folds row-level problems into one schema error, capped
// at maxSchemaIssues entries.
func schemaIssuesError(issues []string) error {
	if len(issues) > maxSchemaIssues {
		issues = append(issues[:maxSchemaIssues], fmt.Sprintf("... and %d more", len(issues)-maxSchemaIssues))
	}
	return NewError(ErrCodeSchema, strings.Join(issues, "; "))
}

func parseRecord(record []string, index map[string]int, rowNum int) (Transaction, []string) {
	cell := func(col string) string {
		i := index[col]
		if i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	var issues []string
	num := func(col string) float64 {
		v, err := parseAmount(cell(col))
		if err != nil {
			issues = append(issues, fmt.Sprintf("row %d, %s: %v", rowNum, col, err))
		}
		return v
	}
	date := func(col string) string {
		v, err := NormalizeDate(cell(col))
		if err != nil {
			issues = append(issues, fmt.Sprintf("row %d, %s: %v", rowNum, col, err))
		}
		return v
	}

	tx := Transaction{
		Portfolio:     cell(ColPortfolio),
		ParentCompany: cell(ColParentCompany),
		LegalEntity:   cell(ColLegalEntity),
		Custodian:     cell(ColCustodian),
		Account:       cell(ColAccount),
		Security:      cell(ColSecurity),
		Currency:      cell(ColCurrency),
		Side:          cell(ColSide),
		TradeID:       cell(ColTradeID),
		TradeDate:     date(ColTradeDate),
		SettleDate:    date(ColSettleDate),
		Quantity:      num(ColQuantity),
		Price:         num(ColPrice),
		FXRate:        num(ColFXRate),
		TotalCCY:      num(ColTotalCCY),
		TotalUSD:      num(ColTotalUSD),
	}
	return tx, issues
}

// WriteLedgerCSV writes the annotated ledger: the original columns in their
// canonical order followed, per level, by the nine derived columns named
// "<Field> (<Level>)".
func WriteLedgerCSV(w io.Writer, annotated []AnnotatedTransaction, levels []Level) error {
	writer := csv.NewWriter(w)

	header := append([]string{}, RequiredColumns...)
	for _, level := range levels {
		for _, field := range LedgerFields {
			header = append(header, fmt.Sprintf("%s (%s)", field, level.Name))
		}
	}
	if err := writer.Write(header); err != nil {
		return err
	}

	for i := range annotated {
		row := &annotated[i]
		record := []string{
			row.Portfolio, row.ParentCompany, row.LegalEntity, row.Custodian, row.Account,
			row.Security, row.Currency, row.Side, row.TradeID, row.TradeDate, row.SettleDate,
			formatAmount(row.Quantity), formatAmount(row.Price), formatAmount(row.FXRate),
			formatAmount(row.TotalCCY), formatAmount(row.TotalUSD),
		}
		for _, level := range levels {
			f := row.Levels[level.Name]
			record = append(record,
				formatAmount(f.TransactionCostUSD),
				formatAmount(f.TransactionCostCCY),
				formatAmount(f.CumulativeQuantity),
				formatAmount(f.CumulativeCostCCY),
				formatAmount(f.CumulativeCostUSD),
				formatAmount(f.CostPerUnitUSD),
				formatAmount(f.CostPerUnitCCY),
				formatAmount(f.RealizedGainLossCCY),
				formatAmount(f.RealizedGainLossUSD),
			)
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteHoldingsCSV writes a holdings snapshot: the level's key columns, then
// security, currency, position and cost figures, and the last trade date.
func WriteHoldingsCSV(w io.Writer, holdings []Holding, level Level) error {
	writer := csv.NewWriter(w)

	header := append([]string{}, level.Keys...)
	header = append(header,
		ColSecurity, ColCurrency,
		"Current Quantity", "Current Cost USD", "Current Cost CCY",
		"WAC per Unit USD", "WAC per Unit CCY", "Last Trade Date",
	)
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, h := range holdings {
		record := make([]string, 0, len(header))
		for _, col := range level.Keys {
			record = append(record, h.Keys[col])
		}
		record = append(record,
			h.Security, h.Currency,
			formatAmount(h.CurrentQuantity),
			formatAmount(h.CurrentCostUSD),
			formatAmount(h.CurrentCostCCY),
			formatAmount(h.WACPerUnitUSD),
			formatAmount(h.WACPerUnitCCY),
			h.LastTradeDate,
		)
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
