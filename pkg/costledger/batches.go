package costledger

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// CreateBatch validates and stores a transaction batch, builds its ledger
// once to surface diagnostics, and returns the stored batch summary. The
// batch is rejected wholesale if the ledger cannot be built (empty input,
// bad level configuration); engine diagnostics never reject it.
func (c *Core) CreateBatch(ctx context.Context, name, source string, transactions []Transaction) (*BatchResult, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = "batch " + TodayISO()
	}

	transactions, err := normalizeTransactionDates(transactions)
	if err != nil {
		return nil, err
	}

	annotated, diagnostics, err := BuildLedger(transactions, c.levels)
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	err = c.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.Exec(
			"INSERT INTO batches (id, name, source, row_count) VALUES (?, ?, ?, ?)",
			id, name, source, len(transactions),
		); err != nil {
			return WrapError(ErrCodeDatabase, "insert batch", err)
		}
		stmt, err := tx.Prepare(`
			INSERT INTO transactions (
				batch_id, row_index, portfolio, parent_company, legal_entity, custodian, account,
				security, currency, side, trade_id, trade_date, settle_date,
				quantity, price, fx_rate, total_ccy, total_usd
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return WrapError(ErrCodeDatabase, "prepare transaction insert", err)
		}
		defer stmt.Close()
		for i, t := range transactions {
			if _, err := stmt.Exec(
				id, i, t.Portfolio, t.ParentCompany, t.LegalEntity, t.Custodian, t.Account,
				t.Security, t.Currency, t.Side, t.TradeID, t.TradeDate, t.SettleDate,
				t.Quantity, t.Price, t.FXRate, t.TotalCCY, t.TotalUSD,
			); err != nil {
				return WrapError(ErrCodeDatabase, fmt.Sprintf("insert transaction row %d", i), err)
			}
		}
		for _, d := range diagnostics {
			if _, err := tx.Exec(
				"INSERT INTO diagnostics (batch_id, row_index, trade_id, level, code, message) VALUES (?, ?, ?, ?, ?, ?)",
				id, d.RowIndex, d.TradeID, d.Level, d.Code, d.Message,
			); err != nil {
				return WrapError(ErrCodeDatabase, "insert diagnostic", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.cache.set(id, annotated)
	c.addOperationLog("CREATE_BATCH", &id, fmt.Sprintf("%d rows, %d diagnostics", len(transactions), len(diagnostics)))
	c.logger.Info("batch created", "batch_id", id, "rows", len(transactions), "diagnostics", len(diagnostics))

	batch, err := c.GetBatch(id)
	if err != nil {
		return nil, err
	}
	return &BatchResult{Batch: *batch, Diagnostics: diagnostics}, nil
}

// ListBatches returns stored batches, newest first.
func (c *Core) ListBatches() ([]Batch, error) {
	rows, err := c.db.Query("SELECT id, name, source, row_count, created_at FROM batches ORDER BY created_at DESC, id")
	if err != nil {
		return nil, WrapError(ErrCodeDatabase, "list batches", err)
	}
	defer rows.Close()

	var batches []Batch
	for rows.Next() {
		var b Batch
		var source sql.NullString
		if err := rows.Scan(&b.ID, &b.Name, &source, &b.RowCount, &b.CreatedAt); err != nil {
			return nil, WrapError(ErrCodeDatabase, "scan batch", err)
		}
		b.Source = source.String
		batches = append(batches, b)
	}
	return batches, rows.Err()
}

// GetBatch returns one batch by id.
func (c *Core) GetBatch(id string) (*Batch, error) {
	var b Batch
	var source sql.NullString
	err := c.db.QueryRow(
		"SELECT id, name, source, row_count, created_at FROM batches WHERE id = ?", id,
	).Scan(&b.ID, &b.Name, &source, &b.RowCount, &b.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, NewError(ErrCodeNotFound, fmt.Sprintf("batch %q not found", id))
	}
	if err != nil {
		return nil, WrapError(ErrCodeDatabase, "get batch", err)
	}
	b.Source = source.String
	return &b, nil
}

// DeleteBatch removes a batch together with its rows, diagnostics, and
// stored reviews.
func (c *Core) DeleteBatch(ctx context.Context, id string) error {
	if _, err := c.GetBatch(id); err != nil {
		return err
	}
	err := c.WithTx(ctx, func(tx *sql.Tx) error {
		// Explicit deletes rather than relying on cascade: the pragma is
		// per-connection and the pool may hand out a fresh one.
		for _, table := range []string{"transactions", "diagnostics", "ai_reviews"} {
			if _, err := tx.Exec("DELETE FROM "+table+" WHERE batch_id = ?", id); err != nil {
				return WrapError(ErrCodeDatabase, "delete "+table, err)
			}
		}
		if _, err := tx.Exec("DELETE FROM batches WHERE id = ?", id); err != nil {
			return WrapError(ErrCodeDatabase, "delete batch", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	c.cache.invalidate(id)
	c.addOperationLog("DELETE_BATCH", &id, "")
	c.logger.Info("batch deleted", "batch_id", id)
	return nil
}

// GetBatchTransactions loads the stored input rows of a batch in original
// row order.
func (c *Core) GetBatchTransactions(id string) ([]Transaction, error) {
	if _, err := c.GetBatch(id); err != nil {
		return nil, err
	}
	rows, err := c.db.Query(`
		SELECT portfolio, parent_company, legal_entity, custodian, account,
			security, currency, side, trade_id, trade_date, settle_date,
			quantity, price, fx_rate, total_ccy, total_usd
		FROM transactions WHERE batch_id = ? ORDER BY row_index
	`, id)
	if err != nil {
		return nil, WrapError(ErrCodeDatabase, "load transactions", err)
	}
	defer rows.Close()

	var transactions []Transaction
	for rows.Next() {
		var t Transaction
		if err := rows.Scan(
			&t.Portfolio, &t.ParentCompany, &t.LegalEntity, &t.Custodian, &t.Account,
			&t.Security, &t.Currency, &t.Side, &t.TradeID, &t.TradeDate, &t.SettleDate,
			&t.Quantity, &t.Price, &t.FXRate, &t.TotalCCY, &t.TotalUSD,
		); err != nil {
			return nil, WrapError(ErrCodeDatabase, "scan transaction", err)
		}
		transactions = append(transactions, t)
	}
	return transactions, rows.Err()
}

// BuildBatchLedger returns the annotated ledger for a batch, building it
// from the stored rows on first use and serving the memoized result after.
func (c *Core) BuildBatchLedger(id string) ([]AnnotatedTransaction, error) {
	if cached, ok := c.cache.get(id); ok {
		return cached, nil
	}
	transactions, err := c.GetBatchTransactions(id)
	if err != nil {
		return nil, err
	}
	annotated, _, err := BuildLedger(transactions, c.levels)
	if err != nil {
		return nil, err
	}
	c.cache.set(id, annotated)
	return annotated, nil
}

// GetBatchDiagnostics returns the diagnostics recorded when the batch was
// created.
func (c *Core) GetBatchDiagnostics(id string) ([]Diagnostic, error) {
	if _, err := c.GetBatch(id); err != nil {
		return nil, err
	}
	rows, err := c.db.Query(
		"SELECT row_index, trade_id, level, code, message FROM diagnostics WHERE batch_id = ? ORDER BY id", id,
	)
	if err != nil {
		return nil, WrapError(ErrCodeDatabase, "load diagnostics", err)
	}
	defer rows.Close()

	var diagnostics []Diagnostic
	for rows.Next() {
		var d Diagnostic
		var tradeID, message sql.NullString
		if err := rows.Scan(&d.RowIndex, &tradeID, &d.Level, &d.Code, &message); err != nil {
			return nil, WrapError(ErrCodeDatabase, "scan diagnostic", err)
		}
		d.TradeID = tradeID.String
		d.Message = message.String
		diagnostics = append(diagnostics, d)
	}
	return diagnostics, rows.Err()
}

// SnapshotBatchHoldings snapshots the open positions of a batch at the
// named level as of an optional date.
func (c *Core) SnapshotBatchHoldings(id, levelName, asOf string) ([]Holding, error) {
	level, ok := findLevel(c.levels, levelName)
	if !ok {
		return nil, NewError(ErrCodeInvalidInput, fmt.Sprintf("unknown consolidation level %q", levelName))
	}
	annotated, err := c.BuildBatchLedger(id)
	if err != nil {
		return nil, err
	}
	return SnapshotHoldings(annotated, level, asOf)
}
