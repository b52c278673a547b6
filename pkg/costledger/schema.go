package costledger

import (
	"database/sql"
	"fmt"
)

func initDatabase(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := exec(tx, `
		CREATE TABLE IF NOT EXISTS batches (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			source TEXT,
			row_count INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`); err != nil {
		return err
	}

	if err := exec(tx, `
		CREATE TABLE IF NOT EXISTS transactions (
			batch_id TEXT NOT NULL REFERENCES batches(id) ON DELETE CASCADE,
			row_index INTEGER NOT NULL,
			portfolio TEXT NOT NULL,
			parent_company TEXT NOT NULL,
			legal_entity TEXT NOT NULL,
			custodian TEXT NOT NULL,
			account TEXT NOT NULL,
			security TEXT NOT NULL,
			currency TEXT NOT NULL,
			side TEXT NOT NULL,
			trade_id TEXT NOT NULL,
			trade_date TEXT NOT NULL,
			settle_date TEXT NOT NULL,
			quantity REAL NOT NULL,
			price REAL NOT NULL,
			fx_rate REAL NOT NULL,
			total_ccy REAL NOT NULL,
			total_usd REAL NOT NULL,
			PRIMARY KEY (batch_id, row_index)
		)
	`); err != nil {
		return err
	}
	if err := exec(tx, "CREATE INDEX IF NOT EXISTS idx_transactions_batch_date ON transactions(batch_id, trade_date)"); err != nil {
		return err
	}

	if err := exec(tx, `
		CREATE TABLE IF NOT EXISTS diagnostics (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			batch_id TEXT NOT NULL REFERENCES batches(id) ON DELETE CASCADE,
			row_index INTEGER NOT NULL,
			trade_id TEXT,
			level TEXT NOT NULL,
			code TEXT NOT NULL,
			message TEXT
		)
	`); err != nil {
		return err
	}
	if err := exec(tx, "CREATE INDEX IF NOT EXISTS idx_diagnostics_batch ON diagnostics(batch_id)"); err != nil {
		return err
	}

	if err := exec(tx, `
		CREATE TABLE IF NOT EXISTS ai_settings (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			provider TEXT NOT NULL,
			model TEXT,
			tone TEXT,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`); err != nil {
		return err
	}

	if err := exec(tx, `
		CREATE TABLE IF NOT EXISTS ai_reviews (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			batch_id TEXT NOT NULL REFERENCES batches(id) ON DELETE CASCADE,
			level TEXT NOT NULL,
			as_of TEXT,
			provider TEXT NOT NULL,
			model TEXT NOT NULL,
			commentary TEXT NOT NULL,
			prompt_hash TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`); err != nil {
		return err
	}

	if err := exec(tx, `
		CREATE TABLE IF NOT EXISTS operation_logs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			operation_type TEXT NOT NULL,
			batch_id TEXT,
			details TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`); err != nil {
		return err
	}

	return tx.Commit()
}

func exec(tx *sql.Tx, query string, args ...any) error {
	if _, err := tx.Exec(query, args...); err != nil {
		return fmt.Errorf("exec %.40q: %w", query, err)
	}
	return nil
}
