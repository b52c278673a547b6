// Package mobile wraps the cost ledger core for gomobile bindings. All
// structured inputs and outputs cross the boundary as JSON strings.
package mobile

import (
	"context"
	"encoding/json"
	"strings"

	"costledger/pkg/costledger"
)

// Core wraps the cost ledger core for gomobile bindings.
type Core struct {
	core *costledger.Core
}

// Open initializes the core with a database path.
func Open(dbPath string) (*Core, error) {
	core, err := costledger.Open(dbPath)
	if err != nil {
		return nil, err
	}
	return &Core{core: core}, nil
}

// Close releases resources.
func (c *Core) Close() error {
	if c == nil || c.core == nil {
		return nil
	}
	return c.core.Close()
}

// ImportCSV parses CSV text, stores it as a named batch, and returns the
// batch result (including diagnostics) as JSON.
func (c *Core) ImportCSV(name, csvText string) (string, error) {
	transactions, err := costledger.ParseTransactionsCSV(strings.NewReader(csvText))
	if err != nil {
		return "", err
	}
	result, err := c.core.CreateBatch(context.Background(), name, "mobile", transactions)
	if err != nil {
		return "", err
	}
	return marshalJSON(result)
}

// ListBatchesJSON returns all stored batches as JSON.
func (c *Core) ListBatchesJSON() (string, error) {
	batches, err := c.core.ListBatches()
	if err != nil {
		return "", err
	}
	return marshalJSON(batches)
}

// LedgerJSON returns the annotated ledger for a batch as JSON.
func (c *Core) LedgerJSON(batchID string) (string, error) {
	annotated, err := c.core.BuildBatchLedger(batchID)
	if err != nil {
		return "", err
	}
	return marshalJSON(annotated)
}

// HoldingsJSON returns the holdings snapshot for a batch at one level as
// JSON. asOf may be empty for a snapshot over the whole batch.
func (c *Core) HoldingsJSON(batchID, level, asOf string) (string, error) {
	holdings, err := c.core.SnapshotBatchHoldings(batchID, level, asOf)
	if err != nil {
		return "", err
	}
	return marshalJSON(holdings)
}

// DiagnosticsJSON returns stored diagnostics for a batch as JSON.
func (c *Core) DiagnosticsJSON(batchID string) (string, error) {
	diagnostics, err := c.core.GetBatchDiagnostics(batchID)
	if err != nil {
		return "", err
	}
	return marshalJSON(diagnostics)
}

// LevelsJSON returns the configured consolidation levels as JSON.
func (c *Core) LevelsJSON() (string, error) {
	return marshalJSON(c.core.Levels())
}

// DeleteBatch removes a batch and its derived data.
func (c *Core) DeleteBatch(batchID string) error {
	return c.core.DeleteBatch(context.Background(), batchID)
}

func marshalJSON(value any) (string, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
