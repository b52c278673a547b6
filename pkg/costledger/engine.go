package costledger

import (
	"fmt"
	"math"
	"sort"
)

// zeroQuantityTolerance absorbs floating-point drift when deciding a
// position has returned to flat. Once inside the tolerance, cost and WAC are
// reset to exactly zero so rounding residue cannot leak into a later
// reopening of the same group.
const zeroQuantityTolerance = 1e-9

// cumulativeState is the running position for one (level, group) pair. The
// invariant is wac == cost/qty whenever qty is non-zero; at zero quantity
// every field is exactly zero.
type cumulativeState struct {
	qty     float64
	costCCY float64
	costUSD float64
	wacCCY  float64
	wacUSD  float64
}

// BuildLedger computes weighted-average-cost figures for every transaction
// at every consolidation level. Input rows are never reordered or modified;
// the result carries each row with its derived figures keyed by level name.
//
// Each level runs as an independent pass with its own state store, so a
// row's figures at one level never depend on another level. Diagnostics
// report non-fatal anomalies (short positions, non-finite row values); the
// build only fails on empty input or a bad level configuration.
func BuildLedger(transactions []Transaction, levels []Level) ([]AnnotatedTransaction, []Diagnostic, error) {
	if len(transactions) == 0 {
		return nil, nil, NewError(ErrCodeInvalidInput, "transaction batch is empty")
	}
	if err := validateLevels(levels); err != nil {
		return nil, nil, err
	}

	annotated := make([]AnnotatedTransaction, len(transactions))
	for i, t := range transactions {
		annotated[i] = AnnotatedTransaction{
			Transaction: t,
			RowIndex:    i,
			Levels:      make(map[string]LevelFigures, len(levels)),
		}
	}

	order := chronologicalOrder(transactions)

	var diagnostics []Diagnostic
	for _, level := range levels {
		states := make(map[groupKey]*cumulativeState)
		for _, idx := range order {
			row := &annotated[idx]
			figures, diag := applyTransaction(level, row, states)
			row.Levels[level.Name] = figures
			if diag != nil {
				diagnostics = append(diagnostics, *diag)
			}
		}
	}
	return annotated, diagnostics, nil
}

// chronologicalOrder returns row indices sorted by trade date ascending with
// an explicit tie-break on Trade ID, then original row index. Walking all
// rows in this order visits every group's rows chronologically, so a single
// pass per level suffices. The tie-break is deliberate: an unstable sort
// would silently change realized P&L between runs.
func chronologicalOrder(transactions []Transaction) []int {
	order := make([]int, len(transactions))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		ta, tb := transactions[order[a]], transactions[order[b]]
		if ta.TradeDate != tb.TradeDate {
			return ta.TradeDate < tb.TradeDate
		}
		if ta.TradeID != tb.TradeID {
			return ta.TradeID < tb.TradeID
		}
		return order[a] < order[b]
	})
	return order
}

// laterInLedger reports whether row a comes after row b under the ledger's
// chronological ordering. Used by the snapshotter to pick the last row of a
// group with the same tie-break rule the builder sorts by.
func laterInLedger(a, b *AnnotatedTransaction) bool {
	if a.TradeDate != b.TradeDate {
		return a.TradeDate > b.TradeDate
	}
	if a.TradeID != b.TradeID {
		return a.TradeID > b.TradeID
	}
	return a.RowIndex > b.RowIndex
}

func applyTransaction(level Level, row *AnnotatedTransaction, states map[groupKey]*cumulativeState) (LevelFigures, *Diagnostic) {
	key := level.keyFor(row.Transaction)
	st := states[key]
	if st == nil {
		st = &cumulativeState{}
		states[key] = st
	}

	// Magnitudes come from absolute values; direction comes only from the
	// B/S flag. Some upstream systems pre-sign sell rows, some do not.
	qty := math.Abs(row.Quantity)
	price := row.Price
	fx := row.FXRate
	totalCCY := math.Abs(row.TotalCCY)
	totalUSD := math.Abs(row.TotalUSD)

	if !finite(qty, price, fx, totalCCY, totalUSD) {
		// A broken row must not poison the group. Fill the derived columns
		// from the last known state so downstream consumers never see
		// undefined cells, leave the state untouched, and report the row.
		figures := stateFigures(st)
		return figures, &Diagnostic{
			RowIndex: row.RowIndex,
			TradeID:  row.TradeID,
			Level:    level.Name,
			Code:     DiagRowFault,
			Message:  "non-finite numeric value; row skipped, prior state carried forward",
		}
	}

	var figures LevelFigures
	var diag *Diagnostic

	if row.IsBuy() {
		figures.TransactionCostCCY = totalCCY
		figures.TransactionCostUSD = totalUSD

		st.qty += qty
		st.costCCY += totalCCY
		st.costUSD += totalUSD
		if math.Abs(st.qty) <= zeroQuantityTolerance {
			// A buy covering a short back to flat closes the position; the
			// reset applies regardless of which side reached zero.
			st.qty = 0
			st.costCCY = 0
			st.costUSD = 0
			st.wacCCY = 0
			st.wacUSD = 0
		} else {
			st.wacCCY = st.costCCY / st.qty
			st.wacUSD = st.costUSD / st.qty
		}
	} else {
		// Cost basis released at the average cost held *before* this sale.
		wacCCYBefore := st.wacCCY
		wacUSDBefore := st.wacUSD
		figures.TransactionCostCCY = -(wacCCYBefore * qty)
		figures.TransactionCostUSD = -(wacUSDBefore * qty)
		figures.RealizedGainLossCCY = (price - wacCCYBefore) * qty
		figures.RealizedGainLossUSD = (price*fx - wacUSDBefore) * qty

		qtyBefore := st.qty
		st.qty -= qty
		switch {
		case math.Abs(st.qty) <= zeroQuantityTolerance:
			// Position fully closed: hard reset so rounding noise cannot
			// propagate into a later reopening.
			st.qty = 0
			st.costCCY = 0
			st.costUSD = 0
			st.wacCCY = 0
			st.wacUSD = 0
		case math.Abs(qtyBefore) <= zeroQuantityTolerance || st.qty < 0:
			// More sold than ever bought. A data-integrity anomaly, not a
			// fatal one: carry the last known WAC forward so the running
			// cost stays consistent with the (negative) quantity.
			st.costCCY = st.wacCCY * st.qty
			st.costUSD = st.wacUSD * st.qty
			diag = &Diagnostic{
				RowIndex: row.RowIndex,
				TradeID:  row.TradeID,
				Level:    level.Name,
				Code:     DiagShortPosition,
				Message:  fmt.Sprintf("cumulative quantity went negative (%.4f); last known WAC carried forward", st.qty),
			}
		default:
			// Release cost proportionally. WAC does not move on a sale:
			// selling shares cannot change the average cost of the rest.
			ratio := st.qty / qtyBefore
			st.costCCY *= ratio
			st.costUSD *= ratio
		}
	}

	figures.CumulativeQuantity = st.qty
	figures.CumulativeCostCCY = st.costCCY
	figures.CumulativeCostUSD = st.costUSD
	figures.CostPerUnitCCY = st.wacCCY
	figures.CostPerUnitUSD = st.wacUSD
	return figures, diag
}

func stateFigures(st *cumulativeState) LevelFigures {
	return LevelFigures{
		CumulativeQuantity: st.qty,
		CumulativeCostCCY:  st.costCCY,
		CumulativeCostUSD:  st.costUSD,
		CostPerUnitCCY:     st.wacCCY,
		CostPerUnitUSD:     st.wacUSD,
	}
}

func finite(values ...float64) bool {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
