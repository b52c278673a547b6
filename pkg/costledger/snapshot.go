package costledger

import (
	"fmt"
	"math"
	"sort"
)

// SnapshotHoldings derives the open positions at one consolidation level as
// of a date. asOf is a YYYY-MM-DD date; empty means "over all transactions".
// The snapshot is recomputed fresh on every call from the annotated rows and
// never mutates them.
//
// Per group (level keys + Security) the chronologically last row at or
// before asOf decides the position, using the same tie-break as the ledger
// build. Groups whose cumulative quantity is zero within tolerance are
// omitted. No transactions in range, or no open positions, yields an empty
// result rather than an error.
func SnapshotHoldings(annotated []AnnotatedTransaction, level Level, asOf string) ([]Holding, error) {
	if asOf != "" {
		normalized, err := NormalizeDate(asOf)
		if err != nil {
			return nil, WrapError(ErrCodeInvalidInput, fmt.Sprintf("invalid as-of date %q", asOf), err)
		}
		asOf = normalized
	}

	last := make(map[groupKey]*AnnotatedTransaction)
	for i := range annotated {
		row := &annotated[i]
		if asOf != "" && row.TradeDate > asOf {
			continue
		}
		if _, ok := row.Levels[level.Name]; !ok {
			return nil, NewError(ErrCodeInvalidInput, fmt.Sprintf("rows carry no figures for level %q", level.Name))
		}
		key := level.keyFor(row.Transaction)
		if prev, ok := last[key]; !ok || laterInLedger(row, prev) {
			last[key] = row
		}
	}

	holdings := make([]Holding, 0, len(last))
	for _, row := range last {
		figures := row.Levels[level.Name]
		if math.Abs(figures.CumulativeQuantity) <= zeroQuantityTolerance {
			continue
		}
		keys := make(map[string]string, len(level.Keys))
		for _, col := range level.Keys {
			keys[col] = keyValue(row.Transaction, col)
		}
		holdings = append(holdings, Holding{
			Keys:            keys,
			Security:        row.Security,
			Currency:        row.Currency,
			CurrentQuantity: figures.CumulativeQuantity,
			CurrentCostUSD:  figures.CumulativeCostUSD,
			CurrentCostCCY:  figures.CumulativeCostCCY,
			WACPerUnitUSD:   figures.CostPerUnitUSD,
			WACPerUnitCCY:   figures.CostPerUnitCCY,
			LastTradeDate:   row.TradeDate,
		})
	}

	// Stable order for downstream display: level keys first, then security.
	sort.Slice(holdings, func(a, b int) bool {
		ha, hb := holdings[a], holdings[b]
		for _, col := range level.Keys {
			if ha.Keys[col] != hb.Keys[col] {
				return ha.Keys[col] < hb.Keys[col]
			}
		}
		return ha.Security < hb.Security
	})
	return holdings, nil
}
