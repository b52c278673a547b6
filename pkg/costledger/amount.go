package costledger

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// parseAmount converts a numeric cell from a source file into a float64.
// Parsing goes through decimal so "1,234.50" and long broker exports survive
// the boundary intact; blank cells mean zero, matching the upstream systems
// that leave untraded fields empty.
func parseAmount(value string) (float64, error) {
	s := strings.TrimSpace(value)
	if s == "" {
		return 0, nil
	}
	s = strings.ReplaceAll(s, ",", "")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("not a number: %q", value)
	}
	return d.InexactFloat64(), nil
}

// formatAmount renders a derived value for export, rounded to six decimal
// places so repeated exports of the same ledger are byte-identical.
func formatAmount(v float64) string {
	return decimal.NewFromFloat(v).Round(6).String()
}
