package costledger

import (
	"fmt"
	"strings"
	"time"
)

const isoDateLayout = "2006-01-02"

// TodayISO returns the current calendar date as YYYY-MM-DD in UTC. Trade
// dates are timezone-free calendar dates, so UTC is the one fixed point.
func TodayISO() string {
	return time.Now().UTC().Format(isoDateLayout)
}

// NowRFC3339 returns the current RFC3339 timestamp in UTC.
func NowRFC3339() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// NormalizeDate coerces the date forms seen in source files into the
// canonical YYYY-MM-DD string. Accepted inputs: YYYY-MM-DD, an ISO
// timestamp with a T separator, and MM/DD/YYYY.
func NormalizeDate(value string) (string, error) {
	s := strings.TrimSpace(value)
	if s == "" {
		return "", fmt.Errorf("empty date")
	}
	if idx := strings.IndexByte(s, 'T'); idx == len(isoDateLayout) {
		s = s[:idx]
	}
	if t, err := time.Parse(isoDateLayout, s); err == nil {
		return t.Format(isoDateLayout), nil
	}
	if t, err := time.Parse("01/02/2006", s); err == nil {
		return t.Format(isoDateLayout), nil
	}
	return "", fmt.Errorf("unrecognized date %q", value)
}
