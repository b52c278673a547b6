package costledger

import "testing"

func TestNormalizeDate(t *testing.T) {
	cases := []struct {
		input string
		want  string
		ok    bool
	}{
		{"2024-01-02", "2024-01-02", true},
		{" 2024-01-02 ", "2024-01-02", true},
		{"2024-01-02T00:00:00", "2024-01-02", true},
		{"2024-01-02T15:04:05Z", "2024-01-02", true},
		{"01/31/2024", "2024-01-31", true},
		{"", "", false},
		{"yesterday", "", false},
		{"2024-13-40", "", false},
	}
	for _, tc := range cases {
		got, err := NormalizeDate(tc.input)
		if tc.ok {
			if err != nil {
				t.Errorf("%q: unexpected error %v", tc.input, err)
			} else if got != tc.want {
				t.Errorf("%q: got %q, want %q", tc.input, got, tc.want)
			}
		} else if err == nil {
			t.Errorf("%q: expected error, got %q", tc.input, got)
		}
	}
}

func TestParseAmount(t *testing.T) {
	cases := []struct {
		input string
		want  float64
		ok    bool
	}{
		{"100", 100, true},
		{"-10.5", -10.5, true},
		{"1,234.50", 1234.5, true},
		{"", 0, true},
		{"  ", 0, true},
		{"abc", 0, false},
	}
	for _, tc := range cases {
		got, err := parseAmount(tc.input)
		if tc.ok {
			if err != nil {
				t.Errorf("%q: unexpected error %v", tc.input, err)
			} else if !floatEquals(got, tc.want, 1e-9) {
				t.Errorf("%q: got %v, want %v", tc.input, got, tc.want)
			}
		} else if err == nil {
			t.Errorf("%q: expected error", tc.input)
		}
	}
}
