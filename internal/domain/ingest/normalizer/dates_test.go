package normalizer

import (
	"testing"
	"time"
)

func TestParseFlexibleDate(t *testing.T) {
	tests := []struct {
		input    string
		expected string // yyyy-MM-dd, or "" when parsing must fail
	}{
		// ISO shapes
		{"2023-12-25", "2023-12-25"},
		{"2023/12/25", "2023-12-25"},
		{"2023-12-25 13:45:00", "2023-12-25"},
		{"2023-12-25T13:45:00", "2023-12-25"},
		{"2023-12-25T13:45:00Z", "2023-12-25"},

		// Day-first numeric, unambiguous
		{"25/12/2023", "2023-12-25"},
		{"25-12-2023", "2023-12-25"},
		{"25.12.2023", "2023-12-25"},
		{"25/12/23", "2023-12-25"},

		// Ambiguous numeric: day-first wins
		{"03/04/2023", "2023-04-03"},
		{"1/2/2023", "2023-02-01"},

		// Month-first only works when day-first is impossible
		{"12/25/2023", "2023-12-25"},

		// Month names
		{"25 December 2023", "2023-12-25"},
		{"25 Dec 2023", "2023-12-25"},
		{"Dec 25, 2023", "2023-12-25"},
		{"December 25, 2023", "2023-12-25"},
		{"25-Dec-23", "2023-12-25"},
		{"25-Dec-2023", "2023-12-25"},
		{"Dec 25, 2023 13:45", "2023-12-25"},

		// Spreadsheet serial dates (1899-12-30 epoch)
		{"45290", "2023-12-30"},
		{"44927", "2023-01-01"},

		// Garbage
		{"", ""},
		{"not a date", ""},
		{"32/13/2023", ""},
		{"-5", ""},
	}

	for _, tc := range tests {
		got, err := ParseFlexibleDate(tc.input)
		if tc.expected == "" {
			if err == nil {
				t.Errorf("ParseFlexibleDate(%q) = %v, want error", tc.input, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseFlexibleDate(%q) error: %v", tc.input, err)
			continue
		}
		if formatted := got.Format("2006-01-02"); formatted != tc.expected {
			t.Errorf("ParseFlexibleDate(%q) = %s, want %s", tc.input, formatted, tc.expected)
		}
	}
}

func TestParseFlexibleDate_KeepsTimeComponent(t *testing.T) {
	got, err := ParseFlexibleDate("2023-12-25 13:45:10")
	if err != nil {
		t.Fatalf("ParseFlexibleDate: %v", err)
	}
	want := time.Date(2023, time.December, 25, 13, 45, 10, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestFormatDate(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"25/12/2023", "2023-12-25"},
		{"2023-12-25 13:45:00", "2023-12-25"},
		{"birthday unknown", ""},
		{"", ""},
	}

	for _, tc := range tests {
		if got := FormatDate(tc.input); got != tc.expected {
			t.Errorf("FormatDate(%q) = %q, want %q", tc.input, got, tc.expected)
		}
	}
}
