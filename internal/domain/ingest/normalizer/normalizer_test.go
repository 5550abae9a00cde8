package normalizer

import (
	"errors"
	"testing"
)

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"+91 98765 43210", "9876543210"},
		{"91-9876543210", "9876543210"},
		{"09876543210", "9876543210"},
		{"9876543210", "9876543210"},
		{"(987) 654-3210", "9876543210"},
		{"12345", "12345"},
		{"91234", "91234"}, // 5 digits starting with 91: prefix kept, too short to strip
		{"919876543210", "9876543210"},
		{"00919876543210", "9876543210"},
		{"", ""},
		{"abc", ""},
		{"  9876543210  ", "9876543210"},
	}

	for _, tc := range tests {
		if got := NormalizePhone(tc.input); got != tc.expected {
			t.Errorf("NormalizePhone(%q) = %q, want %q", tc.input, got, tc.expected)
		}
	}
}

func TestNormalizePhone_Idempotent(t *testing.T) {
	numbers := []string{"9876543210", "6000000000", "12345", ""}
	for _, n := range numbers {
		once := NormalizePhone(n)
		if twice := NormalizePhone(once); twice != once {
			t.Errorf("NormalizePhone not idempotent for %q: %q -> %q", n, once, twice)
		}
	}
}

func TestValidatePhone(t *testing.T) {
	tests := []struct {
		input    string
		expected error
	}{
		{"9876543210", nil},
		{"6000000000", nil},
		{"7123456789", nil},
		{"8123456789", nil},
		{"", ErrPhoneMissing},
		{"12345", ErrPhoneTooShort},
		{"987654321", ErrPhoneTooShort},
		{"5123456789", ErrPhoneBadPrefix},
		{"0123456789", ErrPhoneBadPrefix},
	}

	for _, tc := range tests {
		if got := ValidatePhone(tc.input); !errors.Is(got, tc.expected) {
			t.Errorf("ValidatePhone(%q) = %v, want %v", tc.input, got, tc.expected)
		}
	}
}

func TestCleanName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"  Asha Rao  ", "Asha Rao"},
		{"O'Brien", "O'Brien"},
		{"Jean-Luc", "Jean-Luc"},
		{"Ravi Kumar (VIP)", "Ravi Kumar VIP"},
		{"A. P. J.", "A P J"},
		{"Priya123", "Priya"},
		{"123", ""},
		{"", ""},
	}

	for _, tc := range tests {
		if got := CleanName(tc.input); got != tc.expected {
			t.Errorf("CleanName(%q) = %q, want %q", tc.input, got, tc.expected)
		}
	}
}

func TestNormalizeEmail(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"User@Example.COM", "user@example.com"},
		{"  asha@shop.in  ", "asha@shop.in"},
		{"a.b+tag@sub.example.org", "a.b+tag@sub.example.org"},
		{"not-an-email", ""},
		{"missing@tld", ""},
		{"two@@example.com", ""},
		{"white space@example.com", ""},
		{"@example.com", ""},
		{"", ""},
	}

	for _, tc := range tests {
		if got := NormalizeEmail(tc.input); got != tc.expected {
			t.Errorf("NormalizeEmail(%q) = %q, want %q", tc.input, got, tc.expected)
		}
	}
}

func TestCoerceNumeric(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"123", "123"},
		{"12.50", "12.50"},
		{"-42", "-42"},
		{"₹500", "500"},
		{"Rs. 1250.75", ""}, // the abbreviation dot corrupts the number
		{"abc", ""},
		{"", ""},
		{"-.-", ""},
		{"1-2", ""},
	}

	for _, tc := range tests {
		if got := CoerceNumeric(tc.input); got != tc.expected {
			t.Errorf("CoerceNumeric(%q) = %q, want %q", tc.input, got, tc.expected)
		}
	}
}
