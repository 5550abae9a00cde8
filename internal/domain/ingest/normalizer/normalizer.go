// Package normalizer provides the pure field-level cleaners used by the
// import pipelines: phone canonicalization, free-text and name cleaning,
// email normalization, numeric coercion, and flexible date parsing.
package normalizer

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

var (
	ErrPhoneMissing   = errors.New("mobile number is empty")
	ErrPhoneTooShort  = errors.New("mobile number has fewer than 10 digits")
	ErrPhoneBadPrefix = errors.New("mobile number starts with digit 5 or lower")
)

// emailPattern accepts local@domain.tld with no whitespace and at least one
// dot in the domain part.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// NormalizePhone canonicalizes a raw mobile-number cell: all non-digits are
// stripped, a leading "91" country code is dropped when more than 10 digits
// remain, and anything still longer than 10 digits is truncated to the last
// 10. Short results are returned as-is so ValidatePhone can reject them.
func NormalizePhone(raw string) string {
	digits := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, raw)

	if strings.HasPrefix(digits, "91") && len(digits) > 10 {
		digits = digits[2:]
	}
	if len(digits) > 10 {
		digits = digits[len(digits)-10:]
	}

	return digits
}

// ValidatePhone reports whether a normalized mobile number is acceptable:
// exactly 10 digits with a leading digit in 6-9.
func ValidatePhone(phone string) error {
	if phone == "" {
		return ErrPhoneMissing
	}
	if len(phone) < 10 {
		return ErrPhoneTooShort
	}
	if phone[0] < '6' || phone[0] > '9' {
		return ErrPhoneBadPrefix
	}
	return nil
}

// CleanText trims surrounding whitespace.
func CleanText(raw string) string {
	return strings.TrimSpace(raw)
}

// CleanName removes every rune that is not a letter, whitespace, apostrophe,
// or hyphen, then trims the result.
func CleanName(raw string) string {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsSpace(r) || r == '\'' || r == '-' {
			return r
		}
		return -1
	}, raw)

	return strings.TrimSpace(cleaned)
}

// NormalizeEmail trims and lowercases an email address. Values that do not
// match the local@domain.tld shape normalize to an empty string; a malformed
// email is dropped silently rather than rejecting the row.
func NormalizeEmail(raw string) string {
	email := strings.ToLower(strings.TrimSpace(raw))
	if !emailPattern.MatchString(email) {
		return ""
	}
	return email
}

// CoerceNumeric strips everything except digits, '.', and '-', then verifies
// the remainder parses as a floating-point number. Returns an empty string
// when it does not.
func CoerceNumeric(raw string) string {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) || r == '.' || r == '-' {
			return r
		}
		return -1
	}, raw)

	if cleaned == "" {
		return ""
	}
	if _, err := strconv.ParseFloat(cleaned, 64); err != nil {
		return ""
	}

	return cleaned
}
