package normalizer

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

var ErrInvalidDate = errors.New("invalid date format")

const dateOnlyLayout = "2006-01-02"

// Layouts are tried in order. Day-first numeric layouts come before
// month-first so that an ambiguous date like 03/04/2023 resolves
// deterministically to April 3rd.
var dateLayouts = []string{
	// ISO date-time
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 3:04:05 PM",
	"2006-01-02 15:04",
	"2006-01-02 3:04 PM",

	// ISO date
	"2006-01-02",
	"2006/01/02",

	// Day-first numeric
	"02-01-2006",
	"02/01/2006",
	"02.01.2006",
	"02/01/06",
	"02-01-06",

	// Month-first numeric
	"01-02-2006",
	"01/02/2006",
	"01/02/06",
	"01-02-06",

	// Spelled-out month names (commas are stripped before matching)
	"2 January 2006",
	"2 Jan 2006",
	"January 2 2006",
	"Jan 2 2006",
	"02-Jan-2006",
	"02-Jan-06",
	"January 2 2006 15:04",
	"January 2 2006 3:04 PM",
	"Jan 2 2006 15:04",
	"Jan 2 2006 3:04 PM",
	"Mon 02 Jan 2006",
	"Monday January 2 2006",
}

var (
	dateCleanup        = strings.NewReplacer("|", " ", ",", " ")
	spacePattern       = regexp.MustCompile(`\s+`)
	numericDatePattern = regexp.MustCompile(`^(\d{1,2})[/\-.](\d{1,2})[/\-.](\d{2,4})$`)
)

// ParseFlexibleDate attempts to parse a free-form date string. Strategies, in
// order: the explicit layout list above, a two-way trial for bare D/M/Y
// numeric shapes (day-first preferred), and spreadsheet serial dates counted
// from the 1899-12-30 epoch.
func ParseFlexibleDate(raw string) (time.Time, error) {
	cleaned := spacePattern.ReplaceAllString(dateCleanup.Replace(strings.TrimSpace(raw)), " ")
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" {
		return time.Time{}, ErrInvalidDate
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, cleaned); err == nil {
			return t, nil
		}
	}

	if t, ok := parseNumericDate(cleaned); ok {
		return t, nil
	}
	if t, ok := parseSerialDate(cleaned); ok {
		return t, nil
	}

	return time.Time{}, ErrInvalidDate
}

// FormatDate renders a free-form date string as yyyy-MM-dd, or an empty
// string when every parsing strategy fails. Callers decide whether to fall
// back to the raw input.
func FormatDate(raw string) string {
	t, err := ParseFlexibleDate(raw)
	if err != nil {
		return ""
	}
	return t.Format(dateOnlyLayout)
}

// FormatDateOr is FormatDate with the trimmed raw input as the fallback, for
// fields where an unparseable value is still worth keeping.
func FormatDateOr(raw string) string {
	if formatted := FormatDate(raw); formatted != "" {
		return formatted
	}
	return strings.TrimSpace(raw)
}

// parseNumericDate handles bare numeric dates the layout list rejected,
// trying day-first and then month-first and accepting the first combination
// that is a real calendar date.
func parseNumericDate(s string) (time.Time, bool) {
	m := numericDatePattern.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}, false
	}

	first, _ := strconv.Atoi(m[1])
	second, _ := strconv.Atoi(m[2])
	year, _ := strconv.Atoi(m[3])
	if len(m[3]) == 2 {
		year += 2000
	}

	candidates := [2]struct{ day, month int }{
		{day: first, month: second},
		{day: second, month: first},
	}
	for _, c := range candidates {
		if t, ok := calendarDate(year, c.month, c.day); ok {
			return t, true
		}
	}

	return time.Time{}, false
}

// calendarDate builds a date and verifies the components survived without
// time.Date normalization (e.g. February 30th rolling into March).
func calendarDate(year, month, day int) (time.Time, bool) {
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || t.Month() != time.Month(month) || t.Day() != day {
		return time.Time{}, false
	}
	return t, true
}

// parseSerialDate interprets a bare positive number as a spreadsheet serial
// date. excelize carries the conventional off-by-two adjustment for the
// historical 1900 leap-year bug.
func parseSerialDate(s string) (time.Time, bool) {
	serial, err := strconv.ParseFloat(s, 64)
	if err != nil || serial <= 0 {
		return time.Time{}, false
	}

	t, err := excelize.ExcelDateToTime(serial, false)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
