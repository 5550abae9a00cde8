// Package collabel converts between spreadsheet-style column labels and
// zero-based column indices. Labels are bijective base-26: A=0, Z=25, AA=26.
package collabel

const maxIndex = int(^uint(0) >> 1)

// IndexToLabel returns the column label for a zero-based index.
// Negative indices produce an empty string.
func IndexToLabel(index int) string {
	if index < 0 {
		return ""
	}

	// 14 letters cover the largest 64-bit index.
	var buf [14]byte
	pos := len(buf)
	for index >= 0 {
		pos--
		buf[pos] = byte('A' + index%26)
		index = index/26 - 1
	}

	return string(buf[pos:])
}

// LabelToIndex returns the zero-based index for a column label.
// Matching is case-insensitive. Returns -1 for an empty string, any input
// containing a non-letter, or a label whose index does not fit in an int.
func LabelToIndex(label string) int {
	if label == "" {
		return -1
	}

	index := 0
	for _, r := range label {
		var digit int
		switch {
		case r >= 'A' && r <= 'Z':
			digit = int(r-'A') + 1
		case r >= 'a' && r <= 'z':
			digit = int(r-'a') + 1
		default:
			return -1
		}
		if index > (maxIndex-digit)/26 {
			return -1
		}
		index = index*26 + digit
	}

	return index - 1
}
