package sheet

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeCSV(t *testing.T) {
	data := []byte(strings.Join([]string{
		"Phone,Name,Amount",
		"9876543210,Asha,120.50",
		"9812345678,Ravi", // short row: missing trailing cell
		"",
	}, "\n"))

	grid, err := Decode(data, "upload.csv")
	require.NoError(t, err)
	require.Len(t, grid, 3)
	assert.Equal(t, []string{"Phone", "Name", "Amount"}, grid[0])
	assert.Equal(t, []string{"9876543210", "Asha", "120.50"}, grid[1])
	assert.Equal(t, []string{"9812345678", "Ravi"}, grid[2])
}

func TestDecode_StructuralErrors(t *testing.T) {
	_, err := Decode(nil, "upload.csv")
	assert.ErrorIs(t, err, ErrEmptyFile)

	_, err = Decode([]byte("Phone,Name,Amount\n"), "upload.csv")
	assert.ErrorIs(t, err, ErrNoDataRows)

	_, err = Decode([]byte("not a zip archive"), "upload.xlsx")
	assert.Error(t, err)
}

func TestEncodeCSV_TableSelection(t *testing.T) {
	doc := &Document{
		ValidSheet:      "Contacts",
		ValidHeaders:    []string{"mobile", "name"},
		ValidRows:       [][]string{{"9876543210", "Asha"}},
		RejectedSheet:   "Rejected",
		RejectedHeaders: []string{"mobile", "name", "rejection_reason"},
		RejectedRows:    [][]string{{"12345", "", "Mobile number has fewer than 10 digits"}},
	}

	data, err := Encode(doc, FormatCSV, TableValid)
	require.NoError(t, err)

	got := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, got, 2)
	assert.Equal(t, "mobile,name", got[0])
	assert.Equal(t, "9876543210,Asha", got[1])

	data, err = Encode(doc, FormatCSV, TableRejected)
	require.NoError(t, err)

	got = strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, got, 2)
	assert.Equal(t, "mobile,name,rejection_reason", got[0])
	assert.Equal(t, "12345,,Mobile number has fewer than 10 digits", got[1])
}

func TestEncodeXLSX_RoundTrip(t *testing.T) {
	doc := &Document{
		ValidSheet:   "Transactions",
		ValidHeaders: []string{"mobile", "txn_type", "bill_number"},
		ValidRows: [][]string{
			{"9876543210", "purchase", "INV-1"},
			{"9812345678", "purchase", "INV-2"},
		},
		RejectedSheet:   "Rejected",
		RejectedHeaders: []string{"mobile", "txn_type", "bill_number", "rejection_reason"},
		RejectedRows: [][]string{
			{"12345", "purchase", "INV-3", "Mobile number has fewer than 10 digits"},
		},
	}

	// XLSX carries both tables no matter which one is selected.
	data, err := Encode(doc, FormatXLSX, TableRejected)
	require.NoError(t, err)

	// Decode reads the first sheet back.
	grid, err := Decode(data, "transaction_2023-12-25T10-30-00.xlsx")
	require.NoError(t, err)
	require.Len(t, grid, 3)
	assert.Equal(t, doc.ValidHeaders, grid[0])
	assert.Equal(t, doc.ValidRows[0], grid[1])
	assert.Equal(t, doc.ValidRows[1], grid[2])
}

func TestEncode_UnsupportedFormat(t *testing.T) {
	_, err := Encode(&Document{}, Format("pdf"), TableValid)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestParseTable(t *testing.T) {
	for input, expected := range map[string]Table{
		"":          TableValid,
		"valid":     TableValid,
		"Rejected":  TableRejected,
		" rejected": TableRejected,
	} {
		got, err := ParseTable(input)
		require.NoError(t, err)
		assert.Equal(t, expected, got)
	}

	_, err := ParseTable("both")
	assert.ErrorIs(t, err, ErrUnknownTable)
}

func TestParseFormat(t *testing.T) {
	for input, expected := range map[string]Format{
		"":     FormatXLSX,
		"xlsx": FormatXLSX,
		"CSV":  FormatCSV,
		" csv": FormatCSV,
	} {
		got, err := ParseFormat(input)
		require.NoError(t, err)
		assert.Equal(t, expected, got)
	}

	_, err := ParseFormat("pdf")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestOutputFileName(t *testing.T) {
	at := time.Date(2023, time.December, 25, 10, 30, 45, 123456789, time.UTC)

	assert.Equal(t, "transaction_2023-12-25T10-30-45.xlsx", OutputFileName("transaction", at, FormatXLSX))
	assert.Equal(t, "contacts_2023-12-25T10-30-45.csv", OutputFileName("contacts", at, FormatCSV))
}
