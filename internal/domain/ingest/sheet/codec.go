// Package sheet decodes uploaded spreadsheet files into raw cell grids and
// encodes processed tables back into downloadable CSV or XLSX blobs. Only the
// first sheet of a workbook is read.
package sheet

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

var (
	ErrEmptyFile         = errors.New("file is empty")
	ErrNoDataRows        = errors.New("file contains no data rows")
	ErrUnsupportedFormat = errors.New("unsupported output format")
	ErrUnknownTable      = errors.New("unknown output table")
)

// Format selects the encoding of a generated output file.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// ParseFormat validates a user-supplied format string, defaulting to XLSX.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "xlsx":
		return FormatXLSX, nil
	case "csv":
		return FormatCSV, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
}

// Table selects which of a Document's tables a single-table encoding
// carries.
type Table string

const (
	TableValid    Table = "valid"
	TableRejected Table = "rejected"
)

// ParseTable validates a user-supplied table selector, defaulting to the
// valid table.
func ParseTable(s string) (Table, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "valid":
		return TableValid, nil
	case "rejected":
		return TableRejected, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownTable, s)
}

// Document is an in-memory output workbook: a valid table plus a rejected
// table that carries a rejection reason column.
type Document struct {
	ValidSheet      string
	ValidHeaders    []string
	ValidRows       [][]string
	RejectedSheet   string
	RejectedHeaders []string
	RejectedRows    [][]string
}

// Decode reads an uploaded file into a raw grid of cell strings. The format
// is chosen by file extension: workbook extensions go through excelize,
// everything else is treated as delimited text. Missing trailing cells are
// left to the caller (rows may be ragged); a grid without at least one data
// row below the header is a structural error.
func Decode(data []byte, fileName string) ([][]string, error) {
	if len(data) == 0 {
		return nil, ErrEmptyFile
	}

	var (
		grid [][]string
		err  error
	)
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".xlsx", ".xlsm", ".xls":
		grid, err = decodeWorkbook(data)
	default:
		grid, err = decodeDelimited(data)
	}
	if err != nil {
		return nil, err
	}

	if len(grid) <= 1 {
		return nil, ErrNoDataRows
	}
	return grid, nil
}

func decodeDelimited(data []byte) ([][]string, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read delimited file: %w", err)
	}
	return rows, nil
}

func decodeWorkbook(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, ErrNoDataRows
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheetName, err)
	}
	return rows, nil
}

// Encode renders a Document in the requested format. XLSX output holds both
// tables as separate sheets regardless of the selector; CSV output carries
// the selected table only.
func Encode(doc *Document, format Format, table Table) ([]byte, error) {
	switch format {
	case FormatCSV:
		if table == TableRejected {
			return encodeCSV(doc.RejectedHeaders, doc.RejectedRows)
		}
		return encodeCSV(doc.ValidHeaders, doc.ValidRows)
	case FormatXLSX:
		return encodeWorkbook(doc)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
}

func encodeCSV(headers []string, rows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, row := range rows {
		if err := writer.Write(row); err != nil {
			return nil, fmt.Errorf("failed to write csv row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

func encodeWorkbook(doc *Document) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), doc.ValidSheet); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}
	if _, err := f.NewSheet(doc.RejectedSheet); err != nil {
		return nil, fmt.Errorf("failed to add sheet: %w", err)
	}

	if err := writeSheet(f, doc.ValidSheet, doc.ValidHeaders, doc.ValidRows); err != nil {
		return nil, err
	}
	if err := writeSheet(f, doc.RejectedSheet, doc.RejectedHeaders, doc.RejectedRows); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeSheet(f *excelize.File, sheetName string, headers []string, rows [][]string) error {
	if err := setSheetRow(f, sheetName, 1, headers); err != nil {
		return err
	}
	for i, row := range rows {
		if err := setSheetRow(f, sheetName, i+2, row); err != nil {
			return err
		}
	}

	for i, header := range headers {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return fmt.Errorf("failed to resolve column name: %w", err)
		}
		if err := f.SetColWidth(sheetName, col, col, columnWidth(header)); err != nil {
			return fmt.Errorf("failed to set column width: %w", err)
		}
	}
	return nil
}

func setSheetRow(f *excelize.File, sheetName string, rowNum int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, rowNum)
	if err != nil {
		return fmt.Errorf("failed to resolve cell name: %w", err)
	}

	row := make([]interface{}, len(values))
	for i, v := range values {
		row[i] = v
	}
	if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
		return fmt.Errorf("failed to write row %d: %w", rowNum, err)
	}
	return nil
}

// columnWidth mirrors the widths the download consumers expect for the
// canonical fields.
func columnWidth(header string) float64 {
	switch strings.ToLower(header) {
	case "email":
		return 25
	case "name", "tags", "order_time", "rejection_reason":
		return 20
	case "mobile", "birthday", "anniversary", "bill_number", "bill_amount":
		return 15
	case "gender", "points", "points_earned", "points_redeemed":
		return 10
	}
	return 12
}

// OutputFileName builds a download filename of the shape
// {purpose}_{timestamp}.{ext} with a filesystem-safe ISO-8601-derived
// timestamp (colons replaced, sub-second precision and zone dropped).
func OutputFileName(purpose string, at time.Time, format Format) string {
	ts := at.UTC().Format("2006-01-02T15-04-05")
	return fmt.Sprintf("%s_%s.%s", purpose, ts, format)
}
