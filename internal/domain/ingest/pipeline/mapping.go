// Package pipeline turns a raw spreadsheet grid into canonical transaction
// and contact tables, splitting every data row into exactly one of a valid
// table or a rejected table with an explicit reason.
package pipeline

import (
	"errors"
	"strings"

	"github.com/rkotari/loyalty-import/internal/domain/ingest/collabel"
	"github.com/rkotari/loyalty-import/internal/domain/ingest/normalizer"
)

// Canonical output headers. Transaction records carry an injected txn_type
// column that has no source cell.
var (
	TransactionHeaders = []string{
		"mobile", "txn_type", "bill_number", "bill_amount",
		"order_time", "points_earned", "points_redeemed",
	}
	ContactHeaders = []string{
		"mobile", "name", "email", "birthday",
		"anniversary", "gender", "points", "tags",
	}
)

// RejectionHeader is appended to the canonical headers on rejected tables.
const RejectionHeader = "rejection_reason"

// Rejection reasons are part of the output contract: they appear verbatim in
// the rejected table delivered to the customer.
const (
	ReasonMissingMobile       = "Missing mobile number"
	ReasonMobileTooShort      = "Mobile number has fewer than 10 digits"
	ReasonMobileBadPrefix     = "Mobile number starts with digit 5 or lower"
	ReasonMissingMobileColumn = "Missing mobile number column"
	ReasonDuplicateMobile     = "Duplicate mobile number"
)

// Mapping assigns spreadsheet column labels (A, B, ..., AA, ...) to the
// canonical transaction fields. An empty label means the field is unmapped.
type Mapping struct {
	Mobile         string `json:"mobile"`
	BillNumber     string `json:"bill_number"`
	BillAmount     string `json:"bill_amount"`
	OrderTime      string `json:"order_time"`
	PointsEarned   string `json:"points_earned"`
	PointsRedeemed string `json:"points_redeemed"`
}

// Labels returns the mapping as a field-name to column-label map, the shape
// persisted alongside each processed file.
func (m Mapping) Labels() map[string]string {
	return map[string]string{
		"mobile":          m.Mobile,
		"bill_number":     m.BillNumber,
		"bill_amount":     m.BillAmount,
		"order_time":      m.OrderTime,
		"points_earned":   m.PointsEarned,
		"points_redeemed": m.PointsRedeemed,
	}
}

// ContactsMapping assigns column labels to the canonical contact fields.
// Only mobile is required.
type ContactsMapping struct {
	Mobile      string `json:"mobile"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	Birthday    string `json:"birthday"`
	Anniversary string `json:"anniversary"`
	Gender      string `json:"gender"`
	Points      string `json:"points"`
	Tags        string `json:"tags"`
}

// Labels returns the contacts mapping as a field-name to column-label map.
func (m ContactsMapping) Labels() map[string]string {
	return map[string]string{
		"mobile":      m.Mobile,
		"name":        m.Name,
		"email":       m.Email,
		"birthday":    m.Birthday,
		"anniversary": m.Anniversary,
		"gender":      m.Gender,
		"points":      m.Points,
		"tags":        m.Tags,
	}
}

// Stats aggregates the outcome of one pipeline run. DuplicateRecords is only
// populated by the contacts pipeline.
type Stats struct {
	TotalRecords     int `json:"total_records"`
	ValidRecords     int `json:"valid_records"`
	RejectedRecords  int `json:"rejected_records"`
	DuplicateRecords int `json:"duplicate_records,omitempty"`
}

// columnIndex resolves a column label to a zero-based index, -1 when the
// field is unmapped or the label is malformed.
func columnIndex(label string) int {
	label = strings.TrimSpace(label)
	if label == "" {
		return -1
	}
	return collabel.LabelToIndex(label)
}

// cellAt reads a cell tolerantly: out-of-range and unmapped indices read as
// empty, matching how spreadsheet rows omit trailing cells.
func cellAt(row []string, index int) string {
	if index < 0 || index >= len(row) {
		return ""
	}
	return row[index]
}

// rowEmpty reports whether every cell in the row is blank after trimming.
func rowEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// phoneReason translates a validation error into its customer-facing
// rejection reason.
func phoneReason(err error) string {
	switch {
	case errors.Is(err, normalizer.ErrPhoneMissing):
		return ReasonMissingMobile
	case errors.Is(err, normalizer.ErrPhoneTooShort):
		return ReasonMobileTooShort
	case errors.Is(err, normalizer.ErrPhoneBadPrefix):
		return ReasonMobileBadPrefix
	}
	return ReasonMissingMobile
}

func withReason(record []string, reason string) []string {
	rejected := make([]string, 0, len(record)+1)
	rejected = append(rejected, record...)
	return append(rejected, reason)
}
