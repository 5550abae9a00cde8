// Package sniffer provides best-effort header heuristics for uploaded grids:
// whether a sheet looks like it carries contact data, and suggested column
// labels for the transaction mapping. Suggestions never gate processing; the
// caller can always override them.
package sniffer

import (
	"strings"

	"github.com/rkotari/loyalty-import/internal/domain/ingest/collabel"
	"github.com/rkotari/loyalty-import/internal/domain/ingest/normalizer"
)

// Header keywords per canonical field. Matching is a lowercase substring
// check, so "Customer Mobile No." matches "mobile".
var (
	mobileKeywords   = []string{"mobile", "phone", "contact no", "cell", "msisdn", "whatsapp"}
	billNumKeywords  = []string{"bill", "invoice", "receipt", "order no", "order id", "txn id", "transaction id"}
	amountKeywords   = []string{"amount", "total", "value", "price", "spent"}
	dateKeywords     = []string{"date", "time", "datetime", "timestamp"}
	earnedKeywords   = []string{"earned", "points earned", "credit"}
	redeemedKeywords = []string{"redeemed", "points redeemed", "debit"}

	contactKeywords = []string{
		"name", "email", "birthday", "birth", "dob", "anniversary",
		"gender", "sex", "tag", "mobile", "phone",
	}
)

// Suggestions carries suggested column labels for the transaction mapping.
// Empty fields mean no confident match was found.
type Suggestions struct {
	Mobile         string `json:"mobile,omitempty"`
	BillNumber     string `json:"bill_number,omitempty"`
	BillAmount     string `json:"bill_amount,omitempty"`
	OrderTime      string `json:"order_time,omitempty"`
	PointsEarned   string `json:"points_earned,omitempty"`
	PointsRedeemed string `json:"points_redeemed,omitempty"`
}

// HasContactColumns reports whether a header row mentions any contact-shaped
// field, used to decide whether to offer contact extraction after a
// transaction run.
func HasContactColumns(headers []string) bool {
	for _, header := range headers {
		h := strings.ToLower(strings.TrimSpace(header))
		if h == "" {
			continue
		}
		for _, kw := range contactKeywords {
			if strings.Contains(h, kw) {
				return true
			}
		}
	}
	return false
}

// SuggestColumns auto-matches the transaction mapping against a header row.
// Sample rows refine the amount suggestion: a header match whose sampled
// cells never coerce to a number is discarded in favor of the next match.
func SuggestColumns(headers []string, samples [][]string) *Suggestions {
	s := &Suggestions{}

	mobileIdx := -1
	amountIdx := -1
	for i, header := range headers {
		h := strings.ToLower(strings.TrimSpace(header))
		if h == "" {
			continue
		}

		if mobileIdx == -1 && matchesAny(h, mobileKeywords) {
			mobileIdx = i
			s.Mobile = collabel.IndexToLabel(i)
		}
		if s.BillNumber == "" && matchesAny(h, billNumKeywords) {
			s.BillNumber = collabel.IndexToLabel(i)
		}
		if amountIdx == -1 && matchesAny(h, amountKeywords) && columnLooksNumeric(samples, i) {
			amountIdx = i
			s.BillAmount = collabel.IndexToLabel(i)
		}
		if s.OrderTime == "" && matchesAny(h, dateKeywords) {
			s.OrderTime = collabel.IndexToLabel(i)
		}
		if s.PointsEarned == "" && matchesAny(h, earnedKeywords) {
			s.PointsEarned = collabel.IndexToLabel(i)
		}
		if s.PointsRedeemed == "" && matchesAny(h, redeemedKeywords) {
			s.PointsRedeemed = collabel.IndexToLabel(i)
		}
	}

	// A column matched as the mobile source should not double as the amount.
	if amountIdx != -1 && amountIdx == mobileIdx {
		s.BillAmount = ""
	}

	return s
}

func matchesAny(header string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(header, kw) {
			return true
		}
	}
	return false
}

// columnLooksNumeric reports whether the sampled cells of a column coerce to
// numbers. Columns with no sampled content pass, since an empty sample proves
// nothing either way.
func columnLooksNumeric(samples [][]string, index int) bool {
	for _, row := range samples {
		if index >= len(row) {
			continue
		}
		cell := strings.TrimSpace(row[index])
		if cell == "" {
			continue
		}
		if normalizer.CoerceNumeric(cell) == "" {
			return false
		}
	}
	return true
}
