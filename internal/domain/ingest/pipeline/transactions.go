package pipeline

import (
	"github.com/rkotari/loyalty-import/internal/domain/ingest/normalizer"
)

// TransactionResult is the outcome of one transaction pipeline run: a valid
// table, a rejected table with reasons, and run aggregates.
type TransactionResult struct {
	Headers         []string
	Rows            [][]string
	RejectedHeaders []string
	RejectedRows    [][]string
	HasContactData  bool
	Stats           Stats
}

// ProcessTransactions maps every data row of a raw grid onto the canonical
// transaction record. Row 0 is the header row and is skipped, as are rows
// whose every cell is blank. Each remaining row lands in exactly one of the
// valid or rejected tables; rejection is driven solely by the mobile number.
func ProcessTransactions(grid [][]string, mapping Mapping) *TransactionResult {
	result := &TransactionResult{
		Headers:         TransactionHeaders,
		RejectedHeaders: withReason(TransactionHeaders, RejectionHeader),
	}

	mobileIdx := columnIndex(mapping.Mobile)
	billNumberIdx := columnIndex(mapping.BillNumber)
	billAmountIdx := columnIndex(mapping.BillAmount)
	orderTimeIdx := columnIndex(mapping.OrderTime)
	pointsEarnedIdx := columnIndex(mapping.PointsEarned)
	pointsRedeemedIdx := columnIndex(mapping.PointsRedeemed)

	for i, row := range grid {
		if i == 0 || rowEmpty(row) {
			continue
		}

		record := []string{
			"",
			"purchase",
			normalizer.CleanText(cellAt(row, billNumberIdx)),
			normalizer.CleanText(cellAt(row, billAmountIdx)),
			normalizer.FormatDateOr(cellAt(row, orderTimeIdx)),
			normalizer.CleanText(cellAt(row, pointsEarnedIdx)),
			normalizer.CleanText(cellAt(row, pointsRedeemedIdx)),
		}

		if mobileIdx < 0 {
			result.RejectedRows = append(result.RejectedRows, withReason(record, ReasonMissingMobileColumn))
			result.Stats.RejectedRecords++
			continue
		}

		mobile := normalizer.NormalizePhone(cellAt(row, mobileIdx))
		record[0] = mobile
		if err := normalizer.ValidatePhone(mobile); err != nil {
			result.RejectedRows = append(result.RejectedRows, withReason(record, phoneReason(err)))
			result.Stats.RejectedRecords++
			continue
		}

		result.Rows = append(result.Rows, record)
		result.Stats.ValidRecords++
	}

	result.Stats.TotalRecords = result.Stats.ValidRecords + result.Stats.RejectedRecords
	result.HasContactData = result.Stats.ValidRecords > 0
	return result
}
