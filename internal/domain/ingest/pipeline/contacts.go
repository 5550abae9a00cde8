package pipeline

import (
	"github.com/rkotari/loyalty-import/internal/domain/ingest/normalizer"
)

// ContactsResult is the outcome of one contacts pipeline run.
type ContactsResult struct {
	Headers         []string
	Rows            [][]string
	RejectedHeaders []string
	RejectedRows    [][]string
	Stats           Stats
}

// ProcessContacts extracts a deduplicated contact table from a raw grid. The
// same row-skipping and mobile-validation rules as the transaction pipeline
// apply; additionally, repeat appearances of an already-accepted mobile are
// moved to the rejected table, so the valid table keeps the first occurrence
// of each number in source order.
func ProcessContacts(grid [][]string, mapping ContactsMapping) *ContactsResult {
	result := &ContactsResult{
		Headers:         ContactHeaders,
		RejectedHeaders: withReason(ContactHeaders, RejectionHeader),
	}

	mobileIdx := columnIndex(mapping.Mobile)
	nameIdx := columnIndex(mapping.Name)
	emailIdx := columnIndex(mapping.Email)
	birthdayIdx := columnIndex(mapping.Birthday)
	anniversaryIdx := columnIndex(mapping.Anniversary)
	genderIdx := columnIndex(mapping.Gender)
	pointsIdx := columnIndex(mapping.Points)
	tagsIdx := columnIndex(mapping.Tags)

	seen := make(map[string]struct{})

	for i, row := range grid {
		if i == 0 || rowEmpty(row) {
			continue
		}

		record := []string{
			"",
			normalizer.CleanName(cellAt(row, nameIdx)),
			normalizer.NormalizeEmail(cellAt(row, emailIdx)),
			normalizer.FormatDate(cellAt(row, birthdayIdx)),
			normalizer.FormatDate(cellAt(row, anniversaryIdx)),
			normalizer.CleanText(cellAt(row, genderIdx)),
			normalizer.CleanText(cellAt(row, pointsIdx)),
			normalizer.CleanText(cellAt(row, tagsIdx)),
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

		if _, dup := seen[mobile]; dup {
			result.RejectedRows = append(result.RejectedRows, withReason(record, ReasonDuplicateMobile))
			result.Stats.DuplicateRecords++
			continue
		}
		seen[mobile] = struct{}{}

		result.Rows = append(result.Rows, record)
		result.Stats.ValidRecords++
	}

	result.Stats.TotalRecords = result.Stats.ValidRecords +
		result.Stats.RejectedRecords +
		result.Stats.DuplicateRecords
	return result
}
