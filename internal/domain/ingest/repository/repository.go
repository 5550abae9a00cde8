// Package repository provides data access for processed-file records.
package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ProcessedFile records one completed transaction import: the generated
// output filename, the uploaded filename, the column mapping used, and the
// run aggregates. It backs the processing-history view.
type ProcessedFile struct {
	ID               uuid.UUID         `db:"id" json:"id"`
	FileName         string            `db:"file_name" json:"file_name"`
	OriginalFileName string            `db:"original_file_name" json:"original_file_name"`
	ColumnMapping    map[string]string `db:"column_mapping" json:"column_mapping"` // jsonb
	TotalRecords     int               `db:"total_records" json:"total_records"`
	ValidRecords     int               `db:"valid_records" json:"valid_records"`
	RejectedRecords  int               `db:"rejected_records" json:"rejected_records"`
	CreatedAt        time.Time         `db:"created_at" json:"created_at"`
}

// IngestRepository defines data access operations for import runs
type IngestRepository interface {
	CreateProcessedFile(ctx context.Context, file *ProcessedFile) error
	GetProcessedFileByID(ctx context.Context, id uuid.UUID) (*ProcessedFile, error)
	ListProcessedFiles(ctx context.Context, limit int) ([]*ProcessedFile, error)
}
