package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgxPool abstracts the subset of pgxpool.Pool used by the repository to allow mocking in tests.
type PgxPool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

var _ PgxPool = (*pgxpool.Pool)(nil)

const defaultHistoryLimit = 50

const createProcessedFileQuery = `
	INSERT INTO processed_files (
		id, file_name, original_file_name, column_mapping,
		total_records, valid_records, rejected_records, created_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
`

const getProcessedFileQuery = `
	SELECT id, file_name, original_file_name, column_mapping,
	       total_records, valid_records, rejected_records, created_at
	FROM processed_files WHERE id = $1
`

const listProcessedFilesQuery = `
	SELECT id, file_name, original_file_name, column_mapping,
	       total_records, valid_records, rejected_records, created_at
	FROM processed_files
	ORDER BY created_at DESC
	LIMIT $1
`

// PostgresIngestRepository implements IngestRepository using PostgreSQL
type PostgresIngestRepository struct {
	pgpool PgxPool
}

// NewPostgresIngestRepository creates a new PostgreSQL-backed ingest repository
func NewPostgresIngestRepository(pgpool PgxPool) *PostgresIngestRepository {
	return &PostgresIngestRepository{pgpool: pgpool}
}

// CreateProcessedFile inserts a new processed-file record
func (r *PostgresIngestRepository) CreateProcessedFile(ctx context.Context, file *ProcessedFile) error {
	if file.ID == uuid.Nil {
		file.ID = uuid.New()
	}
	if file.CreatedAt.IsZero() {
		file.CreatedAt = time.Now()
	}

	_, err := r.pgpool.Exec(ctx, createProcessedFileQuery,
		file.ID, file.FileName, file.OriginalFileName, file.ColumnMapping,
		file.TotalRecords, file.ValidRecords, file.RejectedRecords, file.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create processed file: %w", err)
	}

	return nil
}

// GetProcessedFileByID retrieves a processed-file record by ID
func (r *PostgresIngestRepository) GetProcessedFileByID(ctx context.Context, id uuid.UUID) (*ProcessedFile, error) {
	var file ProcessedFile
	err := r.pgpool.QueryRow(ctx, getProcessedFileQuery, id).Scan(
		&file.ID, &file.FileName, &file.OriginalFileName, &file.ColumnMapping,
		&file.TotalRecords, &file.ValidRecords, &file.RejectedRecords, &file.CreatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get processed file: %w", err)
	}

	return &file, nil
}

// ListProcessedFiles returns the most recent processed-file records
func (r *PostgresIngestRepository) ListProcessedFiles(ctx context.Context, limit int) ([]*ProcessedFile, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}

	rows, err := r.pgpool.Query(ctx, listProcessedFilesQuery, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list processed files: %w", err)
	}
	defer rows.Close()

	var files []*ProcessedFile
	for rows.Next() {
		var f ProcessedFile
		err := rows.Scan(
			&f.ID, &f.FileName, &f.OriginalFileName, &f.ColumnMapping,
			&f.TotalRecords, &f.ValidRecords, &f.RejectedRecords, &f.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan processed file: %w", err)
		}
		files = append(files, &f)
	}

	return files, nil
}
