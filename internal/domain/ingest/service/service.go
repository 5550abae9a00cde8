// Package service provides the import orchestration logic.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/rkotari/loyalty-import/internal/domain/ingest/pipeline"
	"github.com/rkotari/loyalty-import/internal/domain/ingest/repository"
	"github.com/rkotari/loyalty-import/internal/domain/ingest/sheet"
	"github.com/rkotari/loyalty-import/internal/domain/ingest/sniffer"
	"github.com/rkotari/loyalty-import/pkg/observability"
)

// ErrMobileColumnRequired rejects runs whose mapping never names a mobile
// column; without one every row would be rejected.
var ErrMobileColumnRequired = errors.New("mobile column mapping is required")

const sampleRowCount = 5

// TransactionFileResult is the outcome of one transaction import run: the
// encoded output file plus everything the caller needs to drive the optional
// contacts step.
type TransactionFileResult struct {
	FileName       string
	Data           []byte
	Grid           [][]string
	HasContactData bool
	Stats          pipeline.Stats
}

// ContactsFileResult is the outcome of one contacts extraction run.
type ContactsFileResult struct {
	FileName string
	Data     []byte
	Stats    pipeline.Stats
}

// AnalyzeResult contains the result of analyzing an uploaded file
type AnalyzeResult struct {
	Headers           []string             `json:"headers"`
	SampleRows        [][]string           `json:"sample_rows"`
	Suggestions       *sniffer.Suggestions `json:"suggestions"`
	HasContactColumns bool                 `json:"has_contact_columns"`
}

// ImportService orchestrates file analysis, pipeline runs, and history
type ImportService struct {
	repo   repository.IngestRepository
	logger *slog.Logger
	tracer trace.Tracer
	now    func() time.Time
}

// NewImportService creates a new import service
func NewImportService(repo repository.IngestRepository, logger *slog.Logger) *ImportService {
	return &ImportService{
		repo:   repo,
		logger: logger,
		tracer: otel.Tracer("ingest/service"),
		now:    time.Now,
	}
}

// ProcessTransactionFile decodes an uploaded spreadsheet, runs the
// transaction pipeline, and encodes the valid and rejected tables into a
// downloadable file. For CSV output the table selector picks which table the
// file carries; XLSX always holds both. The processed-file record is
// persisted best-effort: a storage failure is logged and the generated file
// is still returned.
func (s *ImportService) ProcessTransactionFile(ctx context.Context, originalName string, data []byte, mapping pipeline.Mapping, format sheet.Format, table sheet.Table) (result *TransactionFileResult, err error) {
	ctx, span := s.tracer.Start(ctx, "ProcessTransactionFile",
		trace.WithAttributes(attribute.String("file.name", originalName)))
	defer span.End()

	start := s.now()
	defer func() {
		var valid, rejected int
		if result != nil {
			valid, rejected = result.Stats.ValidRecords, result.Stats.RejectedRecords
		}
		observability.RecordRun("transaction", start, err, valid, rejected, 0)
	}()

	if mapping.Mobile == "" {
		return nil, ErrMobileColumnRequired
	}

	grid, err := sheet.Decode(data, originalName)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", originalName, err)
	}

	run := pipeline.ProcessTransactions(grid, mapping)
	span.SetAttributes(
		attribute.Int("rows.valid", run.Stats.ValidRecords),
		attribute.Int("rows.rejected", run.Stats.RejectedRecords),
	)

	blob, err := sheet.Encode(&sheet.Document{
		ValidSheet:      "Transactions",
		ValidHeaders:    run.Headers,
		ValidRows:       run.Rows,
		RejectedSheet:   "Rejected",
		RejectedHeaders: run.RejectedHeaders,
		RejectedRows:    run.RejectedRows,
	}, format, table)
	if err != nil {
		return nil, fmt.Errorf("failed to encode output: %w", err)
	}

	fileName := sheet.OutputFileName(outputPurpose("transaction", format, table), s.now(), format)

	record := &repository.ProcessedFile{
		FileName:         fileName,
		OriginalFileName: originalName,
		ColumnMapping:    mapping.Labels(),
		TotalRecords:     run.Stats.TotalRecords,
		ValidRecords:     run.Stats.ValidRecords,
		RejectedRecords:  run.Stats.RejectedRecords,
	}
	if err := s.repo.CreateProcessedFile(ctx, record); err != nil {
		s.logger.Warn("failed to persist processed file record",
			"file", fileName, "error", err)
	}

	return &TransactionFileResult{
		FileName:       fileName,
		Data:           blob,
		Grid:           grid,
		HasContactData: run.HasContactData,
		Stats:          run.Stats,
	}, nil
}

// ProcessContactsFile decodes an uploaded spreadsheet and extracts a
// deduplicated contact file from it.
func (s *ImportService) ProcessContactsFile(ctx context.Context, originalName string, data []byte, mapping pipeline.ContactsMapping, format sheet.Format, table sheet.Table) (*ContactsFileResult, error) {
	grid, err := sheet.Decode(data, originalName)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", originalName, err)
	}
	return s.GenerateContactsFile(ctx, grid, mapping, format, table)
}

// GenerateContactsFile runs the contacts pipeline over an already-decoded
// grid, typically the one returned by a preceding transaction run. Contact
// files are not recorded in history.
func (s *ImportService) GenerateContactsFile(ctx context.Context, grid [][]string, mapping pipeline.ContactsMapping, format sheet.Format, table sheet.Table) (result *ContactsFileResult, err error) {
	_, span := s.tracer.Start(ctx, "GenerateContactsFile")
	defer span.End()

	start := s.now()
	defer func() {
		var valid, rejected, duplicate int
		if result != nil {
			valid = result.Stats.ValidRecords
			rejected = result.Stats.RejectedRecords
			duplicate = result.Stats.DuplicateRecords
		}
		observability.RecordRun("contacts", start, err, valid, rejected, duplicate)
	}()

	if mapping.Mobile == "" {
		return nil, ErrMobileColumnRequired
	}
	if len(grid) <= 1 {
		return nil, sheet.ErrNoDataRows
	}

	run := pipeline.ProcessContacts(grid, mapping)
	span.SetAttributes(
		attribute.Int("rows.valid", run.Stats.ValidRecords),
		attribute.Int("rows.rejected", run.Stats.RejectedRecords),
		attribute.Int("rows.duplicate", run.Stats.DuplicateRecords),
	)

	blob, err := sheet.Encode(&sheet.Document{
		ValidSheet:      "Contacts",
		ValidHeaders:    run.Headers,
		ValidRows:       run.Rows,
		RejectedSheet:   "Rejected",
		RejectedHeaders: run.RejectedHeaders,
		RejectedRows:    run.RejectedRows,
	}, format, table)
	if err != nil {
		return nil, fmt.Errorf("failed to encode output: %w", err)
	}

	return &ContactsFileResult{
		FileName: sheet.OutputFileName(outputPurpose("contacts", format, table), s.now(), format),
		Data:     blob,
		Stats:    run.Stats,
	}, nil
}

// outputPurpose marks rejected-table CSV downloads in the filename so a
// client holding both files can tell them apart. XLSX files carry both
// tables, so the base purpose stands.
func outputPurpose(base string, format sheet.Format, table sheet.Table) string {
	if format == sheet.FormatCSV && table == sheet.TableRejected {
		return base + "_rejected"
	}
	return base
}

// AnalyzeFile decodes an uploaded file and returns its headers, a few sample
// rows, and best-effort mapping suggestions for the UI to prefill.
func (s *ImportService) AnalyzeFile(ctx context.Context, fileName string, data []byte) (*AnalyzeResult, error) {
	_, span := s.tracer.Start(ctx, "AnalyzeFile",
		trace.WithAttributes(attribute.String("file.name", fileName)))
	defer span.End()

	grid, err := sheet.Decode(data, fileName)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", fileName, err)
	}

	headers := grid[0]
	samples := grid[1:]
	if len(samples) > sampleRowCount {
		samples = samples[:sampleRowCount]
	}

	return &AnalyzeResult{
		Headers:           headers,
		SampleRows:        samples,
		Suggestions:       sniffer.SuggestColumns(headers, samples),
		HasContactColumns: sniffer.HasContactColumns(headers),
	}, nil
}

// History returns the most recent processed-file records.
func (s *ImportService) History(ctx context.Context, limit int) ([]*repository.ProcessedFile, error) {
	files, err := s.repo.ListProcessedFiles(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load processing history: %w", err)
	}
	return files, nil
}
