package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/rkotari/loyalty-import/internal/domain/ingest/pipeline"
	"github.com/rkotari/loyalty-import/internal/domain/ingest/repository"
	"github.com/rkotari/loyalty-import/internal/domain/ingest/sheet"
)

var testTxnMapping = pipeline.Mapping{
	Mobile:     "A",
	BillNumber: "B",
	BillAmount: "C",
	OrderTime:  "D",
}

func transactionCSVFixture(rows int) []byte {
	var builder strings.Builder
	builder.Grow(rows * 48)
	builder.WriteString("Phone,Invoice,Amount,Date\n")
	for i := 0; i < rows; i++ {
		builder.WriteString(fmt.Sprintf("98765432%02d,INV-%d,%d.50,25/12/2023\n", i%100, i, i%500))
	}
	return []byte(builder.String())
}

func newTestService(repo repository.IngestRepository) *ImportService {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewImportService(repo, logger)
}

func TestProcessTransactionFile(t *testing.T) {
	data := strings.Join([]string{
		"Phone,Invoice,Amount,Date",
		"9876543210,INV-1,120.50,25/12/2023",
		"12345,INV-2,80,26/12/2023",
		"9812345678,INV-3,42,27/12/2023",
		"",
	}, "\n")

	repo := &fakeIngestRepo{}
	svc := newTestService(repo)

	result, err := svc.ProcessTransactionFile(context.Background(), "sales.csv", []byte(data), testTxnMapping, sheet.FormatCSV, sheet.TableValid)
	if err != nil {
		t.Fatalf("ProcessTransactionFile failed: %v", err)
	}

	if result.Stats.ValidRecords != 2 || result.Stats.RejectedRecords != 1 || result.Stats.TotalRecords != 3 {
		t.Fatalf("unexpected stats: %+v", result.Stats)
	}
	if !strings.HasPrefix(result.FileName, "transaction_") || !strings.HasSuffix(result.FileName, ".csv") {
		t.Fatalf("unexpected file name: %s", result.FileName)
	}
	if len(result.Grid) != 4 {
		t.Fatalf("expected raw grid to be returned, got %d rows", len(result.Grid))
	}
	if !result.HasContactData {
		t.Fatal("expected HasContactData for a file with valid mobiles")
	}
	if !strings.Contains(string(result.Data), "9876543210,purchase,INV-1,120.50,2023-12-25") {
		t.Fatalf("unexpected output:\n%s", result.Data)
	}

	records := repo.createdFiles()
	if len(records) != 1 {
		t.Fatalf("expected 1 processed file record, got %d", len(records))
	}
	rec := records[0]
	if rec.OriginalFileName != "sales.csv" || rec.FileName != result.FileName {
		t.Fatalf("unexpected record: %+v", rec)
	}
	if rec.TotalRecords != 3 || rec.ValidRecords != 2 || rec.RejectedRecords != 1 {
		t.Fatalf("unexpected record counts: %+v", rec)
	}
	if rec.ColumnMapping["mobile"] != "A" {
		t.Fatalf("unexpected column mapping: %+v", rec.ColumnMapping)
	}
}

func TestProcessTransactionFile_RejectedTableCSV(t *testing.T) {
	data := strings.Join([]string{
		"Phone,Invoice,Amount,Date",
		"9876543210,INV-1,120.50,25/12/2023",
		"12345,INV-2,80,26/12/2023",
		",INV-3,42,27/12/2023",
		"",
	}, "\n")

	svc := newTestService(&fakeIngestRepo{})
	result, err := svc.ProcessTransactionFile(context.Background(), "sales.csv", []byte(data), testTxnMapping, sheet.FormatCSV, sheet.TableRejected)
	if err != nil {
		t.Fatalf("ProcessTransactionFile failed: %v", err)
	}

	if !strings.HasPrefix(result.FileName, "transaction_rejected_") {
		t.Fatalf("unexpected file name: %s", result.FileName)
	}

	lines := strings.Split(strings.TrimSpace(string(result.Data)), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header plus 2 rejected rows, got:\n%s", result.Data)
	}
	if !strings.HasSuffix(lines[0], ",rejection_reason") {
		t.Fatalf("unexpected header row: %s", lines[0])
	}
	if !strings.Contains(lines[1], "Mobile number has fewer than 10 digits") {
		t.Fatalf("unexpected rejected row: %s", lines[1])
	}
	if !strings.Contains(lines[2], "Missing mobile number") {
		t.Fatalf("unexpected rejected row: %s", lines[2])
	}
	if strings.Contains(string(result.Data), "9876543210") {
		t.Fatalf("valid row leaked into rejected output:\n%s", result.Data)
	}
}

func TestProcessTransactionFile_PersistenceFailureIsNonFatal(t *testing.T) {
	repo := &fakeIngestRepo{createErr: errors.New("connection refused")}
	svc := newTestService(repo)

	result, err := svc.ProcessTransactionFile(context.Background(), "sales.csv", transactionCSVFixture(10), testTxnMapping, sheet.FormatCSV, sheet.TableValid)
	if err != nil {
		t.Fatalf("expected persistence failure to be swallowed, got: %v", err)
	}
	if result.Stats.ValidRecords != 10 {
		t.Fatalf("unexpected stats: %+v", result.Stats)
	}
	if len(result.Data) == 0 {
		t.Fatal("expected an output file despite persistence failure")
	}
}

func TestProcessTransactionFile_RequiresMobileMapping(t *testing.T) {
	svc := newTestService(&fakeIngestRepo{})

	_, err := svc.ProcessTransactionFile(context.Background(), "sales.csv", transactionCSVFixture(3),
		pipeline.Mapping{BillNumber: "B"}, sheet.FormatCSV, sheet.TableValid)
	if !errors.Is(err, ErrMobileColumnRequired) {
		t.Fatalf("expected ErrMobileColumnRequired, got %v", err)
	}
}

func TestProcessTransactionFile_StructuralErrors(t *testing.T) {
	svc := newTestService(&fakeIngestRepo{})

	_, err := svc.ProcessTransactionFile(context.Background(), "sales.csv", nil, testTxnMapping, sheet.FormatCSV, sheet.TableValid)
	if !errors.Is(err, sheet.ErrEmptyFile) {
		t.Fatalf("expected ErrEmptyFile, got %v", err)
	}

	_, err = svc.ProcessTransactionFile(context.Background(), "sales.csv", []byte("Phone,Invoice\n"), testTxnMapping, sheet.FormatCSV, sheet.TableValid)
	if !errors.Is(err, sheet.ErrNoDataRows) {
		t.Fatalf("expected ErrNoDataRows, got %v", err)
	}
}

func TestGenerateContactsFile(t *testing.T) {
	grid := [][]string{
		{"Phone", "Name"},
		{"9876543210", "Asha"},
		{"9876543210", "Asha Again"},
		{"9812345678", "Ravi"},
	}

	svc := newTestService(&fakeIngestRepo{})
	result, err := svc.GenerateContactsFile(context.Background(), grid,
		pipeline.ContactsMapping{Mobile: "A", Name: "B"}, sheet.FormatCSV, sheet.TableValid)
	if err != nil {
		t.Fatalf("GenerateContactsFile failed: %v", err)
	}

	want := pipeline.Stats{TotalRecords: 3, ValidRecords: 2, DuplicateRecords: 1}
	if result.Stats != want {
		t.Fatalf("stats = %+v, want %+v", result.Stats, want)
	}
	if !strings.HasPrefix(result.FileName, "contacts_") {
		t.Fatalf("unexpected file name: %s", result.FileName)
	}
}

func TestAnalyzeFile(t *testing.T) {
	data := strings.Join([]string{
		"Mobile No.,Invoice,Amount,Order Date,Customer Name",
		"9876543210,INV-1,120.50,25/12/2023,Asha",
		"9812345678,INV-2,80,26/12/2023,Ravi",
		"",
	}, "\n")

	svc := newTestService(&fakeIngestRepo{})
	result, err := svc.AnalyzeFile(context.Background(), "sales.csv", []byte(data))
	if err != nil {
		t.Fatalf("AnalyzeFile failed: %v", err)
	}

	if len(result.Headers) != 5 || result.Headers[0] != "Mobile No." {
		t.Fatalf("unexpected headers: %v", result.Headers)
	}
	if len(result.SampleRows) != 2 {
		t.Fatalf("expected 2 sample rows, got %d", len(result.SampleRows))
	}
	if result.Suggestions.Mobile != "A" || result.Suggestions.BillAmount != "C" {
		t.Fatalf("unexpected suggestions: %+v", result.Suggestions)
	}
	if !result.HasContactColumns {
		t.Fatal("expected contact columns to be detected")
	}
}

func TestHistory(t *testing.T) {
	repo := &fakeIngestRepo{
		history: []*repository.ProcessedFile{
			{ID: uuid.New(), FileName: "transaction_2023-12-25T10-30-00.xlsx"},
		},
	}
	svc := newTestService(repo)

	files, err := svc.History(context.Background(), 10)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(files) != 1 {
		t.Fatalf("expected 1 record, got %d", len(files))
	}
}

func BenchmarkProcessTransactionFile(b *testing.B) {
	data := transactionCSVFixture(5000)
	svc := newTestService(&fakeIngestRepo{})

	b.ReportAllocs()
	b.SetBytes(int64(len(data)))
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		result, err := svc.ProcessTransactionFile(context.Background(), "bench.csv", data, testTxnMapping, sheet.FormatCSV, sheet.TableValid)
		if err != nil {
			b.Fatal(err)
		}
		benchmarkSink = result.Stats.TotalRecords
	}
}

var benchmarkSink int

type fakeIngestRepo struct {
	mu        sync.Mutex
	created   []*repository.ProcessedFile
	createErr error
	history   []*repository.ProcessedFile
}

func (f *fakeIngestRepo) CreateProcessedFile(ctx context.Context, file *repository.ProcessedFile) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, file)
	return nil
}

func (f *fakeIngestRepo) GetProcessedFileByID(ctx context.Context, id uuid.UUID) (*repository.ProcessedFile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, file := range f.created {
		if file.ID == id {
			return file, nil
		}
	}
	return nil, nil
}

func (f *fakeIngestRepo) ListProcessedFiles(ctx context.Context, limit int) ([]*repository.ProcessedFile, error) {
	return f.history, nil
}

func (f *fakeIngestRepo) createdFiles() []*repository.ProcessedFile {
	f.mu.Lock()
	defer f.mu.Unlock()
	files := make([]*repository.ProcessedFile, len(f.created))
	copy(files, f.created)
	return files
}
