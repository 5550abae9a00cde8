// Package handler exposes the import service over HTTP: multipart uploads
// in, downloadable files or JSON out.
package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"golang.org/x/time/rate"

	"github.com/rkotari/loyalty-import/internal/domain/ingest/pipeline"
	"github.com/rkotari/loyalty-import/internal/domain/ingest/service"
	"github.com/rkotari/loyalty-import/internal/domain/ingest/sheet"
)

// maxUploadBytes caps multipart uploads; spreadsheets beyond this are
// rejected before decoding.
const maxUploadBytes = 32 << 20

// IngestHandler implements the HTTP endpoints for file imports.
type IngestHandler struct {
	service *service.ImportService
	logger  *slog.Logger
	limiter *rate.Limiter
}

// NewIngestHandler constructs a new handler. The limiter throttles the
// upload endpoints only; analysis and history stay unthrottled.
func NewIngestHandler(svc *service.ImportService, logger *slog.Logger, limiter *rate.Limiter) *IngestHandler {
	return &IngestHandler{
		service: svc,
		logger:  logger,
		limiter: limiter,
	}
}

// ImportTransactions handles POST /v1/imports/transactions: a multipart
// upload with a "file" part and mapping form fields. The response body is
// the generated file; run aggregates travel in X-Import-* headers so the
// client can show stats without a second request. A "table" form field of
// "rejected" downloads the rejected rows as CSV instead of the valid ones.
func (h *IngestHandler) ImportTransactions(w http.ResponseWriter, r *http.Request) {
	if !h.allow(w) {
		return
	}

	name, data, ok := h.readUpload(w, r)
	if !ok {
		return
	}

	format, table, ok := h.readOutputSelectors(w, r)
	if !ok {
		return
	}

	mapping := pipeline.Mapping{
		Mobile:         r.FormValue("mobile"),
		BillNumber:     r.FormValue("bill_number"),
		BillAmount:     r.FormValue("bill_amount"),
		OrderTime:      r.FormValue("order_time"),
		PointsEarned:   r.FormValue("points_earned"),
		PointsRedeemed: r.FormValue("points_redeemed"),
	}

	result, err := h.service.ProcessTransactionFile(r.Context(), name, data, mapping, format, table)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	w.Header().Set("X-Import-Total", strconv.Itoa(result.Stats.TotalRecords))
	w.Header().Set("X-Import-Valid", strconv.Itoa(result.Stats.ValidRecords))
	w.Header().Set("X-Import-Rejected", strconv.Itoa(result.Stats.RejectedRecords))
	w.Header().Set("X-Import-Has-Contact-Data", strconv.FormatBool(result.HasContactData))
	writeAttachment(w, result.FileName, format, result.Data)
}

// ImportContacts handles POST /v1/imports/contacts: same upload shape as the
// transaction endpoint with the contact mapping fields.
func (h *IngestHandler) ImportContacts(w http.ResponseWriter, r *http.Request) {
	if !h.allow(w) {
		return
	}

	name, data, ok := h.readUpload(w, r)
	if !ok {
		return
	}

	format, table, ok := h.readOutputSelectors(w, r)
	if !ok {
		return
	}

	mapping := pipeline.ContactsMapping{
		Mobile:      r.FormValue("mobile"),
		Name:        r.FormValue("name"),
		Email:       r.FormValue("email"),
		Birthday:    r.FormValue("birthday"),
		Anniversary: r.FormValue("anniversary"),
		Gender:      r.FormValue("gender"),
		Points:      r.FormValue("points"),
		Tags:        r.FormValue("tags"),
	}

	result, err := h.service.ProcessContactsFile(r.Context(), name, data, mapping, format, table)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	w.Header().Set("X-Import-Total", strconv.Itoa(result.Stats.TotalRecords))
	w.Header().Set("X-Import-Valid", strconv.Itoa(result.Stats.ValidRecords))
	w.Header().Set("X-Import-Rejected", strconv.Itoa(result.Stats.RejectedRecords))
	w.Header().Set("X-Import-Duplicates", strconv.Itoa(result.Stats.DuplicateRecords))
	writeAttachment(w, result.FileName, format, result.Data)
}

// AnalyzeFile handles POST /v1/imports/analyze: returns the header row,
// sample rows, and mapping suggestions as JSON.
func (h *IngestHandler) AnalyzeFile(w http.ResponseWriter, r *http.Request) {
	name, data, ok := h.readUpload(w, r)
	if !ok {
		return
	}

	result, err := h.service.AnalyzeFile(r.Context(), name, data)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, result)
}

// History handles GET /v1/imports/history.
func (h *IngestHandler) History(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			h.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid limit %q", raw))
			return
		}
		limit = parsed
	}

	files, err := h.service.History(r.Context(), limit)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{"files": files})
}

func (h *IngestHandler) allow(w http.ResponseWriter) bool {
	if h.limiter != nil && !h.limiter.Allow() {
		h.writeError(w, http.StatusTooManyRequests, errors.New("too many uploads, slow down"))
		return false
	}
	return true
}

// readOutputSelectors parses the "format" and "table" form fields, writing
// the error response itself on invalid values.
func (h *IngestHandler) readOutputSelectors(w http.ResponseWriter, r *http.Request) (sheet.Format, sheet.Table, bool) {
	format, err := sheet.ParseFormat(r.FormValue("format"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return "", "", false
	}

	table, err := sheet.ParseTable(r.FormValue("table"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return "", "", false
	}

	return format, table, true
}

// readUpload extracts the "file" part of a multipart request. It writes the
// error response itself so callers can just bail out.
func (h *IngestHandler) readUpload(w http.ResponseWriter, r *http.Request) (string, []byte, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		h.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid multipart request: %w", err))
		return "", nil, false
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.writeError(w, http.StatusBadRequest, errors.New("a file upload named \"file\" is required"))
		return "", nil, false
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, fmt.Errorf("failed to read upload: %w", err))
		return "", nil, false
	}

	return header.Filename, data, true
}

func (h *IngestHandler) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, sheet.ErrEmptyFile),
		errors.Is(err, sheet.ErrNoDataRows),
		errors.Is(err, sheet.ErrUnsupportedFormat),
		errors.Is(err, service.ErrMobileColumnRequired):
		h.writeError(w, http.StatusUnprocessableEntity, err)
	default:
		h.logger.Error("import request failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, errors.New("internal error"))
	}
}

func (h *IngestHandler) writeError(w http.ResponseWriter, status int, err error) {
	h.writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (h *IngestHandler) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func writeAttachment(w http.ResponseWriter, fileName string, format sheet.Format, data []byte) {
	contentType := "text/csv"
	if format == sheet.FormatXLSX {
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fileName))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Write(data)
}
