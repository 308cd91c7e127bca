package handler

import (
	"bytes"
	"context"
	"io"
	"net/http"

	"go.uber.org/zap"

	"surveystats/internal/report"
)

// Reporter is the report service as seen by HTTP
type Reporter interface {
	Summary(ctx context.Context) (*report.Summary, error)
	Stratified(ctx context.Context, key string) (*report.Stratified, error)
	StratifiedAll(ctx context.Context) ([]*report.Stratified, error)
	Export(ctx context.Context, w io.Writer, kind, by string) error
	CreateSnapshot(ctx context.Context) (*report.Snapshot, error)
	LatestSnapshot(ctx context.Context) (*report.Snapshot, error)
}

// ReportHandler handles report endpoints
type ReportHandler struct {
	reportSvc Reporter
	logger    *zap.Logger
}

// NewReportHandler creates a new report handler
func NewReportHandler(reportSvc Reporter, logger *zap.Logger) *ReportHandler {
	return &ReportHandler{reportSvc: reportSvc, logger: logger}
}

// Summary handles GET /v1/reports/summary
func (h *ReportHandler) Summary(w http.ResponseWriter, r *http.Request) {
	sum, err := h.reportSvc.Summary(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

// Stratified handles GET /v1/reports/stratified?by=
func (h *ReportHandler) Stratified(w http.ResponseWriter, r *http.Request) {
	st, err := h.reportSvc.Stratified(r.Context(), r.URL.Query().Get("by"))
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// StratifiedAll handles GET /v1/reports/stratified/all
func (h *ReportHandler) StratifiedAll(w http.ResponseWriter, r *http.Request) {
	all, err := h.reportSvc.StratifiedAll(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"strata": all})
}

// Export handles GET /v1/reports/export?table=&by=
func (h *ReportHandler) Export(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	kind := q.Get("table")
	if kind == "" {
		kind = "questions"
	}

	// buffer so a late failure can still produce a JSON error
	var buf bytes.Buffer
	if err := h.reportSvc.Export(r.Context(), &buf, kind, q.Get("by")); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="`+kind+`.csv"`)
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// CreateSnapshot handles POST /v1/reports/snapshots
func (h *ReportHandler) CreateSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := h.reportSvc.CreateSnapshot(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, snap)
}

// LatestSnapshot handles GET /v1/reports/snapshots/latest
func (h *ReportHandler) LatestSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := h.reportSvc.LatestSnapshot(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}
