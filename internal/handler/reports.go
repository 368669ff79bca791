package handler

import (
	"log/slog"
	"net/http"

	"github.com/yourorg/estateman/internal/domain"
	"github.com/yourorg/estateman/internal/security/middleware"
	"github.com/yourorg/estateman/internal/service"
)

// ReportsHandler handles the admin read-side reports
type ReportsHandler struct {
	reportService *service.ReportService
	logger        *slog.Logger
}

// NewReportsHandler creates a new reports handler
func NewReportsHandler(reportService *service.ReportService, logger *slog.Logger) *ReportsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReportsHandler{reportService: reportService, logger: logger}
}

// Dashboard handles GET /api/reports/dashboard_summary
func (h *ReportsHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.CurrentActor(r.Context())
	if !ok {
		writeError(w, h.logger, domain.ErrForbidden)
		return
	}
	summary, err := h.reportService.Dashboard(r.Context(), actor)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// Trends handles GET /api/reports/monthly_trends
func (h *ReportsHandler) Trends(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.CurrentActor(r.Context())
	if !ok {
		writeError(w, h.logger, domain.ErrForbidden)
		return
	}
	trends, err := h.reportService.Trends(r.Context(), actor)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, trends)
}

// Occupancy handles GET /api/reports/occupancy_stats
func (h *ReportsHandler) Occupancy(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.CurrentActor(r.Context())
	if !ok {
		writeError(w, h.logger, domain.ErrForbidden)
		return
	}
	report, err := h.reportService.Occupancy(r.Context(), actor)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// Debtors handles GET /api/reports/debtors. Always freshly computed.
func (h *ReportsHandler) Debtors(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.CurrentActor(r.Context())
	if !ok {
		writeError(w, h.logger, domain.ErrForbidden)
		return
	}
	debtors, err := h.reportService.Debtors(r.Context(), actor)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"debtors": debtors})
}

// PingDebtor handles POST /api/reports/debtors/{id}/ping
func (h *ReportsHandler) PingDebtor(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.CurrentActor(r.Context())
	if !ok {
		writeError(w, h.logger, domain.ErrForbidden)
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.reportService.PingDebtor(r.Context(), actor, id); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "payment reminder sent"})
}
