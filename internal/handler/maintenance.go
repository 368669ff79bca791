package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/yourorg/estateman/internal/domain"
	"github.com/yourorg/estateman/internal/security/middleware"
	"github.com/yourorg/estateman/internal/service"
)

// MaintenanceHandler handles maintenance ticket endpoints
type MaintenanceHandler struct {
	maintenanceService *service.MaintenanceService
	logger             *slog.Logger
}

// NewMaintenanceHandler creates a new maintenance handler
func NewMaintenanceHandler(maintenanceService *service.MaintenanceService, logger *slog.Logger) *MaintenanceHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &MaintenanceHandler{maintenanceService: maintenanceService, logger: logger}
}

// MaintenanceCreateRequest represents a new ticket
type MaintenanceCreateRequest struct {
	HouseID     *int64 `json:"house_id"`
	Description string `json:"description" validate:"required"`
	Category    string `json:"category"`
	Priority    string `json:"priority"`
	Notes       string `json:"notes"`
}

// MaintenanceResponse is the ticket shape returned to clients
type MaintenanceResponse struct {
	ID            int64            `json:"id"`
	RequestID     string           `json:"request_id"`
	HouseID       *int64           `json:"house_id"`
	HouseNumber   string           `json:"house_number,omitempty"`
	ReportedByID  *int64           `json:"reported_by_id"`
	ReportedBy    string           `json:"reported_by"`
	AssignedToID  *int64           `json:"assigned_to_id,omitempty"`
	Description   string           `json:"description"`
	Category      string           `json:"category"`
	Priority      string           `json:"priority"`
	Status        string           `json:"status"`
	Notes         string           `json:"notes,omitempty"`
	EstimatedCost *decimal.Decimal `json:"estimated_cost,omitempty"`
	ActualCost    *decimal.Decimal `json:"actual_cost,omitempty"`
	AssignedAt    string           `json:"assigned_at,omitempty"`
	CompletedAt   string           `json:"completed_at,omitempty"`
	CreatedAt     string           `json:"created_at"`
}

func maintenanceResponse(m *domain.MaintenanceRequest) MaintenanceResponse {
	resp := MaintenanceResponse{
		ID:            m.ID,
		RequestID:     m.RequestID,
		HouseID:       m.HouseID,
		HouseNumber:   m.ArchivedHouseNumber,
		ReportedByID:  m.ReportedByID,
		ReportedBy:    m.ArchivedReportedBy,
		AssignedToID:  m.AssignedToID,
		Description:   m.Description,
		Category:      string(m.Category),
		Priority:      string(m.Priority),
		Status:        string(m.Status),
		Notes:         m.Notes,
		EstimatedCost: m.EstimatedCost,
		ActualCost:    m.ActualCost,
		CreatedAt:     m.CreatedAt.Format(time.RFC3339),
	}
	if m.AssignedAt != nil {
		resp.AssignedAt = m.AssignedAt.Format(time.RFC3339)
	}
	if m.CompletedAt != nil {
		resp.CompletedAt = m.CompletedAt.Format(time.RFC3339)
	}
	return resp
}

func maintenanceResponses(requests []*domain.MaintenanceRequest) []MaintenanceResponse {
	out := make([]MaintenanceResponse, 0, len(requests))
	for _, m := range requests {
		out = append(out, maintenanceResponse(m))
	}
	return out
}

// Create handles POST /api/maintenance
func (h *MaintenanceHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.CurrentActor(r.Context())
	if !ok {
		writeError(w, h.logger, domain.ErrForbidden)
		return
	}
	var req MaintenanceCreateRequest
	if !decodeJSON(w, r, h.logger, &req) {
		return
	}

	request, err := h.maintenanceService.Create(actor, service.CreateInput{
		HouseID:     req.HouseID,
		Description: req.Description,
		Category:    domain.RequestCategory(req.Category),
		Priority:    domain.RequestPriority(req.Priority),
		Notes:       req.Notes,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, maintenanceResponse(request))
}

// List handles GET /api/maintenance: the caller's open-ticket view.
func (h *MaintenanceHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.CurrentActor(r.Context())
	if !ok {
		writeError(w, h.logger, domain.ErrForbidden)
		return
	}
	requests, err := h.maintenanceService.ListFor(actor)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"requests": maintenanceResponses(requests)})
}

// Completed handles GET /api/maintenance/completed
func (h *MaintenanceHandler) Completed(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.CurrentActor(r.Context())
	if !ok {
		writeError(w, h.logger, domain.ErrForbidden)
		return
	}
	requests, err := h.maintenanceService.ListCompletedFor(actor)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"requests": maintenanceResponses(requests)})
}

// All handles GET /api/maintenance/all: every ticket visible to the
// caller regardless of status.
func (h *MaintenanceHandler) All(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.CurrentActor(r.Context())
	if !ok {
		writeError(w, h.logger, domain.ErrForbidden)
		return
	}
	requests, err := h.maintenanceService.ListAllFor(actor)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"requests": maintenanceResponses(requests)})
}

// Stats handles GET /api/maintenance/stats
func (h *MaintenanceHandler) Stats(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.CurrentActor(r.Context())
	if !ok {
		writeError(w, h.logger, domain.ErrForbidden)
		return
	}
	stats, err := h.maintenanceService.Stats(actor)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// Get handles GET /api/maintenance/{id}
func (h *MaintenanceHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.CurrentActor(r.Context())
	if !ok {
		writeError(w, h.logger, domain.ErrForbidden)
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	request, err := h.maintenanceService.Get(actor, id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, maintenanceResponse(request))
}

// AssignRequest names the technician taking a ticket
type AssignRequest struct {
	TechnicianID int64 `json:"technician_id" validate:"required"`
}

// Assign handles POST /api/maintenance/{id}/assign
func (h *MaintenanceHandler) Assign(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.CurrentActor(r.Context())
	if !ok {
		writeError(w, h.logger, domain.ErrForbidden)
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req AssignRequest
	if !decodeJSON(w, r, h.logger, &req) {
		return
	}

	request, err := h.maintenanceService.Assign(actor, id, req.TechnicianID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, maintenanceResponse(request))
}

// UpdateStatusRequest moves a ticket through its lifecycle
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// UpdateStatus handles POST /api/maintenance/{id}/update_status
func (h *MaintenanceHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.CurrentActor(r.Context())
	if !ok {
		writeError(w, h.logger, domain.ErrForbidden)
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req UpdateStatusRequest
	if !decodeJSON(w, r, h.logger, &req) {
		return
	}

	request, err := h.maintenanceService.UpdateStatus(actor, id, domain.RequestStatus(req.Status))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, maintenanceResponse(request))
}

// Ping handles POST /api/maintenance/{id}/ping: nudge the assigned
// technician without changing ticket state.
func (h *MaintenanceHandler) Ping(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.CurrentActor(r.Context())
	if !ok {
		writeError(w, h.logger, domain.ErrForbidden)
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.maintenanceService.Ping(actor, id); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "technician notified"})
}
