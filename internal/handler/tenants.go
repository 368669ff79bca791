package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/yourorg/estateman/internal/domain"
	"github.com/yourorg/estateman/internal/security/middleware"
	"github.com/yourorg/estateman/internal/service"
)

// TenantsHandler handles tenant profile endpoints
type TenantsHandler struct {
	tenancyService *service.TenancyService
	logger         *slog.Logger
}

// NewTenantsHandler creates a new tenants handler
func NewTenantsHandler(tenancyService *service.TenancyService, logger *slog.Logger) *TenantsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &TenantsHandler{tenancyService: tenancyService, logger: logger}
}

// TenantRequest represents a tenant profile create or update
type TenantRequest struct {
	UserID           int64  `json:"user_id" validate:"required"`
	HouseID          *int64 `json:"house_id"`
	MoveInDate       string `json:"move_in_date"`
	ContractStart    string `json:"contract_start"`
	ContractEnd      string `json:"contract_end"`
	EmergencyContact string `json:"emergency_contact"`
	EmergencyPhone   string `json:"emergency_phone"`
	Status           string `json:"status"`
}

func (req TenantRequest) tenant(w http.ResponseWriter) (*domain.Tenant, bool) {
	tenant := &domain.Tenant{
		UserID:           req.UserID,
		HouseID:          req.HouseID,
		EmergencyContact: req.EmergencyContact,
		EmergencyPhone:   req.EmergencyPhone,
		Status:           domain.TenantStatus(req.Status),
	}
	var err error
	if tenant.MoveInDate, err = optionalDate(req.MoveInDate); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid move_in_date"})
		return nil, false
	}
	if tenant.ContractStart, err = optionalDate(req.ContractStart); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid contract_start"})
		return nil, false
	}
	if tenant.ContractEnd, err = optionalDate(req.ContractEnd); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid contract_end"})
		return nil, false
	}
	return tenant, true
}

// TenantResponse is the tenant profile shape returned to clients
type TenantResponse struct {
	ID               int64  `json:"id"`
	UserID           int64  `json:"user_id"`
	HouseID          *int64 `json:"house_id"`
	MoveInDate       string `json:"move_in_date,omitempty"`
	ContractStart    string `json:"contract_start,omitempty"`
	ContractEnd      string `json:"contract_end,omitempty"`
	EmergencyContact string `json:"emergency_contact,omitempty"`
	EmergencyPhone   string `json:"emergency_phone,omitempty"`
	Status           string `json:"status"`
	CreatedAt        string `json:"created_at"`
}

func tenantResponse(t *domain.Tenant) TenantResponse {
	resp := TenantResponse{
		ID:               t.ID,
		UserID:           t.UserID,
		HouseID:          t.HouseID,
		EmergencyContact: t.EmergencyContact,
		EmergencyPhone:   t.EmergencyPhone,
		Status:           string(t.Status),
		CreatedAt:        t.CreatedAt.Format(time.RFC3339),
	}
	if !t.MoveInDate.IsZero() {
		resp.MoveInDate = t.MoveInDate.Format("2006-01-02")
	}
	if !t.ContractStart.IsZero() {
		resp.ContractStart = t.ContractStart.Format("2006-01-02")
	}
	if !t.ContractEnd.IsZero() {
		resp.ContractEnd = t.ContractEnd.Format("2006-01-02")
	}
	return resp
}

func tenantResponses(tenants []*domain.Tenant) []TenantResponse {
	out := make([]TenantResponse, 0, len(tenants))
	for _, t := range tenants {
		out = append(out, tenantResponse(t))
	}
	return out
}

// Create handles POST /api/tenants
func (h *TenantsHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.CurrentActor(r.Context())
	if !ok {
		writeError(w, h.logger, domain.ErrForbidden)
		return
	}
	var req TenantRequest
	if !decodeJSON(w, r, h.logger, &req) {
		return
	}
	tenant, ok := req.tenant(w)
	if !ok {
		return
	}

	if err := h.tenancyService.CreateTenant(actor, tenant); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, tenantResponse(tenant))
}

// List handles GET /api/tenants
func (h *TenantsHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.CurrentActor(r.Context())
	if !ok {
		writeError(w, h.logger, domain.ErrForbidden)
		return
	}
	tenants, err := h.tenancyService.ListTenants(actor)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tenants": tenantResponses(tenants)})
}

// Expiring handles GET /api/tenants/expiring
func (h *TenantsHandler) Expiring(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.CurrentActor(r.Context())
	if !ok {
		writeError(w, h.logger, domain.ErrForbidden)
		return
	}
	tenants, err := h.tenancyService.ListExpiring(actor)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tenants": tenantResponses(tenants)})
}

// Get handles GET /api/tenants/{id}
func (h *TenantsHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.CurrentActor(r.Context())
	if !ok {
		writeError(w, h.logger, domain.ErrForbidden)
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	tenant, err := h.tenancyService.GetTenant(actor, id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, tenantResponse(tenant))
}

// Update handles PUT /api/tenants/{id}
func (h *TenantsHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.CurrentActor(r.Context())
	if !ok {
		writeError(w, h.logger, domain.ErrForbidden)
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req TenantRequest
	if !decodeJSON(w, r, h.logger, &req) {
		return
	}
	tenant, ok := req.tenant(w)
	if !ok {
		return
	}
	tenant.ID = id

	if err := h.tenancyService.UpdateTenant(actor, tenant); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, tenantResponse(tenant))
}

// Delete handles DELETE /api/tenants/{id}
func (h *TenantsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.CurrentActor(r.Context())
	if !ok {
		writeError(w, h.logger, domain.ErrForbidden)
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.tenancyService.DeleteTenant(actor, id); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}
