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

// ContractsHandler handles lease contract endpoints
type ContractsHandler struct {
	tenancyService *service.TenancyService
	logger         *slog.Logger
}

// NewContractsHandler creates a new contracts handler
func NewContractsHandler(tenancyService *service.TenancyService, logger *slog.Logger) *ContractsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ContractsHandler{tenancyService: tenancyService, logger: logger}
}

// ContractRequest represents a new lease record
type ContractRequest struct {
	TenantID    int64           `json:"tenant_id" validate:"required"`
	HouseID     int64           `json:"house_id" validate:"required"`
	StartDate   string          `json:"start_date" validate:"required"`
	EndDate     string          `json:"end_date" validate:"required"`
	MonthlyRent decimal.Decimal `json:"monthly_rent"`
	DepositPaid decimal.Decimal `json:"deposit_paid"`
}

// ContractResponse is the lease shape returned to clients. TenantName
// is the live account name when the tenant still exists, otherwise the
// snapshot taken at write time.
type ContractResponse struct {
	ID          int64           `json:"id"`
	TenantID    *int64          `json:"tenant_id"`
	TenantName  string          `json:"tenant_name"`
	HouseID     *int64          `json:"house_id"`
	HouseNumber string          `json:"house_number"`
	StartDate   string          `json:"start_date"`
	EndDate     string          `json:"end_date"`
	MonthlyRent decimal.Decimal `json:"monthly_rent"`
	DepositPaid decimal.Decimal `json:"deposit_paid"`
	CreatedAt   string          `json:"created_at"`
}

func (h *ContractsHandler) contractResponse(c *domain.Contract) ContractResponse {
	return ContractResponse{
		ID:          c.ID,
		TenantID:    c.TenantID,
		TenantName:  h.tenancyService.ContractDisplayName(c),
		HouseID:     c.HouseID,
		HouseNumber: c.HouseNumber,
		StartDate:   c.StartDate.Format("2006-01-02"),
		EndDate:     c.EndDate.Format("2006-01-02"),
		MonthlyRent: c.MonthlyRent,
		DepositPaid: c.DepositPaid,
		CreatedAt:   c.CreatedAt.Format(time.RFC3339),
	}
}

// Create handles POST /api/contracts
func (h *ContractsHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.CurrentActor(r.Context())
	if !ok {
		writeError(w, h.logger, domain.ErrForbidden)
		return
	}
	var req ContractRequest
	if !decodeJSON(w, r, h.logger, &req) {
		return
	}

	start, err := parseDate(req.StartDate)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid start_date"})
		return
	}
	end, err := parseDate(req.EndDate)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid end_date"})
		return
	}
	if !end.After(start) {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "end_date must be after start_date"})
		return
	}

	contract := &domain.Contract{
		TenantID:    &req.TenantID,
		HouseID:     &req.HouseID,
		StartDate:   start,
		EndDate:     end,
		MonthlyRent: req.MonthlyRent,
		DepositPaid: req.DepositPaid,
	}
	if err := h.tenancyService.CreateContract(actor, contract); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, h.contractResponse(contract))
}

// List handles GET /api/contracts
func (h *ContractsHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.CurrentActor(r.Context())
	if !ok {
		writeError(w, h.logger, domain.ErrForbidden)
		return
	}
	contracts, err := h.tenancyService.ListContracts(actor)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	out := make([]ContractResponse, 0, len(contracts))
	for _, c := range contracts {
		out = append(out, h.contractResponse(c))
	}
	writeJSON(w, http.StatusOK, map[string]any{"contracts": out})
}

// Get handles GET /api/contracts/{id}
func (h *ContractsHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.CurrentActor(r.Context())
	if !ok {
		writeError(w, h.logger, domain.ErrForbidden)
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	contract, err := h.tenancyService.GetContract(actor, id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, h.contractResponse(contract))
}

// Delete handles DELETE /api/contracts/{id}
func (h *ContractsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.CurrentActor(r.Context())
	if !ok {
		writeError(w, h.logger, domain.ErrForbidden)
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.tenancyService.DeleteContract(actor, id); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}
