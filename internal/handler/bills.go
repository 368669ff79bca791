package handler

import (
	"log/slog"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/yourorg/estateman/internal/domain"
	"github.com/yourorg/estateman/internal/security/middleware"
	"github.com/yourorg/estateman/internal/service"
)

// BillsHandler handles bill endpoints
type BillsHandler struct {
	billingService *service.BillingService
	logger         *slog.Logger
}

// NewBillsHandler creates a new bills handler
func NewBillsHandler(billingService *service.BillingService, logger *slog.Logger) *BillsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &BillsHandler{billingService: billingService, logger: logger}
}

// BillRequest represents a bill create or update
type BillRequest struct {
	TenantID int64           `json:"tenant_id" validate:"required"`
	BillType string          `json:"bill_type" validate:"required"`
	Amount   decimal.Decimal `json:"amount"`
	BillDate string          `json:"bill_date"`
	MonthFor string          `json:"month_for" validate:"required"`
	Notes    string          `json:"notes"`
}

func (req BillRequest) input(w http.ResponseWriter) (service.BillInput, bool) {
	in := service.BillInput{
		TenantID: req.TenantID,
		BillType: domain.ChargeType(req.BillType),
		Amount:   req.Amount,
		Notes:    req.Notes,
	}
	var err error
	if in.BillDate, err = optionalDate(req.BillDate); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid bill_date"})
		return in, false
	}
	if in.MonthFor, err = parseDate(req.MonthFor); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid month_for"})
		return in, false
	}
	return in, true
}

// BillResponse is the bill shape returned to clients
type BillResponse struct {
	ID       int64           `json:"id"`
	TenantID int64           `json:"tenant_id"`
	BillType string          `json:"bill_type"`
	Amount   decimal.Decimal `json:"amount"`
	BillDate string          `json:"bill_date"`
	MonthFor string          `json:"month_for"`
	IsPaid   bool            `json:"is_paid"`
	Notes    string          `json:"notes,omitempty"`
}

func billResponse(b *domain.Bill) BillResponse {
	return BillResponse{
		ID:       b.ID,
		TenantID: b.TenantID,
		BillType: string(b.BillType),
		Amount:   b.Amount,
		BillDate: b.BillDate.Format("2006-01-02"),
		MonthFor: b.MonthFor.Format("2006-01"),
		IsPaid:   b.IsPaid,
		Notes:    b.Notes,
	}
}

func billResponses(bills []*domain.Bill) []BillResponse {
	out := make([]BillResponse, 0, len(bills))
	for _, b := range bills {
		out = append(out, billResponse(b))
	}
	return out
}

// Create handles POST /api/bills
func (h *BillsHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.CurrentActor(r.Context())
	if !ok {
		writeError(w, h.logger, domain.ErrForbidden)
		return
	}
	var req BillRequest
	if !decodeJSON(w, r, h.logger, &req) {
		return
	}
	in, ok := req.input(w)
	if !ok {
		return
	}

	bill, err := h.billingService.CreateBill(actor, in)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, billResponse(bill))
}

// List handles GET /api/bills
func (h *BillsHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.CurrentActor(r.Context())
	if !ok {
		writeError(w, h.logger, domain.ErrForbidden)
		return
	}
	bills, err := h.billingService.ListBills(actor)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"bills": billResponses(bills)})
}

// Get handles GET /api/bills/{id}
func (h *BillsHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.CurrentActor(r.Context())
	if !ok {
		writeError(w, h.logger, domain.ErrForbidden)
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	bill, err := h.billingService.GetBill(actor, id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, billResponse(bill))
}

// Update handles PUT /api/bills/{id}
func (h *BillsHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.CurrentActor(r.Context())
	if !ok {
		writeError(w, h.logger, domain.ErrForbidden)
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req BillRequest
	if !decodeJSON(w, r, h.logger, &req) {
		return
	}
	in, ok := req.input(w)
	if !ok {
		return
	}

	bill, err := h.billingService.UpdateBill(actor, id, in)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, billResponse(bill))
}

// Delete handles DELETE /api/bills/{id}
func (h *BillsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.CurrentActor(r.Context())
	if !ok {
		writeError(w, h.logger, domain.ErrForbidden)
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.billingService.DeleteBill(actor, id); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}
