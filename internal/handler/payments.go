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

// PaymentsHandler handles payment submission and verification endpoints
type PaymentsHandler struct {
	billingService    *service.BillingService
	settlementService *service.SettlementService
	logger            *slog.Logger
}

// NewPaymentsHandler creates a new payments handler
func NewPaymentsHandler(billingService *service.BillingService, settlementService *service.SettlementService, logger *slog.Logger) *PaymentsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &PaymentsHandler{
		billingService:    billingService,
		settlementService: settlementService,
		logger:            logger,
	}
}

// PaymentRequest represents a payment submission
type PaymentRequest struct {
	TenantID        int64           `json:"tenant_id"`
	Amount          decimal.Decimal `json:"amount"`
	PaymentDate     string          `json:"payment_date"`
	Method          string          `json:"method" validate:"required"`
	PaymentType     string          `json:"payment_type" validate:"required"`
	ReferenceNumber string          `json:"reference_number"`
	MonthFor        string          `json:"month_for" validate:"required"`
}

// PaymentResponse is the payment shape returned to clients
type PaymentResponse struct {
	ID              int64           `json:"id"`
	TenantID        int64           `json:"tenant_id"`
	Amount          decimal.Decimal `json:"amount"`
	PaymentDate     string          `json:"payment_date"`
	Method          string          `json:"method"`
	PaymentType     string          `json:"payment_type"`
	ReferenceNumber string          `json:"reference_number"`
	MonthFor        string          `json:"month_for"`
	IsVerified      bool            `json:"is_verified"`
	VerifiedByID    *int64          `json:"verified_by_id,omitempty"`
	VerifiedAt      string          `json:"verified_at,omitempty"`
}

func paymentResponse(p *domain.Payment) PaymentResponse {
	resp := PaymentResponse{
		ID:              p.ID,
		TenantID:        p.TenantID,
		Amount:          p.Amount,
		PaymentDate:     p.PaymentDate.Format("2006-01-02"),
		Method:          string(p.Method),
		PaymentType:     string(p.PaymentType),
		ReferenceNumber: p.ReferenceNumber,
		MonthFor:        p.MonthFor.Format("2006-01"),
		IsVerified:      p.IsVerified,
		VerifiedByID:    p.VerifiedByID,
	}
	if p.VerifiedAt != nil {
		resp.VerifiedAt = p.VerifiedAt.Format(time.RFC3339)
	}
	return resp
}

func paymentResponses(payments []*domain.Payment) []PaymentResponse {
	out := make([]PaymentResponse, 0, len(payments))
	for _, p := range payments {
		out = append(out, paymentResponse(p))
	}
	return out
}

// Create handles POST /api/payments
func (h *PaymentsHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.CurrentActor(r.Context())
	if !ok {
		writeError(w, h.logger, domain.ErrForbidden)
		return
	}
	var req PaymentRequest
	if !decodeJSON(w, r, h.logger, &req) {
		return
	}

	in := service.PaymentInput{
		TenantID:        req.TenantID,
		Amount:          req.Amount,
		Method:          domain.PaymentMethod(req.Method),
		PaymentType:     domain.ChargeType(req.PaymentType),
		ReferenceNumber: req.ReferenceNumber,
	}
	var err error
	if in.PaymentDate, err = optionalDate(req.PaymentDate); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid payment_date"})
		return
	}
	if in.MonthFor, err = parseDate(req.MonthFor); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid month_for"})
		return
	}

	payment, err := h.billingService.SubmitPayment(actor, in)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, paymentResponse(payment))
}

// List handles GET /api/payments
func (h *PaymentsHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.CurrentActor(r.Context())
	if !ok {
		writeError(w, h.logger, domain.ErrForbidden)
		return
	}
	payments, err := h.billingService.ListPayments(actor)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"payments": paymentResponses(payments)})
}

// Get handles GET /api/payments/{id}
func (h *PaymentsHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.CurrentActor(r.Context())
	if !ok {
		writeError(w, h.logger, domain.ErrForbidden)
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	payment, err := h.billingService.GetPayment(actor, id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, paymentResponse(payment))
}

// Verify handles POST /api/payments/{id}/verify. Verifying an
// already-verified payment is a warning no-op, reported as such.
func (h *PaymentsHandler) Verify(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.CurrentActor(r.Context())
	if !ok {
		writeError(w, h.logger, domain.ErrForbidden)
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	result, err := h.settlementService.VerifyPayment(actor, id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	resp := map[string]any{
		"payment":       paymentResponse(result.Payment),
		"bills_cleared": result.BillsCleared,
	}
	if result.AlreadyVerified {
		resp["warning"] = "payment was already verified"
	}
	writeJSON(w, http.StatusOK, resp)
}

// Delete handles DELETE /api/payments/{id}
func (h *PaymentsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.CurrentActor(r.Context())
	if !ok {
		writeError(w, h.logger, domain.ErrForbidden)
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.billingService.DeletePayment(actor, id); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}
