package service

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/yourorg/estateman/internal/domain"
	"github.com/yourorg/estateman/internal/observability/metrics"
)

// SettlementService reconciles verified payments against outstanding
// bills. Verification is the gate: until an admin verifies a payment it
// counts toward nothing.
type SettlementService struct {
	payments domain.PaymentRepository
	bills    domain.BillRepository
	tenants  domain.TenantRepository
	notifier *NotificationService
	logger   *slog.Logger
}

// NewSettlementService creates a new settlement service
func NewSettlementService(
	payments domain.PaymentRepository,
	bills domain.BillRepository,
	tenants domain.TenantRepository,
	notifier *NotificationService,
	logger *slog.Logger,
) *SettlementService {
	if logger == nil {
		logger = slog.Default()
	}
	return &SettlementService{
		payments: payments,
		bills:    bills,
		tenants:  tenants,
		notifier: notifier,
		logger:   logger,
	}
}

// VerifyResult reports the outcome of a verification.
type VerifyResult struct {
	Payment         *domain.Payment
	AlreadyVerified bool
	BillsCleared    int
}

// VerifyPayment marks a payment verified and settles it against the
// tenant's outstanding bills of the same type for the same calendar month
// as the payment's month_for. Bills are walked in ascending created_at
// order; a bill is cleared only when the remaining amount covers it in
// full, and the remainder shrinks with each clearance. Verifying an
// already-verified payment is a no-op reported via AlreadyVerified.
// Only admins may verify.
func (s *SettlementService) VerifyPayment(actor domain.Actor, paymentID int64) (*VerifyResult, error) {
	switch actor.Role {
	case domain.RoleAdmin:
	case domain.RoleTenant, domain.RoleTechnician, domain.RoleManager:
		return nil, domain.ErrForbidden
	default:
		return nil, domain.ErrForbidden
	}

	payment, err := s.payments.GetByID(paymentID)
	if err != nil {
		return nil, err
	}

	if payment.IsVerified {
		s.logger.Warn("payment already verified",
			slog.Int64("payment_id", payment.ID),
		)
		return &VerifyResult{Payment: payment, AlreadyVerified: true}, nil
	}

	now := time.Now()
	payment.IsVerified = true
	payment.VerifiedByID = &actor.ID
	payment.VerifiedAt = &now
	if err := s.payments.Update(payment); err != nil {
		return nil, fmt.Errorf("failed to verify payment: %w", err)
	}

	cleared, err := s.settle(payment)
	if err != nil {
		// The payment stays verified; settlement can be retried by a
		// later verification pass over the affected bills.
		s.logger.Error("settlement failed after verification",
			slog.Int64("payment_id", payment.ID),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	metrics.ObservePaymentVerified(cleared)
	s.logger.Info("payment verified",
		slog.Int64("payment_id", payment.ID),
		slog.Int64("tenant_id", payment.TenantID),
		slog.String("amount", payment.Amount.String()),
		slog.Int("bills_cleared", cleared),
	)

	s.notifyTenant(payment, cleared)

	return &VerifyResult{Payment: payment, BillsCleared: cleared}, nil
}

// settle walks the tenant's matching unpaid bills and clears those the
// remaining amount fully covers. Returns the number of bills cleared.
func (s *SettlementService) settle(payment *domain.Payment) (int, error) {
	bills, err := s.bills.ListUnpaidForMonth(payment.TenantID, payment.PaymentType, payment.MonthFor)
	if err != nil {
		return 0, fmt.Errorf("failed to load outstanding bills: %w", err)
	}

	remaining := payment.Amount
	cleared := 0
	for _, bill := range bills {
		if remaining.LessThan(bill.Amount) {
			// No partial settlement: the bill stays open and the
			// remainder is preserved for smaller bills later in order.
			continue
		}
		bill.IsPaid = true
		if err := s.bills.Update(bill); err != nil {
			return cleared, fmt.Errorf("failed to mark bill %d paid: %w", bill.ID, err)
		}
		remaining = remaining.Sub(bill.Amount)
		cleared++
	}
	return cleared, nil
}

func (s *SettlementService) notifyTenant(payment *domain.Payment, cleared int) {
	tenant, err := s.tenants.GetByID(payment.TenantID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			s.logger.Error("failed to load tenant for notification",
				slog.Int64("tenant_id", payment.TenantID),
				slog.String("error", err.Error()),
			)
		}
		return
	}
	msg := fmt.Sprintf("Your %s payment of %s for %s has been verified.",
		payment.PaymentType, payment.Amount.StringFixed(2), payment.MonthFor.Format("January 2006"))
	if cleared > 0 {
		msg += fmt.Sprintf(" %d bill(s) were settled.", cleared)
	}
	s.notifier.Notify(tenant.UserID, msg, "/tenant-dashboard")
}
