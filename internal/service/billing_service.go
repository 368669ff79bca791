package service

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/yourorg/estateman/internal/domain"
)

// BillingService manages bills and payment submissions. Verification of
// payments lives in SettlementService; everything a payment counts for
// flows through that gate.
type BillingService struct {
	bills    domain.BillRepository
	payments domain.PaymentRepository
	tenants  domain.TenantRepository
	notifier *NotificationService
	logger   *slog.Logger
}

// NewBillingService creates a new billing service
func NewBillingService(bills domain.BillRepository, payments domain.PaymentRepository, tenants domain.TenantRepository, notifier *NotificationService, logger *slog.Logger) *BillingService {
	if logger == nil {
		logger = slog.Default()
	}
	return &BillingService{bills: bills, payments: payments, tenants: tenants, notifier: notifier, logger: logger}
}

// BillInput carries a new or updated bill.
type BillInput struct {
	TenantID int64
	BillType domain.ChargeType
	Amount   decimal.Decimal
	BillDate time.Time
	MonthFor time.Time
	Notes    string
}

func (in BillInput) validate() error {
	if in.TenantID == 0 {
		return domain.Invalid("tenant_id", "tenant is required")
	}
	if !in.BillType.Valid() {
		return domain.Invalid("bill_type", "unknown bill type")
	}
	if in.Amount.LessThanOrEqual(decimal.Zero) {
		return domain.Invalid("amount", "amount must be positive")
	}
	if in.MonthFor.IsZero() {
		return domain.Invalid("month_for", "month is required")
	}
	return nil
}

// CreateBill records a new unpaid bill against a tenant and notifies
// them.
func (s *BillingService) CreateBill(actor domain.Actor, in BillInput) (*domain.Bill, error) {
	switch actor.Role {
	case domain.RoleAdmin, domain.RoleManager:
	case domain.RoleTenant, domain.RoleTechnician:
		return nil, domain.ErrForbidden
	default:
		return nil, domain.ErrForbidden
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	tenant, err := s.tenants.GetByID(in.TenantID)
	if err != nil {
		return nil, err
	}

	billDate := in.BillDate
	if billDate.IsZero() {
		billDate = time.Now()
	}
	bill := &domain.Bill{
		TenantID: in.TenantID,
		BillType: in.BillType,
		Amount:   in.Amount,
		BillDate: billDate,
		MonthFor: in.MonthFor,
		IsPaid:   false,
		Notes:    in.Notes,
	}
	if err := s.bills.Create(bill); err != nil {
		return nil, fmt.Errorf("failed to create bill: %w", err)
	}

	s.notifier.Notify(tenant.UserID,
		fmt.Sprintf("New %s bill of %s for %s", bill.BillType, bill.Amount.StringFixed(2), bill.MonthFor.Format("January 2006")),
		fmt.Sprintf("/bills/%d", bill.ID))

	s.logger.Info("bill created",
		slog.Int64("bill_id", bill.ID),
		slog.Int64("tenant_id", bill.TenantID),
		slog.String("type", string(bill.BillType)),
		slog.String("amount", bill.Amount.String()),
	)
	return bill, nil
}

// UpdateBill edits an unpaid bill. Paid bills are frozen.
func (s *BillingService) UpdateBill(actor domain.Actor, id int64, in BillInput) (*domain.Bill, error) {
	switch actor.Role {
	case domain.RoleAdmin, domain.RoleManager:
	default:
		return nil, domain.ErrForbidden
	}
	bill, err := s.bills.GetByID(id)
	if err != nil {
		return nil, err
	}
	if bill.IsPaid {
		return nil, fmt.Errorf("%w: paid bills cannot be edited", domain.ErrConflict)
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	bill.TenantID = in.TenantID
	bill.BillType = in.BillType
	bill.Amount = in.Amount
	if !in.BillDate.IsZero() {
		bill.BillDate = in.BillDate
	}
	bill.MonthFor = in.MonthFor
	bill.Notes = in.Notes
	if err := s.bills.Update(bill); err != nil {
		return nil, fmt.Errorf("failed to update bill: %w", err)
	}
	return bill, nil
}

// DeleteBill removes an unpaid bill.
func (s *BillingService) DeleteBill(actor domain.Actor, id int64) error {
	switch actor.Role {
	case domain.RoleAdmin:
	default:
		return domain.ErrForbidden
	}
	bill, err := s.bills.GetByID(id)
	if err != nil {
		return err
	}
	if bill.IsPaid {
		return fmt.Errorf("%w: paid bills cannot be deleted", domain.ErrConflict)
	}
	if err := s.bills.Delete(id); err != nil {
		return fmt.Errorf("failed to delete bill: %w", err)
	}
	s.logger.Info("bill deleted", slog.Int64("bill_id", id))
	return nil
}

// GetBill returns a bill. Tenants may only read their own.
func (s *BillingService) GetBill(actor domain.Actor, id int64) (*domain.Bill, error) {
	bill, err := s.bills.GetByID(id)
	if err != nil {
		return nil, err
	}
	switch actor.Role {
	case domain.RoleAdmin, domain.RoleManager:
		return bill, nil
	case domain.RoleTenant:
		tenant, err := s.tenants.GetByUserID(actor.ID)
		if err != nil || tenant.ID != bill.TenantID {
			return nil, domain.ErrForbidden
		}
		return bill, nil
	default:
		return nil, domain.ErrForbidden
	}
}

// ListBills returns all bills for staff, and the caller's own bills for
// tenants.
func (s *BillingService) ListBills(actor domain.Actor) ([]*domain.Bill, error) {
	switch actor.Role {
	case domain.RoleAdmin, domain.RoleManager:
		return s.bills.List()
	case domain.RoleTenant:
		tenant, err := s.tenants.GetByUserID(actor.ID)
		if err != nil {
			return nil, domain.ErrForbidden
		}
		return s.bills.ListByTenant(tenant.ID)
	default:
		return nil, domain.ErrForbidden
	}
}

// PaymentInput carries a payment submission.
type PaymentInput struct {
	TenantID        int64 // ignored for tenant callers; their own profile is used
	Amount          decimal.Decimal
	PaymentDate     time.Time
	Method          domain.PaymentMethod
	PaymentType     domain.ChargeType
	ReferenceNumber string
	MonthFor        time.Time
}

// SubmitPayment records a payment awaiting verification. Tenants can
// only submit for themselves, and every new payment starts unverified
// no matter what the caller sends.
func (s *BillingService) SubmitPayment(actor domain.Actor, in PaymentInput) (*domain.Payment, error) {
	var tenantID int64
	switch actor.Role {
	case domain.RoleTenant:
		tenant, err := s.tenants.GetByUserID(actor.ID)
		if err != nil {
			return nil, fmt.Errorf("%w: no tenant profile for user", domain.ErrForbidden)
		}
		tenantID = tenant.ID
	case domain.RoleAdmin, domain.RoleManager:
		if in.TenantID == 0 {
			return nil, domain.Invalid("tenant_id", "tenant is required")
		}
		if _, err := s.tenants.GetByID(in.TenantID); err != nil {
			return nil, err
		}
		tenantID = in.TenantID
	default:
		return nil, domain.ErrForbidden
	}

	if in.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, domain.Invalid("amount", "amount must be positive")
	}
	if !in.Method.Valid() {
		return nil, domain.Invalid("method", "unknown payment method")
	}
	if !in.PaymentType.Valid() {
		return nil, domain.Invalid("payment_type", "unknown payment type")
	}
	if in.MonthFor.IsZero() {
		return nil, domain.Invalid("month_for", "month is required")
	}

	paymentDate := in.PaymentDate
	if paymentDate.IsZero() {
		paymentDate = time.Now()
	}
	ref := in.ReferenceNumber
	if ref == "" {
		ref = uuid.NewString()
	}
	payment := &domain.Payment{
		TenantID:        tenantID,
		Amount:          in.Amount,
		PaymentDate:     paymentDate,
		Method:          in.Method,
		PaymentType:     in.PaymentType,
		ReferenceNumber: ref,
		MonthFor:        in.MonthFor,
		IsVerified:      false,
	}
	if err := s.payments.Create(payment); err != nil {
		return nil, fmt.Errorf("failed to record payment: %w", err)
	}

	s.logger.Info("payment submitted",
		slog.Int64("payment_id", payment.ID),
		slog.Int64("tenant_id", payment.TenantID),
		slog.String("amount", payment.Amount.String()),
		slog.String("reference", payment.ReferenceNumber),
	)
	return payment, nil
}

// GetPayment returns a payment. Tenants may only read their own.
func (s *BillingService) GetPayment(actor domain.Actor, id int64) (*domain.Payment, error) {
	payment, err := s.payments.GetByID(id)
	if err != nil {
		return nil, err
	}
	switch actor.Role {
	case domain.RoleAdmin, domain.RoleManager:
		return payment, nil
	case domain.RoleTenant:
		tenant, err := s.tenants.GetByUserID(actor.ID)
		if err != nil || tenant.ID != payment.TenantID {
			return nil, domain.ErrForbidden
		}
		return payment, nil
	default:
		return nil, domain.ErrForbidden
	}
}

// ListPayments returns all payments for staff, and the caller's own for
// tenants.
func (s *BillingService) ListPayments(actor domain.Actor) ([]*domain.Payment, error) {
	switch actor.Role {
	case domain.RoleAdmin, domain.RoleManager:
		return s.payments.List()
	case domain.RoleTenant:
		tenant, err := s.tenants.GetByUserID(actor.ID)
		if err != nil {
			return nil, domain.ErrForbidden
		}
		return s.payments.ListByTenant(tenant.ID)
	default:
		return nil, domain.ErrForbidden
	}
}

// DeletePayment removes an unverified payment. Verified payments are
// part of the financial record and cannot be deleted.
func (s *BillingService) DeletePayment(actor domain.Actor, id int64) error {
	switch actor.Role {
	case domain.RoleAdmin:
	default:
		return domain.ErrForbidden
	}
	payment, err := s.payments.GetByID(id)
	if err != nil {
		return err
	}
	if payment.IsVerified {
		return fmt.Errorf("%w: verified payments cannot be deleted", domain.ErrConflict)
	}
	if err := s.payments.Delete(id); err != nil {
		return fmt.Errorf("failed to delete payment: %w", err)
	}
	s.logger.Info("payment deleted", slog.Int64("payment_id", id))
	return nil
}
