package service

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/yourorg/estateman/internal/domain"
	"github.com/yourorg/estateman/internal/observability/metrics"
)

// ApprovalService decides on pending self-registered tenants. Approval
// provisions the tenant profile and occupies the house as one logical
// unit: each step has a defined compensating action so partial failure
// never leaves user, tenant and house inconsistent.
type ApprovalService struct {
	users    domain.UserRepository
	tenants  domain.TenantRepository
	houses   domain.HouseRepository
	notifier *NotificationService
	logger   *slog.Logger
}

// NewApprovalService creates a new approval service
func NewApprovalService(
	users domain.UserRepository,
	tenants domain.TenantRepository,
	houses domain.HouseRepository,
	notifier *NotificationService,
	logger *slog.Logger,
) *ApprovalService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ApprovalService{
		users:    users,
		tenants:  tenants,
		houses:   houses,
		notifier: notifier,
		logger:   logger,
	}
}

// ApprovalInput carries the tenancy terms supplied at approval time.
type ApprovalInput struct {
	HouseID       int64
	MoveInDate    time.Time
	ContractStart time.Time
	ContractEnd   time.Time
}

// Approve marks a pending user approved, provisions the tenant profile
// with the supplied vacant house, and occupies the house. Login
// capability (is_active) is granted only if the user has already verified
// their email; otherwise it stays off until email verification flips it.
func (s *ApprovalService) Approve(actor domain.Actor, userID int64, in ApprovalInput) (*domain.User, error) {
	switch actor.Role {
	case domain.RoleAdmin:
	default:
		return nil, domain.ErrForbidden
	}

	user, err := s.users.GetByID(userID)
	if err != nil {
		return nil, err
	}
	if user.ApprovalStatus != domain.ApprovalPending {
		return nil, fmt.Errorf("%w: user is %s, not pending", domain.ErrConflict, user.ApprovalStatus)
	}
	if in.HouseID == 0 {
		return nil, domain.Invalid("house_id", "a vacant house is required for approval")
	}

	house, err := s.houses.GetByID(in.HouseID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.Invalid("house_id", "house not found")
		}
		return nil, err
	}
	if house.Status != domain.HouseVacant {
		return nil, domain.Invalid("house_id", fmt.Sprintf("house %s is %s, not vacant", house.HouseNumber, house.Status))
	}

	// Step (a): mark approved. is_active only if email already verified.
	prevStatus := user.ApprovalStatus
	prevActive := user.IsActive
	now := time.Now()
	user.ApprovalStatus = domain.ApprovalApproved
	user.ApprovedByID = &actor.ID
	user.ApprovedAt = &now
	user.IsActive = user.EmailVerified
	if err := s.users.Update(user); err != nil {
		return nil, fmt.Errorf("failed to approve user: %w", err)
	}

	// Step (b): create or update the tenant profile.
	tenant, createdTenant, err := s.provisionTenant(user, in)
	if err != nil {
		s.revertUser(user, prevStatus, prevActive)
		return nil, fmt.Errorf("failed to provision tenant: %w", err)
	}

	// Step (c): occupy the house.
	if err := s.houses.UpdateStatus(house.ID, domain.HouseOccupied); err != nil {
		s.revertTenant(tenant, createdTenant)
		s.revertUser(user, prevStatus, prevActive)
		return nil, fmt.Errorf("failed to occupy house: %w", err)
	}

	metrics.ObserveApproval("approved")
	s.logger.Info("tenant approved",
		slog.Int64("user_id", user.ID),
		slog.Int64("house_id", house.ID),
		slog.Bool("active", user.IsActive),
	)
	s.notifier.Notify(user.ID,
		fmt.Sprintf("Your registration has been approved. You have been assigned house %s.", house.HouseNumber),
		"/tenant-dashboard")

	return user, nil
}

// Reject turns down a pending user with a reason.
func (s *ApprovalService) Reject(actor domain.Actor, userID int64, reason string) (*domain.User, error) {
	switch actor.Role {
	case domain.RoleAdmin:
	default:
		return nil, domain.ErrForbidden
	}

	user, err := s.users.GetByID(userID)
	if err != nil {
		return nil, err
	}
	if user.ApprovalStatus != domain.ApprovalPending {
		return nil, fmt.Errorf("%w: user is %s, not pending", domain.ErrConflict, user.ApprovalStatus)
	}

	user.ApprovalStatus = domain.ApprovalRejected
	user.RejectionReason = reason
	user.IsActive = false
	if err := s.users.Update(user); err != nil {
		return nil, fmt.Errorf("failed to reject user: %w", err)
	}

	metrics.ObserveApproval("rejected")
	s.logger.Info("registration rejected", slog.Int64("user_id", user.ID))
	s.notifier.Notify(user.ID, "Your registration was rejected. "+reason, "")
	return user, nil
}

// ListPending returns users awaiting an approval decision.
func (s *ApprovalService) ListPending(actor domain.Actor) ([]*domain.User, error) {
	switch actor.Role {
	case domain.RoleAdmin, domain.RoleManager:
	default:
		return nil, domain.ErrForbidden
	}
	return s.users.ListPendingApproval()
}

// provisionTenant creates or updates the user's tenant profile. The bool
// result reports whether a new row was created, which decides the
// compensation on later failure.
func (s *ApprovalService) provisionTenant(user *domain.User, in ApprovalInput) (*domain.Tenant, bool, error) {
	tenant, err := s.tenants.GetByUserID(user.ID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, false, err
		}
		tenant = &domain.Tenant{
			UserID:        user.ID,
			HouseID:       &in.HouseID,
			MoveInDate:    in.MoveInDate,
			ContractStart: in.ContractStart,
			ContractEnd:   in.ContractEnd,
			Status:        domain.TenantActive,
		}
		if err := s.tenants.Create(tenant); err != nil {
			return nil, false, err
		}
		return tenant, true, nil
	}

	tenant.HouseID = &in.HouseID
	tenant.MoveInDate = in.MoveInDate
	tenant.ContractStart = in.ContractStart
	tenant.ContractEnd = in.ContractEnd
	tenant.Status = domain.TenantActive
	if err := s.tenants.Update(tenant); err != nil {
		return nil, false, err
	}
	return tenant, false, nil
}

func (s *ApprovalService) revertUser(user *domain.User, status domain.ApprovalStatus, active bool) {
	user.ApprovalStatus = status
	user.ApprovedByID = nil
	user.ApprovedAt = nil
	user.IsActive = active
	if err := s.users.Update(user); err != nil {
		s.logger.Error("compensating user revert failed",
			slog.Int64("user_id", user.ID),
			slog.String("error", err.Error()),
		)
	}
}

func (s *ApprovalService) revertTenant(tenant *domain.Tenant, created bool) {
	if created {
		if err := s.tenants.Delete(tenant.ID); err != nil {
			s.logger.Error("compensating tenant delete failed",
				slog.Int64("tenant_id", tenant.ID),
				slog.String("error", err.Error()),
			)
		}
		return
	}
	tenant.Status = domain.TenantInactive
	if err := s.tenants.Update(tenant); err != nil {
		s.logger.Error("compensating tenant revert failed",
			slog.Int64("tenant_id", tenant.ID),
			slog.String("error", err.Error()),
		)
	}
}
