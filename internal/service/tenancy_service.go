package service

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/yourorg/estateman/internal/domain"
)

// TenancyService manages tenant profiles and contracts. Tenant mutations
// adjust house status directly, best-effort; the occupancy synchronizer
// reconciles anything they miss.
type TenancyService struct {
	tenants   domain.TenantRepository
	houses    domain.HouseRepository
	users     domain.UserRepository
	contracts domain.ContractRepository
	logger    *slog.Logger
}

// NewTenancyService creates a new tenancy service
func NewTenancyService(
	tenants domain.TenantRepository,
	houses domain.HouseRepository,
	users domain.UserRepository,
	contracts domain.ContractRepository,
	logger *slog.Logger,
) *TenancyService {
	if logger == nil {
		logger = slog.Default()
	}
	return &TenancyService{
		tenants:   tenants,
		houses:    houses,
		users:     users,
		contracts: contracts,
		logger:    logger,
	}
}

// CreateTenant registers a tenant profile and marks its house occupied.
func (s *TenancyService) CreateTenant(actor domain.Actor, tenant *domain.Tenant) error {
	switch actor.Role {
	case domain.RoleAdmin, domain.RoleManager:
	default:
		return domain.ErrForbidden
	}
	if tenant.Status == "" {
		tenant.Status = domain.TenantActive
	}
	if !tenant.Status.Valid() {
		return domain.Invalid("status", "unknown tenant status")
	}

	if err := s.tenants.Create(tenant); err != nil {
		return err
	}

	if tenant.HouseID != nil {
		if err := s.houses.UpdateStatus(*tenant.HouseID, domain.HouseOccupied); err != nil {
			// Tolerated: the sync pass will correct it.
			s.logger.Warn("failed to mark house occupied after tenant create",
				slog.Int64("house_id", *tenant.HouseID),
				slog.String("error", err.Error()),
			)
		}
	}
	return nil
}

// UpdateTenant persists changes to a tenant profile.
func (s *TenancyService) UpdateTenant(actor domain.Actor, tenant *domain.Tenant) error {
	switch actor.Role {
	case domain.RoleAdmin, domain.RoleManager:
	default:
		return domain.ErrForbidden
	}
	if !tenant.Status.Valid() {
		return domain.Invalid("status", "unknown tenant status")
	}
	return s.tenants.Update(tenant)
}

// DeleteTenant removes a tenant profile and vacates its house.
func (s *TenancyService) DeleteTenant(actor domain.Actor, id int64) error {
	switch actor.Role {
	case domain.RoleAdmin:
	default:
		return domain.ErrForbidden
	}

	tenant, err := s.tenants.GetByID(id)
	if err != nil {
		return err
	}
	if err := s.tenants.Delete(id); err != nil {
		return err
	}

	if tenant.HouseID != nil {
		if err := s.houses.UpdateStatus(*tenant.HouseID, domain.HouseVacant); err != nil {
			s.logger.Warn("failed to vacate house after tenant delete",
				slog.Int64("house_id", *tenant.HouseID),
				slog.String("error", err.Error()),
			)
		}
	}
	return nil
}

// GetTenant returns one tenant profile. Tenants may only read their own.
func (s *TenancyService) GetTenant(actor domain.Actor, id int64) (*domain.Tenant, error) {
	tenant, err := s.tenants.GetByID(id)
	if err != nil {
		return nil, err
	}
	switch actor.Role {
	case domain.RoleAdmin, domain.RoleManager:
		return tenant, nil
	case domain.RoleTenant:
		if tenant.UserID != actor.ID {
			return nil, domain.ErrForbidden
		}
		return tenant, nil
	default:
		return nil, domain.ErrForbidden
	}
}

// ListTenants returns all tenant profiles (staff only).
func (s *TenancyService) ListTenants(actor domain.Actor) ([]*domain.Tenant, error) {
	switch actor.Role {
	case domain.RoleAdmin, domain.RoleManager:
	default:
		return nil, domain.ErrForbidden
	}
	return s.tenants.List()
}

// ListExpiring returns tenants whose contract ends within 30 days.
func (s *TenancyService) ListExpiring(actor domain.Actor) ([]*domain.Tenant, error) {
	switch actor.Role {
	case domain.RoleAdmin, domain.RoleManager:
	default:
		return nil, domain.ErrForbidden
	}
	cutoff := time.Now().AddDate(0, 0, 30)
	return s.tenants.ListExpiring(cutoff)
}

// CreateContract records a lease. The tenant-name and house-number
// snapshots are stamped at write time so history survives deletions.
func (s *TenancyService) CreateContract(actor domain.Actor, contract *domain.Contract) error {
	switch actor.Role {
	case domain.RoleAdmin, domain.RoleManager:
	default:
		return domain.ErrForbidden
	}
	if contract.TenantID == nil {
		return domain.Invalid("tenant_id", "tenant is required")
	}
	if contract.HouseID == nil {
		return domain.Invalid("house_id", "house is required")
	}

	tenant, err := s.tenants.GetByID(*contract.TenantID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Invalid("tenant_id", "tenant not found")
		}
		return err
	}
	user, err := s.users.GetByID(tenant.UserID)
	if err != nil {
		return fmt.Errorf("failed to load tenant user: %w", err)
	}
	house, err := s.houses.GetByID(*contract.HouseID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Invalid("house_id", "house not found")
		}
		return err
	}

	contract.TenantName = user.FullName()
	contract.HouseNumber = house.HouseNumber
	return s.contracts.Create(contract)
}

// GetContract returns one contract. Tenants may only read their own.
func (s *TenancyService) GetContract(actor domain.Actor, id int64) (*domain.Contract, error) {
	contract, err := s.contracts.GetByID(id)
	if err != nil {
		return nil, err
	}
	switch actor.Role {
	case domain.RoleAdmin, domain.RoleManager:
		return contract, nil
	case domain.RoleTenant:
		if contract.TenantID == nil {
			return nil, domain.ErrForbidden
		}
		tenant, err := s.tenants.GetByID(*contract.TenantID)
		if err != nil || tenant.UserID != actor.ID {
			return nil, domain.ErrForbidden
		}
		return contract, nil
	default:
		return nil, domain.ErrForbidden
	}
}

// ListContracts returns all contracts for staff, and the caller's own
// for tenants.
func (s *TenancyService) ListContracts(actor domain.Actor) ([]*domain.Contract, error) {
	switch actor.Role {
	case domain.RoleAdmin, domain.RoleManager:
		return s.contracts.List()
	case domain.RoleTenant:
		tenant, err := s.tenants.GetByUserID(actor.ID)
		if err != nil {
			return nil, domain.ErrForbidden
		}
		return s.contracts.ListByTenant(tenant.ID)
	default:
		return nil, domain.ErrForbidden
	}
}

// DeleteContract removes a contract record.
func (s *TenancyService) DeleteContract(actor domain.Actor, id int64) error {
	switch actor.Role {
	case domain.RoleAdmin:
	default:
		return domain.ErrForbidden
	}
	if _, err := s.contracts.GetByID(id); err != nil {
		return err
	}
	return s.contracts.Delete(id)
}

// ContractDisplayName resolves the tenant name to show for a contract:
// the live tenant's current name wins over the stored snapshot.
func (s *TenancyService) ContractDisplayName(contract *domain.Contract) string {
	if contract.TenantID != nil {
		if tenant, err := s.tenants.GetByID(*contract.TenantID); err == nil {
			if user, err := s.users.GetByID(tenant.UserID); err == nil {
				return user.FullName()
			}
		}
	}
	return contract.TenantName
}
