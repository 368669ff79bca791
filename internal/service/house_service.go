package service

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/shopspring/decimal"

	"github.com/yourorg/estateman/internal/domain"
)

// HouseService manages the unit inventory.
type HouseService struct {
	houses  domain.HouseRepository
	tenants domain.TenantRepository
	logger  *slog.Logger
}

// NewHouseService creates a new house service
func NewHouseService(houses domain.HouseRepository, tenants domain.TenantRepository, logger *slog.Logger) *HouseService {
	if logger == nil {
		logger = slog.Default()
	}
	return &HouseService{houses: houses, tenants: tenants, logger: logger}
}

// HouseInput carries a new or updated house.
type HouseInput struct {
	HouseNumber string
	HouseType   domain.HouseType
	Status      domain.HouseStatus
	Location    string
	RentAmount  decimal.Decimal
	Bedrooms    int
	Bathrooms   int
	Description string
}

func (in HouseInput) validate() error {
	if in.HouseNumber == "" {
		return domain.Invalid("house_number", "house number is required")
	}
	if !in.HouseType.Valid() {
		return domain.Invalid("house_type", "unknown house type")
	}
	if in.Status != "" && !in.Status.Valid() {
		return domain.Invalid("status", "unknown house status")
	}
	if in.RentAmount.LessThanOrEqual(decimal.Zero) {
		return domain.Invalid("rent_amount", "rent must be positive")
	}
	return nil
}

// Create adds a unit to the inventory. House numbers are unique.
func (s *HouseService) Create(actor domain.Actor, in HouseInput) (*domain.House, error) {
	switch actor.Role {
	case domain.RoleAdmin, domain.RoleManager:
	default:
		return nil, domain.ErrForbidden
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	if existing, err := s.houses.GetByNumber(in.HouseNumber); err == nil && existing != nil {
		return nil, domain.Invalid("house_number", "house number already exists")
	}

	status := in.Status
	if status == "" {
		status = domain.HouseVacant
	}
	house := &domain.House{
		HouseNumber: in.HouseNumber,
		HouseType:   in.HouseType,
		Status:      status,
		Location:    in.Location,
		RentAmount:  in.RentAmount,
		Bedrooms:    in.Bedrooms,
		Bathrooms:   in.Bathrooms,
		Description: in.Description,
	}
	if err := s.houses.Create(house); err != nil {
		return nil, fmt.Errorf("failed to create house: %w", err)
	}
	s.logger.Info("house created",
		slog.Int64("house_id", house.ID),
		slog.String("house_number", house.HouseNumber),
	)
	return house, nil
}

// Update edits a house record.
func (s *HouseService) Update(actor domain.Actor, id int64, in HouseInput) (*domain.House, error) {
	switch actor.Role {
	case domain.RoleAdmin, domain.RoleManager:
	default:
		return nil, domain.ErrForbidden
	}
	house, err := s.houses.GetByID(id)
	if err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	if in.HouseNumber != house.HouseNumber {
		if existing, err := s.houses.GetByNumber(in.HouseNumber); err == nil && existing != nil {
			return nil, domain.Invalid("house_number", "house number already exists")
		}
	}

	house.HouseNumber = in.HouseNumber
	house.HouseType = in.HouseType
	if in.Status != "" {
		house.Status = in.Status
	}
	house.Location = in.Location
	house.RentAmount = in.RentAmount
	house.Bedrooms = in.Bedrooms
	house.Bathrooms = in.Bathrooms
	house.Description = in.Description
	if err := s.houses.Update(house); err != nil {
		return nil, fmt.Errorf("failed to update house: %w", err)
	}
	return house, nil
}

// Delete removes a vacant house. Occupied houses must be vacated first.
func (s *HouseService) Delete(actor domain.Actor, id int64) error {
	switch actor.Role {
	case domain.RoleAdmin:
	default:
		return domain.ErrForbidden
	}
	house, err := s.houses.GetByID(id)
	if err != nil {
		return err
	}
	occupied, err := s.tenants.HasActiveTenant(id)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return err
	}
	if occupied {
		return fmt.Errorf("%w: house %s has an active tenant", domain.ErrConflict, house.HouseNumber)
	}
	if err := s.houses.Delete(id); err != nil {
		return fmt.Errorf("failed to delete house: %w", err)
	}
	s.logger.Info("house deleted", slog.Int64("house_id", id), slog.String("house_number", house.HouseNumber))
	return nil
}

// Get returns one house. Any authenticated user may look at the
// inventory.
func (s *HouseService) Get(actor domain.Actor, id int64) (*domain.House, error) {
	return s.houses.GetByID(id)
}

// List returns all houses.
func (s *HouseService) List(actor domain.Actor) ([]*domain.House, error) {
	return s.houses.List()
}

// ListVacant returns houses currently available for assignment.
func (s *HouseService) ListVacant(actor domain.Actor) ([]*domain.House, error) {
	return s.houses.ListByStatus(domain.HouseVacant)
}

// Stats returns inventory counts and the occupancy rate in percent,
// rounded to one decimal.
func (s *HouseService) Stats(actor domain.Actor) (*domain.HouseStats, error) {
	switch actor.Role {
	case domain.RoleAdmin, domain.RoleManager:
	default:
		return nil, domain.ErrForbidden
	}
	counts, err := s.houses.CountByStatus()
	if err != nil {
		return nil, fmt.Errorf("failed to count houses: %w", err)
	}

	stats := &domain.HouseStats{
		Occupied:    counts[domain.HouseOccupied],
		Vacant:      counts[domain.HouseVacant],
		UnderRepair: counts[domain.HouseUnderRepair],
	}
	for _, n := range counts {
		stats.Total += n
	}
	if stats.Total > 0 {
		stats.OccupancyRate = math.Round(float64(stats.Occupied)/float64(stats.Total)*1000) / 10
	}
	return stats, nil
}
