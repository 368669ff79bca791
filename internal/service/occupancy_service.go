package service

import (
	"context"
	"log/slog"

	"github.com/yourorg/estateman/internal/domain"
	"github.com/yourorg/estateman/internal/observability/metrics"
)

// OccupancyService reconciles house statuses with tenant assignments.
// Only the vacant<->occupied pair is ever corrected; under_repair and
// reserved houses are left alone regardless of tenant presence. The pass
// is eventually consistent with direct mutations elsewhere.
type OccupancyService struct {
	houses  domain.HouseRepository
	tenants domain.TenantRepository
	logger  *slog.Logger
}

// NewOccupancyService creates a new occupancy synchronizer
func NewOccupancyService(houses domain.HouseRepository, tenants domain.TenantRepository, logger *slog.Logger) *OccupancyService {
	if logger == nil {
		logger = slog.Default()
	}
	return &OccupancyService{houses: houses, tenants: tenants, logger: logger}
}

// Sync walks every house once and corrects vacant/occupied drift.
// Returns the number of houses updated.
func (s *OccupancyService) Sync(ctx context.Context) (int, error) {
	houses, err := s.houses.List()
	if err != nil {
		return 0, err
	}

	updated := 0
	occupied := 0
	for _, house := range houses {
		select {
		case <-ctx.Done():
			return updated, ctx.Err()
		default:
		}

		hasTenant, err := s.tenants.HasActiveTenant(house.ID)
		if err != nil {
			s.logger.Error("failed to check tenant for house",
				slog.String("house_number", house.HouseNumber),
				slog.String("error", err.Error()),
			)
			continue
		}

		switch house.Status {
		case domain.HouseVacant:
			if hasTenant {
				if err := s.houses.UpdateStatus(house.ID, domain.HouseOccupied); err != nil {
					s.logger.Error("failed to mark house occupied",
						slog.String("house_number", house.HouseNumber),
						slog.String("error", err.Error()),
					)
					continue
				}
				s.logger.Info("house marked occupied", slog.String("house_number", house.HouseNumber))
				updated++
				occupied++
			}
		case domain.HouseOccupied:
			if hasTenant {
				occupied++
				continue
			}
			if err := s.houses.UpdateStatus(house.ID, domain.HouseVacant); err != nil {
				s.logger.Error("failed to mark house vacant",
					slog.String("house_number", house.HouseNumber),
					slog.String("error", err.Error()),
				)
				continue
			}
			s.logger.Info("house marked vacant", slog.String("house_number", house.HouseNumber))
			updated++
		case domain.HouseUnderRepair, domain.HouseReserved:
			// Manually managed states, never auto-corrected.
		}
	}

	metrics.ObserveOccupancySync(updated)
	metrics.SetOccupiedHouses(occupied)
	s.logger.Info("occupancy sync finished", slog.Int("updated", updated))
	return updated, nil
}
