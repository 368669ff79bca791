package service

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/yourorg/estateman/internal/domain"
	"github.com/yourorg/estateman/internal/observability/metrics"
)

// openStatuses is what a tenant sees by default: everything not yet
// completed or cancelled.
var openStatuses = []domain.RequestStatus{
	domain.RequestNew,
	domain.RequestAssigned,
	domain.RequestPending,
	domain.RequestInProgress,
}

// MaintenanceService drives the repair-ticket lifecycle:
// new -> assigned -> in_progress -> completed, with pending and cancelled
// on the side.
type MaintenanceService struct {
	requests domain.MaintenanceRepository
	houses   domain.HouseRepository
	users    domain.UserRepository
	notifier *NotificationService
	logger   *slog.Logger
}

// NewMaintenanceService creates a new maintenance service
func NewMaintenanceService(
	requests domain.MaintenanceRepository,
	houses domain.HouseRepository,
	users domain.UserRepository,
	notifier *NotificationService,
	logger *slog.Logger,
) *MaintenanceService {
	if logger == nil {
		logger = slog.Default()
	}
	return &MaintenanceService{
		requests: requests,
		houses:   houses,
		users:    users,
		notifier: notifier,
		logger:   logger,
	}
}

// CreateInput carries the fields a reporter supplies for a new ticket.
type CreateInput struct {
	HouseID     *int64
	Description string
	Category    domain.RequestCategory
	Priority    domain.RequestPriority
	Notes       string
}

// Create opens a new ticket with the next sequential human-readable id.
func (s *MaintenanceService) Create(actor domain.Actor, in CreateInput) (*domain.MaintenanceRequest, error) {
	if in.Description == "" {
		return nil, domain.Invalid("description", "description is required")
	}
	if in.Category == "" {
		in.Category = domain.CategoryGeneral
	}
	if !in.Category.Valid() {
		return nil, domain.Invalid("category", "unknown category")
	}
	if in.Priority == "" {
		in.Priority = domain.PriorityMedium
	}
	if !in.Priority.Valid() {
		return nil, domain.Invalid("priority", "unknown priority")
	}

	reporter, err := s.users.GetByID(actor.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load reporter: %w", err)
	}

	req := &domain.MaintenanceRequest{
		HouseID:            in.HouseID,
		ReportedByID:       &actor.ID,
		ArchivedReportedBy: reporter.FullName(),
		Description:        in.Description,
		Category:           in.Category,
		Priority:           in.Priority,
		Status:             domain.RequestNew,
		Notes:              in.Notes,
	}

	if in.HouseID != nil {
		house, err := s.houses.GetByID(*in.HouseID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, domain.Invalid("house_id", "house not found")
			}
			return nil, err
		}
		req.ArchivedHouseNumber = house.HouseNumber
	}

	seq, err := s.requests.NextSequence()
	if err != nil {
		return nil, err
	}
	req.RequestID = fmt.Sprintf("MR-%03d", seq)

	if err := s.requests.Create(req); err != nil {
		return nil, err
	}

	metrics.ObserveMaintenanceTransition(string(domain.RequestNew))
	s.logger.Info("maintenance request created",
		slog.String("request_id", req.RequestID),
		slog.Int64("reported_by", actor.ID),
	)
	return req, nil
}

// Assign puts a technician on a ticket. Allowed from any non-terminal
// state. When the technician has a declared specialization it must match
// the request category.
func (s *MaintenanceService) Assign(actor domain.Actor, requestID, technicianID int64) (*domain.MaintenanceRequest, error) {
	switch actor.Role {
	case domain.RoleAdmin, domain.RoleManager:
	default:
		return nil, domain.ErrForbidden
	}

	req, err := s.requests.GetByID(requestID)
	if err != nil {
		return nil, err
	}
	if req.Status.Terminal() {
		return nil, fmt.Errorf("%w: request %s is %s", domain.ErrConflict, req.RequestID, req.Status)
	}

	tech, err := s.users.GetByID(technicianID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.Invalid("technician_id", "technician not found")
		}
		return nil, err
	}
	if tech.Role != domain.RoleTechnician {
		return nil, domain.Invalid("technician_id", "user is not a technician")
	}
	if tech.Specialization != "" && string(tech.Specialization) != string(req.Category) {
		return nil, domain.Invalid("technician_id",
			fmt.Sprintf("technician specializes in %s, request is %s", tech.Specialization, req.Category))
	}

	now := time.Now()
	req.AssignedToID = &technicianID
	req.Status = domain.RequestAssigned
	req.AssignedAt = &now
	if err := s.requests.Update(req); err != nil {
		return nil, err
	}

	metrics.ObserveMaintenanceTransition(string(domain.RequestAssigned))
	s.notifier.Notify(technicianID,
		fmt.Sprintf("You have been assigned maintenance request %s (%s).", req.RequestID, req.Category),
		"/technician-dashboard")
	if req.ReportedByID != nil {
		s.notifier.Notify(*req.ReportedByID,
			fmt.Sprintf("A technician has been assigned to your request %s.", req.RequestID),
			"/tenant-dashboard")
	}
	return req, nil
}

// UpdateStatus moves a ticket to any declared status. Completion stamps
// completed_at and notifies the reporter exactly once: repeating the
// completed status does not re-notify.
func (s *MaintenanceService) UpdateStatus(actor domain.Actor, requestID int64, newStatus domain.RequestStatus) (*domain.MaintenanceRequest, error) {
	if !newStatus.Valid() {
		return nil, domain.Invalid("status", "unknown status")
	}

	req, err := s.requests.GetByID(requestID)
	if err != nil {
		return nil, err
	}

	switch actor.Role {
	case domain.RoleAdmin, domain.RoleManager:
	case domain.RoleTechnician:
		if req.AssignedToID == nil || *req.AssignedToID != actor.ID {
			return nil, domain.ErrForbidden
		}
	default:
		return nil, domain.ErrForbidden
	}

	oldStatus := req.Status
	req.Status = newStatus
	if newStatus == domain.RequestCompleted && req.CompletedAt == nil {
		now := time.Now()
		req.CompletedAt = &now
	}
	if err := s.requests.Update(req); err != nil {
		return nil, err
	}

	metrics.ObserveMaintenanceTransition(string(newStatus))
	if newStatus == domain.RequestCompleted && oldStatus != domain.RequestCompleted && req.ReportedByID != nil {
		s.notifier.Notify(*req.ReportedByID,
			fmt.Sprintf("Your maintenance request %s has been completed.", req.RequestID),
			"/tenant-dashboard")
	}
	return req, nil
}

// Ping nudges the assigned technician with an urgent notification. It is
// not a state transition and requires a technician to already be
// assigned.
func (s *MaintenanceService) Ping(actor domain.Actor, requestID int64) error {
	switch actor.Role {
	case domain.RoleAdmin:
	default:
		return domain.ErrForbidden
	}

	req, err := s.requests.GetByID(requestID)
	if err != nil {
		return err
	}
	if req.AssignedToID == nil {
		return domain.Invalid("request", "no technician assigned to ping")
	}

	s.notifier.Notify(*req.AssignedToID,
		fmt.Sprintf("URGENT: please attend to maintenance request %s immediately.", req.RequestID),
		"/technician-dashboard")
	s.logger.Info("technician pinged",
		slog.String("request_id", req.RequestID),
		slog.Int64("technician_id", *req.AssignedToID),
	)
	return nil
}

// Get returns one ticket, subject to the same visibility rules as
// listing.
func (s *MaintenanceService) Get(actor domain.Actor, requestID int64) (*domain.MaintenanceRequest, error) {
	req, err := s.requests.GetByID(requestID)
	if err != nil {
		return nil, err
	}
	switch actor.Role {
	case domain.RoleAdmin, domain.RoleManager:
		return req, nil
	case domain.RoleTechnician:
		if req.AssignedToID != nil && *req.AssignedToID == actor.ID {
			return req, nil
		}
		return nil, domain.ErrForbidden
	case domain.RoleTenant:
		if req.ReportedByID != nil && *req.ReportedByID == actor.ID {
			return req, nil
		}
		return nil, domain.ErrForbidden
	default:
		return nil, domain.ErrForbidden
	}
}

// ListFor returns the default view per role: admins and managers see
// everything, technicians their assignments, tenants their own open
// requests.
func (s *MaintenanceService) ListFor(actor domain.Actor) ([]*domain.MaintenanceRequest, error) {
	switch actor.Role {
	case domain.RoleAdmin, domain.RoleManager:
		return s.requests.List()
	case domain.RoleTechnician:
		return s.requests.ListByAssignee(actor.ID)
	case domain.RoleTenant:
		return s.requests.ListByReporter(actor.ID, openStatuses)
	default:
		return nil, domain.ErrForbidden
	}
}

// ListCompletedFor returns a tenant's completed requests.
func (s *MaintenanceService) ListCompletedFor(actor domain.Actor) ([]*domain.MaintenanceRequest, error) {
	switch actor.Role {
	case domain.RoleTenant:
		return s.requests.ListByReporter(actor.ID, []domain.RequestStatus{domain.RequestCompleted})
	case domain.RoleAdmin, domain.RoleManager, domain.RoleTechnician:
		return nil, domain.ErrForbidden
	default:
		return nil, domain.ErrForbidden
	}
}

// ListAllFor returns a tenant's requests in every state.
func (s *MaintenanceService) ListAllFor(actor domain.Actor) ([]*domain.MaintenanceRequest, error) {
	switch actor.Role {
	case domain.RoleTenant:
		return s.requests.ListByReporter(actor.ID, nil)
	case domain.RoleAdmin, domain.RoleManager, domain.RoleTechnician:
		return nil, domain.ErrForbidden
	default:
		return nil, domain.ErrForbidden
	}
}

// Stats returns ticket counts by status for the dashboard.
func (s *MaintenanceService) Stats(actor domain.Actor) (*domain.MaintenanceStats, error) {
	switch actor.Role {
	case domain.RoleAdmin, domain.RoleManager:
	default:
		return nil, domain.ErrForbidden
	}

	counts, err := s.requests.CountByStatus()
	if err != nil {
		return nil, err
	}
	stats := &domain.MaintenanceStats{
		Pending:    counts[domain.RequestPending],
		Assigned:   counts[domain.RequestAssigned],
		InProgress: counts[domain.RequestInProgress],
		Completed:  counts[domain.RequestCompleted],
	}
	for _, n := range counts {
		stats.Total += n
	}
	return stats, nil
}
