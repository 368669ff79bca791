package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/yourorg/estateman/internal/domain"
)

// PostgresMaintenanceRepository implements domain.MaintenanceRepository
// using PostgreSQL
type PostgresMaintenanceRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresMaintenanceRepository creates a new maintenance repository
func NewPostgresMaintenanceRepository(db *sql.DB, logger *slog.Logger) *PostgresMaintenanceRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresMaintenanceRepository{db: db, logger: logger}
}

const maintenanceColumns = `
	id, request_id, house_id, archived_house_number, reported_by,
	archived_reported_by, assigned_to, description, category, priority,
	status, notes, estimated_cost, actual_cost, assigned_at, completed_at,
	created_at, updated_at
`

// NextSequence atomically increments and returns the ticket counter. The
// single-row upsert keeps concurrent creations from ever colliding.
func (r *PostgresMaintenanceRepository) NextSequence() (int64, error) {
	var next int64
	err := r.db.QueryRow(`
		INSERT INTO sequences (name, value)
		VALUES ('maintenance_request', 1)
		ON CONFLICT (name) DO UPDATE SET value = sequences.value + 1
		RETURNING value
	`).Scan(&next)
	if err != nil {
		return 0, fmt.Errorf("failed to advance maintenance sequence: %w", err)
	}
	return next, nil
}

// Create inserts a new maintenance request
func (r *PostgresMaintenanceRepository) Create(m *domain.MaintenanceRequest) error {
	query := `
		INSERT INTO maintenance_requests (
			request_id, house_id, archived_house_number, reported_by,
			archived_reported_by, assigned_to, description, category,
			priority, status, notes, estimated_cost, actual_cost
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRow(query,
		m.RequestID, m.HouseID, m.ArchivedHouseNumber, m.ReportedByID,
		m.ArchivedReportedBy, m.AssignedToID, m.Description,
		string(m.Category), string(m.Priority), string(m.Status),
		m.Notes, m.EstimatedCost, m.ActualCost,
	).Scan(&m.ID, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create maintenance request: %w", err)
	}
	return nil
}

// GetByID retrieves a maintenance request by ID
func (r *PostgresMaintenanceRepository) GetByID(id int64) (*domain.MaintenanceRequest, error) {
	row := r.db.QueryRow(`SELECT `+maintenanceColumns+` FROM maintenance_requests WHERE id = $1`, id)
	return scanMaintenance(row)
}

// Update persists all mutable fields
func (r *PostgresMaintenanceRepository) Update(m *domain.MaintenanceRequest) error {
	query := `
		UPDATE maintenance_requests SET
			house_id = $1, archived_house_number = $2, reported_by = $3,
			archived_reported_by = $4, assigned_to = $5, description = $6,
			category = $7, priority = $8, status = $9, notes = $10,
			estimated_cost = $11, actual_cost = $12, assigned_at = $13,
			completed_at = $14, updated_at = NOW()
		WHERE id = $15
		RETURNING updated_at
	`
	err := r.db.QueryRow(query,
		m.HouseID, m.ArchivedHouseNumber, m.ReportedByID, m.ArchivedReportedBy,
		m.AssignedToID, m.Description, string(m.Category), string(m.Priority),
		string(m.Status), m.Notes, m.EstimatedCost, m.ActualCost,
		m.AssignedAt, m.CompletedAt, m.ID,
	).Scan(&m.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("failed to update maintenance request: %w", err)
	}
	return nil
}

// Delete removes a maintenance request row
func (r *PostgresMaintenanceRepository) Delete(id int64) error {
	res, err := r.db.Exec(`DELETE FROM maintenance_requests WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete maintenance request: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// List returns all requests, newest first
func (r *PostgresMaintenanceRepository) List() ([]*domain.MaintenanceRequest, error) {
	return r.queryRequests(`SELECT ` + maintenanceColumns + ` FROM maintenance_requests ORDER BY created_at DESC`)
}

// ListByReporter returns a reporter's requests, optionally filtered to the
// given statuses
func (r *PostgresMaintenanceRepository) ListByReporter(userID int64, statuses []domain.RequestStatus) ([]*domain.MaintenanceRequest, error) {
	if len(statuses) == 0 {
		return r.queryRequests(`
			SELECT `+maintenanceColumns+`
			FROM maintenance_requests
			WHERE reported_by = $1
			ORDER BY created_at DESC
		`, userID)
	}
	vals := make([]string, len(statuses))
	for i, s := range statuses {
		vals[i] = string(s)
	}
	return r.queryRequests(`
		SELECT `+maintenanceColumns+`
		FROM maintenance_requests
		WHERE reported_by = $1 AND status = ANY($2)
		ORDER BY created_at DESC
	`, userID, pq.Array(vals))
}

// ListByAssignee returns requests assigned to the given technician
func (r *PostgresMaintenanceRepository) ListByAssignee(userID int64) ([]*domain.MaintenanceRequest, error) {
	return r.queryRequests(`
		SELECT `+maintenanceColumns+`
		FROM maintenance_requests
		WHERE assigned_to = $1
		ORDER BY created_at DESC
	`, userID)
}

// CountByStatus returns request counts keyed by status
func (r *PostgresMaintenanceRepository) CountByStatus() (map[domain.RequestStatus]int, error) {
	rows, err := r.db.Query(`SELECT status, COUNT(*) FROM maintenance_requests GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("failed to count maintenance requests: %w", err)
	}
	defer rows.Close()

	out := map[domain.RequestStatus]int{}
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan maintenance count: %w", err)
		}
		out[domain.RequestStatus(status)] = count
	}
	return out, rows.Err()
}

// CountByCategory returns request counts keyed by category
func (r *PostgresMaintenanceRepository) CountByCategory() (map[domain.RequestCategory]int, error) {
	rows, err := r.db.Query(`SELECT category, COUNT(*) FROM maintenance_requests GROUP BY category ORDER BY COUNT(*) DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to count maintenance categories: %w", err)
	}
	defer rows.Close()

	out := map[domain.RequestCategory]int{}
	for rows.Next() {
		var category string
		var count int
		if err := rows.Scan(&category, &count); err != nil {
			return nil, fmt.Errorf("failed to scan category count: %w", err)
		}
		out[domain.RequestCategory(category)] = count
	}
	return out, rows.Err()
}

// SumCompletedCosts totals COALESCE(actual_cost, estimated_cost) of
// completed requests; a non-zero month restricts to completions in that
// calendar month
func (r *PostgresMaintenanceRepository) SumCompletedCosts(month time.Time) (decimal.Decimal, error) {
	var total decimal.Decimal
	var err error
	if month.IsZero() {
		err = r.db.QueryRow(`
			SELECT COALESCE(SUM(COALESCE(actual_cost, estimated_cost, 0)), 0)
			FROM maintenance_requests
			WHERE status = 'completed'
		`).Scan(&total)
	} else {
		start, end := monthBounds(month)
		err = r.db.QueryRow(`
			SELECT COALESCE(SUM(COALESCE(actual_cost, estimated_cost, 0)), 0)
			FROM maintenance_requests
			WHERE status = 'completed' AND completed_at >= $1 AND completed_at < $2
		`, start, end).Scan(&total)
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum maintenance costs: %w", err)
	}
	return total, nil
}

// MonthlyCompletedCosts returns per-month completed maintenance spend
// since the given time, oldest first
func (r *PostgresMaintenanceRepository) MonthlyCompletedCosts(since time.Time) ([]domain.MonthlyTotal, error) {
	rows, err := r.db.Query(`
		SELECT date_trunc('month', completed_at) AS month,
		       SUM(COALESCE(actual_cost, estimated_cost, 0))
		FROM maintenance_requests
		WHERE status = 'completed' AND completed_at >= $1
		GROUP BY month
		ORDER BY month
	`, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query monthly expenses: %w", err)
	}
	defer rows.Close()

	var out []domain.MonthlyTotal
	for rows.Next() {
		var mt domain.MonthlyTotal
		if err := rows.Scan(&mt.Month, &mt.Total); err != nil {
			return nil, fmt.Errorf("failed to scan monthly expense: %w", err)
		}
		out = append(out, mt)
	}
	return out, rows.Err()
}

func (r *PostgresMaintenanceRepository) queryRequests(query string, args ...any) ([]*domain.MaintenanceRequest, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list maintenance requests: %w", err)
	}
	defer rows.Close()

	var out []*domain.MaintenanceRequest
	for rows.Next() {
		m, err := scanMaintenance(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func scanMaintenance(row rowScanner) (*domain.MaintenanceRequest, error) {
	m := &domain.MaintenanceRequest{}
	var (
		houseID, reportedBy, assignedTo sql.NullInt64
		estimated, actual               decimal.NullDecimal
		assignedAt, completedAt         sql.NullTime
	)
	err := row.Scan(
		&m.ID, &m.RequestID, &houseID, &m.ArchivedHouseNumber, &reportedBy,
		&m.ArchivedReportedBy, &assignedTo, &m.Description, &m.Category,
		&m.Priority, &m.Status, &m.Notes, &estimated, &actual,
		&assignedAt, &completedAt, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan maintenance request: %w", err)
	}
	if houseID.Valid {
		m.HouseID = &houseID.Int64
	}
	if reportedBy.Valid {
		m.ReportedByID = &reportedBy.Int64
	}
	if assignedTo.Valid {
		m.AssignedToID = &assignedTo.Int64
	}
	if estimated.Valid {
		m.EstimatedCost = &estimated.Decimal
	}
	if actual.Valid {
		m.ActualCost = &actual.Decimal
	}
	if assignedAt.Valid {
		m.AssignedAt = &assignedAt.Time
	}
	if completedAt.Valid {
		m.CompletedAt = &completedAt.Time
	}
	return m, nil
}
