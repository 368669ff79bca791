package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/yourorg/estateman/internal/domain"
)

// PostgresTenantRepository implements domain.TenantRepository using PostgreSQL
type PostgresTenantRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresTenantRepository creates a new tenant repository
func NewPostgresTenantRepository(db *sql.DB, logger *slog.Logger) *PostgresTenantRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresTenantRepository{db: db, logger: logger}
}

const tenantColumns = `
	id, user_id, house_id, move_in_date, contract_start, contract_end,
	emergency_contact, emergency_phone, status, created_at, updated_at
`

// Create inserts a new tenant profile
func (r *PostgresTenantRepository) Create(t *domain.Tenant) error {
	query := `
		INSERT INTO tenants (user_id, house_id, move_in_date, contract_start, contract_end, emergency_contact, emergency_phone, status)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRow(query,
		t.UserID, t.HouseID, t.MoveInDate, t.ContractStart, t.ContractEnd,
		t.EmergencyContact, t.EmergencyPhone, string(t.Status),
	).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create tenant: %w", err)
	}
	return nil
}

// GetByID retrieves a tenant by ID
func (r *PostgresTenantRepository) GetByID(id int64) (*domain.Tenant, error) {
	row := r.db.QueryRow(`SELECT `+tenantColumns+` FROM tenants WHERE id = $1`, id)
	return scanTenant(row)
}

// GetByUserID retrieves the tenant profile linked to a user account
func (r *PostgresTenantRepository) GetByUserID(userID int64) (*domain.Tenant, error) {
	row := r.db.QueryRow(`SELECT `+tenantColumns+` FROM tenants WHERE user_id = $1`, userID)
	return scanTenant(row)
}

// Update persists all mutable tenant fields
func (r *PostgresTenantRepository) Update(t *domain.Tenant) error {
	query := `
		UPDATE tenants SET
			user_id = $1, house_id = $2, move_in_date = $3, contract_start = $4,
			contract_end = $5, emergency_contact = $6, emergency_phone = $7,
			status = $8, updated_at = NOW()
		WHERE id = $9
		RETURNING updated_at
	`
	err := r.db.QueryRow(query,
		t.UserID, t.HouseID, t.MoveInDate, t.ContractStart, t.ContractEnd,
		t.EmergencyContact, t.EmergencyPhone, string(t.Status), t.ID,
	).Scan(&t.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("failed to update tenant: %w", err)
	}
	return nil
}

// Delete removes a tenant row
func (r *PostgresTenantRepository) Delete(id int64) error {
	res, err := r.db.Exec(`DELETE FROM tenants WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete tenant: %w", err)
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

// List returns all tenants, most recent move-in first
func (r *PostgresTenantRepository) List() ([]*domain.Tenant, error) {
	return r.queryTenants(`SELECT ` + tenantColumns + ` FROM tenants ORDER BY move_in_date DESC`)
}

// ListActiveWithHouse returns active tenants that occupy a house
func (r *PostgresTenantRepository) ListActiveWithHouse() ([]*domain.Tenant, error) {
	return r.queryTenants(`SELECT ` + tenantColumns + ` FROM tenants WHERE status = 'active' AND house_id IS NOT NULL ORDER BY id`)
}

// ListExpiring returns tenants whose contract ends on or before cutoff but
// has not already ended
func (r *PostgresTenantRepository) ListExpiring(cutoff time.Time) ([]*domain.Tenant, error) {
	return r.queryTenants(`
		SELECT `+tenantColumns+`
		FROM tenants
		WHERE contract_end <= $1 AND contract_end >= CURRENT_DATE
		ORDER BY contract_end
	`, cutoff)
}

// HasActiveTenant reports whether any active tenant occupies the house
func (r *PostgresTenantRepository) HasActiveTenant(houseID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRow(
		`SELECT EXISTS (SELECT 1 FROM tenants WHERE house_id = $1 AND status = 'active')`,
		houseID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check active tenant: %w", err)
	}
	return exists, nil
}

func (r *PostgresTenantRepository) queryTenants(query string, args ...any) ([]*domain.Tenant, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list tenants: %w", err)
	}
	defer rows.Close()

	var out []*domain.Tenant
	for rows.Next() {
		t, err := scanTenant(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func scanTenant(row rowScanner) (*domain.Tenant, error) {
	t := &domain.Tenant{}
	var houseID sql.NullInt64
	err := row.Scan(
		&t.ID, &t.UserID, &houseID, &t.MoveInDate, &t.ContractStart,
		&t.ContractEnd, &t.EmergencyContact, &t.EmergencyPhone, &t.Status,
		&t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan tenant: %w", err)
	}
	if houseID.Valid {
		t.HouseID = &houseID.Int64
	}
	return t, nil
}
