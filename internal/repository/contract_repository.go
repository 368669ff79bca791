package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/yourorg/estateman/internal/domain"
)

// PostgresContractRepository implements domain.ContractRepository using PostgreSQL
type PostgresContractRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresContractRepository creates a new contract repository
func NewPostgresContractRepository(db *sql.DB, logger *slog.Logger) *PostgresContractRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresContractRepository{db: db, logger: logger}
}

const contractColumns = `
	id, tenant_id, tenant_name, house_id, house_number, start_date,
	end_date, monthly_rent, deposit_paid, created_at
`

// Create inserts a new contract. The tenant and house name snapshots are
// populated by the caller at write time.
func (r *PostgresContractRepository) Create(c *domain.Contract) error {
	query := `
		INSERT INTO contracts (tenant_id, tenant_name, house_id, house_number, start_date, end_date, monthly_rent, deposit_paid)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING id, created_at
	`
	err := r.db.QueryRow(query,
		c.TenantID, c.TenantName, c.HouseID, c.HouseNumber,
		c.StartDate, c.EndDate, c.MonthlyRent, c.DepositPaid,
	).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create contract: %w", err)
	}
	return nil
}

// GetByID retrieves a contract by ID
func (r *PostgresContractRepository) GetByID(id int64) (*domain.Contract, error) {
	row := r.db.QueryRow(`SELECT `+contractColumns+` FROM contracts WHERE id = $1`, id)
	return scanContract(row)
}

// Update persists all mutable contract fields
func (r *PostgresContractRepository) Update(c *domain.Contract) error {
	query := `
		UPDATE contracts SET
			tenant_id = $1, tenant_name = $2, house_id = $3, house_number = $4,
			start_date = $5, end_date = $6, monthly_rent = $7, deposit_paid = $8
		WHERE id = $9
	`
	res, err := r.db.Exec(query,
		c.TenantID, c.TenantName, c.HouseID, c.HouseNumber,
		c.StartDate, c.EndDate, c.MonthlyRent, c.DepositPaid, c.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update contract: %w", err)
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

// Delete removes a contract row
func (r *PostgresContractRepository) Delete(id int64) error {
	res, err := r.db.Exec(`DELETE FROM contracts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete contract: %w", err)
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

// List returns all contracts, most recent start date first
func (r *PostgresContractRepository) List() ([]*domain.Contract, error) {
	return r.queryContracts(`SELECT ` + contractColumns + ` FROM contracts ORDER BY start_date DESC`)
}

// ListByTenant returns a tenant's contracts, most recent first
func (r *PostgresContractRepository) ListByTenant(tenantID int64) ([]*domain.Contract, error) {
	return r.queryContracts(`SELECT `+contractColumns+` FROM contracts WHERE tenant_id = $1 ORDER BY start_date DESC`, tenantID)
}

func (r *PostgresContractRepository) queryContracts(query string, args ...any) ([]*domain.Contract, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list contracts: %w", err)
	}
	defer rows.Close()

	var out []*domain.Contract
	for rows.Next() {
		c, err := scanContract(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func scanContract(row rowScanner) (*domain.Contract, error) {
	c := &domain.Contract{}
	var tenantID, houseID sql.NullInt64
	err := row.Scan(
		&c.ID, &tenantID, &c.TenantName, &houseID, &c.HouseNumber,
		&c.StartDate, &c.EndDate, &c.MonthlyRent, &c.DepositPaid, &c.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan contract: %w", err)
	}
	if tenantID.Valid {
		c.TenantID = &tenantID.Int64
	}
	if houseID.Valid {
		c.HouseID = &houseID.Int64
	}
	return c, nil
}
