package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"github.com/yourorg/estateman/internal/domain"
)

// PostgresBillRepository implements domain.BillRepository using PostgreSQL
type PostgresBillRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresBillRepository creates a new bill repository
func NewPostgresBillRepository(db *sql.DB, logger *slog.Logger) *PostgresBillRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresBillRepository{db: db, logger: logger}
}

const billColumns = `
	id, tenant_id, bill_type, amount, bill_date, month_for, is_paid,
	notes, created_at, updated_at
`

// Create inserts a new bill
func (r *PostgresBillRepository) Create(b *domain.Bill) error {
	query := `
		INSERT INTO bills (tenant_id, bill_type, amount, bill_date, month_for, is_paid, notes)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRow(query,
		b.TenantID, string(b.BillType), b.Amount, b.BillDate, b.MonthFor, b.IsPaid, b.Notes,
	).Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create bill: %w", err)
	}
	return nil
}

// GetByID retrieves a bill by ID
func (r *PostgresBillRepository) GetByID(id int64) (*domain.Bill, error) {
	row := r.db.QueryRow(`SELECT `+billColumns+` FROM bills WHERE id = $1`, id)
	return scanBill(row)
}

// Update persists all mutable bill fields
func (r *PostgresBillRepository) Update(b *domain.Bill) error {
	query := `
		UPDATE bills SET
			tenant_id = $1, bill_type = $2, amount = $3, bill_date = $4,
			month_for = $5, is_paid = $6, notes = $7, updated_at = NOW()
		WHERE id = $8
		RETURNING updated_at
	`
	err := r.db.QueryRow(query,
		b.TenantID, string(b.BillType), b.Amount, b.BillDate, b.MonthFor,
		b.IsPaid, b.Notes, b.ID,
	).Scan(&b.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("failed to update bill: %w", err)
	}
	return nil
}

// Delete removes a bill row
func (r *PostgresBillRepository) Delete(id int64) error {
	res, err := r.db.Exec(`DELETE FROM bills WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete bill: %w", err)
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

// List returns all bills, newest first
func (r *PostgresBillRepository) List() ([]*domain.Bill, error) {
	return r.queryBills(`SELECT ` + billColumns + ` FROM bills ORDER BY bill_date DESC, id DESC`)
}

// ListByTenant returns a tenant's bills, newest first
func (r *PostgresBillRepository) ListByTenant(tenantID int64) ([]*domain.Bill, error) {
	return r.queryBills(`SELECT `+billColumns+` FROM bills WHERE tenant_id = $1 ORDER BY bill_date DESC, id DESC`, tenantID)
}

// ListUnpaidForMonth returns unpaid bills of the given type in the same
// calendar month as monthFor, ordered ascending by created_at then id.
// Settlement depends on this ordering being deterministic.
func (r *PostgresBillRepository) ListUnpaidForMonth(tenantID int64, billType domain.ChargeType, monthFor time.Time) ([]*domain.Bill, error) {
	start, end := monthBounds(monthFor)
	return r.queryBills(`
		SELECT `+billColumns+`
		FROM bills
		WHERE tenant_id = $1 AND bill_type = $2 AND is_paid = FALSE
		  AND month_for >= $3 AND month_for < $4
		ORDER BY created_at, id
	`, tenantID, string(billType), start, end)
}

// SumForMonth totals all bills due in the month, paid or not.
func (r *PostgresBillRepository) SumForMonth(tenantID int64, monthFor time.Time) (decimal.Decimal, error) {
	start, end := monthBounds(monthFor)
	var total decimal.Decimal
	err := r.db.QueryRow(`
		SELECT COALESCE(SUM(amount), 0)
		FROM bills
		WHERE tenant_id = $1
		  AND month_for >= $2 AND month_for < $3
	`, tenantID, start, end).Scan(&total)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum bills: %w", err)
	}
	return total, nil
}

// SumUnpaidForMonth totals the tenant's unpaid bills for the month
func (r *PostgresBillRepository) SumUnpaidForMonth(tenantID int64, monthFor time.Time) (decimal.Decimal, error) {
	start, end := monthBounds(monthFor)
	var total decimal.Decimal
	err := r.db.QueryRow(`
		SELECT COALESCE(SUM(amount), 0)
		FROM bills
		WHERE tenant_id = $1 AND is_paid = FALSE
		  AND month_for >= $2 AND month_for < $3
	`, tenantID, start, end).Scan(&total)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum unpaid bills: %w", err)
	}
	return total, nil
}

func (r *PostgresBillRepository) queryBills(query string, args ...any) ([]*domain.Bill, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list bills: %w", err)
	}
	defer rows.Close()

	var out []*domain.Bill
	for rows.Next() {
		b, err := scanBill(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func scanBill(row rowScanner) (*domain.Bill, error) {
	b := &domain.Bill{}
	err := row.Scan(
		&b.ID, &b.TenantID, &b.BillType, &b.Amount, &b.BillDate,
		&b.MonthFor, &b.IsPaid, &b.Notes, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan bill: %w", err)
	}
	return b, nil
}
