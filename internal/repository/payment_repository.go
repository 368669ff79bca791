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

// PostgresPaymentRepository implements domain.PaymentRepository using PostgreSQL
type PostgresPaymentRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresPaymentRepository creates a new payment repository
func NewPostgresPaymentRepository(db *sql.DB, logger *slog.Logger) *PostgresPaymentRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresPaymentRepository{db: db, logger: logger}
}

const paymentColumns = `
	id, tenant_id, amount, payment_date, payment_method, payment_type,
	reference_number, month_for, is_verified, verified_by, verified_at,
	created_at
`

// Create inserts a new payment
func (r *PostgresPaymentRepository) Create(p *domain.Payment) error {
	query := `
		INSERT INTO payments (tenant_id, amount, payment_date, payment_method, payment_type, reference_number, month_for, is_verified)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING id, created_at
	`
	err := r.db.QueryRow(query,
		p.TenantID, p.Amount, p.PaymentDate, string(p.Method),
		string(p.PaymentType), p.ReferenceNumber, p.MonthFor, p.IsVerified,
	).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create payment: %w", err)
	}
	return nil
}

// GetByID retrieves a payment by ID
func (r *PostgresPaymentRepository) GetByID(id int64) (*domain.Payment, error) {
	row := r.db.QueryRow(`SELECT `+paymentColumns+` FROM payments WHERE id = $1`, id)
	return scanPayment(row)
}

// Update persists all mutable payment fields
func (r *PostgresPaymentRepository) Update(p *domain.Payment) error {
	query := `
		UPDATE payments SET
			tenant_id = $1, amount = $2, payment_date = $3, payment_method = $4,
			payment_type = $5, reference_number = $6, month_for = $7,
			is_verified = $8, verified_by = $9, verified_at = $10
		WHERE id = $11
	`
	res, err := r.db.Exec(query,
		p.TenantID, p.Amount, p.PaymentDate, string(p.Method),
		string(p.PaymentType), p.ReferenceNumber, p.MonthFor,
		p.IsVerified, p.VerifiedByID, p.VerifiedAt, p.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update payment: %w", err)
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

// Delete removes a payment row
func (r *PostgresPaymentRepository) Delete(id int64) error {
	res, err := r.db.Exec(`DELETE FROM payments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete payment: %w", err)
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

// List returns all payments, newest first
func (r *PostgresPaymentRepository) List() ([]*domain.Payment, error) {
	return r.queryPayments(`SELECT ` + paymentColumns + ` FROM payments ORDER BY payment_date DESC, id DESC`)
}

// ListByTenant returns a tenant's payments, newest first
func (r *PostgresPaymentRepository) ListByTenant(tenantID int64) ([]*domain.Payment, error) {
	return r.queryPayments(`SELECT `+paymentColumns+` FROM payments WHERE tenant_id = $1 ORDER BY payment_date DESC, id DESC`, tenantID)
}

// SumVerified totals verified payments, optionally restricted to the
// calendar month their month_for covers. Unverified payments never count.
func (r *PostgresPaymentRepository) SumVerified(monthFor time.Time) (decimal.Decimal, error) {
	var total decimal.Decimal
	var err error
	if monthFor.IsZero() {
		err = r.db.QueryRow(
			`SELECT COALESCE(SUM(amount), 0) FROM payments WHERE is_verified = TRUE`,
		).Scan(&total)
	} else {
		start, end := monthBounds(monthFor)
		err = r.db.QueryRow(`
			SELECT COALESCE(SUM(amount), 0)
			FROM payments
			WHERE is_verified = TRUE AND month_for >= $1 AND month_for < $2
		`, start, end).Scan(&total)
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum verified payments: %w", err)
	}
	return total, nil
}

// SumVerifiedForTenantMonth totals a tenant's verified payments covering
// the given month
func (r *PostgresPaymentRepository) SumVerifiedForTenantMonth(tenantID int64, monthFor time.Time) (decimal.Decimal, error) {
	start, end := monthBounds(monthFor)
	var total decimal.Decimal
	err := r.db.QueryRow(`
		SELECT COALESCE(SUM(amount), 0)
		FROM payments
		WHERE tenant_id = $1 AND is_verified = TRUE
		  AND month_for >= $2 AND month_for < $3
	`, tenantID, start, end).Scan(&total)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum tenant payments: %w", err)
	}
	return total, nil
}

// MonthlyVerifiedTotals returns verified income bucketed by the month a
// payment covers, oldest first
func (r *PostgresPaymentRepository) MonthlyVerifiedTotals(since time.Time) ([]domain.MonthlyTotal, error) {
	rows, err := r.db.Query(`
		SELECT date_trunc('month', month_for) AS month, SUM(amount)
		FROM payments
		WHERE is_verified = TRUE AND month_for >= $1
		GROUP BY month
		ORDER BY month
	`, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query monthly income: %w", err)
	}
	defer rows.Close()

	var out []domain.MonthlyTotal
	for rows.Next() {
		var mt domain.MonthlyTotal
		if err := rows.Scan(&mt.Month, &mt.Total); err != nil {
			return nil, fmt.Errorf("failed to scan monthly income: %w", err)
		}
		out = append(out, mt)
	}
	return out, rows.Err()
}

func (r *PostgresPaymentRepository) queryPayments(query string, args ...any) ([]*domain.Payment, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	defer rows.Close()

	var out []*domain.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func scanPayment(row rowScanner) (*domain.Payment, error) {
	p := &domain.Payment{}
	var verifiedBy sql.NullInt64
	var verifiedAt sql.NullTime
	err := row.Scan(
		&p.ID, &p.TenantID, &p.Amount, &p.PaymentDate, &p.Method,
		&p.PaymentType, &p.ReferenceNumber, &p.MonthFor, &p.IsVerified,
		&verifiedBy, &verifiedAt, &p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan payment: %w", err)
	}
	if verifiedBy.Valid {
		p.VerifiedByID = &verifiedBy.Int64
	}
	if verifiedAt.Valid {
		p.VerifiedAt = &verifiedAt.Time
	}
	return p, nil
}
