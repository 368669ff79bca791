package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/yourorg/estateman/internal/domain"
)

// PostgresUserRepository implements domain.UserRepository using PostgreSQL
type PostgresUserRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresUserRepository creates a new user repository
func NewPostgresUserRepository(db *sql.DB, logger *slog.Logger) *PostgresUserRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresUserRepository{db: db, logger: logger}
}

const userColumns = `
	id, username, email, first_name, last_name, phone, id_number, role,
	specialization, password_hash, profile_completed, approval_status,
	email_verified, verify_code, verify_code_expiry, is_active,
	approved_by, approved_at, rejection_reason, house_number,
	created_at, updated_at
`

// Create inserts a new user
func (r *PostgresUserRepository) Create(u *domain.User) error {
	query := `
		INSERT INTO users (
			username, email, first_name, last_name, phone, id_number, role,
			specialization, password_hash, profile_completed, approval_status,
			email_verified, verify_code, verify_code_expiry, is_active,
			rejection_reason, house_number
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRow(query,
		u.Username, u.Email, u.FirstName, u.LastName, u.Phone,
		nullString(u.IDNumber), string(u.Role), nullString(string(u.Specialization)),
		u.PasswordHash, u.ProfileCompleted, string(u.ApprovalStatus),
		u.EmailVerified, nullString(u.VerifyCode), nullTime(u.VerifyCodeExpiry),
		u.IsActive, u.RejectionReason, u.HouseNumber,
	).Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetByID retrieves a user by ID
func (r *PostgresUserRepository) GetByID(id int64) (*domain.User, error) {
	row := r.db.QueryRow(`SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

// GetByEmail retrieves a user by email
func (r *PostgresUserRepository) GetByEmail(email string) (*domain.User, error) {
	row := r.db.QueryRow(`SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	return scanUser(row)
}

// GetByUsername retrieves a user by username
func (r *PostgresUserRepository) GetByUsername(username string) (*domain.User, error) {
	row := r.db.QueryRow(`SELECT `+userColumns+` FROM users WHERE username = $1`, username)
	return scanUser(row)
}

// Update persists all mutable user fields
func (r *PostgresUserRepository) Update(u *domain.User) error {
	query := `
		UPDATE users SET
			username = $1, email = $2, first_name = $3, last_name = $4,
			phone = $5, id_number = $6, role = $7, specialization = $8,
			password_hash = $9, profile_completed = $10, approval_status = $11,
			email_verified = $12, verify_code = $13, verify_code_expiry = $14,
			is_active = $15, approved_by = $16, approved_at = $17,
			rejection_reason = $18, house_number = $19, updated_at = NOW()
		WHERE id = $20
		RETURNING updated_at
	`
	err := r.db.QueryRow(query,
		u.Username, u.Email, u.FirstName, u.LastName, u.Phone,
		nullString(u.IDNumber), string(u.Role), nullString(string(u.Specialization)),
		u.PasswordHash, u.ProfileCompleted, string(u.ApprovalStatus),
		u.EmailVerified, nullString(u.VerifyCode), nullTime(u.VerifyCodeExpiry),
		u.IsActive, u.ApprovedByID, u.ApprovedAt, u.RejectionReason,
		u.HouseNumber, u.ID,
	).Scan(&u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("failed to update user: %w", err)
	}
	return nil
}

// Delete removes a user row
func (r *PostgresUserRepository) Delete(id int64) error {
	res, err := r.db.Exec(`DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
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

// List returns all users, newest first
func (r *PostgresUserRepository) List() ([]*domain.User, error) {
	return r.queryUsers(`SELECT ` + userColumns + ` FROM users ORDER BY created_at DESC`)
}

// ListByRole returns users with the given role
func (r *PostgresUserRepository) ListByRole(role domain.Role) ([]*domain.User, error) {
	return r.queryUsers(`SELECT `+userColumns+` FROM users WHERE role = $1 ORDER BY created_at DESC`, string(role))
}

// ListPendingApproval returns self-registered users awaiting an admin decision
func (r *PostgresUserRepository) ListPendingApproval() ([]*domain.User, error) {
	return r.queryUsers(`SELECT ` + userColumns + ` FROM users WHERE approval_status = 'pending' ORDER BY created_at ASC`)
}

func (r *PostgresUserRepository) queryUsers(query string, args ...any) ([]*domain.User, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var out []*domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*domain.User, error) {
	u := &domain.User{}
	var (
		idNumber, specialization, verifyCode sql.NullString
		verifyExpiry, approvedAt             sql.NullTime
		approvedBy                           sql.NullInt64
		rejectionReason, houseNumber         sql.NullString
	)
	err := row.Scan(
		&u.ID, &u.Username, &u.Email, &u.FirstName, &u.LastName, &u.Phone,
		&idNumber, &u.Role, &specialization, &u.PasswordHash,
		&u.ProfileCompleted, &u.ApprovalStatus, &u.EmailVerified,
		&verifyCode, &verifyExpiry, &u.IsActive,
		&approvedBy, &approvedAt, &rejectionReason, &houseNumber,
		&u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}
	u.IDNumber = idNumber.String
	u.Specialization = domain.Specialization(specialization.String)
	u.VerifyCode = verifyCode.String
	if verifyExpiry.Valid {
		u.VerifyCodeExpiry = verifyExpiry.Time
	}
	if approvedBy.Valid {
		u.ApprovedByID = &approvedBy.Int64
	}
	if approvedAt.Valid {
		u.ApprovedAt = &approvedAt.Time
	}
	u.RejectionReason = rejectionReason.String
	u.HouseNumber = houseNumber.String
	return u, nil
}
