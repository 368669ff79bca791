package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/yourorg/estateman/internal/domain"
)

// PostgresHouseRepository implements domain.HouseRepository using PostgreSQL
type PostgresHouseRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresHouseRepository creates a new house repository
func NewPostgresHouseRepository(db *sql.DB, logger *slog.Logger) *PostgresHouseRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresHouseRepository{db: db, logger: logger}
}

const houseColumns = `
	id, house_number, house_type, status, location, rent_amount,
	bedrooms, bathrooms, description, created_at, updated_at
`

// Create inserts a new house
func (r *PostgresHouseRepository) Create(h *domain.House) error {
	query := `
		INSERT INTO houses (house_number, house_type, status, location, rent_amount, bedrooms, bathrooms, description)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRow(query,
		h.HouseNumber, string(h.HouseType), string(h.Status), h.Location,
		h.RentAmount, h.Bedrooms, h.Bathrooms, h.Description,
	).Scan(&h.ID, &h.CreatedAt, &h.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create house: %w", err)
	}
	return nil
}

// GetByID retrieves a house by ID
func (r *PostgresHouseRepository) GetByID(id int64) (*domain.House, error) {
	row := r.db.QueryRow(`SELECT `+houseColumns+` FROM houses WHERE id = $1`, id)
	return scanHouse(row)
}

// GetByNumber retrieves a house by its unique house number
func (r *PostgresHouseRepository) GetByNumber(houseNumber string) (*domain.House, error) {
	row := r.db.QueryRow(`SELECT `+houseColumns+` FROM houses WHERE house_number = $1`, houseNumber)
	return scanHouse(row)
}

// Update persists all mutable house fields
func (r *PostgresHouseRepository) Update(h *domain.House) error {
	query := `
		UPDATE houses SET
			house_number = $1, house_type = $2, status = $3, location = $4,
			rent_amount = $5, bedrooms = $6, bathrooms = $7, description = $8,
			updated_at = NOW()
		WHERE id = $9
		RETURNING updated_at
	`
	err := r.db.QueryRow(query,
		h.HouseNumber, string(h.HouseType), string(h.Status), h.Location,
		h.RentAmount, h.Bedrooms, h.Bathrooms, h.Description, h.ID,
	).Scan(&h.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("failed to update house: %w", err)
	}
	return nil
}

// UpdateStatus changes only the occupancy status
func (r *PostgresHouseRepository) UpdateStatus(id int64, status domain.HouseStatus) error {
	res, err := r.db.Exec(`UPDATE houses SET status = $1, updated_at = NOW() WHERE id = $2`, string(status), id)
	if err != nil {
		return fmt.Errorf("failed to update house status: %w", err)
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

// Delete removes a house row
func (r *PostgresHouseRepository) Delete(id int64) error {
	res, err := r.db.Exec(`DELETE FROM houses WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete house: %w", err)
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

// List returns all houses ordered by house number
func (r *PostgresHouseRepository) List() ([]*domain.House, error) {
	return r.queryHouses(`SELECT ` + houseColumns + ` FROM houses ORDER BY house_number`)
}

// ListByStatus returns houses in the given status
func (r *PostgresHouseRepository) ListByStatus(status domain.HouseStatus) ([]*domain.House, error) {
	return r.queryHouses(`SELECT `+houseColumns+` FROM houses WHERE status = $1 ORDER BY house_number`, string(status))
}

// CountByStatus returns house counts keyed by status
func (r *PostgresHouseRepository) CountByStatus() (map[domain.HouseStatus]int, error) {
	rows, err := r.db.Query(`SELECT status, COUNT(*) FROM houses GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("failed to count houses: %w", err)
	}
	defer rows.Close()

	out := map[domain.HouseStatus]int{}
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan house count: %w", err)
		}
		out[domain.HouseStatus(status)] = count
	}
	return out, rows.Err()
}

func (r *PostgresHouseRepository) queryHouses(query string, args ...any) ([]*domain.House, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list houses: %w", err)
	}
	defer rows.Close()

	var out []*domain.House
	for rows.Next() {
		h, err := scanHouse(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

func scanHouse(row rowScanner) (*domain.House, error) {
	h := &domain.House{}
	err := row.Scan(
		&h.ID, &h.HouseNumber, &h.HouseType, &h.Status, &h.Location,
		&h.RentAmount, &h.Bedrooms, &h.Bathrooms, &h.Description,
		&h.CreatedAt, &h.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan house: %w", err)
	}
	return h, nil
}
