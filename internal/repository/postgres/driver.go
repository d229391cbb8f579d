package postgres

import (
	"context"
	"database/sql"
	"errors"

	"roadchal/internal/domain"
	"roadchal/internal/repository"
)

const driverColumns = `id, firstname, lastname, email, password_hash, COALESCE(phone, ''), COALESCE(address, ''),
	COALESCE(vehicle_number, ''), COALESCE(vehicle_type, ''), COALESCE(vehicle_model, ''),
	rating, is_onboarded, status, created_at`

// DriverRepository is a PostgreSQL implementation of repository.DriverRepository.
type DriverRepository struct {
	q Querier
}

// NewDriverRepository creates a new PostgreSQL driver repository.
func NewDriverRepository(db *sql.DB) *DriverRepository {
	return &DriverRepository{q: db}
}

// Create adds a new driver.
func (r *DriverRepository) Create(ctx context.Context, driver *domain.Driver) error {
	query := `
		INSERT INTO drivers (id, firstname, lastname, email, password_hash, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.q.ExecContext(ctx, query,
		driver.ID,
		driver.FirstName,
		driver.LastName,
		driver.Email,
		driver.PasswordHash,
		driver.Status,
		driver.CreatedAt,
	)
	if isUniqueViolation(err) {
		return repository.ErrConflict
	}
	return err
}

// GetByID retrieves a driver by ID.
func (r *DriverRepository) GetByID(ctx context.Context, id string) (*domain.Driver, error) {
	query := `SELECT ` + driverColumns + ` FROM drivers WHERE id = $1`
	return scanDriver(r.q.QueryRowContext(ctx, query, id))
}

// GetByEmail retrieves a driver by email.
func (r *DriverRepository) GetByEmail(ctx context.Context, email string) (*domain.Driver, error) {
	query := `SELECT ` + driverColumns + ` FROM drivers WHERE email = $1`
	return scanDriver(r.q.QueryRowContext(ctx, query, email))
}

// Update updates the profile fields of an existing driver.
func (r *DriverRepository) Update(ctx context.Context, driver *domain.Driver) error {
	query := `
		UPDATE drivers
		SET firstname = $1, lastname = $2, phone = $3, address = $4, vehicle_number = $5,
			vehicle_type = $6, vehicle_model = $7, is_onboarded = $8, status = $9
		WHERE id = $10
	`
	result, err := r.q.ExecContext(ctx, query,
		driver.FirstName,
		driver.LastName,
		nullString(driver.Phone),
		nullString(driver.Address),
		nullString(driver.VehicleNumber),
		nullString(string(driver.VehicleType)),
		nullString(driver.VehicleModel),
		driver.IsOnboarded,
		driver.Status,
		driver.ID,
	)
	if err != nil {
		return err
	}
	return expectAffected(result)
}

// UpdateStatus updates the availability of a driver.
func (r *DriverRepository) UpdateStatus(ctx context.Context, id string, status domain.DriverStatus) error {
	query := `UPDATE drivers SET status = $1 WHERE id = $2`
	result, err := r.q.ExecContext(ctx, query, status, id)
	if err != nil {
		return err
	}
	return expectAffected(result)
}

func scanDriver(row *sql.Row) (*domain.Driver, error) {
	var driver domain.Driver
	err := row.Scan(
		&driver.ID,
		&driver.FirstName,
		&driver.LastName,
		&driver.Email,
		&driver.PasswordHash,
		&driver.Phone,
		&driver.Address,
		&driver.VehicleNumber,
		&driver.VehicleType,
		&driver.VehicleModel,
		&driver.Rating,
		&driver.IsOnboarded,
		&driver.Status,
		&driver.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &driver, nil
}

func expectAffected(result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}
