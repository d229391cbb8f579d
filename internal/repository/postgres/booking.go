package postgres

import (
	"context"
	"database/sql"
	"errors"

	"roadchal/internal/domain"
	"roadchal/internal/repository"
)

const bookingColumns = `id, order_number, user_id, driver_id, pickup_location, drop_location,
	pickup_date, pickup_time, status, created_at`

// BookingRepository is a PostgreSQL implementation of repository.BookingRepository.
type BookingRepository struct {
	q Querier
}

// NewBookingRepository creates a new PostgreSQL booking repository.
func NewBookingRepository(db *sql.DB) *BookingRepository {
	return &BookingRepository{q: db}
}

// Create persists a new booking.
func (r *BookingRepository) Create(ctx context.Context, booking *domain.Booking) error {
	query := `
		INSERT INTO bookings (id, order_number, user_id, driver_id, pickup_location, drop_location, pickup_date, pickup_time, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := r.q.ExecContext(ctx, query,
		booking.ID,
		booking.OrderNumber,
		booking.UserID,
		nullString(booking.DriverID),
		[]byte(booking.PickupLocation),
		[]byte(booking.DropLocation),
		booking.PickupDate,
		booking.PickupTime,
		booking.Status,
		booking.CreatedAt,
	)
	if isUniqueViolation(err) {
		return repository.ErrConflict
	}
	return err
}

// GetByID retrieves a booking by ID.
func (r *BookingRepository) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`
	booking, err := scanBooking(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return booking, nil
}

// ListByStatus retrieves all bookings with the given status, oldest first.
func (r *BookingRepository) ListByStatus(ctx context.Context, status domain.BookingStatus) ([]*domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE status = $1 ORDER BY created_at ASC`
	return r.list(ctx, query, status)
}

// ListByUser retrieves the newest bookings of a user by pickup date.
func (r *BookingRepository) ListByUser(ctx context.Context, userID string, limit int) ([]*domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE user_id = $1 ORDER BY pickup_date DESC LIMIT $2`
	return r.list(ctx, query, userID, limit)
}

// ListByDriver retrieves the newest bookings of a driver by pickup date.
func (r *BookingRepository) ListByDriver(ctx context.Context, driverID string, limit int) ([]*domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE driver_id = $1 ORDER BY pickup_date DESC LIMIT $2`
	return r.list(ctx, query, driverID, limit)
}

// Assign sets the driver and moves a pending booking to accepted.
// The status check is part of the UPDATE so concurrent accepts cannot both win.
func (r *BookingRepository) Assign(ctx context.Context, id, driverID string) (*domain.Booking, error) {
	query := `
		UPDATE bookings SET driver_id = $1, status = $2
		WHERE id = $3 AND status = $4
		RETURNING ` + bookingColumns

	booking, err := scanBooking(r.q.QueryRowContext(ctx, query,
		driverID, domain.BookingStatusAccepted, id, domain.BookingStatusPending))
	if err == nil {
		return booking, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	// Nothing updated: either the booking is missing or it is no longer pending.
	if _, getErr := r.GetByID(ctx, id); getErr != nil {
		return nil, getErr
	}
	return nil, repository.ErrConflict
}

// UpdateStatus updates the status of a booking.
func (r *BookingRepository) UpdateStatus(ctx context.Context, id string, status domain.BookingStatus) error {
	query := `UPDATE bookings SET status = $1 WHERE id = $2`
	result, err := r.q.ExecContext(ctx, query, status, id)
	if err != nil {
		return err
	}
	return expectAffected(result)
}

func (r *BookingRepository) list(ctx context.Context, query string, args ...any) ([]*domain.Booking, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bookings []*domain.Booking
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, booking)
	}
	return bookings, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBooking(row rowScanner) (*domain.Booking, error) {
	var booking domain.Booking
	var driverID sql.NullString
	var pickup, drop []byte

	err := row.Scan(
		&booking.ID,
		&booking.OrderNumber,
		&booking.UserID,
		&driverID,
		&pickup,
		&drop,
		&booking.PickupDate,
		&booking.PickupTime,
		&booking.Status,
		&booking.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if driverID.Valid {
		booking.DriverID = driverID.String
	}
	booking.PickupLocation = pickup
	booking.DropLocation = drop

	return &booking, nil
}
