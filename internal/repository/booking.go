package repository

import (
	"context"

	"roadchal/internal/domain"
)

// BookingRepository defines the persistence operations for bookings.
type BookingRepository interface {
	// Create persists a new booking.
	Create(ctx context.Context, booking *domain.Booking) error

	// GetByID retrieves a booking by ID.
	GetByID(ctx context.Context, id string) (*domain.Booking, error)

	// ListByStatus retrieves all bookings with the given status, oldest first.
	ListByStatus(ctx context.Context, status domain.BookingStatus) ([]*domain.Booking, error)

	// ListByUser retrieves the newest bookings of a user by pickup date.
	ListByUser(ctx context.Context, userID string, limit int) ([]*domain.Booking, error)

	// ListByDriver retrieves the newest bookings of a driver by pickup date.
	ListByDriver(ctx context.Context, driverID string, limit int) ([]*domain.Booking, error)

	// Assign sets the driver and moves a pending booking to accepted.
	// Returns ErrConflict if the booking is no longer pending.
	Assign(ctx context.Context, id, driverID string) (*domain.Booking, error)

	// UpdateStatus updates the status of a booking.
	UpdateStatus(ctx context.Context, id string, status domain.BookingStatus) error
}
