package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"roadchal/internal/domain"
	"roadchal/internal/repository"
)

// historyLimit caps the size of booking histories.
const historyLimit = 20

// BookingService handles ride requests between users and drivers.
type BookingService struct {
	repo   repository.BookingRepository
	logger *zap.Logger
	now    func() time.Time

	publisher EventPublisher
	finder    NearbyDriverFinder
	profiles  DriverProfiles
}

// NewBookingService creates a new BookingService.
func NewBookingService(repo repository.BookingRepository, logger *zap.Logger) *BookingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BookingService{repo: repo, logger: logger, now: time.Now}
}

// RequestRideInput contains the parameters of a ride request.
type RequestRideInput struct {
	UserID         string
	PickupLocation json.RawMessage
	DropLocation   json.RawMessage
	PickupDate     *time.Time
	PickupTime     *time.Time
}

// RequestRide creates a pending booking.
func (s *BookingService) RequestRide(ctx context.Context, in RequestRideInput) (*domain.Booking, error) {
	if in.UserID == "" {
		return nil, ErrInvalidUserID
	}
	if isEmptyJSON(in.PickupLocation) || isEmptyJSON(in.DropLocation) {
		return nil, ErrMissingLocations
	}

	now := s.now()
	booking := &domain.Booking{
		ID:             uuid.New().String(),
		OrderNumber:    fmt.Sprintf("ORD-%d-%d", now.UnixMilli(), rand.Intn(1000)),
		UserID:         in.UserID,
		PickupLocation: in.PickupLocation,
		DropLocation:   in.DropLocation,
		PickupDate:     now,
		PickupTime:     now,
		Status:         domain.BookingStatusPending,
		CreatedAt:      now,
	}
	if in.PickupDate != nil {
		booking.PickupDate = *in.PickupDate
	}
	if in.PickupTime != nil {
		booking.PickupTime = *in.PickupTime
	}

	if err := s.repo.Create(ctx, booking); err != nil {
		return nil, fmt.Errorf("create booking: %w", err)
	}

	s.logger.Info("ride requested",
		zap.String("booking_id", booking.ID),
		zap.String("order_number", booking.OrderNumber),
	)
	s.dispatchRequest(ctx, booking)
	return booking, nil
}

// Pending returns all bookings waiting for a driver.
func (s *BookingService) Pending(ctx context.Context) ([]*domain.Booking, error) {
	return s.repo.ListByStatus(ctx, domain.BookingStatusPending)
}

// UserHistory returns the newest bookings of a user.
func (s *BookingService) UserHistory(ctx context.Context, userID string) ([]*domain.Booking, error) {
	if userID == "" {
		return nil, ErrInvalidUserID
	}
	return s.repo.ListByUser(ctx, userID, historyLimit)
}

// DriverHistory returns the newest bookings served by a driver.
func (s *BookingService) DriverHistory(ctx context.Context, driverID string) ([]*domain.Booking, error) {
	return s.repo.ListByDriver(ctx, driverID, historyLimit)
}

// Accept assigns a pending booking to a driver. Only one driver can win.
func (s *BookingService) Accept(ctx context.Context, bookingID, driverID string) (*domain.Booking, error) {
	booking, err := s.get(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.Status != domain.BookingStatusPending {
		return nil, ErrRideUnavailable
	}

	booking, err = s.repo.Assign(ctx, bookingID, driverID)
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrRideUnavailable
		}
		return nil, fmt.Errorf("assign booking: %w", err)
	}

	s.logger.Info("ride accepted", zap.String("booking_id", bookingID), zap.String("driver_id", driverID))
	s.dispatchAccepted(ctx, booking)
	return booking, nil
}

// UpdateStatus moves a booking served by driverID to a new status.
func (s *BookingService) UpdateStatus(ctx context.Context, bookingID, driverID string, status domain.BookingStatus) (*domain.Booking, error) {
	switch status {
	case domain.BookingStatusAccepted, domain.BookingStatusInProgress,
		domain.BookingStatusCompleted, domain.BookingStatusCancelled:
	default:
		return nil, ErrInvalidBookingStatus
	}

	booking, err := s.get(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.DriverID != driverID {
		return nil, ErrNotBookingDriver
	}

	if err := s.repo.UpdateStatus(ctx, bookingID, status); err != nil {
		return nil, fmt.Errorf("update booking status: %w", err)
	}
	booking.Status = status
	s.dispatchStatus(booking)
	return booking, nil
}

func (s *BookingService) get(ctx context.Context, bookingID string) (*domain.Booking, error) {
	booking, err := s.repo.GetByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	return booking, nil
}

func isEmptyJSON(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 ||
		bytes.Equal(trimmed, []byte("null")) ||
		bytes.Equal(trimmed, []byte(`""`))
}
