package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"roadchal/internal/domain"
)

// RouteFinder describes the route between two places in words.
type RouteFinder interface {
	FindRoute(ctx context.Context, pickup, destination string) (string, error)
}

// RideBooker books a ride for a user.
type RideBooker interface {
	BookRide(ctx context.Context, userID string, ride domain.RideType) (*domain.RideBooking, error)
}

// MockRouteFinder answers every route with a fixed distance and duration.
type MockRouteFinder struct{}

// FindRoute implements RouteFinder.
func (MockRouteFinder) FindRoute(ctx context.Context, pickup, destination string) (string, error) {
	return fmt.Sprintf("Alright we going from %s to %s and the distance is 5km and it will take 15 mins", pickup, destination), nil
}

// MockRideBooker assigns the same driver to every ride.
type MockRideBooker struct {
	Driver string
	ETA    string
}

// NewMockRideBooker creates a MockRideBooker with a five minute ETA.
func NewMockRideBooker(driver string) *MockRideBooker {
	return &MockRideBooker{Driver: driver, ETA: "5 mins"}
}

// BookRide implements RideBooker.
func (b *MockRideBooker) BookRide(ctx context.Context, userID string, ride domain.RideType) (*domain.RideBooking, error) {
	return &domain.RideBooking{
		RideID:  uuid.New().String(),
		Driver:  b.Driver,
		Vehicle: string(ride),
		ETA:     b.ETA,
	}, nil
}
