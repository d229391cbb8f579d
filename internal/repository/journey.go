package repository

import (
	"context"

	"roadchal/internal/domain"
)

// JourneyRepository defines the persistence operations for journeys.
type JourneyRepository interface {
	// Upsert inserts a journey or updates its coordinates and state.
	Upsert(ctx context.Context, journey *domain.Journey) error

	// UpdateState records a state change of an existing journey.
	UpdateState(ctx context.Context, id string, state domain.JourneyState) error

	// GetByID retrieves a journey by ID.
	GetByID(ctx context.Context, id string) (*domain.Journey, error)
}
