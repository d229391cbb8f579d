package redis

import (
	"context"
	"time"

	"roadchal/internal/domain"
)

// SessionStoreInterface defines the interface for chat session storage.
type SessionStoreInterface interface {
	Get(ctx context.Context, userID string) (*domain.ChatSession, error)
	Save(ctx context.Context, session *domain.ChatSession) error
	Delete(ctx context.Context, userID string) error
}

// LockStoreInterface defines the interface for distributed locking.
type LockStoreInterface interface {
	AcquireSessionLock(ctx context.Context, userID string, ttl time.Duration) (string, bool, error)
	ReleaseSessionLock(ctx context.Context, userID, token string) error
}

// LocationStoreInterface defines the interface for driver location operations.
type LocationStoreInterface interface {
	UpdateLocation(ctx context.Context, driverID string, lat, lng float64) error
	GetLocation(ctx context.Context, driverID string) (*DriverLocation, error)
	FindNearbyDrivers(ctx context.Context, lat, lng, radiusKm float64) ([]DriverLocation, error)
	RemoveLocation(ctx context.Context, driverID string) error
}

// JourneyStoreInterface defines the interface for live journey state.
type JourneyStoreInterface interface {
	MarkAwaitingDestination(ctx context.Context, username string) error
	IsAwaitingDestination(ctx context.Context, username string) (bool, error)
	ClearAwaitingDestination(ctx context.Context, username string) error
	GetActive(ctx context.Context, username string) (*domain.JourneyContext, error)
	SaveActive(ctx context.Context, journey *domain.JourneyContext) error
	DeleteActive(ctx context.Context, username string) error
}

// IdempotencyStoreInterface defines the interface for replayable responses.
type IdempotencyStoreInterface interface {
	GetResponse(ctx context.Context, key string) (*CachedResponse, error)
	SaveResponse(ctx context.Context, key string, response *CachedResponse) error
}

// Ensure concrete types implement interfaces.
var (
	_ SessionStoreInterface     = (*SessionStore)(nil)
	_ LockStoreInterface        = (*LockStore)(nil)
	_ LocationStoreInterface    = (*LocationStore)(nil)
	_ JourneyStoreInterface     = (*JourneyStore)(nil)
	_ IdempotencyStoreInterface = (*IdempotencyStore)(nil)
)
