package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"roadchal/internal/domain"
)

const (
	awaitingDestinationKey = "journey:awaiting"
	activeJourneyPrefix    = "journey:active:"

	// activeJourneyTTL bounds how long an abandoned journey is remembered.
	activeJourneyTTL = 12 * time.Hour
)

// JourneyStore keeps the live state of journeys in Redis.
type JourneyStore struct {
	client *redis.Client
}

// NewJourneyStore creates a new JourneyStore.
func NewJourneyStore(client *redis.Client) *JourneyStore {
	return &JourneyStore{client: client}
}

// MarkAwaitingDestination records that the user was asked for a destination.
func (s *JourneyStore) MarkAwaitingDestination(ctx context.Context, username string) error {
	return s.client.SAdd(ctx, awaitingDestinationKey, username).Err()
}

// IsAwaitingDestination reports whether the user was asked for a destination.
func (s *JourneyStore) IsAwaitingDestination(ctx context.Context, username string) (bool, error) {
	return s.client.SIsMember(ctx, awaitingDestinationKey, username).Result()
}

// ClearAwaitingDestination forgets that the user was asked for a destination.
func (s *JourneyStore) ClearAwaitingDestination(ctx context.Context, username string) error {
	return s.client.SRem(ctx, awaitingDestinationKey, username).Err()
}

// GetActive returns the active journey of a user, or nil if there is none.
func (s *JourneyStore) GetActive(ctx context.Context, username string) (*domain.JourneyContext, error) {
	data, err := s.client.Get(ctx, activeJourneyPrefix+username).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var journey domain.JourneyContext
	if err := json.Unmarshal(data, &journey); err != nil {
		return nil, err
	}
	return &journey, nil
}

// SaveActive stores the active journey of its user.
func (s *JourneyStore) SaveActive(ctx context.Context, journey *domain.JourneyContext) error {
	data, err := json.Marshal(journey)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, activeJourneyPrefix+journey.Username, data, activeJourneyTTL).Err()
}

// DeleteActive removes the active journey of a user.
func (s *JourneyStore) DeleteActive(ctx context.Context, username string) error {
	return s.client.Del(ctx, activeJourneyPrefix+username).Err()
}
