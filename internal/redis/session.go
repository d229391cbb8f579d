package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"roadchal/internal/domain"
)

const sessionPrefix = "session:"

// DefaultSessionTTL is how long an untouched conversation is kept.
const DefaultSessionTTL = 24 * time.Hour

// SessionStore keeps chat sessions in Redis with a sliding TTL.
type SessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSessionStore creates a new SessionStore.
func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &SessionStore{client: client, ttl: ttl}
}

// Get returns the session of a user, or nil when none exists.
func (s *SessionStore) Get(ctx context.Context, userID string) (*domain.ChatSession, error) {
	data, err := s.client.Get(ctx, sessionPrefix+userID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var session domain.ChatSession
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// Save stores the session and refreshes its TTL.
func (s *SessionStore) Save(ctx context.Context, session *domain.ChatSession) error {
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, sessionPrefix+session.UserID, data, s.ttl).Err()
}

// Delete removes the session of a user.
func (s *SessionStore) Delete(ctx context.Context, userID string) error {
	return s.client.Del(ctx, sessionPrefix+userID).Err()
}
