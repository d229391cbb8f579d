package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the lock only if it is still held by the caller.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// LockStore handles distributed locking in Redis.
type LockStore struct {
	client *redis.Client
}

// NewLockStore creates a new LockStore.
func NewLockStore(client *redis.Client) *LockStore {
	return &LockStore{client: client}
}

// AcquireSessionLock attempts to acquire the conversation lock of a user.
// Returns the owner token and true if the lock was acquired, false if already held.
func (s *LockStore) AcquireSessionLock(ctx context.Context, userID string, ttl time.Duration) (string, bool, error) {
	key := fmt.Sprintf("lock:session:%s", userID)
	token := uuid.New().String()

	ok, err := s.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return "", false, err
	}

	return token, ok, nil
}

// ReleaseSessionLock releases the conversation lock of a user if token still owns it.
func (s *LockStore) ReleaseSessionLock(ctx context.Context, userID, token string) error {
	key := fmt.Sprintf("lock:session:%s", userID)

	return releaseScript.Run(ctx, s.client, []string{key}, token).Err()
}
