package redis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"roadchal/internal/domain"
)

// CacheStore handles short-lived caching in Redis.
type CacheStore struct {
	client *redis.Client
}

// NewCacheStore creates a new CacheStore.
func NewCacheStore(client *redis.Client) *CacheStore {
	return &CacheStore{client: client}
}

// Cache TTL constants
const (
	QuoteCacheTTL = 60 * time.Second // Quotes are stable for a minute
	UserCacheTTL  = 60 * time.Second // Re-verify bearer tokens every minute
)

// Key prefixes
const (
	quoteCachePrefix = "cache:quote:"
	userCachePrefix  = "cache:user:"
)

// CachedUser is a verified bearer token owner.
type CachedUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// GetQuotes returns cached estimates for a route, or nil on a cache miss.
func (s *CacheStore) GetQuotes(ctx context.Context, source, destination string) ([]domain.RideEstimate, error) {
	var quotes []domain.RideEstimate
	found, err := s.getJSON(ctx, quoteCachePrefix+routeKey(source, destination), &quotes)
	if err != nil || !found {
		return nil, err
	}
	return quotes, nil
}

// SetQuotes caches estimates for a route.
func (s *CacheStore) SetQuotes(ctx context.Context, source, destination string, quotes []domain.RideEstimate) error {
	return s.setJSON(ctx, quoteCachePrefix+routeKey(source, destination), quotes, QuoteCacheTTL)
}

// GetUser returns the cached owner of an access token, or nil on a cache miss.
func (s *CacheStore) GetUser(ctx context.Context, accessToken string) (*CachedUser, error) {
	var user CachedUser
	found, err := s.getJSON(ctx, userCachePrefix+tokenKey(accessToken), &user)
	if err != nil || !found {
		return nil, err
	}
	return &user, nil
}

// SetUser caches the owner of an access token.
func (s *CacheStore) SetUser(ctx context.Context, accessToken string, user *CachedUser) error {
	return s.setJSON(ctx, userCachePrefix+tokenKey(accessToken), user, UserCacheTTL)
}

func (s *CacheStore) getJSON(ctx context.Context, key string, v any) (bool, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil // Cache miss
		}
		return false, err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, err
	}
	return true, nil
}

func (s *CacheStore) setJSON(ctx context.Context, key string, v any, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, key, data, ttl).Err()
}

// routeKey normalizes a route so that case and surrounding spaces do not matter.
func routeKey(source, destination string) string {
	return strings.ToLower(strings.TrimSpace(source)) + "|" + strings.ToLower(strings.TrimSpace(destination))
}

// tokenKey hashes an access token so raw tokens never become Redis keys.
func tokenKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
