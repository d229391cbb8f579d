package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roadchal/internal/domain"
	"roadchal/internal/redis"
	"roadchal/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type memoryIdempotencyStore struct {
	mu        sync.Mutex
	responses map[string]*redis.CachedResponse
	getErr    error
}

func newMemoryIdempotencyStore() *memoryIdempotencyStore {
	return &memoryIdempotencyStore{responses: make(map[string]*redis.CachedResponse)}
}

func (s *memoryIdempotencyStore) GetResponse(ctx context.Context, key string) (*redis.CachedResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return nil, s.getErr
	}
	return s.responses[key], nil
}

func (s *memoryIdempotencyStore) SaveResponse(ctx context.Context, key string, response *redis.CachedResponse) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.responses[key] = response
	return nil
}

// asUser stands in for RequireUser, taking the caller from X-User.
func asUser(c *gin.Context) {
	if id := c.GetHeader("X-User"); id != "" {
		c.Set(userKey, &domain.User{ID: id})
	}
	c.Next()
}

func countingRouter(store redis.IdempotencyStoreInterface, calls *int, status int) *gin.Engine {
	r := gin.New()
	handler := func(c *gin.Context) {
		*calls++
		c.JSON(status, gin.H{"call": *calls})
	}
	r.POST("/bookings", asUser, Idempotency(store, nil), handler)
	r.GET("/bookings", asUser, Idempotency(store, nil), handler)
	return r
}

func send(r http.Handler, method, path, key string) *httptest.ResponseRecorder {
	return sendAs(r, method, path, key, "u-1", `{}`)
}

func sendAs(r http.Handler, method, path, key, user, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if key != "" {
		req.Header.Set("Idempotency-Key", key)
	}
	if user != "" {
		req.Header.Set("X-User", user)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestIdempotency_ReplaysStoredResponse(t *testing.T) {
	calls := 0
	r := countingRouter(newMemoryIdempotencyStore(), &calls, http.StatusCreated)

	first := send(r, http.MethodPost, "/bookings", "abc")
	second := send(r, http.MethodPost, "/bookings", "abc")

	assert.Equal(t, 1, calls)
	assert.Equal(t, http.StatusCreated, second.Code)
	assert.JSONEq(t, first.Body.String(), second.Body.String())
	assert.Equal(t, "true", second.Header().Get("Idempotent-Replayed"))
	assert.Contains(t, second.Header().Get("Content-Type"), "application/json")
}

func TestIdempotency_DistinctKeysAndMethods(t *testing.T) {
	calls := 0
	r := countingRouter(newMemoryIdempotencyStore(), &calls, http.StatusOK)

	send(r, http.MethodPost, "/bookings", "a")
	send(r, http.MethodPost, "/bookings", "b")
	send(r, http.MethodPost, "/bookings", "")
	send(r, http.MethodGet, "/bookings", "a")
	send(r, http.MethodGet, "/bookings", "a")

	assert.Equal(t, 5, calls)
}

func TestIdempotency_KeysAreScopedToCaller(t *testing.T) {
	calls := 0
	r := countingRouter(newMemoryIdempotencyStore(), &calls, http.StatusCreated)

	first := sendAs(r, http.MethodPost, "/bookings", "shared", "u-1", `{}`)
	other := sendAs(r, http.MethodPost, "/bookings", "shared", "u-2", `{}`)

	assert.Equal(t, 2, calls)
	assert.JSONEq(t, `{"call":1}`, first.Body.String())
	assert.JSONEq(t, `{"call":2}`, other.Body.String())
	assert.Empty(t, other.Header().Get("Idempotent-Replayed"))
}

func TestIdempotency_AnonymousRequestsAreNotCached(t *testing.T) {
	store := newMemoryIdempotencyStore()
	calls := 0
	r := countingRouter(store, &calls, http.StatusOK)

	sendAs(r, http.MethodPost, "/bookings", "k", "", `{}`)
	sendAs(r, http.MethodPost, "/bookings", "k", "", `{}`)

	assert.Equal(t, 2, calls)
	assert.Empty(t, store.responses)
}

func TestIdempotency_ReusedKeyWithDifferentBody(t *testing.T) {
	calls := 0
	r := countingRouter(newMemoryIdempotencyStore(), &calls, http.StatusCreated)

	sendAs(r, http.MethodPost, "/bookings", "k", "u-1", `{"drop":"Akurdi"}`)
	w := sendAs(r, http.MethodPost, "/bookings", "k", "u-1", `{"drop":"Hinjewadi"}`)

	assert.Equal(t, 1, calls)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "Idempotency-Key")
}

func TestIdempotency_ServerErrorsAreNotStored(t *testing.T) {
	calls := 0
	r := countingRouter(newMemoryIdempotencyStore(), &calls, http.StatusInternalServerError)

	send(r, http.MethodPost, "/bookings", "k")
	send(r, http.MethodPost, "/bookings", "k")

	assert.Equal(t, 2, calls)
}

func TestIdempotency_StoreFailureFallsThrough(t *testing.T) {
	store := newMemoryIdempotencyStore()
	store.getErr = errors.New("redis down")
	calls := 0
	r := countingRouter(store, &calls, http.StatusOK)

	w := send(r, http.MethodPost, "/bookings", "k")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, calls)
}

type fakeVerifier struct {
	users map[string]*domain.User
	err   error
}

func (f *fakeVerifier) VerifyToken(ctx context.Context, token string) (*domain.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	user, ok := f.users[token]
	if !ok {
		return nil, service.ErrUnauthorized
	}
	return user, nil
}

func userRouter(verifier TokenVerifier) *gin.Engine {
	r := gin.New()
	r.GET("/me", RequireUser(verifier, "access"), func(c *gin.Context) {
		user, ok := UserFromContext(c)
		if !ok {
			c.Status(http.StatusTeapot)
			return
		}
		c.String(http.StatusOK, user.ID)
	})
	return r
}

func TestRequireUser(t *testing.T) {
	verifier := &fakeVerifier{users: map[string]*domain.User{"good": {ID: "u-1"}}}
	r := userRouter(verifier)

	testCases := []struct {
		name     string
		header   string
		cookie   string
		wantCode int
		wantBody string
	}{
		{"bearer", "Bearer good", "", http.StatusOK, "u-1"},
		{"lower-case scheme", "bearer good", "", http.StatusOK, "u-1"},
		{"cookie", "", "good", http.StatusOK, "u-1"},
		{"missing", "", "", http.StatusUnauthorized, "No token, authorization denied"},
		{"invalid", "Bearer bad", "", http.StatusUnauthorized, "Invalid user token"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			if tc.cookie != "" {
				req.AddCookie(&http.Cookie{Name: "access", Value: tc.cookie})
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tc.wantCode, w.Code)
			assert.Contains(t, w.Body.String(), tc.wantBody)
		})
	}
}

func TestRequireUser_NotConfigured(t *testing.T) {
	r := userRouter(&fakeVerifier{err: service.ErrAuthNotConfigured})

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer x")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestRequireDriver(t *testing.T) {
	const secret = "s"
	drivers := service.NewDriverService(nil, nil, secret, time.Hour, nil)

	sign := func(role string) string {
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, service.DriverClaims{
			DriverID: "d-1",
			Role:     role,
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		}).SignedString([]byte(secret))
		require.NoError(t, err)
		return token
	}

	r := gin.New()
	r.GET("/driver", RequireDriver(drivers), func(c *gin.Context) {
		claims, _ := DriverFromContext(c)
		c.String(http.StatusOK, claims.DriverID)
	})

	testCases := []struct {
		name     string
		cookie   string
		header   string
		wantCode int
		wantBody string
	}{
		{"cookie", sign("driver"), "", http.StatusOK, "d-1"},
		{"bearer", "", "Bearer " + sign("driver"), http.StatusOK, "d-1"},
		{"missing", "", "", http.StatusUnauthorized, "Token is not valid"},
		{"garbage", "nope", "", http.StatusUnauthorized, "Token is not valid"},
		{"wrong role", sign("user"), "", http.StatusForbidden, "Access denied. Not a driver."},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/driver", nil)
			if tc.cookie != "" {
				req.AddCookie(&http.Cookie{Name: DriverCookieName, Value: tc.cookie})
			}
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tc.wantCode, w.Code)
			assert.Contains(t, w.Body.String(), tc.wantBody)
		})
	}
}
