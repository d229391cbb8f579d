package tests

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"

	"roadchal/internal/redis"
	"roadchal/internal/service"
	"roadchal/internal/supabase"
)

// fakeAuthProvider is an in-memory identity backend.
type fakeAuthProvider struct {
	mu           sync.Mutex
	passwords    map[string]string
	tokens       map[string]*supabase.User
	confirmEmail bool
	err          error

	getUserCalls int
}

func newFakeAuthProvider() *fakeAuthProvider {
	return &fakeAuthProvider{
		passwords: make(map[string]string),
		tokens:    make(map[string]*supabase.User),
	}
}

func (f *fakeAuthProvider) SignInWithPassword(ctx context.Context, email, password string) (*supabase.AuthResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if pw, ok := f.passwords[email]; !ok || pw != password {
		return nil, &supabase.APIError{Status: http.StatusBadRequest, Message: "Invalid login credentials"}
	}
	user := &supabase.User{ID: "u-" + email, Email: email}
	token := "token-" + email
	f.tokens[token] = user
	return &supabase.AuthResponse{User: user, Session: &supabase.Session{AccessToken: token, ExpiresIn: 3600, User: user}}, nil
}

func (f *fakeAuthProvider) SignUp(ctx context.Context, email, password string, metadata map[string]any) (*supabase.AuthResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if _, ok := f.passwords[email]; ok {
		return nil, &supabase.APIError{Status: http.StatusUnprocessableEntity, Message: "User already registered"}
	}
	f.passwords[email] = password
	user := &supabase.User{ID: "u-" + email, Email: email, UserMetadata: metadata}
	if f.confirmEmail {
		return &supabase.AuthResponse{User: user}, nil
	}
	return &supabase.AuthResponse{User: user, Session: &supabase.Session{AccessToken: "token-" + email, User: user}}, nil
}

func (f *fakeAuthProvider) GetUser(ctx context.Context, accessToken string) (*supabase.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getUserCalls++
	if f.err != nil {
		return nil, f.err
	}
	user, ok := f.tokens[accessToken]
	if !ok {
		return nil, &supabase.APIError{Status: http.StatusUnauthorized, Message: "invalid JWT"}
	}
	return user, nil
}

// memoryUserCache is an in-memory UserCache.
type memoryUserCache struct {
	mu    sync.Mutex
	users map[string]*redis.CachedUser
}

func (c *memoryUserCache) GetUser(ctx context.Context, accessToken string) (*redis.CachedUser, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.users[accessToken], nil
}

func (c *memoryUserCache) SetUser(ctx context.Context, accessToken string, user *redis.CachedUser) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.users[accessToken] = user
	return nil
}

// ──────────────────────────────────────────────
// 1. SIGNUP AND LOGIN
// ──────────────────────────────────────────────

func TestAuth_SignupThenLogin(t *testing.T) {
	provider := newFakeAuthProvider()
	auth := service.NewAuthService(provider, nil, nil)
	ctx := context.Background()

	signup, err := auth.Signup(ctx, " asha@example.com ", "asha", "pw")
	if err != nil {
		t.Fatalf("signup: %v", err)
	}
	if signup.Message != "Signup successful" || signup.Session == nil {
		t.Errorf("unexpected signup result: %+v", signup)
	}
	if signup.User.UserMetadata["username"] != "asha" {
		t.Errorf("expected username metadata, got %v", signup.User.UserMetadata)
	}

	login, err := auth.Login(ctx, "asha@example.com", "pw")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if login.Message != "Login successful" || login.Session.AccessToken != "token-asha@example.com" {
		t.Errorf("unexpected login result: %+v", login)
	}
}

func TestAuth_SignupPendingConfirmation(t *testing.T) {
	provider := newFakeAuthProvider()
	provider.confirmEmail = true
	auth := service.NewAuthService(provider, nil, nil)

	result, err := auth.Signup(context.Background(), "asha@example.com", "asha", "pw")
	if err != nil {
		t.Fatalf("signup: %v", err)
	}
	if result.Session != nil {
		t.Error("expected no session while confirmation is pending")
	}
	if result.Message != "Signup successful. Please verify your email to continue." {
		t.Errorf("unexpected message %q", result.Message)
	}
}

func TestAuth_UpstreamErrorsPassThrough(t *testing.T) {
	provider := newFakeAuthProvider()
	auth := service.NewAuthService(provider, nil, nil)

	_, err := auth.Login(context.Background(), "nobody@example.com", "pw")

	var apiErr *supabase.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Status != http.StatusBadRequest || apiErr.Message != "Invalid login credentials" {
		t.Errorf("unexpected upstream error: %+v", apiErr)
	}
}

func TestAuth_NotConfigured(t *testing.T) {
	ctx := context.Background()

	unset := service.NewAuthService(nil, nil, nil)
	if _, err := unset.Login(ctx, "a", "b"); !errors.Is(err, service.ErrAuthNotConfigured) {
		t.Errorf("expected ErrAuthNotConfigured, got %v", err)
	}
	if _, err := unset.VerifyToken(ctx, "t"); !errors.Is(err, service.ErrAuthNotConfigured) {
		t.Errorf("expected ErrAuthNotConfigured, got %v", err)
	}

	provider := newFakeAuthProvider()
	provider.err = supabase.ErrNotConfigured
	auth := service.NewAuthService(provider, nil, nil)
	if _, err := auth.Signup(ctx, "a@example.com", "a", "b"); !errors.Is(err, service.ErrAuthNotConfigured) {
		t.Errorf("expected ErrAuthNotConfigured, got %v", err)
	}
}

// ──────────────────────────────────────────────
// 2. TOKEN VERIFICATION
// ──────────────────────────────────────────────

func TestAuth_VerifyTokenIsCached(t *testing.T) {
	provider := newFakeAuthProvider()
	cache := &memoryUserCache{users: make(map[string]*redis.CachedUser)}
	auth := service.NewAuthService(provider, cache, nil)
	ctx := context.Background()

	if _, err := auth.Signup(ctx, "asha@example.com", "asha", "pw"); err != nil {
		t.Fatalf("signup: %v", err)
	}
	login, err := auth.Login(ctx, "asha@example.com", "pw")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	for i := 0; i < 3; i++ {
		user, err := auth.VerifyToken(ctx, login.Session.AccessToken)
		if err != nil {
			t.Fatalf("verify: %v", err)
		}
		if user.ID != "u-asha@example.com" || user.Role != "user" {
			t.Errorf("unexpected user: %+v", user)
		}
	}
	if provider.getUserCalls != 1 {
		t.Errorf("expected one upstream lookup, got %d", provider.getUserCalls)
	}
}

func TestAuth_VerifyTokenRejectsUnknownTokens(t *testing.T) {
	auth := service.NewAuthService(newFakeAuthProvider(), nil, nil)
	ctx := context.Background()

	if _, err := auth.VerifyToken(ctx, "forged"); !errors.Is(err, service.ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized, got %v", err)
	}
	if _, err := auth.VerifyToken(ctx, ""); !errors.Is(err, service.ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized for empty token, got %v", err)
	}
}
