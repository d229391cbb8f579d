package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"roadchal/internal/domain"
	"roadchal/internal/redis"
	"roadchal/internal/supabase"
)

// AuthProvider is the email/password identity backend.
type AuthProvider interface {
	SignInWithPassword(ctx context.Context, email, password string) (*supabase.AuthResponse, error)
	SignUp(ctx context.Context, email, password string, metadata map[string]any) (*supabase.AuthResponse, error)
	GetUser(ctx context.Context, accessToken string) (*supabase.User, error)
}

// UserCache caches verified token owners.
type UserCache interface {
	GetUser(ctx context.Context, accessToken string) (*redis.CachedUser, error)
	SetUser(ctx context.Context, accessToken string, user *redis.CachedUser) error
}

// AuthResult is the outcome of a login or sign-up.
type AuthResult struct {
	User    *supabase.User
	Session *supabase.Session
	Message string
}

// AuthService proxies rider authentication to the identity backend.
type AuthService struct {
	provider AuthProvider
	cache    UserCache
	logger   *zap.Logger
}

// NewAuthService creates a new AuthService. cache may be nil.
func NewAuthService(provider AuthProvider, cache UserCache, logger *zap.Logger) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{provider: provider, cache: cache, logger: logger}
}

// Login signs a rider in.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	if s.provider == nil {
		return nil, ErrAuthNotConfigured
	}

	res, err := s.provider.SignInWithPassword(ctx, strings.TrimSpace(email), password)
	if err != nil {
		return nil, s.providerError("login", err)
	}
	if res.User == nil || res.Session == nil {
		return nil, ErrInvalidCredentials
	}

	return &AuthResult{User: res.User, Session: res.Session, Message: "Login successful"}, nil
}

// Signup registers a rider. The session is nil when email confirmation is pending.
func (s *AuthService) Signup(ctx context.Context, email, username, password string) (*AuthResult, error) {
	if s.provider == nil {
		return nil, ErrAuthNotConfigured
	}

	res, err := s.provider.SignUp(ctx, strings.TrimSpace(email), password, map[string]any{"username": username})
	if err != nil {
		return nil, s.providerError("signup", err)
	}
	if res.User == nil {
		return nil, ErrSignupFailed
	}

	result := &AuthResult{User: res.User, Session: res.Session, Message: "Signup successful"}
	if res.Session == nil {
		result.Message = "Signup successful. Please verify your email to continue."
	}
	return result, nil
}

// VerifyToken returns the rider owning an access token.
func (s *AuthService) VerifyToken(ctx context.Context, accessToken string) (*domain.User, error) {
	if accessToken == "" {
		return nil, ErrUnauthorized
	}
	if s.provider == nil {
		return nil, ErrAuthNotConfigured
	}

	if s.cache != nil {
		cached, err := s.cache.GetUser(ctx, accessToken)
		if err != nil {
			s.logger.Warn("user cache read failed", zap.Error(err))
		} else if cached != nil {
			return &domain.User{ID: cached.ID, Email: cached.Email, Role: "user"}, nil
		}
	}

	user, err := s.provider.GetUser(ctx, accessToken)
	if err != nil {
		var apiErr *supabase.APIError
		if errors.As(err, &apiErr) {
			return nil, ErrUnauthorized
		}
		return nil, s.providerError("verify token", err)
	}
	if user == nil {
		return nil, ErrUnauthorized
	}

	if s.cache != nil {
		if err := s.cache.SetUser(ctx, accessToken, &redis.CachedUser{ID: user.ID, Email: user.Email}); err != nil {
			s.logger.Warn("user cache write failed", zap.Error(err))
		}
	}
	return &domain.User{ID: user.ID, Email: user.Email, Role: "user"}, nil
}

// providerError keeps upstream API errors intact so their status reaches the client.
func (s *AuthService) providerError(op string, err error) error {
	if errors.Is(err, supabase.ErrNotConfigured) {
		return ErrAuthNotConfigured
	}
	var apiErr *supabase.APIError
	if errors.As(err, &apiErr) {
		s.logger.Info("auth provider rejected request", zap.String("op", op), zap.Int("status", apiErr.Status))
		return err
	}
	return fmt.Errorf("%s: %w", op, err)
}
