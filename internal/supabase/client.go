// Package supabase is a minimal client for the Supabase Auth (GoTrue) REST API.
package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"roadchal/internal/observability"
)

// ErrNotConfigured is returned when the client has no URL or API key.
var ErrNotConfigured = errors.New("supabase client not configured")

// APIError is an error answered by the auth server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("supabase: %d %s", e.Status, e.Message)
}

// User is a Supabase auth user. Raw keeps the full upstream object.
type User struct {
	ID           string          `json:"id"`
	Email        string          `json:"email"`
	UserMetadata map[string]any  `json:"user_metadata,omitempty"`
	Raw          json.RawMessage `json:"-"`
}

// MarshalJSON emits the full upstream object when one was received.
func (u User) MarshalJSON() ([]byte, error) {
	if len(u.Raw) > 0 {
		return u.Raw, nil
	}
	type plain User
	return json.Marshal(plain(u))
}

// Session is a Supabase auth session.
type Session struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	ExpiresAt    int64  `json:"expires_at,omitempty"`
	RefreshToken string `json:"refresh_token"`
	User         *User  `json:"user,omitempty"`
}

// AuthResponse is the result of a sign-in or sign-up call.
// Session is nil when sign-up requires email confirmation.
type AuthResponse struct {
	User    *User
	Session *Session
}

// Client talks to the Supabase Auth API.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewClient creates a new Client. baseURL is the project URL without /auth/v1.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
	}
}

// SignInWithPassword exchanges email and password for a session.
func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*AuthResponse, error) {
	body := map[string]string{"email": email, "password": password}

	var raw json.RawMessage
	if err := c.do(ctx, http.MethodPost, "/auth/v1/token?grant_type=password", "", body, &raw); err != nil {
		return nil, err
	}
	return parseAuthResponse(raw)
}

// SignUp registers a user with optional metadata.
func (c *Client) SignUp(ctx context.Context, email, password string, metadata map[string]any) (*AuthResponse, error) {
	body := map[string]any{"email": email, "password": password}
	if len(metadata) > 0 {
		body["data"] = metadata
	}

	var raw json.RawMessage
	if err := c.do(ctx, http.MethodPost, "/auth/v1/signup", "", body, &raw); err != nil {
		return nil, err
	}
	return parseAuthResponse(raw)
}

// GetUser returns the user owning an access token.
func (c *Client) GetUser(ctx context.Context, accessToken string) (*User, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/auth/v1/user", accessToken, nil, &raw); err != nil {
		return nil, err
	}
	return parseUser(raw)
}

func (c *Client) do(ctx context.Context, method, path, bearer string, body any, out *json.RawMessage) (err error) {
	if c == nil || c.baseURL == "" || c.apiKey == "" {
		return ErrNotConfigured
	}

	defer func() {
		observability.UpstreamCallsTotal.WithLabelValues("supabase", observability.UpstreamStatus(err)).Inc()
	}()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer == "" {
		bearer = c.apiKey
	}
	req.Header.Set("Authorization", "Bearer "+bearer)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{Status: resp.StatusCode, Message: errorMessage(data, resp.Status)}
	}

	*out = data
	return nil
}

// parseAuthResponse accepts both shapes GoTrue answers with: a session
// object embedding the user, or a bare user when confirmation is pending.
func parseAuthResponse(raw json.RawMessage) (*AuthResponse, error) {
	var envelope struct {
		AccessToken string          `json:"access_token"`
		User        json.RawMessage `json:"user"`
		ID          string          `json:"id"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	result := &AuthResponse{}
	if envelope.AccessToken != "" {
		var session Session
		if err := json.Unmarshal(raw, &session); err != nil {
			return nil, fmt.Errorf("decode session: %w", err)
		}
		if len(envelope.User) > 0 && string(envelope.User) != "null" {
			user, err := parseUser(envelope.User)
			if err != nil {
				return nil, err
			}
			session.User = user
			result.User = user
		}
		result.Session = &session
		return result, nil
	}

	if envelope.ID != "" {
		user, err := parseUser(raw)
		if err != nil {
			return nil, err
		}
		result.User = user
	}
	return result, nil
}

func parseUser(raw json.RawMessage) (*User, error) {
	var user User
	if err := json.Unmarshal(raw, &user); err != nil {
		return nil, fmt.Errorf("decode user: %w", err)
	}
	if user.ID == "" {
		return nil, nil
	}
	user.Raw = append(json.RawMessage(nil), raw...)
	return &user, nil
}

func errorMessage(data []byte, fallback string) string {
	var body struct {
		Msg              string `json:"msg"`
		ErrorDescription string `json:"error_description"`
		Message          string `json:"message"`
		Error            string `json:"error"`
	}
	if err := json.Unmarshal(data, &body); err == nil {
		for _, m := range []string{body.Msg, body.ErrorDescription, body.Message, body.Error} {
			if m != "" {
				return m
			}
		}
	}
	return fallback
}
