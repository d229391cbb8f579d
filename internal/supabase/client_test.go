package supabase

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(server.URL, "anon-key", time.Second)
}

func TestSignInWithPassword_Success(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/v1/token", r.URL.Path)
		assert.Equal(t, "password", r.URL.Query().Get("grant_type"))
		assert.Equal(t, "anon-key", r.Header.Get("apikey"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "rider@example.com", body["email"])
		assert.Equal(t, "secret", body["password"])

		_, _ = w.Write([]byte(`{
			"access_token":"at","token_type":"bearer","expires_in":3600,
			"refresh_token":"rt","user":{"id":"u-1","email":"rider@example.com"}
		}`))
	})

	res, err := client.SignInWithPassword(context.Background(), "rider@example.com", "secret")
	require.NoError(t, err)
	require.NotNil(t, res.Session)
	require.NotNil(t, res.User)
	assert.Equal(t, "at", res.Session.AccessToken)
	assert.Equal(t, "rt", res.Session.RefreshToken)
	assert.Equal(t, 3600, res.Session.ExpiresIn)
	assert.Equal(t, "u-1", res.User.ID)
	assert.JSONEq(t, `{"id":"u-1","email":"rider@example.com"}`, string(res.User.Raw))
}

func TestSignInWithPassword_UpstreamError(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"invalid_grant","error_description":"Invalid login credentials"}`))
	})

	_, err := client.SignInWithPassword(context.Background(), "rider@example.com", "wrong")

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "Invalid login credentials", apiErr.Message)
}

func TestSignUp_PendingConfirmation(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/v1/signup", r.URL.Path)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]any{"username": "asha"}, body["data"])

		_, _ = w.Write([]byte(`{"id":"u-2","email":"asha@example.com","user_metadata":{"username":"asha"}}`))
	})

	res, err := client.SignUp(context.Background(), "asha@example.com", "secret", map[string]any{"username": "asha"})
	require.NoError(t, err)
	require.NotNil(t, res.User)
	assert.Nil(t, res.Session)
	assert.Equal(t, "asha", res.User.UserMetadata["username"])
}

func TestGetUser_UsesBearerToken(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer user-token", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"id":"u-3","email":"x@example.com"}`))
	})

	user, err := client.GetUser(context.Background(), "user-token")
	require.NoError(t, err)
	assert.Equal(t, "u-3", user.ID)
}

func TestUser_MarshalKeepsUpstreamFields(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":"u-4","email":"x@example.com","aud":"authenticated","app_metadata":{"provider":"email"}}`))
	})

	user, err := client.GetUser(context.Background(), "user-token")
	require.NoError(t, err)

	out, err := json.Marshal(user)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"u-4","email":"x@example.com","aud":"authenticated","app_metadata":{"provider":"email"}}`, string(out))

	out, err = json.Marshal(&User{ID: "u-5", Email: "y@example.com"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"u-5","email":"y@example.com"}`, string(out))
}

func TestClient_NotConfigured(t *testing.T) {
	client := NewClient("", "", time.Second)
	_, err := client.GetUser(context.Background(), "token")
	assert.ErrorIs(t, err, ErrNotConfigured)
}
