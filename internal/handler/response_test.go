package handler

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roadchal/internal/repository"
	"roadchal/internal/service"
	"roadchal/internal/supabase"
)

func TestMapErrorToHTTPStatus(t *testing.T) {
	testCases := []struct {
		name string
		err  error
		want int
	}{
		{"not found", repository.ErrNotFound, http.StatusNotFound},
		{"booking not found", service.ErrBookingNotFound, http.StatusNotFound},
		{"wrapped driver not found", fmt.Errorf("profile: %w", service.ErrDriverNotFound), http.StatusNotFound},
		{"missing field", &service.RequiredFieldError{Field: "phone"}, http.StatusBadRequest},
		{"invalid route", service.ErrInvalidRoute, http.StatusBadRequest},
		{"invalid location", service.ErrInvalidLocation, http.StatusBadRequest},
		{"bad credentials", service.ErrInvalidCredentials, http.StatusUnauthorized},
		{"bad driver token", service.ErrInvalidToken, http.StatusUnauthorized},
		{"not booking driver", service.ErrNotBookingDriver, http.StatusForbidden},
		{"not a driver", service.ErrNotDriver, http.StatusForbidden},
		{"ride taken", service.ErrRideUnavailable, http.StatusConflict},
		{"session busy", service.ErrSessionBusy, http.StatusConflict},
		{"repository conflict", repository.ErrConflict, http.StatusConflict},
		{"auth not configured", service.ErrAuthNotConfigured, http.StatusServiceUnavailable},
		{"upstream status", &supabase.APIError{Status: http.StatusUnprocessableEntity, Message: "User already registered"}, http.StatusUnprocessableEntity},
		{"upstream bogus status", &supabase.APIError{Status: 200, Message: "odd"}, http.StatusInternalServerError},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, mapErrorToHTTPStatus(tc.err))
		})
	}
}

func TestRespondError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	testCases := []struct {
		name     string
		err      error
		wantCode int
		wantBody string
		wantErrs int
	}{
		{
			name:     "domain error message is returned",
			err:      service.ErrRideUnavailable,
			wantCode: http.StatusConflict,
			wantBody: `{"error":"This ride is no longer available"}`,
		},
		{
			name:     "upstream message is passed through",
			err:      fmt.Errorf("login: %w", &supabase.APIError{Status: http.StatusBadRequest, Message: "Invalid login credentials"}),
			wantCode: http.StatusBadRequest,
			wantBody: `{"error":"Invalid login credentials"}`,
		},
		{
			name:     "internal errors are hidden",
			err:      errors.New("pq: connection refused"),
			wantCode: http.StatusInternalServerError,
			wantBody: `{"error":"internal server error"}`,
			wantErrs: 1,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)

			respondError(c, tc.err)

			require.Equal(t, tc.wantCode, w.Code)
			assert.JSONEq(t, tc.wantBody, w.Body.String())
			assert.Len(t, c.Errors, tc.wantErrs)
		})
	}
}
