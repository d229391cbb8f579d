package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"roadchal/internal/repository"
	"roadchal/internal/service"
	"roadchal/internal/supabase"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// MessageResponse is a response carrying only a message.
type MessageResponse struct {
	Message string `json:"message"`
}

// respondError sends an error response with the appropriate HTTP status code.
// Unexpected errors are attached to the context and hidden from the client.
func respondError(c *gin.Context, err error) {
	code := mapErrorToHTTPStatus(err)

	var apiErr *supabase.APIError
	switch {
	case errors.As(err, &apiErr):
		c.JSON(code, ErrorResponse{Error: apiErr.Message})
	case code == http.StatusInternalServerError:
		_ = c.Error(err)
		c.JSON(code, ErrorResponse{Error: "internal server error"})
	default:
		c.JSON(code, ErrorResponse{Error: err.Error()})
	}
}

// respondJSON sends a JSON response with the given status code.
func respondJSON(c *gin.Context, code int, data any) {
	c.JSON(code, data)
}

// badRequest answers 400 with message.
func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: message})
}

// mapErrorToHTTPStatus maps service/repository errors to HTTP status codes.
func mapErrorToHTTPStatus(err error) int {
	var apiErr *supabase.APIError
	if errors.As(err, &apiErr) && apiErr.Status >= 400 && apiErr.Status < 600 {
		return apiErr.Status
	}
	var fieldErr *service.RequiredFieldError
	if errors.As(err, &fieldErr) {
		return http.StatusBadRequest
	}

	switch {
	// Not found errors
	case errors.Is(err, repository.ErrNotFound),
		errors.Is(err, service.ErrRideNotFound),
		errors.Is(err, service.ErrBookingNotFound),
		errors.Is(err, service.ErrDriverNotFound):
		return http.StatusNotFound

	// Validation errors - Bad Request
	case errors.Is(err, service.ErrInvalidUserID),
		errors.Is(err, service.ErrEmptyMessage),
		errors.Is(err, service.ErrInvalidUsername),
		errors.Is(err, service.ErrInvalidRoute),
		errors.Is(err, service.ErrMissingLocations),
		errors.Is(err, service.ErrInvalidBookingStatus),
		errors.Is(err, service.ErrInvalidVehicleType),
		errors.Is(err, service.ErrInvalidDriverStatus),
		errors.Is(err, service.ErrInvalidLocation),
		errors.Is(err, service.ErrSignupFailed):
		return http.StatusBadRequest

	// Authentication errors
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrUnauthorized),
		errors.Is(err, service.ErrInvalidToken):
		return http.StatusUnauthorized

	// Forbidden
	case errors.Is(err, service.ErrNotBookingDriver),
		errors.Is(err, service.ErrNotDriver):
		return http.StatusForbidden

	// Conflict errors
	case errors.Is(err, repository.ErrConflict),
		errors.Is(err, service.ErrSessionBusy),
		errors.Is(err, service.ErrRideUnavailable),
		errors.Is(err, service.ErrDriverExists),
		errors.Is(err, service.ErrAlreadyOnboarded):
		return http.StatusConflict

	// Service unavailable
	case errors.Is(err, service.ErrAuthNotConfigured):
		return http.StatusServiceUnavailable

	// Default to internal server error
	default:
		return http.StatusInternalServerError
	}
}
