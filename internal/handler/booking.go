package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"roadchal/internal/domain"
	"roadchal/internal/middleware"
	"roadchal/internal/service"
)

// BookingHandler handles HTTP requests for bookings.
type BookingHandler struct {
	bookingService *service.BookingService
}

// NewBookingHandler creates a new BookingHandler.
func NewBookingHandler(bookingService *service.BookingService) *BookingHandler {
	return &BookingHandler{bookingService: bookingService}
}

// RequestRideRequest is the HTTP request body for requesting a ride.
type RequestRideRequest struct {
	PickupLocation json.RawMessage `json:"pickupLocation"`
	DropLocation   json.RawMessage `json:"dropLocation"`
	PickupDate     *time.Time      `json:"pickupDate"`
	PickupTime     *time.Time      `json:"pickupTime"`
}

// UpdateBookingStatusRequest is the HTTP request body for a status update.
type UpdateBookingStatusRequest struct {
	Status string `json:"status"`
}

// BookingResponse is the HTTP response for booking data.
type BookingResponse struct {
	ID             string          `json:"id"`
	OrderNumber    string          `json:"orderNumber"`
	UserID         string          `json:"userId"`
	DriverID       string          `json:"driverId,omitempty"`
	PickupLocation json.RawMessage `json:"pickupLocation"`
	DropLocation   json.RawMessage `json:"dropLocation"`
	PickupDate     string          `json:"pickupDate"`
	PickupTime     string          `json:"pickupTime"`
	Status         string          `json:"status"`
	CreatedAt      string          `json:"createdAt"`
}

// BookingMessageResponse is a booking with a message.
type BookingMessageResponse struct {
	Message string          `json:"message"`
	Booking BookingResponse `json:"booking"`
}

// RequestRide handles POST /api/bookings/request
func (h *BookingHandler) RequestRide(c *gin.Context) {
	user, _ := middleware.UserFromContext(c)

	var req RequestRideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	booking, err := h.bookingService.RequestRide(c.Request.Context(), service.RequestRideInput{
		UserID:         userID(user),
		PickupLocation: req.PickupLocation,
		DropLocation:   req.DropLocation,
		PickupDate:     req.PickupDate,
		PickupTime:     req.PickupTime,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, BookingMessageResponse{
		Message: "Ride requested successfully. Waiting for a driver.",
		Booking: toBookingResponse(booking),
	})
}

// UserHistory handles GET /api/bookings/user/history
func (h *BookingHandler) UserHistory(c *gin.Context) {
	user, _ := middleware.UserFromContext(c)

	bookings, err := h.bookingService.UserHistory(c.Request.Context(), userID(user))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toBookingResponses(bookings))
}

// Pending handles GET /api/bookings/pending
func (h *BookingHandler) Pending(c *gin.Context) {
	bookings, err := h.bookingService.Pending(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toBookingResponses(bookings))
}

// DriverHistory handles GET /api/bookings/driver/history
func (h *BookingHandler) DriverHistory(c *gin.Context) {
	claims, _ := middleware.DriverFromContext(c)

	bookings, err := h.bookingService.DriverHistory(c.Request.Context(), claims.DriverID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toBookingResponses(bookings))
}

// Accept handles PUT /api/bookings/:id/accept
func (h *BookingHandler) Accept(c *gin.Context) {
	claims, _ := middleware.DriverFromContext(c)

	booking, err := h.bookingService.Accept(c.Request.Context(), c.Param("id"), claims.DriverID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, BookingMessageResponse{
		Message: "Ride accepted successfully",
		Booking: toBookingResponse(booking),
	})
}

// UpdateStatus handles PUT /api/bookings/:id/status
func (h *BookingHandler) UpdateStatus(c *gin.Context) {
	claims, _ := middleware.DriverFromContext(c)

	var req UpdateBookingStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	status := domain.BookingStatus(req.Status)
	booking, err := h.bookingService.UpdateStatus(c.Request.Context(), c.Param("id"), claims.DriverID, status)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, BookingMessageResponse{
		Message: fmt.Sprintf("Ride status updated to %s", status),
		Booking: toBookingResponse(booking),
	})
}

func userID(user *domain.User) string {
	if user == nil {
		return ""
	}
	return user.ID
}

func toBookingResponse(b *domain.Booking) BookingResponse {
	return BookingResponse{
		ID:             b.ID,
		OrderNumber:    b.OrderNumber,
		UserID:         b.UserID,
		DriverID:       b.DriverID,
		PickupLocation: b.PickupLocation,
		DropLocation:   b.DropLocation,
		PickupDate:     b.PickupDate.Format(time.RFC3339),
		PickupTime:     b.PickupTime.Format(time.RFC3339),
		Status:         string(b.Status),
		CreatedAt:      b.CreatedAt.Format(time.RFC3339),
	}
}

func toBookingResponses(bookings []*domain.Booking) []BookingResponse {
	response := make([]BookingResponse, 0, len(bookings))
	for _, b := range bookings {
		response = append(response, toBookingResponse(b))
	}
	return response
}
