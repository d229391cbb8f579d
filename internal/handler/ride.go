package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"roadchal/internal/service"
	"roadchal/internal/tracking"
)

// RideHandler handles HTTP requests for ride quotes and tracking.
type RideHandler struct {
	rideService *service.RideService
	hub         *tracking.Hub
}

// NewRideHandler creates a new RideHandler.
func NewRideHandler(rideService *service.RideService, hub *tracking.Hub) *RideHandler {
	return &RideHandler{
		rideService: rideService,
		hub:         hub,
	}
}

// EstimatesRequest is the HTTP request body for ride estimates.
type EstimatesRequest struct {
	Source      string `json:"source" binding:"required"`
	Destination string `json:"destination" binding:"required"`
}

// Estimates handles POST /api/rides/estimates
func (h *RideHandler) Estimates(c *gin.Context) {
	var req EstimatesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "source and destination are required")
		return
	}

	quotes, err := h.rideService.Estimates(c.Request.Context(), req.Source, req.Destination)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, quotes)
}

// DriverDetails handles GET /api/rides/driver/:ride_id
func (h *RideHandler) DriverDetails(c *gin.Context) {
	details, err := h.rideService.DriverDetails(c.Request.Context(), c.Param("ride_id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, details)
}

// MapData handles GET /api/tracking/map-data
func (h *RideHandler) MapData(c *gin.Context) {
	data, err := h.rideService.MapData(c.Request.Context(), strings.TrimSpace(c.Query("driver_id")))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, data)
}

// TrackingFeed handles GET /api/tracking/ws. Exactly one of phone,
// booking_id or driver_id selects the feed.
func (h *RideHandler) TrackingFeed(c *gin.Context) {
	topic, ok := feedTopic(c)
	if !ok {
		badRequest(c, "one of phone, booking_id or driver_id is required")
		return
	}

	// The upgrader has already answered the client when this fails.
	if err := h.hub.ServeWS(c.Writer, c.Request, topic); err != nil {
		_ = c.Error(err)
	}
}

func feedTopic(c *gin.Context) (string, bool) {
	phone := strings.TrimSpace(c.Query("phone"))
	bookingID := strings.TrimSpace(c.Query("booking_id"))
	driverID := strings.TrimSpace(c.Query("driver_id"))

	switch {
	case phone != "" && bookingID == "" && driverID == "":
		return phone, true
	case bookingID != "" && phone == "" && driverID == "":
		return tracking.BookingTopic(bookingID), true
	case driverID != "" && phone == "" && bookingID == "":
		return tracking.DriverTopic(driverID), true
	default:
		return "", false
	}
}
