package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"roadchal/internal/domain"
	"roadchal/internal/service"
)

// JourneyHandler handles HTTP requests for the journey workflow.
type JourneyHandler struct {
	journeyService *service.JourneyService
}

// NewJourneyHandler creates a new JourneyHandler.
func NewJourneyHandler(journeyService *service.JourneyService) *JourneyHandler {
	return &JourneyHandler{journeyService: journeyService}
}

// JourneyMessageRequest is the HTTP request body for a journey message.
type JourneyMessageRequest struct {
	Message   string   `json:"message"`
	Username  string   `json:"username"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

// JourneyResponse is the HTTP response for a stored journey.
type JourneyResponse struct {
	ID        string  `json:"id"`
	Username  string  `json:"username"`
	StartLat  float64 `json:"start_lat"`
	StartLng  float64 `json:"start_lng"`
	EndLat    float64 `json:"end_lat"`
	EndLng    float64 `json:"end_lng"`
	State     string  `json:"state"`
	CreatedAt string  `json:"created_at"`
	UpdatedAt string  `json:"updated_at"`
}

// Message handles POST /api/journeys/messages
func (h *JourneyHandler) Message(c *gin.Context) {
	var req JourneyMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	result, err := h.journeyService.Handle(c.Request.Context(), service.JourneyMessage{
		Message:   req.Message,
		Username:  req.Username,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, result)
}

// GetJourney handles GET /api/journeys/:id
func (h *JourneyHandler) GetJourney(c *gin.Context) {
	journey, err := h.journeyService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toJourneyResponse(journey))
}

func toJourneyResponse(j *domain.Journey) JourneyResponse {
	return JourneyResponse{
		ID:        j.ID,
		Username:  j.Username,
		StartLat:  j.StartLat,
		StartLng:  j.StartLng,
		EndLat:    j.EndLat,
		EndLng:    j.EndLng,
		State:     string(j.State),
		CreatedAt: j.CreatedAt.Format(time.RFC3339),
		UpdatedAt: j.UpdatedAt.Format(time.RFC3339),
	}
}
