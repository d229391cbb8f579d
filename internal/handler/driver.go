package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"roadchal/internal/config"
	"roadchal/internal/domain"
	"roadchal/internal/middleware"
	"roadchal/internal/service"
)

// DriverHandler handles HTTP requests for drivers.
type DriverHandler struct {
	driverService *service.DriverService
	cookies       config.CookieConfig
	tokenTTL      time.Duration
}

// NewDriverHandler creates a new DriverHandler.
func NewDriverHandler(driverService *service.DriverService, cookies config.CookieConfig, tokenTTL time.Duration) *DriverHandler {
	return &DriverHandler{
		driverService: driverService,
		cookies:       cookies,
		tokenTTL:      tokenTTL,
	}
}

// RegisterDriverRequest is the HTTP request body for driver registration.
type RegisterDriverRequest struct {
	FirstName string `json:"firstname"`
	LastName  string `json:"lastname"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

// DriverLoginRequest is the HTTP request body for driver login.
type DriverLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// OnboardRequest is the HTTP request body for driver onboarding.
type OnboardRequest struct {
	Phone         string `json:"phone"`
	Address       string `json:"address"`
	VehicleNumber string `json:"vehicleNumber"`
	VehicleType   string `json:"vehicleType"`
	VehicleModel  string `json:"vehicleModel"`
}

// AvailabilityRequest is the HTTP request body for setting availability.
type AvailabilityRequest struct {
	Status string `json:"status"`
}

// UpdateLocationRequest is the HTTP request body for updating driver location.
type UpdateLocationRequest struct {
	Lat       *float64 `json:"lat"`
	Lng       *float64 `json:"lng"`
	BookingID string   `json:"bookingId"`
}

// DriverResponse is the HTTP response for driver data.
type DriverResponse struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	FirstName     string  `json:"firstname"`
	LastName      string  `json:"lastname"`
	Email         string  `json:"email"`
	Phone         string  `json:"phone,omitempty"`
	Address       string  `json:"address,omitempty"`
	VehicleNumber string  `json:"vehicleNumber,omitempty"`
	VehicleType   string  `json:"vehicleType,omitempty"`
	VehicleModel  string  `json:"vehicleModel,omitempty"`
	Rating        float64 `json:"rating"`
	IsOnboarded   bool    `json:"isOnboarded"`
	Status        string  `json:"status"`
}

// DriverAuthResponse is the HTTP response for driver registration and login.
type DriverAuthResponse struct {
	Message string         `json:"message"`
	Token   string         `json:"token"`
	Driver  DriverResponse `json:"driver"`
}

// Register handles POST /api/drivers/register
func (h *DriverHandler) Register(c *gin.Context) {
	var req RegisterDriverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	auth, err := h.driverService.Register(c.Request.Context(), service.RegisterDriverRequest{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  req.Password,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	h.setTokenCookie(c, auth.Token, int(h.tokenTTL.Seconds()))
	respondJSON(c, http.StatusCreated, DriverAuthResponse{
		Message: "Driver registered successfully",
		Token:   auth.Token,
		Driver:  toDriverResponse(auth.Driver),
	})
}

// Login handles POST /api/drivers/login
func (h *DriverHandler) Login(c *gin.Context) {
	var req DriverLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	auth, err := h.driverService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	h.setTokenCookie(c, auth.Token, int(h.tokenTTL.Seconds()))
	respondJSON(c, http.StatusOK, DriverAuthResponse{
		Message: "Login successful",
		Token:   auth.Token,
		Driver:  toDriverResponse(auth.Driver),
	})
}

// Logout handles POST /api/drivers/logout
func (h *DriverHandler) Logout(c *gin.Context) {
	h.setTokenCookie(c, "", -1)
	respondJSON(c, http.StatusOK, MessageResponse{Message: "Logout successful"})
}

// Profile handles GET /api/drivers/profile
func (h *DriverHandler) Profile(c *gin.Context) {
	claims, _ := middleware.DriverFromContext(c)

	driver, err := h.driverService.Profile(c.Request.Context(), claims.DriverID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toDriverResponse(driver))
}

// Onboard handles POST /api/drivers/onboard
func (h *DriverHandler) Onboard(c *gin.Context) {
	claims, _ := middleware.DriverFromContext(c)

	var req OnboardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	driver, err := h.driverService.Onboard(c.Request.Context(), claims.DriverID, service.OnboardRequest{
		Phone:         req.Phone,
		Address:       req.Address,
		VehicleNumber: req.VehicleNumber,
		VehicleType:   req.VehicleType,
		VehicleModel:  req.VehicleModel,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, gin.H{
		"message": "Driver onboarded successfully",
		"driver":  toDriverResponse(driver),
	})
}

// SetAvailability handles PUT /api/drivers/availability
func (h *DriverHandler) SetAvailability(c *gin.Context) {
	claims, _ := middleware.DriverFromContext(c)

	var req AvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	status := domain.DriverStatus(req.Status)
	if err := h.driverService.SetAvailability(c.Request.Context(), claims.DriverID, status); err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, MessageResponse{Message: fmt.Sprintf("Driver status updated to %s", status)})
}

// ToggleAvailability handles PUT /api/drivers/toggle-availability
func (h *DriverHandler) ToggleAvailability(c *gin.Context) {
	claims, _ := middleware.DriverFromContext(c)

	status, err := h.driverService.ToggleAvailability(c.Request.Context(), claims.DriverID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, MessageResponse{Message: fmt.Sprintf("Driver status toggled to %s", status)})
}

// UpdateLocation handles POST /api/drivers/location
func (h *DriverHandler) UpdateLocation(c *gin.Context) {
	claims, _ := middleware.DriverFromContext(c)

	var req UpdateLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Lat == nil || req.Lng == nil {
		badRequest(c, "lat and lng are required")
		return
	}

	bookingID := strings.TrimSpace(req.BookingID)
	if err := h.driverService.UpdateRideLocation(c.Request.Context(), claims.DriverID, bookingID, *req.Lat, *req.Lng); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// Nearby handles GET /api/drivers/nearby
func (h *DriverHandler) Nearby(c *gin.Context) {
	lat, errLat := strconv.ParseFloat(c.Query("lat"), 64)
	lng, errLng := strconv.ParseFloat(c.Query("lng"), 64)
	if errLat != nil || errLng != nil {
		badRequest(c, "lat and lng are required")
		return
	}

	var radiusKm float64
	if raw := c.Query("radius_km"); raw != "" {
		r, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			badRequest(c, "invalid radius_km")
			return
		}
		radiusKm = r
	}

	drivers, err := h.driverService.Nearby(c.Request.Context(), lat, lng, radiusKm)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, drivers)
}

func (h *DriverHandler) setTokenCookie(c *gin.Context, token string, maxAge int) {
	c.SetSameSite(h.cookies.SameSite)
	c.SetCookie(middleware.DriverCookieName, token, maxAge, h.cookies.Path, h.cookies.Domain, h.cookies.Secure, true)
}

func toDriverResponse(d *domain.Driver) DriverResponse {
	return DriverResponse{
		ID:            d.ID,
		Name:          d.FullName(),
		FirstName:     d.FirstName,
		LastName:      d.LastName,
		Email:         d.Email,
		Phone:         d.Phone,
		Address:       d.Address,
		VehicleNumber: d.VehicleNumber,
		VehicleType:   string(d.VehicleType),
		VehicleModel:  d.VehicleModel,
		Rating:        d.Rating,
		IsOnboarded:   d.IsOnboarded,
		Status:        string(d.Status),
	}
}
