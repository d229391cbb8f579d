package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"roadchal/internal/config"
	"roadchal/internal/service"
	"roadchal/internal/supabase"
)

// AuthHandler handles rider login and sign-up.
type AuthHandler struct {
	authService *service.AuthService
	cookies     config.CookieConfig
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *service.AuthService, cookies config.CookieConfig) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		cookies:     cookies,
	}
}

// LoginRequest is the HTTP request body for login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// SignupRequest is the HTTP request body for sign-up.
type SignupRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// AuthResponse is the HTTP response for login and sign-up.
type AuthResponse struct {
	User    *supabase.User    `json:"user"`
	Session *supabase.Session `json:"session"`
	Message string            `json:"message"`
}

// Login handles POST /api/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "a valid email and password are required")
		return
	}

	result, err := h.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	h.setSessionCookies(c, result.Session)
	respondJSON(c, http.StatusOK, AuthResponse{User: result.User, Session: result.Session, Message: result.Message})
}

// Signup handles POST /api/signup
func (h *AuthHandler) Signup(c *gin.Context) {
	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "email, username and password are required")
		return
	}

	result, err := h.authService.Signup(c.Request.Context(), req.Email, req.Username, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	if result.Session != nil {
		h.setSessionCookies(c, result.Session)
	}
	respondJSON(c, http.StatusOK, AuthResponse{User: result.User, Session: result.Session, Message: result.Message})
}

// Logout handles POST /api/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	h.setCookie(c, h.cookies.AccessName, "", -1)
	h.setCookie(c, h.cookies.RefreshName, "", -1)
	respondJSON(c, http.StatusOK, MessageResponse{Message: "Logged out"})
}

func (h *AuthHandler) setSessionCookies(c *gin.Context, session *supabase.Session) {
	accessAge := session.ExpiresIn
	if accessAge <= 0 {
		accessAge = h.cookies.DefaultAccessAge
	}
	h.setCookie(c, h.cookies.AccessName, session.AccessToken, accessAge)
	if session.RefreshToken != "" {
		h.setCookie(c, h.cookies.RefreshName, session.RefreshToken, h.cookies.RefreshMaxAge)
	}
}

func (h *AuthHandler) setCookie(c *gin.Context, name, value string, maxAge int) {
	c.SetSameSite(h.cookies.SameSite)
	c.SetCookie(name, value, maxAge, h.cookies.Path, h.cookies.Domain, h.cookies.Secure, true)
}
