package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"roadchal/internal/domain"
	"roadchal/internal/service"
)

// DriverCookieName is the cookie carrying driver tokens.
const DriverCookieName = "authToken"

const (
	userKey   = "auth.user"
	driverKey = "auth.driver"
)

// TokenVerifier resolves a rider access token.
type TokenVerifier interface {
	VerifyToken(ctx context.Context, accessToken string) (*domain.User, error)
}

// DriverTokenParser validates a driver token.
type DriverTokenParser interface {
	ParseToken(token string) (*service.DriverClaims, error)
}

// RequireUser authenticates riders with a bearer token or the access cookie.
func RequireUser(verifier TokenVerifier, accessCookie string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			token, _ = c.Cookie(accessCookie)
		}
		if token == "" {
			abort(c, http.StatusUnauthorized, "No token, authorization denied")
			return
		}

		user, err := verifier.VerifyToken(c.Request.Context(), token)
		if err != nil {
			switch {
			case errors.Is(err, service.ErrUnauthorized):
				abort(c, http.StatusUnauthorized, err.Error())
			case errors.Is(err, service.ErrAuthNotConfigured):
				abort(c, http.StatusServiceUnavailable, err.Error())
			default:
				_ = c.Error(err)
				abort(c, http.StatusInternalServerError, "Server error during authentication")
			}
			return
		}

		c.Set(userKey, user)
		c.Next()
	}
}

// RequireDriver authenticates drivers with the driver cookie or a bearer token.
func RequireDriver(parser DriverTokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, _ := c.Cookie(DriverCookieName)
		if token == "" {
			token = bearerToken(c)
		}

		claims, err := parser.ParseToken(token)
		if err != nil {
			if errors.Is(err, service.ErrNotDriver) {
				abort(c, http.StatusForbidden, err.Error())
				return
			}
			abort(c, http.StatusUnauthorized, service.ErrInvalidToken.Error())
			return
		}

		c.Set(driverKey, claims)
		c.Next()
	}
}

// UserFromContext returns the rider set by RequireUser.
func UserFromContext(c *gin.Context) (*domain.User, bool) {
	v, ok := c.Get(userKey)
	if !ok {
		return nil, false
	}
	user, ok := v.(*domain.User)
	return user, ok
}

// DriverFromContext returns the driver claims set by RequireDriver.
func DriverFromContext(c *gin.Context) (*service.DriverClaims, bool) {
	v, ok := c.Get(driverKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*service.DriverClaims)
	return claims, ok
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}

func abort(c *gin.Context, code int, message string) {
	c.AbortWithStatusJSON(code, gin.H{"error": message})
}
