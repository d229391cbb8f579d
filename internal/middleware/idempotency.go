package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"roadchal/internal/redis"
)

const idempotencyHeader = "Idempotency-Key"

// responseWriter wraps gin.ResponseWriter to capture the response.
type responseWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *responseWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *responseWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// Idempotency replays the stored response of a request that carries an
// already seen Idempotency-Key. It must run after RequireUser or
// RequireDriver: keys are scoped to the authenticated caller, and requests
// without one pass through uncached. Reusing a key with a different body is
// rejected with 422. Store failures never block the request.
func Idempotency(store redis.IdempotencyStoreInterface, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch:
		default:
			c.Next()
			return
		}

		key := c.GetHeader(idempotencyHeader)
		principal := principalID(c)
		if key == "" || principal == "" {
			c.Next()
			return
		}

		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			abort(c, http.StatusBadRequest, "invalid request body")
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))
		sum := sha256.Sum256(body)
		requestHash := hex.EncodeToString(sum[:])

		ctx := c.Request.Context()
		cacheKey := principal + ":" + c.Request.Method + ":" + c.FullPath() + ":" + key

		cached, err := store.GetResponse(ctx, cacheKey)
		if err != nil {
			logger.Warn("idempotency lookup failed", zap.Error(err))
			c.Next()
			return
		}
		if cached != nil {
			if cached.RequestHash != requestHash {
				abort(c, http.StatusUnprocessableEntity, "Idempotency-Key was already used with a different request")
				return
			}
			for k, v := range cached.Headers {
				for _, val := range v {
					c.Header(k, val)
				}
			}
			c.Header("Idempotent-Replayed", "true")
			c.Data(cached.StatusCode, cached.Headers.Get("Content-Type"), cached.Body)
			c.Abort()
			return
		}

		w := &responseWriter{ResponseWriter: c.Writer, body: &bytes.Buffer{}}
		c.Writer = w

		c.Next()

		// Server errors stay retryable.
		status := w.Status()
		if status >= 200 && status < 500 {
			response := &redis.CachedResponse{
				StatusCode:  status,
				Body:        w.body.Bytes(),
				Headers:     extractResponseHeaders(w),
				RequestHash: requestHash,
			}
			if err := store.SaveResponse(ctx, cacheKey, response); err != nil {
				logger.Warn("idempotency save failed", zap.Error(err))
			}
		}
	}
}

// principalID names the authenticated caller, or "" for anonymous requests.
func principalID(c *gin.Context) string {
	if user, ok := UserFromContext(c); ok {
		return "user:" + user.ID
	}
	if claims, ok := DriverFromContext(c); ok {
		return "driver:" + claims.DriverID
	}
	return ""
}

// extractResponseHeaders extracts headers to cache.
func extractResponseHeaders(w gin.ResponseWriter) http.Header {
	headers := make(http.Header)
	if ct := w.Header().Get("Content-Type"); ct != "" {
		headers.Set("Content-Type", ct)
	}
	return headers
}
