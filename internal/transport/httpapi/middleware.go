package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/goliatone/go-blog-store/internal/auth"
)

const (
	// HeaderRequestID carries the request id in both directions.
	HeaderRequestID = "X-Request-ID"

	ctxRequestID = "request_id"
	ctxUsername  = "username"
)

// RequestObserver receives one call per served request.
type RequestObserver interface {
	ObserveRequest(method string, status int, elapsed time.Duration)
}

// requestIDMiddleware reuses the caller's X-Request-ID or mints a uuid.
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderRequestID)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		c.Set(ctxRequestID, id)
		c.Header(HeaderRequestID, id)
		c.Next()
	}
}

func requestID(c *gin.Context) string {
	return c.GetString(ctxRequestID)
}

// observeMiddleware feeds the request counter and the latency histogram.
func observeMiddleware(obs RequestObserver) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		obs.ObserveRequest(c.Request.Method, c.Writer.Status(), time.Since(start))
	}
}

func accessLogMiddleware(logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		event := logger.Info()
		if status >= http.StatusInternalServerError {
			event = logger.Warn()
		}
		event.
			Str("request_id", requestID(c)).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("elapsed", time.Since(start)).
			Msg("request")
	}
}

// recoveryHandler answers a panic with the JSON error body.
func recoveryHandler(logger zerolog.Logger) gin.RecoveryFunc {
	return func(c *gin.Context, recovered any) {
		logger.Error().
			Interface("panic", recovered).
			Str("request_id", requestID(c)).
			Msg("handler panicked")
		c.AbortWithStatusJSON(http.StatusInternalServerError, errorBody{
			Status:  "error",
			Code:    codeInternal,
			Message: "internal server error",
		})
	}
}

// requireAuth resolves the bearer token to a username or answers 401.
func requireAuth(verifier auth.Verifier, logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := auth.BearerToken(c.GetHeader("Authorization"))
		username, err := verifier.Verify(c.Request.Context(), token)
		if err != nil {
			c.Header("WWW-Authenticate", "Bearer")
			writeError(c, logger, err)
			return
		}
		c.Set(ctxUsername, username)
		c.Next()
	}
}

func currentUser(c *gin.Context) string {
	return c.GetString(ctxUsername)
}
