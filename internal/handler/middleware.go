package handler

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"spacemarket/internal/auth"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	traceIDKey   = "trace_id"
	loggerKey    = "logger"
	sessionKey   = "session"
	traceHeader  = "X-Request-ID"
	bearerPrefix = "Bearer "
)

// RequestLogger tags each request with a trace id and logs it when done
func RequestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		traceID := c.GetHeader(traceHeader)
		if traceID == "" {
			traceID = uuid.NewString()
		}
		reqLogger := logger.With("trace_id", traceID)
		c.Set(traceIDKey, traceID)
		c.Set(loggerKey, reqLogger)
		c.Header(traceHeader, traceID)

		start := time.Now()
		c.Next()

		level := slog.LevelInfo
		if c.Writer.Status() >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		reqLogger.Log(c.Request.Context(), level, "HTTP request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}
}

func requestLogger(c *gin.Context) *slog.Logger {
	if v, ok := c.Get(loggerKey); ok {
		if l, ok := v.(*slog.Logger); ok {
			return l
		}
	}
	return slog.Default()
}

// RequireAuth verifies the bearer token and attaches the caller's session
func RequireAuth(manager *auth.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, bearerPrefix) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required", "kind": KindAuth})
			return
		}
		token := strings.TrimSpace(strings.TrimPrefix(header, bearerPrefix))

		sess, err := manager.Authenticate(c.Request.Context(), token)
		if err != nil {
			respondError(c, err)
			return
		}
		c.Set(sessionKey, sess)
		c.Next()
	}
}

// currentSession returns the session attached by RequireAuth
func currentSession(c *gin.Context) *auth.Session {
	v, ok := c.Get(sessionKey)
	if !ok {
		return nil
	}
	sess, _ := v.(*auth.Session)
	return sess
}

// currentUID returns the caller's uid
func currentUID(c *gin.Context) string {
	if sess := currentSession(c); sess != nil {
		return sess.User.ID
	}
	return ""
}
