package middleware

import (
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/webservertaskmanager/task-api/internal/constants"
	apierrors "github.com/webservertaskmanager/task-api/internal/errors"
)

const maxRequestIDLength = 128

// RequestID echoes a sane inbound X-Request-Id or generates a new one.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(constants.HeaderRequestID)
		if id == "" || len(id) > maxRequestIDLength {
			id = uuid.NewString()
		}
		c.Set(constants.ContextKeyRequestID, id)
		c.Header(constants.HeaderRequestID, id)
		c.Next()
	}
}

// Logger attaches a request scoped logger and writes one line per request.
func Logger(base zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		log := base.With().
			Str("request_id", c.GetString(constants.ContextKeyRequestID)).
			Logger()
		c.Set(constants.ContextKeyLogger, log)
		c.Request = c.Request.WithContext(log.WithContext(c.Request.Context()))

		c.Next()

		status := c.Writer.Status()
		event := log.Info()
		switch {
		case status >= http.StatusInternalServerError:
			event = log.Error()
		case status >= http.StatusBadRequest:
			event = log.Warn()
		}
		event.
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("duration", time.Since(start)).
			Str("client_ip", c.ClientIP()).
			Msg("request")
	}
}

// LoggerFrom returns the request logger, or a disabled logger outside a request.
func LoggerFrom(c *gin.Context) *zerolog.Logger {
	if value, ok := c.Get(constants.ContextKeyLogger); ok {
		if log, ok := value.(zerolog.Logger); ok {
			return &log
		}
	}
	return zerolog.Ctx(c.Request.Context())
}

// Recovery turns a panic into a logged 500.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				LoggerFrom(c).Error().
					Interface("panic", r).
					Bytes("stack", debug.Stack()).
					Msg("recovered from panic")
				apierrors.InternalError(c)
			}
		}()
		c.Next()
	}
}
