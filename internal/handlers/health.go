package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/webservertaskmanager/task-api/internal/database"
	apierrors "github.com/webservertaskmanager/task-api/internal/errors"
	"github.com/webservertaskmanager/task-api/internal/middleware"
	"gorm.io/gorm"
)

const healthCheckTimeout = 3 * time.Second

// HealthHandler serves liveness and version information.
type HealthHandler struct {
	db      *gorm.DB
	redis   *redis.Client
	version string
}

// NewHealthHandler creates a health handler (redis optional).
func NewHealthHandler(db *gorm.DB, redisClient *redis.Client, version string) *HealthHandler {
	return &HealthHandler{db: db, redis: redisClient, version: version}
}

// Healthz answers OK once the database (and Redis, when configured) respond.
func (h *HealthHandler) Healthz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
	defer cancel()

	if err := database.Ping(ctx, h.db); err != nil {
		middleware.LoggerFrom(c).Error().Err(err).Msg("database health check failed")
		apierrors.ServiceUnavailable(c, "")
		return
	}
	if h.redis != nil {
		if err := h.redis.Ping(ctx).Err(); err != nil {
			middleware.LoggerFrom(c).Error().Err(err).Msg("redis health check failed")
			apierrors.ServiceUnavailable(c, "")
			return
		}
	}

	c.String(http.StatusOK, "OK")
}

// Version reports the deployed commit.
func (h *HealthHandler) Version(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"version": h.version})
}
