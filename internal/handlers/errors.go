package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	apierrors "github.com/webservertaskmanager/task-api/internal/errors"
	"github.com/webservertaskmanager/task-api/internal/middleware"
	"github.com/webservertaskmanager/task-api/internal/services"
)

// respondError is the single place where service errors become HTTP responses.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrTitleRequired):
		apierrors.BadRequestWithDetails(c, "Validation failed", map[string]string{"title": "is required"})
	case errors.Is(err, services.ErrTitleEmpty):
		apierrors.BadRequestWithDetails(c, "Validation failed", map[string]string{"title": "cannot be empty"})
	case errors.Is(err, services.ErrEmailRequired):
		apierrors.BadRequestWithDetails(c, "Validation failed", map[string]string{"email": "is required"})
	case errors.Is(err, services.ErrUsernameTooShort):
		apierrors.BadRequestWithDetails(c, "Validation failed", map[string]string{"username": "is too short"})
	case errors.Is(err, services.ErrPasswordTooShort):
		apierrors.BadRequestWithDetails(c, "Validation failed", map[string]string{"password": "is too short"})
	case errors.Is(err, services.ErrPasswordTooLong):
		apierrors.BadRequestWithDetails(c, "Validation failed", map[string]string{"password": "is too long"})
	case errors.Is(err, services.ErrInvalidCredentials),
		errors.Is(err, services.ErrInvalidToken):
		apierrors.Unauthorized(c)
	case errors.Is(err, services.ErrTaskNotFound):
		apierrors.NotFound(c, "Task not found")
	case errors.Is(err, services.ErrUserNotFound):
		apierrors.NotFound(c, "User not found")
	case errors.Is(err, services.ErrEmailTaken):
		apierrors.ConflictWithDetails(c, "Email already exists", "email")
	case errors.Is(err, services.ErrSuggestionsUnavailable):
		middleware.LoggerFrom(c).Warn().Err(err).Msg("task suggestions failed")
		apierrors.ServiceUnavailable(c, "Task suggestions are unavailable")
	default:
		middleware.LoggerFrom(c).Error().Err(err).Str("path", c.FullPath()).Msg("unhandled error")
		apierrors.InternalError(c)
	}
}
