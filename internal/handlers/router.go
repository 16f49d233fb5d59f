package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/webservertaskmanager/task-api/internal/metrics"
	"github.com/webservertaskmanager/task-api/internal/middleware"
)

type RouterConfig struct {
	AuthHandler   *AuthHandler
	UserHandler   *UserHandler
	TaskHandler   *TaskHandler
	HealthHandler *HealthHandler
	Authenticator middleware.Authenticator
	Metrics       *metrics.Metrics
	Log           zerolog.Logger
}

// NewRouter wires middleware and routes. /users is left public; only the
// task routes and the session routes of the current user need a bearer token.
func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(cfg.Log))
	r.Use(middleware.Recovery())
	if cfg.Metrics != nil {
		r.Use(middleware.Metrics(cfg.Metrics))
		r.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	requireAuth := middleware.RequireAuth(cfg.Authenticator)

	r.GET("/healthz", cfg.HealthHandler.Healthz)
	r.GET("/version", cfg.HealthHandler.Version)

	auth := r.Group("/auth")
	{
		auth.POST("/login", cfg.AuthHandler.Login)
		auth.POST("/refresh", cfg.AuthHandler.Refresh)
		auth.POST("/logout", requireAuth, cfg.AuthHandler.Logout)
		auth.GET("/me", requireAuth, cfg.AuthHandler.GetCurrentUser)
	}

	users := r.Group("/users")
	{
		users.GET("", cfg.UserHandler.ListUsers)
		users.POST("", cfg.UserHandler.CreateUser)
		users.PUT("/:id", cfg.UserHandler.UpdateUser)
		users.DELETE("/:id", cfg.UserHandler.DeleteUser)
	}

	tasks := r.Group("/tasks")
	tasks.Use(requireAuth)
	{
		tasks.GET("", cfg.TaskHandler.ListTasks)
		tasks.POST("", cfg.TaskHandler.CreateTask)
		tasks.POST("/suggest", cfg.TaskHandler.SuggestTasks)
		tasks.PUT("/:id", cfg.TaskHandler.UpdateTask)
		tasks.DELETE("/:id", cfg.TaskHandler.DeleteTask)
	}

	return r
}
