package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/webservertaskmanager/task-api/internal/config"
	"github.com/webservertaskmanager/task-api/internal/database"
	"github.com/webservertaskmanager/task-api/internal/handlers"
	"github.com/webservertaskmanager/task-api/internal/locks"
	"github.com/webservertaskmanager/task-api/internal/logger"
	"github.com/webservertaskmanager/task-api/internal/metrics"
	"github.com/webservertaskmanager/task-api/internal/repository"
	"github.com/webservertaskmanager/task-api/internal/security"
	"github.com/webservertaskmanager/task-api/internal/services"
	"gorm.io/gorm"
)

const shutdownTimeout = 10 * time.Second

func serveCmd() *cobra.Command {
	var skipMigrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), skipMigrate)
		},
	}

	cmd.Flags().BoolVar(&skipMigrate, "skip-migrate", false, "do not migrate the schema on startup")

	return cmd
}

func runServe(parent context.Context, skipMigrate bool) error {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	log := logger.New(cfg.LogLevel, cfg.LogFormat)
	gin.SetMode(cfg.GinMode)

	db, err := database.Connect(cfg, log)
	if err != nil {
		return err
	}
	defer closeDB(db, log)

	if !skipMigrate {
		if err := database.Migrate(db, log); err != nil {
			return err
		}
	}

	redisClient, err := locks.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	router, err := buildRouter(cfg, log, db, redisClient)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Str("version", cfg.Version).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	log.Info().Msg("server stopped")
	return nil
}

// buildRouter wires repositories, services and handlers.
func buildRouter(cfg *config.Config, log zerolog.Logger, db *gorm.DB, redisClient *redis.Client) (*gin.Engine, error) {
	m := metrics.New()
	repos := repository.New(db)

	passwords := security.NewPasswordHasher(cfg.BcryptCost)
	issuer := security.NewTokenIssuer(security.TokenConfig{
		AccessSecret:  cfg.JWTAccessSecret,
		AccessTTL:     cfg.JWTAccessExpiration,
		RefreshSecret: cfg.JWTRefreshSecret,
		RefreshTTL:    cfg.JWTRefreshExpiration,
	})

	var locker locks.RotationLocker = locks.Noop{}
	if redisClient != nil {
		locker = locks.NewRedisLocker(redisClient, cfg.RotationLockTTL)
		log.Info().Msg("refresh token rotation lock enabled")
	}

	authService, err := services.NewAuthService(repos.Users, passwords, security.NewTokenHasher(cfg.BcryptCost), issuer, locker, m)
	if err != nil {
		return nil, err
	}
	userService := services.NewUserService(repos.Users, repository.NewTransactor(db), authService, passwords, m, services.SeedOptions{
		Enabled: cfg.SeedDefaultTask,
		Title:   cfg.DefaultTaskTitle,
	})

	var suggester services.TaskSuggester
	if cfg.OpenAIAPIKey != "" {
		suggester = services.NewAIService(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.OpenAIBaseURL)
	}
	taskService := services.NewTaskService(repos.Tasks, suggester)

	return handlers.NewRouter(handlers.RouterConfig{
		AuthHandler:   handlers.NewAuthHandler(authService),
		UserHandler:   handlers.NewUserHandler(userService),
		TaskHandler:   handlers.NewTaskHandler(taskService),
		HealthHandler: handlers.NewHealthHandler(db, redisClient, cfg.Version),
		Authenticator: authService,
		Metrics:       m,
		Log:           log,
	}), nil
}

func closeDB(db *gorm.DB, log zerolog.Logger) {
	sqlDB, err := db.DB()
	if err != nil {
		return
	}
	if err := sqlDB.Close(); err != nil {
		log.Warn().Err(err).Msg("failed to close database")
	}
}
