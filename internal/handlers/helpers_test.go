package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"github.com/webservertaskmanager/task-api/internal/dto"
	"github.com/webservertaskmanager/task-api/internal/metrics"
	"github.com/webservertaskmanager/task-api/internal/repository"
	"github.com/webservertaskmanager/task-api/internal/security"
	"github.com/webservertaskmanager/task-api/internal/services"
	"github.com/webservertaskmanager/task-api/internal/testutil"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type routerTestEnv struct {
	db      *gorm.DB
	router  *gin.Engine
	metrics *metrics.Metrics
}

type stubSuggester struct {
	tasks []services.SuggestedTask
}

func (s stubSuggester) SuggestTasks(context.Context, string) ([]services.SuggestedTask, error) {
	return s.tasks, nil
}

func setupRouterTestEnv(t *testing.T, suggester services.TaskSuggester) routerTestEnv {
	t.Helper()

	db := testutil.NewTestDB(t)
	repos := repository.New(db)
	m := metrics.New()
	passwords := security.NewPasswordHasher(bcrypt.MinCost)
	issuer := security.NewTokenIssuer(security.TokenConfig{
		AccessSecret:  "access-secret",
		AccessTTL:     15 * time.Minute,
		RefreshSecret: "refresh-secret",
		RefreshTTL:    time.Hour,
	})

	authService, err := services.NewAuthService(repos.Users, passwords, security.NewTokenHasher(bcrypt.MinCost), issuer, nil, m)
	require.NoError(t, err)
	userService := services.NewUserService(repos.Users, repository.NewTransactor(db), authService, passwords, m, services.SeedOptions{})
	taskService := services.NewTaskService(repos.Tasks, suggester)

	router := NewRouter(RouterConfig{
		AuthHandler:   NewAuthHandler(authService),
		UserHandler:   NewUserHandler(userService),
		TaskHandler:   NewTaskHandler(taskService),
		HealthHandler: NewHealthHandler(db, nil, "abc123"),
		Authenticator: authService,
		Metrics:       m,
		Log:           zerolog.Nop(),
	})

	return routerTestEnv{db: db, router: router, metrics: m}
}

// do sends body (marshalled to JSON unless it is nil) with an optional bearer token.
func (e routerTestEnv) do(t *testing.T, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e routerTestEnv) register(t *testing.T, email string) dto.CreateUserResponse {
	t.Helper()

	w := e.do(t, http.MethodPost, "/users", map[string]string{
		"email":    email,
		"username": "tester",
		"password": "password123",
	}, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp dto.CreateUserResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}
