package middleware

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/webservertaskmanager/task-api/internal/metrics"
	"github.com/webservertaskmanager/task-api/internal/models"
	"github.com/webservertaskmanager/task-api/internal/services"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeAuthenticator struct {
	user *models.User
	err  error
	seen string
}

func (f *fakeAuthenticator) Authenticate(_ context.Context, token string) (*models.User, error) {
	f.seen = token
	return f.user, f.err
}

func newAuthRouter(auth Authenticator) *gin.Engine {
	r := gin.New()
	r.Use(RequestID(), Logger(zerolog.Nop()), Recovery())
	r.GET("/private", RequireAuth(auth), func(c *gin.Context) {
		user, ok := GetUser(c)
		if !ok {
			c.Status(http.StatusTeapot)
			return
		}
		userID, _ := GetUserID(c)
		c.JSON(http.StatusOK, gin.H{"id": user.ID, "userId": userID})
	})
	return r
}

func get(r http.Handler, path, authorization string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequireAuth_SetsUser(t *testing.T) {
	auth := &fakeAuthenticator{user: &models.User{ID: "user-1"}}

	w := get(newAuthRouter(auth), "/private", "Bearer token-1")

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":"user-1","userId":"user-1"}`, w.Body.String())
	assert.Equal(t, "token-1", auth.seen)
}

func TestRequireAuth_SchemeIsCaseInsensitive(t *testing.T) {
	auth := &fakeAuthenticator{user: &models.User{ID: "user-1"}}

	w := get(newAuthRouter(auth), "/private", "bearer token-1")

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireAuth_Rejections(t *testing.T) {
	for name, header := range map[string]string{
		"missing":      "",
		"basic scheme": "Basic dXNlcjpwYXNz",
		"empty token":  "Bearer   ",
		"no separator": "Bearertoken",
	} {
		t.Run(name, func(t *testing.T) {
			auth := &fakeAuthenticator{user: &models.User{ID: "user-1"}}

			w := get(newAuthRouter(auth), "/private", header)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.JSONEq(t, `{"code":"UNAUTHORIZED","message":"Not authorized"}`, w.Body.String())
			assert.Empty(t, auth.seen)
		})
	}
}

func TestRequireAuth_InvalidToken(t *testing.T) {
	w := get(newAuthRouter(&fakeAuthenticator{err: services.ErrInvalidToken}), "/private", "Bearer expired")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"code":"UNAUTHORIZED","message":"Not authorized"}`, w.Body.String())
}

func TestRequireAuth_StoreFailureIsInternal(t *testing.T) {
	w := get(newAuthRouter(&fakeAuthenticator{err: errors.New("db down")}), "/private", "Bearer token")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "db down")
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	generated := get(r, "/", "")
	assert.Len(t, generated.Header().Get("X-Request-Id"), 36)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-Id", "upstream-id")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "upstream-id", w.Header().Get("X-Request-Id"))
}

func TestLogger_WritesRequestLine(t *testing.T) {
	var buf bytes.Buffer
	r := gin.New()
	r.Use(RequestID(), Logger(zerolog.New(&buf)))
	r.GET("/missing", func(c *gin.Context) { c.Status(http.StatusNotFound) })

	get(r, "/missing", "")

	line := buf.String()
	assert.Contains(t, line, `"level":"warn"`)
	assert.Contains(t, line, `"status":404`)
	assert.Contains(t, line, `"path":"/missing"`)
	assert.Contains(t, line, `"request_id":"`)
}

func TestRecovery(t *testing.T) {
	var buf bytes.Buffer
	r := gin.New()
	r.Use(RequestID(), Logger(zerolog.New(&buf)), Recovery())
	r.GET("/panic", func(c *gin.Context) { panic("boom") })

	w := get(r, "/panic", "")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"code":"INTERNAL_ERROR","message":"Internal server error"}`, w.Body.String())
	assert.Contains(t, buf.String(), "recovered from panic")
}

func TestMetrics_UsesRouteTemplate(t *testing.T) {
	m := metrics.New()
	r := gin.New()
	r.Use(Metrics(m))
	r.GET("/tasks/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	get(r, "/tasks/1", "")
	get(r, "/tasks/2", "")
	get(r, "/other", "")

	assert.Equal(t, 2, testutil.CollectAndCount(m.RequestDuration))
}
