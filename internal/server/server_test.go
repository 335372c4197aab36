package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aman-churiwal/getyoursite/internal/config"
	"github.com/aman-churiwal/getyoursite/internal/models"
	"github.com/aman-churiwal/getyoursite/internal/notify"
	"github.com/aman-churiwal/getyoursite/internal/storage"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Port: "0", Environment: "test", CORSOrigin: "*"},
		RateLimit: config.RateLimitConfig{
			Backend:       "memory",
			Algorithm:     "fixed_window",
			Limit:         5,
			Window:        15 * time.Minute,
			SweepInterval: time.Minute,
		},
		Auth: config.AuthConfig{
			JWTSecret:     "secret",
			TokenTTL:      time.Hour,
			AdminUsername: "admin",
			AdminPassword: "hunter2",
		},
		Mail:    config.MailConfig{Timeout: time.Second},
		Content: config.ContentConfig{CacheTTL: time.Minute},
	}
}

func newTestDB(t *testing.T) *storage.Postgres {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	pg := storage.FromGorm(db)
	require.NoError(t, pg.AutoMigrate())
	return pg
}

func newTestServer(t *testing.T, cfg *config.Config, rdb *storage.RedisClient) *Server {
	t.Helper()

	srv, err := New(Options{
		Config:   cfg,
		Postgres: newTestDB(t),
		Redis:    rdb,
		Notifier: notify.Nop{},
	})
	require.NoError(t, err)
	require.NoError(t, srv.EnsureAdmin(context.Background()))
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })

	return srv
}

func request(t *testing.T, srv *Server, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	srv.GetRouter().ServeHTTP(w, req)
	return w
}

func login(t *testing.T, srv *Server) string {
	t.Helper()

	w := request(t, srv, http.MethodPost, "/api/admin/login", map[string]string{
		"username": "admin", "password": "hunter2",
	}, "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Token
}

func TestServer_ContactToAdminInbox(t *testing.T) {
	srv := newTestServer(t, testConfig(), nil)

	w := request(t, srv, http.MethodPost, "/api/contact", map[string]string{
		"name":    "Jane",
		"email":   "jane@example.com",
		"subject": "Quote",
		"message": "<b>Hi</b>",
	}, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	token := login(t, srv)

	w = request(t, srv, http.MethodGet, "/api/admin/messages", nil, token)
	require.Equal(t, http.StatusOK, w.Code)

	var inbox []models.Submission
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &inbox))
	require.Len(t, inbox, 1)
	assert.Equal(t, "&lt;b&gt;Hi&lt;&#x2F;b&gt;", inbox[0].Message)
	assert.Equal(t, "192.0.2.1", inbox[0].ClientAddress)
}

func TestServer_AdminRoutesRequireToken(t *testing.T) {
	srv := newTestServer(t, testConfig(), nil)

	for _, route := range []struct{ method, path string }{
		{http.MethodGet, "/api/admin/verify"},
		{http.MethodGet, "/api/admin/messages"},
		{http.MethodPut, "/api/admin/messages/read"},
		{http.MethodDelete, "/api/admin/messages/abc"},
		{http.MethodPut, "/api/admin/content"},
		{http.MethodGet, "/api/admin/status"},
	} {
		w := request(t, srv, route.method, route.path, nil, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code, route.path)
	}
}

func TestServer_LoginIsRateLimited(t *testing.T) {
	srv := newTestServer(t, testConfig(), nil)

	for i := 0; i < 5; i++ {
		w := request(t, srv, http.MethodPost, "/api/admin/login", map[string]string{
			"username": "admin", "password": "wrong",
		}, "")
		require.Equal(t, http.StatusUnauthorized, w.Code)
	}

	w := request(t, srv, http.MethodPost, "/api/admin/login", map[string]string{
		"username": "admin", "password": "hunter2",
	}, "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	// the contact budget is separate
	w = request(t, srv, http.MethodPost, "/api/contact", map[string]string{
		"name": "Jane", "email": "jane@example.com", "message": "hi",
	}, "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestServer_HealthAndMetrics(t *testing.T) {
	srv := newTestServer(t, testConfig(), nil)

	w := request(t, srv, http.MethodGet, "/health", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"healthy"`)

	request(t, srv, http.MethodGet, "/api", nil, "")

	w = request(t, srv, http.MethodGet, "/metrics", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "http_requests_total")
}

func TestServer_RedisBackend(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb, err := storage.NewRedis(mr.Addr(), "", 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdb.Close() })

	cfg := testConfig()
	cfg.Redis.Enabled = true
	cfg.RateLimit.Backend = "redis"
	cfg.RateLimit.Limit = 1

	srv := newTestServer(t, cfg, rdb)
	body := map[string]string{"name": "Jane", "email": "jane@example.com", "message": "hi"}

	w := request(t, srv, http.MethodPost, "/api/contact", body, "")
	require.Equal(t, http.StatusOK, w.Code)
	w = request(t, srv, http.MethodPost, "/api/contact", body, "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	w = request(t, srv, http.MethodGet, "/api/content", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, mr.Exists("content:site"))

	w = request(t, srv, http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"redis":true`)

	mr.SetError("LOADING redis is loading the dataset in memory")
	w = request(t, srv, http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestNew_RedisBackendWithoutClient(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimit.Backend = "redis"

	_, err := New(Options{Config: cfg, Postgres: newTestDB(t)})
	assert.Error(t, err)
}
