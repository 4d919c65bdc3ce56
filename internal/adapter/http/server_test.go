package http

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"todolist/internal/core/domain"
	"todolist/internal/core/telemetry"
	"todolist/pkg/config"
	"todolist/pkg/logger"
)

func testConfig(t *testing.T) *config.AppConfig {
	cfg := config.GetDefaultConfig()
	cfg.DatabasePath = filepath.Join(t.TempDir(), "todo.db")
	return cfg
}

func newTestRouter(t *testing.T, cfg *config.AppConfig) (*gin.Engine, *Container) {
	gin.SetMode(gin.TestMode)

	metrics := telemetry.NewAppMetrics(prometheus.NewRegistry())

	container, err := NewContainer(context.Background(), cfg, logger.NewNop(), metrics)
	require.NoError(t, err)
	t.Cleanup(func() { container.Close() })

	router := SetupRouterWithConfig(HandlersConfig{
		TodoHandler:   container.TodoHandler,
		HealthHandler: container.HealthHandler,
	}, RouterDeps{
		Config:         cfg,
		Logger:         logger.NewNop(),
		Metrics:        metrics,
		RateLimitStore: container.RateLimitStore,
	})

	return router, container
}

func request(router *gin.Engine, method, path string, form url.Values) *httptest.ResponseRecorder {
	var body *strings.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	} else {
		body = strings.NewReader("")
	}

	req, _ := http.NewRequest(method, path, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRouter_BuyMilkThroughFullStack(t *testing.T) {
	router, _ := newTestRouter(t, testConfig(t))

	w := request(router, "POST", "/add", url.Values{"text": {"Buy milk"}})
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	w = request(router, "GET", "/", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Buy milk")

	w = request(router, "POST", "/delete", url.Values{"id": {"1"}})
	assert.Equal(t, http.StatusSeeOther, w.Code)

	w = request(router, "GET", "/api/todos", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"data":[]}`, w.Body.String())
}

func TestRouter_Health(t *testing.T) {
	router, _ := newTestRouter(t, testConfig(t))

	w := request(router, "GET", "/health", nil)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouter_RateLimit(t *testing.T) {
	cfg := testConfig(t)
	cfg.RateLimitEnabled = true
	cfg.RateLimitConfigs["POST /add"] = config.RateLimitConfig{Requests: 1, Window: time.Minute}

	router, container := newTestRouter(t, cfg)
	require.NotNil(t, container.RateLimitStore)

	assert.Equal(t, http.StatusSeeOther, request(router, "POST", "/add", url.Values{"text": {"a"}}).Code)
	assert.Equal(t, http.StatusTooManyRequests, request(router, "POST", "/add", url.Values{"text": {"b"}}).Code)

	entries, err := container.TodoRepo.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestRouter_EnforceHTTPS(t *testing.T) {
	cfg := testConfig(t)
	cfg.EnforceHTTPS = true

	router, _ := newTestRouter(t, cfg)

	req, _ := http.NewRequest("POST", "/add", strings.NewReader("text=x"))
	req.Host = "todo.example.com"
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusPermanentRedirect, w.Code)
	assert.Equal(t, "https://todo.example.com/add", w.Header().Get("Location"))

	req, _ = http.NewRequest("GET", "/health", nil)
	req.Host = "todo.example.com"
	w = httptest.NewRecorder()
	testRouter, _ := newTestRouter(t, testConfig(t))
	testRouter.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSetupRouterForTests(t *testing.T) {
	router := SetupRouterForTests(HandlersConfig{})

	assert.Equal(t, http.StatusNotFound, request(router, "GET", "/", nil).Code)
}

func TestNewContainer_UnopenableDatabase(t *testing.T) {
	cfg := testConfig(t)
	cfg.DatabasePath = filepath.Join(t.TempDir(), "missing", "dir", "todo.db")

	_, err := NewContainer(context.Background(), cfg, logger.NewNop(), nil)

	assert.True(t, errors.Is(err, domain.ErrPool))
}

func TestNewContainer_UnknownDriver(t *testing.T) {
	cfg := testConfig(t)
	cfg.DatabaseDriver = "mysql"

	_, err := NewContainer(context.Background(), cfg, logger.NewNop(), nil)

	assert.ErrorContains(t, err, "mysql")
}

func TestNewContainer_PostgresWithoutURL(t *testing.T) {
	cfg := testConfig(t)
	cfg.DatabaseDriver = config.DriverPostgres

	_, err := NewContainer(context.Background(), cfg, logger.NewNop(), nil)

	assert.True(t, errors.Is(err, domain.ErrPool))
}

func TestServe_StopsOnCancel(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	srv := &http.Server{Handler: http.NotFoundHandler()}
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- serve(ctx, srv, listener) }()

	resp, err := http.Get("http://" + listener.Addr().String() + "/")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
