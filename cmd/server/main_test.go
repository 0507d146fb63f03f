package main

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"mall-be/internal/auth"
	"mall-be/internal/config"
	"mall-be/internal/middleware"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		AppPort:        "8080",
		AppEnv:         "test",
		JWTSecret:      "test-secret",
		PortOneShopID:  "imp00000000",
		PortOneTimeout: time.Second,
		WebhookIPs:     config.DefaultWebhookIPs,
		TrustedOrigins: []string{"https://shop.example.com"},
	}
}

func newTestRouter(t *testing.T) (http.Handler, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	router, cleanup := newServer(ctx, testConfig(), db)
	t.Cleanup(cleanup)
	return router, mock
}

func TestSetupRouter(t *testing.T) {
	router, mock := newTestRouter(t)

	t.Run("Health Check", func(t *testing.T) {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), "OK")
		assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))
	})

	t.Run("Metrics", func(t *testing.T) {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
		rr = httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), "go_goroutines")
	})

	t.Run("Cart Requires Auth", func(t *testing.T) {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/cart/", nil))

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("Untrusted Origin", func(t *testing.T) {
		tok, err := auth.IssueToken("test-secret", 7, "", time.Hour)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodPost, "/orders/new/", nil)
		req.Header.Set("Authorization", "Bearer "+tok)
		req.Header.Set("Origin", "https://evil.example.net")
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusForbidden, rr.Code)
	})

	t.Run("Malformed Order ID", func(t *testing.T) {
		tok, _ := auth.IssueToken("test-secret", 7, "", time.Hour)

		req := httptest.NewRequest(http.MethodGet, "/orders/abc/", nil)
		req.Header.Set("Authorization", "Bearer "+tok)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("Webhook Method", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/payments/webhook/", nil)
		req.Header.Set("X-Forwarded-For", config.DefaultWebhookIPs[0])
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
	})

	t.Run("Webhook Forbidden IP", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/payments/webhook/",
			strings.NewReader(`{"merchant_uid":"0f8fad5bd9cb469fa16570867728950e"}`))
		req.Header.Set("Content-Type", "application/json")
		req.RemoteAddr = "10.1.2.3:4000"
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusForbidden, rr.Code)
		assert.Contains(t, rr.Body.String(), middleware.ForbiddenIPMessage)
	})

	t.Run("Webhook Test Ping", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/payments/webhook/",
			strings.NewReader(`{"merchant_uid":"merchant_123456789"}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Forwarded-For", config.DefaultWebhookIPs[1])
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "test ok", rr.Body.String())
	})

	// none of the requests above reach the database
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRun(t *testing.T) {
	origInitDB := initDBFunc
	defer func() { initDBFunc = origInitDB }()
	initDBFunc = func(cfg *config.Config) *sql.DB {
		db, _, _ := sqlmock.New()
		return db
	}

	origStartServer := startServerFunc
	defer func() { startServerFunc = origStartServer }()
	var addr string
	startServerFunc = func(srv *http.Server) error {
		addr = srv.Addr
		return http.ErrServerClosed
	}

	t.Setenv("APP_PORT", "9090")
	t.Setenv("APP_ENV", "test")
	t.Setenv("DB_HOST", "localhost")
	t.Setenv("DB_PORT", "5432")
	t.Setenv("DB_USER", "user")
	t.Setenv("DB_PASSWORD", "pass")
	t.Setenv("DB_NAME", "db")
	t.Setenv("KAFKA_BROKERS", "")

	assert.NoError(t, run())
	assert.Equal(t, ":9090", addr)
}
