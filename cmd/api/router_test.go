package api

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/budget-dashboard/pkg/config"
)

func testConfig(t *testing.T) *config.Config {
	dir := t.TempDir()
	return &config.Config{
		Server: config.ServerConfig{
			Host:           "127.0.0.1",
			Port:           0,
			AllowedOrigins: []string{"http://localhost:5173"},
			MaxUploadBytes: 1 << 20,
		},
		Storage: config.StorageConfig{
			Backend:    "file",
			LedgerPath: filepath.Join(dir, "ledger.json"),
			ArchiveDir: filepath.Join(dir, "statements"),
		},
		Import: config.ImportConfig{
			PendingTTL: time.Minute,
			InboxDir:   filepath.Join(dir, "inbox"),
		},
		Observability: config.ObservabilityConfig{MetricsEnabled: true},
	}
}

func newTestDeps(t *testing.T, cfg *config.Config) *Dependencies {
	t.Helper()
	deps, err := InitDependencies(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	t.Cleanup(deps.Cleanup)
	return deps
}

func TestRouter(t *testing.T) {
	deps := newTestDeps(t, testConfig(t))
	router := NewRouter(deps)

	t.Run("health", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	})

	t.Run("upload then metrics", func(t *testing.T) {
		body := "Date,Description,Amount\n01/05/2026,SHELL OIL 123,-40.00\n"
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/imports/?filename=gas.csv", strings.NewReader(body)))
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		txs := deps.Ledger.Transactions()
		require.Len(t, txs, 1)
		assert.Equal(t, "gasoline", txs[0].CategoryID)

		files, err := deps.Archive.List(t.Context())
		require.NoError(t, err)
		assert.Len(t, files, 1)

		rec = httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `budget_imports_total{outcome="imported"} 1`)
	})

	t.Run("dashboard routes", func(t *testing.T) {
		for _, path := range []string{"/api/transactions", "/api/summary", "/api/presets", "/api/categories/suggest?q=shell"} {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
			assert.Equal(t, http.StatusOK, rec.Code, path)
		}
	})

	t.Run("cors preflight", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/api/imports/", nil)
		req.Header.Set("Origin", "http://localhost:5173")
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
	})
}

func TestRouter_RateLimit(t *testing.T) {
	cfg := testConfig(t)
	cfg.Server.RateLimitPerSecond = 1
	cfg.Server.RateLimitBurst = 1
	router := NewRouter(newTestDeps(t, cfg))

	codes := make([]int, 3)
	for i := range codes {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
		codes[i] = rec.Code
	}
	assert.Equal(t, http.StatusOK, codes[0])
	assert.Contains(t, codes[1:], http.StatusTooManyRequests)
}

func TestInitDependencies_BadRulesFile(t *testing.T) {
	cfg := testConfig(t)
	cfg.Import.RulesFile = filepath.Join(t.TempDir(), "missing.yaml")

	_, err := InitDependencies(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	assert.Error(t, err)
}
