package routes

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/testizer/funnel-sync-backend/internal/analytics"
	"github.com/testizer/funnel-sync-backend/internal/funnels"
	"github.com/testizer/funnel-sync-backend/pkg/config"
	"github.com/testizer/funnel-sync-backend/pkg/logger"
)

type stubPinger struct {
	err error
}

func (p *stubPinger) Ping(context.Context) error { return p.err }

func setupRouter(t *testing.T) http.Handler {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	schema := `
CREATE TABLE funnel_entries (
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL,
  funnel_type TEXT NOT NULL,
  user_id INTEGER,
  test_id INTEGER,
  entered_at DATETIME,
  certificate_purchased BOOLEAN NOT NULL DEFAULT 0,
  certificate_purchased_at DATETIME
);`
	require.NoError(t, db.Exec(schema).Error)

	seed := []struct {
		email     string
		purchased bool
	}{
		{"a@example.com", true},
		{"b@example.com", false},
	}
	for _, row := range seed {
		require.NoError(t, db.Exec(
			"INSERT INTO funnel_entries (id, email, funnel_type, entered_at, certificate_purchased) VALUES (?, ?, 'language', ?, ?)",
			uuid.NewString(), row.email, time.Now().UTC(), row.purchased,
		).Error)
	}

	analyticsService, err := analytics.NewService(funnels.NewRepository(db))
	require.NoError(t, err)

	return NewRouter(RouterParams{
		Config:    &config.Config{App: config.AppConfig{Env: "test"}},
		Logger:    logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
		DB:        &stubPinger{},
		Analytics: analyticsService,
	})
}

func TestHealthLive(t *testing.T) {
	router := setupRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "test", rec.Header().Get("X-Testizer-Env"))
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
}

func TestHealthReadyReportsFailingDependency(t *testing.T) {
	router := NewRouter(RouterParams{
		Config: &config.Config{App: config.AppConfig{Env: "test"}},
		Logger: logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
		DB:     &stubPinger{err: errors.New("connection refused")},
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "TRANSIENT", body.Error.Code)
}

func TestConversionReportSummary(t *testing.T) {
	router := setupRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/reports/conversion", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data []analytics.Report `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Data, 1)
	assert.Equal(t, int64(2), body.Data[0].TotalEntries)
	assert.Equal(t, int64(1), body.Data[0].TotalPurchased)
	assert.Equal(t, 0.5, body.Data[0].ConversionRate)
}

func TestConversionReportSingleFunnel(t *testing.T) {
	router := setupRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/reports/conversion?funnel=non_language&days=0", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data analytics.Report `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "non_language", string(body.Data.FunnelType))
	assert.Zero(t, body.Data.TotalEntries)
}

func TestConversionReportRejectsUnknownFunnel(t *testing.T) {
	router := setupRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/reports/conversion?funnel=bogus", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestConversionReportRejectsNonNumericDays(t *testing.T) {
	router := setupRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/reports/conversion?days=soon", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMetricsEndpointExposed(t *testing.T) {
	router := setupRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
}
