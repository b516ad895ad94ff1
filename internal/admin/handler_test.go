// AngelaMos | 2026
// handler_test.go

package admin

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStats struct {
	since time.Time
	err   error
}

func (f *fakeStats) PlatformStats(_ context.Context, since, _ time.Time) (*PlatformStats, error) {
	f.since = since
	if f.err != nil {
		return nil, f.err
	}
	return &PlatformStats{TotalUsers: 12, TotalAuthors: 3, NewUsers: 4}, nil
}

func passthrough(next http.Handler) http.Handler { return next }

func newRouter(stats StatsStore, now time.Time) http.Handler {
	h := NewHandler(HandlerConfig{
		Stats:  stats,
		DBPing: func(context.Context) error { return nil },
	})
	h.now = func() time.Time { return now }

	r := chi.NewRouter()
	h.RegisterRoutes(r, passthrough, passthrough)
	return r
}

func TestPlatformStatsWindow(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		query string
		days  int
	}{
		{query: "", days: 30},
		{query: "?days=7", days: 7},
		{query: "?days=100", days: 100},
		{query: "?days=365", days: 30},
		{query: "?days=abc", days: 30},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			stats := &fakeStats{}
			rec := httptest.NewRecorder()
			newRouter(stats, now).ServeHTTP(rec,
				httptest.NewRequest(http.MethodGet, "/admin/stats"+tt.query, nil))

			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, now.AddDate(0, 0, -tt.days), stats.since)

			var body struct {
				Data PlatformStatsResponse `json:"data"`
			}
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
			assert.Equal(t, tt.days, body.Data.TimeframeDays)
			assert.Equal(t, 12, body.Data.Stats.TotalUsers)
			assert.Equal(t, 3, body.Data.Stats.TotalAuthors)
		})
	}
}

func TestPlatformStatsStoreFailure(t *testing.T) {
	rec := httptest.NewRecorder()
	newRouter(&fakeStats{err: errors.New("conn reset")}, time.Now()).ServeHTTP(rec,
		httptest.NewRequest(http.MethodGet, "/admin/stats", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "conn reset")
}

func TestSystemStats(t *testing.T) {
	rec := httptest.NewRecorder()
	newRouter(&fakeStats{}, time.Now()).ServeHTTP(rec,
		httptest.NewRequest(http.MethodGet, "/admin/stats/system", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data SystemStatsResponse `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.True(t, body.Data.Database.Healthy)
	assert.False(t, body.Data.Redis.Healthy)
	assert.NotEmpty(t, body.Data.Runtime.GoVersion)
}
