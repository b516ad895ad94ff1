// AngelaMos | 2026
// ratelimit_test.go

package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) }

func asUser(userID string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := context.WithValue(r.Context(), UserIDKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func TestLocalLimiterPerUserAndEndpoint(t *testing.T) {
	rl := NewRateLimiter(nil, RateLimitConfig{
		Limit:   PerMinute(1, 2),
		KeyFunc: KeyByUserAndEndpoint,
	})
	limited := rl.Handler(http.HandlerFunc(okHandler))

	like := func(userID, blogID string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/v1/blogs/"+blogID+"/like", nil)
		asUser(userID, limited).ServeHTTP(rec, req)
		return rec
	}

	const b1 = "0b6f5a0e-1c7d-4d8e-9f00-000000000001"
	const b2 = "0b6f5a0e-1c7d-4d8e-9f00-000000000002"

	assert.Equal(t, http.StatusOK, like("u1", b1).Code)
	assert.Equal(t, http.StatusOK, like("u1", b2).Code)

	rec := like("u1", b1)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))
	assert.Contains(t, rec.Body.String(), `"RATE_LIMITED"`)

	assert.Equal(t, http.StatusOK, like("u2", b1).Code)
}

func TestRateLimiterBypass(t *testing.T) {
	rl := NewRateLimiter(nil, RateLimitConfig{
		Limit:      PerMinute(1, 1),
		BypassFunc: func(r *http.Request) bool { return r.URL.Path == "/healthz" },
	})
	h := rl.Handler(http.HandlerFunc(okHandler))

	for range 5 {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestNormalizeEndpoint(t *testing.T) {
	assert.Equal(t, "/v1/blogs/{id}/like",
		normalizeEndpoint("/v1/blogs/0b6f5a0e-1c7d-4d8e-9f00-000000000001/like"))
	assert.Equal(t, "/v1/users/{id}", normalizeEndpoint("/v1/users/42"))
	assert.Equal(t, "/v1/blogs/trending", normalizeEndpoint("/v1/blogs/trending"))
	assert.Equal(t, "/v1/blogs/xxxxxxxx-xxxx-xxxx-xxxx-xxxxxxxxxxxx",
		normalizeEndpoint("/v1/blogs/xxxxxxxx-xxxx-xxxx-xxxx-xxxxxxxxxxxx"))
}

func TestKeyByUserAndEndpointSharesBucketAcrossPosts(t *testing.T) {
	key := func(userID, path string) string {
		var got string
		h := asUser(userID, http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
			got = KeyByUserAndEndpoint(r)
		}))
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, path, nil))
		return got
	}

	a := key("u1", "/v1/blogs/0b6f5a0e-1c7d-4d8e-9f00-000000000001/like")
	b := key("u1", "/v1/blogs/0b6f5a0e-1c7d-4d8e-9f00-000000000002/like")

	assert.Equal(t, "ratelimit:user:u1:endpoint:/v1/blogs/{id}/like", a)
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, key("u2", "/v1/blogs/0b6f5a0e-1c7d-4d8e-9f00-000000000001/like"))
}

func TestRequestIDPropagates(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	h.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", seen)
	assert.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Len(t, seen, 36)
	assert.Equal(t, seen, rec.Header().Get(RequestIDHeader))
}
