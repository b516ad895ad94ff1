// AngelaMos | 2026
// handler_test.go

package blog

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/inkpost/internal/core"
	"github.com/carterperez-dev/inkpost/internal/middleware"
)

// as stands in for the authenticator: the caller comes from X-Test-User
// and X-Test-Role.
func as(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := context.WithValue(r.Context(), middleware.UserIDKey, r.Header.Get("X-Test-User"))
		ctx = context.WithValue(ctx, middleware.UserRoleKey, core.Role(r.Header.Get("X-Test-Role")))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func passthrough(next http.Handler) http.Handler { return next }

func newRouter(store *memoryBlogs) http.Handler {
	r := chi.NewRouter()
	NewHandler(newTestService(store), store).RegisterRoutes(r, RouteGuards{
		Authenticator:       as,
		AuthorAuthenticator: as,
		LikeLimiter:         passthrough,
	})
	return r
}

func do(h http.Handler, method, path, userID string, role core.Role, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("X-Test-User", userID)
	req.Header.Set("X-Test-Role", string(role))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestToggleLikeHandler(t *testing.T) {
	store := newMemoryBlogs(freshBlog())
	h := newRouter(store)

	rec := do(h, http.MethodPost, "/blogs/"+blogID+"/like", "u1", core.RoleUser, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Success bool               `json:"success"`
		Data    ToggleLikeResponse `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.True(t, body.Success)
	assert.True(t, body.Data.Liked)
	assert.Equal(t, 1, body.Data.Count)

	rec = do(h, http.MethodGet, "/blogs/"+blogID+"/likes", "u1", core.RoleUser, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var status struct {
		Data LikeStatusResponse `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&status))
	assert.Equal(t, LikeStatusResponse{Count: 1, UserLiked: true}, status.Data)
}

func TestToggleLikeHandlerNotFound(t *testing.T) {
	h := newRouter(newMemoryBlogs())

	rec := do(h, http.MethodPost, "/blogs/"+unknownBlogID+"/like", "u1", core.RoleUser, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), `"NOT_FOUND"`)
}

func TestMalformedBlogIDIsNotFound(t *testing.T) {
	store := newMemoryBlogs(freshBlog())
	h := newRouter(store)

	tests := []struct {
		name   string
		method string
		path   string
		role   core.Role
	}{
		{name: "like", method: http.MethodPost, path: "/blogs/abc/like", role: core.RoleUser},
		{name: "like status", method: http.MethodGet, path: "/blogs/abc/likes", role: core.RoleUser},
		{name: "get", method: http.MethodGet, path: "/blogs/abc", role: core.RoleUser},
		{name: "likers", method: http.MethodGet, path: "/blogs/abc/likers", role: core.RoleAdmin},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(h, tt.method, tt.path, "u1", tt.role, "")
			assert.Equal(t, http.StatusNotFound, rec.Code)
			assert.Contains(t, rec.Body.String(), `"NOT_FOUND"`)
		})
	}
}

func TestLikersOwnerOrStaff(t *testing.T) {
	store := newMemoryBlogs(freshBlog())
	h := newRouter(store)
	do(h, http.MethodPost, "/blogs/"+blogID+"/like", "u1", core.RoleUser, "")

	tests := []struct {
		name   string
		userID string
		role   core.Role
		want   int
	}{
		{name: "owner", userID: "author", role: core.RoleAuthor, want: http.StatusOK},
		{name: "admin", userID: "adm", role: core.RoleAdmin, want: http.StatusOK},
		{name: "creator", userID: "cr", role: core.RoleCreator, want: http.StatusOK},
		{name: "stranger", userID: "u1", role: core.RoleUser, want: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(h, http.MethodGet, "/blogs/"+blogID+"/likers", tt.userID, tt.role, "")
			assert.Equal(t, tt.want, rec.Code)
		})
	}

	rec := do(h, http.MethodGet, "/blogs/"+unknownBlogID+"/likers", "adm", core.RoleAdmin, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateBlogHandler(t *testing.T) {
	store := newMemoryBlogs()
	h := newRouter(store)

	rec := do(h, http.MethodPost, "/blogs", "author", core.RoleAuthor, `{"title":"Hello"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var body struct {
		Data BlogResponse `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "author", body.Data.AuthorID)
	assert.True(t, body.Data.Latest)
	assert.False(t, body.Data.Trending)

	rec = do(h, http.MethodPost, "/blogs", "author", core.RoleAuthor, `{"title":""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
