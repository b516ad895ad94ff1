// AngelaMos | 2026
// handler_test.go

package user_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/inkpost/internal/core"
	"github.com/carterperez-dev/inkpost/internal/middleware"
	"github.com/carterperez-dev/inkpost/internal/user"
	"github.com/carterperez-dev/inkpost/internal/user/usertest"
)

var base = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

const (
	adaID     = "a1000000-0000-4000-8000-000000000001"
	bobID     = "b2000000-0000-4000-8000-000000000002"
	cyID      = "c3000000-0000-4000-8000-000000000003"
	deeID     = "d4000000-0000-4000-8000-000000000004"
	unknownID = "e5000000-0000-4000-8000-000000000005"
)

func asUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := context.WithValue(r.Context(), middleware.UserIDKey, r.Header.Get("X-Test-User"))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func passthrough(next http.Handler) http.Handler { return next }

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *core.ErrorBody `json:"error"`
	Meta    *core.Meta      `json:"meta"`
}

func seeded() *usertest.Memory {
	until := base.Add(time.Hour)
	return usertest.NewMemory(
		user.User{ID: adaID, Email: "ada@example.com", Username: "ada", Role: core.RoleUser, CreatedAt: base},
		user.User{
			ID: bobID, Email: "bob@example.com", Username: "bob", Role: core.RoleUser,
			IsSuspended: true, SuspendedUntil: &until, StrikeCount: 2,
			CreatedAt: base.Add(time.Minute),
		},
		user.User{ID: cyID, Email: "cy@example.com", Username: "cy", Role: core.RoleAuthor, CreatedAt: base.Add(2 * time.Minute)},
		user.User{ID: deeID, Email: "dee@example.com", Username: "dee", Role: core.RoleUser, IsBanned: true, CreatedAt: base.Add(3 * time.Minute)},
	)
}

func serve(t *testing.T, store *usertest.Memory, userID, target string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	r := chi.NewRouter()
	h := user.NewHandler(user.NewService(store))
	h.RegisterRoutes(r, asUser)
	h.RegisterAdminRoutes(r, asUser, passthrough)

	req := httptest.NewRequest(http.MethodGet, target, nil)
	req.Header.Set("X-Test-User", userID)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&env))
	return rec, env
}

func TestGetMeIncludesTrustFields(t *testing.T) {
	rec, env := serve(t, seeded(), bobID, "/users/me")
	require.Equal(t, http.StatusOK, rec.Code)

	var got user.UserResponse
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, bobID, got.ID)
	assert.True(t, got.IsSuspended)
	assert.Equal(t, 2, got.StrikeCount)
	require.NotNil(t, got.SuspendedUntil)
}

func TestGetMeUnknownUser(t *testing.T) {
	rec, env := serve(t, seeded(), "ghost", "/users/me")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	require.NotNil(t, env.Error)
}

func TestListUsersFilters(t *testing.T) {
	cases := []struct {
		name  string
		query string
		ids   []string
	}{
		{name: "all newest first", query: "", ids: []string{deeID, cyID, bobID, adaID}},
		{name: "suspended", query: "?suspended=true", ids: []string{bobID}},
		{name: "banned", query: "?banned=true", ids: []string{deeID}},
		{name: "role is case insensitive", query: "?role=author", ids: []string{cyID}},
		{name: "search", query: "?search=ada", ids: []string{adaID}},
		{name: "paged", query: "?page=2&page_size=3", ids: []string{adaID}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec, env := serve(t, seeded(), "admin", "/admin/users"+tc.query)
			require.Equal(t, http.StatusOK, rec.Code)

			var got []user.UserResponse
			require.NoError(t, json.Unmarshal(env.Data, &got))

			ids := make([]string, 0, len(got))
			for _, u := range got {
				ids = append(ids, u.ID)
			}
			assert.Equal(t, tc.ids, ids)
			require.NotNil(t, env.Meta)
		})
	}
}

func TestListUsersRejectsUnknownRole(t *testing.T) {
	rec, env := serve(t, seeded(), "admin", "/admin/users?role=wizard")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	require.NotNil(t, env.Error)
}

func TestGetUser(t *testing.T) {
	rec, env := serve(t, seeded(), "admin", "/admin/users/"+deeID)
	require.Equal(t, http.StatusOK, rec.Code)

	var got user.UserResponse
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.True(t, got.IsBanned)

	rec, _ = serve(t, seeded(), "admin", "/admin/users/"+unknownID)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, env = serve(t, seeded(), "admin", "/admin/users/abc")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)
}
