// AngelaMos | 2026
// params_test.go

package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"

	"github.com/carterperez-dev/inkpost/internal/core"
)

type countingOwners struct {
	calls int
}

func (o *countingOwners) OwnerID(_ context.Context, _ string) (string, error) {
	o.calls++
	return "u1", nil
}

func TestRequireUUIDParam(t *testing.T) {
	r := chi.NewRouter()
	r.With(RequireUUIDParam("userID", "user")).Get("/users/{userID}", okHandler)

	tests := []struct {
		name   string
		path   string
		status int
	}{
		{name: "uuid", path: "/users/" + ownedBlogID, status: http.StatusOK},
		{name: "word", path: "/users/abc", status: http.StatusNotFound},
		{name: "numeric", path: "/users/42", status: http.StatusNotFound},
		{name: "truncated uuid", path: "/users/7e6d5c4b-3a29-4180", status: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

func TestOwnerCheckSkipsLookupForMalformedID(t *testing.T) {
	owners := &countingOwners{}
	r := chi.NewRouter()
	r.With(
		func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				ctx := context.WithValue(r.Context(), UserIDKey, "u1")
				ctx = context.WithValue(ctx, UserRoleKey, core.RoleAdmin)
				next.ServeHTTP(w, r.WithContext(ctx))
			})
		},
		RequireOwnerOrStaff(owners, "blogID", "blog"),
	).Get("/blogs/{blogID}/likers", okHandler)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/blogs/abc/likers", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "NOT_FOUND")
	assert.Zero(t, owners.calls)
}
