// AngelaMos | 2026
// params.go

package middleware

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/carterperez-dev/inkpost/internal/core"
)

// RequireUUIDParam answers 404 for a path id that cannot name a row.
// Primary keys are UUIDs, so a malformed id is an absent resource.
func RequireUUIDParam(param, resource string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !validID(chi.URLParam(r, param)) {
				core.NotFound(w, resource)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
