// AngelaMos | 2026
// auth.go

package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/carterperez-dev/inkpost/internal/core"
)

const (
	UserIDKey    contextKey = "user_id"
	UserRoleKey  contextKey = "user_role"
	ClaimsKey    contextKey = "jwt_claims"
	PrincipalKey contextKey = "principal"
)

type TokenVerifier interface {
	VerifyAccessToken(
		ctx context.Context,
		token string,
	) (*AccessTokenClaims, error)
}

type AccessTokenClaims struct {
	TokenID   string
	UserID    string
	Role      core.Role
	ExpiresAt time.Time
}

// Access is the privilege a route asks the trust gate for.
type Access int

const (
	AccessAny Access = iota
	AccessAuthor
)

// Principal is the caller after the trust gate has run. Role comes from
// the stored user, not the token, so a lazy downgrade is visible to the
// rest of the request.
type Principal struct {
	UserID string
	Role   core.Role
}

type Admitter interface {
	Admit(ctx context.Context, userID string, access Access) (*Principal, error)
}

type OwnerLookup interface {
	OwnerID(ctx context.Context, resourceID string) (string, error)
}

func Authenticator(
	verifier TokenVerifier,
	admitter Admitter,
) func(http.Handler) http.Handler {
	return authenticate(verifier, admitter, AccessAny)
}

// AuthorAuthenticator additionally requires an active author subscription
// (or a staff role). An expired author is downgraded before the 403.
func AuthorAuthenticator(
	verifier TokenVerifier,
	admitter Admitter,
) func(http.Handler) http.Handler {
	return authenticate(verifier, admitter, AccessAuthor)
}

func authenticate(
	verifier TokenVerifier,
	admitter Admitter,
	access Access,
) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := ExtractToken(r)

			if token == "" {
				core.JSONError(w, core.TokenMissingError())
				return
			}

			claims, err := verifier.VerifyAccessToken(r.Context(), token)
			if err != nil {
				handleAuthError(w, err)
				return
			}

			principal, err := admitter.Admit(r.Context(), claims.UserID, access)
			if err != nil {
				handleAdmitError(w, err)
				return
			}

			ctx := r.Context()
			ctx = context.WithValue(ctx, UserIDKey, principal.UserID)
			ctx = context.WithValue(ctx, UserRoleKey, principal.Role)
			ctx = context.WithValue(ctx, ClaimsKey, claims)
			ctx = context.WithValue(ctx, PrincipalKey, principal)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func RequireRole(roles ...core.Role) func(http.Handler) http.Handler {
	roleSet := make(map[core.Role]struct{}, len(roles))
	for _, role := range roles {
		roleSet[role] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userRole := GetUserRole(r.Context())

			if userRole == "" {
				core.JSONError(
					w,
					core.UnauthorizedError("authentication required"),
				)
				return
			}

			if _, ok := roleSet[userRole]; !ok {
				core.JSONError(
					w,
					core.ForbiddenError("insufficient permissions"),
				)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireStaff admits ADMIN and CREATOR.
func RequireStaff(next http.Handler) http.Handler {
	return RequireRole(core.RoleAdmin, core.RoleCreator)(next)
}

func RequireCreator(next http.Handler) http.Handler {
	return RequireRole(core.RoleCreator)(next)
}

// RequireOwnerOrStaff lets the request through when the caller owns the
// resource named by the URL parameter, or holds a staff role.
func RequireOwnerOrStaff(
	lookup OwnerLookup,
	param, resource string,
) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := GetUserID(r.Context())
			if userID == "" {
				core.JSONError(
					w,
					core.UnauthorizedError("authentication required"),
				)
				return
			}

			id := chi.URLParam(r, param)
			if !validID(id) {
				core.NotFound(w, resource)
				return
			}

			ownerID, err := lookup.OwnerID(r.Context(), id)
			if err != nil {
				if errors.Is(err, core.ErrNotFound) {
					core.NotFound(w, resource)
					return
				}
				core.InternalServerError(w, err)
				return
			}

			if ownerID != userID && !GetUserRole(r.Context()).IsStaff() {
				core.JSONError(w, core.OwnershipDeniedError())
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func ExtractToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}

	return strings.TrimSpace(parts[1])
}

func handleAuthError(w http.ResponseWriter, err error) {
	if core.IsAppError(err) {
		core.JSONError(w, err)
		return
	}

	switch {
	case errors.Is(err, core.ErrTokenExpired):
		core.JSONError(w, core.TokenExpiredError())
	case errors.Is(err, core.ErrTokenRevoked):
		core.JSONError(w, core.TokenRevokedError())
	default:
		core.JSONError(w, core.TokenInvalidError())
	}
}

func handleAdmitError(w http.ResponseWriter, err error) {
	if core.IsAppError(err) {
		core.JSONError(w, err)
		return
	}

	if errors.Is(err, core.ErrNotFound) {
		core.JSONError(w, core.UserNotFoundError())
		return
	}

	core.InternalServerError(w, err)
}

func GetUserID(ctx context.Context) string {
	if id, ok := ctx.Value(UserIDKey).(string); ok {
		return id
	}
	return ""
}

func GetUserRole(ctx context.Context) core.Role {
	if role, ok := ctx.Value(UserRoleKey).(core.Role); ok {
		return role
	}
	return ""
}

func GetClaims(ctx context.Context) *AccessTokenClaims {
	if claims, ok := ctx.Value(ClaimsKey).(*AccessTokenClaims); ok {
		return claims
	}
	return nil
}

func GetPrincipal(ctx context.Context) *Principal {
	if p, ok := ctx.Value(PrincipalKey).(*Principal); ok {
		return p
	}
	return nil
}

func IsAuthenticated(ctx context.Context) bool {
	return GetUserID(ctx) != ""
}
