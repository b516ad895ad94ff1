// AngelaMos | 2026
// handler.go

package blog

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/inkpost/internal/core"
	"github.com/carterperez-dev/inkpost/internal/middleware"
)

type Handler struct {
	service   *Service
	owners    middleware.OwnerLookup
	validator *validator.Validate
}

func NewHandler(service *Service, owners middleware.OwnerLookup) *Handler {
	return &Handler{
		service:   service,
		owners:    owners,
		validator: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// RouteGuards are the middleware the blog routes are mounted behind.
type RouteGuards struct {
	Authenticator       func(http.Handler) http.Handler
	AuthorAuthenticator func(http.Handler) http.Handler
	LikeLimiter         func(http.Handler) http.Handler
}

func (h *Handler) RegisterRoutes(r chi.Router, guards RouteGuards) {
	r.Route("/blogs", func(r chi.Router) {
		r.Get("/trending", h.ListTrending)

		r.With(guards.AuthorAuthenticator).Post("/", h.Create)

		r.Route("/{blogID}", func(r chi.Router) {
			r.Use(guards.Authenticator)
			r.Use(middleware.RequireUUIDParam("blogID", "blog"))

			r.Get("/", h.Get)
			r.Get("/likes", h.LikeStatus)
			r.With(guards.LikeLimiter).Post("/like", h.ToggleLike)
			r.With(middleware.RequireOwnerOrStaff(h.owners, "blogID", "blog")).
				Get("/likers", h.Likers)
		})
	})
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateBlogRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	b, err := h.service.Create(r.Context(), middleware.GetUserID(r.Context()), req.Title)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.Created(w, toBlogResponse(b))
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	b, err := h.service.Get(r.Context(), chi.URLParam(r, "blogID"))
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.OK(w, toBlogResponse(b))
}

func (h *Handler) ListTrending(w http.ResponseWriter, r *http.Request) {
	blogs, err := h.service.ListTrending(r.Context())
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, toBlogResponseList(blogs))
}

func (h *Handler) ToggleLike(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.ToggleLike(
		r.Context(),
		chi.URLParam(r, "blogID"),
		middleware.GetUserID(r.Context()),
	)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.OK(w, ToggleLikeResponse{
		Liked:    result.Liked,
		Count:    result.Count,
		Trending: result.Trending,
	})
}

func (h *Handler) LikeStatus(w http.ResponseWriter, r *http.Request) {
	count, liked, err := h.service.LikeStatus(
		r.Context(),
		chi.URLParam(r, "blogID"),
		middleware.GetUserID(r.Context()),
	)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.OK(w, LikeStatusResponse{Count: count, UserLiked: liked})
}

func (h *Handler) Likers(w http.ResponseWriter, r *http.Request) {
	likers, err := h.service.Likers(r.Context(), chi.URLParam(r, "blogID"))
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, toLikersResponse(likers))
}
