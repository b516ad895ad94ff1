// AngelaMos | 2026
// handler.go

package moderation

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/inkpost/internal/core"
	"github.com/carterperez-dev/inkpost/internal/middleware"
)

type Handler struct {
	service   *Service
	validator *validator.Validate
}

func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator, staffOnly func(http.Handler) http.Handler,
) {
	r.Route("/moderation/users/{userID}", func(r chi.Router) {
		r.Use(authenticator)
		r.Use(staffOnly)
		r.Use(middleware.RequireUUIDParam("userID", "user"))

		r.Patch("/strike", h.Strike)
		r.Post("/unsuspend", h.Unsuspend)
	})
}

func (h *Handler) Strike(w http.ResponseWriter, r *http.Request) {
	var body StrikeBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(body); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	result, err := h.service.ApplyStrike(r.Context(), StrikeRequest{
		ActorID:       middleware.GetUserID(r.Context()),
		TargetID:      chi.URLParam(r, "userID"),
		ManualBan:     body.ManualBan,
		DurationHours: body.DurationHours,
		Reason:        body.Reason,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	core.OK(w, ModerationResponse{
		Message: result.Message,
		User:    toModeratedUser(result.User),
	})
}

func (h *Handler) Unsuspend(w http.ResponseWriter, r *http.Request) {
	updated, err := h.service.Unsuspend(
		r.Context(),
		middleware.GetUserID(r.Context()),
		chi.URLParam(r, "userID"),
	)
	if err != nil {
		writeError(w, err)
		return
	}

	core.OK(w, ModerationResponse{
		Message: "User has been unsuspended.",
		User:    toModeratedUser(updated),
	})
}

func writeError(w http.ResponseWriter, err error) {
	if errors.Is(err, core.ErrNotFound) && !core.IsAppError(err) {
		core.NotFound(w, "user")
		return
	}
	core.JSONError(w, err)
}
