// AngelaMos | 2026
// handler.go

package subscription

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

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
	authenticator func(http.Handler) http.Handler,
) {
	r.Route("/subscription", func(r chi.Router) {
		r.Use(authenticator)

		r.Post("/upgrade", h.Upgrade)
		r.Post("/initiate", h.Initiate)
		r.Post("/verify", h.Verify)
	})
}

func (h *Handler) RegisterAdminRoutes(
	r chi.Router,
	authenticator, staffOnly func(http.Handler) http.Handler,
) {
	r.Route("/admin/subscriptions", func(r chi.Router) {
		r.Use(authenticator)
		r.Use(staffOnly)

		r.Get("/", h.List)
	})
}

func (h *Handler) Upgrade(w http.ResponseWriter, r *http.Request) {
	var body PlanBody
	if !h.decode(w, r, &body) {
		return
	}

	updated, err := h.service.Upgrade(
		r.Context(),
		middleware.GetUserID(r.Context()),
		body.Plan,
	)
	if err != nil {
		writeError(w, err)
		return
	}

	core.OK(w, UpgradeResponse{
		Message: "Subscription activated.",
		User:    toSubscriber(updated),
	})
}

func (h *Handler) Initiate(w http.ResponseWriter, r *http.Request) {
	var body PlanBody
	if !h.decode(w, r, &body) {
		return
	}

	checkout, err := h.service.Initiate(
		r.Context(),
		middleware.GetUserID(r.Context()),
		body.Plan,
	)
	if err != nil {
		writeError(w, err)
		return
	}

	core.OK(w, CheckoutResponse{
		PaymentLink: checkout.PaymentLink,
		TxRef:       checkout.TxRef,
		Amount:      checkout.Amount,
		Currency:    checkout.Currency,
		Plan:        string(checkout.Plan),
	})
}

func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	var body VerifyBody
	if !h.decode(w, r, &body) {
		return
	}

	verified, err := h.service.Verify(r.Context(), VerifyRequest{
		UserID:        middleware.GetUserID(r.Context()),
		TransactionID: body.TransactionID,
		TxRef:         body.TxRef,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	core.OK(w, VerifyResponse{
		Message:       "Payment verified. Subscription activated.",
		TxRef:         verified.TxRef,
		TransactionID: verified.TransactionID,
		User:          toSubscriber(verified.User),
	})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	days, _ := strconv.Atoi(r.URL.Query().Get("days"))

	res, err := h.service.ListSubscriptions(r.Context(), days)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, toSubscriptionList(res))
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		core.BadRequest(w, "invalid request body")
		return false
	}

	if err := h.validator.Struct(dst); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return false
	}

	return true
}

func writeError(w http.ResponseWriter, err error) {
	if errors.Is(err, core.ErrNotFound) && !core.IsAppError(err) {
		core.NotFound(w, "user")
		return
	}
	core.JSONError(w, err)
}
