package sales

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/dulces-mila/mila-backend/internal/observability"
	"github.com/dulces-mila/mila-backend/internal/platform/httpx"
	"github.com/dulces-mila/mila-backend/internal/shared"
	"github.com/dulces-mila/mila-backend/internal/users"
)

// Handler wires HTTP endpoints for checkout and sale history.
type Handler struct {
	logger      *slog.Logger
	service     *Service
	validator   *validator.Validate
	metrics     *observability.Metrics
	requireUser func(http.Handler) http.Handler
	rateLimit   func(http.Handler) http.Handler
}

// NewHandler constructs sales handler. metrics and rateLimit may be nil.
func NewHandler(logger *slog.Logger, service *Service, metrics *observability.Metrics, requireUser, rateLimit func(http.Handler) http.Handler) *Handler {
	return &Handler{
		logger:      logger,
		service:     service,
		validator:   validator.New(),
		metrics:     metrics,
		requireUser: requireUser,
		rateLimit:   rateLimit,
	}
}

// MountRoutes registers sales routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.requireUser)
		if h.rateLimit != nil {
			r.Use(h.rateLimit)
		}
		r.Post("/sales", h.checkout)
		r.Post("/sales/checkout", h.checkoutCart)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.requireUser)
		r.Get("/sales", h.history)
		r.Get("/sales/{id}", h.getSale)
	})
}

type checkoutRequest struct {
	Items []ItemRequest `json:"items" validate:"required,min=1,dive"`
}

func (h *Handler) checkout(w http.ResponseWriter, r *http.Request) {
	identity := shared.IdentityFromContext(r.Context())

	var req checkoutRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Argument", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	sale, err := h.service.RealizeSale(r.Context(), identity.UserID, req.Items)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.metrics.ObserveCheckout("ok")
	httpx.JSON(w, http.StatusCreated, sale)
}

func (h *Handler) checkoutCart(w http.ResponseWriter, r *http.Request) {
	identity := shared.IdentityFromContext(r.Context())

	sale, err := h.service.CheckoutCart(r.Context(), identity.UserID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.metrics.ObserveCheckout("ok")
	httpx.JSON(w, http.StatusCreated, sale)
}

func (h *Handler) history(w http.ResponseWriter, r *http.Request) {
	identity := shared.IdentityFromContext(r.Context())

	sales, err := h.service.ListForUser(r.Context(), identity.UserID)
	if err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			h.logger.Error("list sales failed", slog.Any("error", err))
		}
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, sales)
}

func (h *Handler) getSale(w http.ResponseWriter, r *http.Request) {
	identity := shared.IdentityFromContext(r.Context())

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Argument", "invalid sale id")
		return
	}

	sale, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	// A sale belonging to someone else is indistinguishable from a missing
	// one unless the caller is an admin.
	if sale.UserID != identity.UserID && identity.Role != string(users.RoleAdmin) {
		httpx.Problem(w, http.StatusNotFound, "Not Found", "sale not found")
		return
	}
	httpx.JSON(w, http.StatusOK, sale)
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInsufficientStock):
		h.metrics.ObserveCheckout("insufficient_stock")
		httpx.Problem(w, http.StatusConflict, "Insufficient Stock", err.Error())
	case errors.Is(err, shared.ErrTxConflict):
		// Retryable: stock validation happens again on the next attempt.
		h.metrics.ObserveCheckout("conflict")
		httpx.Problem(w, http.StatusConflict, "Conflict", "concurrent checkout detected, retry the request")
	default:
		if !errors.Is(err, shared.ErrNotFound) && !errors.Is(err, shared.ErrInvalidArgument) {
			h.metrics.ObserveCheckout("error")
			h.logger.Error("checkout failed", slog.Any("error", err))
		}
		httpx.RespondError(w, err)
	}
}
