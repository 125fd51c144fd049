package cart

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/dulces-mila/mila-backend/internal/platform/httpx"
	"github.com/dulces-mila/mila-backend/internal/shared"
)

// Handler wires HTTP endpoints for the cart module. All routes require an
// authenticated user; the cart acted on is always the caller's own.
type Handler struct {
	logger      *slog.Logger
	service     *Service
	validator   *validator.Validate
	requireUser func(http.Handler) http.Handler
}

// NewHandler constructs cart handler.
func NewHandler(logger *slog.Logger, service *Service, requireUser func(http.Handler) http.Handler) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New(), requireUser: requireUser}
}

// MountRoutes registers cart routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.requireUser)
		r.Get("/cart", h.show)
		r.Post("/cart/items", h.addItem)
		r.Delete("/cart/items/{productID}", h.removeItem)
		r.Delete("/cart", h.clear)
	})
}

type cartResponse struct {
	*Cart
	Total int64 `json:"total"`
}

type addItemRequest struct {
	ProductID int64 `json:"productId" validate:"required,gt=0"`
	Quantity  int   `json:"quantity" validate:"required,gt=0"`
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	identity := shared.IdentityFromContext(r.Context())
	c, err := h.service.GetOrCreate(r.Context(), identity.UserID)
	if err != nil {
		h.logger.Error("get cart", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, cartResponse{Cart: c, Total: c.Total()})
}

func (h *Handler) addItem(w http.ResponseWriter, r *http.Request) {
	identity := shared.IdentityFromContext(r.Context())

	var req addItemRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Argument", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	c, err := h.service.AddItem(r.Context(), identity.UserID, req.ProductID, req.Quantity)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, cartResponse{Cart: c, Total: c.Total()})
}

func (h *Handler) removeItem(w http.ResponseWriter, r *http.Request) {
	identity := shared.IdentityFromContext(r.Context())

	productID, err := strconv.ParseInt(chi.URLParam(r, "productID"), 10, 64)
	if err != nil || productID <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Argument", "invalid product id")
		return
	}

	c, err := h.service.RemoveItem(r.Context(), identity.UserID, productID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, cartResponse{Cart: c, Total: c.Total()})
}

func (h *Handler) clear(w http.ResponseWriter, r *http.Request) {
	identity := shared.IdentityFromContext(r.Context())
	if err := h.service.Clear(r.Context(), identity.UserID); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
