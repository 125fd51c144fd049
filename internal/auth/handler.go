package auth

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/dulces-mila/mila-backend/internal/platform/httpx"
	"github.com/dulces-mila/mila-backend/internal/shared"
	"github.com/dulces-mila/mila-backend/internal/users"
)

// Handler wires the authentication endpoints.
type Handler struct {
	logger    *slog.Logger
	users     *users.Service
	tokens    *TokenStore
	mw        *Middleware
	validator *validator.Validate
	rateLimit func(http.Handler) http.Handler
}

// NewHandler constructs Handler. rateLimit may be nil.
func NewHandler(logger *slog.Logger, userService *users.Service, tokens *TokenStore, mw *Middleware, rateLimit func(http.Handler) http.Handler) *Handler {
	return &Handler{
		logger:    logger,
		users:     userService,
		tokens:    tokens,
		mw:        mw,
		validator: validator.New(),
		rateLimit: rateLimit,
	}
}

// MountRoutes registers /auth endpoints.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		if h.rateLimit != nil {
			r.Use(h.rateLimit)
		}
		r.Post("/auth/login", h.handleLogin)
		r.Post("/auth/register", h.handleRegister)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.mw.RequireUser)
		r.Post("/auth/logout", h.handleLogout)
		r.Get("/auth/me", h.handleMe)
	})
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type loginResponse struct {
	Token string      `json:"token"`
	User  *users.User `json:"user"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Argument", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	user, err := h.users.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	token, err := h.tokens.Issue(r.Context(), shared.Identity{UserID: user.ID, Email: user.Email, Role: string(user.Role)})
	if err != nil {
		h.logger.Error("issue token", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, loginResponse{Token: token, User: user})
}

type registerRequest struct {
	Name     string `json:"name" validate:"required,max=50"`
	Email    string `json:"email" validate:"required,email,max=100"`
	Password string `json:"password" validate:"required,min=8"`
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Argument", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	user, err := h.users.Register(r.Context(), users.RegisterInput{Name: req.Name, Email: req.Email, Password: req.Password})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, user)
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.tokens.Revoke(r.Context(), bearerToken(r)); err != nil {
		h.logger.Warn("revoke token", slog.Any("error", err))
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	identity := shared.IdentityFromContext(r.Context())
	user, err := h.users.Get(r.Context(), identity.UserID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, user)
}
