package httpx

import (
	"errors"
	"net/http"

	"github.com/dulces-mila/mila-backend/internal/shared"
)

// RespondError maps domain errors to HTTP responses using RFC7807.
// Module-specific errors (e.g. insufficient stock) are mapped by their own
// handlers before falling through to this.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, shared.ErrInvalidArgument):
		Problem(w, http.StatusBadRequest, "Invalid Argument", err.Error())
	case errors.Is(err, shared.ErrDuplicate):
		Problem(w, http.StatusConflict, "Duplicate", err.Error())
	case errors.Is(err, shared.ErrInvalidCredentials):
		Problem(w, http.StatusUnauthorized, "Unauthorized", err.Error())
	case errors.Is(err, shared.ErrTxConflict):
		Problem(w, http.StatusConflict, "Conflict", "concurrent update detected, retry the request")
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
