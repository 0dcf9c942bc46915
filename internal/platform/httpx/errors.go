package httpx

import (
	"errors"
	"net/http"

	"github.com/queenscorner/queenscorner-erp/internal/commerce/shared"
)

// Sentinel errors for layers that do not use the typed lifecycle errors.
var (
	ErrNotFound     = errors.New("resource not found")
	ErrDuplicate    = errors.New("duplicate entry")
	ErrValidation   = errors.New("validation failed")
	ErrForbidden    = errors.New("forbidden")
	ErrUnauthorized = errors.New("unauthorized")
)

// RespondError maps domain errors to HTTP responses using RFC7807.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case shared.IsValidation(err) || errors.Is(err, ErrValidation):
		Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case shared.IsInvalidState(err):
		Problem(w, http.StatusConflict, "Invalid State", err.Error())
	case shared.IsInvalidTransition(err):
		Problem(w, http.StatusConflict, "Invalid Transition", err.Error())
	case shared.IsPrecondition(err):
		Problem(w, http.StatusConflict, "Precondition Not Met", err.Error())
	case errors.Is(err, shared.ErrVersionConflict):
		Problem(w, http.StatusConflict, "Version Conflict", err.Error())
	case errors.Is(err, shared.ErrNotFound) || errors.Is(err, ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrDuplicate):
		Problem(w, http.StatusConflict, "Duplicate", err.Error())
	case errors.Is(err, ErrForbidden):
		Problem(w, http.StatusForbidden, "Forbidden", err.Error())
	case errors.Is(err, ErrUnauthorized):
		Problem(w, http.StatusUnauthorized, "Unauthorized", err.Error())
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
