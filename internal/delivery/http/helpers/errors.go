package helpers

import (
	"errors"
	"log/slog"
	"net/http"

	"studyhub/internal/domain"
)

// WriteDomainError maps a service error to its HTTP status and error code.
// Unrecognized errors are logged and reported as 500 without their text.
func WriteDomainError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		writeError(w, http.StatusBadRequest, &APIError{
			Code:    ErrCodeValidationFailed,
			Message: verr.Error(),
			Fields:  verr.Fields,
		})
	case errors.Is(err, domain.ErrInvalidInput):
		WriteJSONError(w, http.StatusBadRequest, ErrCodeValidationFailed, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		WriteJSONError(w, http.StatusNotFound, ErrCodeNotFound, "resource not found")
	case errors.Is(err, domain.ErrForbidden):
		WriteJSONError(w, http.StatusForbidden, ErrCodeForbidden, "not allowed")
	case errors.Is(err, domain.ErrEnrollmentTransition):
		WriteJSONError(w, http.StatusConflict, ErrCodeConflict, "enrollment change not allowed in the current state")
	case errors.Is(err, domain.ErrStudyState):
		WriteJSONError(w, http.StatusConflict, ErrCodeConflict, "study change not allowed in the current state")
	case errors.Is(err, domain.ErrDuplicatePath):
		WriteJSONError(w, http.StatusConflict, ErrCodeConflict, "study path already in use")
	default:
		logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		WriteJSONError(w, http.StatusInternalServerError, ErrCodeInternalError, "internal error")
	}
}
