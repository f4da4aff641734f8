package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/clipcasthq/clipcast-backend/internal/platform/apperr"
)

// statusFor maps domain sentinels onto HTTP statuses. Scheduling
// saturation is a conflict, not a caller mistake; anything untyped is
// treated as a bad request since these endpoints sit behind trusted
// internal callers.
func statusFor(err error) int {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperr.ErrUnsupportedJobType):
		return http.StatusBadRequest
	case errors.Is(err, apperr.ErrNoSchedulingWindow):
		return http.StatusUnprocessableEntity
	case errors.Is(err, apperr.ErrNoSlotAvailable):
		return http.StatusConflict
	default:
		return http.StatusBadRequest
	}
}

// RespondDomainError picks the status from the error's sentinel and the
// code from apperr.Code, so handlers do not repeat the mapping.
func RespondDomainError(c *gin.Context, err error) {
	RespondError(c, statusFor(err), apperr.Code(err), err)
}
