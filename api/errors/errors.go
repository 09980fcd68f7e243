package errors

import (
	"net/http"

	"github.com/pkg/errors"

	mailsort_errors "github.com/customeros/mailsort/internal/errors"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

// StatusFor maps engine errors onto HTTP status codes.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, mailsort_errors.ErrRunInProgress),
		errors.Is(err, mailsort_errors.ErrNoActiveRun):
		return http.StatusConflict
	case errors.Is(err, mailsort_errors.ErrInvalidRule),
		errors.Is(err, mailsort_errors.ErrInvalidRuleFormat):
		return http.StatusUnprocessableEntity
	case errors.Is(err, mailsort_errors.ErrConnectionLost),
		errors.Is(err, mailsort_errors.ErrConnectionTimeout):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func NewErrorResponse(err error) ErrorResponse {
	return ErrorResponse{Error: err.Error()}
}
