package httpadapter

import (
	"net/http"

	"github.com/dashwise/dashboard-assistant/internal/core/domain"
)

func mapErrorToHTTPStatus(err error) int {
	switch {
	case domain.IsKind(err, domain.ErrValidation):
		return http.StatusBadRequest
	case domain.IsKind(err, domain.ErrAuth):
		return http.StatusUnauthorized
	case domain.IsKind(err, domain.ErrNotFound):
		return http.StatusNotFound
	case domain.IsKind(err, domain.ErrUnsupportedScope), domain.IsKind(err, domain.ErrParsing):
		return http.StatusUnprocessableEntity
	case domain.IsKind(err, domain.ErrTimeout):
		return http.StatusGatewayTimeout
	case domain.IsKind(err, domain.ErrConnection), domain.IsKind(err, domain.ErrData):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
