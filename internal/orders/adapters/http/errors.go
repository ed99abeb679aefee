package http

import (
	"errors"
	"net/http"

	"github.com/dejobratic/dualwrite/internal/orders/app"
	"github.com/dejobratic/dualwrite/internal/orders/domain"
	"github.com/dejobratic/dualwrite/internal/orders/ports"
)

// statusFor maps the error taxonomy onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ports.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrDomainRule):
		return http.StatusConflict
	case errors.Is(err, app.ErrChaosDisabled):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
