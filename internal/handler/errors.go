package handler

import (
	"errors"
	"net/http"

	"finplanner/internal/service"
)

// statusFromError отображает ошибки сервисного слоя в HTTP-статусы.
// Недействительный токен намеренно отдается как 404, без деталей.
func statusFromError(err error) int {
	switch {
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrAccessDenied):
		return http.StatusForbidden
	case errors.Is(err, service.ErrVideoExists):
		return http.StatusConflict
	case errors.Is(err, service.ErrInvalidToken):
		return http.StatusNotFound
	case errors.Is(err, service.ErrS3Operation):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
