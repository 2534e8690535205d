package handler

import (
	"errors"
	"log"
	"net/http"

	"finplanner/internal/service"
)

// AccessHandler обслуживает одноразовые переходы по ссылкам из писем.
// Единственный маршрут без аутентификации: получателя идентифицирует токен.
type AccessHandler struct {
	accessService *service.AccessService
}

func NewAccessHandler(accessService *service.AccessService) *AccessHandler {
	return &AccessHandler{accessService: accessService}
}

// ViewRedirect разрешает токен и перенаправляет на подписанную ссылку
// скачивания. Для недействительного токена ответ не раскрывает, был ли
// токен использован ранее или не существовал вовсе.
func (h *AccessHandler) ViewRedirect(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")

	downloadURL, err := h.accessService.ResolveAndConsume(r.Context(), token)
	if err != nil {
		if !errors.Is(err, service.ErrInvalidToken) {
			log.Printf("[ViewRedirect] Failed to resolve token: %v", err)
		}
		http.Error(w, "Not found", statusFromError(err))
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	http.Redirect(w, r, downloadURL, http.StatusFound)
}
