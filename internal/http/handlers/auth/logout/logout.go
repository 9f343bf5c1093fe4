// Package logout реализует HTTP-обработчик выхода из текущей сессии.
package logout

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/account-manager/internal/http/response"
)

// Service описывает завершение сессии.
type Service interface {
	Logout(ctx context.Context)
}

// Handler обрабатывает POST-запросы выхода.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP закрывает сессию. Выход без сессии тоже успешен.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.logout"

	h.service.Logout(r.Context())

	h.log.Info("logged out",
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)
	render.JSON(w, r, response.OK())
}
