// Package session отдаёт состояние текущей сессии. Им пользуются страницы
// входа и регистрации и клиент, которому нужно знать, вошёл ли пользователь.
package session

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/account-manager/internal/http/response"
	"github.com/magabrotheeeer/account-manager/internal/models"
)

// Service отдаёт текущую сессию или nil.
type Service interface {
	CurrentUser() *models.Session
}

// Handler обрабатывает GET-запросы состояния сессии.
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

// ServeHTTP всегда отвечает 200 с полями authenticated и user.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.session"

	current := h.service.CurrentUser()
	h.log.Debug("session requested",
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.Bool("authenticated", current != nil),
	)

	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"authenticated": current != nil,
		"user":          current,
	}))
}
