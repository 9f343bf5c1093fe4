// Package read отдаёт профиль вошедшего пользователя для страницы dashboard.
//
// Обработчик работает за RequireSession и берёт сессию из контекста запроса.
package read

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/account-manager/internal/http/middlewarectx"
	"github.com/magabrotheeeer/account-manager/internal/http/response"
)

// Handler обрабатывает GET /dashboard.
type Handler struct {
	log *slog.Logger
}

// New создает Handler.
func New(log *slog.Logger) *Handler {
	return &Handler{log: log}
}

// ServeHTTP возвращает сессию и имя для приветствия.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.profile.read"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	session, ok := middlewarectx.SessionFromContext(r.Context())
	if !ok {
		log.Error("session missing in context")
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error("not logged in"))
		return
	}

	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"user":     session,
		"greeting": session.FirstName(),
	}))
}
