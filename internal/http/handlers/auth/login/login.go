// Package login реализует HTTP-обработчик входа пользователя по email и паролю.
package login

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/account-manager/internal/http/forms"
	"github.com/magabrotheeeer/account-manager/internal/http/response"
	"github.com/magabrotheeeer/account-manager/internal/lib/sl"
	"github.com/magabrotheeeer/account-manager/internal/models"
	"github.com/magabrotheeeer/account-manager/internal/services/account"
)

// Service описывает вход пользователя.
type Service interface {
	Login(ctx context.Context, email, password string) (*models.Session, error)
}

// Handler обрабатывает POST-запросы входа.
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

// ServeHTTP проверяет форму и выполняет вход.
//
// Неизвестный email даёт 404, неверный пароль 401.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.login"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var form forms.Login
	if err := render.DecodeJSON(r.Body, &form); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	form.Normalize()
	if errs := form.Validate(); len(errs) > 0 {
		log.Info("login form is invalid", slog.Any("fields", errs))
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(errs))
		return
	}

	session, err := h.service.Login(r.Context(), form.Email, form.Password)
	switch {
	case errors.Is(err, account.ErrUserNotFound):
		log.Info("login failed: unknown email", slog.String("email", form.Email))
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, response.Error(account.Message(err)))
		return
	case errors.Is(err, account.ErrInvalidCredentials):
		log.Info("login failed: wrong password", slog.String("email", form.Email))
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error(account.Message(err)))
		return
	case err != nil:
		log.Error("login failed", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error(account.Message(err)))
		return
	}

	log.Info("login success", slog.Int64("id", session.ID))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"user": session,
	}))
}
