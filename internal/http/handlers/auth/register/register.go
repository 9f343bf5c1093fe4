// Package register реализует HTTP-обработчик регистрации пользователя.
//
// Обработчик декодирует форму, проверяет поля и передаёт регистрацию в Service.
// При успехе пользователь сразу считается вошедшим: в ответе возвращается сессия.
package register

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

// Service описывает регистрацию пользователя.
type Service interface {
	Register(ctx context.Context, reg models.Registration) (*models.Session, error)
}

// Handler обрабатывает POST-запросы регистрации.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает Handler с указанными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP обрабатывает запрос регистрации.
//
// Если email уже занят, отвечает 409. При успехе отвечает 201 с сессией.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.register"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var form forms.Register
	if err := render.DecodeJSON(r.Body, &form); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	form.Normalize()
	if errs := form.Validate(); len(errs) > 0 {
		log.Info("registration form is invalid", slog.Any("fields", errs))
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(errs))
		return
	}

	session, err := h.service.Register(r.Context(), form.Registration())
	if errors.Is(err, account.ErrDuplicateEmail) {
		log.Info("email already registered", slog.String("email", form.Email))
		render.Status(r, http.StatusConflict)
		render.JSON(w, r, response.Error(account.Message(err)))
		return
	}
	if err != nil {
		log.Error("failed to register user", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error(account.Message(err)))
		return
	}

	log.Info("user registered", slog.Int64("id", session.ID))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"user": session,
	}))
}
