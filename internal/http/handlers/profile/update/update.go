// Package update реализует HTTP-обработчик редактирования профиля вошедшего
// пользователя. Email не меняется, пустой пароль оставляет текущий.
package update

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/account-manager/internal/http/forms"
	"github.com/magabrotheeeer/account-manager/internal/http/middlewarectx"
	"github.com/magabrotheeeer/account-manager/internal/http/response"
	"github.com/magabrotheeeer/account-manager/internal/lib/sl"
	"github.com/magabrotheeeer/account-manager/internal/models"
	"github.com/magabrotheeeer/account-manager/internal/services/account"
)

// Service описывает обновление профиля.
type Service interface {
	UpdateProfile(ctx context.Context, req models.ProfileUpdate) (*models.Session, error)
}

// Handler обрабатывает PUT /dashboard/profile.
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

// ServeHTTP проверяет форму и обновляет профиль пользователя текущей сессии.
//
// Ошибка записи в хранилище отдаётся как 500 "Update failed".
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.profile.update"

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

	var form forms.Profile
	if err := render.DecodeJSON(r.Body, &form); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	form.Normalize()
	if errs := form.Validate(); len(errs) > 0 {
		log.Info("profile form is invalid", slog.Any("fields", errs))
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(errs))
		return
	}

	updated, err := h.service.UpdateProfile(r.Context(), form.Update(session.ID))
	switch {
	case errors.Is(err, account.ErrUserNotFound):
		log.Warn("session user not found", slog.Int64("id", session.ID))
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, response.Error(account.Message(err)))
		return
	case err != nil:
		log.Error("failed to update profile", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error(account.Message(err)))
		return
	}

	log.Info("profile updated", slog.Int64("id", updated.ID))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"user": updated,
	}))
}
