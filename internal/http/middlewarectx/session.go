// Package middlewarectx содержит HTTP middleware приложения.
//
// RequireSession пропускает запрос к защищённым страницам только при наличии
// активной сессии и кладёт её в контекст запроса. Без сессии клиент
// перенаправляется на страницу входа.
package middlewarectx

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"

	"github.com/magabrotheeeer/account-manager/internal/models"
)

// Key тип для ключей контекста HTTP-запроса.
type Key string

// SessionKey — ключ текущей сессии в контексте.
const SessionKey Key = "session"

// LoginPath — куда перенаправляется запрос без сессии.
const LoginPath = "/login"

// SessionSource отдаёт текущую сессию или nil.
type SessionSource interface {
	CurrentUser() *models.Session
}

// RequireSession возвращает middleware, которое перенаправляет на LoginPath
// (303 See Other), если сессии нет.
func RequireSession(store SessionSource, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.RequireSession"

			session := store.CurrentUser()
			if session == nil {
				log.Info("no active session, redirecting to login",
					slog.String("op", op),
					slog.String("request_id", middleware.GetReqID(r.Context())),
					slog.String("path", r.URL.Path),
				)
				http.Redirect(w, r, LoginPath, http.StatusSeeOther)
				return
			}

			ctx := context.WithValue(r.Context(), SessionKey, session)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SessionFromContext достаёт сессию, положенную RequireSession.
func SessionFromContext(ctx context.Context) (*models.Session, bool) {
	session, ok := ctx.Value(SessionKey).(*models.Session)
	return session, ok && session != nil
}
