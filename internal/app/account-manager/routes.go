package accountmanager

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"

	"github.com/magabrotheeeer/account-manager/internal/config"
	"github.com/magabrotheeeer/account-manager/internal/http/handlers/auth/login"
	"github.com/magabrotheeeer/account-manager/internal/http/handlers/auth/logout"
	"github.com/magabrotheeeer/account-manager/internal/http/handlers/auth/register"
	"github.com/magabrotheeeer/account-manager/internal/http/handlers/health"
	"github.com/magabrotheeeer/account-manager/internal/http/handlers/profile/read"
	"github.com/magabrotheeeer/account-manager/internal/http/handlers/profile/update"
	"github.com/magabrotheeeer/account-manager/internal/http/handlers/session"
	"github.com/magabrotheeeer/account-manager/internal/http/middlewarectx"
	"github.com/magabrotheeeer/account-manager/internal/metrics"
	"github.com/magabrotheeeer/account-manager/internal/services/account"
)

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, store *account.Store, collector *metrics.Collector, limits config.RateLimit) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
	)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, middlewarectx.LoginPath, http.StatusSeeOther)
	})

	// Страницы входа и регистрации доступны всем
	sessionHandler := session.New(logger, store)
	r.Get("/login", sessionHandler.ServeHTTP)
	r.Get("/register", sessionHandler.ServeHTTP)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/register", register.New(logger, store).ServeHTTP)
		r.With(middlewarectx.RateLimit(logger, limits.LoginRPS, limits.LoginBurst)).
			Post("/login", login.New(logger, store).ServeHTTP)
		r.Post("/logout", logout.New(logger, store).ServeHTTP)
		r.Get("/session", sessionHandler.ServeHTTP)
	})

	// Защищённые страницы
	r.Route("/dashboard", func(r chi.Router) {
		r.Use(middlewarectx.RequireSession(store, logger))
		r.Get("/", read.New(logger).ServeHTTP)
		r.Put("/profile", update.New(logger, store).ServeHTTP)
	})

	r.Handle("/metrics", collector.Handler())
	r.Get("/healthz", health.New().ServeHTTP)
}
