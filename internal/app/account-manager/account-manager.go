// Package accountmanager собирает приложение: хранилище, публикацию событий,
// метрики и HTTP-сервер.
package accountmanager

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/magabrotheeeer/account-manager/internal/config"
	"github.com/magabrotheeeer/account-manager/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/account-manager/internal/lib/sl"
	"github.com/magabrotheeeer/account-manager/internal/metrics"
	"github.com/magabrotheeeer/account-manager/internal/services/account"
	"github.com/magabrotheeeer/account-manager/internal/storage/kv"
	"github.com/magabrotheeeer/account-manager/internal/storage/postgresql"
	"github.com/magabrotheeeer/account-manager/internal/storage/redis"
)

// App — HTTP-сервер учётных записей и ресурсы, которые нужно закрыть при остановке.
type App struct {
	server  *http.Server
	logger  *slog.Logger
	closers []io.Closer
}

// New открывает хранилище, выбранное в storage.backend, подключает RabbitMQ
// (если задан rabbitmq.url) и загружает состояние учётных записей.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "accountmanager.New"

	medium, closer, err := openMedium(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	app := &App{logger: logger}
	if closer != nil {
		app.closers = append(app.closers, closer)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := metrics.NewCollector(registry)

	opts := []account.Option{
		account.WithKeyPrefix(cfg.KeyPrefix),
		account.WithMetrics(collector),
	}

	if cfg.URL != "" {
		publisher, err := rabbitmq.NewPublisher(cfg.URL, cfg.Exchange, cfg.ConnRetries, cfg.RetryDelay)
		if err != nil {
			app.close()
			return nil, fmt.Errorf("%s: failed to connect RabbitMQ: %w", op, err)
		}
		app.closers = append(app.closers, publisher)
		opts = append(opts, account.WithPublisher(publisher))
	} else {
		logger.Info("rabbitmq url is empty, account events are disabled")
	}

	store := account.New(ctx, kv.NewAdapter(medium, logger), logger, opts...)

	router := chi.NewRouter()
	RegisterRoutes(router, logger, store, collector, cfg.RateLimit)

	app.server = &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return app, nil
}

func openMedium(ctx context.Context, cfg *config.Config) (kv.Medium, io.Closer, error) {
	switch cfg.Backend {
	case config.BackendMemory:
		return kv.NewMemory(), nil, nil
	case config.BackendRedis:
		m, err := redis.New(ctx, cfg.RedisConnection)
		if err != nil {
			return nil, nil, err
		}
		return m, m, nil
	case config.BackendPostgres:
		m, err := postgresql.New(ctx, cfg.PostgresDSN, cfg.MigrationsPath)
		if err != nil {
			return nil, nil, err
		}
		return m, m, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

// Run запускает HTTP-сервер и останавливает его при отмене ctx.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		a.close()
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		a.close()
		return err
	}
}

func (a *App) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			a.logger.Error("failed to close resource", sl.Err(err))
		}
	}
	a.closers = nil
}
