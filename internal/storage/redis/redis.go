// Package redis реализует key-value хранилище учётных записей поверх Redis.
// Значения хранятся строками без срока жизни.
package redis

import (
	"context"
	"errors"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/magabrotheeeer/account-manager/internal/config"
)

// Medium — хранилище на основе клиента Redis.
type Medium struct {
	Db *goredis.Client
}

// New подключается к Redis и проверяет соединение.
func New(ctx context.Context, cfg config.RedisConnection) (*Medium, error) {
	const op = "redis.New"
	db := goredis.NewClient(&goredis.Options{
		Addr:         cfg.AddressRedis,
		Password:     cfg.Password,
		DB:           cfg.DB,
		Username:     cfg.User,
		MaxRetries:   cfg.MaxRetries,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.TimeoutRedis,
		WriteTimeout: cfg.TimeoutRedis,
	})

	if err := db.Ping(ctx).Err(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &Medium{Db: db}, nil
}

// Get возвращает значение по ключу; отсутствие ключа не является ошибкой.
func (m *Medium) Get(ctx context.Context, key string) ([]byte, bool, error) {
	const op = "redis.Get"
	val, err := m.Db.Get(ctx, key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}
	return val, true, nil
}

// Set сохраняет значение по ключу без срока жизни.
func (m *Medium) Set(ctx context.Context, key string, value []byte) error {
	const op = "redis.Set"
	if err := m.Db.Set(ctx, key, value, 0).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Delete удаляет ключ.
func (m *Medium) Delete(ctx context.Context, key string) error {
	const op = "redis.Delete"
	if err := m.Db.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Close закрывает соединение с Redis.
func (m *Medium) Close() error {
	return m.Db.Close()
}
