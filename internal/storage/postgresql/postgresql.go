// Package postgresql реализует key-value хранилище учётных записей
// на основе таблицы kv_entries в PostgreSQL.
package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	// Регистрация драйвера pgx для использования с database/sql.
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/magabrotheeeer/account-manager/internal/migrations"
)

// Medium инкапсулирует соединение с базой данных PostgreSQL.
type Medium struct {
	DB *sql.DB
}

// New создаёт подключение к PostgreSQL и применяет миграции из migrationsPath.
// Пустой migrationsPath пропускает миграции.
func New(ctx context.Context, dsn, migrationsPath string) (*Medium, error) {
	const op = "postgresql.New"

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if migrationsPath != "" {
		if err = migrations.Run(db, migrationsPath); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	return &Medium{DB: db}, nil
}

// Get возвращает значение по ключу.
func (m *Medium) Get(ctx context.Context, key string) ([]byte, bool, error) {
	const op = "postgresql.Get"

	var value string
	err := m.DB.QueryRowContext(ctx, `SELECT value FROM kv_entries WHERE key = $1`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}
	return []byte(value), true, nil
}

// Set записывает значение по ключу, перезаписывая существующее.
func (m *Medium) Set(ctx context.Context, key string, value []byte) error {
	const op = "postgresql.Set"

	query := `INSERT INTO kv_entries (key, value, updated_at)
			  VALUES ($1, $2, NOW())
			  ON CONFLICT (key) DO UPDATE
			  SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`
	if _, err := m.DB.ExecContext(ctx, query, key, string(value)); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Delete удаляет ключ.
func (m *Medium) Delete(ctx context.Context, key string) error {
	const op = "postgresql.Delete"

	if _, err := m.DB.ExecContext(ctx, `DELETE FROM kv_entries WHERE key = $1`, key); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Close закрывает пул соединений.
func (m *Medium) Close() error {
	return m.DB.Close()
}
