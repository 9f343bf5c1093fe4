// Package kv реализует слой персистентности поверх key-value хранилища.
//
// Medium описывает само хранилище (память, Redis, PostgreSQL). Read возвращает
// типизированный Result, различающий найденное, отсутствующее и повреждённое
// значение, чтобы вызывающий код сам выбирал политику отката к значению по умолчанию.
// Adapter добавляет к этому логирование и сериализацию JSON при записи.
package kv

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/magabrotheeeer/account-manager/internal/lib/sl"
)

// Medium описывает key-value хранилище сырых значений.
type Medium interface {
	// Get возвращает значение по ключу и признак его наличия.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set сохраняет значение по ключу, перезаписывая предыдущее.
	Set(ctx context.Context, key string, value []byte) error
	// Delete удаляет ключ. Отсутствие ключа ошибкой не считается.
	Delete(ctx context.Context, key string) error
}

// Status описывает исход чтения ключа.
type Status int

const (
	// StatusAbsent — ключа нет, либо значение пустое или null.
	StatusAbsent Status = iota
	// StatusFound — значение найдено и успешно разобрано.
	StatusFound
	// StatusMalformed — значение есть, но не разбирается, либо хранилище недоступно.
	StatusMalformed
)

func (s Status) String() string {
	switch s {
	case StatusFound:
		return "found"
	case StatusAbsent:
		return "absent"
	case StatusMalformed:
		return "malformed"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Result — результат типизированного чтения ключа.
type Result[T any] struct {
	Value  T
	Status Status
	Err    error
}

// OrDefault возвращает значение при StatusFound, иначе def.
func (r Result[T]) OrDefault(def T) T {
	if r.Status == StatusFound {
		return r.Value
	}
	return def
}

// Read читает ключ из хранилища и разбирает JSON в T.
func Read[T any](ctx context.Context, m Medium, key string) Result[T] {
	const op = "kv.Read"
	var res Result[T]

	raw, ok, err := m.Get(ctx, key)
	if err != nil {
		res.Status = StatusMalformed
		res.Err = fmt.Errorf("%s: %s: %w", op, key, err)
		return res
	}
	raw = bytes.TrimSpace(raw)
	if !ok || len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		res.Status = StatusAbsent
		return res
	}

	if err := json.Unmarshal(raw, &res.Value); err != nil {
		var zero T
		res.Value = zero
		res.Status = StatusMalformed
		res.Err = fmt.Errorf("%s: %s: %w", op, key, err)
		return res
	}
	res.Status = StatusFound
	return res
}

// Adapter связывает хранилище с логгером: ошибки чтения и записи
// логируются здесь и возвращаются вызывающему коду.
type Adapter struct {
	medium Medium
	log    *slog.Logger
}

// NewAdapter создает новый экземпляр Adapter.
func NewAdapter(medium Medium, log *slog.Logger) *Adapter {
	return &Adapter{
		medium: medium,
		log:    log,
	}
}

// Medium возвращает хранилище, с которым работает адаптер.
func (a *Adapter) Medium() Medium {
	return a.medium
}

// Load читает ключ в T. Повреждённое значение логируется; решение об откате
// к значению по умолчанию остаётся за вызывающим кодом.
func Load[T any](ctx context.Context, a *Adapter, key string) Result[T] {
	res := Read[T](ctx, a.medium, key)
	if res.Status == StatusMalformed {
		a.log.Error("failed to read value from storage",
			slog.String("key", key), sl.Err(res.Err))
	}
	return res
}

// Save сериализует value в JSON и записывает по ключу.
func (a *Adapter) Save(ctx context.Context, key string, value any) error {
	const op = "kv.Adapter.Save"

	data, err := json.Marshal(value)
	if err != nil {
		err = fmt.Errorf("%s: %s: %w", op, key, err)
		a.log.Error("failed to encode value", slog.String("key", key), sl.Err(err))
		return err
	}
	if err := a.medium.Set(ctx, key, data); err != nil {
		err = fmt.Errorf("%s: %s: %w", op, key, err)
		a.log.Error("failed to write value to storage", slog.String("key", key), sl.Err(err))
		return err
	}
	return nil
}

// Remove удаляет ключ из хранилища.
func (a *Adapter) Remove(ctx context.Context, key string) error {
	const op = "kv.Adapter.Remove"

	if err := a.medium.Delete(ctx, key); err != nil {
		err = fmt.Errorf("%s: %s: %w", op, key, err)
		a.log.Error("failed to delete value from storage", slog.String("key", key), sl.Err(err))
		return err
	}
	return nil
}
