// Package account реализует хранилище учётных записей: список пользователей
// и текущую сессию, зеркалируемые в key-value хранилище.
//
// Store создаётся явно при старте приложения и передаётся в HTTP-слой.
// Все операции выполняются последовательно под мьютексом: каждая операция
// (изменение в памяти и запись в хранилище) завершается до начала следующей.
// События публикуются уже после снятия блокировки.
// Каждая изменяющая операция перезаписывает коллекцию целиком, конфликты
// между процессами не отслеживаются (побеждает последняя запись).
package account

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/account-manager/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/account-manager/internal/lib/sl"
	"github.com/magabrotheeeer/account-manager/internal/metrics"
	"github.com/magabrotheeeer/account-manager/internal/models"
	"github.com/magabrotheeeer/account-manager/internal/storage/kv"
)

// Ключи хранилища по умолчанию.
const (
	DefaultUsersKey   = "users"
	DefaultSessionKey = "current_user"
)

// Имена операций для метрик и событий.
const (
	OpRegister      = "register"
	OpLogin         = "login"
	OpUpdateProfile = "update_profile"
	OpLogout        = "logout"
)

// Типы событий учётных записей; они же ключи маршрутизации RabbitMQ.
const (
	EventRegistered     = rabbitmq.RoutingRegistered
	EventLoggedIn       = rabbitmq.RoutingLoggedIn
	EventProfileUpdated = rabbitmq.RoutingProfileUpdated
	EventLoggedOut      = rabbitmq.RoutingLoggedOut
)

// Publisher публикует события учётных записей.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, message any) error
}

// Metrics принимает метрики операций.
type Metrics interface {
	RecordOperation(operation, result string)
	RecordWriteError(key string)
	SetSessionActive(active bool)
	SetUsers(n int)
}

// Event — сообщение о событии учётной записи. Пароль в событие не попадает.
type Event struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	UserID     int64     `json:"user_id"`
	Email      string    `json:"email"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Store владеет списком пользователей и текущей сессией.
type Store struct {
	mu sync.Mutex

	adapter    *kv.Adapter
	log        *slog.Logger
	usersKey   string
	sessionKey string
	now        func() time.Time
	publisher  Publisher
	metrics    Metrics

	users   []models.User
	current *models.Session
	lastID  int64
}

// Option настраивает Store.
type Option func(*Store)

// WithKeyPrefix добавляет префикс к ключам users и current_user.
func WithKeyPrefix(prefix string) Option {
	return func(s *Store) {
		s.usersKey = prefix + DefaultUsersKey
		s.sessionKey = prefix + DefaultSessionKey
	}
}

// WithClock подменяет источник времени, из которого выдаются идентификаторы.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// WithPublisher включает публикацию событий.
func WithPublisher(p Publisher) Option {
	return func(s *Store) {
		s.publisher = p
	}
}

// WithMetrics включает сбор метрик.
func WithMetrics(m Metrics) Option {
	return func(s *Store) {
		s.metrics = m
	}
}

// New создает Store и загружает из хранилища пользователей и текущую сессию.
// Отсутствующие или повреждённые значения заменяются пустым списком и отсутствием сессии.
func New(ctx context.Context, adapter *kv.Adapter, log *slog.Logger, opts ...Option) *Store {
	s := &Store{
		adapter:    adapter,
		log:        log,
		usersKey:   DefaultUsersKey,
		sessionKey: DefaultSessionKey,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	users := kv.Load[[]models.User](ctx, adapter, s.usersKey)
	s.users = users.OrDefault([]models.User{})
	if s.users == nil {
		s.users = []models.User{}
	}
	for _, u := range s.users {
		if u.ID > s.lastID {
			s.lastID = u.ID
		}
	}

	session := kv.Load[*models.Session](ctx, adapter, s.sessionKey)
	s.current = session.OrDefault(nil)

	s.log.Info("account store loaded",
		slog.Int("users", len(s.users)),
		slog.String("users_status", users.Status.String()),
		slog.Bool("session", s.current != nil))
	s.observe()
	return s
}

// Register создает пользователя, делает его текущей сессией и сохраняет обе коллекции.
func (s *Store) Register(ctx context.Context, reg models.Registration) (*models.Session, error) {
	session, event, err := s.register(ctx, reg)
	s.publish(ctx, event)
	return session, err
}

func (s *Store) register(ctx context.Context, reg models.Registration) (*models.Session, *Event, error) {
	const op = "account.Register"
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.findByEmail(reg.Email); ok {
		s.record(OpRegister, ErrDuplicateEmail)
		return nil, nil, fmt.Errorf("%s: %w", op, ErrDuplicateEmail)
	}

	user := models.User{
		ID:       s.nextID(),
		Name:     reg.Name,
		Email:    reg.Email,
		Password: reg.Password,
		Phone:    reg.Phone,
		Address:  reg.Address,
	}
	s.users = append(s.users, user)
	s.current = user.Session()

	_ = s.saveUsers(ctx, s.users)
	_ = s.saveSession(ctx, s.current)

	s.log.Info("registered new user", slog.Int64("id", user.ID))
	s.record(OpRegister, nil)
	return s.sessionCopy(), s.newEvent(EventRegistered, user.ID, user.Email), nil
}

// Login ищет пользователя по email без учёта регистра и сверяет пароль как есть.
func (s *Store) Login(ctx context.Context, email, password string) (*models.Session, error) {
	session, event, err := s.login(ctx, email, password)
	s.publish(ctx, event)
	return session, err
}

func (s *Store) login(ctx context.Context, email, password string) (*models.Session, *Event, error) {
	const op = "account.Login"
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.findByEmail(email)
	if !ok {
		s.record(OpLogin, ErrUserNotFound)
		return nil, nil, fmt.Errorf("%s: %w", op, ErrUserNotFound)
	}
	user := s.users[i]
	if user.Password != password {
		s.record(OpLogin, ErrInvalidCredentials)
		return nil, nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	s.current = user.Session()
	_ = s.saveSession(ctx, s.current)

	s.log.Info("user logged in", slog.Int64("id", user.ID))
	s.record(OpLogin, nil)
	return s.sessionCopy(), s.newEvent(EventLoggedIn, user.ID, user.Email), nil
}

// UpdateProfile меняет имя, телефон и адрес пользователя req.ID. Пароль меняется,
// только если передан непустой. Сессия пересобирается из обновлённого пользователя.
// Для неизвестного ID возвращает ErrUserNotFound, при ошибке записи ErrUpdateFailed;
// в обоих случаях состояние в памяти не меняется.
func (s *Store) UpdateProfile(ctx context.Context, req models.ProfileUpdate) (*models.Session, error) {
	session, event, err := s.updateProfile(ctx, req)
	s.publish(ctx, event)
	return session, err
}

func (s *Store) updateProfile(ctx context.Context, req models.ProfileUpdate) (*models.Session, *Event, error) {
	const op = "account.UpdateProfile"
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.findByID(req.ID)
	if !ok {
		s.record(OpUpdateProfile, ErrUserNotFound)
		return nil, nil, fmt.Errorf("%s: %w", op, ErrUserNotFound)
	}

	user := s.users[i]
	user.Name = req.Name
	user.Phone = req.Phone
	user.Address = req.Address
	if password, ok := req.NewPassword(); ok {
		user.Password = password
	}

	users := make([]models.User, len(s.users))
	copy(users, s.users)
	users[i] = user
	session := user.Session()

	if err := s.saveUsers(ctx, users); err != nil {
		s.record(OpUpdateProfile, err)
		return nil, nil, fmt.Errorf("%s: %w: %v", op, ErrUpdateFailed, err)
	}
	if err := s.saveSession(ctx, session); err != nil {
		// возвращаем в хранилище прежний список, чтобы он совпадал с памятью
		_ = s.saveUsers(ctx, s.users)
		s.record(OpUpdateProfile, err)
		return nil, nil, fmt.Errorf("%s: %w: %v", op, ErrUpdateFailed, err)
	}

	s.users = users
	s.current = session

	s.log.Info("profile updated", slog.Int64("id", user.ID))
	s.record(OpUpdateProfile, nil)
	return s.sessionCopy(), s.newEvent(EventProfileUpdated, user.ID, user.Email), nil
}

// Logout завершает текущую сессию и удаляет её из хранилища.
func (s *Store) Logout(ctx context.Context) {
	s.publish(ctx, s.logout(ctx))
}

func (s *Store) logout(ctx context.Context) *Event {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.current
	s.current = nil
	_ = s.saveSession(ctx, nil)
	s.record(OpLogout, nil)

	if prev == nil {
		return nil
	}
	s.log.Info("user logged out", slog.Int64("id", prev.ID))
	return s.newEvent(EventLoggedOut, prev.ID, prev.Email)
}

// CurrentUser возвращает копию текущей сессии или nil.
func (s *Store) CurrentUser() *models.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessionCopy()
}

// HasSession сообщает, есть ли активная сессия.
func (s *Store) HasSession() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current != nil
}

// Users возвращает копию списка пользователей.
func (s *Store) Users() []models.User {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.User, len(s.users))
	copy(out, s.users)
	return out
}

func (s *Store) findByEmail(email string) (int, bool) {
	for i, u := range s.users {
		if u.EmailMatches(email) {
			return i, true
		}
	}
	return -1, false
}

func (s *Store) findByID(id int64) (int, bool) {
	for i, u := range s.users {
		if u.ID == id {
			return i, true
		}
	}
	return -1, false
}

// nextID выдаёт время в миллисекундах, но строго больше предыдущего ID.
func (s *Store) nextID() int64 {
	id := s.now().UnixMilli()
	if id <= s.lastID {
		id = s.lastID + 1
	}
	s.lastID = id
	return id
}

func (s *Store) saveUsers(ctx context.Context, users []models.User) error {
	if err := s.adapter.Save(ctx, s.usersKey, users); err != nil {
		s.writeFailed(s.usersKey)
		return err
	}
	return nil
}

// saveSession записывает session или удаляет ключ, если session == nil.
func (s *Store) saveSession(ctx context.Context, session *models.Session) error {
	var err error
	if session == nil {
		err = s.adapter.Remove(ctx, s.sessionKey)
	} else {
		err = s.adapter.Save(ctx, s.sessionKey, session)
	}
	if err != nil {
		s.writeFailed(s.sessionKey)
	}
	return err
}

func (s *Store) writeFailed(key string) {
	if s.metrics != nil {
		s.metrics.RecordWriteError(key)
	}
}

func (s *Store) sessionCopy() *models.Session {
	if s.current == nil {
		return nil
	}
	c := *s.current
	return &c
}

// newEvent возвращает nil, если публикация выключена.
func (s *Store) newEvent(eventType string, userID int64, email string) *Event {
	if s.publisher == nil {
		return nil
	}
	return &Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		UserID:     userID,
		Email:      email,
		OccurredAt: s.now().UTC(),
	}
}

// publish отправляет событие вне блокировки; ошибки публикации только логируются.
func (s *Store) publish(ctx context.Context, event *Event) {
	if event == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event.Type, *event); err != nil {
		s.log.Warn("failed to publish account event",
			slog.String("type", event.Type), sl.Err(err))
	}
}

func (s *Store) record(operation string, err error) {
	if s.metrics == nil {
		return
	}
	result := metrics.ResultSuccess
	if err != nil {
		result = metrics.ResultFailure
	}
	s.metrics.RecordOperation(operation, result)
	s.observe()
}

func (s *Store) observe() {
	if s.metrics == nil {
		return
	}
	s.metrics.SetSessionActive(s.current != nil)
	s.metrics.SetUsers(len(s.users))
}
