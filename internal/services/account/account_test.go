package account_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/account-manager/internal/models"
	"github.com/magabrotheeeer/account-manager/internal/services/account"
	"github.com/magabrotheeeer/account-manager/internal/storage/kv"
)

// Мок для Publisher
type PublisherMock struct {
	mock.Mock
}

func (m *PublisherMock) Publish(ctx context.Context, routingKey string, message any) error {
	args := m.Called(ctx, routingKey, message)
	return args.Error(0)
}

// failingMedium оборачивает Memory и ломает запись выбранных ключей
type failingMedium struct {
	*kv.Memory
	failKeys map[string]bool
}

func (f *failingMedium) Set(ctx context.Context, key string, value []byte) error {
	if f.failKeys[key] {
		return errors.New("quota exceeded")
	}
	return f.Memory.Set(ctx, key, value)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

// fixedClock всегда возвращает одно и то же время, чтобы проверить уникальность ID
func fixedClock() time.Time {
	return time.UnixMilli(1_700_000_000_000)
}

func newStore(t *testing.T, medium kv.Medium, opts ...account.Option) *account.Store {
	t.Helper()
	return account.New(context.Background(), kv.NewAdapter(medium, newNoopLogger()), newNoopLogger(), opts...)
}

func register(t *testing.T, s *account.Store, email, password string) *models.Session {
	t.Helper()
	sess, err := s.Register(context.Background(), models.Registration{
		Name:     "Test User",
		Email:    email,
		Password: password,
		Phone:    "1234567890",
		Address:  "Main st. 1",
	})
	require.NoError(t, err)
	return sess
}

func TestStore_Register(t *testing.T) {
	ctx := context.Background()
	medium := kv.NewMemory()
	s := newStore(t, medium)

	sess := register(t, s, "a@x.com", "pass1234")

	users := s.Users()
	require.Len(t, users, 1)
	assert.Equal(t, users[0].ID, sess.ID)
	assert.Equal(t, "a@x.com", sess.Email)
	assert.True(t, s.HasSession())

	// обе коллекции записаны в хранилище
	stored := kv.Read[[]models.User](ctx, medium, account.DefaultUsersKey)
	require.Equal(t, kv.StatusFound, stored.Status)
	assert.Equal(t, users, stored.Value)

	raw, ok, err := medium.Get(ctx, account.DefaultSessionKey)
	require.NoError(t, err)
	require.True(t, ok)
	assert.NotContains(t, string(raw), "password")
	assert.NotContains(t, string(raw), "pass1234")
}

func TestStore_RegisterDuplicateEmailIgnoresCase(t *testing.T) {
	s := newStore(t, kv.NewMemory())
	register(t, s, "a@x.com", "pass1234")

	sess, err := s.Register(context.Background(), models.Registration{
		Name: "Other", Email: "A@X.COM", Password: "other1234",
	})
	assert.Nil(t, sess)
	assert.ErrorIs(t, err, account.ErrDuplicateEmail)
	assert.Len(t, s.Users(), 1)
}

func TestStore_RegisterUniqueIDs(t *testing.T) {
	s := newStore(t, kv.NewMemory(), account.WithClock(fixedClock))

	first := register(t, s, "a@x.com", "pass1234")
	second := register(t, s, "b@x.com", "pass1234")

	assert.Equal(t, fixedClock().UnixMilli(), first.ID)
	assert.Greater(t, second.ID, first.ID)
	assert.Equal(t, second.ID, s.CurrentUser().ID)
}

func TestStore_Login(t *testing.T) {
	tests := []struct {
		name     string
		email    string
		password string
		wantErr  error
	}{
		{name: "exact match", email: "a@x.com", password: "pass1234"},
		{name: "email case differs", email: "A@X.com", password: "pass1234"},
		{name: "wrong password", email: "a@x.com", password: "wrong1234", wantErr: account.ErrInvalidCredentials},
		{name: "password case differs", email: "a@x.com", password: "PASS1234", wantErr: account.ErrInvalidCredentials},
		{name: "unknown email", email: "b@x.com", password: "pass1234", wantErr: account.ErrUserNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newStore(t, kv.NewMemory())
			created := register(t, s, "a@x.com", "pass1234")
			s.Logout(context.Background())

			sess, err := s.Login(context.Background(), tt.email, tt.password)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, sess)
				assert.False(t, s.HasSession())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, created.ID, sess.ID)
			assert.True(t, s.HasSession())
		})
	}
}

func TestStore_UpdateProfile(t *testing.T) {
	ctx := context.Background()

	t.Run("without password keeps the old one", func(t *testing.T) {
		s := newStore(t, kv.NewMemory())
		sess := register(t, s, "a@x.com", "pass1234")

		updated, err := s.UpdateProfile(ctx, models.ProfileUpdate{
			ID: sess.ID, Name: "New Name", Phone: "", Address: "",
		})
		require.NoError(t, err)
		assert.Equal(t, "New Name", updated.Name)
		assert.Equal(t, "", updated.Phone)
		assert.Equal(t, "a@x.com", updated.Email)
		assert.Equal(t, *updated, *s.CurrentUser())

		s.Logout(ctx)
		_, err = s.Login(ctx, "a@x.com", "pass1234")
		assert.NoError(t, err)
	})

	t.Run("empty password keeps the old one", func(t *testing.T) {
		s := newStore(t, kv.NewMemory())
		sess := register(t, s, "a@x.com", "pass1234")
		empty := ""

		_, err := s.UpdateProfile(ctx, models.ProfileUpdate{ID: sess.ID, Name: "N", Password: &empty})
		require.NoError(t, err)

		s.Logout(ctx)
		_, err = s.Login(ctx, "a@x.com", "pass1234")
		assert.NoError(t, err)
	})

	t.Run("with password replaces it", func(t *testing.T) {
		s := newStore(t, kv.NewMemory())
		sess := register(t, s, "a@x.com", "pass1234")
		newPassword := "fresh5678"

		_, err := s.UpdateProfile(ctx, models.ProfileUpdate{ID: sess.ID, Name: "N", Password: &newPassword})
		require.NoError(t, err)

		s.Logout(ctx)
		_, err = s.Login(ctx, "a@x.com", "pass1234")
		assert.ErrorIs(t, err, account.ErrInvalidCredentials)
		_, err = s.Login(ctx, "a@x.com", "fresh5678")
		assert.NoError(t, err)
	})

	t.Run("unknown id", func(t *testing.T) {
		s := newStore(t, kv.NewMemory())
		register(t, s, "a@x.com", "pass1234")

		_, err := s.UpdateProfile(ctx, models.ProfileUpdate{ID: 12345, Name: "N"})
		assert.ErrorIs(t, err, account.ErrUserNotFound)
	})

	t.Run("write failure", func(t *testing.T) {
		medium := &failingMedium{Memory: kv.NewMemory(), failKeys: map[string]bool{}}
		s := newStore(t, medium)
		sess := register(t, s, "a@x.com", "pass1234")

		medium.failKeys[account.DefaultUsersKey] = true
		newPassword := "newpass99"
		_, err := s.UpdateProfile(ctx, models.ProfileUpdate{ID: sess.ID, Name: "N", Password: &newPassword})
		require.ErrorIs(t, err, account.ErrUpdateFailed)
		assert.Equal(t, "Update failed", account.Message(err))

		// неудачное обновление ничего не меняет
		assert.Equal(t, "Test User", s.CurrentUser().Name)
		assert.Equal(t, "Test User", s.Users()[0].Name)
		delete(medium.failKeys, account.DefaultUsersKey)
		s.Logout(ctx)
		_, err = s.Login(ctx, "a@x.com", "newpass99")
		assert.ErrorIs(t, err, account.ErrInvalidCredentials)
		_, err = s.Login(ctx, "a@x.com", "pass1234")
		assert.NoError(t, err)
	})

	t.Run("session write failure restores users", func(t *testing.T) {
		medium := &failingMedium{Memory: kv.NewMemory(), failKeys: map[string]bool{}}
		s := newStore(t, medium)
		sess := register(t, s, "a@x.com", "pass1234")

		medium.failKeys[account.DefaultSessionKey] = true
		_, err := s.UpdateProfile(ctx, models.ProfileUpdate{ID: sess.ID, Name: "N"})
		require.ErrorIs(t, err, account.ErrUpdateFailed)

		assert.Equal(t, "Test User", s.CurrentUser().Name)
		stored := kv.Read[[]models.User](ctx, medium, account.DefaultUsersKey)
		require.Equal(t, kv.StatusFound, stored.Status)
		assert.Equal(t, "Test User", stored.Value[0].Name)
	})
}

func TestStore_WriteFailuresAreSwallowed(t *testing.T) {
	medium := &failingMedium{Memory: kv.NewMemory(), failKeys: map[string]bool{
		account.DefaultUsersKey:   true,
		account.DefaultSessionKey: true,
	}}
	s := newStore(t, medium)

	sess := register(t, s, "a@x.com", "pass1234")
	require.NotNil(t, sess)
	assert.True(t, s.HasSession())

	_, ok, err := medium.Get(context.Background(), account.DefaultUsersKey)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_Logout(t *testing.T) {
	ctx := context.Background()
	medium := kv.NewMemory()
	s := newStore(t, medium)
	register(t, s, "a@x.com", "pass1234")

	s.Logout(ctx)

	assert.False(t, s.HasSession())
	assert.Nil(t, s.CurrentUser())
	_, ok, err := medium.Get(ctx, account.DefaultSessionKey)
	require.NoError(t, err)
	assert.False(t, ok)

	// повторный выход ничего не ломает
	s.Logout(ctx)
	assert.False(t, s.HasSession())
}

func TestStore_LoadsPersistedState(t *testing.T) {
	ctx := context.Background()
	medium := kv.NewMemory()

	first := newStore(t, medium, account.WithKeyPrefix("ra_"))
	sess := register(t, first, "a@x.com", "pass1234")

	_, ok, err := medium.Get(ctx, "ra_users")
	require.NoError(t, err)
	require.True(t, ok)

	second := newStore(t, medium, account.WithKeyPrefix("ra_"))
	require.True(t, second.HasSession())
	assert.Equal(t, sess.ID, second.CurrentUser().ID)
	assert.Len(t, second.Users(), 1)

	// ID продолжают расти после перезапуска
	next := register(t, newStore(t, medium, account.WithKeyPrefix("ra_"), account.WithClock(func() time.Time {
		return time.UnixMilli(1)
	})), "b@x.com", "pass1234")
	assert.Greater(t, next.ID, sess.ID)
}

func TestStore_MalformedStorageFallsBack(t *testing.T) {
	ctx := context.Background()
	medium := kv.NewMemory()
	require.NoError(t, medium.Set(ctx, account.DefaultUsersKey, []byte("{broken")))
	require.NoError(t, medium.Set(ctx, account.DefaultSessionKey, []byte("[1,2")))

	s := newStore(t, medium)

	assert.Empty(t, s.Users())
	assert.False(t, s.HasSession())

	// первая запись перезаписывает повреждённые данные
	register(t, s, "a@x.com", "pass1234")
	stored := kv.Read[[]models.User](ctx, medium, account.DefaultUsersKey)
	assert.Equal(t, kv.StatusFound, stored.Status)
}

func TestStore_StaleSessionIsKept(t *testing.T) {
	ctx := context.Background()
	medium := kv.NewMemory()
	require.NoError(t, medium.Set(ctx, account.DefaultSessionKey, []byte(`{"id":99,"name":"Ghost","email":"g@x.com"}`)))

	s := newStore(t, medium)

	require.True(t, s.HasSession())
	assert.Equal(t, int64(99), s.CurrentUser().ID)
	assert.Empty(t, s.Users())
}

func TestStore_PublishesEvents(t *testing.T) {
	ctx := context.Background()
	pub := new(PublisherMock)
	s := newStore(t, kv.NewMemory(), account.WithPublisher(pub), account.WithClock(fixedClock))

	noPassword := mock.MatchedBy(func(e account.Event) bool {
		return e.Email == "a@x.com" && e.ID != "" && e.UserID == fixedClock().UnixMilli()
	})
	pub.On("Publish", mock.Anything, account.EventRegistered, noPassword).Return(nil).Once()
	pub.On("Publish", mock.Anything, account.EventLoggedOut, noPassword).Return(nil).Once()
	pub.On("Publish", mock.Anything, account.EventLoggedIn, noPassword).Return(errors.New("broker down")).Once()
	pub.On("Publish", mock.Anything, account.EventProfileUpdated, noPassword).Return(nil).Once()

	sess := register(t, s, "a@x.com", "pass1234")
	s.Logout(ctx)
	_, err := s.Login(ctx, "a@x.com", "pass1234")
	require.NoError(t, err, "publish failure must not fail login")
	_, err = s.UpdateProfile(ctx, models.ProfileUpdate{ID: sess.ID, Name: "N"})
	require.NoError(t, err)

	pub.AssertExpectations(t)
}

func TestStore_PublishesOutsideLock(t *testing.T) {
	pub := new(PublisherMock)
	s := newStore(t, kv.NewMemory(), account.WithPublisher(pub))

	// публикатор обращается к хранилищу: под блокировкой это была бы взаимоблокировка
	sawSession := false
	pub.On("Publish", mock.Anything, account.EventRegistered, mock.Anything).
		Run(func(mock.Arguments) { sawSession = s.HasSession() }).
		Return(nil).Once()

	errCh := make(chan error, 1)
	go func() {
		_, err := s.Register(context.Background(), models.Registration{
			Name: "Ann", Email: "a@x.com", Password: "pass1234",
		})
		errCh <- err
	}()

	select {
	case err := <-errCh:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Register blocked while publishing")
	}
	assert.True(t, sawSession)
	pub.AssertExpectations(t)
}

func TestMessage(t *testing.T) {
	assert.Equal(t, "", account.Message(nil))
	assert.Equal(t, "Email already registered", account.Message(account.ErrDuplicateEmail))
	assert.Equal(t, "User not found", account.Message(account.ErrUserNotFound))
	assert.Equal(t, "Incorrect password", account.Message(account.ErrInvalidCredentials))
	assert.Equal(t, "Something went wrong.", account.Message(errors.New("boom")))
}
