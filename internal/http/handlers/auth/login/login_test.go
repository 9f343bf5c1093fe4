package login

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/account-manager/internal/http/forms"
	"github.com/magabrotheeeer/account-manager/internal/models"
	"github.com/magabrotheeeer/account-manager/internal/services/account"
)

type ServiceMock struct {
	mock.Mock
}

func (m *ServiceMock) Login(ctx context.Context, email, password string) (*models.Session, error) {
	args := m.Called(ctx, email, password)
	session, _ := args.Get(0).(*models.Session)
	return session, args.Error(1)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestLoginHandler_ServeHTTP(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		setupMock  func(m *ServiceMock)
		wantCode   int
		wantError  string
		wantFields map[string]any
	}{
		{
			name: "success",
			body: `{"email":"A@X.com","password":"pass1234"}`,
			setupMock: func(m *ServiceMock) {
				m.On("Login", mock.Anything, "A@X.com", "pass1234").
					Return(&models.Session{ID: 1, Name: "Ann", Email: "a@x.com"}, nil).Once()
			},
			wantCode: http.StatusOK,
		},
		{
			name:      "broken json",
			body:      `{"email":`,
			wantCode:  http.StatusBadRequest,
			wantError: "invalid request body",
		},
		{
			name:      "empty form",
			body:      `{}`,
			wantCode:  http.StatusUnprocessableEntity,
			wantError: "validation failed",
			wantFields: map[string]any{
				"email":    forms.MsgEmailRequired,
				"password": forms.MsgPasswordRequired,
			},
		},
		{
			name: "unknown user",
			body: `{"email":"nobody@x.com","password":"pass1234"}`,
			setupMock: func(m *ServiceMock) {
				m.On("Login", mock.Anything, "nobody@x.com", "pass1234").Return(nil, account.ErrUserNotFound).Once()
			},
			wantCode:  http.StatusNotFound,
			wantError: "User not found",
		},
		{
			name: "wrong password",
			body: `{"email":"a@x.com","password":"wrong1234"}`,
			setupMock: func(m *ServiceMock) {
				m.On("Login", mock.Anything, "a@x.com", "wrong1234").Return(nil, account.ErrInvalidCredentials).Once()
			},
			wantCode:  http.StatusUnauthorized,
			wantError: "Incorrect password",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(ServiceMock)
			if tt.setupMock != nil {
				tt.setupMock(svc)
			}

			req := httptest.NewRequest(http.MethodPost, "/api/v1/login", bytes.NewBufferString(tt.body))
			req = req.WithContext(context.WithValue(req.Context(), middleware.RequestIDKey, "reqid123"))
			rec := httptest.NewRecorder()

			New(newNoopLogger(), svc).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantCode, rec.Code)

			var got map[string]any
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
			if tt.wantError != "" {
				assert.Equal(t, "Error", got["status"])
				assert.Equal(t, tt.wantError, got["error"])
			} else {
				assert.Equal(t, "OK", got["status"])
				user := got["data"].(map[string]any)["user"].(map[string]any)
				assert.Equal(t, "a@x.com", user["email"])
			}
			if tt.wantFields != nil {
				assert.Equal(t, tt.wantFields, got["fields"])
			}
			svc.AssertExpectations(t)
		})
	}
}
