package auth_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/estatedesk/estatedesk/internal/auth"
	"github.com/estatedesk/estatedesk/internal/shared"
)

type stubRepo struct {
	user *auth.User
}

func (s *stubRepo) FindByEmail(ctx context.Context, email string) (*auth.User, error) {
	if s.user == nil || s.user.Email != email {
		return nil, shared.ErrNotFound
	}
	return s.user, nil
}

func (s *stubRepo) CreateSession(ctx context.Context, id string, userID int64, expiresAt time.Time, ip, ua string) error {
	return nil
}

func (s *stubRepo) DeleteSession(ctx context.Context, id string) error {
	return nil
}

func newHandler(t *testing.T, repo auth.Repository) (http.Handler, *shared.SessionManager) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	sessions := shared.NewSessionManager(client, "test_session", time.Hour, false)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := auth.NewHandler(logger, auth.NewService(repo), sessions)

	router := chi.NewRouter()
	handler.MountRoutes(router)
	return router, sessions
}

func seededUser(t *testing.T, password string) *auth.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	require.NoError(t, err)
	return &auth.User{
		ID:           1,
		Email:        "admin@realestatecrm.com",
		Name:         "Admin User",
		PasswordHash: string(hash),
		IsActive:     true,
	}
}

func doLogin(t *testing.T, router http.Handler, sessions *shared.SessionManager, body string) (*httptest.ResponseRecorder, *shared.Session) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	sess, err := sessions.Load(context.Background(), req)
	require.NoError(t, err)
	req = req.WithContext(shared.ContextWithSession(req.Context(), sess))

	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)
	return res, sess
}

func TestLoginSuccessBindsSessionToUser(t *testing.T) {
	handler, sessions := newHandler(t, &stubRepo{user: seededUser(t, "password")})

	res, sess := doLogin(t, handler, sessions, `{"email":"admin@realestatecrm.com","password":"password"}`)
	require.Equal(t, http.StatusOK, res.Code)
	require.Contains(t, res.Body.String(), "admin@realestatecrm.com")

	userID, ok := sess.UserID()
	require.True(t, ok)
	require.Equal(t, int64(1), userID)
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	handler, sessions := newHandler(t, &stubRepo{user: seededUser(t, "correctpass")})

	res, sess := doLogin(t, handler, sessions, `{"email":"admin@realestatecrm.com","password":"wrong"}`)
	require.Equal(t, http.StatusUnauthorized, res.Code)

	_, ok := sess.UserID()
	require.False(t, ok)
}

func TestLoginRejectsUnknownUser(t *testing.T) {
	handler, sessions := newHandler(t, &stubRepo{})

	res, _ := doLogin(t, handler, sessions, `{"email":"nobody@realestatecrm.com","password":"password"}`)
	require.Equal(t, http.StatusUnauthorized, res.Code)
}

func TestLoginRejectsInactiveUser(t *testing.T) {
	user := seededUser(t, "password")
	user.IsActive = false
	handler, sessions := newHandler(t, &stubRepo{user: user})

	res, _ := doLogin(t, handler, sessions, `{"email":"admin@realestatecrm.com","password":"password"}`)
	require.Equal(t, http.StatusUnauthorized, res.Code)
}

func TestLoginValidatesBody(t *testing.T) {
	handler, sessions := newHandler(t, &stubRepo{user: seededUser(t, "password")})

	res, _ := doLogin(t, handler, sessions, `{"email":"not-an-email"}`)
	require.Equal(t, http.StatusBadRequest, res.Code)
}
