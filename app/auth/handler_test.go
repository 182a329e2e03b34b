package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/freelancerking/net32-admin/models"
)

type MockUserRepo struct {
	Users map[string]*models.User
	Err   error

	touchedIDs []uint
}

func (m *MockUserRepo) GetByUsername(username string) (*models.User, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if user, ok := m.Users[username]; ok {
		return user, nil
	}
	return nil, models.ErrUserNotFound
}

func (m *MockUserRepo) TouchLastLogin(id uint) error {
	m.touchedIDs = append(m.touchedIDs, id)
	return nil
}

func hashFor(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func newAuthFixture(t *testing.T) (*AuthHandler, *MockUserRepo, *SessionStore) {
	repo := &MockUserRepo{Users: map[string]*models.User{
		"admin": {ID: 1, Username: "admin", PasswordHash: hashFor(t, "s3cret")},
	}}
	sessions := NewSessionStore(time.Hour)
	return NewAuthHandler(repo, sessions, zap.NewNop()), repo, sessions
}

func loginJSON(body string) *http.Request {
	req := httptest.NewRequest("POST", "/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func sessionCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == CookieName {
			return c
		}
	}
	return nil
}

func TestHandleLogin(t *testing.T) {
	t.Run("Valid credentials create a session", func(t *testing.T) {
		handler, repo, sessions := newAuthFixture(t)
		rec := httptest.NewRecorder()

		handler.HandleLogin(rec, loginJSON(`{"username":"admin","password":"s3cret"}`))

		assert.Equal(t, http.StatusOK, rec.Code)
		var resp map[string]any
		assert.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, true, resp["success"])

		cookie := sessionCookie(rec)
		require.NotNil(t, cookie)
		assert.True(t, cookie.HttpOnly)
		assert.Equal(t, http.SameSiteLaxMode, cookie.SameSite)

		user, ok := sessions.Get(cookie.Value)
		assert.True(t, ok)
		assert.Equal(t, "admin", user.Username)
		assert.Equal(t, []uint{1}, repo.touchedIDs)
	})

	t.Run("Wrong password is rejected without a session", func(t *testing.T) {
		handler, repo, _ := newAuthFixture(t)
		rec := httptest.NewRecorder()

		handler.HandleLogin(rec, loginJSON(`{"username":"admin","password":"wrong"}`))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Nil(t, sessionCookie(rec))
		assert.Empty(t, repo.touchedIDs)
	})

	t.Run("Unknown user gets the same rejection as a bad password", func(t *testing.T) {
		handler, _, _ := newAuthFixture(t)
		recUnknown := httptest.NewRecorder()
		recWrong := httptest.NewRecorder()

		handler.HandleLogin(recUnknown, loginJSON(`{"username":"nobody","password":"x"}`))
		handler.HandleLogin(recWrong, loginJSON(`{"username":"admin","password":"wrong"}`))

		assert.Equal(t, http.StatusUnauthorized, recUnknown.Code)
		assert.Equal(t, recWrong.Body.String(), recUnknown.Body.String())
	})

	t.Run("Missing fields", func(t *testing.T) {
		handler, _, _ := newAuthFixture(t)
		rec := httptest.NewRecorder()

		handler.HandleLogin(rec, loginJSON(`{"username":"admin"}`))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("Form caller is redirected on success", func(t *testing.T) {
		handler, _, _ := newAuthFixture(t)
		form := url.Values{"username": {"admin"}, "password": {"s3cret"}}
		req := httptest.NewRequest("POST", "/login", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rec := httptest.NewRecorder()

		handler.HandleLogin(rec, req)

		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/products", rec.Header().Get("Location"))
		assert.NotNil(t, sessionCookie(rec))
	})

	t.Run("Form caller is redirected to login on failure", func(t *testing.T) {
		handler, _, _ := newAuthFixture(t)
		form := url.Values{"username": {"admin"}, "password": {"wrong"}}
		req := httptest.NewRequest("POST", "/login", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rec := httptest.NewRecorder()

		handler.HandleLogin(rec, req)

		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/login?status=error", rec.Header().Get("Location"))
	})

	t.Run("Store failure is a server error, not a rejection", func(t *testing.T) {
		handler := NewAuthHandler(&MockUserRepo{Err: assert.AnError}, NewSessionStore(time.Hour), zap.NewNop())
		rec := httptest.NewRecorder()

		handler.HandleLogin(rec, loginJSON(`{"username":"admin","password":"s3cret"}`))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

func TestHandleLogout(t *testing.T) {
	handler, _, sessions := newAuthFixture(t)
	token := sessions.Create(models.User{ID: 1, Username: "admin"})

	req := httptest.NewRequest("GET", "/logout", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: token})
	rec := httptest.NewRecorder()

	handler.HandleLogout(rec, req)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))

	_, ok := sessions.Get(token)
	assert.False(t, ok, "token must be dead after logout")

	cookie := sessionCookie(rec)
	require.NotNil(t, cookie)
	assert.Equal(t, -1, cookie.MaxAge)
	assert.Empty(t, cookie.Value)
}

func TestHandleLoginPage(t *testing.T) {
	t.Run("Authenticated callers are bounced to products", func(t *testing.T) {
		handler, _, sessions := newAuthFixture(t)
		token := sessions.Create(models.User{ID: 1, Username: "admin"})
		req := httptest.NewRequest("GET", "/login", nil)
		req.AddCookie(&http.Cookie{Name: CookieName, Value: token})
		rec := httptest.NewRecorder()

		handler.HandleLoginPage(rec, req)

		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/products", rec.Header().Get("Location"))
	})

	t.Run("Anonymous callers get the prompt", func(t *testing.T) {
		handler, _, _ := newAuthFixture(t)
		rec := httptest.NewRecorder()

		handler.HandleLoginPage(rec, httptest.NewRequest("GET", "/login", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
	})
}
