package users

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/freelancerking/net32-admin/models"
)

type MockUserRepo struct {
	Users []models.User
	Err   error

	created []models.User
	updated []models.User
	deleted []uint
}

func (m *MockUserRepo) List() ([]models.User, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Users, nil
}

func (m *MockUserRepo) GetByID(id uint) (*models.User, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	for _, u := range m.Users {
		if u.ID == id {
			user := u
			return &user, nil
		}
	}
	return nil, models.ErrUserNotFound
}

func (m *MockUserRepo) Create(user *models.User) error {
	if m.Err != nil {
		return m.Err
	}
	m.created = append(m.created, *user)
	return nil
}

func (m *MockUserRepo) Update(user *models.User) error {
	if m.Err != nil {
		return m.Err
	}
	m.updated = append(m.updated, *user)
	return nil
}

func (m *MockUserRepo) Delete(id uint) error {
	if m.Err != nil {
		return m.Err
	}
	m.deleted = append(m.deleted, id)
	return nil
}

func newTestHandler(repo *MockUserRepo) *UsersHandler {
	return NewUsersHandler(repo, zap.NewNop())
}

func formRequest(target string, form url.Values) *http.Request {
	req := httptest.NewRequest("POST", target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func TestHandleList(t *testing.T) {
	t.Run("Password hashes never leave the server", func(t *testing.T) {
		repo := &MockUserRepo{Users: []models.User{
			{ID: 1, Username: "admin", Name: "Admin", PasswordHash: "$2a$10$secret"},
		}}
		rec := httptest.NewRecorder()

		newTestHandler(repo).HandleList(rec, httptest.NewRequest("GET", "/users", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.NotContains(t, rec.Body.String(), "secret")

		var views []userView
		assert.NoError(t, json.NewDecoder(rec.Body).Decode(&views))
		require.Len(t, views, 1)
		assert.Equal(t, "admin", views[0].Username)
	})

	t.Run("Store error", func(t *testing.T) {
		repo := &MockUserRepo{Err: assert.AnError}
		rec := httptest.NewRecorder()

		newTestHandler(repo).HandleList(rec, httptest.NewRequest("GET", "/users", nil))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

func TestHandleAdd(t *testing.T) {
	t.Run("Stores a verifiable hash, not the password", func(t *testing.T) {
		repo := &MockUserRepo{}
		rec := httptest.NewRecorder()

		newTestHandler(repo).HandleAdd(rec, formRequest("/users/add", url.Values{
			"username": {"jane"},
			"name":     {"Jane"},
			"password": {"hunter2"},
		}))

		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/users", rec.Header().Get("Location"))

		require.Len(t, repo.created, 1)
		created := repo.created[0]
		assert.Equal(t, "jane", created.Username)
		assert.Equal(t, "Jane", created.Name)
		assert.NotEqual(t, "hunter2", created.PasswordHash)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(created.PasswordHash), []byte("hunter2")))
	})

	t.Run("Missing password aborts", func(t *testing.T) {
		repo := &MockUserRepo{}
		rec := httptest.NewRecorder()

		newTestHandler(repo).HandleAdd(rec, formRequest("/users/add", url.Values{
			"username": {"jane"},
		}))

		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/users?status=error", rec.Header().Get("Location"))
		assert.Empty(t, repo.created)
	})

	t.Run("JSON caller gets a structured reply", func(t *testing.T) {
		repo := &MockUserRepo{}
		req := httptest.NewRequest("POST", "/users/add", strings.NewReader(`{"username":"jane","password":"hunter2"}`))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()

		newTestHandler(repo).HandleAdd(rec, req)

		assert.Equal(t, http.StatusCreated, rec.Code)
		assert.Len(t, repo.created, 1)
	})

	t.Run("Store failure", func(t *testing.T) {
		repo := &MockUserRepo{Err: assert.AnError}
		rec := httptest.NewRecorder()

		newTestHandler(repo).HandleAdd(rec, formRequest("/users/add", url.Values{
			"username": {"jane"},
			"password": {"hunter2"},
		}))

		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/users?status=error", rec.Header().Get("Location"))
	})
}

func TestHandleEdit(t *testing.T) {
	existing := models.User{ID: 3, Username: "jane", Name: "Jane", PasswordHash: "$2a$10$oldhash"}

	t.Run("Empty password keeps the existing hash", func(t *testing.T) {
		repo := &MockUserRepo{Users: []models.User{existing}}
		req := formRequest("/users/edit/3", url.Values{
			"username": {"jane.d"},
			"name":     {"Jane Doe"},
			"password": {""},
		})
		req.SetPathValue("id", "3")
		rec := httptest.NewRecorder()

		newTestHandler(repo).HandleEdit(rec, req)

		assert.Equal(t, http.StatusSeeOther, rec.Code)
		require.Len(t, repo.updated, 1)
		assert.Equal(t, "jane.d", repo.updated[0].Username)
		assert.Equal(t, "Jane Doe", repo.updated[0].Name)
		assert.Equal(t, "$2a$10$oldhash", repo.updated[0].PasswordHash)
	})

	t.Run("New password is re-hashed", func(t *testing.T) {
		repo := &MockUserRepo{Users: []models.User{existing}}
		req := formRequest("/users/edit/3", url.Values{
			"username": {"jane"},
			"password": {"newpass"},
		})
		req.SetPathValue("id", "3")
		rec := httptest.NewRecorder()

		newTestHandler(repo).HandleEdit(rec, req)

		require.Len(t, repo.updated, 1)
		assert.NotEqual(t, "$2a$10$oldhash", repo.updated[0].PasswordHash)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(repo.updated[0].PasswordHash), []byte("newpass")))
	})

	t.Run("Invalid id aborts before any store call", func(t *testing.T) {
		repo := &MockUserRepo{}
		req := formRequest("/users/edit/abc", url.Values{"username": {"jane"}})
		req.SetPathValue("id", "abc")
		rec := httptest.NewRecorder()

		newTestHandler(repo).HandleEdit(rec, req)

		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/users?status=error", rec.Header().Get("Location"))
		assert.Empty(t, repo.updated)
	})

	t.Run("Missing username aborts", func(t *testing.T) {
		repo := &MockUserRepo{Users: []models.User{existing}}
		req := formRequest("/users/edit/3", url.Values{"name": {"Jane"}})
		req.SetPathValue("id", "3")
		rec := httptest.NewRecorder()

		newTestHandler(repo).HandleEdit(rec, req)

		assert.Empty(t, repo.updated)
	})
}

func TestHandleDelete(t *testing.T) {
	t.Run("Deletes by id", func(t *testing.T) {
		repo := &MockUserRepo{}
		req := formRequest("/users/delete/7", url.Values{})
		req.SetPathValue("id", "7")
		rec := httptest.NewRecorder()

		newTestHandler(repo).HandleDelete(rec, req)

		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, []uint{7}, repo.deleted)
	})

	t.Run("Invalid id", func(t *testing.T) {
		repo := &MockUserRepo{}
		req := formRequest("/users/delete/x", url.Values{})
		req.SetPathValue("id", "x")
		rec := httptest.NewRecorder()

		newTestHandler(repo).HandleDelete(rec, req)

		assert.Equal(t, "/users?status=error", rec.Header().Get("Location"))
		assert.Empty(t, repo.deleted)
	})
}
