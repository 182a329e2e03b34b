package users

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/freelancerking/net32-admin/models"
)

type UserProvider interface {
	List() ([]models.User, error)
	GetByID(id uint) (*models.User, error)
	Create(user *models.User) error
	Update(user *models.User) error
	Delete(id uint) error
}

type UsersHandler struct {
	repo   UserProvider
	logger *zap.Logger
}

func NewUsersHandler(repo UserProvider, logger *zap.Logger) *UsersHandler {
	return &UsersHandler{
		repo:   repo,
		logger: logger,
	}
}

// userView never carries the password hash.
type userView struct {
	ID        uint       `json:"id"`
	Username  string     `json:"username"`
	Name      string     `json:"name"`
	LastLogin *time.Time `json:"last_login"`
}

func (h *UsersHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	users, err := h.repo.List()
	if err != nil {
		h.logger.Error("user list query failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "database error"})
		return
	}

	views := make([]userView, len(users))
	for i, u := range users {
		views[i] = userView{ID: u.ID, Username: u.Username, Name: u.Name, LastLogin: u.LastLogin}
	}
	writeJSON(w, http.StatusOK, views)
}

func (h *UsersHandler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	username, name, password, err := credentialsFromRequest(r)
	if err != nil {
		h.fail(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	if username == "" || password == "" {
		h.fail(w, r, http.StatusBadRequest, "username and password are required")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		h.logger.Error("password hash failed", zap.Error(err))
		h.fail(w, r, http.StatusInternalServerError, "error adding user")
		return
	}

	user := &models.User{Username: username, Name: name, PasswordHash: string(hash)}
	if err := h.repo.Create(user); err != nil {
		h.logger.Error("user insert failed", zap.String("username", username), zap.Error(err))
		h.fail(w, r, http.StatusInternalServerError, "error adding user")
		return
	}
	h.succeed(w, r, http.StatusCreated)
}

func (h *UsersHandler) HandleEdit(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		h.fail(w, r, http.StatusBadRequest, "invalid user id")
		return
	}

	username, name, password, err := credentialsFromRequest(r)
	if err != nil {
		h.fail(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	if username == "" {
		h.fail(w, r, http.StatusBadRequest, "username is required")
		return
	}

	user, err := h.repo.GetByID(id)
	if err != nil {
		h.logger.Error("user lookup failed", zap.Uint("id", id), zap.Error(err))
		h.fail(w, r, http.StatusInternalServerError, "error updating user")
		return
	}

	user.Username = username
	user.Name = name
	if password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			h.logger.Error("password hash failed", zap.Error(err))
			h.fail(w, r, http.StatusInternalServerError, "error updating user")
			return
		}
		user.PasswordHash = string(hash)
	}

	if err := h.repo.Update(user); err != nil {
		h.logger.Error("user update failed", zap.Uint("id", id), zap.Error(err))
		h.fail(w, r, http.StatusInternalServerError, "error updating user")
		return
	}
	h.succeed(w, r, http.StatusOK)
}

func (h *UsersHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		h.fail(w, r, http.StatusBadRequest, "invalid user id")
		return
	}
	if err := h.repo.Delete(id); err != nil {
		h.logger.Error("user delete failed", zap.Uint("id", id), zap.Error(err))
		h.fail(w, r, http.StatusInternalServerError, "error deleting user")
		return
	}
	h.succeed(w, r, http.StatusOK)
}

func credentialsFromRequest(r *http.Request) (username, name, password string, err error) {
	if strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		var body struct {
			Username string `json:"username"`
			Name     string `json:"name"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			return "", "", "", err
		}
		return body.Username, body.Name, body.Password, nil
	}
	if err := r.ParseForm(); err != nil {
		return "", "", "", err
	}
	return r.PostFormValue("username"), r.PostFormValue("name"), r.PostFormValue("password"), nil
}

func (h *UsersHandler) succeed(w http.ResponseWriter, r *http.Request, status int) {
	if strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		writeJSON(w, status, map[string]any{"success": true})
		return
	}
	http.Redirect(w, r, "/users", http.StatusSeeOther)
}

func (h *UsersHandler) fail(w http.ResponseWriter, r *http.Request, status int, message string) {
	if strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		writeJSON(w, status, map[string]any{"error": message})
		return
	}
	http.Redirect(w, r, "/users?status=error", http.StatusSeeOther)
}

func pathID(r *http.Request) (uint, bool) {
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 64)
	if err != nil {
		return 0, false
	}
	return uint(id), true
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
