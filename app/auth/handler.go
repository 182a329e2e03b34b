package auth

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/freelancerking/net32-admin/models"
)

type UserProvider interface {
	GetByUsername(username string) (*models.User, error)
	TouchLastLogin(id uint) error
}

type AuthHandler struct {
	users    UserProvider
	sessions *SessionStore
	logger   *zap.Logger
}

func NewAuthHandler(users UserProvider, sessions *SessionStore, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		users:    users,
		sessions: sessions,
		logger:   logger,
	}
}

// HandleLoginPage stands in for the login view; rendering is out of
// scope, so authenticated callers are bounced to the product list and
// everyone else gets a simple prompt.
func (h *AuthHandler) HandleLoginPage(w http.ResponseWriter, r *http.Request) {
	if _, ok := UserFromRequest(h.sessions, r); ok {
		http.Redirect(w, r, "/products", http.StatusSeeOther)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "login required"})
}

func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var username, password string
	if WantsJSON(r) {
		var body struct {
			Username string `json:"username"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid JSON body"})
			return
		}
		username, password = body.Username, body.Password
	} else {
		if err := r.ParseForm(); err != nil {
			http.Redirect(w, r, "/login?status=error", http.StatusSeeOther)
			return
		}
		username = r.PostFormValue("username")
		password = r.PostFormValue("password")
	}

	if username == "" || password == "" {
		h.fail(w, r, http.StatusBadRequest, "please enter both fields")
		return
	}

	user, err := h.users.GetByUsername(username)
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			h.fail(w, r, http.StatusUnauthorized, "invalid username or password")
			return
		}
		h.logger.Error("login lookup failed", zap.String("username", username), zap.Error(err))
		h.fail(w, r, http.StatusInternalServerError, "database error")
		return
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		h.fail(w, r, http.StatusUnauthorized, "invalid username or password")
		return
	}

	if err := h.users.TouchLastLogin(user.ID); err != nil {
		h.logger.Warn("failed to stamp last login", zap.Uint("user_id", user.ID), zap.Error(err))
	}

	token := h.sessions.Create(*user)
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	if WantsJSON(r) {
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
		return
	}
	http.Redirect(w, r, "/products", http.StatusSeeOther)
}

func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(CookieName); err == nil && cookie.Value != "" {
		h.sessions.Destroy(cookie.Value)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (h *AuthHandler) fail(w http.ResponseWriter, r *http.Request, status int, message string) {
	if WantsJSON(r) {
		writeJSON(w, status, map[string]any{"error": message})
		return
	}
	http.Redirect(w, r, "/login?status=error", http.StatusSeeOther)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
