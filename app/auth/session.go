package auth

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/freelancerking/net32-admin/models"
)

// CookieName is the session cookie set at login.
const CookieName = "admin_session"

type session struct {
	user      models.User
	expiresAt time.Time
}

// SessionStore is a process-held map from token to authenticated user.
// Sessions live from login until logout or expiry.
type SessionStore struct {
	mu       sync.Mutex
	ttl      time.Duration
	sessions map[string]session
}

func NewSessionStore(ttl time.Duration) *SessionStore {
	return &SessionStore{
		ttl:      ttl,
		sessions: make(map[string]session),
	}
}

// Create registers a new session and returns its token.
func (s *SessionStore) Create(user models.User) string {
	token := uuid.NewString()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[token] = session{
		user:      user,
		expiresAt: time.Now().Add(s.ttl),
	}
	return token
}

// Get resolves a token to its user. Expired sessions are removed on
// access.
func (s *SessionStore) Get(token string) (models.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[token]
	if !ok {
		return models.User{}, false
	}
	if time.Now().After(sess.expiresAt) {
		delete(s.sessions, token)
		return models.User{}, false
	}
	return sess.user, true
}

func (s *SessionStore) Destroy(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
}
