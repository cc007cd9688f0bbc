/*
auth.go - Admin session authentication

PURPOSE:
  Cookie-based admin sessions for the dashboard endpoints. Passwords are
  stored as bcrypt hashes; session tokens are opaque random strings held
  in memory with an expiry.

FLOW:
  POST /api/login   -> verify bcrypt hash, mint session token, set cookie
  POST /api/logout  -> destroy session
  (everything else admin-facing runs behind RequireAdmin)

The public check-in endpoint is deliberately outside this layer: the
employee's badge token is its only credential.
*/
package api

import (
	"crypto/rand"
	"encoding/base64"
	"net/http"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"
)

const (
	sessionCookie = "session"
	sessionTTL    = 12 * time.Hour
)

// Sessions is an in-memory session table.
type Sessions struct {
	mu     sync.Mutex
	active map[string]session
}

type session struct {
	username  string
	expiresAt time.Time
}

func NewSessions() *Sessions {
	return &Sessions{active: make(map[string]session)}
}

// Create mints a session token for an authenticated admin.
func (s *Sessions) Create(username string) (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	token := base64.RawURLEncoding.EncodeToString(buf)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.active[token] = session{username: username, expiresAt: time.Now().Add(sessionTTL)}
	return token, nil
}

// Validate reports whether the token belongs to a live session. Expired
// sessions are removed on sight.
func (s *Sessions) Validate(token string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.active[token]
	if !ok {
		return false
	}
	if time.Now().After(sess.expiresAt) {
		delete(s.active, token)
		return false
	}
	return true
}

func (s *Sessions) Destroy(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.active, token)
}

// HashPassword produces the bcrypt hash stored in the admins table.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func checkPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// RequireAdmin guards dashboard routes behind a live session cookie.
func (h *Handler) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(sessionCookie)
		if err != nil || !h.Sessions.Validate(cookie.Value) {
			writeError(w, http.StatusUnauthorized, "authentication required", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}
