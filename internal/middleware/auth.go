package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"sync"
	"time"
)

const SessionCookie = "oplist_session"

// Sessions is the password gate in front of the booking pages. A gate with an
// empty password lets every request through.
type Sessions struct {
	password string
	ttl      time.Duration
	secure   bool
	now      func() time.Time

	mu       sync.Mutex
	sessions map[string]time.Time
}

func NewSessions(password string, ttl time.Duration, secure bool) *Sessions {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &Sessions{
		password: password,
		ttl:      ttl,
		secure:   secure,
		now:      time.Now,
		sessions: make(map[string]time.Time),
	}
}

// Enabled reports whether a password is configured.
func (s *Sessions) Enabled() bool { return s.password != "" }

// Login checks the password and, on success, sets the session cookie.
func (s *Sessions) Login(w http.ResponseWriter, password string) bool {
	if !s.Enabled() {
		return true
	}
	if subtle.ConstantTimeCompare([]byte(password), []byte(s.password)) != 1 {
		return false
	}
	id := GenerateToken()
	expires := s.now().Add(s.ttl)

	s.mu.Lock()
	s.sessions[id] = expires
	s.mu.Unlock()

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    id,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return true
}

func (s *Sessions) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(SessionCookie); err == nil {
		s.mu.Lock()
		delete(s.sessions, cookie.Value)
		s.mu.Unlock()
	}
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secure,
	})
}

// Valid reports whether r carries a live session. Expired sessions are dropped.
func (s *Sessions) Valid(r *http.Request) bool {
	if !s.Enabled() {
		return true
	}
	cookie, err := r.Cookie(SessionCookie)
	if err != nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	expires, ok := s.sessions[cookie.Value]
	if !ok {
		return false
	}
	if !s.now().Before(expires) {
		delete(s.sessions, cookie.Value)
		return false
	}
	return true
}

func exempt(path string) bool {
	return path == "/login" || path == "/healthz" || strings.HasPrefix(path, "/static/")
}

// Require sends unauthenticated page loads to /login and rejects everything else with 401.
func (s *Sessions) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if exempt(r.URL.Path) || s.Valid(r) {
			next.ServeHTTP(w, r)
			return
		}
		if r.Method == http.MethodGet || r.Method == http.MethodHead {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
	})
}
