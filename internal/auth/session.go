package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/transsahel/colis-tracker/internal/domain"
	"github.com/transsahel/colis-tracker/internal/pkg/logger"
)

// UserStore is the user lookup contract the session manager needs.
type UserStore interface {
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
}

// Session is an authenticated agent session.
type Session struct {
	Token     string
	Principal Principal
	CreatedAt time.Time
	ExpiresAt time.Time
}

// SessionManager issues bearer tokens after a bcrypt password check and
// resolves request principals. Sessions are held in memory: losing them on
// restart just forces agents to log in again.
type SessionManager struct {
	users    UserStore
	ttl      time.Duration
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewSessionManager creates a session manager backed by the given user store.
func NewSessionManager(users UserStore, ttl time.Duration) *SessionManager {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &SessionManager{
		users:    users,
		ttl:      ttl,
		sessions: make(map[string]*Session),
	}
}

// Login verifies credentials and returns a new session token.
// Invalid email and invalid password are indistinguishable to the caller.
func (m *SessionManager) Login(ctx context.Context, email, password string) (*Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := m.users.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, ErrBadLogin
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrBadLogin
	}

	token, err := newToken()
	if err != nil {
		return nil, fmt.Errorf("generate session token: %w", err)
	}

	now := time.Now()
	s := &Session{
		Token: token,
		Principal: Principal{
			UserID: user.ID,
			Email:  user.Email,
			Role:   user.Role,
		},
		CreatedAt: now,
		ExpiresAt: now.Add(m.ttl),
	}

	m.mu.Lock()
	m.sessions[token] = s
	m.mu.Unlock()

	logger.Info("agent logged in", "email", user.Email, "role", string(user.Role))
	return s, nil
}

// Logout invalidates a session token. Unknown tokens are a no-op.
func (m *SessionManager) Logout(token string) {
	m.mu.Lock()
	delete(m.sessions, token)
	m.mu.Unlock()
}

// CurrentPrincipal resolves the principal for a request from its bearer
// token. Returns nil for missing, unknown, or expired sessions.
func (m *SessionManager) CurrentPrincipal(r *http.Request) *Principal {
	token := bearerToken(r)
	if token == "" {
		return nil
	}

	m.mu.RLock()
	s, ok := m.sessions[token]
	m.mu.RUnlock()
	if !ok {
		return nil
	}
	if time.Now().After(s.ExpiresAt) {
		m.Logout(token)
		return nil
	}

	p := s.Principal
	return &p
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return ""
}

func newToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}
