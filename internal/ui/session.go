package ui

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/me/schedlab/pkg/model"
)

const (
	// SessionCookieName is the name of the session cookie.
	SessionCookieName = "schedlab_session"
	// SessionDuration is the default session lifetime.
	SessionDuration = 24 * time.Hour
)

// SessionManager tracks anonymous browser sessions in memory. A session id
// doubles as the id of the session's form store.
type SessionManager struct {
	mu       sync.Mutex
	sessions map[string]*model.Session
	ttl      time.Duration
	now      func() time.Time
}

// NewSessionManager creates a new session manager. A non-positive ttl uses
// SessionDuration.
func NewSessionManager(ttl time.Duration) *SessionManager {
	if ttl <= 0 {
		ttl = SessionDuration
	}
	return &SessionManager{
		sessions: make(map[string]*model.Session),
		ttl:      ttl,
		now:      time.Now,
	}
}

// CreateSession starts a new session.
func (sm *SessionManager) CreateSession() (*model.Session, error) {
	sessionID, err := generateSessionID()
	if err != nil {
		return nil, fmt.Errorf("generate session id: %w", err)
	}
	now := sm.now()
	sess := &model.Session{
		ID:        sessionID,
		CreatedAt: now,
		ExpiresAt: now.Add(sm.ttl),
	}
	sm.mu.Lock()
	sm.sessions[sess.ID] = sess
	sm.mu.Unlock()
	return sess, nil
}

// GetSession returns the session and slides its expiry forward.
// Returns nil if the session doesn't exist or has expired.
func (sm *SessionManager) GetSession(sessionID string) *model.Session {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sess, ok := sm.sessions[sessionID]
	if !ok {
		return nil
	}
	now := sm.now()
	if now.After(sess.ExpiresAt) {
		delete(sm.sessions, sessionID)
		return nil
	}
	sess.ExpiresAt = now.Add(sm.ttl)
	return sess
}

// DeleteSession forgets a session.
func (sm *SessionManager) DeleteSession(sessionID string) {
	sm.mu.Lock()
	delete(sm.sessions, sessionID)
	sm.mu.Unlock()
}

// CleanupExpiredSessions removes expired sessions and returns their ids.
func (sm *SessionManager) CleanupExpiredSessions() []string {
	now := sm.now()
	sm.mu.Lock()
	defer sm.mu.Unlock()
	var expired []string
	for id, sess := range sm.sessions {
		if now.After(sess.ExpiresAt) {
			delete(sm.sessions, id)
			expired = append(expired, id)
		}
	}
	return expired
}

// Len returns the number of tracked sessions.
func (sm *SessionManager) Len() int {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return len(sm.sessions)
}

// GetSessionFromRequest extracts the session from the request cookie.
func (sm *SessionManager) GetSessionFromRequest(r *http.Request) *model.Session {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil {
		return nil // No cookie, no session
	}
	return sm.GetSession(cookie.Value)
}

// SetSessionCookie sets the session cookie on the response.
func SetSessionCookie(w http.ResponseWriter, sess *model.Session, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    sess.ID,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
		Expires:  sess.ExpiresAt,
	})
}

// generateSessionID generates a cryptographically secure random session ID.
func generateSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return "sess_" + hex.EncodeToString(b), nil
}
