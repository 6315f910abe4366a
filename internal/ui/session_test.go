package ui

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestSessionManager_CreateAndGet(t *testing.T) {
	sm := NewSessionManager(time.Hour)

	sess, err := sm.CreateSession()
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	if !strings.HasPrefix(sess.ID, "sess_") || len(sess.ID) != len("sess_")+64 {
		t.Errorf("unexpected session ID %q", sess.ID)
	}

	retrieved := sm.GetSession(sess.ID)
	if retrieved == nil {
		t.Fatal("expected session to be found")
	}
	if retrieved.ID != sess.ID {
		t.Errorf("expected ID %q, got %q", sess.ID, retrieved.ID)
	}
}

func TestSessionManager_GetSession_NotFound(t *testing.T) {
	sm := NewSessionManager(time.Hour)
	if sess := sm.GetSession("sess_nonexistent"); sess != nil {
		t.Errorf("expected nil session, got %+v", sess)
	}
}

func TestSessionManager_Expiry(t *testing.T) {
	sm := NewSessionManager(time.Minute)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	sm.now = func() time.Time { return now }

	keep, _ := sm.CreateSession()
	drop, _ := sm.CreateSession()

	// Touching a session slides its expiry.
	now = now.Add(50 * time.Second)
	if sm.GetSession(keep.ID) == nil {
		t.Fatal("session expired early")
	}

	now = now.Add(30 * time.Second)
	expired := sm.CleanupExpiredSessions()
	if len(expired) != 1 || expired[0] != drop.ID {
		t.Errorf("expired = %v, want [%s]", expired, drop.ID)
	}
	if sm.Len() != 1 {
		t.Errorf("Len = %d, want 1", sm.Len())
	}

	now = now.Add(2 * time.Minute)
	if sm.GetSession(keep.ID) != nil {
		t.Error("expected expired session to be dropped on lookup")
	}
}

func TestSessionManager_GetSessionFromRequest(t *testing.T) {
	sm := NewSessionManager(time.Hour)
	sess, _ := sm.CreateSession()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if got := sm.GetSessionFromRequest(req); got != nil {
		t.Errorf("expected nil without cookie, got %+v", got)
	}

	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: sess.ID})
	if got := sm.GetSessionFromRequest(req); got == nil || got.ID != sess.ID {
		t.Errorf("got %+v, want session %s", got, sess.ID)
	}
}

func TestSetSessionCookie(t *testing.T) {
	sm := NewSessionManager(time.Hour)
	sess, _ := sm.CreateSession()

	rec := httptest.NewRecorder()
	SetSessionCookie(rec, sess, true)

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("expected 1 cookie, got %d", len(cookies))
	}
	c := cookies[0]
	if c.Name != SessionCookieName || c.Value != sess.ID {
		t.Errorf("cookie = %s=%s", c.Name, c.Value)
	}
	if !c.HttpOnly || !c.Secure {
		t.Errorf("cookie flags HttpOnly=%v Secure=%v", c.HttpOnly, c.Secure)
	}
}
