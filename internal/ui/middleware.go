package ui

import (
	"context"
	"net/http"

	"github.com/me/schedlab/pkg/model"
)

// Context keys for session data.
type contextKey string

const (
	sessionContextKey contextKey = "session"
)

// SessionFromContext retrieves the session from the request context.
func SessionFromContext(ctx context.Context) *model.Session {
	sess, _ := ctx.Value(sessionContextKey).(*model.Session)
	return sess
}

// SessionMiddleware attaches the caller's session to the request context,
// starting a new one when the cookie is missing or expired.
func (ui *UI) SessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := ui.sessions.GetSessionFromRequest(r)
		if sess == nil {
			var err error
			sess, err = ui.sessions.CreateSession()
			if err != nil {
				ui.logger.Error("create session failed", "error", err)
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				return
			}
			ui.logger.Debug("session started", "session", sess.ID)
		}
		SetSessionCookie(w, sess, ui.secure)

		ctx := context.WithValue(r.Context(), sessionContextKey, sess)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
