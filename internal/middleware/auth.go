package middleware

import (
	"context"
	"net/http"
	"net/url"

	"github.com/odmarques/lojinha/internal/session"
)

type contextKey string

const (
	// SessionContextKey is the context key for the request's session
	SessionContextKey contextKey = "session"

	// SessionCookieName is the cookie holding the opaque session token
	SessionCookieName = "lojinha_session"
)

// WithSession loads the server-side session for the request's cookie and adds
// it to the context. A missing or dead token gets a fresh session and a new
// cookie. Handlers mutate the session in memory and persist it with
// store.Save when they changed something.
func WithSession(store *session.Store, secure bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var token string
			if cookie, err := r.Cookie(SessionCookieName); err == nil {
				token = cookie.Value
			}

			sess, err := store.Load(r.Context(), token)
			if err != nil {
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				return
			}

			if sess.IsNew() {
				http.SetCookie(w, &http.Cookie{
					Name:     SessionCookieName,
					Value:    sess.Token,
					Path:     "/",
					MaxAge:   int(session.TTL.Seconds()),
					HttpOnly: true,
					Secure:   secure,
					SameSite: http.SameSiteLaxMode,
				})
			}

			ctx := context.WithValue(r.Context(), SessionContextKey, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuth ensures the session carries a user identity, redirecting to the
// configured login URL if not. Must run after WithSession.
func RequireAuth(loginURL string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := GetSession(r.Context())
			if sess == nil || !sess.Authenticated() {
				returnTo := r.URL.Path
				if r.URL.RawQuery != "" {
					returnTo += "?" + r.URL.RawQuery
				}
				http.Redirect(w, r, loginURL+"?return_to="+url.QueryEscape(returnTo), http.StatusSeeOther)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// GetSession retrieves the session from the request context.
// Returns nil when WithSession did not run.
func GetSession(ctx context.Context) *session.Session {
	sess, ok := ctx.Value(SessionContextKey).(*session.Session)
	if !ok {
		return nil
	}
	return sess
}
