// Package storefront implements the customer-facing HTTP handlers.
package storefront

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/odmarques/lojinha/internal/domain"
	"github.com/odmarques/lojinha/internal/middleware"
	"github.com/odmarques/lojinha/internal/session"
)

// SessionStore is the slice of the session store the handlers need.
// *session.Store satisfies it; tests substitute an in-memory fake.
type SessionStore interface {
	Save(ctx context.Context, sess *session.Session) error
}

// flashView is a drained flash message as rendered in JSON payloads.
type flashView struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

func flashViews(flashes []session.Flash) []flashView {
	views := make([]flashView, len(flashes))
	for i, f := range flashes {
		views[i] = flashView{Level: f.Level, Message: f.Message}
	}
	return views
}

// brl renders centavos as a decimal amount for JSON payloads.
func brl(cents int64) float64 {
	return float64(cents) / 100
}

// flashAndRedirect queues a one-shot message, persists the session and sends
// the customer to location.
func flashAndRedirect(w http.ResponseWriter, r *http.Request, store SessionStore, sess *session.Session, level, message, location string) {
	sess.AddFlash(level, message)
	if err := store.Save(r.Context(), sess); err != nil {
		slog.Default().Error("failed to save session", "error", err)
	}
	http.Redirect(w, r, location, http.StatusSeeOther)
}

// requestSession pulls the session the middleware loaded. Routes behind
// WithSession always have one; a nil return means a wiring mistake.
func requestSession(r *http.Request) *session.Session {
	return middleware.GetSession(r.Context())
}

// pathUUID parses a path value as a UUID, reporting ENOTFOUND on garbage so
// probing invalid IDs looks the same as probing someone else's.
func pathUUID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		return uuid.Nil, domain.ErrOrderNotFound
	}
	return id, nil
}
