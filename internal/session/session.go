// Package session provides server-side sessions persisted in PostgreSQL.
// The browser holds only an opaque token; cart, shipping quote, identity and
// flash messages live in the session row's JSON payload.
package session

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odmarques/lojinha/internal/domain"
)

// TTL is how long an idle session survives.
const TTL = 30 * 24 * time.Hour

// ErrNotFound is returned when the token has no live session row.
var ErrNotFound = errors.New("session: not found")

// Flash is a one-shot message shown on the next page load.
type Flash struct {
	Level   string `json:"level"` // "success", "warning" or "error"
	Message string `json:"message"`
}

// payload is the JSON document stored in the session row.
type payload struct {
	Cart          *domain.Cart `json:"cart,omitempty"`
	ShippingCents int64        `json:"shipping_cents,omitempty"`
	Flashes       []Flash      `json:"flashes,omitempty"`
}

// Session is one user session. Mutations happen in memory; the caller
// persists them with Store.Save.
type Session struct {
	Token  string
	UserID uuid.UUID // uuid.Nil when not authenticated
	data   payload
	isNew  bool
}

// IsNew reports whether the session was created on this request, which means
// the caller still has to set the cookie.
func (s *Session) IsNew() bool { return s.isNew }

// Authenticated reports whether the session carries a user identity.
func (s *Session) Authenticated() bool { return s.UserID != uuid.Nil }

// Cart returns the session's cart, creating an empty one on first access.
// The pointer aliases session state: mutations stick until Save.
func (s *Session) Cart() *domain.Cart {
	if s.data.Cart == nil {
		s.data.Cart = domain.NewCart()
	}
	return s.data.Cart
}

// ShippingCents returns the stored shipping quote; absence is zero.
func (s *Session) ShippingCents() int64 { return s.data.ShippingCents }

// SetShippingCents stores a shipping quote.
func (s *Session) SetShippingCents(cents int64) { s.data.ShippingCents = cents }

// AddFlash queues a one-shot message.
func (s *Session) AddFlash(level, message string) {
	s.data.Flashes = append(s.data.Flashes, Flash{Level: level, Message: message})
}

// PopFlashes drains and returns the queued messages.
func (s *Session) PopFlashes() []Flash {
	flashes := s.data.Flashes
	s.data.Flashes = nil
	return flashes
}

// Store reads and writes session rows.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a session store backed by the given pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Load returns the session for a token. An empty or unknown token yields a
// fresh unsaved session with a new token.
func (st *Store) Load(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return newSession()
	}

	var (
		userID uuid.NullUUID
		raw    []byte
	)
	err := st.pool.QueryRow(ctx,
		`SELECT user_id, data FROM sessions WHERE token = $1 AND expires_at > now()`,
		token,
	).Scan(&userID, &raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return newSession()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	sess := &Session{Token: token}
	if userID.Valid {
		sess.UserID = userID.UUID
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &sess.data); err != nil {
			// Corrupt payload: start over rather than fail the request.
			sess.data = payload{}
		}
	}
	return sess, nil
}

// Save upserts the session row and renews its expiry.
func (st *Store) Save(ctx context.Context, sess *Session) error {
	raw, err := json.Marshal(sess.data)
	if err != nil {
		return fmt.Errorf("failed to encode session data: %w", err)
	}

	var userID uuid.NullUUID
	if sess.UserID != uuid.Nil {
		userID = uuid.NullUUID{UUID: sess.UserID, Valid: true}
	}

	_, err = st.pool.Exec(ctx,
		`INSERT INTO sessions (token, user_id, data, expires_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (token) DO UPDATE
		 SET user_id = EXCLUDED.user_id, data = EXCLUDED.data,
		     expires_at = EXCLUDED.expires_at, updated_at = now()`,
		sess.Token, userID, raw, time.Now().Add(TTL),
	)
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	sess.isNew = false
	return nil
}

// DeleteExpired prunes dead session rows. Meant for a periodic sweep.
func (st *Store) DeleteExpired(ctx context.Context) (int64, error) {
	tag, err := st.pool.Exec(ctx, `DELETE FROM sessions WHERE expires_at <= now()`)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}
	return tag.RowsAffected(), nil
}

func newSession() (*Session, error) {
	token, err := generateToken()
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, isNew: true}, nil
}

// generateToken generates a cryptographically secure session token.
// Uses 32 bytes of random data encoded as base64 URL-safe string.
func generateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return base64.URLEncoding.EncodeToString(b), nil
}
