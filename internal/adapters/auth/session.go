// Package auth keeps login sessions: an HS256-signed token in a cookie names a
// server-side session record, so logging out revokes the token.
package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"car_dealership/internal/domain"
)

const CookieName = "sessionid"

var errNoSession = errors.New("no session")

type Manager struct {
	store  domain.Cache
	secret []byte
	ttl    time.Duration
	secure bool
}

func NewManager(store domain.Cache, secret string, ttl time.Duration, secure bool) *Manager {
	if ttl <= 0 {
		ttl = 14 * 24 * time.Hour
	}
	return &Manager{store: store, secret: []byte(secret), ttl: ttl, secure: secure}
}

type record struct {
	Username string    `json:"username"`
	Started  time.Time `json:"started"`
}

func sessionKey(id string) string { return "session:" + id }

// Start opens a session for username and sets the session cookie on w.
func (m *Manager) Start(ctx context.Context, w http.ResponseWriter, username string) error {
	id := uuid.NewString()
	now := time.Now()
	if err := m.store.Set(ctx, sessionKey(id), record{Username: username, Started: now}, int(m.ttl.Seconds())); err != nil {
		return err
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ID:        id,
		Subject:   username,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
	})
	signed, err := tok.SignedString(m.secret)
	if err != nil {
		_ = m.store.Del(ctx, sessionKey(id))
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    signed,
		Path:     "/",
		MaxAge:   int(m.ttl.Seconds()),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// User returns the username of the request's live session.
func (m *Manager) User(r *http.Request) (string, bool) {
	claims, err := m.claims(r)
	if err != nil {
		return "", false
	}
	var rec record
	ok, err := m.store.Get(r.Context(), sessionKey(claims.ID), &rec)
	if err != nil || !ok || rec.Username != claims.Subject {
		return "", false
	}
	return rec.Username, true
}

// End revokes the request's session, if any, and expires the cookie.
func (m *Manager) End(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	claims, err := m.claims(r)
	if err != nil {
		return nil
	}
	return m.store.Del(ctx, sessionKey(claims.ID))
}

// claims reads the token from the session cookie or an Authorization: Bearer header.
func (m *Manager) claims(r *http.Request) (*jwt.RegisteredClaims, error) {
	raw := ""
	if c, err := r.Cookie(CookieName); err == nil {
		raw = c.Value
	} else if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		raw = strings.TrimPrefix(h, "Bearer ")
	}
	if raw == "" {
		return nil, errNoSession
	}

	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	if claims.ID == "" {
		return nil, errNoSession
	}
	return claims, nil
}
