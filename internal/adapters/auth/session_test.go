package auth_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"car_dealership/internal/adapters/auth"
	redisad "car_dealership/internal/adapters/redis"
)

func newManager(t *testing.T, secret string) (*auth.Manager, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	return auth.NewManager(redisad.New(mr.Addr(), "", 0), secret, time.Hour, false), mr
}

// login starts a session and returns the cookie the client would send back.
func login(t *testing.T, m *auth.Manager, user string) *http.Cookie {
	t.Helper()
	rec := httptest.NewRecorder()
	require.NoError(t, m.Start(context.Background(), rec, user))
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, auth.CookieName, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)
	return cookies[0]
}

func TestSession_StartUserEnd(t *testing.T) {
	m, _ := newManager(t, "secret")
	c := login(t, m, "alice")

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(c)
	user, ok := m.User(req)
	require.True(t, ok)
	assert.Equal(t, "alice", user)

	rec := httptest.NewRecorder()
	require.NoError(t, m.End(context.Background(), rec, req))
	assert.Equal(t, -1, rec.Result().Cookies()[0].MaxAge)

	// the old token is revoked server-side
	_, ok = m.User(req)
	assert.False(t, ok)
}

func TestSession_BearerHeader(t *testing.T) {
	m, _ := newManager(t, "secret")
	c := login(t, m, "bob")

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+c.Value)
	user, ok := m.User(req)
	assert.True(t, ok)
	assert.Equal(t, "bob", user)
}

func TestSession_Rejections(t *testing.T) {
	m, mr := newManager(t, "secret")
	c := login(t, m, "alice")

	anon := httptest.NewRequest(http.MethodGet, "/", nil)
	_, ok := m.User(anon)
	assert.False(t, ok, "no cookie")

	forged, _ := newManager(t, "other-secret")
	fc := login(t, forged, "alice")
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(fc)
	_, ok = m.User(req)
	assert.False(t, ok, "token signed with another secret")

	mr.FastForward(2 * time.Hour)
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(c)
	_, ok = m.User(req)
	assert.False(t, ok, "session record expired")
}

func TestSession_EndWithoutSession(t *testing.T) {
	m, _ := newManager(t, "secret")
	rec := httptest.NewRecorder()
	assert.NoError(t, m.End(context.Background(), rec, httptest.NewRequest(http.MethodGet, "/", nil)))
}
