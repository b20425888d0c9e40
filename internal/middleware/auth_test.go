package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"statsboard/internal/config"
	"statsboard/internal/entity"
	"statsboard/internal/logging"
	"statsboard/internal/repository"
	"statsboard/internal/session"
)

type fakeFinder struct {
	users map[int]*entity.User
	err   error
}

func (f fakeFinder) GetByID(_ context.Context, id int) (*entity.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	u, ok := f.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return u, nil
}

func newManager() *session.Manager {
	store := session.NewCookieStore(config.SessionConfig{
		SecretKey: "0123456789abcdef0123456789abcdef",
		MaxAge:    time.Hour,
	})
	return session.NewManager(store, session.DefaultName, logging.Discard())
}

func loginCookies(t *testing.T, m *session.Manager, userID int) []*http.Cookie {
	t.Helper()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	m.Start(r, userID)
	require.NoError(t, m.Save(w, r))
	return w.Result().Cookies()
}

func flashesFrom(t *testing.T, m *session.Manager, cookies []*http.Cookie) []session.Flash {
	t.Helper()
	r := httptest.NewRequest(http.MethodGet, "/login", nil)
	for _, c := range cookies {
		r.AddCookie(c)
	}
	return m.Flashes(r)
}

const notice = "You need to log in to access team statistics."

func protected(t *testing.T, reached *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*reached = true
		u, ok := UserFromContext(r.Context())
		require.True(t, ok)
		_, _ = w.Write([]byte("secret stats for " + u.Username))
	})
}

func TestGate_AnonymousIsRedirected(t *testing.T) {
	m := newManager()
	gate := NewGate(m, fakeFinder{}, logging.Discard(), nil)

	var reached bool
	rec := httptest.NewRecorder()
	gate.Require(notice)(protected(t, &reached)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/team_stats", nil))

	assert.False(t, reached)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
	assert.NotContains(t, rec.Body.String(), "secret stats")
	assert.Equal(t, []session.Flash{{Message: notice, Category: session.CategoryInfo}},
		flashesFrom(t, m, rec.Result().Cookies()))
}

func TestGate_LoggedInUserPasses(t *testing.T) {
	m := newManager()
	alice := &entity.User{ID: 1, Username: "alice"}
	gate := NewGate(m, fakeFinder{users: map[int]*entity.User{1: alice}}, logging.Discard(), nil)

	req := httptest.NewRequest(http.MethodGet, "/team_stats", nil)
	for _, c := range loginCookies(t, m, 1) {
		req.AddCookie(c)
	}

	var reached bool
	rec := httptest.NewRecorder()
	gate.Require(notice)(protected(t, &reached)).ServeHTTP(rec, req)

	assert.True(t, reached)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "secret stats for alice", rec.Body.String())
}

func TestGate_DeletedUserIsDeniedAndSessionEnded(t *testing.T) {
	m := newManager()
	gate := NewGate(m, fakeFinder{users: map[int]*entity.User{}}, logging.Discard(), nil)

	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	for _, c := range loginCookies(t, m, 99) {
		req.AddCookie(c)
	}

	var reached bool
	rec := httptest.NewRecorder()
	gate.Require(notice)(protected(t, &reached)).ServeHTTP(rec, req)

	assert.False(t, reached)
	assert.Equal(t, http.StatusSeeOther, rec.Code)

	next := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	for _, c := range rec.Result().Cookies() {
		next.AddCookie(c)
	}
	_, ok := m.CurrentUserID(next)
	assert.False(t, ok, "stale user id should be removed from the session")
}

func TestGate_LookupFailureIsGeneric(t *testing.T) {
	m := newManager()
	gate := NewGate(m, fakeFinder{err: errors.New(`pq: password authentication failed for user "sa"`)}, logging.Discard(), nil)

	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	for _, c := range loginCookies(t, m, 1) {
		req.AddCookie(c)
	}

	var reached bool
	rec := httptest.NewRecorder()
	gate.Require(notice)(protected(t, &reached)).ServeHTTP(rec, req)

	assert.False(t, reached)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.NotContains(t, rec.Body.String(), "pq:")
}

func TestUserFromContext(t *testing.T) {
	_, ok := UserFromContext(context.Background())
	assert.False(t, ok)

	u := &entity.User{ID: 3}
	got, ok := UserFromContext(WithUser(context.Background(), u))
	assert.True(t, ok)
	assert.Same(t, u, got)
}
