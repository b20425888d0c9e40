package session

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"statsboard/internal/config"
	"statsboard/internal/logging"
)

func newRedisManager(t *testing.T) (*Manager, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	cfg := testSessionConfig
	cfg.Backend = config.SessionBackendRedis
	store := NewStore(cfg, client)
	_, ok := store.(*RedisStore)
	require.True(t, ok)

	return NewManager(store, DefaultName, logging.Discard()), mr
}

func TestRedisStore_RoundTrip(t *testing.T) {
	m, mr := newRedisManager(t)

	cookies := roundTrip(t, m, nil, func(r *http.Request) {
		m.Start(r, 42)
		m.AddFlash(r, Flash{Message: "Login successful!", Category: CategorySuccess})
	})
	require.Len(t, cookies, 1)

	keys := mr.Keys()
	require.Len(t, keys, 1)
	assert.Contains(t, keys[0], redisKeyPrefix)
	assert.True(t, mr.TTL(keys[0]) > 0, "session key should expire")
	assert.NotContains(t, cookies[0].Value, "user_id")

	read(m, cookies, func(r *http.Request) {
		id, ok := m.CurrentUserID(r)
		assert.True(t, ok)
		assert.Equal(t, 42, id)
		assert.Equal(t, []Flash{{Message: "Login successful!", Category: CategorySuccess}}, m.Flashes(r))
	})
}

func TestRedisStore_ServerSideRevocation(t *testing.T) {
	m, mr := newRedisManager(t)

	cookies := roundTrip(t, m, nil, func(r *http.Request) { m.Start(r, 42) })
	mr.FlushAll()

	read(m, cookies, func(r *http.Request) {
		_, ok := m.CurrentUserID(r)
		assert.False(t, ok)
	})
}

func TestRedisStore_EndKeepsRecordKey(t *testing.T) {
	m, mr := newRedisManager(t)

	cookies := roundTrip(t, m, nil, func(r *http.Request) { m.Start(r, 1) })
	cookies = roundTrip(t, m, cookies, func(r *http.Request) { m.End(r) })

	assert.Len(t, mr.Keys(), 1)
	read(m, cookies, func(r *http.Request) {
		_, ok := m.CurrentUserID(r)
		assert.False(t, ok)
	})
}

func TestRedisStore_NegativeMaxAgeDeletes(t *testing.T) {
	m, mr := newRedisManager(t)
	cookies := roundTrip(t, m, nil, func(r *http.Request) { m.Start(r, 1) })

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range cookies {
		r.AddCookie(c)
	}
	w := httptest.NewRecorder()
	s, err := m.store.Get(r, DefaultName)
	require.NoError(t, err)
	s.Options.MaxAge = -1
	require.NoError(t, s.Save(r, w))

	assert.Empty(t, mr.Keys())
	require.Len(t, w.Result().Cookies(), 1)
	assert.Less(t, w.Result().Cookies()[0].MaxAge, 0)
}

func TestRedisStore_ForgedCookie(t *testing.T) {
	m, _ := newRedisManager(t)

	read(m, []*http.Cookie{{Name: DefaultName, Value: "not-a-signed-id"}}, func(r *http.Request) {
		_, ok := m.CurrentUserID(r)
		assert.False(t, ok)
	})
}

func TestRedisStore_StartIssuesNewSessionID(t *testing.T) {
	m, mr := newRedisManager(t)

	// An anonymous visit that queues a notice already gets a session ID.
	anon := roundTrip(t, m, nil, func(r *http.Request) {
		m.AddFlash(r, Flash{Message: "You need to log in to access the dashboard.", Category: CategoryInfo})
	})
	before := mr.Keys()
	require.Len(t, before, 1)

	authed := roundTrip(t, m, anon, func(r *http.Request) {
		m.Reset(r)
		m.Start(r, 42)
	})
	after := mr.Keys()
	require.Len(t, after, 1, "old record is deleted")
	assert.NotEqual(t, before[0], after[0])

	read(m, anon, func(r *http.Request) {
		_, ok := m.CurrentUserID(r)
		assert.False(t, ok, "pre-login cookie must not resolve to the user")
	})
	read(m, authed, func(r *http.Request) {
		id, ok := m.CurrentUserID(r)
		assert.True(t, ok)
		assert.Equal(t, 42, id)
	})
}

func TestRedisStore_LoadErrorDoesNotOverwriteRecord(t *testing.T) {
	m, mr := newRedisManager(t)
	cookies := roundTrip(t, m, nil, func(r *http.Request) { m.Start(r, 42) })

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range cookies {
		r.AddCookie(c)
	}

	mr.SetError("LOADING Redis is loading the dataset in memory")
	_, ok := m.CurrentUserID(r)
	assert.False(t, ok)
	mr.SetError("")

	require.NoError(t, m.Save(httptest.NewRecorder(), r))

	read(m, cookies, func(r *http.Request) {
		id, ok := m.CurrentUserID(r)
		assert.True(t, ok, "existing record must survive a failed load")
		assert.Equal(t, 42, id)
	})
}
