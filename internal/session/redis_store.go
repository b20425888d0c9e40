package session

import (
	"bytes"
	"context"
	"encoding/base32"
	"encoding/gob"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"github.com/redis/go-redis/v9"
	"github.com/samber/oops"

	"statsboard/internal/config"
)

const redisKeyPrefix = "statsboard:session:"

// RedisStore keeps session values server side. The cookie only carries a
// signed random ID, so ending a session or deleting the key revokes it.
type RedisStore struct {
	client  redis.Cmdable
	codecs  []securecookie.Codec
	Options *sessions.Options
	prefix  string
}

var _ sessions.Store = (*RedisStore)(nil)

func NewRedisStore(client redis.Cmdable, cfg config.SessionConfig) *RedisStore {
	codecs := securecookie.CodecsFromPairs(keyPairs(cfg)...)
	opts := Options(cfg)
	for _, c := range codecs {
		if sc, ok := c.(*securecookie.SecureCookie); ok {
			sc.MaxAge(opts.MaxAge)
		}
	}
	return &RedisStore{client: client, codecs: codecs, Options: opts, prefix: redisKeyPrefix}
}

// Get returns the session cached for this request, loading it on first use.
func (s *RedisStore) Get(r *http.Request, name string) (*sessions.Session, error) {
	return sessions.GetRegistry(r).Get(s, name)
}

func (s *RedisStore) New(r *http.Request, name string) (*sessions.Session, error) {
	session := sessions.NewSession(s, name)
	opts := *s.Options
	session.Options = &opts
	session.IsNew = true

	c, err := r.Cookie(name)
	if err != nil {
		return session, nil
	}
	if err := securecookie.DecodeMulti(name, c.Value, &session.ID, s.codecs...); err != nil {
		session.ID = ""
		return session, oops.Code("SESSION_COOKIE_INVALID").Wrap(err)
	}

	found, err := s.load(r.Context(), session)
	if err != nil {
		session.ID = ""
		clear(session.Values)
		return session, err
	}
	if !found {
		session.ID = ""
		return session, nil
	}
	session.IsNew = false
	return session, nil
}

// Save persists values under the session ID. A negative MaxAge deletes the
// server-side record and expires the cookie.
func (s *RedisStore) Save(r *http.Request, w http.ResponseWriter, session *sessions.Session) error {
	if session.Options.MaxAge < 0 {
		if session.ID != "" {
			if err := s.client.Del(r.Context(), s.prefix+session.ID).Err(); err != nil {
				return oops.Code("SESSION_DELETE_FAILED").Wrap(err)
			}
		}
		http.SetCookie(w, sessions.NewCookie(session.Name(), "", session.Options))
		return nil
	}

	if session.ID == "" {
		session.ID = strings.TrimRight(base32.StdEncoding.EncodeToString(securecookie.GenerateRandomKey(32)), "=")
	}

	if err := s.save(r.Context(), session); err != nil {
		return err
	}

	encoded, err := securecookie.EncodeMulti(session.Name(), session.ID, s.codecs...)
	if err != nil {
		return oops.Code("SESSION_COOKIE_ENCODE_FAILED").Wrap(err)
	}
	http.SetCookie(w, sessions.NewCookie(session.Name(), encoded, session.Options))
	return nil
}

// Revoke deletes the server-side record for id.
func (s *RedisStore) Revoke(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, s.prefix+id).Err(); err != nil {
		return oops.Code("SESSION_DELETE_FAILED").Wrap(err)
	}
	return nil
}

func (s *RedisStore) save(ctx context.Context, session *sessions.Session) error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(session.Values); err != nil {
		return oops.Code("SESSION_ENCODE_FAILED").Wrap(err)
	}
	ttl := time.Duration(session.Options.MaxAge) * time.Second
	if err := s.client.Set(ctx, s.prefix+session.ID, buf.Bytes(), ttl).Err(); err != nil {
		return oops.Code("SESSION_STORE_FAILED").Wrap(err)
	}
	return nil
}

func (s *RedisStore) load(ctx context.Context, session *sessions.Session) (bool, error) {
	data, err := s.client.Get(ctx, s.prefix+session.ID).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, oops.Code("SESSION_LOAD_FAILED").Wrap(err)
	}
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&session.Values); err != nil {
		return false, oops.Code("SESSION_DECODE_FAILED").Wrap(err)
	}
	return true, nil
}
