package session

import (
	"net/http"
	"time"

	"github.com/gorilla/sessions"
	"github.com/redis/go-redis/v9"

	"statsboard/internal/config"
)

// Options builds cookie options shared by both backends.
func Options(cfg config.SessionConfig) *sessions.Options {
	return &sessions.Options{
		Path:     "/",
		MaxAge:   int(cfg.MaxAge / time.Second),
		HttpOnly: true,
		Secure:   cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	}
}

// keyPairs returns the signing key and, when configured, the encryption key.
func keyPairs(cfg config.SessionConfig) [][]byte {
	pairs := [][]byte{[]byte(cfg.SecretKey)}
	if cfg.EncryptionKey != "" {
		pairs = append(pairs, []byte(cfg.EncryptionKey))
	}
	return pairs
}

// NewCookieStore keeps the whole session in a signed (optionally encrypted)
// cookie. Logout only clears the cookie client side.
func NewCookieStore(cfg config.SessionConfig) *sessions.CookieStore {
	store := sessions.NewCookieStore(keyPairs(cfg)...)
	store.Options = Options(cfg)
	store.MaxAge(store.Options.MaxAge)
	return store
}

// NewStore picks the backend named in cfg.Backend. client is only used for
// the redis backend.
func NewStore(cfg config.SessionConfig, client redis.Cmdable) sessions.Store {
	if cfg.Backend == config.SessionBackendRedis && client != nil {
		return NewRedisStore(client, cfg)
	}
	return NewCookieStore(cfg)
}
