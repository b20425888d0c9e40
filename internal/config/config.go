// Package config loads runtime settings from the environment and an optional
// .env file.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/samber/oops"
)

// Session backends.
const (
	SessionBackendCookie = "cookie"
	SessionBackendRedis  = "redis"
)

// knownDefaultSecrets are placeholder keys that must never sign production cookies.
var knownDefaultSecrets = []string{
	"default_secret_key",
	"a-very-secret-key",
	"secret",
	"changeme",
}

type Config struct {
	Port        string
	HTTPTimeout time.Duration
	LogFormat   string
	MetricsAddr string

	Database DatabaseConfig
	Session  SessionConfig
	Redis    RedisConfig
}

type DatabaseConfig struct {
	URL      string
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	QueryTimeout    time.Duration
	ConnectTimeout  time.Duration

	// TeamsTable may be schema-qualified, e.g. "dbo.spillere".
	TeamsTable string
}

type SessionConfig struct {
	Backend       string
	SecretKey     string
	EncryptionKey string
	MaxAge        time.Duration
	CookieSecure  bool
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// Load reads envFile (if it exists) into the process environment and builds
// a Config. A missing .env file is not an error.
func Load(envFile string) (*Config, error) {
	if err := LoadEnvFile(envFile); err != nil {
		return nil, err
	}

	cfg := FromEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadEnvFile copies envFile into the process environment without overriding
// variables that are already set.
func LoadEnvFile(envFile string) error {
	if envFile == "" {
		return nil
	}
	if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
		return oops.Code("CONFIG_ENV_FILE").With("path", envFile).Wrap(err)
	}
	return nil
}

// FromEnv builds a Config from environment variables, applying defaults.
func FromEnv() *Config {
	return &Config{
		Port:        getEnv("PORT", "8080"),
		HTTPTimeout: getEnvAsDuration("HTTP_TIMEOUT", 60*time.Second),
		LogFormat:   getEnv("LOG_FORMAT", "json"),
		MetricsAddr: getEnv("METRICS_ADDR", ""),
		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", ""),
			DBName:          getEnv("DB_NAME", "statsboard"),
			SSLMode:         getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 25),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
			QueryTimeout:    getEnvAsDuration("DB_QUERY_TIMEOUT", 5*time.Second),
			ConnectTimeout:  getEnvAsDuration("DB_CONNECT_TIMEOUT", 30*time.Second),
			TeamsTable:      getEnv("TEAMS_TABLE", "players"),
		},
		Session: SessionConfig{
			Backend:       strings.ToLower(getEnv("SESSION_BACKEND", SessionBackendCookie)),
			SecretKey:     getEnv("SECRET_KEY", ""),
			EncryptionKey: getEnv("SESSION_ENCRYPTION_KEY", ""),
			MaxAge:        getEnvAsDuration("SESSION_MAX_AGE", 24*time.Hour),
			CookieSecure:  getEnvAsBool("COOKIE_SECURE", false),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
	}
}

// Validate reports configuration that must stop the process from starting.
func (c *Config) Validate() error {
	errb := oops.Code("CONFIG_INVALID")

	secret := strings.TrimSpace(c.Session.SecretKey)
	if secret == "" {
		return errb.Errorf("SECRET_KEY is required")
	}
	for _, d := range knownDefaultSecrets {
		if strings.EqualFold(secret, d) {
			return errb.Errorf("SECRET_KEY must not be a placeholder value")
		}
	}

	switch len(c.Session.EncryptionKey) {
	case 0, 16, 24, 32:
	default:
		return errb.Errorf("SESSION_ENCRYPTION_KEY must be 16, 24 or 32 bytes, got %d", len(c.Session.EncryptionKey))
	}

	if c.Session.MaxAge <= 0 {
		return errb.Errorf("SESSION_MAX_AGE must be positive")
	}

	switch c.Session.Backend {
	case SessionBackendCookie:
	case SessionBackendRedis:
		if c.Redis.Addr == "" {
			return errb.Errorf("REDIS_ADDR is required when SESSION_BACKEND=redis")
		}
	default:
		return errb.Errorf("unknown SESSION_BACKEND %q", c.Session.Backend)
	}

	if c.Database.URL == "" && c.Database.Host == "" {
		return errb.Errorf("DATABASE_URL or DB_HOST is required")
	}
	if c.Database.TeamsTable == "" {
		return errb.Errorf("TEAMS_TABLE must not be empty")
	}
	if c.Database.QueryTimeout <= 0 {
		return errb.Errorf("DB_QUERY_TIMEOUT must be positive")
	}

	return nil
}

// Addr is the HTTP listen address.
func (c *Config) Addr() string {
	return ":" + c.Port
}

// DSN returns the lib/pq connection string. DATABASE_URL wins over the
// individual DB_* settings.
func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}

	u := url.URL{
		Scheme: "postgres",
		Host:   d.Host + ":" + d.Port,
		Path:   "/" + d.DBName,
	}
	if d.Password != "" {
		u.User = url.UserPassword(d.User, d.Password)
	} else {
		u.User = url.User(d.User)
	}
	q := url.Values{}
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}

// String hides the password so the config can be logged.
func (d DatabaseConfig) String() string {
	if d.URL != "" {
		if u, err := url.Parse(d.URL); err == nil {
			return u.Redacted()
		}
		return "<unparseable DATABASE_URL>"
	}
	return fmt.Sprintf("host=%s port=%s user=%s dbname=%s sslmode=%s", d.Host, d.Port, d.User, d.DBName, d.SSLMode)
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if value, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	if value, err := strconv.ParseBool(getEnv(key, "")); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	if value, err := time.ParseDuration(getEnv(key, "")); err == nil {
		return value
	}
	return fallback
}
