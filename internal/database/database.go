// Package database opens the Postgres pool and applies schema migrations.
package database

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	_ "github.com/lib/pq"
	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"

	"statsboard/internal/config"
)

const driverName = "postgres"

// Open creates the connection pool and waits until Postgres answers a ping,
// retrying with exponential backoff for at most cfg.ConnectTimeout.
func Open(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger) (*sql.DB, error) {
	db, err := sql.Open(driverName, cfg.DSN())
	if err != nil {
		return nil, oops.Code("DB_OPEN_FAILED").With("database", cfg.String()).Wrap(err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := ping(ctx, db, cfg.ConnectTimeout, logger); err != nil {
		_ = db.Close()
		return nil, oops.Code("DB_UNREACHABLE").With("database", cfg.String()).Wrap(err)
	}

	logger.Info("database connected", "database", cfg.String())
	return db, nil
}

func ping(ctx context.Context, db *sql.DB, limit time.Duration, logger *slog.Logger) error {
	backoff := retry.NewExponential(250 * time.Millisecond)
	backoff = retry.WithCappedDuration(5*time.Second, backoff)
	backoff = retry.WithMaxDuration(limit, backoff)

	attempt := 0
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		if err := db.PingContext(pingCtx); err != nil {
			logger.Warn("database not ready", "attempt", attempt, "error", err)
			return retry.RetryableError(err)
		}
		return nil
	})
}
