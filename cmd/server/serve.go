package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"statsboard/internal/auth"
	"statsboard/internal/config"
	"statsboard/internal/database"
	"statsboard/internal/handler"
	"statsboard/internal/logging"
	"statsboard/internal/observability"
	"statsboard/internal/repository"
	"statsboard/internal/service"
	"statsboard/internal/session"
	"statsboard/internal/view"
)

const shutdownTimeout = 10 * time.Second

func NewServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(envFile)
			if err != nil {
				return err
			}

			logger := logging.Setup("statsboard", version, cfg.LogFormat, os.Stderr)
			slog.SetDefault(logger)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := serve(ctx, cfg, logger); err != nil {
				logger.Error("server stopped with error", "error", err)
				return err
			}
			return nil
		},
	}
}

func serve(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	db, err := database.Open(ctx, cfg.Database, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Warn("closing database", "error", err)
		}
	}()

	var sessionRedis redis.Cmdable
	if cfg.Session.Backend == config.SessionBackendRedis {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer client.Close()

		if err := client.Ping(ctx).Err(); err != nil {
			return oops.Code("REDIS_UNREACHABLE").With("addr", cfg.Redis.Addr).Wrap(err)
		}
		sessionRedis = client
	}

	var (
		metrics  *observability.Metrics
		obs      *observability.Server
		obsErrCh <-chan error
	)
	if cfg.MetricsAddr != "" {
		obs = observability.NewServer(cfg.MetricsAddr, db.PingContext, logger)
		metrics = obs.Metrics()
		if obsErrCh, err = obs.Start(); err != nil {
			return err
		}
	}

	templates, err := view.NewTemplates()
	if err != nil {
		return err
	}

	users := repository.NewUserRepository(db, cfg.Database.QueryTimeout)
	teams := repository.NewTeamRepository(db, cfg.Database.TeamsTable, cfg.Database.QueryTimeout)
	sessions := session.NewManager(session.NewStore(cfg.Session, sessionRedis), session.DefaultName, logger)

	router := handler.NewRouter(handler.Deps{
		Auth:     service.NewAuthService(users, auth.NewBcryptHasher(auth.DefaultCost), logger, metrics),
		Teams:    service.NewTeamService(teams, logger, metrics),
		Users:    users,
		Sessions: sessions,
		View:     templates,
		Logger:   logger,
		Metrics:  metrics,
		Timeout:  cfg.HTTPTimeout,
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	srvErrCh := make(chan error, 1)
	go func() {
		defer close(srvErrCh)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			srvErrCh <- err
		}
	}()
	logger.Info("http server started", "addr", cfg.Addr(), "session_backend", cfg.Session.Backend)

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-srvErrCh:
		runErr = oops.Code("HTTP_SERVE_FAILED").Wrap(err)
	case err := <-obsErrCh:
		runErr = oops.Code("OBSERVABILITY_SERVE_FAILED").Wrap(err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", "error", err)
	}
	if obs != nil {
		if err := obs.Stop(shutdownCtx); err != nil {
			logger.Error("observability shutdown", "error", err)
		}
	}
	return runErr
}
