package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"statsboard/internal/entity"
	"statsboard/internal/observability"
	"statsboard/internal/repository"
	"statsboard/internal/session"
)

type contextKey string

const userCtxKey contextKey = "user"

// UserFinder resolves the session's user id to a current user record.
type UserFinder interface {
	GetByID(ctx context.Context, id int) (*entity.User, error)
}

// Gate guards protected pages. The user is re-read on every request, so a
// deleted account loses access immediately instead of when its cookie expires.
type Gate struct {
	sessions *session.Manager
	users    UserFinder
	logger   *slog.Logger
	metrics  *observability.Metrics
}

func NewGate(sessions *session.Manager, users UserFinder, logger *slog.Logger, metrics *observability.Metrics) *Gate {
	return &Gate{sessions: sessions, users: users, logger: logger, metrics: metrics}
}

// Require returns middleware that lets only logged-in users through. Anyone
// else is redirected to /login with notice queued for the login page.
func (g *Gate) Require(notice string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := g.sessions.CurrentUserID(r)
			if !ok {
				g.metrics.RecordGateDenial("no_session")
				g.deny(w, r, notice)
				return
			}

			user, err := g.users.GetByID(r.Context(), userID)
			if errors.Is(err, repository.ErrNotFound) {
				g.logger.InfoContext(r.Context(), "session refers to missing user", "user_id", userID)
				g.metrics.RecordGateDenial("unknown_user")
				g.sessions.End(r)
				g.deny(w, r, notice)
				return
			}
			if err != nil {
				g.logger.ErrorContext(r.Context(), "loading session user failed", "user_id", userID, "error", err)
				g.metrics.RecordGateDenial("lookup_error")
				http.Error(w, "Service temporarily unavailable", http.StatusServiceUnavailable)
				return
			}

			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userCtxKey, user)))
		})
	}
}

func (g *Gate) deny(w http.ResponseWriter, r *http.Request, notice string) {
	g.sessions.AddFlash(r, session.Flash{Message: notice, Category: session.CategoryInfo})
	if err := g.sessions.Save(w, r); err != nil {
		g.logger.ErrorContext(r.Context(), "saving session failed", "error", err)
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// UserFromContext returns the user the Gate admitted.
func UserFromContext(ctx context.Context) (*entity.User, bool) {
	u, ok := ctx.Value(userCtxKey).(*entity.User)
	return u, ok && u != nil
}

// WithUser is used by tests and by handlers composed outside the Gate.
func WithUser(ctx context.Context, u *entity.User) context.Context {
	return context.WithValue(ctx, userCtxKey, u)
}
