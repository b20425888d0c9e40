package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"statsboard/internal/middleware"
	"statsboard/internal/observability"
	"statsboard/internal/session"
	"statsboard/internal/view"
)

// Per-route notices for anonymous visitors.
const (
	noticeDashboard    = "You need to log in to access the dashboard."
	noticePlayerStats  = "You need to log in to access player statistics."
	noticeTeamStats    = "You need to log in to access team statistics."
	noticeOtherSection = "You need to log in to access other sections."
)

// Deps holds everything the router wires together.
type Deps struct {
	Auth     Authenticator
	Teams    TeamLister
	Users    middleware.UserFinder
	Sessions *session.Manager
	View     view.Renderer
	Logger   *slog.Logger
	Metrics  *observability.Metrics
	Timeout  time.Duration
}

func NewRouter(d Deps) http.Handler {
	login := NewLoginHandler(d.Auth, d.Sessions, d.View, d.Logger)
	dashboard := NewDashboardHandler(d.Teams, d.Sessions, d.View, d.Logger)
	stats := NewStatsHandler(d.Sessions, d.View, d.Logger)
	gate := middleware.NewGate(d.Sessions, d.Users, d.Logger, d.Metrics)

	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(middleware.RequestLogger(d.Logger, d.Metrics))
	r.Use(chiMiddleware.Recoverer)
	if d.Timeout > 0 {
		r.Use(chiMiddleware.Timeout(d.Timeout))
	}

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
	})
	r.Get("/login", login.LoginPage)
	r.Post("/login", login.Login)
	r.Get("/logout", login.Logout)

	r.With(gate.Require(noticeDashboard)).Get("/dashboard", dashboard.Dashboard)
	r.With(gate.Require(noticePlayerStats)).Get("/player_stats", stats.PlayerStats)
	r.With(gate.Require(noticeTeamStats)).Get("/team_stats", stats.TeamStats)
	r.With(gate.Require(noticeOtherSection)).Get("/other_section", stats.OtherSection)

	return r
}
