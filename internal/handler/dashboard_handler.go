package handler

import (
	"log/slog"
	"net/http"

	"statsboard/internal/middleware"
	"statsboard/internal/session"
	"statsboard/internal/view"
)

type DashboardHandler struct {
	pages
	teams TeamLister
}

func NewDashboardHandler(teams TeamLister, sessions *session.Manager, renderer view.Renderer, logger *slog.Logger) *DashboardHandler {
	return &DashboardHandler{
		pages: pages{sessions: sessions, view: renderer, logger: logger},
		teams: teams,
	}
}

// Dashboard lists the teams for the filter and echoes the requested team
// back as the current selection. The team value is display-only and is not
// checked against the list.
func (h *DashboardHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r.Context())

	h.render(w, r, http.StatusOK, view.Dashboard, view.PageData{
		Title:        "Dashboard",
		User:         user,
		Teams:        h.teams.Teams(r.Context()),
		SelectedTeam: r.URL.Query().Get("team"),
	})
}
