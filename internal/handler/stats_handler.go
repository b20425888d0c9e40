package handler

import (
	"log/slog"
	"net/http"

	"statsboard/internal/middleware"
	"statsboard/internal/session"
	"statsboard/internal/view"
)

// StatsHandler serves the statistics pages that only need the current user.
type StatsHandler struct {
	pages
}

func NewStatsHandler(sessions *session.Manager, renderer view.Renderer, logger *slog.Logger) *StatsHandler {
	return &StatsHandler{pages: pages{sessions: sessions, view: renderer, logger: logger}}
}

func (h *StatsHandler) PlayerStats(w http.ResponseWriter, r *http.Request) {
	h.page(w, r, view.PlayerStats, "Player statistics")
}

func (h *StatsHandler) TeamStats(w http.ResponseWriter, r *http.Request) {
	h.page(w, r, view.TeamStats, "Team statistics")
}

func (h *StatsHandler) OtherSection(w http.ResponseWriter, r *http.Request) {
	h.page(w, r, view.OtherSection, "Other")
}

func (h *StatsHandler) page(w http.ResponseWriter, r *http.Request, name, title string) {
	user, _ := middleware.UserFromContext(r.Context())
	h.render(w, r, http.StatusOK, name, view.PageData{Title: title, User: user})
}
