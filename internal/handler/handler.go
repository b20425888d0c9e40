// Package handler serves the login flow and the statistics pages.
package handler

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"

	"statsboard/internal/entity"
	"statsboard/internal/session"
	"statsboard/internal/view"
)

// Authenticator checks a username and password pair.
type Authenticator interface {
	Authenticate(ctx context.Context, username, password string) (*entity.User, error)
}

// TeamLister returns the teams for the dashboard filter. It never fails;
// an unavailable team list is empty.
type TeamLister interface {
	Teams(ctx context.Context) []entity.Team
}

type pages struct {
	sessions *session.Manager
	view     view.Renderer
	logger   *slog.Logger
}

// render pops pending notices into data, writes the session once and then
// the page. The page is executed before any header is sent so a template
// failure still produces a clean 500.
func (p *pages) render(w http.ResponseWriter, r *http.Request, status int, name string, data view.PageData) {
	data.Flashes = p.sessions.Flashes(r)

	var buf bytes.Buffer
	if err := p.view.Render(&buf, name, data); err != nil {
		p.logger.ErrorContext(r.Context(), "render page", "page", name, "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	p.save(w, r)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// redirect persists the session and sends a 303 to target.
func (p *pages) redirect(w http.ResponseWriter, r *http.Request, target string) {
	p.save(w, r)
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func (p *pages) save(w http.ResponseWriter, r *http.Request) {
	if err := p.sessions.Save(w, r); err != nil {
		p.logger.ErrorContext(r.Context(), "save session", "error", err)
	}
}
