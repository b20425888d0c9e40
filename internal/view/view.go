// Package view renders the server-side HTML pages.
package view

import (
	"bytes"
	"embed"
	"html/template"
	"io"

	"github.com/samber/oops"

	"statsboard/internal/entity"
	"statsboard/internal/session"
)

//go:embed templates/*.html
var templateFS embed.FS

// Page names.
const (
	Login        = "login.html"
	Dashboard    = "dashboard.html"
	PlayerStats  = "player_stats.html"
	TeamStats    = "team_stats.html"
	OtherSection = "other_section.html"
)

// PageData is what every template receives.
type PageData struct {
	Title        string
	User         *entity.User
	Flashes      []session.Flash
	Teams        []entity.Team
	SelectedTeam string
}

type Renderer interface {
	Render(w io.Writer, name string, data PageData) error
}

// Templates holds one parsed set per page, each combined with the shared layout.
type Templates struct {
	pages map[string]*template.Template
}

func NewTemplates() (*Templates, error) {
	pages := map[string]*template.Template{}
	for _, name := range []string{Login, Dashboard, PlayerStats, TeamStats, OtherSection} {
		t, err := template.New(name).ParseFS(templateFS, "templates/layout.html", "templates/"+name)
		if err != nil {
			return nil, oops.Code("TEMPLATE_PARSE_FAILED").With("template", name).Wrap(err)
		}
		pages[name] = t
	}
	return &Templates{pages: pages}, nil
}

// MustTemplates panics if the embedded templates do not parse.
func MustTemplates() *Templates {
	t, err := NewTemplates()
	if err != nil {
		panic(err)
	}
	return t
}

// Render executes into a buffer first so a template error never leaves a
// half-written page.
func (t *Templates) Render(w io.Writer, name string, data PageData) error {
	tmpl, ok := t.pages[name]
	if !ok {
		return oops.Code("TEMPLATE_NOT_FOUND").With("template", name).Errorf("unknown page %q", name)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		return oops.Code("TEMPLATE_EXEC_FAILED").With("template", name).Wrap(err)
	}
	_, err := buf.WriteTo(w)
	return err
}
