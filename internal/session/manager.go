// Package session ties requests to an authenticated user through a signed
// cookie and carries one-shot notices between requests.
package session

import (
	"context"
	"encoding/gob"
	"log/slog"
	"net/http"

	"github.com/gorilla/sessions"
	"github.com/samber/oops"
)

// DefaultName is the session cookie name.
const DefaultName = "statsboard-session"

// userIDKey is the only identity value kept in the session.
const userIDKey = "user_id"

// Flash categories understood by the templates.
const (
	CategorySuccess = "success"
	CategoryDanger  = "danger"
	CategoryInfo    = "info"
)

// Flash is a notice shown once on the next rendered page.
type Flash struct {
	Message  string
	Category string
}

func init() {
	gob.Register(Flash{})
	// Flashes live in the session as []interface{}, which gob does not
	// register by default.
	gob.Register([]any{})
}

// Manager reads and mutates the per-request session. Mutations are buffered
// on the request's session until Save is called, so a handler writes the
// cookie once.
type Manager struct {
	store  sessions.Store
	name   string
	logger *slog.Logger
}

func NewManager(store sessions.Store, name string, logger *slog.Logger) *Manager {
	if name == "" {
		name = DefaultName
	}
	return &Manager{store: store, name: name, logger: logger}
}

// get never fails: a cookie that cannot be decoded (tampered, expired, signed
// with a rotated key) yields a fresh, empty session.
func (m *Manager) get(r *http.Request) *sessions.Session {
	s, err := m.store.Get(r, m.name)
	if err != nil {
		m.logger.DebugContext(r.Context(), "discarding unreadable session", "error", err)
	}
	if s == nil {
		s = sessions.NewSession(m.store, m.name)
		s.IsNew = true
	}
	return s
}

// revoker is implemented by stores that keep sessions server side.
type revoker interface {
	Revoke(ctx context.Context, id string) error
}

// Start clears everything held for the client and records userID under a
// new session ID. A server-side record for the old ID is deleted.
func (m *Manager) Start(r *http.Request, userID int) {
	s := m.get(r)
	if s.ID != "" {
		if rv, ok := m.store.(revoker); ok {
			if err := rv.Revoke(r.Context(), s.ID); err != nil {
				m.logger.WarnContext(r.Context(), "revoking pre-login session", "error", err)
			}
		}
		s.ID = ""
	}
	clear(s.Values)
	s.Values[userIDKey] = userID
}

// Reset removes every value, including pending notices.
func (m *Manager) Reset(r *http.Request) {
	clear(m.get(r).Values)
}

// End drops the user identity but keeps pending notices, so a logout message
// survives the redirect.
func (m *Manager) End(r *http.Request) {
	s := m.get(r)
	for k := range s.Values {
		if k == "_flash" {
			continue
		}
		delete(s.Values, k)
	}
}

// CurrentUserID returns the authenticated user's id, if any.
func (m *Manager) CurrentUserID(r *http.Request) (int, bool) {
	id, ok := m.get(r).Values[userIDKey].(int)
	if !ok || id <= 0 {
		return 0, false
	}
	return id, true
}

func (m *Manager) AddFlash(r *http.Request, f Flash) {
	m.get(r).AddFlash(f)
}

// Flashes pops the pending notices. Call Save afterwards to persist the removal.
func (m *Manager) Flashes(r *http.Request) []Flash {
	raw := m.get(r).Flashes()
	out := make([]Flash, 0, len(raw))
	for _, v := range raw {
		if f, ok := v.(Flash); ok {
			out = append(out, f)
		}
	}
	return out
}

// Save writes the session cookie. It must run before the response body.
func (m *Manager) Save(w http.ResponseWriter, r *http.Request) error {
	if err := m.get(r).Save(r, w); err != nil {
		return oops.Code("SESSION_SAVE_FAILED").Wrap(err)
	}
	return nil
}
