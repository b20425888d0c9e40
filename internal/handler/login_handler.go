package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"statsboard/internal/service"
	"statsboard/internal/session"
	"statsboard/internal/view"
)

// Notices shown by the login flow.
const (
	msgLoginSuccess     = "Login successful!"
	msgInvalidLogin     = "Invalid username or password"
	msgLoginUnavailable = "Login is temporarily unavailable. Please try again."
	msgLoggedOut        = "You have been logged out."
)

type LoginHandler struct {
	pages
	auth Authenticator
}

func NewLoginHandler(auth Authenticator, sessions *session.Manager, renderer view.Renderer, logger *slog.Logger) *LoginHandler {
	return &LoginHandler{
		pages: pages{sessions: sessions, view: renderer, logger: logger},
		auth:  auth,
	}
}

// LoginPage renders the empty form.
func (h *LoginHandler) LoginPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, view.Login, view.PageData{Title: "Log in"})
}

// Login processes the submitted credentials. The session is wiped before the
// credentials are checked, so a failed attempt also logs out whoever was
// logged in on this client.
func (h *LoginHandler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form submission", http.StatusBadRequest)
		return
	}

	username := r.PostFormValue("username")
	password := r.PostFormValue("password")

	h.sessions.Reset(r)

	user, err := h.auth.Authenticate(r.Context(), username, password)
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		h.logger.InfoContext(r.Context(), "login rejected")
		h.sessions.AddFlash(r, session.Flash{Message: msgInvalidLogin, Category: session.CategoryDanger})
		h.render(w, r, http.StatusOK, view.Login, view.PageData{Title: "Log in"})
		return
	case err != nil:
		h.logger.ErrorContext(r.Context(), "login failed", "error", err)
		h.sessions.AddFlash(r, session.Flash{Message: msgLoginUnavailable, Category: session.CategoryDanger})
		h.render(w, r, http.StatusOK, view.Login, view.PageData{Title: "Log in"})
		return
	}

	h.sessions.Start(r, user.ID)
	h.sessions.AddFlash(r, session.Flash{Message: msgLoginSuccess, Category: session.CategorySuccess})
	h.logger.InfoContext(r.Context(), "user logged in", "user_id", user.ID)
	h.redirect(w, r, "/dashboard")
}

// Logout drops the identity from the session and sends the client back to
// the login form. Logging out without a session is harmless.
func (h *LoginHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if id, ok := h.sessions.CurrentUserID(r); ok {
		h.logger.InfoContext(r.Context(), "user logged out", "user_id", id)
	}
	h.sessions.End(r)
	h.sessions.AddFlash(r, session.Flash{Message: msgLoggedOut, Category: session.CategoryInfo})
	h.redirect(w, r, "/login")
}
