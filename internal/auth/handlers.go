package auth

import (
	"context"
	"log"
	"net/http"

	"github.com/EmpoweredVote/news-portal/internal/apperr"
	"github.com/EmpoweredVote/news-portal/internal/metrics"
	"github.com/EmpoweredVote/news-portal/internal/utils"
)

// Authenticator is the part of Gate the HTTP handlers need.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (*Login, error)
	Logout(ctx context.Context, sessionID string) error
}

type Handler struct {
	auth    Authenticator
	secure  bool
	metrics *metrics.Metrics
}

// NewHandler builds the login/logout handlers. secure sets the cookie
// Secure flag and should be on in production.
func NewHandler(auth Authenticator, secure bool, m *metrics.Metrics) *Handler {
	return &Handler{auth: auth, secure: secure, metrics: m}
}

// Login handles POST /admin/login with form fields email and password.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		utils.WriteError(w, apperr.E(apperr.Validation, "auth.Login", "invalid form body", err))
		return
	}

	login, err := h.auth.Login(r.Context(), r.PostFormValue("email"), r.PostFormValue("password"))
	if err != nil {
		if apperr.KindOf(err) == apperr.Invalid {
			h.metrics.LoginAttempt("invalid")
		} else {
			h.metrics.LoginAttempt("error")
		}
		utils.WriteError(w, err)
		return
	}

	h.metrics.LoginAttempt("success")
	http.SetCookie(w, SessionCookie(login.SessionID, login.ExpiresAt, h.secure))
	utils.WriteJSON(w, http.StatusOK, utils.Result{Success: true, RedirectURL: "/admin"})
}

// Logout always clears the cookie. A storage failure is still reported so
// the caller knows the server-side row may remain.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	err := h.auth.Logout(r.Context(), SessionIDFromRequest(r))
	http.SetCookie(w, ClearedSessionCookie(h.secure))
	if err != nil {
		log.Printf("[auth] logout: %v", err)
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.Result{Success: true, RedirectURL: "/admin/login"})
}

// Me returns the user placed in the context by the session middleware.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		utils.WriteError(w, apperr.E(apperr.Unauthenticated, "auth.Me", "login required", nil))
		return
	}
	utils.WriteJSON(w, http.StatusOK, user)
}
