package auth

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes mounts the session endpoints on r. limit guards the login
// form; protect is the session middleware for endpoints that need a user.
func RegisterRoutes(r chi.Router, h *Handler, limit, protect func(http.Handler) http.Handler) {
	r.With(limit).Post("/login", h.Login)
	r.Post("/logout", h.Logout)
	r.With(protect).Get("/me", h.Me)
}
