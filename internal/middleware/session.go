package middleware

import (
	"context"
	"log"
	"net/http"
	"strings"

	"github.com/EmpoweredVote/news-portal/internal/apperr"
	"github.com/EmpoweredVote/news-portal/internal/auth"
	"github.com/EmpoweredVote/news-portal/internal/utils"
)

const LoginPath = "/admin/login"

// UserResolver is satisfied by *auth.Gate.
type UserResolver interface {
	RequireUser(ctx context.Context, sessionID string) (*auth.User, error)
}

// RequireUser lets the request through only with a valid session. Browsers
// navigating to a page are redirected to the login entry point; API
// callers get a 401. Storage failures are reported as 500, never as a
// missing session.
func RequireUser(resolver UserResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := resolver.RequireUser(r.Context(), auth.SessionIDFromRequest(r))
			if err != nil {
				if apperr.KindOf(err) == apperr.Unauthenticated && wantsPage(r) {
					http.Redirect(w, r, LoginPath, http.StatusSeeOther)
					return
				}
				if apperr.KindOf(err) != apperr.Unauthenticated {
					log.Printf("[auth] resolve session: %v", err)
				}
				utils.WriteError(w, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithUser(r.Context(), user)))
		})
	}
}

// wantsPage reports whether r looks like a browser page load rather than
// an API call.
func wantsPage(r *http.Request) bool {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		return false
	}
	accept := r.Header.Get("Accept")
	return strings.Contains(accept, "text/html")
}
