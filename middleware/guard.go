package middleware

import (
	"context"
	"net/http"
	"strings"

	shopsession "github.com/arhamlabs/shopsession"
)

// LoginPath is where unauthenticated requests to protected prefixes land.
const LoginPath = "/login"

type sessionContextKey struct{}

// SessionFromContext returns the snapshot injected by [Guard].
func SessionFromContext(ctx context.Context) (shopsession.SessionSnapshot, bool) {
	snap, ok := ctx.Value(sessionContextKey{}).(shopsession.SessionSnapshot)
	return snap, ok
}

// Guard protects the role-homed path prefixes (/customer, /seller,
// /deliverer, /admin). No session redirects to the login page; a role or
// approval mismatch redirects to the generic home. The decision reuses
// [shopsession.Decide], so a combination accepted at login is accepted here
// on every subsequent request — the two can never drift.
//
// Paths outside the guarded prefixes pass through untouched.
func Guard(engine *shopsession.Engine) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			required, guarded := requiredRoleForPath(r.URL.Path)
			if !guarded {
				next.ServeHTTP(w, r)
				return
			}

			if engine == nil {
				http.Redirect(w, r, LoginPath, http.StatusSeeOther)
				return
			}

			snap := engine.Snapshot()
			if !snap.Authenticated {
				http.Redirect(w, r, LoginPath, http.StatusSeeOther)
				return
			}

			if !allowed(snap.Account, required) {
				http.Redirect(w, r, shopsession.DestinationHome, http.StatusSeeOther)
				return
			}

			ctx := context.WithValue(r.Context(), sessionContextKey{}, snap)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func allowed(acct shopsession.Account, required shopsession.Role) bool {
	if acct.Role != required {
		return false
	}
	decision := shopsession.Decide(acct.Role, acct.Status, acct.StatusReason)
	return decision.Allowed
}

func requiredRoleForPath(path string) (shopsession.Role, bool) {
	if len(path) < 2 || path[0] != '/' {
		return "", false
	}
	prefix := path
	if idx := strings.Index(prefix[1:], "/"); idx >= 0 {
		prefix = prefix[:idx+1]
	}
	return shopsession.RequiredRole(prefix)
}
