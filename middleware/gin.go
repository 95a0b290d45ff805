package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	shopsession "github.com/arhamlabs/shopsession"
)

const sessionGinKey = "shopsession.snapshot"

// RequireRole is the gin adapter of [Guard] for routers that mount role
// groups explicitly (router.Group("/seller").Use(RequireRole(engine,
// shopsession.RoleSeller))). Same redirect semantics, same gate.
func RequireRole(engine *shopsession.Engine, required shopsession.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		if engine == nil {
			c.Redirect(http.StatusSeeOther, LoginPath)
			c.Abort()
			return
		}

		snap := engine.Snapshot()
		if !snap.Authenticated {
			c.Redirect(http.StatusSeeOther, LoginPath)
			c.Abort()
			return
		}

		if !allowed(snap.Account, required) {
			c.Redirect(http.StatusSeeOther, shopsession.DestinationHome)
			c.Abort()
			return
		}

		c.Set(sessionGinKey, snap)
		c.Next()
	}
}

// SessionFromGin returns the snapshot injected by [RequireRole].
func SessionFromGin(c *gin.Context) (shopsession.SessionSnapshot, bool) {
	value, ok := c.Get(sessionGinKey)
	if !ok {
		return shopsession.SessionSnapshot{}, false
	}
	snap, ok := value.(shopsession.SessionSnapshot)
	return snap, ok
}
