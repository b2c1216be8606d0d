package auth

import (
	"context"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/impactlens/impact-backend/internal/apperr"
	"github.com/impactlens/impact-backend/internal/profiles"
	"github.com/impactlens/impact-backend/internal/session"
)

// ProfileGetter is the slice of the profiles repo the guard chain needs.
type ProfileGetter interface {
	Get(ctx context.Context, userID string) (*profiles.Profile, error)
}

// WithSession resolves the session cookie on every request and stores the
// result in the context. Anonymous requests pass through with no session
// set; resolution errors are logged and treated as anonymous.
func WithSession(mgr *session.Manager, cookie session.CookieConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		sid := cookie.Read(c)
		if sid == "" {
			c.Next()
			return
		}

		sess, err := mgr.Resolve(c.Request.Context(), sid)
		if err != nil {
			log.Printf("[auth] resolve session: %v", err)
			c.Next()
			return
		}
		if sess == nil {
			// Stale cookie for a dead session.
			cookie.Clear(c)
			c.Next()
			return
		}

		c.Set(CtxSession, sess)
		c.Set(CtxUserID, sess.UserID)
		c.Next()
	}
}

// RequireSession guards /api routes: anonymous requests get 401 JSON.
func RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		if Current(c) == nil {
			c.JSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "not authenticated"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireSuperUser is the admin guard chain, evaluated in full on every
// request with no caching: session -> profile fetch -> profile present ->
// super-user flag. Each failure redirects with its own error flag.
func RequireSuperUser(profileRepo ProfileGetter) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := Current(c)
		if sess == nil {
			c.Redirect(http.StatusSeeOther, "/login")
			c.Abort()
			return
		}

		profile, err := profileRepo.Get(c.Request.Context(), sess.UserID)
		if err != nil {
			if apperr.IsNotFound(err) {
				c.Redirect(http.StatusSeeOther, "/dashboard?error=no_profile")
			} else {
				log.Printf("[auth] admin profile fetch: %v", err)
				c.Redirect(http.StatusSeeOther, "/dashboard?error=profile_error")
			}
			c.Abort()
			return
		}

		if !profile.IsSuperUser {
			c.Redirect(http.StatusSeeOther, "/dashboard?error=not_super_user")
			c.Abort()
			return
		}

		c.Next()
	}
}
