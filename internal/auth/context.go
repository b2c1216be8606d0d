package auth

import (
	"github.com/gin-gonic/gin"

	"github.com/impactlens/impact-backend/internal/session"
)

const (
	CtxSession = "auth_session"
	CtxUserID  = "auth_user_id"
)

// Current returns the resolved session, or nil for an anonymous request.
func Current(c *gin.Context) *session.Session {
	v, ok := c.Get(CtxSession)
	if !ok {
		return nil
	}
	sess, _ := v.(*session.Session)
	return sess
}

// UserID extracts the authenticated principal's id from the Gin context.
func UserID(c *gin.Context) string {
	return c.GetString(CtxUserID)
}
