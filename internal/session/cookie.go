package session

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// CookieConfig is the single cookie strategy: one HTTP-only cookie carrying
// the opaque session ID.
type CookieConfig struct {
	Name   string
	MaxAge time.Duration
	Secure bool
}

func (cc CookieConfig) Set(c *gin.Context, sessionID string) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     cc.Name,
		Value:    sessionID,
		Path:     "/",
		MaxAge:   int(cc.MaxAge.Seconds()),
		HttpOnly: true,
		Secure:   cc.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (cc CookieConfig) Clear(c *gin.Context) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     cc.Name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   cc.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Read returns the cookie value, or "" when absent.
func (cc CookieConfig) Read(c *gin.Context) string {
	v, err := c.Cookie(cc.Name)
	if err != nil {
		return ""
	}
	return v
}
