package auth

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// events streams auth-state changes for the current user using Server-Sent
// Events, fed by the session store's pub/sub channel. The browser tab's
// session holder subscribes here instead of polling.
func (h *Handler) events(c *gin.Context) {
	sess := Current(c)
	if sess == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "not authenticated"})
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no") // nginx: disable buffering

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "streaming unsupported"})
		return
	}

	ctx := c.Request.Context()
	sub := h.mgr.Store().Subscribe(ctx, sess.UserID)
	defer sub.Close()

	// Initial state so a fresh subscriber knows where it stands.
	initial, _ := json.Marshal(gin.H{"session_id": sess.ID, "expires_at": sess.ExpiresAt})
	fmt.Fprintf(c.Writer, "event: initial\ndata: %s\n\n", string(initial))
	flusher.Flush()

	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return

		case <-ticker.C:
			fmt.Fprint(c.Writer, ": keep-alive\n\n")
			flusher.Flush()

		case msg, open := <-ch:
			if !open {
				return
			}
			fmt.Fprintf(c.Writer, "event: auth\ndata: %s\n\n", msg.Payload)
			flusher.Flush()
		}
	}
}
