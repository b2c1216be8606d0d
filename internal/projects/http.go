package projects

import (
	"fmt"
	"log"
	"net/http"
	"net/mail"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/impactlens/impact-backend/internal/apperr"
	"github.com/impactlens/impact-backend/internal/auth"
	"github.com/impactlens/impact-backend/internal/mailer"
)

type Handler struct {
	repo    *Repo
	mail    mailer.Sender
	siteURL string
}

func Register(rg *gin.RouterGroup, repo *Repo, mail mailer.Sender, siteURL string) {
	h := &Handler{repo: repo, mail: mail, siteURL: strings.TrimRight(siteURL, "/")}

	rg.POST("", h.create)
	rg.GET("", h.list)
	rg.GET("/:id", h.get)
	rg.PATCH("/:id/status", h.updateStatus)
	rg.POST("/:id/share", h.share)
}

type createReq struct {
	Name             string `json:"name"`
	Description      string `json:"description"`
	OrganizationName string `json:"organization_name"`
}

func (h *Handler) create(c *gin.Context) {
	var req createReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "project name is required"})
		return
	}
	if strings.TrimSpace(req.OrganizationName) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "organization name is required"})
		return
	}

	p, err := h.repo.Create(c.Request.Context(), auth.UserID(c),
		strings.TrimSpace(req.Name), strings.TrimSpace(req.Description), strings.TrimSpace(req.OrganizationName))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"ok": true, "project": p})
}

func (h *Handler) list(c *gin.Context) {
	items, err := h.repo.List(c.Request.Context(), auth.UserID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "projects": items})
}

func (h *Handler) get(c *gin.Context) {
	p, err := h.repo.Get(c.Request.Context(), auth.UserID(c), c.Param("id"))
	if err != nil {
		if apperr.IsNotFound(err) {
			c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "project not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "project": p})
}

type statusReq struct {
	Status string `json:"status"`
}

func (h *Handler) updateStatus(c *gin.Context) {
	var req statusReq
	if err := c.ShouldBindJSON(&req); err != nil || !ValidStatus(req.Status) {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "status must be active, completed or on_hold"})
		return
	}

	p, err := h.repo.UpdateStatus(c.Request.Context(), auth.UserID(c), c.Param("id"), req.Status)
	if err != nil {
		if apperr.IsNotFound(err) {
			c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "project not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "project": p})
}

type shareReq struct {
	Email string `json:"email"`
}

// share emails a link to the project's assessment to a colleague.
func (h *Handler) share(c *gin.Context) {
	var req shareReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}
	if _, err := mail.ParseAddress(strings.TrimSpace(req.Email)); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid email address"})
		return
	}

	p, err := h.repo.Get(c.Request.Context(), auth.UserID(c), c.Param("id"))
	if err != nil {
		if apperr.IsNotFound(err) {
			c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "project not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		}
		return
	}

	msg := mailer.Message{
		To:      strings.TrimSpace(req.Email),
		Subject: fmt.Sprintf("Impact diagnostic for %s", p.OrganizationName),
		Text: fmt.Sprintf("You have been invited to view the impact diagnostic project %q.\n\n%s/projects/%s\n",
			p.Name, h.siteURL, p.ID),
	}
	if err := h.mail.Send(c.Request.Context(), msg); err != nil {
		log.Printf("[projects] share email for %s: %v", p.ID, err)
		c.JSON(http.StatusBadGateway, gin.H{"ok": false, "error": "could not send the email, please try again"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "message": "invitation sent"})
}
