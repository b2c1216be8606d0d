// Package admin exposes the super-user overview. Every route here sits
// behind the full guard chain; see auth.RequireSuperUser.
package admin

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/impactlens/impact-backend/internal/assessments"
	"github.com/impactlens/impact-backend/internal/profiles"
	"github.com/impactlens/impact-backend/internal/projects"
)

type Handler struct {
	profiles    *profiles.Repo
	projects    *projects.Repo
	assessments *assessments.Repo
}

func Register(rg *gin.RouterGroup, profileRepo *profiles.Repo, projectRepo *projects.Repo, assessmentRepo *assessments.Repo) {
	h := &Handler{profiles: profileRepo, projects: projectRepo, assessments: assessmentRepo}

	rg.GET("/overview", h.overview)
}

func (h *Handler) overview(c *gin.Context) {
	ctx := c.Request.Context()

	users, err := h.profiles.CountAll(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}
	projectCount, err := h.projects.CountAll(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}
	assessmentCount, err := h.assessments.CountAll(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"ok":          true,
		"users":       users,
		"projects":    projectCount,
		"assessments": assessmentCount,
	})
}
