package assessments

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/impactlens/impact-backend/internal/apperr"
	"github.com/impactlens/impact-backend/internal/auth"
	"github.com/impactlens/impact-backend/internal/projects"
)

type Handler struct {
	repo     *Repo
	projects *projects.Repo
}

// Register mounts the assessment routes on the per-project group
// (/api/projects/:id).
func Register(rg *gin.RouterGroup, repo *Repo, projectRepo *projects.Repo) {
	h := &Handler{repo: repo, projects: projectRepo}

	rg.GET("/assessments/:domain", h.domainPage)
	rg.POST("/assessments/:domain/scores", h.saveScore)
	rg.GET("/scores", h.summary)
	rg.GET("/export/notes", h.exportNotes)
	rg.GET("/export/scores.csv", h.exportCSV)
}

// loadProject enforces ownership and 404s missing projects.
func (h *Handler) loadProject(c *gin.Context) *projects.Project {
	p, err := h.projects.Get(c.Request.Context(), auth.UserID(c), c.Param("id"))
	if err != nil {
		if apperr.IsNotFound(err) {
			c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "project not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		}
		return nil
	}
	return p
}

// domainPage assembles the assessment page view model: project -> domain ->
// ensured assessment -> scores joined onto the question catalog.
func (h *Handler) domainPage(c *gin.Context) {
	p := h.loadProject(c)
	if p == nil {
		return
	}

	d, ok := DomainBySlug(c.Param("domain"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "unknown domain"})
		return
	}

	a, err := h.repo.EnsureOpen(c.Request.Context(), p.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}

	scores, err := h.repo.Scores(c.Request.Context(), a.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "project": p, "view": BuildDomainView(d, a, scores)})
}

type saveScoreReq struct {
	QuestionID string `json:"question_id"`
	Score      int    `json:"score"`
	Notes      string `json:"notes"`
}

func (h *Handler) saveScore(c *gin.Context) {
	p := h.loadProject(c)
	if p == nil {
		return
	}

	d, ok := DomainBySlug(c.Param("domain"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "unknown domain"})
		return
	}

	var req saveScoreReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}

	known := false
	for _, q := range d.Questions {
		if q.ID == req.QuestionID {
			known = true
			break
		}
	}
	if !known {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "unknown question for domain"})
		return
	}
	if req.Score < 1 || req.Score > 10 {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "score must be between 1 and 10"})
		return
	}

	a, err := h.repo.EnsureOpen(c.Request.Context(), p.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}

	err = h.repo.UpsertScore(c.Request.Context(), Score{
		AssessmentID: a.ID,
		QuestionID:   req.QuestionID,
		Domain:       d.Slug,
		Score:        req.Score,
		Notes:        strings.TrimSpace(req.Notes),
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *Handler) summary(c *gin.Context) {
	p := h.loadProject(c)
	if p == nil {
		return
	}

	a, err := h.repo.EnsureOpen(c.Request.Context(), p.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}

	scores, err := h.repo.Scores(c.Request.Context(), a.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "project": p, "summary": BuildScoreSummary(a, scores)})
}

// exportNotes returns the text export, or 404 when the project has no notes
// so the client renders no export control.
func (h *Handler) exportNotes(c *gin.Context) {
	p := h.loadProject(c)
	if p == nil {
		return
	}

	a, err := h.repo.EnsureOpen(c.Request.Context(), p.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}

	entries, err := h.repo.Notes(c.Request.Context(), a.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}
	if len(entries) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "no notes to export"})
		return
	}

	c.Header("Content-Disposition", `attachment; filename="assessment-notes.txt"`)
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(RenderNotes(p.Name, entries)))
}

func (h *Handler) exportCSV(c *gin.Context) {
	p := h.loadProject(c)
	if p == nil {
		return
	}

	a, err := h.repo.EnsureOpen(c.Request.Context(), p.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}

	scores, err := h.repo.Scores(c.Request.Context(), a.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}

	data, err := RenderScoresCSV(p.Name, scores)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}

	c.Header("Content-Disposition", `attachment; filename="assessment-scores.csv"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", data)
}
