package bootstrap

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/impactlens/impact-backend/config"
	"github.com/impactlens/impact-backend/internal/admin"
	httpapi "github.com/impactlens/impact-backend/internal/api/http"
	"github.com/impactlens/impact-backend/internal/api/http/middleware"
	"github.com/impactlens/impact-backend/internal/assessments"
	"github.com/impactlens/impact-backend/internal/auth"
	"github.com/impactlens/impact-backend/internal/mailer"
	"github.com/impactlens/impact-backend/internal/profiles"
	"github.com/impactlens/impact-backend/internal/projects"
	"github.com/impactlens/impact-backend/internal/provider"
	"github.com/impactlens/impact-backend/internal/session"
)

type RouterDeps struct {
	Config *config.Config
	DB     *pgxpool.Pool
	Redis  redis.UniversalClient
	Auth   *provider.Client
	Mail   mailer.Sender
}

func BuildRouter(dep RouterDeps) *gin.Engine {
	r := gin.Default()
	r.Use(middleware.RequestIDMiddleware())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{dep.Config.App.SiteURL},
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE"},
		AllowHeaders:     []string{"Content-Type", "X-Request-Id"},
		AllowCredentials: true,
	}))

	healthHandler := httpapi.NewHealthHandler("impact-backend", dep.Config.App.Version, dep.DB, dep.Redis)
	healthHandler.RegisterRoutes(r)

	cookie := session.CookieConfig{
		Name:   dep.Config.Session.CookieName,
		MaxAge: dep.Config.Session.TTL,
		Secure: dep.Config.Session.CookieSecure,
	}
	store := session.NewStore(dep.Redis, dep.Config.Session.TTL)
	mgr := session.NewManager(store, dep.Auth, dep.Config.Session.RefreshSkew)

	profileRepo := profiles.NewRepo(dep.DB)
	projectRepo := projects.NewRepo(dep.DB)
	assessmentRepo := assessments.NewRepo(dep.DB)

	r.Use(auth.WithSession(mgr, cookie))

	authHandler := auth.NewHandler(mgr, dep.Auth, profileRepo, cookie, dep.Config.App.SiteURL)
	limiter := middleware.NewRateLimiter(30)
	authGroup := r.Group("/")
	authGroup.Use(limiter.Handler())
	authHandler.Register(authGroup)

	api := r.Group("/api")
	api.Use(auth.RequireSession())

	api.GET("/me", func(c *gin.Context) {
		p, err := profileRepo.Get(c.Request.Context(), auth.UserID(c))
		if err != nil {
			c.JSON(404, gin.H{"ok": false, "error": "profile not found"})
			return
		}
		c.JSON(200, gin.H{"ok": true, "profile": p})
	})
	api.GET("/domains", func(c *gin.Context) {
		c.JSON(200, gin.H{"ok": true, "domains": assessments.Catalog()})
	})

	projectsGroup := api.Group("/projects")
	projects.Register(projectsGroup, projectRepo, dep.Mail, dep.Config.App.SiteURL)
	assessments.Register(projectsGroup.Group("/:id"), assessmentRepo, projectRepo)

	adminGroup := r.Group("/admin")
	adminGroup.Use(auth.RequireSuperUser(profileRepo))
	admin.Register(adminGroup, profileRepo, projectRepo, assessmentRepo)

	return r
}
