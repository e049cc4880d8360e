package app

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lumen-agency/site-core/internal/middleware"
	"github.com/lumen-agency/site-core/internal/modules/content/post"
	"github.com/lumen-agency/site-core/internal/modules/content/project"
	"github.com/lumen-agency/site-core/internal/modules/indexing"
	"github.com/lumen-agency/site-core/internal/modules/system/core/health"
	"github.com/lumen-agency/site-core/internal/modules/tasks/crontask"
	"github.com/lumen-agency/site-core/internal/pkg/response"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const apiPrefix = "/api/v1"

var processStart = time.Now()

// Triggers that are meant to be re-run on demand skip idempotence.
var idempotenceExempt = []string{
	apiPrefix + "/indexing/token/refresh",
	apiPrefix + "/indexing/inspect",
	apiPrefix + "/indexing/submit",
	"/run",
}

func (a *App) registerRoutes() {
	r := a.router
	db := a.db
	authMW := middleware.Auth()
	optionalAuth := middleware.OptionalAuth()

	r.NoRoute(func(c *gin.Context) {
		response.NotFound(c)
	})
	r.NoMethod(func(c *gin.Context) {
		response.Error(c, http.StatusMethodNotAllowed, "method not allowed")
	})

	appInfo := gin.H{
		"name":    "site-core",
		"version": "1.0.0",
	}

	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{})))

	root := r.Group("")
	health.NewHandler(db, a.rc, a.cfg.LogDir()).RegisterRoutes(root, authMW)

	api := r.Group(apiPrefix)
	api.Use(optionalAuth)
	api.Use(middleware.RateLimit(a.rc))
	api.Use(middleware.Idempotence(a.rc.Raw(), idempotenceExempt...))

	api.GET("", func(c *gin.Context) { c.PureJSON(http.StatusOK, appInfo) })
	api.GET("/ping", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"data": "pong"}) })
	api.GET("/uptime", func(c *gin.Context) {
		uptime := time.Since(processStart)
		c.JSON(http.StatusOK, gin.H{
			"timestamp": uptime.Milliseconds(),
			"humanize":  humanizeDuration(uptime),
		})
	})

	// Content
	post.NewHandler(post.NewService(db)).RegisterRoutes(api, authMW, optionalAuth)
	project.NewHandler(project.NewService(db)).RegisterRoutes(api, authMW, optionalAuth)

	// Indexing (admin)
	indexing.NewHandler(a.indexing).RegisterRoutes(api, authMW)

	// Cron task management (admin)
	crontask.NewHandler(a.sched).RegisterRoutes(api, authMW)
}
