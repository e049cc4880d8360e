package crontask

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"
	pkgcron "github.com/lumen-agency/site-core/internal/pkg/cron"
	"github.com/lumen-agency/site-core/internal/pkg/response"
)

// Handler exposes the scheduled indexing jobs to operators.
type Handler struct {
	sched *pkgcron.Scheduler
}

func NewHandler(sched *pkgcron.Scheduler) *Handler {
	return &Handler{sched: sched}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	g := rg.Group("/cron-task", authMW)
	g.GET("", h.list)
	g.GET("/:name", h.get)
	g.POST("/:name/run", h.run)
}

func (h *Handler) list(c *gin.Context) {
	response.OK(c, h.sched.List())
}

func (h *Handler) get(c *gin.Context) {
	result, err := h.sched.GetTask(c.Param("name"))
	if err != nil {
		writeError(c, err)
		return
	}
	response.OK(c, result)
}

// run starts the job detached from the request; poll get for the outcome.
func (h *Handler) run(c *gin.Context) {
	name := c.Param("name")
	if err := h.sched.Run(context.WithoutCancel(c.Request.Context()), name); err != nil {
		writeError(c, err)
		return
	}
	response.OK(c, gin.H{"name": name, "status": pkgcron.StatusRunning})
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, pkgcron.ErrJobNotFound):
		response.NotFoundMsg(c, err.Error())
	case errors.Is(err, pkgcron.ErrJobRunning):
		response.Conflict(c, err.Error())
	default:
		response.InternalError(c, err)
	}
}
