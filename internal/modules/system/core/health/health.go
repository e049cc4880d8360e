package health

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lumen-agency/site-core/internal/pkg/nativelog"
	pkgredis "github.com/lumen-agency/site-core/internal/pkg/redis"
	"github.com/lumen-agency/site-core/internal/pkg/response"
	"gorm.io/gorm"
)

const pingTimeout = 2 * time.Second

type logItem struct {
	Size     string `json:"size"`
	Filename string `json:"filename"`
	Created  int64  `json:"created"`
}

// Handler serves the liveness probe and the admin log viewer.
type Handler struct {
	db     *gorm.DB
	rc     *pkgredis.Client
	logDir string
}

// NewHandler builds a health handler. rc may be nil when Redis is not in use.
func NewHandler(db *gorm.DB, rc *pkgredis.Client, logDir string) *Handler {
	return &Handler{db: db, rc: rc, logDir: logDir}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	rg.GET("/health", h.health)

	logs := rg.Group("/health/log", authMW)
	logs.GET("/list", h.listLogs)
	logs.GET("", h.readLog)
	logs.DELETE("", h.deleteLog)
}

// health GET /health
func (h *Handler) health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), pingTimeout)
	defer cancel()

	dbOK := false
	if sqlDB, err := h.db.DB(); err == nil {
		dbOK = sqlDB.PingContext(ctx) == nil
	}
	redisOK := h.rc == nil || h.rc.Ping(ctx) == nil

	status := "ok"
	code := http.StatusOK
	if !dbOK || !redisOK {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{
		"status":   status,
		"database": dbOK,
		"redis":    redisOK,
	})
}

// listLogs GET /health/log/list
func (h *Handler) listLogs(c *gin.Context) {
	dir := nativelog.ResolveDir(h.logDir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			response.OK(c, []logItem{})
			return
		}
		response.InternalError(c, err)
		return
	}

	items := make([]logItem, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		items = append(items, logItem{
			Size:     formatByteSize(info.Size()),
			Filename: entry.Name(),
			Created:  info.ModTime().UnixMilli(),
		})
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].Created > items[j].Created
	})
	response.OK(c, items)
}

// readLog GET /health/log?filename=
func (h *Handler) readLog(c *gin.Context) {
	path, ok := h.resolveLogFile(c)
	if !ok {
		return
	}
	data, err := os.ReadFile(path)
	if err != nil {
		response.NotFoundMsg(c, "log file not exists")
		return
	}
	c.Data(http.StatusOK, "text/plain; charset=utf-8", data)
}

// deleteLog DELETE /health/log?filename=
// The active file is truncated instead of removed so the writer keeps its handle.
func (h *Handler) deleteLog(c *gin.Context) {
	path, ok := h.resolveLogFile(c)
	if !ok {
		return
	}
	var err error
	if filepath.Base(path) == nativelog.FileName {
		err = os.Truncate(path, 0)
	} else {
		err = os.Remove(path)
	}
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		response.InternalError(c, err)
		return
	}
	response.NoContent(c)
}

func (h *Handler) resolveLogFile(c *gin.Context) (string, bool) {
	filename := filepath.Base(strings.TrimSpace(c.Query("filename")))
	if filename == "" || filename == "." || filename == string(filepath.Separator) {
		response.UnprocessableEntity(c, "filename must be string")
		return "", false
	}
	return filepath.Join(nativelog.ResolveDir(h.logDir), filename), true
}

func formatByteSize(size int64) string {
	switch {
	case size >= 1<<20:
		return fmt.Sprintf("%.2f MB", float64(size)/(1<<20))
	case size >= 1<<10:
		return fmt.Sprintf("%.2f KB", float64(size)/(1<<10))
	default:
		return fmt.Sprintf("%d B", size)
	}
}
