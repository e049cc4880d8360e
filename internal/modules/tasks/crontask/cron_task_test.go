package crontask

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	pkgcron "github.com/lumen-agency/site-core/internal/pkg/cron"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCronTaskRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	ran := make(chan struct{}, 1)
	sched := pkgcron.New()
	require.NoError(t, sched.Register(pkgcron.Job{
		Name: "noop",
		Spec: "@every 1h",
		Fn: func(ctx context.Context) error {
			ran <- struct{}{}
			return nil
		},
	}))

	r := gin.New()
	NewHandler(sched).RegisterRoutes(r.Group(""), func(c *gin.Context) { c.Next() })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/cron-task", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"name":"noop"`)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/cron-task/noop/run", nil))
	require.Equal(t, http.StatusOK, w.Code)
	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("job was not triggered")
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/cron-task/missing", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/cron-task/missing/run", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRun_ConflictWhileRunning(t *testing.T) {
	gin.SetMode(gin.TestMode)
	release := make(chan struct{})
	sched := pkgcron.New()
	require.NoError(t, sched.Register(pkgcron.Job{
		Name: "slow",
		Spec: "@every 1h",
		Fn: func(ctx context.Context) error {
			<-release
			return nil
		},
	}))
	defer close(release)

	r := gin.New()
	NewHandler(sched).RegisterRoutes(r.Group(""), func(c *gin.Context) { c.Next() })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/cron-task/slow/run", nil))
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/cron-task/slow/run", nil))
	assert.Equal(t, http.StatusConflict, w.Code)
}
