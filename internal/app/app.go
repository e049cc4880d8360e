package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/lumen-agency/site-core/internal/config"
	"github.com/lumen-agency/site-core/internal/database"
	"github.com/lumen-agency/site-core/internal/middleware"
	"github.com/lumen-agency/site-core/internal/modules/indexing"
	pkgcron "github.com/lumen-agency/site-core/internal/pkg/cron"
	"github.com/lumen-agency/site-core/internal/pkg/metrics"
	pkgredis "github.com/lumen-agency/site-core/internal/pkg/redis"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// App holds all application dependencies.
type App struct {
	cfg      *config.AppConfig
	router   *gin.Engine
	db       *gorm.DB
	rc       *pkgredis.Client
	logger   *zap.Logger
	registry *prometheus.Registry
	metrics  *metrics.Metrics
	indexing *indexing.Service
	sched    *pkgcron.Scheduler
	cancel   context.CancelFunc
}

// New initializes the application: config → DB → Redis → routes → cron.
func New(logger *zap.Logger, cfg *config.AppConfig) (*App, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	if err := applyRuntimeSettings(cfg, logger); err != nil {
		return nil, err
	}

	db, err := database.Connect(cfg, false)
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}

	rc, err := pkgredis.Connect(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("redis: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(registry)

	if cfg.IsDev() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.HandleMethodNotAllowed = true
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(logger, m))
	router.Use(cors.New(corsConfig(cfg)))

	svc, err := NewIndexingService(db, cfg, logger, m)
	if err != nil {
		_ = rc.Close()
		return nil, fmt.Errorf("indexing: %w", err)
	}

	sched := pkgcron.New(pkgcron.WithLogger(logger.Named("CronService")), pkgcron.WithLocation(time.Local))
	app := &App{
		cfg:      cfg,
		router:   router,
		db:       db,
		rc:       rc,
		logger:   logger,
		registry: registry,
		metrics:  m,
		indexing: svc,
		sched:    sched,
	}
	if err := registerCronJobs(sched, app.indexing, cfg, logger); err != nil {
		_ = rc.Close()
		return nil, fmt.Errorf("cron: %w", err)
	}
	app.registerRoutes()

	ctx, cancel := context.WithCancel(context.Background())
	app.cancel = cancel
	sched.Start(ctx)

	if !cfg.Indexing.Enabled {
		logger.Info("search console indexing is disabled")
	}
	return app, nil
}

// Addr returns the listen address.
func (a *App) Addr() string { return fmt.Sprintf(":%d", a.cfg.Port) }

// Router returns the HTTP handler.
func (a *App) Router() http.Handler { return a.router }

// Shutdown stops the scheduler and releases connections.
func (a *App) Shutdown() {
	a.cancel()
	if err := a.rc.Close(); err != nil {
		a.logger.Warn("redis close failed", zap.Error(err))
	}
	if sqlDB, err := a.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
