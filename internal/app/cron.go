package app

import (
	"context"
	"errors"

	"github.com/lumen-agency/site-core/internal/config"
	"github.com/lumen-agency/site-core/internal/modules/indexing"
	pkgcron "github.com/lumen-agency/site-core/internal/pkg/cron"
	"go.uber.org/zap"
)

const (
	jobInspectAll   = "indexing_inspect_all"
	jobRefreshToken = "indexing_refresh_token"
)

// registerCronJobs registers all scheduled background jobs.
func registerCronJobs(sched *pkgcron.Scheduler, svc *indexing.Service, cfg *config.AppConfig, logger *zap.Logger) error {
	cronLogger := logger.Named("CronService")

	jobs := []pkgcron.Job{
		{
			Name:        jobInspectAll,
			Description: "Inspect every public site URL and record its index status",
			Spec:        cfg.Indexing.InspectSchedule,
			Fn: func(ctx context.Context) error {
				result, err := svc.InspectAll(ctx)
				if skipped(cronLogger, jobInspectAll, err) {
					return nil
				}
				if err != nil {
					return err
				}
				cronLogger.Info("scheduled inspection done",
					zap.Int("succeeded", result.Succeeded),
					zap.Int("failed", result.Failed),
				)
				return nil
			},
		},
		{
			Name:        jobRefreshToken,
			Description: "Keep the search console access token fresh",
			Spec:        cfg.Indexing.RefreshSchedule,
			Fn: func(ctx context.Context) error {
				tok, err := svc.RefreshToken(ctx, false)
				if skipped(cronLogger, jobRefreshToken, err) {
					return nil
				}
				if err != nil {
					return err
				}
				cronLogger.Debug("access token valid", zap.Time("expires_at", tok.ExpiresAt), zap.Bool("refreshed", tok.Refreshed))
				return nil
			},
		},
	}
	for _, job := range jobs {
		if err := sched.Register(job); err != nil {
			return err
		}
	}
	return nil
}

// skipped reports configuration errors that make a tick a no-op rather than
// a failure.
func skipped(logger *zap.Logger, job string, err error) bool {
	if errors.Is(err, indexing.ErrDisabled) || errors.Is(err, indexing.ErrNotConfigured) || errors.Is(err, indexing.ErrMissingBaseURL) {
		logger.Info("cron job skipped", zap.String("job", job), zap.String("reason", err.Error()))
		return true
	}
	return false
}
