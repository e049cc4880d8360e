package app

import (
	"github.com/lumen-agency/site-core/internal/config"
	"github.com/lumen-agency/site-core/internal/modules/content/post"
	"github.com/lumen-agency/site-core/internal/modules/content/project"
	"github.com/lumen-agency/site-core/internal/modules/indexing"
	"github.com/lumen-agency/site-core/internal/pkg/metrics"
	"github.com/lumen-agency/site-core/internal/pkg/sealbox"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// NewIndexingService wires the indexing service from runtime config. The
// HTTP server, the cron jobs and indexctl all go through it.
func NewIndexingService(db *gorm.DB, cfg *config.AppConfig, logger *zap.Logger, m *metrics.Metrics) (*indexing.Service, error) {
	ic := cfg.Indexing
	box, err := sealbox.New(ic.SecretKey)
	if err != nil {
		return nil, err
	}
	if box == nil && ic.Enabled {
		logger.Warn("indexing.secret_key is empty, OAuth secrets are stored unsealed")
	}
	return indexing.NewService(db, indexing.Config{
		Enabled:  ic.Enabled,
		BaseURL:  cfg.Site.BaseURL,
		TokenURL: ic.TokenURL,
		Endpoints: indexing.Endpoints{
			InspectURL:   ic.InspectURL,
			PublishURL:   ic.PublishURL,
			TokenInfoURL: ic.TokenInfoURL,
		},
		RequestTimeout: ic.RequestTimeout,
	}, post.NewService(db), project.NewService(db),
		indexing.WithLogger(logger),
		indexing.WithMetrics(m),
		indexing.WithSecretBox(box),
	), nil
}
