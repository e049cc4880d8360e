package indexing

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/lumen-agency/site-core/internal/models"
	"github.com/lumen-agency/site-core/internal/pkg/metrics"
	"github.com/lumen-agency/site-core/internal/pkg/pagination"
	"github.com/lumen-agency/site-core/internal/pkg/response"
	"github.com/lumen-agency/site-core/internal/pkg/sealbox"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// MaxSubmitURLs caps one explicit submission.
const MaxSubmitURLs = 100

// Config is the runtime configuration of the indexing service.
type Config struct {
	Enabled        bool
	BaseURL        string
	TokenURL       string
	Endpoints      Endpoints
	RequestTimeout time.Duration
}

// Service is the entry point shared by the HTTP handler, the CLI and cron.
type Service struct {
	cfg         Config
	credentials *CredentialStore
	tokens      *TokenManager
	enumerator  *Enumerator
	batch       *Batch
	reconciler  *Reconciler
	health      *HealthChecker
	clock       clockwork.Clock
	logger      *zap.Logger
	metrics     *metrics.Metrics
	httpClient  *http.Client
	box         *sealbox.Box
}

type ServiceOption func(*Service)

// WithLogger sets the logger for the indexing service.
func WithLogger(l *zap.Logger) ServiceOption {
	return func(s *Service) {
		if l != nil {
			s.logger = l.Named("IndexingService")
		}
	}
}

func WithMetrics(m *metrics.Metrics) ServiceOption {
	return func(s *Service) { s.metrics = m }
}

// WithClock replaces the wall clock, for tests.
func WithClock(c clockwork.Clock) ServiceOption {
	return func(s *Service) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithHTTPClient replaces the provider HTTP client.
func WithHTTPClient(c *http.Client) ServiceOption {
	return func(s *Service) {
		if c != nil {
			s.httpClient = c
		}
	}
}

// WithSecretBox seals stored credential secrets with box.
func WithSecretBox(box *sealbox.Box) ServiceOption {
	return func(s *Service) { s.box = box }
}

func NewService(db *gorm.DB, cfg Config, posts PostSource, projects ProjectSource, opts ...ServiceOption) *Service {
	s := &Service{
		cfg:    cfg,
		clock:  clockwork.NewRealClock(),
		logger: zap.NewNop(),
	}
	for _, o := range opts {
		o(s)
	}
	if s.httpClient == nil {
		timeout := cfg.RequestTimeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		s.httpClient = &http.Client{Timeout: timeout}
	}

	client := NewClient(s.httpClient, cfg.Endpoints, s.metrics)
	s.credentials = NewCredentialStore(db, s.box)
	s.tokens = NewTokenManager(s.credentials, s.httpClient, cfg.TokenURL,
		WithTokenLogger(s.logger),
		WithTokenClock(s.clock),
		WithTokenMetrics(s.metrics),
	)
	s.enumerator = NewEnumerator(cfg.BaseURL, posts, projects)
	s.reconciler = NewReconciler(db)
	s.batch = NewBatch(client, s.reconciler, s.clock, s.logger, s.metrics)
	s.health = NewHealthChecker(s.credentials, s.tokens, client, s.clock)
	return s
}

// Enabled reports whether the integration is switched on.
func (s *Service) Enabled() bool { return s.cfg.Enabled }

// RefreshToken returns a valid token's expiry, exchanging the refresh
// token first when force is set or the token is close to expiry.
func (s *Service) RefreshToken(ctx context.Context, force bool) (*Token, error) {
	if err := s.ensureEnabled(); err != nil {
		return nil, err
	}
	var (
		tok Token
		err error
	)
	if force {
		tok, err = s.tokens.Refresh(ctx)
	} else {
		tok, err = s.tokens.Current(ctx)
	}
	if err != nil {
		return nil, err
	}
	return &tok, nil
}

// InspectAll enumerates every public URL and inspects it.
func (s *Service) InspectAll(ctx context.Context) (*RunResult, error) {
	if err := s.ensureEnabled(); err != nil {
		return nil, err
	}
	targets, err := s.enumerator.Enumerate(ctx)
	if err != nil {
		return nil, err
	}
	cred, err := s.credentials.Active(ctx)
	if err != nil {
		return nil, err
	}
	token, err := s.tokens.ObtainValidToken(ctx)
	if err != nil {
		return nil, err
	}

	s.logger.Info("inspection batch started", zap.Int("urls", len(targets)))
	result := s.batch.InspectBatch(ctx, targets, cred.SiteURL, token)
	s.logRun(result)
	return result, nil
}

// SubmitURLs publishes URL_UPDATED notifications for the given URLs.
func (s *Service) SubmitURLs(ctx context.Context, rawURLs []string) (*RunResult, error) {
	if err := s.ensureEnabled(); err != nil {
		return nil, err
	}
	targets, err := ParseTargets(rawURLs)
	if err != nil {
		return nil, err
	}
	token, err := s.tokens.ObtainValidToken(ctx)
	if err != nil {
		return nil, err
	}

	s.logger.Info("submission batch started", zap.Int("urls", len(targets)))
	result := s.batch.SubmitBatch(ctx, targets, token)
	s.logRun(result)
	return result, nil
}

// Health runs the integration diagnostic.
func (s *Service) Health(ctx context.Context) (*HealthReport, error) {
	if err := s.ensureEnabled(); err != nil {
		return nil, err
	}
	return s.health.Check(ctx), nil
}

// PreviewURLs returns what InspectAll would walk, without calling the provider.
func (s *Service) PreviewURLs(ctx context.Context) ([]Target, error) {
	return s.enumerator.Enumerate(ctx)
}

func (s *Service) ListStatuses(ctx context.Context, q pagination.Query, f StatusFilter) ([]models.IndexingStatus, response.Pagination, error) {
	return s.reconciler.List(ctx, q, f)
}

func (s *Service) GetStatus(ctx context.Context, pageURL string) (*models.IndexingStatus, error) {
	return s.reconciler.Get(ctx, pageURL)
}

func (s *Service) StatusSummary(ctx context.Context) (*Summary, error) {
	return s.reconciler.Summary(ctx)
}

// Credential returns the active credential or ErrNotConfigured.
func (s *Service) Credential(ctx context.Context) (*models.SearchConsoleCredential, error) {
	return s.credentials.Active(ctx)
}

func (s *Service) Connect(ctx context.Context, in ConnectInput) (*models.SearchConsoleCredential, error) {
	cred, err := s.credentials.Connect(ctx, in)
	if err != nil {
		return nil, err
	}
	s.logger.Info("search console credential connected", zap.String("site_url", cred.SiteURL))
	return cred, nil
}

func (s *Service) Disconnect(ctx context.Context) error {
	if err := s.credentials.Disconnect(ctx); err != nil {
		return err
	}
	s.logger.Info("search console credential disconnected")
	return nil
}

// ResealCredentials seals credential rows stored before a secret key was set.
func (s *Service) ResealCredentials(ctx context.Context) (int, error) {
	n, err := s.credentials.Reseal(ctx)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.logger.Info("search console credentials resealed", zap.Int("rows", n))
	}
	return n, nil
}

func (s *Service) ensureEnabled() error {
	if !s.cfg.Enabled {
		return ErrDisabled
	}
	return nil
}

func (s *Service) logRun(r *RunResult) {
	took := r.FinishedAt.Sub(r.StartedAt)
	if s.metrics != nil {
		s.metrics.IndexingBatchDuration.WithLabelValues(string(r.Mode)).Observe(took.Seconds())
	}
	s.logger.Info("indexing batch finished",
		zap.String("mode", string(r.Mode)),
		zap.Int("total", r.Total),
		zap.Int("succeeded", r.Succeeded),
		zap.Int("failed", r.Failed),
		zap.Duration("took", took),
	)
}

// ParseTargets validates caller-provided URLs: absolute http(s), at most
// MaxSubmitURLs, duplicates dropped keeping the first.
func ParseTargets(rawURLs []string) ([]Target, error) {
	if len(rawURLs) == 0 {
		return nil, fmt.Errorf("%w: at least one url is required", ErrInvalidInput)
	}
	seen := make(map[string]struct{}, len(rawURLs))
	targets := make([]Target, 0, len(rawURLs))
	for _, raw := range rawURLs {
		trimmed := strings.TrimSpace(raw)
		u, err := url.Parse(trimmed)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return nil, fmt.Errorf("%w: %q is not an absolute http(s) url", ErrInvalidInput, raw)
		}
		if _, dup := seen[trimmed]; dup {
			continue
		}
		seen[trimmed] = struct{}{}
		targets = append(targets, Target{URL: trimmed, PageType: inferPageType(u)})
	}
	if len(targets) > MaxSubmitURLs {
		return nil, fmt.Errorf("%w: at most %d urls per submission", ErrInvalidInput, MaxSubmitURLs)
	}
	return targets, nil
}
