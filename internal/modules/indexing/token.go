package indexing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/lumen-agency/site-core/internal/models"
	"github.com/lumen-agency/site-core/internal/pkg/metrics"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// SafetyMargin is the minimum remaining lifetime of a token handed to callers.
const SafetyMargin = 5 * time.Minute

const maxTokenResponseBytes = 1 << 20

// maxTokenLifetime caps expires_in; larger values are treated as this.
const maxTokenLifetime = 24 * time.Hour

// Token is an access token and when it expires.
type Token struct {
	AccessToken string    `json:"-"`
	ExpiresAt   time.Time `json:"expires_at"`
	Refreshed   bool      `json:"refreshed"`
}

// TokenManager hands out access tokens, refreshing them through the OAuth
// token endpoint when they are close to expiry.
type TokenManager struct {
	store      *CredentialStore
	httpClient *http.Client
	tokenURL   string
	clock      clockwork.Clock
	group      singleflight.Group
	logger     *zap.Logger
	metrics    *metrics.Metrics
}

type TokenManagerOption func(*TokenManager)

func WithTokenLogger(l *zap.Logger) TokenManagerOption {
	return func(m *TokenManager) {
		if l != nil {
			m.logger = l.Named("TokenManager")
		}
	}
}

func WithTokenClock(c clockwork.Clock) TokenManagerOption {
	return func(m *TokenManager) {
		if c != nil {
			m.clock = c
		}
	}
}

func WithTokenMetrics(mt *metrics.Metrics) TokenManagerOption {
	return func(m *TokenManager) { m.metrics = mt }
}

func NewTokenManager(store *CredentialStore, httpClient *http.Client, tokenURL string, opts ...TokenManagerOption) *TokenManager {
	m := &TokenManager{
		store:      store,
		httpClient: httpClient,
		tokenURL:   tokenURL,
		clock:      clockwork.NewRealClock(),
		logger:     zap.NewNop(),
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// ObtainValidToken returns an access token valid for at least SafetyMargin,
// refreshing it first when needed.
func (m *TokenManager) ObtainValidToken(ctx context.Context) (string, error) {
	tok, err := m.obtain(ctx, false)
	if err != nil {
		return "", err
	}
	return tok.AccessToken, nil
}

// Current is ObtainValidToken with expiry details.
func (m *TokenManager) Current(ctx context.Context) (Token, error) {
	return m.obtain(ctx, false)
}

// Refresh exchanges the refresh token regardless of the current expiry.
func (m *TokenManager) Refresh(ctx context.Context) (Token, error) {
	return m.obtain(ctx, true)
}

func (m *TokenManager) obtain(ctx context.Context, force bool) (Token, error) {
	cred, err := m.store.Active(ctx)
	if err != nil {
		return Token{}, err
	}
	if !force && !m.needsRefresh(cred) {
		return Token{AccessToken: cred.AccessToken, ExpiresAt: *cred.TokenExpiresAt}, nil
	}

	key := cred.ID
	if force {
		key += ":force"
	}
	// Detached so one caller giving up does not fail the others sharing the flight.
	flightCtx := context.WithoutCancel(ctx)
	v, err, _ := m.group.Do(key, func() (interface{}, error) {
		return m.refresh(flightCtx, force)
	})
	if err != nil {
		return Token{}, err
	}
	return v.(Token), nil
}

// probe returns a usable access token for cred without writing anything:
// the stored one when still valid, otherwise a freshly exchanged one that
// is discarded after use.
func (m *TokenManager) probe(ctx context.Context, cred *models.SearchConsoleCredential) (string, error) {
	if !m.needsRefresh(cred) {
		return cred.AccessToken, nil
	}
	grant, err := m.exchange(ctx, cred)
	if err != nil {
		return "", err
	}
	return grant.AccessToken, nil
}

func (m *TokenManager) needsRefresh(cred *models.SearchConsoleCredential) bool {
	if cred.AccessToken == "" || cred.TokenExpiresAt == nil {
		return true
	}
	return cred.TokenExpiresAt.Sub(m.clock.Now()) < SafetyMargin
}

func (m *TokenManager) refresh(ctx context.Context, force bool) (Token, error) {
	// Reload: a flight that just finished may already have refreshed.
	cred, err := m.store.Active(ctx)
	if err != nil {
		return Token{}, err
	}
	if !force && !m.needsRefresh(cred) {
		return Token{AccessToken: cred.AccessToken, ExpiresAt: *cred.TokenExpiresAt}, nil
	}

	grant, err := m.exchange(ctx, cred)
	if err != nil {
		m.countRefresh("failure")
		m.logger.Warn("token refresh failed", zap.Error(err))
		return Token{}, err
	}

	expiresAt := m.clock.Now().Add(time.Duration(grant.ExpiresIn) * time.Second)
	if err := m.store.saveAccessToken(ctx, cred.ID, grant.AccessToken, expiresAt); err != nil {
		m.countRefresh("failure")
		if errors.Is(err, ErrNotConfigured) {
			return Token{}, err
		}
		return Token{}, fmt.Errorf("persist refreshed token: %w", err)
	}

	m.countRefresh("success")
	m.logger.Info("access token refreshed", zap.Time("expires_at", expiresAt))
	return Token{AccessToken: grant.AccessToken, ExpiresAt: expiresAt, Refreshed: true}, nil
}

type tokenGrant struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
	Scope       string `json:"scope"`
	TokenType   string `json:"token_type"`
}

func (m *TokenManager) exchange(ctx context.Context, cred *models.SearchConsoleCredential) (*tokenGrant, error) {
	body := url.Values{}
	body.Set("client_id", cred.ClientID)
	body.Set("client_secret", cred.ClientSecret)
	body.Set("refresh_token", cred.RefreshToken)
	body.Set("grant_type", "refresh_token")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.tokenURL, strings.NewReader(body.Encode()))
	if err != nil {
		return nil, &AuthError{Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return nil, &AuthError{Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxTokenResponseBytes))
	if err != nil {
		return nil, &AuthError{Status: resp.StatusCode, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &AuthError{Status: resp.StatusCode, Detail: strings.TrimSpace(string(raw))}
	}

	var grant tokenGrant
	if err := json.Unmarshal(raw, &grant); err != nil {
		return nil, &AuthError{Status: resp.StatusCode, Detail: "malformed token response", Err: err}
	}
	switch {
	case grant.AccessToken == "":
		return nil, &AuthError{Status: resp.StatusCode, Detail: "token response missing access_token"}
	case grant.ExpiresIn <= 0:
		return nil, &AuthError{Status: resp.StatusCode, Detail: fmt.Sprintf("invalid expires_in %d", grant.ExpiresIn)}
	case grant.ExpiresIn < int64(SafetyMargin/time.Second):
		return nil, &AuthError{Status: resp.StatusCode, Detail: fmt.Sprintf("token lifetime %ds is shorter than the safety margin", grant.ExpiresIn)}
	}
	if limit := int64(maxTokenLifetime / time.Second); grant.ExpiresIn > limit {
		grant.ExpiresIn = limit
	}
	return &grant, nil
}

func (m *TokenManager) countRefresh(result string) {
	if m.metrics != nil {
		m.metrics.TokenRefreshTotal.WithLabelValues(result).Inc()
	}
}
