package indexing

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
)

const (
	scopeWebmasters         = "https://www.googleapis.com/auth/webmasters"
	scopeWebmastersReadOnly = "https://www.googleapis.com/auth/webmasters.readonly"
	scopeIndexing           = "https://www.googleapis.com/auth/indexing"
)

// HealthReport answers "is the integration currently functional?".
type HealthReport struct {
	CredentialsPresent bool      `json:"credentials_present"`
	TokenRefreshable   bool      `json:"token_refreshable"`
	APIReachable       bool      `json:"api_reachable"`
	ScopesPresent      bool      `json:"scopes_present"`
	Problems           []string  `json:"problems"`
	CheckedAt          time.Time `json:"checked_at"`
}

// Healthy reports whether every check passed.
func (r *HealthReport) Healthy() bool {
	return r.CredentialsPresent && r.TokenRefreshable && r.APIReachable && r.ScopesPresent
}

// HealthChecker runs the diagnostic. It never writes status rows or the
// credential.
type HealthChecker struct {
	store  *CredentialStore
	tokens *TokenManager
	client *Client
	clock  clockwork.Clock
}

func NewHealthChecker(store *CredentialStore, tokens *TokenManager, client *Client, clock clockwork.Clock) *HealthChecker {
	return &HealthChecker{store: store, tokens: tokens, client: client, clock: clock}
}

// Check runs each probe in turn; later probes are skipped when an earlier
// one they depend on failed.
func (h *HealthChecker) Check(ctx context.Context) *HealthReport {
	report := &HealthReport{Problems: []string{}, CheckedAt: h.clock.Now()}

	cred, err := h.store.Active(ctx)
	if err != nil {
		if errors.Is(err, ErrNotConfigured) {
			report.Problems = append(report.Problems, "no active search console credential")
		} else {
			report.Problems = append(report.Problems, "credential lookup failed: "+err.Error())
		}
		return report
	}
	report.CredentialsPresent = true

	token, err := h.tokens.probe(ctx, cred)
	if err != nil {
		report.Problems = append(report.Problems, err.Error())
		return report
	}
	report.TokenRefreshable = true

	if _, err := h.client.Inspect(ctx, token, probeURL(cred.SiteURL), cred.SiteURL); err != nil {
		report.Problems = append(report.Problems, "inspection probe failed: "+err.Error())
	} else {
		report.APIReachable = true
	}

	info, err := h.client.TokenInfo(ctx, token)
	if err != nil {
		report.Problems = append(report.Problems, "tokeninfo lookup failed: "+err.Error())
		return report
	}
	missing := missingScopes(info.Scopes())
	if len(missing) == 0 {
		report.ScopesPresent = true
	} else {
		report.Problems = append(report.Problems, "missing scopes: "+strings.Join(missing, ", "))
	}
	return report
}

// probeURL turns a property into a URL that can be inspected.
func probeURL(siteURL string) string {
	if domain, ok := strings.CutPrefix(siteURL, "sc-domain:"); ok {
		return "https://" + strings.TrimSpace(domain) + "/"
	}
	return siteURL
}

func missingScopes(granted []string) []string {
	has := make(map[string]bool, len(granted))
	for _, s := range granted {
		has[s] = true
	}
	var missing []string
	if !has[scopeWebmasters] && !has[scopeWebmastersReadOnly] {
		missing = append(missing, scopeWebmastersReadOnly)
	}
	if !has[scopeIndexing] {
		missing = append(missing, scopeIndexing)
	}
	return missing
}
