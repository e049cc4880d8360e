package indexing

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/lumen-agency/site-core/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestHealthChecker(t *testing.T) (*HealthChecker, *fakeProvider, *gorm.DB) {
	t.Helper()
	db := testutil.NewDB(t)
	provider := newFakeProvider(t)
	clock := clockwork.NewFakeClockAt(tokenEpoch)
	store := NewCredentialStore(db, nil)
	tokens := NewTokenManager(store, provider.server.Client(), provider.tokenURL(), WithTokenClock(clock))
	client := NewClient(provider.server.Client(), provider.endpoints(), nil)
	return NewHealthChecker(store, tokens, client, clock), provider, db
}

func TestHealth_AllChecksPass(t *testing.T) {
	h, provider, db := newTestHealthChecker(t)
	seedCredential(t, db, tokenEpoch.Add(time.Hour))

	report := h.Check(context.Background())
	assert.True(t, report.Healthy(), report.Problems)
	assert.Empty(t, report.Problems)
	assert.Equal(t, []string{"https://example.com/"}, provider.inspectedURLs())

	var count int64
	require.NoError(t, db.Table("indexing_statuses").Count(&count).Error)
	assert.Zero(t, count)
}

func TestHealth_NoCredential(t *testing.T) {
	h, _, _ := newTestHealthChecker(t)

	report := h.Check(context.Background())
	assert.False(t, report.Healthy())
	assert.False(t, report.CredentialsPresent)
	require.Len(t, report.Problems, 1)
}

func TestHealth_RefreshFailure(t *testing.T) {
	h, provider, db := newTestHealthChecker(t)
	seedCredential(t, db, tokenEpoch)
	provider.configure(func(p *fakeProvider) { p.tokenStatus = http.StatusUnauthorized })

	report := h.Check(context.Background())
	assert.True(t, report.CredentialsPresent)
	assert.False(t, report.TokenRefreshable)
	assert.False(t, report.APIReachable)
	assert.Contains(t, report.Problems[0], "token refresh failed")
}

func TestHealth_ExpiredTokenLeavesCredentialUntouched(t *testing.T) {
	h, provider, db := newTestHealthChecker(t)
	seedCredential(t, db, tokenEpoch)

	report := h.Check(context.Background())
	assert.True(t, report.Healthy(), report.Problems)
	assert.Equal(t, 1, provider.tokenCallCount())

	cred, err := NewCredentialStore(db, nil).Active(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "stored-token", cred.AccessToken)
	require.NotNil(t, cred.TokenExpiresAt)
	assert.True(t, cred.TokenExpiresAt.Equal(tokenEpoch))
}

func TestHealth_ProbeAndScopeProblems(t *testing.T) {
	h, provider, db := newTestHealthChecker(t)
	seedCredential(t, db, tokenEpoch.Add(time.Hour))
	provider.failWith("https://example.com/", http.StatusForbidden)
	provider.configure(func(p *fakeProvider) { p.scope = scopeWebmasters })

	report := h.Check(context.Background())
	assert.True(t, report.TokenRefreshable)
	assert.False(t, report.APIReachable)
	assert.False(t, report.ScopesPresent)
	require.Len(t, report.Problems, 2)
	assert.Contains(t, report.Problems[0], "access denied")
	assert.Contains(t, report.Problems[1], scopeIndexing)
	assert.NotContains(t, report.Problems[1], "webmasters")
}

func TestProbeURL(t *testing.T) {
	assert.Equal(t, "https://example.com/", probeURL("sc-domain:example.com"))
	assert.Equal(t, "https://example.com/", probeURL("https://example.com/"))
}
