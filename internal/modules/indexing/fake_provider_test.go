package indexing

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/lumen-agency/site-core/internal/models"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const (
	testSiteURL = "sc-domain:example.com"
	testBaseURL = "https://example.com"
)

// fakeProvider serves the token, inspection, publish and tokeninfo endpoints.
type fakeProvider struct {
	server *httptest.Server

	mu           sync.Mutex
	tokenCalls   int
	lastRefresh  string
	tokenStatus  int
	accessToken  string
	expiresIn    int64
	tokenDelay   time.Duration
	scope        string
	failures     map[string]int
	inspected    []string
	published    []string
	bearerTokens []string
}

func newFakeProvider(t *testing.T) *fakeProvider {
	t.Helper()
	p := &fakeProvider{
		accessToken: "fresh-token",
		expiresIn:   3600,
		scope:       scopeWebmastersReadOnly + " " + scopeIndexing,
		failures:    map[string]int{},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/token", p.handleToken)
	mux.HandleFunc("/inspect", p.handleInspect)
	mux.HandleFunc("/publish", p.handlePublish)
	mux.HandleFunc("/tokeninfo", p.handleTokenInfo)
	p.server = httptest.NewServer(mux)
	t.Cleanup(p.server.Close)
	return p
}

func (p *fakeProvider) endpoints() Endpoints {
	return Endpoints{
		InspectURL:   p.server.URL + "/inspect",
		PublishURL:   p.server.URL + "/publish",
		TokenInfoURL: p.server.URL + "/tokeninfo",
	}
}

func (p *fakeProvider) tokenURL() string { return p.server.URL + "/token" }

func (p *fakeProvider) failWith(pageURL string, status int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failures[pageURL] = status
}

func (p *fakeProvider) configure(fn func(p *fakeProvider)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fn(p)
}

func (p *fakeProvider) tokenCallCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.tokenCalls
}

func (p *fakeProvider) lastRefreshToken() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastRefresh
}

func (p *fakeProvider) inspectedURLs() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.inspected...)
}

func (p *fakeProvider) publishedURLs() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.published...)
}

func (p *fakeProvider) authHeaders() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.bearerTokens...)
}

func (p *fakeProvider) handleToken(w http.ResponseWriter, r *http.Request) {
	_ = r.ParseForm()
	p.mu.Lock()
	p.tokenCalls++
	p.lastRefresh = r.PostForm.Get("refresh_token")
	status, token, expiresIn, delay := p.tokenStatus, p.accessToken, p.expiresIn, p.tokenDelay
	p.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}
	if r.PostForm.Get("grant_type") != "refresh_token" {
		status = http.StatusBadRequest
	}
	w.Header().Set("Content-Type", "application/json")
	if status != 0 && status != http.StatusOK {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"access_token": token,
		"expires_in":   expiresIn,
		"token_type":   "Bearer",
	})
}

func (p *fakeProvider) handleInspect(w http.ResponseWriter, r *http.Request) {
	var req inspectRequest
	_ = json.NewDecoder(r.Body).Decode(&req)

	p.mu.Lock()
	p.inspected = append(p.inspected, req.InspectionURL)
	p.bearerTokens = append(p.bearerTokens, r.Header.Get("Authorization"))
	status := p.failures[req.InspectionURL]
	p.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if status != 0 {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"error":{"message":"denied"}}`))
		return
	}
	_, _ = w.Write([]byte(`{"inspectionResult":{
		"inspectionResultLink":"https://search.google.com/inspect",
		"indexStatusResult":{"verdict":"PASS","coverageState":"Submitted and indexed","lastCrawlTime":"2026-10-01T10:00:00Z"},
		"mobileUsabilityResult":{"issues":[{"issueType":"USES_INCOMPATIBLE_PLUGINS","severity":"WARNING","message":"plugins"}]}
	}}`))
}

func (p *fakeProvider) handlePublish(w http.ResponseWriter, r *http.Request) {
	var req publishRequest
	_ = json.NewDecoder(r.Body).Decode(&req)

	p.mu.Lock()
	p.published = append(p.published, req.URL)
	status := p.failures[req.URL]
	p.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if status != 0 {
		w.WriteHeader(status)
		return
	}
	_, _ = w.Write([]byte(`{"urlNotificationMetadata":{"url":"` + req.URL + `","latestUpdate":{"url":"` + req.URL + `","type":"URL_UPDATED","notifyTime":"2026-10-02T08:00:00.123Z"}}}`))
}

func (p *fakeProvider) handleTokenInfo(w http.ResponseWriter, r *http.Request) {
	p.mu.Lock()
	scope := p.scope
	p.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"scope": scope, "aud": "client", "expires_in": "3599"})
}

// seedCredential stores an active credential whose access token expires at expiresAt.
func seedCredential(t *testing.T, db *gorm.DB, expiresAt time.Time) *models.SearchConsoleCredential {
	t.Helper()
	cred, err := NewCredentialStore(db, nil).Connect(context.Background(), ConnectInput{
		ClientID:     "client",
		ClientSecret: "secret",
		RefreshToken: "refresh",
		SiteURL:      testSiteURL,
	})
	require.NoError(t, err)
	require.NoError(t, db.Model(cred).Updates(map[string]interface{}{
		"access_token":     "stored-token",
		"token_expires_at": expiresAt,
	}).Error)
	return cred
}

// noPacing makes a batch skip its inter-call delay.
func noPacing(b *Batch) {
	b.pacer = &Pacer{clock: clockwork.NewRealClock(), interval: 0}
}

type staticSource struct {
	refs []models.ContentRef
	err  error
}

func (s staticSource) ListPublished(context.Context) ([]models.ContentRef, error) { return s.refs, s.err }
func (s staticSource) ListActive(context.Context) ([]models.ContentRef, error)    { return s.refs, s.err }
