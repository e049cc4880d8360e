package indexing

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/lumen-agency/site-core/internal/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		status int
		kind   ErrorKind
	}{
		{http.StatusUnauthorized, KindUnauthorized},
		{http.StatusForbidden, KindForbidden},
		{http.StatusNotFound, KindNotFound},
		{http.StatusTooManyRequests, KindProvider},
		{http.StatusInternalServerError, KindProvider},
		{0, KindProvider},
	}
	for _, tc := range cases {
		perr := classify(tc.status, "detail")
		assert.Equal(t, tc.kind, perr.Kind, "status %d", tc.status)
		assert.Equal(t, tc.status, perr.Status)
		assert.Contains(t, perr.Error(), "detail")
	}
}

func TestClient_InspectParsesResult(t *testing.T) {
	provider := newFakeProvider(t)
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	client := NewClient(provider.server.Client(), provider.endpoints(), m)

	res, err := client.Inspect(context.Background(), "tok", testBaseURL+"/", testSiteURL)
	require.NoError(t, err)
	assert.Equal(t, "PASS", res.Verdict)
	require.NotNil(t, res.CoverageState)
	assert.Equal(t, "Submitted and indexed", *res.CoverageState)
	require.NotNil(t, res.LastCrawledAt)
	assert.Equal(t, 2026, res.LastCrawledAt.Year())
	assert.Empty(t, res.Errors)
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, "mobile_usability", res.Warnings[0].Kind)
	assert.Equal(t, "USES_INCOMPATIBLE_PLUGINS: plugins", res.Warnings[0].Message)

	assert.Equal(t, 1, testutil.CollectAndCount(m.ProviderRequestDuration))
}

func TestInspectResponse_SeverityAndDefaults(t *testing.T) {
	var resp inspectResponse
	require.NoError(t, json.Unmarshal([]byte(`{"inspectionResult":{
		"indexStatusResult":{"lastCrawlTime":"never"},
		"richResultsResult":{"detectedItems":[{"richResultType":"Breadcrumbs","items":[{"name":"Trail","issues":[
			{"issueMessage":"Missing field item","severity":"ERROR"},
			{"issueMessage":"Missing optional field","severity":"WARNING"}
		]}]}]}
	}}`), &resp))

	res := resp.toResult()
	assert.Equal(t, "VERDICT_UNSPECIFIED", res.Verdict)
	assert.Nil(t, res.CoverageState)
	assert.Nil(t, res.LastCrawledAt)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, "Breadcrumbs: Trail: Missing field item", res.Errors[0].Message)
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, "rich_results", res.Warnings[0].Kind)
}

func TestClient_PublishBodyHasOnlyURLAndType(t *testing.T) {
	var body map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&body)
		_, _ = w.Write([]byte(`{"urlNotificationMetadata":{"url":"https://example.com/"}}`))
	}))
	defer srv.Close()

	client := NewClient(srv.Client(), Endpoints{InspectURL: srv.URL, PublishURL: srv.URL}, nil)
	_, err := client.Publish(context.Background(), "tok", testBaseURL+"/")
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"url": testBaseURL + "/", "type": "URL_UPDATED"}, body)
}

func TestClient_ErrorsAreClassified(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"expired"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.Client(), Endpoints{InspectURL: srv.URL, PublishURL: srv.URL}, nil)
	_, err := client.Publish(context.Background(), "tok", testBaseURL+"/")

	var perr *ProviderError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, KindUnauthorized, perr.Kind)
	assert.Contains(t, perr.Detail, "expired")

	srv.Close()
	_, err = client.Inspect(context.Background(), "tok", testBaseURL+"/", testSiteURL)
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, KindProvider, perr.Kind)
	assert.Zero(t, perr.Status)
}

func TestClient_TokenInfoScopes(t *testing.T) {
	provider := newFakeProvider(t)
	client := NewClient(provider.server.Client(), provider.endpoints(), nil)

	info, err := client.TokenInfo(context.Background(), "tok")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{scopeWebmastersReadOnly, scopeIndexing}, info.Scopes())
}
