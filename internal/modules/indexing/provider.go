package indexing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/lumen-agency/site-core/internal/models"
	"github.com/lumen-agency/site-core/internal/pkg/metrics"
)

const maxProviderResponseBytes = 4 << 20

// Endpoints are the provider URLs the client talks to.
type Endpoints struct {
	InspectURL   string
	PublishURL   string
	TokenInfoURL string
}

// Client calls the URL Inspection, Indexing and tokeninfo endpoints.
type Client struct {
	httpClient *http.Client
	endpoints  Endpoints
	metrics    *metrics.Metrics
}

func NewClient(httpClient *http.Client, endpoints Endpoints, m *metrics.Metrics) *Client {
	return &Client{httpClient: httpClient, endpoints: endpoints, metrics: m}
}

// InspectionResult is the part of an inspection response that gets stored.
type InspectionResult struct {
	Verdict       string
	CoverageState *string
	LastCrawledAt *time.Time
	Errors        []models.IndexingIssue
	Warnings      []models.IndexingIssue
	Link          string
}

type inspectRequest struct {
	InspectionURL string `json:"inspectionUrl"`
	SiteURL       string `json:"siteUrl"`
}

type inspectResponse struct {
	InspectionResult struct {
		InspectionResultLink string `json:"inspectionResultLink"`
		IndexStatusResult    struct {
			Verdict       string `json:"verdict"`
			CoverageState string `json:"coverageState"`
			LastCrawlTime string `json:"lastCrawlTime"`
		} `json:"indexStatusResult"`
		MobileUsabilityResult struct {
			Issues []struct {
				IssueType string `json:"issueType"`
				Severity  string `json:"severity"`
				Message   string `json:"message"`
			} `json:"issues"`
		} `json:"mobileUsabilityResult"`
		RichResultsResult struct {
			DetectedItems []struct {
				RichResultType string `json:"richResultType"`
				Items          []struct {
					Name   string `json:"name"`
					Issues []struct {
						IssueMessage string `json:"issueMessage"`
						Severity     string `json:"severity"`
					} `json:"issues"`
				} `json:"items"`
			} `json:"detectedItems"`
		} `json:"richResultsResult"`
	} `json:"inspectionResult"`
}

// Inspect asks the provider for the index status of pageURL within siteURL.
func (c *Client) Inspect(ctx context.Context, token, pageURL, siteURL string) (*InspectionResult, error) {
	var resp inspectResponse
	if err := c.postJSON(ctx, "inspect", c.endpoints.InspectURL, token, inspectRequest{InspectionURL: pageURL, SiteURL: siteURL}, &resp); err != nil {
		return nil, err
	}
	return resp.toResult(), nil
}

func (r *inspectResponse) toResult() *InspectionResult {
	ir := r.InspectionResult
	out := &InspectionResult{
		Verdict: ir.IndexStatusResult.Verdict,
		Link:    ir.InspectionResultLink,
	}
	if out.Verdict == "" {
		out.Verdict = models.VerdictUnspecified
	}
	if v := strings.TrimSpace(ir.IndexStatusResult.CoverageState); v != "" {
		out.CoverageState = &v
	}
	if ts, err := time.Parse(time.RFC3339, ir.IndexStatusResult.LastCrawlTime); err == nil {
		out.LastCrawledAt = &ts
	}

	for _, issue := range ir.MobileUsabilityResult.Issues {
		out.addIssue("mobile_usability", issue.Severity, joinNonEmpty(issue.IssueType, issue.Message))
	}
	for _, detected := range ir.RichResultsResult.DetectedItems {
		for _, item := range detected.Items {
			for _, issue := range item.Issues {
				out.addIssue("rich_results", issue.Severity, joinNonEmpty(detected.RichResultType, item.Name, issue.IssueMessage))
			}
		}
	}
	return out
}

func (r *InspectionResult) addIssue(kind, severity, message string) {
	issue := models.IndexingIssue{Kind: kind, Message: message}
	if strings.EqualFold(severity, "ERROR") {
		r.Errors = append(r.Errors, issue)
		return
	}
	r.Warnings = append(r.Warnings, issue)
}

// PublishResult carries the notification metadata of a URL_UPDATED publish.
type PublishResult struct {
	NotifiedAt *time.Time
}

type publishRequest struct {
	URL  string `json:"url"`
	Type string `json:"type"`
}

type publishResponse struct {
	URLNotificationMetadata struct {
		URL          string `json:"url"`
		LatestUpdate struct {
			URL        string `json:"url"`
			Type       string `json:"type"`
			NotifyTime string `json:"notifyTime"`
		} `json:"latestUpdate"`
	} `json:"urlNotificationMetadata"`
}

// Publish notifies the Indexing API that pageURL was updated.
func (c *Client) Publish(ctx context.Context, token, pageURL string) (*PublishResult, error) {
	var resp publishResponse
	if err := c.postJSON(ctx, "publish", c.endpoints.PublishURL, token, publishRequest{URL: pageURL, Type: "URL_UPDATED"}, &resp); err != nil {
		return nil, err
	}
	out := &PublishResult{}
	if ts, err := time.Parse(time.RFC3339Nano, resp.URLNotificationMetadata.LatestUpdate.NotifyTime); err == nil {
		out.NotifiedAt = &ts
	}
	return out, nil
}

// TokenInfo describes what an access token was granted.
type TokenInfo struct {
	Scope     string `json:"scope"`
	Audience  string `json:"aud"`
	ExpiresIn string `json:"expires_in"`
}

// Scopes splits the space separated scope string.
func (t *TokenInfo) Scopes() []string {
	return strings.Fields(t.Scope)
}

// TokenInfo looks up the scopes granted to token.
func (c *Client) TokenInfo(ctx context.Context, token string) (*TokenInfo, error) {
	endpoint := c.endpoints.TokenInfoURL + "?" + url.Values{"access_token": {token}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, classify(0, err.Error())
	}
	var info TokenInfo
	if err := c.do(req, "tokeninfo", &info); err != nil {
		return nil, err
	}
	return &info, nil
}

func (c *Client) postJSON(ctx context.Context, label, endpoint, token string, payload, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return classify(0, err.Error())
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return classify(0, err.Error())
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	return c.do(req, label, out)
}

// do sends req and decodes a 2xx JSON body into out. Every failure comes
// back as a classified *ProviderError.
func (c *Client) do(req *http.Request, label string, out interface{}) error {
	req.Header.Set("Accept", "application/json")
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if c.metrics != nil {
		c.metrics.ProviderRequestDuration.WithLabelValues(label).Observe(time.Since(start).Seconds())
	}
	if err != nil {
		return classify(0, err.Error())
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxProviderResponseBytes))
	if err != nil {
		return classify(resp.StatusCode, err.Error())
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return classify(resp.StatusCode, fmt.Sprintf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw))))
	}
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return classify(resp.StatusCode, "malformed response: "+err.Error())
	}
	return nil
}

func joinNonEmpty(parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, ": ")
}
