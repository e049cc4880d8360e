package models

import "time"

// Page types tracked by the indexing status table.
const (
	PageTypeStatic    = "static"
	PageTypeBlogPost  = "blog_post"
	PageTypePortfolio = "portfolio"
)

// Verdicts stored on an indexing status row. The first four mirror the
// Search Console inspection verdicts; SUBMITTED and ERROR are local.
const (
	VerdictPass        = "PASS"
	VerdictNeutral     = "NEUTRAL"
	VerdictFail        = "FAIL"
	VerdictUnspecified = "VERDICT_UNSPECIFIED"
	VerdictSubmitted   = "SUBMITTED"
	VerdictError       = "ERROR"
)

// SearchConsoleCredential is the OAuth client + token pair for the indexing
// integration. At most one row is active at a time.
type SearchConsoleCredential struct {
	Base
	ClientID       string     `json:"client_id"        gorm:"not null"`
	ClientSecret   string     `json:"-"                gorm:"type:text;not null"`
	AccessToken    string     `json:"-"                gorm:"type:text"`
	RefreshToken   string     `json:"-"                gorm:"type:text;not null"`
	TokenExpiresAt *time.Time `json:"token_expires_at"`
	IsActive       bool       `json:"is_active"        gorm:"default:false;index"`
	SiteURL        string     `json:"site_url"         gorm:"not null"`
	Scope          string     `json:"scope"            gorm:"type:text"`
}

func (SearchConsoleCredential) TableName() string { return "search_console_credentials" }

// IndexingIssue is one structured error or warning attached to a status row.
type IndexingIssue struct {
	Kind    string `json:"kind"`
	Status  int    `json:"status,omitempty"`
	Message string `json:"message"`
}

// IndexingStatus is the current-state snapshot for one URL.
type IndexingStatus struct {
	ID            uint            `json:"id"              gorm:"primaryKey"`
	URL           string          `json:"url"             gorm:"type:varchar(700);uniqueIndex;not null"`
	PageType      string          `json:"page_type"       gorm:"type:varchar(16);index;not null"`
	ReferenceID   *string         `json:"reference_id"    gorm:"type:char(36)"`
	Verdict       string          `json:"verdict"         gorm:"type:varchar(32);index;not null"`
	CoverageState *string         `json:"coverage_state"`
	LastCrawledAt *time.Time      `json:"last_crawled_at"`
	Errors        []IndexingIssue `json:"errors"          gorm:"type:text;serializer:json"`
	Warnings      []IndexingIssue `json:"warnings"        gorm:"type:text;serializer:json"`
	LastCheckedAt time.Time       `json:"last_checked_at" gorm:"not null"`
	CreatedAt     time.Time       `json:"created"`
	UpdatedAt     time.Time       `json:"modified"`
}

func (IndexingStatus) TableName() string { return "indexing_statuses" }
