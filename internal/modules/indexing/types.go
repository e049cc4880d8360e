package indexing

import (
	"time"

	"github.com/lumen-agency/site-core/internal/models"
)

// Mode names the kind of batch run.
type Mode string

const (
	ModeInspect Mode = "inspect"
	ModeSubmit  Mode = "submit"
)

// Target is one indexable URL.
type Target struct {
	URL         string  `json:"url"`
	PageType    string  `json:"page_type"`
	ReferenceID *string `json:"reference_id,omitempty"`
}

// Outcome is the result of one provider call, as recorded by the reconciler.
type Outcome struct {
	Target
	Success       bool                   `json:"success"`
	Verdict       string                 `json:"verdict"`
	CoverageState *string                `json:"coverage_state,omitempty"`
	LastCrawledAt *time.Time             `json:"last_crawled_at,omitempty"`
	NotifiedAt    *time.Time             `json:"notified_at,omitempty"`
	Errors        []models.IndexingIssue `json:"errors,omitempty"`
	Warnings      []models.IndexingIssue `json:"warnings,omitempty"`
	ErrorKind     ErrorKind              `json:"error_kind,omitempty"`
	ErrorMessage  string                 `json:"error,omitempty"`
	CheckedAt     time.Time              `json:"checked_at"`
}

// RunResult aggregates one batch invocation. It is never persisted.
type RunResult struct {
	Mode       Mode      `json:"mode"`
	Total      int       `json:"total"`
	Succeeded  int       `json:"succeeded"`
	Failed     int       `json:"failed"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Outcomes   []Outcome `json:"outcomes"`
}

func failedOutcome(t Target, perr *ProviderError, at time.Time) Outcome {
	return Outcome{
		Target:  t,
		Verdict: models.VerdictError,
		Errors: []models.IndexingIssue{{
			Kind:    string(perr.Kind),
			Status:  perr.Status,
			Message: perr.Error(),
		}},
		ErrorKind:    perr.Kind,
		ErrorMessage: perr.Error(),
		CheckedAt:    at,
	}
}
