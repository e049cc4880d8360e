package indexing

import (
	"context"
	"errors"

	"github.com/lumen-agency/site-core/internal/models"
	"github.com/lumen-agency/site-core/internal/pkg/pagination"
	"github.com/lumen-agency/site-core/internal/pkg/response"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Recorder persists a single outcome.
type Recorder interface {
	Reconcile(ctx context.Context, o Outcome) error
}

// mutableColumns are replaced on every sighting of a URL. page_type and
// reference_id keep their first-insert values.
var mutableColumns = []string{
	"verdict",
	"coverage_state",
	"last_crawled_at",
	"errors",
	"warnings",
	"last_checked_at",
	"updated_at",
}

// Reconciler owns the indexing_statuses table.
type Reconciler struct {
	db *gorm.DB
}

func NewReconciler(db *gorm.DB) *Reconciler {
	return &Reconciler{db: db}
}

// Reconcile upserts the status row for o.URL in one statement.
func (r *Reconciler) Reconcile(ctx context.Context, o Outcome) error {
	row := models.IndexingStatus{
		URL:           o.URL,
		PageType:      o.PageType,
		ReferenceID:   o.ReferenceID,
		Verdict:       o.Verdict,
		CoverageState: o.CoverageState,
		LastCrawledAt: o.LastCrawledAt,
		Errors:        o.Errors,
		Warnings:      o.Warnings,
		LastCheckedAt: o.CheckedAt,
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "url"}},
		DoUpdates: clause.AssignmentColumns(mutableColumns),
	}).Create(&row).Error
}

// StatusFilter narrows the status listing.
type StatusFilter struct {
	Verdict  string `form:"verdict"`
	PageType string `form:"page_type"`
}

var statusSortColumns = []string{"last_checked_at", "url", "verdict", "page_type"}

// List returns status rows, most recently checked first unless q asks for
// another sortable column.
func (r *Reconciler) List(ctx context.Context, q pagination.Query, f StatusFilter) ([]models.IndexingStatus, response.Pagination, error) {
	tx := r.db.WithContext(ctx).Model(&models.IndexingStatus{}).Order(q.Order("last_checked_at DESC, id ASC", statusSortColumns...))
	if f.Verdict != "" {
		tx = tx.Where("verdict = ?", f.Verdict)
	}
	if f.PageType != "" {
		tx = tx.Where("page_type = ?", f.PageType)
	}
	var rows []models.IndexingStatus
	pag, err := pagination.Paginate(tx, q, &rows)
	return rows, pag, err
}

// Get returns the row for pageURL, or nil when it has never been seen.
func (r *Reconciler) Get(ctx context.Context, pageURL string) (*models.IndexingStatus, error) {
	var row models.IndexingStatus
	if err := r.db.WithContext(ctx).Where("url = ?", pageURL).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

// Summary counts rows per verdict.
type Summary struct {
	Total     int64            `json:"total"`
	ByVerdict map[string]int64 `json:"by_verdict"`
}

func (r *Reconciler) Summary(ctx context.Context) (*Summary, error) {
	var rows []struct {
		Verdict string
		Count   int64
	}
	err := r.db.WithContext(ctx).Model(&models.IndexingStatus{}).
		Select("verdict, COUNT(*) AS count").
		Group("verdict").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := &Summary{ByVerdict: make(map[string]int64, len(rows))}
	for _, row := range rows {
		out.ByVerdict[row.Verdict] = row.Count
		out.Total += row.Count
	}
	return out, nil
}
