package indexing

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lumen-agency/site-core/internal/models"
	"github.com/lumen-agency/site-core/internal/pkg/pagination"
	"github.com/lumen-agency/site-core/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestReconcile_SecondOutcomeWins(t *testing.T) {
	db := testutil.NewDB(t)
	r := NewReconciler(db)
	ctx := context.Background()

	ref := "post-1"
	coverage := "Submitted and indexed"
	first := Outcome{
		Target:        Target{URL: testBaseURL + "/blog/a", PageType: models.PageTypeBlogPost, ReferenceID: &ref},
		Success:       true,
		Verdict:       models.VerdictPass,
		CoverageState: &coverage,
		Warnings:      []models.IndexingIssue{{Kind: "mobile_usability", Message: "small font"}},
		CheckedAt:     time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, r.Reconcile(ctx, first))

	second := Outcome{
		Target:    Target{URL: testBaseURL + "/blog/a", PageType: models.PageTypeStatic},
		Success:   true,
		Verdict:   models.VerdictSubmitted,
		CheckedAt: time.Date(2026, 10, 2, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, r.Reconcile(ctx, second))

	var rows []models.IndexingStatus
	require.NoError(t, db.Find(&rows).Error)
	require.Len(t, rows, 1)

	row := rows[0]
	assert.Equal(t, models.VerdictSubmitted, row.Verdict)
	assert.Nil(t, row.CoverageState)
	assert.Empty(t, row.Warnings)
	assert.True(t, row.LastCheckedAt.Equal(second.CheckedAt))
	// first-insert identity is kept
	assert.Equal(t, models.PageTypeBlogPost, row.PageType)
	require.NotNil(t, row.ReferenceID)
	assert.Equal(t, ref, *row.ReferenceID)
}

func TestReconciler_ListSummaryGet(t *testing.T) {
	db := testutil.NewDB(t)
	r := NewReconciler(db)
	ctx := context.Background()
	now := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)

	for i, o := range []Outcome{
		{Target: Target{URL: testBaseURL + "/", PageType: models.PageTypeStatic}, Verdict: models.VerdictPass},
		{Target: Target{URL: testBaseURL + "/about", PageType: models.PageTypeStatic}, Verdict: models.VerdictPass},
		{Target: Target{URL: testBaseURL + "/blog/x", PageType: models.PageTypeBlogPost}, Verdict: models.VerdictError},
	} {
		o.CheckedAt = now.Add(time.Duration(i) * time.Minute)
		require.NoError(t, r.Reconcile(ctx, o))
	}

	summary, err := r.Summary(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 3, summary.Total)
	assert.EqualValues(t, 2, summary.ByVerdict[models.VerdictPass])
	assert.EqualValues(t, 1, summary.ByVerdict[models.VerdictError])

	rows, pag, err := r.List(ctx, pagination.Query{Page: 1, Size: 10}, StatusFilter{PageType: models.PageTypeStatic})
	require.NoError(t, err)
	assert.EqualValues(t, 2, pag.Total)
	require.Len(t, rows, 2)
	assert.Equal(t, testBaseURL+"/about", rows[0].URL)

	rows, _, err = r.List(ctx, pagination.Query{Page: 1, Size: 10}, StatusFilter{Verdict: models.VerdictError})
	require.NoError(t, err)
	require.Len(t, rows, 1)

	rows, _, err = r.List(ctx, pagination.Query{Page: 1, Size: 10, SortBy: "url", Asc: true}, StatusFilter{})
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, testBaseURL+"/", rows[0].URL)
	assert.Equal(t, testBaseURL+"/blog/x", rows[2].URL)

	missing, err := r.Get(ctx, testBaseURL+"/nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestReconcile_MySQLUsesOnDuplicateKeyUpdate(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	db, err := gorm.Open(mysql.New(mysql.Config{Conn: sqlDB, SkipInitializeWithVersion: true}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	mock.ExpectExec("INSERT INTO `indexing_statuses` .* ON DUPLICATE KEY UPDATE `verdict`=.*`coverage_state`=.*`last_checked_at`=").
		WillReturnResult(sqlmock.NewResult(1, 1))

	err = NewReconciler(db).Reconcile(context.Background(), Outcome{
		Target:    Target{URL: testBaseURL + "/", PageType: models.PageTypeStatic},
		Verdict:   models.VerdictPass,
		CheckedAt: time.Now(),
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
