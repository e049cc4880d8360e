package indexing

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/lumen-agency/site-core/internal/models"
	"github.com/lumen-agency/site-core/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func threeTargets() []Target {
	return []Target{
		{URL: testBaseURL + "/", PageType: models.PageTypeStatic},
		{URL: testBaseURL + "/blog/hello", PageType: models.PageTypeBlogPost},
		{URL: testBaseURL + "/portfolio/site", PageType: models.PageTypePortfolio},
	}
}

func TestInspectBatch_ForbiddenURLDoesNotStopRun(t *testing.T) {
	db := testutil.NewDB(t)
	provider := newFakeProvider(t)
	provider.failWith(testBaseURL+"/blog/hello", http.StatusForbidden)

	client := NewClient(provider.server.Client(), provider.endpoints(), nil)
	b := NewBatch(client, NewReconciler(db), clockwork.NewRealClock(), zap.NewNop(), nil)
	noPacing(b)

	result := b.InspectBatch(context.Background(), threeTargets(), testSiteURL, "tok")

	assert.Equal(t, ModeInspect, result.Mode)
	assert.Equal(t, 3, result.Total)
	assert.Equal(t, 2, result.Succeeded)
	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.Outcomes, 3)
	assert.Equal(t, KindForbidden, result.Outcomes[1].ErrorKind)
	assert.Contains(t, result.Outcomes[1].ErrorMessage, "access denied")
	assert.Equal(t, "PASS", result.Outcomes[0].Verdict)

	var rows []models.IndexingStatus
	require.NoError(t, db.Order("id").Find(&rows).Error)
	require.Len(t, rows, 3)

	var denied []models.IndexingStatus
	for _, r := range rows {
		if r.Verdict == models.VerdictError {
			denied = append(denied, r)
		}
	}
	require.Len(t, denied, 1)
	assert.Equal(t, testBaseURL+"/blog/hello", denied[0].URL)
	require.Len(t, denied[0].Errors, 1)
	assert.Equal(t, string(KindForbidden), denied[0].Errors[0].Kind)
	assert.Equal(t, http.StatusForbidden, denied[0].Errors[0].Status)
	assert.Contains(t, denied[0].Errors[0].Message, "access denied")

	assert.Equal(t, []string{"Bearer tok", "Bearer tok", "Bearer tok"}, provider.authHeaders())
}

func TestInspectBatch_RepeatedRunsKeepOneRowPerURL(t *testing.T) {
	db := testutil.NewDB(t)
	provider := newFakeProvider(t)
	client := NewClient(provider.server.Client(), provider.endpoints(), nil)
	b := NewBatch(client, NewReconciler(db), clockwork.NewRealClock(), nil, nil)
	noPacing(b)

	first := b.InspectBatch(context.Background(), threeTargets(), testSiteURL, "tok")
	assert.Equal(t, 3, first.Succeeded)

	provider.failWith(testBaseURL+"/", http.StatusNotFound)
	second := b.InspectBatch(context.Background(), threeTargets(), testSiteURL, "tok")
	assert.Equal(t, 2, second.Succeeded)
	assert.Equal(t, 1, second.Failed)

	var count int64
	require.NoError(t, db.Model(&models.IndexingStatus{}).Count(&count).Error)
	assert.EqualValues(t, 3, count)

	row, err := NewReconciler(db).Get(context.Background(), testBaseURL+"/")
	require.NoError(t, err)
	require.NotNil(t, row)
	assert.Equal(t, models.VerdictError, row.Verdict)
	assert.Equal(t, string(KindNotFound), row.Errors[0].Kind)
	assert.Nil(t, row.CoverageState)
}

func TestSubmitBatch_RecordsSubmittedVerdict(t *testing.T) {
	db := testutil.NewDB(t)
	provider := newFakeProvider(t)
	client := NewClient(provider.server.Client(), provider.endpoints(), nil)
	b := NewBatch(client, NewReconciler(db), clockwork.NewRealClock(), nil, nil)
	noPacing(b)

	result := b.SubmitBatch(context.Background(), threeTargets()[:2], "tok")
	assert.Equal(t, 2, result.Succeeded)
	require.NotNil(t, result.Outcomes[0].NotifiedAt)
	assert.Equal(t, 2026, result.Outcomes[0].NotifiedAt.Year())

	row, err := NewReconciler(db).Get(context.Background(), testBaseURL+"/blog/hello")
	require.NoError(t, err)
	require.NotNil(t, row)
	assert.Equal(t, models.VerdictSubmitted, row.Verdict)
	assert.Equal(t, models.PageTypeBlogPost, row.PageType)
	assert.Len(t, provider.publishedURLs(), 2)
}

type failingRecorder struct{}

func (failingRecorder) Reconcile(context.Context, Outcome) error {
	return errors.New("disk full")
}

func TestRun_PersistenceFailureCountsAsFailed(t *testing.T) {
	provider := newFakeProvider(t)
	client := NewClient(provider.server.Client(), provider.endpoints(), nil)
	b := NewBatch(client, failingRecorder{}, clockwork.NewRealClock(), nil, nil)
	noPacing(b)

	result := b.InspectBatch(context.Background(), threeTargets(), testSiteURL, "tok")
	assert.Equal(t, 0, result.Succeeded)
	assert.Equal(t, 3, result.Failed)
	for _, o := range result.Outcomes {
		assert.Equal(t, KindPersistence, o.ErrorKind)
		assert.Contains(t, o.ErrorMessage, "disk full")
	}
	assert.Len(t, provider.inspectedURLs(), 3)
}

func TestRun_PersistenceFailureKeepsProviderKind(t *testing.T) {
	provider := newFakeProvider(t)
	provider.failWith(testBaseURL+"/blog/hello", http.StatusForbidden)
	client := NewClient(provider.server.Client(), provider.endpoints(), nil)
	b := NewBatch(client, failingRecorder{}, clockwork.NewRealClock(), nil, nil)
	noPacing(b)

	result := b.InspectBatch(context.Background(), threeTargets(), testSiteURL, "tok")
	assert.Equal(t, 3, result.Failed)
	assert.Equal(t, KindPersistence, result.Outcomes[0].ErrorKind)

	denied := result.Outcomes[1]
	assert.Equal(t, KindForbidden, denied.ErrorKind)
	assert.Contains(t, denied.ErrorMessage, "access denied")
	assert.Contains(t, denied.ErrorMessage, "disk full")
}

func TestRun_IgnoresCallerCancellation(t *testing.T) {
	db := testutil.NewDB(t)
	provider := newFakeProvider(t)
	client := NewClient(provider.server.Client(), provider.endpoints(), nil)
	b := NewBatch(client, NewReconciler(db), clockwork.NewRealClock(), nil, nil)
	noPacing(b)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := b.InspectBatch(ctx, threeTargets(), testSiteURL, "tok")
	assert.Equal(t, 3, result.Succeeded)
}

func TestPacer_WaitsOncePerURL(t *testing.T) {
	db := testutil.NewDB(t)
	provider := newFakeProvider(t)
	clock := clockwork.NewFakeClock()
	client := NewClient(provider.server.Client(), provider.endpoints(), nil)
	b := NewBatch(client, NewReconciler(db), clock, nil, nil)

	targets := threeTargets()
	done := make(chan *RunResult, 1)
	go func() {
		done <- b.InspectBatch(context.Background(), targets, testSiteURL, "tok")
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for i := range targets {
		require.NoError(t, clock.BlockUntilContext(ctx, 1), "wait %d", i)
		select {
		case <-done:
			t.Fatalf("batch finished before wait %d elapsed", i)
		default:
		}
		clock.Advance(PaceInterval)
	}

	select {
	case result := <-done:
		assert.Equal(t, 3, result.Succeeded)
	case <-ctx.Done():
		t.Fatal("batch did not finish after one wait per URL")
	}
}
