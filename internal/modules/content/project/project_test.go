package project

import (
	"context"
	"testing"

	"github.com/lumen-agency/site-core/internal/models"
	"github.com/lumen-agency/site-core/internal/pkg/pagination"
	"github.com/lumen-agency/site-core/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListActive_FiltersByStatus(t *testing.T) {
	svc := NewService(testutil.NewDB(t))

	_, err := svc.Create(&CreateProjectDTO{Title: "Live", Slug: "live", Status: models.ProjectStatusActive, SortOrder: 2})
	require.NoError(t, err)
	_, err = svc.Create(&CreateProjectDTO{Title: "First", Slug: "first", Status: models.ProjectStatusActive, SortOrder: 1})
	require.NoError(t, err)
	_, err = svc.Create(&CreateProjectDTO{Title: "Hidden", Slug: "hidden"})
	require.NoError(t, err)
	_, err = svc.Create(&CreateProjectDTO{Title: "Old", Slug: "old", Status: models.ProjectStatusArchived})
	require.NoError(t, err)

	refs, err := svc.ListActive(context.Background())
	require.NoError(t, err)
	require.Len(t, refs, 2)
	assert.Equal(t, "first", refs[0].Slug)
	assert.Equal(t, "live", refs[1].Slug)
	for _, ref := range refs {
		assert.Equal(t, models.ProjectStatusActive, ref.Status)
		assert.NotEmpty(t, ref.ID)
	}
}

func TestCreate_DuplicateSlug(t *testing.T) {
	svc := NewService(testutil.NewDB(t))

	_, err := svc.Create(&CreateProjectDTO{Title: "A", Slug: "same"})
	require.NoError(t, err)
	_, err = svc.Create(&CreateProjectDTO{Title: "B", Slug: "same"})
	assert.ErrorIs(t, err, ErrSlugTaken)
}

func TestUpdate_AndVisibility(t *testing.T) {
	svc := NewService(testutil.NewDB(t))

	p, err := svc.Create(&CreateProjectDTO{Title: "Draft", Slug: "draft-case"})
	require.NoError(t, err)

	got, err := svc.GetByIdentifier("draft-case", false)
	require.NoError(t, err)
	assert.Nil(t, got)

	active := models.ProjectStatusActive
	updated, err := svc.Update(p.ID, &UpdateProjectDTO{Status: &active, Images: []string{" a.png", "a.png", ""}})
	require.NoError(t, err)
	assert.Equal(t, active, updated.Status)
	assert.Equal(t, models.StringArray{"a.png"}, updated.Images)

	got, err = svc.GetByIdentifier("draft-case", false)
	require.NoError(t, err)
	require.NotNil(t, got)

	items, pag, err := svc.List(pagination.Query{Page: 1, Size: 10}, false)
	require.NoError(t, err)
	assert.Len(t, items, 1)
	assert.Equal(t, int64(1), pag.Total)

	require.NoError(t, svc.Delete(p.ID))
	refs, err := svc.ListActive(context.Background())
	require.NoError(t, err)
	assert.Empty(t, refs)
}
