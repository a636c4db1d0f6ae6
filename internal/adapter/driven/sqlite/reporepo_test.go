package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/attentionhub/internal/domain/model"
	"github.com/ericfisherdev/attentionhub/internal/domain/port/driven"
)

func TestRepoRepo_GetByIDs(t *testing.T) {
	db := setupTestDB(t)
	seedRepository(t, db, 12, "acme/web")
	seedRepository(t, db, 10, "acme/api")
	repo := NewRepoRepo(db)

	repos, err := repo.GetByIDs(context.Background(), []int64{12, 10, 99})
	require.NoError(t, err)
	assert.Equal(t, []model.Repository{
		{ID: 10, Name: "api", NameWithOwner: "acme/api"},
		{ID: 12, Name: "web", NameWithOwner: "acme/web"},
	}, repos)

	none, err := repo.GetByIDs(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestRepoRepo_GetByNameWithOwner(t *testing.T) {
	db := setupTestDB(t)
	seedRepository(t, db, 10, "acme/api")
	repo := NewRepoRepo(db)
	ctx := context.Background()

	got, err := repo.GetByNameWithOwner(ctx, "acme/api")
	require.NoError(t, err)
	assert.Equal(t, int64(10), got.ID)

	_, err = repo.GetByNameWithOwner(ctx, "acme/missing")
	assert.ErrorIs(t, err, driven.ErrRepoNotFound)
}

func TestRepoRepo_Maintainers(t *testing.T) {
	db := setupTestDB(t)
	seedRepository(t, db, 10, "acme/api")
	seedRepository(t, db, 11, "acme/web")
	repo := NewRepoRepo(db)
	ctx := context.Background()

	require.NoError(t, repo.SetRepositoryMaintainers(ctx, 10, []int64{3, 1, 3}))
	require.NoError(t, repo.SetRepositoryMaintainers(ctx, 11, []int64{2}))
	require.NoError(t, repo.SetRepositoryMaintainers(ctx, 11, []int64{5}))

	byRepo, err := repo.ListRepositoryMaintainers(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[int64][]int64{10: {1, 3}, 11: {5}}, byRepo)

	require.NoError(t, repo.SetOrganizationMaintainers(ctx, []int64{9, 7}))
	org, err := repo.ListOrganizationMaintainers(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{7, 9}, org)

	require.NoError(t, repo.SetOrganizationMaintainers(ctx, nil))
	org, err = repo.ListOrganizationMaintainers(ctx)
	require.NoError(t, err)
	assert.Empty(t, org)
}
