package repository

import (
	"context"
	"testing"
	"time"

	"github.com/lyzr/tagservice/cmd/tagservice/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTag(id string, status models.TagStatus, created time.Time) *models.Tag {
	return &models.Tag{
		TagID:        id,
		Status:       status,
		ActiveTokens: []models.TokenRecord{},
		CreatedAt:    created,
		UpdatedAt:    created,
	}
}

func TestMemoryTagRepository_SaveAndGet(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryTagRepository()

	_, err := repo.GetByID(ctx, "missing")
	require.ErrorIs(t, err, models.ErrNotFound)

	tag := newTag("t1", models.TagStatusActive, time.Now())
	require.NoError(t, repo.Save(ctx, tag))

	got, err := repo.GetByID(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, models.TagStatusActive, got.Status)

	// Returned values are copies
	got.Status = models.TagStatusRevoked
	again, err := repo.GetByID(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, models.TagStatusActive, again.Status)

	// So are saved values
	tag.Status = models.TagStatusInactive
	again, err = repo.GetByID(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, models.TagStatusActive, again.Status)
}

func TestMemoryTagRepository_Find(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryTagRepository()
	base := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)

	owner := "pet-1"
	linked := newTag("b", models.TagStatusActive, base.Add(2*time.Minute))
	linked.OwnerID = &owner

	require.NoError(t, repo.Save(ctx, newTag("c", models.TagStatusRevoked, base.Add(3*time.Minute))))
	require.NoError(t, repo.Save(ctx, linked))
	require.NoError(t, repo.Save(ctx, newTag("a", models.TagStatusActive, base.Add(time.Minute))))
	require.NoError(t, repo.Save(ctx, newTag("d", models.TagStatusInactive, base)))

	all, err := repo.Find(ctx, TagFilter{})
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, []string{"d", "a", "b", "c"}, ids(all))

	active, err := repo.Find(ctx, ByStatus(models.TagStatusActive))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids(active))

	byOwner, err := repo.FindOne(ctx, ByOwner("pet-1"))
	require.NoError(t, err)
	assert.Equal(t, "b", byOwner.TagID)

	_, err = repo.FindOne(ctx, ByOwner("pet-2"))
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func ids(tags []*models.Tag) []string {
	out := make([]string, len(tags))
	for i, tag := range tags {
		out[i] = tag.TagID
	}
	return out
}
