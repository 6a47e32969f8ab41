package service

import (
	"context"
	"strings"
	"testing"

	"viralpik/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectionService_Create(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc := NewCollectionService(noopCollectionRepo(), noopAssetRepo())

	_, err := svc.Create(ctx, CollectionInput{UserID: 1, Name: "  "})
	assertValidationError(t, err)

	_, err = svc.Create(ctx, CollectionInput{UserID: 1, Name: strings.Repeat("n", 81)})
	assertValidationError(t, err)

	_, err = svc.Create(ctx, CollectionInput{UserID: 1, Name: "ok", Description: strings.Repeat("d", 1001)})
	assertValidationError(t, err)

	c, err := svc.Create(ctx, CollectionInput{UserID: 1, Name: "  Thumbnails  ", IsPublic: true})
	require.NoError(t, err)
	assert.Equal(t, "Thumbnails", c.Name)
	assert.Equal(t, uint(1), c.OwnerID)
	assert.True(t, c.IsPublic)
}

func TestCollectionService_PrivateVisibility(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	repo := noopCollectionRepo()
	repo.getByIDFn = func(_ context.Context, id uint) (*models.Collection, error) {
		return &models.Collection{ID: id, OwnerID: 1, IsPublic: false}, nil
	}
	svc := NewCollectionService(repo, noopAssetRepo())

	_, err := svc.Get(ctx, 4, 2)
	assertNotFoundError(t, err)
	_, err = svc.Get(ctx, 4, 0)
	assertNotFoundError(t, err)
	_, err = svc.ListAssets(ctx, 4, 2, 10, 0)
	assertNotFoundError(t, err)

	c, err := svc.Get(ctx, 4, 1)
	require.NoError(t, err)
	assert.Equal(t, uint(4), c.ID)
}

func TestCollectionService_ListForOwner(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	var includePrivate bool
	repo := noopCollectionRepo()
	repo.listByOwnerFn = func(_ context.Context, _ uint, private bool) ([]models.Collection, error) {
		includePrivate = private
		return nil, nil
	}
	svc := NewCollectionService(repo, noopAssetRepo())

	_, err := svc.ListForOwner(ctx, 1, 1)
	require.NoError(t, err)
	assert.True(t, includePrivate)

	_, err = svc.ListForOwner(ctx, 1, 2)
	require.NoError(t, err)
	assert.False(t, includePrivate)
}

func TestCollectionService_OwnerOnlyMutations(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc := NewCollectionService(noopCollectionRepo(), noopAssetRepo())

	_, err := svc.Update(ctx, CollectionInput{UserID: 2, CollectionID: 4, Name: "x"})
	assertForbiddenError(t, err)
	assertForbiddenError(t, svc.Delete(ctx, 4, 2))
	assertForbiddenError(t, svc.AddAsset(ctx, 4, 2, 3))
	assertForbiddenError(t, svc.RemoveAsset(ctx, 4, 2, 3))

	updated, err := svc.Update(ctx, CollectionInput{UserID: 1, CollectionID: 4, Name: "Renamed", IsPublic: true})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Name)
	assert.True(t, updated.IsPublic)
	require.NoError(t, svc.Delete(ctx, 4, 1))
}

func TestCollectionService_AddAsset_RequiresApproved(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	assets := noopAssetRepo()
	assets.getByIDFn = func(_ context.Context, id uint) (*models.Asset, error) {
		return &models.Asset{ID: id, Status: models.AssetStatusRejected}, nil
	}
	svc := NewCollectionService(noopCollectionRepo(), assets)
	assertNotFoundError(t, svc.AddAsset(ctx, 4, 1, 3))

	var added bool
	repo := noopCollectionRepo()
	repo.addAssetFn = func(_ context.Context, _, _ uint) error {
		added = true
		return nil
	}
	svc = NewCollectionService(repo, noopAssetRepo())
	require.NoError(t, svc.AddAsset(ctx, 4, 1, 3))
	assert.True(t, added)
}
