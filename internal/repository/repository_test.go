package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"viralpik/internal/cache"
	"viralpik/internal/models"
	"viralpik/internal/testutil"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func appCode(t *testing.T, err error) string {
	t.Helper()
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %v", err)
	return appErr.Code
}

func TestAssetRepository_UpdateStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("approves pending asset", func(t *testing.T) {
		db, mock := setupMockDB(t)
		repo := NewAssetRepository(db)

		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta(`UPDATE "assets" SET`)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		require.NoError(t, repo.UpdateStatus(ctx, 7, models.AssetStatusPending, models.AssetStatusApproved, ""))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("conflict when status already moved", func(t *testing.T) {
		db, mock := setupMockDB(t)
		repo := NewAssetRepository(db)

		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta(`UPDATE "assets" SET`)).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectCommit()

		err := repo.UpdateStatus(ctx, 7, models.AssetStatusPending, models.AssetStatusRejected, "low quality")
		assert.Equal(t, models.CodeConflict, appCode(t, err))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("illegal transition never reaches the database", func(t *testing.T) {
		db, mock := setupMockDB(t)
		repo := NewAssetRepository(db)

		err := repo.UpdateStatus(ctx, 7, models.AssetStatusApproved, models.AssetStatusPending, "")
		assert.Equal(t, models.CodeConflict, appCode(t, err))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestAssetRepository_Delete_NotFound(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewAssetRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "assets"`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	err := repo.Delete(context.Background(), 99)
	assert.Equal(t, models.CodeNotFound, appCode(t, err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssetRepository_AnnotateForViewer_Anonymous(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewAssetRepository(db)

	assets := []models.Asset{{ID: 1}, {ID: 2}}
	require.NoError(t, repo.AnnotateForViewer(context.Background(), 0, assets))
	assert.False(t, assets[0].Liked)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProfileRepository_GetByID_NotFound(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewProfileRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "profiles" WHERE "profiles"."id" = $1`)).
		WithArgs(1, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.GetByID(context.Background(), 1)
	assert.Equal(t, models.CodeNotFound, appCode(t, err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProfileRepository_GetByUsername(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewProfileRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "profiles" WHERE username = $1`)).
		WithArgs("neonfox", 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "tier"}).AddRow(3, "neonfox", "pro"))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "profiles" WHERE username = $1`)).
		WithArgs("ghost", 1).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	p, err := repo.GetByUsername(context.Background(), "neonfox")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, uint(3), p.ID)
	assert.Equal(t, models.TierPro, p.EffectiveTier())

	p, err = repo.GetByUsername(context.Background(), "ghost")
	require.NoError(t, err)
	assert.Nil(t, p)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProfileRepository_Create_Duplicate(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewProfileRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "profiles"`)).
		WillReturnError(&pgconn.PgError{Code: "23505"})
	mock.ExpectRollback()

	err := repo.Create(context.Background(), &models.Profile{Username: "taken", Email: "a@b.co"})
	assert.Equal(t, models.CodeConflict, appCode(t, err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProfileRepository_SetTier_Unknown(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewProfileRepository(db)

	err := repo.SetTier(context.Background(), 1, models.Tier("platinum"))
	assert.Equal(t, models.CodeValidation, appCode(t, err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSocialRepository_Like(t *testing.T) {
	ctx := context.Background()

	t.Run("new like bumps counter", func(t *testing.T) {
		db, mock := setupMockDB(t)
		repo := NewSocialRepository(db)

		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO likes`)).
			WithArgs(1, 10).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(regexp.QuoteMeta(`UPDATE assets SET like_count = like_count + 1`)).
			WithArgs(10).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		created, err := repo.Like(ctx, 1, 10)
		require.NoError(t, err)
		assert.True(t, created)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("repeat like is a no-op", func(t *testing.T) {
		db, mock := setupMockDB(t)
		repo := NewSocialRepository(db)

		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO likes`)).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectCommit()

		created, err := repo.Like(ctx, 1, 10)
		require.NoError(t, err)
		assert.False(t, created)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestSocialRepository_Follow_Self(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewSocialRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO follows`)).
		WillReturnError(&pgconn.PgError{Code: "23514"})
	mock.ExpectRollback()

	_, err := repo.Follow(context.Background(), 4, 4)
	assert.Equal(t, models.CodeValidation, appCode(t, err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPreferencesRepository_GetDefaults(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPreferencesRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "user_preferences" WHERE user_id = $1`)).
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}))

	prefs, err := repo.Get(context.Background(), 12)
	require.NoError(t, err)
	assert.Equal(t, models.DefaultPreferences(12), *prefs)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSupportRepository_SetStatus_NotFound(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewSupportRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "support_tickets" SET`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	err := repo.SetStatus(context.Background(), 5, models.TicketClosed)
	assert.Equal(t, models.CodeNotFound, appCode(t, err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDownloadRepository_CountSince(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewDownloadRepository(db)
	since := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "downloads" WHERE user_id = $1 AND created_at >= $2`)).
		WithArgs(3, since).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))

	n, err := repo.CountSince(context.Background(), 3, since)
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDownloadRepository_Record_RefreshesCachedAsset(t *testing.T) {
	db := testutil.SQLite(t)
	_, rdb := testutil.Redis(t)
	cache.SetClient(rdb)
	t.Cleanup(func() { cache.SetClient(nil) })
	ctx := context.Background()

	creator := &models.Profile{Username: "maker", Email: "maker@example.com", Password: "x", Tier: models.TierFree}
	require.NoError(t, db.Create(creator).Error)
	asset := &models.Asset{
		Title:     "Overlay",
		Platform:  models.PlatformTwitch,
		AssetType: "overlay",
		FileURL:   "https://cdn.viralpik.test/assets/1/overlay.psd",
		Status:    models.AssetStatusApproved,
		CreatorID: creator.ID,
	}
	require.NoError(t, db.Create(asset).Error)

	assets := NewAssetRepository(db)
	cached, err := assets.GetByID(ctx, asset.ID)
	require.NoError(t, err)
	require.Zero(t, cached.DownloadCount)
	require.True(t, rdb.Exists(ctx, cache.AssetKey(asset.ID)).Val() == 1, "detail is cached")

	require.NoError(t, NewDownloadRepository(db).Record(ctx, &models.Download{UserID: creator.ID, AssetID: asset.ID, Tier: models.TierFree}))
	require.NoError(t, assets.IncrementViewCount(ctx, asset.ID))

	got, err := assets.GetByID(ctx, asset.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.DownloadCount)
	assert.Equal(t, int64(1), got.ViewCount)
	assert.Equal(t, asset.FileURL, got.FileURL)
}

func TestCommentRepository_DeleteOwned(t *testing.T) {
	ctx := context.Background()

	t.Run("author", func(t *testing.T) {
		db, mock := setupMockDB(t)
		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta(`UPDATE "comments" SET "deleted_at"`)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		require.NoError(t, NewCommentRepository(db).DeleteOwned(ctx, 9, 7))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("someone else's comment looks missing", func(t *testing.T) {
		db, mock := setupMockDB(t)
		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta(`UPDATE "comments" SET "deleted_at"`)).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectCommit()

		err := NewCommentRepository(db).DeleteOwned(ctx, 9, 8)
		assert.Equal(t, models.CodeNotFound, appCode(t, err))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestCommentRepository_ListByAsset_EmptyThreadSkipsFetch(t *testing.T) {
	db, mock := setupMockDB(t)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "comments"`)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	comments, total, err := NewCommentRepository(db).ListByAsset(context.Background(), 3, 20, 0)
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.NotNil(t, comments)
	assert.Empty(t, comments)
	assert.NoError(t, mock.ExpectationsWereMet())
}
