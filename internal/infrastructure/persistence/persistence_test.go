package persistence

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"aucwatch/internal/domain"
	"aucwatch/internal/domain/entity"
	"aucwatch/internal/domain/value"
	"aucwatch/pkg/dbtest"
	"aucwatch/pkg/errcodes"
)

// Integration tests against a real postgres; skipped unless TEST_PG_DSN
// points at a scratch database.
func testDB(t *testing.T) *sqlx.DB {
	t.Helper()

	dsn := os.Getenv("TEST_PG_DSN")
	if dsn == "" {
		t.Skip("TEST_PG_DSN not set")
	}

	db, err := sqlx.Connect("pgx", dsn)
	require.NoError(t, err)

	t.Cleanup(func() {
		_, _ = db.Exec(`TRUNCATE favorites, price_history, auto_watch`)
		_ = db.Close()
	})

	require.NoError(t, dbtest.MigrateFromFile(db, "../../../migrations/0001_init.sql"))

	return db
}

func floatPtr(v float64) *float64 { return &v }

func int64Ptr(v int64) *int64 { return &v }

func TestFavoriteRepositoryLifecycle(t *testing.T) {
	db := testDB(t)
	repo := NewFavoriteRepository(db)
	ctx := context.Background()

	favorite := &entity.Favorite{
		UserID:      42,
		Source:      value.SourceMarket,
		Name:        "파괴석 결정",
		Grade:       "일반",
		ItemID:      int64Ptr(66102005),
		TargetPrice: floatPtr(10),
		Options:     []value.ItemOption{{Name: "치명", Value: 500}},
		Active:      true,
	}

	require.NoError(t, repo.Create(ctx, favorite))
	require.NotZero(t, favorite.ID)

	loaded, err := repo.GetByID(ctx, favorite.ID)
	require.NoError(t, err)
	require.Equal(t, favorite.Name, loaded.Name)
	require.Equal(t, favorite.Options, loaded.Options)
	require.NotNil(t, loaded.ItemID)
	require.Equal(t, int64(66102005), *loaded.ItemID)

	now := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, repo.UpdateSnapshot(ctx, favorite.ID, 12, floatPtr(14), now))

	loaded, err = repo.GetByID(ctx, favorite.ID)
	require.NoError(t, err)
	require.InDelta(t, 12, loaded.CurrentPrice, 0)
	require.NotNil(t, loaded.PreviousPrice)

	require.NoError(t, repo.MarkAlerted(ctx, favorite.ID, now))
	loaded, err = repo.GetByID(ctx, favorite.ID)
	require.NoError(t, err)
	require.True(t, loaded.IsAlerted)

	require.NoError(t, repo.ResetAlert(ctx, favorite.ID))
	loaded, err = repo.GetByID(ctx, favorite.ID)
	require.NoError(t, err)
	require.False(t, loaded.IsAlerted)

	active, err := repo.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)

	require.NoError(t, repo.SetActive(ctx, favorite.ID, false))
	active, err = repo.ListActive(ctx)
	require.NoError(t, err)
	require.Empty(t, active)

	require.NoError(t, repo.Delete(ctx, favorite.ID))
	_, err = repo.GetByID(ctx, favorite.ID)
	require.True(t, domain.IsCode(err, errcodes.FavoriteNotFound))
}

func TestFavoriteRepositoryNotFound(t *testing.T) {
	db := testDB(t)
	repo := NewFavoriteRepository(db)
	ctx := context.Background()

	_, err := repo.GetByID(ctx, 99999)
	require.True(t, domain.IsCode(err, errcodes.FavoriteNotFound))
	require.True(t, domain.IsCode(repo.Delete(ctx, 99999), errcodes.FavoriteNotFound))
	require.True(t, domain.IsCode(repo.MarkAlerted(ctx, 99999, time.Now()), errcodes.FavoriteNotFound))
}

func TestFavoriteRepositoryActiveTouchedSince(t *testing.T) {
	db := testDB(t)
	repo := NewFavoriteRepository(db)
	ctx := context.Background()

	favorite := &entity.Favorite{
		UserID: 1,
		Source: value.SourceMarket,
		Name:   "수호석",
		ItemID: int64Ptr(777),
		Active: true,
	}
	require.NoError(t, repo.Create(ctx, favorite))

	cutoff := time.Now().Add(-time.Hour)

	touched, err := repo.ActiveTouchedSince(ctx, "market:777", cutoff)
	require.NoError(t, err)
	require.False(t, touched, "never-checked favorites do not count as activity")

	require.NoError(t, repo.UpdateSnapshot(ctx, favorite.ID, 5, nil, time.Now()))

	touched, err = repo.ActiveTouchedSince(ctx, "market:777", cutoff)
	require.NoError(t, err)
	require.True(t, touched)

	touched, err = repo.ActiveTouchedSince(ctx, "market:778", cutoff)
	require.NoError(t, err)
	require.False(t, touched)
}

func TestPriceHistoryRepositoryMinuteBucket(t *testing.T) {
	db := testDB(t)
	repo := NewPriceHistoryRepository(db)
	ctx := context.Background()

	now := time.Now().UTC()
	record := entity.PriceRecord{
		ItemID:         "auction:auc:0a1b2c3d",
		Source:         value.SourceAuction,
		Price:          100,
		CapturedAt:     now,
		CapturedMinute: now.Truncate(time.Minute),
		Meta:           []byte(`{"startPrice":100}`),
	}

	require.NoError(t, repo.Insert(ctx, record))

	// Same minute bucket: silently absorbed.
	record.Price = 200
	record.CapturedAt = now.Add(10 * time.Second)
	require.NoError(t, repo.Insert(ctx, record))

	records, err := repo.ListByItem(ctx, record.ItemID, now.Add(-time.Minute), 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.InDelta(t, 100, records[0].Price, 0, "first writer wins within a minute")

	// Next bucket lands.
	record.CapturedAt = now.Add(time.Minute)
	record.CapturedMinute = record.CapturedAt.Truncate(time.Minute)
	require.NoError(t, repo.Insert(ctx, record))

	records, err = repo.ListByItem(ctx, record.ItemID, now.Add(-time.Minute), 10)
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.True(t, records[0].CapturedAt.After(records[1].CapturedAt), "newest first")
}

func TestPriceHistoryRepositoryPrune(t *testing.T) {
	db := testDB(t)
	repo := NewPriceHistoryRepository(db)
	ctx := context.Background()

	old := time.Now().UTC().Add(-48 * time.Hour)
	for i := range 3 {
		at := old.Add(time.Duration(i) * time.Minute)
		require.NoError(t, repo.Insert(ctx, entity.PriceRecord{
			ItemID:         fmt.Sprintf("market:%d", i),
			Source:         value.SourceMarket,
			Price:          1,
			CapturedAt:     at,
			CapturedMinute: at.Truncate(time.Minute),
		}))
	}

	pruned, err := repo.DeleteOlderThan(ctx, time.Now().Add(-24*time.Hour))
	require.NoError(t, err)
	require.EqualValues(t, 3, pruned)
}

func TestAutoWatchRepository(t *testing.T) {
	db := testDB(t)
	repo := NewAutoWatchRepository(db)
	ctx := context.Background()

	watch := &entity.AutoWatch{
		UserID:      42,
		ItemKey:     "auction:auc:0a1b2c3d",
		Source:      value.SourceAuction,
		DisplayName: "도약하는 용사의 목걸이",
		Sample:      []byte(`{"name":"도약하는 용사의 목걸이"}`),
	}

	require.NoError(t, repo.Upsert(ctx, watch))
	require.NotZero(t, watch.ID)
	firstID := watch.ID

	// Second view of the same item refreshes, not duplicates.
	require.NoError(t, repo.Upsert(ctx, watch))
	require.Equal(t, firstID, watch.ID)

	enabled, err := repo.ListEnabled(ctx)
	require.NoError(t, err)
	require.Len(t, enabled, 1)
	require.NotNil(t, enabled[0].LastSeenAt)

	require.NoError(t, repo.MarkSnapshot(ctx, firstID, time.Now()))

	loaded, err := repo.GetByID(ctx, firstID)
	require.NoError(t, err)
	require.NotNil(t, loaded.LastSnapshotAt)

	require.NoError(t, repo.Disable(ctx, firstID))
	enabled, err = repo.ListEnabled(ctx)
	require.NoError(t, err)
	require.Empty(t, enabled)

	require.True(t, domain.IsCode(repo.Disable(ctx, 99999), errcodes.NotFound))
}
