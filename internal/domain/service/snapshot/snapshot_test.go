package snapshot

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"aucwatch/internal/domain"
	"aucwatch/internal/domain/entity"
	"aucwatch/internal/domain/service/identity"
	"aucwatch/internal/domain/value"
	"aucwatch/pkg/errcodes"
)

func intPtr(v int) *int { return &v }

func floatPtr(v float64) *float64 { return &v }

type fakeGateway struct {
	auctionPages []*entity.SearchResult
	auctionCalls int
	marketResult *entity.SearchResult
	marketCalls  int
}

func (f *fakeGateway) SearchAuctions(_ context.Context, q entity.AuctionSearchCriteria) (*entity.SearchResult, error) {
	f.auctionCalls++

	idx := q.PageNo - 1
	if idx < 0 || idx >= len(f.auctionPages) {
		return &entity.SearchResult{PageNo: q.PageNo}, nil
	}

	page := *f.auctionPages[idx]
	page.PageNo = q.PageNo

	return &page, nil
}

func (f *fakeGateway) SearchMarket(_ context.Context, _ entity.MarketSearchCriteria) (*entity.SearchResult, error) {
	f.marketCalls++
	return f.marketResult, nil
}

type fakeHistory struct {
	records []entity.PriceRecord
}

func (f *fakeHistory) Insert(_ context.Context, record entity.PriceRecord) error {
	f.records = append(f.records, record)
	return nil
}

type fakeCache struct {
	deleted []string
}

func (f *fakeCache) Del(_ context.Context, keys ...string) error {
	f.deleted = append(f.deleted, keys...)
	return nil
}

func newTestService(gateway *fakeGateway) (*Service, *fakeHistory, *fakeCache) {
	history := &fakeHistory{}
	invalidator := &fakeCache{}
	engine := identity.NewEngine(value.DefaultOptionTable())

	return NewService(gateway, history, invalidator, engine), history, invalidator
}

func accessorySample() entity.Favorite {
	return entity.Favorite{
		Source:  value.SourceAuction,
		Name:    "도약하는 용사의 목걸이",
		Grade:   "유물",
		Tier:    intPtr(3),
		Quality: intPtr(92),
		Options: []value.ItemOption{{Name: "치명", Value: 500}},
	}
}

func itemFromFavorite(f entity.Favorite) entity.Item {
	return entity.Item{
		Name:    f.Name,
		Grade:   f.Grade,
		Tier:    f.Tier,
		Quality: f.Quality,
		Options: f.Options,
	}
}

func TestBuildSnapshotMalformedKey(t *testing.T) {
	svc, _, _ := newTestService(&fakeGateway{})

	for _, key := range []string{"", "market", "bogus:123", "auction:"} {
		_, err := svc.BuildSnapshotForGroup(context.Background(), key, "x", entity.Favorite{})
		require.Error(t, err, "key %q", key)
	}
}

func TestBuildSnapshotMarket(t *testing.T) {
	gateway := &fakeGateway{
		marketResult: &entity.SearchResult{
			PageNo:     1,
			PageSize:   10,
			TotalCount: 2,
			Items: []entity.Item{
				{ID: 111, Name: "파괴석 결정", Market: &entity.MarketInfo{CurrentMinPrice: floatPtr(50)}},
				{
					ID:   222,
					Name: "파괴석 결정",
					Market: &entity.MarketInfo{
						CurrentMinPrice: floatPtr(12),
						YDayAvgPrice:    floatPtr(14),
					},
				},
			},
		},
	}
	svc, _, _ := newTestService(gateway)

	snap, err := svc.BuildSnapshotForGroup(context.Background(), "market:222", "파괴석 결정", entity.Favorite{})
	require.NoError(t, err)
	require.NotNil(t, snap)
	require.InDelta(t, 12, snap.CurrentPrice, 0)
	require.NotNil(t, snap.PreviousPrice)
	require.InDelta(t, 14, *snap.PreviousPrice, 0)
	require.NotEmpty(t, snap.Info)
}

func TestBuildSnapshotMarketFallsBackToRecentPrice(t *testing.T) {
	gateway := &fakeGateway{
		marketResult: &entity.SearchResult{
			PageNo:     1,
			PageSize:   10,
			TotalCount: 1,
			Items: []entity.Item{
				{ID: 7, Name: "수호석", Market: &entity.MarketInfo{RecentPrice: floatPtr(3)}},
			},
		},
	}
	svc, _, _ := newTestService(gateway)

	snap, err := svc.BuildSnapshotForGroup(context.Background(), "market:7", "수호석", entity.Favorite{})
	require.NoError(t, err)
	require.NotNil(t, snap)
	require.InDelta(t, 3, snap.CurrentPrice, 0)
	require.Nil(t, snap.PreviousPrice)
}

func TestBuildSnapshotMarketNotFound(t *testing.T) {
	gateway := &fakeGateway{
		marketResult: &entity.SearchResult{PageNo: 1, PageSize: 10},
	}
	svc, _, _ := newTestService(gateway)

	snap, err := svc.BuildSnapshotForGroup(context.Background(), "market:404", "없는 것", entity.Favorite{})
	require.NoError(t, err)
	require.Nil(t, snap, "a vanished listing is not an error")

	// Second call is absorbed by the miss cache.
	_, err = svc.BuildSnapshotForGroup(context.Background(), "market:404", "없는 것", entity.Favorite{})
	require.NoError(t, err)
	require.Equal(t, 1, gateway.marketCalls)
}

func TestBuildSnapshotMarketBadPayload(t *testing.T) {
	svc, _, _ := newTestService(&fakeGateway{})

	_, err := svc.BuildSnapshotForGroup(context.Background(), "market:abc", "x", entity.Favorite{})
	require.True(t, domain.IsCode(err, errcodes.InvalidItemID))

	_, err = svc.BuildSnapshotForGroup(context.Background(), "market:-5", "x", entity.Favorite{})
	require.True(t, domain.IsCode(err, errcodes.InvalidItemID))
}

func TestBuildSnapshotAuctionMatch(t *testing.T) {
	sample := accessorySample()
	engine := identity.NewEngine(value.DefaultOptionTable())
	matchKey := engine.DeriveKey(identity.SubjectFromFavorite(sample))

	decoy := itemFromFavorite(sample)
	decoy.Quality = intPtr(93)
	decoy.Auction = &entity.AuctionInfo{StartPrice: 100}

	match := itemFromFavorite(sample)
	match.Auction = &entity.AuctionInfo{
		StartPrice: 5000,
		BuyPrice:   floatPtr(9000),
	}

	gateway := &fakeGateway{
		auctionPages: []*entity.SearchResult{
			{PageSize: 2, TotalCount: 3, Items: []entity.Item{decoy, decoy}},
			{PageSize: 2, TotalCount: 3, Items: []entity.Item{match}},
		},
	}
	svc, _, _ := newTestService(gateway)

	snap, err := svc.BuildSnapshotForGroup(context.Background(), "auction:"+matchKey, sample.Name, sample)
	require.NoError(t, err)
	require.NotNil(t, snap)
	require.InDelta(t, 9000, snap.CurrentPrice, 0, "buyout wins over start price")
	require.NotNil(t, snap.PreviousPrice)
	require.InDelta(t, 5000, *snap.PreviousPrice, 0)
	require.Equal(t, 2, gateway.auctionCalls)
}

func TestBuildSnapshotAuctionNoBuyout(t *testing.T) {
	sample := accessorySample()
	engine := identity.NewEngine(value.DefaultOptionTable())
	matchKey := engine.DeriveKey(identity.SubjectFromFavorite(sample))

	match := itemFromFavorite(sample)
	match.Auction = &entity.AuctionInfo{StartPrice: 4200}

	gateway := &fakeGateway{
		auctionPages: []*entity.SearchResult{
			{PageSize: 10, TotalCount: 1, Items: []entity.Item{match}},
		},
	}
	svc, _, _ := newTestService(gateway)

	snap, err := svc.BuildSnapshotForGroup(context.Background(), "auction:"+matchKey, sample.Name, sample)
	require.NoError(t, err)
	require.NotNil(t, snap)
	require.InDelta(t, 4200, snap.CurrentPrice, 0)
	require.Nil(t, snap.PreviousPrice)
}

func TestBuildSnapshotAuctionPageCap(t *testing.T) {
	sample := accessorySample()
	engine := identity.NewEngine(value.DefaultOptionTable())
	matchKey := engine.DeriveKey(identity.SubjectFromFavorite(sample))

	decoy := itemFromFavorite(sample)
	decoy.Quality = intPtr(1)
	decoy.Auction = &entity.AuctionInfo{StartPrice: 1}

	fullPage := &entity.SearchResult{
		PageSize:   2,
		TotalCount: 100000,
		Items:      []entity.Item{decoy, decoy},
	}

	pages := make([]*entity.SearchResult, 50)
	for i := range pages {
		pages[i] = fullPage
	}

	gateway := &fakeGateway{auctionPages: pages}
	svc, _, _ := newTestService(gateway)
	svc.WithMaxSearchPages(3)

	snap, err := svc.BuildSnapshotForGroup(context.Background(), "auction:"+matchKey, sample.Name, sample)
	require.NoError(t, err)
	require.Nil(t, snap)
	require.Equal(t, 3, gateway.auctionCalls, "exhaustive search must stop at the page cap")
}

func TestBuildSnapshotAuctionInvalidStoredKey(t *testing.T) {
	gateway := &fakeGateway{}
	svc, _, _ := newTestService(gateway)

	snap, err := svc.BuildSnapshotForGroup(context.Background(), "auction:notakey", "x", accessorySample())
	require.NoError(t, err)
	require.Nil(t, snap, "malformed stored keys are rejected before the upstream is touched")
	require.Zero(t, gateway.auctionCalls)
}

func TestSaveSnapshot(t *testing.T) {
	svc, history, invalidator := newTestService(&fakeGateway{})

	snap := value.Snapshot{
		CurrentPrice: 123.5,
		Info:         []byte(`{"startPrice":123.5}`),
	}

	require.NoError(t, svc.SaveSnapshot(context.Background(), "auction:auc:0a1b2c3d", snap))

	require.Len(t, history.records, 1)
	record := history.records[0]
	require.Equal(t, "auction:auc:0a1b2c3d", record.ItemID, "auction history keeps the compound key")
	require.Equal(t, value.SourceAuction, record.Source)
	require.InDelta(t, 123.5, record.Price, 0)
	require.Equal(t, record.CapturedAt.Truncate(time.Minute), record.CapturedMinute)
	require.Equal(t, time.UTC, record.CapturedAt.Location())

	require.Equal(t, []string{"price:stats:auction:auc:0a1b2c3d"}, invalidator.deleted)
}

func TestSaveSnapshotMarketUsesBareID(t *testing.T) {
	svc, history, _ := newTestService(&fakeGateway{})

	require.NoError(t, svc.SaveSnapshot(context.Background(), "market:555", value.Snapshot{CurrentPrice: 10}))

	require.Len(t, history.records, 1)
	require.Equal(t, "555", history.records[0].ItemID)
	require.Equal(t, value.SourceMarket, history.records[0].Source)
}

func TestSaveSnapshotMalformedKey(t *testing.T) {
	svc, _, _ := newTestService(&fakeGateway{})

	err := svc.SaveSnapshot(context.Background(), "junk", value.Snapshot{})
	require.True(t, domain.IsCode(err, errcodes.InvalidMatchKey))
}
