package snapshot

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/patrickmn/go-cache"

	"aucwatch/internal/domain"
	"aucwatch/internal/domain/entity"
	"aucwatch/internal/domain/service/identity"
	"aucwatch/internal/domain/value"
	"aucwatch/pkg/contextx"
	"aucwatch/pkg/errcodes"
	"aucwatch/pkg/logx"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary //nolint:gochecknoglobals // skip

var logger = contextx.LoggerFromContextOrDefault //nolint:gochecknoglobals

const (
	// defaultMaxSearchPages caps the exhaustive auction re-search: the
	// upstream cannot filter by identity key, so matching means re-running
	// the same filtered search and scanning pages.
	defaultMaxSearchPages = 30

	// missCacheTTL keeps recently vanished listings out of repeated
	// exhaustive searches between close runs.
	missCacheTTL = 5 * time.Minute

	statsCacheKeyPrefix = "price:stats:"
)

type SearchGateway interface {
	SearchAuctions(ctx context.Context, q entity.AuctionSearchCriteria) (*entity.SearchResult, error)
	SearchMarket(ctx context.Context, q entity.MarketSearchCriteria) (*entity.SearchResult, error)
}

type HistoryRepository interface {
	Insert(ctx context.Context, record entity.PriceRecord) error
}

// CacheInvalidator drops cached aggregates after a new snapshot lands.
// Failures here are logged and never fatal.
type CacheInvalidator interface {
	Del(ctx context.Context, keys ...string) error
}

// Service finds the current listing behind an identity key and appends
// minute-bucketed price-history records.
type Service struct {
	gateway        SearchGateway
	history        HistoryRepository
	cache          CacheInvalidator
	engine         *identity.Engine
	maxSearchPages int
	missCache      *cache.Cache
	now            func() time.Time
}

func NewService(
	gateway SearchGateway,
	history HistoryRepository,
	cacheInvalidator CacheInvalidator,
	engine *identity.Engine,
) *Service {
	return &Service{
		gateway:        gateway,
		history:        history,
		cache:          cacheInvalidator,
		engine:         engine,
		maxSearchPages: defaultMaxSearchPages,
		missCache:      cache.New(missCacheTTL, missCacheTTL),
		now:            time.Now,
	}
}

func (s *Service) WithMaxSearchPages(pages int) *Service {
	if pages > 0 {
		s.maxSearchPages = pages
	}
	return s
}

// BuildSnapshotForGroup locates the current listing for an identity group and
// returns its price snapshot. A nil snapshot with nil error means the listing
// no longer exists (sold, expired or delisted) — an expected steady-state
// outcome, not a failure.
func (s *Service) BuildSnapshotForGroup(
	ctx context.Context,
	identityKey string,
	displayName string,
	sample entity.Favorite,
) (*value.Snapshot, error) {
	source, payload, ok := splitIdentityKey(identityKey)
	if !ok {
		return nil, domain.NewError(errcodes.InvalidMatchKey, "malformed identity key: "+identityKey)
	}

	if _, missed := s.missCache.Get(identityKey); missed {
		return nil, nil
	}

	var (
		snap *value.Snapshot
		err  error
	)

	switch source {
	case value.SourceMarket:
		snap, err = s.buildMarketSnapshot(ctx, payload, displayName)
	case value.SourceAuction:
		snap, err = s.buildAuctionSnapshot(ctx, payload, displayName, sample)
	default:
		return nil, domain.NewError(errcodes.InvalidSource, "unknown identity source: "+string(source))
	}

	if err != nil {
		return nil, err
	}

	if snap == nil {
		s.missCache.Set(identityKey, true, cache.DefaultExpiration)
	}

	return snap, nil
}

func (s *Service) buildMarketSnapshot(ctx context.Context, payload, displayName string) (*value.Snapshot, error) {
	itemID, err := strconv.ParseInt(payload, 10, 64)
	if err != nil || itemID <= 0 {
		return nil, domain.NewError(errcodes.InvalidItemID, "market identity payload is not a positive id: "+payload)
	}

	result, err := s.gateway.SearchMarket(ctx, entity.MarketSearchCriteria{
		ItemName:     displayName,
		CategoryCode: 0,
		PageNo:       1,
	})
	if err != nil {
		return nil, err
	}

	for _, item := range result.Items {
		if item.ID != itemID || item.Market == nil {
			continue
		}

		current := 0.0
		if item.Market.CurrentMinPrice != nil {
			current = *item.Market.CurrentMinPrice
		} else if item.Market.RecentPrice != nil {
			current = *item.Market.RecentPrice
		}

		info, err := json.Marshal(item.Market)
		if err != nil {
			return nil, fmt.Errorf("json.Marshal: %w", err)
		}

		return &value.Snapshot{
			CurrentPrice:  current,
			PreviousPrice: item.Market.YDayAvgPrice,
			Info:          info,
		}, nil
	}

	return nil, nil
}

func (s *Service) buildAuctionSnapshot(
	ctx context.Context,
	targetKey string,
	displayName string,
	sample entity.Favorite,
) (*value.Snapshot, error) {
	if !identity.IsValidKey(targetKey) {
		return nil, nil
	}

	subject := identity.SubjectFromFavorite(sample)
	category := identity.Classify(subject)
	categoryCode := identity.CategoryCodeFor(category)
	loose := category == value.CategoryStone

	filters := s.engine.BuildOptionFilters(
		sample.Options,
		s.engine.AllowedGroupsForCategory(categoryCode),
		loose,
	)

	for page := 1; page <= s.maxSearchPages; page++ {
		result, err := s.gateway.SearchAuctions(ctx, entity.AuctionSearchCriteria{
			ItemName:     displayName,
			ItemGrade:    sample.Grade,
			ItemTier:     sample.Tier,
			CategoryCode: categoryCode,
			Filters:      filters,
			PageNo:       page,
		})
		if err != nil {
			return nil, err
		}

		for _, item := range result.Items {
			candidateKey := s.engine.DeriveKey(identity.SubjectFromItem(item))
			if candidateKey != targetKey || item.Auction == nil {
				continue
			}

			return auctionSnapshot(item)
		}

		if len(result.Items) < result.PageSize ||
			result.PageSize <= 0 ||
			page*result.PageSize >= result.TotalCount {
			break
		}
	}

	return nil, nil
}

func auctionSnapshot(item entity.Item) (*value.Snapshot, error) {
	info, err := json.Marshal(item)
	if err != nil {
		return nil, fmt.Errorf("json.Marshal: %w", err)
	}

	snap := &value.Snapshot{Info: info}

	if item.Auction.BuyPrice != nil && *item.Auction.BuyPrice > 0 {
		snap.CurrentPrice = *item.Auction.BuyPrice
		start := item.Auction.StartPrice
		snap.PreviousPrice = &start
	} else {
		snap.CurrentPrice = item.Auction.StartPrice
	}

	return snap, nil
}

// SaveSnapshot appends a minute-bucketed price-history record. A duplicate
// snapshot within the same wall-clock minute is absorbed by the uniqueness
// constraint (first writer wins). Dependent cached aggregates are invalidated
// best-effort.
func (s *Service) SaveSnapshot(ctx context.Context, identityKey string, snap value.Snapshot) error {
	source, payload, ok := splitIdentityKey(identityKey)
	if !ok {
		return domain.NewError(errcodes.InvalidMatchKey, "malformed identity key: "+identityKey)
	}

	itemID := storageItemID(source, identityKey, payload)
	now := s.now().UTC()

	record := entity.PriceRecord{
		ItemID:         itemID,
		Source:         source,
		Price:          snap.CurrentPrice,
		CapturedAt:     now,
		CapturedMinute: now.Truncate(time.Minute),
		Meta:           snap.Info,
	}

	if err := s.history.Insert(ctx, record); err != nil {
		return fmt.Errorf("history.Insert: %w", err)
	}

	if err := s.cache.Del(ctx, statsCacheKeyPrefix+itemID); err != nil {
		logger(ctx).Warn("stats cache invalidation failed", "item", itemID, logx.Error(err))
	}

	return nil
}

// storageItemID is the price-history identity column: the bare numeric id for
// market items, the full compound key for auctions.
func storageItemID(source value.Source, identityKey, payload string) string {
	if source == value.SourceMarket {
		return payload
	}
	return identityKey
}

func splitIdentityKey(key string) (value.Source, string, bool) {
	source, payload, found := strings.Cut(key, ":")
	if !found || payload == "" {
		return "", "", false
	}

	src := value.Source(source)
	if !src.Valid() {
		return "", "", false
	}

	return src, payload, true
}
