package server

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"git.appkode.ru/pub/go/failure"
	jsoniter "github.com/json-iterator/go"

	"aucwatch/internal/domain/entity"
	"aucwatch/internal/domain/service/identity"
	"aucwatch/internal/domain/value"
	"aucwatch/internal/infrastructure/cache"
	"aucwatch/pkg/errcodes"
	"aucwatch/pkg/httpx/reply"
	"aucwatch/pkg/httpx/req"
	"aucwatch/pkg/rest"
)

// searchCacheTTL keeps identical proxied searches off the upstream for a
// minute. The upstream itself aggregates with comparable lag.
const searchCacheTTL = 60 * time.Second

type searchGateway interface {
	SearchAuctions(ctx context.Context, q entity.AuctionSearchCriteria) (*entity.SearchResult, error)
	SearchMarket(ctx context.Context, q entity.MarketSearchCriteria) (*entity.SearchResult, error)
}

type watchRepository interface {
	Upsert(ctx context.Context, watch *entity.AutoWatch) error
}

type SearchServer struct {
	gateway searchGateway
	cache   *cache.Cache
	engine  *identity.Engine
	watches watchRepository
}

func NewSearchServer(
	gateway searchGateway,
	searchCache *cache.Cache,
	engine *identity.Engine,
	watches watchRepository,
) SearchServer {
	return SearchServer{
		gateway: gateway,
		cache:   searchCache,
		engine:  engine,
		watches: watches,
	}
}

func (s SearchServer) getV1Search(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	query := r.URL.Query()

	source := value.Source(query.Get("source"))
	if !source.Valid() {
		return failure.NewInvalidArgumentError(
			"source must be auction or market",
			failure.WithCode(errcodes.InvalidSource),
			failure.WithDescription("source must be auction or market"),
		)
	}

	name := strings.TrimSpace(query.Get("name"))
	if name == "" {
		return failure.NewInvalidArgumentError(
			"name is required",
			failure.WithCode(errcodes.ValidationError),
			failure.WithDescription("name is required"),
		)
	}

	category := intQueryParam(query.Get("category"), 0)
	page := intQueryParam(query.Get("page"), 1)
	grade := strings.TrimSpace(query.Get("grade"))

	var tier *int
	if t := intQueryParam(query.Get("tier"), 0); t > 0 {
		tier = &t
	}

	cacheKey := fmt.Sprintf("search:%s:%s:%s:%d:%d:%d",
		source, name, grade, category, tierValue(tier), page)

	result, err := cache.GetOrSet(ctx, s.cache, cacheKey, searchCacheTTL,
		func(ctx context.Context) (*entity.SearchResult, error) {
			return s.search(ctx, source, name, grade, tier, category, page)
		})
	if err != nil {
		return fmt.Errorf("search: %w", err)
	}

	reply.JSON(ctx, w, http.StatusOK, newRESTSearchResponse(result))

	return nil
}

func (s SearchServer) search(
	ctx context.Context,
	source value.Source,
	name, grade string,
	tier *int,
	category, page int,
) (*entity.SearchResult, error) {
	if source == value.SourceAuction {
		return s.gateway.SearchAuctions(ctx, entity.AuctionSearchCriteria{
			ItemName:     name,
			ItemGrade:    grade,
			ItemTier:     tier,
			CategoryCode: category,
			PageNo:       page,
		})
	}

	return s.gateway.SearchMarket(ctx, entity.MarketSearchCriteria{
		ItemName:     name,
		CategoryCode: category,
		PageNo:       page,
	})
}

// postV1Views регистрирует просмотр предмета: по нему начинает копиться
// ценовая история ещё до того, как пользователь добавил его в избранное.
func (s SearchServer) postV1Views(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	var request rest.ViewRequest

	if err := req.Read(r, &request); err != nil {
		return fmt.Errorf("req.Read: %w", err)
	}

	source := value.Source(request.Source)
	item := newDomainItem(request.Item)

	itemKey, err := s.itemKey(source, item)
	if err != nil {
		return err
	}

	sample, err := jsoniter.Marshal(sampleFavorite(source, item))
	if err != nil {
		return fmt.Errorf("jsoniter.Marshal: %w", err)
	}

	watch := &entity.AutoWatch{
		UserID:      request.UserID,
		ItemKey:     itemKey,
		Source:      source,
		DisplayName: item.Name,
		Sample:      sample,
	}

	if err := s.watches.Upsert(ctx, watch); err != nil {
		return fmt.Errorf("watches.Upsert: %w", err)
	}

	reply.JSON(ctx, w, http.StatusCreated, rest.ViewResponse{ItemKey: itemKey})

	return nil
}

func (s SearchServer) itemKey(source value.Source, item entity.Item) (string, error) {
	if source == value.SourceMarket {
		if item.ID <= 0 {
			return "", failure.NewInvalidArgumentError(
				"market item requires a positive id",
				failure.WithCode(errcodes.InvalidItemID),
				failure.WithDescription("market item requires a positive id"),
			)
		}
		return fmt.Sprintf("%s:%d", value.SourceMarket, item.ID), nil
	}

	matchKey := s.engine.DeriveKey(identity.SubjectFromItem(item))

	return fmt.Sprintf("%s:%s", value.SourceAuction, matchKey), nil
}

// sampleFavorite keeps enough of the viewed item for later classification
// and filtered re-search.
func sampleFavorite(source value.Source, item entity.Item) entity.Favorite {
	favorite := entity.Favorite{
		Source:  source,
		Name:    item.Name,
		Grade:   item.Grade,
		Tier:    item.Tier,
		Quality: item.Quality,
		Icon:    item.Icon,
		Options: item.Options,
	}

	if source == value.SourceMarket && item.ID > 0 {
		id := item.ID
		favorite.ItemID = &id
	}

	return favorite
}

func intQueryParam(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}

	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}

	return v
}

func tierValue(tier *int) int {
	if tier == nil {
		return 0
	}
	return *tier
}
