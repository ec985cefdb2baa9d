package server

import (
	"aucwatch/internal/domain/entity"
	"aucwatch/internal/domain/value"
	"aucwatch/pkg/lox"
	"aucwatch/pkg/rest"
)

func newRESTSearchResponse(result *entity.SearchResult) rest.SearchResponse {
	return rest.SearchResponse{
		PageNo:     result.PageNo,
		PageSize:   result.PageSize,
		TotalCount: result.TotalCount,
		Items:      lox.Map(result.Items, newRESTItem),
	}
}

func newRESTItem(item entity.Item) rest.Item {
	restItem := rest.Item{
		ID:      item.ID,
		Name:    item.Name,
		Grade:   item.Grade,
		Tier:    item.Tier,
		Icon:    item.Icon,
		Quality: item.Quality,
		Options: lox.Map(item.Options, newRESTOption),
	}

	if item.Auction != nil {
		restItem.Auction = &rest.AuctionInfo{
			StartPrice:    item.Auction.StartPrice,
			BuyPrice:      item.Auction.BuyPrice,
			BidStartPrice: item.Auction.BidStartPrice,
			EndDate:       item.Auction.EndDate,
		}
	}

	if item.Market != nil {
		restItem.Market = &rest.MarketInfo{
			CurrentMinPrice:  item.Market.CurrentMinPrice,
			YDayAvgPrice:     item.Market.YDayAvgPrice,
			RecentPrice:      item.Market.RecentPrice,
			TradeRemainCount: item.Market.TradeRemainCount,
		}
	}

	return restItem
}

func newRESTOption(option value.ItemOption) rest.Option {
	return rest.Option{
		Name:  option.Name,
		Value: option.Value,
	}
}

func newRESTHistory(itemID string, records []entity.PriceRecord) rest.History {
	return rest.History{
		ItemID: itemID,
		Points: lox.Map(records, newRESTPricePoint),
	}
}

func newRESTPricePoint(record entity.PriceRecord) rest.PricePoint {
	return rest.PricePoint{
		Source:     record.Source.String(),
		Price:      record.Price,
		CapturedAt: record.CapturedAt,
	}
}

func newDomainItem(item rest.Item) entity.Item {
	domainItem := entity.Item{
		ID:      item.ID,
		Name:    item.Name,
		Grade:   item.Grade,
		Tier:    item.Tier,
		Icon:    item.Icon,
		Quality: item.Quality,
		Options: lox.Map(item.Options, newDomainOption),
	}

	if item.Auction != nil {
		domainItem.Auction = &entity.AuctionInfo{
			StartPrice:    item.Auction.StartPrice,
			BuyPrice:      item.Auction.BuyPrice,
			BidStartPrice: item.Auction.BidStartPrice,
			EndDate:       item.Auction.EndDate,
		}
	}

	if item.Market != nil {
		domainItem.Market = &entity.MarketInfo{
			CurrentMinPrice:  item.Market.CurrentMinPrice,
			YDayAvgPrice:     item.Market.YDayAvgPrice,
			RecentPrice:      item.Market.RecentPrice,
			TradeRemainCount: item.Market.TradeRemainCount,
		}
	}

	return domainItem
}

func newDomainOption(option rest.Option) value.ItemOption {
	return value.ItemOption{
		Name:  option.Name,
		Value: option.Value,
	}
}
