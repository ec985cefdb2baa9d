package lostark

import (
	"aucwatch/internal/domain/entity"
	"aucwatch/internal/domain/value"
	"aucwatch/pkg/lox"
)

func normalizeAuctionResponse(resp auctionSearchResponse) *entity.SearchResult {
	return &entity.SearchResult{
		PageNo:     resp.PageNo,
		PageSize:   resp.PageSize,
		TotalCount: resp.TotalCount,
		Items:      lox.Map(resp.Items, normalizeAuctionItem),
	}
}

func normalizeAuctionItem(item auctionWireItem) entity.Item {
	normalized := entity.Item{
		ID:      item.ID,
		Name:    item.Name,
		Grade:   item.Grade,
		Tier:    item.Tier,
		Icon:    item.Icon,
		Quality: item.GradeQuality,
		Options: lox.Map(item.Options, func(opt wireOption) value.ItemOption {
			return value.ItemOption{Name: opt.OptionName, Value: opt.Value}
		}),
	}

	if item.AuctionInfo != nil {
		normalized.Auction = &entity.AuctionInfo{
			StartPrice:    item.AuctionInfo.StartPrice,
			BuyPrice:      item.AuctionInfo.BuyPrice,
			BidStartPrice: item.AuctionInfo.BidStartPrice,
			EndDate:       item.AuctionInfo.EndDate,
		}
	}

	return normalized
}

func normalizeMarketResponse(resp marketSearchResponse) *entity.SearchResult {
	return &entity.SearchResult{
		PageNo:     resp.PageNo,
		PageSize:   resp.PageSize,
		TotalCount: resp.TotalCount,
		Items:      lox.Map(resp.Items, normalizeMarketItem),
	}
}

func normalizeMarketItem(item marketWireItem) entity.Item {
	return entity.Item{
		ID:      item.ID,
		Name:    item.Name,
		Grade:   item.Grade,
		Icon:    item.Icon,
		Quality: item.Quality,
		Market: &entity.MarketInfo{
			CurrentMinPrice:  item.CurrentMinPrice,
			YDayAvgPrice:     item.YDayAvgPrice,
			RecentPrice:      item.RecentPrice,
			TradeRemainCount: item.TradeRemainCount,
		},
	}
}
