package entity

import (
	"time"

	"aucwatch/internal/domain/value"
)

// Item is the canonical shape both upstream endpoints are normalized into.
// Exactly one of Auction/Market is set depending on the searched endpoint.
type Item struct {
	ID      int64              `json:"id"`
	Name    string             `json:"name"`
	Grade   string             `json:"grade"`
	Tier    *int               `json:"tier,omitempty"`
	Icon    string             `json:"icon,omitempty"`
	Quality *int               `json:"quality,omitempty"`
	Options []value.ItemOption `json:"options,omitempty"`

	Auction *AuctionInfo `json:"auctionInfo,omitempty"`
	Market  *MarketInfo  `json:"marketInfo,omitempty"`
}

// AuctionInfo carries the listing prices of an auction item. BuyPrice is nil
// when the listing has no buyout.
type AuctionInfo struct {
	StartPrice    float64    `json:"startPrice"`
	BuyPrice      *float64   `json:"buyPrice,omitempty"`
	BidStartPrice float64    `json:"bidStartPrice"`
	EndDate       *time.Time `json:"endDate,omitempty"`
}

// MarketInfo carries the aggregate prices of a market item. Fields are
// pointers because the upstream reports them as nullable.
type MarketInfo struct {
	CurrentMinPrice  *float64 `json:"currentMinPrice,omitempty"`
	YDayAvgPrice     *float64 `json:"yDayAvgPrice,omitempty"`
	RecentPrice      *float64 `json:"recentPrice,omitempty"`
	TradeRemainCount *int     `json:"tradeRemainCount,omitempty"`
}

// SearchResult is one page of normalized upstream search results.
type SearchResult struct {
	PageNo     int    `json:"pageNo"`
	PageSize   int    `json:"pageSize"`
	TotalCount int    `json:"totalCount"`
	Items      []Item `json:"items"`
}
