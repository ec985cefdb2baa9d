package lostark

import "time"

// Wire shapes of the upstream search API. Fields are PascalCase and heavily
// nullable; they never leak past this package.

type auctionSearchRequest struct {
	ItemName       string         `json:"ItemName,omitempty"`
	ItemGrade      string         `json:"ItemGrade,omitempty"`
	ItemTier       *int           `json:"ItemTier,omitempty"`
	CharacterClass string         `json:"CharacterClass,omitempty"`
	CategoryCode   int            `json:"CategoryCode,omitempty"`
	EtcOptions     []etcOption    `json:"EtcOptions,omitempty"`
	Sort           string         `json:"Sort,omitempty"`
	SortCondition  string         `json:"SortCondition,omitempty"`
	PageNo         int            `json:"PageNo"`
}

type marketSearchRequest struct {
	ItemName       string `json:"ItemName,omitempty"`
	ItemGrade      string `json:"ItemGrade,omitempty"`
	ItemTier       *int   `json:"ItemTier,omitempty"`
	CharacterClass string `json:"CharacterClass,omitempty"`
	CategoryCode   int    `json:"CategoryCode,omitempty"`
	Sort           string `json:"Sort,omitempty"`
	SortCondition  string `json:"SortCondition,omitempty"`
	PageNo         int    `json:"PageNo"`
}

type etcOption struct {
	FirstOption  int      `json:"FirstOption"`
	SecondOption int      `json:"SecondOption"`
	MinValue     *float64 `json:"MinValue"`
	MaxValue     *float64 `json:"MaxValue"`
}

type auctionSearchResponse struct {
	PageNo     int               `json:"PageNo"`
	PageSize   int               `json:"PageSize"`
	TotalCount int               `json:"TotalCount"`
	Items      []auctionWireItem `json:"Items"`
}

type auctionWireItem struct {
	ID           int64            `json:"Id"`
	Name         string           `json:"Name"`
	Grade        string           `json:"Grade"`
	Tier         *int             `json:"Tier"`
	Icon         string           `json:"Icon"`
	GradeQuality *int             `json:"GradeQuality"`
	AuctionInfo  *wireAuctionInfo `json:"AuctionInfo"`
	Options      []wireOption     `json:"Options"`
}

type wireAuctionInfo struct {
	StartPrice    float64    `json:"StartPrice"`
	BuyPrice      *float64   `json:"BuyPrice"`
	BidStartPrice float64    `json:"BidStartPrice"`
	EndDate       *time.Time `json:"EndDate"`
}

type wireOption struct {
	OptionName string  `json:"OptionName"`
	Value      float64 `json:"Value"`
}

type marketSearchResponse struct {
	PageNo     int              `json:"PageNo"`
	PageSize   int              `json:"PageSize"`
	TotalCount int              `json:"TotalCount"`
	Items      []marketWireItem `json:"Items"`
}

type marketWireItem struct {
	ID               int64    `json:"Id"`
	Name             string   `json:"Name"`
	Grade            string   `json:"Grade"`
	Icon             string   `json:"Icon"`
	Quality          *int     `json:"Quality"`
	CurrentMinPrice  *float64 `json:"CurrentMinPrice"`
	YDayAvgPrice     *float64 `json:"YDayAvgPrice"`
	RecentPrice      *float64 `json:"RecentPrice"`
	TradeRemainCount *int     `json:"TradeRemainCount"`
}
