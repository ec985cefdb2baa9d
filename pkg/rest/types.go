// Данный файл должен быть сгенерирован из openapi спецификации и называться types.gen.go
package rest

import "time"

type SearchResponse struct {
	PageNo     int    `json:"pageNo"`
	PageSize   int    `json:"pageSize"`
	TotalCount int    `json:"totalCount"`
	Items      []Item `json:"items"`
}

type Item struct {
	ID      int64    `json:"id,omitempty"`
	Name    string   `json:"name"`
	Grade   string   `json:"grade,omitempty"`
	Tier    *int     `json:"tier,omitempty"`
	Icon    string   `json:"icon,omitempty"`
	Quality *int     `json:"quality,omitempty"`
	Options []Option `json:"options,omitempty"`

	Auction *AuctionInfo `json:"auctionInfo,omitempty"`
	Market  *MarketInfo  `json:"marketInfo,omitempty"`
}

type Option struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

type AuctionInfo struct {
	StartPrice    float64    `json:"startPrice"`
	BuyPrice      *float64   `json:"buyPrice,omitempty"`
	BidStartPrice float64    `json:"bidStartPrice"`
	EndDate       *time.Time `json:"endDate,omitempty"`
}

type MarketInfo struct {
	CurrentMinPrice  *float64 `json:"currentMinPrice,omitempty"`
	YDayAvgPrice     *float64 `json:"yDayAvgPrice,omitempty"`
	RecentPrice      *float64 `json:"recentPrice,omitempty"`
	TradeRemainCount *int     `json:"tradeRemainCount,omitempty"`
}

type PricePoint struct {
	Source     string    `json:"source"`
	Price      float64   `json:"price"`
	CapturedAt time.Time `json:"capturedAt"`
}

type History struct {
	ItemID string       `json:"itemId"`
	Points []PricePoint `json:"points"`
}

// ViewRequest Регистрация просмотра предмета пользователем
type ViewRequest struct {
	UserID int64  `json:"userId" validate:"required,gt=0"`
	Source string `json:"source" validate:"required,oneof=auction market"`
	Item   Item   `json:"item" validate:"required"`
}

type ViewResponse struct {
	ItemKey string `json:"itemKey"`
}

// Error Модель ошибок
type Error struct {
	// Code Код ошибки
	Code ErrorCode `json:"code"`

	// Message Сообщение об ошибке (для отображения в UI в будущем)
	Message string `json:"message"`
}

// ErrorCode Код ошибки
type ErrorCode string
