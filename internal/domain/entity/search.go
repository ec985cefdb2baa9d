package entity

import "aucwatch/internal/domain/value"

// AuctionSearchCriteria is one page of a filtered auction search.
type AuctionSearchCriteria struct {
	ItemName     string
	ItemGrade    string
	ItemTier     *int
	CategoryCode int
	Filters      []value.OptionFilter
	PageNo       int
}

// MarketSearchCriteria is one page of a market search. A zero CategoryCode
// means "all categories".
type MarketSearchCriteria struct {
	ItemName     string
	CategoryCode int
	PageNo       int
}
